package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyExists indicates a record with the same identity already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrNotAccessible indicates no linked credential can read the target collection
	ErrNotAccessible = errors.New("collection not accessible")

	// ErrNoCredentials indicates the user has not linked any destination workspace
	ErrNoCredentials = errors.New("no linked credentials")

	// ErrModelOutputInvalid indicates the model reply held no usable JSON object
	ErrModelOutputInvalid = errors.New("model output invalid")

	// ErrDestinationWrite indicates the destination rejected the page write
	ErrDestinationWrite = errors.New("destination write failed")

	// ErrFileTooLarge indicates a fetched file exceeded the upload size limit
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidProvider indicates an unknown model provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates a downstream service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)
