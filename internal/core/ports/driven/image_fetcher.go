package driven

import (
	"context"
	"fmt"
)

// FetchedImage is a downloaded image
type FetchedImage struct {
	Data        []byte
	ContentType string
}

// ImageFetcher downloads external images
type ImageFetcher interface {
	// Fetch downloads rawURL. Bodies larger than maxBytes fail with domain.ErrFileTooLarge.
	// A non-2xx response returns a *FetchError carrying the status code.
	Fetch(ctx context.Context, rawURL, referer string, maxBytes int64) (*FetchedImage, error)
}

// FetchError reports a non-success HTTP status from a fetch or upload
type FetchError struct {
	StatusCode int
	Message    string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}
