package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
)

// Ensure Client implements the interface
var _ driven.DestinationClient = (*Client)(nil)

const (
	// DefaultBaseURL is the public API endpoint
	DefaultBaseURL = "https://api.notion.com/v1"

	// DefaultVersion is the API version header sent on every request
	DefaultVersion = "2022-06-28"

	// DefaultRequestsPerSecond matches the documented average request limit
	DefaultRequestsPerSecond = 3

	maxRetries       = 3
	maxErrorBody     = 500
	maxRetryAfter    = 30 * time.Second
	defaultRetryBase = 500 * time.Millisecond
)

// Config holds client settings
type Config struct {
	BaseURL           string
	Version           string
	RequestsPerSecond float64
	Timeout           time.Duration

	// RetryBaseDelay is the linear backoff step used when the response has no Retry-After
	RetryBaseDelay time.Duration

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the collection API using per-call integration tokens.
// All calls share one rate limiter.
type Client struct {
	httpClient *http.Client
	baseURL    string
	version    string
	limiter    *rate.Limiter
	retryBase  time.Duration
	logger     *slog.Logger
}

// NewClient creates a new API client
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = defaultRetryBase
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		version:    cfg.Version,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		retryBase:  cfg.RetryBaseDelay,
		logger:     logger,
	}
}

// APIError is a non-success API response
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// isAccessDenied reports whether the token cannot see the object
func (e *APIError) isAccessDenied() bool {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// doRequest performs an authenticated JSON request with retries on 429 and 5xx.
// out may be nil when the response body is not needed.
func (c *Client) doRequest(ctx context.Context, method, path, token string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		c.setHeaders(req, token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}

		if retryable(resp.StatusCode) && attempt < maxRetries {
			wait := c.retryDelay(resp, attempt)
			_ = resp.Body.Close()
			c.logger.Warn("destination request throttled, retrying",
				"method", method,
				"path", path,
				"status", resp.StatusCode,
				"attempt", attempt+1,
				"wait", wait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}

		return decodeResponse(resp, out)
	}
}

func (c *Client) setHeaders(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Accept", "application/json")
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// retryDelay honours Retry-After in seconds, falling back to a linear backoff
func (c *Client) retryDelay(resp *http.Response, attempt int) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs >= 0 {
			d := time.Duration(secs) * time.Second
			if d > maxRetryAfter {
				d = maxRetryAfter
			}
			return d
		}
	}
	return time.Duration(attempt+1) * c.retryBase
}

func decodeResponse(resp *http.Response, out any) error {
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return readAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func readAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var parsed struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Message != "" {
		apiErr.Code = parsed.Code
		apiErr.Message = domain.Truncate(parsed.Message, maxErrorBody)
	} else {
		apiErr.Message = domain.Truncate(strings.TrimSpace(string(body)), maxErrorBody)
	}
	return apiErr
}

// readError maps read failures onto domain.ErrNotAccessible where the token lacks access
func readError(op string, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.isAccessDenied() {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrNotAccessible, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// writeError wraps every write failure in domain.ErrDestinationWrite
func writeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrDestinationWrite, err)
}
