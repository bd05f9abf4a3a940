package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ImageFetcher = (*Fetcher)(nil)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "clipper-core/1.0"
	maxErrorMessage  = 200
)

// Config holds fetcher settings
type Config struct {
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Fetcher downloads external images over HTTP
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

// NewFetcher creates a new image fetcher
func NewFetcher(cfg Config) *Fetcher {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{httpClient: httpClient, userAgent: userAgent, logger: logger}
}

// Fetch downloads rawURL. Some hosts only serve images to requests that
// carry the embedding page as Referer, so referer is sent when present.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, referer string, maxBytes int64) (*driven.FetchedImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, domain.RedactTransportError(err))
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "image/*,*/*;q=0.8")
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", domain.RedactTransportError(err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorMessage))
		return nil, &driven.FetchError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	if maxBytes > 0 && resp.ContentLength > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", domain.ErrFileTooLarge, resp.ContentLength)
	}

	reader := io.Reader(resp.Body)
	if maxBytes > 0 {
		reader = io.LimitReader(resp.Body, maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", domain.ErrFileTooLarge, maxBytes)
	}

	contentType := mediaType(resp.Header.Get("Content-Type"))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mediaType(http.DetectContentType(data))
	}

	f.logger.Debug("fetched image", "bytes", len(data), "content_type", contentType)

	return &driven.FetchedImage{Data: data, ContentType: contentType}, nil
}

func mediaType(header string) string {
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return mt
}
