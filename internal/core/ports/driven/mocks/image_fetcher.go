package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
)

// MockImageFetcher serves images from memory
type MockImageFetcher struct {
	mu     sync.Mutex
	images map[string]*driven.FetchedImage
	errs   map[string]error
	Calls  []string
}

// NewMockImageFetcher creates a fetcher with no images
func NewMockImageFetcher() *MockImageFetcher {
	return &MockImageFetcher{
		images: make(map[string]*driven.FetchedImage),
		errs:   make(map[string]error),
	}
}

// Serve registers an image body for url
func (m *MockImageFetcher) Serve(url, contentType string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[url] = &driven.FetchedImage{Data: data, ContentType: contentType}
}

// Fail makes fetching url return err
func (m *MockImageFetcher) Fail(url string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[url] = err
}

func (m *MockImageFetcher) Fetch(ctx context.Context, rawURL, referer string, maxBytes int64) (*driven.FetchedImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, rawURL)
	if err, ok := m.errs[rawURL]; ok {
		return nil, err
	}
	img, ok := m.images[rawURL]
	if !ok {
		return nil, &driven.FetchError{StatusCode: 404, Message: "not found"}
	}
	if int64(len(img.Data)) > maxBytes {
		return nil, domain.ErrFileTooLarge
	}
	return img, nil
}
