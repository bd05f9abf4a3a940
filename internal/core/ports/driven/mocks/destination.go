package mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
)

// MockDestinationClient is an in-memory DestinationClient that records every write.
type MockDestinationClient struct {
	mu sync.Mutex

	// collections maps collection id to its raw object
	collections map[string]json.RawMessage
	// access maps token to the collection ids it can read
	access map[string]map[string]bool

	CreatedPages  []*driven.CreatePageRequest
	Appends       [][]domain.Block
	OptionUpdates []OptionUpdate
	Uploads       []*domain.UploadPayload

	// Custom behavior hooks (optional)
	CreatePageFn    func(req *driven.CreatePageRequest) (*driven.CreatedPage, error)
	AppendBlocksFn  func(pageID string, blocks []domain.Block) error
	UpdateOptionsFn func(property string, options []string) error
	StartUploadFn   func(filename, contentType string) (*domain.UploadSlot, error)
	UploadFn        func(slot *domain.UploadSlot, payload *domain.UploadPayload) error

	pageSeq   int
	uploadSeq int
}

// OptionUpdate is one recorded UpdateOptions call
type OptionUpdate struct {
	CollectionID string
	Property     string
	Type         domain.PropertyType
	Options      []string
}

// NewMockDestinationClient creates an empty destination
func NewMockDestinationClient() *MockDestinationClient {
	return &MockDestinationClient{
		collections: make(map[string]json.RawMessage),
		access:      make(map[string]map[string]bool),
	}
}

// AddCollection registers a raw collection readable by the given tokens
func (m *MockDestinationClient) AddCollection(id string, raw json.RawMessage, tokens ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[id] = raw
	for _, token := range tokens {
		if m.access[token] == nil {
			m.access[token] = make(map[string]bool)
		}
		m.access[token][id] = true
	}
}

func (m *MockDestinationClient) GetCollection(ctx context.Context, token, collectionID string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.access[token][collectionID] {
		return nil, fmt.Errorf("get collection %s: %w", collectionID, domain.ErrNotAccessible)
	}
	return m.collections[collectionID], nil
}

func (m *MockDestinationClient) SearchCollections(ctx context.Context, token, cursor string) (*driven.CollectionPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	page := &driven.CollectionPage{}
	for id := range m.access[token] {
		page.Items = append(page.Items, domain.CollectionSummary{
			ID:    id,
			Title: id,
			URL:   "https://dest.test/" + id,
		})
	}
	return page, nil
}

func (m *MockDestinationClient) CreatePage(ctx context.Context, token string, req *driven.CreatePageRequest) (*driven.CreatedPage, error) {
	m.mu.Lock()
	m.CreatedPages = append(m.CreatedPages, req)
	m.pageSeq++
	seq := m.pageSeq
	m.mu.Unlock()

	if m.CreatePageFn != nil {
		return m.CreatePageFn(req)
	}
	id := fmt.Sprintf("page-%d", seq)
	return &driven.CreatedPage{ID: id, URL: "https://dest.test/" + id}, nil
}

func (m *MockDestinationClient) AppendBlocks(ctx context.Context, token, pageID string, blocks []domain.Block) error {
	m.mu.Lock()
	m.Appends = append(m.Appends, blocks)
	m.mu.Unlock()

	if m.AppendBlocksFn != nil {
		return m.AppendBlocksFn(pageID, blocks)
	}
	return nil
}

func (m *MockDestinationClient) UpdateOptions(ctx context.Context, token, collectionID, property string, propType domain.PropertyType, options []string) error {
	m.mu.Lock()
	m.OptionUpdates = append(m.OptionUpdates, OptionUpdate{
		CollectionID: collectionID,
		Property:     property,
		Type:         propType,
		Options:      append([]string(nil), options...),
	})
	m.mu.Unlock()

	if m.UpdateOptionsFn != nil {
		return m.UpdateOptionsFn(property, options)
	}
	return nil
}

func (m *MockDestinationClient) StartFileUpload(ctx context.Context, token, filename, contentType string) (*domain.UploadSlot, error) {
	if m.StartUploadFn != nil {
		return m.StartUploadFn(filename, contentType)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadSeq++
	return &domain.UploadSlot{
		ID:        fmt.Sprintf("upload-%d", m.uploadSeq),
		UploadURL: "https://dest.test/file_uploads/send",
	}, nil
}

func (m *MockDestinationClient) Upload(ctx context.Context, token string, slot *domain.UploadSlot, payload *domain.UploadPayload) error {
	m.mu.Lock()
	m.Uploads = append(m.Uploads, payload)
	m.mu.Unlock()

	if m.UploadFn != nil {
		return m.UploadFn(slot, payload)
	}
	return nil
}
