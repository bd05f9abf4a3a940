package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
)

// MockChatModel replays scripted replies in order.
// Once the script is exhausted the last reply is repeated.
type MockChatModel struct {
	mu      sync.Mutex
	replies []string
	Calls   [][]domain.ChatMessage

	// Custom behavior hook (optional)
	ChatFn func(messages []domain.ChatMessage) (*domain.ChatResult, error)
}

// NewMockChatModel creates a model that answers with replies
func NewMockChatModel(replies ...string) *MockChatModel {
	return &MockChatModel{replies: replies}
}

func (m *MockChatModel) Chat(ctx context.Context, messages []domain.ChatMessage, knobs domain.ModelKnobs) (*domain.ChatResult, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, messages)
	n := len(m.Calls)
	m.mu.Unlock()

	if m.ChatFn != nil {
		return m.ChatFn(messages)
	}
	if len(m.replies) == 0 {
		return &domain.ChatResult{}, nil
	}
	idx := n - 1
	if idx >= len(m.replies) {
		idx = len(m.replies) - 1
	}
	return &domain.ChatResult{Content: m.replies[idx]}, nil
}

func (m *MockChatModel) Provider() domain.ModelProvider {
	return domain.ModelProviderAnthropic
}

func (m *MockChatModel) Model() string {
	return "mock-model"
}

// CallCount returns the number of Chat calls
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockModelFactory always returns the same model
type MockModelFactory struct {
	Model driven.ChatModel
	Err   error
}

func (f *MockModelFactory) Create(provider domain.ModelProvider, model string) (driven.ChatModel, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Model, nil
}
