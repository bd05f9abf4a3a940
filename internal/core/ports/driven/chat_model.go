package driven

import (
	"context"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

// ChatModel is a single request/response text completion capability.
// Implementations never retry; retry policy belongs to the caller.
type ChatModel interface {
	// Chat sends the conversation and returns the reply text.
	Chat(ctx context.Context, messages []domain.ChatMessage, knobs domain.ModelKnobs) (*domain.ChatResult, error)

	// Provider returns the backend name
	Provider() domain.ModelProvider

	// Model returns the default model name used when knobs carry none
	Model() string
}

// ModelFactory creates chat models for a provider
type ModelFactory interface {
	// Create returns a model for provider. An empty provider or model selects the configured default.
	// Returns domain.ErrInvalidProvider for unknown or unconfigured providers.
	Create(provider domain.ModelProvider, model string) (ChatModel, error)
}
