package ai

import (
	"fmt"
	"time"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
)

// Ensure Factory implements ModelFactory
var _ driven.ModelFactory = (*Factory)(nil)

// Default model per provider, used when neither the request nor the config names one
const (
	DefaultAnthropicModel = "claude-sonnet-4-5"
	DefaultOpenAIModel    = "gpt-4o-mini"
)

// Config holds provider credentials and defaults
type Config struct {
	DefaultProvider domain.ModelProvider
	DefaultModel    string

	AnthropicAPIKey  string
	AnthropicBaseURL string

	OpenAIAPIKey  string
	OpenAIBaseURL string

	Timeout time.Duration
}

// Factory creates chat models based on configuration
type Factory struct {
	cfg Config
}

// NewFactory creates a new model factory
func NewFactory(cfg Config) *Factory {
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = domain.ModelProviderAnthropic
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Factory{cfg: cfg}
}

// Create returns a chat model for provider. Empty values select the configured defaults.
func (f *Factory) Create(provider domain.ModelProvider, model string) (driven.ChatModel, error) {
	if provider == "" {
		provider = f.cfg.DefaultProvider
	}
	if !provider.IsValid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, provider)
	}
	if model == "" {
		model = f.defaultModel(provider)
	}

	switch provider {
	case domain.ModelProviderAnthropic:
		return NewAnthropicChat(f.cfg.AnthropicAPIKey, model, f.cfg.AnthropicBaseURL, f.cfg.Timeout)
	case domain.ModelProviderOpenAI:
		return NewOpenAIChat(f.cfg.OpenAIAPIKey, model, f.cfg.OpenAIBaseURL, f.cfg.Timeout)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, provider)
	}
}

// Configured reports whether the provider has credentials
func (f *Factory) Configured(provider domain.ModelProvider) bool {
	switch provider {
	case domain.ModelProviderAnthropic:
		return f.cfg.AnthropicAPIKey != ""
	case domain.ModelProviderOpenAI:
		return f.cfg.OpenAIAPIKey != ""
	}
	return false
}

func (f *Factory) defaultModel(provider domain.ModelProvider) string {
	if provider == f.cfg.DefaultProvider && f.cfg.DefaultModel != "" {
		return f.cfg.DefaultModel
	}
	if provider == domain.ModelProviderOpenAI {
		return DefaultOpenAIModel
	}
	return DefaultAnthropicModel
}
