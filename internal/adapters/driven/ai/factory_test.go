package ai

import (
	"errors"
	"testing"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
)

func TestFactory_Create_DefaultProvider(t *testing.T) {
	factory := NewFactory(Config{AnthropicAPIKey: "sk-ant-test"})

	model, err := factory.Create("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.Provider() != domain.ModelProviderAnthropic {
		t.Errorf("expected anthropic provider, got %s", model.Provider())
	}
	if model.Model() != DefaultAnthropicModel {
		t.Errorf("expected default model %s, got %s", DefaultAnthropicModel, model.Model())
	}
}

func TestFactory_Create_ConfiguredDefaultModel(t *testing.T) {
	factory := NewFactory(Config{
		DefaultProvider: domain.ModelProviderOpenAI,
		DefaultModel:    "gpt-4.1",
		OpenAIAPIKey:    "sk-test",
		AnthropicAPIKey: "sk-ant-test",
	})

	model, err := factory.Create("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.Provider() != domain.ModelProviderOpenAI || model.Model() != "gpt-4.1" {
		t.Errorf("unexpected model %s/%s", model.Provider(), model.Model())
	}

	// The configured default model only applies to the default provider
	other, err := factory.Create(domain.ModelProviderAnthropic, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other.Model() != DefaultAnthropicModel {
		t.Errorf("expected %s, got %s", DefaultAnthropicModel, other.Model())
	}
}

func TestFactory_Create_RequestOverride(t *testing.T) {
	factory := NewFactory(Config{OpenAIAPIKey: "sk-test"})

	model, err := factory.Create(domain.ModelProviderOpenAI, "gpt-4o")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.Model() != "gpt-4o" {
		t.Errorf("expected override model, got %s", model.Model())
	}
}

func TestFactory_Create_InvalidProvider(t *testing.T) {
	factory := NewFactory(Config{AnthropicAPIKey: "sk-ant-test"})

	_, err := factory.Create("ollama", "")
	if !errors.Is(err, domain.ErrInvalidProvider) {
		t.Errorf("expected ErrInvalidProvider, got %v", err)
	}
}

func TestFactory_Create_Unconfigured(t *testing.T) {
	factory := NewFactory(Config{})

	for _, p := range []domain.ModelProvider{domain.ModelProviderAnthropic, domain.ModelProviderOpenAI} {
		if factory.Configured(p) {
			t.Errorf("%s should not be configured", p)
		}
		_, err := factory.Create(p, "")
		if !errors.Is(err, domain.ErrInvalidProvider) {
			t.Errorf("%s: expected ErrInvalidProvider, got %v", p, err)
		}
	}
}
