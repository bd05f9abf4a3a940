package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/custodia-labs/clipper-core/internal/core/domain"
	"github.com/custodia-labs/clipper-core/internal/core/ports/driven"
)

// Ensure AnthropicChat implements ChatModel
var _ driven.ChatModel = (*AnthropicChat)(nil)

// AnthropicChat implements ChatModel using the Messages API
type AnthropicChat struct {
	client anthropic.Client
	model  string
}

// NewAnthropicChat creates a new Anthropic chat model.
// SDK retries are disabled; the caller owns retry policy.
func NewAnthropicChat(apiKey, model, baseURL string, timeout time.Duration) (*AnthropicChat, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: Anthropic API key is required", domain.ErrInvalidProvider)
	}
	if model == "" {
		model = DefaultAnthropicModel
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &AnthropicChat{
		client: anthropic.NewClient(opts...),
		model:  model,
	}, nil
}

// Chat sends the conversation. System messages are lifted into the system prompt.
func (a *AnthropicChat) Chat(ctx context.Context, messages []domain.ChatMessage, knobs domain.ModelKnobs) (*domain.ChatResult, error) {
	params, err := a.buildParams(messages, knobs)
	if err != nil {
		return nil, err
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic chat: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return &domain.ChatResult{
		Content: sb.String(),
		Usage: domain.TokenUsage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}, nil
}

func (a *AnthropicChat) buildParams(messages []domain.ChatMessage, knobs domain.ModelKnobs) (anthropic.MessageNewParams, error) {
	model := knobs.Model
	if model == "" {
		model = a.model
	}
	maxTokens := knobs.MaxTokens
	if maxTokens <= 0 {
		maxTokens = domain.DefaultModelKnobs().MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(knobs.Temperature),
	}
	for _, m := range messages {
		switch m.Role {
		case domain.ChatRoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
		case domain.ChatRoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	if len(params.Messages) == 0 {
		return params, fmt.Errorf("%w: no user messages", domain.ErrInvalidInput)
	}
	return params, nil
}

// Provider returns the backend name
func (a *AnthropicChat) Provider() domain.ModelProvider {
	return domain.ModelProviderAnthropic
}

// Model returns the default model name
func (a *AnthropicChat) Model() string {
	return a.model
}
