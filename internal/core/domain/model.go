package domain

// ModelProvider identifies a chat model backend
type ModelProvider string

const (
	ModelProviderAnthropic ModelProvider = "anthropic"
	ModelProviderOpenAI    ModelProvider = "openai"
)

// IsValid returns true if the provider is known
func (p ModelProvider) IsValid() bool {
	return p == ModelProviderAnthropic || p == ModelProviderOpenAI
}

// ChatRole is the author of a chat message
type ChatRole string

const (
	ChatRoleSystem    ChatRole = "system"
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one message of a model conversation
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// ModelKnobs are the tunables of a single call
type ModelKnobs struct {
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
	JSONMode    bool    `json:"jsonMode"`
}

// DefaultModelKnobs returns the knobs used for property mapping
func DefaultModelKnobs() ModelKnobs {
	return ModelKnobs{
		Temperature: 0.2,
		MaxTokens:   2048,
		JSONMode:    true,
	}
}

// TokenUsage reports model token consumption
type TokenUsage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// ChatResult is the text reply of a model
type ChatResult struct {
	Content string     `json:"content"`
	Usage   TokenUsage `json:"usage"`
}
