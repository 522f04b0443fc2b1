package config

// LLMConfig configures the generation client.
type LLMConfig struct {
	Provider        string  `yaml:"provider"` // openai, anthropic
	OpenAIAPIKey    string  `yaml:"openai_api_key,omitempty"`
	AnthropicAPIKey string  `yaml:"anthropic_api_key,omitempty"`
	Model           string  `yaml:"model"`    // empty = provider default
	BaseURL         string  `yaml:"base_url"` // empty = provider default
	Temperature     float64 `yaml:"temperature"`
	MaxTokens       int     `yaml:"max_tokens"`
	Timeout         string  `yaml:"timeout"`
}

// Default models per provider.
const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-sonnet-20241022"
)

// DefaultLLMConfig returns the default LLM configuration.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:    ProviderOpenAI,
		Temperature: 0.7,
		MaxTokens:   2000,
		Timeout:     "120s",
	}
}

// ResolvedModel returns the configured model or the provider default.
func (c LLMConfig) ResolvedModel() string {
	if c.Model != "" {
		return c.Model
	}
	switch c.Provider {
	case ProviderAnthropic:
		return DefaultAnthropicModel
	default:
		return DefaultOpenAIModel
	}
}
