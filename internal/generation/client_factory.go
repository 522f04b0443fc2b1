package generation

import (
	"contentforge/internal/config"
	"contentforge/internal/usage"
)

// NewClientFromConfig builds a client from application configuration.
func NewClientFromConfig(cfg *config.Config, ledger *usage.Ledger, opts ...Option) (*Client, error) {
	provider := cfg.LLM.Provider
	return NewClient(Config{
		Provider:    provider,
		APIKey:      cfg.APIKeyFor(provider),
		Model:       cfg.LLM.ResolvedModel(),
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.GetLLMTimeout(),
	}, ledger, opts...)
}
