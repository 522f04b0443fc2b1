package types

import (
	"context"
)

// GenerateOptions tunes a single generation call.
// A nil Temperature or zero MaxTokens means "use the client's configured default".
type GenerateOptions struct {
	Temperature *float64
	MaxTokens   int
}

// Float64 returns a pointer to v, for setting GenerateOptions.Temperature.
func Float64(v float64) *float64 { return &v }

// Generation is the result of one completed provider call.
type Generation struct {
	Text         string  `json:"text"`
	TokensUsed   int     `json:"tokens_used"`
	InputTokens  int     `json:"input_tokens,omitempty"`
	OutputTokens int     `json:"output_tokens,omitempty"`
	Cost         float64 `json:"cost"`
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
}

// Generator performs single-shot text generation.
// Chain and reasoning code depend on this rather than on a concrete client.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, opts GenerateOptions) (*Generation, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, systemPrompt, userPrompt string, opts GenerateOptions) (*Generation, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, systemPrompt, userPrompt string, opts GenerateOptions) (*Generation, error) {
	return f(ctx, systemPrompt, userPrompt, opts)
}
