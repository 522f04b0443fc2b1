package generation

import "strings"

// Provider A bills one blended rate per 1K tokens.
var openAIRatesPer1K = map[string]float64{
	"gpt-4o-mini":   0.0003,
	"gpt-4o":        0.005,
	"gpt-4-turbo":   0.01,
	"gpt-4":         0.03,
	"gpt-3.5-turbo": 0.001,
}

// DefaultOpenAIRatePer1K applies to models missing from the table.
const DefaultOpenAIRatePer1K = 0.002

// Rates are Provider B input/output prices in USD per million tokens.
type Rates struct {
	Input  float64
	Output float64
}

var anthropicRates = map[string]Rates{
	"claude-3-5-sonnet": {Input: 3, Output: 15},
	"claude-3-7-sonnet": {Input: 3, Output: 15},
	"claude-sonnet-4":   {Input: 3, Output: 15},
	"claude-3-5-haiku":  {Input: 0.8, Output: 4},
	"claude-3-haiku":    {Input: 0.25, Output: 1.25},
	"claude-3-opus":     {Input: 15, Output: 75},
	"claude-opus-4":     {Input: 15, Output: 75},
}

// DefaultAnthropicRates applies to models missing from the table.
var DefaultAnthropicRates = Rates{Input: 3, Output: 15}

// OpenAIRate returns the blended per-1K rate for model.
// Dated model names match their family prefix; the longest prefix wins.
func OpenAIRate(model string) float64 {
	if r, ok := lookupPrefix(openAIRatesPer1K, model); ok {
		return r
	}
	return DefaultOpenAIRatePer1K
}

// OpenAICost is totalTokens/1000 x the model's blended rate.
func OpenAICost(model string, totalTokens int) float64 {
	return float64(totalTokens) / 1000 * OpenAIRate(model)
}

// AnthropicRates returns the input/output rates for model.
func AnthropicRates(model string) Rates {
	if r, ok := lookupPrefix(anthropicRates, model); ok {
		return r
	}
	return DefaultAnthropicRates
}

// AnthropicCost prices a call at the model's rates.
func AnthropicCost(model string, inputTokens, outputTokens int) float64 {
	return CostWithRates(inputTokens, outputTokens, AnthropicRates(model))
}

// CostWithRates is input/1e6 x r.Input + output/1e6 x r.Output.
func CostWithRates(inputTokens, outputTokens int, r Rates) float64 {
	return float64(inputTokens)/1e6*r.Input + float64(outputTokens)/1e6*r.Output
}

func lookupPrefix[V any](table map[string]V, model string) (V, bool) {
	var (
		best    V
		bestLen int
		found   bool
	)
	for prefix, v := range table {
		if strings.HasPrefix(model, prefix) && len(prefix) > bestLen {
			best, bestLen, found = v, len(prefix), true
		}
	}
	return best, found
}
