package usage

import (
	"sync"
	"unicode/utf8"

	"contentforge/internal/logging"

	"github.com/pkoukk/tiktoken-go"
)

// fallbackEncoding is used for models tiktoken does not know (e.g. Claude).
const fallbackEncoding = "cl100k_base"

// Estimator approximates token counts when a provider does not report usage.
// It loads a tiktoken encoding lazily and falls back to a characters/4
// heuristic if no encoding can be loaded.
type Estimator struct {
	model   string
	once    sync.Once
	enc     *tiktoken.Tiktoken
	disable bool
}

// NewEstimator creates an estimator for model.
func NewEstimator(model string) *Estimator {
	return &Estimator{model: model}
}

// NewHeuristicEstimator creates an estimator that never loads an encoding.
func NewHeuristicEstimator() *Estimator {
	return &Estimator{disable: true}
}

func (e *Estimator) load() {
	if e.disable {
		return
	}
	enc, err := tiktoken.EncodingForModel(e.model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
	}
	if err != nil {
		logging.UsageWarn("Token encoding unavailable for %s, using heuristic: %v", e.model, err)
		return
	}
	e.enc = enc
}

// Count returns the estimated token count of text.
func (e *Estimator) Count(text string) int {
	if text == "" {
		return 0
	}
	e.once.Do(e.load)
	if e.enc != nil {
		return len(e.enc.Encode(text, nil, nil))
	}
	return HeuristicTokens(text)
}

// HeuristicTokens estimates tokens as one per four characters, rounded up.
func HeuristicTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}
