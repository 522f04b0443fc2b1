// Package chain runs multi-step prompt pipelines that thread each step's
// output into a shared context read by later steps.
package chain

import "time"

// PromptChainStep is one generation in a chain.
type PromptChainStep struct {
	StepNumber       int    `yaml:"step_number" json:"step_number"`
	PromptTemplateID string `yaml:"template" json:"template"`
	// InputMapping maps a template variable to a dot path in the context.
	InputMapping map[string]string `yaml:"input_mapping" json:"input_mapping"`
	OutputKey    string            `yaml:"output_key" json:"output_key"`
	// RequiresUserInput is advisory: missing variables are logged and the
	// step runs anyway.
	RequiresUserInput bool `yaml:"requires_user_input,omitempty" json:"requires_user_input,omitempty"`
}

// PromptChain is a named, ordered pipeline of steps.
type PromptChain struct {
	ID                string            `yaml:"id" json:"id"`
	Name              string            `yaml:"name" json:"name"`
	Description       string            `yaml:"description" json:"description"`
	// Steps run in ascending StepNumber regardless of declaration order.
	// Step numbers must be unique.
	Steps             []PromptChainStep `yaml:"steps" json:"steps"`
	FinalOutputFormat string            `yaml:"final_output_format" json:"final_output_format"`
}

// State is the executor lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// StepResult records one completed step.
type StepResult struct {
	StepNumber int           `json:"step_number"`
	TemplateID string        `json:"template_id"`
	OutputKey  string        `json:"output_key"`
	Output     string        `json:"output"`
	TokensUsed int           `json:"tokens_used"`
	Cost       float64       `json:"cost"`
	Unresolved []string      `json:"unresolved,omitempty"`
	Missing    []string      `json:"missing,omitempty"` // only set when RequiresUserInput let the step proceed
	Duration   time.Duration `json:"duration"`
}

// Result is the outcome of ExecuteChain. On failure it carries the steps
// that completed before the error.
type Result struct {
	ChainID     string       `json:"chain_id"`
	FinalOutput string       `json:"final_output"`
	StepResults []StepResult `json:"step_results"`
	TotalTokens int          `json:"total_tokens"`
	TotalCost   float64      `json:"total_cost"`
	// Unresolved lists placeholders left verbatim in FinalOutput.
	Unresolved []string `json:"unresolved,omitempty"`
}

// Options configures one execution.
type Options struct {
	// OnStepComplete is called synchronously after each step.
	OnStepComplete func(StepResult)
}
