// Package reasoning implements the five-phase deep generation workflow and
// the refinement, critique and comparison utilities built on the same
// single-call primitive.
package reasoning

import "time"

// StepType names a reasoning phase.
type StepType string

const (
	StepAnalysis   StepType = "analysis"
	StepResearch   StepType = "research"
	StepIdeation   StepType = "ideation"
	StepRefinement StepType = "refinement"
	StepValidation StepType = "validation"
)

// Phases is the fixed execution order.
var Phases = []StepType{StepAnalysis, StepResearch, StepIdeation, StepRefinement, StepValidation}

// Status is the lifecycle of a ReasoningChain.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ReasoningStep is one completed phase.
type ReasoningStep struct {
	Type        StepType  `json:"type"`
	Prompt      string    `json:"prompt"`
	Output      string    `json:"output"`
	TokensUsed  int       `json:"tokens_used"`
	Cost        float64   `json:"cost"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// ReasoningChain is one run of the pipeline. Steps holds completed phases
// only, so a failed run keeps what finished before the error.
type ReasoningChain struct {
	ID          string          `json:"id"`
	Goal        string          `json:"goal"`
	Context     string          `json:"context"`
	Steps       []ReasoningStep `json:"steps"`
	FinalOutput string          `json:"final_output,omitempty"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt time.Time       `json:"completed_at,omitempty"`
	Err         string          `json:"error,omitempty"`
}

// Step returns the completed step of type t.
func (c *ReasoningChain) Step(t StepType) (ReasoningStep, bool) {
	for _, s := range c.Steps {
		if s.Type == t {
			return s, true
		}
	}
	return ReasoningStep{}, false
}

// TotalTokens sums completed steps.
func (c *ReasoningChain) TotalTokens() int {
	total := 0
	for _, s := range c.Steps {
		total += s.TokensUsed
	}
	return total
}

// TotalCost sums completed steps.
func (c *ReasoningChain) TotalCost() float64 {
	total := 0.0
	for _, s := range c.Steps {
		total += s.Cost
	}
	return total
}

// RefinementRound is one pass of iterative refinement.
type RefinementRound struct {
	Round           int      `json:"round"`
	Input           string   `json:"input"`
	ImprovedContent string   `json:"improved_content"`
	Improvements    []string `json:"improvements,omitempty"`
	// Parsed is false when no "Improved Content" section was found and
	// ImprovedContent is the raw response.
	Parsed     bool    `json:"parsed"`
	Raw        string  `json:"raw"`
	TokensUsed int     `json:"tokens_used"`
	Cost       float64 `json:"cost"`
}

// Perspective is a critic persona.
type Perspective struct {
	Role  string `json:"role"`
	Focus string `json:"focus"`
}

// Critique is one perspective's review.
type Critique struct {
	Perspective     Perspective `json:"perspective"`
	Analysis        string      `json:"analysis"`
	Recommendations []string    `json:"recommendations,omitempty"`
	Parsed          bool        `json:"parsed"`
	Raw             string      `json:"raw"`
	TokensUsed      int         `json:"tokens_used"`
	Cost            float64     `json:"cost"`
}

// Version is one labeled candidate for Compare.
type Version struct {
	Label   string `json:"label"`
	Content string `json:"content"`
}

// Comparison is the outcome of Compare. Winner is empty when no label
// could be recognized in the response.
type Comparison struct {
	Raw        string  `json:"raw"`
	Winner     string  `json:"winner,omitempty"`
	TokensUsed int     `json:"tokens_used"`
	Cost       float64 `json:"cost"`
}
