package reasoning

import (
	"context"
	"fmt"
	"time"

	"contentforge/internal/logging"
	"contentforge/internal/profile"
	"contentforge/internal/types"

	"github.com/google/uuid"
)

// Pipeline runs reasoning workflows against a generator. Runs are
// sequential; a Pipeline may be shared across goroutines.
type Pipeline struct {
	generator types.Generator
	voice     *profile.VoiceToneProfile
	brand     *profile.BrandProfile
	genOpts   types.GenerateOptions
	onPhase   func(ReasoningStep)
	now       func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithProfiles blends the voice and brand into every system prompt.
func WithProfiles(voice *profile.VoiceToneProfile, brand *profile.BrandProfile) Option {
	return func(p *Pipeline) {
		p.voice = voice
		p.brand = brand
	}
}

// WithGenerateOptions sets the per-call generation options.
func WithGenerateOptions(opts types.GenerateOptions) Option {
	return func(p *Pipeline) { p.genOpts = opts }
}

// OnPhaseComplete registers a synchronous callback invoked after each phase.
func OnPhaseComplete(fn func(ReasoningStep)) Option {
	return func(p *Pipeline) { p.onPhase = fn }
}

// NewPipeline creates a pipeline.
func NewPipeline(generator types.Generator, opts ...Option) *Pipeline {
	p := &Pipeline{generator: generator, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) system(base string) string {
	return profile.ComposeSystemPrompt(base, p.voice, p.brand)
}

// call is the single-generation primitive every workflow is built on.
func (p *Pipeline) call(ctx context.Context, system, user string) (*types.Generation, error) {
	return p.generator.Generate(ctx, p.system(system), user, p.genOpts)
}

// Run executes analysis, research, ideation, refinement and validation in
// order, feeding each phase's raw output into the next. FinalOutput is the
// refinement text and is set only when every phase succeeds. On failure the
// returned chain has status failed and keeps the completed steps.
func (p *Pipeline) Run(ctx context.Context, goal, reqContext string) (*ReasoningChain, error) {
	chain := &ReasoningChain{
		ID:        uuid.New().String(),
		Goal:      goal,
		Context:   reqContext,
		Status:    StatusPending,
		CreatedAt: p.now(),
	}

	log := logging.WithRequestID(logging.CategoryReasoning, chain.ID).
		WithField("phases", len(Phases)).
		WithField("has_context", reqContext != "")
	log.Info("Reasoning run started: goal=%q", goal)
	chain.Status = StatusInProgress

	var previous, refined string
	for _, phase := range Phases {
		if err := ctx.Err(); err != nil {
			return p.fail(chain, phase, err)
		}

		step := ReasoningStep{
			Type:      phase,
			Prompt:    phaseUserPrompt(phase, goal, reqContext, previous),
			StartedAt: p.now(),
		}

		gen, err := p.call(ctx, phaseSystemPrompts[phase], step.Prompt)
		if err != nil {
			return p.fail(chain, phase, err)
		}

		step.Output = gen.Text
		step.TokensUsed = gen.TokensUsed
		step.Cost = gen.Cost
		step.CompletedAt = p.now()
		chain.Steps = append(chain.Steps, step)

		log.Debug("Phase %s complete: tokens=%d", phase, gen.TokensUsed)
		if p.onPhase != nil {
			p.onPhase(step)
		}

		previous = gen.Text
		if phase == StepRefinement {
			refined = gen.Text
		}
	}

	chain.FinalOutput = refined
	chain.Status = StatusCompleted
	chain.CompletedAt = p.now()
	log.Info("Reasoning run completed: tokens=%d cost=%.6f", chain.TotalTokens(), chain.TotalCost())
	return chain, nil
}

func (p *Pipeline) fail(chain *ReasoningChain, phase StepType, err error) (*ReasoningChain, error) {
	chain.Status = StatusFailed
	chain.CompletedAt = p.now()
	chain.Err = err.Error()
	logging.ReasoningError("Reasoning run %s failed in %s after %d steps: %v", chain.ID, phase, len(chain.Steps), err)
	return chain, fmt.Errorf("reasoning %s phase: %w", phase, err)
}
