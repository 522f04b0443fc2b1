package chain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"contentforge/internal/logging"
	"contentforge/internal/profile"
	"contentforge/internal/prompt"
	"contentforge/internal/types"
)

// ErrBusy is returned when ExecuteChain is called while the executor is
// already running a chain.
var ErrBusy = errors.New("chain executor is already running")

// Executor runs chains one at a time against a template registry and a
// generator. Construct one per concurrent execution.
type Executor struct {
	registry  *prompt.Registry
	generator types.Generator

	voice   *profile.VoiceToneProfile
	brand   *profile.BrandProfile
	genOpts types.GenerateOptions

	mu        sync.RWMutex
	state     State
	stepIndex int
}

// ExecutorOption customizes an Executor.
type ExecutorOption func(*Executor)

// WithProfiles blends the voice and brand into every step's system prompt.
func WithProfiles(voice *profile.VoiceToneProfile, brand *profile.BrandProfile) ExecutorOption {
	return func(e *Executor) {
		e.voice = voice
		e.brand = brand
	}
}

// WithGenerateOptions sets the per-call generation options.
func WithGenerateOptions(opts types.GenerateOptions) ExecutorOption {
	return func(e *Executor) { e.genOpts = opts }
}

// NewExecutor creates an idle executor.
func NewExecutor(registry *prompt.Registry, generator types.Generator, opts ...ExecutorOption) *Executor {
	e := &Executor{
		registry:  registry,
		generator: generator,
		state:     StateIdle,
		stepIndex: -1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current lifecycle state.
func (e *Executor) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// CurrentStep returns the index of the running step, or -1 when not running.
func (e *Executor) CurrentStep() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state != StateRunning {
		return -1
	}
	return e.stepIndex
}

func (e *Executor) begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateRunning {
		return ErrBusy
	}
	e.state = StateRunning
	e.stepIndex = 0
	return nil
}

func (e *Executor) setStep(i int) {
	e.mu.Lock()
	e.stepIndex = i
	e.mu.Unlock()
}

func (e *Executor) end(state State) {
	e.mu.Lock()
	e.state = state
	e.stepIndex = -1
	e.mu.Unlock()
}

// ExecuteChain runs every step in ascending StepNumber order. The context is
// seeded with inputs and gains one OutputKey entry per completed step.
//
// A missing template, a missing required variable (unless the step sets
// RequiresUserInput), or a generation error aborts the chain. The partial
// Result is returned alongside the error.
func (e *Executor) ExecuteChain(ctx context.Context, c *PromptChain, inputs map[string]any, opts Options) (*Result, error) {
	if c == nil {
		return nil, fmt.Errorf("chain is nil")
	}
	if err := e.begin(); err != nil {
		return nil, err
	}

	timer := logging.StartTimer(logging.CategoryChain, "ExecuteChain "+c.ID)
	defer timer.StopWithInfo()

	result := &Result{ChainID: c.ID}
	execCtx := make(map[string]any, len(inputs)+len(c.Steps))
	for k, v := range inputs {
		execCtx[k] = v
	}

	steps := sortedSteps(c.Steps)
	logging.Chain("Executing chain %s (%d steps)", c.ID, len(steps))

	for i, step := range steps {
		e.setStep(i)
		if err := ctx.Err(); err != nil {
			return e.fail(result, step, err)
		}

		sr, err := e.runStep(ctx, step, execCtx)
		if err != nil {
			return e.fail(result, step, err)
		}

		execCtx[sr.OutputKey] = sr.Output
		result.StepResults = append(result.StepResults, *sr)
		result.TotalTokens += sr.TokensUsed
		result.TotalCost += sr.Cost

		logging.ChainDebug("Step %d (%s) complete: tokens=%d cost=%.6f", step.StepNumber, step.PromptTemplateID, sr.TokensUsed, sr.Cost)
		if opts.OnStepComplete != nil {
			opts.OnStepComplete(*sr)
		}
	}

	result.FinalOutput, result.Unresolved = e.finalOutput(c, execCtx, result.StepResults)
	e.end(StateCompleted)
	logging.Chain("Chain %s completed: tokens=%d cost=%.6f", c.ID, result.TotalTokens, result.TotalCost)
	return result, nil
}

func (e *Executor) fail(result *Result, step PromptChainStep, err error) (*Result, error) {
	e.end(StateFailed)
	logging.ChainError("Chain %s failed at step %d: %v", result.ChainID, step.StepNumber, err)
	return result, fmt.Errorf("chain %s step %d: %w", result.ChainID, step.StepNumber, err)
}

func (e *Executor) runStep(ctx context.Context, step PromptChainStep, execCtx map[string]any) (*StepResult, error) {
	started := time.Now()

	tmpl, err := e.registry.Lookup(step.PromptTemplateID)
	if err != nil {
		return nil, err
	}

	vars, err := mapInputs(step, execCtx)
	if err != nil {
		return nil, err
	}

	sr := &StepResult{
		StepNumber: step.StepNumber,
		TemplateID: tmpl.ID,
		OutputKey:  outputKey(step),
	}

	if err := prompt.Validate(tmpl, vars); err != nil {
		var missing *types.MissingVariablesError
		if !errors.As(err, &missing) {
			return nil, err
		}
		missing.Step = step.StepNumber
		if !step.RequiresUserInput {
			return nil, missing
		}
		// Advisory flag: log and continue with placeholders left verbatim.
		logging.ChainWarn("Step %d requires user input; proceeding without: %v", step.StepNumber, missing.Names)
		sr.Missing = missing.Names
	}

	rendered := e.registry.Render(tmpl, vars)
	sr.Unresolved = rendered.Unresolved
	system := profile.ComposeSystemPrompt(rendered.System, e.voice, e.brand)

	gen, err := e.generator.Generate(ctx, system, rendered.User, e.genOpts)
	if err != nil {
		return nil, err
	}

	sr.Output = gen.Text
	sr.TokensUsed = gen.TokensUsed
	sr.Cost = gen.Cost
	sr.Duration = time.Since(started)
	return sr, nil
}

// mapInputs resolves a step's InputMapping against the context. Paths that
// do not resolve, or resolve to null, are omitted; template validation then
// decides whether the variable was required.
func mapInputs(step PromptChainStep, execCtx map[string]any) (types.Values, error) {
	vars := make(types.Values, len(step.InputMapping))
	for name, path := range step.InputMapping {
		raw, ok := ResolvePath(execCtx, path)
		if !ok {
			logging.ChainDebug("Step %d: path %q for %q not in context, omitted", step.StepNumber, path, name)
			continue
		}
		if raw == nil {
			logging.ChainDebug("Step %d: path %q for %q is null, omitted", step.StepNumber, path, name)
			continue
		}
		v, err := types.ValueOf(raw)
		if err != nil {
			return nil, fmt.Errorf("variable %q from %q: %w", name, path, err)
		}
		vars[name] = v
	}
	return vars, nil
}

// finalOutput interpolates FinalOutputFormat over the context. A chain
// without a format yields the last step's output.
func (e *Executor) finalOutput(c *PromptChain, execCtx map[string]any, steps []StepResult) (string, []string) {
	if c.FinalOutputFormat == "" {
		if len(steps) == 0 {
			return "", nil
		}
		return steps[len(steps)-1].Output, nil
	}
	return e.registry.InterpolateWithReport(c.FinalOutputFormat, contextValues(execCtx))
}

// contextValues converts the context for interpolation, skipping entries
// that have no textual form.
func contextValues(execCtx map[string]any) types.Values {
	vals := make(types.Values, len(execCtx))
	for k, raw := range execCtx {
		v, err := types.ValueOf(raw)
		if err != nil {
			continue
		}
		vals[k] = v
	}
	return vals
}

func outputKey(step PromptChainStep) string {
	if step.OutputKey != "" {
		return step.OutputKey
	}
	return fmt.Sprintf("step_%d", step.StepNumber)
}

func sortedSteps(steps []PromptChainStep) []PromptChainStep {
	out := make([]PromptChainStep, len(steps))
	copy(out, steps)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StepNumber < out[j].StepNumber })
	return out
}
