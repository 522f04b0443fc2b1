package chain

import (
	"errors"
	"fmt"

	"contentforge/internal/prompt"
	"contentforge/internal/types"
)

// ValidateChain is a pre-flight check. Every template must resolve, step
// numbers must be unique, and the first step's required variables must be
// satisfiable from inputs. Steps may be declared in any order; they run in
// ascending StepNumber. Later steps read runtime outputs and are not
// checked. All problems are joined into one error.
func ValidateChain(registry *prompt.Registry, c *PromptChain, inputs map[string]any) error {
	if c == nil {
		return fmt.Errorf("chain is nil")
	}
	if len(c.Steps) == 0 {
		return fmt.Errorf("chain %s has no steps", c.ID)
	}

	var errs []error
	seen := make(map[int]bool, len(c.Steps))
	for _, step := range c.Steps {
		if seen[step.StepNumber] {
			errs = append(errs, fmt.Errorf("step %d: duplicate step number", step.StepNumber))
		}
		seen[step.StepNumber] = true
		if _, err := registry.Lookup(step.PromptTemplateID); err != nil {
			errs = append(errs, fmt.Errorf("step %d: %w", step.StepNumber, err))
		}
	}

	first := sortedSteps(c.Steps)[0]
	if tmpl, err := registry.Lookup(first.PromptTemplateID); err == nil {
		vars, err := mapInputs(first, inputs)
		if err != nil {
			errs = append(errs, fmt.Errorf("step %d: %w", first.StepNumber, err))
		} else if err := prompt.Validate(tmpl, vars); err != nil {
			var missing *types.MissingVariablesError
			if errors.As(err, &missing) {
				missing.Step = first.StepNumber
			}
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// ValidateChain validates c against the executor's registry.
func (e *Executor) ValidateChain(c *PromptChain, inputs map[string]any) error {
	return ValidateChain(e.registry, c, inputs)
}
