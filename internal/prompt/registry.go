package prompt

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"contentforge/internal/logging"
	"contentforge/internal/types"
)

// Registry stores prompt templates by ID.
// Reads dominate; registration is last-writer-wins.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*PromptTemplate
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]*PromptTemplate)}
}

// Register adds or overwrites a template by ID.
func (r *Registry) Register(t *PromptTemplate) error {
	if t == nil || t.ID == "" {
		return fmt.Errorf("template ID is required")
	}

	r.mu.Lock()
	_, replaced := r.templates[t.ID]
	r.templates[t.ID] = t
	r.mu.Unlock()

	if replaced {
		logging.TemplateDebug("Replaced template %s", t.ID)
	} else {
		logging.TemplateDebug("Registered template %s (%d variables)", t.ID, len(t.Variables))
	}
	return nil
}

// RegisterAll registers templates in order, stopping at the first error.
func (r *Registry) RegisterAll(templates []*PromptTemplate) error {
	for _, t := range templates {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the template with the given ID or a *types.TemplateNotFoundError.
func (r *Registry) Lookup(id string) (*PromptTemplate, error) {
	r.mu.RLock()
	t, ok := r.templates[id]
	r.mu.RUnlock()
	if !ok {
		return nil, &types.TemplateNotFoundError{ID: id}
	}
	return t, nil
}

// List returns all templates sorted by ID.
func (r *Registry) List() []*PromptTemplate {
	r.mu.RLock()
	out := make([]*PromptTemplate, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListByCategory returns templates whose category matches (case-insensitive).
func (r *Registry) ListByCategory(category string) []*PromptTemplate {
	var out []*PromptTemplate
	for _, t := range r.List() {
		if strings.EqualFold(t.Category, category) {
			out = append(out, t)
		}
	}
	return out
}

// Count returns the number of registered templates.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}

// Interpolate substitutes vars into text. See the package-level Interpolate.
func (r *Registry) Interpolate(text string, vars types.Values) string {
	out, _ := r.InterpolateWithReport(text, vars)
	return out
}

// InterpolateWithReport substitutes vars into text and reports unresolved
// placeholders, logging a warning when any remain.
func (r *Registry) InterpolateWithReport(text string, vars types.Values) (string, []string) {
	out, unresolved := InterpolateWithReport(text, vars)
	if len(unresolved) > 0 {
		logging.TemplateWarn("Unresolved placeholders left verbatim: %s", strings.Join(unresolved, ", "))
	}
	return out, unresolved
}

// Validate reports required variables of t absent from supplied.
// Only presence is checked; a list-typed variable satisfied by a string passes.
func (r *Registry) Validate(t *PromptTemplate, supplied types.Values) error {
	return Validate(t, supplied)
}

// Validate returns nil or a *types.MissingVariablesError naming the
// required-but-absent variables in declaration order.
func Validate(t *PromptTemplate, supplied types.Values) error {
	var missing []string
	for _, v := range t.Variables {
		if !v.Required {
			continue
		}
		if _, ok := supplied[v.Name]; !ok {
			missing = append(missing, v.Name)
		}
	}
	if len(missing) > 0 {
		return &types.MissingVariablesError{TemplateID: t.ID, Names: missing}
	}
	return nil
}

// Render fills absent optional variables from their defaults, interpolates
// both prompts, and appends few-shot examples to the user prompt.
func (r *Registry) Render(t *PromptTemplate, vars types.Values) RenderedPrompt {
	merged := vars.Clone()
	for _, v := range t.Variables {
		if _, ok := merged[v.Name]; !ok && v.Default != nil {
			merged[v.Name] = *v.Default
		}
	}

	system, sysUnresolved := InterpolateWithReport(t.SystemPrompt, merged)
	user, userUnresolved := InterpolateWithReport(t.UserPromptTemplate, merged)

	if len(t.Examples) > 0 {
		var b strings.Builder
		b.WriteString(user)
		b.WriteString("\n\nExamples:")
		for i, ex := range t.Examples {
			fmt.Fprintf(&b, "\n\nExample %d\nInput: %s\nOutput: %s", i+1, ex.Input, ex.Output)
		}
		user = b.String()
	}

	unresolved := sysUnresolved
	for _, name := range userUnresolved {
		dup := false
		for _, seen := range unresolved {
			if seen == name {
				dup = true
				break
			}
		}
		if !dup {
			unresolved = append(unresolved, name)
		}
	}
	if len(unresolved) > 0 {
		logging.TemplateWarn("Template %s rendered with unresolved placeholders: %s", t.ID, strings.Join(unresolved, ", "))
	}

	return RenderedPrompt{System: system, User: user, Unresolved: unresolved}
}
