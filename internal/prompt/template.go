// Package prompt implements the template registry: reusable system/user prompt
// pairs with declared variables, lenient {{name}} interpolation, presence
// validation, and loading from YAML (including a built-in corpus).
package prompt

import (
	"contentforge/internal/types"
)

// VariableType is the declared type of a template variable.
// Validation checks presence only; the type documents intent for callers.
type VariableType string

const (
	VarString VariableType = "string"
	VarNumber VariableType = "number"
	VarList   VariableType = "list"
	VarMap    VariableType = "map"
)

// Variable declares one template input.
type Variable struct {
	Name        string
	Type        VariableType
	Required    bool
	Description string
	Default     *types.Value // nil = no default
}

// Example is a few-shot input/output pair appended to the rendered prompt.
type Example struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// PromptTemplate is a reusable instruction pair with declared variables.
// Templates are read-only once registered.
type PromptTemplate struct {
	ID                 string
	Name               string
	Category           string
	Description        string
	SystemPrompt       string
	UserPromptTemplate string
	Variables          []Variable
	Examples           []Example
	Chainable          bool
	SuggestedNext      []string
}

// RequiredVariables returns the names of required variables in declaration order.
func (t *PromptTemplate) RequiredVariables() []string {
	var names []string
	for _, v := range t.Variables {
		if v.Required {
			names = append(names, v.Name)
		}
	}
	return names
}

// Variable looks up a declared variable by name.
func (t *PromptTemplate) Variable(name string) (Variable, bool) {
	for _, v := range t.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// RenderedPrompt is a template ready to send to a generator.
type RenderedPrompt struct {
	System     string
	User       string
	Unresolved []string // placeholder names left verbatim
}
