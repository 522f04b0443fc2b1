package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds. Concrete errors below unwrap to one of these so callers
// can branch with errors.Is and still get detail through errors.As.
var (
	ErrConfiguration    = errors.New("configuration error")
	ErrTemplateNotFound = errors.New("template not found")
	ErrMissingVariables = errors.New("missing required variables")
	ErrProvider         = errors.New("provider error")
)

// ConfigurationError reports missing or invalid credentials/settings.
// It is raised before any network call is made.
type ConfigurationError struct {
	Provider string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error (%s): %s", e.Provider, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// TemplateNotFoundError reports a template or chain reference that does not resolve.
type TemplateNotFoundError struct {
	ID string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template not found: %s", e.ID)
}

func (e *TemplateNotFoundError) Unwrap() error { return ErrTemplateNotFound }

// MissingVariablesError lists required variables absent from the supplied set.
// Step is zero when the error did not originate inside a chain.
type MissingVariablesError struct {
	TemplateID string
	Step       int
	Names      []string
}

func (e *MissingVariablesError) Error() string {
	var b strings.Builder
	b.WriteString("missing required variables")
	if e.Step > 0 {
		fmt.Fprintf(&b, " at step %d", e.Step)
	}
	if e.TemplateID != "" {
		fmt.Fprintf(&b, " for template %s", e.TemplateID)
	}
	b.WriteString(": ")
	b.WriteString(strings.Join(e.Names, ", "))
	return b.String()
}

func (e *MissingVariablesError) Unwrap() error { return ErrMissingVariables }

// ProviderError wraps a non-2xx or malformed provider response.
// Message is the provider's own error text when one could be extracted.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: API request failed with status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// Unwrap exposes both the sentinel kind and the underlying transport error.
func (e *ProviderError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrProvider, e.Err}
	}
	return []error{ErrProvider}
}
