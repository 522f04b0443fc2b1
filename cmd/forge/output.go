package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"contentforge/internal/profile"
	"contentforge/internal/prompt"
	"contentforge/internal/types"

	"github.com/charmbracelet/glamour"
)

// plainOutput disables markdown rendering for generated content.
var plainOutput bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&plainOutput, "plain", false, "Print generated content without markdown rendering")
}

// printMarkdown renders generated markdown for the terminal, falling back to
// the raw text when rendering is disabled or fails.
func printMarkdown(w io.Writer, content string) {
	if plainOutput || !isTerminal(w) {
		fmt.Fprintln(w, strings.TrimRight(content, "\n"))
		return
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Fprintln(w, content)
		return
	}
	out, err := renderer.Render(content)
	if err != nil {
		fmt.Fprintln(w, content)
		return
	}
	fmt.Fprint(w, out)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// describeError turns engine error kinds into actionable messages.
func describeError(err error) string {
	var (
		cfgErr      *types.ConfigurationError
		missingErr  *types.MissingVariablesError
		notFoundErr *types.TemplateNotFoundError
		providerErr *types.ProviderError
	)
	switch {
	case errors.As(err, &cfgErr):
		return fmt.Sprintf("Error: %v\nSet OPENAI_API_KEY or ANTHROPIC_API_KEY (or llm.* in your config) and choose llm.provider.", err)
	case errors.As(err, &missingErr):
		flags := make([]string, len(missingErr.Names))
		for i, n := range missingErr.Names {
			flags[i] = "--var " + n + "=..."
		}
		return fmt.Sprintf("Error: %v\nSupply them with %s", err, strings.Join(flags, " "))
	case errors.As(err, &notFoundErr):
		return fmt.Sprintf("Error: %v\nRun 'forge templates list' to see available templates.", err)
	case errors.As(err, &providerErr):
		switch providerErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Sprintf("Error: %v\nCheck the API key for %s.", err, providerErr.Provider)
		case http.StatusTooManyRequests:
			return fmt.Sprintf("Error: %v\nThe provider is rate limiting requests; wait and retry.", err)
		}
		return fmt.Sprintf("Error: %v", err)
	case errors.Is(err, profile.ErrProfileNotFound):
		return fmt.Sprintf("Error: %v\nRun 'forge profiles list' to see available profiles.", err)
	case errors.Is(err, profile.ErrPresetImmutable):
		return fmt.Sprintf("Error: %v\nCreate a custom profile instead with 'forge profiles create'.", err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("Error: %v\nThe operation timed out; raise --timeout or llm.timeout.", err)
	}
	return fmt.Sprintf("Error: %v", err)
}

// parseVars turns repeated key=value flags into raw values. A value starting
// with @ is read from the named file.
func parseVars(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var %q (expected key=value)", pair)
		}
		if strings.HasPrefix(value, "@") {
			data, err := os.ReadFile(value[1:])
			if err != nil {
				return nil, fmt.Errorf("failed to read --var %s: %w", key, err)
			}
			value = string(data)
		}
		out[key] = value
	}
	return out, nil
}

// coerceVars converts raw flag values using the template's declared types:
// lists split on commas, maps on semicolon-separated key:value pairs.
// Undeclared variables stay strings.
func coerceVars(t *prompt.PromptTemplate, raw map[string]string) (types.Values, error) {
	out := make(types.Values, len(raw))
	for name, value := range raw {
		kind := prompt.VarString
		if t != nil {
			if v, ok := t.Variable(name); ok {
				kind = v.Type
			}
		}
		switch kind {
		case prompt.VarList:
			out[name] = types.List(splitTrim(value, ",")...)
		case prompt.VarNumber:
			n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				return nil, fmt.Errorf("variable %s: %q is not a number", name, value)
			}
			out[name] = types.Number(n)
		case prompt.VarMap:
			m := make(map[string]string)
			for _, entry := range splitTrim(value, ";") {
				k, v, ok := strings.Cut(entry, ":")
				if !ok {
					return nil, fmt.Errorf("variable %s: %q is not key:value", name, entry)
				}
				m[strings.TrimSpace(k)] = strings.TrimSpace(v)
			}
			out[name] = types.Map(m)
		default:
			out[name] = types.String(value)
		}
	}
	return out, nil
}

func splitTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// readInput returns the named file's content, or the joined args when no
// file is given.
func readInput(file string, args []string) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", file, err)
		}
		return string(data), nil
	}
	text := strings.TrimSpace(joinArgs(args))
	if text == "" {
		return "", fmt.Errorf("no input: pass text as arguments or use --file")
	}
	return text, nil
}

func costLine(tokens int, cost float64) string {
	return fmt.Sprintf("%d tokens, $%.4f", tokens, cost)
}
