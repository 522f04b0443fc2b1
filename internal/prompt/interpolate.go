package prompt

import (
	"regexp"

	"contentforge/internal/types"
)

// placeholderPattern matches {{name}} with optional inner whitespace.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)

// Interpolate replaces every {{name}} in text with the rendered value of
// vars[name]. Placeholders with no matching variable are left verbatim.
func Interpolate(text string, vars types.Values) string {
	out, _ := InterpolateWithReport(text, vars)
	return out
}

// InterpolateWithReport is Interpolate plus the names of unresolved
// placeholders, de-duplicated in first-seen order.
func InterpolateWithReport(text string, vars types.Values) (string, []string) {
	var unresolved []string
	seen := make(map[string]bool)

	out := placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		if v, ok := vars[name]; ok {
			return v.String()
		}
		if !seen[name] {
			seen[name] = true
			unresolved = append(unresolved, name)
		}
		return match
	})
	return out, unresolved
}

// Placeholders lists the distinct placeholder names in text in first-seen order.
func Placeholders(text string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}
