package reasoning

import (
	"sort"
	"strings"
	"unicode"
)

// parseSections splits free text into named sections. Headers are matched
// case-insensitively and may be decorated as markdown headings, bold text,
// or end with a colon. Text after "Header:" on the same line belongs to
// the section. Returns only the sections that were found.
func parseSections(text string, names ...string) map[string]string {
	// Longest names first so "improved content" wins over "improve".
	sorted := append([]string(nil), names...)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	found := make(map[string]*strings.Builder)
	var current *strings.Builder

	for _, line := range strings.Split(text, "\n") {
		if name, rest, ok := matchHeader(line, sorted); ok {
			b := found[name]
			if b == nil {
				b = &strings.Builder{}
				found[name] = b
			}
			current = b
			if rest != "" {
				current.WriteString(rest)
				current.WriteByte('\n')
			}
			continue
		}
		if current != nil {
			current.WriteString(line)
			current.WriteByte('\n')
		}
	}

	out := make(map[string]string, len(found))
	for name, b := range found {
		out[name] = strings.TrimSpace(b.String())
	}
	return out
}

func matchHeader(line string, names []string) (name, rest string, ok bool) {
	trimmed := strings.TrimSpace(line)
	stripped := strings.TrimLeft(trimmed, "#*_ \t")
	decorated := len(stripped) < len(trimmed)
	lower := strings.ToLower(stripped)

	for _, n := range names {
		if !strings.HasPrefix(lower, n) {
			continue
		}
		after := stripped[len(n):]
		if after != "" {
			r := rune(after[0])
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				continue
			}
		}
		colon := strings.HasPrefix(strings.TrimLeft(after, "*_ \t"), ":")
		tail := strings.TrimSpace(strings.Trim(strings.TrimSpace(after), "*_:"))
		// Undecorated lines need a colon or nothing else on the line, so
		// prose that merely starts with the word is not a header.
		if !decorated && !colon && tail != "" {
			continue
		}
		return n, tail, true
	}
	return "", "", false
}

// parseBullets returns list items from markdown bullets or numbered lines.
// Text without list markers yields its non-empty lines.
func parseBullets(text string) []string {
	var items, plain []string
	for _, line := range strings.Split(text, "\n") {
		s := strings.TrimSpace(line)
		if s == "" {
			continue
		}
		if item, ok := stripListMarker(s); ok {
			items = append(items, item)
			continue
		}
		plain = append(plain, s)
	}
	if len(items) > 0 {
		return items
	}
	return plain
}

func stripListMarker(s string) (string, bool) {
	for _, m := range []string{"- ", "* ", "• ", "+ "} {
		if strings.HasPrefix(s, m) {
			return strings.TrimSpace(s[len(m):]), true
		}
	}
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') {
		return strings.TrimSpace(s[i+1:]), true
	}
	return "", false
}
