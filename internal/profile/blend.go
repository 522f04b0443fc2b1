package profile

import (
	"fmt"
	"strings"
	"time"

	"contentforge/internal/logging"

	"github.com/google/uuid"
)

// ComposeSystemPrompt appends a voice block and a brand block to base.
// Nil profiles are skipped. Output length is not capped.
func ComposeSystemPrompt(base string, voice *VoiceToneProfile, brand *BrandProfile) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(base))

	if voice != nil {
		b.WriteString("\n\n")
		writeVoiceBlock(&b, voice)
	}
	if brand != nil {
		b.WriteString("\n\n")
		writeBrandBlock(&b, brand)
	}

	out := b.String()
	logging.ProfileDebug("Composed system prompt: %d chars (voice=%t brand=%t)", len(out), voice != nil, brand != nil)
	return out
}

func writeVoiceBlock(b *strings.Builder, v *VoiceToneProfile) {
	fmt.Fprintf(b, "## Voice & Tone: %s\n", v.Name)
	if v.Description != "" {
		fmt.Fprintf(b, "%s\n", v.Description)
	}
	c := v.Characteristics
	fmt.Fprintf(b, "- Formality: %s\n", orUnspecified(string(c.Formality)))
	fmt.Fprintf(b, "- Enthusiasm: %s\n", orUnspecified(string(c.Enthusiasm)))
	fmt.Fprintf(b, "- Humor: %s\n", orUnspecified(string(c.Humor)))
	fmt.Fprintf(b, "- Empathy: %s\n", orUnspecified(string(c.Empathy)))
	fmt.Fprintf(b, "- Expertise: %s\n", orUnspecified(string(c.Expertise)))

	if v.SentenceStructure != "" {
		fmt.Fprintf(b, "- Sentence structure: %s\n", v.SentenceStructure)
	}
	if v.PunctuationStyle != "" {
		fmt.Fprintf(b, "- Punctuation: %s\n", v.PunctuationStyle)
	}
	if v.EmojiUsage != "" {
		fmt.Fprintf(b, "- Emoji usage: %s\n", v.EmojiUsage)
	}
	if len(v.VocabularyPreferences) > 0 {
		fmt.Fprintf(b, "- Preferred vocabulary: %s\n", strings.Join(v.VocabularyPreferences, ", "))
	}
	if len(v.ExamplePhrases) > 0 {
		fmt.Fprintf(b, "- Sounds like: %s\n", quoteAll(v.ExamplePhrases))
	}
	if len(v.AvoidPhrases) > 0 {
		fmt.Fprintf(b, "- Never say: %s\n", quoteAll(v.AvoidPhrases))
	}
	trimTrailingNewline(b)
}

func writeBrandBlock(b *strings.Builder, br *BrandProfile) {
	fmt.Fprintf(b, "## Brand: %s\n", br.Name)
	if br.Industry != "" {
		fmt.Fprintf(b, "- Industry: %s\n", br.Industry)
	}
	if br.TargetAudience != "" {
		fmt.Fprintf(b, "- Target audience: %s\n", br.TargetAudience)
	}
	if len(br.CoreValues) > 0 {
		fmt.Fprintf(b, "- Core values: %s\n", strings.Join(br.CoreValues, ", "))
	}
	if len(br.UniqueSellingPoints) > 0 {
		fmt.Fprintf(b, "- Unique selling points: %s\n", strings.Join(br.UniqueSellingPoints, "; "))
	}
	if br.BrandGuidelines != "" {
		fmt.Fprintf(b, "- Guidelines: %s\n", br.BrandGuidelines)
	}
	if br.CompetitorAnalysis != "" {
		fmt.Fprintf(b, "- Competitive context: %s\n", br.CompetitorAnalysis)
	}
	trimTrailingNewline(b)
}

// MergeProfiles combines profiles into one hybrid voice.
// Vocabulary, example and avoid lists are unioned in first-seen order.
// Axes and structural settings come from the first profile only; weights
// are checked for length but do not affect the result yet.
func MergeProfiles(profiles []*VoiceToneProfile, weights []float64) (*VoiceToneProfile, error) {
	if len(profiles) == 0 {
		return nil, ErrNoProfiles
	}
	if weights != nil && len(weights) != len(profiles) {
		return nil, fmt.Errorf("%w: got %d weights for %d profiles", ErrWeightMismatch, len(weights), len(profiles))
	}
	for i, p := range profiles {
		if p == nil {
			return nil, fmt.Errorf("%w: index %d", ErrNilProfile, i)
		}
	}

	first := profiles[0]
	names := make([]string, 0, len(profiles))
	var vocab, examples, avoid [][]string
	for _, p := range profiles {
		names = append(names, p.Name)
		vocab = append(vocab, p.VocabularyPreferences)
		examples = append(examples, p.ExamplePhrases)
		avoid = append(avoid, p.AvoidPhrases)
	}

	now := time.Now()
	merged := &VoiceToneProfile{
		ID:                    uuid.New().String(),
		Name:                  "Hybrid: " + strings.Join(names, " + "),
		Description:           fmt.Sprintf("Blend of %d voice profiles", len(profiles)),
		Characteristics:       first.Characteristics,
		VocabularyPreferences: unionOrdered(vocab...),
		SentenceStructure:     first.SentenceStructure,
		PunctuationStyle:      first.PunctuationStyle,
		EmojiUsage:            first.EmojiUsage,
		ExamplePhrases:        unionOrdered(examples...),
		AvoidPhrases:          unionOrdered(avoid...),
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	logging.Profile("Merged %d profiles into %q", len(profiles), merged.Name)
	return merged, nil
}

func unionOrdered(lists ...[]string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, l := range lists {
		for _, item := range l {
			if !seen[item] {
				seen[item] = true
				out = append(out, item)
			}
		}
	}
	return out
}

func orUnspecified(s string) string {
	if s == "" {
		return "unspecified"
	}
	return s
}

func quoteAll(items []string) string {
	q := make([]string, len(items))
	for i, s := range items {
		q[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(q, ", ")
}

func trimTrailingNewline(b *strings.Builder) {
	s := b.String()
	if strings.HasSuffix(s, "\n") {
		b.Reset()
		b.WriteString(strings.TrimSuffix(s, "\n"))
	}
}
