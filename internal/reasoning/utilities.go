package reasoning

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"contentforge/internal/logging"
)

// Refine resubmits content with feedback for the given number of rounds.
// Each round's improved content is the next round's input. When a round
// fails, the rounds completed so far are returned with the error.
func (p *Pipeline) Refine(ctx context.Context, content, feedback string, rounds int) ([]RefinementRound, error) {
	if rounds <= 0 {
		return nil, fmt.Errorf("refinement rounds must be positive, got %d", rounds)
	}

	out := make([]RefinementRound, 0, rounds)
	current := content
	for i := 1; i <= rounds; i++ {
		gen, err := p.call(ctx, refineSystemPrompt, refineUserPrompt(current, feedback))
		if err != nil {
			logging.ReasoningError("Refine round %d/%d failed: %v", i, rounds, err)
			return out, fmt.Errorf("refinement round %d: %w", i, err)
		}

		round := RefinementRound{
			Round:      i,
			Input:      current,
			Raw:        gen.Text,
			TokensUsed: gen.TokensUsed,
			Cost:       gen.Cost,
		}
		sections := parseSections(gen.Text, "improved content", "improvements")
		if improved, ok := sections["improved content"]; ok && improved != "" {
			round.ImprovedContent = improved
			round.Parsed = true
		} else {
			round.ImprovedContent = strings.TrimSpace(gen.Text)
			logging.ReasoningDebug("Refine round %d: no Improved Content section, using raw text", i)
		}
		if list, ok := sections["improvements"]; ok {
			round.Improvements = parseBullets(list)
		}

		out = append(out, round)
		current = round.ImprovedContent
	}
	logging.Reasoning("Refine finished: rounds=%d", len(out))
	return out, nil
}

// Critique asks each perspective for an analysis and recommendations, one
// call per perspective. DefaultPerspectives is used when none are given.
func (p *Pipeline) Critique(ctx context.Context, content string, perspectives []Perspective) ([]Critique, error) {
	if len(perspectives) == 0 {
		perspectives = DefaultPerspectives()
	}

	out := make([]Critique, 0, len(perspectives))
	for _, persp := range perspectives {
		system := fmt.Sprintf(critiqueSystemPromptFormat, persp.Role, persp.Focus)
		gen, err := p.call(ctx, system, critiqueUserPrompt(content))
		if err != nil {
			logging.ReasoningError("Critique from %q failed: %v", persp.Role, err)
			return out, fmt.Errorf("critique (%s): %w", persp.Role, err)
		}

		c := Critique{
			Perspective: persp,
			Raw:         gen.Text,
			TokensUsed:  gen.TokensUsed,
			Cost:        gen.Cost,
		}
		sections := parseSections(gen.Text, "analysis", "recommendations")
		analysis, hasAnalysis := sections["analysis"]
		recs, hasRecs := sections["recommendations"]
		if hasAnalysis || hasRecs {
			c.Parsed = true
			c.Analysis = analysis
			if hasRecs {
				c.Recommendations = parseBullets(recs)
			}
		} else {
			c.Analysis = strings.TrimSpace(gen.Text)
		}
		out = append(out, c)
	}
	logging.Reasoning("Critique finished: perspectives=%d", len(out))
	return out, nil
}

// Compare ranks labeled versions against criteria in a single call.
// Unlabeled versions are named "Version A", "Version B" and so on.
// DefaultCriteria is used when none are given.
func (p *Pipeline) Compare(ctx context.Context, versions []Version, criteria []string) (*Comparison, error) {
	if len(versions) < 2 {
		return nil, fmt.Errorf("compare needs at least 2 versions, got %d", len(versions))
	}
	if len(criteria) == 0 {
		criteria = DefaultCriteria()
	}

	labeled := make([]Version, len(versions))
	for i, v := range versions {
		if strings.TrimSpace(v.Label) == "" {
			v.Label = fmt.Sprintf("Version %c", 'A'+rune(i%26))
		}
		labeled[i] = v
	}

	gen, err := p.call(ctx, compareSystemPrompt, compareUserPrompt(labeled, criteria))
	if err != nil {
		logging.ReasoningError("Compare of %d versions failed: %v", len(labeled), err)
		return nil, fmt.Errorf("compare: %w", err)
	}

	cmp := &Comparison{
		Raw:        gen.Text,
		Winner:     parseWinner(gen.Text, labeled),
		TokensUsed: gen.TokensUsed,
		Cost:       gen.Cost,
	}
	if cmp.Winner == "" {
		logging.ReasoningDebug("Compare: no winner label recognized")
	} else {
		logging.Reasoning("Compare finished: winner=%q of %d versions", cmp.Winner, len(labeled))
	}
	return cmp, nil
}

var winnerLine = regexp.MustCompile(`(?i)^[#*_\s]*(winner|best version|recommended version|recommendation|overall winner)[*_\s]*[:\-][*_\s]*(.+)$`)

// parseWinner finds a "Winner: X" style line and maps X to a known label.
// The last such line wins, since models often restate the verdict at the end.
func parseWinner(text string, versions []Version) string {
	var candidate string
	for _, line := range strings.Split(text, "\n") {
		if m := winnerLine.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			candidate = m[2]
		}
	}
	if candidate == "" {
		return ""
	}

	// The earliest label mentioned wins; "B, narrowly ahead of A" is B.
	best, bestAt := "", -1
	for _, v := range versions {
		re := regexp.MustCompile(`(?i)(^|[^\pL\pN])` + regexp.QuoteMeta(v.Label) + `($|[^\pL\pN])`)
		loc := re.FindStringIndex(candidate)
		if loc == nil {
			continue
		}
		if bestAt == -1 || loc[0] < bestAt || (loc[0] == bestAt && len(v.Label) > len(best)) {
			best, bestAt = v.Label, loc[0]
		}
	}
	return best
}
