package reasoning

import (
	"fmt"
	"strings"
)

var phaseSystemPrompts = map[StepType]string{
	StepAnalysis: `You are a content strategist. Break a content goal down before anything is written.
Be specific and concise. Use short headed sections.`,
	StepResearch: `You are an audience researcher who knows platform mechanics and persuasion psychology.
Ground every insight in the analysis you are given.`,
	StepIdeation: `You are a creative director. Produce genuinely different approaches, not variations
of one idea, and be honest about which will work best.`,
	StepRefinement: `You are a senior copywriter. Turn the chosen approach into finished, publish-ready
content. Output only the content itself.`,
	StepValidation: `You are an exacting editor. Judge the content against the goal and say plainly
whether it is ready to publish.`,
}

func phaseUserPrompt(phase StepType, goal, context, previous string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", goal)
	if context != "" && phase == StepAnalysis {
		fmt.Fprintf(&b, "\nContext:\n%s\n", context)
	}

	switch phase {
	case StepAnalysis:
		b.WriteString(`
Analyze this goal. Cover:
1. What the content must achieve
2. The target audience and what they care about
3. Success criteria
4. Constraints (platform, length, tone, compliance)`)
	case StepResearch:
		fmt.Fprintf(&b, "\nAnalysis:\n%s\n", previous)
		b.WriteString(`
Given this analysis, list the platform best practices, audience psychology and
competitive patterns that should shape the content.`)
	case StepIdeation:
		fmt.Fprintf(&b, "\nResearch:\n%s\n", previous)
		b.WriteString(`
Propose at least 5 distinct creative approaches. For each give a one-line summary
and an effectiveness rating from 1 to 10. Finish with the approach you recommend and why.`)
	case StepRefinement:
		fmt.Fprintf(&b, "\nApproaches:\n%s\n", previous)
		b.WriteString(`
Write the final content using the recommended approach.`)
	case StepValidation:
		fmt.Fprintf(&b, "\nContent:\n%s\n", previous)
		b.WriteString(`
Evaluate this content:
- Strengths
- Weaknesses
- Quality score (1-10)
- Effectiveness score (1-10)
- Verdict: READY or NEEDS REVISION`)
	}
	return b.String()
}

const refineSystemPrompt = `You are an editor who improves content according to feedback while keeping
its voice. Always answer with two sections:
## Improved Content
## Improvements`

func refineUserPrompt(content, feedback string) string {
	return fmt.Sprintf(`Content:
%s

Feedback:
%s

Rewrite the content to address the feedback. Put the full rewritten content under
"## Improved Content" and a bullet list of what changed under "## Improvements".`, content, feedback)
}

const critiqueSystemPromptFormat = `You are a %s. Review content strictly from that point of view,
focusing on %s. Answer with two sections:
## Analysis
## Recommendations`

func critiqueUserPrompt(content string) string {
	return fmt.Sprintf(`Content:
%s

Give your analysis, then a bullet list of concrete recommendations.`, content)
}

const compareSystemPrompt = `You are a content performance analyst. Compare candidate versions fairly
against each criterion, then name a single winner on its own line as "Winner: <label>".`

func compareUserPrompt(versions []Version, criteria []string) string {
	var b strings.Builder
	for _, v := range versions {
		fmt.Fprintf(&b, "### %s\n%s\n\n", v.Label, v.Content)
	}
	b.WriteString("Criteria:\n")
	for _, c := range criteria {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	b.WriteString("\nScore each version on each criterion, explain the differences, and finish with the winner.")
	return b.String()
}

// DefaultPerspectives is used when Critique gets none.
func DefaultPerspectives() []Perspective {
	return []Perspective{
		{Role: "member of the target audience", Focus: "whether the content is relevant, clear and worth acting on"},
		{Role: "marketing strategist", Focus: "positioning, persuasion and the call to action"},
		{Role: "copy editor", Focus: "clarity, flow, grammar and concision"},
	}
}

// DefaultCriteria is used when Compare gets none.
func DefaultCriteria() []string {
	return []string{"clarity", "engagement potential", "alignment with the goal", "call to action strength"}
}
