package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"contentforge/internal/reasoning"
	"contentforge/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	reasonContext   string
	reasonVoice     string
	reasonBrand     string
	reasonShowAll   bool
	refineFile      string
	refineFeedback  string
	refineRounds    int
	critiqueFile    string
	critiquePersp   []string
	compareCriteria []string
)

// reasonCmd runs the five-phase reasoning pipeline
var reasonCmd = &cobra.Command{
	Use:   "reason [goal]",
	Short: "Work a goal through analysis, research, ideation, refinement and validation",
	Long: `Runs the reasoning pipeline. Each phase receives the previous phase's
output; the refinement phase's text is the final output.

Example:
  forge reason "Launch plan for a budgeting app aimed at students" --context "No paid ads"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReason,
}

// refineCmd iteratively improves content
var refineCmd = &cobra.Command{
	Use:   "refine [content]",
	Short: "Iteratively improve content against feedback",
	Args:  cobra.ArbitraryArgs,
	RunE:  runRefine,
}

// critiqueCmd reviews content from several perspectives
var critiqueCmd = &cobra.Command{
	Use:   "critique [content]",
	Short: "Review content from several critic perspectives",
	Long: `Reviews content once per perspective. Without --perspective, a target
audience member, a marketing expert and a brand strategist are used.

Example:
  forge critique --file draft.md --perspective "Copy editor:clarity and grammar"`,
	Args: cobra.ArbitraryArgs,
	RunE: runCritique,
}

// compareCmd picks the strongest of several versions
var compareCmd = &cobra.Command{
	Use:   "compare [file] [file]...",
	Short: "Compare two or more versions and pick a winner",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runCompare,
}

func init() {
	reasonCmd.Flags().StringVar(&reasonContext, "context", "", "Additional context for every phase")
	reasonCmd.Flags().BoolVar(&reasonShowAll, "show-phases", false, "Print every phase's output, not just the final one")
	for _, c := range []*cobra.Command{reasonCmd, refineCmd, critiqueCmd, compareCmd} {
		c.Flags().StringVar(&reasonVoice, "voice", "", "Voice profile ID")
		c.Flags().StringVar(&reasonBrand, "brand", "", "Brand profile ID")
	}

	refineCmd.Flags().StringVarP(&refineFile, "file", "f", "", "Read content from a file")
	refineCmd.Flags().StringVar(&refineFeedback, "feedback", "", "What to improve")
	refineCmd.Flags().IntVar(&refineRounds, "rounds", 1, "Refinement rounds")

	critiqueCmd.Flags().StringVarP(&critiqueFile, "file", "f", "", "Read content from a file")
	critiqueCmd.Flags().StringArrayVar(&critiquePersp, "perspective", nil, "Critic as role:focus (repeatable)")

	compareCmd.Flags().StringArrayVar(&compareCriteria, "criterion", nil, "Comparison criterion (repeatable)")
}

// newPipeline builds a reasoning pipeline on the configured client.
func newPipeline(a *forgeApp, opts ...reasoning.Option) (*reasoning.Pipeline, string, string, error) {
	voice, brand, err := a.resolveProfiles(reasonVoice, reasonBrand)
	if err != nil {
		return nil, "", "", err
	}
	client, err := a.client()
	if err != nil {
		return nil, "", "", err
	}
	opts = append([]reasoning.Option{reasoning.WithProfiles(voice, brand)}, opts...)
	return reasoning.NewPipeline(client, opts...), client.Provider(), client.Model(), nil
}

func runReason(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	errOut := cmd.ErrOrStderr()
	p, provider, model, err := newPipeline(a, reasoning.OnPhaseComplete(func(s reasoning.ReasoningStep) {
		fmt.Fprintf(errOut, "  %-10s %s\n", s.Type, costLine(s.TokensUsed, s.Cost))
	}))
	if err != nil {
		return err
	}

	goal := joinArgs(args)
	rc, err := p.Run(ctx, goal, reasonContext)
	if err != nil {
		if rc != nil {
			fmt.Fprintf(errOut, "Stopped after %d of %d phases\n", len(rc.Steps), len(reasoning.Phases))
		}
		return err
	}

	out := cmd.OutOrStdout()
	if reasonShowAll {
		var b strings.Builder
		for _, s := range rc.Steps {
			fmt.Fprintf(&b, "## %s\n\n%s\n\n", strings.ToUpper(string(s.Type[:1]))+string(s.Type[1:]), s.Output)
		}
		printMarkdown(out, b.String())
	} else {
		printMarkdown(out, rc.FinalOutput)
		if v, ok := rc.Step(reasoning.StepValidation); ok {
			printMarkdown(out, "## Validation\n\n"+v.Output)
		}
	}
	fmt.Fprintf(out, "\n%s\n", costLine(rc.TotalTokens(), rc.TotalCost()))

	logger.Debug("Reasoning complete", zap.String("id", rc.ID), zap.Int("phases", len(rc.Steps)))
	a.record(&store.Run{
		ID:       rc.ID,
		Kind:     store.RunReason,
		Subject:  subjectLine(goal),
		Provider: provider,
		Model:    model,
		Tokens:   rc.TotalTokens(),
		Cost:     rc.TotalCost(),
		Output:   rc.FinalOutput,
		Duration: rc.CompletedAt.Sub(rc.CreatedAt),
	})
	warnBudget(cmd, a.ledger)
	return nil
}

func runRefine(cmd *cobra.Command, args []string) error {
	content, err := readInput(refineFile, args)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p, _, _, err := newPipeline(a)
	if err != nil {
		return err
	}
	rounds, err := p.Refine(ctx, content, refineFeedback, refineRounds)
	if err != nil {
		if len(rounds) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "Stopped after %d of %d rounds\n", len(rounds), refineRounds)
		}
		return err
	}

	out := cmd.OutOrStdout()
	last := rounds[len(rounds)-1]
	printMarkdown(out, last.ImprovedContent)

	var tokens int
	var cost float64
	for _, r := range rounds {
		tokens += r.TokensUsed
		cost += r.Cost
		if len(r.Improvements) > 0 {
			fmt.Fprintf(out, "\nRound %d improvements:\n", r.Round)
			for _, imp := range r.Improvements {
				fmt.Fprintf(out, "  - %s\n", imp)
			}
		}
	}
	fmt.Fprintf(out, "\n%d rounds: %s\n", len(rounds), costLine(tokens, cost))
	warnBudget(cmd, a.ledger)
	return nil
}

// parsePerspectives reads role:focus pairs.
func parsePerspectives(raw []string) ([]reasoning.Perspective, error) {
	out := make([]reasoning.Perspective, 0, len(raw))
	for _, item := range raw {
		role, focus, ok := strings.Cut(item, ":")
		if !ok || strings.TrimSpace(role) == "" {
			return nil, fmt.Errorf("invalid --perspective %q (expected role:focus)", item)
		}
		out = append(out, reasoning.Perspective{Role: strings.TrimSpace(role), Focus: strings.TrimSpace(focus)})
	}
	return out, nil
}

func runCritique(cmd *cobra.Command, args []string) error {
	content, err := readInput(critiqueFile, args)
	if err != nil {
		return err
	}
	perspectives, err := parsePerspectives(critiquePersp)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p, _, _, err := newPipeline(a)
	if err != nil {
		return err
	}
	critiques, err := p.Critique(ctx, content, perspectives)
	if err != nil {
		return err
	}

	var b strings.Builder
	var tokens int
	var cost float64
	for _, c := range critiques {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", c.Perspective.Role, c.Analysis)
		if len(c.Recommendations) > 0 {
			b.WriteString("**Recommendations**\n\n")
			for _, r := range c.Recommendations {
				fmt.Fprintf(&b, "- %s\n", r)
			}
			b.WriteString("\n")
		}
		tokens += c.TokensUsed
		cost += c.Cost
	}
	printMarkdown(cmd.OutOrStdout(), b.String())
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d perspectives: %s\n", len(critiques), costLine(tokens, cost))
	warnBudget(cmd, a.ledger)
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	versions := make([]reasoning.Version, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		versions = append(versions, reasoning.Version{
			Label:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Content: string(data),
		})
	}

	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p, _, _, err := newPipeline(a)
	if err != nil {
		return err
	}
	cmp, err := p.Compare(ctx, versions, compareCriteria)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printMarkdown(out, cmp.Raw)
	if cmp.Winner != "" {
		fmt.Fprintf(out, "\nWinner: %s\n", cmp.Winner)
	} else {
		fmt.Fprintln(out, "\nWinner: (not stated)")
	}
	fmt.Fprintf(out, "%s\n", costLine(cmp.TokensUsed, cmp.Cost))
	warnBudget(cmd, a.ledger)
	return nil
}
