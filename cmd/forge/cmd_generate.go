package main

import (
	"fmt"
	"strings"
	"time"

	"contentforge/internal/profile"
	"contentforge/internal/store"
	"contentforge/internal/types"
	"contentforge/internal/usage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	genTemplate    string
	genVars        []string
	genVoice       string
	genBrand       string
	genStream      bool
	genVariations  int
	genTemperature float64
	genMaxTokens   int
)

// generateCmd renders a template and sends it to the configured provider
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate content from a template",
	Long: `Renders a template with the supplied variables, blends the selected voice
and brand profiles into its system prompt, and sends it to the configured
provider.

Examples:
  forge generate --template hooks --var topic="cold brew" --var platform=tiktok
  forge generate --template caption --var topic=@notes.md --voice preset-witty --stream
  forge generate --template ad_copy --var product=Acme --variations 3`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genTemplate, "template", "t", "", "Template ID (required)")
	generateCmd.Flags().StringArrayVar(&genVars, "var", nil, "Template variable as key=value (value @file reads a file)")
	generateCmd.Flags().StringVar(&genVoice, "voice", "", "Voice profile ID")
	generateCmd.Flags().StringVar(&genBrand, "brand", "", "Brand profile ID")
	generateCmd.Flags().BoolVar(&genStream, "stream", false, "Print fragments as they arrive")
	generateCmd.Flags().IntVar(&genVariations, "variations", 0, "Generate N variations with stepped temperature")
	generateCmd.Flags().Float64Var(&genTemperature, "temperature", 0, "Sampling temperature (default: llm.temperature)")
	generateCmd.Flags().IntVar(&genMaxTokens, "max-tokens", 0, "Completion token limit (0 = config default)")
	generateCmd.MarkFlagRequired("template")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if genStream && genVariations > 0 {
		return fmt.Errorf("--stream and --variations cannot be combined")
	}

	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.registry.Lookup(genTemplate)
	if err != nil {
		return err
	}
	raw, err := parseVars(genVars)
	if err != nil {
		return err
	}
	vars, err := coerceVars(t, raw)
	if err != nil {
		return err
	}
	if err := a.registry.Validate(t, vars); err != nil {
		return err
	}
	voice, brand, err := a.resolveProfiles(genVoice, genBrand)
	if err != nil {
		return err
	}

	rendered := a.registry.Render(t, vars)
	system := profile.ComposeSystemPrompt(rendered.System, voice, brand)
	if len(rendered.Unresolved) > 0 {
		logger.Warn("Unresolved placeholders", zap.Strings("names", rendered.Unresolved))
	}

	client, err := a.client()
	if err != nil {
		return err
	}
	opts := types.GenerateOptions{MaxTokens: genMaxTokens}
	if f := cmd.Flags().Lookup("temperature"); f != nil && f.Changed {
		opts.Temperature = types.Float64(genTemperature)
	}
	out := cmd.OutOrStdout()

	started := time.Now()
	logger.Info("Generating",
		zap.String("template", t.ID),
		zap.String("provider", client.Provider()),
		zap.String("model", client.Model()))

	switch {
	case genVariations > 0:
		gens, err := client.GenerateVariations(ctx, system, rendered.User, genVariations, opts)
		if err != nil {
			return err
		}
		var total int
		var cost float64
		for i, g := range gens {
			printMarkdown(out, fmt.Sprintf("## Variation %d\n\n%s", i+1, g.Text))
			total += g.TokensUsed
			cost += g.Cost
			a.record(runFromGeneration(t.ID, g, time.Since(started)/time.Duration(len(gens))))
		}
		fmt.Fprintf(out, "\n%d variations: %s\n", len(gens), costLine(total, cost))

	case genStream:
		s, err := client.GenerateStream(ctx, system, rendered.User, opts)
		if err != nil {
			return err
		}
		defer s.Close()
		for s.Next() {
			fmt.Fprint(out, s.Text())
		}
		fmt.Fprintln(out)
		if err := s.Err(); err != nil {
			return err
		}
		if g := s.Result(); g != nil {
			fmt.Fprintf(out, "\n%s\n", costLine(g.TokensUsed, g.Cost))
			a.record(runFromGeneration(t.ID, g, time.Since(started)))
		}

	default:
		g, err := client.Generate(ctx, system, rendered.User, opts)
		if err != nil {
			return err
		}
		printMarkdown(out, g.Text)
		fmt.Fprintf(out, "\n%s\n", costLine(g.TokensUsed, g.Cost))
		a.record(runFromGeneration(t.ID, g, time.Since(started)))
	}

	warnBudget(cmd, a.ledger)
	return nil
}

func runFromGeneration(subject string, g *types.Generation, elapsed time.Duration) *store.Run {
	return &store.Run{
		Kind:     store.RunGenerate,
		Subject:  subject,
		Provider: g.Provider,
		Model:    g.Model,
		Tokens:   g.TokensUsed,
		Cost:     g.Cost,
		Output:   g.Text,
		Duration: elapsed,
	}
}

// warnBudget prints a notice once spend crosses the warning threshold.
func warnBudget(cmd *cobra.Command, l *usage.Ledger) {
	st := l.Status()
	switch st.Alert {
	case usage.AlertWarning:
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %.0f%% of the $%.2f monthly budget used\n", st.PercentUsed, st.Limit)
	case usage.AlertExceeded:
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: monthly budget of $%.2f exceeded ($%.2f used)\n", st.Limit, st.Used)
	}
}

// subjectLine shortens free text for run history.
func subjectLine(s string) string {
	s = strings.TrimSpace(strings.SplitN(s, "\n", 2)[0])
	if r := []rune(s); len(r) > 80 {
		s = string(r[:77]) + "..."
	}
	return s
}
