package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"contentforge/internal/chain"
	"contentforge/internal/store"
	"contentforge/internal/types"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

var (
	chainVars      []string
	chainInputFile string
	chainVoice     string
	chainBrand     string
)

// chainCmd groups chain commands
var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Run multi-step content chains",
}

// chainListCmd lists built-in blueprints and loaded chains
var chainListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available chains",
	Args:  cobra.NoArgs,
	RunE:  listChains,
}

// chainValidateCmd pre-flights one chain or the whole catalog
var chainValidateCmd = &cobra.Command{
	Use:   "validate [chain-id]",
	Short: "Check chains against the template library",
	Long: `Checks that every step's template exists and step numbers increase.
With --var or --input-file, also checks the first step's required variables.
Without a chain ID, validates the whole catalog.`,
	Args: cobra.MaximumNArgs(1),
	RunE: validateChains,
}

// chainRunCmd executes a chain
var chainRunCmd = &cobra.Command{
	Use:   "run [chain-id]",
	Short: "Execute a chain, threading each step's output into the next",
	Long: `Executes a chain's steps in order. Step outputs are stored under their
output keys and mapped into later steps' variables.

Examples:
  forge chain run short-form-video-package --var topic="cold brew" --var platform=tiktok
  forge chain run campaign-package --input-file campaign.yaml --brand acme`,
	Args: cobra.ExactArgs(1),
	RunE: runChain,
}

func init() {
	for _, c := range []*cobra.Command{chainValidateCmd, chainRunCmd} {
		c.Flags().StringArrayVar(&chainVars, "var", nil, "Chain input as key=value (value @file reads a file)")
		c.Flags().StringVar(&chainInputFile, "input-file", "", "YAML or JSON file of chain inputs (nested values allowed)")
	}
	chainRunCmd.Flags().StringVar(&chainVoice, "voice", "", "Voice profile ID")
	chainRunCmd.Flags().StringVar(&chainBrand, "brand", "", "Brand profile ID")
}

func listChains(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTEPS\tNAME")
	for _, id := range a.sortedChainIDs() {
		c := a.chains[id]
		templates := make([]string, len(c.Steps))
		for i, s := range c.Steps {
			templates[i] = s.PromptTemplateID
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, strings.Join(templates, " > "), c.Name)
	}
	return w.Flush()
}

// chainInputs merges --input-file and --var; flags win.
func chainInputs() (map[string]any, error) {
	inputs := make(map[string]any)
	if chainInputFile != "" {
		data, err := os.ReadFile(chainInputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read inputs: %w", err)
		}
		if err := yaml.Unmarshal(data, &inputs); err != nil {
			return nil, fmt.Errorf("failed to parse inputs: %w", err)
		}
	}
	raw, err := parseVars(chainVars)
	if err != nil {
		return nil, err
	}
	for k, v := range raw {
		inputs[k] = v
	}
	return inputs, nil
}

type validation struct {
	id      string
	missing []string
	err     error
}

func validateChains(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	inputs, err := chainInputs()
	if err != nil {
		return err
	}
	checkVars := len(inputs) > 0

	ids := a.sortedChainIDs()
	if len(args) == 1 {
		if _, ok := a.chains[args[0]]; !ok {
			return fmt.Errorf("unknown chain: %s", args[0])
		}
		ids = args
	}

	results := make([]validation, len(ids))
	var g errgroup.Group
	g.SetLimit(4)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			err := chain.ValidateChain(a.registry, a.chains[id], inputs)
			missing, rest := splitMissing(err)
			if !checkVars {
				missing = nil
			}
			results[i] = validation{id: id, missing: missing, err: rest}
			return nil
		})
	}
	_ = g.Wait()

	out := cmd.OutOrStdout()
	failed := 0
	for _, r := range results {
		switch {
		case r.err != nil:
			failed++
			fmt.Fprintf(out, "FAIL  %s\n", r.id)
			for _, line := range strings.Split(r.err.Error(), "\n") {
				fmt.Fprintf(out, "      %s\n", line)
			}
		case len(r.missing) > 0:
			failed++
			fmt.Fprintf(out, "FAIL  %s (missing inputs: %s)\n", r.id, strings.Join(r.missing, ", "))
		default:
			fmt.Fprintf(out, "OK    %s\n", r.id)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d chains failed validation", failed, len(results))
	}
	return nil
}

// splitMissing separates missing-variable reports from other validation
// failures in a joined error.
func splitMissing(err error) ([]string, error) {
	if err == nil {
		return nil, nil
	}
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}

	var missing []string
	var rest []error
	for _, e := range errs {
		var m *types.MissingVariablesError
		if errors.As(e, &m) {
			missing = append(missing, m.Names...)
			continue
		}
		rest = append(rest, e)
	}
	return missing, errors.Join(rest...)
}

func runChain(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	c, ok := a.chains[args[0]]
	if !ok {
		return fmt.Errorf("unknown chain: %s (run 'forge chain list')", args[0])
	}
	inputs, err := chainInputs()
	if err != nil {
		return err
	}
	if err := chain.ValidateChain(a.registry, c, inputs); err != nil {
		return err
	}
	voice, brand, err := a.resolveProfiles(chainVoice, chainBrand)
	if err != nil {
		return err
	}
	client, err := a.client()
	if err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	exec := chain.NewExecutor(a.registry, client, chain.WithProfiles(voice, brand))
	result, err := exec.ExecuteChain(ctx, c, inputs, chain.Options{
		OnStepComplete: func(r chain.StepResult) {
			fmt.Fprintf(errOut, "  step %d (%s): %s in %s\n",
				r.StepNumber, r.TemplateID, costLine(r.TokensUsed, r.Cost), r.Duration.Round(time.Millisecond))
			if len(r.Missing) > 0 {
				fmt.Fprintf(errOut, "    proceeded without: %s\n", strings.Join(r.Missing, ", "))
			}
		},
	})
	if err != nil {
		if result != nil && len(result.StepResults) > 0 {
			fmt.Fprintf(errOut, "Chain stopped after %d completed steps (%s)\n",
				len(result.StepResults), costLine(result.TotalTokens, result.TotalCost))
		}
		return err
	}

	if len(result.Unresolved) > 0 {
		logger.Warn("Final output has unresolved placeholders", zap.Strings("names", result.Unresolved))
	}
	printMarkdown(cmd.OutOrStdout(), result.FinalOutput)
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d steps: %s\n", len(result.StepResults), costLine(result.TotalTokens, result.TotalCost))

	var elapsed time.Duration
	for _, r := range result.StepResults {
		elapsed += r.Duration
	}
	a.record(&store.Run{
		Kind:     store.RunChain,
		Subject:  c.ID,
		Provider: client.Provider(),
		Model:    client.Model(),
		Tokens:   result.TotalTokens,
		Cost:     result.TotalCost,
		Output:   result.FinalOutput,
		Duration: elapsed,
	})
	warnBudget(cmd, a.ledger)
	return nil
}
