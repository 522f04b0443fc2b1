package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"contentforge/internal/generation"
	"contentforge/internal/usage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	usageBudget  float64
	usageHistory int
	usageRuns    int
	usageReset   bool

	estimateFile   string
	estimateModel  string
	estimateOutput int

	metricsAddr string
)

// usageCmd reports the monthly ledger
var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show token usage, cost and budget status",
	Args:  cobra.NoArgs,
	RunE:  showUsage,
}

// estimateCmd counts tokens without calling a provider
var estimateCmd = &cobra.Command{
	Use:   "estimate [text]",
	Short: "Estimate tokens and cost for a prompt",
	Long: `Counts prompt tokens with the model's tokenizer (falling back to a
characters/4 heuristic) and prices them with the provider's rate table.`,
	Args: cobra.ArbitraryArgs,
	RunE: runEstimate,
}

// serveMetricsCmd exposes Prometheus metrics
var serveMetricsCmd = &cobra.Command{
	Use:   "serve-metrics",
	Short: "Serve generation and ledger metrics for Prometheus",
	Args:  cobra.NoArgs,
	RunE:  serveMetrics,
}

func init() {
	usageCmd.Flags().Float64Var(&usageBudget, "budget", 0, "Evaluate against this monthly limit instead of the configured one")
	usageCmd.Flags().IntVar(&usageHistory, "history", 0, "Also show the last N months")
	usageCmd.Flags().IntVar(&usageRuns, "runs", 0, "Also show the last N runs")
	usageCmd.Flags().BoolVar(&usageReset, "reset", false, "Start a new period, clearing current totals")

	estimateCmd.Flags().StringVarP(&estimateFile, "file", "f", "", "Read text from a file")
	estimateCmd.Flags().StringVar(&estimateModel, "model", "", "Model to price (default: configured model)")
	estimateCmd.Flags().IntVar(&estimateOutput, "output-tokens", 0, "Expected completion tokens (default: llm.max_tokens)")

	serveMetricsCmd.Flags().StringVar(&metricsAddr, "addr", ":9464", "Listen address")
}

func showUsage(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if usageReset {
		a.ledger.Reset()
		if err := a.store.SaveSnapshot(a.ledger.Snapshot()); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	tokens, cost := a.ledger.Totals()
	status := a.ledger.Status()
	if usageBudget > 0 {
		status = a.ledger.BudgetStatus(usageBudget)
	}

	fmt.Fprintf(out, "Period:  since %s\n", a.ledger.PeriodStart().Format("2006-01-02"))
	fmt.Fprintf(out, "Calls:   %d\n", a.ledger.Calls())
	fmt.Fprintf(out, "Tokens:  %d\n", tokens)
	fmt.Fprintf(out, "Cost:    $%.4f\n", cost)
	if status.Limit > 0 {
		fmt.Fprintf(out, "Budget:  $%.2f (%.1f%% used, $%.2f remaining) [%s]\n",
			status.Limit, status.PercentUsed, status.Remaining, status.Alert)
	} else {
		fmt.Fprintln(out, "Budget:  none")
	}

	byProvider, byModel := a.ledger.Stats()
	if len(byModel) > 0 {
		fmt.Fprintln(out)
		printTokenCounts(out, "PROVIDER", byProvider)
		fmt.Fprintln(out)
		printTokenCounts(out, "MODEL", byModel)
	}

	if usageHistory > 0 {
		hist, err := a.store.UsageHistory(usageHistory)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MONTH\tCALLS\tTOKENS\tCOST")
		for _, p := range hist {
			fmt.Fprintf(w, "%s\t%d\t%d\t$%.4f\n", p.Period, p.Calls, p.TotalTokens, p.TotalCost)
		}
		w.Flush()
	}

	if usageRuns > 0 {
		runs, err := a.store.RecentRuns("", usageRuns)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tKIND\tSUBJECT\tTOKENS\tCOST\tTOOK")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t$%.4f\t%s\n",
				r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Kind, r.Subject, r.Tokens, r.Cost, r.Duration.Round(time.Millisecond))
		}
		w.Flush()
	}
	return nil
}

func printTokenCounts(out io.Writer, label string, m map[string]usage.TokenCounts) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tCALLS\tINPUT\tOUTPUT\tTOTAL\tCOST\n", label)
	for _, k := range keys {
		tc := m[k]
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t$%.4f\n", k, tc.Calls, tc.Input, tc.Output, tc.Total, tc.Cost)
	}
	w.Flush()
}

func runEstimate(cmd *cobra.Command, args []string) error {
	text, err := readInput(estimateFile, args)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	provider := a.cfg.LLM.Provider
	model := estimateModel
	if model == "" {
		model = a.cfg.LLM.ResolvedModel()
	}
	outputTokens := estimateOutput
	if outputTokens <= 0 {
		outputTokens = a.cfg.LLM.MaxTokens
	}

	input := usage.NewEstimator(model).Count(text)
	var cost float64
	switch provider {
	case generation.ProviderAnthropic:
		cost = generation.AnthropicCost(model, input, outputTokens)
	default:
		cost = generation.OpenAICost(model, input+outputTokens)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Model:          %s (%s)\n", model, provider)
	fmt.Fprintf(out, "Input tokens:   %d (heuristic %d)\n", input, usage.HeuristicTokens(text))
	fmt.Fprintf(out, "Output tokens:  up to %d\n", outputTokens)
	fmt.Fprintf(out, "Estimated cost: up to $%.4f\n", cost)
	return nil
}

func serveMetrics(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	prometheus.MustRegister(newLedgerCollector(a.ledger))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	})

	srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	baseCtx := cmd.Context()
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(baseCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("Received shutdown signal")
		srv.Close()
	}()

	logger.Info("Serving metrics", zap.String("addr", metricsAddr))
	fmt.Fprintf(cmd.OutOrStdout(), "Serving metrics on %s/metrics\n", metricsAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
