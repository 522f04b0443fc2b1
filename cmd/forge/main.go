// Package main implements the forge CLI, the host for contentforge's
// template, profile, generation, chain and reasoning engines.
//
// Usage:
//
//	forge templates list
//	forge generate --template hooks --var topic="cold brew" --voice preset-witty
//	forge chain run short-form-video-package --var topic="cold brew"
//	forge reason "Launch plan for a budgeting app"
//	forge usage --history 6
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"contentforge/internal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	configPath string
	envFile    string
	verbose    bool
	timeout    time.Duration

	// Logger
	logger *zap.Logger
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "forge - template-driven content generation",
	Long: `forge renders prompt templates, blends voice and brand profiles into
system prompts, and sends them to OpenAI or Anthropic.

It runs multi-step content chains (video packages, campaigns, repurposing),
a five-phase reasoning pipeline with refine/critique/compare utilities,
and keeps a monthly token and cost ledger in a local SQLite database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load .env before config so its keys participate in env overrides
		if envFile != "" {
			if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}

		// Initialize logger
		zapCfg := zap.NewProductionConfig()
		zapCfg.OutputPaths = []string{"stderr"}
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		}

		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		// Engine category logging shares the CLI logger when verbose
		if verbose {
			logging.SetBase(logger)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.Sync()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "forge.yaml", "Config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	// Templates subcommands
	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesShowCmd)

	// Chain subcommands
	chainCmd.AddCommand(chainListCmd)
	chainCmd.AddCommand(chainValidateCmd)
	chainCmd.AddCommand(chainRunCmd)

	// Profile subcommands
	profilesCmd.AddCommand(profilesListCmd)
	profilesCmd.AddCommand(profilesCreateCmd)
	profilesCmd.AddCommand(profilesDeleteCmd)
	profilesCmd.AddCommand(profilesMergeCmd)

	// Add commands to root
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(reasonCmd)
	rootCmd.AddCommand(refineCmd)
	rootCmd.AddCommand(critiqueCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(serveMetricsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		os.Exit(1)
	}
}

// joinArgs joins command arguments
func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
