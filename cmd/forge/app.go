package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"contentforge/internal/chain"
	"contentforge/internal/config"
	"contentforge/internal/generation"
	"contentforge/internal/logging"
	"contentforge/internal/profile"
	"contentforge/internal/prompt"
	"contentforge/internal/store"
	"contentforge/internal/usage"

	"go.uber.org/zap"
)

// forgeApp is everything a command needs, restored from config and the
// local database.
type forgeApp struct {
	cfg      *config.Config
	store    *store.Store
	ledger   *usage.Ledger
	profiles *profile.Store
	registry *prompt.Registry
	chains   map[string]*chain.PromptChain

	ledgerCalls int64 // ledger call count after restore
}

// openApp loads configuration, the template corpus and chain catalog, opens
// the database and restores the ledger and custom profiles.
func openApp() (*forgeApp, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logging.BootDebug("Config loaded from %s: provider=%s model=%s", configPath, cfg.LLM.Provider, cfg.LLM.ResolvedModel())

	if cfg.Logging.DebugMode && !verbose {
		if err := logging.Initialize(logging.Options{
			Enabled:    true,
			Level:      cfg.Logging.Level,
			Format:     cfg.Logging.Format,
			File:       cfg.Logging.File,
			Categories: cfg.Logging.Categories,
		}); err != nil {
			return nil, err
		}
	}

	registry, err := prompt.NewDefaultRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load built-in templates: %w", err)
	}
	if dir := cfg.Paths.TemplatesDir; dir != "" {
		extra, err := prompt.LoadFromDirectory(dir)
		if err != nil {
			return nil, err
		}
		if err := registry.RegisterAll(extra); err != nil {
			return nil, err
		}
	}

	var loaded []*chain.PromptChain
	if file := cfg.Paths.ChainsFile; file != "" {
		if loaded, err = chain.LoadChainsFromYAML(file); err != nil {
			return nil, err
		}
	}

	st, err := store.Open(cfg.Paths.DatabasePath)
	if err != nil {
		return nil, err
	}

	ledger := usage.NewLedger(cfg.Budget.MonthlyLimit)
	if _, err := st.RestoreLedger(ledger, time.Now()); err != nil {
		logger.Warn("Ledger snapshot unreadable, starting fresh", zap.Error(err))
	}
	if cfg.Budget.MonthlyLimit > 0 {
		ledger.SetMonthlyLimit(cfg.Budget.MonthlyLimit)
	}

	profiles := profile.NewStore()
	if _, err := st.LoadInto(profiles); err != nil {
		st.Close()
		return nil, err
	}

	if cfg.APIKeyFor(cfg.LLM.Provider) == "" {
		logging.BootWarn("No API key configured for %s; generation commands will fail", cfg.LLM.Provider)
	}
	logging.Boot("Forge ready: provider=%s db=%s templates=%d chains=%d",
		cfg.LLM.Provider, st.Path(), registry.Count(), len(loaded))

	return &forgeApp{
		cfg:         cfg,
		store:       st,
		ledger:      ledger,
		profiles:    profiles,
		registry:    registry,
		chains:      chain.Catalog(loaded...),
		ledgerCalls: ledger.Calls(),
	}, nil
}

// Close persists the ledger when calls were recorded and closes the database.
func (a *forgeApp) Close() error {
	if a.ledger.Calls() != a.ledgerCalls {
		if err := a.store.SaveSnapshot(a.ledger.Snapshot()); err != nil {
			logger.Warn("Failed to save usage snapshot", zap.Error(err))
		}
	}
	return a.store.Close()
}

// client builds a generation client for the configured provider.
func (a *forgeApp) client() (*generation.Client, error) {
	return generation.NewClientFromConfig(a.cfg, a.ledger)
}

// resolveProfiles looks up optional voice and brand IDs.
func (a *forgeApp) resolveProfiles(voiceID, brandID string) (*profile.VoiceToneProfile, *profile.BrandProfile, error) {
	var (
		voice *profile.VoiceToneProfile
		brand *profile.BrandProfile
		err   error
	)
	if voiceID != "" {
		if voice, err = a.profiles.GetVoice(voiceID); err != nil {
			return nil, nil, fmt.Errorf("voice %q: %w", voiceID, err)
		}
	}
	if brandID != "" {
		if brand, err = a.profiles.GetBrand(brandID); err != nil {
			return nil, nil, fmt.Errorf("brand %q: %w", brandID, err)
		}
	}
	return voice, brand, nil
}

// sortedChainIDs lists the catalog in ID order.
func (a *forgeApp) sortedChainIDs() []string {
	ids := make([]string, 0, len(a.chains))
	for id := range a.chains {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// record stores a completed run; failures only warn.
func (a *forgeApp) record(r *store.Run) {
	if err := a.store.RecordRun(r); err != nil {
		logger.Warn("Failed to record run", zap.String("kind", r.Kind), zap.Error(err))
	}
}

// commandContext derives a timeout-bound context from the command's.
func commandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, timeout)
}
