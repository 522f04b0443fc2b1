package store

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"contentforge/internal/profile"
	"contentforge/internal/usage"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "forge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesDirectoryAndReopens(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a", "b", "forge.db")
	s, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Path())
	require.NoError(t, s.SaveVoice(&profile.VoiceToneProfile{ID: "v1", Name: "Mine"}))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	voices, err := s2.LoadVoices()
	require.NoError(t, err)
	require.Len(t, voices, 1)
	assert.Equal(t, "Mine", voices[0].Name)
}

func TestVoiceProfiles_RoundTrip(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	v := &profile.VoiceToneProfile{
		ID:   "custom-1",
		Name: "Zesty",
		Characteristics: profile.Characteristics{
			Formality:  profile.FormalityCasual,
			Enthusiasm: profile.EnthusiasmHigh,
		},
		VocabularyPreferences: []string{"punchy", "bright"},
		AvoidPhrases:          []string{"synergy"},
		CreatedAt:             time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt:             time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, s.SaveVoice(v))

	got, err := s.LoadVoices()
	require.NoError(t, err)
	require.Len(t, got, 1)
	if diff := cmp.Diff(v, got[0], cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("voice round trip mismatch (-want +got):\n%s", diff)
	}

	v.Name = "Zestier"
	require.NoError(t, s.SaveVoice(v))
	got, err = s.LoadVoices()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Zestier", got[0].Name)

	require.NoError(t, s.DeleteVoice("custom-1"))
	got, err = s.LoadVoices()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSaveVoice_RejectsPresetsAndMissingID(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	assert.ErrorIs(t, s.SaveVoice(profile.Presets()[0]), profile.ErrPresetImmutable)
	assert.Error(t, s.SaveVoice(&profile.VoiceToneProfile{Name: "no id"}))
	assert.Error(t, s.SaveBrand(nil))
}

func TestBrandProfiles_RoundTripAndLoadInto(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	brand := &profile.BrandProfile{
		ID:                  "brand-1",
		Name:                "Acme",
		Industry:            "Fitness",
		CoreValues:          []string{"grit", "joy"},
		UniqueSellingPoints: []string{"10-minute workouts"},
		Voice:               &profile.VoiceToneProfile{ID: "bv", Name: "Acme voice"},
	}
	require.NoError(t, s.SaveBrand(brand))
	require.NoError(t, s.SaveVoice(&profile.VoiceToneProfile{ID: "custom-2", Name: "Calm"}))

	brands, err := s.LoadBrands()
	require.NoError(t, err)
	require.Len(t, brands, 1)
	assert.Equal(t, []string{"grit", "joy"}, brands[0].CoreValues)
	require.NotNil(t, brands[0].Voice)
	assert.Equal(t, "Acme voice", brands[0].Voice.Name)

	ps := profile.NewStore()
	n, err := s.LoadInto(ps)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = ps.GetVoice("custom-2")
	assert.NoError(t, err)
	_, err = ps.GetBrand("brand-1")
	assert.NoError(t, err)

	require.NoError(t, s.DeleteBrand("brand-1"))
	brands, err = s.LoadBrands()
	require.NoError(t, err)
	assert.Empty(t, brands)
}

func TestSnapshots_RoundTripAndRestore(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	now := time.Now()
	ledger := usage.NewLedger(50)
	ledger.RecordCall("anthropic", "claude-3-5-sonnet", 1000, 500, 0, 0.0105)
	ledger.RecordCall("openai", "gpt-4o-mini", 0, 0, 1000, 0.0003)
	snap := ledger.Snapshot()
	require.NoError(t, s.SaveSnapshot(snap))

	got, err := s.LoadSnapshot(PeriodKey(snap.PeriodStart))
	require.NoError(t, err)
	require.NotNil(t, got)
	if diff := cmp.Diff(snap, *got, cmpopts.EquateApproxTime(time.Second), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}

	fresh := usage.NewLedger(50)
	applied, err := s.RestoreLedger(fresh, now)
	require.NoError(t, err)
	assert.True(t, applied)
	tokens, cost := fresh.Totals()
	assert.Equal(t, int64(2500), tokens)
	assert.InDelta(t, 0.0108, cost, 1e-12)

	applied, err = s.RestoreLedger(usage.NewLedger(50), now.AddDate(0, 2, 0))
	require.NoError(t, err)
	assert.False(t, applied)

	missing, err := s.LoadSnapshot("1999-01")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUsageHistory_NewestFirst(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	for i, month := range []time.Month{time.January, time.March, time.February} {
		require.NoError(t, s.SaveSnapshot(usage.Snapshot{
			PeriodStart: time.Date(2026, month, 1, 0, 0, 0, 0, time.UTC),
			TotalCost:   float64(i + 1),
			TotalTokens: int64(100 * (i + 1)),
		}))
	}

	hist, err := s.UsageHistory(2)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "2026-03", hist[0].Period)
	assert.Equal(t, "2026-02", hist[1].Period)
	assert.Equal(t, 2.0, hist[0].TotalCost)
	assert.Equal(t, int64(2), hist[0].Calls)
}

func TestRuns(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	runs := []*Run{
		{Kind: RunGenerate, Subject: "hooks", Provider: "openai", Model: "gpt-4o-mini", Tokens: 120, Cost: 0.0001, Output: "h", Duration: 1500 * time.Millisecond, CreatedAt: base},
		{Kind: RunChain, Subject: "campaign-package", Tokens: 900, Cost: 0.01, Output: "c", CreatedAt: base.Add(time.Minute)},
		{Kind: RunGenerate, Subject: "caption", Tokens: 50, Cost: 0.00002, Output: "x", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, r := range runs {
		require.NoError(t, s.RecordRun(r))
		assert.NotEmpty(t, r.ID)
	}

	all, err := s.RecentRuns("", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "caption", all[0].Subject)

	gens, err := s.RecentRuns(RunGenerate, 10)
	require.NoError(t, err)
	require.Len(t, gens, 2)
	assert.Equal(t, "gpt-4o-mini", gens[1].Model)
	assert.True(t, gens[1].CreatedAt.Equal(base))
	assert.Equal(t, 1500*time.Millisecond, gens[1].Duration)
}

func TestPeriodKey(t *testing.T) {
	assert.Equal(t, "2026-10", PeriodKey(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)))
}

func TestOpen_MigratesVersionOneDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	// Layout written before runs.duration_ms and usage_snapshots.calls existed
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE runs (
			id TEXT PRIMARY KEY, kind TEXT NOT NULL, subject TEXT NOT NULL,
			provider TEXT, model TEXT, tokens INTEGER NOT NULL, cost REAL NOT NULL,
			output TEXT NOT NULL, created_at DATETIME NOT NULL
		);
		CREATE TABLE usage_snapshots (
			period TEXT PRIMARY KEY, snapshot_json TEXT NOT NULL, total_cost REAL NOT NULL,
			total_tokens INTEGER NOT NULL, updated_at DATETIME NOT NULL
		);
		INSERT INTO runs VALUES ('old', 'generate', 'hooks', 'openai', 'gpt-4o-mini', 10, 0.001, 'x', '2025-01-01 00:00:00');
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, CurrentSchemaVersion, s.SchemaVersion())

	runs, err := s.RecentRuns("", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "old", runs[0].ID)
	assert.Zero(t, runs[0].Duration)

	require.NoError(t, s.SaveSnapshot(usage.Snapshot{PeriodStart: time.Now(), Calls: 4}))
	hist, err := s.UsageHistory(1)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, int64(4), hist[0].Calls)
}

func TestOpen_FreshDatabaseIsCurrent(t *testing.T) {
	s := openTestStore(t)
	assert.Equal(t, CurrentSchemaVersion, s.SchemaVersion())
	assert.True(t, columnExists(s.db, "runs", "duration_ms"))
	assert.False(t, columnExists(s.db, "runs", "nope"))
	assert.False(t, tableExists(s.db, "nope"))
}
