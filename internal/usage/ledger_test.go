package usage

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestComputeBudgetStatus(t *testing.T) {
	tests := []struct {
		name        string
		used, limit float64
		percent     float64
		remaining   float64
		alert       AlertLevel
	}{
		{name: "under warning", used: 10, limit: 50, percent: 20, remaining: 40, alert: AlertNone},
		{name: "exactly warning", used: 40, limit: 50, percent: 80, remaining: 10, alert: AlertWarning},
		{name: "just under limit", used: 49.99, limit: 50, percent: 99.98, remaining: 0.01, alert: AlertWarning},
		{name: "exactly limit", used: 50, limit: 50, percent: 100, remaining: 0, alert: AlertExceeded},
		{name: "over limit clamps percent only", used: 55, limit: 50, percent: 100, remaining: -5, alert: AlertExceeded},
		{name: "no limit", used: 5, limit: 0, percent: 0, remaining: -5, alert: AlertNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ComputeBudgetStatus(tt.used, tt.limit)
			assert.InDelta(t, tt.percent, s.PercentUsed, 1e-9)
			assert.InDelta(t, tt.remaining, s.Remaining, 1e-9)
			assert.Equal(t, tt.alert, s.Alert)
			assert.Equal(t, tt.used, s.Used)
			assert.Equal(t, tt.limit, s.Limit)
		})
	}
}

func TestAlertLevelFor(t *testing.T) {
	assert.Equal(t, AlertNone, AlertLevelFor(79.999))
	assert.Equal(t, AlertWarning, AlertLevelFor(80))
	assert.Equal(t, AlertWarning, AlertLevelFor(99))
	assert.Equal(t, AlertExceeded, AlertLevelFor(100))
	assert.Equal(t, AlertExceeded, AlertLevelFor(250))
}

func TestLedger_RecordAndBudget(t *testing.T) {
	l := NewLedger(50)
	l.Record(1000, 25)
	l.Record(500, 15)

	tokens, cost := l.Totals()
	assert.Equal(t, int64(1500), tokens)
	assert.Equal(t, 40.0, cost)
	assert.Equal(t, int64(2), l.Calls())

	s := l.BudgetStatus(50)
	assert.InDelta(t, 80.0, s.PercentUsed, 1e-9)
	assert.Equal(t, AlertWarning, s.Alert)

	l.Record(10, 15)
	s = l.Status()
	assert.Equal(t, 100.0, s.PercentUsed)
	assert.InDelta(t, -5.0, s.Remaining, 1e-9)
	assert.Equal(t, AlertExceeded, s.Alert)
}

func TestLedger_RecordCallBreakdown(t *testing.T) {
	l := NewLedger(10)
	l.RecordCall("anthropic", "claude-3-5-sonnet-20241022", 1000, 500, 0, 0.0105)
	l.RecordCall("openai", "gpt-4o-mini", 0, 0, 300, 0.0002)
	l.RecordCall("anthropic", "claude-3-5-sonnet-20241022", 10, 10, 0, 0.0003)

	tokens, cost := l.Totals()
	assert.Equal(t, int64(1820), tokens)
	assert.InDelta(t, 0.011, cost, 1e-12)

	byProvider, byModel := l.Stats()
	assert.Equal(t, TokenCounts{Input: 1010, Output: 510, Total: 1520, Cost: 0.0108, Calls: 2},
		roundCost(byProvider["anthropic"]))
	assert.Equal(t, int64(300), byModel["gpt-4o-mini"].Total)

	// returned maps are copies
	byProvider["anthropic"] = TokenCounts{}
	again, _ := l.Stats()
	assert.Equal(t, int64(1520), again["anthropic"].Total)
}

func roundCost(tc TokenCounts) TokenCounts {
	tc.Cost = float64(int64(tc.Cost*1e6+0.5)) / 1e6
	return tc
}

func TestLedger_SnapshotRestore(t *testing.T) {
	l := NewLedger(20)
	l.RecordCall("openai", "gpt-4o", 100, 50, 0, 1.5)
	snap := l.Snapshot()

	restored := NewLedger(0)
	restored.Restore(snap)

	if diff := cmp.Diff(snap, restored.Snapshot(), cmpopts.EquateApproxTime(time.Millisecond)); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 20.0, restored.MonthlyLimit())

	// restoring an empty snapshot keeps the configured limit
	fresh := NewLedger(7)
	fresh.Restore(Snapshot{})
	assert.Equal(t, 7.0, fresh.MonthlyLimit())
	byProvider, _ := fresh.Stats()
	assert.NotNil(t, byProvider)
}

func TestLedger_Reset(t *testing.T) {
	l := NewLedger(1)
	l.RecordCall("openai", "gpt-4o", 1, 1, 0, 2)
	l.Reset()

	tokens, cost := l.Totals()
	assert.Zero(t, tokens)
	assert.Zero(t, cost)
	assert.Equal(t, AlertNone, l.Status().Alert)
	byProvider, byModel := l.Stats()
	assert.Empty(t, byProvider)
	assert.Empty(t, byModel)
}

func TestLedger_NeedsRollover(t *testing.T) {
	l := NewLedger(1)
	l.Restore(Snapshot{PeriodStart: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)})

	assert.False(t, l.NeedsRollover(time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC)))
	assert.True(t, l.NeedsRollover(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, l.NeedsRollover(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestLedger_ConcurrentRecord(t *testing.T) {
	l := NewLedger(0)
	var g errgroup.Group
	for i := 0; i < 50; i++ {
		g.Go(func() error {
			for j := 0; j < 100; j++ {
				l.RecordCall("openai", "gpt-4o-mini", 1, 1, 0, 0.5)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	tokens, cost := l.Totals()
	assert.Equal(t, int64(10000), tokens)
	assert.Equal(t, 2500.0, cost)
	assert.Equal(t, int64(5000), l.Calls())
}

func TestEstimator(t *testing.T) {
	e := NewHeuristicEstimator()
	assert.Equal(t, 0, e.Count(""))
	assert.Equal(t, 1, e.Count("abc"))
	assert.Equal(t, 2, e.Count("abcdefgh"))
	assert.Equal(t, 1, HeuristicTokens("héé"))
}
