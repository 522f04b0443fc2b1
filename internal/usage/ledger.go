// Package usage meters tokens and cost across generation calls and reports
// spend against a monthly budget.
package usage

import (
	"math"
	"sync"
	"time"

	"contentforge/internal/logging"
)

// Ledger accumulates tokens and cost for the process lifetime.
// All methods are safe for concurrent use.
type Ledger struct {
	mu           sync.Mutex
	totalTokens  int64
	totalCost    float64
	calls        int64
	byProvider   map[string]TokenCounts
	byModel      map[string]TokenCounts
	monthlyLimit float64
	periodStart  time.Time
	lastAlert    AlertLevel
}

// NewLedger creates an empty ledger with the given monthly limit in USD.
func NewLedger(monthlyLimit float64) *Ledger {
	return &Ledger{
		byProvider:   make(map[string]TokenCounts),
		byModel:      make(map[string]TokenCounts),
		monthlyLimit: monthlyLimit,
		periodStart:  time.Now(),
		lastAlert:    AlertNone,
	}
}

// Record atomically adds tokens and cost to the running totals.
func (l *Ledger) Record(tokens int, cost float64) {
	l.mu.Lock()
	l.totalTokens += int64(tokens)
	l.totalCost += cost
	l.calls++
	l.checkAlertLocked()
	l.mu.Unlock()
}

// RecordCall records a completed provider call with its breakdown.
// total may exceed input+output when a provider reports only a total.
func (l *Ledger) RecordCall(provider, model string, input, output, total int, cost float64) {
	if total == 0 {
		total = input + output
	}

	l.mu.Lock()
	l.totalTokens += int64(total)
	l.totalCost += cost
	l.calls++
	addToMap(l.byProvider, provider, input, output, total, cost)
	addToMap(l.byModel, model, input, output, total, cost)
	l.checkAlertLocked()
	l.mu.Unlock()

	logging.UsageDebug("Recorded %s/%s: tokens=%d cost=$%.6f", provider, model, total, cost)
}

// Totals returns running tokens and cost.
func (l *Ledger) Totals() (tokens int64, cost float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalTokens, l.totalCost
}

// Calls returns the number of recorded calls.
func (l *Ledger) Calls() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// MonthlyLimit returns the configured limit.
func (l *Ledger) MonthlyLimit() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.monthlyLimit
}

// SetMonthlyLimit changes the configured limit.
func (l *Ledger) SetMonthlyLimit(limit float64) {
	l.mu.Lock()
	l.monthlyLimit = limit
	l.checkAlertLocked()
	l.mu.Unlock()
}

// BudgetStatus reports current spend against limit.
func (l *Ledger) BudgetStatus(limit float64) BudgetStatus {
	l.mu.Lock()
	used := l.totalCost
	l.mu.Unlock()
	return ComputeBudgetStatus(used, limit)
}

// Status reports current spend against the configured monthly limit.
func (l *Ledger) Status() BudgetStatus {
	l.mu.Lock()
	used, limit := l.totalCost, l.monthlyLimit
	l.mu.Unlock()
	return ComputeBudgetStatus(used, limit)
}

// ComputeBudgetStatus derives a status from used and limit.
// A non-positive limit yields PercentUsed 0 and no alert.
func ComputeBudgetStatus(used, limit float64) BudgetStatus {
	s := BudgetStatus{Used: used, Limit: limit, Remaining: limit - used}
	if limit <= 0 {
		s.Alert = AlertNone
		return s
	}
	raw := used / limit * 100
	s.PercentUsed = math.Min(raw, 100)
	s.Alert = AlertLevelFor(raw)
	return s
}

// AlertLevelFor maps a percent to an alert level.
func AlertLevelFor(percentUsed float64) AlertLevel {
	switch {
	case percentUsed >= ExceededThreshold:
		return AlertExceeded
	case percentUsed >= WarningThreshold:
		return AlertWarning
	default:
		return AlertNone
	}
}

// Stats returns copies of the per-provider and per-model breakdowns.
func (l *Ledger) Stats() (byProvider, byModel map[string]TokenCounts) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return copyTokenCountsMap(l.byProvider), copyTokenCountsMap(l.byModel)
}

// Snapshot returns the full ledger state.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot{
		Version:      snapshotVersion,
		PeriodStart:  l.periodStart,
		TotalTokens:  l.totalTokens,
		TotalCost:    l.totalCost,
		Calls:        l.calls,
		MonthlyLimit: l.monthlyLimit,
		ByProvider:   copyTokenCountsMap(l.byProvider),
		ByModel:      copyTokenCountsMap(l.byModel),
	}
}

// Restore replaces ledger state with a snapshot. The current monthly limit
// is kept when the snapshot carries none.
func (l *Ledger) Restore(s Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.totalTokens = s.TotalTokens
	l.totalCost = s.TotalCost
	l.calls = s.Calls
	if s.MonthlyLimit > 0 {
		l.monthlyLimit = s.MonthlyLimit
	}
	if !s.PeriodStart.IsZero() {
		l.periodStart = s.PeriodStart
	}
	l.byProvider = copyTokenCountsMap(s.ByProvider)
	if l.byProvider == nil {
		l.byProvider = make(map[string]TokenCounts)
	}
	l.byModel = copyTokenCountsMap(s.ByModel)
	if l.byModel == nil {
		l.byModel = make(map[string]TokenCounts)
	}
	l.lastAlert = ComputeBudgetStatus(l.totalCost, l.monthlyLimit).Alert
	logging.Usage("Restored ledger: tokens=%d cost=$%.4f calls=%d", l.totalTokens, l.totalCost, l.calls)
}

// Reset clears all totals and starts a new period.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.totalTokens = 0
	l.totalCost = 0
	l.calls = 0
	l.byProvider = make(map[string]TokenCounts)
	l.byModel = make(map[string]TokenCounts)
	l.periodStart = time.Now()
	l.lastAlert = AlertNone
	logging.Usage("Ledger reset for new period")
}

// PeriodStart returns when the current budget period began.
func (l *Ledger) PeriodStart() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.periodStart
}

// NeedsRollover reports whether now falls in a later calendar month than the
// period start.
func (l *Ledger) NeedsRollover(now time.Time) bool {
	start := l.PeriodStart()
	return now.Year() > start.Year() || (now.Year() == start.Year() && now.Month() > start.Month())
}

// checkAlertLocked logs when the alert level escalates.
func (l *Ledger) checkAlertLocked() {
	level := ComputeBudgetStatus(l.totalCost, l.monthlyLimit).Alert
	if level == l.lastAlert {
		return
	}
	if level != AlertNone {
		logging.UsageWarn("Budget alert %s: $%.4f of $%.2f used", level, l.totalCost, l.monthlyLimit)
	}
	l.lastAlert = level
}

func copyTokenCountsMap(src map[string]TokenCounts) map[string]TokenCounts {
	if src == nil {
		return nil
	}
	dst := make(map[string]TokenCounts, len(src))
	for key, counts := range src {
		dst[key] = counts
	}
	return dst
}

func addToMap(m map[string]TokenCounts, key string, input, output, total int, cost float64) {
	entry := m[key]
	entry.Add(input, output, total, cost)
	m[key] = entry
}
