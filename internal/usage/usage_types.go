package usage

import "time"

// AlertLevel classifies budget consumption.
type AlertLevel string

const (
	AlertNone     AlertLevel = "none"
	AlertWarning  AlertLevel = "warning"
	AlertExceeded AlertLevel = "exceeded"
)

// Alert thresholds as percent of the limit.
const (
	WarningThreshold  = 80.0
	ExceededThreshold = 100.0
)

// TokenCounts holds input/output sums.
type TokenCounts struct {
	Input  int64   `json:"input"`
	Output int64   `json:"output"`
	Total  int64   `json:"total"`
	Cost   float64 `json:"cost_usd"`
	Calls  int64   `json:"calls"`
}

// Add accumulates one call.
func (tc *TokenCounts) Add(input, output, total int, cost float64) {
	tc.Input += int64(input)
	tc.Output += int64(output)
	tc.Total += int64(total)
	tc.Cost += cost
	tc.Calls++
}

// BudgetStatus is a point-in-time view of spend against a limit.
// PercentUsed is clamped to 100 for display; Remaining is not clamped.
type BudgetStatus struct {
	Used        float64    `json:"used"`
	Limit       float64    `json:"limit"`
	PercentUsed float64    `json:"percent_used"`
	Remaining   float64    `json:"remaining"`
	Alert       AlertLevel `json:"alert"`
}

// Snapshot is the serializable ledger state handed to hosts for persistence.
type Snapshot struct {
	Version      string                 `json:"version"`
	PeriodStart  time.Time              `json:"period_start"`
	TotalTokens  int64                  `json:"total_tokens"`
	TotalCost    float64                `json:"total_cost"`
	Calls        int64                  `json:"calls"`
	MonthlyLimit float64                `json:"monthly_limit"`
	ByProvider   map[string]TokenCounts `json:"by_provider"`
	ByModel      map[string]TokenCounts `json:"by_model"`
}

const snapshotVersion = "1.0"
