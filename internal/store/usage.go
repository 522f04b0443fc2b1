package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"contentforge/internal/usage"
)

// PeriodKey is the snapshot key for the month containing t.
func PeriodKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// SaveSnapshot stores s under the month of its period start.
func (st *Store) SaveSnapshot(s usage.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	_, err = st.db.Exec(`
		INSERT INTO usage_snapshots (period, snapshot_json, total_cost, total_tokens, calls, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(period) DO UPDATE SET
			snapshot_json = excluded.snapshot_json,
			total_cost = excluded.total_cost,
			total_tokens = excluded.total_tokens,
			calls = excluded.calls,
			updated_at = excluded.updated_at
	`, PeriodKey(s.PeriodStart), string(data), s.TotalCost, s.TotalTokens, s.Calls, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the snapshot for period ("YYYY-MM"), or nil when
// none exists.
func (st *Store) LoadSnapshot(period string) (*usage.Snapshot, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	var data string
	err := st.db.QueryRow(`SELECT snapshot_json FROM usage_snapshots WHERE period = ?`, period).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var s usage.Snapshot
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", period, err)
	}
	return &s, nil
}

// PeriodTotal is one month's spend.
type PeriodTotal struct {
	Period      string  `json:"period"`
	TotalCost   float64 `json:"total_cost"`
	TotalTokens int64   `json:"total_tokens"`
	Calls       int64   `json:"calls"`
}

// UsageHistory lists stored months, newest first.
func (st *Store) UsageHistory(limit int) ([]PeriodTotal, error) {
	if limit <= 0 {
		limit = 12
	}
	st.mu.RLock()
	defer st.mu.RUnlock()

	rows, err := st.db.Query(`
		SELECT period, total_cost, total_tokens, calls FROM usage_snapshots
		ORDER BY period DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage history: %w", err)
	}
	defer rows.Close()

	var out []PeriodTotal
	for rows.Next() {
		var p PeriodTotal
		if err := rows.Scan(&p.Period, &p.TotalCost, &p.TotalTokens, &p.Calls); err != nil {
			return nil, fmt.Errorf("failed to scan usage history: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RestoreLedger loads the current month's snapshot into l. A snapshot from a
// previous month is ignored, leaving l as a fresh period. Returns whether a
// snapshot was applied.
func (st *Store) RestoreLedger(l *usage.Ledger, now time.Time) (bool, error) {
	snap, err := st.LoadSnapshot(PeriodKey(now))
	if err != nil || snap == nil {
		return false, err
	}
	l.Restore(*snap)
	return true, nil
}
