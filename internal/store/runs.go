package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run kinds.
const (
	RunGenerate = "generate"
	RunChain    = "chain"
	RunReason   = "reason"
)

// Run is one completed host operation.
type Run struct {
	ID        string        `json:"id"`
	Kind      string        `json:"kind"`
	Subject   string        `json:"subject"` // template ID, chain ID or goal
	Provider  string        `json:"provider,omitempty"`
	Model     string        `json:"model,omitempty"`
	Tokens    int           `json:"tokens"`
	Cost      float64       `json:"cost"`
	Output    string        `json:"output"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// RecordRun stores r, assigning an ID and timestamp when missing.
func (s *Store) RecordRun(r *Run) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO runs (id, kind, subject, provider, model, tokens, cost, output, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Kind, r.Subject, r.Provider, r.Model, r.Tokens, r.Cost, r.Output, r.Duration.Milliseconds(), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first. An empty kind matches all.
func (s *Store) RecentRuns(kind string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, kind, subject, provider, model, tokens, cost, output, duration_ms, created_at
		FROM runs
		WHERE (? = '' OR kind = ?)
		ORDER BY created_at DESC
		LIMIT ?`, kind, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var ms int64
		if err := rows.Scan(&r.ID, &r.Kind, &r.Subject, &r.Provider, &r.Model, &r.Tokens, &r.Cost, &r.Output, &ms, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}
