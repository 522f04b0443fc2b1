package main

import (
	"contentforge/internal/usage"

	"github.com/prometheus/client_golang/prometheus"
)

// ledgerCollector exports the usage ledger's current period as gauges,
// read at scrape time.
type ledgerCollector struct {
	ledger *usage.Ledger

	tokens  *prometheus.Desc
	cost    *prometheus.Desc
	calls   *prometheus.Desc
	limit   *prometheus.Desc
	percent *prometheus.Desc
	byModel *prometheus.Desc
}

func newLedgerCollector(l *usage.Ledger) *ledgerCollector {
	return &ledgerCollector{
		ledger:  l,
		tokens:  prometheus.NewDesc("contentforge_ledger_tokens", "Tokens used in the current budget period.", nil, nil),
		cost:    prometheus.NewDesc("contentforge_ledger_cost_usd", "Spend in the current budget period.", nil, nil),
		calls:   prometheus.NewDesc("contentforge_ledger_calls", "Accounted calls in the current budget period.", nil, nil),
		limit:   prometheus.NewDesc("contentforge_budget_limit_usd", "Configured monthly budget.", nil, nil),
		percent: prometheus.NewDesc("contentforge_budget_used_percent", "Share of the monthly budget used, capped at 100.", nil, nil),
		byModel: prometheus.NewDesc("contentforge_ledger_model_tokens", "Tokens used per model in the current period.", []string{"model"}, nil),
	}
}

func (c *ledgerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.tokens
	ch <- c.cost
	ch <- c.calls
	ch <- c.limit
	ch <- c.percent
	ch <- c.byModel
}

func (c *ledgerCollector) Collect(ch chan<- prometheus.Metric) {
	tokens, cost := c.ledger.Totals()
	status := c.ledger.Status()
	ch <- prometheus.MustNewConstMetric(c.tokens, prometheus.GaugeValue, float64(tokens))
	ch <- prometheus.MustNewConstMetric(c.cost, prometheus.GaugeValue, cost)
	ch <- prometheus.MustNewConstMetric(c.calls, prometheus.GaugeValue, float64(c.ledger.Calls()))
	ch <- prometheus.MustNewConstMetric(c.limit, prometheus.GaugeValue, status.Limit)
	ch <- prometheus.MustNewConstMetric(c.percent, prometheus.GaugeValue, status.PercentUsed)

	_, byModel := c.ledger.Stats()
	for model, tc := range byModel {
		ch <- prometheus.MustNewConstMetric(c.byModel, prometheus.GaugeValue, float64(tc.Total), model)
	}
}
