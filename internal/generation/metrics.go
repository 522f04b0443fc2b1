package generation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contentforge_generation_requests_total",
			Help: "Total number of generation requests by provider, model and outcome.",
		},
		[]string{"provider", "model", "mode", "status"},
	)
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contentforge_generation_request_duration_seconds",
			Help:    "Histogram of generation request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "model", "mode"},
	)
	tokensTotal = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contentforge_generation_tokens",
			Help:    "Histogram of total tokens per completed call.",
			Buckets: prometheus.ExponentialBuckets(64, 2, 10), // 64 .. 32768
		},
		[]string{"provider", "model"},
	)
	costTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contentforge_generation_cost_usd_total",
			Help: "Estimated total cost of completed generation calls in USD.",
		},
		[]string{"provider", "model"},
	)
)

// Request modes.
const (
	modeSingle = "single"
	modeStream = "stream"
)

// Request outcomes.
const (
	statusSuccess     = "success"
	statusError       = "error"
	statusConfigError = "config_error"
	statusCancelled   = "cancelled"
)

func observeRequest(provider, model, mode, status string, started time.Time) {
	requestsTotal.WithLabelValues(provider, model, mode, status).Inc()
	if status != statusConfigError {
		requestDuration.WithLabelValues(provider, model, mode).Observe(time.Since(started).Seconds())
	}
}

func observeUsage(provider, model string, tokens int, cost float64) {
	tokensTotal.WithLabelValues(provider, model).Observe(float64(tokens))
	if cost > 0 {
		costTotal.WithLabelValues(provider, model).Add(cost)
	}
}
