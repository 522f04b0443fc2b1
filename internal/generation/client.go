// Package generation performs single-shot, streaming and multi-variation
// text generation against one of two provider backends, pricing every call
// and recording it on the usage ledger.
package generation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"contentforge/internal/logging"
	"contentforge/internal/types"
	"contentforge/internal/usage"
)

// Defaults used when Config leaves a field zero. Temperature has no default
// here: zero is a valid setting and is sent as given.
const (
	DefaultMaxTokens = 2000
	DefaultTimeout   = 120 * time.Second
)

// slowCallThreshold marks provider calls worth a warning.
const slowCallThreshold = 30 * time.Second

// Client dispatches generation calls to the configured provider.
// It is safe for concurrent use.
type Client struct {
	cfg       Config
	backend   backend
	ledger    *usage.Ledger
	estimator *usage.Estimator
}

// Option customizes a Client.
type Option func(*Client)

// WithEstimator sets the token estimator used when a stream reports no usage.
func WithEstimator(e *usage.Estimator) Option {
	return func(c *Client) { c.estimator = e }
}

// NewClient builds a client for cfg.Provider. A nil ledger disables recording.
// Missing credentials are not an error here; calls fail with a
// ConfigurationError before touching the network.
func NewClient(cfg Config, ledger *usage.Ledger, opts ...Option) (*Client, error) {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	c := &Client{cfg: cfg, ledger: ledger}
	switch cfg.Provider {
	case ProviderOpenAI:
		c.backend = newOpenAIBackend(cfg)
	case ProviderAnthropic:
		c.backend = newAnthropicBackend(cfg)
	default:
		return nil, &types.ConfigurationError{Provider: cfg.Provider, Reason: fmt.Sprintf("unsupported provider %q", cfg.Provider)}
	}
	if c.cfg.Model == "" {
		return nil, &types.ConfigurationError{Provider: cfg.Provider, Reason: "model not configured"}
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.estimator == nil {
		c.estimator = usage.NewEstimator(cfg.Model)
	}

	logging.ProviderDebug("Generation client ready: provider=%s model=%s", cfg.Provider, cfg.Model)
	return c, nil
}

// Provider returns the active provider name.
func (c *Client) Provider() string { return c.cfg.Provider }

// Model returns the active model.
func (c *Client) Model() string { return c.cfg.Model }

// Ledger returns the ledger calls are recorded on (may be nil).
func (c *Client) Ledger() *usage.Ledger { return c.ledger }

func (c *Client) checkCredentials() error {
	if c.cfg.APIKey == "" {
		return &types.ConfigurationError{Provider: c.cfg.Provider, Reason: "API key not configured"}
	}
	return nil
}

func (c *Client) buildRequest(system, user string, opts types.GenerateOptions) request {
	req := request{
		model:       c.cfg.Model,
		system:      system,
		user:        user,
		temperature: c.temperature(opts),
		maxTokens:   opts.MaxTokens,
	}
	req.temperature = math.Min(req.temperature, c.backend.maxTemperature())
	if req.maxTokens <= 0 {
		req.maxTokens = c.cfg.MaxTokens
	}
	return req
}

// temperature resolves the call's temperature: the explicit option when set,
// the configured default otherwise.
func (c *Client) temperature(opts types.GenerateOptions) float64 {
	if opts.Temperature != nil {
		return *opts.Temperature
	}
	return c.cfg.Temperature
}

// withTimeout applies the configured timeout when ctx has no deadline.
func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

// Generate performs one completion and records it on the ledger.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string, opts types.GenerateOptions) (*types.Generation, error) {
	started := time.Now()
	provider, model := c.cfg.Provider, c.cfg.Model

	if err := c.checkCredentials(); err != nil {
		observeRequest(provider, model, modeSingle, statusConfigError, started)
		logging.ProviderError("Generate: %v", err)
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req := c.buildRequest(systemPrompt, userPrompt, opts)
	timer := logging.StartTimer(logging.CategoryProvider, "Generate "+provider+"/"+model)
	comp, err := c.backend.complete(ctx, req)
	timer.StopWithThreshold(slowCallThreshold)
	if err != nil {
		observeRequest(provider, model, modeSingle, failureStatus(err), started)
		return nil, err
	}

	gen := c.account(comp.text, comp.inputTokens, comp.outputTokens, comp.totalTokens)
	observeRequest(provider, model, modeSingle, statusSuccess, started)
	return gen, nil
}

// GenerateVariations issues count sequential calls, raising the temperature
// by 0.1 per index. Any failure aborts the whole operation and no partial
// results are returned; calls completed before the failure stay on the ledger.
func (c *Client) GenerateVariations(ctx context.Context, systemPrompt, userPrompt string, count int, opts types.GenerateOptions) ([]*types.Generation, error) {
	if count <= 0 {
		return nil, fmt.Errorf("variation count must be positive, got %d", count)
	}

	base := c.temperature(opts)

	results := make([]*types.Generation, 0, count)
	for i := 0; i < count; i++ {
		o := opts
		o.Temperature = types.Float64(base + 0.1*float64(i))
		gen, err := c.Generate(ctx, systemPrompt, userPrompt, o)
		if err != nil {
			logging.ProviderWarn("GenerateVariations: variation %d/%d failed: %v", i+1, count, err)
			return nil, fmt.Errorf("variation %d: %w", i+1, err)
		}
		results = append(results, gen)
	}
	return results, nil
}

// GenerateStream opens a streaming completion. The returned Stream must be
// drained or closed. Usage is recorded once the stream ends.
func (c *Client) GenerateStream(ctx context.Context, systemPrompt, userPrompt string, opts types.GenerateOptions) (*Stream, error) {
	started := time.Now()
	provider, model := c.cfg.Provider, c.cfg.Model

	if err := c.checkCredentials(); err != nil {
		observeRequest(provider, model, modeStream, statusConfigError, started)
		return nil, err
	}

	ctx, cancel := c.withTimeout(ctx)
	req := c.buildRequest(systemPrompt, userPrompt, opts)

	src, err := c.backend.openStream(ctx, req)
	if err != nil {
		cancel()
		observeRequest(provider, model, modeStream, failureStatus(err), started)
		return nil, err
	}

	finish := func(text string, u streamUsage, err error, abandoned bool) *types.Generation {
		if err != nil && !abandoned {
			observeRequest(provider, model, modeStream, failureStatus(err), started)
			logging.ProviderError("Stream failed after %v: %v", time.Since(started), err)
			return nil
		}
		// Partial or missing usage frames are topped up from local estimates.
		if !u.reported || abandoned {
			if u.inputTokens == 0 {
				u.inputTokens = c.estimator.Count(req.system) + c.estimator.Count(req.user)
			}
			if est := c.estimator.Count(text); est > u.outputTokens {
				u.outputTokens = est
			}
			u.totalTokens = 0
			logging.ProviderDebug("Stream usage estimated: in=%d out=%d abandoned=%v", u.inputTokens, u.outputTokens, abandoned)
		}
		if u.totalTokens == 0 {
			u.totalTokens = u.inputTokens + u.outputTokens
		}
		gen := c.account(text, u.inputTokens, u.outputTokens, u.totalTokens)
		status := statusSuccess
		if abandoned {
			status = statusCancelled
		}
		observeRequest(provider, model, modeStream, status, started)
		return gen
	}

	return newStream(ctx, cancel, src, finish), nil
}

// account prices a finished call, records it and builds the result.
func (c *Client) account(text string, in, out, total int) *types.Generation {
	if total == 0 {
		total = in + out
	}
	cost := c.backend.price(c.cfg.Model, in, out, total)
	if c.ledger != nil {
		c.ledger.RecordCall(c.cfg.Provider, c.cfg.Model, in, out, total, cost)
	}
	observeUsage(c.cfg.Provider, c.cfg.Model, total, cost)
	logging.Get(logging.CategoryUsage).StructuredLog("debug", "Call recorded", map[string]interface{}{
		"provider":      c.cfg.Provider,
		"model":         c.cfg.Model,
		"input_tokens":  in,
		"output_tokens": out,
		"total_tokens":  total,
		"cost":          cost,
	})

	return &types.Generation{
		Text:         text,
		TokensUsed:   total,
		InputTokens:  in,
		OutputTokens: out,
		Cost:         cost,
		Provider:     c.cfg.Provider,
		Model:        c.cfg.Model,
	}
}

func failureStatus(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return statusCancelled
	}
	return statusError
}

var _ types.Generator = (*Client)(nil)
