package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"contentforge/internal/config"
	"contentforge/internal/logging"
	"contentforge/internal/types"
	"contentforge/internal/usage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

const testSonnet = "claude-3-5-sonnet-20241022"

// newTestClient builds a client against srv with a private transport and a
// heuristic estimator so tests never reach the network.
func newTestClient(t *testing.T, provider, baseURL, apiKey, model string, ledger *usage.Ledger) *Client {
	t.Helper()
	transport := &http.Transport{}
	t.Cleanup(transport.CloseIdleConnections)

	c, err := NewClient(Config{
		Provider:   provider,
		APIKey:     apiKey,
		Model:      model,
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Transport: transport},
	}, ledger, WithEstimator(usage.NewHeuristicEstimator()))
	require.NoError(t, err)
	return c
}

func anthropicOK(text string, in, out int) string {
	return fmt.Sprintf(`{"id":"msg_1","type":"message","role":"assistant","model":"%s",`+
		`"content":[{"type":"text","text":%q}],"stop_reason":"end_turn",`+
		`"usage":{"input_tokens":%d,"output_tokens":%d}}`, testSonnet, text, in, out)
}

func TestNewClient_UnsupportedProvider(t *testing.T) {
	_, err := NewClient(Config{Provider: "gemini", APIKey: "k", Model: "m"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestGenerate_MissingKeyFailsBeforeNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	for _, provider := range []string{ProviderOpenAI, ProviderAnthropic} {
		t.Run(provider, func(t *testing.T) {
			ledger := usage.NewLedger(50)
			c := newTestClient(t, provider, srv.URL, "", "some-model", ledger)

			_, err := c.Generate(context.Background(), "sys", "user", types.GenerateOptions{})
			var cfgErr *types.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, provider, cfgErr.Provider)

			_, err = c.GenerateStream(context.Background(), "sys", "user", types.GenerateOptions{})
			assert.ErrorIs(t, err, types.ErrConfiguration)

			assert.Zero(t, ledger.Calls())
		})
	}
	assert.Zero(t, hits.Load())
}

func TestGenerate_Anthropic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var body AnthropicRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "be brief", body.System)
		assert.Len(t, body.Messages, 1)
		assert.Equal(t, "hello", body.Messages[0].Content)
		assert.Equal(t, 256, body.MaxTokens)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, anthropicOK("  Hi there  ", 1000, 500))
	}))
	defer srv.Close()

	ledger := usage.NewLedger(50)
	c := newTestClient(t, ProviderAnthropic, srv.URL, "test-key", testSonnet, ledger)

	gen, err := c.Generate(context.Background(), "be brief", "hello", types.GenerateOptions{MaxTokens: 256})
	require.NoError(t, err)

	assert.Equal(t, "Hi there", gen.Text)
	assert.Equal(t, 1500, gen.TokensUsed)
	assert.Equal(t, 1000, gen.InputTokens)
	assert.Equal(t, 500, gen.OutputTokens)
	assert.InDelta(t, 0.0105, gen.Cost, 1e-12)
	assert.Equal(t, ProviderAnthropic, gen.Provider)

	tokens, cost := ledger.Totals()
	assert.Equal(t, int64(1500), tokens)
	assert.InDelta(t, 0.0105, cost, 1e-12)
	assert.Equal(t, int64(1), ledger.Calls())
}

func TestGenerate_LogsRecordedCall(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logging.SetBase(zap.New(core))
	t.Cleanup(func() { logging.SetBase(nil) })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, anthropicOK("ok", 1000, 500))
	}))
	defer srv.Close()

	c := newTestClient(t, ProviderAnthropic, srv.URL, "k", testSonnet, nil)
	_, err := c.Generate(context.Background(), "", "x", types.GenerateOptions{})
	require.NoError(t, err)

	recorded := logs.FilterMessage("Call recorded").All()
	require.Len(t, recorded, 1)
	fields := recorded[0].ContextMap()
	assert.Equal(t, "usage", fields["category"])
	assert.Equal(t, int64(1500), fields["total_tokens"])
	assert.Equal(t, testSonnet, fields["model"])

	assert.NotEmpty(t, logs.FilterMessageSnippet("Generate anthropic/"+testSonnet+" completed in").All())
}

func TestGenerate_AnthropicErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	}))
	defer srv.Close()

	ledger := usage.NewLedger(50)
	c := newTestClient(t, ProviderAnthropic, srv.URL, "bad", testSonnet, ledger)

	_, err := c.Generate(context.Background(), "", "hello", types.GenerateOptions{})
	var provErr *types.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusUnauthorized, provErr.StatusCode)
	assert.Equal(t, "invalid x-api-key", provErr.Message)
	assert.ErrorIs(t, err, types.ErrProvider)
	assert.Zero(t, ledger.Calls())
}

func TestGenerate_AnthropicClampsTemperature(t *testing.T) {
	var got float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body AnthropicRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		got = body.Temperature
		fmt.Fprint(w, anthropicOK("ok", 1, 1))
	}))
	defer srv.Close()

	c := newTestClient(t, ProviderAnthropic, srv.URL, "k", testSonnet, nil)
	_, err := c.Generate(context.Background(), "", "x", types.GenerateOptions{Temperature: types.Float64(1.6)})
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestGenerate_OpenAI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body.Model)
		assert.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)
		assert.Equal(t, "user", body.Messages[1].Role)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"chatcmpl-1","object":"chat.completion","model":"gpt-4o-mini",`+
			`"choices":[{"index":0,"message":{"role":"assistant","content":"Five hooks"},"finish_reason":"stop"}],`+
			`"usage":{"prompt_tokens":600,"completion_tokens":400,"total_tokens":1000}}`)
	}))
	defer srv.Close()

	ledger := usage.NewLedger(50)
	c := newTestClient(t, ProviderOpenAI, srv.URL+"/v1", "sk-test", "gpt-4o-mini", ledger)

	gen, err := c.Generate(context.Background(), "sys", "write hooks", types.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Five hooks", gen.Text)
	assert.Equal(t, 1000, gen.TokensUsed)
	assert.InDelta(t, 0.0003, gen.Cost, 1e-12)

	byProvider, byModel := ledger.Stats()
	assert.Equal(t, int64(1000), byProvider[ProviderOpenAI].Total)
	assert.Equal(t, int64(1), byModel["gpt-4o-mini"].Calls)
}

func TestGenerate_OpenAIErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, ProviderOpenAI, srv.URL+"/v1", "sk-test", "gpt-4o-mini", nil)
	_, err := c.Generate(context.Background(), "", "x", types.GenerateOptions{})

	var provErr *types.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusTooManyRequests, provErr.StatusCode)
	assert.Equal(t, "Rate limit reached", provErr.Message)
	assert.Contains(t, err.Error(), "API request failed with status 429")
}

func TestGenerate_ZeroTemperatureReachesWire(t *testing.T) {
	var (
		mu  sync.Mutex
		got []float64
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		temp, ok := body["temperature"].(float64)
		assert.True(t, ok, "temperature missing from request body")
		mu.Lock()
		got = append(got, temp)
		mu.Unlock()
		fmt.Fprint(w, anthropicOK("ok", 1, 1))
	}))
	defer srv.Close()

	transport := &http.Transport{}
	t.Cleanup(transport.CloseIdleConnections)
	c, err := NewClient(Config{
		Provider:    ProviderAnthropic,
		APIKey:      "k",
		Model:       testSonnet,
		BaseURL:     srv.URL,
		Temperature: 0,
		HTTPClient:  &http.Client{Transport: transport},
	}, nil, WithEstimator(usage.NewHeuristicEstimator()))
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "", "x", types.GenerateOptions{})
	require.NoError(t, err)
	_, err = c.Generate(context.Background(), "", "x", types.GenerateOptions{Temperature: types.Float64(0)})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Zero(t, got[0])
	assert.Zero(t, got[1])
}

func TestGenerate_ExplicitTemperatureOverridesConfig(t *testing.T) {
	var got float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body AnthropicRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		got = body.Temperature
		fmt.Fprint(w, anthropicOK("ok", 1, 1))
	}))
	defer srv.Close()

	transport := &http.Transport{}
	t.Cleanup(transport.CloseIdleConnections)
	c, err := NewClient(Config{
		Provider:    ProviderAnthropic,
		APIKey:      "k",
		Model:       testSonnet,
		BaseURL:     srv.URL,
		Temperature: 0.7,
		HTTPClient:  &http.Client{Transport: transport},
	}, nil, WithEstimator(usage.NewHeuristicEstimator()))
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "", "x", types.GenerateOptions{Temperature: types.Float64(0)})
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestOpenAIWireTemperature(t *testing.T) {
	assert.Equal(t, float32(math.SmallestNonzeroFloat32), wireTemperature(0))
	assert.Equal(t, float32(0.5), wireTemperature(0.5))
}

func TestGenerateVariations_TemperatureSteps(t *testing.T) {
	var (
		mu    sync.Mutex
		temps []float64
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body AnthropicRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		temps = append(temps, body.Temperature)
		n := len(temps)
		mu.Unlock()
		fmt.Fprint(w, anthropicOK(fmt.Sprintf("take %d", n), 10, 10))
	}))
	defer srv.Close()

	ledger := usage.NewLedger(50)
	c := newTestClient(t, ProviderAnthropic, srv.URL, "k", testSonnet, ledger)

	gens, err := c.GenerateVariations(context.Background(), "", "x", 3, types.GenerateOptions{Temperature: types.Float64(0.5)})
	require.NoError(t, err)
	require.Len(t, gens, 3)
	assert.Equal(t, "take 1", gens[0].Text)
	assert.Equal(t, "take 3", gens[2].Text)

	require.Len(t, temps, 3)
	assert.InDelta(t, 0.5, temps[0], 1e-9)
	assert.InDelta(t, 0.6, temps[1], 1e-9)
	assert.InDelta(t, 0.7, temps[2], 1e-9)
	assert.Equal(t, int64(3), ledger.Calls())
}

func TestGenerateVariations_FailureAborts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"type":"error","error":{"type":"api_error","message":"overloaded"}}`)
			return
		}
		fmt.Fprint(w, anthropicOK("ok", 10, 10))
	}))
	defer srv.Close()

	ledger := usage.NewLedger(50)
	c := newTestClient(t, ProviderAnthropic, srv.URL, "k", testSonnet, ledger)

	gens, err := c.GenerateVariations(context.Background(), "", "x", 3, types.GenerateOptions{})
	require.Error(t, err)
	assert.Nil(t, gens)
	assert.Contains(t, err.Error(), "overloaded")
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int64(1), ledger.Calls())
}

func TestGenerateVariations_InvalidCount(t *testing.T) {
	c := newTestClient(t, ProviderAnthropic, "http://127.0.0.1:1", "k", testSonnet, nil)
	_, err := c.GenerateVariations(context.Background(), "", "x", 0, types.GenerateOptions{})
	assert.Error(t, err)
}

func TestNewClientFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM.Provider = config.ProviderAnthropic
	cfg.LLM.AnthropicAPIKey = "ak"
	cfg.LLM.Model = ""

	c, err := NewClientFromConfig(cfg, nil, WithEstimator(usage.NewHeuristicEstimator()))
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, c.Provider())
	assert.Equal(t, config.DefaultAnthropicModel, c.Model())
	assert.Equal(t, "ak", c.cfg.APIKey)
	assert.Equal(t, 0.7, c.cfg.Temperature)

	cfg.LLM.Temperature = 0
	c, err = NewClientFromConfig(cfg, nil, WithEstimator(usage.NewHeuristicEstimator()))
	require.NoError(t, err)
	assert.Zero(t, c.cfg.Temperature)
}

func TestFailureStatus(t *testing.T) {
	assert.Equal(t, statusCancelled, failureStatus(context.Canceled))
	assert.Equal(t, statusCancelled, failureStatus(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)))
	assert.Equal(t, statusError, failureStatus(errors.New("boom")))
}
