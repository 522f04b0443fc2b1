package generation

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"contentforge/internal/logging"
	"contentforge/internal/types"
)

// anthropicBackend speaks the messages API over raw HTTP.
type anthropicBackend struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func newAnthropicBackend(cfg Config) *anthropicBackend {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultAnthropicBaseURL
	}
	return &anthropicBackend{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: cfg.HTTPClient,
	}
}

func (b *anthropicBackend) maxTemperature() float64 { return 1.0 }

func (b *anthropicBackend) price(model string, in, out, _ int) float64 {
	return AnthropicCost(model, in, out)
}

func (b *anthropicBackend) newRequest(ctx context.Context, req request, stream bool) (*http.Request, error) {
	body := AnthropicRequest{
		Model:     req.model,
		MaxTokens: req.maxTokens,
		System:    req.system,
		Messages: []AnthropicMessage{
			{Role: "user", Content: req.user},
		},
		Temperature: req.temperature,
		Stream:      stream,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/messages", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", b.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	return httpReq, nil
}

func (b *anthropicBackend) complete(ctx context.Context, req request) (*completion, error) {
	startTime := time.Now()
	logging.ProviderDebug("[Anthropic] complete: model=%s system_len=%d user_len=%d", req.model, len(req.system), len(req.user))

	httpReq, err := b.newRequest(ctx, req, false)
	if err != nil {
		return nil, err
	}

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		logging.ProviderError("[Anthropic] complete: request failed after %v: %v", time.Since(startTime), err)
		return nil, &types.ProviderError{Provider: ProviderAnthropic, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.ProviderError{Provider: ProviderAnthropic, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logging.ProviderError("[Anthropic] complete: API returned status %d", resp.StatusCode)
		return nil, anthropicStatusError(resp.StatusCode, body)
	}

	var anthropicResp AnthropicResponse
	if err := json.Unmarshal(body, &anthropicResp); err != nil {
		return nil, &types.ProviderError{Provider: ProviderAnthropic, Message: "failed to parse response", Err: err}
	}
	if anthropicResp.Error != nil {
		return nil, &types.ProviderError{Provider: ProviderAnthropic, Message: anthropicResp.Error.Message}
	}
	if len(anthropicResp.Content) == 0 {
		return nil, &types.ProviderError{Provider: ProviderAnthropic, Message: "no completion returned"}
	}

	var result strings.Builder
	for _, block := range anthropicResp.Content {
		if block.Type == "text" {
			result.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(result.String())
	logging.Provider("[Anthropic] complete: completed in %v response_len=%d in=%d out=%d",
		time.Since(startTime), len(text), anthropicResp.Usage.InputTokens, anthropicResp.Usage.OutputTokens)

	return &completion{
		text:         text,
		inputTokens:  anthropicResp.Usage.InputTokens,
		outputTokens: anthropicResp.Usage.OutputTokens,
		totalTokens:  anthropicResp.Usage.InputTokens + anthropicResp.Usage.OutputTokens,
	}, nil
}

func (b *anthropicBackend) openStream(ctx context.Context, req request) (streamSource, error) {
	logging.ProviderDebug("[Anthropic] openStream: model=%s", req.model)

	httpReq, err := b.newRequest(ctx, req, true)
	if err != nil {
		return nil, err
	}

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return nil, &types.ProviderError{Provider: ProviderAnthropic, Message: "request failed", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		logging.ProviderError("[Anthropic] openStream: API returned status %d", resp.StatusCode)
		return nil, anthropicStatusError(resp.StatusCode, body)
	}

	return &anthropicStream{body: resp.Body}, nil
}

// anthropicStream reads server-sent events from an open response body.
type anthropicStream struct {
	body io.ReadCloser
}

func (s *anthropicStream) close() error {
	return s.body.Close()
}

func (s *anthropicStream) pump(ctx context.Context, emit func(string) bool) (streamUsage, error) {
	var usage streamUsage

	scanner := bufio.NewScanner(s.body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}

		var evt anthropicStreamEvent
		if err := json.Unmarshal([]byte(data), &evt); err != nil {
			logging.ProviderDebug("[Anthropic] pump: skipping unparseable frame: %v", err)
			continue
		}

		switch evt.Type {
		case "error":
			msg := "stream error"
			if evt.Error != nil {
				msg = evt.Error.Message
			}
			return usage, &types.ProviderError{Provider: ProviderAnthropic, Message: msg}
		case "message_start":
			if evt.Message != nil {
				usage.inputTokens = evt.Message.Usage.InputTokens
				usage.outputTokens = evt.Message.Usage.OutputTokens
				usage.reported = true
			}
		case "content_block_delta":
			if evt.Delta != nil && evt.Delta.Type == "text_delta" && evt.Delta.Text != "" {
				if !emit(evt.Delta.Text) {
					return usage, ctx.Err()
				}
			}
		case "message_delta":
			if evt.Usage != nil {
				usage.outputTokens = evt.Usage.OutputTokens
				usage.reported = true
			}
		case "message_stop":
			usage.totalTokens = usage.inputTokens + usage.outputTokens
			return usage, nil
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return usage, ctx.Err()
		}
		return usage, &types.ProviderError{Provider: ProviderAnthropic, Message: "stream read failed", Err: err}
	}
	if ctx.Err() != nil {
		return usage, ctx.Err()
	}
	// Body ended without message_stop; keep what arrived.
	usage.totalTokens = usage.inputTokens + usage.outputTokens
	return usage, nil
}

// anthropicStatusError extracts the provider's message from an error body.
func anthropicStatusError(status int, body []byte) error {
	var errResp struct {
		Type  string          `json:"type"`
		Error *AnthropicError `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &types.ProviderError{Provider: ProviderAnthropic, StatusCode: status, Message: msg}
}

var _ backend = (*anthropicBackend)(nil)
