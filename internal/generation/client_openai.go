package generation

import (
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"time"

	"contentforge/internal/logging"
	"contentforge/internal/types"

	openai "github.com/sashabaranov/go-openai"
)

// openAIBackend speaks chat completions through go-openai.
type openAIBackend struct {
	client *openai.Client
}

func newOpenAIBackend(cfg Config) *openAIBackend {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	oc.HTTPClient = cfg.HTTPClient
	return &openAIBackend{client: openai.NewClientWithConfig(oc)}
}

func (b *openAIBackend) maxTemperature() float64 { return 2.0 }

// price uses only the total; Provider A bills one blended rate.
func (b *openAIBackend) price(model string, _, _, total int) float64 {
	return OpenAICost(model, total)
}

func (b *openAIBackend) chatRequest(req request) openai.ChatCompletionRequest {
	var messages []openai.ChatCompletionMessage
	if req.system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.user})

	return openai.ChatCompletionRequest{
		Model:       req.model,
		Messages:    messages,
		Temperature: wireTemperature(req.temperature),
		MaxTokens:   req.maxTokens,
	}
}

// wireTemperature keeps an explicit zero on the wire. go-openai tags the
// field omitempty, and an omitted temperature means 1.0 to the API.
func wireTemperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

func (b *openAIBackend) complete(ctx context.Context, req request) (*completion, error) {
	startTime := time.Now()
	logging.ProviderDebug("[OpenAI] complete: model=%s system_len=%d user_len=%d", req.model, len(req.system), len(req.user))

	resp, err := b.client.CreateChatCompletion(ctx, b.chatRequest(req))
	if err != nil {
		logging.ProviderError("[OpenAI] complete: failed after %v: %v", time.Since(startTime), err)
		return nil, openAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &types.ProviderError{Provider: ProviderOpenAI, Message: "no completion returned"}
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	logging.Provider("[OpenAI] complete: completed in %v response_len=%d tokens=%d",
		time.Since(startTime), len(text), resp.Usage.TotalTokens)

	return &completion{
		text:         text,
		inputTokens:  resp.Usage.PromptTokens,
		outputTokens: resp.Usage.CompletionTokens,
		totalTokens:  resp.Usage.TotalTokens,
	}, nil
}

func (b *openAIBackend) openStream(ctx context.Context, req request) (streamSource, error) {
	logging.ProviderDebug("[OpenAI] openStream: model=%s", req.model)

	chatReq := b.chatRequest(req)
	chatReq.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	stream, err := b.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		logging.ProviderError("[OpenAI] openStream: %v", err)
		return nil, openAIError(err)
	}
	return &openAIStream{stream: stream}, nil
}

// openAIStream adapts go-openai's stream reader; it stops at the [DONE] sentinel.
type openAIStream struct {
	stream *openai.ChatCompletionStream
}

func (s *openAIStream) close() error {
	return s.stream.Close()
}

func (s *openAIStream) pump(ctx context.Context, emit func(string) bool) (streamUsage, error) {
	var usage streamUsage
	for {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			return usage, nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return usage, ctx.Err()
			}
			return usage, openAIError(err)
		}

		if resp.Usage != nil && resp.Usage.TotalTokens > 0 {
			usage = streamUsage{
				inputTokens:  resp.Usage.PromptTokens,
				outputTokens: resp.Usage.CompletionTokens,
				totalTokens:  resp.Usage.TotalTokens,
				reported:     true,
			}
		}
		if len(resp.Choices) > 0 && resp.Choices[0].Delta.Content != "" {
			if !emit(resp.Choices[0].Delta.Content) {
				return usage, ctx.Err()
			}
		}
	}
}

// openAIError converts go-openai errors to ProviderError, keeping the
// provider's message and status.
func openAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &types.ProviderError{
			Provider:   ProviderOpenAI,
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			Err:        err,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := "request failed"
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &types.ProviderError{
			Provider:   ProviderOpenAI,
			StatusCode: reqErr.HTTPStatusCode,
			Message:    msg,
			Err:        err,
		}
	}
	return &types.ProviderError{Provider: ProviderOpenAI, Message: "request failed", Err: err}
}

var _ backend = (*openAIBackend)(nil)
