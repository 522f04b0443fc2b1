package generation

import (
	"context"
	"net/http"
	"time"
)

// Provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Default endpoints.
const (
	DefaultOpenAIBaseURL    = "https://api.openai.com/v1"
	DefaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion        = "2023-06-01"
)

// Config configures a Client.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string        // empty = provider default
	Temperature float64       // default when a call leaves Temperature nil; zero is sent as zero
	MaxTokens   int           // default when a call passes 0
	Timeout     time.Duration // applied when the caller's context has no deadline
	HTTPClient  *http.Client  // nil = a fresh client
}

// request is a resolved, provider-neutral call.
type request struct {
	model       string
	system      string
	user        string
	temperature float64
	maxTokens   int
}

// completion is a backend's non-streaming answer.
type completion struct {
	text         string
	inputTokens  int
	outputTokens int
	totalTokens  int
}

// streamUsage is what a stream reported about token counts.
// reported is false when the provider sent no usage frame.
type streamUsage struct {
	inputTokens  int
	outputTokens int
	totalTokens  int
	reported     bool
}

// streamSource is an open provider stream.
type streamSource interface {
	// pump reads frames, calling emit for each text delta, until the stream
	// ends. It stops early when emit returns false.
	pump(ctx context.Context, emit func(string) bool) (streamUsage, error)
	close() error
}

// backend is one provider's wire protocol and pricing.
type backend interface {
	complete(ctx context.Context, req request) (*completion, error)
	openStream(ctx context.Context, req request) (streamSource, error)
	price(model string, inputTokens, outputTokens, totalTokens int) float64
	maxTemperature() float64
}

// =============================================================================
// PROVIDER B WIRE TYPES
// =============================================================================

// AnthropicMessage is one conversation turn.
type AnthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AnthropicRequest represents the messages API request.
type AnthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []AnthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
	Stream      bool               `json:"stream,omitempty"`
}

// AnthropicContentBlock is one block of response content.
type AnthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// AnthropicUsage reports token counts.
type AnthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// AnthropicError is the error object in error bodies and error frames.
type AnthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// AnthropicResponse represents the API response.
type AnthropicResponse struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Role       string                  `json:"role"`
	Content    []AnthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Usage      AnthropicUsage          `json:"usage"`
	Error      *AnthropicError         `json:"error,omitempty"`
}

// anthropicStreamEvent covers every frame type the client reads.
type anthropicStreamEvent struct {
	Type    string `json:"type"`
	Message *struct {
		Usage AnthropicUsage `json:"usage"`
	} `json:"message,omitempty"`
	Delta *struct {
		Type       string `json:"type"`
		Text       string `json:"text,omitempty"`
		StopReason string `json:"stop_reason,omitempty"`
	} `json:"delta,omitempty"`
	Usage *AnthropicUsage `json:"usage,omitempty"`
	Error *AnthropicError `json:"error,omitempty"`
}
