// Package llm provides provider clients for chat completion plus a tracing proxy.
package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/option"

	"github.com/mirelabs/solace/internal/domain"
)

var tracer = otel.GetTracerProvider().Tracer("internal/llm")

// Message is a single chat turn for multi-turn calls.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CallOptions holds per-call generation parameters.
type CallOptions struct {
	MaxTokens   int
	Temperature float32
	Messages    []Message
}

// CallOption configures a single Generate call.
type CallOption func(*CallOptions)

// WithMaxTokens bounds the output length for this call.
func WithMaxTokens(n int) CallOption {
	return func(o *CallOptions) { o.MaxTokens = n }
}

// WithTemperature sets the sampling temperature for this call.
func WithTemperature(t float32) CallOption {
	return func(o *CallOptions) { o.Temperature = t }
}

// WithMessages sends a multi-turn conversation instead of a bare prompt.
func WithMessages(msgs []Message) CallOption {
	return func(o *CallOptions) { o.Messages = msgs }
}

func resolveCallOptions(opts []CallOption) CallOptions {
	var o CallOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Client is the provider boundary. Generate returns the raw provider payload;
// use ExtractText to get the assistant text out of it.
type Client interface {
	Generate(ctx context.Context, prompt string, opts ...CallOption) (any, error)
	Model() string
}

// Config holds the configuration for the OpenAI-compatible client.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	MaxTokens  int
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Option configures a Config.
type Option func(*Config)

// WithModel sets the default model for chat completions.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithDefaultMaxTokens sets the default max tokens for completions.
func WithDefaultMaxTokens(maxTokens int) Option {
	return func(c *Config) { c.MaxTokens = maxTokens }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) { c.HTTPClient = client }
}

// WithTimeout sets the HTTP client timeout.
// This is ignored if WithHTTPClient is also used.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// OpenAIClient talks to any OpenAI-compatible chat completion API (OpenAI,
// Groq, vLLM). It returns the full openai.ChatCompletionResponse payload.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIClient creates an OpenAI-compatible client.
// BaseURL should be the full API base URL (e.g., "https://api.groq.com/openai/v1").
func NewOpenAIClient(baseURL, apiKey string, opts ...Option) *OpenAIClient {
	cfg := &Config{
		BaseURL:   strings.TrimSuffix(baseURL, "/"),
		APIKey:    apiKey,
		Model:     "llama-3.1-8b-instant",
		MaxTokens: 1024,
		Timeout:   60 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	openaiCfg := openai.DefaultConfig(cfg.APIKey)
	openaiCfg.BaseURL = cfg.BaseURL
	if cfg.HTTPClient != nil {
		openaiCfg.HTTPClient = cfg.HTTPClient
	} else {
		openaiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OpenAIClient{
		client:    openai.NewClientWithConfig(openaiCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

func (c *OpenAIClient) Model() string { return c.model }

// Generate sends a chat completion request and returns the raw response payload.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, opts ...CallOption) (any, error) {
	o := resolveCallOptions(opts)
	if o.MaxTokens == 0 {
		o.MaxTokens = c.maxTokens
	}

	ctx, span := tracer.Start(ctx, "llm.chat", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	messages := make([]openai.ChatCompletionMessage, 0, len(o.Messages)+1)
	if len(o.Messages) > 0 {
		for _, m := range o.Messages {
			messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
		}
	} else {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   o.MaxTokens,
		Temperature: o.Temperature,
	}

	span.SetAttributes(
		attribute.String("llm.model", req.Model),
		attribute.Int("llm.request.max_tokens", req.MaxTokens),
		attribute.Int("llm.request.messages", len(req.Messages)),
		attribute.Float64("llm.request.temperature", float64(req.Temperature)),
	)

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, domain.NewDomainError(domain.ErrLLMRequestFailed, err.Error())
	}

	span.SetAttributes(
		attribute.Int("llm.usage.input_tokens", resp.Usage.PromptTokens),
		attribute.Int("llm.usage.output_tokens", resp.Usage.CompletionTokens),
	)
	if len(resp.Choices) > 0 {
		span.SetAttributes(
			attribute.String("llm.response.finish_reason", string(resp.Choices[0].FinishReason)),
			attribute.Int("llm.response.content_length", len(resp.Choices[0].Message.Content)),
		)
	}

	return resp, nil
}

// GeminiClient talks to Google Gemini. It returns the full
// *genai.GenerateContentResponse payload.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini client for the given model.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, domain.NewDomainError(domain.ErrLLMUnavailable, err.Error())
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) Model() string { return c.model }

// Generate sends a generate-content request and returns the raw response payload.
func (c *GeminiClient) Generate(ctx context.Context, prompt string, opts ...CallOption) (any, error) {
	o := resolveCallOptions(opts)

	ctx, span := tracer.Start(ctx, "llm.chat", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", c.model))

	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(o.Temperature)
	if o.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(o.MaxTokens))
	}

	parts := make([]genai.Part, 0, len(o.Messages)+1)
	if len(o.Messages) > 0 {
		for _, m := range o.Messages {
			parts = append(parts, genai.Text(m.Content))
		}
	} else {
		parts = append(parts, genai.Text(prompt))
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, domain.NewDomainError(domain.ErrLLMRequestFailed, err.Error())
	}

	return resp, nil
}

// Close releases the underlying Gemini connection.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}
