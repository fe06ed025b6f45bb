// Package genai wraps the OpenAI chat completion API for reply generation.
//
// The client retries transient provider failures with exponential backoff and
// jitter, and treats an empty reply as an error rather than a silent fallback.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/BioSummitBR/eventbot/internal/models"
)

// Error variables for model call failure classification.
var (
	// ErrNoChoicesReturned reports a completion response without choices.
	ErrNoChoicesReturned = errors.New("no choices returned")
	// ErrEmptyResponse reports a reply that is empty after trimming.
	ErrEmptyResponse = errors.New("model returned empty response")
)

// chatService is the minimal chat completion surface, for testing.
type chatService interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// RetryPolicy controls retries for transient provider failures.
type RetryPolicy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	JitterFraction float64
}

// DefaultRetryPolicy is the policy applied when none is configured.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:    3,
	BaseDelay:      500 * time.Millisecond,
	JitterFraction: 0.2,
}

// ClientInterface defines the reply generation surface consumed by the engine.
type ClientInterface interface {
	GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error)
}

// Client wraps the OpenAI chat completion service.
type Client struct {
	chat  chatService
	model openai.ChatModel
	retry RetryPolicy
	sleep func(time.Duration)
}

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey string
	Model  string
	Retry  *RetryPolicy
}

// Option defines a configuration option for the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key, overriding $OPENAI_API_KEY.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel sets the chat model, overriding the default.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *Opts) { o.Retry = &p }
}

// NewClient initializes a GenAI client. The API key falls back to the
// OPENAI_API_KEY environment variable.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	model := openai.ChatModelGPT4oMini
	if cfg.Model != "" {
		model = openai.ChatModel(cfg.Model)
	}
	retry := DefaultRetryPolicy
	if cfg.Retry != nil {
		retry = *cfg.Retry
	}

	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	slog.Debug("GenAI client created", "model", model, "maxAttempts", retry.MaxAttempts)
	return &Client{chat: &cli.Chat.Completions, model: model, retry: retry, sleep: time.Sleep}, nil
}

// GenerateWithMessages sends the message array to the model and returns the
// trimmed reply text. Transient failures are retried per the retry policy.
func (c *Client) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	maxAttempts := c.retry.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
			Model:    c.model,
			Messages: messages,
		})
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", ErrNoChoicesReturned
			}
			reply := strings.TrimSpace(resp.Choices[0].Message.Content)
			if reply == "" {
				return "", ErrEmptyResponse
			}
			return reply, nil
		}

		lastErr = err
		if !isRetryable(err) {
			slog.Error("GenAI call failed with non-retryable error", "error", err, "attempt", attempt)
			return "", fmt.Errorf("chat completion failed: %w", err)
		}
		if attempt == maxAttempts {
			break
		}
		delay := c.backoffDelay(attempt)
		slog.Warn("GenAI call failed, retrying", "error", err, "attempt", attempt, "delay", delay)
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("chat completion cancelled: %w", ctx.Err())
		default:
		}
		c.sleep(delay)
	}
	slog.Error("GenAI call exhausted retries", "error", lastErr, "attempts", maxAttempts)
	return "", fmt.Errorf("chat completion failed after %d attempts: %w", maxAttempts, lastErr)
}

// backoffDelay computes the exponential backoff with jitter for an attempt.
func (c *Client) backoffDelay(attempt int) time.Duration {
	delay := c.retry.BaseDelay << (attempt - 1)
	if c.retry.JitterFraction > 0 {
		jitter := float64(delay) * c.retry.JitterFraction
		delay += time.Duration((rand.Float64()*2 - 1) * jitter)
	}
	if delay < 0 {
		delay = 0
	}
	return delay
}

// isRetryable classifies provider errors. Rate limits, server errors, and
// timeouts are retried; client and auth errors are fatal. Transport-level
// failures without an API status are treated as transient.
func isRetryable(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			return true
		case apiErr.StatusCode == 408:
			return true
		case apiErr.StatusCode >= 500:
			return true
		default:
			return false
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// BuildMessages assembles the OpenAI message array from the system prompt and
// the recent conversation history, ending with the current user message.
func BuildMessages(systemPrompt string, history []models.Message, userText string) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	for _, msg := range history {
		switch msg.Role {
		case models.RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case models.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		}
	}
	messages = append(messages, openai.UserMessage(userText))
	return messages
}
