package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// TokenUsage reports token accounting for a single completion.
// Providers that do not report usage leave it nil and callers fall back
// to an estimate.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completion is the result of a generation call.
type Completion struct {
	Text  string
	Usage *TokenUsage
}

// StreamChunk is one piece of a streaming completion. Done is set on the
// final chunk, which may also carry Usage.
type StreamChunk struct {
	Text  string
	Done  bool
	Usage *TokenUsage
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the completion
	Chat(ctx context.Context, history []Message, options ...Option) (*Completion, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (*Completion, error)

	// ChatStream streams the completion chunk by chunk. The callback is
	// invoked per chunk on the caller's goroutine.
	ChatStream(ctx context.Context, history []Message, onChunk func(StreamChunk) error, options ...Option) error

	// Name identifies the backing provider ("ollama", "openai", ...)
	Name() string
}
