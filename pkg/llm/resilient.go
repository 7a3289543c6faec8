package llm

import (
	"context"
	"errors"
	"log"
	"time"

	"ai-researcher-be/pkg/resilience"
)

// ResilienceConfig holds the retry and breaker knobs for a guarded provider.
type ResilienceConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Breaker        resilience.CircuitBreakerConfig
}

// DefaultResilienceConfig returns the standard guard defaults.
func DefaultResilienceConfig() ResilienceConfig {
	return ResilienceConfig{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		Breaker:        resilience.DefaultCircuitBreakerConfig(),
	}
}

// ResilientProvider decorates an LLMProvider with a circuit breaker and
// bounded retry. One instance per backing provider handle: the breaker is
// shared by every concurrent request resolving to the same handle, so a
// dead backend stops receiving traffic after the failure threshold instead
// of being hammered once per request.
//
// Client-side failures (bad_request) pass through untouched: they are not
// retried and leave the breaker alone, so a caller's mistake can never open
// the circuit against a healthy backend.
type ResilientProvider struct {
	inner   LLMProvider
	cfg     ResilienceConfig
	breaker *resilience.CircuitBreaker
	logger  *log.Logger
}

// NewResilientProvider wraps inner with the configured guard.
func NewResilientProvider(inner LLMProvider, cfg ResilienceConfig, logger *log.Logger) *ResilientProvider {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ResilientProvider{
		inner:   inner,
		cfg:     cfg,
		breaker: resilience.NewCircuitBreaker(cfg.Breaker),
		logger:  logger,
	}
}

// Breaker exposes the underlying breaker for health reporting.
func (p *ResilientProvider) Breaker() *resilience.CircuitBreaker {
	return p.breaker
}

func (p *ResilientProvider) Name() string {
	return p.inner.Name()
}

func (p *ResilientProvider) Chat(ctx context.Context, history []Message, options ...Option) (*Completion, error) {
	var out *Completion
	err := p.guard(ctx, "chat", func(ctx context.Context) error {
		completion, err := p.inner.Chat(ctx, history, options...)
		if err != nil {
			return err
		}
		out = completion
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p *ResilientProvider) Generate(ctx context.Context, prompt string, options ...Option) (*Completion, error) {
	var out *Completion
	err := p.guard(ctx, "generate", func(ctx context.Context) error {
		completion, err := p.inner.Generate(ctx, prompt, options...)
		if err != nil {
			return err
		}
		out = completion
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ChatStream is breaker-guarded but never retried: chunks already delivered
// to the callback cannot be unsent.
func (p *ResilientProvider) ChatStream(ctx context.Context, history []Message, onChunk func(StreamChunk) error, options ...Option) error {
	if p.breaker.CheckState() == resilience.CircuitOpen {
		return p.circuitOpenError("chat_stream")
	}

	err := p.inner.ChatStream(ctx, history, onChunk, options...)
	if err == nil {
		p.breaker.RecordSuccess()
		return nil
	}
	if callerCanceled(ctx, err) {
		return err
	}
	if retryableProviderError(err) {
		p.breaker.RecordFailure()
	}
	return err
}

// guard rejects immediately when the circuit is open, retries transient
// failures up to MaxAttempts, and records exactly one breaker outcome per
// call. Caller cancellation is neutral: it neither trips nor repairs the
// breaker.
func (p *ResilientProvider) guard(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if p.breaker.CheckState() == resilience.CircuitOpen {
		return p.circuitOpenError(op)
	}

	var permanent error
	err := resilience.Retry(ctx, resilience.RetryConfig{
		MaxAttempts:    p.cfg.MaxAttempts,
		InitialBackoff: p.cfg.InitialBackoff,
		MaxBackoff:     p.cfg.MaxBackoff,
		BackoffFactor:  2.0,
		JitterFactor:   0.2,
	}, func(ctx context.Context, attempt int) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if retryableProviderError(err) {
			p.logger.Printf("[LLM] %s attempt %d failed: %v", op, attempt, err)
			return err
		}
		// Non-retryable: stop the loop and surface the error as-is.
		permanent = err
		return nil
	})

	if err == nil && permanent != nil {
		return permanent
	}
	if err != nil {
		if !callerCanceled(ctx, err) {
			p.breaker.RecordFailure()
		}
		return err
	}
	p.breaker.RecordSuccess()
	return nil
}

func (p *ResilientProvider) circuitOpenError(op string) error {
	return NewProviderError(p.inner.Name(), ErrKindCircuitOpen, op+" rejected: circuit open", nil)
}

func retryableProviderError(err error) bool {
	pe, ok := IsProviderError(err)
	if !ok {
		// Unclassified failures are treated as transport-level.
		return true
	}
	switch pe.Kind {
	case ErrKindConnection, ErrKindTimeout, ErrKindRateLimit, ErrKindServer:
		return true
	default:
		return false
	}
}

func callerCanceled(ctx context.Context, err error) bool {
	if ctx.Err() == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
