package embedding

import (
	"context"
	"errors"
	"log"
	"time"

	"ai-researcher-be/pkg/resilience"
)

// ErrCircuitOpen is returned without touching the network while the
// embedding backend's circuit is open.
var ErrCircuitOpen = errors.New("embedding provider circuit open")

// ResilienceConfig holds the retry and breaker knobs for a guarded
// embedding provider.
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
		InitialBackoff: 300 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Breaker:        resilience.DefaultCircuitBreakerConfig(),
	}
}

// ResilientProvider decorates an EmbeddingProvider with a circuit breaker
// and bounded retry. Transient failures are retried and, once exhausted,
// recorded as one breaker failure; permanent failures pass through without
// touching the breaker.
type ResilientProvider struct {
	inner   EmbeddingProvider
	cfg     ResilienceConfig
	breaker *resilience.CircuitBreaker
	logger  *log.Logger
}

// NewResilientProvider wraps inner with the configured guard.
func NewResilientProvider(inner EmbeddingProvider, cfg ResilienceConfig, logger *log.Logger) *ResilientProvider {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 300 * time.Millisecond
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

func (p *ResilientProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	if p.breaker.CheckState() == resilience.CircuitOpen {
		return nil, ErrCircuitOpen
	}

	var out *EmbeddingResponse
	var permanent error
	err := resilience.Retry(ctx, resilience.RetryConfig{
		MaxAttempts:    p.cfg.MaxAttempts,
		InitialBackoff: p.cfg.InitialBackoff,
		MaxBackoff:     p.cfg.MaxBackoff,
		BackoffFactor:  2.0,
		JitterFactor:   0.2,
	}, func(ctx context.Context, attempt int) error {
		resp, err := p.inner.Generate(ctx, text, taskType)
		if err == nil {
			out = resp
			return nil
		}
		if IsTransient(err) {
			p.logger.Printf("[EMBED] Attempt %d failed: %v", attempt, err)
			return err
		}
		// Non-retryable: stop the loop and surface the error as-is.
		permanent = err
		return nil
	})

	if err == nil && permanent != nil {
		return nil, permanent
	}
	if err != nil {
		// Caller cancellation is neutral: it never trips the breaker.
		if ctx.Err() == nil {
			p.breaker.RecordFailure()
		}
		return nil, err
	}
	p.breaker.RecordSuccess()
	return out, nil
}
