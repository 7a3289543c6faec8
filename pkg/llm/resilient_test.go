package llm

import (
	"context"
	"io"
	"log"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-researcher-be/pkg/resilience"
)

type flakyProvider struct {
	calls    int32
	failWith error
	succeed  bool
	// succeedAfter makes attempts fail until this many calls have happened.
	succeedAfter int32
}

func (f *flakyProvider) Chat(_ context.Context, _ []Message, _ ...Option) (*Completion, error) {
	return f.Generate(context.Background(), "")
}

func (f *flakyProvider) Generate(_ context.Context, _ string, _ ...Option) (*Completion, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if f.succeed || (f.succeedAfter > 0 && n > f.succeedAfter) {
		return &Completion{Text: "ok"}, nil
	}
	return nil, f.failWith
}

func (f *flakyProvider) ChatStream(_ context.Context, _ []Message, _ func(StreamChunk) error, _ ...Option) error {
	atomic.AddInt32(&f.calls, 1)
	if f.succeed {
		return nil
	}
	return f.failWith
}

func (f *flakyProvider) Name() string { return "flaky" }

func testResilienceConfig(threshold int) ResilienceConfig {
	return ResilienceConfig{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Breaker:        resilience.CircuitBreakerConfig{FailureThreshold: threshold, RecoveryTimeout: time.Minute},
	}
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestResilientProviderRetriesTransientThenSucceeds(t *testing.T) {
	inner := &flakyProvider{
		failWith:     NewProviderError("flaky", ErrKindConnection, "refused", nil),
		succeedAfter: 1,
	}
	p := NewResilientProvider(inner, testResilienceConfig(5), quietLogger())

	completion, err := p.Generate(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, "ok", completion.Text)
	assert.Equal(t, int32(2), atomic.LoadInt32(&inner.calls))
	assert.Equal(t, 0, p.Breaker().FailureCount(), "success resets the breaker")
}

func TestResilientProviderDoesNotRetryBadRequest(t *testing.T) {
	inner := &flakyProvider{failWith: NewProviderError("flaky", ErrKindBadRequest, "prompt too long", nil)}
	p := NewResilientProvider(inner, testResilienceConfig(5), quietLogger())

	_, err := p.Generate(context.Background(), "hello")

	require.Error(t, err)
	pe, ok := IsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, ErrKindBadRequest, pe.Kind)
	assert.Equal(t, int32(1), atomic.LoadInt32(&inner.calls), "client errors are not retryable")
	assert.Equal(t, 0, p.Breaker().FailureCount(), "client errors must not trip the breaker")
}

func TestResilientProviderOpensCircuitAfterConsecutiveFailures(t *testing.T) {
	inner := &flakyProvider{failWith: NewProviderError("flaky", ErrKindConnection, "refused", nil)}
	p := NewResilientProvider(inner, testResilienceConfig(5), quietLogger())

	// Each exhausted call burns MaxAttempts=2 backend calls and records one
	// breaker failure. The threshold-5 circuit opens after the fifth run;
	// the remaining runs are rejected without reaching the backend.
	var circuitRejections int
	for i := 0; i < 10; i++ {
		_, err := p.Generate(context.Background(), "hello")
		require.Error(t, err)
		if pe, ok := IsProviderError(err); ok && pe.Kind == ErrKindCircuitOpen {
			circuitRejections++
		}
	}

	assert.Equal(t, int32(10), atomic.LoadInt32(&inner.calls), "5 exhausted runs x 2 attempts")
	assert.Equal(t, 5, circuitRejections)
	assert.Equal(t, resilience.CircuitOpen, p.Breaker().CheckState())
}

func TestResilientProviderSuccessClosesCircuit(t *testing.T) {
	inner := &flakyProvider{failWith: NewProviderError("flaky", ErrKindServer, "boom", nil)}
	p := NewResilientProvider(inner, testResilienceConfig(2), quietLogger())

	_, _ = p.Generate(context.Background(), "a")
	_, _ = p.Generate(context.Background(), "b")
	require.Equal(t, resilience.CircuitOpen, p.Breaker().CheckState())

	inner.succeed = true
	p.Breaker().RecordSuccess() // operator reset; normally the recovery timeout elapses
	completion, err := p.Generate(context.Background(), "c")

	require.NoError(t, err)
	assert.Equal(t, "ok", completion.Text)
	assert.Equal(t, resilience.CircuitClosed, p.Breaker().CheckState())
}

func TestResilientProviderCancellationDoesNotTripBreaker(t *testing.T) {
	inner := &flakyProvider{failWith: NewProviderError("flaky", ErrKindConnection, "refused", nil)}
	p := NewResilientProvider(inner, testResilienceConfig(5), quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Generate(ctx, "hello")

	require.Error(t, err)
	assert.Equal(t, 0, p.Breaker().FailureCount())
}

func TestResilientProviderChatStreamGuarded(t *testing.T) {
	inner := &flakyProvider{failWith: NewProviderError("flaky", ErrKindConnection, "refused", nil)}
	p := NewResilientProvider(inner, testResilienceConfig(2), quietLogger())

	// Streams are never retried: one failure, one breaker record.
	err := p.ChatStream(context.Background(), nil, func(StreamChunk) error { return nil })
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&inner.calls))
	assert.Equal(t, 1, p.Breaker().FailureCount())

	err = p.ChatStream(context.Background(), nil, func(StreamChunk) error { return nil })
	require.Error(t, err)
	require.Equal(t, resilience.CircuitOpen, p.Breaker().CheckState())

	err = p.ChatStream(context.Background(), nil, func(StreamChunk) error { return nil })
	pe, ok := IsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, ErrKindCircuitOpen, pe.Kind)
	assert.Equal(t, int32(2), atomic.LoadInt32(&inner.calls), "open circuit must not reach the backend")
}
