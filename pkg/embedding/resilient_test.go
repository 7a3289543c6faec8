package embedding

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-researcher-be/pkg/resilience"
)

type scriptedProvider struct {
	calls int
	errs  []error // consumed per call; nil entry means success
}

func (s *scriptedProvider) Generate(_ context.Context, _ string, _ string) (*EmbeddingResponse, error) {
	var err error
	if s.calls < len(s.errs) {
		err = s.errs[s.calls]
	}
	s.calls++
	if err != nil {
		return nil, err
	}
	return &EmbeddingResponse{Embedding: EmbeddingResponseEmbedding{Values: []float32{1}}}, nil
}

func testGuardConfig(threshold int) ResilienceConfig {
	return ResilienceConfig{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Breaker:        resilience.CircuitBreakerConfig{FailureThreshold: threshold, RecoveryTimeout: time.Minute},
	}
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestResilientGenerateRetriesTransient(t *testing.T) {
	inner := &scriptedProvider{errs: []error{&TransientError{Err: errors.New("refused")}, nil}}
	p := NewResilientProvider(inner, testGuardConfig(5), discardLogger())

	resp, err := p.Generate(context.Background(), "hello", "RETRIEVAL_QUERY")

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 0, p.Breaker().FailureCount())
}

func TestResilientGenerateDoesNotRetryPermanent(t *testing.T) {
	badModel := errors.New("ollama embedding error (status 404): model not found")
	inner := &scriptedProvider{errs: []error{badModel}}
	p := NewResilientProvider(inner, testGuardConfig(5), discardLogger())

	_, err := p.Generate(context.Background(), "hello", "RETRIEVAL_QUERY")

	require.ErrorIs(t, err, badModel)
	assert.Equal(t, 1, inner.calls, "permanent errors are not retryable")
	assert.Equal(t, 0, p.Breaker().FailureCount(), "permanent errors must not trip the breaker")
}

func TestResilientGenerateOpensCircuit(t *testing.T) {
	transient := &TransientError{Err: errors.New("refused")}
	inner := &scriptedProvider{errs: []error{transient, transient, transient, transient}}
	p := NewResilientProvider(inner, testGuardConfig(2), discardLogger())

	_, err := p.Generate(context.Background(), "a", "")
	require.Error(t, err)
	_, err = p.Generate(context.Background(), "b", "")
	require.Error(t, err)
	require.Equal(t, resilience.CircuitOpen, p.Breaker().CheckState())

	before := inner.calls
	_, err = p.Generate(context.Background(), "c", "")

	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, before, inner.calls, "open circuit must not reach the backend")
}

func TestResilientGenerateCancellationIsNeutral(t *testing.T) {
	inner := &scriptedProvider{errs: []error{&TransientError{Err: errors.New("refused")}}}
	p := NewResilientProvider(inner, testGuardConfig(5), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Generate(ctx, "hello", "")

	require.Error(t, err)
	assert.Equal(t, 0, p.Breaker().FailureCount())
}
