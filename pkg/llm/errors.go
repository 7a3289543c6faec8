package llm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies provider failures for the orchestration layer.
type ErrorKind string

const (
	ErrKindConnection  ErrorKind = "connection"
	ErrKindTimeout     ErrorKind = "timeout"
	ErrKindRateLimit   ErrorKind = "rate_limit"
	ErrKindBadRequest  ErrorKind = "bad_request"
	ErrKindServer      ErrorKind = "server"
	ErrKindCircuitOpen ErrorKind = "circuit_open"
	ErrKindUnknown     ErrorKind = "unknown"
)

// ProviderError is the typed failure surfaced by every LLM backend.
// It is fatal for the reasoning step that triggered it; the orchestrator
// decides how far it propagates.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s (%s): %s: %v", e.Provider, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("provider %s (%s): %s", e.Provider, e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps a low-level failure into a ProviderError.
func NewProviderError(provider string, kind ErrorKind, message string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Message: message, Err: err}
}

// IsProviderError reports whether err carries a ProviderError and returns it.
func IsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
