package toolgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"ai-researcher-be/pkg/resilience"
)

// Status classifies the outcome of a gateway call. Degraded outcomes are
// success variants - tool enrichment is strictly optional and must never
// abort the caller's primary flow.
type Status string

const (
	StatusOK          Status = "ok"
	StatusCircuitOpen Status = "circuit_open"
	StatusDegraded    Status = "degraded"
)

// Tool describes one tool exposed by the gateway.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version,omitempty"`
}

// ToolListResult is the (possibly degraded) result of ListTools.
type ToolListResult struct {
	Status Status
	Tools  []Tool
}

// ToolInvokeResult is the (possibly degraded) result of InvokeTool.
type ToolInvokeResult struct {
	Status Status
	Output map[string]interface{}
}

// Config holds the gateway client knobs.
type Config struct {
	BaseURL          string
	BearerToken      string
	RequestTimeout   time.Duration
	HealthTimeout    time.Duration
	MaxRetryAttempts int
	Breaker          resilience.CircuitBreakerConfig
}

// DefaultConfig returns sensible gateway client defaults.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:          baseURL,
		RequestTimeout:   30 * time.Second,
		HealthTimeout:    3 * time.Second,
		MaxRetryAttempts: 3,
		Breaker:          resilience.DefaultCircuitBreakerConfig(),
	}
}

// Client wraps the external tool gateway behind a circuit breaker and
// bounded retry. Health checks bypass the breaker entirely: liveness
// probing must never trip it, and never repairs it either.
type Client struct {
	cfg     Config
	breaker *resilience.CircuitBreaker
	client  *http.Client
	logger  *log.Logger
}

// NewClient creates a resilient gateway client.
func NewClient(cfg Config, logger *log.Logger) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = 3 * time.Second
	}
	if cfg.MaxRetryAttempts <= 0 {
		cfg.MaxRetryAttempts = 3
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		cfg:     cfg,
		breaker: resilience.NewCircuitBreaker(cfg.Breaker),
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		logger:  logger,
	}
}

// Breaker exposes the underlying breaker (shared state, read-mostly callers).
func (c *Client) Breaker() *resilience.CircuitBreaker {
	return c.breaker
}

// HealthCheck probes GET /health with its own short timeout.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", c.cfg.BaseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create health request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// ListTools fetches GET /api/v1/tools. When the breaker is open it returns
// an empty circuit_open result without touching the network.
func (c *Client) ListTools(ctx context.Context) *ToolListResult {
	if c.breaker.CheckState() == resilience.CircuitOpen {
		c.logger.Printf("[TOOLS] Circuit open, skipping tool listing")
		return &ToolListResult{Status: StatusCircuitOpen, Tools: nil}
	}

	var tools []Tool
	err := c.withRetry(ctx, func(ctx context.Context) error {
		body, err := c.doJSON(ctx, "GET", "/api/v1/tools", nil)
		if err != nil {
			return err
		}
		var payload struct {
			Tools []Tool `json:"tools"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return fmt.Errorf("decode tool list: %w", err)
		}
		tools = payload.Tools
		return nil
	})

	if err != nil {
		if !isPermanent(err) {
			c.breaker.RecordFailure()
		}
		c.logger.Printf("[TOOLS] Tool listing degraded: %v", err)
		return &ToolListResult{Status: StatusDegraded, Tools: nil}
	}

	c.breaker.RecordSuccess()
	return &ToolListResult{Status: StatusOK, Tools: tools}
}

// InvokeTool posts to /api/v1/tools/{name}/invoke. Failures degrade; they
// never propagate as errors to the caller.
func (c *Client) InvokeTool(ctx context.Context, name string, args map[string]interface{}) *ToolInvokeResult {
	if c.breaker.CheckState() == resilience.CircuitOpen {
		c.logger.Printf("[TOOLS] Circuit open, skipping invocation of %q", name)
		return &ToolInvokeResult{Status: StatusCircuitOpen}
	}

	var output map[string]interface{}
	err := c.withRetry(ctx, func(ctx context.Context) error {
		body, err := c.doJSON(ctx, "POST", "/api/v1/tools/"+name+"/invoke", args)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &output); err != nil {
			return fmt.Errorf("decode tool output: %w", err)
		}
		return nil
	})

	if err != nil {
		if !isPermanent(err) {
			c.breaker.RecordFailure()
		}
		c.logger.Printf("[TOOLS] Invocation of %q degraded: %v", name, err)
		return &ToolInvokeResult{Status: StatusDegraded}
	}

	c.breaker.RecordSuccess()
	return &ToolInvokeResult{Status: StatusOK, Output: output}
}

// retryableError marks failures worth retrying (5xx, timeouts).
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// permanentError marks request mistakes (4xx). They are never retried and
// must not count against the breaker: a mistyped tool name says nothing
// about gateway health.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func isPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

func (c *Client) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	var permanent error

	err := resilience.Retry(ctx, resilience.RetryConfig{
		MaxAttempts:    c.cfg.MaxRetryAttempts,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  2.0,
		JitterFactor:   0.2,
	}, func(ctx context.Context, attempt int) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		var re *retryableError
		if errors.As(err, &re) {
			c.logger.Printf("[TOOLS] Attempt %d failed: %v", attempt, err)
			return err
		}
		// Non-retryable: stop the loop and surface the error marked.
		permanent = &permanentError{err: err}
		return nil
	})

	if err == nil && permanent != nil {
		return permanent
	}
	return err
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.BearerToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, &retryableError{err: fmt.Errorf("gateway timeout: %w", err)}
		}
		return nil, &retryableError{err: fmt.Errorf("gateway request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("read gateway response: %w", err)}
	}

	if resp.StatusCode >= 500 {
		return nil, &retryableError{err: fmt.Errorf("gateway returned status %d", resp.StatusCode)}
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("gateway rejected request: status %d", resp.StatusCode)
	}

	return body, nil
}
