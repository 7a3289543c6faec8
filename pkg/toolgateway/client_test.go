package toolgateway

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-researcher-be/pkg/resilience"
)

func testConfig(baseURL string) Config {
	cfg := DefaultConfig(baseURL)
	cfg.MaxRetryAttempts = 2
	cfg.Breaker = resilience.CircuitBreakerConfig{FailureThreshold: 2, RecoveryTimeout: time.Minute}
	return cfg
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestListToolsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/tools", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tools":[{"name":"web_search","description":"Search the web"}]}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), quietLogger())
	result := client.ListTools(context.Background())

	require.Equal(t, StatusOK, result.Status)
	require.Len(t, result.Tools, 1)
	assert.Equal(t, "web_search", result.Tools[0].Name)
}

func TestInvokeToolSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/api/v1/tools/web_search/invoke", r.URL.Path)
		_, _ = w.Write([]byte(`{"result":"two pages found"}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.BearerToken = "secret-token"
	client := NewClient(cfg, quietLogger())

	result := client.InvokeTool(context.Background(), "web_search", map[string]interface{}{"q": "golang"})

	require.Equal(t, StatusOK, result.Status)
	assert.Equal(t, "two pages found", result.Output["result"])
	assert.Equal(t, "Bearer secret-token", gotAuth)
}

func TestInvokeToolRetriesOn5xxThenDegrades(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), quietLogger())
	result := client.InvokeTool(context.Background(), "web_search", nil)

	assert.Equal(t, StatusDegraded, result.Status)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "all retry attempts should hit the server")
	assert.Equal(t, 1, client.Breaker().FailureCount(), "exhausted retries count as one breaker failure")
}

func TestInvokeToolCircuitOpenSkipsNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), quietLogger())

	// Two degraded invocations trip the threshold-2 breaker
	client.InvokeTool(context.Background(), "web_search", nil)
	client.InvokeTool(context.Background(), "web_search", nil)
	require.Equal(t, resilience.CircuitOpen, client.Breaker().CheckState())

	before := atomic.LoadInt32(&calls)
	result := client.InvokeTool(context.Background(), "web_search", nil)

	assert.Equal(t, StatusCircuitOpen, result.Status)
	assert.Equal(t, before, atomic.LoadInt32(&calls), "open circuit must not attempt network calls")
}

func TestInvokeTool4xxDoesNotRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), quietLogger())
	result := client.InvokeTool(context.Background(), "missing_tool", nil)

	assert.Equal(t, StatusDegraded, result.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "client errors are not retryable")
	assert.Equal(t, 0, client.Breaker().FailureCount(), "client errors must not trip the breaker")
}

func TestInvokeToolRepeated4xxKeepsCircuitClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), quietLogger())

	// Threshold is 2; a healthy gateway rejecting bad requests stays reachable.
	for i := 0; i < 5; i++ {
		result := client.InvokeTool(context.Background(), "missing_tool", nil)
		assert.Equal(t, StatusDegraded, result.Status)
	}

	assert.Equal(t, resilience.CircuitClosed, client.Breaker().CheckState())
	assert.Equal(t, 0, client.Breaker().FailureCount())
}

func TestHealthCheckDoesNotTouchBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), quietLogger())

	err := client.HealthCheck(context.Background())
	assert.Error(t, err)
	assert.Equal(t, resilience.CircuitClosed, client.Breaker().CheckState())
	assert.Equal(t, 0, client.Breaker().FailureCount())
}

func TestHealthCheckOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), quietLogger())
	assert.NoError(t, client.HealthCheck(context.Background()))
}
