package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"ai-researcher-be/pkg/llm"
)

type OllamaProvider struct {
	BaseURL   string
	ModelName string
	Client    *http.Client
}

// Ensure OllamaProvider implements LLMProvider
var _ llm.LLMProvider = &OllamaProvider{}

func NewOllamaProvider(baseURL, modelName string) *OllamaProvider {
	return &OllamaProvider{
		BaseURL:   baseURL,
		ModelName: modelName,
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

// --- Interface Implementation ---

func (o *OllamaProvider) Name() string {
	return "ollama"
}

func (o *OllamaProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (*llm.Completion, error) {
	reqPayload := o.buildRequest(history, false, opts...)

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, llm.NewProviderError(o.Name(), llm.ErrKindBadRequest, "marshal request", err)
	}

	url := o.BaseURL + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, llm.NewProviderError(o.Name(), llm.ErrKindBadRequest, "create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, o.classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, o.classifyStatus(resp.StatusCode, string(body))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, llm.NewProviderError(o.Name(), llm.ErrKindUnknown, "decode response", err)
	}

	return &llm.Completion{
		Text:  chatResp.Message.Content,
		Usage: usageFrom(chatResp),
	}, nil
}

func (o *OllamaProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (*llm.Completion, error) {
	return o.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func (o *OllamaProvider) ChatStream(ctx context.Context, history []llm.Message, onChunk func(llm.StreamChunk) error, opts ...llm.Option) error {
	reqPayload := o.buildRequest(history, true, opts...)

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return llm.NewProviderError(o.Name(), llm.ErrKindBadRequest, "marshal request", err)
	}

	url := o.BaseURL + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return llm.NewProviderError(o.Name(), llm.ErrKindBadRequest, "create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return o.classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return o.classifyStatus(resp.StatusCode, string(body))
	}

	// Ollama streams newline-delimited JSON objects
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		var part ollamaChatResponse
		if err := json.Unmarshal(scanner.Bytes(), &part); err != nil {
			continue // skip malformed keepalive lines
		}

		chunk := llm.StreamChunk{Text: part.Message.Content, Done: part.Done}
		if part.Done {
			chunk.Usage = usageFrom(part)
		}
		if err := onChunk(chunk); err != nil {
			return err
		}
		if part.Done {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return o.classifyTransportError(err)
	}
	return nil
}

func (o *OllamaProvider) buildRequest(history []llm.Message, stream bool, opts ...llm.Option) ollamaChatRequest {
	options := &llm.Options{
		Temperature: 0.7, // Default
	}
	for _, opt := range opts {
		opt(options)
	}

	ollamaMessages := make([]ollamaMessage, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = "assistant"
		}
		ollamaMessages[i] = ollamaMessage{
			Role:    role,
			Content: msg.Content,
		}
	}

	model := o.ModelName
	if options.Model != "" {
		model = options.Model
	}

	reqPayload := ollamaChatRequest{
		Model:    model,
		Messages: ollamaMessages,
		Stream:   stream,
		Options: &ollamaOptions{
			Temperature: options.Temperature,
		},
	}

	if options.MaxTokens > 0 {
		reqPayload.Options.NumPredict = options.MaxTokens
	}

	return reqPayload
}

func (o *OllamaProvider) classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return llm.NewProviderError(o.Name(), llm.ErrKindTimeout, "request timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return llm.NewProviderError(o.Name(), llm.ErrKindTimeout, "request canceled", err)
	}
	return llm.NewProviderError(o.Name(), llm.ErrKindConnection, "ollama request failed", err)
}

func (o *OllamaProvider) classifyStatus(status int, body string) error {
	msg := fmt.Sprintf("ollama returned status %d: %s", status, truncate(body, 200))
	switch {
	case status == http.StatusTooManyRequests:
		return llm.NewProviderError(o.Name(), llm.ErrKindRateLimit, msg, nil)
	case status >= 500:
		return llm.NewProviderError(o.Name(), llm.ErrKindServer, msg, nil)
	case status >= 400:
		return llm.NewProviderError(o.Name(), llm.ErrKindBadRequest, msg, nil)
	default:
		return llm.NewProviderError(o.Name(), llm.ErrKindUnknown, msg, nil)
	}
}

func usageFrom(resp ollamaChatResponse) *llm.TokenUsage {
	if resp.PromptEvalCount == 0 && resp.EvalCount == 0 {
		return nil
	}
	return &llm.TokenUsage{
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
