// Package ai provides the Claude-backed chat completion client.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/LeeSpain/vision-sync-server/internal/circuitbreaker"
	"github.com/LeeSpain/vision-sync-server/internal/config"
)

const (
	messagesEndpoint = "https://api.anthropic.com/v1/messages"
	apiVersion       = "2023-06-01"
	maxReplyTokens   = 1024
)

// Message is a single turn sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest carries one completion call. APIKey and Model override the
// client defaults when set; stored admin settings take precedence over
// process configuration.
type ChatRequest struct {
	APIKey   string
	Model    string
	System   string
	Messages []Message
}

// ClaudeClient handles communication with the Anthropic messages API.
type ClaudeClient struct {
	apiKey         string
	model          string
	endpoint       string
	httpClient     *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	logger         *zap.Logger
}

// NewClaudeClient creates a new Claude client with a circuit breaker sized
// for an interactive chat workload.
func NewClaudeClient(cfg *config.AnthropicConfig, logger *zap.Logger) *ClaudeClient {
	cbConfig := &circuitbreaker.Config{
		FailureThreshold:    5,
		SuccessThreshold:    3,
		OpenTimeout:         30 * time.Second,
		HalfOpenMaxRequests: 3,
	}

	return &ClaudeClient{
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		endpoint: messagesEndpoint,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		circuitBreaker: circuitbreaker.New("claude-api", cbConfig, nil, logger),
		logger:         logger,
	}
}

// apiRequest is the wire format of a messages API call.
type apiRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

// apiResponse is the wire format of a messages API response.
type apiResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// apiError is the wire format of an error response.
type apiError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Chat sends the conversation to the model and returns the reply text.
func (c *ClaudeClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	var result string

	err := c.circuitBreaker.Execute(ctx, func(ctx context.Context) error {
		var execErr error
		result, execErr = c.doChat(ctx, req)
		return execErr
	})
	if err != nil {
		return "", err
	}

	return result, nil
}

// CircuitBreakerStats returns the current circuit breaker statistics.
func (c *ClaudeClient) CircuitBreakerStats() circuitbreaker.Stats {
	return c.circuitBreaker.Stats()
}

// IsCircuitOpen returns true if the circuit breaker is open.
func (c *ClaudeClient) IsCircuitOpen() bool {
	return c.circuitBreaker.IsOpen()
}

// ResetCircuitBreaker forces the breaker closed. Administrative use only.
func (c *ClaudeClient) ResetCircuitBreaker() {
	c.circuitBreaker.Reset()
}

func (c *ClaudeClient) doChat(ctx context.Context, req ChatRequest) (string, error) {
	apiKey := c.apiKey
	if req.APIKey != "" {
		apiKey = req.APIKey
	}
	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	body := apiRequest{
		Model:     model,
		MaxTokens: maxReplyTokens,
		System:    req.System,
		Messages:  req.Messages,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp apiError
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return "", fmt.Errorf("claude API error: %s - %s", errResp.Error.Type, errResp.Error.Message)
		}
		return "", fmt.Errorf("claude API error: status %d", resp.StatusCode)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("empty response from claude")
	}

	c.logger.Debug("chat completion generated",
		zap.String("model", apiResp.Model),
		zap.String("stop_reason", apiResp.StopReason),
		zap.Int("input_tokens", apiResp.Usage.InputTokens),
		zap.Int("output_tokens", apiResp.Usage.OutputTokens),
	)

	return apiResp.Content[0].Text, nil
}
