// Package ollama provides an advisory service backed by a local Ollama server
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/alchemorsel/pantry/internal/domain/insight"
	"github.com/alchemorsel/pantry/internal/infrastructure/ai"
	"github.com/alchemorsel/pantry/internal/infrastructure/monitoring"
	"github.com/alchemorsel/pantry/internal/ports/outbound"
	"go.uber.org/zap"
)

const (
	providerName   = "ollama"
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "llama3.2:3b"
)

// Client implements outbound.AdvisoryService using Ollama's chat API
type Client struct {
	baseURL   string
	model     string
	maxTokens int
	client    *http.Client
	metrics   *monitoring.MetricsCollector
	logger    *zap.Logger
}

// NewClient creates a new Ollama client
func NewClient(cfg ai.Config, metrics *monitoring.MetricsCollector, logger *zap.Logger) *Client {
	cfg = cfg.WithDefaults(defaultBaseURL, defaultModel)
	logger = logger.Named("ollama")
	logger.Info("Ollama client configured",
		zap.String("base_url", cfg.BaseURL),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout))

	return &Client{
		baseURL:   cfg.BaseURL,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		client:    ai.NewHTTPClient(cfg.Timeout),
		metrics:   metrics,
		logger:    logger,
	}
}

var _ outbound.AdvisoryService = (*Client)(nil)

// Ollama API structures
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model    string                 `json:"model"`
	Messages []ChatMessage          `json:"messages"`
	Stream   bool                   `json:"stream"`
	Format   string                 `json:"format,omitempty"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type ChatResponse struct {
	Model         string      `json:"model"`
	Message       ChatMessage `json:"message"`
	Done          bool        `json:"done"`
	TotalDuration int64       `json:"total_duration,omitempty"`
	EvalCount     int         `json:"eval_count,omitempty"`
	EvalDuration  int64       `json:"eval_duration,omitempty"`
}

// Name returns the provider name
func (c *Client) Name() string { return providerName }

// HealthCheck checks if Ollama is reachable
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama health check failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama health check failed with status %d", resp.StatusCode)
	}
	return nil
}

// Advise makes a single non-streaming chat call in JSON mode
func (c *Client) Advise(ctx context.Context, req outbound.AdvisoryRequest) (json.RawMessage, error) {
	userPrompt, err := ai.UserPrompt(req)
	if err != nil {
		return nil, outbound.NewAdvisoryParseError(providerName, req.Kind, err)
	}

	start := time.Now()
	content, status, err := c.generateChatCompletion(ctx, req.Kind, ai.SystemPrompt(req), userPrompt)
	label := "error"
	if status != 0 {
		label = strconv.Itoa(status)
	}
	c.metrics.AdvisoryRequest(providerName, label, time.Since(start))
	if err != nil {
		return nil, err
	}
	return ai.Decode(providerName, req.Kind, content)
}

func (c *Client) generateChatCompletion(ctx context.Context, kind insight.Kind, systemPrompt, userPrompt string) (string, int, error) {
	reqBody := ChatRequest{
		Model: c.model,
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Stream: false,
		Format: "json",
		Options: map[string]interface{}{
			"temperature": ai.Temperature,
			"num_predict": c.maxTokens,
			"num_ctx":     4096,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", 0, ai.Unavailable(providerName, 0, fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return "", 0, ai.Unavailable(providerName, 0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", 0, ai.Unavailable(providerName, 0, fmt.Errorf("API request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, ai.Unavailable(providerName, 0, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", resp.StatusCode, ai.Unavailable(providerName, resp.StatusCode, fmt.Errorf("API error %d", resp.StatusCode))
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", resp.StatusCode, outbound.NewAdvisoryParseError(providerName, kind, fmt.Errorf("failed to unmarshal response: %w", err))
	}
	if !chatResp.Done {
		return "", resp.StatusCode, outbound.NewAdvisoryParseError(providerName, kind, errors.New("incomplete response from Ollama"))
	}

	c.logger.Debug("Ollama chat completion successful",
		zap.String("model", chatResp.Model),
		zap.Int64("eval_duration", chatResp.EvalDuration),
		zap.Int("eval_count", chatResp.EvalCount))

	return chatResp.Message.Content, resp.StatusCode, nil
}
