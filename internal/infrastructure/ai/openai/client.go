// Package openai provides an advisory service backed by an OpenAI-compatible
// chat completions API
package openai

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
	providerName   = "openai"
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
)

// Client implements outbound.AdvisoryService using the chat completions API
type Client struct {
	cfg     ai.Config
	client  *http.Client
	metrics *monitoring.MetricsCollector
	logger  *zap.Logger
}

// NewClient creates a new OpenAI client
func NewClient(cfg ai.Config, metrics *monitoring.MetricsCollector, logger *zap.Logger) *Client {
	cfg = cfg.WithDefaults(defaultBaseURL, defaultModel)
	logger = logger.Named("openai")
	if cfg.APIKey == "" {
		logger.Warn("OpenAI API key not set, requests will likely be rejected")
	}
	return &Client{
		cfg:     cfg,
		client:  ai.NewHTTPClient(cfg.Timeout),
		metrics: metrics,
		logger:  logger,
	}
}

var _ outbound.AdvisoryService = (*Client)(nil)

// OpenAI API structures
type ChatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionResponse struct {
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Name returns the provider name
func (c *Client) Name() string { return providerName }

// Advise makes a single chat completion call and validates the reply
func (c *Client) Advise(ctx context.Context, req outbound.AdvisoryRequest) (json.RawMessage, error) {
	userPrompt, err := ai.UserPrompt(req)
	if err != nil {
		return nil, outbound.NewAdvisoryParseError(providerName, req.Kind, err)
	}

	start := time.Now()
	content, status, err := c.callOpenAI(ctx, req.Kind, ai.SystemPrompt(req), userPrompt)
	c.metrics.AdvisoryRequest(providerName, statusLabel(status, err), time.Since(start))
	if err != nil {
		return nil, err
	}
	return ai.Decode(providerName, req.Kind, content)
}

// HealthCheck lists models, which costs no tokens
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openai health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) callOpenAI(ctx context.Context, kind insight.Kind, systemPrompt, userPrompt string) (string, int, error) {
	reqBody := ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    ai.Temperature,
		MaxTokens:      c.cfg.MaxTokens,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", 0, ai.Unavailable(providerName, 0, fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", 0, ai.Unavailable(providerName, 0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

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
		c.logger.Warn("OpenAI API returned error status",
			zap.Int("status", resp.StatusCode),
			zap.Int("body_bytes", len(body)))
		return "", resp.StatusCode, ai.Unavailable(providerName, resp.StatusCode, fmt.Errorf("API error %d", resp.StatusCode))
	}

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", resp.StatusCode, outbound.NewAdvisoryParseError(providerName, kind, fmt.Errorf("failed to unmarshal response: %w", err))
	}
	if len(chatResp.Choices) == 0 {
		return "", resp.StatusCode, outbound.NewAdvisoryParseError(providerName, kind, errors.New("no response choices returned"))
	}

	c.logger.Debug("OpenAI API call successful",
		zap.Int("prompt_tokens", chatResp.Usage.PromptTokens),
		zap.Int("completion_tokens", chatResp.Usage.CompletionTokens),
		zap.Int("total_tokens", chatResp.Usage.TotalTokens),
	)

	return chatResp.Choices[0].Message.Content, resp.StatusCode, nil
}

func statusLabel(status int, err error) string {
	if status != 0 {
		return strconv.Itoa(status)
	}
	if err != nil {
		return "error"
	}
	return "ok"
}
