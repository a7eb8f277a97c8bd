// Package ai holds what the advisory provider adapters share: prompt
// construction, reply validation, the HTTP transport and a response cache.
package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alchemorsel/pantry/internal/domain/insight"
	"github.com/alchemorsel/pantry/internal/ports/outbound"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Temperature is fixed low so replies lean deterministic.
const Temperature = 0.2

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 20 * time.Second

// Config configures one provider client.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	Timeout   time.Duration
	MaxTokens int
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults(baseURL, model string) Config {
	if c.BaseURL == "" {
		c.BaseURL = baseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Model == "" {
		c.Model = model
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1500
	}
	return c
}

// NewHTTPClient returns a traced client with a hard timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// StripFences removes a markdown code fence around the payload, with or
// without a language tag. Text outside a fence is returned trimmed.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// Drop the language tag line, e.g. ```json
		if tag := strings.TrimSpace(s[:nl]); !strings.ContainsAny(tag, "{[") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Decode strips fences and checks the reply against the schema for kind.
// Every failure is an *outbound.AdvisoryParseError.
func Decode(provider string, kind insight.Kind, content string) (json.RawMessage, error) {
	body := StripFences(content)
	if body == "" {
		return nil, outbound.NewAdvisoryParseError(provider, kind, errors.New("empty reply"))
	}
	if err := insight.CheckSchema(kind, []byte(body)); err != nil {
		return nil, outbound.NewAdvisoryParseError(provider, kind, err)
	}
	return json.RawMessage(body), nil
}

// Unavailable wraps a transport failure or non-2xx status.
func Unavailable(provider string, status int, err error) error {
	return &outbound.AdvisoryUnavailableError{Provider: provider, StatusCode: status, Err: err}
}

// SystemPrompt tells the model which JSON object to return.
func SystemPrompt(req outbound.AdvisoryRequest) string {
	var b strings.Builder
	b.WriteString("You are a household food analyst. Respond with ONLY a valid JSON object, no explanatory text.\n")
	fmt.Fprintf(&b, "The object must contain these top-level keys: %s.\n", strings.Join(req.RequiredKeys, ", "))
	if hint, ok := schemaHints[req.Kind]; ok {
		b.WriteString("Shape:\n")
		b.WriteString(hint)
		b.WriteByte('\n')
	}
	if len(req.Profile.DietaryRestrictions) > 0 {
		fmt.Fprintf(&b, "Dietary restrictions: %s.\n", strings.Join(req.Profile.DietaryRestrictions, ", "))
	}
	if len(req.Profile.AvoidedIngredients) > 0 {
		fmt.Fprintf(&b, "Never suggest: %s.\n", strings.Join(req.Profile.AvoidedIngredients, ", "))
	}
	return b.String()
}

// UserPrompt carries the summary and the derived features.
func UserPrompt(req outbound.AdvisoryRequest) (string, error) {
	features, err := json.Marshal(req.Features)
	if err != nil {
		return "", fmt.Errorf("failed to marshal features: %w", err)
	}
	var b strings.Builder
	b.WriteString(req.Summary)
	b.WriteString("\nDerived features (JSON):\n")
	b.Write(features)
	return b.String(), nil
}

var schemaHints = map[insight.Kind]string{
	insight.KindExpiration: `{"predictions":[{"item_name":"","risk_score":0,"risk_tier":"critical|high|medium|low","urgency":"high|medium|low","recommendation":""}],"summary":""}`,
	insight.KindNutrients:  `{"gaps":[{"nutrient":"","deficiency_pct":0,"severity":"optimal|mild|moderate|severe","note":""}],"recommendations":[{"name":"","category":"","nutrients":[""],"reason":""}]}`,
	insight.KindPatterns:   `{"insights":[""],"imbalances":[{"category":"","severity":"","note":""}]}`,
	insight.KindImpact:     `{"scores":{"sustainability":0,"sdg2_zero_hunger":0,"sdg12_responsible_consumption":0,"sdg13_climate_action":0},"tips":[""]}`,
	insight.KindShopping:   `{"recommendations":[{"name":"","category":"","quantity":0,"unit":"","unit_cost":0,"urgency":"high|medium|low","reason":""}]}`,
}
