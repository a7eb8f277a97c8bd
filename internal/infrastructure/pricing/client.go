// Package pricing implements the price comparison collaborator over HTTP
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alchemorsel/pantry/internal/ports/outbound"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// ErrNoPrice is returned when the source has no quote for an item
var ErrNoPrice = errors.New("no price for item")

// Config configures the price source client
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client queries a price comparison API. One call per item.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	now     func() time.Time
	logger  *zap.Logger
}

// NewClient creates a new price source client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		now:    time.Now,
		logger: logger.Named("pricing"),
	}
}

var _ outbound.PriceSource = (*Client)(nil)

type quoteResponse struct {
	Item      string    `json:"item"`
	Store     string    `json:"store"`
	UnitPrice float64   `json:"unit_price"`
	Unit      string    `json:"unit"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Quote fetches the best current price for item in unit
func (c *Client) Quote(ctx context.Context, item, unit string) (*outbound.PriceQuote, error) {
	q := url.Values{}
	q.Set("item", item)
	q.Set("unit", unit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/prices?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %s", ErrNoPrice, item)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("price API error %d", resp.StatusCode)
	}

	var body quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode price response: %w", err)
	}
	if body.UnitPrice <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPrice, item)
	}

	quote := &outbound.PriceQuote{
		Item:      body.Item,
		Store:     body.Store,
		UnitPrice: body.UnitPrice,
		Unit:      body.Unit,
		FetchedAt: body.FetchedAt,
	}
	if quote.Item == "" {
		quote.Item = item
	}
	if quote.Unit == "" {
		quote.Unit = unit
	}
	if quote.FetchedAt.IsZero() {
		quote.FetchedAt = c.now()
	}

	c.logger.Debug("Price quote received",
		zap.String("item", item),
		zap.String("store", quote.Store),
		zap.Float64("unit_price", quote.UnitPrice))
	return quote, nil
}
