package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alchemorsel/pantry/internal/domain/insight"
	"github.com/alchemorsel/pantry/internal/infrastructure/ai"
	"github.com/alchemorsel/pantry/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newRequest(kind insight.Kind) outbound.AdvisoryRequest {
	return outbound.AdvisoryRequest{
		Kind:         kind,
		Summary:      "Inventory: Milk 1.00 l expires in 1 day",
		Features:     map[string]int{"items": 1},
		RequiredKeys: insight.RequiredKeys(kind),
	}
}

func replyWith(t *testing.T, content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, ai.Temperature, req.Temperature)
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)
		require.Len(t, req.Messages, 2)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ChatCompletionResponse{
			Choices: []Choice{{Message: Message{Role: "assistant", Content: content}}},
		})
	}
}

func newTestClient(t *testing.T, url string, timeout time.Duration) *Client {
	return NewClient(ai.Config{BaseURL: url, APIKey: "test-key", Timeout: timeout}, nil, zaptest.NewLogger(t))
}

func TestClient_Advise(t *testing.T) {
	ctx := context.Background()

	t.Run("valid fenced reply", func(t *testing.T) {
		srv := httptest.NewServer(replyWith(t, "```json\n{\"predictions\":[],\"summary\":\"ok\"}\n```"))
		defer srv.Close()

		raw, err := newTestClient(t, srv.URL, time.Second).Advise(ctx, newRequest(insight.KindExpiration))

		require.NoError(t, err)
		assert.JSONEq(t, `{"predictions":[],"summary":"ok"}`, string(raw))
	})

	t.Run("missing keys is a parse error", func(t *testing.T) {
		srv := httptest.NewServer(replyWith(t, `{"predictions":[]}`))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL, time.Second).Advise(ctx, newRequest(insight.KindExpiration))

		var parseErr *outbound.AdvisoryParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, []string{"summary"}, parseErr.MissingKeys)
	})

	t.Run("server error is unavailable and not retried", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL, time.Second).Advise(ctx, newRequest(insight.KindImpact))

		var unavailable *outbound.AdvisoryUnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, http.StatusTooManyRequests, unavailable.StatusCode)
		assert.Equal(t, 1, calls)
	})

	t.Run("timeout is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL, 20*time.Millisecond).Advise(ctx, newRequest(insight.KindImpact))

		var unavailable *outbound.AdvisoryUnavailableError
		assert.ErrorAs(t, err, &unavailable)
	})

	t.Run("empty choices is a parse error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL, time.Second).Advise(ctx, newRequest(insight.KindImpact))

		var parseErr *outbound.AdvisoryParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, insight.KindImpact, parseErr.Kind)
		assert.Equal(t, providerName, parseErr.Provider)
	})

	t.Run("malformed body carries the analysis kind", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":`))
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL, time.Second).Advise(ctx, newRequest(insight.KindShopping))

		var parseErr *outbound.AdvisoryParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, insight.KindShopping, parseErr.Kind)
		assert.Contains(t, err.Error(), "advisory shopping reply")
	})
}

func TestClient_HealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := newTestClient(t, srv.URL, time.Second).HealthCheck(context.Background())

	assert.Error(t, err)
}
