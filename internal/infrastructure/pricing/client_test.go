package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestClient_Quote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/prices", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		switch r.URL.Query().Get("item") {
		case "Milk":
			assert.Equal(t, "l", r.URL.Query().Get("unit"))
			_, _ = w.Write([]byte(`{"item":"Milk","store":"Corner Shop","unit_price":1.2,"unit":"l"}`))
		case "Saffron":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL + "/", APIKey: "secret", Timeout: time.Second}, zaptest.NewLogger(t))
	fixed := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	client.now = func() time.Time { return fixed }
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		quote, err := client.Quote(ctx, "Milk", "l")
		require.NoError(t, err)
		assert.Equal(t, "Corner Shop", quote.Store)
		assert.Equal(t, 1.2, quote.UnitPrice)
		assert.Equal(t, fixed, quote.FetchedAt)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := client.Quote(ctx, "Saffron", "g")
		assert.ErrorIs(t, err, ErrNoPrice)
	})

	t.Run("upstream error", func(t *testing.T) {
		_, err := client.Quote(ctx, "Bread", "count")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoPrice)
	})
}
