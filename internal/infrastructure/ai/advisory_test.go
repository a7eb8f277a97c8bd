package ai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alchemorsel/pantry/internal/domain/insight"
	"github.com/alchemorsel/pantry/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/pantry/internal/ports/outbound"
	"github.com/alchemorsel/pantry/pkg/healthcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: ` {"a":1} `, want: `{"a":1}`},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "inline fence", in: "```{\"a\":1}```", want: `{"a":1}`},
		{name: "empty", in: "  ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestDecode(t *testing.T) {
	t.Run("valid fenced reply", func(t *testing.T) {
		raw, err := Decode("test", insight.KindShopping, "```json\n{\"recommendations\":[]}\n```")
		require.NoError(t, err)
		assert.JSONEq(t, `{"recommendations":[]}`, string(raw))
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := Decode("test", insight.KindImpact, `{"scores":{}}`)
		var parseErr *outbound.AdvisoryParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, []string{"tips"}, parseErr.MissingKeys)
		assert.Equal(t, insight.KindImpact, parseErr.Kind)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := Decode("test", insight.KindPatterns, "Sure! Here are some insights.")
		assert.True(t, outbound.IsAdvisoryFailure(err))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Decode("test", insight.KindPatterns, "")
		assert.True(t, outbound.IsAdvisoryFailure(err))
	})
}

func TestSystemPrompt_ListsKeysAndAvoidedItems(t *testing.T) {
	req := outbound.AdvisoryRequest{
		Kind:         insight.KindShopping,
		RequiredKeys: insight.RequiredKeys(insight.KindShopping),
	}
	req.Profile.AvoidedIngredients = []string{"peanuts"}

	prompt := SystemPrompt(req)

	assert.Contains(t, prompt, "recommendations")
	assert.Contains(t, prompt, "Never suggest: peanuts.")
}

type countingAdvisor struct {
	calls   int
	payload string
	err     error
}

func (c *countingAdvisor) Name() string { return "counting" }

func (c *countingAdvisor) Advise(ctx context.Context, req outbound.AdvisoryRequest) (json.RawMessage, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return json.RawMessage(c.payload), nil
}

func TestCachingAdvisor(t *testing.T) {
	ctx := context.Background()
	req := outbound.AdvisoryRequest{Kind: insight.KindPatterns, Summary: "rice daily"}

	t.Run("second identical request is served from cache", func(t *testing.T) {
		next := &countingAdvisor{payload: `{"insights":[],"imbalances":[]}`}
		advisor := NewCachingAdvisor(next, memory.NewCacheRepository(), 0, nil, zaptest.NewLogger(t))

		first, err := advisor.Advise(ctx, req)
		require.NoError(t, err)
		second, err := advisor.Advise(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, 1, next.calls)
		assert.JSONEq(t, string(first), string(second))
	})

	t.Run("different summary misses", func(t *testing.T) {
		next := &countingAdvisor{payload: `{"insights":[],"imbalances":[]}`}
		advisor := NewCachingAdvisor(next, memory.NewCacheRepository(), 0, nil, zaptest.NewLogger(t))

		_, err := advisor.Advise(ctx, req)
		require.NoError(t, err)
		other := req
		other.Summary = "beans daily"
		_, err = advisor.Advise(ctx, other)
		require.NoError(t, err)

		assert.Equal(t, 2, next.calls)
	})

	t.Run("failures are not cached", func(t *testing.T) {
		next := &countingAdvisor{err: Unavailable("counting", 503, errors.New("down"))}
		advisor := NewCachingAdvisor(next, memory.NewCacheRepository(), 0, nil, zaptest.NewLogger(t))

		_, err := advisor.Advise(ctx, req)
		require.Error(t, err)
		_, err = advisor.Advise(ctx, req)
		require.Error(t, err)

		assert.Equal(t, 2, next.calls)
	})
}

type pingingAdvisor struct {
	countingAdvisor
	err error
}

func (p *pingingAdvisor) HealthCheck(ctx context.Context) error { return p.err }

func TestHealthChecker(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	t.Run("disabled without provider", func(t *testing.T) {
		status := NewHealthChecker(nil, logger).CheckHealth(ctx)
		assert.Equal(t, StatusDisabled, status.Status)
	})

	t.Run("probes through the cache wrapper", func(t *testing.T) {
		provider := &pingingAdvisor{err: errors.New("connection refused")}
		cached := NewCachingAdvisor(provider, memory.NewCacheRepository(), 0, nil, logger)

		status := NewHealthChecker(cached, logger).CheckHealth(ctx)

		assert.Equal(t, StatusDegraded, status.Status)
		assert.Equal(t, "counting", status.Provider)
		assert.Contains(t, status.Detail, "connection refused")
	})

	t.Run("healthy", func(t *testing.T) {
		status := NewHealthChecker(&pingingAdvisor{}, logger).CheckHealth(ctx)
		assert.Equal(t, StatusHealthy, status.Status)
	})

	t.Run("endpoint check never reports unhealthy", func(t *testing.T) {
		down := NewHealthChecker(&pingingAdvisor{err: errors.New("timeout")}, logger).Check(ctx)
		off := NewHealthChecker(nil, logger).Check(ctx)

		assert.Equal(t, healthcheck.StatusDegraded, down.Status)
		assert.Equal(t, healthcheck.StatusHealthy, off.Status)
	})
}
