package healthcheck

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticChecker struct {
	status Status
	calls  int
}

func (s *staticChecker) Check(ctx context.Context) Check {
	s.calls++
	return Check{Status: s.status, LastChecked: time.Now()}
}

func TestNew(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())

	assert.NotNil(t, hc.checkers)
	assert.Equal(t, 5*time.Second, hc.cacheTTL)
	assert.Equal(t, 5*time.Second, hc.checkTimeout)
}

func TestHealthCheck_Check(t *testing.T) {
	t.Run("NoCheckers_ShouldBeHealthy", func(t *testing.T) {
		response := New("1.0.0", zap.NewNop()).Check(context.Background())

		assert.Equal(t, StatusHealthy, response.Status)
		assert.Empty(t, response.Checks)
	})

	t.Run("DegradedChecker_ShouldDegradeOverall", func(t *testing.T) {
		hc := New("1.0.0", zap.NewNop())
		hc.Register("store", &staticChecker{status: StatusHealthy})
		hc.Register("advisory", &staticChecker{status: StatusDegraded})

		response := hc.Check(context.Background())

		assert.Equal(t, StatusDegraded, response.Status)
		assert.Len(t, response.Checks, 2)
	})

	t.Run("UnhealthyChecker_ShouldWin", func(t *testing.T) {
		hc := New("1.0.0", zap.NewNop())
		hc.Register("advisory", &staticChecker{status: StatusDegraded})
		hc.Register("store", &staticChecker{status: StatusUnhealthy})

		assert.Equal(t, StatusUnhealthy, hc.Check(context.Background()).Status)
	})

	t.Run("SecondCall_ShouldUseCache", func(t *testing.T) {
		hc := New("1.0.0", zap.NewNop())
		checker := &staticChecker{status: StatusHealthy}
		hc.Register("store", checker)

		hc.Check(context.Background())
		hc.Check(context.Background())

		assert.Equal(t, 1, checker.calls)
	})
}

func TestPingChecker(t *testing.T) {
	ok := NewPingChecker(func(ctx context.Context) error { return nil }).Check(context.Background())
	failed := NewPingChecker(func(ctx context.Context) error { return errors.New("refused") }).Check(context.Background())

	assert.Equal(t, StatusHealthy, ok.Status)
	assert.Equal(t, StatusUnhealthy, failed.Status)
	assert.Equal(t, "refused", failed.Message)
}

func TestOptionalChecker(t *testing.T) {
	t.Run("UnhealthyOptional_ShouldOnlyDegrade", func(t *testing.T) {
		hc := New("1.0.0", zap.NewNop())
		hc.Register("store", &staticChecker{status: StatusHealthy})
		hc.RegisterOptional("redis", NewPingChecker(func(ctx context.Context) error { return errors.New("dial tcp: refused") }))

		response := hc.Check(context.Background())

		assert.Equal(t, StatusDegraded, response.Status)
		require.Len(t, response.Checks, 2)
		assert.Equal(t, "redis", response.Checks[0].Name)
		assert.True(t, response.Checks[0].Optional)
		assert.Equal(t, StatusDegraded, response.Checks[0].Status)
		assert.Equal(t, "store", response.Checks[1].Name)
	})

	t.Run("Register_ShouldInvalidateCache", func(t *testing.T) {
		hc := New("1.0.0", zap.NewNop())
		hc.Register("store", &staticChecker{status: StatusHealthy})
		assert.Equal(t, StatusHealthy, hc.Check(context.Background()).Status)

		hc.Register("advisory", &staticChecker{status: StatusUnhealthy})

		assert.Equal(t, StatusUnhealthy, hc.Check(context.Background()).Status)
	})
}

func TestCheckTimeout(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())
	hc.SetCheckTimeout(20 * time.Millisecond)
	hc.Register("slow", CheckerFunc(func(ctx context.Context) Check {
		<-ctx.Done()
		return Check{Status: StatusUnhealthy, Message: ctx.Err().Error()}
	}))

	response := hc.Check(context.Background())

	assert.Equal(t, StatusUnhealthy, response.Status)
	assert.Equal(t, context.DeadlineExceeded.Error(), response.Checks[0].Message)
}

func TestHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(status Status) *gin.Engine {
		hc := New("1.0.0", zap.NewNop())
		hc.Register("store", &staticChecker{status: status})
		r := gin.New()
		r.GET("/health", hc.Handler())
		r.GET("/ready", hc.ReadinessHandler())
		r.GET("/live", hc.LivenessHandler())
		return r
	}

	cases := []struct {
		name   string
		status Status
		path   string
		want   int
	}{
		{"Health_Healthy", StatusHealthy, "/health", http.StatusOK},
		{"Health_Unhealthy", StatusUnhealthy, "/health", http.StatusServiceUnavailable},
		{"Ready_Degraded", StatusDegraded, "/ready", http.StatusOK},
		{"Health_Degraded", StatusDegraded, "/health", http.StatusOK},
		{"Ready_Unhealthy", StatusUnhealthy, "/ready", http.StatusServiceUnavailable},
		{"Live_Unhealthy", StatusUnhealthy, "/live", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newRouter(tc.status).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))

			assert.Equal(t, tc.want, w.Code)
		})
	}

	t.Run("Health_ShouldEncodeDurationsInMillis", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter(StatusHealthy).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Contains(t, body, "total_duration_ms")
		assert.Equal(t, "healthy", body["status"])
	})
}
