package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/alchemorsel/pantry/internal/ports/outbound"
	"github.com/alchemorsel/pantry/pkg/healthcheck"
	"go.uber.org/zap"
)

// Pinger is implemented by providers that can be probed without spending tokens
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// Health states reported for the advisory provider
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
	StatusDisabled = "disabled"
)

const healthTimeout = 5 * time.Second

// HealthStatus is the advisory section of the health response
type HealthStatus struct {
	Status    string    `json:"status"`
	Provider  string    `json:"provider"`
	Detail    string    `json:"detail,omitempty"`
	LastCheck time.Time `json:"last_check"`
}

// HealthChecker probes the configured advisory provider. An unreachable
// provider degrades insights to heuristics, so it never marks the service down.
type HealthChecker struct {
	service outbound.AdvisoryService
	logger  *zap.Logger
}

// NewHealthChecker creates a checker; service may be nil when advisory is off
func NewHealthChecker(service outbound.AdvisoryService, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		service: service,
		logger:  logger.Named("advisory-health"),
	}
}

// CheckHealth probes the provider once
func (h *HealthChecker) CheckHealth(ctx context.Context) *HealthStatus {
	status := &HealthStatus{LastCheck: time.Now()}
	if h.service == nil {
		status.Status = StatusDisabled
		status.Provider = "none"
		return status
	}
	status.Provider = h.service.Name()

	pinger, ok := pingerFor(h.service)
	if !ok {
		status.Status = StatusHealthy
		return status
	}

	healthCtx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	if err := pinger.HealthCheck(healthCtx); err != nil {
		status.Status = StatusDegraded
		status.Detail = fmt.Sprintf("unreachable: %v", err)
		h.logger.Warn("Advisory provider health check failed",
			zap.String("provider", status.Provider),
			zap.Error(err))
		return status
	}
	status.Status = StatusHealthy
	return status
}

// Check adapts CheckHealth to the service health endpoint
func (h *HealthChecker) Check(ctx context.Context) healthcheck.Check {
	start := time.Now()
	status := h.CheckHealth(ctx)

	check := healthcheck.Check{
		Status:      healthcheck.StatusHealthy,
		Message:     status.Detail,
		LastChecked: status.LastCheck,
		Duration:    time.Since(start),
		Metadata:    map[string]interface{}{"provider": status.Provider, "state": status.Status},
	}
	if status.Status == StatusDegraded {
		check.Status = healthcheck.StatusDegraded
	}
	return check
}

// wrapper is implemented by decorators such as CachingAdvisor
type wrapper interface {
	Unwrap() outbound.AdvisoryService
}

func pingerFor(s outbound.AdvisoryService) (Pinger, bool) {
	for s != nil {
		if p, ok := s.(Pinger); ok {
			return p, true
		}
		u, ok := s.(wrapper)
		if !ok {
			return nil, false
		}
		s = u.Unwrap()
	}
	return nil, false
}
