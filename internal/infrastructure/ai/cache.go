package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/alchemorsel/pantry/internal/infrastructure/monitoring"
	"github.com/alchemorsel/pantry/internal/ports/outbound"
	"go.uber.org/zap"
)

// DefaultCacheTTL is how long a validated advisory reply is reused
const DefaultCacheTTL = 6 * time.Hour

const cacheKeyPrefix = "advisory:"

// CachingAdvisor wraps an advisory service with a response cache keyed by
// the request content. Only validated replies are stored, and cache errors
// never fail a request.
type CachingAdvisor struct {
	next    outbound.AdvisoryService
	cache   outbound.CacheRepository
	ttl     time.Duration
	metrics *monitoring.MetricsCollector
	logger  *zap.Logger
}

// NewCachingAdvisor creates a cached advisory service
func NewCachingAdvisor(next outbound.AdvisoryService, cache outbound.CacheRepository, ttl time.Duration, metrics *monitoring.MetricsCollector, logger *zap.Logger) *CachingAdvisor {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachingAdvisor{
		next:    next,
		cache:   cache,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger.Named("advisory-cache"),
	}
}

// Name reports the wrapped provider
func (c *CachingAdvisor) Name() string {
	return c.next.Name()
}

// Unwrap exposes the wrapped provider for health checks
func (c *CachingAdvisor) Unwrap() outbound.AdvisoryService {
	return c.next
}

// Advise serves from cache when possible and stores fresh replies
func (c *CachingAdvisor) Advise(ctx context.Context, req outbound.AdvisoryRequest) (json.RawMessage, error) {
	key, err := CacheKey(c.next.Name(), req)
	if err != nil {
		c.logger.Debug("Skipping cache for unkeyable request", zap.Error(err))
		return c.next.Advise(ctx, req)
	}

	if cached, err := c.cache.Get(ctx, key); err == nil && len(cached) > 0 {
		c.metrics.CacheLookup("hit")
		return json.RawMessage(cached), nil
	}
	c.metrics.CacheLookup("miss")

	payload, err := c.next.Advise(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, payload, c.ttl); err != nil {
		c.metrics.CacheLookup("error")
		c.logger.Warn("Failed to cache advisory reply",
			zap.String("kind", string(req.Kind)),
			zap.Error(err))
	}
	return payload, nil
}

// CacheKey hashes the provider name and the full request
func CacheKey(provider string, req outbound.AdvisoryRequest) (string, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.New()
	sum.Write([]byte(provider))
	sum.Write([]byte{0})
	sum.Write(raw)
	return cacheKeyPrefix + string(req.Kind) + ":" + hex.EncodeToString(sum.Sum(nil)), nil
}
