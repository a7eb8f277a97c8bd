package insights

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/alchemorsel/pantry/internal/domain/insight"
	"github.com/alchemorsel/pantry/internal/domain/measure"
	"github.com/alchemorsel/pantry/internal/infrastructure/monitoring"
	"github.com/alchemorsel/pantry/internal/ports/outbound"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultPriceDelay is the pause between consecutive price lookups.
const DefaultPriceDelay = 500 * time.Millisecond

// Enricher attaches a market price comparison to accepted purchases.
type Enricher struct {
	source  outbound.PriceSource
	delay   time.Duration
	metrics *monitoring.MetricsCollector
	logger  *zap.Logger
}

// NewEnricher creates an enricher. A nil source disables enrichment.
func NewEnricher(source outbound.PriceSource, delay time.Duration, metrics *monitoring.MetricsCollector, logger *zap.Logger) *Enricher {
	if delay < 0 {
		delay = 0
	}
	return &Enricher{
		source:  source,
		delay:   delay,
		metrics: metrics,
		logger:  logger.Named("price-enricher"),
	}
}

// Enrich looks up prices one allocation at a time with a fixed delay between
// calls. A failed lookup marks only that allocation unavailable; a cancelled
// context marks every remaining allocation unavailable.
func (e *Enricher) Enrich(ctx context.Context, allocations []insight.Allocation) {
	if e == nil || e.source == nil || len(allocations) == 0 {
		return
	}

	// One token, refilled every delay: the first call goes out immediately.
	limiter := rate.NewLimiter(rate.Every(e.delay), 1)
	if e.delay == 0 {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	for i := range allocations {
		a := &allocations[i]
		if err := limiter.Wait(ctx); err != nil {
			for j := i; j < len(allocations); j++ {
				allocations[j].Price = unavailable(err)
				e.metrics.PriceLookup(string(insight.PriceUnavailable))
			}
			e.logger.Warn("Price enrichment interrupted",
				zap.Int("remaining", len(allocations)-i),
				zap.Error(err),
			)
			return
		}

		quote, err := e.source.Quote(ctx, a.Name, a.Unit)
		if err != nil || quote == nil {
			if err == nil {
				err = errNoQuote
			}
			a.Price = unavailable(err)
			e.metrics.PriceLookup(string(insight.PriceUnavailable))
			e.logger.Debug("Price lookup failed",
				zap.String("item", a.Name),
				zap.Error(err),
			)
			continue
		}

		a.Price = &insight.PriceComparison{
			Status:      insight.PriceAvailable,
			Store:       quote.Store,
			MarketPrice: quote.UnitPrice,
			Savings:     measure.Round(math.Max(0, (a.UnitCost-quote.UnitPrice)*a.FinalQuantity), 2),
		}
		e.metrics.PriceLookup(string(insight.PriceAvailable))
	}
}

var errNoQuote = errors.New("no quote returned")

func unavailable(err error) *insight.PriceComparison {
	return &insight.PriceComparison{Status: insight.PriceUnavailable, Error: err.Error()}
}
