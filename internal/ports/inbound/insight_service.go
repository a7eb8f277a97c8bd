// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"

	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/alchemorsel/pantry/internal/domain/insight"
	"github.com/google/uuid"
)

// InsightService defines the five analysis use cases.
// HTTP handlers and other driving adapters call exactly one method per request.
// A windowDays of zero selects the pipeline's default window; other values
// are clamped into the pipeline's bounds.
type InsightService interface {
	PredictExpiration(ctx context.Context, userID uuid.UUID, windowDays int) (*insight.ExpirationReport, error)
	PredictNutrientGaps(ctx context.Context, userID uuid.UUID, windowDays int) (*insight.NutrientReport, error)
	AnalyzePatterns(ctx context.Context, userID uuid.UUID, windowDays int) (*insight.PatternReport, error)
	ScoreImpact(ctx context.Context, userID uuid.UUID, windowDays int) (*insight.ImpactReport, error)
	OptimizeShopping(ctx context.Context, userID uuid.UUID, windowDays int, horizon food.BudgetPeriod) (*insight.ShoppingReport, error)
}
