package insights

import (
	"context"
	stderrors "errors"

	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/alchemorsel/pantry/internal/domain/insight"
	"github.com/alchemorsel/pantry/internal/domain/measure"
	"github.com/alchemorsel/pantry/internal/ports/inbound"
	"github.com/alchemorsel/pantry/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InsightService implements the analysis use cases on top of the pipeline
// engine.
type InsightService struct {
	engine   *Engine
	enricher *Enricher
	logger   *zap.Logger
}

// NewInsightService creates a new insight service
func NewInsightService(engine *Engine, enricher *Enricher, logger *zap.Logger) inbound.InsightService {
	return &InsightService{
		engine:   engine,
		enricher: enricher,
		logger:   logger.Named("insight-service"),
	}
}

// PredictExpiration ranks expirable inventory by spoilage risk.
func (s *InsightService) PredictExpiration(ctx context.Context, userID uuid.UUID, windowDays int) (*insight.ExpirationReport, error) {
	report, err := Run(ctx, s.engine, newExpirationStrategy(), userID, windowDays)
	if err != nil {
		return nil, s.translate("predict expiration", userID, err)
	}
	return report, nil
}

// PredictNutrientGaps compares average intake with the profile targets.
func (s *InsightService) PredictNutrientGaps(ctx context.Context, userID uuid.UUID, windowDays int) (*insight.NutrientReport, error) {
	report, err := Run(ctx, s.engine, newNutrientStrategy(), userID, windowDays)
	if err != nil {
		return nil, s.translate("predict nutrient gaps", userID, err)
	}
	return report, nil
}

// AnalyzePatterns reports category frequency and diversity.
func (s *InsightService) AnalyzePatterns(ctx context.Context, userID uuid.UUID, windowDays int) (*insight.PatternReport, error) {
	report, err := Run(ctx, s.engine, newPatternStrategy(), userID, windowDays)
	if err != nil {
		return nil, s.translate("analyze patterns", userID, err)
	}
	return report, nil
}

// ScoreImpact estimates waste and sustainability scores.
func (s *InsightService) ScoreImpact(ctx context.Context, userID uuid.UUID, windowDays int) (*insight.ImpactReport, error) {
	report, err := Run(ctx, s.engine, newImpactStrategy(), userID, windowDays)
	if err != nil {
		return nil, s.translate("score impact", userID, err)
	}
	return report, nil
}

// OptimizeShopping builds a budget-constrained purchase plan. An empty
// horizon plans a month.
func (s *InsightService) OptimizeShopping(ctx context.Context, userID uuid.UUID, windowDays int, horizon food.BudgetPeriod) (*insight.ShoppingReport, error) {
	switch horizon {
	case "":
		horizon = food.BudgetMonthly
	case food.BudgetWeekly, food.BudgetMonthly:
	default:
		return nil, errors.NewValidationError("horizon must be weekly or monthly").
			WithMetadata("horizon", string(horizon))
	}

	strategy := newShoppingStrategy(horizon, s.enricher, s.engine.metrics)
	report, err := Run(ctx, s.engine, strategy, userID, windowDays)
	if err != nil {
		return nil, s.translate("optimize shopping", userID, err)
	}
	return report, nil
}

// translate maps the data-integrity failures that may escape a pipeline to
// application errors.
func (s *InsightService) translate(op string, userID uuid.UUID, err error) error {
	var unitErr *measure.UnknownUnitError
	switch {
	case stderrors.Is(err, food.ErrUserNotFound):
		return errors.NewUserNotFoundError(userID.String())
	case stderrors.As(err, &unitErr):
		return errors.NewUnknownUnitError(unitErr.Unit, err)
	case stderrors.Is(err, food.ErrInvalidBudgetSpan):
		return errors.NewValidationError(err.Error())
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewCancelledError(op, err)
	default:
		s.logger.Error("Analysis failed",
			zap.String("operation", op),
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return errors.NewDatabaseError(op, err)
	}
}
