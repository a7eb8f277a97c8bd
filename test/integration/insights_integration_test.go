//go:build integration
// +build integration

package integration

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alchemorsel/pantry/internal/application/insights"
	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/alchemorsel/pantry/internal/domain/insight"
	"github.com/alchemorsel/pantry/internal/infrastructure/ai"
	gormstore "github.com/alchemorsel/pantry/internal/infrastructure/persistence/gorm"
	redisstore "github.com/alchemorsel/pantry/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/pantry/internal/ports/inbound"
	"github.com/alchemorsel/pantry/internal/ports/outbound"
	apperrors "github.com/alchemorsel/pantry/pkg/errors"
	"github.com/alchemorsel/pantry/test/testutils"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// InsightsIntegrationTestSuite runs every pipeline against PostgreSQL
type InsightsIntegrationTestSuite struct {
	suite.Suite
	db       *testutils.TestDatabase
	repo     *gormstore.FoodRepository
	advisory *testutils.MockAdvisoryService
	service  inbound.InsightService
	factory  *testutils.FoodFactory
	logger   *zap.Logger
	now      time.Time
	ctx      context.Context
}

func (s *InsightsIntegrationTestSuite) SetupSuite() {
	if testing.Short() {
		s.T().Skip("Skipping integration tests in short mode")
	}
	s.ctx = context.Background()
	s.logger = zaptest.NewLogger(s.T())
	s.db = testutils.SetupTestDatabase(s.T())
	s.repo = gormstore.NewFoodRepository(s.db.Manager.GetDB(), s.logger)
}

func (s *InsightsIntegrationTestSuite) SetupTest() {
	s.db.Truncate(s.T())
	s.now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	s.factory = testutils.NewFoodFactory(42, s.now)
	s.advisory = &testutils.MockAdvisoryService{}

	aggregator := insights.NewAggregator(s.repo, insights.NewTableStore(food.DefaultCategoryTable()), 50, nil, s.logger)
	engine := insights.NewEngine(aggregator, s.advisory, s.logger,
		insights.WithClock(func() time.Time { return s.now }),
		insights.WithAdvisoryTimeout(time.Second),
	)
	s.service = insights.NewInsightService(engine, insights.NewEnricher(nil, 0, nil, s.logger), s.logger)
}

func (s *InsightsIntegrationTestSuite) seedHousehold() *testutils.Household {
	h := s.factory.Household(8, 10)
	s.Require().NoError(s.repo.SaveProfile(s.ctx, h.Profile))
	for _, r := range h.Inventory {
		s.Require().NoError(s.repo.SaveInventory(s.ctx, r))
	}
	for _, e := range h.Consumption {
		s.Require().NoError(s.repo.LogConsumption(s.ctx, e))
	}
	s.Require().NoError(s.repo.SaveCatalog(s.ctx, s.factory.Catalog(20)))
	return h
}

func (s *InsightsIntegrationTestSuite) advisoryDown() {
	s.advisory.On("Advise", mock.Anything, mock.Anything).
		Return(nil, &outbound.AdvisoryUnavailableError{Provider: "mock", Err: errors.New("connection refused")})
}

func (s *InsightsIntegrationTestSuite) TestExpiration_FallsBackWhenAdvisoryIsDown() {
	s.Run("Expiration_ShouldRankPersistedInventoryWithoutAdvisory", func() {
		// Arrange
		h := s.seedHousehold()
		s.advisoryDown()

		// Act
		report, err := s.service.PredictExpiration(s.ctx, h.Profile.UserID, 0)

		// Assert
		s.Require().NoError(err)
		s.Equal(insight.SourceFallback, report.Source)
		s.Equal(h.Profile.UserID, report.UserID)
		s.NotEmpty(report.Items)
		for i := 1; i < len(report.Items); i++ {
			s.GreaterOrEqual(report.Items[i-1].Score, report.Items[i].Score)
		}
		s.advisory.AssertNumberOfCalls(s.T(), "Advise", 1)
	})
}

func (s *InsightsIntegrationTestSuite) TestNutrients_CountsDistinctDays() {
	s.Run("Nutrients_ShouldAverageOverLoggedDays", func() {
		// Arrange
		h := s.seedHousehold()
		s.advisoryDown()
		days := map[string]bool{}
		for _, e := range h.Consumption {
			days[e.DayKey()] = true
		}

		// Act
		report, err := s.service.PredictNutrientGaps(s.ctx, h.Profile.UserID, 30)

		// Assert
		s.Require().NoError(err)
		s.Equal(len(days), report.DaysLogged)
		s.Equal(insight.SourceFallback, report.Source)
		s.GreaterOrEqual(report.Score, 0.0)
		s.LessOrEqual(report.Score, 100.0)
	})
}

func (s *InsightsIntegrationTestSuite) TestPatternsAndImpact() {
	s.Run("Patterns_ShouldReportDiversityInRange", func() {
		// Arrange
		h := s.seedHousehold()
		s.advisoryDown()

		// Act
		report, err := s.service.AnalyzePatterns(s.ctx, h.Profile.UserID, 14)

		// Assert
		s.Require().NoError(err)
		s.NotEmpty(report.Categories)
		s.GreaterOrEqual(report.DiversityScore, 0.0)
		s.LessOrEqual(report.DiversityScore, 100.0)
	})

	s.Run("Impact_ShouldScoreWithinBounds", func() {
		// Arrange
		s.db.Truncate(s.T())
		h := s.seedHousehold()

		// Act
		report, err := s.service.ScoreImpact(s.ctx, h.Profile.UserID, 30)

		// Assert
		s.Require().NoError(err)
		s.GreaterOrEqual(report.WasteRate, 0.0)
		s.LessOrEqual(report.WasteRate, 1.0)
		s.GreaterOrEqual(report.CarbonKg, 0.0)
	})
}

func (s *InsightsIntegrationTestSuite) TestShopping_StaysWithinBudget() {
	s.Run("Shopping_ShouldNeverExceedWeeklyBudget", func() {
		// Arrange
		h := s.seedHousehold()
		s.advisoryDown()

		// Act
		report, err := s.service.OptimizeShopping(s.ctx, h.Profile.UserID, 0, food.BudgetWeekly)

		// Assert
		s.Require().NoError(err)
		s.Equal(food.BudgetWeekly, report.Horizon)
		s.LessOrEqual(report.TotalCost, report.Budget+1e-9)
		s.InDelta(report.Budget-report.TotalCost, report.RemainingBudget, 0.01)
	})
}

func (s *InsightsIntegrationTestSuite) TestUnknownUser() {
	s.Run("AnyPipeline_ShouldReturnUserNotFound", func() {
		// Act
		_, err := s.service.PredictExpiration(s.ctx, uuid.New(), 0)

		// Assert
		s.Require().Error(err)
		s.True(apperrors.Is(err, apperrors.CodeUserNotFound))
		s.advisory.AssertNotCalled(s.T(), "Advise", mock.Anything, mock.Anything)
	})
}

func (s *InsightsIntegrationTestSuite) TestDailyTotals_TrackWrites() {
	s.Run("DeleteConsumption_ShouldRecomputeStoredTotals", func() {
		// Arrange
		h := s.seedHousehold()
		from := s.now.AddDate(0, 0, -30)
		to := s.now.AddDate(0, 0, 1)
		victim := h.Consumption[0]

		// Act
		s.Require().NoError(s.repo.DeleteConsumption(s.ctx, victim.UserID, victim.ID))
		stored, err := s.repo.ListDailyTotals(s.ctx, h.Profile.UserID, from, to)
		s.Require().NoError(err)
		entries, err := s.repo.ListConsumption(s.ctx, h.Profile.UserID, from, to)
		s.Require().NoError(err)

		// Assert
		expected := food.DailyTotals(entries)
		s.Require().Len(stored, len(expected))
		for i := range expected {
			s.Equal(expected[i].Date, stored[i].Date)
			s.InDelta(expected[i].Totals[food.NutrientCalories], stored[i].Totals[food.NutrientCalories], 0.001)
		}
	})
}

func TestInsightsIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(InsightsIntegrationTestSuite))
}

func TestCachingAdvisorWithRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	client := redis.NewClient(&redis.Options{Addr: testutils.SetupTestRedis(t)})
	defer client.Close()

	inner := &testutils.MockAdvisoryService{}
	payload := json.RawMessage(`{"predictions":[],"summary":"nothing at risk"}`)
	inner.On("Advise", mock.Anything, mock.Anything).Return(payload, nil).Once()

	cached := ai.NewCachingAdvisor(inner, redisstore.NewCacheRepository(client, "pantry-test", logger), time.Minute, nil, logger)
	req := outbound.AdvisoryRequest{
		Kind:         insight.KindExpiration,
		Features:     map[string]int{"items": 0},
		RequiredKeys: []string{"predictions", "summary"},
	}

	first, err := cached.Advise(ctx, req)
	if err != nil {
		t.Fatalf("first advise: %v", err)
	}
	second, err := cached.Advise(ctx, req)
	if err != nil {
		t.Fatalf("second advise: %v", err)
	}

	if string(first) != string(second) {
		t.Fatalf("cached payload differs: %s vs %s", first, second)
	}
	inner.AssertNumberOfCalls(t, "Advise", 1)
}
