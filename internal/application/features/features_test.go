package features

import (
	"testing"
	"time"

	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/alchemorsel/pantry/internal/domain/insight"
	"github.com/alchemorsel/pantry/internal/domain/measure"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type FeaturesTestSuite struct {
	suite.Suite
	now   time.Time
	table food.CategoryTable
	user  uuid.UUID
}

func (suite *FeaturesTestSuite) SetupTest() {
	suite.now = time.Date(2026, 7, 20, 10, 0, 0, 0, time.UTC)
	suite.table = food.DefaultCategoryTable()
	suite.user = uuid.New()
}

func (suite *FeaturesTestSuite) record(name string, cat food.Category, qty float64, unit string, cost float64, daysLeft *int) food.InventoryRecord {
	var expires *time.Time
	if daysLeft != nil {
		t := suite.now.AddDate(0, 0, *daysLeft)
		expires = &t
	}
	r, err := food.NewInventoryRecord(suite.user, name, cat, qty, unit, cost, expires, suite.now.AddDate(0, 0, -2))
	suite.Require().NoError(err)
	return *r
}

func (suite *FeaturesTestSuite) entry(day int, name string, cat food.Category, qty float64, unit string, slot food.MealSlot, n food.NutrientValues) food.ConsumptionEntry {
	return food.ConsumptionEntry{
		ID:         uuid.New(),
		UserID:     suite.user,
		ItemName:   name,
		Category:   cat,
		Quantity:   qty,
		Unit:       unit,
		MealSlot:   slot,
		Nutrients:  n,
		ConsumedAt: suite.now.AddDate(0, 0, -day),
	}
}

func days(n int) *int { return &n }

func (suite *FeaturesTestSuite) TestDeriveExpiration() {
	suite.Run("MilkInSummer_ShouldBeCritical", func() {
		// Arrange
		milk := suite.record("Milk", food.CategoryDairy, 1, "l", 1.1, days(2))

		// Act
		f := DeriveExpiration(suite.now, food.UserProfile{}, []food.InventoryRecord{milk}, suite.table)

		// Assert
		assert.Equal(suite.T(), insight.SeasonSummer, f.Season.Season)
		require.Len(suite.T(), f.Items, 1)
		assert.Equal(suite.T(), insight.TierCritical, f.Items[0].Tier)
		assert.Greater(suite.T(), f.Items[0].Multiplier, 1.0)
		assert.Equal(suite.T(), 2, f.Items[0].AgeDays)
		assert.NotEmpty(suite.T(), f.Items[0].StorageTip)
	})

	suite.Run("ItemsWithoutDate_ShouldBeSkipped", func() {
		rice := suite.record("Rice", food.CategoryGrains, 1, "kg", 2, nil)
		yogurt := suite.record("Yogurt", food.CategoryDairy, 500, "g", 0.01, days(10))
		apples := suite.record("Apples", food.CategoryFruits, 6, "pcs", 0.5, days(5))

		f := DeriveExpiration(suite.now, food.UserProfile{}, []food.InventoryRecord{rice, yogurt, apples}, suite.table)

		require.Len(suite.T(), f.Items, 2)
		assert.Equal(suite.T(), "Apples", f.Items[0].Name)
		assert.Equal(suite.T(), insight.TierHigh, f.Items[0].Tier)
		assert.Equal(suite.T(), insight.TierMedium, f.Items[1].Tier)
	})

	suite.Run("TierIgnoresCategory", func() {
		a := suite.record("Steak", food.CategoryProtein, 1, "kg", 20, days(20))
		b := suite.record("Crackers", food.CategorySnacks, 1, "count", 3, days(20))

		f := DeriveExpiration(suite.now, food.UserProfile{}, []food.InventoryRecord{a, b}, suite.table)

		for _, it := range f.Items {
			assert.Equal(suite.T(), insight.TierLow, it.Tier)
		}
	})
}

func (suite *FeaturesTestSuite) TestDeriveNutrients() {
	suite.Run("ZeroConsumption_ShouldReturnNoGaps", func() {
		f := DeriveNutrients(food.UserProfile{}, nil, suite.table)
		assert.Equal(suite.T(), 0, f.DaysLogged)
		assert.Empty(suite.T(), f.Gaps)
	})

	suite.Run("Overeating_ShouldClampToZero", func() {
		entries := []food.ConsumptionEntry{
			suite.entry(1, "Feast", food.CategoryProtein, 1, "kg", food.MealDinner, food.NutrientValues{
				food.NutrientCalories: 5000, food.NutrientProtein: 400, food.NutrientCarbs: 600, food.NutrientFat: 200, food.NutrientFiber: 80,
			}),
		}

		f := DeriveNutrients(food.UserProfile{}, entries, suite.table)

		require.Len(suite.T(), f.Gaps, len(TrackedNutrients))
		for _, g := range f.Gaps {
			assert.GreaterOrEqual(suite.T(), g.DeficiencyPct, 0.0)
			assert.LessOrEqual(suite.T(), g.DeficiencyPct, 100.0)
			assert.Equal(suite.T(), insight.SeverityOptimal, g.Severity)
		}
	})

	suite.Run("AverageUsesDistinctLoggedDays", func() {
		entries := []food.ConsumptionEntry{
			suite.entry(1, "Oats", food.CategoryGrains, 80, "g", food.MealBreakfast, food.NutrientValues{food.NutrientFiber: 8}),
			suite.entry(1, "Pear", food.CategoryFruits, 1, "count", food.MealSnack, food.NutrientValues{food.NutrientFiber: 4}),
			suite.entry(3, "Beans", food.CategoryProtein, 200, "g", food.MealDinner, food.NutrientValues{food.NutrientFiber: 0}),
		}

		f := DeriveNutrients(food.UserProfile{}, entries, suite.table)

		assert.Equal(suite.T(), 2, f.DaysLogged)
		assert.InDelta(suite.T(), 6.0, f.Averages[food.NutrientFiber], 1e-9)
		var fiber insight.GapAssessment
		for _, g := range f.Gaps {
			if g.Nutrient == food.NutrientFiber {
				fiber = g
			}
		}
		assert.InDelta(suite.T(), 70.0, fiber.DeficiencyPct, 1e-9)
		assert.Equal(suite.T(), insight.SeveritySevere, fiber.Severity)
		assert.Contains(suite.T(), fiber.Sources, food.CategoryVegetables)
		assert.Len(suite.T(), f.Deficient(), 1, "only fiber was recorded")
	})

	suite.Run("UnrecordedNutrients_ShouldNotBecomeGaps", func() {
		entries := []food.ConsumptionEntry{
			suite.entry(1, "Stew", food.CategoryProtein, 400, "g", food.MealDinner, food.NutrientValues{food.NutrientCalories: 2000}),
			suite.entry(2, "Bread", food.CategoryGrains, 100, "g", food.MealLunch, food.NutrientValues{food.NutrientCalories: 1800, food.NutrientProtein: 10}),
		}

		f := DeriveNutrients(food.UserProfile{}, entries, suite.table)

		assert.Equal(suite.T(), 2, f.DaysLogged)
		require.Len(suite.T(), f.Gaps, 2)
		assert.Equal(suite.T(), food.NutrientCalories, f.Gaps[0].Nutrient)
		assert.Equal(suite.T(), insight.SeverityOptimal, f.Gaps[0].Severity)
		assert.Equal(suite.T(), food.NutrientProtein, f.Gaps[1].Nutrient)
		assert.InDelta(suite.T(), 10.0, f.Averages[food.NutrientProtein], 1e-9, "averaged over the one day that recorded it")
		_, hasFiber := f.Averages[food.NutrientFiber]
		assert.False(suite.T(), hasFiber)
		for _, g := range f.Deficient() {
			assert.NotEqual(suite.T(), food.NutrientFat, g.Nutrient)
			assert.NotEqual(suite.T(), food.NutrientCarbs, g.Nutrient)
		}
	})
}

func (suite *FeaturesTestSuite) TestTargets() {
	t := Targets(food.UserProfile{CalorieTarget: 1800, ProteinPct: 30, CarbsPct: 40, FatPct: 30})
	assert.InDelta(suite.T(), 135.0, t[food.NutrientProtein], 1e-9)
	assert.InDelta(suite.T(), 180.0, t[food.NutrientCarbs], 1e-9)
	assert.InDelta(suite.T(), 60.0, t[food.NutrientFat], 1e-9)
	assert.Equal(suite.T(), FiberFloor, t[food.NutrientFiber])

	d := Targets(food.UserProfile{})
	assert.Equal(suite.T(), food.DefaultCalorieTarget, d[food.NutrientCalories])
	assert.InDelta(suite.T(), 125.0, d[food.NutrientProtein], 1e-9)
}

func (suite *FeaturesTestSuite) TestDerivePatterns() {
	suite.Run("ZeroConsumption_ShouldBeEmpty", func() {
		f, err := DerivePatterns(nil, suite.table)
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), 0, f.DaysLogged)
		assert.Empty(suite.T(), f.Categories)
		assert.Zero(suite.T(), f.Diversity)
	})

	suite.Run("Habits_ShouldBeMeasured", func() {
		entries := []food.ConsumptionEntry{
			suite.entry(1, "Toast", food.CategoryGrains, 2, "slices", food.MealBreakfast, nil),
		}
		_, err := DerivePatterns(entries, suite.table)
		assert.ErrorIs(suite.T(), err, measure.ErrUnknownUnit)

		entries = []food.ConsumptionEntry{
			suite.entry(1, "Toast", food.CategoryGrains, 60, "g", food.MealBreakfast, nil),
			suite.entry(1, "Apple", food.CategoryFruits, 1, "count", food.MealSnack, nil),
			suite.entry(2, "Pasta", food.CategoryGrains, 120, "g", food.MealDinner, nil),
		}

		f, err := DerivePatterns(entries, suite.table)

		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), 2, f.DaysLogged)
		assert.InDelta(suite.T(), 1.5, f.Diversity, 1e-9)
		assert.InDelta(suite.T(), 0.5, f.SkippedBreakfastRate, 1e-9)
		assert.InDelta(suite.T(), 0.333, f.MealSlots[food.MealBreakfast], 1e-9)

		byCat := map[food.Category]insight.ImbalanceAssessment{}
		for _, c := range f.Categories {
			byCat[c.Category] = c
			assert.GreaterOrEqual(suite.T(), c.DeviationPct, 0.0)
			assert.LessOrEqual(suite.T(), c.DeviationPct, 100.0)
		}
		assert.Equal(suite.T(), 1.0, byCat[food.CategoryGrains].Frequency)
		assert.Equal(suite.T(), []string{"90.0 g"}, byCat[food.CategoryGrains].DailyAverage)
		assert.Equal(suite.T(), insight.DirectionUnder, byCat[food.CategoryVegetables].Direction)
		assert.Equal(suite.T(), insight.SeveritySevere, byCat[food.CategoryVegetables].Severity)
		assert.Contains(suite.T(), f.Underused(), food.CategoryVegetables)
	})
}

func (suite *FeaturesTestSuite) TestDeriveImpact() {
	suite.Run("NoData_ShouldBeZero", func() {
		f, err := DeriveImpact(suite.now, nil, nil, 30, suite.table)
		require.NoError(suite.T(), err)
		assert.True(suite.T(), f.Empty())
		assert.Zero(suite.T(), f.Scores.Sustainability)
	})

	suite.Run("ConsumptionRate_ShouldDriveWaste", func() {
		// 2 l of milk, 3 days left, drinking 200 ml a day -> 1 - 600/2000 = 0.7 wasted
		milk := suite.record("Milk", food.CategoryDairy, 2, "l", 1, days(3))
		var entries []food.ConsumptionEntry
		for d := 1; d <= 10; d++ {
			entries = append(entries, suite.entry(d, "Milk", food.CategoryDairy, 200, "ml", food.MealBreakfast, nil))
		}

		f, err := DeriveImpact(suite.now, []food.InventoryRecord{milk}, entries, 10, suite.table)

		require.NoError(suite.T(), err)
		require.Len(suite.T(), f.Items, 1)
		assert.InDelta(suite.T(), 0.7, f.Items[0].WasteFraction, 1e-9)
		assert.Equal(suite.T(), "consumption rate", f.Items[0].Basis)
		assert.InDelta(suite.T(), 0.7, f.WasteRate, 1e-9)
		assert.Less(suite.T(), f.ReductionRate, 0.0)
		assert.Equal(suite.T(), 0.0, f.Scores.Sustainability)
	})

	suite.Run("ExpiredItem_ShouldBeFullyWasted", func() {
		old := suite.record("Spinach", food.CategoryVegetables, 300, "g", 0.01, days(-1))
		fresh := suite.record("Rice", food.CategoryGrains, 1, "kg", 3, nil)

		f, err := DeriveImpact(suite.now, []food.InventoryRecord{old, fresh}, nil, 30, suite.table)

		require.NoError(suite.T(), err)
		for _, it := range f.Items {
			if it.Name == "Spinach" {
				assert.Equal(suite.T(), 1.0, it.WasteFraction)
			} else {
				assert.Equal(suite.T(), suite.table.Profile(food.CategoryGrains).TypicalWasteFraction, it.WasteFraction)
			}
		}
		for _, s := range []float64{f.Scores.Sustainability, f.Scores.Climate, f.Scores.Responsible, f.Scores.ZeroHunger} {
			assert.GreaterOrEqual(suite.T(), s, 0.0)
			assert.LessOrEqual(suite.T(), s, 100.0)
		}
	})
}

func (suite *FeaturesTestSuite) TestFilterHeld() {
	held := []food.InventoryRecord{
		suite.record("Whole Milk", food.CategoryDairy, 2, "l", 1, days(5)),
		suite.record("Eggs", food.CategoryProtein, 6, "count", 0.3, days(14)),
	}
	candidates := []insight.Recommendation{
		{Name: "milk", Quantity: 1, Unit: "l"},
		{Name: "eggs", Quantity: 1, Unit: "dozen"},
		{Name: "Eggs", Quantity: 500, Unit: "g"},
		{Name: "Spinach", Quantity: 1, Unit: "bunch"},
	}

	kept, excluded := FilterHeld(candidates, held)

	assert.Equal(suite.T(), []string{"milk"}, excluded)
	require.Len(suite.T(), kept, 3)
	assert.Equal(suite.T(), "eggs", kept[0].Name, "6 eggs do not cover a dozen")
	assert.Equal(suite.T(), "Eggs", kept[1].Name, "incompatible units keep the candidate")
}

func (suite *FeaturesTestSuite) TestFilterAvoided() {
	out := FilterAvoided([]insight.Recommendation{{Name: "Peanut butter"}, {Name: "Oats"}}, []string{"PEANUT"})
	require.Len(suite.T(), out, 1)
	assert.Equal(suite.T(), "Oats", out[0].Name)
}

func TestFeaturesTestSuite(t *testing.T) {
	suite.Run(t, new(FeaturesTestSuite))
}
