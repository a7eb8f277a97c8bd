package food

import (
	"errors"
	"testing"
	"time"

	"github.com/alchemorsel/pantry/internal/domain/measure"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// InventoryRecordTestSuite covers record construction and edits
type InventoryRecordTestSuite struct {
	suite.Suite
	now time.Time
}

func (suite *InventoryRecordTestSuite) SetupTest() {
	suite.now = time.Date(2026, 7, 10, 9, 30, 0, 0, time.UTC)
}

func (suite *InventoryRecordTestSuite) TestNewInventoryRecord() {
	suite.Run("ValidRecord_ShouldComputeBaseQuantity", func() {
		// Arrange
		expires := suite.now.AddDate(0, 0, 2)

		// Act
		r, err := NewInventoryRecord(uuid.New(), " Milk ", CategoryDairy, 1, "l", 1.2, &expires, suite.now)

		// Assert
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), "Milk", r.Name)
		assert.Equal(suite.T(), 1000.0, r.BaseQuantity)
		assert.Equal(suite.T(), measure.DimensionVolume, r.BaseUnit)
		days, ok := r.DaysUntilExpiration(suite.now)
		assert.True(suite.T(), ok)
		assert.Equal(suite.T(), 2, days)
	})

	suite.Run("UnknownUnit_ShouldFail", func() {
		_, err := NewInventoryRecord(uuid.New(), "Rice", CategoryGrains, 2, "sack", 3, nil, suite.now)
		assert.True(suite.T(), errors.Is(err, measure.ErrUnknownUnit))
	})

	suite.Run("InvalidFields_ShouldFail", func() {
		_, err := NewInventoryRecord(uuid.New(), "", CategoryGrains, 2, "kg", 3, nil, suite.now)
		assert.Equal(suite.T(), ErrEmptyName, err)

		_, err = NewInventoryRecord(uuid.New(), "Rice", CategoryGrains, -1, "kg", 3, nil, suite.now)
		assert.Equal(suite.T(), ErrNegativeQuantity, err)

		_, err = NewInventoryRecord(uuid.New(), "Rice", Category("fruit"), 1, "kg", 3, nil, suite.now)
		assert.Equal(suite.T(), ErrInvalidCategory, err)
	})
}

func (suite *InventoryRecordTestSuite) TestUpdateQuantity() {
	r, err := NewInventoryRecord(uuid.New(), "Flour", CategoryGrains, 1, "kg", 2, nil, suite.now)
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), r.UpdateQuantity(500, "g"))
	assert.Equal(suite.T(), 500.0, r.BaseQuantity)

	err = r.UpdateQuantity(3, "scoops")
	assert.ErrorIs(suite.T(), err, measure.ErrUnknownUnit)
	assert.Equal(suite.T(), 500.0, r.Quantity, "failed edit must not change the record")
	assert.Equal(suite.T(), "g", r.Unit)
}

func (suite *InventoryRecordTestSuite) TestAgeAndExpiry() {
	r := InventoryRecord{CreatedAt: suite.now.AddDate(0, 0, -5)}
	assert.Equal(suite.T(), 5, r.AgeDays(suite.now))
	_, ok := r.DaysUntilExpiration(suite.now)
	assert.False(suite.T(), ok)

	past := suite.now.AddDate(0, 0, -1)
	r.ExpirationDate = &past
	days, _ := r.DaysUntilExpiration(suite.now)
	assert.Equal(suite.T(), -1, days)
}

func TestInventoryRecordTestSuite(t *testing.T) {
	suite.Run(t, new(InventoryRecordTestSuite))
}

func TestParseCategory(t *testing.T) {
	tests := map[string]Category{
		"fruits": CategoryFruits,
		"Fruit":  CategoryFruits,
		" veg ":  CategoryVegetables,
		"meat":   CategoryProtein,
		"DAIRY":  CategoryDairy,
		"drinks": CategoryBeverages,
		"snack":  CategorySnacks,
		"grain":  CategoryGrains,
		"pantry": CategoryOther,
	}
	for in, want := range tests {
		got, ok := ParseCategory(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	got, ok := ParseCategory("spaceship")
	assert.False(t, ok)
	assert.Equal(t, CategoryOther, got)
}

func TestDailyTotals(t *testing.T) {
	day1 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	entries := []ConsumptionEntry{
		{ItemName: "Oats", ConsumedAt: day2, Nutrients: NutrientValues{NutrientCalories: 300, NutrientFiber: 8}},
		{ItemName: "Eggs", ConsumedAt: day1, Nutrients: NutrientValues{NutrientCalories: 150, NutrientProtein: 12}},
		{ItemName: "Toast", ConsumedAt: day1.Add(4 * time.Hour), Nutrients: NutrientValues{NutrientCalories: 100}},
		{ItemName: "Water", ConsumedAt: day2},
	}

	totals := DailyTotals(entries)

	require.Len(t, totals, 2)
	assert.Equal(t, "2026-03-01", totals[0].Date)
	assert.Equal(t, 2, totals[0].Entries)
	assert.Equal(t, 250.0, totals[0].Totals[NutrientCalories])
	assert.Equal(t, 12.0, totals[0].Totals[NutrientProtein])
	assert.Equal(t, 2, totals[1].Entries)
	assert.Equal(t, 8.0, totals[1].Totals[NutrientFiber])

	// removing an entry and recomputing must change the totals
	totals = DailyTotals(entries[1:2])
	require.Len(t, totals, 1)
	assert.Equal(t, 150.0, totals[0].Totals[NutrientCalories])

	assert.Empty(t, DailyTotals(nil))
}

func TestUserProfile(t *testing.T) {
	t.Run("MacroOutOfRange_ShouldFail", func(t *testing.T) {
		p := UserProfile{CalorieTarget: 2000, ProteinPct: 120, HouseholdSize: 1}
		assert.ErrorIs(t, p.Validate(), ErrInvalidProfile)
	})

	t.Run("ValidProfile_ShouldPass", func(t *testing.T) {
		lat := -33.9
		p := UserProfile{
			CalorieTarget: 2200, ProteinPct: 30, CarbsPct: 40, FatPct: 30, HouseholdSize: 2,
			Budget:   Budget{Amount: 400, Period: BudgetMonthly},
			Location: Location{City: "Cape Town", Latitude: &lat},
		}
		assert.NoError(t, p.Validate())
		assert.True(t, p.Location.SouthernHemisphere())
	})

	t.Run("Defaults_ShouldFillUnsetTargets", func(t *testing.T) {
		p := UserProfile{}.WithDefaults()
		assert.Equal(t, DefaultCalorieTarget, p.CalorieTarget)
		assert.Equal(t, DefaultProteinPct, p.ProteinPct)
		assert.Equal(t, 1, p.HouseholdSize)
		assert.Equal(t, BudgetMonthly, p.Budget.Period)
	})
}

func TestBudget(t *testing.T) {
	weekly := Budget{Amount: 50, Period: BudgetWeekly}
	assert.Equal(t, 200.0, weekly.Monthly())

	week, err := weekly.ForHorizon(BudgetWeekly)
	require.NoError(t, err)
	assert.Equal(t, 50.0, week)

	monthly := Budget{Amount: 300, Period: BudgetMonthly}
	month, err := monthly.ForHorizon(BudgetMonthly)
	require.NoError(t, err)
	assert.Equal(t, 300.0, month)

	_, err = monthly.ForHorizon("yearly")
	assert.ErrorIs(t, err, ErrInvalidBudgetSpan)
}

func TestCategoryTable(t *testing.T) {
	table := DefaultCategoryTable()

	for _, c := range Categories {
		_, ok := table[c]
		assert.True(t, ok, "missing table entry for %s", c)
	}

	m, _ := table.SeasonalMultiplier(CategoryDairy, BandWarm)
	assert.Greater(t, m, 1.0)
	m, _ = table.SeasonalMultiplier(CategoryProtein, BandCold)
	assert.InDelta(t, 0.8, m, 1e-9)

	assert.Contains(t, table.SourcesOf(NutrientProtein), CategoryProtein)

	merged := table.Merge(CategoryTable{
		CategoryDairy: {ShelfLifeDays: 14, Seasonal: map[TemperatureBand]SeasonalAdjustment{BandWarm: {Multiplier: 1.25, Rationale: "local override"}}},
	})
	assert.Equal(t, 14, merged.Profile(CategoryDairy).ShelfLifeDays)
	m, why := merged.SeasonalMultiplier(CategoryDairy, BandWarm)
	assert.InDelta(t, 1.25, m, 1e-9)
	assert.Equal(t, "local override", why)
	m, _ = merged.SeasonalMultiplier(CategoryDairy, BandCold)
	assert.InDelta(t, 0.9, m, 1e-9)
	assert.Equal(t, 10, table.Profile(CategoryDairy).ShelfLifeDays, "merge must not mutate the source table")
}
