package gorm

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/alchemorsel/pantry/internal/domain/measure"
	"github.com/alchemorsel/pantry/internal/ports/outbound"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type FoodRepositoryTestSuite struct {
	suite.Suite
	db     *gorm.DB
	repo   *FoodRepository
	ctx    context.Context
	userID uuid.UUID
}

func (suite *FoodRepositoryTestSuite) SetupTest() {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), AutoMigrate(db))

	suite.db = db
	suite.repo = NewFoodRepository(db, zaptest.NewLogger(suite.T()))
	suite.ctx = context.Background()
	suite.userID = uuid.New()

	lat := -33.9
	require.NoError(suite.T(), suite.repo.SaveProfile(suite.ctx, &food.UserProfile{
		UserID:              suite.userID,
		CalorieTarget:       2200,
		ProteinPct:          30,
		CarbsPct:            45,
		FatPct:              25,
		HouseholdSize:       2,
		Budget:              food.Budget{Amount: 60, Period: food.BudgetWeekly},
		DietaryRestrictions: []string{"vegetarian"},
		AvoidedIngredients:  []string{"peanuts"},
		Location:            food.Location{City: "Cape Town", Latitude: &lat},
	}))
}

func (suite *FoodRepositoryTestSuite) TearDownTest() {
	if sqlDB, err := suite.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (suite *FoodRepositoryTestSuite) TestProfile() {
	suite.Run("Existing_ShouldRoundTripJSONColumns", func() {
		// Act
		p, err := suite.repo.FindProfile(suite.ctx, suite.userID)

		// Assert
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), []string{"vegetarian"}, p.DietaryRestrictions)
		assert.Equal(suite.T(), []string{"peanuts"}, p.AvoidedIngredients)
		assert.Equal(suite.T(), food.BudgetWeekly, p.Budget.Period)
		require.NotNil(suite.T(), p.Location.Latitude)
		assert.True(suite.T(), p.Location.SouthernHemisphere())
	})

	suite.Run("Missing_ShouldReturnUserNotFound", func() {
		// Act
		_, err := suite.repo.FindProfile(suite.ctx, uuid.New())

		// Assert
		assert.ErrorIs(suite.T(), err, food.ErrUserNotFound)
	})

	suite.Run("Update_ShouldOverwrite", func() {
		// Arrange
		p, err := suite.repo.FindProfile(suite.ctx, suite.userID)
		require.NoError(suite.T(), err)
		p.HouseholdSize = 4

		// Act
		require.NoError(suite.T(), suite.repo.SaveProfile(suite.ctx, p))
		got, err := suite.repo.FindProfile(suite.ctx, suite.userID)

		// Assert
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), 4, got.HouseholdSize)
	})
}

func (suite *FoodRepositoryTestSuite) TestInventory() {
	suite.Run("Save_ShouldNormalizeAndFilter", func() {
		// Arrange
		expires := time.Date(2024, 7, 20, 0, 0, 0, 0, time.UTC)
		require.NoError(suite.T(), suite.repo.SaveInventory(suite.ctx, &food.InventoryRecord{
			UserID: suite.userID, Name: "Milk", Category: food.CategoryDairy,
			Quantity: 1.5, Unit: "l", UnitCost: 1.2, ExpirationDate: &expires,
		}))
		require.NoError(suite.T(), suite.repo.SaveInventory(suite.ctx, &food.InventoryRecord{
			UserID: suite.userID, Name: "Flour", Category: food.CategoryGrains,
			Quantity: 2, Unit: "lb",
		}))

		// Act
		all, err := suite.repo.ListInventory(suite.ctx, suite.userID, outbound.InventoryFilter{})
		require.NoError(suite.T(), err)
		expirable, err := suite.repo.ListInventory(suite.ctx, suite.userID, outbound.InventoryFilter{ExpirableOnly: true})
		require.NoError(suite.T(), err)

		// Assert
		require.Len(suite.T(), all, 2)
		assert.Equal(suite.T(), "Flour", all[0].Name)
		assert.InDelta(suite.T(), 907.18, all[0].BaseQuantity, 0.01)
		assert.Equal(suite.T(), measure.DimensionMass, all[0].BaseUnit)
		require.Len(suite.T(), expirable, 1)
		assert.Equal(suite.T(), "Milk", expirable[0].Name)
		assert.InDelta(suite.T(), 1500, expirable[0].BaseQuantity, 1e-9)
	})

	suite.Run("Delete_ShouldRemove", func() {
		// Arrange
		rec := &food.InventoryRecord{UserID: suite.userID, Name: "Bread", Category: food.CategoryGrains, Quantity: 1, Unit: "count"}
		require.NoError(suite.T(), suite.repo.SaveInventory(suite.ctx, rec))

		// Act
		require.NoError(suite.T(), suite.repo.DeleteInventory(suite.ctx, suite.userID, rec.ID))
		items, err := suite.repo.ListInventory(suite.ctx, suite.userID, outbound.InventoryFilter{})

		// Assert
		require.NoError(suite.T(), err)
		for _, item := range items {
			assert.NotEqual(suite.T(), rec.ID, item.ID)
		}
	})

	suite.Run("UnknownUnit_ShouldFail", func() {
		// Act
		err := suite.repo.SaveInventory(suite.ctx, &food.InventoryRecord{
			UserID: suite.userID, Name: "Mystery", Category: food.CategoryOther, Quantity: 1, Unit: "smidgen",
		})

		// Assert
		assert.ErrorIs(suite.T(), err, measure.ErrUnknownUnit)
	})
}

func (suite *FoodRepositoryTestSuite) TestCatalog() {
	suite.Run("Save_ShouldUpsertByName", func() {
		// Arrange
		require.NoError(suite.T(), suite.repo.SaveCatalog(suite.ctx, []food.CatalogOption{
			{Name: "Lentils", Category: food.CategoryProtein, Unit: "kg", UnitCost: 3},
			{Name: "Spinach", Category: food.CategoryVegetables, Unit: "count", UnitCost: 2},
		}))

		// Act
		require.NoError(suite.T(), suite.repo.SaveCatalog(suite.ctx, []food.CatalogOption{
			{Name: "lentils", Category: food.CategoryProtein, Unit: "kg", UnitCost: 2.5},
		}))
		all, err := suite.repo.SampleCatalog(suite.ctx, 10)
		require.NoError(suite.T(), err)
		one, err := suite.repo.SampleCatalog(suite.ctx, 1)
		require.NoError(suite.T(), err)

		// Assert
		require.Len(suite.T(), all, 2)
		assert.Equal(suite.T(), 2.5, all[0].UnitCost)
		assert.Len(suite.T(), one, 1)
	})

	suite.Run("InvalidCategory_ShouldFail", func() {
		// Act
		err := suite.repo.SaveCatalog(suite.ctx, []food.CatalogOption{{Name: "Widget", Category: "gadgets", Unit: "count", UnitCost: 1}})

		// Assert
		assert.ErrorIs(suite.T(), err, food.ErrInvalidCategory)
	})
}

func (suite *FoodRepositoryTestSuite) TestConsumption() {
	day := time.Date(2024, 7, 10, 8, 0, 0, 0, time.UTC)

	suite.Run("Window_ShouldBeHalfOpen", func() {
		// Arrange
		for i := 0; i < 3; i++ {
			require.NoError(suite.T(), suite.repo.LogConsumption(suite.ctx, &food.ConsumptionEntry{
				UserID: suite.userID, ItemName: "Apple", Category: food.CategoryFruits,
				Quantity: 1, Unit: "count", MealSlot: food.MealSnack, ConsumedAt: day.AddDate(0, 0, i),
			}))
		}

		// Act
		entries, err := suite.repo.ListConsumption(suite.ctx, suite.userID, day, day.AddDate(0, 0, 2))

		// Assert
		require.NoError(suite.T(), err)
		require.Len(suite.T(), entries, 2)
		assert.True(suite.T(), entries[0].ConsumedAt.Before(entries[1].ConsumedAt))
		assert.Equal(suite.T(), food.MealSnack, entries[0].MealSlot)
	})

	suite.Run("DailyTotals_ShouldFollowLogEditAndDelete", func() {
		// Arrange
		user := uuid.New()
		oats := &food.ConsumptionEntry{
			UserID: user, ItemName: "Oats", Category: food.CategoryGrains, Quantity: 50, Unit: "g",
			ConsumedAt: day, Nutrients: food.NutrientValues{food.NutrientFiber: 5, food.NutrientCalories: 190},
		}
		beans := &food.ConsumptionEntry{
			UserID: user, ItemName: "Beans", Category: food.CategoryProtein, Quantity: 100, Unit: "g",
			ConsumedAt: day.Add(4 * time.Hour), Nutrients: food.NutrientValues{food.NutrientFiber: 7},
		}
		require.NoError(suite.T(), suite.repo.LogConsumption(suite.ctx, oats))
		require.NoError(suite.T(), suite.repo.LogConsumption(suite.ctx, beans))

		// Act
		logged, err := suite.repo.ListDailyTotals(suite.ctx, user, day, day)
		require.NoError(suite.T(), err)

		beans.ConsumedAt = day.AddDate(0, 0, 1)
		require.NoError(suite.T(), suite.repo.LogConsumption(suite.ctx, beans))
		moved, err := suite.repo.ListDailyTotals(suite.ctx, user, day, day.AddDate(0, 0, 1))
		require.NoError(suite.T(), err)

		require.NoError(suite.T(), suite.repo.DeleteConsumption(suite.ctx, user, oats.ID))
		deleted, err := suite.repo.ListDailyTotals(suite.ctx, user, day, day.AddDate(0, 0, 1))
		require.NoError(suite.T(), err)

		// Assert
		require.Len(suite.T(), logged, 1)
		assert.Equal(suite.T(), 12.0, logged[0].Totals[food.NutrientFiber])
		assert.Equal(suite.T(), 2, logged[0].Entries)

		require.Len(suite.T(), moved, 2)
		assert.Equal(suite.T(), 5.0, moved[0].Totals[food.NutrientFiber])
		assert.Equal(suite.T(), 7.0, moved[1].Totals[food.NutrientFiber])

		require.Len(suite.T(), deleted, 1)
		assert.Equal(suite.T(), "2024-07-11", deleted[0].Date)
	})

	suite.Run("UnknownUnit_ShouldFail", func() {
		// Act
		err := suite.repo.LogConsumption(suite.ctx, &food.ConsumptionEntry{
			UserID: suite.userID, ItemName: "Soup", Category: food.CategoryOther, Quantity: 1, Unit: "ladle", ConsumedAt: day,
		})

		// Assert
		assert.ErrorIs(suite.T(), err, measure.ErrUnknownUnit)
	})
}

func TestFoodRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(FoodRepositoryTestSuite))
}
