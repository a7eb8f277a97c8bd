// Package sqlite provides SQLite database setup and demo seeding
package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/alchemorsel/pantry/internal/domain/food"
	gormstore "github.com/alchemorsel/pantry/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/pantry/internal/ports/outbound"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DemoUserID identifies the seeded demo household
var DemoUserID = uuid.MustParse("6f1c2d3e-4b5a-4c6d-8e7f-90a1b2c3d4e5")

// SetupDatabase creates and configures the SQLite database
func SetupDatabase(dbPath string, logLevel logger.LogLevel) (*gorm.DB, error) {
	// Use in-memory database if no path provided
	inMemory := dbPath == "" || dbPath == ":memory:"
	if inMemory {
		dbPath = "file::memory:?cache=shared"
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if inMemory {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}
		// Every extra connection to a memory database would see an empty schema.
		sqlDB.SetMaxOpenConns(1)
	}

	// Run auto-migration
	if err := gormstore.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// SeedDatabase populates the store with a demo household. It is a no-op
// when the demo profile already exists.
func SeedDatabase(ctx context.Context, store outbound.FoodRepository, now time.Time) error {
	if _, err := store.FindProfile(ctx, DemoUserID); err == nil {
		return nil // Already seeded
	}

	lat := 51.5
	profile := &food.UserProfile{
		UserID:              DemoUserID,
		CalorieTarget:       2000,
		ProteinPct:          25,
		CarbsPct:            50,
		FatPct:              25,
		HouseholdSize:       2,
		Budget:              food.Budget{Amount: 75, Period: food.BudgetWeekly},
		DietaryRestrictions: []string{},
		AvoidedIngredients:  []string{"peanuts"},
		Location:            food.Location{City: "London", Country: "GB", Latitude: &lat},
	}
	if err := store.SaveProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to create demo profile: %w", err)
	}

	catalog := []food.CatalogOption{
		{Name: "Brown Rice", Category: food.CategoryGrains, Unit: "kg", UnitCost: 2.4, ShelfLifeDays: 365},
		{Name: "Rolled Oats", Category: food.CategoryGrains, Unit: "kg", UnitCost: 1.8, ShelfLifeDays: 270},
		{Name: "Red Lentils", Category: food.CategoryProtein, Unit: "kg", UnitCost: 3.1, ShelfLifeDays: 365},
		{Name: "Eggs", Category: food.CategoryProtein, Unit: "dozen", UnitCost: 3.5, ShelfLifeDays: 28},
		{Name: "Chicken Thighs", Category: food.CategoryProtein, Unit: "kg", UnitCost: 7.5, ShelfLifeDays: 3},
		{Name: "Greek Yogurt", Category: food.CategoryDairy, Unit: "count", UnitCost: 1.2, ShelfLifeDays: 14},
		{Name: "Semi-skimmed Milk", Category: food.CategoryDairy, Unit: "l", UnitCost: 1.1, ShelfLifeDays: 7},
		{Name: "Spinach", Category: food.CategoryVegetables, Unit: "count", UnitCost: 1.5, ShelfLifeDays: 5},
		{Name: "Carrots", Category: food.CategoryVegetables, Unit: "kg", UnitCost: 0.9, ShelfLifeDays: 21},
		{Name: "Broccoli", Category: food.CategoryVegetables, Unit: "count", UnitCost: 0.8, ShelfLifeDays: 7},
		{Name: "Bananas", Category: food.CategoryFruits, Unit: "count", UnitCost: 0.2, ShelfLifeDays: 6},
		{Name: "Apples", Category: food.CategoryFruits, Unit: "count", UnitCost: 0.35, ShelfLifeDays: 30},
		{Name: "Orange Juice", Category: food.CategoryBeverages, Unit: "l", UnitCost: 1.6, ShelfLifeDays: 10},
		{Name: "Peanut Butter", Category: food.CategorySnacks, Unit: "count", UnitCost: 2.5, ShelfLifeDays: 180},
	}
	if err := store.SaveCatalog(ctx, catalog); err != nil {
		return fmt.Errorf("failed to create demo catalog: %w", err)
	}

	days := func(n int) *time.Time {
		t := now.AddDate(0, 0, n)
		return &t
	}
	inventory := []food.InventoryRecord{
		{Name: "Semi-skimmed Milk", Category: food.CategoryDairy, Quantity: 1, Unit: "l", UnitCost: 1.1, ExpirationDate: days(1)},
		{Name: "Spinach", Category: food.CategoryVegetables, Quantity: 1, Unit: "count", UnitCost: 1.5, ExpirationDate: days(2)},
		{Name: "Greek Yogurt", Category: food.CategoryDairy, Quantity: 3, Unit: "count", UnitCost: 1.2, ExpirationDate: days(6)},
		{Name: "Carrots", Category: food.CategoryVegetables, Quantity: 500, Unit: "g", UnitCost: 0.9, ExpirationDate: days(12)},
		{Name: "Brown Rice", Category: food.CategoryGrains, Quantity: 2, Unit: "kg", UnitCost: 2.4},
		{Name: "Cheddar", Category: food.CategoryDairy, Quantity: 200, Unit: "g", UnitCost: 0.012, ExpirationDate: days(-1)},
	}
	for i := range inventory {
		item := inventory[i]
		item.UserID = DemoUserID
		item.CreatedAt = now.AddDate(0, 0, -3)
		if err := store.SaveInventory(ctx, &item); err != nil {
			return fmt.Errorf("failed to create demo inventory: %w", err)
		}
	}

	// Two weeks of meals: heavy on grains, light on vegetables.
	for d := 14; d >= 1; d-- {
		at := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -d)
		meals := []food.ConsumptionEntry{
			{ItemName: "Rolled Oats", Category: food.CategoryGrains, Quantity: 60, Unit: "g", MealSlot: food.MealBreakfast,
				ConsumedAt: at.Add(8 * time.Hour), Nutrients: food.NutrientValues{food.NutrientCalories: 230, food.NutrientProtein: 8, food.NutrientCarbs: 40, food.NutrientFat: 4, food.NutrientFiber: 6}},
			{ItemName: "Brown Rice", Category: food.CategoryGrains, Quantity: 150, Unit: "g", MealSlot: food.MealLunch,
				ConsumedAt: at.Add(13 * time.Hour), Nutrients: food.NutrientValues{food.NutrientCalories: 540, food.NutrientProtein: 11, food.NutrientCarbs: 115, food.NutrientFat: 4, food.NutrientFiber: 5}},
			{ItemName: "Chicken Thighs", Category: food.CategoryProtein, Quantity: 150, Unit: "g", MealSlot: food.MealDinner,
				ConsumedAt: at.Add(19 * time.Hour), Nutrients: food.NutrientValues{food.NutrientCalories: 320, food.NutrientProtein: 38, food.NutrientFat: 18}},
		}
		if d%3 == 0 {
			meals = append(meals, food.ConsumptionEntry{ItemName: "Broccoli", Category: food.CategoryVegetables, Quantity: 1, Unit: "count", MealSlot: food.MealDinner,
				ConsumedAt: at.Add(19 * time.Hour), Nutrients: food.NutrientValues{food.NutrientCalories: 50, food.NutrientFiber: 4, food.NutrientVitaminC: 80}})
		}
		for i := range meals {
			meals[i].UserID = DemoUserID
			if err := store.LogConsumption(ctx, &meals[i]); err != nil {
				return fmt.Errorf("failed to create demo consumption: %w", err)
			}
		}
	}

	return nil
}
