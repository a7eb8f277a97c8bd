package testutils

import (
	"time"

	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/alchemorsel/pantry/internal/domain/measure"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

// FoodFactory builds pantry test data from a seeded faker so runs are repeatable
type FoodFactory struct {
	faker *gofakeit.Faker
	now   time.Time
}

// NewFoodFactory creates a factory; now anchors every generated date
func NewFoodFactory(seed int64, now time.Time) *FoodFactory {
	return &FoodFactory{faker: gofakeit.New(seed), now: now.UTC()}
}

var unitsByCategory = map[food.Category][]string{
	food.CategoryFruits:     {"g", "kg", "count"},
	food.CategoryVegetables: {"g", "kg", "count"},
	food.CategoryDairy:      {"ml", "l", "g"},
	food.CategoryGrains:     {"g", "kg"},
	food.CategoryProtein:    {"g", "kg", "count"},
	food.CategoryBeverages:  {"ml", "l"},
	food.CategorySnacks:     {"g", "count"},
	food.CategoryOther:      {"g", "ml"},
}

func (f *FoodFactory) nameFor(c food.Category) string {
	switch c {
	case food.CategoryFruits:
		return f.faker.Fruit()
	case food.CategoryVegetables:
		return f.faker.Vegetable()
	case food.CategorySnacks:
		return f.faker.Snack()
	case food.CategoryBeverages:
		return f.faker.RandomString([]string{"orange juice", "sparkling water", "oat milk", "green tea"})
	case food.CategoryDairy:
		return f.faker.RandomString([]string{"milk", "yogurt", "cheddar", "butter"})
	case food.CategoryGrains:
		return f.faker.RandomString([]string{"rice", "oats", "bread", "pasta"})
	case food.CategoryProtein:
		return f.faker.RandomString([]string{"chicken breast", "eggs", "lentils", "salmon"})
	default:
		return f.faker.RandomString([]string{"olive oil", "flour", "honey"})
	}
}

// Category picks a random category
func (f *FoodFactory) Category() food.Category {
	return food.Categories[f.faker.IntRange(0, len(food.Categories)-1)]
}

// ProfileBuilder provides a fluent interface for building test profiles
type ProfileBuilder struct {
	profile food.UserProfile
}

// Profile starts a realistic profile for a new user
func (f *FoodFactory) Profile() *ProfileBuilder {
	lat := f.faker.Latitude()
	return &ProfileBuilder{profile: food.UserProfile{
		UserID:        uuid.New(),
		CalorieTarget: float64(f.faker.IntRange(1600, 2800)),
		ProteinPct:    25,
		CarbsPct:      50,
		FatPct:        25,
		HouseholdSize: f.faker.IntRange(1, 5),
		Budget: food.Budget{
			Amount: float64(f.faker.IntRange(200, 800)),
			Period: food.BudgetMonthly,
		},
		Location: food.Location{Latitude: &lat},
	}}
}

func (b *ProfileBuilder) WithUserID(id uuid.UUID) *ProfileBuilder {
	b.profile.UserID = id
	return b
}

func (b *ProfileBuilder) WithBudget(amount float64, period food.BudgetPeriod) *ProfileBuilder {
	b.profile.Budget = food.Budget{Amount: amount, Period: period}
	return b
}

func (b *ProfileBuilder) WithHousehold(size int) *ProfileBuilder {
	b.profile.HouseholdSize = size
	return b
}

func (b *ProfileBuilder) WithLatitude(lat float64) *ProfileBuilder {
	b.profile.Location.Latitude = &lat
	return b
}

func (b *ProfileBuilder) WithAvoided(names ...string) *ProfileBuilder {
	b.profile.AvoidedIngredients = append(b.profile.AvoidedIngredients, names...)
	return b
}

// Build returns the profile
func (b *ProfileBuilder) Build() *food.UserProfile {
	p := b.profile
	return &p
}

// InventoryBuilder provides a fluent interface for building inventory records
type InventoryBuilder struct {
	record food.InventoryRecord
}

// Inventory starts a record for userID with a random category and a
// shelf life between one day past and two weeks ahead
func (f *FoodFactory) Inventory(userID uuid.UUID) *InventoryBuilder {
	c := f.Category()
	units := unitsByCategory[c]
	expires := f.now.AddDate(0, 0, f.faker.IntRange(-1, 14))
	return &InventoryBuilder{record: food.InventoryRecord{
		ID:             uuid.New(),
		UserID:         userID,
		Name:           f.nameFor(c),
		Category:       c,
		Quantity:       float64(f.faker.IntRange(1, 5)),
		Unit:           units[f.faker.IntRange(0, len(units)-1)],
		UnitCost:       f.faker.Float64Range(0.5, 8),
		ExpirationDate: &expires,
		CreatedAt:      f.now.AddDate(0, 0, -f.faker.IntRange(1, 10)),
	}}
}

func (b *InventoryBuilder) WithName(name string, category food.Category) *InventoryBuilder {
	b.record.Name = name
	b.record.Category = category
	return b
}

func (b *InventoryBuilder) WithQuantity(quantity float64, unit string) *InventoryBuilder {
	b.record.Quantity = quantity
	b.record.Unit = unit
	return b
}

func (b *InventoryBuilder) WithUnitCost(cost float64) *InventoryBuilder {
	b.record.UnitCost = cost
	return b
}

func (b *InventoryBuilder) ExpiresAt(t time.Time) *InventoryBuilder {
	b.record.ExpirationDate = &t
	return b
}

func (b *InventoryBuilder) NoExpiration() *InventoryBuilder {
	b.record.ExpirationDate = nil
	return b
}

func (b *InventoryBuilder) CreatedAt(t time.Time) *InventoryBuilder {
	b.record.CreatedAt = t
	return b
}

// Build normalizes the quantity and returns the record. Units come from the
// measure table, so normalization cannot fail for factory-made records.
func (b *InventoryBuilder) Build() *food.InventoryRecord {
	r := b.record
	if err := r.Normalize(); err != nil {
		r.BaseQuantity, r.BaseUnit = r.Quantity, measure.DimensionCount
	}
	return &r
}

// ConsumptionBuilder provides a fluent interface for building consumption entries
type ConsumptionBuilder struct {
	entry food.ConsumptionEntry
}

// Consumption starts an entry daysAgo days before now with plausible nutrients
func (f *FoodFactory) Consumption(userID uuid.UUID, daysAgo int) *ConsumptionBuilder {
	c := f.Category()
	units := unitsByCategory[c]
	calories := f.faker.Float64Range(80, 700)
	return &ConsumptionBuilder{entry: food.ConsumptionEntry{
		ID:       uuid.New(),
		UserID:   userID,
		ItemName: f.nameFor(c),
		Category: c,
		Quantity: float64(f.faker.IntRange(1, 3)),
		Unit:     units[0],
		MealSlot: food.MealSlots[f.faker.IntRange(0, len(food.MealSlots)-1)],
		Nutrients: food.NutrientValues{
			food.NutrientCalories: calories,
			food.NutrientProtein:  calories * 0.25 / 4,
			food.NutrientCarbs:    calories * 0.5 / 4,
			food.NutrientFat:      calories * 0.25 / 9,
			food.NutrientFiber:    f.faker.Float64Range(0, 8),
		},
		ConsumedAt: f.now.AddDate(0, 0, -daysAgo).Add(-time.Duration(f.faker.IntRange(0, 10)) * time.Hour),
	}}
}

func (b *ConsumptionBuilder) WithItem(name string, category food.Category) *ConsumptionBuilder {
	b.entry.ItemName = name
	b.entry.Category = category
	return b
}

func (b *ConsumptionBuilder) WithMeal(slot food.MealSlot) *ConsumptionBuilder {
	b.entry.MealSlot = slot
	return b
}

func (b *ConsumptionBuilder) WithNutrients(values food.NutrientValues) *ConsumptionBuilder {
	b.entry.Nutrients = values
	return b
}

func (b *ConsumptionBuilder) At(t time.Time) *ConsumptionBuilder {
	b.entry.ConsumedAt = t
	return b
}

// Build returns the entry
func (b *ConsumptionBuilder) Build() *food.ConsumptionEntry {
	e := b.entry
	return &e
}

// Catalog returns n distinct purchasable options spread across categories
func (f *FoodFactory) Catalog(n int) []food.CatalogOption {
	options := make([]food.CatalogOption, 0, n)
	seen := make(map[string]bool, n)
	for len(options) < n {
		c := food.Categories[len(options)%len(food.Categories)]
		name := f.nameFor(c)
		if seen[name] {
			name = name + " " + f.faker.Adjective()
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		options = append(options, food.CatalogOption{
			Name:          name,
			Category:      c,
			Unit:          unitsByCategory[c][0],
			UnitCost:      f.faker.Float64Range(0.5, 12),
			ShelfLifeDays: f.faker.IntRange(3, 180),
		})
	}
	return options
}

// Household seeds a consistent data set for one user: a profile, n inventory
// records and one to three consumption entries per day over days days.
type Household struct {
	Profile     *food.UserProfile
	Inventory   []*food.InventoryRecord
	Consumption []*food.ConsumptionEntry
}

// Household builds a complete data set for a new user
func (f *FoodFactory) Household(items, days int) *Household {
	h := &Household{Profile: f.Profile().Build()}
	for i := 0; i < items; i++ {
		h.Inventory = append(h.Inventory, f.Inventory(h.Profile.UserID).Build())
	}
	for d := 0; d < days; d++ {
		for j := f.faker.IntRange(1, 3); j > 0; j-- {
			h.Consumption = append(h.Consumption, f.Consumption(h.Profile.UserID, d).Build())
		}
	}
	return h
}
