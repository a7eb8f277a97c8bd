package mongo

import (
	"time"

	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/alchemorsel/pantry/internal/domain/measure"
	"github.com/google/uuid"
)

const (
	profilesCollection    = "user_profiles"
	inventoryCollection   = "inventory_items"
	catalogCollection     = "catalog_items"
	consumptionCollection = "consumption_entries"
	totalsCollection      = "daily_nutrient_totals"
)

const dayLayout = "2006-01-02"

type profileDoc struct {
	UserID              string   `bson:"_id"`
	CalorieTarget       float64  `bson:"calorie_target"`
	ProteinPct          float64  `bson:"protein_pct"`
	CarbsPct            float64  `bson:"carbs_pct"`
	FatPct              float64  `bson:"fat_pct"`
	HouseholdSize       int      `bson:"household_size"`
	BudgetAmount        float64  `bson:"budget_amount"`
	BudgetPeriod        string   `bson:"budget_period"`
	DietaryRestrictions []string `bson:"dietary_restrictions"`
	AvoidedIngredients  []string `bson:"avoided_ingredients"`
	City                string   `bson:"city,omitempty"`
	Country             string   `bson:"country,omitempty"`
	Latitude            *float64 `bson:"latitude,omitempty"`
}

type inventoryDoc struct {
	ID             string     `bson:"_id"`
	UserID         string     `bson:"user_id"`
	Name           string     `bson:"name"`
	Category       string     `bson:"category"`
	Quantity       float64    `bson:"quantity"`
	Unit           string     `bson:"unit"`
	BaseQuantity   float64    `bson:"base_quantity"`
	BaseUnit       string     `bson:"base_unit"`
	UnitCost       float64    `bson:"unit_cost"`
	ExpirationDate *time.Time `bson:"expiration_date,omitempty"`
	CreatedAt      time.Time  `bson:"created_at"`
}

type catalogDoc struct {
	NameKey       string    `bson:"_id"`
	Name          string    `bson:"name"`
	Category      string    `bson:"category"`
	Unit          string    `bson:"unit"`
	UnitCost      float64   `bson:"unit_cost"`
	ShelfLifeDays int       `bson:"shelf_life_days"`
	InsertedAt    time.Time `bson:"inserted_at"`
}

type consumptionDoc struct {
	ID         string             `bson:"_id"`
	UserID     string             `bson:"user_id"`
	ItemName   string             `bson:"item_name"`
	Category   string             `bson:"category"`
	Quantity   float64            `bson:"quantity"`
	Unit       string             `bson:"unit"`
	MealSlot   string             `bson:"meal_slot"`
	Nutrients  map[string]float64 `bson:"nutrients,omitempty"`
	ConsumedAt time.Time          `bson:"consumed_at"`
	Day        string             `bson:"day"`
}

type totalsDoc struct {
	ID      string             `bson:"_id"`
	UserID  string             `bson:"user_id"`
	Day     string             `bson:"day"`
	Entries int                `bson:"entries"`
	Totals  map[string]float64 `bson:"totals"`
}

func totalsID(userID uuid.UUID, day string) string {
	return userID.String() + ":" + day
}

func toProfileDoc(p *food.UserProfile) profileDoc {
	return profileDoc{
		UserID:              p.UserID.String(),
		CalorieTarget:       p.CalorieTarget,
		ProteinPct:          p.ProteinPct,
		CarbsPct:            p.CarbsPct,
		FatPct:              p.FatPct,
		HouseholdSize:       p.HouseholdSize,
		BudgetAmount:        p.Budget.Amount,
		BudgetPeriod:        string(p.Budget.Period),
		DietaryRestrictions: nonNil(p.DietaryRestrictions),
		AvoidedIngredients:  nonNil(p.AvoidedIngredients),
		City:                p.Location.City,
		Country:             p.Location.Country,
		Latitude:            p.Location.Latitude,
	}
}

func (d profileDoc) toDomain() (*food.UserProfile, error) {
	id, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, err
	}
	return &food.UserProfile{
		UserID:              id,
		CalorieTarget:       d.CalorieTarget,
		ProteinPct:          d.ProteinPct,
		CarbsPct:            d.CarbsPct,
		FatPct:              d.FatPct,
		HouseholdSize:       d.HouseholdSize,
		Budget:              food.Budget{Amount: d.BudgetAmount, Period: food.BudgetPeriod(d.BudgetPeriod)},
		DietaryRestrictions: d.DietaryRestrictions,
		AvoidedIngredients:  d.AvoidedIngredients,
		Location:            food.Location{City: d.City, Country: d.Country, Latitude: d.Latitude},
	}, nil
}

func toInventoryDoc(r *food.InventoryRecord) inventoryDoc {
	doc := inventoryDoc{
		ID:           r.ID.String(),
		UserID:       r.UserID.String(),
		Name:         r.Name,
		Category:     string(r.Category),
		Quantity:     r.Quantity,
		Unit:         r.Unit,
		BaseQuantity: r.BaseQuantity,
		BaseUnit:     string(r.BaseUnit),
		UnitCost:     r.UnitCost,
		CreatedAt:    r.CreatedAt.UTC(),
	}
	if r.ExpirationDate != nil {
		exp := r.ExpirationDate.UTC()
		doc.ExpirationDate = &exp
	}
	return doc
}

func (d inventoryDoc) toDomain() (food.InventoryRecord, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return food.InventoryRecord{}, err
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return food.InventoryRecord{}, err
	}
	return food.InventoryRecord{
		ID:             id,
		UserID:         userID,
		Name:           d.Name,
		Category:       food.Category(d.Category),
		Quantity:       d.Quantity,
		Unit:           d.Unit,
		BaseQuantity:   d.BaseQuantity,
		BaseUnit:       measure.Dimension(d.BaseUnit),
		UnitCost:       d.UnitCost,
		ExpirationDate: d.ExpirationDate,
		CreatedAt:      d.CreatedAt,
	}, nil
}

func (d catalogDoc) toDomain() food.CatalogOption {
	return food.CatalogOption{
		Name:          d.Name,
		Category:      food.Category(d.Category),
		Unit:          d.Unit,
		UnitCost:      d.UnitCost,
		ShelfLifeDays: d.ShelfLifeDays,
	}
}

func toConsumptionDoc(e *food.ConsumptionEntry) consumptionDoc {
	at := e.ConsumedAt.UTC()
	return consumptionDoc{
		ID:         e.ID.String(),
		UserID:     e.UserID.String(),
		ItemName:   e.ItemName,
		Category:   string(e.Category),
		Quantity:   e.Quantity,
		Unit:       e.Unit,
		MealSlot:   string(e.MealSlot),
		Nutrients:  fromNutrients(e.Nutrients),
		ConsumedAt: at,
		Day:        at.Format(dayLayout),
	}
}

func (d consumptionDoc) toDomain() (food.ConsumptionEntry, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return food.ConsumptionEntry{}, err
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return food.ConsumptionEntry{}, err
	}
	return food.ConsumptionEntry{
		ID:         id,
		UserID:     userID,
		ItemName:   d.ItemName,
		Category:   food.Category(d.Category),
		Quantity:   d.Quantity,
		Unit:       d.Unit,
		MealSlot:   food.MealSlot(d.MealSlot),
		Nutrients:  toNutrients(d.Nutrients),
		ConsumedAt: d.ConsumedAt.UTC(),
	}, nil
}

func (d totalsDoc) toDomain() food.DayTotals {
	return food.DayTotals{Date: d.Day, Entries: d.Entries, Totals: toNutrients(d.Totals)}
}

func fromNutrients(v food.NutrientValues) map[string]float64 {
	if v == nil {
		return nil
	}
	out := make(map[string]float64, len(v))
	for k, val := range v {
		out[string(k)] = val
	}
	return out
}

func toNutrients(m map[string]float64) food.NutrientValues {
	if m == nil {
		return nil
	}
	out := make(food.NutrientValues, len(m))
	for k, val := range m {
		out[food.Nutrient(k)] = val
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
