package gorm

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/alchemorsel/pantry/internal/domain/measure"
	"gorm.io/datatypes"
)

// ProfileToModel converts a domain profile to a GORM model
func ProfileToModel(p *food.UserProfile) *ProfileModel {
	return &ProfileModel{
		UserID:              p.UserID,
		CalorieTarget:       p.CalorieTarget,
		ProteinPct:          p.ProteinPct,
		CarbsPct:            p.CarbsPct,
		FatPct:              p.FatPct,
		HouseholdSize:       p.HouseholdSize,
		BudgetAmount:        p.Budget.Amount,
		BudgetPeriod:        string(p.Budget.Period),
		DietaryRestrictions: toJSON(nonNil(p.DietaryRestrictions)),
		AvoidedIngredients:  toJSON(nonNil(p.AvoidedIngredients)),
		City:                p.Location.City,
		Country:             p.Location.Country,
		Latitude:            p.Location.Latitude,
	}
}

// ModelToProfile converts a GORM model to a domain profile
func ModelToProfile(m *ProfileModel) (*food.UserProfile, error) {
	p := &food.UserProfile{
		UserID:        m.UserID,
		CalorieTarget: m.CalorieTarget,
		ProteinPct:    m.ProteinPct,
		CarbsPct:      m.CarbsPct,
		FatPct:        m.FatPct,
		HouseholdSize: m.HouseholdSize,
		Budget:        food.Budget{Amount: m.BudgetAmount, Period: food.BudgetPeriod(m.BudgetPeriod)},
		Location:      food.Location{City: m.City, Country: m.Country, Latitude: m.Latitude},
	}
	if err := fromJSON(m.DietaryRestrictions, &p.DietaryRestrictions); err != nil {
		return nil, err
	}
	if err := fromJSON(m.AvoidedIngredients, &p.AvoidedIngredients); err != nil {
		return nil, err
	}
	return p, nil
}

// InventoryToModel converts a domain inventory record to a GORM model
func InventoryToModel(r *food.InventoryRecord) *InventoryItemModel {
	var expires *time.Time
	if r.ExpirationDate != nil {
		t := r.ExpirationDate.UTC()
		expires = &t
	}
	return &InventoryItemModel{
		ID:             r.ID,
		UserID:         r.UserID,
		Name:           r.Name,
		Category:       string(r.Category),
		Quantity:       r.Quantity,
		Unit:           r.Unit,
		BaseQuantity:   r.BaseQuantity,
		BaseUnit:       string(r.BaseUnit),
		UnitCost:       r.UnitCost,
		ExpirationDate: expires,
		CreatedAt:      r.CreatedAt,
	}
}

// ModelToInventory converts a GORM model to a domain inventory record
func ModelToInventory(m *InventoryItemModel) food.InventoryRecord {
	category, _ := food.ParseCategory(m.Category)
	return food.InventoryRecord{
		ID:             m.ID,
		UserID:         m.UserID,
		Name:           m.Name,
		Category:       category,
		Quantity:       m.Quantity,
		Unit:           m.Unit,
		BaseQuantity:   m.BaseQuantity,
		BaseUnit:       measure.Dimension(m.BaseUnit),
		UnitCost:       m.UnitCost,
		ExpirationDate: m.ExpirationDate,
		CreatedAt:      m.CreatedAt,
	}
}

// CatalogToModel converts a catalog option to a GORM model
func CatalogToModel(c food.CatalogOption) *CatalogItemModel {
	return &CatalogItemModel{
		Name:          c.Name,
		Category:      string(c.Category),
		Unit:          c.Unit,
		UnitCost:      c.UnitCost,
		ShelfLifeDays: c.ShelfLifeDays,
	}
}

// ModelToCatalog converts a GORM model to a catalog option
func ModelToCatalog(m *CatalogItemModel) food.CatalogOption {
	category, _ := food.ParseCategory(m.Category)
	return food.CatalogOption{
		Name:          m.Name,
		Category:      category,
		Unit:          m.Unit,
		UnitCost:      m.UnitCost,
		ShelfLifeDays: m.ShelfLifeDays,
	}
}

// ConsumptionToModel converts a consumption entry to a GORM model
func ConsumptionToModel(e *food.ConsumptionEntry) *ConsumptionModel {
	nutrients := e.Nutrients
	if nutrients == nil {
		nutrients = food.NutrientValues{}
	}
	return &ConsumptionModel{
		ID:         e.ID,
		UserID:     e.UserID,
		ConsumedAt: e.ConsumedAt.UTC(),
		ItemName:   e.ItemName,
		Category:   string(e.Category),
		Quantity:   e.Quantity,
		Unit:       e.Unit,
		MealSlot:   string(e.MealSlot),
		Nutrients:  toJSON(nutrients),
	}
}

// ModelToConsumption converts a GORM model to a consumption entry
func ModelToConsumption(m *ConsumptionModel) (food.ConsumptionEntry, error) {
	category, _ := food.ParseCategory(m.Category)
	e := food.ConsumptionEntry{
		ID:         m.ID,
		UserID:     m.UserID,
		ItemName:   m.ItemName,
		Category:   category,
		Quantity:   m.Quantity,
		Unit:       m.Unit,
		MealSlot:   food.MealSlot(m.MealSlot),
		ConsumedAt: m.ConsumedAt.UTC(),
	}
	if err := fromJSON(m.Nutrients, &e.Nutrients); err != nil {
		return food.ConsumptionEntry{}, err
	}
	return e, nil
}

// ModelToDayTotals converts a stored daily total row
func ModelToDayTotals(m *DailyNutrientTotalModel) (food.DayTotals, error) {
	t := food.DayTotals{Date: m.Day, Entries: m.Entries, Totals: food.NutrientValues{}}
	if err := fromJSON(m.Totals, &t.Totals); err != nil {
		return food.DayTotals{}, err
	}
	return t, nil
}

func toJSON(v any) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(raw)
}

func fromJSON(raw datatypes.JSON, out any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode json column: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
