package food

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/alchemorsel/pantry/internal/domain/measure"
	"github.com/google/uuid"
)

// InventoryRecord is one item a user currently holds.
type InventoryRecord struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Name           string
	Category       Category
	Quantity       float64
	Unit           string
	BaseQuantity   float64
	BaseUnit       measure.Dimension
	UnitCost       float64
	ExpirationDate *time.Time
	CreatedAt      time.Time
}

// NewInventoryRecord validates input and computes the base quantity.
func NewInventoryRecord(userID uuid.UUID, name string, category Category, quantity float64, unit string, unitCost float64, expires *time.Time, now time.Time) (*InventoryRecord, error) {
	r := &InventoryRecord{
		ID:             uuid.New(),
		UserID:         userID,
		Name:           strings.TrimSpace(name),
		Category:       category,
		Quantity:       quantity,
		Unit:           unit,
		UnitCost:       unitCost,
		ExpirationDate: expires,
		CreatedAt:      now,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := r.Normalize(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks the user-entered fields.
func (r *InventoryRecord) Validate() error {
	if r.Name == "" {
		return ErrEmptyName
	}
	if r.Quantity < 0 {
		return ErrNegativeQuantity
	}
	if r.UnitCost < 0 {
		return ErrNegativeCost
	}
	if !r.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

// Normalize recomputes BaseQuantity and BaseUnit from Quantity and Unit.
// The base values are never accepted from input.
func (r *InventoryRecord) Normalize() error {
	base, dim, err := measure.ToBase(r.Quantity, r.Unit)
	if err != nil {
		return fmt.Errorf("inventory item %q: %w", r.Name, err)
	}
	r.BaseQuantity = base
	r.BaseUnit = dim
	return nil
}

// UpdateQuantity edits the quantity and keeps the base quantity in step.
func (r *InventoryRecord) UpdateQuantity(quantity float64, unit string) error {
	if quantity < 0 {
		return ErrNegativeQuantity
	}
	prevQty, prevUnit := r.Quantity, r.Unit
	r.Quantity, r.Unit = quantity, unit
	if err := r.Normalize(); err != nil {
		r.Quantity, r.Unit = prevQty, prevUnit
		return err
	}
	return nil
}

// TotalCost is the value of the whole holding.
func (r InventoryRecord) TotalCost() float64 {
	return r.Quantity * r.UnitCost
}

// CanExpire reports whether the record carries an expiration date.
func (r InventoryRecord) CanExpire() bool {
	return r.ExpirationDate != nil
}

// DaysUntilExpiration counts calendar days from now to the expiration date.
// Expired items yield zero or a negative number.
func (r InventoryRecord) DaysUntilExpiration(now time.Time) (int, bool) {
	if r.ExpirationDate == nil {
		return 0, false
	}
	return DaysBetween(now, *r.ExpirationDate), true
}

// AgeDays counts calendar days since the record was created.
func (r InventoryRecord) AgeDays(now time.Time) int {
	if r.CreatedAt.IsZero() {
		return 0
	}
	age := DaysBetween(r.CreatedAt, now)
	if age < 0 {
		return 0
	}
	return age
}

// CatalogOption is read-only reference data for purchasable items.
type CatalogOption struct {
	Name          string
	Category      Category
	Unit          string
	UnitCost      float64
	ShelfLifeDays int
}

// Nutrient identifies a tracked macro or micronutrient.
type Nutrient string

const (
	NutrientCalories Nutrient = "calories"
	NutrientProtein  Nutrient = "protein"
	NutrientCarbs    Nutrient = "carbs"
	NutrientFat      Nutrient = "fat"
	NutrientFiber    Nutrient = "fiber"
	NutrientSugar    Nutrient = "sugar"
	NutrientSodium   Nutrient = "sodium"
	NutrientCalcium  Nutrient = "calcium"
	NutrientIron     Nutrient = "iron"
	NutrientVitaminC Nutrient = "vitamin_c"
)

// NutrientValues holds the nutrients that were actually recorded; absent keys
// mean "not recorded", not zero.
type NutrientValues map[Nutrient]float64

// Add sums other into v.
func (v NutrientValues) Add(other NutrientValues) {
	for k, val := range other {
		v[k] += val
	}
}

// ConsumptionEntry is one logged food or drink.
type ConsumptionEntry struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	ItemName   string
	Category   Category
	Quantity   float64
	Unit       string
	MealSlot   MealSlot
	Nutrients  NutrientValues
	ConsumedAt time.Time
}

// BaseQuantity normalizes the logged quantity.
func (e ConsumptionEntry) BaseQuantity() (float64, measure.Dimension, error) {
	base, dim, err := measure.ToBase(e.Quantity, e.Unit)
	if err != nil {
		return 0, "", fmt.Errorf("consumption entry %q: %w", e.ItemName, err)
	}
	return base, dim, nil
}

// DayKey is the calendar date of the entry.
func (e ConsumptionEntry) DayKey() string {
	return e.ConsumedAt.Format("2006-01-02")
}

// DayTotals is the pure per-day sum of nutrient values.
type DayTotals struct {
	Date    string
	Entries int
	Totals  NutrientValues
}

// DailyTotals groups entries by calendar day and sums their nutrients.
// The result is ordered by date ascending.
func DailyTotals(entries []ConsumptionEntry) []DayTotals {
	byDay := make(map[string]*DayTotals)
	for _, e := range entries {
		key := e.DayKey()
		day, ok := byDay[key]
		if !ok {
			day = &DayTotals{Date: key, Totals: NutrientValues{}}
			byDay[key] = day
		}
		day.Entries++
		day.Totals.Add(e.Nutrients)
	}

	out := make([]DayTotals, 0, len(byDay))
	for _, day := range byDay {
		out = append(out, *day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// DaysBetween counts calendar days from a to b in a's location.
func DaysBetween(a, b time.Time) int {
	loc := a.Location()
	b = b.In(loc)
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, loc)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, loc)
	return int(math.Round(db.Sub(da).Hours() / 24))
}
