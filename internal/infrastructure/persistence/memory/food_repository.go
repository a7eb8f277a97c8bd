package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/alchemorsel/pantry/internal/ports/outbound"
	"github.com/google/uuid"
)

// FoodRepository keeps pantry data in process memory. It backs local runs and
// tests; every read returns copies.
type FoodRepository struct {
	mu          sync.RWMutex
	profiles    map[uuid.UUID]food.UserProfile
	inventory   map[uuid.UUID]map[uuid.UUID]food.InventoryRecord
	catalog     []food.CatalogOption
	consumption map[uuid.UUID]map[uuid.UUID]food.ConsumptionEntry
	totals      map[uuid.UUID]map[string]food.DayTotals
}

// NewFoodRepository creates an empty repository.
func NewFoodRepository() *FoodRepository {
	return &FoodRepository{
		profiles:    make(map[uuid.UUID]food.UserProfile),
		inventory:   make(map[uuid.UUID]map[uuid.UUID]food.InventoryRecord),
		consumption: make(map[uuid.UUID]map[uuid.UUID]food.ConsumptionEntry),
		totals:      make(map[uuid.UUID]map[string]food.DayTotals),
	}
}

var _ outbound.FoodRepository = (*FoodRepository)(nil)

// FindProfile returns the stored profile or food.ErrUserNotFound.
func (r *FoodRepository) FindProfile(ctx context.Context, userID uuid.UUID) (*food.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[userID]
	if !ok {
		return nil, food.ErrUserNotFound
	}
	p.DietaryRestrictions = append([]string(nil), p.DietaryRestrictions...)
	p.AvoidedIngredients = append([]string(nil), p.AvoidedIngredients...)
	return &p, nil
}

// ListInventory returns the user's items ordered by name.
func (r *FoodRepository) ListInventory(ctx context.Context, userID uuid.UUID, filter outbound.InventoryFilter) ([]food.InventoryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]food.InventoryRecord, 0, len(r.inventory[userID]))
	for _, rec := range r.inventory[userID] {
		if filter.ExpirableOnly && !rec.CanExpire() {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// SampleCatalog returns up to limit catalog options in insertion order.
func (r *FoodRepository) SampleCatalog(ctx context.Context, limit int) ([]food.CatalogOption, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.catalog)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]food.CatalogOption, n)
	copy(out, r.catalog[:n])
	return out, nil
}

// ListConsumption returns entries with from <= ConsumedAt < to, oldest first.
func (r *FoodRepository) ListConsumption(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]food.ConsumptionEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]food.ConsumptionEntry, 0)
	for _, e := range r.consumption[userID] {
		if e.ConsumedAt.Before(from) || !e.ConsumedAt.Before(to) {
			continue
		}
		out = append(out, cloneEntry(e))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ConsumedAt.Before(out[j].ConsumedAt)
	})
	return out, nil
}

// ListDailyTotals returns the stored per-day sums for days in [from, to].
func (r *FoodRepository) ListDailyTotals(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]food.DayTotals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lo, hi := from.Format(dayLayout), to.Format(dayLayout)
	out := make([]food.DayTotals, 0, len(r.totals[userID]))
	for day, t := range r.totals[userID] {
		if day < lo || day > hi {
			continue
		}
		t.Totals = cloneValues(t.Totals)
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// SaveProfile validates and stores a profile.
func (r *FoodRepository) SaveProfile(ctx context.Context, profile *food.UserProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.UserID] = *profile
	return nil
}

// SaveInventory normalizes and upserts an inventory record.
func (r *FoodRepository) SaveInventory(ctx context.Context, record *food.InventoryRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	if err := record.Normalize(); err != nil {
		return err
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inventory[record.UserID] == nil {
		r.inventory[record.UserID] = make(map[uuid.UUID]food.InventoryRecord)
	}
	r.inventory[record.UserID][record.ID] = *record
	return nil
}

// DeleteInventory removes an item; deleting a missing item is not an error.
func (r *FoodRepository) DeleteInventory(ctx context.Context, userID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inventory[userID], id)
	return nil
}

// SaveCatalog upserts catalog options by case-insensitive name.
func (r *FoodRepository) SaveCatalog(ctx context.Context, options []food.CatalogOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	index := make(map[string]int, len(r.catalog))
	for i, c := range r.catalog {
		index[strings.ToLower(c.Name)] = i
	}
	for _, opt := range options {
		if !opt.Category.Valid() {
			return food.ErrInvalidCategory
		}
		key := strings.ToLower(opt.Name)
		if i, ok := index[key]; ok {
			r.catalog[i] = opt
			continue
		}
		index[key] = len(r.catalog)
		r.catalog = append(r.catalog, opt)
	}
	return nil
}

// LogConsumption stores an entry and recomputes that day's totals.
func (r *FoodRepository) LogConsumption(ctx context.Context, entry *food.ConsumptionEntry) error {
	if _, _, err := entry.BaseQuantity(); err != nil {
		return err
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.consumption[entry.UserID] == nil {
		r.consumption[entry.UserID] = make(map[uuid.UUID]food.ConsumptionEntry)
	}
	prev, existed := r.consumption[entry.UserID][entry.ID]
	r.consumption[entry.UserID][entry.ID] = cloneEntry(*entry)

	r.recomputeDay(entry.UserID, entry.DayKey())
	if existed && prev.DayKey() != entry.DayKey() {
		r.recomputeDay(entry.UserID, prev.DayKey())
	}
	return nil
}

// DeleteConsumption removes an entry and recomputes that day's totals.
func (r *FoodRepository) DeleteConsumption(ctx context.Context, userID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.consumption[userID][id]
	if !ok {
		return nil
	}
	delete(r.consumption[userID], id)
	r.recomputeDay(userID, e.DayKey())
	return nil
}

// recomputeDay must be called with the write lock held.
func (r *FoodRepository) recomputeDay(userID uuid.UUID, day string) {
	var entries []food.ConsumptionEntry
	for _, e := range r.consumption[userID] {
		if e.DayKey() == day {
			entries = append(entries, e)
		}
	}
	if r.totals[userID] == nil {
		r.totals[userID] = make(map[string]food.DayTotals)
	}
	totals := food.DailyTotals(entries)
	if len(totals) == 0 {
		delete(r.totals[userID], day)
		return
	}
	r.totals[userID][day] = totals[0]
}

const dayLayout = "2006-01-02"

func cloneEntry(e food.ConsumptionEntry) food.ConsumptionEntry {
	e.Nutrients = cloneValues(e.Nutrients)
	return e
}

func cloneValues(v food.NutrientValues) food.NutrientValues {
	if v == nil {
		return nil
	}
	out := make(food.NutrientValues, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}
