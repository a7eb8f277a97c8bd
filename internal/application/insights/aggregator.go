package insights

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/alchemorsel/pantry/internal/infrastructure/monitoring"
	"github.com/alchemorsel/pantry/internal/ports/outbound"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Catalog sample bounds.
const (
	DefaultCatalogSample = 50
	MaxCatalogSample     = 200
)

// Bounds is the allowed analysis window for one pipeline.
type Bounds struct {
	Min, Max, Default int
}

// Clamp applies the bounds; zero or negative selects the default.
func (b Bounds) Clamp(days int) int {
	if days <= 0 {
		days = b.Default
	}
	if days < b.Min {
		return b.Min
	}
	if days > b.Max {
		return b.Max
	}
	return days
}

// Scope says which collections a pipeline needs.
type Scope struct {
	Inventory     bool
	ExpirableOnly bool
	Catalog       bool
	Consumption   bool
}

// Snapshot is the analysis-ready input of one request.
type Snapshot struct {
	UserID      uuid.UUID
	Now         time.Time
	WindowDays  int
	Profile     food.UserProfile
	Table       food.CategoryTable
	Inventory   []food.InventoryRecord
	Catalog     []food.CatalogOption
	Consumption []food.ConsumptionEntry
}

// TableStore holds the current category table. It is swapped atomically on
// config reload.
type TableStore struct {
	v atomic.Pointer[food.CategoryTable]
}

// NewTableStore creates a store holding t, or the defaults when t is nil.
func NewTableStore(t food.CategoryTable) *TableStore {
	s := &TableStore{}
	s.Store(t)
	return s
}

// Load returns the current table.
func (s *TableStore) Load() food.CategoryTable {
	if s == nil {
		return food.DefaultCategoryTable()
	}
	if t := s.v.Load(); t != nil {
		return *t
	}
	return food.DefaultCategoryTable()
}

// Store replaces the current table.
func (s *TableStore) Store(t food.CategoryTable) {
	if t == nil {
		t = food.DefaultCategoryTable()
	}
	s.v.Store(&t)
}

// Aggregator pulls a user's records from the food store.
type Aggregator struct {
	store        outbound.FoodStore
	tables       *TableStore
	catalogLimit int
	metrics      *monitoring.MetricsCollector
	logger       *zap.Logger
}

// NewAggregator creates an aggregator. catalogLimit is clamped to
// [1, MaxCatalogSample]; zero selects DefaultCatalogSample.
func NewAggregator(store outbound.FoodStore, tables *TableStore, catalogLimit int, metrics *monitoring.MetricsCollector, logger *zap.Logger) *Aggregator {
	switch {
	case catalogLimit <= 0:
		catalogLimit = DefaultCatalogSample
	case catalogLimit > MaxCatalogSample:
		catalogLimit = MaxCatalogSample
	}
	return &Aggregator{
		store:        store,
		tables:       tables,
		catalogLimit: catalogLimit,
		metrics:      metrics,
		logger:       logger.Named("aggregator"),
	}
}

// Load reads the profile and the collections named by scope. windowDays must
// already be clamped. A user with no data gets empty collections; a missing
// user yields food.ErrUserNotFound.
func (a *Aggregator) Load(ctx context.Context, userID uuid.UUID, windowDays int, scope Scope, now time.Time) (*Snapshot, error) {
	start := time.Now()
	profile, err := a.store.FindProfile(ctx, userID)
	a.metrics.StoreQuery("find_profile", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("failed to load profile: %w", food.ErrUserNotFound)
	}

	snap := &Snapshot{
		UserID:      userID,
		Now:         now,
		WindowDays:  windowDays,
		Profile:     profile.WithDefaults(),
		Table:       a.tables.Load(),
		Inventory:   []food.InventoryRecord{},
		Catalog:     []food.CatalogOption{},
		Consumption: []food.ConsumptionEntry{},
	}

	if scope.Inventory {
		start = time.Now()
		inv, err := a.store.ListInventory(ctx, userID, outbound.InventoryFilter{ExpirableOnly: scope.ExpirableOnly})
		a.metrics.StoreQuery("list_inventory", time.Since(start))
		if err != nil {
			return nil, fmt.Errorf("failed to load inventory: %w", err)
		}
		if inv != nil {
			snap.Inventory = inv
		}
	}

	if scope.Catalog {
		start = time.Now()
		cat, err := a.store.SampleCatalog(ctx, a.catalogLimit)
		a.metrics.StoreQuery("sample_catalog", time.Since(start))
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		if len(cat) > a.catalogLimit {
			cat = cat[:a.catalogLimit]
		}
		if cat != nil {
			snap.Catalog = cat
		}
	}

	if scope.Consumption {
		from := now.AddDate(0, 0, -windowDays)
		start = time.Now()
		entries, err := a.store.ListConsumption(ctx, userID, from, now)
		a.metrics.StoreQuery("list_consumption", time.Since(start))
		if err != nil {
			return nil, fmt.Errorf("failed to load consumption: %w", err)
		}
		if entries != nil {
			sort.SliceStable(entries, func(i, j int) bool {
				return entries[i].ConsumedAt.Before(entries[j].ConsumedAt)
			})
			snap.Consumption = entries
		}
	}

	a.logger.Debug("Snapshot loaded",
		zap.String("user_id", userID.String()),
		zap.Int("window_days", windowDays),
		zap.Int("inventory", len(snap.Inventory)),
		zap.Int("catalog", len(snap.Catalog)),
		zap.Int("consumption", len(snap.Consumption)),
	)
	return snap, nil
}
