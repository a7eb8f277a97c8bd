// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/google/uuid"
)

// InventoryFilter narrows an inventory query
type InventoryFilter struct {
	// ExpirableOnly keeps only records carrying an expiration date
	ExpirableOnly bool
}

// FoodStore is the read side of the document store the pipelines aggregate from.
// Implementations return food.ErrUserNotFound when the profile does not exist
// and empty slices, never nil errors, when a user simply has no data.
type FoodStore interface {
	FindProfile(ctx context.Context, userID uuid.UUID) (*food.UserProfile, error)
	ListInventory(ctx context.Context, userID uuid.UUID, filter InventoryFilter) ([]food.InventoryRecord, error)
	SampleCatalog(ctx context.Context, limit int) ([]food.CatalogOption, error)
	// ListConsumption returns entries with from <= ConsumedAt < to, ordered by date ascending
	ListConsumption(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]food.ConsumptionEntry, error)
}

// FoodWriter is the write side used by seeding and by the owning user's edits.
// Writers recompute base quantities and daily totals themselves.
type FoodWriter interface {
	SaveProfile(ctx context.Context, profile *food.UserProfile) error
	SaveInventory(ctx context.Context, record *food.InventoryRecord) error
	DeleteInventory(ctx context.Context, userID, id uuid.UUID) error
	SaveCatalog(ctx context.Context, options []food.CatalogOption) error
	LogConsumption(ctx context.Context, entry *food.ConsumptionEntry) error
	DeleteConsumption(ctx context.Context, userID, id uuid.UUID) error
}

// DailyTotalsReader exposes the stored per-day nutrient sums. Writers keep
// them equal to food.DailyTotals over that day's entries.
type DailyTotalsReader interface {
	ListDailyTotals(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]food.DayTotals, error)
}

// FoodRepository is a full read/write store
type FoodRepository interface {
	FoodStore
	FoodWriter
	DailyTotalsReader
}

// ErrCacheMiss is returned by CacheRepository.Get for absent or expired keys
var ErrCacheMiss = errors.New("cache miss")

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// PriceQuote is a market price for one item
type PriceQuote struct {
	Item      string
	Store     string
	UnitPrice float64
	Unit      string
	FetchedAt time.Time
}

// PriceSource is the external price-comparison collaborator
type PriceSource interface {
	Quote(ctx context.Context, item, unit string) (*PriceQuote, error)
}
