package sqlite

import (
	"context"
	"testing"
	"time"

	gormstore "github.com/alchemorsel/pantry/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/pantry/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm/logger"
)

func TestSetupAndSeed(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)

	db, err := SetupDatabase(":memory:", logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	store := gormstore.NewFoodRepository(db, zaptest.NewLogger(t))

	require.NoError(t, SeedDatabase(ctx, store, now))
	// Seeding twice must not duplicate rows.
	require.NoError(t, SeedDatabase(ctx, store, now))

	profile, err := store.FindProfile(ctx, DemoUserID)
	require.NoError(t, err)
	assert.Equal(t, 2, profile.HouseholdSize)

	items, err := store.ListInventory(ctx, DemoUserID, outbound.InventoryFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 6)

	entries, err := store.ListConsumption(ctx, DemoUserID, now.AddDate(0, 0, -30), now)
	require.NoError(t, err)
	assert.Len(t, entries, 14*3+4)

	totals, err := store.ListDailyTotals(ctx, DemoUserID, now.AddDate(0, 0, -14), now)
	require.NoError(t, err)
	assert.Len(t, totals, 14)
}
