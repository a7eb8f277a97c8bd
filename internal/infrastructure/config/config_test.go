package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alchemorsel/pantry/internal/domain/food"
	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "app:\n  name: Pantry\n")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "none", cfg.AI.Provider)
	assert.Equal(t, 500*time.Millisecond, cfg.Pricing.Delay)
	assert.Equal(t, 50, cfg.Analysis.CatalogSampleSize)
	assert.Equal(t, 6*time.Hour, cfg.AI.CacheTTL)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "ai:\n  provider: none\n")
	t.Setenv("PANTRY_AI_PROVIDER", "ollama")
	t.Setenv("PANTRY_SERVER_PORT", "9191")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.AI.Provider)
	assert.Equal(t, 9191, cfg.Server.Port)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown driver", body: "database:\n  driver: oracle\n"},
		{name: "unknown provider", body: "ai:\n  provider: anthropic\n"},
		{name: "pricing without url", body: "pricing:\n  enabled: true\n"},
		{name: "unknown category override", body: "analysis:\n  categories:\n    gadgets:\n      shelf_life_days: 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, t.TempDir(), tt.body))
			assert.Error(t, err)
		})
	}
}

func TestCategoryTable_MergesOverrides(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
analysis:
  categories:
    dairy:
      shelf_life_days: 21
      seasonal:
        warm:
          multiplier: 1.5
          rationale: "Hot kitchen"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	table, err := cfg.CategoryTable()

	require.NoError(t, err)
	defaults := food.DefaultCategoryTable()
	assert.Equal(t, 21, table[food.CategoryDairy].ShelfLifeDays)
	assert.Equal(t, defaults[food.CategoryGrains].ShelfLifeDays, table[food.CategoryGrains].ShelfLifeDays)
	mult, why := table.SeasonalMultiplier(food.CategoryDairy, food.BandWarm)
	assert.Equal(t, 1.5, mult)
	assert.Equal(t, "Hot kitchen", why)
}

func TestChangeHandler(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "analysis:\n  catalog_sample_size: 10\n")
	v := newViper(path)
	require.NoError(t, v.ReadInConfig())

	var got *Config
	handler := changeHandler(v, zaptest.NewLogger(t), func(c *Config) { got = c })

	t.Run("valid edit is delivered", func(t *testing.T) {
		writeConfig(t, dir, "analysis:\n  catalog_sample_size: 20\n")
		require.NoError(t, v.ReadInConfig())

		handler(fsnotify.Event{Name: path, Op: fsnotify.Write})

		require.NotNil(t, got)
		assert.Equal(t, 20, got.Analysis.CatalogSampleSize)
	})

	t.Run("invalid edit is ignored", func(t *testing.T) {
		got = nil
		writeConfig(t, dir, "database:\n  driver: oracle\n")
		require.NoError(t, v.ReadInConfig())

		handler(fsnotify.Event{Name: path, Op: fsnotify.Write})

		assert.Nil(t, got)
	})
}
