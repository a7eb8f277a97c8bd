// Package testutils provides container helpers and data factories for tests
package testutils

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alchemorsel/pantry/internal/infrastructure/config"
	"github.com/alchemorsel/pantry/internal/infrastructure/persistence/postgres"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
)

// TestDatabase wraps a disposable PostgreSQL container
type TestDatabase struct {
	Container testcontainers.Container
	Config    *config.Config
	Manager   *postgres.ConnectionManager
}

// SetupTestDatabase starts PostgreSQL, migrates the schema and returns a
// connection manager bound to it. The container is removed on cleanup.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "pantry_test",
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Database.Driver = "postgres"
	cfg.Database.Host = host
	cfg.Database.Port = port.Int()
	cfg.Database.Database = "pantry_test"
	cfg.Database.Username = "test"
	cfg.Database.Password = "test"
	cfg.Database.SSLMode = "disable"
	cfg.Database.AutoMigrate = true
	cfg.Database.ReadReplicas = nil

	manager, err := postgres.NewConnectionManager(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err, "failed to connect to postgres container")
	t.Cleanup(func() { _ = manager.Close() })

	return &TestDatabase{Container: container, Config: cfg, Manager: manager}
}

// Truncate empties every pantry table between test cases
func (td *TestDatabase) Truncate(t *testing.T) {
	t.Helper()
	err := td.Manager.GetDB().Exec(
		"TRUNCATE TABLE consumption_entries, daily_nutrient_totals, inventory_items, catalog_items, user_profiles CASCADE",
	).Error
	require.NoError(t, err)
}

// SetupTestMongo starts MongoDB and returns its connection URI
func SetupTestMongo(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start mongo container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("mongodb://%s:%s", host, port.Port())
}

// SetupTestRedis starts Redis and returns its host:port address
func SetupTestRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}
