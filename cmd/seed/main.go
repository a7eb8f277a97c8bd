// Package main seeds the configured store with the demo household
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/alchemorsel/pantry/internal/infrastructure/config"
	"github.com/alchemorsel/pantry/internal/infrastructure/container"
	"github.com/alchemorsel/pantry/internal/infrastructure/persistence/sqlite"
	"github.com/alchemorsel/pantry/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "Configuration file path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Database.Driver == "memory" {
		fmt.Fprintln(os.Stderr, "database.driver=memory keeps nothing after exit; pick sqlite, postgres or mongo")
		os.Exit(2)
	}

	zl, err := logger.New(logger.Config{Level: cfg.App.LogLevel, Format: cfg.App.LogFormat})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	// Seeding is done explicitly below
	cfg.Database.Seed = false
	store, err := container.NewStore(cfg, zl)
	if err != nil {
		zl.Fatal("Failed to open store", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	defer func() { _ = store.Close(ctx) }()

	if err := sqlite.SeedDatabase(ctx, store.Repository, time.Now()); err != nil {
		zl.Fatal("Failed to seed store", zap.Error(err))
	}

	zl.Info("Store seeded",
		zap.String("driver", cfg.Database.Driver),
		zap.String("demo_user_id", sqlite.DemoUserID.String()),
	)
}
