package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/david/signalscout/internal/api"
	"github.com/david/signalscout/internal/config"
	"github.com/david/signalscout/internal/db"
)

func main() {
	configPath := os.Getenv("SIGNALSCOUT_CONFIG")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	srv := api.NewServer(pool, configPath)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("SignalScout starting on %s...", addr)
	if err := srv.Start(addr); err != nil {
		log.Fatal(err)
	}
}
