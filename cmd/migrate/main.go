package main

import (
	"context"

	"cartview/internal/config"
	"cartview/internal/db"
	"cartview/internal/logging"
	"cartview/internal/migrate"
)

func main() {
	cfg := config.FromEnv()
	log := logging.New(cfg.LogLevel, cfg.LogFormat).WithField("app", "migrate")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, log)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool, log); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	log.Info("migrations applied")
}
