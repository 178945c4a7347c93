package main

import (
	"context"
	"fmt"

	"cartview/internal/auth"
	"cartview/internal/config"
	"cartview/internal/db"
	"cartview/internal/logging"
	cartrepo "cartview/internal/repository/cart"
	catalogrepo "cartview/internal/repository/catalog"
	"cartview/internal/seed"
)

func main() {
	cfg := config.FromEnv()
	log := logging.New(cfg.LogLevel, cfg.LogFormat).WithField("app", "seed")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, log)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if err := seed.Apply(ctx, catalogrepo.NewPostgres(pool, log), cartrepo.NewPostgres(pool, log), log); err != nil {
		log.Fatalf("seed apply: %v", err)
	}

	token, err := auth.NewIssuer(cfg.JWTSecret).Issue(seed.DemoUser, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("issue demo token: %v", err)
	}

	log.Info("seed applied")
	fmt.Printf("Demo user %s token (set as the %q cookie):\n%s\n", seed.DemoUser.ID, auth.CookieName, token)
}
