package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cartview/internal/auth"
	"cartview/internal/config"
	"cartview/internal/db"
	"cartview/internal/httpserver"
	"cartview/internal/logging"
	cartrepo "cartview/internal/repository/cart"
	catalogrepo "cartview/internal/repository/catalog"
	cartsvc "cartview/internal/service/cart"
)

func main() {
	cfg := config.FromEnv()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.InsecureJWTSecret() {
		log.Warn("JWT_SECRET not set, using the public development secret; tokens can be forged")
	}

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, log)
	if err != nil {
		log.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	catalogRepo := catalogrepo.NewPostgres(dbpool, log)
	cartRepo := cartrepo.NewPostgres(dbpool, log)
	cartService := cartsvc.New(cartRepo, catalogRepo)

	srv, err := httpserver.New(cfg.HTTPAddr, log, dbpool, httpserver.Deps{
		CartSvc:        cartService,
		Issuer:         auth.NewIssuer(cfg.JWTSecret),
		AllowedOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		log.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		log.Infof("received signal %s, shutting down", sig)
	case err := <-serverErr:
		log.Errorf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Warnf("graceful shutdown failed: %v", err)
	} else {
		log.Info("server stopped")
	}
}
