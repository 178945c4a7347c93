package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cartview/internal/auth"
	"cartview/internal/cartclient"
	"cartview/internal/cartstore"
	"cartview/internal/config"
	"cartview/internal/logging"
	"cartview/internal/notify"
	"cartview/internal/webserver"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.FromEnv()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.InsecureJWTSecret() {
		log.Warn("JWT_SECRET not set, using the public development secret; tokens can be forged")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	flash := flashStore(ctx, cfg, log)

	client := cartclient.New(cartclient.Options{
		BaseURL:     cfg.APIBaseURL,
		Timeout:     cfg.APITimeout,
		MaxFailures: cfg.BreakerMaxFailures,
	}, log.WithField("component", "cart-client"))
	stores := cartstore.NewRegistry(client.For, log.WithField("component", "cart-store"))
	defer stores.Close()

	srv, err := webserver.New(cfg.WebAddr, log, webserver.Deps{
		Stores:   stores,
		Flash:    flash,
		Issuer:   auth.NewIssuer(cfg.JWTSecret),
		Currency: cfg.CurrencySymbol,
	})
	if err != nil {
		log.Fatalf("init server: %v", err)
	}
	go srv.SweepIdle(ctx, time.Minute, cfg.ViewIdleTimeout)

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("cart_api", cfg.APIBaseURL).Infof("starting cart screen on %s", cfg.WebAddr)
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
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("graceful shutdown failed: %v", err)
	} else {
		log.Info("server stopped")
	}
}

// flashStore uses Redis when REDIS_ADDR is set and falls back to memory when
// it is unset or unreachable.
func flashStore(ctx context.Context, cfg config.Config, log *logrus.Logger) notify.FlashStore {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set, keeping notifications in memory")
		return notify.NewMemoryStore(cfg.FlashTTL)
	}
	rdb, err := notify.DialRedis(ctx, cfg.RedisAddr, log)
	if err != nil {
		log.WithError(err).Warn("redis unavailable, keeping notifications in memory")
		return notify.NewMemoryStore(cfg.FlashTTL)
	}
	return notify.NewRedisStore(rdb, cfg.FlashTTL)
}
