package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const pingTimeout = 5 * time.Second

// Connect opens the cart database pool and pings it before handing it out.
func Connect(ctx context.Context, dsn string, log logrus.FieldLogger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.ConnConfig.Host, err)
	}

	if log != nil {
		log.WithFields(logrus.Fields{
			"db.host":      cfg.ConnConfig.Host,
			"db.name":      cfg.ConnConfig.Database,
			"db.max_conns": cfg.MaxConns,
		}).Info("connected to postgres")
	}
	return pool, nil
}
