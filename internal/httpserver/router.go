package httpserver

import (
	"context"
	"errors"
	"time"

	"cartview/internal/auth"
	"cartview/internal/domain"
	cartsvc "cartview/internal/service/cart"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

type cartService interface {
	Get(ctx context.Context, userID string) ([]domain.CartLine, error)
	Add(ctx context.Context, userID string, in cartsvc.AddInput) ([]domain.CartLine, error)
	Remove(ctx context.Context, userID, itemID string, quantity int) ([]domain.CartLine, error)
	Clear(ctx context.Context, userID string) ([]domain.CartLine, error)
}

// Deps groups the collaborators the API routes need.
type Deps struct {
	CartSvc        cartService
	Issuer         *auth.Issuer
	AllowedOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(log *logrus.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.CartSvc == nil {
		return nil, errors.New("cart service required")
	}
	if deps.Issuer == nil {
		return nil, errors.New("token issuer required")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(log.WriterLevel(logrus.DebugLevel)), gin.Recovery())
	router.Use(cors.New(corsConfig(deps.AllowedOrigins)))

	var ready pinger
	if db != nil {
		ready = db
	}
	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(ready))

	h := &cartHandlers{svc: deps.CartSvc, log: log.WithField("component", "cart-api")}
	me := router.Group("/me", auth.RequireBearer(deps.Issuer))
	me.GET("/cart", h.get)
	me.POST("/cart/items", h.add)
	me.DELETE("/cart/items/:itemId", h.remove)
	me.DELETE("/cart", h.clear)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
