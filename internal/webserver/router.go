package webserver

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"cartview/internal/auth"
	"cartview/internal/cartstore"
	"cartview/internal/domain"
	"cartview/internal/notify"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFS embed.FS

type storeProvider interface {
	For(ctx context.Context, user domain.User, token string) (*cartstore.Store, error)
}

// Deps groups the collaborators the cart screen needs.
type Deps struct {
	Stores   storeProvider
	Flash    notify.FlashStore
	Issuer   *auth.Issuer
	Currency string
}

type webServer struct {
	stores   storeProvider
	flash    notify.FlashStore
	currency string
	views    *viewSet
	log      logrus.FieldLogger
}

func buildRouter(log *logrus.Logger, deps Deps) (*webServer, *gin.Engine, error) {
	if deps.Stores == nil {
		return nil, nil, errors.New("cart store provider required")
	}
	if deps.Flash == nil {
		return nil, nil, errors.New("flash store required")
	}
	if deps.Issuer == nil {
		return nil, nil, errors.New("token issuer required")
	}
	currency := deps.Currency
	if currency == "" {
		currency = "$"
	}

	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, nil, err
	}

	ws := &webServer{
		stores:   deps.Stores,
		flash:    deps.Flash,
		currency: currency,
		views:    newViewSet(),
		log:      log.WithField("component", "cart-web"),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.SetHTMLTemplate(tmpl)
	router.Use(gin.Recovery(), ensureSession, requestLogger(log), auth.FromCookie(deps.Issuer))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/cart")
	})

	cart := router.Group("/cart")
	cart.GET("", ws.viewCart)
	cart.GET("/events", ws.events)

	actions := cart.Group("", sameOrigin)
	actions.POST("/items/:itemId/decrement", ws.decrement)
	actions.POST("/items/:itemId/remove", ws.removeLine)
	actions.POST("/clear/request", ws.requestClear)
	actions.POST("/clear/cancel", ws.cancelClear)
	actions.POST("/clear/confirm", ws.confirmClear)

	return ws, router, nil
}
