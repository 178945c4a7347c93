package webserver

import (
	"context"
	"io"
	"net/http"

	"cartview/internal/auth"
	"cartview/internal/cartstore"
	"cartview/internal/cartview"
	"cartview/internal/notify"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// viewFor resolves the cart view of the requesting session. Anonymous visitors
// get a throwaway view with no user over an empty store.
func (ws *webServer) viewFor(c *gin.Context) (*cartview.View, logrus.FieldLogger, error) {
	log := logFrom(c)
	ctx := c.Request.Context()
	session := sessionID(c)

	user := auth.UserFrom(ctx)
	if user == nil {
		return cartview.New(auth.Fixed(nil), cartstore.Empty(), notify.ForSession(ws.flash, session, log),
			cartview.WithLogger(log), cartview.WithCurrency(ws.currency)), log, nil
	}
	log = log.WithField("user_id", user.ID)

	store, err := ws.stores.For(ctx, *user, auth.TokenFrom(ctx))
	if err != nil {
		return nil, log, errors.Wrap(err, "could not load cart")
	}
	view := ws.views.get(viewKey(session, user.ID), store, func() *cartview.View {
		viewLog := ws.log.WithFields(logrus.Fields{"user_id": user.ID, "session": session})
		return cartview.New(auth.Fixed(user), store, notify.ForSession(ws.flash, session, viewLog),
			cartview.WithLogger(viewLog),
			cartview.WithCurrency(ws.currency))
	})
	return view, log, nil
}

func (ws *webServer) viewCart(c *gin.Context) {
	view, log, err := ws.viewFor(c)
	if err != nil {
		renderHTTPError(c, log, err, http.StatusServiceUnavailable)
		return
	}
	log.Debug("view cart")

	notes, err := ws.flash.Drain(c.Request.Context(), sessionID(c))
	if err != nil {
		log.WithError(err).Warn("could not load notifications")
	}
	c.HTML(http.StatusOK, "cart", injectCommonTemplateData(c, gin.H{
		"page":          view.Render(),
		"notifications": notes,
	}))
}

func (ws *webServer) decrement(c *gin.Context) {
	ws.mutate(c, "decrement", func(ctx context.Context, v *cartview.View) cartview.Result {
		return v.RemoveOne(ctx, c.Param("itemId"))
	})
}

func (ws *webServer) removeLine(c *gin.Context) {
	ws.mutate(c, "remove", func(ctx context.Context, v *cartview.View) cartview.Result {
		return v.RemoveAll(ctx, c.Param("itemId"))
	})
}

func (ws *webServer) requestClear(c *gin.Context) {
	ws.mutate(c, "clear_request", func(_ context.Context, v *cartview.View) cartview.Result {
		v.RequestClear()
		return cartview.Succeeded
	})
}

func (ws *webServer) cancelClear(c *gin.Context) {
	ws.mutate(c, "clear_cancel", func(_ context.Context, v *cartview.View) cartview.Result {
		v.CancelClear()
		return cartview.Succeeded
	})
}

func (ws *webServer) confirmClear(c *gin.Context) {
	ws.mutate(c, "clear_confirm", func(ctx context.Context, v *cartview.View) cartview.Result {
		return v.ConfirmClear(ctx)
	})
}

// mutate runs one cart action and redirects back to the cart page, where its
// notification is shown.
func (ws *webServer) mutate(c *gin.Context, action string, fn func(context.Context, *cartview.View) cartview.Result) {
	view, log, err := ws.viewFor(c)
	if err != nil {
		renderHTTPError(c, log, err, http.StatusServiceUnavailable)
		return
	}
	res := fn(c.Request.Context(), view)
	log.WithFields(logrus.Fields{"action": action, "result": res.String()}).Debug("cart action handled")
	c.Redirect(http.StatusFound, "/cart")
}

// events streams a "cart" event with the current total on connect and after
// every change of the cart.
func (ws *webServer) events(c *gin.Context) {
	view, log, err := ws.viewFor(c)
	if err != nil {
		renderHTTPError(c, log, err, http.StatusServiceUnavailable)
		return
	}
	ctx := c.Request.Context()
	changes := view.Watch(ctx)
	c.Header("Cache-Control", "no-cache")

	first := true
	c.Stream(func(w io.Writer) bool {
		if !first {
			select {
			case <-ctx.Done():
				return false
			case <-changes:
			}
		}
		first = false
		page := view.Render()
		c.SSEvent("cart", gin.H{
			"lines": len(page.Lines),
			"total": page.Currency + page.Total,
		})
		return true
	})
	log.Debug("event stream closed")
}

func renderHTTPError(c *gin.Context, log logrus.FieldLogger, err error, code int) {
	log.WithField("error", err).Error("request error")
	c.HTML(code, "error", injectCommonTemplateData(c, gin.H{
		"status_code": code,
		"status":      http.StatusText(code),
	}))
}

func injectCommonTemplateData(c *gin.Context, payload gin.H) gin.H {
	data := gin.H{
		"session_id": sessionID(c),
		"request_id": c.GetString(ctxKeyRequestID),
	}
	for k, v := range payload {
		data[k] = v
	}
	return data
}
