package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"cartview/internal/auth"
	"cartview/internal/domain"
	cartsvc "cartview/internal/service/cart"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type cartResponse struct {
	LineItems []domain.CartLine `json:"lineItems"`
	Total     int64             `json:"totalCents"`
}

func toCartResponse(lines []domain.CartLine) cartResponse {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return cartResponse{LineItems: lines, Total: domain.Total(lines)}
}

type cartHandlers struct {
	svc cartService
	log logrus.FieldLogger
}

func (h *cartHandlers) get(c *gin.Context) {
	user := auth.UserFrom(c.Request.Context())
	lines, err := h.svc.Get(c.Request.Context(), user.ID)
	if err != nil {
		h.fail(c, err, "get cart")
		return
	}
	c.JSON(http.StatusOK, toCartResponse(lines))
}

func (h *cartHandlers) add(c *gin.Context) {
	user := auth.UserFrom(c.Request.Context())
	var in cartsvc.AddInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, http.StatusBadRequest, "invalid body")
		return
	}
	lines, err := h.svc.Add(c.Request.Context(), user.ID, in)
	if err != nil {
		h.fail(c, err, "add item")
		return
	}
	c.JSON(http.StatusOK, toCartResponse(lines))
}

// remove decrements by ?quantity=n, or drops the whole line without it.
func (h *cartHandlers) remove(c *gin.Context) {
	user := auth.UserFrom(c.Request.Context())
	quantity := cartsvc.WholeLine
	if raw := c.Query("quantity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(c, http.StatusBadRequest, "quantity must be a positive integer")
			return
		}
		quantity = n
	}
	lines, err := h.svc.Remove(c.Request.Context(), user.ID, c.Param("itemId"), quantity)
	if err != nil {
		h.fail(c, err, "remove item")
		return
	}
	c.JSON(http.StatusOK, toCartResponse(lines))
}

func (h *cartHandlers) clear(c *gin.Context) {
	user := auth.UserFrom(c.Request.Context())
	lines, err := h.svc.Clear(c.Request.Context(), user.ID)
	if err != nil {
		h.fail(c, err, "clear cart")
		return
	}
	c.JSON(http.StatusOK, toCartResponse(lines))
}

func (h *cartHandlers) fail(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(c, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, cartsvc.ErrItemRequired):
		writeError(c, http.StatusBadRequest, err.Error())
	default:
		h.log.WithField("op", op).WithError(err).Error("cart api request failed")
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"statusCode": status, "message": msg})
}
