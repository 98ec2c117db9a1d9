package httpx

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mercadillo-app/storefront/internal/auth"
	"github.com/mercadillo-app/storefront/internal/cart"
	"github.com/mercadillo-app/storefront/internal/catalog"
	"github.com/mercadillo-app/storefront/internal/checkout"
	"github.com/mercadillo-app/storefront/internal/coupon"
	"github.com/mercadillo-app/storefront/internal/order"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set("rid", rid)
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Next()
	}
}

func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		rid, _ := c.Get("rid")
		log.Printf("[http] rid=%v %s %s status=%d dur=%s",
			rid, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// StatusFor maps domain error kinds to HTTP statuses, so handlers never
// leak raw backend messages. Unknown errors are a generic 500.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, order.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, coupon.ErrInvalidCode),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrInvalidTransition):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error writes the standard {"error": ...} body. 5xx responses hide the
// underlying cause behind a generic message.
func Error(c *gin.Context, err error) {
	code := StatusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
		rid, _ := c.Get("rid")
		log.Printf("[http] rid=%v %s %s: %v", rid, c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(code, gin.H{"error": msg})
}
