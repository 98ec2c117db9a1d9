// Package checkout turns a cart into a persisted order. Validation and
// totals happen locally; whether the charge happened is decided solely
// by the backend's atomic create-and-decrement operation.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mercadillo-app/storefront/internal/cache"
	"github.com/mercadillo-app/storefront/internal/cart"
	"github.com/mercadillo-app/storefront/internal/coupon"
	"github.com/mercadillo-app/storefront/internal/order"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
)

// Backend is the slice of the order repository checkout depends on.
type Backend interface {
	Create(ctx context.Context, req order.CreateRequest) (*order.Order, []order.Item, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// Summary is what the caller displays after a successful checkout.
// Amounts here are informational; the persisted order carries the
// authoritative server-derived total.
type Summary struct {
	OrderID  string `json:"order_id"`
	Status   string `json:"status"`
	Subtotal string `json:"subtotal"`
	Discount string `json:"discount"`
	Total    string `json:"total"`
}

type Orchestrator struct {
	Carts   *cart.Store
	Coupons *coupon.Engine
	Backend Backend
	Cache   cache.Invalidator
}

func New(carts *cart.Store, coupons *coupon.Engine, backend Backend, inv cache.Invalidator) *Orchestrator {
	return &Orchestrator{Carts: carts, Coupons: coupons, Backend: backend, Cache: inv}
}

// Checkout submits the user's cart as one atomic order. On failure the
// cart and coupon are left untouched so the user can adjust and resubmit.
func (o *Orchestrator) Checkout(ctx context.Context, userID, paymentMethod string) (*Summary, error) {
	ctx, span := otel.Tracer("checkout").Start(ctx, "checkout")
	defer span.End()
	span.SetAttributes(
		attribute.String("checkout.user_id", userID),
		attribute.String("checkout.payment_method", paymentMethod),
	)

	items := o.Carts.Items(userID)
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	lines := make([]order.Line, 0, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %s", ErrInvalidQuantity, it.ProductID)
		}
		lines = append(lines, order.Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	// Display totals only. The backend re-derives every amount from the
	// authoritative product rows inside the transaction.
	subtotal, err := o.Carts.Subtotal(userID)
	if err != nil {
		return nil, err
	}
	discount := o.Coupons.Discount(userID, subtotal)

	req := order.CreateRequest{UserID: userID, Lines: lines}
	if c, ok := o.Coupons.Active(userID); ok {
		req.CouponCode = c.Code
		req.DiscountPercent = c.Percent
	}

	ord, ordItems, err := o.Backend.Create(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("checkout.order_id", ord.ID))

	status := ord.Status
	if paymentMethod != order.PaymentCashOnDelivery {
		// Non-COD methods model an already-settled instant payment.
		if err := o.Backend.UpdateStatus(ctx, ord.ID, order.StatusDelivered); err != nil {
			log.Printf("[checkout] order %s: mark delivered: %v", ord.ID, err)
		} else {
			status = order.StatusDelivered
		}
	}

	o.Carts.Clear(userID)
	o.Coupons.Remove(userID)
	o.invalidate(ctx, userID, ordItems)

	return &Summary{
		OrderID:  ord.ID,
		Status:   status,
		Subtotal: subtotal.StringFixed(2),
		Discount: discount.StringFixed(2),
		Total:    subtotal.Sub(discount).StringFixed(2),
	}, nil
}

// invalidate drops the read-cache keys the new order makes stale: the
// product list (stock changed), the buyer's orders and every involved
// vendor's orders.
func (o *Orchestrator) invalidate(ctx context.Context, userID string, items []order.Item) {
	if o.Cache == nil {
		return
	}
	keys := []string{cache.ProductListKey, cache.UserOrdersKey(userID)}
	seen := make(map[string]bool)
	for _, it := range items {
		if it.VendorID != "" && !seen[it.VendorID] {
			seen[it.VendorID] = true
			keys = append(keys, cache.VendorOrdersKey(it.VendorID))
		}
	}
	o.Cache.Invalidate(ctx, keys...)
}

// DisplayTotals recomputes the current cart totals for the cart view.
func (o *Orchestrator) DisplayTotals(userID string) (subtotal, discount, total decimal.Decimal, err error) {
	subtotal, err = o.Carts.Subtotal(userID)
	if err != nil {
		return
	}
	discount = o.Coupons.Discount(userID, subtotal)
	total = subtotal.Sub(discount)
	return
}
