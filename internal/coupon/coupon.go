// Package coupon implements the discount engine: a fixed catalog of
// percentage coupons and at most one active coupon per user.
package coupon

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCode = errors.New("invalid coupon code")
)

type Coupon struct {
	Code        string `json:"code"`
	Percent     int    `json:"percent"` // 0..100
	Description string `json:"description,omitempty"`
}

// DefaultCatalog is the coupon set the storefront ships with.
func DefaultCatalog() []Coupon {
	return []Coupon{
		{Code: "SAVE10", Percent: 10, Description: "10% off your order"},
		{Code: "SAVE20", Percent: 20, Description: "20% off your order"},
		{Code: "WELCOME5", Percent: 5, Description: "5% off for new buyers"},
	}
}

// Engine tracks the active coupon per user. Codes match case-sensitively
// and never stack: applying a coupon replaces the previous one.
type Engine struct {
	mu      sync.Mutex
	catalog map[string]Coupon
	active  map[string]Coupon // user id -> applied coupon
}

func NewEngine(catalog []Coupon) *Engine {
	m := make(map[string]Coupon, len(catalog))
	for _, c := range catalog {
		m[c.Code] = c
	}
	return &Engine{catalog: m, active: make(map[string]Coupon)}
}

// Apply sets code as the user's single active coupon. An unknown code
// leaves the previous state untouched. Re-applying the active code is a
// no-op with the same resulting state.
func (e *Engine) Apply(userID, code string) (Coupon, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.catalog[code]
	if !ok {
		return Coupon{}, ErrInvalidCode
	}
	e.active[userID] = c
	return c, nil
}

// Remove clears the user's active coupon. Removing when none is active
// is not an error.
func (e *Engine) Remove(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.active, userID)
}

// Active returns the user's applied coupon, if any.
func (e *Engine) Active(userID string) (Coupon, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.active[userID]
	return c, ok
}

// Discount computes the discount on the pre-discount subtotal, rounded
// to cents. Never compounded: zero without an active coupon.
func (e *Engine) Discount(userID string, subtotal decimal.Decimal) decimal.Decimal {
	c, ok := e.Active(userID)
	if !ok {
		return decimal.Zero
	}
	return Discount(c, subtotal)
}

// Discount is subtotal × percent / 100.
func Discount(c Coupon, subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.
		Mul(decimal.NewFromInt(int64(c.Percent))).
		Div(decimal.NewFromInt(100)).
		Round(2)
}
