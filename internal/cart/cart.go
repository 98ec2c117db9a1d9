// Package cart holds the in-memory per-user shopping carts of the
// storefront session, with subscribe/notify semantics so the HTTP layer
// can surface add/update/remove confirmations.
package cart

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mercadillo-app/storefront/internal/catalog"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
)

// Item is one cart line. Name, price and image are carried along so the
// cart can be displayed without refetching the product.
type Item struct {
	ProductID string `json:"product_id"`
	VendorID  string `json:"vendor_id"`
	Name      string `json:"name"`
	Price     string `json:"price"` // NUMERIC as string, same convention as catalog
	ImageURL  string `json:"image_url,omitempty"`
	Quantity  int    `json:"quantity"`
}

type EventKind string

const (
	ItemAdded   EventKind = "added"
	ItemUpdated EventKind = "updated"
	ItemRemoved EventKind = "removed"
	Cleared     EventKind = "cleared"
)

// Event describes a cart mutation. Informational only: listeners drive
// user-facing notifications, never the cart contract itself.
type Event struct {
	UserID    string
	Kind      EventKind
	ProductID string
	Name      string
	Quantity  int
}

type Listener func(Event)

// Store maps users to carts. A cart is a map keyed by product id whose
// insertion order is preserved for display.
type Store struct {
	mu        sync.Mutex
	carts     map[string]*userCart
	listeners []Listener
}

type userCart struct {
	items map[string]*Item
	order []string
}

func NewStore() *Store {
	return &Store{carts: make(map[string]*userCart)}
}

// Subscribe registers a listener for every cart mutation. Must be called
// before the store is shared with handlers.
func (s *Store) Subscribe(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) publish(ev Event) {
	for _, fn := range s.listeners {
		fn(ev)
	}
}

// Add inserts the product or increments its quantity when already present.
func (s *Store) Add(userID string, p catalog.Product, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	s.mu.Lock()
	c, ok := s.carts[userID]
	if !ok {
		c = &userCart{items: make(map[string]*Item)}
		s.carts[userID] = c
	}
	if it, ok := c.items[p.ID]; ok {
		it.Quantity += qty
	} else {
		c.items[p.ID] = &Item{
			ProductID: p.ID,
			VendorID:  p.VendorID,
			Name:      p.Name,
			Price:     p.Price,
			ImageURL:  p.ImageURL,
			Quantity:  qty,
		}
		c.order = append(c.order, p.ID)
	}
	s.mu.Unlock()
	s.publish(Event{UserID: userID, Kind: ItemAdded, ProductID: p.ID, Name: p.Name, Quantity: qty})
	return nil
}

// SetQuantity sets the line to exactly qty. qty <= 0 removes the line,
// so a cart never holds a non-positive quantity.
func (s *Store) SetQuantity(userID, productID string, qty int) {
	s.mu.Lock()
	c, ok := s.carts[userID]
	if !ok {
		s.mu.Unlock()
		return
	}
	it, ok := c.items[productID]
	if !ok {
		s.mu.Unlock()
		return
	}
	if qty <= 0 {
		c.remove(productID)
		s.mu.Unlock()
		s.publish(Event{UserID: userID, Kind: ItemRemoved, ProductID: productID, Name: it.Name})
		return
	}
	it.Quantity = qty
	s.mu.Unlock()
	s.publish(Event{UserID: userID, Kind: ItemUpdated, ProductID: productID, Name: it.Name, Quantity: qty})
}

// Remove deletes the line if present.
func (s *Store) Remove(userID, productID string) {
	s.SetQuantity(userID, productID, 0)
}

// Clear empties the user's cart (used after a successful checkout).
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	delete(s.carts, userID)
	s.mu.Unlock()
	s.publish(Event{UserID: userID, Kind: Cleared})
}

// Items returns a snapshot of the cart in insertion order.
func (s *Store) Items(userID string) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[userID]
	if !ok {
		return nil
	}
	out := make([]Item, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.items[id])
	}
	return out
}

// TotalItems is the sum of quantities across all lines.
func (s *Store) TotalItems(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[userID]
	if !ok {
		return 0
	}
	total := 0
	for _, it := range c.items {
		total += it.Quantity
	}
	return total
}

// Subtotal is Σ(unit price × quantity) over the cart, for display.
// The charge itself is always re-derived server-side at checkout.
func (s *Store) Subtotal(userID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, it := range s.Items(userID) {
		price, err := decimal.NewFromString(it.Price)
		if err != nil {
			return decimal.Zero, err
		}
		sum = sum.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum, nil
}

func (c *userCart) remove(productID string) {
	delete(c.items, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
