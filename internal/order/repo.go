package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CreateRequest carries everything the atomic checkout operation needs.
// DiscountPercent comes from the applied coupon; the money amounts are
// all derived here from authoritative product rows.
type CreateRequest struct {
	UserID          string
	CouponCode      string
	DiscountPercent int
	Lines           []Line
}

type Repository interface {
	Create(ctx context.Context, req CreateRequest) (*Order, []Item, error)
	GetByID(ctx context.Context, id string) (*Order, []Item, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error)
	ListByVendor(ctx context.Context, vendorID string, limit, offset int) ([]Order, error)
	ItemsForOrders(ctx context.Context, orderIDs []string) (map[string][]Item, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

// Create is the single atomic checkout step: for every line it decrements
// stock guarded by `stock >= quantity`, snapshots the product, and inserts
// the order with its items. Any short line rolls the whole thing back and
// returns ErrInsufficientStock naming the product, so either everything is
// persisted or nothing is. Two checkouts racing for the last unit resolve
// here: row locking on the UPDATE lets exactly one succeed.
func (r *PGRepo) Create(ctx context.Context, req CreateRequest) (*Order, []Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o := &Order{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		Status:     StatusPending,
		CouponCode: req.CouponCode,
	}

	subtotal := decimal.Zero
	items := make([]Item, 0, len(req.Lines))
	for _, ln := range req.Lines {
		var (
			vendorID, name, imageURL, price string
		)
		err := tx.QueryRow(ctx, `
      UPDATE products
      SET stock = stock - $2, updated_at = NOW()
      WHERE id = $1 AND stock >= $2
      RETURNING vendor_id, name, image_url, price::text
    `, ln.ProductID, ln.Quantity).Scan(&vendorID, &name, &imageURL, &price)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// the guard also misses when the product row is gone;
				// that is a different error kind than a stock conflict
				var exists bool
				if probeErr := tx.QueryRow(ctx, `
          SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)
        `, ln.ProductID).Scan(&exists); probeErr != nil {
					return nil, nil, probeErr
				}
				if !exists {
					return nil, nil, fmt.Errorf("%w: %s", ErrProductNotFound, ln.ProductID)
				}
				return nil, nil, fmt.Errorf("%w for product %s", ErrInsufficientStock, ln.ProductID)
			}
			return nil, nil, err
		}
		unit, err := decimal.NewFromString(price)
		if err != nil {
			return nil, nil, fmt.Errorf("bad price for product %s: %w", ln.ProductID, err)
		}
		subtotal = subtotal.Add(unit.Mul(decimal.NewFromInt(int64(ln.Quantity))))
		items = append(items, Item{
			ID:        uuid.NewString(),
			OrderID:   o.ID,
			ProductID: ln.ProductID,
			VendorID:  vendorID,
			Name:      name,
			ImageURL:  imageURL,
			Quantity:  ln.Quantity,
			Price:     price,
		})
	}

	discount := subtotal.
		Mul(decimal.NewFromInt(int64(req.DiscountPercent))).
		Div(decimal.NewFromInt(100)).
		Round(2)
	o.Discount = discount.StringFixed(2)
	o.Total = subtotal.Sub(discount).StringFixed(2)

	if err := tx.QueryRow(ctx, `
    INSERT INTO orders (id, user_id, status, coupon_code, discount, total, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW())
    RETURNING created_at, updated_at
  `, o.ID, o.UserID, o.Status, o.CouponCode, o.Discount, o.Total).Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, nil, err
	}

	for _, it := range items {
		if _, err := tx.Exec(ctx, `
      INSERT INTO order_items (id, order_id, product_id, vendor_id, name, image_url, quantity, price)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    `, it.ID, it.OrderID, it.ProductID, it.VendorID, it.Name, it.ImageURL, it.Quantity, it.Price); err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return o, items, nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Order, []Item, error) {
	var o Order
	if err := r.db.QueryRow(ctx, `
    SELECT id,user_id,status,coupon_code,discount::text,total::text,created_at,updated_at
    FROM orders WHERE id=$1
  `, id).Scan(&o.ID, &o.UserID, &o.Status, &o.CouponCode, &o.Discount, &o.Total, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	items, err := r.itemsFor(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return &o, items, nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error) {
	limit, offset = clampPage(limit, offset)
	return r.list(ctx, `
    SELECT id,user_id,status,coupon_code,discount::text,total::text,created_at,updated_at
    FROM orders WHERE user_id=$1
    ORDER BY created_at DESC, id ASC LIMIT $2 OFFSET $3
  `, userID, limit, offset)
}

// ListByVendor returns orders containing at least one of the vendor's
// products, for the vendor dashboard.
func (r *PGRepo) ListByVendor(ctx context.Context, vendorID string, limit, offset int) ([]Order, error) {
	limit, offset = clampPage(limit, offset)
	return r.list(ctx, `
    SELECT DISTINCT o.id,o.user_id,o.status,o.coupon_code,o.discount::text,o.total::text,o.created_at,o.updated_at
    FROM orders o
    JOIN order_items i ON i.order_id = o.id
    WHERE i.vendor_id=$1
    ORDER BY o.created_at DESC, o.id ASC LIMIT $2 OFFSET $3
  `, vendorID, limit, offset)
}

func (r *PGRepo) list(ctx context.Context, sql string, args ...any) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.CouponCode, &o.Discount, &o.Total, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ItemsForOrders loads the lines of several orders in one round trip,
// keyed by order id.
func (r *PGRepo) ItemsForOrders(ctx context.Context, orderIDs []string) (map[string][]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
    SELECT id, order_id, product_id, vendor_id, name, image_url, quantity, price::text
    FROM order_items WHERE order_id = ANY($1)
  `, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]Item)
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.VendorID, &it.Name, &it.ImageURL, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

func (r *PGRepo) itemsFor(ctx context.Context, orderID string) ([]Item, error) {
	m, err := r.ItemsForOrders(ctx, []string{orderID})
	if err != nil {
		return nil, err
	}
	return m[orderID], nil
}

// UpdateStatus validates the transition and applies it; moving to
// cancelled also restores the stock of every line in the same
// transaction.
func (r *PGRepo) UpdateStatus(ctx context.Context, id, status string) error {
	if !ValidStatus(status) {
		return ErrInvalidStatus
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current string
	if err := tx.QueryRow(ctx, `
    SELECT status FROM orders WHERE id=$1 FOR UPDATE
  `, id).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if current != status && !CanTransition(current, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
	}

	if _, err := tx.Exec(ctx, `
    UPDATE orders SET status=$2, updated_at=NOW() WHERE id=$1
  `, id, status); err != nil {
		return err
	}

	if status == StatusCancelled && current != StatusCancelled {
		if _, err := tx.Exec(ctx, `
      UPDATE products p
      SET stock = p.stock + i.quantity, updated_at = NOW()
      FROM order_items i
      WHERE i.order_id = $1 AND i.product_id = p.id
    `, id); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
