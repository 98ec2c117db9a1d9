// Package catalog provides the repository interface and PostgreSQL
// implementation for vendor product listings.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("product not found")
)

type Query struct {
	Q        string
	Category string
	Limit    int
	Offset   int
}

type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, q Query) ([]Product, error)
	Update(ctx context.Context, p *Product, updatePrice, updateStock, updateRating bool) error
	Delete(ctx context.Context, id string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Create(ctx context.Context, p *Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO products (id, vendor_id, name, description, category, price, stock, rating, image_url, expires_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW(),NOW())
	`, p.ID, p.VendorID, p.Name, p.Description, p.Category, p.Price, p.Stock, p.Rating, p.ImageURL, p.ExpiresAt)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p Product
	err := r.db.QueryRow(ctx, `
		SELECT id, vendor_id, name, description, category, price::text, stock, rating, image_url, expires_at, created_at, updated_at
		FROM products WHERE id=$1
	`, id).Scan(&p.ID, &p.VendorID, &p.Name, &p.Description, &p.Category, &p.Price, &p.Stock, &p.Rating, &p.ImageURL, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, ErrNotFound
	}
	return &p, nil
}

// List returns only sellable listings: stock > 0 and not expired.
// That filter is server-side on purpose, callers never see dead inventory.
func (r *PGRepo) List(ctx context.Context, q Query) ([]Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	search := strings.TrimSpace(q.Q)
	category := strings.TrimSpace(q.Category)

	rows, err := r.db.Query(ctx, `
		SELECT id, vendor_id, name, description, category, price::text, stock, rating, image_url, expires_at, created_at, updated_at
		FROM products
		WHERE stock > 0
		  AND (expires_at IS NULL OR expires_at > NOW())
		  AND ($1 = '' OR name ILIKE '%'||$1||'%' OR description ILIKE '%'||$1||'%')
		  AND ($2 = '' OR category = $2)
		ORDER BY created_at DESC, id ASC
		LIMIT $3 OFFSET $4
	`, search, category, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.VendorID, &p.Name, &p.Description, &p.Category, &p.Price, &p.Stock, &p.Rating, &p.ImageURL, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, p *Product, updatePrice, updateStock, updateRating bool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		UPDATE products
		SET name = COALESCE(NULLIF($2,''), name),
		    description = COALESCE(NULLIF($3,''), description),
		    category = COALESCE(NULLIF($4,''), category),
		    image_url = COALESCE(NULLIF($5,''), image_url),
		    price = CASE WHEN $6 THEN $7::numeric ELSE price END,
		    stock = CASE WHEN $8 THEN $9 ELSE stock END,
		    rating = CASE WHEN $10 THEN $11 ELSE rating END,
		    updated_at = NOW()
		WHERE id = $1
	`, p.ID, p.Name, p.Description, p.Category, p.ImageURL,
		updatePrice, nullIfEmpty(p.Price), updateStock, p.Stock, updateRating, p.Rating)
	return err
}

func (r *PGRepo) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// DeleteExpired removes time-limited listings whose window has closed.
// Orders keep their own snapshots, so this never touches placed orders.
func (r *PGRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `
		DELETE FROM products WHERE expires_at IS NOT NULL AND expires_at <= $1
	`, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
