package wishlists

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/infra/dbx"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrNotFound        = errors.New("product is not in the wishlist")
)

// Item is a wishlisted product rendered like a storefront card.
type Item struct {
	ProductID       int64     `json:"product_id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	PriceCents      int64     `json:"price_cents"`
	InStock         bool      `json:"in_stock"`
	IsActive        bool      `json:"is_active"`
	PrimaryImageURL *string   `json:"primary_image_url,omitempty"`
	AddedAt         time.Time `json:"added_at"`
}

type Store interface {
	Add(ctx context.Context, userID, productID int64) (bool, error)
	Remove(ctx context.Context, userID, productID int64) error
	List(ctx context.Context, userID int64, limit, offset int) ([]*Item, int, error)
	Contains(ctx context.Context, userID, productID int64) (bool, error)
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

// Add is idempotent; it reports whether a new row was created.
func (r *Repository) Add(ctx context.Context, userID, productID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO wishlist_items (user_id, product_id)
		SELECT $1, p.id FROM products p WHERE p.id = $2 AND p.is_active = true
		ON CONFLICT (user_id, product_id) DO NOTHING`, userID, productID)
	if err != nil {
		return false, fmt.Errorf("add to wishlist: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	ok, err := r.Contains(ctx, userID, productID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, ErrProductNotFound
	}
	return false, nil
}

func (r *Repository) Remove(ctx context.Context, userID, productID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("remove from wishlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Contains(ctx context.Context, userID, productID int64) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM wishlist_items WHERE user_id = $1 AND product_id = $2)`,
		userID, productID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("wishlist contains: %w", err)
	}
	return ok, nil
}

// List returns the newest wishlist entries first. Inactive products stay
// listed so the shopper can remove them.
func (r *Repository) List(ctx context.Context, userID int64, limit, offset int) ([]*Item, int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.id, p.name, p.slug,
		       COALESCE(vs.min_price_cents, p.base_price_cents),
		       COALESCE(vs.total_stock, 0) > 0,
		       p.is_active,
		       (SELECT pi.url FROM product_images pi
		         WHERE pi.product_id = p.id
		         ORDER BY pi.is_primary DESC, pi.sort_order, pi.id
		         LIMIT 1),
		       w.created_at,
		       COUNT(*) OVER() AS total_count
		FROM wishlist_items w
		JOIN products p ON p.id = w.product_id
		LEFT JOIN (
		  SELECT product_id, MIN(price_cents) AS min_price_cents, SUM(stock) AS total_stock
		  FROM product_variants
		  WHERE is_active = true
		  GROUP BY product_id
		) vs ON vs.product_id = p.id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC, w.id DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list wishlist: %w", err)
	}
	defer rows.Close()

	out := make([]*Item, 0, limit)
	total := 0
	for rows.Next() {
		it := &Item{}
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Slug, &it.PriceCents, &it.InStock, &it.IsActive,
			&it.PrimaryImageURL, &it.AddedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan wishlist item: %w", err)
		}
		out = append(out, it)
	}
	return out, total, rows.Err()
}
