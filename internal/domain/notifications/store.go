package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain/inventory"
	"storefront/internal/infra/dbx"
)

const (
	TypeLowStock    = "low_stock"
	TypeOutOfStock  = "out_of_stock"
	TypeOrderPlaced = "order_placed"
	TypeOrderStatus = "order_status"
)

var ErrNotFound = errors.New("notification not found")

// Notification with a nil UserID is an admin broadcast.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"user_id,omitempty"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	VariantID *int64    `json:"variant_id,omitempty"`
	OrderID   *int64    `json:"order_id,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type Store interface {
	Create(ctx context.Context, n *Notification) error
	ListForAdmin(ctx context.Context, unreadOnly bool, limit, offset int) ([]*Notification, int, error)
	ListForUser(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]*Notification, int, error)
	MarkRead(ctx context.Context, id int64, userID *int64) error
	MarkAllRead(ctx context.Context, userID *int64) (int64, error)
	UnreadCount(ctx context.Context, userID *int64) (int, error)
	SweepLowStock(ctx context.Context) (int64, error)
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

// StockAlert builds the admin notification for a threshold crossing, or nil
// when level raises nothing.
func StockAlert(level inventory.Level, variantID int64, sku, productName string, stock int) *Notification {
	n := &Notification{VariantID: &variantID}
	switch level {
	case inventory.LevelOutOfStock:
		n.Type = TypeOutOfStock
		n.Title = "Out of stock"
		n.Message = fmt.Sprintf("%s (%s) is out of stock", productName, sku)
	case inventory.LevelLowStock:
		n.Type = TypeLowStock
		n.Title = "Low stock"
		n.Message = fmt.Sprintf("%s (%s) has %d left", productName, sku, stock)
	default:
		return nil
	}
	return n
}

func (r *Repository) Create(ctx context.Context, n *Notification) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO notifications (user_id, type, title, message, variant_id, order_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_read, created_at`,
		n.UserID, n.Type, n.Title, n.Message, n.VariantID, n.OrderID,
	).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (r *Repository) list(ctx context.Context, userID *int64, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, type, title, message, variant_id, order_id, is_read, created_at,
		       COUNT(*) OVER() AS total_count
		FROM notifications
		WHERE user_id IS NOT DISTINCT FROM $1
		  AND (NOT $2 OR is_read = false)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]*Notification, 0, limit)
	total := 0
	for rows.Next() {
		n := &Notification{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.VariantID, &n.OrderID,
			&n.IsRead, &n.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

func (r *Repository) ListForAdmin(ctx context.Context, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	return r.list(ctx, nil, unreadOnly, limit, offset)
}

func (r *Repository) ListForUser(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	return r.list(ctx, &userID, unreadOnly, limit, offset)
}

// MarkRead flags one notification. A nil userID scopes it to admin broadcasts.
func (r *Repository) MarkRead(ctx context.Context, id int64, userID *int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE notifications SET is_read = true
		WHERE id = $1 AND user_id IS NOT DISTINCT FROM $2`, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) MarkAllRead(ctx context.Context, userID *int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE notifications SET is_read = true
		WHERE user_id IS NOT DISTINCT FROM $1 AND is_read = false`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) UnreadCount(ctx context.Context, userID *int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE user_id IS NOT DISTINCT FROM $1 AND is_read = false`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return n, nil
}

// SweepLowStock raises an admin alert for every active variant at or below
// its threshold that has no unread stock alert yet. It catches stock that
// changed outside the inventory workflow.
func (r *Repository) SweepLowStock(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO notifications (user_id, type, title, message, variant_id)
		SELECT NULL,
		       CASE WHEN pv.stock = 0 THEN 'out_of_stock' ELSE 'low_stock' END,
		       CASE WHEN pv.stock = 0 THEN 'Out of stock' ELSE 'Low stock' END,
		       CASE WHEN pv.stock = 0
		            THEN p.name || ' (' || pv.sku || ') is out of stock'
		            ELSE p.name || ' (' || pv.sku || ') has ' || pv.stock || ' left'
		       END,
		       pv.id
		FROM product_variants pv
		JOIN products p ON p.id = pv.product_id
		WHERE pv.is_active = true
		  AND pv.stock <= pv.low_stock_threshold
		  AND NOT EXISTS (
		    SELECT 1 FROM notifications n
		    WHERE n.variant_id = pv.id
		      AND n.user_id IS NULL
		      AND n.is_read = false
		      AND n.type IN ('low_stock', 'out_of_stock')
		  )`)
	if err != nil {
		return 0, fmt.Errorf("low stock sweep: %w", err)
	}
	return tag.RowsAffected(), nil
}
