package carts

import (
	"context"
	"time"
)

const (
	StatusActive    = "active"
	StatusConverted = "converted"
	StatusAbandoned = "abandoned"
)

type Cart struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Status    string     `json:"status"` // active, converted, abandoned
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type CartView struct {
	Cart           Cart       `json:"cart"`
	Items          []CartLine `json:"items"`
	ItemCount      int        `json:"item_count"`
	SubtotalCents  int64      `json:"subtotal_cents"`
	HasUnavailable bool       `json:"has_unavailable"`
}

// CartLine is priced at the current variant price. Available is false when
// the variant was deactivated or its stock dropped below the quantity.
type CartLine struct {
	ItemID          int64   `json:"item_id"`
	ProductID       int64   `json:"product_id"`
	ProductName     string  `json:"product_name"`
	ProductSlug     string  `json:"product_slug"`
	VariantID       int64   `json:"variant_id"`
	SKU             string  `json:"sku"`
	VariantLabel    string  `json:"variant_label"`
	Quantity        int     `json:"quantity"`
	UnitPriceCents  int64   `json:"unit_price_cents"`
	LineTotalCents  int64   `json:"line_total_cents"`
	Stock           int     `json:"stock"`
	Available       bool    `json:"available"`
	PrimaryImageURL *string `json:"primary_image_url,omitempty"`
}

// CheckoutLine is the minimal row order placement needs from a locked cart.
type CheckoutLine struct {
	VariantID int64
	Quantity  int
}

type Store interface {
	// --- User-level operations ---
	EnsureActive(ctx context.Context, userID int64) (int64, error)
	AddItem(ctx context.Context, userID, variantID int64, qty int) error
	UpdateItemQty(ctx context.Context, userID, itemID int64, qty int) error
	RemoveItem(ctx context.Context, userID, itemID int64) error
	Clear(ctx context.Context, userID int64) error
	GetView(ctx context.Context, userID int64) (*CartView, error)

	// --- Checkout (run on a transaction) ---
	LockActive(ctx context.Context, userID int64) (int64, error)
	CheckoutLines(ctx context.Context, cartID int64) ([]CheckoutLine, error)
	MarkConverted(ctx context.Context, cartID int64) error

	// --- Admin / internal operations ---
	GetViewByCartID(ctx context.Context, cartID int64) (*CartView, error)
	List(ctx context.Context, status string, includeExpired bool, limit, offset int) ([]Cart, int, error)
	MarkExpiredAsAbandoned(ctx context.Context) (int64, error)
}
