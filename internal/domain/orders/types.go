package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain/carts"
	"storefront/internal/domain/notifications"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
	StatusRefunded   = "refunded"

	PaymentCashOnDelivery = "cash_on_delivery"
)

var Statuses = []string{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded}

var (
	ErrEmptyCart          = carts.ErrEmptyCart
	ErrOrderNotFound      = errors.New("order not found")
	ErrVariantUnavailable = errors.New("variant is no longer available")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidTransition  = errors.New("invalid status transition")
)

// StockError names the line that could not be fulfilled.
type StockError struct {
	VariantID int64
	SKU       string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.SKU, e.Requested, e.Available)
}

func (e *StockError) Is(target error) bool { return target == ErrInsufficientStock }

type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

type ShippingInfo struct {
	Name       string  `json:"name"`
	Phone      string  `json:"phone"`
	Address    string  `json:"address"`
	City       string  `json:"city"`
	PostalCode *string `json:"postal_code,omitempty"`
	Country    string  `json:"country"`
}

type Order struct {
	ID              int64        `json:"id"`
	OrderNumber     string       `json:"order_number"`
	UserID          int64        `json:"user_id"`
	CartID          *int64       `json:"cart_id,omitempty"`
	Status          string       `json:"status"`
	PaymentMethod   string       `json:"payment_method"`
	Shipping        ShippingInfo `json:"shipping"`
	SubtotalCents   int64        `json:"subtotal_cents"`
	ShippingCents   int64        `json:"shipping_cents"`
	TotalCents      int64        `json:"total_cents"`
	CancelledReason *string      `json:"cancelled_reason,omitempty"`
	CancelledAt     *time.Time   `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// OrderItem is a snapshot; it survives deletion of the product or variant.
type OrderItem struct {
	ID               int64  `json:"id"`
	OrderID          int64  `json:"order_id"`
	ProductID        *int64 `json:"product_id,omitempty"`
	ProductVariantID *int64 `json:"product_variant_id,omitempty"`
	ProductName      string `json:"product_name"`
	SKU              string `json:"sku"`
	VariantLabel     string `json:"variant_label"`
	Quantity         int    `json:"quantity"`
	UnitPriceCents   int64  `json:"unit_price_cents"`
	TotalPriceCents  int64  `json:"total_price_cents"`
}

type OrderDetail struct {
	Order Order       `json:"order"`
	Items []OrderItem `json:"items"`
}

type PlaceOrderInput struct {
	UserID        int64
	Shipping      ShippingInfo
	PaymentMethod string
}

// Placed is the committed order plus the stock alerts raised while placing it.
type Placed struct {
	Detail *OrderDetail
	Alerts []*notifications.Notification
}

// StatusChange describes a committed transition.
type StatusChange struct {
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	UserID      int64  `json:"user_id"`
	From        string `json:"from"`
	To          string `json:"to"`
	Restocked   int    `json:"restocked_items"`
}

type Store interface {
	PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Placed, error)
	CancelOrder(ctx context.Context, userID, orderID int64, reason *string) (*StatusChange, error)
	UpdateStatus(ctx context.Context, orderID int64, status string, reason *string, actorID *int64) (*StatusChange, error)

	GetByID(ctx context.Context, id int64) (*Order, error)
	ListByUser(ctx context.Context, userID int64, status string, limit, offset int) ([]Order, int, error)
	GetDetailForUser(ctx context.Context, userID, orderID int64) (*OrderDetail, error)
	ListAll(ctx context.Context, status string, limit, offset int) ([]Order, int, error)
	GetDetail(ctx context.Context, orderID int64) (*OrderDetail, error)
}
