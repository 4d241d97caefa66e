package inventory

import "time"

const (
	ReasonOrderPlaced      = "order_placed"
	ReasonOrderCancelled   = "order_cancelled"
	ReasonManualAdjustment = "manual_adjustment"
	ReasonRestock          = "restock"
)

var Reasons = []string{ReasonOrderPlaced, ReasonOrderCancelled, ReasonManualAdjustment, ReasonRestock}

type Movement struct {
	ID          int64     `json:"id"`
	VariantID   int64     `json:"variant_id"`
	Change      int       `json:"change"`
	StockBefore int       `json:"stock_before"`
	StockAfter  int       `json:"stock_after"`
	Reason      string    `json:"reason"`
	ReferenceID *int64    `json:"reference_id,omitempty"`
	CreatedBy   *int64    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Level is the alert raised by a stock change, if any.
type Level string

const (
	LevelNone       Level = ""
	LevelLowStock   Level = "low_stock"
	LevelOutOfStock Level = "out_of_stock"
)

// Item is one row of the back-office inventory list.
type Item struct {
	VariantID         int64     `json:"variant_id"`
	ProductID         int64     `json:"product_id"`
	ProductName       string    `json:"product_name"`
	SKU               string    `json:"sku"`
	Label             string    `json:"label"`
	PriceCents        int64     `json:"price_cents"`
	Stock             int       `json:"stock"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	IsActive          bool      `json:"is_active"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Status is how the row is flagged in listings and exports.
func (i *Item) Status() string {
	switch {
	case i.Stock == 0:
		return "out_of_stock"
	case i.Stock <= i.LowStockThreshold:
		return "low_stock"
	default:
		return "in_stock"
	}
}

type Filter struct {
	Query      string
	LowStock   bool
	OutOfStock bool
}

// Adjustment is a signed stock change on one variant.
type Adjustment struct {
	VariantID   int64
	Delta       int
	Reason      string
	ReferenceID *int64
	ActorID     *int64
}

type AdjustResult struct {
	VariantID   int64  `json:"variant_id"`
	SKU         string `json:"sku"`
	ProductName string `json:"product_name"`
	StockBefore int    `json:"stock_before"`
	StockAfter  int    `json:"stock_after"`
	Threshold   int    `json:"low_stock_threshold"`
	Level       Level  `json:"alert,omitempty"`
}
