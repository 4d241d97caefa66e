package variants

import "time"

type Attribute struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Code      string            `json:"code"`
	CreatedAt time.Time         `json:"created_at"`
	Values    []*AttributeValue `json:"values"`
}

type AttributeValue struct {
	ID          int64     `json:"id"`
	AttributeID int64     `json:"attribute_id"`
	Value       string    `json:"value"`
	Code        string    `json:"code"`
	CreatedAt   time.Time `json:"created_at"`
}

// Option is one attribute=value pair of a variant.
type Option struct {
	AttributeID   int64  `json:"attribute_id"`
	AttributeName string `json:"attribute"`
	ValueID       int64  `json:"value_id"`
	Value         string `json:"value"`
	ValueCode     string `json:"value_code"`
}

type Variant struct {
	ID                int64     `json:"id"`
	ProductID         int64     `json:"product_id"`
	SKU               string    `json:"sku"`
	PriceCents        int64     `json:"price_cents"`
	Stock             int       `json:"stock"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	IsActive          bool      `json:"is_active"`
	Label             string    `json:"label"`
	Options           []Option  `json:"options"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewVariant describes a single variant to create. An empty SKU is derived
// from the product slug and the option value codes.
type NewVariant struct {
	ProductID         int64
	SKU               string
	PriceCents        int64
	Stock             int
	LowStockThreshold int
	IsActive          bool
	ValueIDs          []int64
	CreatedBy         *int64
}

// Selection is the set of values chosen for one attribute when generating variants.
type Selection struct {
	AttributeID int64   `json:"attribute_id" validate:"required,gt=0"`
	ValueIDs    []int64 `json:"value_ids" validate:"required,min=1,dive,gt=0"`
}

// GenerateRequest creates every missing combination of the selected values
// with the same starting price, stock threshold and active flag.
type GenerateRequest struct {
	ProductID         int64
	Selections        []Selection
	PriceCents        int64
	LowStockThreshold int
	IsActive          bool
}

type GenerateResult struct {
	Created []*Variant `json:"created"`
	Skipped int        `json:"skipped"`
}
