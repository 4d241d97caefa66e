package products

import "time"

type Brand struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	LogoURL     *string   `json:"logo_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SubCategory struct {
	ID         int64     `json:"id"`
	CategoryID int64     `json:"category_id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CategoryWithSubs is one node of the two-level category tree.
type CategoryWithSubs struct {
	Category
	SubCategories []*SubCategory `json:"subcategories"`
}

type Product struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Description    *string   `json:"description,omitempty"`
	CategoryID     *int64    `json:"category_id,omitempty"`
	SubCategoryID  *int64    `json:"subcategory_id,omitempty"`
	BrandID        *int64    `json:"brand_id,omitempty"`
	BasePriceCents int64     `json:"base_price_cents"`
	IsActive       bool      `json:"is_active"`
	IsFeatured     bool      `json:"is_featured"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ProductImage struct {
	ID               int64     `json:"id"`
	ProductID        int64     `json:"product_id"`
	ProductVariantID *int64    `json:"product_variant_id,omitempty"`
	URL              string    `json:"url"`
	Alt              *string   `json:"alt,omitempty"`
	IsPrimary        bool      `json:"is_primary"`
	SortOrder        int       `json:"sort_order"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ProductCard is the lightweight row used by storefront listings.
// PriceCents is the cheapest active variant, or the base price when there is none.
type ProductCard struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	Description     *string   `json:"description,omitempty"`
	BrandID         *int64    `json:"brand_id,omitempty"`
	BrandName       *string   `json:"brand_name,omitempty"`
	CategoryID      *int64    `json:"category_id,omitempty"`
	CategoryName    *string   `json:"category_name,omitempty"`
	SubCategoryID   *int64    `json:"subcategory_id,omitempty"`
	SubCategoryName *string   `json:"subcategory_name,omitempty"`
	PriceCents      int64     `json:"price_cents"`
	InStock         bool      `json:"in_stock"`
	PrimaryImageURL *string   `json:"primary_image_url,omitempty"`
	IsFeatured      bool      `json:"is_featured"`
	CreatedAt       time.Time `json:"created_at"`
}

type AdminProductCard struct {
	Product
	BrandName     *string `json:"brand_name,omitempty"`
	CategoryName  *string `json:"category_name,omitempty"`
	VariantsCount int     `json:"variants_count"`
	TotalStock    int64   `json:"total_stock"`
	ImagesCount   int     `json:"images_count"`
}

type OptionView struct {
	AttributeID int64  `json:"attribute_id"`
	Attribute   string `json:"attribute"`
	ValueID     int64  `json:"value_id"`
	Value       string `json:"value"`
}

type DetailVariant struct {
	ID         int64        `json:"id"`
	SKU        string       `json:"sku"`
	PriceCents int64        `json:"price_cents"`
	Stock      int          `json:"stock"`
	InStock    bool         `json:"in_stock"`
	Label      string       `json:"label"`
	Options    []OptionView `json:"options"`
}

// OptionGroup lists the values a shopper can pick for one attribute.
type OptionGroup struct {
	AttributeID int64    `json:"attribute_id"`
	Attribute   string   `json:"attribute"`
	Values      []string `json:"values"`
}

type ProductDetail struct {
	Product     *Product         `json:"product"`
	Brand       *Brand           `json:"brand,omitempty"`
	Category    *Category        `json:"category,omitempty"`
	SubCategory *SubCategory     `json:"subcategory,omitempty"`
	Variants    []*DetailVariant `json:"variants"`
	Options     []OptionGroup    `json:"options"`
	Images      []*ProductImage  `json:"images"`
}

const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNameAsc   = "name_asc"
	SortNameDesc  = "name_desc"
)

var SortOptions = []string{SortNewest, SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc}

// ProductFilter narrows storefront listings. Zero values mean "no filter".
type ProductFilter struct {
	Query           string
	CategorySlug    string
	SubCategorySlug string
	BrandSlug       string
	MinPriceCents   *int64
	MaxPriceCents   *int64
	InStock         *bool
	Featured        *bool
	Sort            string
}
