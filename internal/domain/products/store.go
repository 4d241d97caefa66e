package products

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

var (
	ErrBrandNotFound          = errors.New("brand not found")
	ErrBrandHasProducts       = errors.New("cannot delete brand with associated products")
	ErrDuplicateBrand         = errors.New("brand with this name or slug already exists")
	ErrCategoryNotFound       = errors.New("category not found")
	ErrCategoryHasChildren    = errors.New("category has subcategories")
	ErrCategoryHasProducts    = errors.New("category has associated products")
	ErrSubCategoryNotFound    = errors.New("subcategory not found")
	ErrSubCategoryHasProducts = errors.New("subcategory has associated products")
	ErrSubCategoryMismatch    = errors.New("subcategory does not belong to category")
	ErrProductNotFound        = errors.New("product not found")
	ErrImageNotFound          = errors.New("product image not found")
	ErrDuplicateSlug          = errors.New("slug already exists")
)

// Store is the data access abstraction for the catalog.
type Store interface {
	// Brands
	CreateBrand(ctx context.Context, b *Brand) (*Brand, error)
	GetBrandByID(ctx context.Context, id int64) (*Brand, error)
	ListBrands(ctx context.Context, limit, offset int) ([]*Brand, int, error)
	UpdateBrand(ctx context.Context, b *Brand) error
	DeleteBrand(ctx context.Context, id int64) error

	// Categories
	CreateCategory(ctx context.Context, c *Category) (*Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*CategoryWithSubs, error)
	ListCategories(ctx context.Context, includeInactive bool) ([]*CategoryWithSubs, error)
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id int64) error

	// Subcategories
	CreateSubCategory(ctx context.Context, s *SubCategory) (*SubCategory, error)
	GetSubCategoryByID(ctx context.Context, id int64) (*SubCategory, error)
	ListSubCategories(ctx context.Context, categoryID int64, includeInactive bool) ([]*SubCategory, error)
	UpdateSubCategory(ctx context.Context, s *SubCategory) error
	DeleteSubCategory(ctx context.Context, id int64) error

	// Products
	CreateProduct(ctx context.Context, p *Product) (*Product, error)
	GetProductByID(ctx context.Context, id int64) (*Product, error)
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id int64) error
	ListProductCards(ctx context.Context, f ProductFilter, limit, offset int) ([]*ProductCard, int, error)
	SearchProducts(ctx context.Context, query string, limit, offset int) ([]*ProductCard, int, error)
	ListAdminProducts(ctx context.Context, query string, limit, offset int) ([]*AdminProductCard, int, error)
	GetProductDetailBySlug(ctx context.Context, slug string) (*ProductDetail, error)

	// Product images
	CreateProductImage(ctx context.Context, img *ProductImage) (*ProductImage, error)
	GetProductImageByID(ctx context.Context, id int64) (*ProductImage, error)
	ListProductImages(ctx context.Context, productID int64) ([]*ProductImage, error)
	SetPrimaryImage(ctx context.Context, productID, imageID int64) error
	ReorderProductImages(ctx context.Context, productID int64, orderedIDs []int64) error
	DeleteProductImage(ctx context.Context, id int64) error
}

type Repository struct {
	db dbx.Querier
	tx dbx.TxBeginner
}

func NewRepository(db dbx.DB) *Repository {
	return &Repository{db: db, tx: db}
}

// ------------------------------------
// Brands
// ------------------------------------

func (r *Repository) CreateBrand(ctx context.Context, b *Brand) (*Brand, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO brands (name, slug, description, logo_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`, b.Name, b.Slug, b.Description, b.LogoURL)
	if err := row.Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, ErrDuplicateBrand
		}
		return nil, fmt.Errorf("create brand: %w", err)
	}
	return b, nil
}

func (r *Repository) GetBrandByID(ctx context.Context, id int64) (*Brand, error) {
	b := &Brand{}
	err := r.db.QueryRow(ctx, `
		SELECT id, name, slug, description, logo_url, created_at, updated_at
		FROM brands WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.Slug, &b.Description, &b.LogoURL, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBrandNotFound
		}
		return nil, fmt.Errorf("get brand: %w", err)
	}
	return b, nil
}

// ListBrands returns a page of brands and the true total.
// COUNT(*) OVER() gives the total when rows exist; past the last page it
// falls back to a separate COUNT(*) so the total is not reported as 0.
func (r *Repository) ListBrands(ctx context.Context, limit, offset int) ([]*Brand, int, error) {
	limit, offset = clampPage(limit, offset)

	rows, err := r.db.Query(ctx, `
		SELECT id, name, slug, description, logo_url, created_at, updated_at,
		       COUNT(*) OVER() AS total_count
		FROM brands
		ORDER BY lower(name), id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()

	brands := make([]*Brand, 0, limit)
	total := 0
	for rows.Next() {
		b := &Brand{}
		if err := rows.Scan(&b.ID, &b.Name, &b.Slug, &b.Description, &b.LogoURL, &b.CreatedAt, &b.UpdatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan brand: %w", err)
		}
		brands = append(brands, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(brands) == 0 && offset > 0 {
		if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM brands`).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count brands: %w", err)
		}
	}
	return brands, total, nil
}

func (r *Repository) UpdateBrand(ctx context.Context, b *Brand) error {
	err := r.db.QueryRow(ctx, `
		UPDATE brands
		SET name = $1, slug = $2, description = $3, logo_url = $4, updated_at = now()
		WHERE id = $5
		RETURNING updated_at`, b.Name, b.Slug, b.Description, b.LogoURL, b.ID).Scan(&b.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return ErrBrandNotFound
		case dbx.IsUniqueViolation(err):
			return ErrDuplicateBrand
		}
		return fmt.Errorf("update brand: %w", err)
	}
	return nil
}

func (r *Repository) DeleteBrand(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM brands WHERE id = $1`, id)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return ErrBrandHasProducts
		}
		return fmt.Errorf("delete brand: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBrandNotFound
	}
	return nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 30 {
		limit = 30
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
