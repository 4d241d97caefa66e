package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"
)

const productColumns = `id, name, slug, description, category_id, subcategory_id, brand_id,
       base_price_cents, is_active, is_featured, created_at, updated_at`

func scanProduct(row pgx.Row, p *Product) error {
	return row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.CategoryID, &p.SubCategoryID, &p.BrandID,
		&p.BasePriceCents, &p.IsActive, &p.IsFeatured, &p.CreatedAt, &p.UpdatedAt)
}

// mapProductWriteErr translates constraint failures on products into domain errors.
func mapProductWriteErr(err error) error {
	switch {
	case dbx.IsUniqueViolation(err):
		return ErrDuplicateSlug
	case dbx.IsCheckViolation(err):
		return ErrSubCategoryMismatch
	case dbx.IsForeignKeyViolation(err):
		switch dbx.ConstraintName(err) {
		case "products_brand_id_fkey":
			return ErrBrandNotFound
		case "products_category_id_fkey":
			return ErrCategoryNotFound
		default:
			return ErrSubCategoryMismatch
		}
	}
	return nil
}

func (r *Repository) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO products (name, slug, description, category_id, subcategory_id, brand_id,
		                      base_price_cents, is_active, is_featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		p.Name, p.Slug, p.Description, p.CategoryID, p.SubCategoryID, p.BrandID,
		p.BasePriceCents, p.IsActive, p.IsFeatured,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if mapped := mapProductWriteErr(err); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func (r *Repository) GetProductByID(ctx context.Context, id int64) (*Product, error) {
	p := &Product{}
	err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id), p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *Repository) UpdateProduct(ctx context.Context, p *Product) error {
	err := r.db.QueryRow(ctx, `
		UPDATE products
		SET name = $1, slug = $2, description = $3, category_id = $4, subcategory_id = $5, brand_id = $6,
		    base_price_cents = $7, is_active = $8, is_featured = $9, updated_at = now()
		WHERE id = $10
		RETURNING updated_at`,
		p.Name, p.Slug, p.Description, p.CategoryID, p.SubCategoryID, p.BrandID,
		p.BasePriceCents, p.IsActive, p.IsFeatured, p.ID,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProductNotFound
		}
		if mapped := mapProductWriteErr(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// DeleteProduct cascades to variants, options, images and wishlist rows.
// Order items keep their snapshot with product_id set to NULL.
func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *Repository) ListProductCards(ctx context.Context, f ProductFilter, limit, offset int) ([]*ProductCard, int, error) {
	limit, offset = clampPage(limit, offset)
	query, countQuery, args := buildCardQuery(f, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list product cards: %w", err)
	}
	defer rows.Close()

	cards := make([]*ProductCard, 0, limit)
	total := 0
	for rows.Next() {
		c := &ProductCard{}
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Slug, &c.Description,
			&c.BrandID, &c.BrandName, &c.CategoryID, &c.CategoryName, &c.SubCategoryID, &c.SubCategoryName,
			&c.PriceCents, &c.InStock, &c.PrimaryImageURL, &c.IsFeatured, &c.CreatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product card: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(cards) == 0 && offset > 0 {
		if err := r.db.QueryRow(ctx, countQuery, args[:len(args)-2]...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count product cards: %w", err)
		}
	}
	return cards, total, nil
}

func (r *Repository) SearchProducts(ctx context.Context, query string, limit, offset int) ([]*ProductCard, int, error) {
	return r.ListProductCards(ctx, ProductFilter{Query: query, Sort: SortNameAsc}, limit, offset)
}

// ListAdminProducts includes inactive products and per-product counters.
func (r *Repository) ListAdminProducts(ctx context.Context, query string, limit, offset int) ([]*AdminProductCard, int, error) {
	limit, offset = clampPage(limit, offset)

	pattern := ""
	if q := strings.TrimSpace(query); q != "" {
		pattern = likePattern(q)
	}

	rows, err := r.db.Query(ctx, `
SELECT
  p.id, p.name, p.slug, p.description, p.category_id, p.subcategory_id, p.brand_id,
  p.base_price_cents, p.is_active, p.is_featured, p.created_at, p.updated_at,
  b.name, c.name,
  (SELECT COUNT(*) FROM product_variants pv WHERE pv.product_id = p.id),
  (SELECT COALESCE(SUM(pv.stock), 0) FROM product_variants pv WHERE pv.product_id = p.id),
  (SELECT COUNT(*) FROM product_images pi WHERE pi.product_id = p.id),
  COUNT(*) OVER() AS total_count
FROM products p
LEFT JOIN brands b     ON b.id = p.brand_id
LEFT JOIN categories c ON c.id = p.category_id
WHERE ($1 = '' OR p.name ILIKE $1 OR p.slug ILIKE $1)
ORDER BY p.created_at DESC, p.id DESC
LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list admin products: %w", err)
	}
	defer rows.Close()

	out := make([]*AdminProductCard, 0, limit)
	total := 0
	for rows.Next() {
		c := &AdminProductCard{}
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Slug, &c.Description, &c.CategoryID, &c.SubCategoryID, &c.BrandID,
			&c.BasePriceCents, &c.IsActive, &c.IsFeatured, &c.CreatedAt, &c.UpdatedAt,
			&c.BrandName, &c.CategoryName,
			&c.VariantsCount, &c.TotalStock, &c.ImagesCount,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan admin product: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(out) == 0 && offset > 0 {
		if err := r.db.QueryRow(ctx, `
SELECT COUNT(*) FROM products p
WHERE ($1 = '' OR p.name ILIKE $1 OR p.slug ILIKE $1)`, pattern).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count admin products: %w", err)
		}
	}
	return out, total, nil
}

// GetProductDetailBySlug loads an active product with its relations,
// active variants with their options, and images.
func (r *Repository) GetProductDetailBySlug(ctx context.Context, slug string) (*ProductDetail, error) {
	p := &Product{}
	err := scanProduct(r.db.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE slug = $1 AND is_active = true`, slug), p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product by slug: %w", err)
	}

	detail := &ProductDetail{Product: p}

	if p.BrandID != nil {
		b, err := r.GetBrandByID(ctx, *p.BrandID)
		if err != nil && !errors.Is(err, ErrBrandNotFound) {
			return nil, err
		}
		detail.Brand = b
	}
	if p.CategoryID != nil {
		c, err := r.GetCategoryByID(ctx, *p.CategoryID)
		if err != nil && !errors.Is(err, ErrCategoryNotFound) {
			return nil, err
		}
		detail.Category = c
	}
	if p.SubCategoryID != nil {
		s, err := r.GetSubCategoryByID(ctx, *p.SubCategoryID)
		if err != nil && !errors.Is(err, ErrSubCategoryNotFound) {
			return nil, err
		}
		detail.SubCategory = s
	}

	variants, err := r.listDetailVariants(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	detail.Variants = variants
	detail.Options = optionGroups(variants)

	images, err := r.ListProductImages(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	detail.Images = images

	return detail, nil
}

func (r *Repository) listDetailVariants(ctx context.Context, productID int64) ([]*DetailVariant, error) {
	rows, err := r.db.Query(ctx, `
SELECT pv.id, pv.sku, pv.price_cents, pv.stock,
       a.id, a.name, av.id, av.value
FROM product_variants pv
LEFT JOIN variant_options vo   ON vo.variant_id = pv.id
LEFT JOIN attributes a         ON a.id = vo.attribute_id
LEFT JOIN attribute_values av  ON av.id = vo.attribute_value_id
WHERE pv.product_id = $1 AND pv.is_active = true
ORDER BY pv.price_cents, pv.id, a.id`, productID)
	if err != nil {
		return nil, fmt.Errorf("list detail variants: %w", err)
	}
	defer rows.Close()

	out := []*DetailVariant{}
	var cur *DetailVariant
	for rows.Next() {
		var (
			id, price       int64
			sku             string
			stock           int
			attrID, valueID *int64
			attr, value     *string
		)
		if err := rows.Scan(&id, &sku, &price, &stock, &attrID, &attr, &valueID, &value); err != nil {
			return nil, fmt.Errorf("scan detail variant: %w", err)
		}
		if cur == nil || cur.ID != id {
			cur = &DetailVariant{ID: id, SKU: sku, PriceCents: price, Stock: stock, InStock: stock > 0, Options: []OptionView{}}
			out = append(out, cur)
		}
		if attrID != nil && valueID != nil {
			cur.Options = append(cur.Options, OptionView{
				AttributeID: *attrID, Attribute: lo.FromPtr(attr),
				ValueID: *valueID, Value: lo.FromPtr(value),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, v := range out {
		v.Label = strings.Join(lo.Map(v.Options, func(o OptionView, _ int) string { return o.Value }), " / ")
	}
	return out, nil
}

// optionGroups collapses variant options into one entry per attribute,
// values in first-seen order.
func optionGroups(variants []*DetailVariant) []OptionGroup {
	all := lo.FlatMap(variants, func(v *DetailVariant, _ int) []OptionView { return v.Options })
	attrs := lo.UniqBy(all, func(o OptionView) int64 { return o.AttributeID })

	groups := make([]OptionGroup, 0, len(attrs))
	for _, a := range attrs {
		values := lo.Uniq(lo.FilterMap(all, func(o OptionView, _ int) (string, bool) {
			return o.Value, o.AttributeID == a.AttributeID
		}))
		groups = append(groups, OptionGroup{AttributeID: a.AttributeID, Attribute: a.Attribute, Values: values})
	}
	return groups
}
