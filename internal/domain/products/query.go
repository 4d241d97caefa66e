package products

import (
	"fmt"
	"strings"
)

// effective price of a card: cheapest active variant, else the product base price
const cardPriceExpr = `COALESCE(vs.min_price_cents, p.base_price_cents)`

const cardFrom = `
FROM products p
LEFT JOIN brands b         ON b.id = p.brand_id
LEFT JOIN categories c     ON c.id = p.category_id
LEFT JOIN subcategories sc ON sc.id = p.subcategory_id
LEFT JOIN (
  SELECT product_id, MIN(price_cents) AS min_price_cents, SUM(stock) AS total_stock
  FROM product_variants
  WHERE is_active = true
  GROUP BY product_id
) vs ON vs.product_id = p.id`

// cardWhere renders the WHERE clause for f with positional args starting at $1.
func cardWhere(f ProductFilter) (string, []any) {
	var (
		conds = []string{"p.is_active = true", "(c.id IS NULL OR c.is_active = true)"}
		args  []any
	)
	add := func(format string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		add("(p.name ILIKE $%[1]d OR p.description ILIKE $%[1]d)", likePattern(q))
	}
	if f.CategorySlug != "" {
		add("c.slug = $%d", f.CategorySlug)
	}
	if f.SubCategorySlug != "" {
		add("sc.slug = $%d", f.SubCategorySlug)
	}
	if f.BrandSlug != "" {
		add("b.slug = $%d", f.BrandSlug)
	}
	if f.MinPriceCents != nil {
		add(cardPriceExpr+" >= $%d", *f.MinPriceCents)
	}
	if f.MaxPriceCents != nil {
		add(cardPriceExpr+" <= $%d", *f.MaxPriceCents)
	}
	if f.InStock != nil {
		if *f.InStock {
			conds = append(conds, "COALESCE(vs.total_stock, 0) > 0")
		} else {
			conds = append(conds, "COALESCE(vs.total_stock, 0) = 0")
		}
	}
	if f.Featured != nil {
		add("p.is_featured = $%d", *f.Featured)
	}

	return "WHERE " + strings.Join(conds, "\n  AND "), args
}

func cardOrderBy(sort string) string {
	switch sort {
	case SortPriceAsc:
		return cardPriceExpr + " ASC, p.id ASC"
	case SortPriceDesc:
		return cardPriceExpr + " DESC, p.id DESC"
	case SortNameAsc:
		return "lower(p.name) ASC, p.id ASC"
	case SortNameDesc:
		return "lower(p.name) DESC, p.id DESC"
	default:
		return "p.created_at DESC, p.id DESC"
	}
}

// buildCardQuery returns the page query (with COUNT(*) OVER()) and the
// matching count query for the fallback when the page is past the end.
func buildCardQuery(f ProductFilter, limit, offset int) (query, countQuery string, args []any) {
	where, args := cardWhere(f)

	query = fmt.Sprintf(`
SELECT
  p.id, p.name, p.slug, p.description,
  p.brand_id, b.name, p.category_id, c.name, p.subcategory_id, sc.name,
  %s AS price_cents,
  COALESCE(vs.total_stock, 0) > 0 AS in_stock,
  (SELECT pi.url FROM product_images pi
    WHERE pi.product_id = p.id
    ORDER BY pi.is_primary DESC, pi.sort_order, pi.id
    LIMIT 1) AS primary_image_url,
  p.is_featured, p.created_at,
  COUNT(*) OVER() AS total_count
%s
%s
ORDER BY %s
LIMIT $%d OFFSET $%d`, cardPriceExpr, cardFrom, where, cardOrderBy(f.Sort), len(args)+1, len(args)+2)

	countQuery = fmt.Sprintf("SELECT COUNT(*) %s\n%s", cardFrom, where)
	return query, countQuery, append(args, limit, offset)
}

// likePattern escapes ILIKE wildcards so user input matches literally.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
