package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"
)

var (
	ErrVariantNotFound = errors.New("variant not found")
	ErrNegativeStock   = errors.New("stock cannot go below zero")
	ErrInvalidReason   = errors.New("invalid inventory reason")
	ErrNoChange        = errors.New("adjustment must change the stock")
)

const exportLimit = 10000

type Store interface {
	Adjust(ctx context.Context, a Adjustment) (*AdjustResult, error)
	SetStock(ctx context.Context, variantID int64, qty int, actorID *int64) (*AdjustResult, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*Item, int, error)
	ListAll(ctx context.Context, f Filter) ([]*Item, error)
	ListMovements(ctx context.Context, variantID int64, limit, offset int) ([]*Movement, int, error)
}

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

// RecordMovement appends a movement row. Callers run it in the same
// transaction as the stock change it describes.
func RecordMovement(ctx context.Context, q dbx.Querier, m *Movement) error {
	err := q.QueryRow(ctx, `
		INSERT INTO inventory_movements (variant_id, change, stock_before, stock_after, reason, reference_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		m.VariantID, m.Change, m.StockBefore, m.StockAfter, m.Reason, m.ReferenceID, m.CreatedBy,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("record movement: %w", err)
	}
	return nil
}

// applyQuery locks the variant, writes the new stock and the movement in
// one statement, so it is atomic with or without an outer transaction.
// %[1]s is the new stock expression in terms of cur.stock.
const applyQuery = `
WITH cur AS (
  SELECT pv.id, pv.stock, pv.low_stock_threshold, pv.sku, p.name
  FROM product_variants pv
  JOIN products p ON p.id = pv.product_id
  WHERE pv.id = $1
  FOR UPDATE OF pv
), upd AS (
  UPDATE product_variants pv
  SET stock = %[1]s, updated_at = now()
  FROM cur
  WHERE pv.id = cur.id AND %[1]s >= 0 AND %[1]s <> cur.stock
  RETURNING pv.id, pv.stock
), mv AS (
  INSERT INTO inventory_movements (variant_id, change, stock_before, stock_after, reason, reference_id, created_by)
  SELECT cur.id, upd.stock - cur.stock, cur.stock, upd.stock, $3, $4, $5
  FROM cur JOIN upd ON upd.id = cur.id
)
SELECT cur.stock, upd.stock, cur.low_stock_threshold, cur.sku, cur.name
FROM cur LEFT JOIN upd ON upd.id = cur.id`

func (r *Repository) apply(ctx context.Context, newStock string, variantID int64, arg int, reason string, refID, actorID *int64) (*AdjustResult, *int, error) {
	res := &AdjustResult{VariantID: variantID}
	var after *int
	err := r.db.QueryRow(ctx, fmt.Sprintf(applyQuery, newStock), variantID, arg, reason, refID, actorID).
		Scan(&res.StockBefore, &after, &res.Threshold, &res.SKU, &res.ProductName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrVariantNotFound
		}
		return nil, nil, fmt.Errorf("apply stock change: %w", err)
	}
	return res, after, nil
}

// Adjust adds a.Delta to the variant stock and reports any threshold crossing.
func (r *Repository) Adjust(ctx context.Context, a Adjustment) (*AdjustResult, error) {
	if a.Delta == 0 {
		return nil, ErrNoChange
	}
	if !lo.Contains(Reasons, a.Reason) {
		return nil, ErrInvalidReason
	}

	res, after, err := r.apply(ctx, "cur.stock + $2::int", a.VariantID, a.Delta, a.Reason, a.ReferenceID, a.ActorID)
	if err != nil {
		return nil, err
	}
	if after == nil {
		return nil, ErrNegativeStock
	}
	res.StockAfter = *after
	res.Level = StockLevel(res.StockBefore, res.StockAfter, res.Threshold)
	return res, nil
}

// SetStock overwrites the stock, recorded as a manual adjustment of the difference.
// Setting the current value is a no-op.
func (r *Repository) SetStock(ctx context.Context, variantID int64, qty int, actorID *int64) (*AdjustResult, error) {
	if qty < 0 {
		return nil, ErrNegativeStock
	}

	res, after, err := r.apply(ctx, "$2::int", variantID, qty, ReasonManualAdjustment, nil, actorID)
	if err != nil {
		return nil, err
	}
	res.StockAfter = res.StockBefore
	if after != nil {
		res.StockAfter = *after
	}
	res.Level = StockLevel(res.StockBefore, res.StockAfter, res.Threshold)
	return res, nil
}

const itemSelect = `
SELECT pv.id, pv.product_id, p.name, pv.sku,
       COALESCE((
         SELECT string_agg(av.value, ' / ' ORDER BY vo.attribute_id)
         FROM variant_options vo
         JOIN attribute_values av ON av.id = vo.attribute_value_id
         WHERE vo.variant_id = pv.id
       ), '') AS label,
       pv.price_cents, pv.stock, pv.low_stock_threshold, pv.is_active, pv.updated_at`

const itemFrom = `
FROM product_variants pv
JOIN products p ON p.id = pv.product_id
WHERE ($1 = '' OR pv.sku ILIKE $1 OR p.name ILIKE $1)
  AND (NOT $2 OR pv.stock <= pv.low_stock_threshold)
  AND (NOT $3 OR pv.stock = 0)`

func filterArgs(f Filter) []any {
	pattern := ""
	if q := strings.TrimSpace(f.Query); q != "" {
		r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
		pattern = "%" + r.Replace(q) + "%"
	}
	return []any{pattern, f.LowStock, f.OutOfStock}
}

func scanItem(row pgx.Row, it *Item, extra ...any) error {
	dest := []any{&it.VariantID, &it.ProductID, &it.ProductName, &it.SKU, &it.Label,
		&it.PriceCents, &it.Stock, &it.LowStockThreshold, &it.IsActive, &it.UpdatedAt}
	return row.Scan(append(dest, extra...)...)
}

// List returns inventory rows, lowest stock first.
func (r *Repository) List(ctx context.Context, f Filter, limit, offset int) ([]*Item, int, error) {
	args := append(filterArgs(f), limit, offset)
	rows, err := r.db.Query(ctx, itemSelect+`, COUNT(*) OVER() AS total_count`+itemFrom+`
ORDER BY pv.stock ASC, pv.id ASC
LIMIT $4 OFFSET $5`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	items := make([]*Item, 0, limit)
	total := 0
	for rows.Next() {
		it := &Item{}
		if err := scanItem(rows, it, &total); err != nil {
			return nil, 0, fmt.Errorf("scan inventory: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(items) == 0 && offset > 0 {
		if err := r.db.QueryRow(ctx, `SELECT COUNT(*)`+itemFrom, filterArgs(f)...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count inventory: %w", err)
		}
	}
	return items, total, nil
}

// ListAll feeds the export; it is capped rather than paginated.
func (r *Repository) ListAll(ctx context.Context, f Filter) ([]*Item, error) {
	args := append(filterArgs(f), exportLimit)
	rows, err := r.db.Query(ctx, itemSelect+itemFrom+`
ORDER BY p.name, pv.sku
LIMIT $4`, args...)
	if err != nil {
		return nil, fmt.Errorf("export inventory: %w", err)
	}
	defer rows.Close()

	items := []*Item{}
	for rows.Next() {
		it := &Item{}
		if err := scanItem(rows, it); err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *Repository) ListMovements(ctx context.Context, variantID int64, limit, offset int) ([]*Movement, int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, variant_id, change, stock_before, stock_after, reason, reference_id, created_by, created_at,
		       COUNT(*) OVER() AS total_count
		FROM inventory_movements
		WHERE variant_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, variantID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	out := make([]*Movement, 0, limit)
	total := 0
	for rows.Next() {
		m := &Movement{}
		if err := rows.Scan(&m.ID, &m.VariantID, &m.Change, &m.StockBefore, &m.StockAfter, &m.Reason,
			&m.ReferenceID, &m.CreatedBy, &m.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan movement: %w", err)
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}
