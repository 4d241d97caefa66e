package carts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

var (
	ErrCartNotFound       = errors.New("cart not found")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrItemNotFound       = errors.New("cart item not found")
	ErrInvalidQuantity    = errors.New("quantity must be greater than zero")
	ErrVariantUnavailable = errors.New("variant not found or inactive")
	ErrInsufficientStock  = errors.New("not enough stock")
)

type Repository struct {
	db  dbx.Querier
	ttl time.Duration
}

func NewRepository(q dbx.Querier) *Repository {
	return &Repository{db: q, ttl: 7 * 24 * time.Hour}
}

func NewRepositoryWithTTL(q dbx.Querier, ttl time.Duration) *Repository {
	if ttl <= 0 {
		return NewRepository(q)
	}
	return &Repository{db: q, ttl: ttl}
}

// --- internal helpers ---

func (r *Repository) bumpTTLByCartID(ctx context.Context, cartID int64) {
	_, _ = r.db.Exec(ctx, `
UPDATE carts
SET expires_at = $2,
    updated_at = now()
WHERE id = $1
  AND status = 'active'
`, cartID, time.Now().Add(r.ttl))
}

const activeCartSubquery = `
SELECT id
FROM carts
WHERE user_id = $1
  AND status = 'active'
  AND (expires_at IS NULL OR expires_at > now())
LIMIT 1`

// EnsureActive returns the user's open cart, creating one when none exists.
// An expired cart still holding the one-active-cart index is abandoned first.
func (r *Repository) EnsureActive(ctx context.Context, userID int64) (int64, error) {
	const maxAttempts = 2

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var id int64
		err := r.db.QueryRow(ctx, activeCartSubquery, userID).Scan(&id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("get active cart: %w", err)
		}

		if _, err := r.db.Exec(ctx, `
UPDATE carts
SET status = 'abandoned', updated_at = now()
WHERE user_id = $1
  AND status = 'active'
  AND expires_at IS NOT NULL
  AND expires_at <= now()
`, userID); err != nil {
			return 0, fmt.Errorf("abandon expired cart: %w", err)
		}

		err = r.db.QueryRow(ctx, `
INSERT INTO carts (user_id, status, expires_at)
VALUES ($1, 'active', $2)
RETURNING id
`, userID, time.Now().Add(r.ttl)).Scan(&id)
		if err == nil {
			return id, nil
		}
		// a concurrent request created it; read it on the next pass
		if !dbx.IsUniqueViolation(err) {
			return 0, fmt.Errorf("create cart: %w", err)
		}
	}
	return 0, fmt.Errorf("ensure active cart: %w", ErrCartNotFound)
}

type variantState struct {
	active bool
	stock  int
	inCart int
}

func (r *Repository) variantState(ctx context.Context, cartID, variantID int64) (*variantState, error) {
	var s variantState
	err := r.db.QueryRow(ctx, `
SELECT pv.is_active AND p.is_active, pv.stock,
       COALESCE((SELECT quantity FROM cart_items WHERE cart_id = $2 AND product_variant_id = pv.id), 0)
FROM product_variants pv
JOIN products p ON p.id = pv.product_id
WHERE pv.id = $1
`, variantID, cartID).Scan(&s.active, &s.stock, &s.inCart)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVariantUnavailable
		}
		return nil, fmt.Errorf("variant state: %w", err)
	}
	return &s, nil
}

// AddItem merges qty into the cart line for the variant. The stock check is
// advisory; order placement re-checks under lock.
func (r *Repository) AddItem(ctx context.Context, userID, variantID int64, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	cartID, err := r.EnsureActive(ctx, userID)
	if err != nil {
		return err
	}

	state, err := r.variantState(ctx, cartID, variantID)
	if err != nil {
		return err
	}
	if !state.active {
		return ErrVariantUnavailable
	}
	if state.inCart+qty > state.stock {
		return fmt.Errorf("%w: %d available", ErrInsufficientStock, state.stock)
	}

	tag, err := r.db.Exec(ctx, `
INSERT INTO cart_items (cart_id, product_variant_id, quantity, price_cents)
SELECT $2, pv.id, $3, pv.price_cents
FROM product_variants pv
WHERE pv.id = $1 AND pv.is_active = true
ON CONFLICT (cart_id, product_variant_id)
DO UPDATE SET
  quantity    = cart_items.quantity + EXCLUDED.quantity,
  price_cents = EXCLUDED.price_cents,
  updated_at  = now()
`, variantID, cartID, qty)
	if err != nil {
		return fmt.Errorf("add item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVariantUnavailable
	}

	r.bumpTTLByCartID(ctx, cartID)
	return nil
}

func (r *Repository) UpdateItemQty(ctx context.Context, userID, itemID int64, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	var (
		cartID int64
		stock  int
	)
	err := r.db.QueryRow(ctx, `
SELECT ci.cart_id, pv.stock
FROM cart_items ci
JOIN product_variants pv ON pv.id = ci.product_variant_id
WHERE ci.id = $2
  AND ci.cart_id = (`+activeCartSubquery+`)
`, userID, itemID).Scan(&cartID, &stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrItemNotFound
		}
		return fmt.Errorf("get item: %w", err)
	}
	if qty > stock {
		return fmt.Errorf("%w: %d available", ErrInsufficientStock, stock)
	}

	if _, err := r.db.Exec(ctx, `
UPDATE cart_items
SET quantity = $2, updated_at = now()
WHERE id = $1
`, itemID, qty); err != nil {
		return fmt.Errorf("update qty: %w", err)
	}

	r.bumpTTLByCartID(ctx, cartID)
	return nil
}

func (r *Repository) RemoveItem(ctx context.Context, userID, itemID int64) error {
	var cartID int64

	err := r.db.QueryRow(ctx, `
DELETE FROM cart_items
WHERE id = $2
  AND cart_id = (`+activeCartSubquery+`)
RETURNING cart_id
`, userID, itemID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrItemNotFound
		}
		return fmt.Errorf("remove item: %w", err)
	}

	r.bumpTTLByCartID(ctx, cartID)
	return nil
}

// Clear empties the open cart and keeps it alive like any other edit.
// Having no open cart is not an error.
func (r *Repository) Clear(ctx context.Context, userID int64) error {
	var cartID int64
	err := r.db.QueryRow(ctx, activeCartSubquery, userID).Scan(&cartID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	if _, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	r.bumpTTLByCartID(ctx, cartID)
	return nil
}

// LockActive takes a row lock on the user's open cart. Call it inside a
// transaction; concurrent checkouts of the same cart queue behind it.
func (r *Repository) LockActive(ctx context.Context, userID int64) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
SELECT id
FROM carts
WHERE user_id = $1
  AND status = 'active'
  AND (expires_at IS NULL OR expires_at > now())
FOR UPDATE
`, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrEmptyCart
		}
		return 0, fmt.Errorf("lock cart: %w", err)
	}
	return id, nil
}

// CheckoutLines returns the cart lines ordered by variant id, which is also
// the order variant rows get locked in.
func (r *Repository) CheckoutLines(ctx context.Context, cartID int64) ([]CheckoutLine, error) {
	rows, err := r.db.Query(ctx, `
SELECT product_variant_id, quantity
FROM cart_items
WHERE cart_id = $1
ORDER BY product_variant_id
`, cartID)
	if err != nil {
		return nil, fmt.Errorf("checkout lines: %w", err)
	}
	defer rows.Close()

	var out []CheckoutLine
	for rows.Next() {
		var l CheckoutLine
		if err := rows.Scan(&l.VariantID, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scan checkout line: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *Repository) MarkConverted(ctx context.Context, cartID int64) error {
	tag, err := r.db.Exec(ctx, `
UPDATE carts
SET status = 'converted', updated_at = now()
WHERE id = $1 AND status = 'active'
`, cartID)
	if err != nil {
		return fmt.Errorf("convert cart: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCartNotFound
	}
	return nil
}

const cartColumns = `id, user_id, status, expires_at, created_at, updated_at`

func scanCart(row pgx.Row, c *Cart, extra ...any) error {
	return row.Scan(append([]any{&c.ID, &c.UserID, &c.Status, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt}, extra...)...)
}

// GetView returns the open cart with priced lines, or nil when the user has none.
func (r *Repository) GetView(ctx context.Context, userID int64) (*CartView, error) {
	var v CartView
	err := scanCart(r.db.QueryRow(ctx, `
SELECT `+cartColumns+`
FROM carts
WHERE user_id = $1
  AND status = 'active'
  AND (expires_at IS NULL OR expires_at > now())
LIMIT 1
`, userID), &v.Cart)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return r.fillLines(ctx, &v)
}

// GetViewByCartID is the admin view of any cart regardless of status.
func (r *Repository) GetViewByCartID(ctx context.Context, cartID int64) (*CartView, error) {
	var v CartView
	if err := scanCart(r.db.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1`, cartID), &v.Cart); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("get cart by id: %w", err)
	}
	return r.fillLines(ctx, &v)
}

func (r *Repository) fillLines(ctx context.Context, v *CartView) (*CartView, error) {
	rows, err := r.db.Query(ctx, `
SELECT
  ci.id, p.id, p.name, p.slug, pv.id, pv.sku,
  COALESCE((
    SELECT string_agg(av.value, ' / ' ORDER BY vo.attribute_id)
    FROM variant_options vo
    JOIN attribute_values av ON av.id = vo.attribute_value_id
    WHERE vo.variant_id = pv.id
  ), '') AS variant_label,
  ci.quantity,
  pv.price_cents,
  pv.stock,
  (pv.is_active AND p.is_active AND pv.stock >= ci.quantity) AS available,
  (
    SELECT url FROM product_images
    WHERE product_id = p.id
    ORDER BY is_primary DESC, sort_order, id
    LIMIT 1
  ) AS primary_image_url
FROM cart_items ci
JOIN product_variants pv ON pv.id = ci.product_variant_id
JOIN products p          ON p.id = pv.product_id
WHERE ci.cart_id = $1
ORDER BY ci.id ASC
`, v.Cart.ID)
	if err != nil {
		return nil, fmt.Errorf("cart lines: %w", err)
	}
	defer rows.Close()

	v.Items = []CartLine{}
	v.ItemCount = 0
	v.SubtotalCents = 0
	v.HasUnavailable = false

	for rows.Next() {
		var line CartLine
		if err := rows.Scan(
			&line.ItemID, &line.ProductID, &line.ProductName, &line.ProductSlug,
			&line.VariantID, &line.SKU, &line.VariantLabel,
			&line.Quantity, &line.UnitPriceCents, &line.Stock, &line.Available,
			&line.PrimaryImageURL,
		); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		line.LineTotalCents = int64(line.Quantity) * line.UnitPriceCents

		v.ItemCount += line.Quantity
		if line.Available {
			v.SubtotalCents += line.LineTotalCents
		} else {
			v.HasUnavailable = true
		}
		v.Items = append(v.Items, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cart lines rows: %w", err)
	}
	return v, nil
}

// MarkExpiredAsAbandoned is the scheduled housekeeping pass.
func (r *Repository) MarkExpiredAsAbandoned(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `
UPDATE carts
SET status = 'abandoned',
    updated_at = now()
WHERE status = 'active'
  AND expires_at IS NOT NULL
  AND expires_at <= now()
`)
	if err != nil {
		return 0, fmt.Errorf("mark abandoned: %w", err)
	}
	return tag.RowsAffected(), nil
}

// List returns carts for admin with optional status filter and expiry inclusion.
func (r *Repository) List(ctx context.Context, status string, includeExpired bool, limit, offset int) ([]Cart, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	if offset < 0 {
		offset = 0
	}

	where := "1=1"
	args := []any{}
	arg := 1

	if status != "" {
		where += fmt.Sprintf(" AND status = $%d", arg)
		args = append(args, status)
		arg++
	}
	if !includeExpired {
		where += " AND (expires_at IS NULL OR expires_at > now())"
	}

	q := fmt.Sprintf(`
SELECT `+cartColumns+`,
       COUNT(*) OVER() AS total
FROM carts
WHERE %s
ORDER BY id DESC
LIMIT $%d OFFSET $%d
`, where, arg, arg+1)

	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list carts: %w", err)
	}
	defer rows.Close()

	out := []Cart{}
	total := 0
	for rows.Next() {
		var c Cart
		if err := scanCart(rows, &c, &total); err != nil {
			return nil, 0, fmt.Errorf("scan cart: %w", err)
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}
