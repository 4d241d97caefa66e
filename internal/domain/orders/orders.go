package orders

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain/carts"
	"storefront/internal/domain/inventory"
	"storefront/internal/domain/notifications"
	"storefront/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

type Repository struct {
	q        dbx.Querier
	tx       dbx.TxBeginner
	gen      *OrderNumberGenerator
	shipping ShippingPolicy
}

func NewRepository(db dbx.DB, gen *OrderNumberGenerator, shipping ShippingPolicy) *Repository {
	if gen == nil {
		panic("orders: OrderNumberGenerator is nil")
	}
	return &Repository{q: db, tx: db, gen: gen, shipping: shipping}
}

const orderColumns = `id, order_number, user_id, cart_id, status, payment_method,
       shipping_name, shipping_phone, shipping_address, shipping_city, shipping_postal_code, shipping_country,
       subtotal_cents, shipping_cents, total_cents, cancelled_reason, cancelled_at, created_at, updated_at`

func scanOrder(row pgx.Row, o *Order, extra ...any) error {
	dest := []any{&o.ID, &o.OrderNumber, &o.UserID, &o.CartID, &o.Status, &o.PaymentMethod,
		&o.Shipping.Name, &o.Shipping.Phone, &o.Shipping.Address, &o.Shipping.City, &o.Shipping.PostalCode, &o.Shipping.Country,
		&o.SubtotalCents, &o.ShippingCents, &o.TotalCents, &o.CancelledReason, &o.CancelledAt, &o.CreatedAt, &o.UpdatedAt}
	return row.Scan(append(dest, extra...)...)
}

// lockedVariant is a variant row held FOR UPDATE during checkout.
type lockedVariant struct {
	ID          int64
	ProductID   int64
	ProductName string
	SKU         string
	Label       string
	PriceCents  int64
	Stock       int
	Threshold   int
	Active      bool
}

// PlaceOrder turns the user's active cart into an order in one transaction.
// Stock is decremented under row locks; any failure leaves stock, cart and
// orders untouched.
func (r *Repository) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Placed, error) {
	if in.PaymentMethod == "" {
		in.PaymentMethod = PaymentCashOnDelivery
	}
	number, err := r.gen.Generate(in.UserID)
	if err != nil {
		return nil, err
	}

	var placed *Placed
	err = dbx.WithTx(ctx, r.tx, func(tx pgx.Tx) error {
		p, err := r.placeTx(ctx, tx, in, number)
		if err != nil {
			return err
		}
		placed = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

func (r *Repository) placeTx(ctx context.Context, tx pgx.Tx, in PlaceOrderInput, number string) (*Placed, error) {
	cartRepo := carts.NewRepository(tx)
	notes := notifications.NewRepository(tx)

	// 1) the cart lock serializes concurrent checkouts by the same user
	cartID, err := cartRepo.LockActive(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	lines, err := cartRepo.CheckoutLines(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	// 2) variant locks, ascending id
	ids := make([]int64, len(lines))
	for i, l := range lines {
		ids[i] = l.VariantID
	}
	locked, err := lockVariants(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	// 3) validate and price
	var subtotal int64
	for _, l := range lines {
		v, ok := locked[l.VariantID]
		if !ok || !v.Active {
			return nil, fmt.Errorf("variant %d: %w", l.VariantID, ErrVariantUnavailable)
		}
		if v.Stock < l.Quantity {
			return nil, &StockError{VariantID: v.ID, SKU: v.SKU, Requested: l.Quantity, Available: v.Stock}
		}
		subtotal += v.PriceCents * int64(l.Quantity)
	}
	shipping := r.shipping.Quote(subtotal)

	o := Order{
		OrderNumber:   number,
		UserID:        in.UserID,
		CartID:        &cartID,
		PaymentMethod: in.PaymentMethod,
		Shipping:      in.Shipping,
		SubtotalCents: subtotal,
		ShippingCents: shipping,
		TotalCents:    subtotal + shipping,
	}
	err = tx.QueryRow(ctx, `
INSERT INTO orders (order_number, user_id, cart_id, payment_method,
  shipping_name, shipping_phone, shipping_address, shipping_city, shipping_postal_code, shipping_country,
  subtotal_cents, shipping_cents, total_cents)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
RETURNING id, status, created_at, updated_at`,
		o.OrderNumber, o.UserID, o.CartID, o.PaymentMethod,
		o.Shipping.Name, o.Shipping.Phone, o.Shipping.Address, o.Shipping.City, o.Shipping.PostalCode, o.Shipping.Country,
		o.SubtotalCents, o.ShippingCents, o.TotalCents,
	).Scan(&o.ID, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	// 4) decrement, record, snapshot
	placed := &Placed{Detail: &OrderDetail{Order: o, Items: make([]OrderItem, 0, len(lines))}}
	for _, l := range lines {
		v := locked[l.VariantID]

		var after int
		err := tx.QueryRow(ctx, `
UPDATE product_variants
SET stock = stock - $2, updated_at = now()
WHERE id = $1 AND stock >= $2
RETURNING stock`, v.ID, l.Quantity).Scan(&after)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, &StockError{VariantID: v.ID, SKU: v.SKU, Requested: l.Quantity, Available: v.Stock}
			}
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
		before := after + l.Quantity

		if err := inventory.RecordMovement(ctx, tx, &inventory.Movement{
			VariantID:   v.ID,
			Change:      -l.Quantity,
			StockBefore: before,
			StockAfter:  after,
			Reason:      inventory.ReasonOrderPlaced,
			ReferenceID: &o.ID,
		}); err != nil {
			return nil, err
		}

		it := OrderItem{
			OrderID:          o.ID,
			ProductID:        &v.ProductID,
			ProductVariantID: &v.ID,
			ProductName:      v.ProductName,
			SKU:              v.SKU,
			VariantLabel:     v.Label,
			Quantity:         l.Quantity,
			UnitPriceCents:   v.PriceCents,
			TotalPriceCents:  v.PriceCents * int64(l.Quantity),
		}
		err = tx.QueryRow(ctx, `
INSERT INTO order_items (order_id, product_id, product_variant_id, product_name, sku, variant_label,
  quantity, unit_price_cents, total_price_cents)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING id`,
			it.OrderID, it.ProductID, it.ProductVariantID, it.ProductName, it.SKU, it.VariantLabel,
			it.Quantity, it.UnitPriceCents, it.TotalPriceCents,
		).Scan(&it.ID)
		if err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
		placed.Detail.Items = append(placed.Detail.Items, it)

		level := inventory.StockLevel(before, after, v.Threshold)
		if alert := notifications.StockAlert(level, v.ID, v.SKU, v.ProductName, after); alert != nil {
			if err := notes.Create(ctx, alert); err != nil {
				return nil, err
			}
			placed.Alerts = append(placed.Alerts, alert)
		}
	}

	if err := cartRepo.MarkConverted(ctx, cartID); err != nil {
		return nil, err
	}

	if err := notes.Create(ctx, &notifications.Notification{
		Type:    notifications.TypeOrderPlaced,
		Title:   "New order",
		Message: fmt.Sprintf("Order %s placed, %d item(s), total %s", o.OrderNumber, len(lines), FormatCents(o.TotalCents)),
		OrderID: &o.ID,
	}); err != nil {
		return nil, err
	}

	return placed, nil
}

func lockVariants(ctx context.Context, q dbx.Querier, ids []int64) (map[int64]*lockedVariant, error) {
	rows, err := q.Query(ctx, `
SELECT pv.id, pv.product_id, p.name, pv.sku,
       COALESCE((
         SELECT string_agg(av.value, ' / ' ORDER BY vo.attribute_id)
         FROM variant_options vo
         JOIN attribute_values av ON av.id = vo.attribute_value_id
         WHERE vo.variant_id = pv.id
       ), '') AS label,
       pv.price_cents, pv.stock, pv.low_stock_threshold, pv.is_active AND p.is_active
FROM product_variants pv
JOIN products p ON p.id = pv.product_id
WHERE pv.id = ANY($1)
ORDER BY pv.id
FOR UPDATE OF pv`, ids)
	if err != nil {
		return nil, fmt.Errorf("lock variants: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]*lockedVariant, len(ids))
	for rows.Next() {
		v := &lockedVariant{}
		if err := rows.Scan(&v.ID, &v.ProductID, &v.ProductName, &v.SKU, &v.Label,
			&v.PriceCents, &v.Stock, &v.Threshold, &v.Active); err != nil {
			return nil, fmt.Errorf("scan locked variant: %w", err)
		}
		out[v.ID] = v
	}
	return out, rows.Err()
}

// CancelOrder is the customer path; only the owner may cancel and only
// before the order ships.
func (r *Repository) CancelOrder(ctx context.Context, userID, orderID int64, reason *string) (*StatusChange, error) {
	return r.transition(ctx, orderID, &userID, StatusCancelled, reason, &userID)
}

// UpdateStatus is the admin path.
func (r *Repository) UpdateStatus(ctx context.Context, orderID int64, status string, reason *string, actorID *int64) (*StatusChange, error) {
	return r.transition(ctx, orderID, nil, status, reason, actorID)
}

func (r *Repository) transition(ctx context.Context, orderID int64, owner *int64, to string, reason *string, actorID *int64) (*StatusChange, error) {
	var change *StatusChange
	err := dbx.WithTx(ctx, r.tx, func(tx pgx.Tx) error {
		c := &StatusChange{OrderID: orderID, To: to}
		err := tx.QueryRow(ctx, `
SELECT user_id, order_number, status
FROM orders
WHERE id = $1
FOR UPDATE`, orderID).Scan(&c.UserID, &c.OrderNumber, &c.From)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}
		if owner != nil && *owner != c.UserID {
			return ErrOrderNotFound
		}
		if !CanTransition(c.From, to) {
			return &TransitionError{From: c.From, To: to}
		}

		_, err = tx.Exec(ctx, `
UPDATE orders
SET status = $2::text,
    cancelled_reason = CASE WHEN $2::text = 'cancelled' THEN $3 ELSE cancelled_reason END,
    cancelled_at     = CASE WHEN $2::text = 'cancelled' THEN now() ELSE cancelled_at END,
    updated_at       = now()
WHERE id = $1`, orderID, to, reason)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		if to == StatusCancelled {
			n, err := restock(ctx, tx, orderID, actorID)
			if err != nil {
				return err
			}
			c.Restocked = n
		}

		userID := c.UserID
		if err := notifications.NewRepository(tx).Create(ctx, &notifications.Notification{
			UserID:  &userID,
			Type:    notifications.TypeOrderStatus,
			Title:   "Order update",
			Message: StatusMessage(c.OrderNumber, to),
			OrderID: &orderID,
		}); err != nil {
			return err
		}

		change = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return change, nil
}

// restock returns every line whose variant still exists to stock.
func restock(ctx context.Context, tx pgx.Tx, orderID int64, actorID *int64) (int, error) {
	rows, err := tx.Query(ctx, `
SELECT product_variant_id, quantity
FROM order_items
WHERE order_id = $1 AND product_variant_id IS NOT NULL
ORDER BY product_variant_id`, orderID)
	if err != nil {
		return 0, fmt.Errorf("order items for restock: %w", err)
	}
	var lines []carts.CheckoutLine
	for rows.Next() {
		var l carts.CheckoutLine
		if err := rows.Scan(&l.VariantID, &l.Quantity); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan restock line: %w", err)
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	inv := inventory.NewRepository(tx)
	n := 0
	for _, l := range lines {
		_, err := inv.Adjust(ctx, inventory.Adjustment{
			VariantID:   l.VariantID,
			Delta:       l.Quantity,
			Reason:      inventory.ReasonOrderCancelled,
			ReferenceID: &orderID,
			ActorID:     actorID,
		})
		if errors.Is(err, inventory.ErrVariantNotFound) {
			continue
		}
		if err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}

func StatusMessage(orderNumber, status string) string {
	switch status {
	case StatusProcessing:
		return fmt.Sprintf("Your order %s is being prepared", orderNumber)
	case StatusShipped:
		return fmt.Sprintf("Your order %s is on its way", orderNumber)
	case StatusDelivered:
		return fmt.Sprintf("Your order %s was delivered", orderNumber)
	case StatusCancelled:
		return fmt.Sprintf("Your order %s was cancelled", orderNumber)
	case StatusRefunded:
		return fmt.Sprintf("Your order %s was refunded", orderNumber)
	}
	return fmt.Sprintf("Your order %s is now %s", orderNumber, status)
}

// FormatCents renders 12345 as "123.45".
func FormatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign, c = "-", -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Order, error) {
	var o Order
	err := scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id), &o)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

func (r *Repository) list(ctx context.Context, where string, args []any, limit, offset int) ([]Order, int, error) {
	n := len(args)
	q := fmt.Sprintf(`
SELECT %s,
       COUNT(*) OVER() AS total_count
FROM orders
WHERE %s
ORDER BY created_at DESC, id DESC
LIMIT $%d OFFSET $%d`, orderColumns, where, n+1, n+2)

	rows, err := r.q.Query(ctx, q, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := []Order{}
	total := 0
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o, &total); err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(out) == 0 && offset > 0 {
		if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE `+where, args...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count orders: %w", err)
		}
	}
	return out, total, nil
}

// ListByUser returns the user's orders, newest first. An empty status means all.
func (r *Repository) ListByUser(ctx context.Context, userID int64, status string, limit, offset int) ([]Order, int, error) {
	return r.list(ctx, `user_id = $1 AND ($2 = '' OR status = $2)`, []any{userID, status}, limit, offset)
}

func (r *Repository) ListAll(ctx context.Context, status string, limit, offset int) ([]Order, int, error) {
	return r.list(ctx, `($1 = '' OR status = $1)`, []any{status}, limit, offset)
}

func (r *Repository) GetDetailForUser(ctx context.Context, userID, orderID int64) (*OrderDetail, error) {
	var o Order
	err := scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`,
		orderID, userID), &o)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order detail: %w", err)
	}
	items, err := r.loadItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderDetail{Order: o, Items: items}, nil
}

func (r *Repository) GetDetail(ctx context.Context, orderID int64) (*OrderDetail, error) {
	o, err := r.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	items, err := r.loadItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderDetail{Order: *o, Items: items}, nil
}

func (r *Repository) loadItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := r.q.Query(ctx, `
SELECT id, order_id, product_id, product_variant_id, product_name, sku, variant_label,
       quantity, unit_price_cents, total_price_cents
FROM order_items
WHERE order_id = $1
ORDER BY id ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("order items: %w", err)
	}
	defer rows.Close()

	items := []OrderItem{}
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductVariantID, &it.ProductName,
			&it.SKU, &it.VariantLabel, &it.Quantity, &it.UnitPriceCents, &it.TotalPriceCents); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
