package orders

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	gen, err := NewOrderNumberGenerator("test-salt")
	require.NoError(t, err)
	return NewRepository(mock, gen, ShippingPolicy{FlatCents: 500, FreeOverCents: 10000}), mock
}

func TestShippingPolicy(t *testing.T) {
	p := ShippingPolicy{FlatCents: 500, FreeOverCents: 10000}
	assert.Equal(t, int64(500), p.Quote(9999))
	assert.Equal(t, int64(0), p.Quote(10000))
	assert.Equal(t, int64(0), p.Quote(0))
	assert.Equal(t, int64(500), ShippingPolicy{FlatCents: 500}.Quote(1_000_000))
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		ok       bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusShipped, StatusDelivered, true},
		{StatusDelivered, StatusRefunded, true},
		{StatusShipped, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusPending, StatusDelivered, false},
		{StatusRefunded, StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.ok, CanTransition(tt.from, tt.to))
		})
	}
	assert.True(t, CustomerCancellable(StatusProcessing))
	assert.False(t, CustomerCancellable(StatusShipped))
}

func TestOrderNumber_RoundTrip(t *testing.T) {
	gen, err := NewOrderNumberGenerator("salt")
	require.NoError(t, err)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	gen.now = func() time.Time { return fixed }

	n, err := gen.Generate(42)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(n, "SF-"))
	assert.NotContains(t, n[3:], "O")
	assert.NotContains(t, n[3:], "0")

	uid, at, err := gen.Decode(n)
	require.NoError(t, err)
	assert.Equal(t, int64(42), uid)
	assert.True(t, fixed.Equal(at))

	_, _, err = gen.Decode("KHEL-123")
	assert.Error(t, err)
}

func TestStockError(t *testing.T) {
	var err error = &StockError{VariantID: 3, SKU: "TEE-S", Requested: 4, Available: 1}
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var se *StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 1, se.Available)
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "123.45", FormatCents(12345))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "-1.00", FormatCents(-100))
}

var lockedCols = []string{"id", "product_id", "name", "sku", "label", "price_cents", "stock", "low_stock_threshold", "active"}

func expectCart(mock pgxmock.PgxPoolIface, userID, cartID int64, lines ...[2]any) {
	mock.ExpectQuery(`SELECT id\s+FROM carts`).WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(cartID))
	rows := pgxmock.NewRows([]string{"product_variant_id", "quantity"})
	for _, l := range lines {
		rows.AddRow(l[0], l[1])
	}
	mock.ExpectQuery(`SELECT product_variant_id, quantity\s+FROM cart_items`).WithArgs(cartID).WillReturnRows(rows)
}

func TestPlaceOrder_DecrementsAndAlerts(t *testing.T) {
	repo, mock := newTestRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	expectCart(mock, 7, 11, [2]any{int64(21), 2})
	mock.ExpectQuery(`FOR UPDATE OF pv`).WithArgs([]int64{21}).
		WillReturnRows(pgxmock.NewRows(lockedCols).
			AddRow(int64(21), int64(3), "Classic Tee", "CLASSICTEE-BLUE-S", "Blue / S", int64(1500), 5, 3, true))
	mock.ExpectQuery(`INSERT INTO orders`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "status", "created_at", "updated_at"}).
			AddRow(int64(100), StatusPending, now, now))
	mock.ExpectQuery(`UPDATE product_variants\s+SET stock = stock - \$2`).WithArgs(int64(21), 2).
		WillReturnRows(pgxmock.NewRows([]string{"stock"}).AddRow(3))
	mock.ExpectQuery(`INSERT INTO inventory_movements`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), now))
	mock.ExpectQuery(`INSERT INTO order_items`).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(500)))
	mock.ExpectQuery(`INSERT INTO notifications`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "is_read", "created_at"}).AddRow(int64(1), false, now))
	mock.ExpectExec(`UPDATE carts`).WithArgs(int64(11)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`INSERT INTO notifications`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "is_read", "created_at"}).AddRow(int64(2), false, now))
	mock.ExpectCommit()

	placed, err := repo.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:   7,
		Shipping: ShippingInfo{Name: "Ana", Phone: "555", Address: "1 Main", City: "Lisbon", Country: "PT"},
	})
	require.NoError(t, err)

	o := placed.Detail.Order
	assert.Equal(t, int64(100), o.ID)
	assert.Equal(t, int64(3000), o.SubtotalCents)
	assert.Equal(t, int64(500), o.ShippingCents)
	assert.Equal(t, int64(3500), o.TotalCents)
	assert.Equal(t, PaymentCashOnDelivery, o.PaymentMethod)

	require.Len(t, placed.Detail.Items, 1)
	assert.Equal(t, "Blue / S", placed.Detail.Items[0].VariantLabel)
	assert.Equal(t, int64(3000), placed.Detail.Items[0].TotalPriceCents)

	require.Len(t, placed.Alerts, 1)
	assert.Equal(t, "low_stock", placed.Alerts[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrder_InsufficientStockRollsBack(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	expectCart(mock, 7, 11, [2]any{int64(21), 1}, [2]any{int64(22), 4})
	mock.ExpectQuery(`FOR UPDATE OF pv`).WithArgs([]int64{21, 22}).
		WillReturnRows(pgxmock.NewRows(lockedCols).
			AddRow(int64(21), int64(3), "Classic Tee", "CLASSICTEE-BLUE-S", "Blue / S", int64(1500), 5, 3, true).
			AddRow(int64(22), int64(3), "Classic Tee", "CLASSICTEE-BLUE-M", "Blue / M", int64(1500), 1, 3, true))
	mock.ExpectRollback()

	_, err := repo.PlaceOrder(context.Background(), PlaceOrderInput{UserID: 7})
	require.Error(t, err)

	var se *StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, int64(22), se.VariantID)
	assert.Equal(t, 4, se.Requested)
	assert.Equal(t, 1, se.Available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrder_InactiveVariant(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	expectCart(mock, 7, 11, [2]any{int64(21), 1}, [2]any{int64(99), 1})
	mock.ExpectQuery(`FOR UPDATE OF pv`).
		WillReturnRows(pgxmock.NewRows(lockedCols).
			AddRow(int64(21), int64(3), "Classic Tee", "CLASSICTEE-BLUE-S", "Blue / S", int64(1500), 5, 3, true))
	mock.ExpectRollback()

	_, err := repo.PlaceOrder(context.Background(), PlaceOrderInput{UserID: 7})
	assert.ErrorIs(t, err, ErrVariantUnavailable)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	expectCart(mock, 7, 11)
	mock.ExpectRollback()

	_, err := repo.PlaceOrder(context.Background(), PlaceOrderInput{UserID: 7})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCancelOrder_Restocks(t *testing.T) {
	repo, mock := newTestRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_id, order_number, status\s+FROM orders`).WithArgs(int64(100)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "order_number", "status"}).
			AddRow(int64(7), "SF-ABCDEFGHJK", StatusPending))
	mock.ExpectExec(`UPDATE orders`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`FROM order_items`).WithArgs(int64(100)).
		WillReturnRows(pgxmock.NewRows([]string{"product_variant_id", "quantity"}).AddRow(int64(21), 2))
	mock.ExpectQuery(`WITH cur AS`).
		WillReturnRows(pgxmock.NewRows([]string{"before", "after", "threshold", "sku", "name"}).
			AddRow(3, ptr(5), 3, "CLASSICTEE-BLUE-S", "Classic Tee"))
	mock.ExpectQuery(`INSERT INTO notifications`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "is_read", "created_at"}).AddRow(int64(3), false, now))
	mock.ExpectCommit()

	reason := "changed my mind"
	change, err := repo.CancelOrder(context.Background(), 7, 100, &reason)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, change.From)
	assert.Equal(t, StatusCancelled, change.To)
	assert.Equal(t, 1, change.Restocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelOrder_NotOwner(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_id, order_number, status\s+FROM orders`).WithArgs(int64(100)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "order_number", "status"}).
			AddRow(int64(8), "SF-ABCDEFGHJK", StatusPending))
	mock.ExpectRollback()

	_, err := repo.CancelOrder(context.Background(), 7, 100, nil)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_id, order_number, status\s+FROM orders`).WithArgs(int64(100)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "order_number", "status"}).
			AddRow(int64(7), "SF-ABCDEFGHJK", StatusShipped))
	mock.ExpectRollback()

	_, err := repo.UpdateStatus(context.Background(), 100, StatusCancelled, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, StatusShipped, te.From)
}

func ptr[T any](v T) *T { return &v }
