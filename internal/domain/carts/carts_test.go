package carts

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectActiveCart(mock pgxmock.PgxPoolIface, userID, cartID int64) {
	mock.ExpectQuery(`SELECT id\s+FROM carts`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(cartID))
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	err := NewRepository(nil).AddItem(context.Background(), 1, 2, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestAddItem_MergedQuantityOverStock(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectActiveCart(mock, 1, 3)
	mock.ExpectQuery("FROM product_variants pv").
		WithArgs(int64(9), int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"active", "stock", "in_cart"}).AddRow(true, 2, 1))

	err = NewRepository(mock).AddItem(context.Background(), 1, 9, 2)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddItem_InactiveVariant(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectActiveCart(mock, 1, 3)
	mock.ExpectQuery("FROM product_variants pv").
		WithArgs(int64(9), int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"active", "stock", "in_cart"}).AddRow(false, 10, 0))

	err = NewRepository(mock).AddItem(context.Background(), 1, 9, 1)
	assert.ErrorIs(t, err, ErrVariantUnavailable)
}

func TestAddItem_UpsertsAndBumpsTTL(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectActiveCart(mock, 1, 3)
	mock.ExpectQuery("FROM product_variants pv").
		WithArgs(int64(9), int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"active", "stock", "in_cart"}).AddRow(true, 10, 1))
	mock.ExpectExec("INSERT INTO cart_items").
		WithArgs(int64(9), int64(3), 2).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE carts").
		WithArgs(int64(3), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, NewRepository(mock).AddItem(context.Background(), 1, 9, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateItemQty_UnknownItem(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM cart_items ci").
		WithArgs(int64(1), int64(50)).
		WillReturnRows(pgxmock.NewRows([]string{"cart_id", "stock"}))

	err = NewRepository(mock).UpdateItemQty(context.Background(), 1, 50, 3)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestClear_BumpsTTL(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectActiveCart(mock, 1, 3)
	mock.ExpectExec("DELETE FROM cart_items").
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec("UPDATE carts").
		WithArgs(int64(3), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, NewRepository(mock).Clear(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClear_NoOpenCart(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT id\s+FROM carts`).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	require.NoError(t, NewRepository(mock).Clear(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockActive_NoCartIsEmpty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FOR UPDATE").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err = NewRepository(mock).LockActive(context.Background(), 1)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestGetView_TotalsSkipUnavailableLines(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	exp := now.Add(time.Hour)
	mock.ExpectQuery("FROM carts").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "status", "expires_at", "created_at", "updated_at"}).
			AddRow(int64(3), int64(1), StatusActive, &exp, now, now))

	var noImage *string
	mock.ExpectQuery("FROM cart_items ci").
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"item_id", "product_id", "name", "slug", "variant_id", "sku", "label",
			"quantity", "price_cents", "stock", "available", "primary_image_url"}).
			AddRow(int64(1), int64(10), "Tee", "tee", int64(100), "TEE-RED-M", "Red / M", 2, int64(1500), 5, true, noImage).
			AddRow(int64(2), int64(11), "Cap", "cap", int64(200), "CAP-BLK", "Black", 1, int64(900), 0, false, noImage))

	v, err := NewRepository(mock).GetView(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, v.Items, 2)
	assert.Equal(t, int64(3000), v.Items[0].LineTotalCents)
	assert.Equal(t, int64(3000), v.SubtotalCents)
	assert.Equal(t, 3, v.ItemCount)
	assert.True(t, v.HasUnavailable)
}

func TestGetView_NoCart(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM carts").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "status", "expires_at", "created_at", "updated_at"}))

	v, err := NewRepository(mock).GetView(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, v)
}
