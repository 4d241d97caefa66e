package inventory

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestStockLevel(t *testing.T) {
	tests := []struct {
		name                     string
		before, after, threshold int
		want                     Level
	}{
		{"above threshold stays above", 20, 10, 5, LevelNone},
		{"crosses into low", 8, 5, 5, LevelLowStock},
		{"crosses well below", 8, 2, 5, LevelLowStock},
		{"already low drops further", 4, 2, 5, LevelNone},
		{"reaches zero from above", 8, 0, 5, LevelOutOfStock},
		{"reaches zero from low", 3, 0, 5, LevelOutOfStock},
		{"zero threshold reaches zero", 1, 0, 0, LevelOutOfStock},
		{"restock never alerts", 0, 10, 5, LevelNone},
		{"no change", 5, 5, 5, LevelNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StockLevel(tt.before, tt.after, tt.threshold))
		})
	}
}

func TestItemStatus(t *testing.T) {
	assert.Equal(t, "out_of_stock", (&Item{Stock: 0, LowStockThreshold: 5}).Status())
	assert.Equal(t, "low_stock", (&Item{Stock: 5, LowStockThreshold: 5}).Status())
	assert.Equal(t, "in_stock", (&Item{Stock: 6, LowStockThreshold: 5}).Status())
}

func TestAdjust_RejectsZeroAndUnknownReason(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewRepository(mock)

	_, err = repo.Adjust(context.Background(), Adjustment{VariantID: 1, Delta: 0, Reason: ReasonRestock})
	assert.ErrorIs(t, err, ErrNoChange)

	_, err = repo.Adjust(context.Background(), Adjustment{VariantID: 1, Delta: 2, Reason: "gift"})
	assert.ErrorIs(t, err, ErrInvalidReason)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjust_CrossesLowStock(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	after := 4
	mock.ExpectQuery("WITH cur AS").
		WithArgs(int64(7), -3, ReasonManualAdjustment, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"stock", "stock", "low_stock_threshold", "sku", "name"}).
			AddRow(7, &after, 5, "TEE-RED-M", "Tee"))

	res, err := NewRepository(mock).Adjust(context.Background(), Adjustment{VariantID: 7, Delta: -3, Reason: ReasonManualAdjustment})
	require.NoError(t, err)
	assert.Equal(t, 7, res.StockBefore)
	assert.Equal(t, 4, res.StockAfter)
	assert.Equal(t, LevelLowStock, res.Level)
	assert.Equal(t, "TEE-RED-M", res.SKU)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjust_BelowZeroIsRejected(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	var after *int
	mock.ExpectQuery("WITH cur AS").
		WithArgs(int64(7), -10, ReasonManualAdjustment, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"stock", "stock", "low_stock_threshold", "sku", "name"}).
			AddRow(3, after, 5, "TEE-RED-M", "Tee"))

	_, err = NewRepository(mock).Adjust(context.Background(), Adjustment{VariantID: 7, Delta: -10, Reason: ReasonManualAdjustment})
	assert.ErrorIs(t, err, ErrNegativeStock)
}

func TestAdjust_UnknownVariant(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("WITH cur AS").
		WithArgs(int64(99), 5, ReasonRestock, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"stock", "stock", "low_stock_threshold", "sku", "name"}))

	_, err = NewRepository(mock).Adjust(context.Background(), Adjustment{VariantID: 99, Delta: 5, Reason: ReasonRestock})
	assert.ErrorIs(t, err, ErrVariantNotFound)
}

func TestSetStock_SameValueIsNoop(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	var after *int
	mock.ExpectQuery("WITH cur AS").
		WithArgs(int64(7), 5, ReasonManualAdjustment, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"stock", "stock", "low_stock_threshold", "sku", "name"}).
			AddRow(5, after, 5, "TEE-RED-M", "Tee"))

	res, err := NewRepository(mock).SetStock(context.Background(), 7, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, res.StockAfter)
	assert.Equal(t, LevelNone, res.Level)
}

func TestSetStock_Negative(t *testing.T) {
	_, err := NewRepository(nil).SetStock(context.Background(), 7, -1, nil)
	assert.ErrorIs(t, err, ErrNegativeStock)
}

func TestWriteWorkbook(t *testing.T) {
	items := []*Item{
		{VariantID: 1, ProductName: "Tee", SKU: "TEE-RED-M", Label: "Red / M", PriceCents: 1999, Stock: 0, LowStockThreshold: 5, IsActive: true, UpdatedAt: time.Now()},
		{VariantID: 2, ProductName: "Tee", SKU: "TEE-RED-L", Label: "Red / L", PriceCents: 1999, Stock: 40, LowStockThreshold: 5, IsActive: true, UpdatedAt: time.Now()},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, items))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exportHeaders, rows[0])
	assert.Equal(t, "TEE-RED-M", rows[1][2])
	assert.Equal(t, "Red / M", rows[1][3])
	assert.Equal(t, "out_of_stock", rows[1][7])
	assert.Equal(t, "in_stock", rows[2][7])
}
