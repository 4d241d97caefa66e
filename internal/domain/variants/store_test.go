package variants

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var variantCols = []string{"id", "product_id", "sku", "price_cents", "stock", "low_stock_threshold", "is_active", "created_at", "updated_at"}

func TestGenerateVariants_SkipsExistingCombinations(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT slug FROM products").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"slug"}).AddRow("classic-tee"))
	mock.ExpectQuery("FROM attribute_values av").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "id", "value", "code"}).
			AddRow(int64(1), "Color", int64(10), "Red", "RED").
			AddRow(int64(1), "Color", int64(11), "Blue", "BLUE").
			AddRow(int64(2), "Size", int64(20), "S", "S"))
	mock.ExpectQuery("SELECT option_signature FROM product_variants").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"option_signature"}).AddRow("1:10,2:20"))
	mock.ExpectQuery("SELECT sku FROM product_variants").
		WithArgs("CLASSICTEE").
		WillReturnRows(pgxmock.NewRows([]string{"sku"}).AddRow("CLASSICTEE-RED-S"))
	mock.ExpectQuery("INSERT INTO product_variants").
		WithArgs(int64(1), "CLASSICTEE-BLUE-S", int64(1500), 0, 5, "1:11,2:20", true).
		WillReturnRows(pgxmock.NewRows(variantCols).
			AddRow(int64(7), int64(1), "CLASSICTEE-BLUE-S", int64(1500), 0, 5, true, now, now))
	mock.ExpectExec("INSERT INTO variant_options").
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	res, err := NewRepository(mock).GenerateVariants(context.Background(), GenerateRequest{
		ProductID: 1,
		Selections: []Selection{
			{AttributeID: 1, ValueIDs: []int64{10, 11}},
			{AttributeID: 2, ValueIDs: []int64{20}},
		},
		PriceCents:        1500,
		LowStockThreshold: 5,
		IsActive:          true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Created, 1)
	assert.Equal(t, "CLASSICTEE-BLUE-S", res.Created[0].SKU)
	assert.Equal(t, "Blue / S", res.Created[0].Label)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateVariants_ValueFromWrongAttribute(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT slug FROM products").
		WillReturnRows(pgxmock.NewRows([]string{"slug"}).AddRow("classic-tee"))
	mock.ExpectQuery("FROM attribute_values av").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "id", "value", "code"}).
			AddRow(int64(2), "Size", int64(20), "S", "S"))
	mock.ExpectRollback()

	_, err = NewRepository(mock).GenerateVariants(context.Background(), GenerateRequest{
		ProductID:  1,
		Selections: []Selection{{AttributeID: 1, ValueIDs: []int64{20}}},
	})
	assert.ErrorIs(t, err, ErrValueMismatch)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateVariant_RejectsTwoValuesOfOneAttribute(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT slug FROM products").
		WillReturnRows(pgxmock.NewRows([]string{"slug"}).AddRow("classic-tee"))
	mock.ExpectQuery("FROM attribute_values av").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "id", "value", "code"}).
			AddRow(int64(1), "Color", int64(10), "Red", "RED").
			AddRow(int64(1), "Color", int64(11), "Blue", "BLUE"))
	mock.ExpectRollback()

	_, err = NewRepository(mock).CreateVariant(context.Background(), NewVariant{ProductID: 1, ValueIDs: []int64{10, 11}})
	assert.ErrorIs(t, err, ErrRepeatedAttribute)
}

func TestCreateVariant_UnknownProduct(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT slug FROM products").
		WillReturnRows(pgxmock.NewRows([]string{"slug"}))
	mock.ExpectRollback()

	_, err = NewRepository(mock).CreateVariant(context.Background(), NewVariant{ProductID: 42})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestMapVariantWriteErr(t *testing.T) {
	assert.ErrorIs(t, mapVariantWriteErr(&pgconn.PgError{Code: "23505", ConstraintName: "product_variants_sku_key"}), ErrDuplicateSKU)
	assert.ErrorIs(t, mapVariantWriteErr(&pgconn.PgError{Code: "23505", ConstraintName: "product_variants_product_id_option_signature_key"}), ErrDuplicateOptions)
	assert.Nil(t, mapVariantWriteErr(&pgconn.PgError{Code: "23503"}))
}

func TestDeleteAttributeValue_InUse(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM attribute_values").
		WithArgs(int64(10), int64(1)).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err = NewRepository(mock).DeleteAttributeValue(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrValueInUse)
}
