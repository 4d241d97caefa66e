package products

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestCardWhere_NoFilters(t *testing.T) {
	where, args := cardWhere(ProductFilter{})

	assert.Contains(t, where, "p.is_active = true")
	assert.Contains(t, where, "c.is_active = true")
	assert.Empty(t, args)
}

func TestCardWhere_AllFilters(t *testing.T) {
	f := ProductFilter{
		Query:           "tee",
		CategorySlug:    "apparel",
		SubCategorySlug: "t-shirts",
		BrandSlug:       "acme",
		MinPriceCents:   ptr(int64(1000)),
		MaxPriceCents:   ptr(int64(5000)),
		InStock:         ptr(true),
		Featured:        ptr(true),
	}
	where, args := cardWhere(f)

	assert.Contains(t, where, "p.name ILIKE $1 OR p.description ILIKE $1")
	assert.Contains(t, where, "c.slug = $2")
	assert.Contains(t, where, "sc.slug = $3")
	assert.Contains(t, where, "b.slug = $4")
	assert.Contains(t, where, "COALESCE(vs.min_price_cents, p.base_price_cents) >= $5")
	assert.Contains(t, where, "COALESCE(vs.min_price_cents, p.base_price_cents) <= $6")
	assert.Contains(t, where, "COALESCE(vs.total_stock, 0) > 0")
	assert.Contains(t, where, "p.is_featured = $7")
	assert.Equal(t, []any{"%tee%", "apparel", "t-shirts", "acme", int64(1000), int64(5000), true}, args)
}

func TestCardWhere_OutOfStockOnly(t *testing.T) {
	where, args := cardWhere(ProductFilter{InStock: ptr(false)})
	assert.Contains(t, where, "COALESCE(vs.total_stock, 0) = 0")
	assert.Empty(t, args)
}

func TestBuildCardQuery_PagingPlaceholdersFollowFilters(t *testing.T) {
	query, countQuery, args := buildCardQuery(ProductFilter{BrandSlug: "acme", Sort: SortPriceAsc}, 15, 30)

	assert.Contains(t, query, "LIMIT $2 OFFSET $3")
	assert.Contains(t, query, "ORDER BY COALESCE(vs.min_price_cents, p.base_price_cents) ASC")
	assert.Contains(t, countQuery, "SELECT COUNT(*)")
	assert.NotContains(t, countQuery, "LIMIT")
	assert.Equal(t, []any{"acme", 15, 30}, args)
}

func TestCardOrderBy(t *testing.T) {
	assert.Equal(t, "p.created_at DESC, p.id DESC", cardOrderBy(""))
	assert.Equal(t, "p.created_at DESC, p.id DESC", cardOrderBy(SortNewest))
	assert.Contains(t, cardOrderBy(SortPriceDesc), "DESC")
	assert.Equal(t, "lower(p.name) ASC, p.id ASC", cardOrderBy(SortNameAsc))
	assert.Equal(t, "lower(p.name) DESC, p.id DESC", cardOrderBy(SortNameDesc))
}

func TestLikePattern_EscapesWildcards(t *testing.T) {
	assert.Equal(t, `%100\%%`, likePattern("100%"))
	assert.Equal(t, `%a\_b%`, likePattern("a_b"))
	assert.Equal(t, `%c:\\d%`, likePattern(`c:\d`))
}

func TestOptionGroups(t *testing.T) {
	variants := []*DetailVariant{
		{ID: 1, Options: []OptionView{
			{AttributeID: 1, Attribute: "Color", ValueID: 10, Value: "Red"},
			{AttributeID: 2, Attribute: "Size", ValueID: 20, Value: "S"},
		}},
		{ID: 2, Options: []OptionView{
			{AttributeID: 1, Attribute: "Color", ValueID: 11, Value: "Blue"},
			{AttributeID: 2, Attribute: "Size", ValueID: 20, Value: "S"},
		}},
		{ID: 3, Options: []OptionView{
			{AttributeID: 1, Attribute: "Color", ValueID: 10, Value: "Red"},
			{AttributeID: 2, Attribute: "Size", ValueID: 21, Value: "M"},
		}},
	}

	groups := optionGroups(variants)
	require.Len(t, groups, 2)
	assert.Equal(t, OptionGroup{AttributeID: 1, Attribute: "Color", Values: []string{"Red", "Blue"}}, groups[0])
	assert.Equal(t, OptionGroup{AttributeID: 2, Attribute: "Size", Values: []string{"S", "M"}}, groups[1])

	assert.Empty(t, optionGroups(nil))
}

func TestDeleteBrand_MapsForeignKeyViolation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM brands").
		WithArgs(int64(3)).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "products_brand_id_fkey"})

	err = NewRepository(mock).DeleteBrand(context.Background(), 3)
	assert.ErrorIs(t, err, ErrBrandHasProducts)
}

func TestDeleteBrand_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM brands").
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err = NewRepository(mock).DeleteBrand(context.Background(), 3)
	assert.ErrorIs(t, err, ErrBrandNotFound)
}

func TestListBrands_PastLastPageFallsBackToCount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cols := []string{"id", "name", "slug", "description", "logo_url", "created_at", "updated_at", "total_count"}
	mock.ExpectQuery("FROM brands").
		WithArgs(15, 45).
		WillReturnRows(pgxmock.NewRows(cols))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM brands`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(12))

	brands, total, err := NewRepository(mock).ListBrands(context.Background(), 15, 45)
	require.NoError(t, err)
	assert.Empty(t, brands)
	assert.Equal(t, 12, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListBrands_UsesWindowTotal(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	cols := []string{"id", "name", "slug", "description", "logo_url", "created_at", "updated_at", "total_count"}
	mock.ExpectQuery("FROM brands").
		WithArgs(2, 0).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(int64(1), "Acme", "acme", nil, nil, now, now, 5).
			AddRow(int64(2), "Globex", "globex", nil, nil, now, now, 5))

	brands, total, err := NewRepository(mock).ListBrands(context.Background(), 2, 0)
	require.NoError(t, err)
	require.Len(t, brands, 2)
	assert.Equal(t, "acme", brands[0].Slug)
	assert.Equal(t, 5, total)
}

func TestCreateProduct_MapsSubcategoryMismatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO products").
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "products_subcategory_fk"})

	_, err = NewRepository(mock).CreateProduct(context.Background(), &Product{
		Name: "Tee", Slug: "tee", CategoryID: ptr(int64(1)), SubCategoryID: ptr(int64(9)), IsActive: true,
	})
	assert.ErrorIs(t, err, ErrSubCategoryMismatch)
}

func TestCreateProduct_MapsDuplicateSlug(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO products").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "products_slug_key"})

	_, err = NewRepository(mock).CreateProduct(context.Background(), &Product{Name: "Tee", Slug: "tee"})
	assert.ErrorIs(t, err, ErrDuplicateSlug)
}
