package main

import (
	"net/http"
	"testing"

	"storefront/internal/cache"
	"storefront/internal/domain/carts"
	"storefront/internal/domain/products"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListProductsHandler(t *testing.T) {
	env := newTestApp(t)
	env.products.cards = []*products.ProductCard{{ID: 1, Name: "Tee", Slug: "tee"}, {ID: 2, Name: "Cap", Slug: "cap"}}

	rr := env.do(t, http.MethodGet, "/v1/store/products?category=apparel&min_price=500&in_stock=true&sort=price_asc&limit=1", nil, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var got struct {
		Items      []products.ProductCard `json:"items"`
		Pagination struct {
			Limit   int  `json:"limit"`
			Total   int  `json:"total"`
			HasNext bool `json:"has_next"`
		} `json:"pagination"`
	}
	decodeData(t, rr, &got)
	assert.Len(t, got.Items, 2)
	assert.Equal(t, 1, got.Pagination.Limit)
	assert.Equal(t, 2, got.Pagination.Total)
	assert.True(t, got.Pagination.HasNext)

	f := env.products.lastFilter
	assert.Equal(t, "apparel", f.CategorySlug)
	require.NotNil(t, f.MinPriceCents)
	assert.EqualValues(t, 500, *f.MinPriceCents)
	require.NotNil(t, f.InStock)
	assert.True(t, *f.InStock)
	assert.Equal(t, "price_asc", f.Sort)
}

func TestListProductsHandler_BadFilters(t *testing.T) {
	env := newTestApp(t)

	for _, q := range []string{"min_price=abc", "min_price=900&max_price=100", "in_stock=maybe", "sort=random"} {
		rr := env.do(t, http.MethodGet, "/v1/store/products?"+q, nil, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
}

func TestGetProductHandler_ReadsThroughCache(t *testing.T) {
	env := newTestApp(t)
	env.products.detail = &products.ProductDetail{Product: &products.Product{ID: 3, Name: "Tee", Slug: "tee"}}

	for i := 0; i < 3; i++ {
		rr := env.do(t, http.MethodGet, "/v1/store/products/tee", nil, "")
		require.Equal(t, http.StatusOK, rr.Code)
	}
	assert.Equal(t, 1, env.products.detailCalls)

	require.NoError(t, env.app.cache.InvalidateProducts(t.Context()))
	env.do(t, http.MethodGet, "/v1/store/products/tee", nil, "")
	assert.Equal(t, 2, env.products.detailCalls)

	ok, err := env.cache.Get(t.Context(), cache.ProductKey("tee"), &products.ProductDetail{})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetProductHandler_NotFound(t *testing.T) {
	env := newTestApp(t)

	rr := env.do(t, http.MethodGet, "/v1/store/products/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, false, decodeError(t, rr)["success"])
}

func TestAddCartItemHandler(t *testing.T) {
	t.Run("adds and returns the cart", func(t *testing.T) {
		env := newTestApp(t)
		env.carts.view = &carts.CartView{Cart: carts.Cart{ID: 4, UserID: customerID, Status: carts.StatusActive}, ItemCount: 1}

		rr := env.do(t, http.MethodPost, "/v1/store/cart/items", map[string]any{"variant_id": 11, "qty": 2}, env.token(t, customerID))
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		assert.Equal(t, []int64{11}, env.carts.added)

		var got carts.CartView
		decodeData(t, rr, &got)
		assert.EqualValues(t, 4, got.Cart.ID)
	})

	t.Run("stock exceeded", func(t *testing.T) {
		env := newTestApp(t)
		env.carts.addErr = carts.ErrInsufficientStock

		rr := env.do(t, http.MethodPost, "/v1/store/cart/items", map[string]any{"variant_id": 11, "qty": 50}, env.token(t, customerID))
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("zero quantity", func(t *testing.T) {
		env := newTestApp(t)

		rr := env.do(t, http.MethodPost, "/v1/store/cart/items", map[string]any{"variant_id": 11, "qty": 0}, env.token(t, customerID))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		env := newTestApp(t)

		rr := env.do(t, http.MethodPost, "/v1/store/cart/items", map[string]any{"variant_id": 11, "qty": 1, "price": 1}, env.token(t, customerID))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestSearchProductsHandler_ShortQuery(t *testing.T) {
	env := newTestApp(t)
	rr := env.do(t, http.MethodGet, "/v1/store/search?q=a", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
