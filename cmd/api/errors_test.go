package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/domain/carts"
	"storefront/internal/domain/inventory"
	"storefront/internal/domain/orders"
	"storefront/internal/domain/products"
	"storefront/internal/domain/variants"

	"github.com/stretchr/testify/assert"
)

func TestHandleStoreError(t *testing.T) {
	env := newTestApp(t)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing product", products.ErrProductNotFound, http.StatusNotFound},
		{"wrapped missing variant", fmt.Errorf("load: %w", variants.ErrVariantNotFound), http.StatusNotFound},
		{"duplicate sku", variants.ErrDuplicateSKU, http.StatusConflict},
		{"negative stock", inventory.ErrNegativeStock, http.StatusConflict},
		{"bad transition", &orders.TransitionError{From: "shipped", To: "cancelled"}, http.StatusConflict},
		{"stock error", &orders.StockError{SKU: "X"}, http.StatusConflict},
		{"empty cart", carts.ErrEmptyCart, http.StatusUnprocessableEntity},
		{"subcategory mismatch", products.ErrSubCategoryMismatch, http.StatusUnprocessableEntity},
		{"too many combinations", variants.ErrTooManyCombinations, http.StatusUnprocessableEntity},
		{"empty selection", fmt.Errorf("generate: %w", variants.ErrEmptySelection), http.StatusUnprocessableEntity},
		{"anything else", assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			env.app.handleStoreError(rr, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestInternalServerErrorHidesDetails(t *testing.T) {
	env := newTestApp(t)
	rr := httptest.NewRecorder()
	env.app.internalServerError(rr, httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("pq: password leaked"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "password")
}
