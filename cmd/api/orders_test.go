package main

import (
	"net/http"
	"testing"
	"time"

	"storefront/internal/domain/carts"
	"storefront/internal/domain/orders"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errEmptyCartForTest = carts.ErrEmptyCart

func validCheckout() map[string]any {
	return map[string]any{
		"name":    "Asha Rai",
		"phone":   "+977 9800000000",
		"address": "Jhamsikhel Road 4",
		"city":    "Lalitpur",
	}
}

func TestCheckoutHandler(t *testing.T) {
	t.Run("places the order with defaults", func(t *testing.T) {
		env := newTestApp(t)
		env.orders.placed = &orders.Placed{Detail: &orders.OrderDetail{
			Order: orders.Order{
				ID: 42, OrderNumber: "ORD-X1", UserID: customerID, Status: orders.StatusPending,
				PaymentMethod: orders.PaymentCashOnDelivery, SubtotalCents: 2000, ShippingCents: 500, TotalCents: 2500,
				CreatedAt: time.Now(),
			},
			Items: []orders.OrderItem{{ProductName: "Tee", SKU: "TEE-RED-M", Quantity: 2, UnitPriceCents: 1000, TotalPriceCents: 2000}},
		}}

		rr := env.do(t, http.MethodPost, "/v1/store/checkout", validCheckout(), env.token(t, customerID))
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		assert.Equal(t, "/v1/store/orders/42", rr.Header().Get("Location"))

		var got orders.OrderDetail
		decodeData(t, rr, &got)
		assert.Equal(t, "ORD-X1", got.Order.OrderNumber)
		assert.Len(t, got.Items, 1)

		in := env.orders.lastInput
		assert.Equal(t, customerID, in.UserID)
		assert.Equal(t, orders.PaymentCashOnDelivery, in.PaymentMethod)
		assert.Equal(t, "NP", in.Shipping.Country)
	})

	t.Run("insufficient stock names the line", func(t *testing.T) {
		env := newTestApp(t)
		env.orders.placeErr = &orders.StockError{VariantID: 9, SKU: "TEE-RED-M", Requested: 3, Available: 1}

		rr := env.do(t, http.MethodPost, "/v1/store/checkout", validCheckout(), env.token(t, customerID))
		require.Equal(t, http.StatusConflict, rr.Code)

		body := decodeError(t, rr)
		assert.Equal(t, "TEE-RED-M", body["sku"])
		assert.EqualValues(t, 3, body["requested"])
		assert.EqualValues(t, 1, body["available"])
	})

	t.Run("empty cart", func(t *testing.T) {
		env := newTestApp(t)
		env.orders.placeErr = carts.ErrEmptyCart

		rr := env.do(t, http.MethodPost, "/v1/store/checkout", validCheckout(), env.token(t, customerID))
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("invalid shipping", func(t *testing.T) {
		env := newTestApp(t)
		payload := validCheckout()
		payload["phone"] = "call me"

		rr := env.do(t, http.MethodPost, "/v1/store/checkout", payload, env.token(t, customerID))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unsupported payment method", func(t *testing.T) {
		env := newTestApp(t)
		payload := validCheckout()
		payload["payment_method"] = "card"

		rr := env.do(t, http.MethodPost, "/v1/store/checkout", payload, env.token(t, customerID))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestCheckoutRejectReason(t *testing.T) {
	assert.Equal(t, "insufficient_stock", checkoutRejectReason(&orders.StockError{SKU: "A"}))
	assert.Equal(t, "empty_cart", checkoutRejectReason(carts.ErrEmptyCart))
	assert.Equal(t, "variant_unavailable", checkoutRejectReason(orders.ErrVariantUnavailable))
	assert.Equal(t, "error", checkoutRejectReason(assert.AnError))
}

func TestAdminUpdateOrderStatus(t *testing.T) {
	t.Run("invalid transition is a conflict", func(t *testing.T) {
		env := newTestApp(t)
		env.orders.changeErr = &orders.TransitionError{From: orders.StatusDelivered, To: orders.StatusCancelled}

		rr := env.do(t, http.MethodPatch, "/v1/store/admin/orders/5/status",
			map[string]string{"status": "cancelled"}, env.token(t, adminID))
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("committed change is returned", func(t *testing.T) {
		env := newTestApp(t)
		env.orders.change = &orders.StatusChange{
			OrderID: 5, OrderNumber: "ORD-5", UserID: customerID, From: orders.StatusPending, To: orders.StatusProcessing,
		}

		rr := env.do(t, http.MethodPatch, "/v1/store/admin/orders/5/status",
			map[string]string{"status": "processing"}, env.token(t, adminID))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var got orders.StatusChange
		decodeData(t, rr, &got)
		assert.Equal(t, orders.StatusProcessing, got.To)
	})
}

func TestListMyOrdersRejectsUnknownStatus(t *testing.T) {
	env := newTestApp(t)
	rr := env.do(t, http.MethodGet, "/v1/store/orders?status=lost", nil, env.token(t, customerID))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
