package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrument_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Instrument)
	r.Get("/v1/store/products/{slug}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/v1/store/products/{slug}", "418"))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/store/products/classic-tee", nil))
	require.Equal(t, http.StatusTeapot, rr.Code)

	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/v1/store/products/{slug}", "418"))
	assert.Equal(t, before+1, after)
}

func TestBusinessCounters(t *testing.T) {
	before := testutil.ToFloat64(ordersPlaced)
	OrderPlaced()
	assert.Equal(t, before+1, testutil.ToFloat64(ordersPlaced))

	StockAlert("low_stock")
	assert.GreaterOrEqual(t, testutil.ToFloat64(stockAlerts.WithLabelValues("low_stock")), 1.0)

	CheckoutRejected("insufficient_stock")
	assert.GreaterOrEqual(t, testutil.ToFloat64(checkoutRejected.WithLabelValues("insufficient_stock")), 1.0)
}

func TestHandler_ServesRegistry(t *testing.T) {
	OrderTransition("shipped")
	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "storefront_orders_status_transitions_total")
}
