package main

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthTokenMiddleware(t *testing.T) {
	env := newTestApp(t)

	t.Run("missing header", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/v1/store/cart", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/v1/store/cart", nil, "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("inactive user", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/v1/store/cart", nil, env.token(t, 99))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/v1/store/cart", nil, env.token(t, 12345))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRequireRole(t *testing.T) {
	env := newTestApp(t)

	rr := env.do(t, http.MethodGet, "/v1/store/admin/orders/1", nil, env.token(t, customerID))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(t, http.MethodPatch, "/v1/store/admin/orders/1/status",
		map[string]string{"status": "bogus"}, env.token(t, adminID))
	assert.Equal(t, http.StatusBadRequest, rr.Code, "admin passes the role check and hits validation")
}

func TestBasicAuthMiddleware(t *testing.T) {
	env := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/debug/vars", nil)
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Header().Get("WWW-Authenticate"), "Basic")

	req = httptest.NewRequest(http.MethodGet, "/v1/debug/vars", nil)
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("ops:secret")))
	rr = httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCheckoutRateLimit(t *testing.T) {
	env := newTestApp(t)
	env.app.config.RateLimiter.Enabled = true
	env.orders.placeErr = errEmptyCartForTest

	tok := env.token(t, customerID)
	codes := map[int]int{}
	for i := 0; i < 15; i++ {
		rr := env.do(t, http.MethodPost, "/v1/store/checkout", validCheckout(), tok)
		codes[rr.Code]++
		if rr.Code == http.StatusTooManyRequests {
			assert.NotEmpty(t, rr.Header().Get("Retry-After"))
		}
	}
	assert.Positive(t, codes[http.StatusTooManyRequests], "burst of 10 must be exhausted")
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, "1", retryAfterSeconds(0))
	assert.Equal(t, "1", retryAfterSeconds(200_000_000))
	assert.Equal(t, "3", retryAfterSeconds(3_500_000_000))
}
