package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_ADDR", "postgres://localhost/storefront?sslmode=disable")
	t.Setenv("AUTH_TOKEN_SECRET", "access")
	t.Setenv("AUTH_TOKEN_REFRESH_SECRET", "refresh")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, int32(30), cfg.DB.MaxConns)
	assert.Equal(t, int64(500), cfg.Store.ShippingFlatCents)
	assert.Equal(t, int64(10000), cfg.Store.FreeShippingOverCents)
	assert.Equal(t, 168*time.Hour, cfg.Store.CartTTL)
	assert.Equal(t, 5*time.Second, cfg.RateLimiter.TimeFrame)
	assert.False(t, cfg.Mail.Enabled)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SHIPPING_FLAT_CENTS", "750")
	t.Setenv("CART_TTL", "24h")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("REDIS_ADDR", " localhost:6379 ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(750), cfg.Store.ShippingFlatCents)
	assert.Equal(t, 24*time.Hour, cfg.Store.CartTTL)
	assert.True(t, cfg.Mail.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_MissingDatabase(t *testing.T) {
	t.Setenv("DB_ADDR", "")
	t.Setenv("AUTH_TOKEN_SECRET", "access")
	t.Setenv("AUTH_TOKEN_REFRESH_SECRET", "refresh")

	_, err := Load()
	assert.ErrorContains(t, err, "DB_ADDR")
}

func TestLoad_ProductionNeedsBasicAuth(t *testing.T) {
	setRequired(t)
	t.Setenv("ENV", "production")
	t.Setenv("AUTH_BASIC_USER", "")

	_, err := Load()
	assert.ErrorContains(t, err, "AUTH_BASIC_USER")
}
