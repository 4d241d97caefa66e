package main

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const longProductName = "Ultra Lightweight Performance Running Jacket With Reflective Trim " +
	"And Packable Hood For Trail Runners In Cold And Wet Weather Conditions"

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Classic Tee", "classic-tee"},
		{"punctuation", "  Men's T-Shirt (2024)!  ", "men-s-t-shirt-2024"},
		{"long name cut at a word", longProductName,
			"ultra-lightweight-performance-running-jacket-with-reflective-trim-and-packable"},
		{"single long word", strings.Repeat("a", 100), strings.Repeat("a", maxSlugLen)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := generateSlug(tt.in)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), maxSlugLen)
			assert.True(t, isValidSlug(got), got)
		})
	}
}

func TestResolveSlug(t *testing.T) {
	slug, err := resolveSlug("", longProductName)
	require.NoError(t, err)
	assert.False(t, strings.HasSuffix(slug, "-"))

	slug, err = resolveSlug("my-slug", longProductName)
	require.NoError(t, err)
	assert.Equal(t, "my-slug", slug)

	_, err = resolveSlug("", "!")
	assert.Error(t, err)
}

func TestCreateProductHandler_LongNameGetsSlug(t *testing.T) {
	env := newTestApp(t)

	rr := env.do(t, http.MethodPost, "/v1/store/admin/products",
		map[string]any{"name": longProductName, "base_price_cents": 4999}, env.token(t, adminID))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.NotNil(t, env.products.created)
	assert.LessOrEqual(t, len(env.products.created.Slug), maxSlugLen)
	assert.Equal(t, "/v1/store/admin/products/21", rr.Header().Get("Location"))
}
