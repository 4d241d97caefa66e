package params

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantPage   int
		wantOffset int
	}{
		{"defaults", "", 15, 1, 0},
		{"explicit", "page=2&limit=10", 10, 2, 10},
		{"limit capped", "limit=500", 30, 1, 0},
		{"zero limit falls back", "limit=0", 15, 1, 0},
		{"garbage ignored", "limit=abc&page=-3", 15, 1, 0},
		{"third page max limit", "page=3&limit=30", 30, 3, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			p := ParsePagination(q)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantOffset, p.Offset)
		})
	}
}

func TestComputeMeta(t *testing.T) {
	p := Pagination{Limit: 10, Page: 2}
	p.ComputeMeta(25)

	assert.Equal(t, 25, p.Total)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasPrev)
	assert.True(t, p.HasNext)

	last := Pagination{Limit: 10, Page: 3}
	last.ComputeMeta(25)
	assert.False(t, last.HasNext)

	empty := Pagination{Limit: 10, Page: 1}
	empty.ComputeMeta(0)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext)
	assert.False(t, empty.HasPrev)
}

func TestParseSort(t *testing.T) {
	allowed := []string{"newest", "price_asc", "price_desc"}

	s, err := ParseSort(url.Values{}, "newest", allowed...)
	require.NoError(t, err)
	assert.Equal(t, "newest", s)

	s, err = ParseSort(url.Values{"sort": {" PRICE_ASC "}}, "newest", allowed...)
	require.NoError(t, err)
	assert.Equal(t, "price_asc", s)

	_, err = ParseSort(url.Values{"sort": {"random"}}, "newest", allowed...)
	assert.Error(t, err)
}

func TestOptionalInt64AndBool(t *testing.T) {
	q := url.Values{"min_price": {"1500"}, "max_price": {"-1"}, "in_stock": {"1"}, "featured": {"maybe"}}

	v, err := OptionalInt64(q, "min_price")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, int64(1500), *v)

	_, err = OptionalInt64(q, "max_price")
	assert.Error(t, err)

	missing, err := OptionalInt64(q, "brand_id")
	require.NoError(t, err)
	assert.Nil(t, missing)

	b, err := OptionalBool(q, "in_stock")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.True(t, *b)

	_, err = OptionalBool(q, "featured")
	assert.Error(t, err)
}
