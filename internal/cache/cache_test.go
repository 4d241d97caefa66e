package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCache is a map-backed Cache for exercising GetOrLoad.
type memCache struct {
	data map[string]any
	sets int
}

func (m *memCache) Get(_ context.Context, key string, dest any) (bool, error) {
	v, ok := m.data[key]
	if !ok {
		return false, nil
	}
	*(dest.(*[]string)) = v.([]string)
	return true, nil
}

func (m *memCache) Set(_ context.Context, key string, value any) error {
	m.data[key] = value
	m.sets++
	return nil
}

func (m *memCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memCache) InvalidateProducts(context.Context) error { return nil }

func TestGetOrLoad(t *testing.T) {
	c := &memCache{data: map[string]any{}}
	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"shirts", "shoes"}, nil
	}

	v, err := GetOrLoad(context.Background(), c, CategoryTreeKey, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"shirts", "shoes"}, v)

	v, err = GetOrLoad(context.Background(), c, CategoryTreeKey, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"shirts", "shoes"}, v)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, c.sets)
}

func TestGetOrLoad_LoadErrorNotCached(t *testing.T) {
	c := &memCache{data: map[string]any{}}
	boom := errors.New("boom")

	_, err := GetOrLoad(context.Background(), c, "k", func(context.Context) ([]string, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.sets)
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	var dest []string
	ok, err := c.Get(context.Background(), ProductKey("tee"), &dest)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "storefront:product:tee", ProductKey("tee"))
}
