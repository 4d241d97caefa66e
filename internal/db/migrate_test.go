package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateURL(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@localhost:5432/shop?sslmode=disable": "pgx5://u:p@localhost:5432/shop?sslmode=disable",
		"postgresql://localhost/shop":                        "pgx5://localhost/shop",
		"pgx5://localhost/shop":                              "pgx5://localhost/shop",
	}
	for in, want := range cases {
		assert.Equal(t, want, migrateURL(in), in)
	}
}

func TestMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Fatalf("unexpected file in migrations: %s", name)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestInitialSchemaHasStockGuards(t *testing.T) {
	b, err := fs.ReadFile(migrationsFS, "migrations/000001_init.up.sql")
	require.NoError(t, err)
	sql := string(b)

	assert.Contains(t, sql, "CHECK (stock >= 0)")
	assert.Contains(t, sql, "UNIQUE (product_id, option_signature)")
	assert.Contains(t, sql, "UNIQUE (cart_id, product_variant_id)")
	assert.Contains(t, sql, "UNIQUE (user_id, product_id)")
}
