package wishlists

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd(t *testing.T) {
	tests := []struct {
		name        string
		affected    int64
		exists      *bool
		wantCreated bool
		wantErr     error
	}{
		{name: "new row", affected: 1, wantCreated: true},
		{name: "already wishlisted", affected: 0, exists: boolPtr(true)},
		{name: "missing or inactive product", affected: 0, exists: boolPtr(false), wantErr: ErrProductNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			mock.ExpectExec("INSERT INTO wishlist_items").
				WithArgs(int64(1), int64(5)).
				WillReturnResult(pgxmock.NewResult("INSERT", tt.affected))
			if tt.exists != nil {
				mock.ExpectQuery("SELECT EXISTS").
					WithArgs(int64(1), int64(5)).
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(*tt.exists))
			}

			created, err := NewRepository(mock).Add(context.Background(), 1, 5)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCreated, created)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRemove_Missing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM wishlist_items").
		WithArgs(int64(1), int64(5)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, NewRepository(mock).Remove(context.Background(), 1, 5), ErrNotFound)
}

func boolPtr(b bool) *bool { return &b }
