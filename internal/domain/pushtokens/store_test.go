package pushtokens

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTokensByUserIDs_GroupsByUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT user_id, expo_push_token FROM user_push_tokens").
		WithArgs([]int64{1, 2}).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "expo_push_token"}).
			AddRow(int64(1), "ExponentPushToken[a]").
			AddRow(int64(1), "ExponentPushToken[b]").
			AddRow(int64(2), "ExponentPushToken[c]"))

	got, err := NewRepository(mock).GetTokensByUserIDs(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"ExponentPushToken[a]", "ExponentPushToken[b]"}, got[1])
	assert.Equal(t, []string{"ExponentPushToken[c]"}, got[2])
}

func TestGetTokensByUserIDs_EmptyInputSkipsQuery(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	got, err := NewRepository(mock).GetTokensByUserIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPruneStaleTokens(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM user_push_tokens WHERE last_updated").
		WithArgs("3600 seconds").
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	n, err := NewRepository(mock).PruneStaleTokens(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
