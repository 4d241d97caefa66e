package accesscontrol

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserHasRole(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(7), "admin").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := NewRepository(mock).UserHasRole(context.Background(), 7, RoleAdmin)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignRole_UnknownRole(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO user_roles").
		WithArgs(int64(7), "superuser").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("superuser").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	err = NewRepository(mock).AssignRole(context.Background(), 7, RoleName("superuser"))
	assert.ErrorIs(t, err, ErrRoleNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveRole_NotAssigned(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM user_roles").
		WithArgs(int64(7), "admin").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err = NewRepository(mock).RemoveRole(context.Background(), 7, RoleAdmin)
	assert.ErrorIs(t, err, ErrRoleNotFound)
}
