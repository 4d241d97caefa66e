package users

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword_SetAndCompare(t *testing.T) {
	var p password
	require.NoError(t, p.Set("s3cret-pass"))

	assert.NoError(t, p.Compare("s3cret-pass"))
	assert.Error(t, p.Compare("wrong"))
	assert.NotEqual(t, []byte("s3cret-pass"), p.hash)
}

func TestUser_FullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&User{FirstName: "Ada", LastName: "Lovelace"}).FullName())
	assert.Equal(t, "Ada", (&User{FirstName: "Ada"}).FullName())
}
