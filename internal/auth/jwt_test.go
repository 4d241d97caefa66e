package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTAuthenticator_RoundTrip(t *testing.T) {
	a := NewJWTAuthenticator("access-secret", "refresh-secret", "storefront", time.Hour, 24*time.Hour)

	access, refresh, err := a.GenerateTokens(42, []string{"customer"})
	require.NoError(t, err)

	tok, err := a.ValidateAccessToken(access)
	require.NoError(t, err)
	uid, err := Subject(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), uid)

	tok, err = a.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	uid, err = Subject(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), uid)
}

func TestJWTAuthenticator_WrongSecret(t *testing.T) {
	a := NewJWTAuthenticator("access-secret", "refresh-secret", "storefront", time.Hour, 24*time.Hour)
	access, refresh, err := a.GenerateTokens(1, nil)
	require.NoError(t, err)

	_, err = a.ValidateRefreshToken(access)
	assert.Error(t, err)
	_, err = a.ValidateAccessToken(refresh)
	assert.Error(t, err)
}

func TestJWTAuthenticator_Expired(t *testing.T) {
	a := NewJWTAuthenticator("access-secret", "refresh-secret", "storefront", time.Minute, time.Hour)
	issued := time.Now().Add(-2 * time.Hour)
	a.now = func() time.Time { return issued }

	access, _, err := a.GenerateTokens(1, nil)
	require.NoError(t, err)

	a.now = time.Now
	_, err = a.ValidateAccessToken(access)
	assert.Error(t, err)
}

func TestJWTAuthenticator_WrongIssuer(t *testing.T) {
	other := NewJWTAuthenticator("access-secret", "refresh-secret", "someone-else", time.Hour, time.Hour)
	access, _, err := other.GenerateTokens(1, nil)
	require.NoError(t, err)

	a := NewJWTAuthenticator("access-secret", "refresh-secret", "storefront", time.Hour, time.Hour)
	_, err = a.ValidateAccessToken(access)
	assert.Error(t, err)
}
