package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateToken("admin-user", "admin", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, "admin-user", claims.Subject)
	require.Equal(t, "admin", claims.Role)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("admin-user", "admin", []byte("secret-a"), time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, []byte("secret-b"))
	require.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	token, err := GenerateToken("admin-user", "admin", []byte("secret"), -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, []byte("secret"))
	require.Error(t, err)
}
