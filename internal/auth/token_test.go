package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignAndParseClaims(t *testing.T) {
	secret := []byte("test-secret")
	token, err := SignClaims("42", "1001", secret, time.Minute)
	require.NoError(t, err)

	claims, err := ParseClaims(token, secret)
	require.NoError(t, err)
	require.Equal(t, "42", claims.OwnerKey)
	require.Equal(t, "1001", claims.SessionKey)
}

func TestParseClaimsWrongSecret(t *testing.T) {
	token, err := SignClaims("42", "1001", []byte("one-secret"), time.Minute)
	require.NoError(t, err)

	_, err = ParseClaims(token, []byte("other-secret"))
	require.Error(t, err)
}

func TestParseClaimsExpired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := SignClaims("42", "1001", secret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseClaims(token, secret)
	require.Error(t, err)
}

func TestParseClaimsGarbage(t *testing.T) {
	_, err := ParseClaims("not-a-token", []byte("test-secret"))
	require.Error(t, err)
}
