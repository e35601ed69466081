package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *TokenManager {
	return NewTokenManager("access-secret", "refresh-secret", 30*time.Minute, 7*24*time.Hour)
}

func TestGenerateAndParsePair(t *testing.T) {
	tm := newTestManager()

	access, refresh, expiresAt, err := tm.GeneratePair(42, "agent")
	require.NoError(t, err)
	assert.NotEqual(t, access, refresh)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := tm.ParseAccess(access)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "agent", claims.Role)

	refClaims, err := tm.ParseRefresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, int64(42), refClaims.UserID)
}

func TestTokenTypeConfusionRejected(t *testing.T) {
	tm := newTestManager()

	access, refresh, _, err := tm.GeneratePair(42, "agent")
	require.NoError(t, err)

	// A refresh token must not pass as an access token or vice versa; the
	// two are signed with different secrets and carry a type claim.
	_, err = tm.ParseAccess(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tm.ParseRefresh(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsTamperedToken(t *testing.T) {
	tm := newTestManager()

	access, _, _, err := tm.GeneratePair(42, "agent")
	require.NoError(t, err)

	_, err = tm.ParseAccess(access + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewTokenManager("different-secret", "refresh-secret", time.Minute, time.Hour)
	_, err = other.ParseAccess(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRejectsUnexpectedSigningMethod(t *testing.T) {
	tm := newTestManager()

	// Even signed with the right secret, a token using a different HMAC
	// variant must be rejected: only HS256 is accepted.
	claims := Claims{
		UserID: 42,
		Role:   "agent",
		Type:   "access",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = tm.ParseAccess(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredTokenRejected(t *testing.T) {
	tm := NewTokenManager("access-secret", "refresh-secret", -time.Minute, -time.Minute)

	access, _, _, err := tm.GeneratePair(42, "agent")
	require.NoError(t, err)

	_, err = tm.ParseAccess(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
