package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atsnet/pkg/domain"
	dErrors "atsnet/pkg/domain-errors"
)

func TestTokenRoundTrip(t *testing.T) {
	now := time.Date(2026, 8, 30, 11, 0, 0, 0, time.UTC)
	svc := NewTokenService("round-trip-key", "atsnet", WithTokenClock(func() time.Time { return now }))

	userID := domain.NewUserID()
	token, err := svc.GenerateAccessToken(userID, "ls-1", domain.RoleATSTesting, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "ls-1", claims.SessionID)
	assert.Equal(t, "ats_testing", claims.Role)
	assert.Equal(t, "atsnet", claims.Issuer)
}

func TestTokenExpiry(t *testing.T) {
	now := time.Date(2026, 8, 30, 11, 0, 0, 0, time.UTC)
	svc := NewTokenService("expiry-key", "atsnet", WithTokenClock(func() time.Time { return now }))

	token, err := svc.GenerateAccessToken(domain.NewUserID(), "ls-1", domain.RoleATSTesting, time.Minute)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func TestTokenWrongKeyRejected(t *testing.T) {
	signer := NewTokenService("signer-key", "atsnet")
	verifier := NewTokenService("other-key", "atsnet")

	token, err := signer.GenerateAccessToken(domain.NewUserID(), "ls-1", domain.RoleAdmin, time.Hour)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestTokenNonHMACRejected(t *testing.T) {
	svc := NewTokenService("hmac-only-key", "atsnet")

	// alg none is the classic downgrade, it must not verify
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u-1", SessionID: "ls-1"})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestTokenGarbageRejected(t *testing.T) {
	svc := NewTokenService("garbage-key", "atsnet")

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
