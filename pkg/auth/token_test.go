package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/taskhub/pkg/apperr"
)

var testSecret = []byte("test-secret-key")

func testUser() *User {
	return &User{
		ID:         "7f5f1a5e-7cf9-4b5a-9e93-5a1f9a2b4c6d",
		Email:      "alice@example.com",
		GlobalRole: GlobalRoleAdmin,
		TenantID:   "3f2a1b4c-5d6e-4f70-8a91-b2c3d4e5f607",
	}
}

func TestTokenIssueAndVerify(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "7f5f1a5e-7cf9-4b5a-9e93-5a1f9a2b4c6d", claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "3f2a1b4c-5d6e-4f70-8a91-b2c3d4e5f607", claims.TenantID)
	assert.Equal(t, "admin", claims.Role)
}

func TestTokenVerifyMissing(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)

	_, err = issuer.Verify("")
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
	assert.Equal(t, apperr.ReasonTokenMissing, apperr.ReasonOf(err))
}

func TestTokenVerifyExpired(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)

	// Sign a token that expired an hour ago.
	claims := &Claims{
		Email:    "alice@example.com",
		TenantID: "3f2a1b4c-5d6e-4f70-8a91-b2c3d4e5f607",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7f5f1a5e-7cf9-4b5a-9e93-5a1f9a2b4c6d",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)

	_, err = issuer.Verify(raw)
	require.Error(t, err)
	assert.Equal(t, apperr.ReasonTokenExpired, apperr.ReasonOf(err))
}

func TestTokenVerifyTampered(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue(testUser())
	require.NoError(t, err)

	_, err = issuer.Verify(token + "x")
	require.Error(t, err)
	assert.Equal(t, apperr.ReasonTokenInvalid, apperr.ReasonOf(err))
}

func TestTokenVerifyWrongSecret(t *testing.T) {
	issuer1, err := NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)
	issuer2, err := NewTokenIssuer([]byte("another-secret"), time.Hour)
	require.NoError(t, err)

	token, err := issuer1.Issue(testUser())
	require.NoError(t, err)

	_, err = issuer2.Verify(token)
	require.Error(t, err)
	assert.Equal(t, apperr.ReasonTokenInvalid, apperr.ReasonOf(err))
}

func TestTokenVerifyRejectsUnsignedAlg(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7f5f1a5e-7cf9-4b5a-9e93-5a1f9a2b4c6d",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = issuer.Verify(raw)
	require.Error(t, err)
	assert.Equal(t, apperr.ReasonTokenInvalid, apperr.ReasonOf(err))
}

func TestNewTokenIssuerRequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer(nil, time.Hour)
	assert.Error(t, err)
}

func TestNewTokenIssuerDefaultTTL(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, issuer.TTL())
}
