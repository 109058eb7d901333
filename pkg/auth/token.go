package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/platinummonkey/taskhub/pkg/apperr"
)

// DefaultTokenTTL matches the original deployment default of seven days.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Claims is the payload carried inside a credential token. The role and
// tenant here are whatever was true at issuance; callers must re-verify
// against storage before trusting them.
type Claims struct {
	Email    string `json:"email"`
	TenantID string `json:"tenant_id"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies credential tokens with an HMAC secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a token issuer. ttl <= 0 falls back to
// DefaultTokenTTL.
func NewTokenIssuer(secret []byte, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("token secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: secret, ttl: ttl}, nil
}

// Issue creates a signed token for the user.
func (ti *TokenIssuer) Issue(user *User) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email:    user.Email,
		TenantID: user.TenantID,
		Role:     string(user.GlobalRole),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of a raw token and returns its
// claims. Failures are typed: missing, expired, or invalid, all mapping
// to 401.
func (ti *TokenIssuer) Verify(raw string) (*Claims, error) {
	if raw == "" {
		return nil, apperr.Unauthenticated(apperr.ReasonTokenMissing, "authentication required")
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return ti.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Unauthenticated(apperr.ReasonTokenExpired, "token expired")
		}
		return nil, apperr.Unauthenticated(apperr.ReasonTokenInvalid, "invalid token")
	}
	if !parsed.Valid {
		return nil, apperr.Unauthenticated(apperr.ReasonTokenInvalid, "invalid token")
	}
	if claims.Subject == "" {
		return nil, apperr.Unauthenticated(apperr.ReasonTokenInvalid, "invalid token")
	}

	return claims, nil
}

// TTL returns the configured token lifetime.
func (ti *TokenIssuer) TTL() time.Duration {
	return ti.ttl
}
