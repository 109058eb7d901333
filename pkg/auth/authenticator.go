package auth

import (
	"context"

	"github.com/platinummonkey/taskhub/pkg/apperr"
)

// UserGetter is the storage dependency the authenticator needs: fetch the
// current user row by id.
type UserGetter interface {
	GetUser(ctx context.Context, id string) (*User, error)
}

// Authenticator resolves a raw credential into a Principal. It verifies
// the token, then re-reads the user record so revocations and role changes
// apply immediately.
type Authenticator struct {
	tokens *TokenIssuer
	users  UserGetter
}

// NewAuthenticator creates an authenticator over the given token issuer and
// user store.
func NewAuthenticator(tokens *TokenIssuer, users UserGetter) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// Authenticate verifies the token and loads the authoritative principal.
// The claimed role and tenant are discarded in favor of the stored values.
func (a *Authenticator) Authenticate(ctx context.Context, rawToken string) (*Principal, error) {
	claims, err := a.tokens.Verify(rawToken)
	if err != nil {
		return nil, err
	}

	user, err := a.users.GetUser(ctx, claims.Subject)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.Unauthenticated(apperr.ReasonPrincipalNotFound, "user not found")
		}
		return nil, err
	}

	return &Principal{
		ID:         user.ID,
		Email:      user.Email,
		GlobalRole: user.GlobalRole,
		TenantID:   user.TenantID,
	}, nil
}
