package api

import (
	"context"
	"net/http"
	"net/mail"
	"strings"

	"github.com/platinummonkey/taskhub/pkg/apperr"
	"github.com/platinummonkey/taskhub/pkg/audit"
	"github.com/platinummonkey/taskhub/pkg/auth"
	"github.com/platinummonkey/taskhub/pkg/httputil"
	"github.com/platinummonkey/taskhub/pkg/middleware"
)

const minPasswordLength = 6

// AuthStore is the storage surface used by authentication handlers
type AuthStore interface {
	CreateTenantWithAdmin(ctx context.Context, name string, user *auth.User) (*auth.Tenant, error)
	GetTenant(ctx context.Context, id string) (*auth.Tenant, error)
	CreateUser(ctx context.Context, user *auth.User) error
	GetUser(ctx context.Context, id string) (*auth.User, error)
	GetUserByEmail(ctx context.Context, email string) (*auth.User, error)
}

// AuthHandlers handles registration, login and session endpoints
type AuthHandlers struct {
	handlerDeps
	store  AuthStore
	tokens *auth.TokenIssuer
}

// NewAuthHandlers creates a new AuthHandlers
func NewAuthHandlers(store AuthStore, tokens *auth.TokenIssuer, deps handlerDeps) *AuthHandlers {
	return &AuthHandlers{
		handlerDeps: deps,
		store:       store,
		tokens:      tokens,
	}
}

// Register creates a user account, either founding a new company or
// joining an existing one
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.CompanyName = strings.TrimSpace(req.CompanyName)

	if err := validateRegistration(&req); err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.WithError(err).Error("failed to hash password")
		httputil.WriteInternalError(w)
		return
	}

	user := &auth.User{
		Email:        req.Email,
		PasswordHash: hash,
	}

	if req.CompanyName != "" {
		if _, err := h.store.CreateTenantWithAdmin(r.Context(), req.CompanyName, user); err != nil {
			httputil.WriteAppError(w, err)
			return
		}
	} else {
		tenant, err := h.store.GetTenant(r.Context(), req.TenantID)
		if err != nil {
			httputil.WriteAppError(w, err)
			return
		}
		user.TenantID = tenant.ID
		user.GlobalRole = auth.GlobalRoleMember
		if err := h.store.CreateUser(r.Context(), user); err != nil {
			httputil.WriteAppError(w, err)
			return
		}
	}

	h.recordAudit(r.Context(), audit.Event{
		Type:     audit.EventUserRegistered,
		ActorID:  user.ID,
		TenantID: user.TenantID,
	})

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.WithError(err).Error("failed to issue token")
		httputil.WriteInternalError(w)
		return
	}

	h.setSessionCookie(w, token)
	httputil.WriteCreated(w, AuthResponse{Token: token, User: user})
}

func validateRegistration(req *RegisterRequest) error {
	if req.Email == "" {
		return apperr.Validation(apperr.ReasonMissingField, "email is required")
	}
	if len(req.Email) > 255 {
		return apperr.Validation(apperr.ReasonLengthLimit, "email must be at most 255 characters")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return apperr.Validation(apperr.ReasonInvalidEnum, "invalid email address")
	}
	if len(req.Password) < minPasswordLength {
		return apperr.Validation(apperr.ReasonLengthLimit, "password must be at least 6 characters")
	}
	if len(req.CompanyName) > 255 {
		return apperr.Validation(apperr.ReasonLengthLimit, "company name must be at most 255 characters")
	}

	hasCompany := req.CompanyName != ""
	hasTenant := req.TenantID != ""
	if hasCompany == hasTenant {
		return apperr.Validation(apperr.ReasonMissingField, "exactly one of company_name or tenant_id is required")
	}
	if hasTenant {
		if err := httputil.ValidateUUID(req.TenantID, "tenant_id"); err != nil {
			return err
		}
	}
	return nil
}

// Login verifies credentials and issues a session token. Unknown email
// and wrong password produce the same response.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if apperr.KindOf(err) != apperr.KindNotFound {
			h.logger.WithError(err).Error("failed to look up user for login")
			httputil.WriteInternalError(w)
			return
		}
		h.loginFailed(r.Context(), w, req.Email)
		return
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		h.loginFailed(r.Context(), w, req.Email)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.WithError(err).Error("failed to issue token")
		httputil.WriteInternalError(w)
		return
	}

	h.metrics.RecordLoginAttempt("success")
	h.recordAudit(r.Context(), audit.Event{
		Type:     audit.EventLoginSucceeded,
		ActorID:  user.ID,
		TenantID: user.TenantID,
	})

	h.setSessionCookie(w, token)
	httputil.WriteSuccess(w, AuthResponse{Token: token, User: user})
}

func (h *AuthHandlers) loginFailed(ctx context.Context, w http.ResponseWriter, email string) {
	h.metrics.RecordLoginAttempt("failure")
	h.recordAudit(ctx, audit.Event{
		Type:   audit.EventLoginFailed,
		Detail: email,
	})
	httputil.WriteUnauthorized(w, "invalid credentials")
}

// Logout clears the session cookie
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	httputil.WriteNoContent(w)
}

// Me returns the authenticated user's current record
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	user, err := h.store.GetUser(r.Context(), principal.ID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteSuccess(w, user)
}

func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
