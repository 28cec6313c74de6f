// Package auth resolves the caller of a request and guards routes by role and organization.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/donorhub-backend/internal/errors"
	"github.com/unclebandit/donorhub-backend/internal/model"
	"github.com/unclebandit/donorhub-backend/internal/render"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID         string
	OrganizationID string
	Role           model.Role
	// Token is forwarded to the backend API on proxied calls.
	Token string
}

func (p *Principal) HasRole(roles ...model.Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// Authenticator resolves a bearer token into a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Principal, error)
}

// UserFetcher returns the user owning a token.
type UserFetcher interface {
	Me(ctx context.Context, token string) (*model.User, error)
}

// TokenAuthenticator delegates token checks to the backend API.
type TokenAuthenticator struct {
	Users UserFetcher
}

func (a *TokenAuthenticator) Authenticate(ctx context.Context, token string) (*Principal, error) {
	u, err := a.Users.Me(ctx, token)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, appErrors.NewForbidden("account is disabled")
	}
	return &Principal{
		UserID:         u.ID,
		OrganizationID: u.OrganizationID,
		Role:           u.Role,
		Token:          token,
	}, nil
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the principal stored by RequireAuth, or nil.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(ctxKey{}).(*Principal)
	return p
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(a Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				render.Error(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			p, err := a.Authenticate(r.Context(), token)
			if err != nil {
				switch status := appErrors.StatusCode(err); {
				case status == http.StatusForbidden:
					render.Error(w, status, err.Error())
				case status >= 400 && status < 500:
					render.Error(w, http.StatusUnauthorized, "Unauthorized")
				default:
					logger.Error("authentication failed", zap.Error(err))
					render.Error(w, http.StatusBadGateway, "authentication unavailable")
				}
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRole lets through principals holding one of roles.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := FromContext(r.Context())
			if p == nil || !p.HasRole(roles...) {
				render.Error(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOrganization checks the {orgID} URL parameter against the principal's organization.
// Super admins may act on any organization.
func RequireOrganization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := FromContext(r.Context())
		orgID := chi.URLParam(r, "orgID")
		if p == nil || orgID == "" {
			render.Error(w, http.StatusForbidden, "Forbidden")
			return
		}
		if p.Role != model.RoleSuperAdmin && p.OrganizationID != orgID {
			render.Error(w, http.StatusForbidden, "Forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}
