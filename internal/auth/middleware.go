package auth

import (
	"context"
	"errors"
	"net/http"

	"controle-acesso/internal/models"
)

type contextKey string

const (
	userKey   contextKey = "admin_user"
	claimsKey contextKey = "admin_claims"
)

// Middleware admits only requests carrying a valid admin session.
func Middleware(s *Service, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := ExtractTokenFromRequest(r, cookieName)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			user, claims, err := s.Authenticate(r.Context(), raw)
			switch {
			case err == nil:
			case errors.Is(err, ErrNotAdmin):
				s.Logger.LogSecurity("ADMIN_REFUSED", r.Method+" "+r.URL.Path+" by a non-administrator")
				http.Error(w, ErrNotAdmin.Error(), http.StatusForbidden)
				return
			case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrTokenRevoked):
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			default:
				s.Logger.Error("AUTH", "Failed to authenticate session: "+err.Error())
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// User returns the authenticated admin, or nil outside the middleware.
func User(ctx context.Context) *models.User {
	if u, ok := ctx.Value(userKey).(*models.User); ok {
		return u
	}
	return nil
}

func Username(ctx context.Context) string {
	if u := User(ctx); u != nil {
		return u.Username
	}
	return ""
}

func SessionClaims(ctx context.Context) *Claims {
	if c, ok := ctx.Value(claimsKey).(*Claims); ok {
		return c
	}
	return nil
}
