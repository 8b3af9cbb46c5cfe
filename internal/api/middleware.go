package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/safar/beverage-store/internal/auth"
	"github.com/safar/beverage-store/internal/models"
)

type contextKey string

const claimsContextKey contextKey = "claims"

func claimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims
}

// authenticate validates the bearer token and stores its claims on the
// request context.
func (a *API) authenticate(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			a.respondMessage(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			a.respondMessage(w, http.StatusUnauthorized, "Invalid authorization header format. Use: Bearer <token>")
			return
		}

		claims, err := a.tokens.Validate(token)
		if err != nil {
			a.respondMessage(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsContextKey, claims)))
	})
}

// admin requires an authenticated caller with the admin role.
func (a *API) admin(next http.HandlerFunc) http.Handler {
	return a.authenticate(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims.Role != models.RoleAdmin {
			a.respondMessage(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
