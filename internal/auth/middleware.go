package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/safar/go-shop-admin/internal/models"
)

type contextKey struct{ name string }

var ownerKey = contextKey{"owner"}
var tokenKey = contextKey{"token"}

// OwnerFromContext returns the authenticated owner placed there by
// RequireSession, or nil on unprotected routes.
func OwnerFromContext(ctx context.Context) *models.Owner {
	owner, _ := ctx.Value(ownerKey).(*models.Owner)
	return owner
}

func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// RequireSession gates protected routes: no request reaches a handler
// without a resolvable identity.
func RequireSession(service *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
				return
			}

			owner, err := service.Resolve(r.Context(), token)
			if err != nil {
				http.Error(w, `{"error":"invalid or expired session"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ownerKey, owner)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	// Browsers cannot set headers on websocket dials; the presence endpoint
	// passes the token in the query string instead.
	return r.URL.Query().Get("token")
}
