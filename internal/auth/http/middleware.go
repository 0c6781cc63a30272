package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/stockroom-app/backend/internal/auth/service"
	commonhttp "github.com/stockroom-app/backend/internal/common/http"
	userdomain "github.com/stockroom-app/backend/internal/user/domain"
)

type contextKey string

const (
	userContextKey   contextKey = "auth_user"
	claimsContextKey contextKey = "auth_claims"
)

// RequireAccessToken guards protected routes. A request passes only when the
// bearer token verifies, is not on the block-list, and names a user that
// still exists.
func RequireAccessToken(auth *service.AuthService, errs *commonhttp.ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				commonhttp.WriteErrorEnvelope(w, http.StatusUnauthorized, commonhttp.CodeMissingAuthorization, "missing bearer token", nil, "")
				return
			}

			user, claims, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				errs.HandleError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			ctx = context.WithValue(ctx, claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// UserFromContext returns the authenticated user placed by RequireAccessToken.
func UserFromContext(ctx context.Context) (userdomain.User, bool) {
	user, ok := ctx.Value(userContextKey).(userdomain.User)
	return user, ok
}

func ClaimsFromContext(ctx context.Context) (service.TokenClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(service.TokenClaims)
	return claims, ok
}
