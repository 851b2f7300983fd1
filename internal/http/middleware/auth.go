package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/cloudvid/transcriber-service/internal/types"
	"github.com/cloudvid/transcriber-service/internal/utils/jwt"
	"github.com/cloudvid/transcriber-service/internal/utils/response"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is what the session token asserts about the caller.
type Identity struct {
	UserID string
	Role   types.Role
	Plan   types.Plan
}

func (id Identity) IsAdmin() bool {
	return id.Role == types.RoleAdmin
}

// AuthMiddleware validates the bearer token and stashes the caller's
// identity in the request context.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("authorization header required")))
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("invalid authorization header format")))
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == "" {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("token not provided")))
				return
			}

			claims, err := jwt.ParseToken(token, jwtSecret)
			if err != nil {
				response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(
					errors.New("invalid token")))
				return
			}

			identity := Identity{
				UserID: claims.Subject,
				Role:   claims.Role,
				Plan:   claims.Plan,
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity extracts the caller's identity from the request context.
func GetIdentity(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

// WithIdentity returns a context carrying the given identity. Test helper.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}
