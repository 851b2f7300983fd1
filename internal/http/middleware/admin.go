package middleware

import (
	"net/http"

	"github.com/cloudvid/transcriber-service/internal/apperr"
	"github.com/cloudvid/transcriber-service/internal/utils/response"
)

// RequireAdmin rejects callers without the admin role. Must run after
// AuthMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := GetIdentity(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(apperr.ErrForbidden))
			return
		}

		if !identity.IsAdmin() {
			response.WriteJSON(w, http.StatusForbidden, response.GeneralError(apperr.ErrForbidden))
			return
		}

		next.ServeHTTP(w, r)
	})
}
