// Package apperr defines the error taxonomy shared by handlers, services and
// storage. Handlers map these sentinels to HTTP statuses with Status.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("not authorized")
	ErrInvalidState = errors.New("invalid state")
	ErrInvalidPlan  = errors.New("invalid user plan")
	ErrConflict     = errors.New("already exists")
	ErrUpstream     = errors.New("upstream provider failure")
)

// Status maps a taxonomy error to its HTTP status code. Unknown errors are
// treated as internal.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrInvalidPlan), errors.Is(err, ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
