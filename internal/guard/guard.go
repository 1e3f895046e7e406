// Package guard holds the error taxonomy and the ownership checks shared by
// every authorization-sensitive mutation (posts, comments, profiles,
// notifications).
package guard

import (
	"errors"
	"net/http"
)

// Sentinel errors mapped to HTTP statuses by HTTPStatus. Handlers and
// repositories wrap these with context via fmt.Errorf("...: %w", err).
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// RequireOwner permits a mutation only when the actor owns the resource.
// The check is identity equality on hex ids; callers resolve authentication
// before any resource lookup and log rejections as security-relevant events.
func RequireOwner(actorID, ownerID string) error {
	if actorID == "" {
		return ErrUnauthenticated
	}
	if actorID != ownerID {
		return ErrForbidden
	}
	return nil
}

// HTTPStatus maps a guard error to its HTTP status. Anything outside the
// taxonomy is an internal error.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
