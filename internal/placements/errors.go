package placements

import (
	"errors"
	"net/http"
)

// Domain errors for placement operations. Every operation detects its error
// before any mutation is applied; a failed operation leaves the stored
// aggregate unchanged. ErrConflict is recoverable by reload-and-retry; the
// rest require caller correction.
var (
	ErrInvalidTransition  = errors.New("invalid stage transition")
	ErrUnauthorized       = errors.New("actor not authorized")
	ErrPreconditionNotMet = errors.New("stage precondition not met")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidState       = errors.New("document not in pending status")
	ErrDuplicate          = errors.New("placement already exists for job and candidate")
	ErrNotFound           = errors.New("placement not found")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrConflict           = errors.New("placement modified concurrently")
)

// MapHTTPStatus maps placement domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrPreconditionNotMet),
		errors.Is(err, ErrInvalidState):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
