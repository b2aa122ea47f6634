package screening

import (
	"errors"
	"net/http"

	"github.com/placerhq/placer/internal/placements"
)

// Sentinel errors for screening workflow operations.
var (
	ErrNoQuestions    = errors.New("no screening questions supplied")
	ErrEvaluateFailed = errors.New("screening evaluation failed")
)

// MapHTTPStatus maps screening errors to HTTP status codes, deferring to the
// placement mapping for errors that originate downstream.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNoQuestions):
		return http.StatusBadRequest
	case errors.Is(err, ErrEvaluateFailed):
		return http.StatusBadGateway
	default:
		return placements.MapHTTPStatus(err)
	}
}
