package screening

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/placerhq/placer/pkg/handlers"
	"github.com/placerhq/placer/pkg/routes"
)

// Handler provides HTTP endpoints for screening operations.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "screening"),
	}
}

// Routes returns the route group definition for screening endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/placements",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/{id}/evaluate", Handler: h.Evaluate},
		},
	}
}

// Evaluate runs the screening workflow against the submitted answers and
// records the evaluation on the placement.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	var cmd EvaluateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	placement, err := h.sys.Evaluate(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, placement)
}
