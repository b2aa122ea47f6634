package api

import (
	"net/http"

	"github.com/placerhq/placer/internal/config"
	"github.com/placerhq/placer/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
) {
	routes.Register(
		mux,
		domain.Placements.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		domain.Screening.Handler().Routes(),
	)
}
