// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/placerhq/placer/internal/config"
	"github.com/placerhq/placer/internal/infrastructure"
	"github.com/placerhq/placer/pkg/middleware"
	"github.com/placerhq/placer/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// When auth is enabled, identities come from verified OIDC bearer tokens;
// otherwise the header identity middleware resolves the acting identity from
// X-Actor-Id and X-Actor-Role.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	infra *infrastructure.Infrastructure,
) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Infrastructure.Logger))

	if cfg.API.Auth.Enabled {
		verifier, err := middleware.NewOIDCVerifier(
			ctx,
			cfg.API.Auth.Issuer,
			cfg.API.Auth.ClientID,
			cfg.API.Auth.RoleClaim,
		)
		if err != nil {
			return nil, fmt.Errorf("oidc verifier init failed: %w", err)
		}
		m.Use(middleware.OIDCIdentity(verifier))
	} else {
		m.Use(middleware.HeaderIdentity())
	}

	return m, nil
}
