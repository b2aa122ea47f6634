package screening

import (
	"log/slog"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/placerhq/placer/internal/placements"
)

// Runtime bundles the dependencies that screening workflow nodes require.
// It is constructed by higher-level composition code from Infrastructure and
// Domain systems.
type Runtime struct {
	Agent      gaconfig.AgentConfig
	Placements placements.System
	Logger     *slog.Logger
}
