package screening

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/placerhq/placer/internal/placements"
)

// System defines the public contract for screening evaluation operations.
type System interface {
	Handler() *Handler
	Evaluate(ctx context.Context, id uuid.UUID, cmd EvaluateCommand) (*placements.Placement, error)
}

// EvaluateCommand carries the candidate's screening test answers.
type EvaluateCommand struct {
	Questions []placements.QuestionAnswer `json:"questions"`
}

type service struct {
	rt     *Runtime
	logger *slog.Logger
}

// New creates a screening System backed by the given agent configuration
// and placement system.
func New(
	agentConfig gaconfig.AgentConfig,
	sys placements.System,
	logger *slog.Logger,
) System {
	log := logger.With("system", "screening")

	return &service{
		rt: &Runtime{
			Agent:      agentConfig,
			Placements: sys,
			Logger:     log,
		},
		logger: log,
	}
}

func (s *service) Handler() *Handler {
	return NewHandler(s, s.logger)
}

// Evaluate runs the screening workflow over the submitted answers and records
// the resulting score on the placement. The recorded evaluation is advisory:
// stage progression remains a separate, explicitly requested transition.
func (s *service) Evaluate(
	ctx context.Context,
	id uuid.UUID,
	cmd EvaluateCommand,
) (*placements.Placement, error) {
	result, err := Execute(ctx, s.rt, id, cmd.Questions)
	if err != nil {
		return nil, fmt.Errorf("screening workflow: %w", err)
	}

	s.logger.InfoContext(
		ctx, "screening evaluation complete",
		"placement_id", id,
		"score", result.Score,
	)

	return s.rt.Placements.RecordEvaluation(
		ctx,
		id,
		placements.EvaluationCommand{
			Score:     result.Score,
			Rationale: result.Rationale,
			Questions: result.Questions,
		},
		placements.Actor{ID: "screening", Role: placements.RoleSystem},
	)
}
