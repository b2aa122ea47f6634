package placements

import (
	"fmt"
	"time"
)

// AIEvaluation is the recorded output of the external screening scorer.
// Evaluations are advisory only: recording one never mutates the stage, and
// advancing remains a manual employer decision.
type AIEvaluation struct {
	Score       int              `json:"score"`
	Rationale   string           `json:"rationale"`
	EvaluatedAt time.Time        `json:"evaluated_at"`
	Questions   []QuestionAnswer `json:"questions,omitempty"`
}

// QuestionAnswer is one screening question and the candidate's answer used
// to derive the score.
type QuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// RecordEvaluation attaches the screening evaluation. System-actor only.
// The stage graph has no backward edges, so a placement has exactly one
// screening cycle; a second evaluation fails with ErrValidation, as does a
// score outside [0,100].
func (p *Placement) RecordEvaluation(cmd EvaluationCommand, actor Actor) error {
	if err := p.guardMutable("evaluation"); err != nil {
		return err
	}
	if actor.Role != RoleSystem {
		return fmt.Errorf(
			"%w: role %s cannot record screening evaluations (current stage %s)",
			ErrUnauthorized, actor.Role, p.Stage,
		)
	}
	if cmd.Score < 0 || cmd.Score > 100 {
		return fmt.Errorf(
			"%w: score %d outside range [0,100]",
			ErrValidation, cmd.Score,
		)
	}
	if p.Evaluation != nil {
		return fmt.Errorf(
			"%w: an evaluation already exists for this screening cycle",
			ErrValidation,
		)
	}

	p.Evaluation = &AIEvaluation{
		Score:       cmd.Score,
		Rationale:   cmd.Rationale,
		EvaluatedAt: time.Now().UTC(),
		Questions:   cmd.Questions,
	}

	p.appendEvent(TimelineEvent{
		Stage:       p.Stage,
		Notes:       fmt.Sprintf("screening evaluation recorded: score %d", cmd.Score),
		CompletedBy: actorRef(actor),
		EventType:   EventAIEvaluation,
	})

	return nil
}
