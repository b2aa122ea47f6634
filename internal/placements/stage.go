package placements

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Stage represents the current step of a placement in the fixed hiring
// pipeline.
type Stage string

// Pipeline stages in order. Hired and Rejected are terminal.
const (
	StageShortlisted   Stage = "Shortlisted"
	StageScreeningTest Stage = "Screening Test"
	StagePanelReview   Stage = "Panel Interview"
	StageFeedback      Stage = "Feedback"
	StageBGV           Stage = "BGV"
	StageConfirmation  Stage = "Confirmation"
	StageOfferLetter   Stage = "Offer Letter"
	StageHired         Stage = "Hired"
	StageRejected      Stage = "Rejected"
)

var stages = []Stage{
	StageShortlisted,
	StageScreeningTest,
	StagePanelReview,
	StageFeedback,
	StageBGV,
	StageConfirmation,
	StageOfferLetter,
	StageHired,
	StageRejected,
}

// transitions is the explicit stage graph consulted by the transition engine.
// Each non-terminal stage has exactly one forward successor; Rejected is
// reachable from any non-terminal stage and is handled separately in
// CanTransition. Terminal stages have no entry.
var transitions = map[Stage]Stage{
	StageShortlisted:   StageScreeningTest,
	StageScreeningTest: StagePanelReview,
	StagePanelReview:   StageFeedback,
	StageFeedback:      StageBGV,
	StageBGV:           StageConfirmation,
	StageConfirmation:  StageOfferLetter,
	StageOfferLetter:   StageHired,
}

// Stages returns the list of valid pipeline stages.
func Stages() []Stage {
	return stages
}

func (s Stage) String() string {
	return string(s)
}

// Terminal reports whether the stage permits no outgoing transitions.
func (s Stage) Terminal() bool {
	return s == StageHired || s == StageRejected
}

// Successor returns the single forward successor of the stage. The second
// return is false for terminal stages.
func (s Stage) Successor() (Stage, bool) {
	next, ok := transitions[s]
	return next, ok
}

// CanTransition reports whether target is a legal move from s: the immediate
// forward successor, or Rejected from any non-terminal stage.
func (s Stage) CanTransition(target Stage) bool {
	if s.Terminal() {
		return false
	}
	if target == StageRejected {
		return true
	}
	next, ok := transitions[s]
	return ok && next == target
}

// ParseStage validates a string as a known pipeline stage.
func ParseStage(s string) (Stage, error) {
	v := Stage(s)
	if !slices.Contains(stages, v) {
		return "", fmt.Errorf("%w: unknown stage %q", ErrValidation, s)
	}
	return v, nil
}

// UnmarshalJSON validates that the decoded string is a known stage value.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseStage(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Transition applies a validated stage change to the placement. It is the
// only code path that writes Stage and appends stage_change events; the
// sub-workflow operations request stage changes through it.
//
// Checks, in order: terminal closure and graph adjacency (ErrInvalidTransition),
// actor authorization (ErrUnauthorized, forward moves are employer-only while
// either party may reject with a mandatory reason, ErrValidation without one),
// and the BGV verification precondition on entering Confirmation
// (ErrPreconditionNotMet).
func (p *Placement) Transition(cmd TransitionCommand, actor Actor) error {
	if !p.Stage.CanTransition(cmd.Target) {
		return fmt.Errorf(
			"%w: cannot move from %s to %s",
			ErrInvalidTransition, p.Stage, cmd.Target,
		)
	}

	if cmd.Target == StageRejected {
		if actor.Role != RoleEmployer && actor.Role != RoleCandidate {
			return fmt.Errorf(
				"%w: role %s cannot reject a placement in stage %s",
				ErrUnauthorized, actor.Role, p.Stage,
			)
		}
		if cmd.RejectionReason == "" {
			return fmt.Errorf(
				"%w: a rejection reason is required to reject from stage %s",
				ErrValidation, p.Stage,
			)
		}
	} else if actor.Role != RoleEmployer {
		return fmt.Errorf(
			"%w: role %s cannot advance a placement from stage %s",
			ErrUnauthorized, actor.Role, p.Stage,
		)
	}

	if cmd.Target == StageConfirmation {
		if doc := p.unverifiedDocument(); doc != nil {
			return fmt.Errorf(
				"%w: document %q is %s; all background documents must be verified before Confirmation (current stage %s)",
				ErrPreconditionNotMet, doc.Type, doc.Status, p.Stage,
			)
		}
	}

	p.Stage = cmd.Target
	p.appendEvent(TimelineEvent{
		Stage:       cmd.Target,
		Notes:       cmd.Notes,
		CompletedBy: actorRef(actor),
		EventType:   EventStageChange,
	})

	if cmd.Target == StageRejected {
		reason := cmd.RejectionReason
		p.RejectionReason = &reason
		if cmd.RejectionComments != "" {
			comments := cmd.RejectionComments
			p.RejectionComments = &comments
		}
		p.appendEvent(TimelineEvent{
			Stage:       StageRejected,
			Notes:       reason,
			CompletedBy: actorRef(actor),
			EventType:   EventRejection,
		})
	}

	return nil
}

func (p *Placement) unverifiedDocument() *BGVDocument {
	for i := range p.Documents {
		if p.Documents[i].Status != DocumentVerified {
			return &p.Documents[i]
		}
	}
	return nil
}
