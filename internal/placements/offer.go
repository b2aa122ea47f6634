package placements

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// OfferResponse is the candidate's answer to an offer letter.
type OfferResponse string

// Candidate responses.
const (
	OfferAccepted OfferResponse = "accepted"
	OfferRejected OfferResponse = "rejected"
	OfferDeferred OfferResponse = "deferred"
)

var offerResponses = []OfferResponse{
	OfferAccepted,
	OfferRejected,
	OfferDeferred,
}

// ParseOfferResponse validates a string as a known candidate response.
func ParseOfferResponse(s string) (OfferResponse, error) {
	v := OfferResponse(s)
	if !slices.Contains(offerResponses, v) {
		return "", fmt.Errorf("%w: unknown offer response %q", ErrValidation, s)
	}
	return v, nil
}

// UnmarshalJSON validates that the decoded string is a known offer response.
func (o *OfferResponse) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseOfferResponse(raw)
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// DeferApproval is the deferral sub-state machine bolted onto an offer:
// none → pendingApproval → approved | rejected. A candidate deferring moves
// it to pendingApproval; the employer's decision resolves it.
type DeferApproval string

// Deferral approval states.
const (
	DeferNone            DeferApproval = "none"
	DeferPendingApproval DeferApproval = "pendingApproval"
	DeferApproved        DeferApproval = "approved"
	DeferRejected        DeferApproval = "rejected"
)

// OfferLetter is the single offer issued on a placement. A placement has at
// most one open offer: a new offer cannot be sent while this one is
// unresolved.
type OfferLetter struct {
	Salary          string         `json:"salary"`
	JoiningDate     time.Time      `json:"joining_date"`
	ProbationPeriod string         `json:"probation_period"`
	SentBy          string         `json:"sent_by"`
	SentAt          time.Time      `json:"sent_at"`
	Response        *OfferResponse `json:"candidate_response,omitempty"`
	ResponseDate    *time.Time     `json:"response_date,omitempty"`
	DeferredDate    *time.Time     `json:"deferred_date,omitempty"`
	DeferApproval   DeferApproval  `json:"defer_approval"`
	WithdrawnAt     *time.Time     `json:"withdrawn_at,omitempty"`
	WithdrawnBy     *string        `json:"withdrawn_by,omitempty"`
}

// Open reports whether the offer still awaits a final outcome. An offer is
// resolved by acceptance, rejection, withdrawal, or a rejected deferral;
// a deferred offer whose deferral was approved remains open for a further
// candidate response.
func (o *OfferLetter) Open() bool {
	if o == nil {
		return false
	}
	if o.WithdrawnAt != nil {
		return false
	}
	if o.Response == nil {
		return true
	}
	switch *o.Response {
	case OfferAccepted, OfferRejected:
		return false
	case OfferDeferred:
		return o.DeferApproval != DeferRejected
	default:
		return false
	}
}

// SendOffer issues a new offer letter. Employer-only; allowed only from the
// Offer Letter or Confirmation stage and only when no unresolved offer
// exists. Sending from Confirmation advances the stage to Offer Letter
// through the transition engine so later outcomes never skip a stage.
func (p *Placement) SendOffer(cmd OfferCommand, actor Actor) error {
	if err := p.guardMutable("offer"); err != nil {
		return err
	}
	if actor.Role != RoleEmployer {
		return fmt.Errorf(
			"%w: role %s cannot send an offer (current stage %s)",
			ErrUnauthorized, actor.Role, p.Stage,
		)
	}
	if p.Stage != StageOfferLetter && p.Stage != StageConfirmation {
		return fmt.Errorf(
			"%w: offers can only be sent from %s or %s, not %s",
			ErrInvalidTransition, StageConfirmation, StageOfferLetter, p.Stage,
		)
	}
	if p.Offer.Open() {
		return fmt.Errorf(
			"%w: an unresolved offer sent %s already exists",
			ErrConflict, p.Offer.SentAt.Format(time.RFC3339),
		)
	}
	if cmd.Salary == "" {
		return fmt.Errorf("%w: offer salary is required", ErrValidation)
	}

	if p.Stage == StageConfirmation {
		err := p.Transition(TransitionCommand{
			Target: StageOfferLetter,
			Notes:  "offer letter issued",
		}, actor)
		if err != nil {
			return err
		}
	}

	p.Offer = &OfferLetter{
		Salary:          cmd.Salary,
		JoiningDate:     cmd.JoiningDate,
		ProbationPeriod: cmd.ProbationPeriod,
		SentBy:          actor.ID,
		SentAt:          time.Now().UTC(),
		DeferApproval:   DeferNone,
	}

	p.appendEvent(TimelineEvent{
		Stage:       p.Stage,
		Notes:       fmt.Sprintf("offer sent: %s", cmd.Salary),
		CompletedBy: actorRef(actor),
		EventType:   EventOfferSent,
	})

	return nil
}

// RespondToOffer records the candidate's response. Candidate-only.
// Acceptance moves the placement to Hired and rejection to Rejected through
// the transition engine; deferral stamps the deferral date and awaits the
// employer's decision without a stage change.
func (p *Placement) RespondToOffer(cmd OfferResponseCommand, actor Actor) error {
	if err := p.guardMutable("offer response"); err != nil {
		return err
	}
	if actor.Role != RoleCandidate {
		return fmt.Errorf(
			"%w: role %s cannot respond to an offer (current stage %s)",
			ErrUnauthorized, actor.Role, p.Stage,
		)
	}
	if p.Offer == nil {
		return fmt.Errorf("%w: no offer has been sent", ErrNotFound)
	}
	if !p.Offer.Open() {
		return fmt.Errorf(
			"%w: the offer has already been resolved",
			ErrConflict,
		)
	}
	if p.Offer.Response != nil && *p.Offer.Response == OfferDeferred &&
		p.Offer.DeferApproval == DeferPendingApproval {
		return fmt.Errorf(
			"%w: deferral is awaiting employer decision",
			ErrConflict,
		)
	}

	now := time.Now().UTC()
	response := cmd.Response

	switch cmd.Response {
	case OfferAccepted:
		// acceptance advances the stage on the pipeline's behalf; the
		// employer-only gate applies to externally requested forward moves
		err := p.Transition(TransitionCommand{
			Target: StageHired,
			Notes:  "candidate accepted offer",
		}, Actor{ID: actor.ID, Role: RoleEmployer})
		if err != nil {
			return err
		}
	case OfferRejected:
		err := p.Transition(TransitionCommand{
			Target:          StageRejected,
			RejectionReason: "candidate declined offer",
		}, actor)
		if err != nil {
			return err
		}
	case OfferDeferred:
		p.Offer.DeferredDate = &now
		p.Offer.DeferApproval = DeferPendingApproval
	default:
		return fmt.Errorf("%w: unknown offer response %q", ErrValidation, cmd.Response)
	}

	p.Offer.Response = &response
	p.Offer.ResponseDate = &now

	p.appendEvent(TimelineEvent{
		Stage:       p.Stage,
		Notes:       fmt.Sprintf("offer %s", cmd.Response),
		CompletedBy: actorRef(actor),
		EventType:   EventOfferResponse,
	})

	return nil
}

// ResolveDeferral records the employer's decision on a deferred offer.
// Approval keeps the offer open for a further candidate response; rejection
// closes the offer with no stage change, permitting a later SendOffer.
func (p *Placement) ResolveDeferral(cmd DeferralDecisionCommand, actor Actor) error {
	if err := p.guardMutable("deferral decision"); err != nil {
		return err
	}
	if actor.Role != RoleEmployer {
		return fmt.Errorf(
			"%w: role %s cannot resolve a deferral (current stage %s)",
			ErrUnauthorized, actor.Role, p.Stage,
		)
	}
	if p.Offer == nil || p.Offer.Response == nil ||
		*p.Offer.Response != OfferDeferred ||
		p.Offer.DeferApproval != DeferPendingApproval {
		return fmt.Errorf(
			"%w: no deferral is awaiting a decision",
			ErrConflict,
		)
	}
	if cmd.Decision != DeferApproved && cmd.Decision != DeferRejected {
		return fmt.Errorf(
			"%w: deferral decision must be %s or %s",
			ErrValidation, DeferApproved, DeferRejected,
		)
	}

	p.Offer.DeferApproval = cmd.Decision
	if cmd.Decision == DeferApproved {
		// reopen for a further candidate response
		p.Offer.Response = nil
		p.Offer.ResponseDate = nil
	}

	p.appendEvent(TimelineEvent{
		Stage:       p.Stage,
		Notes:       fmt.Sprintf("deferral %s", cmd.Decision),
		CompletedBy: actorRef(actor),
		EventType:   EventOfferResponse,
	})

	return nil
}

// WithdrawOffer closes an open offer before a candidate response without a
// stage change. Employer-only; a first-class operation, not a cancellation
// of SendOffer.
func (p *Placement) WithdrawOffer(actor Actor) error {
	if err := p.guardMutable("offer withdrawal"); err != nil {
		return err
	}
	if actor.Role != RoleEmployer {
		return fmt.Errorf(
			"%w: role %s cannot withdraw an offer (current stage %s)",
			ErrUnauthorized, actor.Role, p.Stage,
		)
	}
	if !p.Offer.Open() {
		return fmt.Errorf("%w: no open offer to withdraw", ErrConflict)
	}

	now := time.Now().UTC()
	p.Offer.WithdrawnAt = &now
	p.Offer.WithdrawnBy = actorRef(actor)

	p.appendEvent(TimelineEvent{
		Stage:       p.Stage,
		Notes:       "offer withdrawn",
		CompletedBy: actorRef(actor),
		EventType:   EventOfferResponse,
	})

	return nil
}
