// Package placements implements the placement pipeline domain for Placer.
// A Placement is the aggregate root tracking one candidate's progression
// through one job opening: stage transitions, interview meetings, background
// verification documents, AI screening evaluation, offer lifecycle, and an
// append-only comment thread. Every mutation flows through a command handler
// that loads the aggregate, validates actor and stage, applies one domain
// operation, appends history, and persists atomically.
package placements

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Placement is the aggregate root for one (job, candidate) pair.
// Timeline, Meeting, Documents, Offer, Evaluation, and Comments are embedded
// and persisted in the same row so stage and history commit in one write.
// Version backs optimistic concurrency: every successful mutation increments
// it, and a stale writer fails with ErrConflict.
type Placement struct {
	ID          uuid.UUID `json:"id"`
	JobID       uuid.UUID `json:"job_id"`
	CandidateID uuid.UUID `json:"candidate_id"`
	ClientID    uuid.UUID `json:"client_id"`
	Stage       Stage     `json:"stage"`
	AppliedDate time.Time `json:"applied_date"`
	LastUpdated time.Time `json:"last_updated"`
	Version     int       `json:"version"`

	RejectionReason   *string `json:"rejection_reason,omitempty"`
	RejectionComments *string `json:"rejection_comments,omitempty"`

	Timeline   []TimelineEvent `json:"timeline"`
	Meeting    *Meeting        `json:"meeting,omitempty"`
	Documents  []BGVDocument   `json:"documents"`
	Offer      *OfferLetter    `json:"offer,omitempty"`
	Evaluation *AIEvaluation   `json:"evaluation,omitempty"`
	Comments   []Comment       `json:"comments"`
}

// TimelineEvent is one immutable, timestamped record of something that
// happened to a placement. The timeline is append-only and is the sole
// source of truth for history.
type TimelineEvent struct {
	Stage       Stage      `json:"stage"`
	Date        time.Time  `json:"date"`
	Notes       string     `json:"notes"`
	CompletedBy *string    `json:"completed_by,omitempty"`
	EventType   EventType  `json:"event_type"`
	ReferenceID *uuid.UUID `json:"reference_id,omitempty"`
}

// Meeting records interview meeting metadata. A placement holds at most one
// active meeting; scheduling a new one replaces the reference and is logged
// on the timeline.
type Meeting struct {
	Date         time.Time `json:"date"`
	Time         string    `json:"time"`
	Timezone     string    `json:"timezone"`
	Participants []string  `json:"participants"`
	ScheduledBy  string    `json:"scheduled_by"`
	ScheduledAt  time.Time `json:"scheduled_at"`
}

// NewPlacement creates a placement at the Shortlisted stage with an initial
// stage_change event.
func NewPlacement(jobID, candidateID, clientID uuid.UUID, actor Actor) *Placement {
	now := time.Now().UTC()

	p := &Placement{
		ID:          uuid.New(),
		JobID:       jobID,
		CandidateID: candidateID,
		ClientID:    clientID,
		Stage:       StageShortlisted,
		AppliedDate: now,
		LastUpdated: now,
		Version:     1,
		Timeline:    []TimelineEvent{},
		Documents:   []BGVDocument{},
		Comments:    []Comment{},
	}

	p.appendEvent(TimelineEvent{
		Stage:       StageShortlisted,
		Notes:       "candidate shortlisted",
		CompletedBy: actorRef(actor),
		EventType:   EventStageChange,
	})

	return p
}

// Terminal reports whether the placement has reached Hired or Rejected.
func (p *Placement) Terminal() bool {
	return p.Stage.Terminal()
}

// LastStageChange returns the most recent stage_change event, or nil if the
// timeline holds none.
func (p *Placement) LastStageChange() *TimelineEvent {
	for i := len(p.Timeline) - 1; i >= 0; i-- {
		if p.Timeline[i].EventType == EventStageChange {
			return &p.Timeline[i]
		}
	}
	return nil
}

// appendEvent stamps the event with the current time and appends it.
// Event dates are monotonically non-decreasing because every mutation
// appends through this method within a single load-mutate-persist unit.
func (p *Placement) appendEvent(e TimelineEvent) {
	if e.Date.IsZero() {
		e.Date = time.Now().UTC()
	}
	p.Timeline = append(p.Timeline, e)
	p.LastUpdated = e.Date
}

// guardMutable rejects mutation of a terminal placement. Comments are the
// one exception and bypass this check.
func (p *Placement) guardMutable(op string) error {
	if p.Terminal() {
		return fmt.Errorf(
			"%w: %s not permitted in terminal stage %s",
			ErrInvalidTransition, op, p.Stage,
		)
	}
	return nil
}

func actorRef(actor Actor) *string {
	if actor.ID == "" {
		return nil
	}
	id := actor.ID
	return &id
}
