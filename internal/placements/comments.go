package placements

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Comment is one append-only annotation on a placement, scoped to the stage
// it was made in. Comments are never edited or deleted, and remain
// appendable after the placement reaches a terminal stage.
type Comment struct {
	ID         uuid.UUID `json:"id"`
	Text       string    `json:"text"`
	AuthorID   string    `json:"author_id"`
	AuthorRole Role      `json:"author_role"`
	Stage      Stage     `json:"stage"`
	CreatedAt  time.Time `json:"created_at"`
}

// AddComment appends a comment from either party. This is the only mutation
// permitted on terminal placements.
func (p *Placement) AddComment(cmd CommentCommand, actor Actor) (*Comment, error) {
	if actor.Role != RoleEmployer && actor.Role != RoleCandidate {
		return nil, fmt.Errorf(
			"%w: role %s cannot comment on placements",
			ErrUnauthorized, actor.Role,
		)
	}
	if cmd.Text == "" {
		return nil, fmt.Errorf("%w: comment text is required", ErrValidation)
	}

	comment := Comment{
		ID:         uuid.New(),
		Text:       cmd.Text,
		AuthorID:   actor.ID,
		AuthorRole: actor.Role,
		Stage:      p.Stage,
		CreatedAt:  time.Now().UTC(),
	}
	p.Comments = append(p.Comments, comment)

	p.appendEvent(TimelineEvent{
		Stage:       p.Stage,
		Notes:       "comment added",
		CompletedBy: actorRef(actor),
		EventType:   EventCommentAdded,
		ReferenceID: &p.Comments[len(p.Comments)-1].ID,
	})

	return &p.Comments[len(p.Comments)-1], nil
}
