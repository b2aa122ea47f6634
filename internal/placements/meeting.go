package placements

import (
	"fmt"
	"strings"
	"time"
)

// ScheduleMeeting replaces the placement's single meeting slot.
// Employer-only. Calendar conflict checking is owned by the calendar system,
// not this domain.
func (p *Placement) ScheduleMeeting(cmd ScheduleMeetingCommand, actor Actor) error {
	if err := p.guardMutable("meeting scheduling"); err != nil {
		return err
	}
	if actor.Role != RoleEmployer {
		return fmt.Errorf(
			"%w: role %s cannot schedule meetings (current stage %s)",
			ErrUnauthorized, actor.Role, p.Stage,
		)
	}
	if cmd.Date.IsZero() {
		return fmt.Errorf("%w: meeting date is required", ErrValidation)
	}
	if len(cmd.Participants) == 0 {
		return fmt.Errorf("%w: meeting requires at least one participant", ErrValidation)
	}

	replaced := p.Meeting != nil

	p.Meeting = &Meeting{
		Date:         cmd.Date,
		Time:         cmd.Time,
		Timezone:     cmd.Timezone,
		Participants: cmd.Participants,
		ScheduledBy:  actor.ID,
		ScheduledAt:  time.Now().UTC(),
	}

	notes := fmt.Sprintf(
		"meeting scheduled for %s with %s",
		cmd.Date.Format("2006-01-02"),
		strings.Join(cmd.Participants, ", "),
	)
	if replaced {
		notes = "re" + notes
	}

	p.appendEvent(TimelineEvent{
		Stage:       p.Stage,
		Notes:       notes,
		CompletedBy: actorRef(actor),
		EventType:   EventMeetingScheduled,
	})

	return nil
}
