package placements

import (
	"encoding/json"
	"fmt"
	"slices"
)

// EventType tags the kind of occurrence a timeline event records.
type EventType string

// Timeline event kinds.
const (
	EventStageChange      EventType = "stage_change"
	EventMeetingScheduled EventType = "meeting_scheduled"
	EventDocumentUploaded EventType = "document_uploaded"
	EventDocumentVerified EventType = "document_verified"
	EventOfferSent        EventType = "offer_sent"
	EventOfferResponse    EventType = "offer_response"
	EventCommentAdded     EventType = "comment_added"
	EventAIEvaluation     EventType = "ai_evaluation"
	EventRejection        EventType = "rejection"
)

var eventTypes = []EventType{
	EventStageChange,
	EventMeetingScheduled,
	EventDocumentUploaded,
	EventDocumentVerified,
	EventOfferSent,
	EventOfferResponse,
	EventCommentAdded,
	EventAIEvaluation,
	EventRejection,
}

func (e EventType) String() string {
	return string(e)
}

// UnmarshalJSON validates that the decoded string is a known event type.
func (e *EventType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := EventType(raw)
	if !slices.Contains(eventTypes, v) {
		return fmt.Errorf("%w: unknown event type %q", ErrValidation, raw)
	}
	*e = v
	return nil
}
