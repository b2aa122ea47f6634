package placements

import (
	"time"

	"github.com/google/uuid"
)

// CreateCommand carries the identifiers needed to shortlist a candidate for
// a job, creating the placement.
type CreateCommand struct {
	JobID       uuid.UUID `json:"job_id"`
	CandidateID uuid.UUID `json:"candidate_id"`
	ClientID    uuid.UUID `json:"client_id"`
}

// TransitionCommand requests a stage change. RejectionReason is mandatory
// when Target is Rejected and ignored otherwise.
type TransitionCommand struct {
	Target            Stage  `json:"target"`
	Notes             string `json:"notes"`
	RejectionReason   string `json:"rejection_reason"`
	RejectionComments string `json:"rejection_comments"`
}

// ScheduleMeetingCommand carries interview meeting metadata.
type ScheduleMeetingCommand struct {
	Date         time.Time `json:"date"`
	Time         string    `json:"time"`
	Timezone     string    `json:"timezone"`
	Participants []string  `json:"participants"`
}

// UploadDocumentCommand registers an uploaded BGV artifact. Data holds the
// raw file bytes, uploaded to blob storage by the repository; the aggregate
// stores only the resulting StorageKey. PageCount is optional and extracted
// by the caller for PDFs.
type UploadDocumentCommand struct {
	Type       DocumentType
	Filename   string
	Data       []byte
	PageCount  *int
	StorageKey string
}

// ReviewDocumentCommand verifies or rejects a pending BGV document.
type ReviewDocumentCommand struct {
	DocumentID uuid.UUID
	Status     DocumentStatus
	Comments   string
}

// EvaluationCommand attaches an external screening score and rationale.
type EvaluationCommand struct {
	Score     int              `json:"score"`
	Rationale string           `json:"rationale"`
	Questions []QuestionAnswer `json:"questions"`
}

// OfferCommand issues an offer letter.
type OfferCommand struct {
	Salary          string    `json:"salary"`
	JoiningDate     time.Time `json:"joining_date"`
	ProbationPeriod string    `json:"probation_period"`
}

// OfferResponseCommand records the candidate's response to the open offer.
type OfferResponseCommand struct {
	Response OfferResponse `json:"response"`
}

// DeferralDecisionCommand records the employer's decision on a deferred
// offer.
type DeferralDecisionCommand struct {
	Decision DeferApproval `json:"decision"`
}

// CommentCommand appends a free-text note.
type CommentCommand struct {
	Text string `json:"text"`
}
