// Package screening implements the AI screening evaluation workflow for
// Placer. It provides foundational types, prompt composition, and response
// parsing used by the 3-node state graph (init → evaluate → finalize).
// The workflow produces an advisory {score, rationale} for a placement's
// question/answer set; it never mutates the pipeline stage.
package screening

import (
	"time"

	"github.com/google/uuid"

	"github.com/placerhq/placer/internal/placements"
)

const (
	KeyPlacementID = "placement_id"
	KeyQuestions   = "questions"
	KeyEvalState   = "evaluation_state"
)

// QuestionScore holds the per-question result accumulated during evaluation.
type QuestionScore struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Score     int    `json:"score"`
	Rationale string `json:"rationale"`
}

// EvaluationState holds the running evaluation accumulated across questions.
type EvaluationState struct {
	Questions []QuestionScore `json:"questions"`
}

// Result is the final output from a screening workflow execution. Score is
// always within [0,100]; model output outside the range is clamped before
// the result is produced.
type Result struct {
	PlacementID uuid.UUID                   `json:"placement_id"`
	Score       int                         `json:"score"`
	Rationale   string                      `json:"rationale"`
	Questions   []placements.QuestionAnswer `json:"questions"`
	PerQuestion []QuestionScore             `json:"per_question"`
	EvaluatedAt time.Time                   `json:"evaluated_at"`
}
