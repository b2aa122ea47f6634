package placements_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/placerhq/placer/internal/placements"
)

var (
	employer  = placements.Actor{ID: "emp-1", Role: placements.RoleEmployer}
	candidate = placements.Actor{ID: "cand-1", Role: placements.RoleCandidate}
	system    = placements.Actor{ID: "screening", Role: placements.RoleSystem}
)

func newPlacement(t *testing.T) *placements.Placement {
	t.Helper()
	return placements.NewPlacement(uuid.New(), uuid.New(), uuid.New(), employer)
}

// advance walks the placement forward through successive stages as the
// employer, failing the test on any rejected step.
func advance(t *testing.T, p *placements.Placement, targets ...placements.Stage) {
	t.Helper()
	for _, target := range targets {
		err := p.Transition(placements.TransitionCommand{Target: target}, employer)
		if err != nil {
			t.Fatalf("advance to %s: %v", target, err)
		}
	}
}

// uploadVerified adds a document and has the employer verify it.
func uploadVerified(t *testing.T, p *placements.Placement, docType placements.DocumentType) {
	t.Helper()
	doc, err := p.UploadDocument(placements.UploadDocumentCommand{
		Type:       docType,
		Filename:   "doc.pdf",
		StorageKey: "placements/key/doc.pdf",
	}, candidate)
	if err != nil {
		t.Fatalf("upload %s: %v", docType, err)
	}
	_, err = p.ReviewDocument(placements.ReviewDocumentCommand{
		DocumentID: doc.ID,
		Status:     placements.DocumentVerified,
	}, employer)
	if err != nil {
		t.Fatalf("verify %s: %v", docType, err)
	}
}

func lastEvent(p *placements.Placement) placements.TimelineEvent {
	return p.Timeline[len(p.Timeline)-1]
}

func TestNewPlacement(t *testing.T) {
	p := newPlacement(t)

	if p.Stage != placements.StageShortlisted {
		t.Errorf("stage: got %s, want %s", p.Stage, placements.StageShortlisted)
	}
	if p.Version != 1 {
		t.Errorf("version: got %d, want 1", p.Version)
	}
	if len(p.Timeline) != 1 {
		t.Fatalf("timeline length: got %d, want 1", len(p.Timeline))
	}
	if p.Timeline[0].EventType != placements.EventStageChange {
		t.Errorf("initial event type: got %s, want stage_change", p.Timeline[0].EventType)
	}
	if p.Timeline[0].Stage != placements.StageShortlisted {
		t.Errorf("initial event stage: got %s", p.Timeline[0].Stage)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name   string
		from   placements.Stage
		target placements.Stage
		want   bool
	}{
		{"forward successor", placements.StageShortlisted, placements.StageScreeningTest, true},
		{"skip a stage", placements.StageShortlisted, placements.StagePanelReview, false},
		{"backward", placements.StagePanelReview, placements.StageScreeningTest, false},
		{"reject from first stage", placements.StageShortlisted, placements.StageRejected, true},
		{"reject from offer letter", placements.StageOfferLetter, placements.StageRejected, true},
		{"offer letter to hired", placements.StageOfferLetter, placements.StageHired, true},
		{"hired is closed", placements.StageHired, placements.StageRejected, false},
		{"rejected is closed", placements.StageRejected, placements.StageShortlisted, false},
		{"self transition", placements.StageFeedback, placements.StageFeedback, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.target); got != tt.want {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.target, got, tt.want)
			}
		})
	}
}

func TestStageSuccessorChain(t *testing.T) {
	// every non-terminal stage must chain forward to Hired
	stage := placements.StageShortlisted
	visited := map[placements.Stage]bool{stage: true}

	for !stage.Terminal() {
		next, ok := stage.Successor()
		if !ok {
			t.Fatalf("stage %s has no successor and is not terminal", stage)
		}
		if visited[next] {
			t.Fatalf("cycle at %s", next)
		}
		visited[next] = true
		stage = next
	}

	if stage != placements.StageHired {
		t.Errorf("chain ends at %s, want %s", stage, placements.StageHired)
	}
}

func TestParseStage(t *testing.T) {
	if _, err := placements.ParseStage("Screening Test"); err != nil {
		t.Errorf("valid stage rejected: %v", err)
	}
	if _, err := placements.ParseStage("Onboarding"); !errors.Is(err, placements.ErrValidation) {
		t.Errorf("unknown stage: got %v, want ErrValidation", err)
	}
}

func TestTransitionForward(t *testing.T) {
	p := newPlacement(t)

	err := p.Transition(placements.TransitionCommand{
		Target: placements.StageScreeningTest,
		Notes:  "screening test assigned",
	}, employer)
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}

	if p.Stage != placements.StageScreeningTest {
		t.Errorf("stage: got %s, want %s", p.Stage, placements.StageScreeningTest)
	}
	e := lastEvent(p)
	if e.EventType != placements.EventStageChange {
		t.Errorf("event type: got %s, want stage_change", e.EventType)
	}
	if e.Stage != placements.StageScreeningTest {
		t.Errorf("event stage: got %s", e.Stage)
	}
	if e.Notes != "screening test assigned" {
		t.Errorf("event notes: got %q", e.Notes)
	}
}

func TestTransitionSkipDenied(t *testing.T) {
	p := newPlacement(t)

	err := p.Transition(placements.TransitionCommand{
		Target: placements.StageFeedback,
	}, employer)
	if !errors.Is(err, placements.ErrInvalidTransition) {
		t.Fatalf("got %v, want ErrInvalidTransition", err)
	}
	if p.Stage != placements.StageShortlisted {
		t.Errorf("stage mutated on failed transition: %s", p.Stage)
	}
	if len(p.Timeline) != 1 {
		t.Errorf("timeline mutated on failed transition: %d events", len(p.Timeline))
	}
}

func TestTransitionCandidateCannotAdvance(t *testing.T) {
	p := newPlacement(t)

	err := p.Transition(placements.TransitionCommand{
		Target: placements.StageScreeningTest,
	}, candidate)
	if !errors.Is(err, placements.ErrUnauthorized) {
		t.Fatalf("got %v, want ErrUnauthorized", err)
	}
}

func TestTransitionReject(t *testing.T) {
	t.Run("either party may reject with a reason", func(t *testing.T) {
		for _, actor := range []placements.Actor{employer, candidate} {
			p := newPlacement(t)
			advance(t, p, placements.StageScreeningTest, placements.StagePanelReview)

			err := p.Transition(placements.TransitionCommand{
				Target:            placements.StageRejected,
				RejectionReason:   "position closed",
				RejectionComments: "hiring freeze",
			}, actor)
			if err != nil {
				t.Fatalf("reject as %s: %v", actor.Role, err)
			}

			if p.Stage != placements.StageRejected {
				t.Errorf("stage: got %s", p.Stage)
			}
			if p.RejectionReason == nil || *p.RejectionReason != "position closed" {
				t.Errorf("rejection reason not recorded")
			}
			if p.RejectionComments == nil || *p.RejectionComments != "hiring freeze" {
				t.Errorf("rejection comments not recorded")
			}

			// the stage change and the rejection detail are separate events
			e := lastEvent(p)
			if e.EventType != placements.EventRejection {
				t.Errorf("last event: got %s, want rejection", e.EventType)
			}
			prev := p.Timeline[len(p.Timeline)-2]
			if prev.EventType != placements.EventStageChange || prev.Stage != placements.StageRejected {
				t.Errorf("stage_change event missing before rejection event")
			}
		}
	})

	t.Run("reason is mandatory", func(t *testing.T) {
		p := newPlacement(t)
		err := p.Transition(placements.TransitionCommand{
			Target: placements.StageRejected,
		}, employer)
		if !errors.Is(err, placements.ErrValidation) {
			t.Fatalf("got %v, want ErrValidation", err)
		}
	})

	t.Run("system cannot reject", func(t *testing.T) {
		p := newPlacement(t)
		err := p.Transition(placements.TransitionCommand{
			Target:          placements.StageRejected,
			RejectionReason: "reason",
		}, system)
		if !errors.Is(err, placements.ErrUnauthorized) {
			t.Fatalf("got %v, want ErrUnauthorized", err)
		}
	})
}

func TestTerminalStagesAreClosed(t *testing.T) {
	p := newPlacement(t)
	advance(t, p,
		placements.StageScreeningTest,
		placements.StagePanelReview,
		placements.StageFeedback,
		placements.StageBGV,
		placements.StageConfirmation,
		placements.StageOfferLetter,
		placements.StageHired,
	)

	if !p.Terminal() {
		t.Fatal("placement should be terminal")
	}

	if err := p.Transition(placements.TransitionCommand{
		Target:          placements.StageRejected,
		RejectionReason: "reason",
	}, employer); !errors.Is(err, placements.ErrInvalidTransition) {
		t.Errorf("transition on terminal: got %v, want ErrInvalidTransition", err)
	}

	if err := p.ScheduleMeeting(placements.ScheduleMeetingCommand{
		Date:         time.Now(),
		Participants: []string{"a"},
	}, employer); !errors.Is(err, placements.ErrInvalidTransition) {
		t.Errorf("meeting on terminal: got %v, want ErrInvalidTransition", err)
	}

	if _, err := p.UploadDocument(placements.UploadDocumentCommand{
		Type: placements.DocumentIDProof,
	}, candidate); !errors.Is(err, placements.ErrInvalidTransition) {
		t.Errorf("upload on terminal: got %v, want ErrInvalidTransition", err)
	}
}

func TestConfirmationRequiresVerifiedDocuments(t *testing.T) {
	t.Run("pending document blocks", func(t *testing.T) {
		p := newPlacement(t)
		advance(t, p,
			placements.StageScreeningTest,
			placements.StagePanelReview,
			placements.StageFeedback,
			placements.StageBGV,
		)

		if _, err := p.UploadDocument(placements.UploadDocumentCommand{
			Type:     placements.DocumentIDProof,
			Filename: "id.pdf",
		}, candidate); err != nil {
			t.Fatalf("upload: %v", err)
		}

		err := p.Transition(placements.TransitionCommand{
			Target: placements.StageConfirmation,
		}, employer)
		if !errors.Is(err, placements.ErrPreconditionNotMet) {
			t.Fatalf("got %v, want ErrPreconditionNotMet", err)
		}
	})

	t.Run("rejected document blocks", func(t *testing.T) {
		p := newPlacement(t)
		advance(t, p,
			placements.StageScreeningTest,
			placements.StagePanelReview,
			placements.StageFeedback,
			placements.StageBGV,
		)

		doc, err := p.UploadDocument(placements.UploadDocumentCommand{
			Type:     placements.DocumentAddressProof,
			Filename: "addr.pdf",
		}, candidate)
		if err != nil {
			t.Fatalf("upload: %v", err)
		}
		if _, err := p.ReviewDocument(placements.ReviewDocumentCommand{
			DocumentID: doc.ID,
			Status:     placements.DocumentRejected,
			Comments:   "illegible scan",
		}, employer); err != nil {
			t.Fatalf("reject review: %v", err)
		}

		err = p.Transition(placements.TransitionCommand{
			Target: placements.StageConfirmation,
		}, employer)
		if !errors.Is(err, placements.ErrPreconditionNotMet) {
			t.Fatalf("got %v, want ErrPreconditionNotMet", err)
		}
	})

	t.Run("all verified passes", func(t *testing.T) {
		p := newPlacement(t)
		advance(t, p,
			placements.StageScreeningTest,
			placements.StagePanelReview,
			placements.StageFeedback,
			placements.StageBGV,
		)

		uploadVerified(t, p, placements.DocumentIDProof)
		uploadVerified(t, p, placements.DocumentEducationCert)

		if err := p.Transition(placements.TransitionCommand{
			Target: placements.StageConfirmation,
		}, employer); err != nil {
			t.Fatalf("transition with verified docs: %v", err)
		}
	})
}

func TestScheduleMeeting(t *testing.T) {
	p := newPlacement(t)
	advance(t, p, placements.StageScreeningTest, placements.StagePanelReview)

	date := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	err := p.ScheduleMeeting(placements.ScheduleMeetingCommand{
		Date:         date,
		Time:         "14:00",
		Timezone:     "America/New_York",
		Participants: []string{"panel-a", "panel-b"},
	}, employer)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	if p.Meeting == nil || !p.Meeting.Date.Equal(date) {
		t.Fatal("meeting not recorded")
	}
	if lastEvent(p).EventType != placements.EventMeetingScheduled {
		t.Errorf("event type: got %s", lastEvent(p).EventType)
	}

	t.Run("rescheduling replaces the slot", func(t *testing.T) {
		newDate := date.AddDate(0, 0, 2)
		err := p.ScheduleMeeting(placements.ScheduleMeetingCommand{
			Date:         newDate,
			Participants: []string{"panel-a"},
		}, employer)
		if err != nil {
			t.Fatalf("reschedule: %v", err)
		}
		if !p.Meeting.Date.Equal(newDate) {
			t.Error("meeting slot not replaced")
		}
	})

	t.Run("candidate cannot schedule", func(t *testing.T) {
		err := p.ScheduleMeeting(placements.ScheduleMeetingCommand{
			Date:         date,
			Participants: []string{"x"},
		}, candidate)
		if !errors.Is(err, placements.ErrUnauthorized) {
			t.Errorf("got %v, want ErrUnauthorized", err)
		}
	})

	t.Run("participants required", func(t *testing.T) {
		err := p.ScheduleMeeting(placements.ScheduleMeetingCommand{
			Date: date,
		}, employer)
		if !errors.Is(err, placements.ErrValidation) {
			t.Errorf("got %v, want ErrValidation", err)
		}
	})
}

func TestDocumentReview(t *testing.T) {
	p := newPlacement(t)
	advance(t, p,
		placements.StageScreeningTest,
		placements.StagePanelReview,
		placements.StageFeedback,
		placements.StageBGV,
	)

	doc, err := p.UploadDocument(placements.UploadDocumentCommand{
		Type:     placements.DocumentExperience,
		Filename: "exp.pdf",
	}, candidate)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if doc.Status != placements.DocumentPending {
		t.Errorf("status: got %s, want pending", doc.Status)
	}

	t.Run("employer cannot upload", func(t *testing.T) {
		_, err := p.UploadDocument(placements.UploadDocumentCommand{
			Type: placements.DocumentOther,
		}, employer)
		if !errors.Is(err, placements.ErrUnauthorized) {
			t.Errorf("got %v, want ErrUnauthorized", err)
		}
	})

	t.Run("candidate cannot review", func(t *testing.T) {
		_, err := p.ReviewDocument(placements.ReviewDocumentCommand{
			DocumentID: doc.ID,
			Status:     placements.DocumentVerified,
		}, candidate)
		if !errors.Is(err, placements.ErrUnauthorized) {
			t.Errorf("got %v, want ErrUnauthorized", err)
		}
	})

	t.Run("unknown document", func(t *testing.T) {
		_, err := p.ReviewDocument(placements.ReviewDocumentCommand{
			DocumentID: uuid.New(),
			Status:     placements.DocumentVerified,
		}, employer)
		if !errors.Is(err, placements.ErrDocumentNotFound) {
			t.Errorf("got %v, want ErrDocumentNotFound", err)
		}
	})

	t.Run("status must be a review outcome", func(t *testing.T) {
		_, err := p.ReviewDocument(placements.ReviewDocumentCommand{
			DocumentID: doc.ID,
			Status:     placements.DocumentPending,
		}, employer)
		if !errors.Is(err, placements.ErrValidation) {
			t.Errorf("got %v, want ErrValidation", err)
		}
	})

	t.Run("reviewed document is immutable", func(t *testing.T) {
		reviewed, err := p.ReviewDocument(placements.ReviewDocumentCommand{
			DocumentID: doc.ID,
			Status:     placements.DocumentVerified,
		}, employer)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if reviewed.VerifiedBy == nil || *reviewed.VerifiedBy != employer.ID {
			t.Error("verifier not recorded")
		}

		_, err = p.ReviewDocument(placements.ReviewDocumentCommand{
			DocumentID: doc.ID,
			Status:     placements.DocumentRejected,
		}, employer)
		if !errors.Is(err, placements.ErrInvalidState) {
			t.Errorf("second review: got %v, want ErrInvalidState", err)
		}
	})
}

func TestRecordEvaluation(t *testing.T) {
	p := newPlacement(t)
	advance(t, p, placements.StageScreeningTest)

	t.Run("system actor only", func(t *testing.T) {
		err := p.RecordEvaluation(placements.EvaluationCommand{Score: 80}, employer)
		if !errors.Is(err, placements.ErrUnauthorized) {
			t.Errorf("got %v, want ErrUnauthorized", err)
		}
	})

	t.Run("score must be in range", func(t *testing.T) {
		for _, score := range []int{-1, 101} {
			err := p.RecordEvaluation(placements.EvaluationCommand{Score: score}, system)
			if !errors.Is(err, placements.ErrValidation) {
				t.Errorf("score %d: got %v, want ErrValidation", score, err)
			}
		}
	})

	t.Run("records once and stays advisory", func(t *testing.T) {
		err := p.RecordEvaluation(placements.EvaluationCommand{
			Score:     85,
			Rationale: "strong answers",
			Questions: []placements.QuestionAnswer{{Question: "Q1", Answer: "A1"}},
		}, system)
		if err != nil {
			t.Fatalf("record: %v", err)
		}

		if p.Evaluation == nil || p.Evaluation.Score != 85 {
			t.Fatal("evaluation not recorded")
		}
		if p.Stage != placements.StageScreeningTest {
			t.Errorf("stage moved on evaluation: %s", p.Stage)
		}
		if lastEvent(p).EventType != placements.EventAIEvaluation {
			t.Errorf("event type: got %s", lastEvent(p).EventType)
		}

		err = p.RecordEvaluation(placements.EvaluationCommand{Score: 90}, system)
		if !errors.Is(err, placements.ErrValidation) {
			t.Errorf("second evaluation: got %v, want ErrValidation", err)
		}
	})
}

// TestOfferAcceptance walks the full happy path: shortlist, screening
// evaluation, panel interview with a scheduled meeting, BGV with verified
// documents, offer from Confirmation, candidate acceptance, Hired.
func TestOfferAcceptance(t *testing.T) {
	p := newPlacement(t)

	advance(t, p, placements.StageScreeningTest)
	if err := p.RecordEvaluation(placements.EvaluationCommand{
		Score:     82,
		Rationale: "strong answers across the set",
	}, system); err != nil {
		t.Fatalf("record evaluation: %v", err)
	}

	advance(t, p, placements.StagePanelReview)
	if err := p.ScheduleMeeting(placements.ScheduleMeetingCommand{
		Date:         time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		Time:         "14:00",
		Timezone:     "UTC",
		Participants: []string{"emp-1", "cand-1"},
	}, employer); err != nil {
		t.Fatalf("schedule meeting: %v", err)
	}

	advance(t, p, placements.StageFeedback, placements.StageBGV)
	uploadVerified(t, p, placements.DocumentIDProof)
	advance(t, p, placements.StageConfirmation)

	err := p.SendOffer(placements.OfferCommand{
		Salary:          "95000 USD",
		JoiningDate:     time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		ProbationPeriod: "3 months",
	}, employer)
	if err != nil {
		t.Fatalf("send offer: %v", err)
	}

	// sending from Confirmation advances to Offer Letter first
	if p.Stage != placements.StageOfferLetter {
		t.Fatalf("stage after send: got %s, want %s", p.Stage, placements.StageOfferLetter)
	}
	if !p.Offer.Open() {
		t.Fatal("offer should be open")
	}

	err = p.RespondToOffer(placements.OfferResponseCommand{
		Response: placements.OfferAccepted,
	}, candidate)
	if err != nil {
		t.Fatalf("accept offer: %v", err)
	}

	if p.Stage != placements.StageHired {
		t.Errorf("stage: got %s, want %s", p.Stage, placements.StageHired)
	}
	if p.Offer.Open() {
		t.Error("offer should be resolved")
	}
	if lastEvent(p).EventType != placements.EventOfferResponse {
		t.Errorf("timeline should end with offer_response, got %s", lastEvent(p).EventType)
	}
	if len(p.Timeline) < 6 {
		t.Errorf("timeline: got %d events, want at least 6", len(p.Timeline))
	}
}

func TestSendOffer(t *testing.T) {
	t.Run("employer only", func(t *testing.T) {
		p := newPlacement(t)
		advance(t, p,
			placements.StageScreeningTest,
			placements.StagePanelReview,
			placements.StageFeedback,
			placements.StageBGV,
			placements.StageConfirmation,
			placements.StageOfferLetter,
		)
		err := p.SendOffer(placements.OfferCommand{Salary: "90000 USD"}, candidate)
		if !errors.Is(err, placements.ErrUnauthorized) {
			t.Errorf("got %v, want ErrUnauthorized", err)
		}
	})

	t.Run("not before Confirmation", func(t *testing.T) {
		p := newPlacement(t)
		advance(t, p, placements.StageScreeningTest)
		err := p.SendOffer(placements.OfferCommand{Salary: "90000 USD"}, employer)
		if !errors.Is(err, placements.ErrInvalidTransition) {
			t.Errorf("got %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("salary required", func(t *testing.T) {
		p := newPlacement(t)
		advance(t, p,
			placements.StageScreeningTest,
			placements.StagePanelReview,
			placements.StageFeedback,
			placements.StageBGV,
			placements.StageConfirmation,
			placements.StageOfferLetter,
		)
		err := p.SendOffer(placements.OfferCommand{}, employer)
		if !errors.Is(err, placements.ErrValidation) {
			t.Errorf("got %v, want ErrValidation", err)
		}
	})

	t.Run("one open offer at a time", func(t *testing.T) {
		p := newPlacement(t)
		advance(t, p,
			placements.StageScreeningTest,
			placements.StagePanelReview,
			placements.StageFeedback,
			placements.StageBGV,
			placements.StageConfirmation,
			placements.StageOfferLetter,
		)
		if err := p.SendOffer(placements.OfferCommand{Salary: "90000 USD"}, employer); err != nil {
			t.Fatalf("first offer: %v", err)
		}
		err := p.SendOffer(placements.OfferCommand{Salary: "95000 USD"}, employer)
		if !errors.Is(err, placements.ErrConflict) {
			t.Errorf("got %v, want ErrConflict", err)
		}
	})
}

// TestOfferDeferral exercises the deferral sub-state machine: candidate
// defers, responses block while pending, employer approval reopens the offer
// for a final response.
func TestOfferDeferral(t *testing.T) {
	setup := func(t *testing.T) *placements.Placement {
		p := newPlacement(t)
		advance(t, p,
			placements.StageScreeningTest,
			placements.StagePanelReview,
			placements.StageFeedback,
			placements.StageBGV,
			placements.StageConfirmation,
			placements.StageOfferLetter,
		)
		if err := p.SendOffer(placements.OfferCommand{Salary: "90000 USD"}, employer); err != nil {
			t.Fatalf("send offer: %v", err)
		}
		if err := p.RespondToOffer(placements.OfferResponseCommand{
			Response: placements.OfferDeferred,
		}, candidate); err != nil {
			t.Fatalf("defer: %v", err)
		}
		return p
	}

	t.Run("deferral awaits employer decision", func(t *testing.T) {
		p := setup(t)

		if p.Offer.DeferApproval != placements.DeferPendingApproval {
			t.Errorf("defer approval: got %s", p.Offer.DeferApproval)
		}
		if p.Offer.DeferredDate == nil {
			t.Error("deferred date not stamped")
		}
		if p.Stage != placements.StageOfferLetter {
			t.Errorf("stage moved on deferral: %s", p.Stage)
		}

		err := p.RespondToOffer(placements.OfferResponseCommand{
			Response: placements.OfferAccepted,
		}, candidate)
		if !errors.Is(err, placements.ErrConflict) {
			t.Errorf("response while pending: got %v, want ErrConflict", err)
		}
	})

	t.Run("candidate cannot resolve the deferral", func(t *testing.T) {
		p := setup(t)
		err := p.ResolveDeferral(placements.DeferralDecisionCommand{
			Decision: placements.DeferApproved,
		}, candidate)
		if !errors.Is(err, placements.ErrUnauthorized) {
			t.Errorf("got %v, want ErrUnauthorized", err)
		}
	})

	t.Run("approval reopens for a final response", func(t *testing.T) {
		p := setup(t)

		if err := p.ResolveDeferral(placements.DeferralDecisionCommand{
			Decision: placements.DeferApproved,
		}, employer); err != nil {
			t.Fatalf("approve: %v", err)
		}

		if !p.Offer.Open() {
			t.Fatal("approved deferral should leave the offer open")
		}

		if err := p.RespondToOffer(placements.OfferResponseCommand{
			Response: placements.OfferAccepted,
		}, candidate); err != nil {
			t.Fatalf("accept after approval: %v", err)
		}
		if p.Stage != placements.StageHired {
			t.Errorf("stage: got %s, want Hired", p.Stage)
		}
	})

	t.Run("rejection closes the offer without a stage change", func(t *testing.T) {
		p := setup(t)

		if err := p.ResolveDeferral(placements.DeferralDecisionCommand{
			Decision: placements.DeferRejected,
		}, employer); err != nil {
			t.Fatalf("reject deferral: %v", err)
		}

		if p.Offer.Open() {
			t.Error("rejected deferral should close the offer")
		}
		if p.Stage != placements.StageOfferLetter {
			t.Errorf("stage: got %s, want Offer Letter", p.Stage)
		}

		// a fresh offer may follow
		if err := p.SendOffer(placements.OfferCommand{Salary: "100000 USD"}, employer); err != nil {
			t.Errorf("offer after rejected deferral: %v", err)
		}
	})

	t.Run("no pending deferral", func(t *testing.T) {
		p := newPlacement(t)
		advance(t, p,
			placements.StageScreeningTest,
			placements.StagePanelReview,
			placements.StageFeedback,
			placements.StageBGV,
			placements.StageConfirmation,
			placements.StageOfferLetter,
		)
		err := p.ResolveDeferral(placements.DeferralDecisionCommand{
			Decision: placements.DeferApproved,
		}, employer)
		if !errors.Is(err, placements.ErrConflict) {
			t.Errorf("got %v, want ErrConflict", err)
		}
	})
}

func TestOfferDecline(t *testing.T) {
	p := newPlacement(t)
	advance(t, p,
		placements.StageScreeningTest,
		placements.StagePanelReview,
		placements.StageFeedback,
		placements.StageBGV,
		placements.StageConfirmation,
		placements.StageOfferLetter,
	)
	if err := p.SendOffer(placements.OfferCommand{Salary: "90000 USD"}, employer); err != nil {
		t.Fatalf("send offer: %v", err)
	}

	if err := p.RespondToOffer(placements.OfferResponseCommand{
		Response: placements.OfferRejected,
	}, candidate); err != nil {
		t.Fatalf("decline: %v", err)
	}

	if p.Stage != placements.StageRejected {
		t.Errorf("stage: got %s, want Rejected", p.Stage)
	}
	if p.RejectionReason == nil {
		t.Error("rejection reason not recorded")
	}
}

func TestWithdrawOffer(t *testing.T) {
	p := newPlacement(t)
	advance(t, p,
		placements.StageScreeningTest,
		placements.StagePanelReview,
		placements.StageFeedback,
		placements.StageBGV,
		placements.StageConfirmation,
		placements.StageOfferLetter,
	)
	if err := p.SendOffer(placements.OfferCommand{Salary: "90000 USD"}, employer); err != nil {
		t.Fatalf("send offer: %v", err)
	}

	t.Run("candidate cannot withdraw", func(t *testing.T) {
		err := p.WithdrawOffer(candidate)
		if !errors.Is(err, placements.ErrUnauthorized) {
			t.Errorf("got %v, want ErrUnauthorized", err)
		}
	})

	t.Run("withdraw closes the offer", func(t *testing.T) {
		if err := p.WithdrawOffer(employer); err != nil {
			t.Fatalf("withdraw: %v", err)
		}
		if p.Offer.Open() {
			t.Error("offer should be closed")
		}
		if p.Stage != placements.StageOfferLetter {
			t.Errorf("stage moved on withdrawal: %s", p.Stage)
		}

		err := p.RespondToOffer(placements.OfferResponseCommand{
			Response: placements.OfferAccepted,
		}, candidate)
		if !errors.Is(err, placements.ErrConflict) {
			t.Errorf("response after withdrawal: got %v, want ErrConflict", err)
		}
	})

	t.Run("nothing to withdraw twice", func(t *testing.T) {
		err := p.WithdrawOffer(employer)
		if !errors.Is(err, placements.ErrConflict) {
			t.Errorf("got %v, want ErrConflict", err)
		}
	})
}

func TestRespondWithoutOffer(t *testing.T) {
	p := newPlacement(t)
	err := p.RespondToOffer(placements.OfferResponseCommand{
		Response: placements.OfferAccepted,
	}, candidate)
	if !errors.Is(err, placements.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestComments(t *testing.T) {
	p := newPlacement(t)

	c, err := p.AddComment(placements.CommentCommand{Text: "promising profile"}, employer)
	if err != nil {
		t.Fatalf("comment: %v", err)
	}
	if c.Stage != placements.StageShortlisted {
		t.Errorf("comment stage: got %s", c.Stage)
	}
	if c.AuthorRole != placements.RoleEmployer {
		t.Errorf("author role: got %s", c.AuthorRole)
	}

	t.Run("text required", func(t *testing.T) {
		_, err := p.AddComment(placements.CommentCommand{}, candidate)
		if !errors.Is(err, placements.ErrValidation) {
			t.Errorf("got %v, want ErrValidation", err)
		}
	})

	t.Run("system cannot comment", func(t *testing.T) {
		_, err := p.AddComment(placements.CommentCommand{Text: "x"}, system)
		if !errors.Is(err, placements.ErrUnauthorized) {
			t.Errorf("got %v, want ErrUnauthorized", err)
		}
	})

	t.Run("allowed on terminal placements", func(t *testing.T) {
		if err := p.Transition(placements.TransitionCommand{
			Target:          placements.StageRejected,
			RejectionReason: "withdrew application",
		}, candidate); err != nil {
			t.Fatalf("reject: %v", err)
		}

		c, err := p.AddComment(placements.CommentCommand{Text: "keep on file"}, employer)
		if err != nil {
			t.Fatalf("comment on terminal: %v", err)
		}
		if c.Stage != placements.StageRejected {
			t.Errorf("comment stage: got %s", c.Stage)
		}
	})
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{placements.ErrNotFound, http.StatusNotFound},
		{placements.ErrDocumentNotFound, http.StatusNotFound},
		{placements.ErrConflict, http.StatusConflict},
		{placements.ErrDuplicate, http.StatusConflict},
		{placements.ErrInvalidTransition, http.StatusUnprocessableEntity},
		{placements.ErrPreconditionNotMet, http.StatusUnprocessableEntity},
		{placements.ErrInvalidState, http.StatusUnprocessableEntity},
		{placements.ErrUnauthorized, http.StatusForbidden},
		{placements.ErrValidation, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := placements.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
