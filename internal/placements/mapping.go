package placements

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/placerhq/placer/pkg/query"
	"github.com/placerhq/placer/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "placements", "p").
	Project("id", "ID").
	Project("job_id", "JobID").
	Project("candidate_id", "CandidateID").
	Project("client_id", "ClientID").
	Project("stage", "Stage").
	Project("applied_date", "AppliedDate").
	Project("last_updated", "LastUpdated").
	Project("version", "Version").
	Project("rejection_reason", "RejectionReason").
	Project("rejection_comments", "RejectionComments").
	Project("timeline", "Timeline").
	Project("meeting", "Meeting").
	Project("documents", "Documents").
	Project("offer", "Offer").
	Project("evaluation", "Evaluation").
	Project("comments", "Comments")

var defaultSort = query.SortField{
	Field:      "LastUpdated",
	Descending: true,
}

// Filters contains optional filtering criteria for placement queries.
// Nil fields are ignored; all matching is exact.
type Filters struct {
	JobID       *uuid.UUID `json:"job_id,omitempty"`
	CandidateID *uuid.UUID `json:"candidate_id,omitempty"`
	ClientID    *uuid.UUID `json:"client_id,omitempty"`
	Stage       *Stage     `json:"stage,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("JobID", f.JobID).
		WhereEquals("CandidateID", f.CandidateID).
		WhereEquals("ClientID", f.ClientID).
		WhereEquals("Stage", f.Stage)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("job_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.JobID = &id
		}
	}

	if v := values.Get("candidate_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.CandidateID = &id
		}
	}

	if v := values.Get("client_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.ClientID = &id
		}
	}

	if v := values.Get("stage"); v != "" {
		if stage, err := ParseStage(v); err == nil {
			f.Stage = &stage
		}
	}

	return f
}

func scanPlacement(s repository.Scanner) (Placement, error) {
	var (
		p          Placement
		stage      string
		timeline   []byte
		meeting    []byte
		documents  []byte
		offer      []byte
		evaluation []byte
		comments   []byte
	)

	err := s.Scan(
		&p.ID,
		&p.JobID,
		&p.CandidateID,
		&p.ClientID,
		&stage,
		&p.AppliedDate,
		&p.LastUpdated,
		&p.Version,
		&p.RejectionReason,
		&p.RejectionComments,
		&timeline,
		&meeting,
		&documents,
		&offer,
		&evaluation,
		&comments,
	)
	if err != nil {
		return p, err
	}

	p.Stage = Stage(stage)

	if err := unmarshalColumn(timeline, &p.Timeline); err != nil {
		return p, fmt.Errorf("decode timeline: %w", err)
	}
	if err := unmarshalColumn(meeting, &p.Meeting); err != nil {
		return p, fmt.Errorf("decode meeting: %w", err)
	}
	if err := unmarshalColumn(documents, &p.Documents); err != nil {
		return p, fmt.Errorf("decode documents: %w", err)
	}
	if err := unmarshalColumn(offer, &p.Offer); err != nil {
		return p, fmt.Errorf("decode offer: %w", err)
	}
	if err := unmarshalColumn(evaluation, &p.Evaluation); err != nil {
		return p, fmt.Errorf("decode evaluation: %w", err)
	}
	if err := unmarshalColumn(comments, &p.Comments); err != nil {
		return p, fmt.Errorf("decode comments: %w", err)
	}

	return p, nil
}

func unmarshalColumn(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
