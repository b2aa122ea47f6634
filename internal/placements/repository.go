package placements

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/placerhq/placer/internal/notify"
	"github.com/placerhq/placer/pkg/pagination"
	"github.com/placerhq/placer/pkg/query"
	"github.com/placerhq/placer/pkg/repository"
	"github.com/placerhq/placer/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	notifier   notify.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a placement repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	notifier notify.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		notifier:   notifier,
		logger:     logger.With("system", "placements"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Placement], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, defaultSort)
	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count placements: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanPlacement)
	if err != nil {
		return nil, fmt.Errorf("query placements: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Placement, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPlacement)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand, actor Actor) (*Placement, error) {
	if actor.Role != RoleEmployer {
		return nil, fmt.Errorf(
			"%w: role %s cannot shortlist candidates",
			ErrUnauthorized, actor.Role,
		)
	}
	if cmd.JobID == uuid.Nil || cmd.CandidateID == uuid.Nil {
		return nil, fmt.Errorf("%w: job_id and candidate_id are required", ErrValidation)
	}

	p := NewPlacement(cmd.JobID, cmd.CandidateID, cmd.ClientID, actor)

	q := `
		INSERT INTO placements(
			id, job_id, candidate_id, client_id, stage, applied_date,
			last_updated, version, timeline, documents, comments
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	args := []any{
		p.ID,
		p.JobID,
		p.CandidateID,
		p.ClientID,
		p.Stage,
		p.AppliedDate,
		p.LastUpdated,
		p.Version,
		mustJSON(p.Timeline),
		mustJSON(p.Documents),
		mustJSON(p.Comments),
	}

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(ctx, tx, q, args...); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info(
		"placement created",
		"id", p.ID,
		"job_id", p.JobID,
		"candidate_id", p.CandidateID,
	)
	r.dispatch("placement_created", p, actor)

	return p, nil
}

func (r *repo) Transition(
	ctx context.Context,
	id uuid.UUID,
	cmd TransitionCommand,
	actor Actor,
) (*Placement, error) {
	p, err := r.mutate(ctx, id, func(p *Placement) error {
		return p.Transition(cmd, actor)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("stage transition", "id", id, "stage", p.Stage)
	r.dispatch("stage_transition", p, actor)
	return p, nil
}

func (r *repo) ScheduleMeeting(
	ctx context.Context,
	id uuid.UUID,
	cmd ScheduleMeetingCommand,
	actor Actor,
) (*Placement, error) {
	p, err := r.mutate(ctx, id, func(p *Placement) error {
		return p.ScheduleMeeting(cmd, actor)
	})
	if err != nil {
		return nil, err
	}

	r.dispatch("meeting_scheduled", p, actor)
	return p, nil
}

func (r *repo) UploadDocument(
	ctx context.Context,
	id uuid.UUID,
	cmd UploadDocumentCommand,
	actor Actor,
) (*Placement, error) {
	cmd.StorageKey = buildStorageKey(id, sanitizeFilename(cmd.Filename))

	if err := r.storage.Upload(
		ctx, cmd.StorageKey,
		bytes.NewReader(cmd.Data),
		"application/octet-stream",
	); err != nil {
		return nil, fmt.Errorf("upload document blob: %w", err)
	}

	p, err := r.mutate(ctx, id, func(p *Placement) error {
		_, err := p.UploadDocument(cmd, actor)
		return err
	})
	if err != nil {
		if delErr := r.storage.Delete(ctx, cmd.StorageKey); delErr != nil {
			r.logger.Warn(
				"compensating blob delete failed",
				"key", cmd.StorageKey,
				"error", delErr,
			)
		}
		return nil, err
	}

	r.dispatch("document_uploaded", p, actor)
	return p, nil
}

func (r *repo) ReviewDocument(
	ctx context.Context,
	id uuid.UUID,
	cmd ReviewDocumentCommand,
	actor Actor,
) (*Placement, error) {
	p, err := r.mutate(ctx, id, func(p *Placement) error {
		_, err := p.ReviewDocument(cmd, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.dispatch("document_reviewed", p, actor)
	return p, nil
}

// DownloadDocument resolves a document's storage key from the aggregate and
// streams the blob. The caller owns the returned reader.
func (r *repo) DownloadDocument(
	ctx context.Context,
	id uuid.UUID,
	docID uuid.UUID,
) (*BGVDocument, io.ReadCloser, error) {
	p, err := r.Find(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	doc := p.findDocument(docID)
	if doc == nil {
		return nil, nil, fmt.Errorf("%w: document %s", ErrDocumentNotFound, docID)
	}

	body, err := r.storage.Download(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("download document blob: %w", err)
	}

	return doc, body, nil
}

func (r *repo) RecordEvaluation(
	ctx context.Context,
	id uuid.UUID,
	cmd EvaluationCommand,
	actor Actor,
) (*Placement, error) {
	p, err := r.mutate(ctx, id, func(p *Placement) error {
		return p.RecordEvaluation(cmd, actor)
	})
	if err != nil {
		return nil, err
	}

	r.dispatch("evaluation_recorded", p, actor)
	return p, nil
}

func (r *repo) SendOffer(
	ctx context.Context,
	id uuid.UUID,
	cmd OfferCommand,
	actor Actor,
) (*Placement, error) {
	p, err := r.mutate(ctx, id, func(p *Placement) error {
		return p.SendOffer(cmd, actor)
	})
	if err != nil {
		return nil, err
	}

	r.dispatch("offer_sent", p, actor)
	return p, nil
}

func (r *repo) RespondToOffer(
	ctx context.Context,
	id uuid.UUID,
	cmd OfferResponseCommand,
	actor Actor,
) (*Placement, error) {
	p, err := r.mutate(ctx, id, func(p *Placement) error {
		return p.RespondToOffer(cmd, actor)
	})
	if err != nil {
		return nil, err
	}

	r.dispatch("offer_response", p, actor)
	return p, nil
}

func (r *repo) ResolveDeferral(
	ctx context.Context,
	id uuid.UUID,
	cmd DeferralDecisionCommand,
	actor Actor,
) (*Placement, error) {
	p, err := r.mutate(ctx, id, func(p *Placement) error {
		return p.ResolveDeferral(cmd, actor)
	})
	if err != nil {
		return nil, err
	}

	r.dispatch("deferral_resolved", p, actor)
	return p, nil
}

func (r *repo) WithdrawOffer(
	ctx context.Context,
	id uuid.UUID,
	actor Actor,
) (*Placement, error) {
	p, err := r.mutate(ctx, id, func(p *Placement) error {
		return p.WithdrawOffer(actor)
	})
	if err != nil {
		return nil, err
	}

	r.dispatch("offer_withdrawn", p, actor)
	return p, nil
}

func (r *repo) AddComment(
	ctx context.Context,
	id uuid.UUID,
	cmd CommentCommand,
	actor Actor,
) (*Placement, error) {
	p, err := r.mutate(ctx, id, func(p *Placement) error {
		_, err := p.AddComment(cmd, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.dispatch("comment_added", p, actor)
	return p, nil
}

// mutate implements the load → validate → apply → append → persist unit of
// work. The apply function runs against the loaded aggregate; any error
// aborts before the write, leaving the stored row untouched. The persist
// carries the version read at load time, so a concurrent writer causes
// ErrConflict instead of a silent overwrite.
func (r *repo) mutate(
	ctx context.Context,
	id uuid.UUID,
	apply func(p *Placement) error,
) (*Placement, error) {
	p, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	version := p.Version
	if err := apply(p); err != nil {
		return nil, err
	}

	if err := r.save(ctx, p, version); err != nil {
		return nil, err
	}

	p.Version = version + 1
	return p, nil
}

// save writes the full aggregate in one statement, stage and history
// together. The version guard is the optimistic-concurrency check.
func (r *repo) save(ctx context.Context, p *Placement, version int) error {
	q := `
		UPDATE placements SET
			stage = $2,
			last_updated = $3,
			version = version + 1,
			rejection_reason = $4,
			rejection_comments = $5,
			timeline = $6,
			meeting = $7,
			documents = $8,
			offer = $9,
			evaluation = $10,
			comments = $11
		WHERE id = $1 AND version = $12`

	args := []any{
		p.ID,
		p.Stage,
		p.LastUpdated,
		p.RejectionReason,
		p.RejectionComments,
		mustJSON(p.Timeline),
		nullableJSON(p.Meeting),
		mustJSON(p.Documents),
		nullableJSON(p.Offer),
		nullableJSON(p.Evaluation),
		mustJSON(p.Comments),
	}
	args = append(args, version)

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(ctx, tx, q, args...); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	if err != nil {
		// the row existed at load time, so zero rows means a version mismatch
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf(
				"%w: placement %s changed since version %d was read",
				ErrConflict, p.ID, version,
			)
		}
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	return nil
}

func (r *repo) dispatch(operation string, p *Placement, actor Actor) {
	r.notifier.Dispatch(notify.Event{
		PlacementID: p.ID.String(),
		Operation:   operation,
		Stage:       p.Stage.String(),
		ActorID:     actor.ID,
		OccurredAt:  time.Now().UTC(),
	})
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("marshal aggregate field: %v", err))
	}
	return data
}

func nullableJSON[T any](v *T) any {
	if v == nil {
		return nil
	}
	return mustJSON(v)
}

func buildStorageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("placements/%s/%s", id, filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "" {
		name = "document"
	}
	return url.PathEscape(name)
}
