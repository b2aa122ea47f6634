package placements

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/placerhq/placer/pkg/pagination"
)

// System defines the public contract for placement domain operations.
// Each mutating operation takes the acting identity and returns the updated
// aggregate or a typed error from this package's taxonomy.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Placement], error)

	Find(ctx context.Context, id uuid.UUID) (*Placement, error)
	Create(ctx context.Context, cmd CreateCommand, actor Actor) (*Placement, error)

	Transition(ctx context.Context, id uuid.UUID, cmd TransitionCommand, actor Actor) (*Placement, error)
	ScheduleMeeting(ctx context.Context, id uuid.UUID, cmd ScheduleMeetingCommand, actor Actor) (*Placement, error)
	UploadDocument(ctx context.Context, id uuid.UUID, cmd UploadDocumentCommand, actor Actor) (*Placement, error)
	ReviewDocument(ctx context.Context, id uuid.UUID, cmd ReviewDocumentCommand, actor Actor) (*Placement, error)
	DownloadDocument(ctx context.Context, id uuid.UUID, docID uuid.UUID) (*BGVDocument, io.ReadCloser, error)
	RecordEvaluation(ctx context.Context, id uuid.UUID, cmd EvaluationCommand, actor Actor) (*Placement, error)
	SendOffer(ctx context.Context, id uuid.UUID, cmd OfferCommand, actor Actor) (*Placement, error)
	RespondToOffer(ctx context.Context, id uuid.UUID, cmd OfferResponseCommand, actor Actor) (*Placement, error)
	ResolveDeferral(ctx context.Context, id uuid.UUID, cmd DeferralDecisionCommand, actor Actor) (*Placement, error)
	WithdrawOffer(ctx context.Context, id uuid.UUID, actor Actor) (*Placement, error)
	AddComment(ctx context.Context, id uuid.UUID, cmd CommentCommand, actor Actor) (*Placement, error)
}
