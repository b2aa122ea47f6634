package placements

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/placerhq/placer/pkg/handlers"
	"github.com/placerhq/placer/pkg/middleware"
	"github.com/placerhq/placer/pkg/pagination"
	"github.com/placerhq/placer/pkg/routes"
)

// Handler provides HTTP endpoints for placement operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// NewHandler creates a Handler with the given system, logger, pagination
// config, and upload size limit.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "placements"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for placement endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/placements",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "/{id}/transition", Handler: h.Transition},
			{Method: "POST", Pattern: "/{id}/meeting", Handler: h.ScheduleMeeting},
			{Method: "POST", Pattern: "/{id}/documents", Handler: h.UploadDocument},
			{Method: "GET", Pattern: "/{id}/documents/{docId}/download", Handler: h.DownloadDocument},
			{Method: "POST", Pattern: "/{id}/documents/{docId}/verify", Handler: h.VerifyDocument},
			{Method: "POST", Pattern: "/{id}/documents/{docId}/reject", Handler: h.RejectDocument},
			{Method: "POST", Pattern: "/{id}/evaluation", Handler: h.RecordEvaluation},
			{Method: "POST", Pattern: "/{id}/offer", Handler: h.SendOffer},
			{Method: "POST", Pattern: "/{id}/offer/response", Handler: h.RespondToOffer},
			{Method: "POST", Pattern: "/{id}/offer/deferral", Handler: h.ResolveDeferral},
			{Method: "POST", Pattern: "/{id}/offer/withdraw", Handler: h.WithdrawOffer},
			{Method: "POST", Pattern: "/{id}/comments", Handler: h.AddComment},
		},
	}
}

// List returns a paginated list of placements with optional query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Search accepts a JSON body with pagination and filter criteria and returns
// matching placements.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondValidation(w, "invalid search request body")
		return
	}

	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.List(r.Context(), req.PageRequest, req.Filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single placement by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.placementID(w, r)
	if !ok {
		return
	}

	p, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, p)
}

// Create shortlists a candidate for a job, creating the placement.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var cmd CreateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		h.respondValidation(w, "invalid create request body")
		return
	}

	p, err := h.sys.Create(r.Context(), cmd, actor)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, p)
}

// Transition requests a stage change through the transition engine.
func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	runCommand(h, w, r, h.sys.Transition)
}

// ScheduleMeeting replaces the placement's meeting slot.
func (h *Handler) ScheduleMeeting(w http.ResponseWriter, r *http.Request) {
	runCommand(h, w, r, h.sys.ScheduleMeeting)
}

// RecordEvaluation attaches an external screening evaluation.
func (h *Handler) RecordEvaluation(w http.ResponseWriter, r *http.Request) {
	runCommand(h, w, r, h.sys.RecordEvaluation)
}

// SendOffer issues an offer letter.
func (h *Handler) SendOffer(w http.ResponseWriter, r *http.Request) {
	runCommand(h, w, r, h.sys.SendOffer)
}

// RespondToOffer records the candidate's response to the open offer.
func (h *Handler) RespondToOffer(w http.ResponseWriter, r *http.Request) {
	runCommand(h, w, r, h.sys.RespondToOffer)
}

// ResolveDeferral records the employer's decision on a deferred offer.
func (h *Handler) ResolveDeferral(w http.ResponseWriter, r *http.Request) {
	runCommand(h, w, r, h.sys.ResolveDeferral)
}

// WithdrawOffer closes an open offer without a stage change.
func (h *Handler) WithdrawOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.placementID(w, r)
	if !ok {
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	p, err := h.sys.WithdrawOffer(r.Context(), id, actor)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, p)
}

// AddComment appends a comment to the placement's thread.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	runCommand(h, w, r, h.sys.AddComment)
}

// UploadDocument processes a multipart upload of a background-verification
// document. Extracts PDF page count automatically for PDF files using pdfcpu.
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.placementID(w, r)
	if !ok {
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(
			w, h.logger,
			http.StatusRequestEntityTooLarge,
			fmt.Errorf("%w: file exceeds maximum upload size", ErrValidation),
		)
		return
	}

	docType, err := ParseDocumentType(r.FormValue("type"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondValidation(w, "document file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.respondValidation(w, "unable to read document file")
		return
	}

	cmd := UploadDocumentCommand{
		Type:      docType,
		Filename:  header.Filename,
		Data:      data,
		PageCount: extractPDFPageCount(h.logger, data, header.Header.Get("Content-Type")),
	}

	p, err := h.sys.UploadDocument(r.Context(), id, cmd, actor)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, p)
}

// DownloadDocument streams the stored document blob back to the caller.
func (h *Handler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.placementID(w, r)
	if !ok {
		return
	}

	docID, err := uuid.Parse(r.PathValue("docId"))
	if err != nil {
		h.respondValidation(w, "invalid document id")
		return
	}

	doc, body, err := h.sys.DownloadDocument(r.Context(), id, docID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", doc.Filename),
	)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, body)
}

// VerifyDocument marks a pending document verified.
func (h *Handler) VerifyDocument(w http.ResponseWriter, r *http.Request) {
	h.reviewDocument(w, r, DocumentVerified)
}

// RejectDocument marks a pending document rejected.
func (h *Handler) RejectDocument(w http.ResponseWriter, r *http.Request) {
	h.reviewDocument(w, r, DocumentRejected)
}

func (h *Handler) reviewDocument(w http.ResponseWriter, r *http.Request, status DocumentStatus) {
	id, ok := h.placementID(w, r)
	if !ok {
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	docID, err := uuid.Parse(r.PathValue("docId"))
	if err != nil {
		h.respondValidation(w, "invalid document id")
		return
	}

	var body struct {
		Comments string `json:"comments"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			h.respondValidation(w, "invalid review request body")
			return
		}
	}

	cmd := ReviewDocumentCommand{
		DocumentID: docID,
		Status:     status,
		Comments:   body.Comments,
	}

	p, err := h.sys.ReviewDocument(r.Context(), id, cmd, actor)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, p)
}

// runCommand handles the decode → authorize → execute → respond shape shared
// by the JSON-bodied operation endpoints.
func runCommand[T any](
	h *Handler,
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id uuid.UUID, cmd T, actor Actor) (*Placement, error),
) {
	id, ok := h.placementID(w, r)
	if !ok {
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var cmd T
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		h.respondValidation(w, "invalid request body")
		return
	}

	p, err := op(r.Context(), id, cmd, actor)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, p)
}

func (h *Handler) placementID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.respondValidation(w, "invalid placement id")
		return uuid.Nil, false
	}
	return id, true
}

// actor resolves the acting identity placed on the request context by the
// identity middleware.
func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (Actor, bool) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		handlers.RespondError(
			w, h.logger,
			http.StatusForbidden,
			fmt.Errorf("%w: no acting identity on request", ErrUnauthorized),
		)
		return Actor{}, false
	}

	role, err := ParseRole(identity.Role)
	if err != nil {
		handlers.RespondError(
			w, h.logger,
			http.StatusForbidden,
			fmt.Errorf("%w: unrecognized actor role %q", ErrUnauthorized, identity.Role),
		)
		return Actor{}, false
	}

	return Actor{ID: identity.ID, Role: role}, true
}

func (h *Handler) respondValidation(w http.ResponseWriter, msg string) {
	handlers.RespondError(
		w, h.logger,
		http.StatusBadRequest,
		fmt.Errorf("%w: %s", ErrValidation, msg),
	)
}

func extractPDFPageCount(logger *slog.Logger, data []byte, contentType string) *int {
	if contentType != "application/pdf" {
		return nil
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		logger.Warn("failed to extract PDF page count", "error", err)
		return nil
	}

	return &count
}
