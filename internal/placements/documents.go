package placements

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// DocumentType labels the kind of background-verification document.
type DocumentType string

// Background verification document types.
const (
	DocumentIDProof       DocumentType = "ID Proof"
	DocumentAddressProof  DocumentType = "Address Proof"
	DocumentEducationCert DocumentType = "Education Certificate"
	DocumentExperience    DocumentType = "Experience Letter"
	DocumentOther         DocumentType = "Other"
)

var documentTypes = []DocumentType{
	DocumentIDProof,
	DocumentAddressProof,
	DocumentEducationCert,
	DocumentExperience,
	DocumentOther,
}

// DocumentStatus is the review state of a BGV document. A document moves
// pending to verified or pending to rejected; once reviewed it is immutable
// and a re-upload creates a new document.
type DocumentStatus string

// Document review states.
const (
	DocumentPending  DocumentStatus = "pending"
	DocumentVerified DocumentStatus = "verified"
	DocumentRejected DocumentStatus = "rejected"
)

// ParseDocumentType validates a string as a known document type.
func ParseDocumentType(s string) (DocumentType, error) {
	v := DocumentType(s)
	if !slices.Contains(documentTypes, v) {
		return "", fmt.Errorf("%w: unknown document type %q", ErrValidation, s)
	}
	return v, nil
}

// UnmarshalJSON validates that the decoded string is a known document type.
func (d *DocumentType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseDocumentType(raw)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// BGVDocument is one background-verification document reference. StorageKey
// points at the uploaded artifact in blob storage; the aggregate never holds
// bytes. PageCount is extracted for PDF uploads.
type BGVDocument struct {
	ID         uuid.UUID      `json:"id"`
	Type       DocumentType   `json:"type"`
	Status     DocumentStatus `json:"status"`
	StorageKey string         `json:"storage_key"`
	Filename   string         `json:"filename"`
	PageCount  *int           `json:"page_count,omitempty"`
	UploadedBy string         `json:"uploaded_by"`
	UploadedAt time.Time      `json:"uploaded_at"`
	VerifiedBy *string        `json:"verified_by,omitempty"`
	VerifiedAt *time.Time     `json:"verified_at,omitempty"`
	Comments   *string        `json:"comments,omitempty"`
}

// UploadDocument appends a new pending BGV document. Candidate-only.
// A rejected document is never mutated; uploading again adds a fresh entry.
func (p *Placement) UploadDocument(cmd UploadDocumentCommand, actor Actor) (*BGVDocument, error) {
	if err := p.guardMutable("document upload"); err != nil {
		return nil, err
	}
	if actor.Role != RoleCandidate {
		return nil, fmt.Errorf(
			"%w: role %s cannot upload background documents (current stage %s)",
			ErrUnauthorized, actor.Role, p.Stage,
		)
	}

	doc := BGVDocument{
		ID:         uuid.New(),
		Type:       cmd.Type,
		Status:     DocumentPending,
		StorageKey: cmd.StorageKey,
		Filename:   cmd.Filename,
		PageCount:  cmd.PageCount,
		UploadedBy: actor.ID,
		UploadedAt: time.Now().UTC(),
	}
	p.Documents = append(p.Documents, doc)

	p.appendEvent(TimelineEvent{
		Stage:       p.Stage,
		Notes:       fmt.Sprintf("document uploaded: %s", doc.Type),
		CompletedBy: actorRef(actor),
		EventType:   EventDocumentUploaded,
		ReferenceID: &p.Documents[len(p.Documents)-1].ID,
	})

	return &p.Documents[len(p.Documents)-1], nil
}

// ReviewDocument moves a pending document to verified or rejected.
// Employer-only; the document is immutable afterwards. The document_verified
// event covers both outcomes, distinguished by the resulting status.
func (p *Placement) ReviewDocument(cmd ReviewDocumentCommand, actor Actor) (*BGVDocument, error) {
	if err := p.guardMutable("document review"); err != nil {
		return nil, err
	}
	if actor.Role != RoleEmployer {
		return nil, fmt.Errorf(
			"%w: role %s cannot review background documents (current stage %s)",
			ErrUnauthorized, actor.Role, p.Stage,
		)
	}
	if cmd.Status != DocumentVerified && cmd.Status != DocumentRejected {
		return nil, fmt.Errorf(
			"%w: review status must be %s or %s",
			ErrValidation, DocumentVerified, DocumentRejected,
		)
	}

	doc := p.findDocument(cmd.DocumentID)
	if doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, cmd.DocumentID)
	}
	if doc.Status != DocumentPending {
		return nil, fmt.Errorf(
			"%w: document %q is already %s",
			ErrInvalidState, doc.Type, doc.Status,
		)
	}

	now := time.Now().UTC()
	doc.Status = cmd.Status
	doc.VerifiedBy = actorRef(actor)
	doc.VerifiedAt = &now
	if cmd.Comments != "" {
		comments := cmd.Comments
		doc.Comments = &comments
	}

	p.appendEvent(TimelineEvent{
		Stage:       p.Stage,
		Notes:       fmt.Sprintf("document %s: %s", cmd.Status, doc.Type),
		CompletedBy: actorRef(actor),
		EventType:   EventDocumentVerified,
		ReferenceID: &doc.ID,
	})

	return doc, nil
}

func (p *Placement) findDocument(id uuid.UUID) *BGVDocument {
	for i := range p.Documents {
		if p.Documents[i].ID == id {
			return &p.Documents[i]
		}
	}
	return nil
}
