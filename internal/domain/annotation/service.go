package annotation

import (
	"context"
	"fmt"
	"slices"
	"time"

	"govdoc/internal/core/apperror"
	appctx "govdoc/internal/core/context"
	"govdoc/internal/core/id"
	"govdoc/pkg/logger"
)

// CreateInput carries the caller-supplied fields of a new note. Zero page
// and y fall back to DefaultPage and DefaultYPosition.
type CreateInput struct {
	DocumentID string  `json:"documentId"`
	PageNumber int     `json:"pageNumber"`
	YPosition  float64 `json:"yPosition"`
	Text       string  `json:"text"`
}

// UpdateInput changes a note. Nil fields are left as they are.
type UpdateInput struct {
	Text       *string  `json:"text"`
	PageNumber *int     `json:"pageNumber"`
	YPosition  *float64 `json:"yPosition"`
}

// Service applies the ownership rule: a note is mutable only by its author
// or by an administrator.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates an annotation service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func callerOf(ctx context.Context) (*appctx.Caller, error) {
	caller := appctx.GetCaller(ctx)
	if caller == nil || caller.UserID == "" {
		return nil, apperror.NewUnauthorized("caller identity required")
	}
	return caller, nil
}

// Create stores a note authored by the caller.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Annotation, error) {
	caller, err := callerOf(ctx)
	if err != nil {
		return nil, err
	}

	a := &Annotation{
		ID:         id.New(),
		DocumentID: in.DocumentID,
		PageNumber: in.PageNumber,
		YPosition:  in.YPosition,
		Text:       in.Text,
		AuthorID:   caller.UserID,
		AuthorName: caller.Name,
		AuthorRole: caller.Role,
		CreatedAt:  s.now().UTC(),
	}
	a.ApplyDefaults()
	if err := a.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create annotation: %w", err)
	}

	logger.Info(ctx, "annotation created",
		"annotation_id", a.ID,
		"document_id", a.DocumentID,
		"page", a.PageNumber,
	)
	return a, nil
}

// Update edits a note and stamps EditedAt.
func (s *Service) Update(ctx context.Context, annotationID id.ID, in UpdateInput) (*Annotation, error) {
	a, err := s.owned(ctx, annotationID)
	if err != nil {
		return nil, err
	}

	if in.Text != nil {
		a.Text = *in.Text
	}
	if in.PageNumber != nil {
		a.PageNumber = *in.PageNumber
	}
	if in.YPosition != nil {
		a.YPosition = *in.YPosition
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	edited := s.now().UTC()
	a.EditedAt = &edited
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update annotation: %w", err)
	}
	return a, nil
}

// Delete removes a note.
func (s *Service) Delete(ctx context.Context, annotationID id.ID) error {
	if _, err := s.owned(ctx, annotationID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, annotationID); err != nil {
		return fmt.Errorf("delete annotation: %w", err)
	}
	logger.Info(ctx, "annotation deleted", "annotation_id", annotationID)
	return nil
}

// Get returns one note.
func (s *Service) Get(ctx context.Context, annotationID id.ID) (*Annotation, error) {
	return s.repo.GetByID(ctx, annotationID)
}

// List returns the notes of a document ordered by (page, y).
func (s *Service) List(ctx context.Context, documentID string) ([]Annotation, error) {
	list, err := s.repo.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	slices.SortStableFunc(list, func(a, b Annotation) int {
		switch {
		case Less(a, b):
			return -1
		case Less(b, a):
			return 1
		default:
			return 0
		}
	})
	return list, nil
}

// ForPage returns the notes of one page of a document.
func (s *Service) ForPage(ctx context.Context, documentID string, page int) ([]Annotation, error) {
	list, err := s.List(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return OnPage(list, page), nil
}

// owned loads a note and checks the caller may change it.
func (s *Service) owned(ctx context.Context, annotationID id.ID) (*Annotation, error) {
	caller, err := callerOf(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.repo.GetByID(ctx, annotationID)
	if err != nil {
		return nil, err
	}
	if a.AuthorID != caller.UserID && !caller.IsAdmin() {
		return nil, apperror.NewForbidden("only the author or an administrator may change this annotation").
			WithDetail("annotation_id", annotationID.String())
	}
	return a, nil
}
