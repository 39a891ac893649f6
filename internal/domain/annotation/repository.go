package annotation

import (
	"context"

	"govdoc/internal/core/id"
)

// Repository persists annotations.
type Repository interface {
	Create(ctx context.Context, a *Annotation) error

	// Update stores new text, position and EditedAt of an existing note.
	Update(ctx context.Context, a *Annotation) error

	Delete(ctx context.Context, annotationID id.ID) error

	// GetByID returns NOT_FOUND when the note does not exist.
	GetByID(ctx context.Context, annotationID id.ID) (*Annotation, error)

	// ListByDocument returns the notes of a document ordered by (page, y).
	ListByDocument(ctx context.Context, documentID string) ([]Annotation, error)
}
