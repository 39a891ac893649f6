package memory

import (
	"context"
	"sort"
	"sync"

	"govdoc/internal/core/apperror"
	"govdoc/internal/core/id"
	"govdoc/internal/domain/annotation"
)

// AnnotationRepo implements annotation.Repository in memory.
type AnnotationRepo struct {
	mu    sync.RWMutex
	notes map[id.ID]annotation.Annotation
}

// Ensure compile-time interface compliance.
var _ annotation.Repository = (*AnnotationRepo)(nil)

// NewAnnotationRepo creates an empty repository.
func NewAnnotationRepo() *AnnotationRepo {
	return &AnnotationRepo{notes: make(map[id.ID]annotation.Annotation)}
}

// Create implements annotation.Repository.
func (r *AnnotationRepo) Create(_ context.Context, a *annotation.Annotation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[a.ID]; ok {
		return apperror.NewConflict("annotation already exists").WithDetail("id", a.ID.String())
	}
	r.notes[a.ID] = *a
	return nil
}

// Update implements annotation.Repository.
func (r *AnnotationRepo) Update(_ context.Context, a *annotation.Annotation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[a.ID]; !ok {
		return apperror.NewNotFound("annotation", a.ID.String())
	}
	r.notes[a.ID] = *a
	return nil
}

// Delete implements annotation.Repository.
func (r *AnnotationRepo) Delete(_ context.Context, annotationID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[annotationID]; !ok {
		return apperror.NewNotFound("annotation", annotationID.String())
	}
	delete(r.notes, annotationID)
	return nil
}

// GetByID implements annotation.Repository.
func (r *AnnotationRepo) GetByID(_ context.Context, annotationID id.ID) (*annotation.Annotation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.notes[annotationID]
	if !ok {
		return nil, apperror.NewNotFound("annotation", annotationID.String())
	}
	return &a, nil
}

// ListByDocument implements annotation.Repository.
func (r *AnnotationRepo) ListByDocument(_ context.Context, documentID string) ([]annotation.Annotation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []annotation.Annotation
	for _, a := range r.notes {
		if a.DocumentID == documentID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PageNumber != out[j].PageNumber || out[i].YPosition != out[j].YPosition {
			return annotation.Less(out[i], out[j])
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
