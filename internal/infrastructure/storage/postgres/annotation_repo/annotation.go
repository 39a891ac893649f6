// Package annotation_repo provides the PostgreSQL implementation of the
// annotation repository.
package annotation_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"govdoc/internal/core/apperror"
	"govdoc/internal/core/id"
	"govdoc/internal/domain/annotation"
	"govdoc/internal/infrastructure/storage/postgres"
)

const tableName = "doc_annotations"

// AnnotationRepo stores notes in doc_annotations.
type AnnotationRepo struct {
	txm        *postgres.TxManager
	selectCols []string
}

var _ annotation.Repository = (*AnnotationRepo)(nil)

// NewAnnotationRepo creates a repository bound to txm.
func NewAnnotationRepo(txm *postgres.TxManager) *AnnotationRepo {
	return &AnnotationRepo{
		txm:        txm,
		selectCols: postgres.ExtractDBColumns[annotation.Annotation](),
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *AnnotationRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *AnnotationRepo) baseSelect() squirrel.SelectBuilder {
	return r.Builder().Select(r.selectCols...).From(tableName)
}

func (r *AnnotationRepo) insertQuery(a *annotation.Annotation) squirrel.InsertBuilder {
	return r.Builder().Insert(tableName).SetMap(postgres.StructToMap(a))
}

func (r *AnnotationRepo) updateQuery(a *annotation.Annotation) squirrel.UpdateBuilder {
	return r.Builder().
		Update(tableName).
		Set("page_number", a.PageNumber).
		Set("y_position", a.YPosition).
		Set("text", a.Text).
		Set("edited_at", a.EditedAt).
		Where(squirrel.Eq{"id": a.ID})
}

func (r *AnnotationRepo) listQuery(documentID string) squirrel.SelectBuilder {
	return r.baseSelect().
		Where(squirrel.Eq{"document_id": documentID}).
		OrderBy("page_number", "y_position", "created_at")
}

// Create inserts a new note.
func (r *AnnotationRepo) Create(ctx context.Context, a *annotation.Annotation) error {
	sql, args, err := r.insertQuery(a).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewConflict("annotation already exists").WithDetail("id", a.ID.String())
		}
		return fmt.Errorf("insert %s: %w", tableName, err)
	}
	return nil
}

// Update stores the mutable fields of a note.
func (r *AnnotationRepo) Update(ctx context.Context, a *annotation.Annotation) error {
	sql, args, err := r.updateQuery(a).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("annotation", a.ID.String())
	}
	return nil
}

// Delete removes a note.
func (r *AnnotationRepo) Delete(ctx context.Context, annotationID id.ID) error {
	sql, args, err := r.Builder().
		Delete(tableName).
		Where(squirrel.Eq{"id": annotationID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("annotation", annotationID.String())
	}
	return nil
}

// GetByID retrieves one note.
func (r *AnnotationRepo) GetByID(ctx context.Context, annotationID id.ID) (*annotation.Annotation, error) {
	sql, args, err := r.baseSelect().
		Where(squirrel.Eq{"id": annotationID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var a annotation.Annotation
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &a, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("annotation", annotationID.String())
		}
		return nil, fmt.Errorf("get by id: %w", err)
	}
	return &a, nil
}

// ListByDocument returns the notes of a document ordered by (page, y).
func (r *AnnotationRepo) ListByDocument(ctx context.Context, documentID string) ([]annotation.Annotation, error) {
	sql, args, err := r.listQuery(documentID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var list []annotation.Annotation
	err = r.txm.ReadOnly(ctx, func(ctx context.Context) error {
		return pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &list, sql, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", tableName, err)
	}
	return list, nil
}
