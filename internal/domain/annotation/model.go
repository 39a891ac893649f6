// Package annotation manages margin notes attached to a rendered page of a
// document. Notes are positioned by the caller at (page, y); the overlay
// draws them without overlap detection.
package annotation

import (
	"strings"
	"time"
	"unicode/utf8"

	"govdoc/internal/core/apperror"
	"govdoc/internal/core/id"
)

// Defaults applied when the caller omits a position.
const (
	DefaultPage      = 1
	DefaultYPosition = 100.0
	MaxTextLength    = 500
)

// Annotation is an author-attributed margin note.
type Annotation struct {
	ID         id.ID      `db:"id" json:"id"`
	DocumentID string     `db:"document_id" json:"documentId"`
	PageNumber int        `db:"page_number" json:"pageNumber"`
	YPosition  float64    `db:"y_position" json:"yPosition"`
	Text       string     `db:"text" json:"text"`
	AuthorID   string     `db:"author_id" json:"authorId"`
	AuthorName string     `db:"author_name" json:"authorName"`
	AuthorRole string     `db:"author_role" json:"authorRole"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	EditedAt   *time.Time `db:"edited_at" json:"editedAt,omitempty"`
}

// ApplyDefaults fills an omitted page or y position.
func (a *Annotation) ApplyDefaults() {
	if a.PageNumber == 0 {
		a.PageNumber = DefaultPage
	}
	if a.YPosition == 0 {
		a.YPosition = DefaultYPosition
	}
}

// Validate checks the caller-supplied fields.
func (a *Annotation) Validate() error {
	if strings.TrimSpace(a.DocumentID) == "" {
		return apperror.NewValidation("document id is required").
			WithDetail("field", "documentId")
	}
	if a.PageNumber < 1 {
		return apperror.NewValidation("page number must be at least 1").
			WithDetail("field", "pageNumber")
	}
	if a.YPosition < 0 {
		return apperror.NewValidation("y position must not be negative").
			WithDetail("field", "yPosition")
	}
	if strings.TrimSpace(a.Text) == "" {
		return apperror.NewValidation("text is required").
			WithDetail("field", "text")
	}
	if utf8.RuneCountInString(a.Text) > MaxTextLength {
		return apperror.NewValidation("text is too long").
			WithDetail("field", "text").
			WithDetail("max", MaxTextLength)
	}
	return nil
}

// Less orders annotations for display: by page, then by y.
func Less(a, b Annotation) bool {
	if a.PageNumber != b.PageNumber {
		return a.PageNumber < b.PageNumber
	}
	return a.YPosition < b.YPosition
}

// OnPage returns the annotations of one page, keeping their order.
func OnPage(list []Annotation, page int) []Annotation {
	var out []Annotation
	for _, a := range list {
		if a.PageNumber == page {
			out = append(out, a)
		}
	}
	return out
}
