package overlay

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govdoc/internal/content"
	"govdoc/internal/core/apperror"
	"govdoc/internal/core/id"
	"govdoc/internal/domain/annotation"
	"govdoc/internal/layout"
)

func baseRender(t *testing.T, paragraphs int) (*layout.Rendered, layout.Geometry) {
	t.Helper()
	e, err := layout.NewEngine(layout.DefaultConfig())
	require.NoError(t, err)

	var blocks []content.Block
	for i := 0; i < paragraphs; i++ {
		blocks = append(blocks, content.Paragraph(strings.Repeat("texto del informe ", 60)))
	}
	out, err := e.Render(context.Background(), layout.Metadata{Number: "001-MT-038-051"}, blocks)
	require.NoError(t, err)
	return out, e.Geometry()
}

func note(page int, y float64, text string) annotation.Annotation {
	return annotation.Annotation{
		ID:         id.New(),
		DocumentID: "doc",
		PageNumber: page,
		YPosition:  y,
		Text:       text,
		AuthorName: "Juan Pérez",
	}
}

func TestInitials(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Juan Pérez", "JP"},
		{"juan carlos pérez", "JP"},
		{"Ésther", "É"},
		{"  ", ""},
		{"", ""},
		{"ana   maría", "AM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Initials(tt.name))
		})
	}
}

func TestApply_NoAnnotationsReturnsBaseUnchanged(t *testing.T) {
	base, g := baseRender(t, 1)
	o := New(g)

	out, err := o.Apply(context.Background(), base, 1, nil)
	require.NoError(t, err)
	assert.Same(t, base, out)

	// Notes for another page do not count.
	out, err = o.Apply(context.Background(), base, 1, []annotation.Annotation{note(2, 100, "x")})
	require.NoError(t, err)
	assert.Equal(t, base.Bytes, out.Bytes)
}

func TestApply_DrawsOverImportedPages(t *testing.T) {
	base, g := baseRender(t, 12)
	require.GreaterOrEqual(t, base.PageCount, 2)
	o := New(g)

	out, err := o.Apply(context.Background(), base, 2, []annotation.Annotation{
		note(2, 100, "Revisar la cifra del segundo párrafo"),
		note(2, 200, "Conforme"),
	})
	require.NoError(t, err)
	assert.Equal(t, base.PageCount, out.PageCount)
	assert.Equal(t, base.PageSize, out.PageSize)
	assert.Equal(t, base.Number, out.Number)
	assert.True(t, bytes.HasPrefix(out.Bytes, []byte("%PDF-")))
	assert.NotEqual(t, base.Bytes, out.Bytes)
}

func TestApply_FailingAnnotationIsSkipped(t *testing.T) {
	base, g := baseRender(t, 1)
	o := New(g)

	out, err := o.Apply(context.Background(), base, 1, []annotation.Annotation{
		note(1, g.PageHeight+50, "fuera de la página"),
		note(1, 100, strings.Repeat("demasiado texto ", 200)),
		note(1, 300, "ok"),
	})
	require.NoError(t, err)
	assert.Equal(t, base.PageCount, out.PageCount)
}

func TestApply_PageOutOfRange(t *testing.T) {
	base, g := baseRender(t, 1)
	_, err := New(g).Apply(context.Background(), base, 9, []annotation.Annotation{note(9, 100, "x")})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestApply_CorruptBaseIsRenderFailure(t *testing.T) {
	g := layout.DefaultGeometry()
	base := &layout.Rendered{
		Bytes:     []byte("%PDF-1.3 garbage"),
		PageCount: 1,
		PageSize:  layout.PageSize{Width: g.PageWidth, Height: g.PageHeight},
	}
	_, err := New(g).Apply(context.Background(), base, 1, []annotation.Annotation{note(1, 100, "x")})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeRenderFailure, appErr.Code)
}

func TestDraw_RejectsBoxOutsidePage(t *testing.T) {
	g := layout.DefaultGeometry()
	o := New(g)
	err := o.draw(nil, note(1, -1, "x"))
	assert.ErrorIs(t, err, errOutsidePage)
}
