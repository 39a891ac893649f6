// Package overlay draws margin annotations over an already rendered
// document. Base pages are imported unchanged and notes are stamped at the
// caller-supplied (page, y) coordinates.
package overlay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/phpdave11/gofpdf"
	"github.com/phpdave11/gofpdf/contrib/gofpdi"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"govdoc/internal/core/apperror"
	"govdoc/internal/domain/annotation"
	"govdoc/internal/layout"
	"govdoc/pkg/logger"
)

var tracer = otel.Tracer("govdoc/overlay")

// Box tint and padding.
var tint = [3]int{255, 243, 176}

const padding = 3.0

var (
	errOutsidePage = errors.New("annotation box outside the page")
	errTextTooLong = errors.New("annotation text does not fit the box")
)

// Overlay stamps notes using the same geometry as the layout engine.
type Overlay struct {
	geom layout.Geometry
}

// New creates an overlay for geometry g.
func New(g layout.Geometry) *Overlay {
	return &Overlay{geom: g}
}

// Apply draws the notes of page over base. Notes for other pages are
// ignored. With nothing to draw, base is returned as is. A note that cannot
// be drawn is logged and skipped.
func (o *Overlay) Apply(ctx context.Context, base *layout.Rendered, page int, notes []annotation.Annotation) (out *layout.Rendered, err error) {
	notes = annotation.OnPage(notes, page)
	if len(notes) == 0 {
		return base, nil
	}
	if base == nil || len(base.Bytes) == 0 {
		return nil, apperror.NewRenderFailure(errors.New("overlay: empty base document"))
	}
	if page < 1 || page > base.PageCount {
		return nil, apperror.NewValidation("page out of range").
			WithDetail("page", page).
			WithDetail("pages", base.PageCount)
	}

	ctx, span := tracer.Start(ctx, "overlay.Apply",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("annotations", len(notes)),
		),
	)
	defer span.End()

	// gofpdi reports malformed input by panicking.
	defer func() {
		if r := recover(); r != nil {
			err = apperror.NewRenderFailure(fmt.Errorf("overlay: import base document: %v", r))
			span.RecordError(err)
			out = nil
		}
	}()

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: base.PageSize.Width, Ht: base.PageSize.Height},
	})
	pdf.SetAutoPageBreak(false, 0)

	imp := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(base.Bytes))

	for i := 1; i <= base.PageCount; i++ {
		tpl := imp.ImportPageFromStream(pdf, &rs, i, "/MediaBox")
		w, h := base.PageSize.Width, base.PageSize.Height
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: h})
		imp.UseImportedTemplate(pdf, tpl, 0, 0, w, h)

		if i != page {
			continue
		}
		for _, n := range notes {
			if err := o.draw(pdf, n); err != nil {
				logger.Warn(ctx, "annotation skipped",
					"annotation_id", n.ID,
					"page", n.PageNumber,
					"y", n.YPosition,
					"error", err,
				)
			}
		}
	}

	if pdf.Err() {
		span.RecordError(pdf.Error())
		return nil, apperror.NewRenderFailure(pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		span.RecordError(err)
		return nil, apperror.NewRenderFailure(err)
	}

	return &layout.Rendered{
		Bytes:     buf.Bytes(),
		PageCount: base.PageCount,
		PageSize:  base.PageSize,
		Number:    base.Number,
	}, nil
}

// draw stamps one note: tinted box, wrapped text and the author initials in
// the bottom-right corner.
func (o *Overlay) draw(pdf *gofpdf.Fpdf, n annotation.Annotation) error {
	g := o.geom
	x, y := g.AnnotationX, n.YPosition
	w, h := g.AnnotationWidth, g.AnnotationHeight
	if y < 0 || y+h > g.PageHeight {
		return errOutsidePage
	}

	size := g.AnnotationFontSize
	lineHeight := size * 1.2
	initialsHeight := lineHeight

	pdf.SetFont("Helvetica", "", size)
	lines := pdf.SplitLines([]byte(layout.Encode(n.Text)), w-2*padding)
	if float64(len(lines))*lineHeight > h-2*padding-initialsHeight {
		return errTextTooLong
	}

	pdf.SetFillColor(tint[0], tint[1], tint[2])
	pdf.SetAlpha(0.85, "Normal")
	pdf.Rect(x, y, w, h, "F")
	pdf.SetAlpha(1, "Normal")

	pdf.SetTextColor(40, 40, 40)
	ty := y + padding + size
	for _, line := range lines {
		pdf.Text(x+padding, ty, string(line))
		ty += lineHeight
	}

	initials := layout.Encode(Initials(n.AuthorName))
	if initials != "" {
		pdf.SetFont("Helvetica", "B", size)
		pdf.Text(x+w-padding-pdf.GetStringWidth(initials), y+h-padding, initials)
	}
	pdf.SetTextColor(0, 0, 0)
	return nil
}

// Initials returns the uppercased first letters of the first and last name
// tokens; a single token yields one letter. "Juan Pérez" -> "JP".
func Initials(name string) string {
	tokens := strings.Fields(name)
	if len(tokens) == 0 {
		return ""
	}
	first := firstLetter(tokens[0])
	if len(tokens) == 1 {
		return first
	}
	return first + firstLetter(tokens[len(tokens)-1])
}

func firstLetter(token string) string {
	for _, r := range token {
		return string(unicode.ToUpper(r))
	}
	return ""
}
