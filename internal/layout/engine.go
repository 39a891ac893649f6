package layout

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"govdoc/internal/asset"
	"govdoc/internal/content"
	"govdoc/internal/core/apperror"
	"govdoc/pkg/logger"
)

var tracer = otel.Tracer("govdoc/layout")

// Placeholder labels drawn in place of unavailable images.
const (
	SealPlaceholder      = "[SELLO]"
	SignaturePlaceholder = "[FIRMA]"
	EmblemPlaceholder    = "[ESCUDO]"
)

// Labels of the metadata rows under the header.
var labelRows = [...]string{"Número:", "Referencia:", "Sección:"}

// fallbackDate stamps documents without an issue date so output stays
// byte-stable across runs.
var fallbackDate = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// PageSize is the media box of a rendered document, in points.
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rendered is a complete PDF. It is produced per call and never cached.
type Rendered struct {
	Bytes     []byte
	PageCount int
	PageSize  PageSize
	Number    string
}

// Engine renders documents with a fixed geometry and letterhead.
type Engine struct {
	geom     Geometry
	head     Letterhead
	compress bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithCompression toggles content stream compression (on by default).
func WithCompression(on bool) Option {
	return func(e *Engine) { e.compress = on }
}

// NewEngine validates cfg and returns an engine.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Geometry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid geometry: %w", err)
	}
	e := &Engine{geom: cfg.Geometry, head: cfg.Letterhead, compress: true}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Geometry returns the engine geometry.
func (e *Engine) Geometry() Geometry {
	return e.geom
}

func (e *Engine) newPDF(meta Metadata) *gofpdf.Fpdf {
	g := e.geom
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: g.PageWidth, Ht: g.PageHeight},
	})
	pdf.SetMargins(g.MarginLeft, g.MarginTop, g.MarginRight)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(e.compress)
	pdf.SetCatalogSort(true)

	created := meta.Date
	if created.IsZero() {
		created = fallbackDate
	}
	pdf.SetCreationDate(created.UTC())
	if meta.Title != "" {
		pdf.SetTitle(meta.Title, true)
	}
	if meta.Number != "" {
		pdf.SetSubject(meta.Number, true)
	}
	return pdf
}

// Plan computes page positions without drawing.
func (e *Engine) Plan(meta Metadata, blocks []content.Block) *Plan {
	return buildPlan(e.geom, e.head, e.newPDF(meta), meta, blocks)
}

// Render lays out and draws the document. Image failures degrade to
// placeholders; any other PDF error fails the whole render.
func (e *Engine) Render(ctx context.Context, meta Metadata, blocks []content.Block) (*Rendered, error) {
	ctx, span := tracer.Start(ctx, "layout.Render",
		trace.WithAttributes(
			attribute.Int("blocks", len(blocks)),
			attribute.String("number", meta.Number),
		),
	)
	defer span.End()

	pdf := e.newPDF(meta)
	plan := buildPlan(e.geom, e.head, pdf, meta, blocks)

	if meta.QR == nil && meta.VerificationURL != "" {
		img, err := QRImage(meta.VerificationURL)
		if err != nil {
			logger.Warn(ctx, "qr generation failed, rendering without it", "error", err)
		}
		meta.QR = img
	}

	d := &drawer{ctx: ctx, g: e.geom, head: e.head, pdf: pdf}
	next := 0
	for page := 1; page <= plan.Pages; page++ {
		pdf.AddPage()
		if page == 1 {
			d.header(plan, meta)
			d.labels(meta)
			d.qr(meta.QR)
		}
		for next < len(plan.Lines) && plan.Lines[next].Page == page {
			d.line(plan.Lines[next])
			next++
		}
		if plan.Signature.Page == page {
			d.signature(plan, meta)
			d.footer(plan.Footer, meta)
		}
		d.pageNumber(page, plan.Pages)
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

	span.SetAttributes(attribute.Int("pages", plan.Pages))
	return &Rendered{
		Bytes:     buf.Bytes(),
		PageCount: plan.Pages,
		PageSize:  PageSize{Width: e.geom.PageWidth, Height: e.geom.PageHeight},
		Number:    meta.Number,
	}, nil
}

// drawer issues the gofpdf calls for one render.
type drawer struct {
	ctx  context.Context
	g    Geometry
	head Letterhead
	pdf  *gofpdf.Fpdf
}

func (d *drawer) setFont(style string, size float64) {
	d.pdf.SetFont(d.g.FontFamily, style, size)
}

// baseline converts a line top into the text baseline.
func baseline(top, height, size float64) float64 {
	return top + (height-size)/2 + size*0.8
}

// text draws s with its left edge at x on the baseline y.
func (d *drawer) text(x, y float64, s string) {
	if s == "" {
		return
	}
	d.pdf.Text(x, y, Encode(s))
}

// centered draws s centered between left and left+width.
func (d *drawer) centered(left, width, y float64, s string) {
	if s == "" {
		return
	}
	enc := Encode(s)
	d.pdf.Text(left+(width-d.pdf.GetStringWidth(enc))/2, y, enc)
}

func (d *drawer) header(plan *Plan, meta Metadata) {
	g := d.g

	drawn := false
	if meta.Emblem != nil {
		w := g.EmblemHeight / meta.Emblem.AspectRatio()
		drawn = d.image("emblem", meta.Emblem, g.EmblemX, g.EmblemY, w, g.EmblemHeight)
	}
	if !drawn {
		d.setFont(styleRegular, g.SignerLineFontSize)
		d.text(g.EmblemX, g.EmblemY+g.EmblemHeight/2, EmblemPlaceholder)
	}

	x0, bw := plan.HeaderX, g.HeaderBlockWidth
	y := g.HeaderTitleY
	d.setFont(styleBold, g.TitleFontSize)
	d.centered(x0, bw, y, d.head.Title1)
	y += g.TitleLineHeight
	d.centered(x0, bw, y, d.head.Title2)

	y += g.RuleGap
	d.pdf.SetLineWidth(0.6)
	d.pdf.Line(x0+bw*0.3, y, x0+bw*0.7, y)

	y += g.RuleGap + g.SignerLineFontSize
	d.setFont(styleItalic, g.SignerLineFontSize)
	d.centered(x0, bw, y, meta.SignerTitle)
}

func (d *drawer) labels(meta Metadata) {
	g := d.g
	values := [...]string{meta.Number, meta.ReferenceCode, meta.SectionCode}
	for i, label := range labelRows {
		y := baseline(g.LabelTop+float64(i)*g.LabelRowHeight, g.LabelRowHeight, g.LabelFontSize)
		d.setFont(styleBold, g.LabelFontSize)
		d.text(g.MarginLeft, y, label)
		d.setFont(styleRegular, g.LabelFontSize)
		d.text(g.MarginLeft+g.LabelWidth, y, values[i])
	}
}

func (d *drawer) qr(img *asset.Image) {
	if img == nil {
		return
	}
	g := d.g
	x := g.PageWidth - g.QRRight - g.QRSize
	if !d.image("qr", img, x, g.QRTop, g.QRSize, g.QRSize) {
		logger.Warn(d.ctx, "qr image could not be embedded", "key", img.Key)
	}
}

func (d *drawer) line(l Line) {
	d.setFont(l.Style, l.Size)
	y := baseline(l.Y, l.Height, l.Size)

	if l.Marker != "" {
		marker := Encode(l.Marker)
		d.pdf.Text(l.X-d.pdf.GetStringWidth(marker)-4, y, marker)
	}

	switch {
	case l.Center:
		d.centered(l.X, l.Width, y, l.Text())
	case l.Justify && len(l.Words) > 1:
		d.justified(l, y)
	default:
		d.text(l.X, y, l.Text())
	}
}

// justified spreads words so the line spans its full width.
func (d *drawer) justified(l Line, y float64) {
	encoded := make([]string, len(l.Words))
	total := 0.0
	for i, w := range l.Words {
		encoded[i] = Encode(w)
		total += d.pdf.GetStringWidth(encoded[i])
	}
	gap := (l.Width - total) / float64(len(encoded)-1)

	x := l.X
	for _, w := range encoded {
		d.pdf.Text(x, y, w)
		x += d.pdf.GetStringWidth(w) + gap
	}
}

func (d *drawer) signature(plan *Plan, meta Metadata) {
	g := d.g
	top := plan.Signature.Top
	left, width := g.MarginLeft, g.ContentWidth()

	d.setFont(styleRegular, g.BodyFontSize)
	d.centered(left, width, baseline(top, g.BodyLineHeight, g.BodyFontSize), meta.DateLine(d.head))
	d.setFont(styleItalic, g.BodyFontSize)
	d.centered(left, width, baseline(top+g.BodyLineHeight, g.BodyLineHeight, g.BodyFontSize), d.head.Motto)

	d.slot("seal", meta.Seal, plan.SealSlot, SealPlaceholder)
	d.slot("signature", meta.Signature, plan.SignSlot, SignaturePlaceholder)

	nameTop := top + g.SignerNameTop
	d.setFont(styleBold, g.BodyFontSize)
	d.centered(left, width, baseline(nameTop, g.BodyLineHeight, g.BodyFontSize), meta.SignerName)
	d.setFont(styleRegular, g.BodyFontSize)
	d.centered(left, width, baseline(nameTop+g.BodyLineHeight, g.BodyLineHeight, g.BodyFontSize), meta.SignerTitle)
}

// slot draws img fitted into r, or a labelled placeholder box.
func (d *drawer) slot(name string, img *asset.Image, r Rect, placeholder string) {
	if img != nil {
		h := r.H
		w := h / img.AspectRatio()
		if w > r.W {
			w = r.W
			h = w * img.AspectRatio()
		}
		x := r.X + (r.W-w)/2
		y := r.Y + (r.H-h)/2
		if d.image(name, img, x, y, w, h) {
			return
		}
	}

	d.pdf.SetDrawColor(160, 160, 160)
	d.pdf.SetLineWidth(0.5)
	d.pdf.SetDashPattern([]float64{3, 2}, 0)
	d.pdf.Rect(r.X, r.Y, r.W, r.H, "D")
	d.pdf.SetDashPattern([]float64{}, 0)
	d.pdf.SetDrawColor(0, 0, 0)

	d.setFont(styleRegular, d.g.LabelFontSize)
	d.centered(r.X, r.W, r.Y+r.H/2+d.g.LabelFontSize/3, placeholder)
}

// image registers and draws img. It reports false, with the PDF error
// cleared, when the bytes cannot be embedded.
func (d *drawer) image(name string, img *asset.Image, x, y, w, h float64) bool {
	opts := gofpdf.ImageOptions{ImageType: img.Type}
	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
	if d.pdf.Err() {
		logger.Warn(d.ctx, "image could not be embedded, drawing placeholder",
			"slot", name,
			"key", img.Key,
			"error", d.pdf.Error(),
		)
		d.pdf.ClearError()
		return false
	}
	d.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	return true
}

func (d *drawer) footer(r Region, meta Metadata) {
	g := d.g
	d.pdf.SetLineWidth(0.5)
	d.pdf.Line(g.MarginLeft, r.Top, g.PageWidth-g.MarginRight, r.Top)

	d.setFont(styleRegular, g.FooterFontSize)
	y := r.Top + g.FooterRuleGap
	for _, line := range meta.RecipientLines() {
		d.text(g.MarginLeft, baseline(y, g.FooterLineHeight, g.FooterFontSize), line)
		y += g.FooterLineHeight
	}
}

// PageLabel returns "Página X de N".
func PageLabel(page, total int) string {
	return fmt.Sprintf("Página %d de %d", page, total)
}

func (d *drawer) pageNumber(page, total int) {
	d.setFont(styleRegular, d.g.FooterFontSize)
	d.centered(0, d.g.PageWidth, d.g.PageNumberY, PageLabel(page, total))
}
