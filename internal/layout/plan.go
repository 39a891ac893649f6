package layout

import (
	"github.com/phpdave11/gofpdf"

	"govdoc/internal/content"
)

// Font styles understood by the core fonts.
const (
	styleRegular = ""
	styleBold    = "B"
	styleItalic  = "I"
)

// Line is one placed body line.
type Line struct {
	Page int
	// Block is the index of the source block, -1 for the subject line.
	Block  int
	X, Y   float64
	Width  float64
	Height float64
	Size   float64
	Style  string
	Words  []string
	// Justify spreads the words over Width.
	Justify bool
	// Center centers the text in Width.
	Center bool
	// Marker is the list bullet or ordinal printed left of X.
	Marker string
}

// Text returns the line's words joined by single spaces.
func (l Line) Text() string {
	return textLine{Words: l.Words}.String()
}

// Rect is an axis-aligned box.
type Rect struct {
	X, Y, W, H float64
}

// Region anchors a fixed block on a page.
type Region struct {
	Page int
	Top  float64
}

// Plan is the complete page plan of one document.
type Plan struct {
	Pages int
	// HeaderX is the derived left edge of the centered header block.
	HeaderX   float64
	Lines     []Line
	Signature Region
	SealSlot  Rect
	SignSlot  Rect
	Footer    Region
}

// LinesOn returns the body lines placed on page.
func (p *Plan) LinesOn(page int) []Line {
	var out []Line
	for _, l := range p.Lines {
		if l.Page == page {
			out = append(out, l)
		}
	}
	return out
}

// planner assigns every body line a page and a y coordinate.
type planner struct {
	g    Geometry
	pdf  *gofpdf.Fpdf
	page int
	y    float64
	plan *Plan
}

func (p *planner) measure(family, style string, size float64) measureFunc {
	return func(s string) float64 {
		p.pdf.SetFont(family, style, size)
		return p.pdf.GetStringWidth(Encode(s))
	}
}

func (p *planner) newPage() {
	p.page++
	p.y = p.g.MarginTop
}

// place puts a block's lines on the current page, breaking before the block
// when it does not fit but would fit on a fresh page. Blocks taller than a
// whole body page flow line by line.
func (p *planner) place(lines []Line) {
	if len(lines) == 0 {
		return
	}
	height := 0.0
	for _, l := range lines {
		height += l.Height
	}

	bottom := p.g.BodyBottom()
	fullPage := bottom - p.g.MarginTop
	if p.y+height > bottom && height <= fullPage && p.y > p.g.MarginTop {
		p.newPage()
	}

	for _, l := range lines {
		if p.y+l.Height > bottom && p.y > p.g.MarginTop {
			p.newPage()
		}
		l.Page, l.Y = p.page, p.y
		p.plan.Lines = append(p.plan.Lines, l)
		p.y += l.Height
	}
	p.y += p.g.BlockSpacing
}

// blockLines wraps one block into unplaced lines.
func (p *planner) blockLines(index int, b content.Block) []Line {
	g := p.g
	family := g.FontFamily
	width := g.ContentWidth()

	switch b.Kind {
	case content.KindHeading:
		size := g.HeadingFontSize(b.Level)
		height := size * 1.35
		var out []Line
		for _, tl := range wrap(b.Text, width, p.measure(family, styleBold, size)) {
			out = append(out, Line{
				Block: index, X: g.MarginLeft, Width: width, Height: height,
				Size: size, Style: styleBold, Words: tl.Words,
			})
		}
		return out

	case content.KindList:
		itemWidth := width - g.ListIndent
		measure := p.measure(family, styleRegular, g.BodyFontSize)
		var out []Line
		for i, item := range b.Items {
			for j, tl := range wrap(item, itemWidth, measure) {
				l := Line{
					Block: index, X: g.MarginLeft + g.ListIndent, Width: itemWidth,
					Height: g.BodyLineHeight, Size: g.BodyFontSize, Style: styleRegular,
					Words: tl.Words, Justify: !tl.Last,
				}
				if j == 0 {
					l.Marker = content.Marker(b.Ordered, i)
				}
				out = append(out, l)
			}
		}
		return out

	default:
		var out []Line
		for _, tl := range wrap(b.Text, width, p.measure(family, styleRegular, g.BodyFontSize)) {
			out = append(out, Line{
				Block: index, X: g.MarginLeft, Width: width, Height: g.BodyLineHeight,
				Size: g.BodyFontSize, Style: styleRegular, Words: tl.Words, Justify: !tl.Last,
			})
		}
		return out
	}
}

// subjectLines wraps the document title, centered and bold, ahead of the body.
func (p *planner) subjectLines(title string) []Line {
	g := p.g
	size := g.BodyFontSize + 1
	var out []Line
	for _, tl := range wrap(title, g.ContentWidth(), p.measure(g.FontFamily, styleBold, size)) {
		out = append(out, Line{
			Block: -1, X: g.MarginLeft, Width: g.ContentWidth(), Height: g.BodyLineHeight,
			Size: size, Style: styleBold, Words: tl.Words, Center: true,
		})
	}
	return out
}

// footerHeight is the height of the rule plus recipient lines.
func footerHeight(g Geometry, meta Metadata) float64 {
	return g.FooterRuleGap + float64(len(meta.RecipientLines()))*g.FooterLineHeight
}

// buildPlan lays out the whole document. pdf is used for measuring only.
func buildPlan(g Geometry, head Letterhead, pdf *gofpdf.Fpdf, meta Metadata, blocks []content.Block) *Plan {
	plan := &Plan{}

	pdf.SetFont(g.FontFamily, styleBold, g.TitleFontSize)
	plan.HeaderX = g.HeaderOrigin(pdf.GetStringWidth(Encode(head.Title1)))

	p := &planner{g: g, pdf: pdf, page: 1, y: g.BodyTop, plan: plan}

	if meta.Title != "" {
		p.place(p.subjectLines(meta.Title))
	}
	for i, b := range blocks {
		p.place(p.blockLines(i, b))
	}

	// Signature and footer stay together on the last page.
	reserve := g.SignatureGap + g.SignatureHeight + footerHeight(g, meta)
	if p.y+reserve > g.BodyBottom() {
		p.newPage()
	} else {
		p.y += g.SignatureGap
	}
	plan.Signature = Region{Page: p.page, Top: p.y}
	plan.Footer = Region{Page: p.page, Top: p.y + g.SignatureHeight}

	imageTop := p.y + g.SignatureImageTop
	center := g.PageWidth / 2
	plan.SealSlot = Rect{X: center - g.SlotCenterGap - g.SlotWidth, Y: imageTop, W: g.SlotWidth, H: g.SlotHeight}
	plan.SignSlot = Rect{X: center + g.SlotCenterGap, Y: imageTop, W: g.SlotWidth, H: g.SlotHeight}

	plan.Pages = p.page
	return plan
}
