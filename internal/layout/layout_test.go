package layout

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govdoc/internal/asset"
	"govdoc/internal/content"
)

var issueDate = time.Date(2028, time.March, 14, 10, 0, 0, 0, time.UTC)

func testEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig(), opts...)
	require.NoError(t, err)
	return e
}

func testMeta() Metadata {
	return Metadata{
		Title:            "Informe de gestión",
		Number:           "001-MT-038-051",
		ReferenceCode:    "REF-7",
		SectionCode:      "DGA",
		SignerName:       "Juan Pérez",
		SignerTitle:      "Director General",
		Date:             issueDate,
		PrimaryRecipient: "Ministra de Trabajo",
	}
}

func pngImage(t *testing.T) *asset.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	img.Set(2, 2, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &asset.Image{Key: "k", Type: "PNG", Data: buf.Bytes(), Width: 20, Height: 10}
}

func lorem(words int) string {
	base := strings.Fields("el ministerio resuelve aprobar el informe técnico presentado por la dirección de planificación conforme a la normativa vigente")
	out := make([]string, words)
	for i := range out {
		out[i] = base[i%len(base)]
	}
	return strings.Join(out, " ")
}

// runeWidth measures one unit per rune.
func runeWidth(s string) float64 {
	return float64(len([]rune(s)))
}

func TestWrap(t *testing.T) {
	lines := wrap("aa bb cc", 5, runeWidth)
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"aa", "bb"}, lines[0].Words)
	assert.False(t, lines[0].Last)
	assert.Equal(t, []string{"cc"}, lines[1].Words)
	assert.True(t, lines[1].Last)
}

func TestWrap_HardBreaks(t *testing.T) {
	lines := wrap("uno\ndos tres", 100, runeWidth)
	require.Len(t, lines, 2)
	assert.True(t, lines[0].Last)
	assert.Equal(t, "dos tres", lines[1].String())
}

func TestWrap_NoBreakSpaceJoinsWords(t *testing.T) {
	lines := wrap("ver Art.\u00a05", 6, runeWidth)
	require.Len(t, lines, 2)
	assert.Equal(t, "ver", lines[0].String())
	assert.Equal(t, []string{"Art.\u00a05"}, lines[1].Words)
}

func TestWrap_SplitsOverlongWord(t *testing.T) {
	lines := wrap("x abcdefgh", 3, runeWidth)
	var got []string
	for _, l := range lines {
		got = append(got, l.String())
	}
	assert.Equal(t, []string{"x", "abc", "def", "gh"}, got)
}

func TestEncode(t *testing.T) {
	assert.Equal(t, "P\xe1gina \xf1 \x80", Encode("Página ñ €"))
	assert.Equal(t, "a?b", Encode("a漢b"))
	assert.Equal(t, "\x95", Encode("•"))
}

func TestLongDate(t *testing.T) {
	assert.Equal(t, "14 de marzo de 2028", LongDate(issueDate))
	assert.Equal(t, "1 de diciembre de 2025", LongDate(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)))
	assert.Empty(t, LongDate(time.Time{}))
}

func TestPageLabel(t *testing.T) {
	assert.Equal(t, "Página 2 de 5", PageLabel(2, 5))
}

func TestHeaderOrigin_FirstTitleStartsAtMargin(t *testing.T) {
	e := testEngine(t)
	g := e.Geometry()
	plan := e.Plan(testMeta(), nil)

	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetFont(g.FontFamily, "B", g.TitleFontSize)
	w := pdf.GetStringWidth(Encode(DefaultLetterhead().Title1))

	assert.InDelta(t, g.HeaderOrigin(w), plan.HeaderX, 1e-9)
	assert.InDelta(t, g.MarginLeft, plan.HeaderX+(g.HeaderBlockWidth-w)/2, 1e-9)
	assert.InDelta(t, -28.0, g.HeaderOrigin(100), 1e-9)
}

func TestPlan_EmptyBodyStillHasSignatureAndFooter(t *testing.T) {
	e := testEngine(t)
	plan := e.Plan(Metadata{}, nil)
	assert.Equal(t, 1, plan.Pages)
	assert.Empty(t, plan.Lines)
	assert.Equal(t, 1, plan.Signature.Page)
	assert.Equal(t, 1, plan.Footer.Page)
}

func TestPlan_LongBodySpansPagesWithoutLosingText(t *testing.T) {
	e := testEngine(t)
	g := e.Geometry()

	var blocks []content.Block
	for i := 0; i < 30; i++ {
		blocks = append(blocks, content.Paragraph(lorem(40+i)))
	}
	plan := e.Plan(testMeta(), blocks)
	require.GreaterOrEqual(t, plan.Pages, 2)

	fullPage := g.BodyBottom() - g.MarginTop
	for i, b := range blocks {
		var words []string
		pages := map[int]bool{}
		height := 0.0
		for _, l := range plan.Lines {
			if l.Block != i {
				continue
			}
			words = append(words, l.Words...)
			pages[l.Page] = true
			height += l.Height
			assert.LessOrEqual(t, l.Y+l.Height, g.BodyBottom()+1e-9)
		}
		assert.Equal(t, strings.Fields(b.Text), words, "block %d", i)
		if height <= fullPage {
			assert.Len(t, pages, 1, "block %d split across pages", i)
		}
	}
}

func TestPlan_OversizedBlockFlowsFromCurrentPage(t *testing.T) {
	e := testEngine(t)
	blocks := []content.Block{content.Paragraph(lorem(2500))}
	plan := e.Plan(Metadata{}, blocks)

	require.NotEmpty(t, plan.Lines)
	assert.Equal(t, 1, plan.Lines[0].Page)
	assert.GreaterOrEqual(t, plan.Lines[len(plan.Lines)-1].Page, 3)

	var words []string
	for _, l := range plan.Lines {
		words = append(words, l.Words...)
	}
	assert.Equal(t, strings.Fields(blocks[0].Text), words)
}

func TestPlan_SignatureNeverOverlapsBody(t *testing.T) {
	e := testEngine(t)
	g := e.Geometry()
	meta := testMeta()

	for n := 0; n < 25; n++ {
		var blocks []content.Block
		for i := 0; i < n; i++ {
			blocks = append(blocks, content.Paragraph(lorem(35)))
		}
		plan := e.Plan(meta, blocks)

		assert.Equal(t, plan.Pages, plan.Signature.Page)
		bottom := plan.Signature.Top + g.SignatureHeight + footerHeight(g, meta)
		assert.LessOrEqual(t, bottom, g.BodyBottom()+1e-9, "n=%d", n)
		for _, l := range plan.LinesOn(plan.Signature.Page) {
			assert.LessOrEqual(t, l.Y+l.Height, plan.Signature.Top+1e-9, "n=%d", n)
		}
	}
}

func TestPlan_ListMarkersRestartPerList(t *testing.T) {
	e := testEngine(t)
	plan := e.Plan(Metadata{}, []content.Block{
		content.List(true, "a", "b"),
		content.List(true, "c"),
		content.List(false, "d"),
	})

	var markers []string
	for _, l := range plan.Lines {
		markers = append(markers, l.Marker)
	}
	assert.Equal(t, []string{"1.", "2.", "1.", "•"}, markers)
}

func TestPlan_ParagraphLastLineNotJustified(t *testing.T) {
	e := testEngine(t)
	plan := e.Plan(Metadata{}, []content.Block{content.Paragraph(lorem(80))})
	require.Greater(t, len(plan.Lines), 1)
	for _, l := range plan.Lines[:len(plan.Lines)-1] {
		assert.True(t, l.Justify)
	}
	assert.False(t, plan.Lines[len(plan.Lines)-1].Justify)
}

func TestPlan_HeadingsAreBoldAndSizedByLevel(t *testing.T) {
	e := testEngine(t)
	g := e.Geometry()
	plan := e.Plan(Metadata{}, []content.Block{
		content.Heading(1, "Uno"),
		content.Heading(3, "Tres"),
	})
	require.Len(t, plan.Lines, 2)
	assert.Equal(t, styleBold, plan.Lines[0].Style)
	assert.Equal(t, g.HeadingFontSize(1), plan.Lines[0].Size)
	assert.Equal(t, g.HeadingFontSize(3), plan.Lines[1].Size)
	assert.False(t, plan.Lines[0].Justify)
}

func TestRender_ZeroBlocks(t *testing.T) {
	e := testEngine(t)
	out, err := e.Render(context.Background(), Metadata{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, out.PageCount)
	assert.True(t, bytes.HasPrefix(out.Bytes, []byte("%PDF-")))
	assert.Equal(t, PageSize{Width: 612, Height: 792}, out.PageSize)
}

func TestRender_UnavailableSealDrawsPlaceholder(t *testing.T) {
	e := testEngine(t, WithCompression(false))
	meta := testMeta()
	meta.Signature = pngImage(t)

	out, err := e.Render(context.Background(), meta, []content.Block{content.Paragraph("Texto.")})
	require.NoError(t, err)
	assert.Contains(t, string(out.Bytes), SealPlaceholder)
	assert.NotContains(t, string(out.Bytes), SignaturePlaceholder)
	assert.Equal(t, "001-MT-038-051", out.Number)
}

func TestRender_CorruptImageDegradesToPlaceholder(t *testing.T) {
	e := testEngine(t, WithCompression(false))
	meta := testMeta()
	meta.Seal = &asset.Image{Key: "bad", Type: "PNG", Data: []byte("not a png")}
	meta.Emblem = &asset.Image{Key: "bad-emblem", Type: "PNG", Data: []byte("nope"), Width: 1, Height: 1}
	meta.QR = &asset.Image{Key: "bad-qr", Type: "PNG", Data: []byte("nope")}

	out, err := e.Render(context.Background(), meta, nil)
	require.NoError(t, err)
	assert.Contains(t, string(out.Bytes), SealPlaceholder)
	assert.Contains(t, string(out.Bytes), EmblemPlaceholder)
}

func TestRender_EmblemPlaceholder(t *testing.T) {
	e := testEngine(t, WithCompression(false))

	out, err := e.Render(context.Background(), testMeta(), nil)
	require.NoError(t, err)
	assert.Contains(t, string(out.Bytes), EmblemPlaceholder, "missing emblem")

	meta := testMeta()
	meta.Emblem = pngImage(t)
	out, err = e.Render(context.Background(), meta, nil)
	require.NoError(t, err)
	assert.NotContains(t, string(out.Bytes), EmblemPlaceholder)
}

func TestRender_PageNumbersOnEveryPage(t *testing.T) {
	e := testEngine(t, WithCompression(false))
	var blocks []content.Block
	for i := 0; i < 20; i++ {
		blocks = append(blocks, content.Paragraph(lorem(60)))
	}

	out, err := e.Render(context.Background(), testMeta(), blocks)
	require.NoError(t, err)
	require.GreaterOrEqual(t, out.PageCount, 2)
	for page := 1; page <= out.PageCount; page++ {
		assert.Contains(t, string(out.Bytes), Encode(PageLabel(page, out.PageCount)))
	}
}

func TestRender_FooterPlaceholderWithoutRecipients(t *testing.T) {
	e := testEngine(t, WithCompression(false))
	out, err := e.Render(context.Background(), Metadata{}, nil)
	require.NoError(t, err)
	assert.Contains(t, string(out.Bytes), noRecipients)
}

func TestRender_GeneratesQRFromVerificationURL(t *testing.T) {
	e := testEngine(t)
	meta := testMeta()
	meta.VerificationURL = "https://example.org/verify/001-MT-038-051"

	with, err := e.Render(context.Background(), meta, nil)
	require.NoError(t, err)
	without, err := e.Render(context.Background(), testMeta(), nil)
	require.NoError(t, err)
	assert.Greater(t, len(with.Bytes), len(without.Bytes))
}

func TestQRImage(t *testing.T) {
	img, err := QRImage("001-MT-038-051")
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(img.Data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, qrPixels, cfg.Width)
	assert.Equal(t, color.GrayModel, cfg.ColorModel)

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.AddPage()
	pdf.RegisterImageOptionsReader("qr", gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(img.Data))
	require.NoError(t, pdf.Error())
}

func TestParseConfig_Overrides(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
[geometry]
margin_left = 90
heading_font_sizes = [16.0, 14.0, 12.0]

[letterhead]
title1 = "REPÚBLICA DEL ECUADOR"
motto = "Juntos"
`))
	require.NoError(t, err)
	assert.Equal(t, 90.0, cfg.Geometry.MarginLeft)
	assert.Equal(t, 72.0, cfg.Geometry.MarginRight)
	assert.Equal(t, 16.0, cfg.Geometry.HeadingFontSize(1))
	assert.Equal(t, "REPÚBLICA DEL ECUADOR", cfg.Letterhead.Title1)
	assert.Equal(t, "Juntos", cfg.Letterhead.Motto)
	assert.Equal(t, "Quito", cfg.Letterhead.City)
}

func TestParseConfig_RejectsInvalidGeometry(t *testing.T) {
	_, err := ParseConfig([]byte("[geometry]\npage_width = 0\n"))
	assert.Error(t, err)

	_, err = ParseConfig([]byte("not toml = ["))
	assert.Error(t, err)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir() + "/absent.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestMetadata_DateLine(t *testing.T) {
	head := DefaultLetterhead()
	assert.Equal(t, "Quito, 14 de marzo de 2028", Metadata{Date: issueDate}.DateLine(head))
	assert.Equal(t, "Cuenca, 14 de marzo de 2028", Metadata{City: "Cuenca", Date: issueDate}.DateLine(head))
	assert.Equal(t, "Quito", Metadata{}.DateLine(head))
}

func TestMetadata_RecipientLines(t *testing.T) {
	assert.Equal(t, []string{noRecipients}, Metadata{}.RecipientLines())
	assert.Equal(t,
		[]string{"Para: A", "c.c.: B"},
		Metadata{PrimaryRecipient: "A", SecondaryRecipients: []string{"B", " "}}.RecipientLines(),
	)
}
