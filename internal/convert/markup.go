// Package convert produces alternate output formats. The markup renderer
// emits a self-contained HTML document with the same header, body, signature
// and footer as the PDF layout; an external program turns it into an
// editable format.
package convert

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"govdoc/internal/asset"
	"govdoc/internal/content"
	"govdoc/internal/layout"
)

// MarkupRenderer emits HTML whose fonts, spacing and alignment follow the
// layout geometry.
type MarkupRenderer struct {
	geom layout.Geometry
	head layout.Letterhead
}

// NewMarkupRenderer creates a renderer for cfg.
func NewMarkupRenderer(cfg layout.Config) *MarkupRenderer {
	return &MarkupRenderer{geom: cfg.Geometry, head: cfg.Letterhead}
}

// Render returns the HTML document for meta and blocks.
func (r *MarkupRenderer) Render(meta layout.Metadata, blocks []content.Block) ([]byte, error) {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := el(atom.Html, attr("lang", "es"))
	doc.AppendChild(root)
	root.AppendChild(r.headNode(meta))

	body := el(atom.Body, nil)
	root.AppendChild(body)
	body.AppendChild(r.header(meta))
	body.AppendChild(r.labels(meta))

	main := el(atom.Main, nil)
	if meta.Title != "" {
		main.AppendChild(el(atom.P, attr("class", "subject"), text(meta.Title)))
	}
	for _, b := range blocks {
		if n := blockNode(b); n != nil {
			main.AppendChild(n)
		}
	}
	body.AppendChild(main)

	body.AppendChild(r.signature(meta))
	body.AppendChild(footer(meta))

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("render markup: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *MarkupRenderer) headNode(meta layout.Metadata) *html.Node {
	head := el(atom.Head, nil,
		el(atom.Meta, attr("charset", "utf-8")),
	)
	if meta.Title != "" {
		head.AppendChild(el(atom.Title, nil, text(meta.Title)))
	}
	head.AppendChild(el(atom.Style, nil, text(r.stylesheet())))
	return head
}

// stylesheet mirrors the PDF geometry in CSS points.
func (r *MarkupRenderer) stylesheet() string {
	g := r.geom
	family := cssFontFamily(g.FontFamily)

	var b strings.Builder
	fmt.Fprintf(&b, "@page{size:%gpt %gpt;margin:%gpt %gpt %gpt %gpt}", g.PageWidth, g.PageHeight, g.MarginTop, g.MarginRight, g.MarginBottom, g.MarginLeft)
	fmt.Fprintf(&b, "body{font-family:%s;font-size:%gpt;line-height:%gpt;margin:0}", family, g.BodyFontSize, g.BodyLineHeight)
	fmt.Fprintf(&b, "header{width:%gpt;margin-left:%gpt;text-align:center}", g.HeaderBlockWidth, -(g.HeaderBlockWidth-g.ContentWidth())/2)
	fmt.Fprintf(&b, "header .title{font-weight:bold;font-size:%gpt;line-height:%gpt;margin:0}", g.TitleFontSize, g.TitleLineHeight)
	fmt.Fprintf(&b, "header hr{width:40%%;margin:%gpt auto}", g.RuleGap)
	fmt.Fprintf(&b, "header .signer{font-style:italic;font-size:%gpt;margin:0}", g.SignerLineFontSize)
	fmt.Fprintf(&b, "header .emblem{text-align:left;font-size:%gpt;line-height:%gpt;margin:0}", g.SignerLineFontSize, g.EmblemHeight)
	fmt.Fprintf(&b, ".qr{position:absolute;top:%gpt;right:%gpt;width:%gpt}", g.QRTop, g.QRRight, g.QRSize)
	fmt.Fprintf(&b, "table.labels{font-size:%gpt;border-collapse:collapse}table.labels th{text-align:left;width:%gpt}", g.LabelFontSize, g.LabelWidth)
	fmt.Fprintf(&b, "p{text-align:justify;margin:0 0 %gpt 0}", g.BlockSpacing)
	fmt.Fprintf(&b, "p.subject{text-align:center;font-weight:bold}")
	for level := 1; level <= content.MaxHeadingLevel; level++ {
		fmt.Fprintf(&b, "h%d{font-size:%gpt;text-align:left;margin:0 0 %gpt 0}", level, g.HeadingFontSize(level), g.BlockSpacing)
	}
	fmt.Fprintf(&b, "ul,ol{margin:0 0 %gpt 0;padding-left:%gpt}li{text-align:justify}", g.BlockSpacing, g.ListIndent)
	fmt.Fprintf(&b, ".signature{text-align:center;margin-top:%gpt;page-break-inside:avoid}", g.SignatureGap)
	fmt.Fprintf(&b, ".slot{display:inline-block;width:%gpt;height:%gpt;margin:0 %gpt;vertical-align:middle}", g.SlotWidth, g.SlotHeight, g.SlotCenterGap)
	fmt.Fprintf(&b, ".slot img{max-width:100%%;max-height:100%%}.placeholder{border:1px dashed #a0a0a0;line-height:%gpt}", g.SlotHeight)
	fmt.Fprintf(&b, "footer{border-top:0.5pt solid #000;font-size:%gpt;line-height:%gpt;padding-top:%gpt}", g.FooterFontSize, g.FooterLineHeight, g.FooterRuleGap)
	return b.String()
}

func cssFontFamily(family string) string {
	switch strings.ToLower(family) {
	case "times":
		return `"Times New Roman",Times,serif`
	case "helvetica", "arial":
		return `Helvetica,Arial,sans-serif`
	case "courier":
		return `"Courier New",Courier,monospace`
	default:
		return fmt.Sprintf("%q,serif", family)
	}
}

func (r *MarkupRenderer) header(meta layout.Metadata) *html.Node {
	h := el(atom.Header, nil)
	if img := imageNode(meta.Emblem, "emblem", ""); img != nil {
		h.AppendChild(img)
	} else {
		h.AppendChild(el(atom.P, attr("class", "emblem placeholder"), text(layout.EmblemPlaceholder)))
	}
	h.AppendChild(el(atom.P, attr("class", "title"), text(r.head.Title1)))
	h.AppendChild(el(atom.P, attr("class", "title"), text(r.head.Title2)))
	h.AppendChild(el(atom.Hr, nil))
	h.AppendChild(el(atom.P, attr("class", "signer"), text(meta.SignerTitle)))

	qr := meta.QR
	if qr == nil && meta.VerificationURL != "" {
		qr, _ = layout.QRImage(meta.VerificationURL)
	}
	if img := imageNode(qr, "qr", "qr"); img != nil {
		h.AppendChild(img)
	}
	return h
}

func (r *MarkupRenderer) labels(meta layout.Metadata) *html.Node {
	rows := []struct{ label, value string }{
		{"Número:", meta.Number},
		{"Referencia:", meta.ReferenceCode},
		{"Sección:", meta.SectionCode},
	}
	table := el(atom.Table, attr("class", "labels"))
	for _, row := range rows {
		table.AppendChild(el(atom.Tr, nil,
			el(atom.Th, nil, text(row.label)),
			el(atom.Td, nil, text(row.value)),
		))
	}
	return table
}

func (r *MarkupRenderer) signature(meta layout.Metadata) *html.Node {
	s := el(atom.Section, attr("class", "signature"))
	s.AppendChild(el(atom.P, nil, text(meta.DateLine(r.head))))
	if r.head.Motto != "" {
		s.AppendChild(el(atom.P, nil, el(atom.Em, nil, text(r.head.Motto))))
	}

	slots := el(atom.Div, nil)
	slots.AppendChild(slotNode(meta.Seal, "seal", layout.SealPlaceholder))
	slots.AppendChild(slotNode(meta.Signature, "signature", layout.SignaturePlaceholder))
	s.AppendChild(slots)

	s.AppendChild(el(atom.P, nil, el(atom.Strong, nil, text(meta.SignerName))))
	s.AppendChild(el(atom.P, nil, text(meta.SignerTitle)))
	return s
}

func footer(meta layout.Metadata) *html.Node {
	f := el(atom.Footer, nil)
	for _, l := range meta.RecipientLines() {
		f.AppendChild(el(atom.Div, nil, text(l)))
	}
	return f
}

// blockNode converts one content block; empty blocks yield nil.
func blockNode(b content.Block) *html.Node {
	switch b.Kind {
	case content.KindHeading:
		if b.Text == "" {
			return nil
		}
		tag := [...]atom.Atom{atom.H1, atom.H2, atom.H3}[max(1, min(b.Level, content.MaxHeadingLevel))-1]
		return withBreaks(el(tag, nil), b.Text)
	case content.KindList:
		if len(b.Items) == 0 {
			return nil
		}
		tag := atom.Ul
		if b.Ordered {
			tag = atom.Ol
		}
		list := el(tag, nil)
		for _, item := range b.Items {
			list.AppendChild(withBreaks(el(atom.Li, nil), item))
		}
		return list
	default:
		if b.Text == "" {
			return nil
		}
		return withBreaks(el(atom.P, nil), b.Text)
	}
}

// withBreaks appends text to n, turning "\n" into <br>.
func withBreaks(n *html.Node, s string) *html.Node {
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			n.AppendChild(el(atom.Br, nil))
		}
		n.AppendChild(text(line))
	}
	return n
}

func slotNode(img *asset.Image, name, placeholder string) *html.Node {
	if n := imageNode(img, name, ""); n != nil {
		return el(atom.Span, attr("class", "slot"), n)
	}
	return el(atom.Span, attr("class", "slot placeholder"), text(placeholder))
}

// imageNode embeds img as a data URI.
func imageNode(img *asset.Image, alt, class string) *html.Node {
	if img == nil || len(img.Data) == 0 {
		return nil
	}
	attrs := []html.Attribute{
		{Key: "src", Val: "data:" + asset.MediaType(img.Type) + ";base64," + base64.StdEncoding.EncodeToString(img.Data)},
		{Key: "alt", Val: alt},
	}
	if class != "" {
		attrs = append(attrs, html.Attribute{Key: "class", Val: class})
	}
	return el(atom.Img, attrs)
}

func el(a atom.Atom, attrs []html.Attribute, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func attr(key, val string) []html.Attribute {
	return []html.Attribute{{Key: key, Val: val}}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
