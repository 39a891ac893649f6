package content

import (
	"strings"

	"golang.org/x/net/html"
)

// Parse turns a stored body into blocks. Input containing markup tags goes
// through the tag state machine; anything else through the plain-text
// heuristics. Output is deterministic for identical input.
func Parse(markup string) []Block {
	if !hasMarkup(markup) {
		return parsePlain(markup)
	}
	p := newMarkupParser()
	p.run(markup)
	return p.blocks
}

// hasMarkup reports whether the tokenizer sees at least one element tag.
func hasMarkup(s string) bool {
	if !strings.ContainsRune(s, '<') {
		return false
	}
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			return true
		}
	}
}

// state is the block the parser is currently collecting.
type state int

const (
	stateIdle state = iota
	stateParagraph
	stateHeading
	stateList
	stateListItem
)

// markupParser is an explicit state machine over the html tokenizer.
// Nested lists flatten into their outermost list.
type markupParser struct {
	blocks []Block

	state        state
	text         strings.Builder
	headingLevel int

	list      *Block
	listDepth int
	item      strings.Builder

	// skipDepth > 0 while inside script, style, head and similar.
	skipDepth int
}

func newMarkupParser() *markupParser {
	return &markupParser{}
}

// Tags whose content never reaches the document.
var skippedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"head":     true,
	"title":    true,
	"template": true,
	"noscript": true,
}

// Unrecognised containers that still separate paragraphs.
var paragraphTags = map[string]bool{
	"p":          true,
	"div":        true,
	"section":    true,
	"article":    true,
	"blockquote": true,
}

// Unrecognised tags whose boundaries must not glue words together.
var spacingTags = map[string]bool{
	"td": true,
	"th": true,
	"tr": true,
}

func (p *markupParser) run(markup string) {
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or a malformed tail; keep what was collected.
			p.flushAll()
			return

		case html.TextToken:
			if p.skipDepth == 0 {
				p.onText(string(z.Text()))
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skippedTags[tag] {
				if tt == html.StartTagToken {
					p.skipDepth++
				}
				continue
			}
			if p.skipDepth == 0 {
				p.onStart(tag)
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skippedTags[tag] {
				if p.skipDepth > 0 {
					p.skipDepth--
				}
				continue
			}
			if p.skipDepth == 0 {
				p.onEnd(tag)
			}
		}
	}
}

func (p *markupParser) onText(s string) {
	switch p.state {
	case stateListItem:
		p.item.WriteString(s)
	case stateList:
		// Text between items opens an implicit item.
		if strings.TrimSpace(s) == "" {
			return
		}
		p.state = stateListItem
		p.item.WriteString(s)
	case stateIdle:
		if strings.TrimSpace(s) == "" {
			return
		}
		p.state = stateParagraph
		p.text.WriteString(s)
	default:
		p.text.WriteString(s)
	}
}

func (p *markupParser) onStart(tag string) {
	switch {
	case tag == "br":
		p.writeInline(string(lineBreak))

	case tag == "ul" || tag == "ol":
		if p.listDepth > 0 {
			p.flushItem()
			p.listDepth++
			p.state = stateList
			return
		}
		p.flushText()
		p.list = &Block{Kind: KindList, Ordered: tag == "ol"}
		p.listDepth = 1
		p.state = stateList

	case tag == "li":
		if p.listDepth == 0 {
			p.flushText()
			p.list = &Block{Kind: KindList}
			p.listDepth = 1
		}
		p.flushItem()
		p.state = stateListItem

	case isHeadingTag(tag):
		if p.inList() {
			p.writeInline(" ")
			return
		}
		p.flushText()
		p.state = stateHeading
		p.headingLevel = clampLevel(int(tag[1] - '0'))

	case paragraphTags[tag]:
		if p.inList() {
			p.writeInline(" ")
			return
		}
		p.flushText()
		p.state = stateParagraph

	case spacingTags[tag]:
		p.writeInline(" ")
	}
}

func (p *markupParser) onEnd(tag string) {
	switch {
	case tag == "ul" || tag == "ol":
		if p.listDepth == 0 {
			return
		}
		p.flushItem()
		p.listDepth--
		if p.listDepth == 0 {
			p.flushList()
		} else {
			p.state = stateList
		}

	case tag == "li":
		if p.listDepth > 0 {
			p.flushItem()
			p.state = stateList
		}

	case isHeadingTag(tag), paragraphTags[tag]:
		if p.inList() {
			p.writeInline(" ")
			return
		}
		p.flushText()

	case spacingTags[tag]:
		p.writeInline(" ")
	}
}

func (p *markupParser) inList() bool {
	return p.listDepth > 0
}

// writeInline appends to whichever buffer is active.
func (p *markupParser) writeInline(s string) {
	switch p.state {
	case stateListItem:
		p.item.WriteString(s)
	case stateList:
		// Separators between items carry no text.
	default:
		p.text.WriteString(s)
	}
}

// flushText closes the open paragraph or heading.
func (p *markupParser) flushText() {
	text := normalize(p.text.String())
	p.text.Reset()
	if text != "" {
		switch p.state {
		case stateHeading:
			p.blocks = append(p.blocks, Heading(p.headingLevel, text))
		default:
			p.blocks = append(p.blocks, Paragraph(text))
		}
	}
	p.state = stateIdle
}

// flushItem closes the open list item.
func (p *markupParser) flushItem() {
	text := normalize(p.item.String())
	p.item.Reset()
	if text != "" && p.list != nil {
		p.list.Items = append(p.list.Items, text)
	}
}

// flushList closes the open list; lists without items are dropped.
func (p *markupParser) flushList() {
	if p.list != nil && len(p.list.Items) > 0 {
		p.blocks = append(p.blocks, *p.list)
	}
	p.list = nil
	p.listDepth = 0
	p.state = stateIdle
}

func (p *markupParser) flushAll() {
	if p.listDepth > 0 {
		p.flushItem()
		p.flushList()
	}
	p.flushText()
}

func isHeadingTag(tag string) bool {
	return len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6'
}
