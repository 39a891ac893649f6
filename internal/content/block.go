// Package content turns stored document bodies into an ordered sequence of
// typed blocks (paragraphs, headings, lists) shared by the PDF layout engine
// and the markup renderer used for conversion.
package content

import (
	"strconv"
	"strings"
)

// Kind tags the variant held by a Block.
type Kind int

const (
	KindParagraph Kind = iota
	KindHeading
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindHeading:
		return "heading"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// MaxHeadingLevel is the deepest heading level; deeper markup is clamped.
const MaxHeadingLevel = 3

// Block is one structural unit of body text. Only the fields of its Kind are
// meaningful. Text may contain "\n" for explicit line breaks.
type Block struct {
	Kind    Kind     `json:"kind"`
	Text    string   `json:"text,omitempty"`
	Level   int      `json:"level,omitempty"`
	Ordered bool     `json:"ordered,omitempty"`
	Items   []string `json:"items,omitempty"`
}

// Paragraph returns a paragraph block.
func Paragraph(text string) Block {
	return Block{Kind: KindParagraph, Text: text}
}

// Heading returns a heading block with level clamped to 1..MaxHeadingLevel.
func Heading(level int, text string) Block {
	return Block{Kind: KindHeading, Level: clampLevel(level), Text: text}
}

// List returns a list block.
func List(ordered bool, items ...string) Block {
	return Block{Kind: KindList, Ordered: ordered, Items: items}
}

func clampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > MaxHeadingLevel {
		return MaxHeadingLevel
	}
	return level
}

// Marker returns the bullet or ordinal printed before item i (0-based) of a list.
func Marker(ordered bool, i int) string {
	if ordered {
		return strconv.Itoa(i+1) + "."
	}
	return "•"
}

// PlainText flattens blocks back to text: one block per paragraph separated
// by blank lines, list items prefixed with their marker.
func PlainText(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		switch b.Kind {
		case KindList:
			lines := make([]string, len(b.Items))
			for i, item := range b.Items {
				lines[i] = Marker(b.Ordered, i) + " " + item
			}
			parts = append(parts, strings.Join(lines, "\n"))
		default:
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}
