package content

import (
	"fmt"
	"strings"
)

// Fixed section headings of a decree body.
const (
	HeadingConsiderando  = "CONSIDERANDO"
	HeadingDecreta       = "DECRETA"
	HeadingDisposiciones = "DISPOSICIONES FINALES"
)

// Decree holds the structured fields of a decree. Each entry is a plain
// paragraph; empty entries are ignored.
type Decree struct {
	Considerandos []string `json:"considerandos"`
	Articulado    []string `json:"articulado"`
	Disposiciones []string `json:"disposiciones"`
}

// IsEmpty reports whether no section carries text.
func (d Decree) IsEmpty() bool {
	return len(nonEmpty(d.Considerandos)) == 0 &&
		len(nonEmpty(d.Articulado)) == 0 &&
		len(nonEmpty(d.Disposiciones)) == 0
}

// FromDecree builds body blocks from decree fields. Sections without text are
// omitted together with their heading. Articles are numbered from 1.
func FromDecree(d Decree) []Block {
	var blocks []Block

	if items := nonEmpty(d.Considerandos); len(items) > 0 {
		blocks = append(blocks, Heading(2, HeadingConsiderando))
		for _, text := range items {
			blocks = append(blocks, Paragraph(text))
		}
	}

	if items := nonEmpty(d.Articulado); len(items) > 0 {
		blocks = append(blocks, Heading(2, HeadingDecreta))
		for i, text := range items {
			blocks = append(blocks, Paragraph(fmt.Sprintf("Artículo %d.- %s", i+1, text)))
		}
	}

	if items := nonEmpty(d.Disposiciones); len(items) > 0 {
		blocks = append(blocks, Heading(2, HeadingDisposiciones))
		for _, text := range items {
			blocks = append(blocks, Paragraph(text))
		}
	}

	return blocks
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if text := normalize(strings.ReplaceAll(s, "\n", string(lineBreak))); text != "" {
			out = append(out, text)
		}
	}
	return out
}
