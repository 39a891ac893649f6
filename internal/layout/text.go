package layout

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Encode converts UTF-8 text to the Windows-1252 bytes the PDF core fonts
// expect. Runes outside the code page become '?'.
func Encode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < utf8.RuneSelf {
			b.WriteByte(byte(r))
			continue
		}
		if c, ok := charmap.Windows1252.EncodeRune(r); ok {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('?')
	}
	return b.String()
}

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// LongDate formats t as a Spanish long date, e.g. "14 de marzo de 2028".
func LongDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d de %s de %d", t.Day(), spanishMonths[t.Month()-1], t.Year())
}

// measureFunc returns the width of s at the current font.
type measureFunc func(s string) float64

// textLine is one wrapped line. Last marks the end of a hard line, which is
// never justified.
type textLine struct {
	Words []string
	Last  bool
}

func (l textLine) String() string {
	return strings.Join(l.Words, " ")
}

// wrap breaks text into lines no wider than width. "\n" forces a break and
// a no-break space never does. A word wider than the line is split between
// runes.
func wrap(text string, width float64, measure measureFunc) []textLine {
	var lines []textLine
	space := measure(" ")

	for _, hard := range strings.Split(text, "\n") {
		words := strings.FieldsFunc(hard, isBreakingSpace)
		if len(words) == 0 {
			continue
		}

		var cur []string
		curWidth := 0.0
		for _, w := range words {
			ww := measure(w)
			if ww > width {
				if len(cur) > 0 {
					lines = append(lines, textLine{Words: cur})
					cur, curWidth = nil, 0
				}
				pieces := splitWord(w, width, measure)
				for _, p := range pieces[:len(pieces)-1] {
					lines = append(lines, textLine{Words: []string{p}})
				}
				w = pieces[len(pieces)-1]
				ww = measure(w)
			}

			if len(cur) == 0 {
				cur, curWidth = []string{w}, ww
				continue
			}
			if curWidth+space+ww > width {
				lines = append(lines, textLine{Words: cur})
				cur, curWidth = []string{w}, ww
				continue
			}
			cur = append(cur, w)
			curWidth += space + ww
		}
		lines = append(lines, textLine{Words: cur, Last: true})
	}
	return lines
}

func isBreakingSpace(r rune) bool {
	return r != '\u00a0' && unicode.IsSpace(r)
}

// splitWord cuts a single overlong word into pieces that fit width. Every
// piece holds at least one rune.
func splitWord(w string, width float64, measure measureFunc) []string {
	var (
		pieces []string
		cur    []rune
	)
	for _, r := range w {
		next := append(cur, r)
		if len(cur) > 0 && measure(string(next)) > width {
			pieces = append(pieces, string(cur))
			cur = []rune{r}
			continue
		}
		cur = next
	}
	if len(cur) > 0 {
		pieces = append(pieces, string(cur))
	}
	return pieces
}
