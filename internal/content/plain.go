package content

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Plain-text heuristics, used for bodies recovered by OCR.
const (
	allCapsMinLen = 3
	allCapsMaxLen = 80
)

var (
	bulletMarker = regexp.MustCompile(`^[•\-*·]\s+(.*)$`)
	numberMarker = regexp.MustCompile(`^\d{1,3}[.)]\s+(.*)$`)
	letterMarker = regexp.MustCompile(`^[A-Za-z][.)]\s+(.*)$`)
)

// parsePlain segments text without markup: blank lines separate paragraphs,
// short ALL-CAPS lines become level-2 headings and consecutive marker lines
// group into lists.
func parsePlain(s string) []Block {
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var (
		blocks []Block
		para   []string
		list   *Block
	)

	flushPara := func() {
		if text := normalize(strings.Join(para, " ")); text != "" {
			blocks = append(blocks, Paragraph(text))
		}
		para = nil
	}
	flushList := func() {
		if list != nil && len(list.Items) > 0 {
			blocks = append(blocks, *list)
		}
		list = nil
	}

	for _, raw := range strings.Split(s, "\n") {
		line := strings.TrimSpace(raw)

		if line == "" {
			flushPara()
			flushList()
			continue
		}

		if item, ordered, ok := listItem(line); ok {
			flushPara()
			if list != nil && list.Ordered != ordered {
				flushList()
			}
			if list == nil {
				list = &Block{Kind: KindList, Ordered: ordered}
			}
			if text := normalize(item); text != "" {
				list.Items = append(list.Items, text)
			}
			continue
		}

		if isAllCapsLine(line) {
			flushPara()
			flushList()
			blocks = append(blocks, Heading(2, normalize(line)))
			continue
		}

		if list != nil && len(list.Items) > 0 {
			// Wrapped continuation of the previous item.
			last := len(list.Items) - 1
			list.Items[last] = normalize(list.Items[last] + " " + line)
			continue
		}

		para = append(para, line)
	}

	flushPara()
	flushList()
	return blocks
}

// listItem strips a bullet, number or letter marker from line.
func listItem(line string) (text string, ordered bool, ok bool) {
	if m := bulletMarker.FindStringSubmatch(line); m != nil {
		return m[1], false, true
	}
	if m := numberMarker.FindStringSubmatch(line); m != nil {
		return m[1], true, true
	}
	if m := letterMarker.FindStringSubmatch(line); m != nil {
		return m[1], true, true
	}
	return "", false, false
}

// isAllCapsLine reports a short line whose letters are mostly uppercase.
func isAllCapsLine(line string) bool {
	n := utf8.RuneCountInString(line)
	if n < allCapsMinLen || n > allCapsMaxLen {
		return false
	}
	letters, upper := 0, 0
	for _, r := range line {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	return letters > 0 && upper*2 > letters
}
