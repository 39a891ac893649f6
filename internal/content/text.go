package content

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// lineBreak marks an explicit <br> inside collected text until normalisation.
const lineBreak = '\u2028'

// normalize collapses whitespace runs to single spaces, keeps explicit line
// breaks as "\n" and returns NFC text. Lines left empty are dropped.
// Inner no-break spaces are kept; at line edges they are trimmed.
func normalize(s string) string {
	segments := strings.Split(s, string(lineBreak))
	lines := segments[:0]
	for _, seg := range segments {
		line := strings.Join(strings.FieldsFunc(seg, isBreakingSpace), " ")
		if line = strings.TrimFunc(line, unicode.IsSpace); line != "" {
			lines = append(lines, line)
		}
	}
	return norm.NFC.String(strings.Join(lines, "\n"))
}

const noBreakSpace = '\u00a0'

func isBreakingSpace(r rune) bool {
	return r != noBreakSpace && unicode.IsSpace(r)
}
