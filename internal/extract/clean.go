package extract

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// decorative runes are stripped from every value.
const decorative = "*\"'`~#$%^&“”‘’_|<>{}[]"

// Clean strips decorative punctuation, collapses whitespace and trims stray
// edge separators. It never fails and Clean(Clean(s)) == Clean(s).
func Clean(raw string) string {
	s := norm.NFKC.String(raw)
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(decorative, r) {
			return -1
		}
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s)
	s = collapse(s)
	// Removal can leave a base letter next to a combining mark.
	s = norm.NFKC.String(s)
	return collapse(s)
}

func collapse(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == ';' || r == ':' || r == '-'
	})
}
