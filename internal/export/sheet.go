package export

import (
	"strconv"
	"strings"
	"unicode"
)

// maxSheetName is Excel's sheet name limit.
const maxSheetName = 31

// SheetName reduces name to characters Excel accepts in a sheet title:
// letters, digits, space, '-' and '_', at most 31 of them.
func SheetName(name string) string {
	var b strings.Builder
	n := 0
	for _, r := range name {
		if n == maxSheetName {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
			n++
		}
	}
	s := strings.TrimSpace(b.String())
	if s == "" {
		return UnknownGroup
	}
	return s
}

// sheetNamer hands out unique sheet names. Excel compares names without
// regard to case.
type sheetNamer struct {
	used map[string]bool
}

func newSheetNamer() *sheetNamer {
	return &sheetNamer{used: make(map[string]bool)}
}

// next returns SheetName(name), suffixed with _1, _2, ... when taken. The
// base is shortened so the suffix still fits in 31 characters.
func (n *sheetNamer) next(name string) string {
	base := SheetName(name)
	candidate := base
	for i := 1; n.used[strings.ToLower(candidate)]; i++ {
		suffix := "_" + strconv.Itoa(i)
		candidate = truncateRunes(base, maxSheetName-len(suffix)) + suffix
	}
	n.used[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n])
}
