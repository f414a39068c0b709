package extract

import (
	"strings"
	"unicode"
)

// minAccountDigits is the shortest digit run treated as an account number.
const minAccountDigits = 8

// reconstructMultiPeriod handles lines like "PERSONAL ACNT. No. 2402417356"
// where ". " appears inside the label as well as before the value. The
// rightmost numeric part of account or phone length is the value; failing
// that, the rightmost part carrying a non-label word. Everything left of the
// value is the key.
func (e *Extractor) reconstructMultiPeriod(raw []string) Result {
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(p), "."))
		if p != "" {
			parts = append(parts, p)
		}
	}

	for i := len(parts) - 1; i >= 1; i-- {
		if isAccountOrPhoneRun(parts[i]) {
			return e.periodPair(parts, i)
		}
	}
	for i := len(parts) - 1; i >= 1; i-- {
		if e.hasNonLabelWord(parts[i]) {
			return e.periodPair(parts, i)
		}
	}
	return Result{Kind: Noise}
}

func (e *Extractor) periodPair(parts []string, i int) Result {
	key := Clean(strings.Join(parts[:i], " "))
	value := Clean(parts[i])
	if key == "" || value == "" {
		return Result{Kind: Noise}
	}
	return Result{Kind: KeyValue, Key: key, Value: value}
}

func isAccountOrPhoneRun(s string) bool {
	if !isDigits(s) {
		return false
	}
	n := len(s)
	return n >= minAccountDigits || isPhoneLength(n)
}

// hasNonLabelWord reports whether s holds an alphabetic token that is not a
// word of any known label.
func (e *Extractor) hasNonLabelWord(s string) bool {
	for _, tok := range strings.Fields(s) {
		if !isAlphaToken(tok) {
			continue
		}
		if !e.vocab.IsLabelWord(tok) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isAlphaToken(tok string) bool {
	letters := 0
	for _, r := range tok {
		switch {
		case unicode.IsLetter(r):
			letters++
		case r == '.' || r == '-' || r == '\'':
		default:
			return false
		}
	}
	return letters > 0
}
