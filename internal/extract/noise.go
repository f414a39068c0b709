package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/hurttlocker/coopsort/internal/schema"
)

// MaxLineLength is the longest line still considered record content.
// Anything longer is a pasted paragraph of instructions.
const MaxLineLength = 200

// NoiseFilter drops announcement lines ("SEND YOUR DETAILS TILL 3PM
// TOMORROW") that carry no member data. It is only consulted for lines whose
// label did not resolve, so a real field is never dropped by phrase.
type NoiseFilter struct {
	phrases []string
}

// NewNoiseFilter builds a filter from the vocabulary's noise phrases.
func NewNoiseFilter(vocab *schema.Vocabulary) *NoiseFilter {
	return &NoiseFilter{phrases: vocab.NoisePhrases()}
}

// IsNoise reports whether line is an announcement or too long to be data.
func (f *NoiseFilter) IsNoise(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	if utf8.RuneCountInString(line) > MaxLineLength {
		return true
	}
	upper := strings.ToUpper(line)
	for _, p := range f.phrases {
		if strings.Contains(upper, p) {
			return true
		}
	}
	return false
}
