package extract

import (
	"strings"

	"github.com/hurttlocker/coopsort/internal/schema"
)

// Normalizer maps free-form labels onto the columns of one schema.
type Normalizer struct {
	fields   []string
	synonyms [][]string // parallel to fields
	exact    map[string]string
	vocab    *schema.Vocabulary
}

// NewNormalizer prepares synonym lookups for every field of s, including the
// serial column so a typed "S/N" can be recognised and dropped.
func NewNormalizer(s *schema.Schema, vocab *schema.Vocabulary) *Normalizer {
	n := &Normalizer{
		fields: s.Fields(),
		exact:  make(map[string]string),
		vocab:  vocab,
	}
	n.synonyms = make([][]string, len(n.fields))
	for i, f := range n.fields {
		syns := vocab.Synonyms(f)
		n.synonyms[i] = syns
		for _, syn := range syns {
			// First-declared field keeps the synonym.
			if _, taken := n.exact[syn]; !taken {
				n.exact[syn] = f
			}
		}
	}
	return n
}

// Normalize resolves key text to a canonical field. Exact synonym matches
// win; otherwise the first field in schema order with a synonym contained
// in the key as whole words wins.
func (n *Normalizer) Normalize(key string) (string, bool) {
	folded := schema.FoldKey(key)
	if folded == "" {
		return "", false
	}
	if f, ok := n.exact[folded]; ok {
		return f, true
	}

	padded := " " + folded + " "
	for i, f := range n.fields {
		for _, syn := range n.synonyms[i] {
			if strings.Contains(padded, " "+syn+" ") {
				return f, true
			}
		}
	}
	return "", false
}

// IsLabel reports whether text is exactly a known label.
func (n *Normalizer) IsLabel(text string) bool {
	_, ok := n.exact[schema.FoldKey(text)]
	return ok
}

// IsLabelPhrase reports whether text is made only of label words and
// resolves to a field, as in "PERSONAL PHONE NUMBER". Exact labels count too.
func (n *Normalizer) IsLabelPhrase(text string) bool {
	if n.IsLabel(text) {
		return true
	}
	words := strings.Fields(schema.FoldKey(text))
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !n.vocab.IsLabelWord(w) {
			return false
		}
	}
	_, ok := n.Normalize(text)
	return ok
}
