// Package extract provides the line-level machinery of coopsort.
//
// Everything here works on one line or one value at a time and holds no
// state between calls:
//   - Clean strips decoration from raw values
//   - Extractor splits a line into label and value ("PHONE NO: 0801...")
//   - Normalizer maps a label onto a canonical column
//   - Classifier places an unlabelled value by an ordered rule table
//   - NoiseFilter drops announcement lines
//
// Cross-line and cross-block decisions belong to package assemble.
package extract

import "github.com/hurttlocker/coopsort/internal/schema"

// Pipeline bundles the per-line components for one schema and vocabulary.
// All members are read-only after construction and safe for concurrent use.
type Pipeline struct {
	Schema     *schema.Schema
	Vocabulary *schema.Vocabulary
	Normalizer *Normalizer
	Extractor  *Extractor
	Classifier *Classifier
	Noise      *NoiseFilter
}

// NewPipeline wires the components together. A nil vocabulary means the
// built-in defaults.
func NewPipeline(s *schema.Schema, vocab *schema.Vocabulary, opts ...ClassifierOption) *Pipeline {
	if vocab == nil {
		vocab = schema.DefaultVocabulary()
	}
	n := NewNormalizer(s, vocab)
	return &Pipeline{
		Schema:     s,
		Vocabulary: vocab,
		Normalizer: n,
		Extractor:  NewExtractor(n, vocab),
		Classifier: NewClassifier(s, vocab, n, opts...),
		Noise:      NewNoiseFilter(vocab),
	}
}
