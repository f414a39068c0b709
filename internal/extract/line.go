package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/hurttlocker/coopsort/internal/schema"
)

// Kind classifies the outcome of extracting one line.
type Kind int

const (
	// Noise is a blank or pure punctuation line.
	Noise Kind = iota
	// KeyValue carries an explicit label and its value.
	KeyValue
	// Orphan is a value with no usable label.
	Orphan
	// LabelAwaiting is a bare label whose value sits on the next line. The
	// caller joins the two lines and extracts again.
	LabelAwaiting
)

func (k Kind) String() string {
	switch k {
	case KeyValue:
		return "key_value"
	case Orphan:
		return "orphan"
	case LabelAwaiting:
		return "label_awaiting"
	default:
		return "noise"
	}
}

// Result is the outcome of Extract.
type Result struct {
	Kind     Kind
	Key      string // cleaned label text (KeyValue, LabelAwaiting)
	Value    string // cleaned value (KeyValue, Orphan)
	Strategy string // separator strategy that produced the result
}

// MaxKeyLength bounds colon-separated labels; longer left-hand sides are
// prose, not labels.
const MaxKeyLength = 50

// maxLabelShape bounds the label-shape check used by the dash, period and
// label-then-digits strategies.
const maxLabelShape = 30

// labelShapeRE matches text that could be a label: starts with a letter,
// then letters, spaces, periods, hyphens or slashes.
var labelShapeRE = regexp.MustCompile(`^[A-Za-z][A-Za-z .\-/]*$`)

// labelDigitsRE matches a label immediately (or space-) followed by a digit run.
var labelDigitsRE = regexp.MustCompile(`^([A-Za-z][A-Za-z .\-/]*?[A-Za-z.])\s*(\+?[0-9][0-9 \-]*[0-9])$`)

// strategy is one separator convention. split reports ok=false when the
// convention does not apply so the next one is tried.
type strategy struct {
	name  string
	split func(e *Extractor, line, next string) (Result, bool)
}

// Extractor splits single lines into label/value pairs.
type Extractor struct {
	norm       *Normalizer
	vocab      *schema.Vocabulary
	strategies []strategy
}

// NewExtractor returns an extractor whose strategies run in priority order:
// colon, dash, period, label-then-digits, no separator.
func NewExtractor(n *Normalizer, vocab *schema.Vocabulary) *Extractor {
	return &Extractor{
		norm:  n,
		vocab: vocab,
		strategies: []strategy{
			{name: "colon", split: splitColon},
			{name: "dash", split: splitDash},
			{name: "period", split: splitPeriod},
			{name: "label_digits", split: splitLabelDigits},
			{name: "none", split: splitNone},
		},
	}
}

// Extract runs the strategies over line. next is the following line of the
// same block ("" at block end); it is only used to detect a label whose
// value was typed on the next line.
func (e *Extractor) Extract(line, next string) Result {
	line = strings.TrimSpace(line)
	if !hasAlnum(line) {
		return Result{Kind: Noise, Strategy: "none"}
	}
	for _, s := range e.strategies {
		if r, ok := s.split(e, line, next); ok {
			r.Strategy = s.name
			return r
		}
	}
	return Result{Kind: Noise, Strategy: "none"}
}

func splitColon(e *Extractor, line, next string) (Result, bool) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return Result{}, false
	}
	key := Clean(line[:idx])
	if len(key) > MaxKeyLength {
		return Result{}, false
	}
	return e.keyed(key, Clean(line[idx+1:]), next), true
}

func splitDash(e *Extractor, line, next string) (Result, bool) {
	rs := []rune(line)
	for i, r := range rs {
		if r != '-' && r != '–' && r != '—' {
			continue
		}
		if r == '-' && i > 0 && i+1 < len(rs) && isAlnum(rs[i-1]) && isAlnum(rs[i+1]) {
			// Word-internal hyphen: CO-OP, 0803-123.
			continue
		}
		left := strings.TrimSpace(string(rs[:i]))
		if !isLabelShaped(left) {
			return Result{}, false
		}
		return e.keyed(Clean(left), Clean(string(rs[i+1:])), next), true
	}
	return Result{}, false
}

func splitPeriod(e *Extractor, line, _ string) (Result, bool) {
	raw := strings.Split(line, ". ")
	if len(raw) < 2 {
		return Result{}, false
	}
	if len(raw) == 2 {
		left := strings.TrimSpace(raw[0])
		right := strings.TrimSpace(raw[1])
		if !isLabelShaped(left) || right == "" || !unicode.IsDigit([]rune(right)[0]) {
			return Result{}, false
		}
		return Result{Kind: KeyValue, Key: Clean(left), Value: Clean(right)}, true
	}
	return e.reconstructMultiPeriod(raw), true
}

func splitLabelDigits(e *Extractor, line, _ string) (Result, bool) {
	m := labelDigitsRE.FindStringSubmatch(line)
	if m == nil {
		return Result{}, false
	}
	label, value := strings.TrimSpace(m[1]), m[2]
	if !isLabelShaped(label) || countDigits(value) < 7 {
		return Result{}, false
	}
	// Only numeric columns take a glued digit run; "Zenith Bank 1234567"
	// stays an orphan line.
	field, ok := e.norm.Normalize(label)
	if !ok || e.vocab.Kind(field) != schema.KindNumeric {
		return Result{}, false
	}
	return Result{Kind: KeyValue, Key: Clean(label), Value: Clean(value)}, true
}

func splitNone(e *Extractor, line, next string) (Result, bool) {
	v := Clean(line)
	if !hasAlnum(v) {
		return Result{Kind: Noise}, true
	}
	if e.isLabelLine(v) && e.isBareValue(next) {
		return Result{Kind: LabelAwaiting, Key: v}, true
	}
	return Result{Kind: Orphan, Value: v}, true
}

// keyed builds the result for an explicit separator split.
func (e *Extractor) keyed(key, value, next string) Result {
	switch {
	case key == "" && value == "":
		return Result{Kind: Noise}
	case key == "":
		return Result{Kind: Orphan, Value: value}
	case value == "":
		if e.isBareValue(next) {
			return Result{Kind: LabelAwaiting, Key: key}
		}
		return Result{Kind: Noise}
	}
	return Result{Kind: KeyValue, Key: key, Value: value}
}

// isBareValue reports whether a line carries a value and nothing else: no
// separator and not itself a label.
func (e *Extractor) isBareValue(line string) bool {
	line = strings.TrimSpace(line)
	if !hasAlnum(line) || strings.ContainsRune(line, ':') {
		return false
	}
	return !e.isLabelLine(Clean(line))
}

// isLabelLine reports whether a separator-less line is a label: an exact
// synonym, or a label-shaped phrase of label words that resolves to a field.
func (e *Extractor) isLabelLine(v string) bool {
	if e.norm.IsLabel(v) {
		return true
	}
	return isLabelShaped(v) && e.norm.IsLabelPhrase(v)
}

func isLabelShaped(s string) bool {
	return s != "" && len(s) <= maxLabelShape && labelShapeRE.MatchString(s)
}

func hasAlnum(s string) bool {
	for _, r := range s {
		if isAlnum(r) {
			return true
		}
	}
	return false
}

func isAlnum(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
