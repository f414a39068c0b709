package extract

import (
	"strings"

	"github.com/hurttlocker/coopsort/internal/schema"
)

// Context is what the classifier may look at besides the value itself.
type Context struct {
	// Record holds the in-progress record's values by field. Read only.
	Record map[string]string
	// Neighbors are the other lines of the block the value came from.
	Neighbors []string
}

func (c Context) populated(field string) bool { return c.Record[field] != "" }

// Decision is the classifier's verdict for one orphaned value.
type Decision struct {
	Field string // empty when discarded
	Rule  string // name of the rule that matched, or "discard"
}

// Discarded reports whether the value was rejected as noise.
func (d Decision) Discarded() bool { return d.Field == "" }

// Rule is one entry of the priority table. Match returns the target field
// and true when the rule claims the value.
type Rule struct {
	Name  string
	Match func(c *Classifier, value string, ctx Context) (string, bool)
}

// Classifier places orphaned values by walking an ordered rule table. The
// first matching rule decides; later rules never override it.
type Classifier struct {
	schema *schema.Schema
	vocab  *schema.Vocabulary
	norm   *Normalizer
	rules  []Rule

	genders   []string
	bankKW    []string
	bankNames []string
	bankAbbr  []string
	orgKW     []string
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithRules replaces the default rule table.
func WithRules(rules []Rule) ClassifierOption {
	return func(c *Classifier) {
		c.rules = append([]Rule(nil), rules...)
	}
}

// NewClassifier builds a classifier over schema s using DefaultRules unless
// WithRules is given.
func NewClassifier(s *schema.Schema, vocab *schema.Vocabulary, n *Normalizer, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		schema: s,
		vocab:  vocab,
		norm:   n,
		rules:  DefaultRules(),

		genders:   vocab.GenderTokens(),
		bankKW:    vocab.BankKeywords(),
		bankNames: vocab.BankNames(),
		bankAbbr:  vocab.BankAbbreviations(),
		orgKW:     vocab.OrgKeywords(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultRules returns the built-in priority order: gender, bank, phone,
// account, person, organization, contextual fallback.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "gender", Match: target(schema.FieldSex, (*Classifier).isGender)},
		{Name: "bank", Match: target(schema.FieldBankName, func(c *Classifier, v string) bool {
			return c.isBank(v) && !c.isGender(v)
		})},
		{Name: "phone", Match: target(schema.FieldPhone, func(_ *Classifier, v string) bool {
			d, ok := digitRun(v)
			return ok && isPhoneNumber(d)
		})},
		{Name: "account", Match: target(schema.FieldAccount, func(_ *Classifier, v string) bool {
			d, ok := digitRun(v)
			return ok && len(d) >= minAccountDigits && !isPhoneNumber(d)
		})},
		{Name: "person", Match: target(schema.FieldCEOName, (*Classifier).isPersonName)},
		{Name: "organization", Match: target(schema.FieldCooperative, (*Classifier).hasOrgKeyword)},
		{Name: "contextual", Match: contextualFallback},
	}
}

// target adapts a shape predicate into a rule aimed at one field. The rule
// only fires when the field exists and is still empty.
func target(field string, pred func(*Classifier, string) bool) func(*Classifier, string, Context) (string, bool) {
	return func(c *Classifier, v string, ctx Context) (string, bool) {
		if !c.schema.Has(field) || ctx.populated(field) {
			return "", false
		}
		if !pred(c, v) {
			return "", false
		}
		return field, true
	}
}

// contextualFallback assigns the value to the single remaining empty field,
// provided the value's shape fits that field. Zero or several empty fields
// mean the value is discarded.
func contextualFallback(c *Classifier, v string, ctx Context) (string, bool) {
	var empty []string
	for _, f := range c.schema.DataFields() {
		if !ctx.populated(f) {
			empty = append(empty, f)
		}
	}
	if len(empty) != 1 {
		return "", false
	}
	if c.shapeOf(v) != c.vocab.Kind(empty[0]) {
		return "", false
	}
	return empty[0], true
}

// Classify decides where value belongs given the record built so far.
func (c *Classifier) Classify(value string, ctx Context) Decision {
	value = Clean(value)
	if value == "" || c.norm.IsLabelPhrase(value) {
		// A bare label is never a value.
		return Decision{Rule: "discard"}
	}
	for _, r := range c.rules {
		if field, ok := r.Match(c, value, ctx); ok {
			return Decision{Field: field, Rule: r.Name}
		}
	}
	return Decision{Rule: "discard"}
}

// Rules returns the rule names in priority order.
func (c *Classifier) Rules() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name
	}
	return names
}

func (c *Classifier) shapeOf(v string) schema.FieldKind {
	if c.isGender(v) {
		return schema.KindGender
	}
	if _, ok := digitRun(v); ok {
		return schema.KindNumeric
	}
	return schema.KindText
}

func (c *Classifier) isGender(v string) bool {
	f := schema.FoldKey(v)
	for _, g := range c.genders {
		if f == g {
			return true
		}
	}
	return false
}

func (c *Classifier) isBank(v string) bool {
	f := schema.FoldKey(v)
	if containsPhrase(f, c.bankKW) {
		return true
	}
	for _, name := range c.bankNames {
		if f == name {
			return true
		}
	}
	for _, tok := range strings.Fields(f) {
		for _, abbr := range c.bankAbbr {
			if tok == abbr {
				return true
			}
		}
	}
	return false
}

func (c *Classifier) hasOrgKeyword(v string) bool {
	return containsPhrase(schema.FoldKey(v), c.orgKW)
}

// isPersonName accepts two or more alphabetic tokens with no bank or
// organization keyword among them. Tokens that are all label words make a
// label, not a name.
func (c *Classifier) isPersonName(v string) bool {
	toks := strings.Fields(v)
	if len(toks) < 2 {
		return false
	}
	labelWords := 0
	for _, t := range toks {
		if !isAlphaToken(t) {
			return false
		}
		if c.vocab.IsLabelWord(t) {
			labelWords++
		}
	}
	if labelWords == len(toks) {
		return false
	}
	return !c.isBank(v) && !c.hasOrgKeyword(v)
}

// containsPhrase reports whether any phrase occurs in folded as whole words.
func containsPhrase(folded string, phrases []string) bool {
	padded := " " + folded + " "
	for _, p := range phrases {
		if strings.Contains(padded, " "+p+" ") {
			return true
		}
	}
	return false
}

// digitRun strips the separators people type inside numbers (spaces,
// dashes, parentheses, a leading +) and reports whether only digits remain.
func digitRun(v string) (string, bool) {
	v = strings.TrimPrefix(strings.TrimSpace(v), "+")
	var b strings.Builder
	for _, r := range v {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return "", false
		}
	}
	d := b.String()
	return d, d != ""
}

func isPhoneLength(n int) bool { return n == 10 || n == 11 }

// isPhoneNumber accepts local numbers (10–11 digits) and the 234 country
// prefix form of an 11 digit local number.
func isPhoneNumber(d string) bool {
	return isPhoneLength(len(d)) || (len(d) == 13 && strings.HasPrefix(d, "234"))
}
