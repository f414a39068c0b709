package schema

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// FieldKind is the shape class a field expects. The orphan classifier's
// contextual fallback only places a value into a field of matching kind.
type FieldKind string

const (
	KindText    FieldKind = "text"
	KindNumeric FieldKind = "numeric"
	KindGender  FieldKind = "gender"
)

// Vocabulary is the process-wide synonym table plus the keyword lists used
// by the classifier and the noise filter. It is built once and never
// mutated, so one instance can be shared by concurrent parses.
type Vocabulary struct {
	synonyms          map[string][]string
	kinds             map[string]FieldKind
	bankKeywords      []string
	bankNames         []string
	bankAbbreviations []string
	orgKeywords       []string
	genderTokens      []string
	noisePhrases      []string
	labelWords        map[string]bool
}

// VocabularyFile is the YAML overlay format accepted by LoadVocabulary.
// Every list is appended to the built-in defaults.
type VocabularyFile struct {
	Synonyms          map[string][]string `yaml:"synonyms"`
	Kinds             map[string]string   `yaml:"kinds"`
	BankKeywords      []string            `yaml:"bank_keywords"`
	BankNames         []string            `yaml:"bank_names"`
	BankAbbreviations []string            `yaml:"bank_abbreviations"`
	OrgKeywords       []string            `yaml:"org_keywords"`
	GenderTokens      []string            `yaml:"gender_tokens"`
	NoisePhrases      []string            `yaml:"noise_phrases"`
}

var defaultSynonyms = map[string][]string{
	FieldSerial: {"s/n", "sn", "serial", "serial no", "serial number", "s no"},
	FieldCooperative: {
		"name of cooperative", "cooperative name", "co-op name", "coop name",
		"name of co-op", "cooperative", "co-op", "cooperative society",
		"name of society", "society name", "society", "group name",
		"association name", "name of cooperative society",
	},
	FieldCEOName: {
		"ceo name", "ceo", "personal name", "name", "full name", "member name",
		"members name", "owner name", "owners name", "name of ceo", "chairman",
		"chairman name", "president", "contact person", "applicant name",
	},
	FieldPhone: {
		"phone no", "phone number", "phone", "phone num", "personal phone no",
		"tel", "tel no", "telephone", "mobile", "mobile no", "mobile number",
		"gsm", "gsm no", "whatsapp", "contact no", "contact number",
	},
	FieldBankName: {"bank name", "bank", "name of bank", "personal bank name", "bankers"},
	FieldAccount: {
		"acnt no", "acnt", "acnt number", "acct no", "acct", "acct number",
		"account no", "account number", "account num", "account", "acc no",
		"ac no", "a/c no", "a/c", "personal acnt no", "personal account no",
		"personal account number", "nuban",
	},
	FieldSex: {"sex", "gender"},
}

var defaultKinds = map[string]FieldKind{
	FieldPhone:   KindNumeric,
	FieldAccount: KindNumeric,
	FieldSex:     KindGender,
}

// defaultBankKeywords match anywhere in a value as whole words.
var defaultBankKeywords = []string{"bank", "microfinance", "mfb", "gtbank", "firstbank", "ecobank", "citibank"}

// defaultBankNames are brand names that double as ordinary words ("Access",
// "Union"), so they only match a value that is the name and nothing else.
var defaultBankNames = []string{
	"zenith", "access", "guaranty trust", "fidelity", "sterling",
	"wema", "union", "polaris", "keystone", "stanbic", "stanbic ibtc", "opay",
	"palmpay", "moniepoint", "kuda", "providus", "jaiz", "suntrust",
	"standard chartered", "heritage", "unity", "globus", "titan trust",
}

var defaultBankAbbreviations = []string{"gtb", "gtco", "uba", "fcmb", "fbn", "ubn", "ibtc"}

var defaultOrgKeywords = []string{
	"coop", "cooperative", "cooperatives", "mpcs", "ctcs", "cics", "ltd",
	"limited", "society", "group", "association", "union", "farmers",
	"multipurpose", "thrift", "ventures", "enterprise", "enterprises",
}

var defaultGenderTokens = []string{"male", "female", "m", "f"}

var defaultNoisePhrases = []string{
	"PERSONAL DATA", "COOPERATIVE OWNERS", "SEND YOUR DETAILS", "TILL 3PM",
	"TOMORROW", "DON'T SEND", "DONT SEND", "OTHER NUMBERS", "INSTRUCTIONS:",
	"NOTE:", "PLEASE", "KINDLY", "PLZ",
}

// DefaultVocabulary returns the built-in vocabulary.
func DefaultVocabulary() *Vocabulary {
	v, _ := buildVocabulary(nil)
	return v
}

// LoadVocabulary reads a YAML overlay and merges it onto the defaults.
// An empty path returns the defaults.
func LoadVocabulary(path string) (*Vocabulary, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultVocabulary(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary %s: %w", path, err)
	}
	var f VocabularyFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parsing vocabulary %s: %w", path, err)
	}
	return buildVocabulary(&f)
}

func buildVocabulary(overlay *VocabularyFile) (*Vocabulary, error) {
	v := &Vocabulary{
		synonyms:   make(map[string][]string, len(defaultSynonyms)),
		kinds:      make(map[string]FieldKind, len(defaultKinds)),
		labelWords: make(map[string]bool),
	}
	for field, syns := range defaultSynonyms {
		v.addSynonyms(field, syns)
	}
	for field, k := range defaultKinds {
		v.kinds[field] = k
	}
	v.bankKeywords = foldAll(defaultBankKeywords)
	v.bankNames = foldAll(defaultBankNames)
	v.bankAbbreviations = foldAll(defaultBankAbbreviations)
	v.orgKeywords = foldAll(defaultOrgKeywords)
	v.genderTokens = foldAll(defaultGenderTokens)
	v.noisePhrases = upperAll(defaultNoisePhrases)

	if overlay != nil {
		// Sorted so that overlay order never changes matching order.
		fields := make([]string, 0, len(overlay.Synonyms))
		for field := range overlay.Synonyms {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			v.addSynonyms(field, overlay.Synonyms[field])
		}
		for field, raw := range overlay.Kinds {
			k := FieldKind(strings.ToLower(strings.TrimSpace(raw)))
			switch k {
			case KindText, KindNumeric, KindGender:
				v.kinds[field] = k
			default:
				return nil, fmt.Errorf("field %q: unknown kind %q", field, raw)
			}
		}
		v.bankKeywords = mergeUnique(v.bankKeywords, foldAll(overlay.BankKeywords))
		v.bankNames = mergeUnique(v.bankNames, foldAll(overlay.BankNames))
		v.bankAbbreviations = mergeUnique(v.bankAbbreviations, foldAll(overlay.BankAbbreviations))
		v.orgKeywords = mergeUnique(v.orgKeywords, foldAll(overlay.OrgKeywords))
		v.genderTokens = mergeUnique(v.genderTokens, foldAll(overlay.GenderTokens))
		v.noisePhrases = mergeUnique(v.noisePhrases, upperAll(overlay.NoisePhrases))
	}
	return v, nil
}

func (v *Vocabulary) addSynonyms(field string, syns []string) {
	folded := foldAll(syns)
	v.synonyms[field] = mergeUnique(v.synonyms[field], folded)
	for _, s := range folded {
		for _, w := range strings.Fields(s) {
			v.labelWords[w] = true
		}
	}
}

// Synonyms returns the folded synonyms of field. A field the vocabulary does
// not know (a user column) gets its own folded name as the only synonym.
func (v *Vocabulary) Synonyms(field string) []string {
	if syns, ok := v.synonyms[field]; ok {
		out := make([]string, len(syns))
		copy(out, syns)
		return out
	}
	if f := FoldKey(field); f != "" {
		return []string{f}
	}
	return nil
}

// Kind returns the shape class of field; unknown fields are text.
func (v *Vocabulary) Kind(field string) FieldKind {
	if k, ok := v.kinds[field]; ok {
		return k
	}
	return KindText
}

// IsLabelWord reports whether the folded word appears in any synonym.
func (v *Vocabulary) IsLabelWord(word string) bool {
	return v.labelWords[FoldKey(word)]
}

func (v *Vocabulary) BankKeywords() []string      { return copyStrings(v.bankKeywords) }
func (v *Vocabulary) BankNames() []string         { return copyStrings(v.bankNames) }
func (v *Vocabulary) BankAbbreviations() []string { return copyStrings(v.bankAbbreviations) }
func (v *Vocabulary) OrgKeywords() []string       { return copyStrings(v.orgKeywords) }
func (v *Vocabulary) GenderTokens() []string      { return copyStrings(v.genderTokens) }

// NoisePhrases returns the upper-cased noise phrases.
func (v *Vocabulary) NoisePhrases() []string { return copyStrings(v.noisePhrases) }

// FoldKey reduces a label to its comparison form: lower case, periods and
// hyphens dropped (a period directly before a letter becomes a space, so
// "ACNT.NO" folds like "ACNT NO"), other punctuation turned into spaces,
// whitespace collapsed.
func FoldKey(s string) string {
	rs := []rune(strings.ToLower(s))
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range rs {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.':
			if i+1 < len(rs) && unicode.IsLetter(rs[i+1]) {
				b.WriteByte(' ')
			}
		case r == '-' || r == '\'' || r == '’':
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func foldAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if f := FoldKey(s); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func upperAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if u := strings.ToUpper(strings.TrimSpace(s)); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func mergeUnique(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, s := range list {
			if seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
