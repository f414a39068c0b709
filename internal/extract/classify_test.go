package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurttlocker/coopsort/internal/schema"
)

func newTestClassifier(t *testing.T, opts ...ClassifierOption) *Classifier {
	t.Helper()
	p := NewPipeline(schema.Default(), nil, opts...)
	return p.Classifier
}

func TestClassifyEmptyRecord(t *testing.T) {
	c := newTestClassifier(t)
	tests := []struct {
		value string
		field string
		rule  string
	}{
		{"Male", schema.FieldSex, "gender"},
		{"F", schema.FieldSex, "gender"},
		{"FIRST BANK", schema.FieldBankName, "bank"},
		{"GTB", schema.FieldBankName, "bank"},
		{"Lapo Microfinance", schema.FieldBankName, "bank"},
		{"0801 234 5678", schema.FieldPhone, "phone"},
		{"+2348012345678", schema.FieldPhone, "phone"},
		{"0803-123-4567", schema.FieldPhone, "phone"},
		{"123456789", schema.FieldAccount, "account"},
		{"John Doe", schema.FieldCEOName, "person"},
		{"Alpha Co-op", schema.FieldCooperative, "organization"},
		{"Alpha Farmers", schema.FieldCooperative, "organization"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			d := c.Classify(tt.value, Context{Record: map[string]string{}})
			assert.Equal(t, tt.field, d.Field)
			assert.Equal(t, tt.rule, d.Rule)
			assert.False(t, d.Discarded())
		})
	}
}

func TestClassifyDiscards(t *testing.T) {
	c := newTestClassifier(t)
	for _, v := range []string{"PHONE NUMBER", "bank", "", "***", "12345", "hello", "PERSONAL PHONE NUMBER", "Personal Contact"} {
		d := c.Classify(v, Context{Record: map[string]string{}})
		assert.True(t, d.Discarded(), "value %q should be discarded, got %+v", v, d)
		assert.Equal(t, "discard", d.Rule)
	}
}

func TestClassifyOverlappingShapes(t *testing.T) {
	c := newTestClassifier(t)
	tests := []struct {
		value string
		field string
		rule  string
	}{
		// Bank and organization keywords: bank comes first.
		{"Union Bank Cooperative", schema.FieldBankName, "bank"},
		{"GTB Staff Cooperative", schema.FieldBankName, "bank"},
		// Phone length is also account length: phone comes first.
		{"0123456789", schema.FieldPhone, "phone"},
		{"08012345678", schema.FieldPhone, "phone"},
		// Two alphabetic tokens with an organization keyword.
		{"Sunrise Farmers", schema.FieldCooperative, "organization"},
		// Brand words only count as a bank on their own.
		{"Access", schema.FieldBankName, "bank"},
		{"Zenith", schema.FieldBankName, "bank"},
		{"Access Farmers Cooperative", schema.FieldCooperative, "organization"},
		{"Sterling Okafor", schema.FieldCEOName, "person"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			d := c.Classify(tt.value, Context{Record: map[string]string{}})
			assert.Equal(t, tt.field, d.Field)
			assert.Equal(t, tt.rule, d.Rule)
		})
	}
}

func TestClassifyOrderOfOrphansDoesNotMatter(t *testing.T) {
	c := newTestClassifier(t)
	values := []string{"Union Bank Cooperative", "0123456789", "Sunrise Farmers", "John Doe", "Male", "123456789"}
	want := map[string]string{
		schema.FieldBankName:    "Union Bank Cooperative",
		schema.FieldPhone:       "0123456789",
		schema.FieldCooperative: "Sunrise Farmers",
		schema.FieldCEOName:     "John Doe",
		schema.FieldSex:         "Male",
		schema.FieldAccount:     "123456789",
	}

	var permute func(int)
	permute = func(k int) {
		if k == len(values) {
			record := map[string]string{}
			for _, v := range values {
				d := c.Classify(v, Context{Record: record})
				require.False(t, d.Discarded(), "order %q: %q discarded", values, v)
				record[d.Field] = v
			}
			assert.Equal(t, want, record, "order %q", values)
			return
		}
		for i := k; i < len(values); i++ {
			values[k], values[i] = values[i], values[k]
			permute(k + 1)
			values[k], values[i] = values[i], values[k]
		}
	}
	permute(0)
}

func TestClassifyPopulatedFieldIsSkipped(t *testing.T) {
	c := newTestClassifier(t)
	ctx := Context{Record: map[string]string{schema.FieldSex: "Female"}}
	assert.True(t, c.Classify("Male", ctx).Discarded())

	// A phone-shaped number never spills into the account column.
	ctx = Context{Record: map[string]string{schema.FieldPhone: "08012345678"}}
	assert.True(t, c.Classify("08098765432", ctx).Discarded())
}

func TestClassifyContextualFallback(t *testing.T) {
	c := newTestClassifier(t)
	full := map[string]string{
		schema.FieldCooperative: "Alpha Co-op",
		schema.FieldPhone:       "08012345678",
		schema.FieldBankName:    "Zenith Bank",
		schema.FieldAccount:     "2402417356",
		schema.FieldSex:         "Male",
	}

	d := c.Classify("Adamu", Context{Record: full})
	assert.Equal(t, schema.FieldCEOName, d.Field)
	assert.Equal(t, "contextual", d.Rule)

	// Numeric value cannot fill a text column.
	assert.True(t, c.Classify("12345", Context{Record: full}).Discarded())

	// Two empty columns: ambiguous.
	partial := map[string]string{
		schema.FieldCooperative: "Alpha Co-op",
		schema.FieldPhone:       "08012345678",
		schema.FieldBankName:    "Zenith Bank",
		schema.FieldSex:         "Male",
	}
	assert.True(t, c.Classify("Adamu", Context{Record: partial}).Discarded())
}

func TestClassifyRespectsSchema(t *testing.T) {
	s, err := schema.New(schema.FieldSerial, schema.FieldCooperative, schema.FieldCEOName)
	require.NoError(t, err)
	p := NewPipeline(s, nil)

	// No SEX column: gender rule cannot fire, and a gender value does not fit
	// the one remaining text column.
	ctx := Context{Record: map[string]string{schema.FieldCooperative: "Alpha Co-op"}}
	assert.True(t, p.Classifier.Classify("Male", ctx).Discarded())

	// No PHONE column either.
	assert.True(t, p.Classifier.Classify("08012345678", Context{Record: map[string]string{}}).Discarded())
}

func TestClassifyNeverTargetsPopulatedField(t *testing.T) {
	c := newTestClassifier(t)
	data := schema.Default().DataFields()
	values := []string{
		"Male", "female", "FIRST BANK", "UBA", "08012345678", "+2348012345678",
		"2402417356", "John Doe", "Alpha Co-op", "Adamu", "Lagos", "12345",
	}

	for mask := 0; mask < 1<<len(data); mask++ {
		record := make(map[string]string, len(data))
		for i, f := range data {
			if mask&(1<<i) != 0 {
				record[f] = "x"
			}
		}
		for _, v := range values {
			d := c.Classify(v, Context{Record: record})
			if d.Discarded() {
				continue
			}
			assert.Empty(t, record[d.Field], "mask %06b: %q assigned to populated %s", mask, v, d.Field)
			assert.True(t, schema.Default().Has(d.Field))
		}
	}
}

func TestClassifyCustomRules(t *testing.T) {
	lga := Rule{
		Name: "lga",
		Match: func(_ *Classifier, v string, _ Context) (string, bool) {
			if schema.FoldKey(v) == "ikeja" {
				return schema.FieldCooperative, true
			}
			return "", false
		},
	}
	c := newTestClassifier(t, WithRules([]Rule{lga}))
	assert.Equal(t, []string{"lga"}, c.Rules())

	d := c.Classify("IKEJA", Context{Record: map[string]string{}})
	assert.Equal(t, schema.FieldCooperative, d.Field)
	assert.Equal(t, "lga", d.Rule)

	// The default table is gone.
	assert.True(t, c.Classify("Male", Context{Record: map[string]string{}}).Discarded())
}

func TestDefaultRuleOrder(t *testing.T) {
	c := newTestClassifier(t)
	assert.Equal(t, []string{
		"gender", "bank", "phone", "account", "person", "organization", "contextual",
	}, c.Rules())
}
