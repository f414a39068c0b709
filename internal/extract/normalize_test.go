package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurttlocker/coopsort/internal/schema"
)

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	return NewNormalizer(schema.Default(), schema.DefaultVocabulary())
}

func TestNormalizeExact(t *testing.T) {
	n := newTestNormalizer(t)
	cases := map[string]string{
		"CO-OP NAME":       schema.FieldCooperative,
		"COOP NAME":        schema.FieldCooperative,
		"Cooperative":      schema.FieldCooperative,
		"PERSONAL NAME":    schema.FieldCEOName,
		"CEO NAME":         schema.FieldCEOName,
		"NAME":             schema.FieldCEOName,
		"PHONE NO":         schema.FieldPhone,
		"Phone Number":     schema.FieldPhone,
		"BANK NAME":        schema.FieldBankName,
		"ACNT. NO":         schema.FieldAccount,
		"ACCT NO":          schema.FieldAccount,
		"A/C NO":           schema.FieldAccount,
		"PERSONAL ACNT No": schema.FieldAccount,
		"SEX":              schema.FieldSex,
		"gender":           schema.FieldSex,
		"S/N":              schema.FieldSerial,
	}
	for key, want := range cases {
		got, ok := n.Normalize(key)
		assert.True(t, ok, "Normalize(%q) did not resolve", key)
		assert.Equal(t, want, got, "Normalize(%q)", key)
	}
}

func TestNormalizeContainmentFirstDeclaredFieldWins(t *testing.T) {
	n := newTestNormalizer(t)
	tests := []struct {
		key  string
		want string
	}{
		// "ceo" (CEO NAME) is declared before "phone no" (PHONE No.).
		{"CEO PHONE NO", schema.FieldCEOName},
		// "name" (CEO NAME) is declared before "bank name".
		{"MEMBER BANK NAME", schema.FieldCEOName},
		// "bank" (BANK NAME) is declared before "account number".
		{"Bank Account Number", schema.FieldBankName},
		// "name" (CEO NAME) and "account" (ACNT. No.).
		{"ACCOUNT NAME", schema.FieldCEOName},
		// "cooperative" and "name"; NAME OF COOPERATIVE comes first.
		{"name of the cooperative", schema.FieldCooperative},
		{"PERSONAL PHONE NUMBER", schema.FieldPhone},
		{"customer account number", schema.FieldAccount},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := n.Normalize(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	// Same key, same answer, every time.
	for i := 0; i < 20; i++ {
		again, _ := n.Normalize("CEO PHONE NO")
		assert.Equal(t, schema.FieldCEOName, again)
	}
}

func TestNormalizeUnresolved(t *testing.T) {
	n := newTestNormalizer(t)
	for _, key := range []string{"favourite colour", "", "***", "John Doe"} {
		_, ok := n.Normalize(key)
		assert.False(t, ok, "Normalize(%q) should not resolve", key)
	}
}

func TestNormalizeUserColumn(t *testing.T) {
	s, err := schema.Default().WithColumns("LGA")
	require.NoError(t, err)
	n := NewNormalizer(s, schema.DefaultVocabulary())

	got, ok := n.Normalize("lga")
	require.True(t, ok)
	assert.Equal(t, "LGA", got)

	got, ok = n.Normalize("Member LGA")
	require.True(t, ok)
	assert.Equal(t, "LGA", got)
}

func TestIsLabel(t *testing.T) {
	n := newTestNormalizer(t)
	assert.True(t, n.IsLabel("PHONE NO"))
	assert.True(t, n.IsLabel("bank"))
	assert.False(t, n.IsLabel("First Bank"))
	assert.False(t, n.IsLabel("John"))
}
