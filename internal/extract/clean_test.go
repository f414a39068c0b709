package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  **John   Doe**  ", "John Doe"},
		{`"First Bank"`, "First Bank"},
		{"#08012345678;", "08012345678"},
		{"ＭＡＬＥ", "MALE"},
		{": value -", "value"},
		{"Alpha Co-op", "Alpha Co-op"},
		{"Alpha\tCo-op\n", "Alpha Co-op"},
		{"~~~", ""},
		{"", ""},
		{"$ 5,000 & more", "5,000 more"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Clean(tt.in), "Clean(%q)", tt.in)
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"  ,;:  ",
		"e*́",
		"a b",
		"“Zenith” ‘Bank’",
		"- - - 0801 - - -",
		"**ACNT. No.** 2402417356 ##",
		"ＰＨＯＮＥ：０８０１",
		"[CO-OP] {NAME} <Alpha> |Ltd|",
		strings.Repeat("x ", 100),
	}
	for _, in := range inputs {
		once := Clean(in)
		assert.Equal(t, once, Clean(once), "Clean not idempotent for %q", in)
	}
}
