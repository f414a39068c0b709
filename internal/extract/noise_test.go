package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hurttlocker/coopsort/internal/schema"
)

func TestNoiseFilter(t *testing.T) {
	f := NewNoiseFilter(schema.DefaultVocabulary())

	noisy := []string{
		"",
		"   ",
		"PLEASE SEND YOUR DETAILS TILL 3PM TOMORROW",
		"kindly don't send other numbers",
		"Personal data of cooperative owners",
		strings.Repeat("a", MaxLineLength+1),
	}
	for _, l := range noisy {
		assert.True(t, f.IsNoise(l), "expected noise: %q", l)
	}

	clean := []string{
		"Alpha Co-op",
		"08012345678",
		"Zenith Bank",
		strings.Repeat("a", MaxLineLength),
	}
	for _, l := range clean {
		assert.False(t, f.IsNoise(l), "expected data: %q", l)
	}
}
