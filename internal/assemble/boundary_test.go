package assemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurttlocker/coopsort/internal/extract"
	"github.com/hurttlocker/coopsort/internal/schema"
)

type boundaryHarness struct {
	*boundary
	closed    []map[string]string
	discarded []string
}

func newHarness(t *testing.T) *boundaryHarness {
	t.Helper()
	s := schema.Default()
	p := extract.NewPipeline(s, nil)
	h := &boundaryHarness{}
	h.boundary = newBoundary(s, p.Classifier,
		func(b *builder) { h.closed = append(h.closed, b.values) },
		func(o orphan) { h.discarded = append(h.discarded, o.value) })
	return h
}

func set(field, value string) Assignment {
	return Assignment{Field: field, Value: value, Source: SourceExplicit}
}

func TestBoundaryStartsExpecting(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, ExpectingRecordStart, h.state)
	assert.Equal(t, "expecting_record_start", h.state.String())

	h.close()
	assert.Empty(t, h.closed)
}

func TestBoundaryOrphanBlockMergesIntoIncompleteRecord(t *testing.T) {
	h := newHarness(t)

	h.beginBlock(true, nil)
	h.explicit(set(schema.FieldCooperative, "Alpha Co-op"))
	h.endBlock()
	assert.Equal(t, InRecord, h.state)

	h.beginBlock(false, nil)
	h.buffer(orphan{value: "Female", line: 4})
	h.endBlock()
	assert.Empty(t, h.closed, "orphan-only block must not close an incomplete record")

	h.close()
	require.Len(t, h.closed, 1)
	assert.Equal(t, "Female", h.closed[0][schema.FieldSex])
	assert.Equal(t, ExpectingRecordStart, h.state)
}

func TestBoundaryOrphanBlockAfterCompleteRecordStartsNew(t *testing.T) {
	h := newHarness(t)

	h.beginBlock(true, nil)
	for _, f := range schema.Default().DataFields() {
		h.explicit(set(f, "v"))
	}
	h.endBlock()
	require.True(t, h.complete())

	h.beginBlock(false, nil)
	require.Len(t, h.closed, 1)
	h.buffer(orphan{value: "John Doe"})
	h.endBlock()
	h.close()

	require.Len(t, h.closed, 2)
	assert.Equal(t, "John Doe", h.closed[1][schema.FieldCEOName])
}

func TestBoundaryExplicitBlockAlwaysStartsNew(t *testing.T) {
	h := newHarness(t)
	h.beginBlock(true, nil)
	h.explicit(set(schema.FieldCooperative, "Alpha"))
	h.endBlock()

	h.beginBlock(true, nil)
	assert.Len(t, h.closed, 1)
}

func TestBoundaryConflictSplits(t *testing.T) {
	h := newHarness(t)
	h.beginBlock(true, nil)
	assert.False(t, h.explicit(set(schema.FieldCooperative, "Alpha")))
	h.buffer(orphan{value: "John Doe"})
	assert.True(t, h.explicit(set(schema.FieldCooperative, "Beta")))
	h.endBlock()
	h.close()

	require.Len(t, h.closed, 2)
	assert.Equal(t, "Alpha", h.closed[0][schema.FieldCooperative])
	assert.Equal(t, "John Doe", h.closed[0][schema.FieldCEOName], "orphans resolve into the record they were read in")
	assert.Equal(t, "Beta", h.closed[1][schema.FieldCooperative])
}

func TestBoundaryOrphansSeeWholeSegment(t *testing.T) {
	h := newHarness(t)
	h.beginBlock(true, nil)
	// Read before the labels that follow it. At that point five columns are
	// empty and the contextual rule could not place it.
	h.buffer(orphan{value: "Adamu"})
	h.explicit(set(schema.FieldCooperative, "Alpha"))
	h.explicit(set(schema.FieldPhone, "08012345678"))
	h.explicit(set(schema.FieldBankName, "Zenith"))
	h.explicit(set(schema.FieldAccount, "2402417356"))
	h.explicit(set(schema.FieldSex, "F"))
	h.endBlock()
	h.close()

	require.Len(t, h.closed, 1)
	assert.Equal(t, "Adamu", h.closed[0][schema.FieldCEOName])
	assert.Empty(t, h.discarded)
}

func TestBoundaryDiscardsUnplaceableOrphan(t *testing.T) {
	h := newHarness(t)
	h.beginBlock(false, nil)
	h.buffer(orphan{value: "Lagos"})
	h.endBlock()
	h.close()

	assert.Equal(t, []string{"Lagos"}, h.discarded)
	require.Len(t, h.closed, 1)
	assert.Empty(t, h.closed[0])
}
