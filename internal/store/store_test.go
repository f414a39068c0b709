package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurttlocker/coopsort/internal/assemble"
	"github.com/hurttlocker/coopsort/internal/schema"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	s, err := NewStore(StoreConfig{DBPath: ":memory:"})
	require.NoError(t, err, "failed to create test store")
	t.Cleanup(func() { s.Close() })
	return s
}

func parseExample(t *testing.T) *assemble.Result {
	t.Helper()
	res, err := assemble.New(assemble.Options{}).Assemble(context.Background(), assemble.ExampleInput)
	require.NoError(t, err)
	return res
}

// --- Database Initialization ---

func TestNewStore(t *testing.T) {
	s, err := NewStore(StoreConfig{DBPath: ":memory:"})
	require.NoError(t, err)
	defer s.Close()

	ss := s.(*SQLiteStore)
	for _, table := range []string{"meta", "columns", "runs", "records"} {
		var name string
		err := ss.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		assert.NoError(t, err, "table %q not found", table)
	}

	enabled, err := ss.isMetaFlagEnabled("input_hash_index_v1")
	require.NoError(t, err)
	assert.True(t, enabled, "input hash migration flag not set")
}

func TestNewStoreOnDiskIsReopenable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "coopsort.db")
	s, err := NewStore(StoreConfig{DBPath: path})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.SaveColumns(ctx, []string{"S/N", "LGA"}))
	s.Close()

	s, err = NewStore(StoreConfig{DBPath: path})
	require.NoError(t, err, "reopen")
	defer s.Close()

	cols, err := s.LoadColumns(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"S/N", "LGA"}, cols)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.NotZero(t, st.DBSizeBytes, "database size on disk")
}

// --- Columns ---

func TestColumnsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cols, err := s.LoadColumns(ctx)
	require.NoError(t, err)
	require.Nil(t, cols, "expected no saved columns")

	want := append(schema.DefaultFields(), "LGA", "WARD")
	require.NoError(t, s.SaveColumns(ctx, want))
	got, err := s.LoadColumns(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Saving again replaces rather than appends.
	require.NoError(t, s.SaveColumns(ctx, []string{"S/N", "NAME"}))
	got, _ = s.LoadColumns(ctx)
	assert.Len(t, got, 2)

	require.NoError(t, s.ResetColumns(ctx))
	got, _ = s.LoadColumns(ctx)
	assert.Nil(t, got, "reset should clear columns")
}

func TestSaveColumnsRejectsDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveColumns(ctx, []string{"S/N", "LGA"}))
	require.Error(t, s.SaveColumns(ctx, []string{"S/N", "lga", "LGA"}))

	// The failed save must not have touched the previous configuration.
	got, _ := s.LoadColumns(ctx)
	assert.Equal(t, []string{"S/N", "LGA"}, got)
}

// --- Runs ---

func TestSaveAndGetRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	res := parseExample(t)

	run := &Run{
		Source:      "paste.txt",
		InputHash:   HashInput(assemble.ExampleInput),
		Columns:     schema.DefaultFields(),
		MinFields:   2,
		Diagnostics: res.Diagnostics,
		Records:     res.Records,
	}
	id, err := s.SaveRun(ctx, run)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, id, run.ID)

	got, err := s.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "paste.txt", got.Source)
	assert.Equal(t, 3, got.RecordCount)
	assert.Equal(t, 2, got.MinFields)
	assert.Equal(t, res.Diagnostics, got.Diagnostics)

	require.Len(t, got.Records, 3)
	for i, r := range got.Records {
		want := res.Records[i]
		assert.Equal(t, want.Map(), r.Map(), "record %d", i)
		assert.Equal(t, schema.DefaultFields(), r.Fields(), "record %d lost field order", i)
	}
	assert.False(t, got.CreatedAt.IsZero())
	assert.WithinDuration(t, time.Now(), got.CreatedAt, time.Hour)

	// Prefix lookup.
	byPrefix, err := s.GetRun(ctx, id[:8])
	require.NoError(t, err)
	assert.Equal(t, id, byPrefix.ID)
}

func TestGetRunNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"", "nope", "%"} {
		_, err := s.GetRun(ctx, id)
		assert.ErrorIs(t, err, ErrRunNotFound, "GetRun(%q)", id)
	}
}

func TestGetRunAmbiguousPrefix(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"abc-1", "abc-2"} {
		_, err := s.SaveRun(ctx, &Run{ID: id, Columns: schema.DefaultFields()})
		require.NoError(t, err)
	}
	_, err := s.GetRun(ctx, "abc")
	require.ErrorIs(t, err, ErrAmbiguousRun)

	run, err := s.GetRun(ctx, "abc-2")
	require.NoError(t, err, "exact id lookup")
	assert.Equal(t, "abc-2", run.ID)
	assert.NotNil(t, run.Records)
	assert.Empty(t, run.Records)
}

func TestListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	res := parseExample(t)

	for i, src := range []string{"a.txt", "b.txt", "a.txt"} {
		_, err := s.SaveRun(ctx, &Run{
			ID:        string(rune('x'+i)) + "-run",
			Source:    src,
			InputHash: HashInput(src),
			Columns:   schema.DefaultFields(),
			Records:   res.Records,
		})
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, ListOpts{})
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "z-run", runs[0].ID, "newest first")
	assert.Equal(t, "x-run", runs[2].ID)
	assert.Nil(t, runs[0].Records, "ListRuns should not load records")
	assert.Equal(t, 3, runs[0].RecordCount)

	runs, _ = s.ListRuns(ctx, ListOpts{Limit: 1, Offset: 1})
	require.Len(t, runs, 1)
	assert.Equal(t, "y-run", runs[0].ID)

	runs, _ = s.ListRuns(ctx, ListOpts{Source: "a.txt"})
	assert.Len(t, runs, 2, "source filter")

	dups, err := s.FindRunsByHash(ctx, HashInput("a.txt"))
	require.NoError(t, err)
	assert.Len(t, dups, 2, "runs with the same input")
}

func TestDeleteRunCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	res := parseExample(t)

	id, err := s.SaveRun(ctx, &Run{Columns: schema.DefaultFields(), Records: res.Records})
	require.NoError(t, err)
	require.NoError(t, s.DeleteRun(ctx, id))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.RunCount)
	assert.Zero(t, st.RecordCount)

	assert.ErrorIs(t, s.DeleteRun(ctx, id), ErrRunNotFound, "second delete")
}

func TestHashInputNormalizesLineEndings(t *testing.T) {
	assert.Equal(t, HashInput("a\nb"), HashInput("a\r\nb"), "CRLF and LF input should hash alike")
	assert.NotEqual(t, HashInput("a"), HashInput("b"))
}
