package assemble

import (
	"github.com/hurttlocker/coopsort/internal/extract"
	"github.com/hurttlocker/coopsort/internal/schema"
)

// State is the boundary detector's position between records.
type State int

const (
	// ExpectingRecordStart means no record is open; the next block with
	// usable content begins one.
	ExpectingRecordStart State = iota
	// InRecord means a record is open and may absorb orphan-only blocks.
	InRecord
)

func (s State) String() string {
	if s == InRecord {
		return "in_record"
	}
	return "expecting_record_start"
}

// orphan is a value waiting for the classifier.
type orphan struct {
	value string
	line  int
}

// builder accumulates one record's values. First value wins.
type builder struct {
	values      map[string]string
	assignments []Assignment
	pending     []orphan
}

func newBuilder() *builder {
	return &builder{values: make(map[string]string)}
}

func (b *builder) has(field string) bool { return b.values[field] != "" }

func (b *builder) set(a Assignment) {
	b.values[a.Field] = a.Value
	b.assignments = append(b.assignments, a)
}

// populated counts non-empty fields. The serial is never stored here.
func (b *builder) populated() int {
	n := 0
	for _, v := range b.values {
		if v != "" {
			n++
		}
	}
	return n
}

// boundary is the state object threaded through the block pass: the open
// record, the state, and the callback that receives closed records.
type boundary struct {
	schema     *schema.Schema
	classifier *extract.Classifier

	state     State
	current   *builder
	neighbors []string // lines of the block being processed

	// onClose receives every closed builder, empty ones included.
	onClose func(*builder)
	// onDiscard is called for each orphan the classifier rejects.
	onDiscard func(orphan)
}

func newBoundary(s *schema.Schema, c *extract.Classifier, onClose func(*builder), onDiscard func(orphan)) *boundary {
	return &boundary{
		schema:     s,
		classifier: c,
		state:      ExpectingRecordStart,
		onClose:    onClose,
		onDiscard:  onDiscard,
	}
}

// complete reports whether every data field of the open record is filled.
func (b *boundary) complete() bool {
	if b.current == nil {
		return false
	}
	for _, f := range b.schema.DataFields() {
		if !b.current.has(f) {
			return false
		}
	}
	return true
}

// beginBlock decides whether a block continues the open record or starts
// a new one. Blocks carrying a resolvable label always start a new record;
// orphan-only blocks are merged into an open record that still has gaps.
func (b *boundary) beginBlock(explicit bool, lines []string) {
	if explicit || b.state != InRecord || b.complete() {
		b.restart()
	}
	b.neighbors = lines
}

// endBlock resolves the block's remaining orphans.
func (b *boundary) endBlock() {
	b.resolve()
	b.neighbors = nil
}

// restart closes the open record, if any, and opens an empty one.
func (b *boundary) restart() {
	b.close()
	b.current = newBuilder()
	b.state = InRecord
}

// explicit places a labelled value. A label for a field that is already
// filled means the author started the next record; the open one is closed
// first and the value goes to the new one. Reports whether a split happened.
func (b *boundary) explicit(a Assignment) bool {
	split := false
	if b.current == nil {
		b.restart()
	} else if b.current.has(a.Field) {
		b.restart()
		split = true
	}
	b.current.set(a)
	return split
}

// buffer queues an orphan until the segment's labels are known.
func (b *boundary) buffer(o orphan) {
	if b.current == nil {
		b.restart()
	}
	b.current.pending = append(b.current.pending, o)
}

// resolve classifies buffered orphans in input order against the open
// record. Each placement is visible to the next orphan.
func (b *boundary) resolve() {
	if b.current == nil {
		return
	}
	pending := b.current.pending
	b.current.pending = nil
	for _, o := range pending {
		d := b.classifier.Classify(o.value, extract.Context{
			Record:    b.current.values,
			Neighbors: b.neighbors,
		})
		if d.Discarded() || !b.schema.Has(d.Field) || b.current.has(d.Field) {
			b.onDiscard(o)
			continue
		}
		b.current.set(Assignment{
			Field:  d.Field,
			Value:  extract.Clean(o.value),
			Source: SourceInferred,
			Line:   o.line,
			Rule:   d.Rule,
		})
	}
}

// close hands the open record to onClose and returns to
// ExpectingRecordStart.
func (b *boundary) close() {
	if b.current == nil {
		return
	}
	b.resolve()
	cur := b.current
	b.current = nil
	b.state = ExpectingRecordStart
	b.onClose(cur)
}
