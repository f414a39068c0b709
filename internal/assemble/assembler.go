// Package assemble turns a pasted block of text into member records.
//
// The input is split into blocks at blank lines. Each line goes through the
// extract pipeline; labelled values are placed directly and unlabelled ones
// are buffered for the classifier. A small boundary state machine decides
// where one record ends and the next begins.
package assemble

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/hurttlocker/coopsort/internal/extract"
	"github.com/hurttlocker/coopsort/internal/schema"
)

// DefaultMinFields is the fewest non-serial fields an emitted record holds.
const DefaultMinFields = 2

// Source tells how a value reached its field.
type Source string

const (
	SourceExplicit Source = "explicit"
	SourceInferred Source = "inferred"
)

// Assignment records one placed value. Only returned when Options.Trace is set.
type Assignment struct {
	Serial int    `json:"serial"` // serial of the emitted record, 0 if dropped
	Field  string `json:"field"`
	Value  string `json:"value"`
	Source Source `json:"source"`
	Line   int    `json:"line"`
	Rule   string `json:"rule"` // extractor strategy or classifier rule
}

// Diagnostics counts what the assembler threw away and why.
type Diagnostics struct {
	BlocksProcessed  int `json:"blocks_processed"`
	BlocksSkipped    int `json:"blocks_skipped"`
	NoiseLines       int `json:"noise_lines"`
	OrphansDiscarded int `json:"orphans_discarded"`
	RecordsDropped   int `json:"records_dropped"`
	ConflictSplits   int `json:"conflict_splits"`
	ExplicitIgnored  int `json:"explicit_ignored"`
}

// Result is the outcome of one Assemble call.
type Result struct {
	Records     []schema.Record `json:"records"`
	Diagnostics Diagnostics     `json:"diagnostics"`
	Assignments []Assignment    `json:"assignments,omitempty"`
}

// Options configures an Assembler. The zero value uses the default schema,
// the default vocabulary and DefaultMinFields.
type Options struct {
	Schema     *schema.Schema
	Vocabulary *schema.Vocabulary
	MinFields  int
	Trace      bool
	Logger     *zap.Logger
	// Rules replaces the classifier's default rule table when non-nil.
	Rules []extract.Rule
}

// Assembler is immutable after New and safe for concurrent use.
type Assembler struct {
	pipe      *extract.Pipeline
	minFields int
	trace     bool
	logger    *zap.Logger
}

// New builds an Assembler.
func New(opts Options) *Assembler {
	s := opts.Schema
	if s == nil {
		s = schema.Default()
	}
	var copts []extract.ClassifierOption
	if opts.Rules != nil {
		copts = append(copts, extract.WithRules(opts.Rules))
	}
	minFields := opts.MinFields
	if minFields <= 0 {
		minFields = DefaultMinFields
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		pipe:      extract.NewPipeline(s, opts.Vocabulary, copts...),
		minFields: minFields,
		trace:     opts.Trace,
		logger:    logger,
	}
}

// Schema returns the active schema.
func (a *Assembler) Schema() *schema.Schema { return a.pipe.Schema }

// MinFields returns the completeness threshold in effect.
func (a *Assembler) MinFields() int { return a.minFields }

// Assemble reconstructs records from text. Content problems never produce an
// error; they are dropped and counted in Diagnostics. The only error is ctx
// being done, checked between blocks.
func (a *Assembler) Assemble(ctx context.Context, text string) (*Result, error) {
	r := &run{a: a, res: &Result{Records: []schema.Record{}}}
	r.bound = newBoundary(a.pipe.Schema, a.pipe.Classifier, r.emit, func(orphan) {
		r.res.Diagnostics.OrphansDiscarded++
	})

	for _, b := range SplitBlocks(text) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.block(b)
	}
	r.bound.close()

	if !a.trace {
		r.res.Assignments = nil
	}
	a.logger.Debug("assembled",
		zap.Int("records", len(r.res.Records)),
		zap.Int("blocks", r.res.Diagnostics.BlocksProcessed),
		zap.Int("skipped", r.res.Diagnostics.BlocksSkipped),
		zap.Int("dropped", r.res.Diagnostics.RecordsDropped))
	return r.res, nil
}

// run is the per-call mutable state.
type run struct {
	a     *Assembler
	res   *Result
	bound *boundary
}

// item is one usable line of a block.
type item struct {
	explicit bool
	field    string
	value    string
	line     int
	strategy string
}

func (r *run) block(b Block) {
	r.res.Diagnostics.BlocksProcessed++

	items := r.scan(b)
	if len(items) == 0 {
		r.res.Diagnostics.BlocksSkipped++
		r.a.logger.Debug("skipped block", zap.Int("line", b.Line))
		return
	}

	explicit := false
	for _, it := range items {
		if it.explicit {
			explicit = true
			break
		}
	}

	r.bound.beginBlock(explicit, b.Lines)
	for _, it := range items {
		if !it.explicit {
			r.bound.buffer(orphan{value: it.value, line: it.line})
			continue
		}
		if it.field == r.a.pipe.Schema.Serial() {
			// The serial column is always numbered by the assembler.
			r.res.Diagnostics.ExplicitIgnored++
			continue
		}
		if r.bound.explicit(Assignment{
			Field:  it.field,
			Value:  it.value,
			Source: SourceExplicit,
			Line:   it.line,
			Rule:   it.strategy,
		}) {
			r.res.Diagnostics.ConflictSplits++
		}
	}
	r.bound.endBlock()
}

// scan runs every line of b through the extractor and normalizer.
func (r *run) scan(b Block) []item {
	p := r.a.pipe
	var items []item
	for i := 0; i < len(b.Lines); i++ {
		line := b.Lines[i]
		lineNo := b.LineNo(i)
		res := p.Extractor.Extract(line, lineAt(b.Lines, i+1))

		if res.Kind == extract.LabelAwaiting {
			if _, ok := p.Normalizer.Normalize(res.Key); !ok {
				r.res.Diagnostics.NoiseLines++
				continue
			}
			// Label on one line, value on the next.
			line = res.Key + ": " + strings.TrimSpace(lineAt(b.Lines, i+1))
			res = p.Extractor.Extract(line, lineAt(b.Lines, i+2))
			i++
		}

		if res.Kind == extract.KeyValue {
			if field, ok := p.Normalizer.Normalize(res.Key); ok {
				items = append(items, item{
					explicit: true,
					field:    field,
					value:    res.Value,
					line:     lineNo,
					strategy: res.Strategy,
				})
				continue
			}
			// Unknown label: the whole line is a value candidate.
			res = extract.Result{Kind: extract.Orphan, Value: extract.Clean(line)}
		}

		if res.Kind != extract.Orphan || p.Noise.IsNoise(line) {
			r.res.Diagnostics.NoiseLines++
			continue
		}
		items = append(items, item{value: res.Value, line: lineNo})
	}
	return items
}

// emit applies the completeness check to a closed builder and appends the
// record.
func (r *run) emit(b *builder) {
	n := b.populated()
	if n == 0 {
		return
	}
	if n < r.a.minFields {
		r.res.Diagnostics.RecordsDropped++
		r.a.logger.Debug("dropped incomplete record",
			zap.Int("fields", n), zap.Int("min_fields", r.a.minFields))
		r.res.Assignments = append(r.res.Assignments, b.assignments...)
		return
	}
	serial := len(r.res.Records) + 1
	r.res.Records = append(r.res.Records, schema.NewRecord(r.a.pipe.Schema, serial, b.values))
	for _, asg := range b.assignments {
		asg.Serial = serial
		r.res.Assignments = append(r.res.Assignments, asg)
	}
	r.a.logger.Debug("emitted record", zap.Int("serial", serial), zap.Int("fields", n))
}

func lineAt(lines []string, i int) string {
	if i < len(lines) {
		return lines[i]
	}
	return ""
}
