package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hurttlocker/coopsort/internal/assemble"
	"github.com/hurttlocker/coopsort/internal/export"
	"github.com/hurttlocker/coopsort/internal/ingest"
	"github.com/hurttlocker/coopsort/internal/schema"
	"github.com/hurttlocker/coopsort/internal/store"
)

const exampleSource = "example"

var parseFlags struct {
	format    string
	out       string
	columns   string
	minFields int
	trace     bool
	save      bool
	example   bool
}

// parseCmd reconstructs records from files or stdin
var parseCmd = &cobra.Command{
	Use:   "parse [files...]",
	Short: "Reconstruct member records from text, Markdown, PDF or Word files",
	Long: `Reads each input, splits it into blocks and assembles member records.
With no files (or "-") the text is read from stdin.

Several files are parsed concurrently; output keeps argument order.

Examples:
  coopsort parse chat.txt
  pbpaste | coopsort parse --format text
  coopsort parse members.docx extra.pdf --format xlsx --out members.xlsx
  coopsort parse --example --trace`,
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVarP(&parseFlags.format, "format", "f", "json", "Output format: json, text or xlsx")
	parseCmd.Flags().StringVarP(&parseFlags.out, "out", "o", "", "Write output to this file instead of stdout")
	parseCmd.Flags().StringVar(&parseFlags.columns, "columns", "", "Comma-separated extra columns (overrides saved columns)")
	parseCmd.Flags().IntVar(&parseFlags.minFields, "min-fields", 0, "Fewest non-serial fields a record needs (default 2)")
	parseCmd.Flags().BoolVar(&parseFlags.trace, "trace", false, "Include the per-field assignment trace (json only)")
	parseCmd.Flags().BoolVar(&parseFlags.save, "save", false, "Store the run in history")
	parseCmd.Flags().BoolVar(&parseFlags.example, "example", false, "Parse the built-in example instead of input files")

	rootCmd.AddCommand(parseCmd)
}

func minFieldsFlag() string {
	if parseFlags.minFields <= 0 {
		return ""
	}
	return strconv.Itoa(parseFlags.minFields)
}

// parsed is one input with its result.
type parsed struct {
	doc *ingest.Document
	res *assemble.Result
}

func runParse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	format := strings.ToLower(parseFlags.format)
	switch format {
	case "json", "text", "xlsx":
	default:
		return fmt.Errorf("unknown format %q (want json, text or xlsx)", parseFlags.format)
	}
	if format == "xlsx" && parseFlags.out == "" {
		return fmt.Errorf("xlsx output needs --out")
	}
	if parseFlags.example && len(args) > 0 {
		return fmt.Errorf("--example takes no input files")
	}

	inputs := args
	if len(inputs) == 0 && !parseFlags.example {
		inputs = []string{"-"}
	}
	if countStdin(inputs) > 1 {
		return fmt.Errorf("stdin (-) may be given only once")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	sch, err := activeSchema(ctx, st)
	if err != nil {
		return err
	}
	vocab, err := loadVocabulary()
	if err != nil {
		return err
	}
	minFields, err := settings.MinFieldsInt()
	if err != nil {
		return err
	}

	a := assemble.New(assemble.Options{
		Schema:     sch,
		Vocabulary: vocab,
		MinFields:  minFields,
		Trace:      parseFlags.trace,
		Logger:     logger,
	})

	var results []parsed
	if parseFlags.example {
		res, err := a.Assemble(ctx, assemble.ExampleInput)
		if err != nil {
			return err
		}
		results = []parsed{{doc: &ingest.Document{Text: assemble.ExampleInput, SourceFile: exampleSource, Format: "text"}, res: res}}
	} else {
		results, err = parseInputs(ctx, a, cmd.InOrStdin(), inputs)
		if err != nil {
			return err
		}
	}

	total := 0
	for _, p := range results {
		total += len(p.res.Records)
	}
	logger.Info("parse complete",
		zap.Int("inputs", len(results)),
		zap.Int("records", total),
		zap.Strings("columns", sch.Fields()))

	if parseFlags.save {
		if err := saveRuns(ctx, cmd.ErrOrStderr(), st, sch, a.MinFields(), results); err != nil {
			return err
		}
	}

	w := cmd.OutOrStdout()
	if parseFlags.out != "" {
		f, err := os.Create(parseFlags.out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", parseFlags.out, err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "text":
		err = writeText(w, sch, results)
	case "xlsx":
		err = export.WriteXLSX(w, sch, mergeRecords(sch, results))
	default:
		docs := make([]export.Document, 0, len(results))
		for _, p := range results {
			docs = append(docs, export.NewDocument(p.doc.SourceFile, sch, p.res))
		}
		err = export.WriteJSON(w, docs...)
	}
	if err != nil {
		return fmt.Errorf("writing %s output: %w", format, err)
	}
	if parseFlags.out != "" {
		logger.Info("output written", zap.String("path", parseFlags.out), zap.String("format", format))
	}
	return nil
}

// parseInputs imports and assembles every input concurrently. Results keep
// the order of inputs.
func parseInputs(ctx context.Context, a *assemble.Assembler, stdin io.Reader, inputs []string) ([]parsed, error) {
	engine := ingest.NewEngine(ingest.WithLogger(logger))
	results := make([]parsed, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, in := range inputs {
		g.Go(func() error {
			var (
				doc *ingest.Document
				err error
			)
			if in == "-" {
				doc, err = engine.ImportReader(stdin)
			} else {
				doc, err = engine.ImportFile(gctx, in)
			}
			if err != nil {
				return err
			}
			res, err := a.Assemble(gctx, doc.Text)
			if err != nil {
				return fmt.Errorf("%s: %w", doc.SourceFile, err)
			}
			logger.Debug("parsed input",
				zap.String("source", doc.SourceFile),
				zap.String("format", doc.Format),
				zap.Int("records", len(res.Records)))
			results[i] = parsed{doc: doc, res: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// saveRuns stores one run per input and notes inputs saved before.
func saveRuns(ctx context.Context, stderr io.Writer, st store.Store, sch *schema.Schema, minFields int, results []parsed) error {
	for _, p := range results {
		hash := store.HashInput(p.doc.Text)
		prior, err := st.FindRunsByHash(ctx, hash)
		if err != nil {
			return err
		}
		id, err := st.SaveRun(ctx, &store.Run{
			Source:      p.doc.SourceFile,
			InputHash:   hash,
			Columns:     sch.Fields(),
			MinFields:   minFields,
			Diagnostics: p.res.Diagnostics,
			Records:     p.res.Records,
		})
		if err != nil {
			return fmt.Errorf("saving run for %s: %w", p.doc.SourceFile, err)
		}
		fmt.Fprintf(stderr, "saved run %s (%s, %d records)\n", id, p.doc.SourceFile, len(p.res.Records))
		if len(prior) > 0 {
			fmt.Fprintf(stderr, "note: identical input was already saved as run %s\n", prior[0].ID)
		}
	}
	return nil
}

func writeText(w io.Writer, sch *schema.Schema, results []parsed) error {
	for i, p := range results {
		if len(results) > 1 {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "### %s\n\n", p.doc.SourceFile)
		}
		if err := export.WriteSummary(w, sch, p.res); err != nil {
			return err
		}
	}
	return nil
}

// mergeRecords joins the records of all inputs for a single workbook,
// renumbering serials in argument order.
func mergeRecords(sch *schema.Schema, results []parsed) []schema.Record {
	if len(results) == 1 {
		return results[0].res.Records
	}
	var out []schema.Record
	for _, p := range results {
		for _, r := range p.res.Records {
			out = append(out, schema.NewRecord(sch, len(out)+1, r.Map()))
		}
	}
	return out
}

func countStdin(inputs []string) int {
	n := 0
	for _, in := range inputs {
		if in == "-" {
			n++
		}
	}
	return n
}
