package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/hurttlocker/coopsort/internal/assemble"
	"github.com/hurttlocker/coopsort/internal/schema"
)

// WriteSummary writes a human-readable report: totals, then every record
// under its cooperative heading, then the diagnostics counters.
func WriteSummary(w io.Writer, s *schema.Schema, res *assemble.Result) error {
	bw := bufio.NewWriter(w)
	groups := GroupByCooperative(res.Records)
	fields := s.Fields()

	fmt.Fprintf(bw, "PROCESSED DATA SUMMARY\n%s\n\n", strings.Repeat("=", 50))
	fmt.Fprintf(bw, "Total Records Found: %d\n", len(res.Records))
	fmt.Fprintf(bw, "Number of Cooperatives: %d\n", len(groups))
	fmt.Fprintf(bw, "Columns: %s\n", strings.Join(fields, ", "))

	for _, g := range groups {
		title := strings.ToUpper(g.Name)
		fmt.Fprintf(bw, "\n%s\n%s\n", title, strings.Repeat("-", len([]rune(title))))
		for i, r := range g.Records {
			fmt.Fprintf(bw, "\nRecord %d:\n", i+1)
			for _, f := range fields {
				v := r.Get(f)
				if v == "" {
					v = "N/A"
				}
				fmt.Fprintf(bw, "  %s: %s\n", f, v)
			}
		}
	}

	d := res.Diagnostics
	fmt.Fprintf(bw, "\nBlocks: %d processed, %d skipped\n", d.BlocksProcessed, d.BlocksSkipped)
	fmt.Fprintf(bw, "Discarded: %d noise lines, %d orphaned values, %d incomplete records\n",
		d.NoiseLines, d.OrphansDiscarded, d.RecordsDropped)
	return bw.Flush()
}
