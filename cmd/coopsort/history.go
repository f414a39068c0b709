package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hurttlocker/coopsort/internal/assemble"
	"github.com/hurttlocker/coopsort/internal/export"
	"github.com/hurttlocker/coopsort/internal/schema"
	"github.com/hurttlocker/coopsort/internal/store"
)

var historyFlags struct {
	run    string
	limit  int
	offset int
	source string
	delete string
	json   bool
}

// historyCmd lists or shows saved runs
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved parse runs or show one of them",
	Long: `Runs are saved by "coopsort parse --save". A run can be addressed by its
full ID or any unique prefix.

Examples:
  coopsort history
  coopsort history --limit 5 --source chat.txt
  coopsort history --run 3f2a
  coopsort history --delete 3f2a`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyFlags.run, "run", "", "Show the records of this run (ID or unique prefix)")
	historyCmd.Flags().IntVar(&historyFlags.limit, "limit", store.DefaultListLimit, "Maximum runs to list")
	historyCmd.Flags().IntVar(&historyFlags.offset, "offset", 0, "Runs to skip")
	historyCmd.Flags().StringVar(&historyFlags.source, "source", "", "Only list runs from this source")
	historyCmd.Flags().StringVar(&historyFlags.delete, "delete", "", "Delete this run (ID or unique prefix)")
	historyCmd.Flags().BoolVar(&historyFlags.json, "json", false, "Print a run as JSON instead of a summary")
	historyCmd.MarkFlagsMutuallyExclusive("run", "delete")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if historyFlags.delete != "" {
		run, err := st.GetRun(ctx, historyFlags.delete)
		if err != nil {
			return historyError(historyFlags.delete, err)
		}
		if err := st.DeleteRun(ctx, run.ID); err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted run %s\n", run.ID)
		return nil
	}

	if historyFlags.run != "" {
		run, err := st.GetRun(ctx, historyFlags.run)
		if err != nil {
			return historyError(historyFlags.run, err)
		}
		sch, err := schema.New(run.Columns...)
		if err != nil {
			return fmt.Errorf("run %s has invalid columns: %w", run.ID, err)
		}
		res := &assemble.Result{Records: run.Records, Diagnostics: run.Diagnostics}
		if historyFlags.json {
			return export.WriteJSON(out, export.NewDocument(run.Source, sch, res))
		}
		fmt.Fprintf(out, "Run %s  %s  %s\n\n", run.ID, run.Source, run.CreatedAt.Local().Format("2006-01-02 15:04"))
		return export.WriteSummary(out, sch, res)
	}

	runs, err := st.ListRuns(ctx, store.ListOpts{
		Limit:  historyFlags.limit,
		Offset: historyFlags.offset,
		Source: historyFlags.source,
	})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No saved runs. Use coopsort parse --save to keep one.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSOURCE\tRECORDS\tDROPPED\tDISCARDED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n",
			shortID(r.ID),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Source,
			r.RecordCount,
			r.Diagnostics.RecordsDropped,
			r.Diagnostics.OrphansDiscarded+r.Diagnostics.NoiseLines)
	}
	return tw.Flush()
}

func historyError(ref string, err error) error {
	switch {
	case errors.Is(err, store.ErrRunNotFound):
		return fmt.Errorf("no run matches %q", ref)
	case errors.Is(err, store.ErrAmbiguousRun):
		return fmt.Errorf("%q matches several runs; use more of the ID", ref)
	}
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
