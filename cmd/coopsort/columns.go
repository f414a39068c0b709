package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hurttlocker/coopsort/internal/config"
	"github.com/hurttlocker/coopsort/internal/schema"
)

var columnsFlags struct {
	set        string
	reset      bool
	showConfig bool
}

// columnsCmd manages the saved extra columns
var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "Show or change the extra columns appended to the default schema",
	Long: `Extra columns are saved in the database and used by every later parse
unless --columns, COOPSORT_COLUMNS or the config file set them.

Examples:
  coopsort columns
  coopsort columns --set "LGA,WARD"
  coopsort columns --reset
  coopsort columns --show-config`,
	Args: cobra.NoArgs,
	RunE: runColumns,
}

func init() {
	columnsCmd.Flags().StringVar(&columnsFlags.set, "set", "", "Comma-separated extra columns to save")
	columnsCmd.Flags().BoolVar(&columnsFlags.reset, "reset", false, "Remove the saved extra columns")
	columnsCmd.Flags().BoolVar(&columnsFlags.showConfig, "show-config", false, "Print the resolved configuration with the source of each value")
	columnsCmd.MarkFlagsMutuallyExclusive("set", "reset")

	rootCmd.AddCommand(columnsCmd)
}

func runColumns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	switch {
	case columnsFlags.reset:
		if err := st.ResetColumns(ctx); err != nil {
			return err
		}
		logger.Info("columns reset")
	case columnsFlags.set != "":
		cols := config.SplitColumns(columnsFlags.set)
		if _, err := schema.Default().WithColumns(cols...); err != nil {
			return fmt.Errorf("invalid columns: %w", err)
		}
		if err := st.SaveColumns(ctx, cols); err != nil {
			return err
		}
		logger.Info("columns saved", zap.Strings("columns", cols))
	}

	sch, err := activeSchema(ctx, st)
	if err != nil {
		return err
	}

	if columnsFlags.showConfig {
		data, _ := json.MarshalIndent(settings, "", "  ")
		fmt.Fprintln(out, string(data))
		return nil
	}

	for i, f := range sch.Fields() {
		fmt.Fprintf(out, "%2d  %s\n", i+1, f)
	}
	if settings.Columns.Value != "" {
		fmt.Fprintf(out, "\nextra columns from %s\n", settings.Columns.Source)
	}
	return nil
}
