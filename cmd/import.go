// =============================================================================
// Report Export - Import Command
// =============================================================================
//
// The import command loads member exports, expenses and receivables into the
// payments database so later reports (and the HTTP server's GET routes) can
// query them by period.
//
// COMMAND USAGE:
//   reportexport import --input jan.csv --input feb.xlsx --db data/payments.db
//   reportexport import --expenses expenses.csv --receivables owed.csv
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/renang/report-export/internal/csvparser"
	"github.com/renang/report-export/internal/exporter"
	"github.com/renang/report-export/internal/source"
)

var (
	importInputs      []string
	importExpenses    []string
	importReceivables []string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import payments, expenses and receivables into the database",
	Long: `The import command validates every row of the given files and writes
them to the payments database in a single transaction. Nothing is written
when any file fails to load.

  --input        member payment exports (CSV or XLSX)
  --expenses     CSV with date, category, description, amount
  --receivables  CSV with member_name, due_date, amount, settled

Expenses feed the expense total and breakdown of the financial report;
unsettled receivables due by the end of the period feed its receivables line.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringSliceVarP(&importInputs, "input", "i", nil, "CSV or XLSX member export (repeatable)")
	importCmd.Flags().StringSliceVar(&importExpenses, "expenses", nil, "Expense CSV (repeatable)")
	importCmd.Flags().StringSliceVar(&importReceivables, "receivables", nil, "Receivable CSV (repeatable)")
	importCmd.Flags().StringVar(&dbPath, "db", "", "Payments database (default is sqlite_path)")
	importCmd.MarkFlagsOneRequired("input", "expenses", "receivables")
}

func runImport(cmd *cobra.Command) error {
	ctx := cmd.Context()

	name := resolveDB()
	if name == "" {
		return fmt.Errorf("no database: pass --db or set sqlite_path")
	}

	batch, err := loadBatch(cmd)
	if err != nil {
		return err
	}

	store, err := source.Open(ctx, name)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Import(ctx, batch)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Imported %d rows into %s\n", n, name)
	fmt.Fprintf(w, "Payments:      %d\n", len(batch.Payments))
	fmt.Fprintf(w, "Expenses:      %d\n", len(batch.Expenses))
	fmt.Fprintf(w, "Receivables:   %d\n", len(batch.Receivables))

	return nil
}

// loadBatch reads every file named on the command line.
func loadBatch(cmd *cobra.Command) (source.Batch, error) {
	var batch source.Batch

	if len(importInputs) > 0 {
		exp, err := exporter.New(appConfig)
		if err != nil {
			return batch, err
		}
		if batch.Payments, err = exp.LoadMemberFiles(cmd.Context(), importInputs); err != nil {
			return batch, err
		}
	}

	for _, path := range importExpenses {
		rows, err := csvparser.ParseExpenses(path, appConfig.CSVSettings, appConfig.MaxRowErrors)
		if err != nil {
			return batch, err
		}
		batch.Expenses = append(batch.Expenses, rows...)
	}

	for _, path := range importReceivables {
		rows, err := csvparser.ParseReceivables(path, appConfig.CSVSettings, appConfig.MaxRowErrors)
		if err != nil {
			return batch, err
		}
		batch.Receivables = append(batch.Receivables, rows...)
	}

	return batch, nil
}
