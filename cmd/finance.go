// =============================================================================
// Report Export - Finance Command
// =============================================================================
//
// The finance command renders the aggregate financial report (summary,
// income breakdown, expense breakdown) as XLSX or HTML.
//
// COMMAND USAGE:
//   reportexport finance --request january.yaml
//   reportexport finance --request january.json --format html
//   reportexport finance --db data/payments.db --start 2024-01-01 --end 2024-01-31
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/renang/report-export/internal/exporter"
	"github.com/renang/report-export/internal/report"
	"github.com/renang/report-export/internal/source"
)

var (
	financeRequest string
	financeFormat  string
	financeStart   string
	financeEnd     string
)

var financeCmd = &cobra.Command{
	Use:   "finance",
	Short: "Generate the financial report",
	Long: `The finance command renders the financial report for a period.

Figures come either from a --request document (YAML, or JSON when the file
ends in .json) or from the payments database, in which case --start and
--end select the period. Net profit is shown in green when it is zero or
more and in red when it is negative.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runFinance(cmd)
	},
}

func init() {
	rootCmd.AddCommand(financeCmd)

	financeCmd.Flags().StringVarP(&financeRequest, "request", "r", "", "Financial request document (YAML or JSON)")
	financeCmd.Flags().StringVarP(&financeFormat, "format", "f", "xlsx", "Output format: xlsx or html")
	financeCmd.Flags().StringVar(&financeStart, "start", "", "First day of the period when reading the database")
	financeCmd.Flags().StringVar(&financeEnd, "end", "", "Last day of the period when reading the database")
	financeCmd.Flags().StringVar(&dbPath, "db", "", "Payments database (default is sqlite_path)")
	financeCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Render the report without writing output files")
	financeCmd.MarkFlagsMutuallyExclusive("request", "start")
	financeCmd.MarkFlagsMutuallyExclusive("request", "end")
}

func runFinance(cmd *cobra.Command) error {
	ctx := cmd.Context()
	logger := loggerFrom(cmd)

	format, err := exporter.ParseFormat(financeFormat)
	if err != nil {
		return err
	}

	exp, err := exporter.New(appConfig)
	if err != nil {
		return err
	}

	var out *exporter.Output
	if financeRequest != "" {
		req, err := report.LoadFinancialRequest(financeRequest)
		if err != nil {
			return err
		}
		if out, err = exp.FinancialReport(ctx, req, format); err != nil {
			return err
		}
	} else {
		if financeStart == "" || financeEnd == "" {
			return fmt.Errorf("pass --request, or --start and --end to read the database")
		}
		name := resolveDB()
		if name == "" {
			return fmt.Errorf("no database: pass --db or set sqlite_path")
		}

		store, err := source.Open(ctx, name)
		if err != nil {
			return err
		}
		defer store.Close()

		if out, err = exp.FinancialFromSource(ctx, store, financeStart, financeEnd, format); err != nil {
			return err
		}
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "=== Financial Report ===")

	if dryRun {
		fmt.Fprintf(w, "Dry run: %s (%d bytes) not written\n", out.Filename, len(out.Data))
		return nil
	}

	path, err := exp.Save(out)
	if err != nil {
		return err
	}
	logger.Info().Str("path", path).Int("bytes", len(out.Data)).Msg("financial report written")
	fmt.Fprintf(w, "Output: %s\n", path)

	return nil
}
