// =============================================================================
// Report Export - Members Command
// =============================================================================
//
// The members command builds the member workbook: one worksheet per class
// (or status, or member, per group_by) for a reporting period.
//
// COMMAND USAGE:
//   reportexport members --input jan.csv --start 2024-01-01 --end 2024-01-31
//   reportexport members --input pool-a.csv --input pool-b.xlsx ...
//   reportexport members --db data/payments.db --start ... --end ...
//
// Without --input the payments database (--db or sqlite_path) is used.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/renang/report-export/internal/exporter"
	"github.com/renang/report-export/internal/report"
	"github.com/renang/report-export/internal/source"
	"github.com/renang/report-export/internal/types"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// memberInputs holds the CSV/XLSX files to read.
var memberInputs []string

// periodStart and periodEnd bound the reporting period (inclusive).
var periodStart, periodEnd string

// dbPath overrides sqlite_path for this invocation.
var dbPath string

// dryRun renders the report without writing it.
var dryRun bool

// =============================================================================
// MEMBERS COMMAND DEFINITION
// =============================================================================

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "Generate the member workbook for a period",
	Long: `The members command reads member payment rows, keeps those paid within
the period, splits them into one worksheet per class and writes a styled
XLSX workbook to the output directory.

Rows come from one or more --input files (CSV or XLSX; several files are read
concurrently and merged in argument order) or, without --input, from the
payments database.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runMembers(cmd)
	},
}

func init() {
	rootCmd.AddCommand(membersCmd)

	membersCmd.Flags().StringSliceVarP(&memberInputs, "input", "i", nil, "CSV or XLSX member export (repeatable)")
	addPeriodFlags(membersCmd)
	membersCmd.Flags().StringVar(&dbPath, "db", "", "Payments database (default is sqlite_path)")
	membersCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Render the report without writing output files")
}

// addPeriodFlags registers the required --start/--end flags on c.
func addPeriodFlags(c *cobra.Command) {
	c.Flags().StringVar(&periodStart, "start", "", "First day of the period (YYYY-MM-DD)")
	c.Flags().StringVar(&periodEnd, "end", "", "Last day of the period (YYYY-MM-DD)")
	_ = c.MarkFlagRequired("start")
	_ = c.MarkFlagRequired("end")
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runMembers(cmd *cobra.Command) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	exp, err := exporter.New(appConfig)
	if err != nil {
		return err
	}

	var src exporter.MemberSource
	name := ""
	if len(memberInputs) == 0 {
		name = resolveDB()
		if name == "" {
			return fmt.Errorf("no input: pass --input or --db (or set sqlite_path)")
		}

		store, err := source.Open(ctx, name)
		if err != nil {
			return err
		}
		defer store.Close()
		src = store
	}

	fmt.Fprintln(w, "=== Member Report ===")

	if dryRun {
		var rows []types.ReportRow
		if src == nil {
			rows, err = exp.LoadMemberFiles(ctx, memberInputs)
		} else {
			var period report.Period
			if period, err = report.ParsePeriod(periodStart, periodEnd); err == nil {
				rows, err = src.MemberRows(ctx, period)
			}
		}
		if err != nil {
			return err
		}

		out, stats, err := exp.MemberWorkbook(ctx, rows, periodStart, periodEnd)
		if err != nil {
			return err
		}
		printStats(w, stats)
		fmt.Fprintf(w, "Dry run: %s (%d bytes) not written\n", out.Filename, len(out.Data))
		return nil
	}

	var result exporter.Result
	if src == nil {
		result = exp.RunMembers(ctx, memberInputs, periodStart, periodEnd)
	} else {
		result = exp.RunMembersFromSource(ctx, src, name, periodStart, periodEnd)
	}

	fmt.Fprintf(w, "Source:        %s\n", result.Source)
	printStats(w, result.Stats)
	if result.Error != nil {
		return result.Error
	}
	fmt.Fprintf(w, "Output:        %s\n", result.OutputFile)

	return nil
}

func printStats(w io.Writer, stats exporter.ProcessingStats) {
	fmt.Fprintf(w, "Rows loaded:   %d\n", stats.RowsProcessed)
	fmt.Fprintf(w, "Rows in range: %d\n", stats.RowsInPeriod)
	fmt.Fprintf(w, "Sheets:        %d\n", stats.SheetsCreated)
}

// resolveDB returns --db, falling back to the configured sqlite_path.
func resolveDB() string {
	if dbPath != "" {
		return dbPath
	}
	return appConfig.SQLitePath
}
