package csvparser

import (
	"fmt"
	"io"
	"os"

	"github.com/renang/report-export/internal/config"
	"github.com/renang/report-export/internal/types"
	"github.com/renang/report-export/internal/validation"
)

// =============================================================================
// EXPENSE AND RECEIVABLE FILES
// =============================================================================
//
// Expense files carry the columns date, category, description, amount.
// Receivable files carry member_name, due_date, amount, settled. Headers are
// on the first line; only the delimiter is taken from the CSV settings.

var (
	expenseColumns    = []string{"date", "category", "amount"}
	receivableColumns = []string{"member_name", "due_date", "amount"}
)

// ParseExpenses reads an expense file.
func ParseExpenses(filePath string, settings config.CSVSettings, maxErrors int) ([]types.Expense, error) {
	var out []types.Expense
	err := parseFile(filePath, settings, expenseColumns, maxErrors, func(get func(string) string) error {
		e, err := types.NewExpense(types.RawExpense{
			Date:        get("date"),
			Category:    get("category"),
			Description: get("description"),
			Amount:      get("amount"),
		})
		if err == nil {
			out = append(out, e)
		}
		return err
	})
	return out, err
}

// ParseReceivables reads a receivable file.
func ParseReceivables(filePath string, settings config.CSVSettings, maxErrors int) ([]types.Receivable, error) {
	var out []types.Receivable
	err := parseFile(filePath, settings, receivableColumns, maxErrors, func(get func(string) string) error {
		r, err := types.NewReceivable(types.RawReceivable{
			MemberName: get("member_name"),
			DueDate:    get("due_date"),
			Amount:     get("amount"),
			Settled:    get("settled"),
		})
		if err == nil {
			out = append(out, r)
		}
		return err
	})
	return out, err
}

func parseFile(filePath string, settings config.CSVSettings, required []string, maxErrors int, build func(get func(string) string) error) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if err := parseRecords(file, settings, required, maxErrors, build); err != nil {
		return fmt.Errorf("%s: %w", filePath, err)
	}
	return nil
}

// parseRecords calls build once per non-empty record and collects the row
// errors it returns.
func parseRecords(r io.Reader, settings config.CSVSettings, required []string, maxErrors int, build func(get func(string) string) error) error {
	parser, err := newParser(r, config.CSVSettings{Delimiter: settings.Delimiter}, required)
	if err != nil {
		return err
	}

	collector := validation.Collector{Limit: maxErrors}
	for parser.nextRecord() {
		if err := build(parser.value); err != nil {
			collector.Add(fmt.Errorf("row %d: %w", parser.rowNumber, err))
		}
	}

	if err := parser.Err(); err != nil {
		return err
	}
	return collector.Err()
}
