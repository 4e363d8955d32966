// =============================================================================
// Report Export - XLSX Member Parser
// =============================================================================
//
// This module reads member payment exports that arrive as workbooks instead
// of CSV files. Columns are addressed by letter rather than by header name,
// because spreadsheet exports often carry merged title rows above the data.
//
// EXPECTED LAYOUT (defaults, configurable via config.XLSXColumns):
//
//   | A            | B          | C           | D           | E      | F            | G                  | H      |
//   |--------------|------------|-------------|-------------|--------|--------------|--------------------|--------|
//   | payment_date | class_name | member_name | description | amount | phone_number | remaining_sessions | status |
//   | 2024-01-05   | Renang A   | Budi        | Paket 8x    | 400000 | 0812...      | 6                  | on_progress |
//
// Date cells may hold either text or an Excel serial date.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/renang/report-export/internal/config"
	"github.com/renang/report-export/internal/types"
	"github.com/renang/report-export/internal/validation"
)

// =============================================================================
// WORKBOOK DATA STRUCTURE
// =============================================================================

// WorkbookData represents the rows read from one worksheet.
type WorkbookData struct {
	// Sheet is the worksheet the rows came from.
	Sheet string

	// Rows contains the validated rows, in sheet order.
	Rows []types.ReportRow

	// SourceFile is the path to the workbook, if any.
	SourceFile string

	// RowCount is the number of non-empty data rows read.
	RowCount int
}

// columnIndexes holds the 0-indexed column of every field; -1 means the field
// is not present in the sheet.
type columnIndexes struct {
	paymentDate, className, memberName, description int
	amount, phoneNumber, remainingSessions, status  int
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads the configured worksheet of the workbook at path.
//
// PARAMETERS:
//   - path: The path to the XLSX file.
//   - columns: The sheet name, data start row and column letters.
//   - maxErrors: How many invalid rows to collect before giving up (0 = all).
//
// RETURNS:
//   - The parsed rows.
//   - An error if the workbook cannot be opened, the sheet does not exist,
//     or any row is invalid.
func Parse(path string, columns config.XLSXColumns, maxErrors int) (*WorkbookData, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	data, err := parseWorkbook(f, columns, maxErrors)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	data.SourceFile = path

	return data, nil
}

// ParseReader reads a workbook from r. See Parse.
func ParseReader(r io.Reader, columns config.XLSXColumns, maxErrors int) (*WorkbookData, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &validation.FormatError{Field: "workbook", Err: err}
	}
	defer f.Close()

	return parseWorkbook(f, columns, maxErrors)
}

func parseWorkbook(f *excelize.File, columns config.XLSXColumns, maxErrors int) (*WorkbookData, error) {
	sheet := columns.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
		if sheet == "" {
			return nil, &validation.ValidationError{Field: "sheet", Message: "workbook has no sheets"}
		}
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, &validation.ValidationError{Field: "sheet", Value: sheet, Message: "worksheet does not exist"}
	}

	idx, err := resolveColumns(columns.Columns)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	start := columns.DataStartRow
	if start <= 0 {
		start = 1
	}

	collector := validation.Collector{Limit: maxErrors}
	data := &WorkbookData{Sheet: sheet, Rows: make([]types.ReportRow, 0)}

	for i := start - 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 || isRowEmpty(row) {
			continue
		}
		data.RowCount++

		parsed, err := types.NewReportRow(parseRow(row, idx))
		if err != nil {
			collector.Add(fmt.Errorf("row %d: %w", i+1, err))
			continue
		}
		data.Rows = append(data.Rows, parsed)
	}

	if err := collector.Err(); err != nil {
		return nil, err
	}

	return data, nil
}

// resolveColumns converts column letters to 0-indexed positions.
func resolveColumns(c config.ColumnNames) (columnIndexes, error) {
	var idx columnIndexes
	targets := []struct {
		letter string
		dst    *int
	}{
		{c.PaymentDate, &idx.paymentDate},
		{c.ClassName, &idx.className},
		{c.MemberName, &idx.memberName},
		{c.Description, &idx.description},
		{c.Amount, &idx.amount},
		{c.PhoneNumber, &idx.phoneNumber},
		{c.RemainingSessions, &idx.remainingSessions},
		{c.Status, &idx.status},
	}

	for _, t := range targets {
		letter := strings.ToUpper(strings.TrimSpace(t.letter))
		if letter == "" {
			*t.dst = -1
			continue
		}
		n, err := excelize.ColumnNameToNumber(letter)
		if err != nil {
			return idx, &validation.ValidationError{Field: "xlsx_columns", Value: t.letter, Message: "is not a column letter"}
		}
		*t.dst = n - 1
	}

	return idx, nil
}

// parseRow maps a sheet row onto a RawRow.
func parseRow(row []string, idx columnIndexes) types.RawRow {
	getCell := func(index int) string {
		if index >= 0 && index < len(row) {
			return strings.TrimSpace(row[index])
		}
		return ""
	}

	return types.RawRow{
		PaymentDate:       normalizeDate(getCell(idx.paymentDate)),
		ClassName:         getCell(idx.className),
		MemberName:        getCell(idx.memberName),
		Description:       getCell(idx.description),
		Amount:            getCell(idx.amount),
		PhoneNumber:       getCell(idx.phoneNumber),
		RemainingSessions: normalizeCount(getCell(idx.remainingSessions)),
		Status:            getCell(idx.status),
	}
}

// maxExcelSerial is the serial number of 9999-12-31, the last date Excel
// can store. Larger numbers are compact text dates such as 20240105.
const maxExcelSerial = 2958465

// normalizeDate converts an Excel serial date to ISO form. Text dates pass
// through unchanged.
func normalizeDate(value string) string {
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil || serial <= 0 || serial > maxExcelSerial {
		return value
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return value
	}
	return t.Format("2006-01-02")
}

// normalizeCount drops the ".0" Excel stores on whole numbers.
func normalizeCount(value string) string {
	if f, err := strconv.ParseFloat(value, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return value
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
