// =============================================================================
// Report Export - XLSX Writer Module
// =============================================================================
//
// This module serializes rendered documents into XLSX workbooks using
// excelize. It owns every workbook-level concern: sheet creation, cell
// placement, styles, merged ranges, the auto-filter and column widths.
//
// MEMBER WORKBOOK STRUCTURE:
//
//   A1:G1  LAPORAN MEMBER - <TITLE>        (merged, bold, size 14, centered)
//   A2:G2  Periode: <start> – <end>         (merged, centered)
//   row 3  blank
//   A4:G4  column headings                  (bold, filled, auto-filter)
//   A5:G*  data rows                        (amount column "#,##0", "#,##0.00" with a fraction)
//
// Rendering happens in two passes per sheet: cells are written first, then
// ApplySheetStyle and AutoSizeColumns run over the finished sheet.
//
// =============================================================================

package xlsxwriter

import (
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/renang/report-export/internal/report"
)

// ContentType is the MIME type of an XLSX workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Column width bounds, in character units.
const (
	MinColumnWidth = 8.0
	MaxColumnWidth = 60.0

	// columnPadding is added to the longest text in a column.
	columnPadding = 2.0
)

// defaultSheet is the sheet excelize.NewFile creates.
const defaultSheet = "Sheet1"

// amountColumn is the 1-based column of the amount paid.
const amountColumn = 4

// =============================================================================
// MEMBER WORKBOOK
// =============================================================================

// WriteMemberWorkbook writes one sheet per document, in order.
//
// PARAMETERS:
//   - docs: The documents produced by report.Renderer.Assemble. Sheet names
//     must already be unique.
//
// RETURNS:
//   - The workbook bytes.
//   - An error if docs is empty or excelize rejects a sheet.
func WriteMemberWorkbook(docs []*report.SheetDocument) ([]byte, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("no sheets to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	styles, err := NewStyles(f)
	if err != nil {
		return nil, err
	}

	for i, doc := range docs {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, doc.Name); err != nil {
				return nil, fmt.Errorf("failed to name sheet %q: %w", doc.Name, err)
			}
		} else if _, err := f.NewSheet(doc.Name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %q: %w", doc.Name, err)
		}

		if err := writeMemberSheet(f, doc); err != nil {
			return nil, err
		}
		if err := ApplySheetStyle(f, doc.Name, len(doc.Rows), styles); err != nil {
			return nil, err
		}
		if err := styleFractionalAmounts(f, doc, styles); err != nil {
			return nil, err
		}
		if err := AutoSizeColumns(f, doc.Name, ColumnWidths(doc)); err != nil {
			return nil, err
		}
	}

	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return buf.Bytes(), nil
}

// writeMemberSheet places the header block, headings and data rows.
func writeMemberSheet(f *excelize.File, doc *report.SheetDocument) error {
	sheet := doc.Name

	if err := f.SetCellValue(sheet, "A1", doc.Heading); err != nil {
		return fmt.Errorf("sheet %q: %w", sheet, err)
	}
	if err := f.SetCellValue(sheet, "A2", doc.Period); err != nil {
		return fmt.Errorf("sheet %q: %w", sheet, err)
	}

	headings := make([]interface{}, len(doc.Headings))
	for i, h := range doc.Headings {
		headings[i] = h
	}
	if err := f.SetSheetRow(sheet, cell(1, report.HeadingRow), &headings); err != nil {
		return fmt.Errorf("sheet %q headings: %w", sheet, err)
	}

	for i, row := range doc.Rows {
		values := row.Values()
		if err := f.SetSheetRow(sheet, cell(1, report.DataStartRow+i), &values); err != nil {
			return fmt.Errorf("sheet %q row %d: %w", sheet, i+1, err)
		}
	}

	return nil
}

// ApplySheetStyle merges and styles the header block, styles the heading
// row and amount column, and installs the auto-filter on the heading row.
func ApplySheetStyle(f *excelize.File, sheet string, dataRows int, s *Styles) error {
	last := lastColumn()

	for _, r := range []int{1, 2} {
		if err := f.MergeCell(sheet, cell(1, r), cell(report.ColumnCount, r)); err != nil {
			return fmt.Errorf("sheet %q: failed to merge row %d: %w", sheet, r, err)
		}
	}

	ranges := []styledRange{
		{"A1", last + "1", s.title},
		{"A2", last + "2", s.period},
		{cell(1, report.HeadingRow), cell(report.ColumnCount, report.HeadingRow), s.heading},
	}
	if dataRows > 0 {
		lastRow := report.DataStartRow + dataRows - 1
		ranges = append(ranges, styledRange{cell(amountColumn, report.DataStartRow), cell(amountColumn, lastRow), s.amount})
	}

	for _, r := range ranges {
		if err := f.SetCellStyle(sheet, r.from, r.to, r.style); err != nil {
			return fmt.Errorf("sheet %q: failed to style %s:%s: %w", sheet, r.from, r.to, err)
		}
	}

	if err := f.SetRowHeight(sheet, 1, 24); err != nil {
		return fmt.Errorf("sheet %q: %w", sheet, err)
	}

	filterEnd := report.HeadingRow + dataRows
	filterRange := fmt.Sprintf("%s:%s", cell(1, report.HeadingRow), cell(report.ColumnCount, filterEnd))
	if err := f.AutoFilter(sheet, filterRange, nil); err != nil {
		return fmt.Errorf("sheet %q: failed to set auto-filter: %w", sheet, err)
	}

	return nil
}

// styleFractionalAmounts switches amount cells that carry a fraction to the
// two-decimal format.
func styleFractionalAmounts(f *excelize.File, doc *report.SheetDocument, s *Styles) error {
	for i, row := range doc.Rows {
		style := s.forAmount(row.Amount, s.amount)
		if style == s.amount {
			continue
		}
		ref := cell(amountColumn, report.DataStartRow+i)
		if err := f.SetCellStyle(doc.Name, ref, ref, style); err != nil {
			return fmt.Errorf("sheet %q: failed to style %s: %w", doc.Name, ref, err)
		}
	}
	return nil
}

// =============================================================================
// COLUMN WIDTHS
// =============================================================================

// ColumnWidths measures the heading row and data rows of doc and returns one
// width per column. The merged title rows are not measured.
func ColumnWidths(doc *report.SheetDocument) []float64 {
	longest := make([]int, report.ColumnCount)

	measure := func(texts []string) {
		for i, t := range texts {
			if i >= len(longest) {
				break
			}
			if n := utf8.RuneCountInString(t); n > longest[i] {
				longest[i] = n
			}
		}
	}

	measure(doc.Headings)
	for _, row := range doc.Rows {
		measure(row.Texts())
	}

	widths := make([]float64, len(longest))
	for i, n := range longest {
		widths[i] = clampWidth(float64(n) + columnPadding)
	}
	return widths
}

// AutoSizeColumns sets the width of each column, starting at column A.
func AutoSizeColumns(f *excelize.File, sheet string, widths []float64) error {
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return fmt.Errorf("sheet %q: failed to size column %s: %w", sheet, col, err)
		}
	}
	return nil
}

func clampWidth(w float64) float64 {
	if w < MinColumnWidth {
		return MinColumnWidth
	}
	if w > MaxColumnWidth {
		return MaxColumnWidth
	}
	return w
}

// =============================================================================
// HELPERS
// =============================================================================

type styledRange struct {
	from, to string
	style    int
}

// cell returns the A1 reference of a 1-based column and row.
func cell(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		panic(err) // coordinates are always positive here
	}
	return name
}

func lastColumn() string {
	name, _ := excelize.ColumnNumberToName(report.ColumnCount)
	return name
}
