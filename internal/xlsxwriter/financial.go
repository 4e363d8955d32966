package xlsxwriter

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"

	"github.com/renang/report-export/internal/report"
	"github.com/renang/report-export/internal/types"
)

// financialColumns is the width of the financial sheet (name, amount).
const financialColumns = 2

// WriteFinancialWorkbook writes doc as a single-sheet workbook.
//
// Layout: the title and period on rows 1-2 (merged A:B), the summary block
// from row 4, then the income and expense breakdown tables, each preceded
// by a blank row. The net profit amount is green when positive and red when
// negative.
func WriteFinancialWorkbook(doc *report.FinancialDocument) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := doc.SheetName
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet %q: %w", sheet, err)
	}

	styles, err := NewStyles(f)
	if err != nil {
		return nil, err
	}

	w := &sheetCursor{f: f, sheet: sheet, row: 1}
	w.merged(doc.Title, styles.title)
	w.merged(doc.Period, styles.period)
	w.skip()

	w.line(styles.section, doc.SummaryHeading)
	for _, line := range doc.Summary {
		amountStyle := styles.amount
		switch line.Style {
		case report.StylePositive:
			amountStyle = styles.positive
		case report.StyleNegative:
			amountStyle = styles.negative
		}
		w.pair(line.Label, styles.label, line.Amount, styles.forAmount(line.Amount, amountStyle))
	}

	for _, section := range []report.BreakdownSection{doc.Income, doc.Expense} {
		w.skip()
		w.breakdown(section, styles)
	}

	if w.err != nil {
		return nil, w.err
	}

	if err := AutoSizeColumns(f, sheet, w.widths()); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return buf.Bytes(), nil
}

// sheetCursor writes rows top to bottom and keeps the first error.
type sheetCursor struct {
	f       *excelize.File
	sheet   string
	row     int
	longest [financialColumns]int
	err     error
}

func (c *sheetCursor) skip() {
	c.row++
}

func (c *sheetCursor) merged(text string, style int) {
	if c.err != nil {
		return
	}
	from, to := cell(1, c.row), cell(financialColumns, c.row)
	if err := c.f.MergeCell(c.sheet, from, to); err != nil {
		c.err = fmt.Errorf("sheet %q: failed to merge %s:%s: %w", c.sheet, from, to, err)
		return
	}
	c.set(1, text, style)
	if c.err == nil {
		c.err = c.f.SetCellStyle(c.sheet, from, to, style)
	}
	c.row++
}

func (c *sheetCursor) line(style int, text string) {
	c.set(1, text, style)
	c.measure(0, text)
	c.row++
}

func (c *sheetCursor) pair(label string, labelStyle int, amount types.Money, amountStyle int) {
	c.set(1, label, labelStyle)
	c.set(2, amount.InexactFloat64(), amountStyle)
	c.measure(0, label)
	c.measure(1, report.FormatAmount(amount, language.English))
	c.row++
}

func (c *sheetCursor) breakdown(section report.BreakdownSection, s *Styles) {
	c.line(s.section, section.Heading)

	c.set(1, section.NameHeading, s.heading)
	c.set(2, section.AmountHeading, s.heading)
	c.measure(0, section.NameHeading)
	c.measure(1, section.AmountHeading)
	c.row++

	if len(section.Entries) == 0 {
		c.line(0, section.EmptyText)
		return
	}

	for _, e := range section.Entries {
		c.set(1, e.Name, 0)
		c.set(2, e.Amount.InexactFloat64(), s.forAmount(e.Amount, s.amount))
		c.measure(0, e.Name)
		c.measure(1, report.FormatAmount(e.Amount, language.English))
		c.row++
	}
}

// set writes one cell; a zero style leaves the default style.
func (c *sheetCursor) set(col int, value interface{}, style int) {
	if c.err != nil {
		return
	}
	ref := cell(col, c.row)
	if err := c.f.SetCellValue(c.sheet, ref, value); err != nil {
		c.err = fmt.Errorf("sheet %q: failed to write %s: %w", c.sheet, ref, err)
		return
	}
	if style != 0 {
		if err := c.f.SetCellStyle(c.sheet, ref, ref, style); err != nil {
			c.err = fmt.Errorf("sheet %q: failed to style %s: %w", c.sheet, ref, err)
		}
	}
}

func (c *sheetCursor) measure(col int, text string) {
	if n := len([]rune(text)); n > c.longest[col] {
		c.longest[col] = n
	}
}

func (c *sheetCursor) widths() []float64 {
	out := make([]float64, financialColumns)
	for i, n := range c.longest {
		out[i] = clampWidth(float64(n) + columnPadding)
	}
	return out
}
