// =============================================================================
// Report Export - Aggregate Financial Report Renderer
// =============================================================================
//
// This module renders caller-computed financial totals into a
// FinancialDocument: a title, a period line, a summary block and two
// breakdown tables (income by source, expense by category).
//
// The renderer does not compute or check any figure. Totals arrive already
// aggregated and are shown as given; the only decision made here is the
// style of the net profit line (positive when >= 0, negative otherwise).
//
// =============================================================================

package report

import (
	"github.com/renang/report-export/internal/types"
)

// AmountStyle marks how a summary amount should be emphasized.
type AmountStyle int

const (
	// StylePlain is the default, unemphasized style.
	StylePlain AmountStyle = iota
	// StylePositive marks a non-negative net profit.
	StylePositive
	// StyleNegative marks a net loss.
	StyleNegative
)

// String returns the style name used by the markup renderer.
func (s AmountStyle) String() string {
	switch s {
	case StylePositive:
		return "positive"
	case StyleNegative:
		return "negative"
	default:
		return "plain"
	}
}

// NetProfitStyle returns the style for a net profit amount.
func NetProfitStyle(net types.Money) AmountStyle {
	if net.IsNegative() {
		return StyleNegative
	}
	return StylePositive
}

// SummaryLine is one labeled total.
type SummaryLine struct {
	Label  string
	Amount types.Money
	Style  AmountStyle
}

// BreakdownSection is a two-column name/amount table.
type BreakdownSection struct {
	Heading       string
	NameHeading   string
	AmountHeading string

	// EmptyText is shown in place of rows when Entries is empty.
	EmptyText string

	Entries []types.BreakdownEntry
}

// FinancialDocument describes a rendered financial report.
type FinancialDocument struct {
	SheetName      string
	Title          string
	Period         string
	SummaryHeading string
	Summary        []SummaryLine
	Income         BreakdownSection
	Expense        BreakdownSection
}

// NetProfit returns the net profit line.
func (d *FinancialDocument) NetProfit() SummaryLine {
	for _, line := range d.Summary {
		if line.Style != StylePlain {
			return line
		}
	}
	return SummaryLine{}
}

// RenderFinancialReport renders a financial report with the default labels.
func RenderFinancialReport(periodLabel string, summary types.FinancialSummary, income, expense []types.BreakdownEntry) *FinancialDocument {
	return DefaultRenderer().RenderFinancialReport(periodLabel, summary, income, expense)
}

// RenderFinancialReport builds the financial document.
//
// PARAMETERS:
//   - periodLabel: Free text describing the period, shown after the period
//     prefix.
//   - summary: Caller-computed totals, shown unmodified.
//   - income, expense: Breakdown entries, shown in the given order.
//
// RETURNS:
//   - The document. Input slices are copied, never retained.
func (r *Renderer) RenderFinancialReport(periodLabel string, summary types.FinancialSummary, income, expense []types.BreakdownEntry) *FinancialDocument {
	l := r.labels.Financial

	return &FinancialDocument{
		SheetName:      NormalizeTitle(l.SheetName, r.labels.DefaultSheetLabel),
		Title:          l.Title,
		Period:         l.PeriodPrefix + periodLabel,
		SummaryHeading: l.SummarySection,
		Summary: []SummaryLine{
			{Label: l.TotalIncome, Amount: summary.TotalIncome},
			{Label: l.TotalExpense, Amount: summary.TotalExpense},
			{Label: l.NetProfit, Amount: summary.NetProfit, Style: NetProfitStyle(summary.NetProfit)},
			{Label: l.Receivables, Amount: summary.Receivables},
		},
		Income:  r.breakdown(l.IncomeSection, income),
		Expense: r.breakdown(l.ExpenseSection, expense),
	}
}

func (r *Renderer) breakdown(heading string, entries []types.BreakdownEntry) BreakdownSection {
	l := r.labels.Financial
	return BreakdownSection{
		Heading:       heading,
		NameHeading:   l.NameHeading,
		AmountHeading: l.AmountHeading,
		EmptyText:     l.EmptyBreakdown,
		Entries:       append([]types.BreakdownEntry{}, entries...),
	}
}
