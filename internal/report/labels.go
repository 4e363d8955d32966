// =============================================================================
// Report Export - Labels
// =============================================================================
//
// This module holds every user-visible string the renderers emit. Labels
// are plain data so that deployments can override them from config.yaml;
// the renderers never use literal text of their own.
//
// =============================================================================

package report

import (
	"github.com/renang/report-export/internal/types"
)

// ColumnCount is the fixed number of columns on a member sheet.
const ColumnCount = 7

// HeaderRows is the number of rows reserved above the column headings.
const HeaderRows = 3

// MaxSheetNameLength is the longest sheet name the XLSX format accepts.
const MaxSheetNameLength = 31

// Labels holds all the text used on rendered sheets.
type Labels struct {
	// FallbackGroupLabel replaces a group title that normalizes to empty or "-".
	FallbackGroupLabel string `yaml:"fallback_group_label"`

	// DefaultSheetLabel titles the single sheet emitted for an empty dataset.
	DefaultSheetLabel string `yaml:"default_sheet_label"`

	// MemberTitlePrefix precedes the upper-cased sheet title on row 1.
	MemberTitlePrefix string `yaml:"member_title_prefix"`

	// PeriodPrefix precedes the formatted date range on row 2.
	PeriodPrefix string `yaml:"period_prefix"`

	// PeriodSeparator sits between the two formatted dates.
	PeriodSeparator string `yaml:"period_separator"`

	// Headings are the 7 member sheet column headings, in column order.
	Headings []string `yaml:"headings"`

	// Status maps enrollment statuses to display text.
	Status types.StatusLabels `yaml:"status"`

	// Financial holds the financial report labels.
	Financial FinancialLabels `yaml:"financial"`
}

// FinancialLabels holds the text of the financial report.
type FinancialLabels struct {
	Title          string `yaml:"title"`
	SheetName      string `yaml:"sheet_name"`
	PeriodPrefix   string `yaml:"period_prefix"`
	SummarySection string `yaml:"summary_section"`
	TotalIncome    string `yaml:"total_income"`
	TotalExpense   string `yaml:"total_expense"`
	NetProfit      string `yaml:"net_profit"`
	Receivables    string `yaml:"receivables"`
	IncomeSection  string `yaml:"income_section"`
	ExpenseSection string `yaml:"expense_section"`
	NameHeading    string `yaml:"name_heading"`
	AmountHeading  string `yaml:"amount_heading"`
	EmptyBreakdown string `yaml:"empty_breakdown"`
}

// DefaultLabels returns the labels used when config.yaml does not override
// them.
func DefaultLabels() Labels {
	return Labels{
		FallbackGroupLabel: "Other",
		DefaultSheetLabel:  "Laporan",
		MemberTitlePrefix:  "LAPORAN MEMBER - ",
		PeriodPrefix:       "Periode: ",
		PeriodSeparator:    " – ",
		Headings: []string{
			"Payment Date",
			"Member Name",
			"Description",
			"Amount Paid",
			"Phone Number",
			"Remaining Sessions",
			"Status",
		},
		Status: types.DefaultStatusLabels(),
		Financial: FinancialLabels{
			Title:          "LAPORAN KEUANGAN",
			SheetName:      "Laporan Keuangan",
			PeriodPrefix:   "Periode: ",
			SummarySection: "Summary",
			TotalIncome:    "Total Income",
			TotalExpense:   "Total Expense",
			NetProfit:      "Net Profit",
			Receivables:    "Receivables",
			IncomeSection:  "Income by Source",
			ExpenseSection: "Expense by Category",
			NameHeading:    "Name",
			AmountHeading:  "Amount",
			EmptyBreakdown: "-",
		},
	}
}

// Merge returns l with every empty field taken from defaults.
func (l Labels) Merge(defaults Labels) Labels {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}

	out := l
	out.FallbackGroupLabel = pick(l.FallbackGroupLabel, defaults.FallbackGroupLabel)
	out.DefaultSheetLabel = pick(l.DefaultSheetLabel, defaults.DefaultSheetLabel)
	out.MemberTitlePrefix = pick(l.MemberTitlePrefix, defaults.MemberTitlePrefix)
	out.PeriodPrefix = pick(l.PeriodPrefix, defaults.PeriodPrefix)
	out.PeriodSeparator = pick(l.PeriodSeparator, defaults.PeriodSeparator)
	if len(l.Headings) != ColumnCount {
		out.Headings = append([]string(nil), defaults.Headings...)
	}
	out.Status.InProgress = pick(l.Status.InProgress, defaults.Status.InProgress)
	out.Status.Completed = pick(l.Status.Completed, defaults.Status.Completed)

	f, d := l.Financial, defaults.Financial
	out.Financial = FinancialLabels{
		Title:          pick(f.Title, d.Title),
		SheetName:      pick(f.SheetName, d.SheetName),
		PeriodPrefix:   pick(f.PeriodPrefix, d.PeriodPrefix),
		SummarySection: pick(f.SummarySection, d.SummarySection),
		TotalIncome:    pick(f.TotalIncome, d.TotalIncome),
		TotalExpense:   pick(f.TotalExpense, d.TotalExpense),
		NetProfit:      pick(f.NetProfit, d.NetProfit),
		Receivables:    pick(f.Receivables, d.Receivables),
		IncomeSection:  pick(f.IncomeSection, d.IncomeSection),
		ExpenseSection: pick(f.ExpenseSection, d.ExpenseSection),
		NameHeading:    pick(f.NameHeading, d.NameHeading),
		AmountHeading:  pick(f.AmountHeading, d.AmountHeading),
		EmptyBreakdown: pick(f.EmptyBreakdown, d.EmptyBreakdown),
	}

	return out
}
