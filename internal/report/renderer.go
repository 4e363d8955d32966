// =============================================================================
// Report Export - Sheet Renderer
// =============================================================================
//
// This module turns one group of member rows into a SheetDocument: the
// format-independent description of a single worksheet.
//
// SHEET LAYOUT:
//   Row 1: MemberTitlePrefix + upper-cased sheet title (merged A1:G1)
//   Row 2: PeriodPrefix + start date + separator + end date (merged A2:G2)
//   Row 3: blank
//   Row 4: the 7 column headings (auto-filter anchor)
//   Row 5+: one row per input row, in input order
//
// The renderer never touches a workbook; xlsxwriter does that. Keeping the
// document as plain data lets the same output be checked without a file.
//
// =============================================================================

package report

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/renang/report-export/internal/types"
	"github.com/renang/report-export/internal/validation"
)

const (
	// HeadingRow is the 1-based row holding the column headings.
	HeadingRow = HeaderRows + 1

	// DataStartRow is the 1-based row of the first data row.
	DataStartRow = HeadingRow + 1

	// DateCellLayout formats the payment date column.
	DateCellLayout = "2006-01-02"
)

// CollisionPolicy decides what Assemble does when two group keys normalize
// to the same sheet name.
type CollisionPolicy string

const (
	// CollisionSuffix appends " (2)", " (3)", ... to later duplicates.
	CollisionSuffix CollisionPolicy = "suffix"
	// CollisionFail rejects the dataset with a NamingCollisionError.
	CollisionFail CollisionPolicy = "fail"
)

// ParseCollisionPolicy maps a config value to a CollisionPolicy.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch CollisionPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", CollisionSuffix:
		return CollisionSuffix, nil
	case CollisionFail:
		return CollisionFail, nil
	default:
		return "", &validation.ValidationError{Field: "collision_policy", Value: s, Message: "must be suffix or fail"}
	}
}

// Options configures a Renderer.
type Options struct {
	Labels          Labels
	DateLocale      string
	CollisionPolicy CollisionPolicy
	GroupBy         types.GroupField
}

// Renderer renders member sheets and financial reports. A Renderer holds
// no mutable state and is safe for concurrent use.
type Renderer struct {
	labels  Labels
	locale  string
	months  [12]string
	policy  CollisionPolicy
	groupBy types.GroupField
}

// NewRenderer validates opts and builds a Renderer. Empty labels fall back
// to DefaultLabels.
func NewRenderer(opts Options) (*Renderer, error) {
	names, err := months(opts.DateLocale)
	if err != nil {
		return nil, err
	}

	policy, err := ParseCollisionPolicy(string(opts.CollisionPolicy))
	if err != nil {
		return nil, err
	}

	locale := strings.ToLower(opts.DateLocale)
	if locale == "" {
		locale = "en"
	}

	return &Renderer{
		labels:  opts.Labels.Merge(DefaultLabels()),
		locale:  locale,
		months:  names,
		policy:  policy,
		groupBy: opts.GroupBy,
	}, nil
}

// DefaultRenderer returns a Renderer with default labels, English month
// names and the suffix collision policy.
func DefaultRenderer() *Renderer {
	r, err := NewRenderer(Options{DateLocale: "en"})
	if err != nil {
		panic(err) // defaults are static
	}
	return r
}

// Labels returns the labels in use.
func (r *Renderer) Labels() Labels {
	return r.labels
}

// Locale returns the date locale ("en" or "id").
func (r *Renderer) Locale() string {
	return r.locale
}

// =============================================================================
// SHEET DOCUMENT
// =============================================================================

// SheetDocument describes one rendered worksheet.
type SheetDocument struct {
	// Name is the normalized sheet name (at most 31 runes).
	Name string

	// GroupKey is the raw grouping value the sheet was built from.
	GroupKey string

	// Heading is the row 1 title text.
	Heading string

	// Period is the row 2 date range text.
	Period string

	// Headings are the row 4 column headings.
	Headings []string

	// Rows are the data rows starting at DataStartRow.
	Rows []MappedRow
}

// MappedRow is one data row with its display values resolved.
type MappedRow struct {
	PaymentDate       string
	MemberName        string
	Description       string
	Amount            types.Money
	PhoneNumber       string
	RemainingSessions int
	Status            string
}

// Values returns the cell values in column order.
func (m MappedRow) Values() []any {
	return []any{
		m.PaymentDate,
		m.MemberName,
		m.Description,
		m.Amount.InexactFloat64(),
		m.PhoneNumber,
		m.RemainingSessions,
		m.Status,
	}
}

// Texts returns the cell values as displayed, in column order.
func (m MappedRow) Texts() []string {
	return []string{
		m.PaymentDate,
		m.MemberName,
		m.Description,
		FormatAmount(m.Amount, language.English),
		m.PhoneNumber,
		fmt.Sprintf("%d", m.RemainingSessions),
		m.Status,
	}
}

// =============================================================================
// RENDERING
// =============================================================================

// Render builds the document for one group.
//
// PARAMETERS:
//   - title: The raw group title. It is normalized into a sheet name; an
//     empty or "-" result is replaced by the fallback group label.
//   - rows: The group's rows, rendered in order.
//   - startDate, endDate: The report period bounds.
//
// RETURNS:
//   - The sheet document.
//   - A *validation.FormatError when a period bound is not a date.
func (r *Renderer) Render(title string, rows []types.ReportRow, startDate, endDate string) (*SheetDocument, error) {
	period, err := ParsePeriod(startDate, endDate)
	if err != nil {
		return nil, err
	}
	return r.renderSheet(title, r.labels.FallbackGroupLabel, rows, period), nil
}

func (r *Renderer) renderSheet(title, fallback string, rows []types.ReportRow, period Period) *SheetDocument {
	name := NormalizeTitle(title, fallback)

	doc := &SheetDocument{
		Name:     name,
		GroupKey: title,
		Heading:  r.labels.MemberTitlePrefix + cases.Upper(language.Und).String(name),
		Period:   r.FormatPeriod(period),
		Headings: append([]string(nil), r.labels.Headings...),
		Rows:     make([]MappedRow, len(rows)),
	}

	for i, row := range rows {
		doc.Rows[i] = r.mapRow(row)
	}

	return doc
}

func (r *Renderer) mapRow(row types.ReportRow) MappedRow {
	return MappedRow{
		PaymentDate:       row.PaymentDate.Format(DateCellLayout),
		MemberName:        row.MemberName,
		Description:       row.Description,
		Amount:            row.Amount,
		PhoneNumber:       row.PhoneNumber,
		RemainingSessions: row.RemainingSessions,
		Status:            r.labels.Status.Label(row.Status),
	}
}

// FormatPeriod renders the row 2 text for p.
func (r *Renderer) FormatPeriod(p Period) string {
	return r.labels.PeriodPrefix + r.FormatDateRange(p)
}

// FormatDateRange renders "start – end" with localized month names.
func (r *Renderer) FormatDateRange(p Period) string {
	return formatLongDate(p.Start, r.months) + r.labels.PeriodSeparator + formatLongDate(p.End, r.months)
}

// =============================================================================
// SHEET NAMES
// =============================================================================

// Characters Excel refuses in sheet names.
var sheetNameReplacer = strings.NewReplacer(
	":", " ",
	"\\", " ",
	"/", " ",
	"?", " ",
	"*", " ",
	"[", "(",
	"]", ")",
)

// NormalizeTitle turns a raw group title into a valid sheet name.
//
// Forbidden characters are replaced, whitespace is collapsed and the result
// is truncated to MaxSheetNameLength runes, never beginning or ending with
// an apostrophe. A result that is empty or a
// single "-" is replaced by fallback.
func NormalizeTitle(title, fallback string) string {
	s := sheetNameReplacer.Replace(title)
	s = strings.Join(strings.Fields(s), " ")
	s = trimSheetEdges(truncateRunes(trimSheetEdges(s), MaxSheetNameLength))

	if s == "" || s == "-" {
		return trimSheetEdges(truncateRunes(fallback, MaxSheetNameLength))
	}
	return s
}

// trimSheetEdges strips the spaces and apostrophes a sheet name may not
// start or end with. Truncation can expose new ones, so it runs after it too.
func trimSheetEdges(s string) string {
	return strings.Trim(s, " '")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
