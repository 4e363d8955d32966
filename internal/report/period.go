package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/renang/report-export/internal/types"
	"github.com/renang/report-export/internal/validation"
)

// Period is an inclusive date range.
type Period struct {
	Start time.Time
	End   time.Time
}

// ParsePeriod parses the two bounds of a report period.
func ParsePeriod(startDate, endDate string) (Period, error) {
	start, err := validation.ParseDate("start_date", startDate)
	if err != nil {
		return Period{}, err
	}
	end, err := validation.ParseDate("end_date", endDate)
	if err != nil {
		return Period{}, err
	}
	return Period{Start: start, End: end}, nil
}

// Contains reports whether t falls on or between the period's dates.
func (p Period) Contains(t time.Time) bool {
	day := truncateDay(t)
	return !day.Before(truncateDay(p.Start)) && !day.After(truncateDay(p.End))
}

// FilterByPeriod returns the rows whose payment date falls inside p, in
// input order.
func FilterByPeriod(rows []types.ReportRow, p Period) []types.ReportRow {
	out := make([]types.ReportRow, 0, len(rows))
	for _, row := range rows {
		if p.Contains(row.PaymentDate) {
			out = append(out, row)
		}
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// LOCALIZED DATES
// =============================================================================

var monthNames = map[string][12]string{
	"en": {"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"},
	"id": {"Januari", "Februari", "Maret", "April", "Mei", "Juni",
		"Juli", "Agustus", "September", "Oktober", "November", "Desember"},
}

// SupportedLocales lists the accepted date_locale values.
func SupportedLocales() []string {
	return []string{"en", "id"}
}

// months returns the month name table for locale, or an error. An empty
// locale means English.
func months(locale string) ([12]string, error) {
	if locale == "" {
		locale = "en"
	}
	names, ok := monthNames[strings.ToLower(locale)]
	if !ok {
		return [12]string{}, &validation.ValidationError{
			Field:   "date_locale",
			Value:   locale,
			Message: fmt.Sprintf("must be one of %v", SupportedLocales()),
		}
	}
	return names, nil
}

// formatLongDate renders t as "02 January 2006" with localized month names.
func formatLongDate(t time.Time, names [12]string) string {
	return fmt.Sprintf("%02d %s %d", t.Day(), names[t.Month()-1], t.Year())
}
