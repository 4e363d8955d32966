// =============================================================================
// Report Export - Shared Types
// =============================================================================
//
// This package contains the record types shared by every stage of the export
// pipeline, to avoid import cycles. Types defined here are used by:
//   - csvparser / xlsxparser / source (producers)
//   - report (grouping, sheet rendering, financial rendering)
//   - xlsxwriter / markup (serializers)
//
// Every record is immutable once constructed: producers build rows through
// NewReportRow, which validates all fields, and consumers only read them.
//
// =============================================================================

package types

import (
	"strings"
	"time"

	"github.com/renang/report-export/internal/validation"
)

// =============================================================================
// MEMBER PAYMENT ROWS
// =============================================================================

// ReportRow is a single member payment record.
type ReportRow struct {
	// PaymentDate is the date the payment was recorded.
	PaymentDate time.Time

	// ClassName is the swimming class (subject) the member is enrolled in.
	// This is the default grouping key.
	ClassName string

	// MemberName is the member's display name.
	MemberName string

	// Description is the free-text payment description.
	Description string

	// Amount is the amount paid.
	Amount Money

	// PhoneNumber is kept as text so leading zeros and "+62" survive.
	PhoneNumber string

	// RemainingSessions is the number of sessions left on the enrollment.
	RemainingSessions int

	// Status is the enrollment status.
	Status Status
}

// RawRow is an unvalidated row as it arrives from a CSV file, a worksheet
// or a JSON request body.
type RawRow struct {
	PaymentDate       string `json:"payment_date" yaml:"payment_date"`
	ClassName         string `json:"class_name" yaml:"class_name"`
	MemberName        string `json:"member_name" yaml:"member_name"`
	Description       string `json:"description" yaml:"description"`
	Amount            string `json:"amount" yaml:"amount"`
	PhoneNumber       string `json:"phone_number" yaml:"phone_number"`
	RemainingSessions string `json:"remaining_sessions" yaml:"remaining_sessions"`
	Status            string `json:"status" yaml:"status"`
}

// NewReportRow validates raw and builds a ReportRow.
//
// RETURNS:
//   - The typed row.
//   - A *validation.FormatError for a bad payment date, or a
//     *validation.ValidationError for any other malformed field.
func NewReportRow(raw RawRow) (ReportRow, error) {
	date, err := validation.ParseDate("payment_date", raw.PaymentDate)
	if err != nil {
		return ReportRow{}, err
	}

	if err := validation.RequireNonEmpty("member_name", raw.MemberName); err != nil {
		return ReportRow{}, err
	}

	amount, err := ParseMoney("amount", raw.Amount)
	if err != nil {
		return ReportRow{}, err
	}

	sessions, err := validation.ParseCount("remaining_sessions", raw.RemainingSessions)
	if err != nil {
		return ReportRow{}, err
	}

	status, err := ParseStatus(raw.Status)
	if err != nil {
		return ReportRow{}, err
	}

	return ReportRow{
		PaymentDate:       date,
		ClassName:         strings.TrimSpace(raw.ClassName),
		MemberName:        strings.TrimSpace(raw.MemberName),
		Description:       strings.TrimSpace(raw.Description),
		Amount:            amount,
		PhoneNumber:       strings.TrimSpace(raw.PhoneNumber),
		RemainingSessions: sessions,
		Status:            status,
	}, nil
}

// =============================================================================
// GROUPING
// =============================================================================

// GroupField selects the row field used to partition rows into sheets.
type GroupField int

const (
	// GroupByClass groups rows by ClassName. This is the default.
	GroupByClass GroupField = iota
	// GroupByStatus groups rows by the status label.
	GroupByStatus
	// GroupByMember groups rows by MemberName.
	GroupByMember
)

// Key returns the grouping value of row for this field.
func (g GroupField) Key(row ReportRow) string {
	switch g {
	case GroupByStatus:
		return row.Status.String()
	case GroupByMember:
		return row.MemberName
	default:
		return row.ClassName
	}
}

// ParseGroupField maps a config/flag value to a GroupField.
func ParseGroupField(s string) (GroupField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "class", "class_name", "subject":
		return GroupByClass, nil
	case "status":
		return GroupByStatus, nil
	case "member", "member_name":
		return GroupByMember, nil
	default:
		return GroupByClass, &validation.ValidationError{Field: "group_by", Value: s, Message: "must be one of class, status, member"}
	}
}

// ReportGroup is a partition of rows sharing one group key.
type ReportGroup struct {
	// Key is the grouping value shared by all rows.
	Key string

	// Rows keeps the rows in their input order.
	Rows []ReportRow
}

// =============================================================================
// FINANCIAL AGGREGATES
// =============================================================================

// FinancialSummary holds caller-computed totals. The renderer passes them
// through unmodified.
type FinancialSummary struct {
	TotalIncome  Money
	TotalExpense Money
	NetProfit    Money
	Receivables  Money
}

// BreakdownEntry is one named line item contributing to a total.
type BreakdownEntry struct {
	Name   string
	Amount Money
}
