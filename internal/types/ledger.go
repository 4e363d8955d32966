package types

import (
	"strings"
	"time"

	"github.com/renang/report-export/internal/validation"
)

// =============================================================================
// EXPENSES AND RECEIVABLES
// =============================================================================

// Expense is an operating cost such as pool rent or coach fees.
type Expense struct {
	Date        time.Time
	Category    string
	Description string
	Amount      Money
}

// Receivable is an amount a member still owes.
type Receivable struct {
	MemberName string
	DueDate    time.Time
	Amount     Money
	Settled    bool
}

// RawExpense is an unvalidated expense line.
type RawExpense struct {
	Date        string
	Category    string
	Description string
	Amount      string
}

// RawReceivable is an unvalidated receivable line.
type RawReceivable struct {
	MemberName string
	DueDate    string
	Amount     string
	Settled    string
}

// NewExpense validates raw and builds an Expense. The category is required
// because it names the line in the expense breakdown.
func NewExpense(raw RawExpense) (Expense, error) {
	date, err := validation.ParseDate("date", raw.Date)
	if err != nil {
		return Expense{}, err
	}
	if err := validation.RequireNonEmpty("category", raw.Category); err != nil {
		return Expense{}, err
	}
	amount, err := ParseMoney("amount", raw.Amount)
	if err != nil {
		return Expense{}, err
	}

	return Expense{
		Date:        date,
		Category:    strings.TrimSpace(raw.Category),
		Description: strings.TrimSpace(raw.Description),
		Amount:      amount,
	}, nil
}

// NewReceivable validates raw and builds a Receivable.
func NewReceivable(raw RawReceivable) (Receivable, error) {
	if err := validation.RequireNonEmpty("member_name", raw.MemberName); err != nil {
		return Receivable{}, err
	}
	due, err := validation.ParseDate("due_date", raw.DueDate)
	if err != nil {
		return Receivable{}, err
	}
	amount, err := ParseMoney("amount", raw.Amount)
	if err != nil {
		return Receivable{}, err
	}
	settled, err := parseSettled(raw.Settled)
	if err != nil {
		return Receivable{}, err
	}

	return Receivable{
		MemberName: strings.TrimSpace(raw.MemberName),
		DueDate:    due,
		Amount:     amount,
		Settled:    settled,
	}, nil
}

// parseSettled reads a yes/no flag. Blank means not settled.
func parseSettled(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no", "tidak", "belum":
		return false, nil
	case "1", "true", "yes", "ya", "lunas":
		return true, nil
	default:
		return false, &validation.ValidationError{Field: "settled", Value: s, Message: "must be yes or no"}
	}
}
