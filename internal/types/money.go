package types

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/renang/report-export/internal/validation"
)

// Money is a currency amount in rupiah.
type Money = decimal.Decimal

// ParseMoney parses a plain decimal amount, optionally prefixed with "Rp".
// Thousands separators are rejected because "1.500" is ambiguous between
// locales.
func ParseMoney(field, value string) (Money, error) {
	s := strings.TrimSpace(value)
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(s, "Rp"), "rp"))

	fail := func(msg string) (Money, error) {
		return decimal.Zero, &validation.ValidationError{Field: field, Value: value, Message: msg}
	}

	if s == "" {
		return fail("amount is required")
	}
	if strings.Count(s, ".") > 1 || strings.Contains(s, ",") {
		return fail("thousands separators are not allowed")
	}
	for i, r := range s {
		if (r == '-' || r == '+') && i == 0 {
			continue
		}
		if r != '.' && (r < '0' || r > '9') {
			return fail("not a number")
		}
	}

	d, err := decimal.NewFromString(strings.TrimPrefix(s, "+"))
	if err != nil {
		return fail("not a number")
	}

	return d, nil
}

// MoneyFromInt builds an amount from whole rupiah.
func MoneyFromInt(v int64) Money {
	return decimal.NewFromInt(v)
}

// MoneyFromCents builds an amount from hundredths of a rupiah, the unit the
// payments store keeps.
func MoneyFromCents(cents int64) Money {
	return decimal.New(cents, -2)
}

// Cents converts m to hundredths, rounding half away from zero.
func Cents(m Money) int64 {
	return m.Shift(2).Round(0).IntPart()
}
