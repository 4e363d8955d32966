package report

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/renang/report-export/internal/types"
)

// FormatAmount renders m with the digit grouping of tag, e.g. "1,500,000"
// for English and "1.500.000" for Indonesian. Fractions are kept to two
// places.
func FormatAmount(m types.Money, tag language.Tag) string {
	p := message.NewPrinter(tag)
	if m.IsInteger() {
		return p.Sprintf("%d", m.IntPart())
	}
	return p.Sprintf("%.2f", m.Round(2).InexactFloat64())
}

// LocaleTag maps a date_locale value to a language tag.
func LocaleTag(locale string) language.Tag {
	if locale == "id" {
		return language.Indonesian
	}
	return language.English
}
