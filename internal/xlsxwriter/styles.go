package xlsxwriter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/renang/report-export/internal/types"
)

const (
	colorHeaderFill = "#DDEBF7"
	colorBorder     = "#8EA9DB"
	colorPositive   = "#00B050"
	colorNegative   = "#C00000"

	// numFmtThousands is the built-in "#,##0" number format.
	numFmtThousands = 3
	// numFmtThousandsCents is the built-in "#,##0.00" number format, used
	// only for amounts with a fraction.
	numFmtThousandsCents = 4
)

// Styles holds the style IDs registered on one workbook.
type Styles struct {
	title    int
	period   int
	heading  int
	amount   int
	section  int
	label    int
	positive int
	negative int

	amountCents   int
	positiveCents int
	negativeCents int
}

type styleDef struct {
	dst   *int
	name  string
	style *excelize.Style
}

// NewStyles registers every style the writers use on f.
func NewStyles(f *excelize.File) (*Styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: colorBorder, Style: 1},
		{Type: "right", Color: colorBorder, Style: 1},
		{Type: "top", Color: colorBorder, Style: 1},
		{Type: "bottom", Color: colorBorder, Style: 1},
	}

	s := &Styles{}
	defs := []styleDef{
		{&s.title, "title", &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 14},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&s.period, "period", &excelize.Style{
			Font:      &excelize.Font{Size: 11, Italic: true},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		}},
		{&s.heading, "heading", &excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{colorHeaderFill}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
			Border:    border,
		}},
		{&s.amount, "amount", &excelize.Style{
			NumFmt:    numFmtThousands,
			Alignment: &excelize.Alignment{Horizontal: "right"},
		}},
		{&s.section, "section", &excelize.Style{
			Font: &excelize.Font{Bold: true, Size: 12},
		}},
		{&s.label, "label", &excelize.Style{
			Font: &excelize.Font{Bold: true},
		}},
		{&s.positive, "positive", &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: colorPositive},
			NumFmt:    numFmtThousands,
			Alignment: &excelize.Alignment{Horizontal: "right"},
		}},
		{&s.negative, "negative", &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: colorNegative},
			NumFmt:    numFmtThousands,
			Alignment: &excelize.Alignment{Horizontal: "right"},
		}},
	}

	defs = append(defs,
		styleDef{&s.amountCents, "amount cents", &excelize.Style{
			NumFmt:    numFmtThousandsCents,
			Alignment: &excelize.Alignment{Horizontal: "right"},
		}},
		styleDef{&s.positiveCents, "positive cents", &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: colorPositive},
			NumFmt:    numFmtThousandsCents,
			Alignment: &excelize.Alignment{Horizontal: "right"},
		}},
		styleDef{&s.negativeCents, "negative cents", &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: colorNegative},
			NumFmt:    numFmtThousandsCents,
			Alignment: &excelize.Alignment{Horizontal: "right"},
		}},
	)

	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s style: %w", d.name, err)
		}
		*d.dst = id
	}

	return s, nil
}

// forAmount returns whole, or its "#,##0.00" variant when m has a fraction.
func (s *Styles) forAmount(m types.Money, whole int) int {
	if m.IsInteger() {
		return whole
	}
	switch whole {
	case s.positive:
		return s.positiveCents
	case s.negative:
		return s.negativeCents
	default:
		return s.amountCents
	}
}
