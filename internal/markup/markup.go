// =============================================================================
// Report Export - HTML Markup Renderer
// =============================================================================
//
// This module renders a FinancialDocument as a standalone HTML page, the
// printable counterpart of the financial workbook. Templates are embedded
// in the binary and parsed once.
//
// Output is a pure function of the document and the locale: rendering the
// same inputs twice yields identical bytes.
//
// =============================================================================

package markup

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/renang/report-export/internal/report"
	"github.com/renang/report-export/internal/types"
)

// ContentType is the MIME type of the rendered page.
const ContentType = "text/html; charset=utf-8"

//go:embed templates/*.html
var templatesFS embed.FS

// base holds the parsed templates. Each render clones it to bind the
// locale-specific amount formatter.
var base = template.Must(
	template.New("markup").
		Funcs(template.FuncMap{"amount": func(types.Money) string { return "" }}).
		ParseFS(templatesFS, "templates/*.html"),
)

type page struct {
	Lang string
	Doc  *report.FinancialDocument
}

// RenderFinancialHTML renders doc as an HTML page. Amounts use the digit
// grouping of locale ("en" or "id").
func RenderFinancialHTML(doc *report.FinancialDocument, locale string) ([]byte, error) {
	tag := report.LocaleTag(locale)

	t, err := base.Clone()
	if err != nil {
		return nil, fmt.Errorf("failed to clone templates: %w", err)
	}
	t.Funcs(template.FuncMap{
		"amount": func(m types.Money) string { return report.FormatAmount(m, tag) },
	})

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "financial", page{Lang: Lang(locale), Doc: doc}); err != nil {
		return nil, fmt.Errorf("failed to render financial page: %w", err)
	}

	return buf.Bytes(), nil
}

// Lang returns the BCP 47 base language for locale.
func Lang(locale string) string {
	b, _ := report.LocaleTag(locale).Base()
	return b.String()
}
