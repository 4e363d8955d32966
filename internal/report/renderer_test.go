package report

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renang/report-export/internal/types"
	"github.com/renang/report-export/internal/validation"
)

func row(class, member, status string, amount int64) types.ReportRow {
	s, err := types.ParseStatus(status)
	if err != nil {
		panic(err)
	}
	return types.ReportRow{
		PaymentDate:       time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		ClassName:         class,
		MemberName:        member,
		Description:       "Paket 8x",
		Amount:            types.MoneyFromInt(amount),
		PhoneNumber:       "0812000111",
		RemainingSessions: 4,
		Status:            s,
	}
}

func TestSplitPreservesFirstAppearance(t *testing.T) {
	rows := []types.ReportRow{
		row("B", "1", "completed", 1),
		row("A", "2", "completed", 1),
		row("B", "3", "completed", 1),
		row("C", "4", "completed", 1),
		row("A", "5", "completed", 1),
	}

	groups := Split(rows, types.GroupByClass)
	require.Len(t, groups, 3)

	assert.Equal(t, "B", groups[0].Key)
	assert.Equal(t, "A", groups[1].Key)
	assert.Equal(t, "C", groups[2].Key)

	var members []string
	for _, r := range groups[0].Rows {
		members = append(members, r.MemberName)
	}
	assert.Equal(t, []string{"1", "3"}, members)

	total := 0
	for _, g := range groups {
		total += len(g.Rows)
	}
	assert.Equal(t, len(rows), total)
}

func TestSplitEmpty(t *testing.T) {
	groups := Split(nil, types.GroupByClass)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestRenderHeaderBlock(t *testing.T) {
	r := DefaultRenderer()
	rows := []types.ReportRow{
		row("Renang Dasar", "Budi", "in_progress", 400000),
		row("Renang Dasar", "Sari", "completed", 350000),
	}

	doc, err := r.Render("Renang Dasar", rows, "2024-01-01", "2024-01-31")
	require.NoError(t, err)

	assert.Equal(t, "Renang Dasar", doc.Name)
	assert.Equal(t, "LAPORAN MEMBER - RENANG DASAR", doc.Heading)
	assert.Equal(t, "Periode: 01 January 2024 – 31 January 2024", doc.Period)
	assert.Len(t, doc.Headings, ColumnCount)
	require.Len(t, doc.Rows, 2)

	assert.Equal(t, "Berlangsung", doc.Rows[0].Status)
	assert.Equal(t, "Selesai", doc.Rows[1].Status)
	assert.Equal(t, "2024-01-10", doc.Rows[0].PaymentDate)
	assert.Len(t, doc.Rows[0].Values(), ColumnCount)
	assert.Equal(t, "400,000", doc.Rows[0].Texts()[3])
}

func TestRenderIndonesianMonths(t *testing.T) {
	r, err := NewRenderer(Options{DateLocale: "id"})
	require.NoError(t, err)

	doc, err := r.Render("Renang Dasar", nil, "2024-08-01", "2024-12-31")
	require.NoError(t, err)
	assert.Equal(t, "Periode: 01 Agustus 2024 – 31 Desember 2024", doc.Period)
	assert.Empty(t, doc.Rows)
}

func TestRenderBadDate(t *testing.T) {
	_, err := DefaultRenderer().Render("A", nil, "not-a-date", "2024-01-31")
	var fe *validation.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "start_date", fe.Field)

	_, err = DefaultRenderer().Render("A", nil, "2024-01-01", "")
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "end_date", fe.Field)
}

func TestRenderIsIdempotent(t *testing.T) {
	r := DefaultRenderer()
	rows := []types.ReportRow{row("X", "Budi", "completed", 1)}

	a, err := r.Render("X", rows, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	b, err := r.Render("X", rows, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNormalizeTitle(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Renang Dasar", "Renang Dasar"},
		{"  Renang   Dasar ", "Renang Dasar"},
		{"", "Other"},
		{"-", "Other"},
		{" - ", "Other"},
		{"Kelas A/B: Pagi?", "Kelas A B Pagi"},
		{"[Privat]", "(Privat)"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeTitle(tc.in, "Other"), tc.in)
	}

	long := strings.Repeat("Renang ", 10)
	got := NormalizeTitle(long, "Other")
	assert.LessOrEqual(t, utf8.RuneCountInString(got), MaxSheetNameLength)
	assert.True(t, strings.HasPrefix(long, got))

	apostrophe := NormalizeTitle(strings.Repeat("a", 30)+"'s Kelas Sore", "Other")
	assert.Equal(t, strings.Repeat("a", 30), apostrophe)

	assert.Equal(t, "Jum'at", NormalizeTitle("'Jum'at'", "Other"))
	assert.Equal(t, "Other", NormalizeTitle("' '", "Other"))

	multi := strings.Repeat("é", 40)
	assert.Equal(t, MaxSheetNameLength, utf8.RuneCountInString(NormalizeTitle(multi, "Other")))
}

func TestRenderFallbackTitles(t *testing.T) {
	r := DefaultRenderer()

	doc, err := r.Render("-", nil, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, "Other", doc.Name)
	assert.Equal(t, "LAPORAN MEMBER - OTHER", doc.Heading)

	docs, err := r.Assemble(nil, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Laporan", docs[0].Name)
	assert.Empty(t, docs[0].Rows)
	assert.Len(t, docs[0].Headings, ColumnCount)
}

func TestNewRendererRejectsBadOptions(t *testing.T) {
	_, err := NewRenderer(Options{DateLocale: "fr"})
	assert.Equal(t, validation.KindValidation, validation.KindOf(err))

	_, err = NewRenderer(Options{CollisionPolicy: "merge"})
	assert.Equal(t, validation.KindValidation, validation.KindOf(err))
}

func TestCustomLabels(t *testing.T) {
	labels := Labels{FallbackGroupLabel: "Lainnya", Headings: []string{"only one"}}
	r, err := NewRenderer(Options{Labels: labels})
	require.NoError(t, err)

	doc, err := r.Render("", nil, "2024-01-01", "2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, "Lainnya", doc.Name)
	assert.Equal(t, DefaultLabels().Headings, doc.Headings)
}

func TestFilterByPeriod(t *testing.T) {
	mk := func(day int) types.ReportRow {
		r := row("A", "m", "completed", 1)
		r.PaymentDate = time.Date(2024, 1, day, 15, 30, 0, 0, time.UTC)
		return r
	}
	rows := []types.ReportRow{mk(1), mk(15), mk(31)}

	p, err := ParsePeriod("2024-01-01", "2024-01-15")
	require.NoError(t, err)

	got := FilterByPeriod(rows, p)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].PaymentDate.Day())
	assert.Equal(t, 15, got[1].PaymentDate.Day())
}
