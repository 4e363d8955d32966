package report

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renang/report-export/internal/types"
	"github.com/renang/report-export/internal/validation"
)

func TestAssembleTwoClasses(t *testing.T) {
	rows := []types.ReportRow{
		row("Renang Dasar", "Budi", "in_progress", 400000),
		row("Renang Lanjut", "Ani", "completed", 500000),
		row("Renang Dasar", "Sari", "completed", 350000),
	}

	docs, err := DefaultRenderer().Assemble(rows, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "Renang Dasar", docs[0].Name)
	assert.Equal(t, "Renang Lanjut", docs[1].Name)

	require.Len(t, docs[0].Rows, 2)
	assert.Equal(t, "Budi", docs[0].Rows[0].MemberName)
	assert.Equal(t, "Berlangsung", docs[0].Rows[0].Status)
	assert.Equal(t, "Sari", docs[0].Rows[1].MemberName)
	assert.Equal(t, "Selesai", docs[0].Rows[1].Status)
	require.Len(t, docs[1].Rows, 1)
}

func TestAssembleEmptyYieldsPlaceholder(t *testing.T) {
	docs, err := DefaultRenderer().Assemble([]types.ReportRow{}, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Laporan", docs[0].Name)
	assert.Equal(t, "LAPORAN MEMBER - LAPORAN", docs[0].Heading)
}

func TestAssembleBadPeriodWithEmptyRows(t *testing.T) {
	_, err := DefaultRenderer().Assemble(nil, "31/31/2024", "2024-01-31")
	assert.Equal(t, validation.KindFormat, validation.KindOf(err))
}

func TestAssembleCollisionSuffix(t *testing.T) {
	base := strings.Repeat("a", MaxSheetNameLength)
	rows := []types.ReportRow{
		row(base+"x", "1", "completed", 1),
		row(base+"y", "2", "completed", 1),
		row("", "3", "completed", 1),
		row("-", "4", "completed", 1),
		row("OTHER", "5", "completed", 1),
	}

	docs, err := DefaultRenderer().Assemble(rows, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	require.Len(t, docs, 5)

	assert.Equal(t, base, docs[0].Name)
	assert.Equal(t, strings.Repeat("a", MaxSheetNameLength-4)+" (2)", docs[1].Name)
	assert.Equal(t, "Other", docs[2].Name)
	assert.Equal(t, "Other (2)", docs[3].Name)
	assert.Equal(t, "OTHER (3)", docs[4].Name)

	seen := map[string]bool{}
	for _, d := range docs {
		assert.LessOrEqual(t, utf8.RuneCountInString(d.Name), MaxSheetNameLength)
		key := strings.ToLower(d.Name)
		assert.False(t, seen[key], d.Name)
		seen[key] = true
	}
}

func TestAssembleCollisionFail(t *testing.T) {
	r, err := NewRenderer(Options{CollisionPolicy: CollisionFail})
	require.NoError(t, err)

	rows := []types.ReportRow{
		row("Kelas: Pagi", "1", "completed", 1),
		row("Kelas  Pagi", "2", "completed", 1),
	}

	_, err = r.Assemble(rows, "2024-01-01", "2024-01-31")
	var ne *validation.NamingCollisionError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "Kelas Pagi", ne.Title)
	assert.Equal(t, "Kelas: Pagi", ne.FirstKey)
	assert.Equal(t, "Kelas  Pagi", ne.OtherKey)
}

func TestAssembleGroupByStatus(t *testing.T) {
	r, err := NewRenderer(Options{GroupBy: types.GroupByStatus})
	require.NoError(t, err)

	rows := []types.ReportRow{
		row("A", "1", "completed", 1),
		row("B", "2", "on_progress", 1),
		row("C", "3", "completed", 1),
	}

	docs, err := r.Assemble(rows, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "completed", docs[0].Name)
	assert.Len(t, docs[0].Rows, 2)
	assert.Equal(t, "in_progress", docs[1].Name)
}

func TestAssembleIsIdempotent(t *testing.T) {
	rows := []types.ReportRow{
		row("Renang Dasar", "Budi", "in_progress", 400000),
		row("Renang Lanjut", "Ani", "completed", 500000),
	}
	r := DefaultRenderer()

	a, err := r.Assemble(rows, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	b, err := r.Assemble(rows, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
