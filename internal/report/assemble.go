package report

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/renang/report-export/internal/types"
	"github.com/renang/report-export/internal/validation"
)

// Assemble splits rows into groups and renders one sheet per group, in
// first-appearance order.
//
// An empty dataset still yields exactly one sheet, titled with the default
// sheet label and carrying only the header block, so a workbook is never
// empty. Sheet names that collide (case-insensitively, as Excel compares
// them) are resolved by the renderer's collision policy.
//
// RETURNS:
//   - At least one sheet document.
//   - A *validation.FormatError for a bad period bound, or a
//     *validation.NamingCollisionError under the fail policy.
func (r *Renderer) Assemble(rows []types.ReportRow, startDate, endDate string) ([]*SheetDocument, error) {
	period, err := ParsePeriod(startDate, endDate)
	if err != nil {
		return nil, err
	}

	groups := Split(rows, r.groupBy)
	if len(groups) == 0 {
		return []*SheetDocument{r.renderSheet("", r.labels.DefaultSheetLabel, nil, period)}, nil
	}

	docs := make([]*SheetDocument, 0, len(groups))
	used := make(map[string]string, len(groups)) // folded name -> group key

	for _, group := range groups {
		doc := r.renderSheet(group.Key, r.labels.FallbackGroupLabel, group.Rows, period)

		if firstKey, taken := used[foldName(doc.Name)]; taken {
			if r.policy == CollisionFail {
				return nil, &validation.NamingCollisionError{
					Title:    doc.Name,
					FirstKey: firstKey,
					OtherKey: group.Key,
				}
			}
			doc.Name = uniqueName(doc.Name, used)
		}

		used[foldName(doc.Name)] = group.Key
		docs = append(docs, doc)
	}

	return docs, nil
}

// uniqueName appends the smallest " (n)" suffix, n >= 2, that makes name
// unused while keeping it within MaxSheetNameLength runes.
func uniqueName(name string, used map[string]string) string {
	for n := 2; ; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		base := truncateRunes(name, MaxSheetNameLength-utf8.RuneCountInString(suffix))
		candidate := strings.TrimSpace(base) + suffix
		if _, taken := used[foldName(candidate)]; !taken {
			return candidate
		}
	}
}

func foldName(name string) string {
	return strings.ToLower(name)
}
