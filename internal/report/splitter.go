// =============================================================================
// Report Export - Grouped Sheet Splitter
// =============================================================================
//
// This module partitions member payment rows into groups, one group per
// sheet of the exported workbook.
//
// GROUPING LOGIC:
//   Rows are grouped by the value of the selected GroupField (the class name
//   by default). Groups appear in the order their key was first seen in the
//   input; rows keep their input order inside each group. Nothing is sorted,
//   filtered or deduplicated.
//
// =============================================================================

package report

import (
	"github.com/renang/report-export/internal/types"
)

// Split groups rows by field, preserving first-appearance order.
//
// PARAMETERS:
//   - rows: The rows to partition. Not modified.
//   - field: The field whose value is the group key.
//
// RETURNS:
//   - One ReportGroup per distinct key. An empty input yields an empty
//     (non-nil) slice; the caller decides the fallback sheet policy.
func Split(rows []types.ReportRow, field types.GroupField) []types.ReportGroup {
	groups := make(map[string][]types.ReportRow)
	groupOrder := []string{} // Maintain order of first occurrence

	for _, row := range rows {
		key := field.Key(row)
		if _, exists := groups[key]; !exists {
			groupOrder = append(groupOrder, key)
		}
		groups[key] = append(groups[key], row)
	}

	result := make([]types.ReportGroup, len(groupOrder))
	for i, key := range groupOrder {
		result[i] = types.ReportGroup{
			Key:  key,
			Rows: groups[key],
		}
	}

	return result
}
