package types

import (
	"strings"

	"github.com/renang/report-export/internal/validation"
)

// Status is the enrollment status of a member payment row.
type Status int

const (
	StatusInProgress Status = iota + 1
	StatusCompleted
)

// ParseStatus maps stored status values to a Status. Unknown values are
// rejected instead of being shown as completed.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in_progress", "on_progress":
		return StatusInProgress, nil
	case "completed":
		return StatusCompleted, nil
	default:
		return 0, &validation.ValidationError{
			Field:   "status",
			Value:   s,
			Message: "must be one of in_progress, on_progress, completed",
		}
	}
}

// String returns the canonical stored value.
func (s Status) String() string {
	switch s {
	case StatusInProgress:
		return "in_progress"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// StatusLabels holds the display text for each status.
type StatusLabels struct {
	InProgress string `yaml:"in_progress"`
	Completed  string `yaml:"completed"`
}

// DefaultStatusLabels returns the Indonesian labels used on member sheets.
func DefaultStatusLabels() StatusLabels {
	return StatusLabels{
		InProgress: "Berlangsung",
		Completed:  "Selesai",
	}
}

// Label returns the display text for s. The zero Status has no label.
func (l StatusLabels) Label(s Status) string {
	switch s {
	case StatusInProgress:
		return l.InProgress
	case StatusCompleted:
		return l.Completed
	default:
		return ""
	}
}
