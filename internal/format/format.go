// Package format renders tool output in the two modes every command
// supports: a human-readable table and a pretty-printed JSON array. Each
// entity gets its own JSON-shaped view struct (field names match the
// attribute names in the data model) and a column list driving the table.
package format

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// column is one table field: a name for the header and an extractor that
// renders a row's value.
type column struct {
	header   string
	minWidth int
	value    func(row int) string
}

// clip truncates s to width chars, replacing the last two with ".." when
// it doesn't fit — the table's "two-dot ellipsis" convention.
func clip(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 2 {
		return s[:width]
	}
	return s[:width-2] + ".."
}

// renderTable lays out n rows of cols, computing each column's width from
// the longest of its header and its observed values (floored at minWidth).
func renderTable(n int, cols []column, emptyMsg string) string {
	if n == 0 {
		return emptyMsg
	}

	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = max(c.minWidth, len(c.header))
	}
	for r := 0; r < n; r++ {
		for i, c := range cols {
			if l := len(c.value(r)); l > widths[i] {
				widths[i] = l
			}
		}
	}

	var sb strings.Builder
	for i, c := range cols {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%-*s", widths[i], c.header)
	}
	sb.WriteByte('\n')

	total := len(cols) - 1
	for _, w := range widths {
		total += w
	}
	sb.WriteString(strings.Repeat("-", total))
	sb.WriteByte('\n')

	for r := 0; r < n; r++ {
		for i, c := range cols {
			if i > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%-*s", widths[i], clip(c.value(r), widths[i]))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// renderJSON pretty-prints v (a slice of rows, or a single row for
// ShowSession), matching the entity attribute names from the data model.
func renderJSON(v interface{}) (string, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render JSON: %w", err)
	}
	return string(out), nil
}

func renderDate(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.Local().Format("2006-01-02")
}

func renderTimestamp(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}

func tagString(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = "+" + t
	}
	return strings.Join(parts, " ")
}

// FormatDuration renders seconds as "1h30m0s"/"30m0s"/"45s", matching the
// original's format_duration.
func FormatDuration(secs int64) string {
	hours := secs / 3600
	minutes := (secs % 3600) / 60
	seconds := secs % 60
	switch {
	case hours > 0:
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
