package format

import (
	"fmt"
	"strings"
)

// StackRow is the rendering-layer projection of one stack entry.
type StackRow struct {
	TaskID      int64  `json:"task_id"`
	Ordinal     int    `json:"ordinal"`
	Description string `json:"description,omitempty"`
}

// Stack renders a named stack's contents, matching the original's
// "Stack:\n  [idx] Task N" layout, or a JSON array.
func Stack(rows []StackRow, jsonOut bool) (string, error) {
	if jsonOut {
		if rows == nil {
			rows = []StackRow{}
		}
		return renderJSON(rows)
	}

	if len(rows) == 0 {
		return "Stack is empty.", nil
	}

	var sb strings.Builder
	sb.WriteString("Stack:\n")
	for _, r := range rows {
		if r.Description != "" {
			fmt.Fprintf(&sb, "  [%d] Task %d: %s\n", r.Ordinal, r.TaskID, r.Description)
		} else {
			fmt.Fprintf(&sb, "  [%d] Task %d\n", r.Ordinal, r.TaskID)
		}
	}
	return sb.String(), nil
}
