package format

import (
	"strconv"
	"strings"
	"time"
)

// SessionRow is the rendering-layer projection of a session plus its
// resolved task description.
type SessionRow struct {
	ID          int64      `json:"id"`
	TaskID      int64      `json:"task_id"`
	TaskDesc    string     `json:"task_description,omitempty"`
	StartTs     time.Time  `json:"start_ts"`
	EndTs       *time.Time `json:"end_ts,omitempty"`
	Annotations []string   `json:"annotations,omitempty"`
}

func (r SessionRow) durationSecs(now time.Time) int64 {
	end := now
	if r.EndTs != nil {
		end = *r.EndTs
	}
	return int64(end.Sub(r.StartTs).Seconds())
}

// Sessions renders rows as a table ("No sessions found." when empty) or,
// if jsonOut is set, a pretty-printed JSON array.
func Sessions(rows []SessionRow, now time.Time, jsonOut bool) (string, error) {
	if jsonOut {
		if rows == nil {
			rows = []SessionRow{}
		}
		return renderJSON(rows)
	}

	status := func(i int) string {
		if rows[i].EndTs == nil {
			return "open"
		}
		return "closed"
	}

	cols := []column{
		{header: "ID", minWidth: 4, value: func(i int) string { return strconv.FormatInt(rows[i].ID, 10) }},
		{header: "Task", minWidth: 20, value: func(i int) string { return rows[i].TaskDesc }},
		{header: "Start", minWidth: 19, value: func(i int) string { t := rows[i].StartTs; return renderTimestamp(&t) }},
		{header: "End", minWidth: 19, value: func(i int) string { return renderTimestamp(rows[i].EndTs) }},
		{header: "Duration", minWidth: 9, value: func(i int) string { return FormatDuration(rows[i].durationSecs(now)) }},
		{header: "Status", minWidth: 6, value: status},
	}
	return renderTable(len(rows), cols, "No sessions found."), nil
}

// ShowSession renders a single session's detail plus its linked
// annotations, mirroring the original's `sessions show` "Linked
// Annotations" block.
func ShowSession(row SessionRow, now time.Time, jsonOut bool) (string, error) {
	if jsonOut {
		return renderJSON(row)
	}

	var sb strings.Builder
	sb.WriteString("Session ")
	sb.WriteString(strconv.FormatInt(row.ID, 10))
	sb.WriteString("\n")
	sb.WriteString("  Task:     " + row.TaskDesc + "\n")
	sb.WriteString("  Start:    " + renderTimestamp(&row.StartTs) + "\n")
	if row.EndTs != nil {
		sb.WriteString("  End:      " + renderTimestamp(row.EndTs) + "\n")
	} else {
		sb.WriteString("  End:      (open)\n")
	}
	sb.WriteString("  Duration: " + FormatDuration(row.durationSecs(now)) + "\n")
	if len(row.Annotations) > 0 {
		sb.WriteString("  Linked Annotations:\n")
		for _, a := range row.Annotations {
			sb.WriteString("    - " + a + "\n")
		}
	}
	return sb.String(), nil
}
