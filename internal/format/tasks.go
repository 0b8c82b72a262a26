package format

import (
	"strconv"
	"time"
)

// TaskRow is the rendering-layer projection of a task plus its resolved
// project name; building one is the caller's job (it knows which project
// id maps to which name).
type TaskRow struct {
	ID          int64      `json:"id"`
	UUID        string     `json:"uuid"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Project     string     `json:"project,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	DueTs       *time.Time `json:"due_ts,omitempty"`
	ScheduledTs *time.Time `json:"scheduled_ts,omitempty"`
	WaitTs      *time.Time `json:"wait_ts,omitempty"`
}

// Tasks renders rows as a table ("No tasks found." when empty) or, if
// jsonOut is set, a pretty-printed JSON array.
func Tasks(rows []TaskRow, jsonOut bool) (string, error) {
	if jsonOut {
		if rows == nil {
			rows = []TaskRow{}
		}
		return renderJSON(rows)
	}

	cols := []column{
		{header: "ID", minWidth: 4, value: func(i int) string { return strconv.FormatInt(rows[i].ID, 10) }},
		{header: "Description", minWidth: 20, value: func(i int) string { return rows[i].Description }},
		{header: "Status", minWidth: 10, value: func(i int) string { return rows[i].Status }},
		{header: "Project", minWidth: 15, value: func(i int) string { return rows[i].Project }},
		{header: "Tags", minWidth: 20, value: func(i int) string { return tagString(rows[i].Tags) }},
		{header: "Due", minWidth: 12, value: func(i int) string { return renderDate(rows[i].DueTs) }},
	}
	return renderTable(len(rows), cols, "No tasks found."), nil
}
