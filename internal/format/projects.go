package format

// ProjectRow is the rendering-layer projection of a project.
type ProjectRow struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	IsArchived bool   `json:"is_archived"`
}

// Projects renders rows as a table ("No projects found." when empty) or,
// if jsonOut is set, a pretty-printed JSON array.
func Projects(rows []ProjectRow, jsonOut bool) (string, error) {
	if jsonOut {
		if rows == nil {
			rows = []ProjectRow{}
		}
		return renderJSON(rows)
	}

	archived := func(i int) string {
		if rows[i].IsArchived {
			return "yes"
		}
		return ""
	}
	cols := []column{
		{header: "Name", minWidth: 15, value: func(i int) string { return rows[i].Name }},
		{header: "Archived", minWidth: 8, value: archived},
	}
	return renderTable(len(rows), cols, "No projects found."), nil
}
