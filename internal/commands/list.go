package commands

import (
	"context"

	"github.com/roelfdiedericks/taskclaw/internal/format"
)

// cmdList implements `list`, accepting a filter either as a leading
// selector (`project:work list`) or as a trailing argument (`list
// project:work`) — both forms must produce identical rows.
func cmdList(ctx context.Context, env *Env, sel selector, args []string) (string, error) {
	if sel.empty() && len(args) > 0 {
		sel = newSelector(args)
	}

	matched, err := sel.resolve(ctx, env)
	if err != nil {
		return "", err
	}

	names, err := projectNameIndex(ctx, env)
	if err != nil {
		return "", err
	}
	rows := make([]format.TaskRow, 0, len(matched))
	for _, t := range matched {
		var projectName string
		if t.ProjectID != nil {
			projectName = names[*t.ProjectID]
		}
		rows = append(rows, format.TaskRow{
			ID: t.ID, UUID: t.UUID, Description: t.Description, Status: string(t.Status),
			Project: projectName, Tags: t.Tags, DueTs: t.DueTs, ScheduledTs: t.ScheduledTs, WaitTs: t.WaitTs,
		})
	}
	return format.Tasks(rows, env.JSONOutput)
}
