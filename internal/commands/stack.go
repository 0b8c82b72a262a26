package commands

import (
	"context"

	"github.com/roelfdiedericks/taskclaw/internal/format"
	"github.com/roelfdiedericks/taskclaw/internal/stack"
	"github.com/roelfdiedericks/taskclaw/internal/tasks"
)

// cmdStack dispatches `stack show|clear` against the default stack.
func cmdStack(ctx context.Context, env *Env, args []string) (string, error) {
	sub := "show"
	if len(args) > 0 {
		sub = args[0]
	}

	switch sub {
	case "show":
		items, err := stack.Show(ctx, env.Store, stack.DefaultStackName)
		if err != nil {
			return "", wrap("show stack", err)
		}
		rows := make([]format.StackRow, 0, len(items))
		for _, it := range items {
			t, err := tasks.GetByID(ctx, env.Store, it.TaskID)
			if err != nil {
				return "", wrap("load stack task", err)
			}
			rows = append(rows, format.StackRow{TaskID: it.TaskID, Ordinal: it.Ordinal, Description: t.Description})
		}
		return format.Stack(rows, env.JSONOutput)

	case "clear":
		if err := stack.Clear(ctx, env.Store, stack.DefaultStackName); err != nil {
			return "", wrap("clear stack", err)
		}
		return "Stack cleared.", nil

	default:
		return "", parseError("unknown stack sub-verb: " + sub)
	}
}
