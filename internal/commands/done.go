package commands

import (
	"context"
	"fmt"

	"github.com/roelfdiedericks/taskclaw/internal/clock"
	"github.com/roelfdiedericks/taskclaw/internal/sessions"
)

// cmdDone implements `[selector] done [--next]`. With no selector it
// operates on the task of the currently open session; with one, it
// requires the selector to resolve to exactly that task.
func cmdDone(ctx context.Context, env *Env, sel selector, args []string) (string, error) {
	a, err := parseAttrs(args, env.now())
	if err != nil {
		return "", err
	}

	taskID, err := resolveDoneTarget(ctx, env, sel)
	if err != nil {
		return "", err
	}

	result, err := clock.Done(ctx, env.Store, env.now(), taskID, a.Next)
	if err != nil {
		return "", wrap("mark task done", err)
	}

	msg := fmt.Sprintf("Completed task %d: %s", result.Completed.ID, result.Completed.Description)
	if result.Child != nil {
		msg += fmt.Sprintf(" (respawned as task %d)", result.Child.ID)
	}
	if result.NextOpen != nil {
		msg += fmt.Sprintf(", opened session on task %d", result.NextOpen.TaskID)
	}
	return msg, nil
}

func resolveDoneTarget(ctx context.Context, env *Env, sel selector) (int64, error) {
	if !sel.empty() {
		t, err := sel.resolveSingle(ctx, env)
		if err != nil {
			return 0, err
		}
		return t.ID, nil
	}
	open, ok, err := sessions.OpenSession(ctx, env.Store)
	if err != nil {
		return 0, wrap("look up open session", err)
	}
	if !ok {
		return 0, parseError("no session is open; specify a task")
	}
	return open.TaskID, nil
}
