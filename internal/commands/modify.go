package commands

import (
	"context"
	"fmt"

	"github.com/roelfdiedericks/taskclaw/internal/tasks"
)

// cmdModify implements `<selector> modify <attrs...>`, applying the same
// patch to every task the selector matches, each in its own transaction.
func cmdModify(ctx context.Context, env *Env, sel selector, args []string) (string, error) {
	if sel.empty() {
		return "", parseError("modify requires a selector")
	}
	now := env.now()
	a, err := parseAttrs(args, now)
	if err != nil {
		return "", err
	}

	matched, err := sel.resolve(ctx, env)
	if err != nil {
		return "", err
	}
	if len(matched) == 0 {
		return "", notFound("no task matches " + sel.raw)
	}
	if !env.confirm(len(matched)) {
		return "", parseError(fmt.Sprintf("modify would affect %d tasks; rerun with --yes to confirm", len(matched)))
	}

	patch := tasks.Patch{
		DueTs: a.Due, ClearDue: a.ClearDue,
		ScheduledTs: a.Scheduled, ClearScheduled: a.ClearSched,
		WaitTs: a.Wait, ClearWait: a.ClearWait,
		AllocSecs: a.AllocSecs, ClearAlloc: a.ClearAlloc,
		Template:  a.Template,
		Recur:     a.Recur, ClearRecur: a.ClearRecur,
		ClearProject: a.ClearProject,
		AddTags:    a.AddTags,
		RemoveTags: a.RemoveTags,
		SetUDAs:    a.SetUDAs,
		RemoveUDAs: a.RemoveUDAs,
	}
	if a.Description != "" {
		patch.Description = &a.Description
	}
	if a.Project != nil {
		proj, err := resolveOrCreateProject(ctx, env, *a.Project)
		if err != nil {
			return "", err
		}
		patch.ProjectID = &proj.ID
	}

	var ids []int64
	for _, t := range matched {
		if _, err := tasks.Modify(ctx, env.Store, now, t.ID, patch); err != nil {
			return "", wrap("modify task", err)
		}
		ids = append(ids, t.ID)
	}
	return fmt.Sprintf("Modified %d task(s): %v", len(ids), ids), nil
}
