package commands

import (
	"context"
	"fmt"

	"github.com/roelfdiedericks/taskclaw/internal/tasks"
)

// cmdDelete implements `<selector> delete`, soft-deleting every matched
// task. Multi-target deletes go through the same confirmation gate as
// modify and annotate.
func cmdDelete(ctx context.Context, env *Env, sel selector) (string, error) {
	if sel.empty() {
		return "", parseError("delete requires a selector")
	}

	matched, err := sel.resolve(ctx, env)
	if err != nil {
		return "", err
	}
	if len(matched) == 0 {
		return "", notFound("no task matches " + sel.raw)
	}
	if !env.confirm(len(matched)) {
		return "", parseError(fmt.Sprintf("delete would affect %d tasks; rerun with --yes to confirm", len(matched)))
	}

	now := env.now()
	var ids []int64
	for _, t := range matched {
		if err := tasks.Delete(ctx, env.Store, now, t.ID); err != nil {
			return "", wrap("delete task", err)
		}
		ids = append(ids, t.ID)
	}
	return fmt.Sprintf("Deleted %d task(s): %v", len(ids), ids), nil
}
