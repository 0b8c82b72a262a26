package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/roelfdiedericks/taskclaw/internal/tasks"
)

// cmdAnnotate implements `<selector> annotate <note text>`, refusing a
// multi-target match unless --yes was passed or the user confirms at a
// terminal prompt.
func cmdAnnotate(ctx context.Context, env *Env, sel selector, args []string) (string, error) {
	if sel.empty() {
		return "", parseError("annotate requires a selector")
	}
	note := strings.Join(args, " ")
	if note == "" {
		return "", parseError("annotate requires note text")
	}

	matched, err := sel.resolve(ctx, env)
	if err != nil {
		return "", err
	}
	if len(matched) == 0 {
		return "", notFound("no task matches " + sel.raw)
	}
	if !env.confirm(len(matched)) {
		return "", parseError(fmt.Sprintf("annotate would affect %d tasks; rerun with --yes to confirm", len(matched)))
	}

	now := env.now()
	for _, t := range matched {
		if err := tasks.Annotate(ctx, env.Store, now, t.ID, note, nil); err != nil {
			return "", wrap("annotate task", err)
		}
	}
	return fmt.Sprintf("Annotated %d task(s)", len(matched)), nil
}
