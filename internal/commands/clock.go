package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/roelfdiedericks/taskclaw/internal/clock"
	"github.com/roelfdiedericks/taskclaw/internal/stack"
	"github.com/roelfdiedericks/taskclaw/internal/timeparse"
)

// cmdClock dispatches `clock in|out|switch`, plus the `on`/`off` sugar
// which redispatches here with "in"/"out" prepended to rest.
func cmdClock(ctx context.Context, env *Env, sel selector, args []string) (string, error) {
	if len(args) == 0 {
		return "", parseError("clock requires a sub-verb: in, out, or switch")
	}
	sub, rest := args[0], args[1:]
	now := env.now()

	switch sub {
	case "in":
		at, switchExisting, force, err := parseClockTimeArgs(rest, now)
		if err != nil {
			return "", err
		}
		if !sel.empty() {
			t, err := sel.resolveSingle(ctx, env)
			if err != nil {
				return "", err
			}
			s, err := clock.In(ctx, env.Store, now, t.ID, at, switchExisting, force)
			if err != nil {
				return "", wrap("clock in", err)
			}
			return fmt.Sprintf("Clocked in on task %d (session %d)", s.TaskID, s.ID), nil
		}
		s, err := clock.InOnStackTop(ctx, env.Store, now, at, switchExisting, force)
		if err != nil {
			return "", wrap("clock in", err)
		}
		return fmt.Sprintf("Clocked in on task %d (session %d)", s.TaskID, s.ID), nil

	case "out":
		at, _, _, err := parseClockTimeArgs(rest, now)
		if err != nil {
			return "", err
		}
		s, err := clock.Out(ctx, env.Store, now, at)
		if err != nil {
			return "", wrap("clock out", err)
		}
		return fmt.Sprintf("Clocked out of task %d (session %d)", s.TaskID, s.ID), nil

	case "switch":
		if len(rest) == 0 {
			return "", parseError("clock switch requires a selector")
		}
		force := false
		var selTokens []string
		for _, tok := range rest {
			if tok == "--force" {
				force = true
				continue
			}
			selTokens = append(selTokens, tok)
		}
		t, err := newSelector(selTokens).resolveSingle(ctx, env)
		if err != nil {
			return "", err
		}
		s, err := clock.Switch(ctx, env.Store, now, t.ID, force)
		if err != nil {
			return "", wrap("clock switch", err)
		}
		return fmt.Sprintf("Switched to task %d (session %d)", s.TaskID, s.ID), nil

	default:
		return "", parseError("unknown clock sub-verb: " + sub)
	}
}

// parseClockTimeArgs picks an optional leading TIME token plus --switch/
// --force flags out of a clock in/out argument list.
func parseClockTimeArgs(args []string, now time.Time) (*time.Time, bool, bool, error) {
	var at *time.Time
	var switchExisting, force bool
	for _, tok := range args {
		switch tok {
		case "--switch":
			switchExisting = true
		case "--force":
			force = true
		default:
			if at != nil {
				return nil, false, false, parseError("unexpected argument: " + tok)
			}
			ts, err := timeparse.ParseTimestamp(tok, now)
			if err != nil {
				return nil, false, false, parseError("invalid time: " + err.Error())
			}
			at = &ts
		}
	}
	return at, switchExisting, force, nil
}

// cmdEnqueue implements `<selector> enqueue`.
func cmdEnqueue(ctx context.Context, env *Env, sel selector) (string, error) {
	if sel.empty() {
		return "", parseError("enqueue requires a selector")
	}
	matched, err := sel.resolve(ctx, env)
	if err != nil {
		return "", err
	}
	if len(matched) == 0 {
		return "", notFound("no task matches " + sel.raw)
	}
	now := env.now()
	var ids []int64
	for _, t := range matched {
		if err := stack.Enqueue(ctx, env.Store, stack.DefaultStackName, t.ID, now); err != nil {
			return "", wrap("enqueue task", err)
		}
		ids = append(ids, t.ID)
	}
	return fmt.Sprintf("Enqueued %d task(s): %v", len(ids), ids), nil
}

// cmdDequeue implements `<selector> dequeue`.
func cmdDequeue(ctx context.Context, env *Env, sel selector) (string, error) {
	if sel.empty() {
		return "", parseError("dequeue requires a selector")
	}
	matched, err := sel.resolve(ctx, env)
	if err != nil {
		return "", err
	}
	if len(matched) == 0 {
		return "", notFound("no task matches " + sel.raw)
	}
	var ids []int64
	for _, t := range matched {
		if err := stack.Dequeue(ctx, env.Store, stack.DefaultStackName, t.ID); err != nil {
			return "", wrap("dequeue task", err)
		}
		ids = append(ids, t.ID)
	}
	return fmt.Sprintf("Dequeued %d task(s): %v", len(ids), ids), nil
}
