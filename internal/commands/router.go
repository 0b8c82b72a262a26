package commands

import (
	"context"
)

// verbs is the closed set the router recognises. A token that matches one
// of these ends selector accumulation.
var verbs = map[string]bool{
	"add": true, "list": true, "modify": true, "annotate": true,
	"done": true, "delete": true, "clock": true, "on": true, "off": true,
	"enqueue": true, "dequeue": true, "sessions": true, "stack": true,
	"projects": true,
}

// Route turns a full argument vector (everything after the global kong
// flags) into one operation against the domain packages, returning the
// rendered output. The router greedily accumulates leading tokens as a
// selector until it finds a recognised verb; if the very first token is
// already a verb, the selector is empty.
func Route(ctx context.Context, env *Env, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", parseError("no command given")
	}

	verbIdx := -1
	for i, tok := range argv {
		if verbs[tok] {
			verbIdx = i
			break
		}
	}
	if verbIdx == -1 {
		return "", parseError("no recognised verb in: " + joinArgs(argv))
	}

	sel := newSelector(argv[:verbIdx])
	verb := argv[verbIdx]
	rest := argv[verbIdx+1:]

	switch verb {
	case "add":
		return cmdAdd(ctx, env, rest)
	case "list":
		return cmdList(ctx, env, sel, rest)
	case "modify":
		return cmdModify(ctx, env, sel, rest)
	case "annotate":
		return cmdAnnotate(ctx, env, sel, rest)
	case "done":
		return cmdDone(ctx, env, sel, rest)
	case "delete":
		return cmdDelete(ctx, env, sel)
	case "clock":
		return cmdClock(ctx, env, sel, rest)
	case "on":
		return cmdClock(ctx, env, sel, append([]string{"in"}, rest...))
	case "off":
		return cmdClock(ctx, env, sel, append([]string{"out"}, rest...))
	case "enqueue":
		return cmdEnqueue(ctx, env, sel)
	case "dequeue":
		return cmdDequeue(ctx, env, sel)
	case "sessions":
		return cmdSessions(ctx, env, sel, rest)
	case "stack":
		return cmdStack(ctx, env, rest)
	case "projects":
		return cmdProjects(ctx, env, rest)
	default:
		return "", parseError("unknown verb: " + verb)
	}
}

func joinArgs(argv []string) string {
	out := ""
	for i, a := range argv {
		if i > 0 {
			out += " "
		}
		out += a
	}
	return out
}
