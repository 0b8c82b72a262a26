package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/roelfdiedericks/taskclaw/internal/format"
	"github.com/roelfdiedericks/taskclaw/internal/sessions"
	"github.com/roelfdiedericks/taskclaw/internal/tasks"
	"github.com/roelfdiedericks/taskclaw/internal/timeparse"
)

var sessionSubVerbs = map[string]bool{"list": true, "show": true, "modify": true, "delete": true}

// cmdSessions dispatches `[selector] sessions list|show|modify|delete`. For
// list/show, SELECTOR aggregates sessions across every task it matches
// (empty selector means every session). For modify/delete, a session id
// precedes the sub-verb instead: `sessions <id> modify end:none`.
func cmdSessions(ctx context.Context, env *Env, sel selector, args []string) (string, error) {
	idx := -1
	for i, tok := range args {
		if sessionSubVerbs[tok] {
			idx = i
			break
		}
	}
	if idx == -1 {
		return cmdSessionsList(ctx, env, sel)
	}
	lead := args[:idx]
	sub := args[idx]
	rest := args[idx+1:]

	switch sub {
	case "list":
		return cmdSessionsList(ctx, env, sel)
	case "show":
		return cmdSessionsShow(ctx, env, sel)
	case "modify":
		if len(lead) != 1 {
			return "", parseError("sessions modify requires a single session id")
		}
		id, err := parseTaskIDArg(lead[0])
		if err != nil {
			return "", err
		}
		return cmdSessionsModify(ctx, env, id, rest)
	case "delete":
		if len(lead) != 1 {
			return "", parseError("sessions delete requires a single session id")
		}
		id, err := parseTaskIDArg(lead[0])
		if err != nil {
			return "", err
		}
		if err := sessions.Delete(ctx, env.Store, id); err != nil {
			return "", wrap("delete session", err)
		}
		return fmt.Sprintf("Deleted session %d", id), nil
	default:
		return "", parseError("unknown sessions sub-verb: " + sub)
	}
}

// sessionsForSelector resolves the sessions to consider for list/show: every
// session on every task the selector matches, or every session in the store
// if the selector is empty.
func sessionsForSelector(ctx context.Context, env *Env, sel selector) ([]sessions.Session, error) {
	if sel.empty() {
		return sessions.ListAll(ctx, env.Store)
	}
	matched, err := sel.resolve(ctx, env)
	if err != nil {
		return nil, err
	}
	var out []sessions.Session
	for _, t := range matched {
		sess, err := sessions.ListForTask(ctx, env.Store, t.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, sess...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTs.After(out[j].StartTs) })
	return out, nil
}

func cmdSessionsList(ctx context.Context, env *Env, sel selector) (string, error) {
	sess, err := sessionsForSelector(ctx, env, sel)
	if err != nil {
		return "", err
	}
	rows := make([]format.SessionRow, 0, len(sess))
	for _, s := range sess {
		t, err := tasks.GetByID(ctx, env.Store, s.TaskID)
		if err != nil {
			return "", wrap("load session's task", err)
		}
		rows = append(rows, format.SessionRow{ID: s.ID, TaskID: s.TaskID, TaskDesc: t.Description, StartTs: s.StartTs, EndTs: s.EndTs})
	}
	return format.Sessions(rows, env.now(), env.JSONOutput)
}

// cmdSessionsShow implements `[selector] sessions show`. A selector matching
// exactly one task uses the per-task current-open-or-most-recent contract
// directly; an empty selector or a multi-task match falls back to the
// aggregate-then-take-latest view across every matched task.
func cmdSessionsShow(ctx context.Context, env *Env, sel selector) (string, error) {
	if !sel.empty() {
		matched, err := sel.resolve(ctx, env)
		if err != nil {
			return "", err
		}
		if len(matched) == 0 {
			return "", notFound("no task matches " + sel.raw)
		}
		if len(matched) == 1 {
			s, ok, err := sessions.ShowCurrentOrLatest(ctx, env.Store, matched[0].ID)
			if err != nil {
				return "", wrap("show session", err)
			}
			if !ok {
				return "No sessions found for this task/filter.", nil
			}
			return renderSessionShow(ctx, env, s)
		}
	}

	sess, err := sessionsForSelector(ctx, env, sel)
	if err != nil {
		return "", err
	}
	if len(sess) == 0 {
		if sel.empty() {
			return "No session is currently running.", nil
		}
		return "No sessions found for this task/filter.", nil
	}
	latest := sess[0]
	for _, s := range sess[1:] {
		if s.StartTs.After(latest.StartTs) {
			latest = s
		}
	}
	return renderSessionShow(ctx, env, latest)
}

func renderSessionShow(ctx context.Context, env *Env, s sessions.Session) (string, error) {
	t, err := tasks.GetByID(ctx, env.Store, s.TaskID)
	if err != nil {
		return "", wrap("load session's task", err)
	}
	anns, err := tasks.AnnotationsForSession(ctx, env.Store, s.ID)
	if err != nil {
		return "", wrap("load session annotations", err)
	}
	notes := make([]string, 0, len(anns))
	for _, a := range anns {
		notes = append(notes, a.Note)
	}
	row := format.SessionRow{ID: s.ID, TaskID: s.TaskID, TaskDesc: t.Description, StartTs: s.StartTs, EndTs: s.EndTs, Annotations: notes}
	return format.ShowSession(row, env.now(), env.JSONOutput)
}

func cmdSessionsModify(ctx context.Context, env *Env, id int64, args []string) (string, error) {
	patch, force, err := parseSessionPatch(args, env.now())
	if err != nil {
		return "", err
	}
	if _, err := sessions.Modify(ctx, env.Store, env.now(), id, patch, force); err != nil {
		return "", wrap("modify session", err)
	}
	return fmt.Sprintf("Modified session %d", id), nil
}

// parseSessionPatch interprets `sessions modify` tokens: start:TS, end:TS,
// end:none, end:now, a single "A..B" interval, and --force.
func parseSessionPatch(args []string, now time.Time) (sessions.Patch, bool, error) {
	var patch sessions.Patch
	var force bool
	for _, tok := range args {
		if tok == "--force" {
			force = true
			continue
		}
		if iv, err := timeparse.ParseInterval(tok, now); err == nil {
			if iv.HasStart {
				patch.Start = iv.Start
			}
			if iv.HasEnd {
				patch.End = iv.End
			}
			continue
		}
		key, value, ok := strings.Cut(tok, ":")
		if !ok {
			return sessions.Patch{}, false, parseError("unrecognised sessions modify token: " + tok)
		}
		switch key {
		case "start":
			ts, err := timeparse.ParseTimestamp(value, now)
			if err != nil {
				return sessions.Patch{}, false, parseError("invalid start: " + err.Error())
			}
			patch.Start = &ts
		case "end":
			if value == "none" {
				patch.ClearEnd = true
				continue
			}
			ts, err := timeparse.ParseTimestamp(value, now)
			if err != nil {
				return sessions.Patch{}, false, parseError("invalid end: " + err.Error())
			}
			patch.End = &ts
		default:
			return sessions.Patch{}, false, parseError("unrecognised sessions modify key: " + key)
		}
	}
	return patch, force, nil
}
