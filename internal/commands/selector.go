package commands

import (
	"context"
	"strconv"
	"strings"

	"github.com/roelfdiedericks/taskclaw/internal/filter"
	"github.com/roelfdiedericks/taskclaw/internal/projects"
	"github.com/roelfdiedericks/taskclaw/internal/tasks"
)

// selector is a resolved "[<id>|<filter>]" selector argument.
type selector struct {
	raw string // original token(s), for error messages
}

func newSelector(tokens []string) selector {
	return selector{raw: strings.Join(tokens, " ")}
}

func (s selector) empty() bool { return strings.TrimSpace(s.raw) == "" }

// bareID reports whether the selector is a single task-id token.
func (s selector) bareID() (int64, bool) {
	if s.empty() {
		return 0, false
	}
	if strings.ContainsAny(s.raw, " ") {
		return 0, false
	}
	id, err := strconv.ParseInt(s.raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// resolve returns every non-deleted task the selector matches. An empty
// selector matches every non-deleted task.
func (s selector) resolve(ctx context.Context, env *Env) ([]tasks.Task, error) {
	all, err := tasks.ListAll(ctx, env.Store)
	if err != nil {
		return nil, wrap("list tasks", err)
	}
	if s.empty() {
		return all, nil
	}

	if id, ok := s.bareID(); ok {
		for _, t := range all {
			if t.ID == id {
				return []tasks.Task{t}, nil
			}
		}
		return nil, notFound("task " + s.raw + " not found")
	}

	expr, err := filter.Parse(s.raw)
	if err != nil {
		return nil, wrap("parse filter", err)
	}

	projectNames, err := projectNameIndex(ctx, env)
	if err != nil {
		return nil, err
	}

	now := env.now()
	var matched []tasks.Task
	for _, t := range all {
		view := toTaskView(t, projectNames)
		ok, err := filter.Matches(expr, view, now)
		if err != nil {
			return nil, wrap("evaluate filter", err)
		}
		if ok {
			matched = append(matched, t)
		}
	}
	return matched, nil
}

// resolveSingle is resolve, but requires exactly one match (used by
// `done`, `clock in <selector>`, `clock switch`).
func (s selector) resolveSingle(ctx context.Context, env *Env) (tasks.Task, error) {
	matched, err := s.resolve(ctx, env)
	if err != nil {
		return tasks.Task{}, err
	}
	switch len(matched) {
	case 0:
		return tasks.Task{}, notFound("no task matches " + s.raw)
	case 1:
		return matched[0], nil
	default:
		return tasks.Task{}, parseError("selector " + s.raw + " matches more than one task")
	}
}

func projectNameIndex(ctx context.Context, env *Env) (map[int64]string, error) {
	all, err := projects.List(ctx, env.Store, true)
	if err != nil {
		return nil, wrap("list projects", err)
	}
	out := make(map[int64]string, len(all))
	for _, p := range all {
		out[p.ID] = p.Name
	}
	return out, nil
}

func toTaskView(t tasks.Task, projectNames map[int64]string) filter.TaskView {
	var projectName string
	if t.ProjectID != nil {
		projectName = projectNames[*t.ProjectID]
	}
	return filter.TaskView{
		ID:          t.ID,
		Status:      string(t.Status),
		ProjectName: projectName,
		DueTs:       t.DueTs,
		ScheduledTs: t.ScheduledTs,
		WaitTs:      t.WaitTs,
		Tags:        t.Tags,
	}
}
