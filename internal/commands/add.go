package commands

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roelfdiedericks/taskclaw/internal/projects"
	"github.com/roelfdiedericks/taskclaw/internal/sessions"
	"github.com/roelfdiedericks/taskclaw/internal/stack"
	"github.com/roelfdiedericks/taskclaw/internal/tasks"
)

// cmdAdd creates a task and, when an action flag is given, applies it in
// the same transaction as the create — a crash partway through --finish,
// --close, --on, or --onoff never leaves a task created without the
// session/completion/stack state the flag promised.
func cmdAdd(ctx context.Context, env *Env, args []string) (string, error) {
	now := env.now()
	a, err := parseAttrs(args, now)
	if err != nil {
		return "", err
	}
	if a.Description == "" {
		return "", parseError("add requires a non-empty description")
	}

	in := tasks.CreateInput{
		Description: a.Description,
		DueTs:       a.Due,
		ScheduledTs: a.Scheduled,
		WaitTs:      a.Wait,
		AllocSecs:   a.AllocSecs,
		Tags:        a.AddTags,
		UDAs:        a.SetUDAs,
	}
	if a.Template != nil {
		in.Template = *a.Template
	}
	if a.Recur != nil {
		in.Recur = *a.Recur
	}

	var created tasks.Task
	var notes []string
	err = env.Store.WithTx(ctx, func(tx *sql.Tx) error {
		if a.Project != nil {
			proj, err := resolveOrCreateProjectTx(ctx, tx, now, *a.Project)
			if err != nil {
				return err
			}
			in.ProjectID = &proj.ID
		}

		t, err := tasks.CreateTx(ctx, tx, now, in)
		if err != nil {
			return wrap("create task", err)
		}
		created = t

		switch {
		case a.Finish:
			completed, child, err := tasks.CompleteAndRespawnTx(ctx, tx, now, created.ID)
			if err != nil {
				return wrap("complete task", err)
			}
			created = completed
			if child != nil {
				notes = append(notes, fmt.Sprintf("respawned as task %d", child.ID))
			}
		case a.Close:
			closed, child, err := tasks.CloseAndRespawnTx(ctx, tx, now, created.ID)
			if err != nil {
				return wrap("close task", err)
			}
			created = closed
			if child != nil {
				notes = append(notes, fmt.Sprintf("respawned as task %d", child.ID))
			}
		case a.On:
			if _, err := sessions.OpenTx(ctx, tx, now, created.ID, nil, false, a.Force); err != nil {
				return wrap("open session", err)
			}
			notes = append(notes, "clocked in")
		case a.OnOffInterval != nil:
			start := now
			if a.OnOffInterval.Start != nil {
				start = *a.OnOffInterval.Start
			}
			var end *time.Time
			if a.OnOffInterval.End != nil {
				end = a.OnOffInterval.End
			} else {
				end = &now
			}
			if _, err := sessions.OpenTx(ctx, tx, now, created.ID, &start, false, a.Force); err != nil {
				return wrap("open session", err)
			}
			if _, err := sessions.CloseTx(ctx, tx, now, end); err != nil {
				return wrap("close session", err)
			}
			notes = append(notes, "recorded session")
		}

		if a.Enqueue {
			if err := stack.EnqueueTx(ctx, tx, stack.DefaultStackName, created.ID, now); err != nil {
				return wrap("enqueue task", err)
			}
			notes = append(notes, "enqueued")
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	msg := fmt.Sprintf("Created task %d: %s", created.ID, created.Description)
	for _, n := range notes {
		msg += " (" + n + ")"
	}
	return msg, nil
}

func resolveOrCreateProjectTx(ctx context.Context, tx *sql.Tx, now time.Time, name string) (projects.Project, error) {
	proj, exists, err := projects.GetByNameTx(ctx, tx, name)
	if err != nil {
		return projects.Project{}, wrap("look up project", err)
	}
	if exists {
		return proj, nil
	}
	proj, err = projects.AddTx(ctx, tx, name, now)
	if err != nil {
		return projects.Project{}, wrap("create project", err)
	}
	return proj, nil
}

func resolveOrCreateProject(ctx context.Context, env *Env, name string) (projects.Project, error) {
	proj, exists, err := projects.GetByName(ctx, env.Store, name)
	if err != nil {
		return projects.Project{}, wrap("look up project", err)
	}
	if exists {
		return proj, nil
	}
	proj, err = projects.Add(ctx, env.Store, name)
	if err != nil {
		return projects.Project{}, wrap("create project", err)
	}
	return proj, nil
}
