package tasks

import (
	"context"
	"database/sql"
	"time"

	"github.com/roelfdiedericks/taskclaw/internal/recur"
	"github.com/roelfdiedericks/taskclaw/internal/store"
)

// GenerateChild derives the prototype of a new pending task from a
// completing parent that carries a `respawn:` or `recur:` rule: same
// description, project, tags, UDAs, allocation, and template; its
// due/scheduled/wait timestamps keep their offset from the start of the
// parent's creation day, re-anchored at the start of the day of the rule's
// next instance (see shiftToInstance).
//
// respawn: is stored in the same recur column as recur:, so both go
// through this function alike. A child whose parent has no template
// records the parent's UUID under recurParentUDA; otherwise it inherits
// the parent's template.
func GenerateChild(parent Task, now time.Time) (CreateInput, error) {
	rule, err := recur.Parse(parent.Recur, now)
	if err != nil {
		return CreateInput{}, invariant("invalid recurrence rule on task " + parent.Description + ": " + err.Error())
	}
	next, err := recur.Next(rule, now)
	if err != nil {
		return CreateInput{}, storeError("compute next recurrence", err)
	}

	in := CreateInput{
		Description: parent.Description,
		ProjectID:   parent.ProjectID,
		AllocSecs:   parent.AllocSecs,
		Recur:       parent.Recur,
		Tags:        append([]string(nil), parent.Tags...),
		UDAs:        copyUDAs(parent.UDAs),
	}

	in.DueTs = shiftToInstance(parent.DueTs, parent.CreatedTs, next)
	in.ScheduledTs = shiftToInstance(parent.ScheduledTs, parent.CreatedTs, next)
	in.WaitTs = shiftToInstance(parent.WaitTs, parent.CreatedTs, next)

	isRecurChild := parent.Template == "" && parent.Recur != ""
	if isRecurChild {
		in.UDAs[recurParentUDA] = parent.UUID
	} else {
		in.Template = parent.Template
	}

	return in, nil
}

// shiftToInstance preserves ts's offset from the start of reference's day,
// replacing that day with next's: the result keeps the original clock time
// and day distance, landing on the date of the rule's next fire time.
func shiftToInstance(ts *time.Time, reference time.Time, next time.Time) *time.Time {
	if ts == nil {
		return nil
	}
	loc := next.Location()
	ref := reference.In(loc)
	refDay := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, loc)
	nextDay := time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, loc)
	shifted := nextDay.Add(ts.Sub(refDay))
	return &shifted
}

func copyUDAs(in map[string]string) map[string]string {
	out := map[string]string{}
	for k, v := range in {
		out[k] = v
	}
	return out
}

// CompleteAndRespawn marks id completed and, if it carries a recurrence
// rule, creates its child in the same transaction as the completion.
func CompleteAndRespawn(ctx context.Context, s *store.Store, now time.Time, id int64) (completed Task, child *Task, err error) {
	err = s.WithTx(ctx, func(tx *sql.Tx) error {
		c, ch, err := CompleteAndRespawnTx(ctx, tx, now, id)
		if err != nil {
			return err
		}
		completed, child = c, ch
		return nil
	})
	if err != nil {
		return Task{}, nil, err
	}
	return completed, child, nil
}

// CompleteAndRespawnTx is CompleteAndRespawn's transaction-scoped variant.
func CompleteAndRespawnTx(ctx context.Context, tx *sql.Tx, now time.Time, id int64) (completed Task, child *Task, err error) {
	completed, err = CompleteTx(ctx, tx, now, id)
	if err != nil {
		return Task{}, nil, err
	}
	if completed.Recur == "" {
		return completed, nil, nil
	}
	in, err := GenerateChild(completed, now)
	if err != nil {
		return completed, nil, err
	}
	childTask, err := CreateTx(ctx, tx, now, in)
	if err != nil {
		return completed, nil, err
	}
	return completed, &childTask, nil
}

// CloseAndRespawn is CompleteAndRespawn's `close` counterpart.
func CloseAndRespawn(ctx context.Context, s *store.Store, now time.Time, id int64) (closed Task, child *Task, err error) {
	err = s.WithTx(ctx, func(tx *sql.Tx) error {
		c, ch, err := CloseAndRespawnTx(ctx, tx, now, id)
		if err != nil {
			return err
		}
		closed, child = c, ch
		return nil
	})
	if err != nil {
		return Task{}, nil, err
	}
	return closed, child, nil
}

// CloseAndRespawnTx is CloseAndRespawn's transaction-scoped variant.
func CloseAndRespawnTx(ctx context.Context, tx *sql.Tx, now time.Time, id int64) (closed Task, child *Task, err error) {
	closed, err = CloseTx(ctx, tx, now, id)
	if err != nil {
		return Task{}, nil, err
	}
	if closed.Recur == "" {
		return closed, nil, nil
	}
	in, err := GenerateChild(closed, now)
	if err != nil {
		return closed, nil, err
	}
	childTask, err := CreateTx(ctx, tx, now, in)
	if err != nil {
		return closed, nil, err
	}
	return closed, &childTask, nil
}
