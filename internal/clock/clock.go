// Package clock composes Stack, Sessions, and Tasks into the four
// operations a single-user timer actually needs: clock in, clock out,
// clock switch, and done. Each keeps the stack, the open session, and the
// task's status mutually consistent even when one step of the composite
// operation fails.
package clock

import (
	"context"
	"database/sql"
	"errors"
	"time"

	. "github.com/roelfdiedericks/taskclaw/internal/logging"
	"github.com/roelfdiedericks/taskclaw/internal/sessions"
	"github.com/roelfdiedericks/taskclaw/internal/stack"
	"github.com/roelfdiedericks/taskclaw/internal/store"
	"github.com/roelfdiedericks/taskclaw/internal/tasks"
)

var (
	// ErrStackEmpty is returned by In when no task is given and the
	// default stack has nothing on top.
	ErrStackEmpty = errors.New("stack is empty")
	// ErrNoOpenSession is returned by Out and Done when no session is open.
	ErrNoOpenSession = errors.New("no session is open")
	// ErrSessionConflict wraps sessions.Error{Kind: KindConflict}.
	ErrSessionConflict = errors.New("session overlaps an existing one")
	// ErrTaskNotFound is returned when an explicit task id doesn't exist.
	ErrTaskNotFound = errors.New("task not found")
	// ErrAmbiguousSelector names a SELECTOR that matches more than one task.
	// Nothing in clock returns it, since clock only ever deals with a single
	// resolved id; the command layer reports that case as a parse error.
	ErrAmbiguousSelector = errors.New("selector matches more than one task")
)

// In opens a session on taskID (the caller resolves "top of default stack"
// vs. an explicit selector before calling In). If another session is open
// on a different task, In fails unless switchExisting is set.
func In(ctx context.Context, s *store.Store, now time.Time, taskID int64, at *time.Time, switchExisting, force bool) (sessions.Session, error) {
	if _, err := tasks.GetByID(ctx, s, taskID); err != nil {
		return sessions.Session{}, classifyTaskErr(err)
	}

	sess, err := sessions.Open(ctx, s, now, taskID, at, switchExisting, force)
	if err != nil {
		return sessions.Session{}, classifySessionErr(err)
	}
	L_debug("clock: in", "task_id", taskID, "session_id", sess.ID)
	return sess, nil
}

// InOnStackTop opens a session on the default stack's top element. It is
// the zero-argument form of `clock in`.
func InOnStackTop(ctx context.Context, s *store.Store, now time.Time, at *time.Time, switchExisting, force bool) (sessions.Session, error) {
	top, ok, err := stack.Top(ctx, s, stack.DefaultStackName)
	if err != nil {
		return sessions.Session{}, err
	}
	if !ok {
		return sessions.Session{}, ErrStackEmpty
	}
	return In(ctx, s, now, top, at, switchExisting, force)
}

// Out closes the single open session.
func Out(ctx context.Context, s *store.Store, now time.Time, at *time.Time) (sessions.Session, error) {
	sess, err := sessions.Close(ctx, s, now, at)
	if err != nil {
		return sessions.Session{}, classifySessionErr(err)
	}
	L_debug("clock: out", "session_id", sess.ID)
	return sess, nil
}

// Switch is `clock out; clock in <task>` performed as Out followed
// immediately by In — the underlying Open call closes the prior session in
// the same transaction it opens the new one (SwitchExisting semantics),
// so there is never a moment with no session at all and the two operations
// in fact collapse to one store transaction.
func Switch(ctx context.Context, s *store.Store, now time.Time, taskID int64, force bool) (sessions.Session, error) {
	return In(ctx, s, now, taskID, nil, true, force)
}

// Result carries everything `done` may have changed so the caller can
// report all of it.
type Result struct {
	Completed tasks.Task
	Child     *tasks.Task
	NextOpen  *sessions.Session
}

// Done completes taskID: closes its open session, removes it from every
// stack, and — if it carries a recurrence rule — spawns its child. If
// openNext is set and the default stack is non-empty after removal, a new
// session opens on the new top. All of this runs inside a single
// transaction: a crash at any point leaves the store exactly as it was
// before Done was called, never half-applied.
func Done(ctx context.Context, s *store.Store, now time.Time, taskID int64, openNext bool) (Result, error) {
	var result Result
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		open, hasOpen, err := sessions.OpenSessionTx(ctx, tx)
		if err != nil {
			return err
		}
		if !hasOpen || open.TaskID != taskID {
			return ErrNoOpenSession
		}

		if _, err := sessions.CloseTx(ctx, tx, now, nil); err != nil {
			return classifySessionErr(err)
		}

		completed, child, err := tasks.CompleteAndRespawnTx(ctx, tx, now, taskID)
		if err != nil {
			return classifyTaskErr(err)
		}

		if err := stack.RemoveFromAllTx(ctx, tx, taskID); err != nil {
			return err
		}

		result = Result{Completed: completed, Child: child}
		if openNext {
			top, ok, err := stack.TopTx(ctx, tx, stack.DefaultStackName)
			if err != nil {
				return err
			}
			if ok {
				if _, err := tasks.GetByIDTx(ctx, tx, top); err != nil {
					return classifyTaskErr(err)
				}
				sess, err := sessions.OpenTx(ctx, tx, now, top, nil, false, false)
				if err != nil {
					return classifySessionErr(err)
				}
				result.NextOpen = &sess
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	L_debug("clock: done", "task_id", taskID, "next_opened", result.NextOpen != nil)
	return result, nil
}

func classifySessionErr(err error) error {
	var sessErr *sessions.Error
	if errors.As(err, &sessErr) {
		switch sessErr.Kind {
		case sessions.KindConflict:
			return &WrappedError{Sentinel: ErrSessionConflict, Err: sessErr}
		case sessions.KindInvariantViolation:
			if sessErr.Msg == "no session is open" {
				return ErrNoOpenSession
			}
		}
	}
	return err
}

func classifyTaskErr(err error) error {
	var taskErr *tasks.Error
	if errors.As(err, &taskErr) && taskErr.Kind == tasks.KindNotFound {
		return &WrappedError{Sentinel: ErrTaskNotFound, Err: taskErr}
	}
	return err
}

// WrappedError lets callers match a clock sentinel with errors.Is while
// Unwrap still exposes the underlying package error for message formatting.
type WrappedError struct {
	Sentinel error
	Err      error
}

func (e *WrappedError) Error() string { return e.Err.Error() }
func (e *WrappedError) Unwrap() error { return e.Err }
func (e *WrappedError) Is(target error) bool { return target == e.Sentinel }
