package sessions

import (
	"context"
	"database/sql"
	"time"

	. "github.com/roelfdiedericks/taskclaw/internal/logging"
	"github.com/roelfdiedericks/taskclaw/internal/store"
)

// Patch describes a `sessions modify` invocation.
type Patch struct {
	Start *time.Time

	End      *time.Time
	ClearEnd bool // `end:none`
}

// Modify applies patch to session id, honoring the overlap invariant
// unless force is set. Clearing end (`end:none`) is only permitted on a
// closed session, and only when no other session is currently open.
func Modify(ctx context.Context, s *store.Store, now time.Time, id int64, patch Patch, force bool) (Session, error) {
	existing, err := GetByID(ctx, s, id)
	if err != nil {
		return Session{}, err
	}
	if patch.ClearEnd && existing.EndTs == nil {
		return Session{}, invariant("cannot clear end: session is already open")
	}

	newStart := existing.StartTs
	if patch.Start != nil {
		newStart = *patch.Start
	}
	var newEnd *time.Time
	switch {
	case patch.ClearEnd:
		newEnd = nil
	case patch.End != nil:
		newEnd = patch.End
	default:
		newEnd = existing.EndTs
	}

	if newEnd != nil && newEnd.Before(newStart) {
		return Session{}, invariant("session end cannot precede its start")
	}

	var result Session
	err = s.WithTx(ctx, func(tx *sql.Tx) error {
		if patch.ClearEnd {
			open, hasOpen, err := openWithinTx(ctx, tx)
			if err != nil {
				return err
			}
			if hasOpen && open.ID != id {
				return invariant("cannot clear end: another session is already open")
			}
		}

		if !force {
			effectiveEnd := now
			if newEnd != nil {
				effectiveEnd = *newEnd
			}
			conflicts, err := allOverlapping(ctx, tx, id, newStart, effectiveEnd, now)
			if err != nil {
				return err
			}
			if len(conflicts) > 0 {
				return sessionConflict(conflicts)
			}
		}

		var endArg interface{}
		if newEnd != nil {
			endArg = newEnd.Unix()
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE sessions SET start_ts = ?, end_ts = ? WHERE id = ?`,
			newStart.Unix(), endArg, id); err != nil {
			return err
		}

		result = Session{ID: id, TaskID: existing.TaskID, StartTs: newStart, EndTs: newEnd, CreatedTs: existing.CreatedTs}
		return nil
	})
	if err != nil {
		if _, ok := err.(*Error); ok {
			return Session{}, err
		}
		return Session{}, storeError("modify session", err)
	}
	L_debug("sessions: modified", "id", id)
	return result, nil
}
