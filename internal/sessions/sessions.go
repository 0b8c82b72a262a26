// Package sessions implements half-open timing intervals attached to
// tasks: open ("clock in"), close ("clock out"), modify, delete, list,
// and show. Every transition runs inside a single transaction and
// enforces the at-most-one-open-session and non-overlap invariants
// before it writes.
package sessions

import (
	"context"
	"database/sql"
	"time"

	. "github.com/roelfdiedericks/taskclaw/internal/logging"
	"github.com/roelfdiedericks/taskclaw/internal/store"
)

// Session mirrors the sessions table. EndTs is nil while the session is open.
type Session struct {
	ID        int64
	TaskID    int64
	StartTs   time.Time
	EndTs     *time.Time
	CreatedTs time.Time
}

// IsOpen reports whether the session has no end timestamp yet.
func (s Session) IsOpen() bool { return s.EndTs == nil }

// effectiveEnd returns EndTs, or now if the session is still open — used
// when checking a candidate interval against every other session.
func (s Session) effectiveEnd(now time.Time) time.Time {
	if s.EndTs != nil {
		return *s.EndTs
	}
	return now
}

func scanSession(row interface{ Scan(...interface{}) error }) (Session, error) {
	var s Session
	var start, created int64
	var end sql.NullInt64
	if err := row.Scan(&s.ID, &s.TaskID, &start, &end, &created); err != nil {
		return Session{}, err
	}
	s.StartTs = time.Unix(start, 0)
	s.CreatedTs = time.Unix(created, 0)
	if end.Valid {
		t := time.Unix(end.Int64, 0)
		s.EndTs = &t
	}
	return s, nil
}

// GetByID loads a single session.
func GetByID(ctx context.Context, s *store.Store, id int64) (Session, error) {
	row := s.DB().QueryRowContext(ctx,
		`SELECT id, task_id, start_ts, end_ts, created_ts FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return Session{}, notFound(id)
	}
	if err != nil {
		return Session{}, storeError("load session", err)
	}
	return sess, nil
}

// OpenSession returns the single session with no end_ts, if any.
func OpenSession(ctx context.Context, s *store.Store) (Session, bool, error) {
	row := s.DB().QueryRowContext(ctx,
		`SELECT id, task_id, start_ts, end_ts, created_ts FROM sessions WHERE end_ts IS NULL`)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, storeError("look up open session", err)
	}
	return sess, true, nil
}

// OpenSessionTx is OpenSession's transaction-scoped variant.
func OpenSessionTx(ctx context.Context, tx *sql.Tx) (Session, bool, error) {
	sess, ok, err := openWithinTx(ctx, tx)
	if err != nil {
		return Session{}, false, storeError("look up open session", err)
	}
	return sess, ok, nil
}

// allOverlapping returns every session (other than excludeID) whose
// interval intersects [start, end).
func allOverlapping(ctx context.Context, tx *sql.Tx, excludeID int64, start, end time.Time, now time.Time) ([]int64, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, start_ts, end_ts FROM sessions WHERE id != ?`, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conflicts []int64
	for rows.Next() {
		var id, startTs int64
		var endTs sql.NullInt64
		if err := rows.Scan(&id, &startTs, &endTs); err != nil {
			return nil, err
		}
		otherStart := time.Unix(startTs, 0)
		otherEnd := now
		if endTs.Valid {
			otherEnd = time.Unix(endTs.Int64, 0)
		}
		if start.Before(otherEnd) && otherStart.Before(end) {
			conflicts = append(conflicts, id)
		}
	}
	return conflicts, rows.Err()
}

// Open opens a new session on taskID at startTs (now if nil). If another
// session is already open, the call fails with InvariantViolation unless
// switchExisting is set, in which case the existing session is closed at
// startTs atomically with the new one opening.
func Open(ctx context.Context, s *store.Store, now time.Time, taskID int64, startTs *time.Time, switchExisting, force bool) (Session, error) {
	var created Session
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		sess, err := OpenTx(ctx, tx, now, taskID, startTs, switchExisting, force)
		if err != nil {
			return err
		}
		created = sess
		return nil
	})
	if err != nil {
		return Session{}, err
	}
	L_debug("sessions: opened", "id", created.ID, "task_id", taskID)
	return created, nil
}

// OpenTx is Open's transaction-scoped variant.
func OpenTx(ctx context.Context, tx *sql.Tx, now time.Time, taskID int64, startTs *time.Time, switchExisting, force bool) (Session, error) {
	start := now
	if startTs != nil {
		start = *startTs
	}

	existing, hasOpen, err := openWithinTx(ctx, tx)
	if err != nil {
		return Session{}, storeError("open session", err)
	}
	if hasOpen {
		if !switchExisting {
			return Session{}, invariant("a session is already open; use clock switch or close it first")
		}
		if err := closeWithinTx(ctx, tx, existing.ID, start); err != nil {
			return Session{}, storeError("open session", err)
		}
	}

	if !force {
		conflicts, err := allOverlapping(ctx, tx, 0, start, now, now)
		if err != nil {
			return Session{}, storeError("open session", err)
		}
		if len(conflicts) > 0 {
			return Session{}, sessionConflict(conflicts)
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (task_id, start_ts, end_ts, created_ts) VALUES (?, ?, NULL, ?)`,
		taskID, start.Unix(), now.Unix())
	if err != nil {
		return Session{}, storeError("open session", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Session{}, storeError("open session", err)
	}
	return Session{ID: id, TaskID: taskID, StartTs: start, CreatedTs: now}, nil
}

func openWithinTx(ctx context.Context, tx *sql.Tx) (Session, bool, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT id, task_id, start_ts, end_ts, created_ts FROM sessions WHERE end_ts IS NULL`)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	return sess, true, nil
}

func closeWithinTx(ctx context.Context, tx *sql.Tx, id int64, endTs time.Time) error {
	_, err := tx.ExecContext(ctx, `UPDATE sessions SET end_ts = ? WHERE id = ?`, endTs.Unix(), id)
	return err
}

// Close closes the single open session at endTs (now if nil).
func Close(ctx context.Context, s *store.Store, now time.Time, endTs *time.Time) (Session, error) {
	var result Session
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		sess, err := CloseTx(ctx, tx, now, endTs)
		if err != nil {
			return err
		}
		result = sess
		return nil
	})
	if err != nil {
		return Session{}, err
	}
	L_debug("sessions: closed", "id", result.ID)
	return result, nil
}

// CloseTx is Close's transaction-scoped variant.
func CloseTx(ctx context.Context, tx *sql.Tx, now time.Time, endTs *time.Time) (Session, error) {
	end := now
	if endTs != nil {
		end = *endTs
	}

	existing, hasOpen, err := openWithinTx(ctx, tx)
	if err != nil {
		return Session{}, storeError("close session", err)
	}
	if !hasOpen {
		return Session{}, invariant("no session is open")
	}
	if end.Before(existing.StartTs) {
		return Session{}, invariant("session end cannot precede its start")
	}
	if err := closeWithinTx(ctx, tx, existing.ID, end); err != nil {
		return Session{}, storeError("close session", err)
	}
	existing.EndTs = &end
	return existing, nil
}

// ListAll returns every session ordered by start time.
func ListAll(ctx context.Context, s *store.Store) ([]Session, error) {
	rows, err := s.DB().QueryContext(ctx,
		`SELECT id, task_id, start_ts, end_ts, created_ts FROM sessions ORDER BY start_ts`)
	if err != nil {
		return nil, storeError("list sessions", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, storeError("list sessions", err)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// ListForTask returns every session on a given task, ordered by start time.
func ListForTask(ctx context.Context, s *store.Store, taskID int64) ([]Session, error) {
	rows, err := s.DB().QueryContext(ctx,
		`SELECT id, task_id, start_ts, end_ts, created_ts FROM sessions WHERE task_id = ? ORDER BY start_ts`,
		taskID)
	if err != nil {
		return nil, storeError("list sessions for task", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, storeError("list sessions for task", err)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// ShowCurrentOrLatest returns the open session if one exists, otherwise
// the most recently closed session.
func ShowCurrentOrLatest(ctx context.Context, s *store.Store, taskID int64) (Session, bool, error) {
	if open, ok, err := OpenSession(ctx, s); err != nil {
		return Session{}, false, err
	} else if ok && open.TaskID == taskID {
		return open, true, nil
	}

	row := s.DB().QueryRowContext(ctx,
		`SELECT id, task_id, start_ts, end_ts, created_ts FROM sessions
		 WHERE task_id = ? ORDER BY start_ts DESC LIMIT 1`, taskID)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, storeError("show session", err)
	}
	return sess, true, nil
}

// Delete removes a closed session. Running sessions must be closed first.
func Delete(ctx context.Context, s *store.Store, id int64) error {
	sess, err := GetByID(ctx, s, id)
	if err != nil {
		return err
	}
	if sess.IsOpen() {
		return invariant("cannot delete a session that is still open")
	}
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
		return err
	})
}
