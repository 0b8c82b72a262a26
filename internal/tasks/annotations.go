package tasks

import (
	"context"
	"database/sql"
	"time"

	"github.com/roelfdiedericks/taskclaw/internal/store"
)

// Annotate appends an immutable annotation to a task, optionally bound to
// a session (so `sessions show` can render "Linked Annotations" beneath
// the session the way the source implementation does).
func Annotate(ctx context.Context, s *store.Store, now time.Time, taskID int64, note string, sessionID *int64) (Annotation, error) {
	if _, err := GetByID(ctx, s, taskID); err != nil {
		return Annotation{}, err
	}

	var created Annotation
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO annotations (task_id, session_id, note, entry_ts, created_ts) VALUES (?, ?, ?, ?, ?)`,
			taskID, sessionID, note, now.Unix(), now.Unix())
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		created = Annotation{ID: id, TaskID: taskID, SessionID: sessionID, Note: note, EntryTs: now, CreatedTs: now}
		return emitEvent(ctx, tx, taskID, now, EventAnnotationAdded, map[string]interface{}{"annotation_id": id, "note": note})
	})
	if err != nil {
		return Annotation{}, storeError("annotate task", err)
	}
	return created, nil
}

// DeleteAnnotation removes an annotation by id.
func DeleteAnnotation(ctx context.Context, s *store.Store, now time.Time, annotationID int64) error {
	var taskID int64
	if err := s.DB().QueryRowContext(ctx, `SELECT task_id FROM annotations WHERE id = ?`, annotationID).Scan(&taskID); err != nil {
		if err == sql.ErrNoRows {
			return &Error{Kind: KindNotFound, Msg: "annotation not found"}
		}
		return storeError("look up annotation", err)
	}

	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM annotations WHERE id = ?`, annotationID); err != nil {
			return err
		}
		return emitEvent(ctx, tx, taskID, now, EventAnnotationDeleted, map[string]interface{}{"annotation_id": annotationID})
	})
}

// AnnotationsForSession lists every annotation bound to a given session,
// oldest first — used by `sessions show`'s "Linked Annotations" block.
func AnnotationsForSession(ctx context.Context, s *store.Store, sessionID int64) ([]Annotation, error) {
	rows, err := s.DB().QueryContext(ctx,
		`SELECT id, task_id, session_id, note, entry_ts, created_ts FROM annotations WHERE session_id = ? ORDER BY entry_ts`,
		sessionID)
	if err != nil {
		return nil, storeError("list annotations for session", err)
	}
	defer rows.Close()

	var out []Annotation
	for rows.Next() {
		var a Annotation
		var sid sql.NullInt64
		var entryTs, createdTs int64
		if err := rows.Scan(&a.ID, &a.TaskID, &sid, &a.Note, &entryTs, &createdTs); err != nil {
			return nil, storeError("list annotations for session", err)
		}
		if sid.Valid {
			a.SessionID = &sid.Int64
		}
		a.EntryTs = time.Unix(entryTs, 0)
		a.CreatedTs = time.Unix(createdTs, 0)
		out = append(out, a)
	}
	return out, rows.Err()
}

// AnnotationsForTask lists every annotation on a task, oldest first.
func AnnotationsForTask(ctx context.Context, s *store.Store, taskID int64) ([]Annotation, error) {
	rows, err := s.DB().QueryContext(ctx,
		`SELECT id, task_id, session_id, note, entry_ts, created_ts FROM annotations WHERE task_id = ? ORDER BY entry_ts`,
		taskID)
	if err != nil {
		return nil, storeError("list annotations", err)
	}
	defer rows.Close()

	var out []Annotation
	for rows.Next() {
		var a Annotation
		var sessionID sql.NullInt64
		var entryTs, createdTs int64
		if err := rows.Scan(&a.ID, &a.TaskID, &sessionID, &a.Note, &entryTs, &createdTs); err != nil {
			return nil, storeError("list annotations", err)
		}
		if sessionID.Valid {
			a.SessionID = &sessionID.Int64
		}
		a.EntryTs = time.Unix(entryTs, 0)
		a.CreatedTs = time.Unix(createdTs, 0)
		out = append(out, a)
	}
	return out, rows.Err()
}
