// Package stack implements the ordered set of enqueued task ids: enqueue,
// dequeue, clear, show. Ordinals are compacted to 0..n-1 after every
// removal.
package stack

import (
	"context"
	"database/sql"
	"time"

	. "github.com/roelfdiedericks/taskclaw/internal/logging"
	"github.com/roelfdiedericks/taskclaw/internal/store"
)

// DefaultStackName is the implicit stack created on first use.
const DefaultStackName = store.DefaultStackName

// Item is one entry of a stack, in ordinal order.
type Item struct {
	TaskID  int64
	Ordinal int
	AddedTs time.Time
}

// ensureStack returns the id of the named stack, creating it if absent.
func ensureStack(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM stacks WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO stacks (name) VALUES (?)`, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func stackIDReadOnly(ctx context.Context, s *store.Store, name string) (int64, bool, error) {
	var id int64
	err := s.DB().QueryRowContext(ctx, `SELECT id FROM stacks WHERE name = ?`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, storeErr("look up stack", err)
	}
	return id, true, nil
}

// Enqueue appends taskID to name's stack if it isn't already present.
// Idempotent on (stack, task): a second enqueue of the same pair is a
// no-op.
func Enqueue(ctx context.Context, s *store.Store, name string, taskID int64, now time.Time) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		return EnqueueTx(ctx, tx, name, taskID, now)
	})
}

// EnqueueTx is Enqueue's transaction-scoped variant.
func EnqueueTx(ctx context.Context, tx *sql.Tx, name string, taskID int64, now time.Time) error {
	stackID, err := ensureStack(ctx, tx, name)
	if err != nil {
		return err
	}
	var maxOrdinal sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		`SELECT MAX(ordinal) FROM stack_items WHERE stack_id = ?`, stackID).Scan(&maxOrdinal); err != nil {
		return err
	}
	next := 0
	if maxOrdinal.Valid {
		next = int(maxOrdinal.Int64) + 1
	}
	_, err = tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO stack_items (stack_id, task_id, ordinal, added_ts) VALUES (?, ?, ?, ?)`,
		stackID, taskID, next, now.Unix())
	return err
}

// Dequeue removes taskID from name's stack, if present, and compacts ordinals.
func Dequeue(ctx context.Context, s *store.Store, name string, taskID int64) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		return DequeueTx(ctx, tx, name, taskID)
	})
}

// DequeueTx is Dequeue's transaction-scoped variant.
func DequeueTx(ctx context.Context, tx *sql.Tx, name string, taskID int64) error {
	stackID, err := ensureStack(ctx, tx, name)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM stack_items WHERE stack_id = ? AND task_id = ?`, stackID, taskID); err != nil {
		return err
	}
	return compact(ctx, tx, stackID)
}

// DequeueAt removes the entry at the given ordinal index.
func DequeueAt(ctx context.Context, s *store.Store, name string, index int) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		return DequeueAtTx(ctx, tx, name, index)
	})
}

// DequeueAtTx is DequeueAt's transaction-scoped variant.
func DequeueAtTx(ctx context.Context, tx *sql.Tx, name string, index int) error {
	stackID, err := ensureStack(ctx, tx, name)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM stack_items WHERE stack_id = ? AND ordinal = ?`, stackID, index); err != nil {
		return err
	}
	return compact(ctx, tx, stackID)
}

func compact(ctx context.Context, tx *sql.Tx, stackID int64) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT task_id FROM stack_items WHERE stack_id = ? ORDER BY ordinal`, stackID)
	if err != nil {
		return err
	}
	var taskIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		taskIDs = append(taskIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	for i, id := range taskIDs {
		if _, err := tx.ExecContext(ctx,
			`UPDATE stack_items SET ordinal = ? WHERE stack_id = ? AND task_id = ?`, i, stackID, id); err != nil {
			return err
		}
	}
	return nil
}

// Clear removes every item from name's stack.
func Clear(ctx context.Context, s *store.Store, name string) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		return ClearTx(ctx, tx, name)
	})
}

// ClearTx is Clear's transaction-scoped variant.
func ClearTx(ctx context.Context, tx *sql.Tx, name string) error {
	stackID, err := ensureStack(ctx, tx, name)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM stack_items WHERE stack_id = ?`, stackID)
	return err
}

// Show returns name's items in ordinal order. If the stack was never
// created, it returns an empty slice rather than an error.
func Show(ctx context.Context, s *store.Store, name string) ([]Item, error) {
	stackID, exists, err := stackIDReadOnly(ctx, s, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	rows, err := s.DB().QueryContext(ctx,
		`SELECT task_id, ordinal, added_ts FROM stack_items WHERE stack_id = ? ORDER BY ordinal`, stackID)
	if err != nil {
		return nil, storeErr("show stack", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		var added int64
		if err := rows.Scan(&it.TaskID, &it.Ordinal, &added); err != nil {
			return nil, storeErr("show stack", err)
		}
		it.AddedTs = time.Unix(added, 0)
		out = append(out, it)
	}
	return out, rows.Err()
}

// ShowTx is Show's transaction-scoped variant.
func ShowTx(ctx context.Context, tx *sql.Tx, name string) ([]Item, error) {
	stackID, err := ensureStack(ctx, tx, name)
	if err != nil {
		return nil, storeErr("show stack", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT task_id, ordinal, added_ts FROM stack_items WHERE stack_id = ? ORDER BY ordinal`, stackID)
	if err != nil {
		return nil, storeErr("show stack", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		var added int64
		if err := rows.Scan(&it.TaskID, &it.Ordinal, &added); err != nil {
			return nil, storeErr("show stack", err)
		}
		it.AddedTs = time.Unix(added, 0)
		out = append(out, it)
	}
	return out, rows.Err()
}

// RemoveFromAll removes taskID from every stack it appears in, compacting
// ordinals in each. Used by `done`, which takes a task out of circulation
// entirely rather than just its current stack.
func RemoveFromAll(ctx context.Context, s *store.Store, taskID int64) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		return RemoveFromAllTx(ctx, tx, taskID)
	})
}

// RemoveFromAllTx is RemoveFromAll's transaction-scoped variant.
func RemoveFromAllTx(ctx context.Context, tx *sql.Tx, taskID int64) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT DISTINCT stack_id FROM stack_items WHERE task_id = ?`, taskID)
	if err != nil {
		return err
	}
	var stackIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		stackIDs = append(stackIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	for _, stackID := range stackIDs {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM stack_items WHERE stack_id = ? AND task_id = ?`, stackID, taskID); err != nil {
			return err
		}
		if err := compact(ctx, tx, stackID); err != nil {
			return err
		}
	}
	return nil
}

// Top returns the ordinal-0 element of name's stack, if any.
func Top(ctx context.Context, s *store.Store, name string) (int64, bool, error) {
	items, err := Show(ctx, s, name)
	if err != nil {
		return 0, false, err
	}
	if len(items) == 0 {
		return 0, false, nil
	}
	return items[0].TaskID, true, nil
}

// TopTx is Top's transaction-scoped variant.
func TopTx(ctx context.Context, tx *sql.Tx, name string) (int64, bool, error) {
	items, err := ShowTx(ctx, tx, name)
	if err != nil {
		return 0, false, err
	}
	if len(items) == 0 {
		return 0, false, nil
	}
	return items[0].TaskID, true, nil
}

func storeErr(op string, err error) error {
	L_warn("stack: operation failed", "op", op, "error", err)
	return &StoreError{Op: op, Err: err}
}

// StoreError wraps a backend failure for the CLI layer's exit-code mapping.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return "failed to " + e.Op + ": " + e.Err.Error() }
func (e *StoreError) Unwrap() error { return e.Err }
