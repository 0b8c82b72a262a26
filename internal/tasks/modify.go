package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/roelfdiedericks/taskclaw/internal/store"
)

// Patch describes a `modify` invocation. Every field follows the
// "don't change / clear / set" convention from the data model: a nil
// pointer leaves the attribute untouched, a non-nil pointer sets it, and
// the paired Clear* bool clears a nullable attribute back to absent.
type Patch struct {
	Description *string

	ProjectID    *int64
	ClearProject bool

	DueTs    *time.Time
	ClearDue bool

	ScheduledTs    *time.Time
	ClearScheduled bool

	WaitTs    *time.Time
	ClearWait bool

	AllocSecs  *int64
	ClearAlloc bool

	Template *string

	Recur      *string
	ClearRecur bool

	AddTags    []string
	RemoveTags []string

	SetUDAs    map[string]string
	RemoveUDAs []string
}

// Modify applies patch to task id, emitting one `modified` event per
// changed field and one `tag_added`/`tag_removed` event per tag change,
// all inside a single transaction.
func Modify(ctx context.Context, s *store.Store, now time.Time, id int64, patch Patch) (Task, error) {
	existing, err := GetByID(ctx, s, id)
	if err != nil {
		return Task{}, err
	}

	err = s.WithTx(ctx, func(tx *sql.Tx) error {
		sets := []string{"modified_ts = ?"}
		args := []interface{}{now.Unix()}

		if patch.Description != nil && *patch.Description != existing.Description {
			if err := emitEvent(ctx, tx, id, now, EventModified, modifiedPayload{
				Field: "description", OldValue: existing.Description, NewValue: *patch.Description,
			}); err != nil {
				return err
			}
			sets = append(sets, "description = ?")
			args = append(args, *patch.Description)
		}

		if patch.ClearProject {
			if err := emitEvent(ctx, tx, id, now, EventModified, modifiedPayload{
				Field: "project_id", OldValue: existing.ProjectID, NewValue: nil,
			}); err != nil {
				return err
			}
			sets = append(sets, "project_id = NULL")
		} else if patch.ProjectID != nil {
			if err := emitEvent(ctx, tx, id, now, EventModified, modifiedPayload{
				Field: "project_id", OldValue: existing.ProjectID, NewValue: *patch.ProjectID,
			}); err != nil {
				return err
			}
			sets = append(sets, "project_id = ?")
			args = append(args, *patch.ProjectID)
		}

		if err := applyTimestampPatch(ctx, tx, id, now, "due_ts", existing.DueTs, patch.DueTs, patch.ClearDue, &sets, &args); err != nil {
			return err
		}
		if err := applyTimestampPatch(ctx, tx, id, now, "scheduled_ts", existing.ScheduledTs, patch.ScheduledTs, patch.ClearScheduled, &sets, &args); err != nil {
			return err
		}
		if err := applyTimestampPatch(ctx, tx, id, now, "wait_ts", existing.WaitTs, patch.WaitTs, patch.ClearWait, &sets, &args); err != nil {
			return err
		}

		if patch.ClearAlloc {
			sets = append(sets, "alloc_secs = NULL")
		} else if patch.AllocSecs != nil {
			sets = append(sets, "alloc_secs = ?")
			args = append(args, *patch.AllocSecs)
		}

		if patch.Template != nil {
			sets = append(sets, "template = ?")
			args = append(args, nullableString(*patch.Template))
		}

		if patch.ClearRecur {
			sets = append(sets, "recur = NULL")
		} else if patch.Recur != nil {
			sets = append(sets, "recur = ?")
			args = append(args, nullableString(*patch.Recur))
		}

		if len(sets) > 1 {
			query := "UPDATE tasks SET " + joinSets(sets) + " WHERE id = ?"
			args = append(args, id)
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return err
			}
		}

		for _, tag := range patch.AddTags {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO task_tags (task_id, tag) VALUES (?, ?)`, id, tag); err != nil {
				return err
			}
			if err := emitEvent(ctx, tx, id, now, EventTagAdded, map[string]string{"tag": tag}); err != nil {
				return err
			}
		}
		for _, tag := range patch.RemoveTags {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM task_tags WHERE task_id = ? AND tag = ?`, id, tag); err != nil {
				return err
			}
			if err := emitEvent(ctx, tx, id, now, EventTagRemoved, map[string]string{"tag": tag}); err != nil {
				return err
			}
		}

		if len(patch.SetUDAs) > 0 || len(patch.RemoveUDAs) > 0 {
			udas := nonNilUDAs(existing.UDAs)
			for k, v := range patch.SetUDAs {
				udas[k] = v
			}
			for _, k := range patch.RemoveUDAs {
				delete(udas, k)
			}
			if err := saveUDAs(ctx, tx, id, udas); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return Task{}, storeError("modify task", err)
	}
	return GetByID(ctx, s, id)
}

func applyTimestampPatch(ctx context.Context, tx *sql.Tx, id int64, now time.Time, column string,
	old *time.Time, value *time.Time, clear bool, sets *[]string, args *[]interface{}) error {
	if clear {
		if err := emitEvent(ctx, tx, id, now, EventModified, modifiedPayload{
			Field: column, OldValue: renderOpt(old), NewValue: nil,
		}); err != nil {
			return err
		}
		*sets = append(*sets, column+" = NULL")
		return nil
	}
	if value == nil {
		return nil
	}
	if err := emitEvent(ctx, tx, id, now, EventModified, modifiedPayload{
		Field: column, OldValue: renderOpt(old), NewValue: value.Unix(),
	}); err != nil {
		return err
	}
	*sets = append(*sets, column+" = ?")
	*args = append(*args, value.Unix())
	return nil
}

func renderOpt(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func saveUDAs(ctx context.Context, tx *sql.Tx, id int64, udas map[string]string) error {
	data, err := json.Marshal(udas)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `UPDATE tasks SET udas_json = ? WHERE id = ?`, string(data), id)
	return err
}

func joinSets(sets []string) string {
	out := sets[0]
	for _, s := range sets[1:] {
		out += ", " + s
	}
	return out
}
