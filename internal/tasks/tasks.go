package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	. "github.com/roelfdiedericks/taskclaw/internal/logging"
	"github.com/roelfdiedericks/taskclaw/internal/store"
)

// CreateInput carries every attribute accepted by `add`.
type CreateInput struct {
	Description string
	ProjectID   *int64
	DueTs       *time.Time
	ScheduledTs *time.Time
	WaitTs      *time.Time
	AllocSecs   *int64
	Template    string
	Recur       string
	UDAs        map[string]string
	Tags        []string
}

// Create inserts a new task, expanding its template reference first if one
// is set, and emits a `created` event in the same transaction.
func Create(ctx context.Context, s *store.Store, now time.Time, in CreateInput) (Task, error) {
	var created Task
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		t, err := createWithin(ctx, tx, now, in, func(name string) (Template, bool, error) {
			return GetTemplateTx(ctx, tx, name)
		})
		if err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		return Task{}, err
	}
	L_debug("tasks: created", "id", created.ID, "description", created.Description)
	return created, nil
}

// CreateTx is Create's transaction-scoped variant, used by callers that
// must compose the insert with other mutations (respawn, the `add`
// action-flag path) inside one transaction.
func CreateTx(ctx context.Context, tx *sql.Tx, now time.Time, in CreateInput) (Task, error) {
	return createWithin(ctx, tx, now, in, func(name string) (Template, bool, error) {
		return GetTemplateTx(ctx, tx, name)
	})
}

func createWithin(ctx context.Context, tx *sql.Tx, now time.Time, in CreateInput, lookupTemplate func(string) (Template, bool, error)) (Task, error) {
	if in.Description == "" {
		return Task{}, invariant("task description must not be empty")
	}

	if in.Template != "" {
		tmpl, exists, err := lookupTemplate(in.Template)
		if err != nil {
			return Task{}, err
		}
		if exists {
			in = applyTemplate(in, tmpl)
		}
	}

	status := StatusPending
	if in.WaitTs != nil && in.WaitTs.After(now) {
		status = StatusWaiting
	}

	id := uuid.New().String()
	udasJSON, err := json.Marshal(nonNilUDAs(in.UDAs))
	if err != nil {
		return Task{}, storeError("encode UDAs", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO tasks (uuid, description, status, project_id, due_ts, scheduled_ts,
		                    wait_ts, alloc_secs, template, recur, udas_json, created_ts, modified_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id, in.Description, string(status), in.ProjectID,
		tsOrNil(in.DueTs), tsOrNil(in.ScheduledTs), tsOrNil(in.WaitTs), in.AllocSecs,
		nullableString(in.Template), nullableString(in.Recur), string(udasJSON),
		now.Unix(), now.Unix())
	if err != nil {
		return Task{}, storeError("create task", err)
	}
	taskID, err := res.LastInsertId()
	if err != nil {
		return Task{}, storeError("create task", err)
	}

	for _, tag := range dedupTags(in.Tags) {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO task_tags (task_id, tag) VALUES (?, ?)`, taskID, tag); err != nil {
			return Task{}, storeError("create task", err)
		}
	}

	if err := emitEvent(ctx, tx, taskID, now, EventCreated, map[string]interface{}{
		"description": in.Description,
		"status":      string(status),
	}); err != nil {
		return Task{}, storeError("create task", err)
	}

	return Task{
		ID: taskID, UUID: id, Description: in.Description, Status: status,
		ProjectID: in.ProjectID, DueTs: in.DueTs, ScheduledTs: in.ScheduledTs, WaitTs: in.WaitTs,
		AllocSecs: in.AllocSecs, Template: in.Template, Recur: in.Recur,
		UDAs: nonNilUDAs(in.UDAs), Tags: dedupTags(in.Tags),
		CreatedTs: now, ModifiedTs: now,
	}, nil
}

// GetByID loads a single task with its tags.
func GetByID(ctx context.Context, s *store.Store, id int64) (Task, error) {
	row := s.DB().QueryRowContext(ctx, `
		SELECT id, uuid, description, status, project_id, due_ts, scheduled_ts, wait_ts,
		       alloc_secs, template, recur, udas_json, created_ts, modified_ts
		FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return Task{}, notFound(id)
	}
	if err != nil {
		return Task{}, storeError("load task", err)
	}
	tags, err := loadTags(ctx, s, id)
	if err != nil {
		return Task{}, err
	}
	t.Tags = tags
	return t, nil
}

// GetByIDTx is GetByID's transaction-scoped variant, reading against the
// caller's own in-flight transaction rather than the store's connection —
// needed so a composite operation sees its own prior writes.
func GetByIDTx(ctx context.Context, tx *sql.Tx, id int64) (Task, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, uuid, description, status, project_id, due_ts, scheduled_ts, wait_ts,
		       alloc_secs, template, recur, udas_json, created_ts, modified_ts
		FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return Task{}, notFound(id)
	}
	if err != nil {
		return Task{}, storeError("load task", err)
	}
	tags, err := loadTagsTx(ctx, tx, id)
	if err != nil {
		return Task{}, err
	}
	t.Tags = tags
	return t, nil
}

// ListAll returns every non-deleted task with its tags.
func ListAll(ctx context.Context, s *store.Store) ([]Task, error) {
	rows, err := s.DB().QueryContext(ctx, `
		SELECT id, uuid, description, status, project_id, due_ts, scheduled_ts, wait_ts,
		       alloc_secs, template, recur, udas_json, created_ts, modified_ts
		FROM tasks WHERE status != ? ORDER BY id`, string(StatusDeleted))
	if err != nil {
		return nil, storeError("list tasks", err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, storeError("list tasks", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list tasks", err)
	}
	for i := range out {
		tags, err := loadTags(ctx, s, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Tags = tags
	}
	return out, nil
}

func loadTags(ctx context.Context, s *store.Store, taskID int64) ([]string, error) {
	rows, err := s.DB().QueryContext(ctx, `SELECT tag FROM task_tags WHERE task_id = ? ORDER BY tag`, taskID)
	if err != nil {
		return nil, storeError("load tags", err)
	}
	defer rows.Close()
	return scanTags(rows)
}

func loadTagsTx(ctx context.Context, tx *sql.Tx, taskID int64) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT tag FROM task_tags WHERE task_id = ? ORDER BY tag`, taskID)
	if err != nil {
		return nil, storeError("load tags", err)
	}
	defer rows.Close()
	return scanTags(rows)
}

func scanTags(rows *sql.Rows) ([]string, error) {
	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, storeError("load tags", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// Complete marks a task completed and emits the status_changed event.
func Complete(ctx context.Context, s *store.Store, now time.Time, id int64) (Task, error) {
	return transition(ctx, s, now, id, StatusCompleted)
}

// CompleteTx is Complete's transaction-scoped variant.
func CompleteTx(ctx context.Context, tx *sql.Tx, now time.Time, id int64) (Task, error) {
	return transitionTx(ctx, tx, now, id, StatusCompleted)
}

// Close marks a task closed and emits the status_changed event.
func Close(ctx context.Context, s *store.Store, now time.Time, id int64) (Task, error) {
	return transition(ctx, s, now, id, StatusClosed)
}

// CloseTx is Close's transaction-scoped variant.
func CloseTx(ctx context.Context, tx *sql.Tx, now time.Time, id int64) (Task, error) {
	return transitionTx(ctx, tx, now, id, StatusClosed)
}

// Delete soft-deletes a task (sets status deleted). No further events are
// ever emitted for a deleted task.
func Delete(ctx context.Context, s *store.Store, now time.Time, id int64) error {
	_, err := transition(ctx, s, now, id, StatusDeleted)
	return err
}

func transition(ctx context.Context, s *store.Store, now time.Time, id int64, newStatus Status) (Task, error) {
	var result Task
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		t, err := transitionTx(ctx, tx, now, id, newStatus)
		if err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return Task{}, err
	}
	return result, nil
}

func transitionTx(ctx context.Context, tx *sql.Tx, now time.Time, id int64, newStatus Status) (Task, error) {
	existing, err := GetByIDTx(ctx, tx, id)
	if err != nil {
		return Task{}, err
	}
	if existing.Status == newStatus {
		return Task{}, invariant(fmt.Sprintf("task %d is already %s", id, newStatus))
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE tasks SET status = ?, modified_ts = ? WHERE id = ?`,
		string(newStatus), now.Unix(), id); err != nil {
		return Task{}, storeError("change task status", err)
	}
	if err := emitEvent(ctx, tx, id, now, EventStatusChanged, statusChangedPayload{
		OldStatus: string(existing.Status), NewStatus: string(newStatus),
	}); err != nil {
		return Task{}, storeError("change task status", err)
	}
	existing.Status = newStatus
	existing.ModifiedTs = now
	return existing, nil
}

func scanTask(row interface{ Scan(...interface{}) error }) (Task, error) {
	var t Task
	var projectID sql.NullInt64
	var dueTs, scheduledTs, waitTs sql.NullInt64
	var allocSecs sql.NullInt64
	var template, recur sql.NullString
	var udasJSON string
	var createdTs, modifiedTs int64
	var status string

	if err := row.Scan(&t.ID, &t.UUID, &t.Description, &status, &projectID,
		&dueTs, &scheduledTs, &waitTs, &allocSecs, &template, &recur, &udasJSON,
		&createdTs, &modifiedTs); err != nil {
		return Task{}, err
	}

	t.Status = Status(status)
	if projectID.Valid {
		t.ProjectID = &projectID.Int64
	}
	t.DueTs = tsFromNull(dueTs)
	t.ScheduledTs = tsFromNull(scheduledTs)
	t.WaitTs = tsFromNull(waitTs)
	if allocSecs.Valid {
		t.AllocSecs = &allocSecs.Int64
	}
	if template.Valid {
		t.Template = template.String
	}
	if recur.Valid {
		t.Recur = recur.String
	}
	t.UDAs = map[string]string{}
	if udasJSON != "" {
		_ = json.Unmarshal([]byte(udasJSON), &t.UDAs)
	}
	t.CreatedTs = time.Unix(createdTs, 0)
	t.ModifiedTs = time.Unix(modifiedTs, 0)
	return t, nil
}

func tsFromNull(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.Unix(n.Int64, 0)
	return &t
}

func tsOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nonNilUDAs(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func dedupTags(tags []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
