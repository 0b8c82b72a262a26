package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// EventKind enumerates the task_events.event_type values.
type EventKind string

const (
	EventCreated           EventKind = "created"
	EventModified          EventKind = "modified"
	EventStatusChanged     EventKind = "status_changed"
	EventTagAdded          EventKind = "tag_added"
	EventTagRemoved        EventKind = "tag_removed"
	EventAnnotationAdded   EventKind = "annotation_added"
	EventAnnotationDeleted EventKind = "annotation_deleted"
	EventStackAdded        EventKind = "stack_added"
	EventStackRemoved      EventKind = "stack_removed"
	EventSessionStarted    EventKind = "session_started"
	EventSessionEnded      EventKind = "session_ended"
)

// emitEvent writes one append-only task_events row inside tx. Every
// mutation in this package calls this from within the same transaction as
// the entity change it describes.
func emitEvent(ctx context.Context, tx *sql.Tx, taskID int64, ts time.Time, kind EventKind, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO task_events (task_id, ts, event_type, payload_json) VALUES (?, ?, ?, ?)`,
		taskID, ts.Unix(), string(kind), string(data))
	return err
}

// statusChangedPayload is the payload for EventStatusChanged.
type statusChangedPayload struct {
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// modifiedPayload is the payload for EventModified.
type modifiedPayload struct {
	Field    string      `json:"field"`
	OldValue interface{} `json:"old_value"`
	NewValue interface{} `json:"new_value"`
}
