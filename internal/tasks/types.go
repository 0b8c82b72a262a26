// Package tasks implements task CRUD, the tag set per task, annotations,
// template expansion, and event emission on every mutation. Every
// mutating operation here runs inside a single store.Store.WithTx call so
// the entity change and the events describing it commit atomically.
package tasks

import "time"

// Status is a task's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusWaiting   Status = "waiting"
	StatusCompleted Status = "completed"
	StatusClosed    Status = "closed"
	StatusDeleted   Status = "deleted"
)

// Task mirrors the tasks table plus its tag set.
type Task struct {
	ID          int64
	UUID        string
	Description string
	Status      Status
	ProjectID   *int64
	DueTs       *time.Time
	ScheduledTs *time.Time
	WaitTs      *time.Time
	AllocSecs   *int64
	Template    string
	Recur       string
	UDAs        map[string]string
	Tags        []string
	CreatedTs   time.Time
	ModifiedTs  time.Time
}

// Annotation mirrors the annotations table.
type Annotation struct {
	ID        int64
	TaskID    int64
	SessionID *int64
	Note      string
	EntryTs   time.Time
	CreatedTs time.Time
}

// recurParentUDA is the UDA under which GenerateChild records the parent's
// UUID on a child whose parent carries no template; a child of a templated
// parent is linked through the inherited template field instead.
const recurParentUDA = "_recur_parent"
