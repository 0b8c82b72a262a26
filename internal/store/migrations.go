package store

import (
	"database/sql"
	"fmt"
	"time"

	. "github.com/roelfdiedericks/taskclaw/internal/logging"
)

const currentSchemaVersion = 1

// migrate brings the schema up to currentSchemaVersion, tracked in the
// schema_version table the same way the teacher lineage does it.
func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)
	if err != nil {
		version = 0
	}

	if version >= currentSchemaVersion {
		L_debug("store: schema up to date", "version", version)
		return nil
	}

	migrations := []func(*sql.DB) error{
		migrateV1,
	}

	L_info("store: migrating schema", "from", version, "to", currentSchemaVersion)
	for i := version; i < len(migrations); i++ {
		if err := migrations[i](s.db); err != nil {
			return fmt.Errorf("migration v%d failed: %w", i+1, err)
		}
		L_debug("store: applied migration", "version", i+1)
	}
	return nil
}

// migrateV1 creates the full schema described in the data model: projects,
// tasks, tags, sessions, annotations, stacks, templates, and the
// append-only event log.
func migrateV1(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at INTEGER NOT NULL
	);
	INSERT INTO schema_version (version, applied_at) VALUES (1, ?);

	CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		is_archived INTEGER NOT NULL DEFAULT 0,
		created_ts INTEGER NOT NULL,
		modified_ts INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uuid TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		project_id INTEGER REFERENCES projects(id),
		due_ts INTEGER,
		scheduled_ts INTEGER,
		wait_ts INTEGER,
		alloc_secs INTEGER,
		template TEXT,
		recur TEXT,
		udas_json TEXT NOT NULL DEFAULT '{}',
		created_ts INTEGER NOT NULL,
		modified_ts INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);

	CREATE TABLE IF NOT EXISTS task_tags (
		task_id INTEGER NOT NULL REFERENCES tasks(id),
		tag TEXT NOT NULL,
		UNIQUE(task_id, tag)
	);
	CREATE INDEX IF NOT EXISTS idx_task_tags_task ON task_tags(task_id);
	CREATE INDEX IF NOT EXISTS idx_task_tags_tag ON task_tags(tag);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id INTEGER NOT NULL REFERENCES tasks(id),
		start_ts INTEGER NOT NULL,
		end_ts INTEGER,
		created_ts INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_task ON sessions(task_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_open ON sessions(end_ts) WHERE end_ts IS NULL;

	CREATE TABLE IF NOT EXISTS annotations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id INTEGER NOT NULL REFERENCES tasks(id),
		session_id INTEGER REFERENCES sessions(id),
		note TEXT NOT NULL,
		entry_ts INTEGER NOT NULL,
		created_ts INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_annotations_task ON annotations(task_id);
	CREATE INDEX IF NOT EXISTS idx_annotations_session ON annotations(session_id);

	CREATE TABLE IF NOT EXISTS stacks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS stack_items (
		stack_id INTEGER NOT NULL REFERENCES stacks(id),
		task_id INTEGER NOT NULL REFERENCES tasks(id),
		ordinal INTEGER NOT NULL,
		added_ts INTEGER NOT NULL,
		UNIQUE(stack_id, task_id)
	);
	CREATE INDEX IF NOT EXISTS idx_stack_items_stack ON stack_items(stack_id, ordinal);

	CREATE TABLE IF NOT EXISTS templates (
		name TEXT PRIMARY KEY,
		payload_json TEXT NOT NULL,
		created_ts INTEGER NOT NULL,
		modified_ts INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS task_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id INTEGER NOT NULL REFERENCES tasks(id),
		ts INTEGER NOT NULL,
		event_type TEXT NOT NULL,
		payload_json TEXT NOT NULL DEFAULT '{}'
	);
	CREATE INDEX IF NOT EXISTS idx_task_events_task ON task_events(task_id, ts);
	`

	_, err := db.Exec(schema, time.Now().Unix())
	return err
}

// DefaultStackName is the implicit stack created on first use.
const DefaultStackName = "default"
