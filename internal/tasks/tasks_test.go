package tasks

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roelfdiedericks/taskclaw/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taskclaw_test.db")
	s, err := store.Open(store.DefaultConfig(path))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()

	created, err := Create(ctx, s, now, CreateInput{Description: "write report", Tags: []string{"urgent", "urgent"}})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, created.Status)
	assert.Equal(t, []string{"urgent"}, created.Tags)
	assert.NotEmpty(t, created.UUID)

	got, err := GetByID(ctx, s, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Description, got.Description)
}

// TestCreateFinishScenario mirrors concrete scenario 2: add --finish then
// a completed-status filter finds it exactly once.
func TestCreateFinishScenario(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()

	created, err := Create(ctx, s, now, CreateInput{Description: "done already"})
	require.NoError(t, err)

	completed, child, err := CompleteAndRespawn(ctx, s, now, created.ID)
	require.NoError(t, err)
	assert.Nil(t, child)
	assert.Equal(t, StatusCompleted, completed.Status)

	all, err := ListAll(ctx, s)
	require.NoError(t, err)
	matches := 0
	for _, tsk := range all {
		if tsk.Status == StatusCompleted {
			matches++
		}
	}
	assert.Equal(t, 1, matches)
}

func TestTemplateExpansionMerge(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()

	payload := map[string]TemplateValue{
		"tags":   {Tags: []string{"work", "recurring"}},
		"owner":  {String: strPtr("alice")},
		"status": {String: strPtr("unused")},
	}
	require.NoError(t, SaveTemplate(ctx, s, "weekly-report", payload))

	created, err := Create(ctx, s, now, CreateInput{
		Description: "report",
		Template:    "weekly-report",
		Tags:        []string{"urgent"},
		UDAs:        map[string]string{"owner": "bob"},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"work", "recurring", "urgent"}, created.Tags)
	assert.Equal(t, "bob", created.UDAs["owner"])
	assert.Equal(t, "unused", created.UDAs["status"])
}

// TestRespawnDailyScenario mirrors concrete scenario 5: a daily respawn
// task, once completed, produces a pending child whose due_ts is shifted
// by one day.
func TestRespawnDailyScenario(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)

	due := now.Add(time.Hour)
	created, err := Create(ctx, s, now, CreateInput{Description: "daily", Recur: "daily", DueTs: &due})
	require.NoError(t, err)

	completed, child, err := CompleteAndRespawn(ctx, s, now, created.ID)
	require.NoError(t, err)
	require.NotNil(t, child)
	assert.Equal(t, StatusCompleted, completed.Status)
	assert.Equal(t, StatusPending, child.Status)
	assert.Equal(t, created.Description, child.Description)
	require.NotNil(t, child.DueTs)
	assert.True(t, due.AddDate(0, 0, 1).Equal(*child.DueTs), "child due %v", *child.DueTs)

	all, err := ListAll(ctx, s)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestModifyEmitsEvents(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()

	created, err := Create(ctx, s, now, CreateInput{Description: "old"})
	require.NoError(t, err)

	newDesc := "new"
	modified, err := Modify(ctx, s, now, created.ID, Patch{
		Description: &newDesc,
		AddTags:     []string{"flag"},
	})
	require.NoError(t, err)
	assert.Equal(t, "new", modified.Description)
	assert.Contains(t, modified.Tags, "flag")

	var events int
	require.NoError(t, s.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM task_events WHERE task_id = ? AND event_type IN (?, ?)`,
		created.ID, string(EventModified), string(EventTagAdded)).Scan(&events))
	assert.Equal(t, 2, events)
}

func TestDeletedTaskExcludedFromListAll(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()

	created, err := Create(ctx, s, now, CreateInput{Description: "gone"})
	require.NoError(t, err)
	require.NoError(t, Delete(ctx, s, now, created.ID))

	all, err := ListAll(ctx, s)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func strPtr(s string) *string { return &s }
