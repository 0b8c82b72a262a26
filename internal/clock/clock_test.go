package clock

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roelfdiedericks/taskclaw/internal/stack"
	"github.com/roelfdiedericks/taskclaw/internal/store"
	"github.com/roelfdiedericks/taskclaw/internal/tasks"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taskclaw_test.db")
	s, err := store.Open(store.DefaultConfig(path))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestTask(t *testing.T, ctx context.Context, s *store.Store, desc string) int64 {
	t.Helper()
	tsk, err := tasks.Create(ctx, s, time.Now(), tasks.CreateInput{Description: desc})
	require.NoError(t, err)
	return tsk.ID
}

// TestInOutDoneNextScenario mirrors concrete scenario 3: add A, add B,
// enqueue both, clock in (opens on A), done --next moves A to completed,
// opens a session on B, and leaves the stack as [B].
func TestInOutDoneNextScenario(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()

	taskA := newTestTask(t, ctx, s, "A")
	taskB := newTestTask(t, ctx, s, "B")
	require.NoError(t, stack.Enqueue(ctx, s, stack.DefaultStackName, taskA, now))
	require.NoError(t, stack.Enqueue(ctx, s, stack.DefaultStackName, taskB, now))

	sess, err := InOnStackTop(ctx, s, now, nil, false, false)
	require.NoError(t, err)
	assert.Equal(t, taskA, sess.TaskID)

	result, err := Done(ctx, s, now, taskA, true)
	require.NoError(t, err)
	assert.Equal(t, tasks.StatusCompleted, result.Completed.Status)
	require.NotNil(t, result.NextOpen)
	assert.Equal(t, taskB, result.NextOpen.TaskID)

	items, err := stack.Show(ctx, s, stack.DefaultStackName)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, taskB, items[0].TaskID)
}

// TestClockInConflictScenario mirrors concrete scenario 4: a closed
// session [09:00,11:00) on task X, then `clock in 10:00` on task Y must
// fail with the session-conflict sentinel.
func TestClockInConflictScenario(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	nineAM := base.Add(9 * time.Hour)
	tenAM := base.Add(10 * time.Hour)
	elevenAM := base.Add(11 * time.Hour)

	taskX := newTestTask(t, ctx, s, "X")
	_, err := In(ctx, s, nineAM, taskX, &nineAM, false, false)
	require.NoError(t, err)
	_, err = Out(ctx, s, elevenAM, &elevenAM)
	require.NoError(t, err)

	taskY := newTestTask(t, ctx, s, "Y")
	_, err = In(ctx, s, tenAM, taskY, &tenAM, false, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSessionConflict))
}

func TestInFailsWithoutSwitchWhenAnotherIsOpen(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()
	taskA := newTestTask(t, ctx, s, "A")
	taskB := newTestTask(t, ctx, s, "B")

	_, err := In(ctx, s, now, taskA, nil, false, false)
	require.NoError(t, err)

	_, err = In(ctx, s, now, taskB, nil, false, false)
	require.Error(t, err)
}

func TestSwitchClosesAndOpensAtomically(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()
	taskA := newTestTask(t, ctx, s, "A")
	taskB := newTestTask(t, ctx, s, "B")

	_, err := In(ctx, s, now, taskA, nil, false, false)
	require.NoError(t, err)

	sess, err := Switch(ctx, s, now, taskB, false)
	require.NoError(t, err)
	assert.Equal(t, taskB, sess.TaskID)
}

func TestInOnEmptyStackFails(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()

	_, err := InOnStackTop(ctx, s, now, nil, false, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStackEmpty))
}

func TestDoneWithoutOpenSessionFails(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()
	taskA := newTestTask(t, ctx, s, "A")

	_, err := Done(ctx, s, now, taskA, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoOpenSession))
}

func TestDoneRespawnsRecurringTask(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()

	created, err := tasks.Create(ctx, s, now, tasks.CreateInput{Description: "standup", Recur: "daily"})
	require.NoError(t, err)

	_, err = In(ctx, s, now, created.ID, nil, false, false)
	require.NoError(t, err)

	result, err := Done(ctx, s, now, created.ID, false)
	require.NoError(t, err)
	require.NotNil(t, result.Child)
	assert.Equal(t, "standup", result.Child.Description)
	assert.Equal(t, tasks.StatusPending, result.Child.Status)
}
