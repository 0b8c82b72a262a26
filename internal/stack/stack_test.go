package stack

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func TestEnqueueIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()
	taskID := newTestTask(t, ctx, s, "A")

	require.NoError(t, Enqueue(ctx, s, DefaultStackName, taskID, now))
	items, err := Show(ctx, s, DefaultStackName)
	require.NoError(t, err)
	require.Len(t, items, 1)

	// Second enqueue of the same task is a no-op: stack state unchanged.
	require.NoError(t, Enqueue(ctx, s, DefaultStackName, taskID, now))
	items2, err := Show(ctx, s, DefaultStackName)
	require.NoError(t, err)
	assert.Equal(t, items, items2)
}

func TestEnqueueOrderPreserved(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()
	a := newTestTask(t, ctx, s, "A")
	b := newTestTask(t, ctx, s, "B")
	c := newTestTask(t, ctx, s, "C")

	require.NoError(t, Enqueue(ctx, s, DefaultStackName, a, now))
	require.NoError(t, Enqueue(ctx, s, DefaultStackName, b, now))
	require.NoError(t, Enqueue(ctx, s, DefaultStackName, c, now))

	items, err := Show(ctx, s, DefaultStackName)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []int64{a, b, c}, []int64{items[0].TaskID, items[1].TaskID, items[2].TaskID})
	assert.Equal(t, []int{0, 1, 2}, []int{items[0].Ordinal, items[1].Ordinal, items[2].Ordinal})

	top, ok, err := Top(ctx, s, DefaultStackName)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, a, top)
}

func TestDequeueCompactsOrdinals(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()
	a := newTestTask(t, ctx, s, "A")
	b := newTestTask(t, ctx, s, "B")
	c := newTestTask(t, ctx, s, "C")
	require.NoError(t, Enqueue(ctx, s, DefaultStackName, a, now))
	require.NoError(t, Enqueue(ctx, s, DefaultStackName, b, now))
	require.NoError(t, Enqueue(ctx, s, DefaultStackName, c, now))

	require.NoError(t, Dequeue(ctx, s, DefaultStackName, b))

	items, err := Show(ctx, s, DefaultStackName)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, a, items[0].TaskID)
	assert.Equal(t, 0, items[0].Ordinal)
	assert.Equal(t, c, items[1].TaskID)
	assert.Equal(t, 1, items[1].Ordinal)
}

func TestDequeueAtByIndex(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()
	a := newTestTask(t, ctx, s, "A")
	b := newTestTask(t, ctx, s, "B")
	require.NoError(t, Enqueue(ctx, s, DefaultStackName, a, now))
	require.NoError(t, Enqueue(ctx, s, DefaultStackName, b, now))

	require.NoError(t, DequeueAt(ctx, s, DefaultStackName, 0))

	items, err := Show(ctx, s, DefaultStackName)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, b, items[0].TaskID)
	assert.Equal(t, 0, items[0].Ordinal)
}

func TestClearEmptiesStack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()
	a := newTestTask(t, ctx, s, "A")
	require.NoError(t, Enqueue(ctx, s, DefaultStackName, a, now))
	require.NoError(t, Clear(ctx, s, DefaultStackName))

	items, err := Show(ctx, s, DefaultStackName)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestShowOnUnknownStackIsEmptyNotError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	items, err := Show(ctx, s, "nonexistent")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestNamedStacksAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()
	a := newTestTask(t, ctx, s, "A")

	require.NoError(t, Enqueue(ctx, s, DefaultStackName, a, now))
	require.NoError(t, Enqueue(ctx, s, "work", a, now))

	defaultItems, err := Show(ctx, s, DefaultStackName)
	require.NoError(t, err)
	workItems, err := Show(ctx, s, "work")
	require.NoError(t, err)
	assert.Len(t, defaultItems, 1)
	assert.Len(t, workItems, 1)
}
