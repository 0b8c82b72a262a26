package sessions

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

func TestOpenThenCloseRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()
	taskID := newTestTask(t, ctx, s, "A")

	opened, err := Open(ctx, s, now, taskID, nil, false, false)
	require.NoError(t, err)
	assert.True(t, opened.IsOpen())

	closed, err := Close(ctx, s, now, nil)
	require.NoError(t, err)
	assert.False(t, closed.IsOpen())
	assert.Equal(t, opened.ID, closed.ID)
}

func TestAtMostOneOpenSession(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()
	task1 := newTestTask(t, ctx, s, "A")
	task2 := newTestTask(t, ctx, s, "B")

	_, err := Open(ctx, s, now, task1, nil, false, false)
	require.NoError(t, err)

	_, err = Open(ctx, s, now, task2, nil, false, false)
	require.Error(t, err)
}

func TestSwitchClosesExistingAtomically(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()
	task1 := newTestTask(t, ctx, s, "A")
	task2 := newTestTask(t, ctx, s, "B")

	first, err := Open(ctx, s, now, task1, nil, false, false)
	require.NoError(t, err)

	second, err := Open(ctx, s, now, task2, nil, true, false)
	require.NoError(t, err)
	assert.True(t, second.IsOpen())

	reloaded, err := GetByID(ctx, s, first.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsOpen())
}

// TestSessionConflictScenario mirrors concrete scenario 4: a closed
// session [09:00, 11:00) on one task, then opening a second session at
// 10:00 on another task must fail with SessionConflict.
func TestSessionConflictScenario(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)

	taskX := newTestTask(t, ctx, s, "X")
	nineAM := base.Add(9 * time.Hour)
	elevenAM := base.Add(11 * time.Hour)

	_, err := Open(ctx, s, nineAM, taskX, &nineAM, false, false)
	require.NoError(t, err)
	_, err = Close(ctx, s, elevenAM, &elevenAM)
	require.NoError(t, err)

	taskY := newTestTask(t, ctx, s, "Y")
	tenAM := base.Add(10 * time.Hour)
	_, err = Open(ctx, s, tenAM, taskY, &tenAM, false, false)
	require.Error(t, err)
	var sessErr *Error
	require.ErrorAs(t, err, &sessErr)
	assert.Equal(t, KindConflict, sessErr.Kind)
}

func TestForceOverridesConflict(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)

	taskX := newTestTask(t, ctx, s, "X")
	nineAM := base.Add(9 * time.Hour)
	elevenAM := base.Add(11 * time.Hour)
	_, err := Open(ctx, s, nineAM, taskX, &nineAM, false, false)
	require.NoError(t, err)
	_, err = Close(ctx, s, elevenAM, &elevenAM)
	require.NoError(t, err)

	taskY := newTestTask(t, ctx, s, "Y")
	tenAM := base.Add(10 * time.Hour)
	_, err = Open(ctx, s, tenAM, taskY, &tenAM, false, true)
	require.NoError(t, err)
}

// TestModifyEndNoneScenario mirrors concrete scenario 7: `sessions <id>
// modify end:none` on the only closed session succeeds; applying it again
// once the session is open fails with InvariantViolation.
func TestModifyEndNoneScenario(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()
	taskID := newTestTask(t, ctx, s, "A")

	opened, err := Open(ctx, s, now, taskID, nil, false, false)
	require.NoError(t, err)
	_, err = Close(ctx, s, now, nil)
	require.NoError(t, err)

	reopened, err := Modify(ctx, s, now, opened.ID, Patch{ClearEnd: true}, false)
	require.NoError(t, err)
	assert.True(t, reopened.IsOpen())

	_, err = Modify(ctx, s, now, opened.ID, Patch{ClearEnd: true}, false)
	require.Error(t, err)
	var sessErr *Error
	require.ErrorAs(t, err, &sessErr)
	assert.Equal(t, KindInvariantViolation, sessErr.Kind)
}

func TestDeleteRequiresClosedSession(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now()
	taskID := newTestTask(t, ctx, s, "A")

	opened, err := Open(ctx, s, now, taskID, nil, false, false)
	require.NoError(t, err)

	err = Delete(ctx, s, opened.ID)
	require.Error(t, err)

	_, err = Close(ctx, s, now, nil)
	require.NoError(t, err)
	require.NoError(t, Delete(ctx, s, opened.ID))
}
