package commands

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roelfdiedericks/taskclaw/internal/store"
)

func newTestEnv(t *testing.T) *Env {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taskclaw_test.db")
	s, err := store.Open(store.DefaultConfig(path))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.Local)
	return &Env{
		Store:      s,
		AssumeYes:  true,
		IsTerminal: func() bool { return false },
		Now:        func() time.Time { return now },
	}
}

func TestAddThenListRoundTrip(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := Route(ctx, env, []string{"add", "write", "report"})
	require.NoError(t, err)

	out, err := Route(ctx, env, []string{"list"})
	require.NoError(t, err)
	assert.Contains(t, out, "write report")
}

// Scenario 2: `add --finish` creates a task already completed; it must not
// appear in a `status:pending` filtered list.
func TestAddFinishExcludedFromPendingList(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := Route(ctx, env, []string{"add", "--finish", "one-off", "chore"})
	require.NoError(t, err)
	_, err = Route(ctx, env, []string{"add", "still", "open"})
	require.NoError(t, err)

	out, err := Route(ctx, env, []string{"list", "status:pending"})
	require.NoError(t, err)
	assert.Contains(t, out, "still open")
	assert.NotContains(t, out, "one-off chore")
}

// Scenario 6: `project:work list` and `list project:work` must produce
// identical rows.
func TestSelectorBeforeOrAfterListAreEquivalent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := Route(ctx, env, []string{"add", "project:work", "task", "one"})
	require.NoError(t, err)
	_, err = Route(ctx, env, []string{"add", "project:home", "task", "two"})
	require.NoError(t, err)

	before, err := Route(ctx, env, []string{"project:work", "list"})
	require.NoError(t, err)
	after, err := Route(ctx, env, []string{"list", "project:work"})
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Contains(t, before, "task one")
	assert.NotContains(t, before, "task two")
}

// Scenario 1 (projects): rename onto an existing name without --force
// conflicts; with --force it merges.
func TestProjectsRenameRequiresForceToMerge(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := Route(ctx, env, []string{"projects", "add", "alpha"})
	require.NoError(t, err)
	_, err = Route(ctx, env, []string{"projects", "add", "beta"})
	require.NoError(t, err)

	_, err = Route(ctx, env, []string{"projects", "rename", "alpha", "beta"})
	require.Error(t, err)

	out, err := Route(ctx, env, []string{"projects", "rename", "--force", "alpha", "beta"})
	require.NoError(t, err)
	assert.Contains(t, out, "Merged project 'alpha' into 'beta'")
}

func TestActionFlagExclusionsRejected(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := Route(ctx, env, []string{"add", "--finish", "--close", "bad"})
	require.Error(t, err)
	var cmdErr *Error
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, KindParseError, cmdErr.Kind())
}

func TestMultiTargetModifyRequiresConfirmationWithoutYes(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.AssumeYes = false

	_, err := Route(ctx, env, []string{"add", "+batch", "first"})
	require.NoError(t, err)
	_, err = Route(ctx, env, []string{"add", "+batch", "second"})
	require.NoError(t, err)

	_, err = Route(ctx, env, []string{"+batch", "modify", "project:work"})
	require.Error(t, err)
}

// Scenario 3: enqueue two tasks, clock in opens the top, `done --next`
// completes it and opens the next.
func TestClockInDoneNextComposesThroughRouter(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := Route(ctx, env, []string{"add", "first"})
	require.NoError(t, err)
	_, err = Route(ctx, env, []string{"add", "second"})
	require.NoError(t, err)
	_, err = Route(ctx, env, []string{"1", "enqueue"})
	require.NoError(t, err)
	_, err = Route(ctx, env, []string{"2", "enqueue"})
	require.NoError(t, err)

	_, err = Route(ctx, env, []string{"clock", "in"})
	require.NoError(t, err)

	out, err := Route(ctx, env, []string{"done", "--next"})
	require.NoError(t, err)
	assert.Contains(t, out, "Completed task 1")

	stackOut, err := Route(ctx, env, []string{"stack", "show"})
	require.NoError(t, err)
	assert.Contains(t, stackOut, "Task 2")
	assert.NotContains(t, stackOut, "Task 1")
}
