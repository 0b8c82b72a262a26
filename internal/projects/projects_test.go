package projects

import (
	"context"
	"path/filepath"
	"testing"

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

func TestAddAndGetByName(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p, err := Add(ctx, s, "work")
	require.NoError(t, err)
	assert.Equal(t, "work", p.Name)
	assert.False(t, p.IsArchived)

	got, exists, err := GetByName(ctx, s, "work")
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, p.ID, got.ID)
}

func TestAddDuplicateFails(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := Add(ctx, s, "work")
	require.NoError(t, err)

	_, err = Add(ctx, s, "work")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

// TestRenameMergeScenario mirrors concrete scenario 1: renaming into an
// existing project fails without --force and contains "already exists";
// with --force it succeeds as a merge and the old name is gone.
func TestRenameMergeScenario(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := Add(ctx, s, "work")
	require.NoError(t, err)
	_, err = Add(ctx, s, "office")
	require.NoError(t, err)

	_, err = Rename(ctx, s, "work", "office", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	result, err := Rename(ctx, s, "work", "office", true)
	require.NoError(t, err)
	assert.True(t, result.Merged)

	_, exists, err := GetByName(ctx, s, "work")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRenameSimple(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := Add(ctx, s, "work")
	require.NoError(t, err)

	result, err := Rename(ctx, s, "work", "job", false)
	require.NoError(t, err)
	assert.False(t, result.Merged)

	_, exists, err := GetByName(ctx, s, "job")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestArchiveUnarchive(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := Add(ctx, s, "work")
	require.NoError(t, err)

	require.NoError(t, SetArchived(ctx, s, "work", true))
	list, err := List(ctx, s, false)
	require.NoError(t, err)
	assert.Empty(t, list)

	withArchived, err := List(ctx, s, true)
	require.NoError(t, err)
	assert.Len(t, withArchived, 1)
	assert.True(t, withArchived[0].IsArchived)

	require.NoError(t, SetArchived(ctx, s, "work", false))
	list, err = List(ctx, s, false)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
