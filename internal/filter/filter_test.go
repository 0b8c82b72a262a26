package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndIdentity(t *testing.T) {
	a, err := Parse("project:work status:pending")
	require.NoError(t, err)
	b, err := Parse("status:pending project:work")
	require.NoError(t, err)

	now := time.Now()
	task := TaskView{ID: 1, Status: "pending", ProjectName: "work", Tags: nil}

	// The router strips the verb before parsing, so this checks that the
	// AND of the same two atoms matches identically in either order.
	matchedA, err := Matches(a, task, now)
	require.NoError(t, err)
	matchedB, err := Matches(b, task, now)
	require.NoError(t, err)
	assert.True(t, matchedA)
	assert.Equal(t, matchedA, matchedB)
}

func TestProjectPrefixMatch(t *testing.T) {
	expr, err := Parse("project:work")
	require.NoError(t, err)

	now := time.Now()
	nested := TaskView{ID: 1, ProjectName: "work.reports"}
	other := TaskView{ID: 2, ProjectName: "home"}

	ok, err := Matches(expr, nested, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Matches(expr, other, now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTagTerms(t *testing.T) {
	expr, err := Parse("+urgent -done")
	require.NoError(t, err)

	now := time.Now()
	matching := TaskView{ID: 1, Tags: []string{"urgent"}}
	notMatching := TaskView{ID: 2, Tags: []string{"urgent", "done"}}

	ok, err := Matches(expr, matching, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Matches(expr, notMatching, now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrGrouping(t *testing.T) {
	expr, err := Parse("project:work or project:home")
	require.NoError(t, err)

	now := time.Now()
	work := TaskView{ProjectName: "work"}
	home := TaskView{ProjectName: "home"}
	other := TaskView{ProjectName: "errand"}

	for _, tv := range []TaskView{work, home} {
		ok, err := Matches(expr, tv, now)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := Matches(expr, other, now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNegation(t *testing.T) {
	expr, err := Parse("!status:completed")
	require.NoError(t, err)

	now := time.Now()
	pending := TaskView{Status: "pending"}
	done := TaskView{Status: "completed"}

	ok, err := Matches(expr, pending, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Matches(expr, done, now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBareIntegerSelector(t *testing.T) {
	expr, err := Parse("42")
	require.NoError(t, err)
	term, ok := expr.(*Term)
	require.True(t, ok)
	assert.Equal(t, AtomID, term.Atom.Kind)
	assert.Equal(t, int64(42), term.Atom.ID)
}

func TestBareIntegerCannotMixWithTerms(t *testing.T) {
	_, err := Parse("42 +urgent")
	require.Error(t, err)
}

func TestUnknownAtomIsError(t *testing.T) {
	_, err := Parse("bogus:value")
	require.Error(t, err)
}

func TestDueToday(t *testing.T) {
	expr, err := Parse("due:today")
	require.NoError(t, err)

	now := time.Date(2026, 7, 30, 9, 0, 0, 0, time.Local)
	due := now.Add(2 * time.Hour)
	task := TaskView{DueTs: &due}

	ok, err := Matches(expr, task, now)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDueOverdue(t *testing.T) {
	expr, err := Parse("due:overdue")
	require.NoError(t, err)

	now := time.Date(2026, 7, 30, 9, 0, 0, 0, time.Local)
	past := now.Add(-48 * time.Hour)
	task := TaskView{DueTs: &past}

	ok, err := Matches(expr, task, now)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWaitingMatchesFutureWait(t *testing.T) {
	expr, err := Parse("waiting")
	require.NoError(t, err)

	now := time.Now()
	future := now.Add(time.Hour)
	task := TaskView{WaitTs: &future}

	ok, err := Matches(expr, task, now)
	require.NoError(t, err)
	assert.True(t, ok)
}
