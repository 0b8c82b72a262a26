package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClipShortStringUnchanged(t *testing.T) {
	assert.Equal(t, "hello", clip("hello", 10))
}

func TestClipLongStringGetsTwoDotEllipsis(t *testing.T) {
	got := clip("a very long description that overflows", 10)
	assert.Equal(t, 10, len(got))
	assert.True(t, strings.HasSuffix(got, ".."))
}

func TestTasksEmptyTable(t *testing.T) {
	out, err := Tasks(nil, false)
	require.NoError(t, err)
	assert.Equal(t, "No tasks found.", out)
}

func TestTasksTableHasHeaderAndRow(t *testing.T) {
	rows := []TaskRow{{ID: 1, Description: "write report", Status: "pending", Tags: []string{"urgent"}}}
	out, err := Tasks(rows, false)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Description")
	assert.Contains(t, lines[2], "write report")
	assert.Contains(t, lines[2], "+urgent")
}

func TestTasksJSONIsArray(t *testing.T) {
	rows := []TaskRow{{ID: 1, Description: "A", Status: "pending"}}
	out, err := Tasks(rows, true)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "["))
	assert.Contains(t, out, `"description": "A"`)
}

func TestStackEmptyMessage(t *testing.T) {
	out, err := Stack(nil, false)
	require.NoError(t, err)
	assert.Equal(t, "Stack is empty.", out)
}

func TestStackNonEmpty(t *testing.T) {
	out, err := Stack([]StackRow{{TaskID: 5, Ordinal: 0, Description: "A"}}, false)
	require.NoError(t, err)
	assert.Contains(t, out, "[0] Task 5: A")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45s", FormatDuration(45))
	assert.Equal(t, "1m5s", FormatDuration(65))
	assert.Equal(t, "1h0m5s", FormatDuration(3605))
}
