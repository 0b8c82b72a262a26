package recur

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDaily(t *testing.T) {
	now := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	r, err := Parse("daily", now)
	require.NoError(t, err)
	assert.Equal(t, KindDaily, r.Kind)

	next, err := Next(r, now)
	require.NoError(t, err)
	assert.Equal(t, 2026, next.Year())
	assert.Equal(t, time.July, next.Month())
	assert.Equal(t, 31, next.Day())
	assert.Equal(t, 0, next.Hour())
}

func TestParseEvery(t *testing.T) {
	now := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	r, err := Parse("every 3h", now)
	require.NoError(t, err)
	require.Equal(t, KindEvery, r.Kind)

	next, err := Next(r, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(3*time.Hour), next)
}

func TestParseWeekdays(t *testing.T) {
	// 2026-07-31 is a Friday; the next weekday fire from Friday 10:00 is
	// Saturday's cron slot never fires (cron skips Sat/Sun), so next should
	// land on Monday.
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	r, err := Parse("weekdays", now)
	require.NoError(t, err)

	next, err := Next(r, now)
	require.NoError(t, err)
	assert.Equal(t, time.Monday, next.Weekday())
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse("whenever", time.Now())
	require.Error(t, err)
}
