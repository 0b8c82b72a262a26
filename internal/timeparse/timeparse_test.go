package timeparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestampForms(t *testing.T) {
	now := time.Date(2026, 7, 30, 14, 0, 0, 0, time.Local)

	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"date only", "2026-08-01", time.Date(2026, 8, 1, 0, 0, 0, 0, time.Local)},
		{"date and time", "2026-08-01 09:30", time.Date(2026, 8, 1, 9, 30, 0, 0, time.Local)},
		{"date time seconds", "2026-08-01 09:30:15", time.Date(2026, 8, 1, 9, 30, 15, 0, time.Local)},
		{"clock time", "09:00", time.Date(2026, 7, 30, 9, 0, 0, 0, time.Local)},
		{"now", "now", now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in, now)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
		})
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	_, err := ParseTimestamp("not-a-date", time.Now())
	require.Error(t, err)
	var pe *ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"90s", 90 * time.Second},
		{"45m", 45 * time.Minute},
		{"1h30m", 90 * time.Minute},
		{"2d", 48 * time.Hour},
		{"1w", 7 * 24 * time.Hour},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestIntervalRoundTrip(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.Local)
	iv, err := ParseInterval("2026-07-30 09:00:00..2026-07-30 11:00:00", now)
	require.NoError(t, err)
	require.True(t, iv.HasStart)
	require.True(t, iv.HasEnd)

	rendered := RenderInterval(iv)
	again, err := ParseInterval(rendered, now)
	require.NoError(t, err)

	assert.True(t, iv.Start.Equal(*again.Start))
	assert.True(t, iv.End.Equal(*again.End))
}

func TestIntervalOpenEnds(t *testing.T) {
	now := time.Now()

	open, err := ParseInterval("2026-07-30 09:00..", now)
	require.NoError(t, err)
	assert.True(t, open.HasStart)
	assert.False(t, open.HasEnd)

	openStart, err := ParseInterval("..2026-07-30 11:00", now)
	require.NoError(t, err)
	assert.False(t, openStart.HasStart)
	assert.True(t, openStart.HasEnd)
}

func TestRelativeRangeToday(t *testing.T) {
	now := time.Date(2026, 7, 30, 18, 0, 0, 0, time.Local)
	r, ok := RelativeRange("today", now)
	require.True(t, ok)
	assert.True(t, r.Contains(now))
	assert.False(t, r.Contains(now.AddDate(0, 0, 1)))
}

func TestIsNone(t *testing.T) {
	assert.True(t, IsNone("none"))
	assert.True(t, IsNone("NONE"))
	assert.False(t, IsNone("2026-07-30"))
}
