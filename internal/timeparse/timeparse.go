// Package timeparse parses the timestamp, clock-time, interval, and
// duration forms accepted throughout the command grammar, and renders
// them back for display. Everything is stored and compared as seconds
// since the Unix epoch in UTC.
package timeparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseError reports a malformed timestamp, interval, or duration.
type ParseError struct {
	Input string
	Want  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Want, e.Input)
}

var absoluteLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses an absolute "YYYY-MM-DD[ HH:MM[:SS]]" timestamp, a
// bare "HH:MM" clock time resolved against today, or the special word
// "now". It returns the instant in local time.
func ParseTimestamp(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &ParseError{Input: s, Want: "timestamp"}
	}
	if strings.EqualFold(s, "now") {
		return now, nil
	}
	if t, ok := parseClockTime(s, now); ok {
		return t, nil
	}
	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ParseError{Input: s, Want: "timestamp"}
}

// parseClockTime recognises "HH:MM" and resolves it against now's date.
func parseClockTime(s string, now time.Time) (time.Time, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return time.Time{}, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, false
	}
	minPart := parts[1]
	sec := 0
	if idx := strings.Index(minPart, ":"); idx >= 0 {
		s2, err := strconv.Atoi(minPart[idx+1:])
		if err != nil {
			return time.Time{}, false
		}
		sec = s2
		minPart = minPart[:idx]
	}
	minute, err := strconv.Atoi(minPart)
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, false
	}
	year, month, day := now.Date()
	return time.Date(year, month, day, hour, minute, sec, 0, now.Location()), true
}

// ParseDuration parses "1h30m", "45m", "90s" via the standard library, plus
// literal "d"/"w" suffixes as a superset the grammar never requires.
func ParseDuration(s string) (time.Duration, error) {
	trimmed := strings.TrimSpace(strings.ToLower(s))
	if trimmed == "" {
		return 0, &ParseError{Input: s, Want: "duration"}
	}
	if strings.HasSuffix(trimmed, "d") && !strings.Contains(trimmed, "h") {
		n, err := strconv.Atoi(strings.TrimSuffix(trimmed, "d"))
		if err != nil {
			return 0, &ParseError{Input: s, Want: "duration"}
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	if strings.HasSuffix(trimmed, "w") {
		n, err := strconv.Atoi(strings.TrimSuffix(trimmed, "w"))
		if err != nil {
			return 0, &ParseError{Input: s, Want: "duration"}
		}
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, &ParseError{Input: s, Want: "duration"}
	}
	return d, nil
}

// Interval is a half-open range with either end optionally absent.
type Interval struct {
	Start    *time.Time
	End      *time.Time
	HasStart bool
	HasEnd   bool
}

// ParseInterval parses "A..B", "A..", or "..B". Either side of the literal
// ".." may be empty, meaning that endpoint is unset.
func ParseInterval(s string, now time.Time) (Interval, error) {
	idx := strings.Index(s, "..")
	if idx < 0 {
		return Interval{}, &ParseError{Input: s, Want: "interval"}
	}
	left := strings.TrimSpace(s[:idx])
	right := strings.TrimSpace(s[idx+2:])

	var iv Interval
	if left != "" {
		t, err := ParseTimestamp(left, now)
		if err != nil {
			return Interval{}, err
		}
		iv.Start = &t
		iv.HasStart = true
	}
	if right != "" {
		t, err := ParseTimestamp(right, now)
		if err != nil {
			return Interval{}, err
		}
		iv.End = &t
		iv.HasEnd = true
	}
	return iv, nil
}

// RenderTimestamp formats t the same way ParseTimestamp's "YYYY-MM-DD HH:MM:SS"
// form accepts it back, guaranteeing the round-trip property.
func RenderTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

// RenderInterval formats an Interval as "A..B", omitting either side that's unset.
func RenderInterval(iv Interval) string {
	var sb strings.Builder
	if iv.HasStart {
		sb.WriteString(RenderTimestamp(*iv.Start))
	}
	sb.WriteString("..")
	if iv.HasEnd {
		sb.WriteString(RenderTimestamp(*iv.End))
	}
	return sb.String()
}

// IsNone reports whether s is the special word used by `sessions modify
// end:none` to clear a timestamp.
func IsNone(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "none")
}
