// Package recur parses `respawn:`/`recur:` rule strings and computes the
// next fire time for a completed task. There is no scheduler here, only a
// pure function: robfig/cron's standard parser is used to resolve a
// 5-field expression against "now", nothing runs in the background.
package recur

import (
	"fmt"
	"strings"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/roelfdiedericks/taskclaw/internal/timeparse"
)

// Kind identifies the shape of a recurrence rule.
type Kind int

const (
	KindDaily Kind = iota
	KindWeekly
	KindMonthly
	KindWeekdays
	KindEvery
	KindAbsolute
)

// Rule is a parsed `respawn:`/`recur:` value.
type Rule struct {
	Kind     Kind
	Every    time.Duration
	Absolute time.Time
	Raw      string
}

var cronExprByKind = map[Kind]string{
	KindDaily:    "0 0 * * *",
	KindWeekly:   "0 0 * * 0",
	KindMonthly:  "0 0 1 * *",
	KindWeekdays: "0 0 * * 1-5",
}

var standardParser = cronlib.NewParser(cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow)

// Parse recognises "daily", "weekly", "monthly", "weekdays", "every <duration>",
// and an absolute next-instance override (anything C2 can parse as a timestamp).
func Parse(s string, now time.Time) (Rule, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return Rule{}, fmt.Errorf("empty recurrence rule")
	case strings.EqualFold(s, "daily"):
		return Rule{Kind: KindDaily, Raw: s}, nil
	case strings.EqualFold(s, "weekly"):
		return Rule{Kind: KindWeekly, Raw: s}, nil
	case strings.EqualFold(s, "monthly"):
		return Rule{Kind: KindMonthly, Raw: s}, nil
	case strings.EqualFold(s, "weekdays"):
		return Rule{Kind: KindWeekdays, Raw: s}, nil
	case strings.HasPrefix(strings.ToLower(s), "every "):
		durStr := strings.TrimSpace(s[len("every "):])
		d, err := timeparse.ParseDuration(durStr)
		if err != nil {
			return Rule{}, fmt.Errorf("invalid recurrence rule %q: %w", s, err)
		}
		return Rule{Kind: KindEvery, Every: d, Raw: s}, nil
	default:
		ts, err := timeparse.ParseTimestamp(s, now)
		if err != nil {
			return Rule{}, fmt.Errorf("invalid recurrence rule %q: %w", s, err)
		}
		return Rule{Kind: KindAbsolute, Absolute: ts, Raw: s}, nil
	}
}

// Next computes the next fire time relative to now.
func Next(r Rule, now time.Time) (time.Time, error) {
	switch r.Kind {
	case KindEvery:
		return now.Add(r.Every), nil
	case KindAbsolute:
		return r.Absolute, nil
	default:
		expr, ok := cronExprByKind[r.Kind]
		if !ok {
			return time.Time{}, fmt.Errorf("unhandled recurrence kind %v", r.Kind)
		}
		schedule, err := standardParser.Parse(expr)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", expr, err)
		}
		return schedule.Next(now), nil
	}
}
