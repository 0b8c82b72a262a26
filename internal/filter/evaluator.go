package filter

import (
	"strings"
	"time"

	"github.com/roelfdiedericks/taskclaw/internal/timeparse"
)

// TaskView is the minimal projection of a task the evaluator needs. It is
// deliberately decoupled from internal/tasks' Task struct so this package
// has no dependency on the store.
type TaskView struct {
	ID          int64
	Status      string
	ProjectName string // "" if the task has no project
	DueTs       *time.Time
	ScheduledTs *time.Time
	WaitTs      *time.Time
	Tags        []string
}

func (t TaskView) hasTag(tag string) bool {
	for _, tg := range t.Tags {
		if tg == tag {
			return true
		}
	}
	return false
}

// Matches evaluates expr against task at instant now.
func Matches(expr Expr, task TaskView, now time.Time) (bool, error) {
	switch e := expr.(type) {
	case All:
		return true, nil
	case *Term:
		return matchAtom(e.Atom, task, now)
	case *And:
		for _, term := range e.Terms {
			ok, err := Matches(term, task, now)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case *Or:
		for _, term := range e.Terms {
			ok, err := Matches(term, task, now)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case *Not:
		ok, err := Matches(e.Term, task, now)
		if err != nil {
			return false, err
		}
		return !ok, nil
	default:
		return false, &ParseError{Msg: "unknown expression node"}
	}
}

func matchAtom(a Atom, task TaskView, now time.Time) (bool, error) {
	switch a.Kind {
	case AtomID:
		return task.ID == a.ID, nil
	case AtomStatus:
		return task.Status == a.Status, nil
	case AtomProject:
		if task.ProjectName == "" {
			return false, nil
		}
		return task.ProjectName == a.Project || strings.HasPrefix(task.ProjectName, a.Project+"."), nil
	case AtomTag:
		has := task.hasTag(a.Tag)
		if a.Positive {
			return has, nil
		}
		return !has, nil
	case AtomWaiting:
		return task.WaitTs != nil && task.WaitTs.After(now), nil
	case AtomDue:
		return matchDateExpr(a.DateExpr, task.DueTs, now)
	case AtomScheduled:
		return matchDateExpr(a.DateExpr, task.ScheduledTs, now)
	case AtomWait:
		return matchDateExpr(a.DateExpr, task.WaitTs, now)
	default:
		return false, &ParseError{Input: a.String(), Msg: "unknown filter atom"}
	}
}

// matchDateExpr resolves a due:/scheduled:/wait: value against the task's
// timestamp. "today" and "next week" bound a window; "overdue" means
// strictly before now; anything else is an absolute C2 form compared for
// same-day equality.
func matchDateExpr(expr string, ts *time.Time, now time.Time) (bool, error) {
	if ts == nil {
		return false, nil
	}
	switch expr {
	case "overdue":
		return ts.Before(timeparse.OverdueBefore(now)), nil
	case "today", "next week":
		r, ok := timeparse.RelativeRange(expr, now)
		if !ok {
			return false, nil
		}
		return r.Contains(*ts), nil
	default:
		target, err := timeparse.ParseTimestamp(expr, now)
		if err != nil {
			return false, err
		}
		ty, tm, td := target.Date()
		ly, lm, ld := ts.Local().Date()
		return ty == ly && tm == lm && td == ld, nil
	}
}
