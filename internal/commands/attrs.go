package commands

import (
	"strconv"
	"strings"
	"time"

	"github.com/roelfdiedericks/taskclaw/internal/timeparse"
)

// attrs is the parsed form of an `add`/`modify` argument list: free text
// joined as the description, recognised scalar attributes, tag deltas,
// UDA deltas, and action flags. Any "key:value" token whose key isn't one
// of the recognised scalar attributes becomes a UDA.
type attrs struct {
	Description string

	Project      *string
	ClearProject bool

	Due, Scheduled, Wait *time.Time
	ClearDue, ClearSched bool
	ClearWait            bool

	AllocSecs  *int64
	ClearAlloc bool
	Template   *string
	Recur      *string
	ClearRecur bool

	AddTags    []string
	RemoveTags []string

	SetUDAs    map[string]string
	RemoveUDAs []string

	// Action flags.
	On           bool
	OnOffInterval *timeparse.Interval
	Enqueue      bool
	Finish       bool
	Close        bool
	Switch       bool
	Force        bool
	Next         bool
}

// parseAttrs interprets an `add`/`modify` token list. now resolves
// relative timestamps and clock-times.
func parseAttrs(tokens []string, now time.Time) (attrs, error) {
	var a attrs
	a.SetUDAs = map[string]string{}
	var free []string

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case tok == "--on":
			a.On = true
		case tok == "--enqueue":
			a.Enqueue = true
		case tok == "--finish":
			a.Finish = true
		case tok == "--close":
			a.Close = true
		case tok == "--switch":
			a.Switch = true
		case tok == "--force":
			a.Force = true
		case tok == "--next":
			a.Next = true
		case tok == "--onoff":
			if i+1 >= len(tokens) {
				return attrs{}, parseError("--onoff requires an A..B interval")
			}
			i++
			iv, err := timeparse.ParseInterval(tokens[i], now)
			if err != nil {
				return attrs{}, parseError("invalid --onoff interval: " + err.Error())
			}
			a.OnOffInterval = &iv
		case strings.HasPrefix(tok, "+") && len(tok) > 1:
			a.AddTags = append(a.AddTags, tok[1:])
		case strings.HasPrefix(tok, "-") && len(tok) > 1 && !strings.HasPrefix(tok, "--"):
			a.RemoveTags = append(a.RemoveTags, tok[1:])
		case strings.Contains(tok, ":"):
			key, value, _ := strings.Cut(tok, ":")
			if err := applyAttr(&a, key, value, now); err != nil {
				return attrs{}, err
			}
		default:
			free = append(free, tok)
		}
	}

	if err := checkActionFlagExclusions(a); err != nil {
		return attrs{}, err
	}

	a.Description = strings.Join(free, " ")
	return a, nil
}

func applyAttr(a *attrs, key, value string, now time.Time) error {
	if key == "respawn" {
		key = "recur"
	}
	switch key {
	case "project":
		if value == "none" {
			a.ClearProject = true
			return nil
		}
		v := value
		a.Project = &v
	case "due":
		if value == "none" {
			a.ClearDue = true
			return nil
		}
		ts, err := timeparse.ParseTimestamp(value, now)
		if err != nil {
			return parseError("invalid due: " + err.Error())
		}
		a.Due = &ts
	case "scheduled":
		if value == "none" {
			a.ClearSched = true
			return nil
		}
		ts, err := timeparse.ParseTimestamp(value, now)
		if err != nil {
			return parseError("invalid scheduled: " + err.Error())
		}
		a.Scheduled = &ts
	case "wait":
		if value == "none" {
			a.ClearWait = true
			return nil
		}
		ts, err := timeparse.ParseTimestamp(value, now)
		if err != nil {
			return parseError("invalid wait: " + err.Error())
		}
		a.Wait = &ts
	case "alloc":
		if value == "none" {
			a.ClearAlloc = true
			return nil
		}
		d, err := timeparse.ParseDuration(value)
		if err != nil {
			return parseError("invalid alloc: " + err.Error())
		}
		secs := int64(d.Seconds())
		a.AllocSecs = &secs
	case "template":
		v := value
		if v == "none" {
			v = ""
		}
		a.Template = &v
	case "recur":
		if value == "none" {
			a.ClearRecur = true
			return nil
		}
		v := value
		a.Recur = &v
	default:
		if value == "none" {
			a.RemoveUDAs = append(a.RemoveUDAs, key)
			return nil
		}
		a.SetUDAs[key] = value
	}
	return nil
}

func checkActionFlagExclusions(a attrs) error {
	if a.Finish && a.Close {
		return parseError("--finish and --close are mutually exclusive")
	}
	if a.On && a.Finish {
		return parseError("--on and --finish are mutually exclusive")
	}
	if a.On && a.Close {
		return parseError("--on and --close are mutually exclusive")
	}
	if a.Enqueue && a.Finish {
		return parseError("--enqueue and --finish are mutually exclusive")
	}
	if a.Enqueue && a.Close {
		return parseError("--enqueue and --close are mutually exclusive")
	}
	return nil
}

func parseTaskIDArg(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, parseError("expected a task id, got " + s)
	}
	return id, nil
}
