package commands

import (
	"errors"
	"fmt"

	"github.com/roelfdiedericks/taskclaw/internal/clock"
	"github.com/roelfdiedericks/taskclaw/internal/filter"
	"github.com/roelfdiedericks/taskclaw/internal/projects"
	"github.com/roelfdiedericks/taskclaw/internal/sessions"
	"github.com/roelfdiedericks/taskclaw/internal/tasks"
)

// ErrorKind is the exit-code-determining classification every command
// error carries: ParseError/NotFound/Conflict/InvariantViolation map to
// exit 1, StoreError to exit 2.
type ErrorKind int

const (
	KindParseError ErrorKind = iota
	KindNotFound
	KindConflict
	KindInvariantViolation
	KindStoreError
)

// Error is the single error type cmd/taskclaw inspects to choose an exit
// code and a "Error: <message>" line.
type Error struct {
	ErrKind ErrorKind
	Msg     string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Err.Error() != e.Msg {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Kind reports the error's classification, used by main to pick an exit code.
func (e *Error) Kind() ErrorKind { return e.ErrKind }

func parseError(msg string) *Error {
	return &Error{ErrKind: KindParseError, Msg: msg}
}

func notFound(msg string) *Error {
	return &Error{ErrKind: KindNotFound, Msg: msg}
}

// wrap translates an error from any domain package into a commands.Error,
// preserving its kind. Unrecognized errors are treated as StoreError.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	var taskErr *tasks.Error
	if errors.As(err, &taskErr) {
		return &Error{ErrKind: taskKind(taskErr.Kind), Msg: taskErr.Error(), Err: err}
	}
	var sessErr *sessions.Error
	if errors.As(err, &sessErr) {
		return &Error{ErrKind: sessionKind(sessErr.Kind), Msg: sessErr.Error(), Err: err}
	}
	var projErr *projects.Error
	if errors.As(err, &projErr) {
		return &Error{ErrKind: projectKind(projErr.Kind), Msg: projErr.Error(), Err: err}
	}
	var filterErr *filter.ParseError
	if errors.As(err, &filterErr) {
		return &Error{ErrKind: KindParseError, Msg: filterErr.Error(), Err: err}
	}

	switch {
	case errors.Is(err, clock.ErrStackEmpty), errors.Is(err, clock.ErrNoOpenSession):
		return &Error{ErrKind: KindInvariantViolation, Msg: err.Error(), Err: err}
	case errors.Is(err, clock.ErrSessionConflict):
		return &Error{ErrKind: KindConflict, Msg: err.Error(), Err: err}
	case errors.Is(err, clock.ErrTaskNotFound):
		return &Error{ErrKind: KindNotFound, Msg: err.Error(), Err: err}
	case errors.Is(err, clock.ErrAmbiguousSelector):
		return &Error{ErrKind: KindParseError, Msg: err.Error(), Err: err}
	}

	return &Error{ErrKind: KindStoreError, Msg: fmt.Sprintf("failed to %s", op), Err: err}
}

func taskKind(k tasks.ErrorKind) ErrorKind {
	switch k {
	case tasks.KindNotFound:
		return KindNotFound
	case tasks.KindInvariantViolation:
		return KindInvariantViolation
	case tasks.KindParseError:
		return KindParseError
	default:
		return KindStoreError
	}
}

func sessionKind(k sessions.ErrorKind) ErrorKind {
	switch k {
	case sessions.KindNotFound:
		return KindNotFound
	case sessions.KindConflict:
		return KindConflict
	case sessions.KindInvariantViolation:
		return KindInvariantViolation
	default:
		return KindStoreError
	}
}

func projectKind(k projects.ErrorKind) ErrorKind {
	switch k {
	case projects.KindNotFound:
		return KindNotFound
	case projects.KindConflict:
		return KindConflict
	default:
		return KindStoreError
	}
}
