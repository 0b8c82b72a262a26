// Package commands implements the selector/verb grammar that turns a
// command line into one or more operations against the domain packages,
// and the `--yes`/confirmation policy for multi-target commands.
package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/roelfdiedericks/taskclaw/internal/store"
)

// Env carries everything a verb handler needs beyond its own arguments.
type Env struct {
	Store      *store.Store
	JSONOutput bool
	// AssumeYes suppresses confirmation prompts for multi-target operations
	// (set by the global --yes flag).
	AssumeYes bool
	// IsTerminal reports whether stdin is a terminal; when false and
	// AssumeYes is unset, multi-target commands refuse rather than prompt.
	IsTerminal func() bool
	// Now returns the current instant; overridable in tests.
	Now func() time.Time
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// confirm decides whether a multi-target mutation may proceed. With
// AssumeYes it proceeds; on a terminal it asks on stderr and proceeds only
// on a "y"/"yes" answer read from stdin. Returning false means the caller
// should report a parse error rather than silently acting on every match.
func (e *Env) confirm(n int) bool {
	if n <= 1 {
		return true
	}
	if e.AssumeYes {
		return true
	}
	if e.IsTerminal == nil || !e.IsTerminal() {
		return false
	}
	fmt.Fprintf(os.Stderr, "This will affect %d tasks. Proceed? [y/N] ", n)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
