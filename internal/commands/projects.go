package commands

import (
	"context"
	"fmt"

	"github.com/roelfdiedericks/taskclaw/internal/format"
	"github.com/roelfdiedericks/taskclaw/internal/projects"
)

// cmdProjects dispatches `projects add|list|rename|archive|unarchive`.
func cmdProjects(ctx context.Context, env *Env, args []string) (string, error) {
	if len(args) == 0 {
		return "", parseError("projects requires a sub-verb: add, list, rename, archive, or unarchive")
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "add":
		if len(rest) != 1 {
			return "", parseError("projects add requires exactly one name")
		}
		p, err := projects.Add(ctx, env.Store, rest[0])
		if err != nil {
			return "", wrap("create project", err)
		}
		return fmt.Sprintf("Created project '%s' (id: %d)", p.Name, p.ID), nil

	case "list":
		includeArchived := false
		for _, tok := range rest {
			if tok == "--archived" {
				includeArchived = true
			}
		}
		list, err := projects.List(ctx, env.Store, includeArchived)
		if err != nil {
			return "", wrap("list projects", err)
		}
		rows := make([]format.ProjectRow, 0, len(list))
		for _, p := range list {
			rows = append(rows, format.ProjectRow{ID: p.ID, Name: p.Name, IsArchived: p.IsArchived})
		}
		return format.Projects(rows, env.JSONOutput)

	case "rename":
		force := false
		var names []string
		for _, tok := range rest {
			if tok == "--force" {
				force = true
				continue
			}
			names = append(names, tok)
		}
		if len(names) != 2 {
			return "", parseError("projects rename requires <old> <new>")
		}
		result, err := projects.Rename(ctx, env.Store, names[0], names[1], force)
		if err != nil {
			return "", wrap("rename project", err)
		}
		if result.Merged {
			return fmt.Sprintf("Merged project '%s' into '%s'", result.From, result.To), nil
		}
		return fmt.Sprintf("Renamed project '%s' to '%s'", result.From, result.To), nil

	case "archive":
		if len(rest) != 1 {
			return "", parseError("projects archive requires exactly one name")
		}
		if err := projects.SetArchived(ctx, env.Store, rest[0], true); err != nil {
			return "", wrap("archive project", err)
		}
		return fmt.Sprintf("Archived project '%s'", rest[0]), nil

	case "unarchive":
		if len(rest) != 1 {
			return "", parseError("projects unarchive requires exactly one name")
		}
		if err := projects.SetArchived(ctx, env.Store, rest[0], false); err != nil {
			return "", wrap("unarchive project", err)
		}
		return fmt.Sprintf("Unarchived project '%s'", rest[0]), nil

	default:
		return "", parseError("unknown projects sub-verb: " + sub)
	}
}
