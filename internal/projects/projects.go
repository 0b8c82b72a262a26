// Package projects manages the tree of dotted-name projects: add, list,
// rename (optionally force-merging into an existing name), archive, and
// unarchive. Nested names like "a.b" never get their own independent row
// unless explicitly added; nesting is purely a filter-time prefix match
// (see internal/filter).
package projects

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	. "github.com/roelfdiedericks/taskclaw/internal/logging"
	"github.com/roelfdiedericks/taskclaw/internal/store"
)

// Project mirrors the projects table.
type Project struct {
	ID         int64
	Name       string
	IsArchived bool
	CreatedTs  time.Time
	ModifiedTs time.Time
}

func scanProject(row interface{ Scan(...interface{}) error }) (Project, error) {
	var p Project
	var created, modified int64
	var archived int
	if err := row.Scan(&p.ID, &p.Name, &archived, &created, &modified); err != nil {
		return Project{}, err
	}
	p.IsArchived = archived != 0
	p.CreatedTs = time.Unix(created, 0)
	p.ModifiedTs = time.Unix(modified, 0)
	return p, nil
}

// GetByName looks up a project by its exact dotted name. Returns (Project{}, false, nil)
// when no such project exists.
func GetByName(ctx context.Context, s *store.Store, name string) (Project, bool, error) {
	row := s.DB().QueryRowContext(ctx,
		`SELECT id, name, is_archived, created_ts, modified_ts FROM projects WHERE name = ?`, name)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return Project{}, false, nil
	}
	if err != nil {
		return Project{}, false, storeError("look up project", err)
	}
	return p, true, nil
}

// Add creates a new project. Fails with a Conflict error if the name is
// already taken.
func Add(ctx context.Context, s *store.Store, name string) (Project, error) {
	var created Project
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		p, err := AddTx(ctx, tx, name, time.Now())
		if err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return Project{}, err
	}
	L_debug("projects: created", "name", name, "id", created.ID)
	return created, nil
}

// GetByNameTx is GetByName's transaction-scoped variant.
func GetByNameTx(ctx context.Context, tx *sql.Tx, name string) (Project, bool, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT id, name, is_archived, created_ts, modified_ts FROM projects WHERE name = ?`, name)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return Project{}, false, nil
	}
	if err != nil {
		return Project{}, false, storeError("look up project", err)
	}
	return p, true, nil
}

// AddTx is Add's transaction-scoped variant.
func AddTx(ctx context.Context, tx *sql.Tx, name string, now time.Time) (Project, error) {
	if _, exists, err := GetByNameTx(ctx, tx, name); err != nil {
		return Project{}, err
	} else if exists {
		return Project{}, alreadyExists(name)
	}

	ts := now.Unix()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO projects (name, is_archived, created_ts, modified_ts) VALUES (?, 0, ?, ?)`,
		name, ts, ts)
	if err != nil {
		return Project{}, storeError("create project", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Project{}, storeError("create project", err)
	}
	return Project{ID: id, Name: name, CreatedTs: time.Unix(ts, 0), ModifiedTs: time.Unix(ts, 0)}, nil
}

// List returns all projects, optionally including archived ones.
func List(ctx context.Context, s *store.Store, includeArchived bool) ([]Project, error) {
	query := `SELECT id, name, is_archived, created_ts, modified_ts FROM projects`
	if !includeArchived {
		query += ` WHERE is_archived = 0`
	}
	query += ` ORDER BY name`

	rows, err := s.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, storeError("list projects", err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, storeError("list projects", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RenameResult describes what Rename actually did, so the CLI layer can
// print the right verbatim message.
type RenameResult struct {
	Merged bool
	From   string
	To     string
}

// Rename renames oldName to newName. If newName already exists, the call
// fails with a Conflict error unless force is set, in which case every
// task on oldName is reassigned to newName and the now-empty oldName row
// is deleted, all within one transaction.
func Rename(ctx context.Context, s *store.Store, oldName, newName string, force bool) (RenameResult, error) {
	oldProj, exists, err := GetByName(ctx, s, oldName)
	if err != nil {
		return RenameResult{}, err
	}
	if !exists {
		return RenameResult{}, notFound(oldName)
	}

	newProj, newExists, err := GetByName(ctx, s, newName)
	if err != nil {
		return RenameResult{}, err
	}

	if newExists {
		if !force {
			return RenameResult{}, conflictNeedsForce(newName)
		}
		err := s.WithTx(ctx, func(tx *sql.Tx) error {
			now := time.Now().Unix()
			if _, err := tx.ExecContext(ctx,
				`UPDATE tasks SET project_id = ?, modified_ts = ? WHERE project_id = ?`,
				newProj.ID, now, oldProj.ID); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, oldProj.ID); err != nil {
				return err
			}
			return nil
		})
		if err != nil {
			return RenameResult{}, storeError("merge projects", err)
		}
		L_debug("projects: merged", "from", oldName, "to", newName)
		return RenameResult{Merged: true, From: oldName, To: newName}, nil
	}

	err = s.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE projects SET name = ?, modified_ts = ? WHERE id = ?`,
			newName, time.Now().Unix(), oldProj.ID)
		return err
	})
	if err != nil {
		return RenameResult{}, storeError("rename project", err)
	}
	L_debug("projects: renamed", "from", oldName, "to", newName)
	return RenameResult{Merged: false, From: oldName, To: newName}, nil
}

// SetArchived flips the archived flag on name.
func SetArchived(ctx context.Context, s *store.Store, name string, archived bool) error {
	proj, exists, err := GetByName(ctx, s, name)
	if err != nil {
		return err
	}
	if !exists {
		return notFound(name)
	}

	err = s.WithTx(ctx, func(tx *sql.Tx) error {
		val := 0
		if archived {
			val = 1
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE projects SET is_archived = ?, modified_ts = ? WHERE id = ?`,
			val, time.Now().Unix(), proj.ID)
		return err
	})
	if err != nil {
		verb := "archive"
		if !archived {
			verb = "unarchive"
		}
		return storeError(fmt.Sprintf("%s project", verb), err)
	}
	L_debug("projects: archived flag set", "name", name, "archived", archived)
	return nil
}
