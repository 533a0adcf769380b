// Package store persists named head groups per model so curated
// circuits survive restarts. The attention dataset itself is never
// stored: it is cheap to regenerate and replaced wholesale on every
// processing request.
package store

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/circuitlens/circuitlens/circuit"
	"github.com/circuitlens/circuitlens/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS head_groups (
	model       TEXT    NOT NULL,
	id          INTEGER NOT NULL,
	name        TEXT    NOT NULL,
	description TEXT    NOT NULL DEFAULT '',
	PRIMARY KEY (model, id)
);

CREATE TABLE IF NOT EXISTS head_group_members (
	model    TEXT    NOT NULL,
	group_id INTEGER NOT NULL,
	layer    INTEGER NOT NULL,
	head     INTEGER NOT NULL,
	PRIMARY KEY (model, group_id, layer, head)
);
`

// Store is the SQLite-backed group store.
type Store struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// Open creates or opens the group database at path. Use ":memory:"
// for an ephemeral store.
func Open(path string, logger *zap.SugaredLogger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open group database %s", path)
	}
	// One connection: sqlite wants a single writer, and ":memory:"
	// databases exist per connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to apply group schema")
	}
	return &Store{db: db, logger: logger.Named("store")}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveGroups replaces the persisted groups for a model with the given
// snapshots, atomically.
func (s *Store) SaveGroups(model string, groups []circuit.GroupSnapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin group save")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM head_groups WHERE model = ?`, model); err != nil {
		return errors.Wrapf(err, "failed to clear groups for model %s", model)
	}
	if _, err := tx.Exec(`DELETE FROM head_group_members WHERE model = ?`, model); err != nil {
		return errors.Wrapf(err, "failed to clear group members for model %s", model)
	}

	for _, g := range groups {
		if _, err := tx.Exec(
			`INSERT INTO head_groups (model, id, name, description) VALUES (?, ?, ?, ?)`,
			model, g.ID, g.Name, g.Description,
		); err != nil {
			return errors.Wrapf(err, "failed to insert group %q", g.Name)
		}
		for _, p := range g.Heads {
			if _, err := tx.Exec(
				`INSERT INTO head_group_members (model, group_id, layer, head) VALUES (?, ?, ?, ?)`,
				model, g.ID, p.Layer, p.Head,
			); err != nil {
				return errors.Wrapf(err, "failed to insert member (%d,%d) of group %q", p.Layer, p.Head, g.Name)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit group save")
	}

	s.logger.Debugw("Saved groups", "model", model, "groups", len(groups))
	return nil
}

// LoadGroups returns the persisted groups for a model, ordered by id,
// members ordered by (layer, head). An unknown model yields an empty
// slice, not an error.
func (s *Store) LoadGroups(model string) ([]circuit.GroupSnapshot, error) {
	rows, err := s.db.Query(
		`SELECT id, name, description FROM head_groups WHERE model = ? ORDER BY id`,
		model,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load groups for model %s", model)
	}
	defer rows.Close()

	var groups []circuit.GroupSnapshot
	for rows.Next() {
		var g circuit.GroupSnapshot
		if err := rows.Scan(&g.ID, &g.Name, &g.Description); err != nil {
			return nil, errors.Wrap(err, "failed to scan group row")
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed reading group rows")
	}

	for i := range groups {
		members, err := s.loadMembers(model, groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].Heads = members
	}
	return groups, nil
}

func (s *Store) loadMembers(model string, groupID int) ([]circuit.HeadPair, error) {
	rows, err := s.db.Query(
		`SELECT layer, head FROM head_group_members WHERE model = ? AND group_id = ? ORDER BY layer, head`,
		model, groupID,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load members of group %d", groupID)
	}
	defer rows.Close()

	members := []circuit.HeadPair{}
	for rows.Next() {
		var p circuit.HeadPair
		if err := rows.Scan(&p.Layer, &p.Head); err != nil {
			return nil, errors.Wrap(err, "failed to scan member row")
		}
		members = append(members, p)
	}
	return members, rows.Err()
}

// HasGroups reports whether any groups are persisted for the model,
// used to decide between restoring saved groups and applying seeds.
func (s *Store) HasGroups(model string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM head_groups WHERE model = ?`, model).Scan(&count)
	if err != nil {
		return false, errors.Wrapf(err, "failed to count groups for model %s", model)
	}
	return count > 0, nil
}
