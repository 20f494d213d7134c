package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/reqdeck/reqdeck/internal/errdef"
	"github.com/reqdeck/reqdeck/internal/vars"
)

// Scope identifies one persisted variable collection.
type Scope string

const ScopeGlobal Scope = "global"

func EnvironmentScope(name string) Scope {
	return Scope("env:" + name)
}

func SessionScope(id string) Scope {
	return Scope("session:" + id)
}

const schema = `
CREATE TABLE IF NOT EXISTS variables (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	scope       TEXT NOT NULL,
	key         TEXT NOT NULL,
	value       TEXT NOT NULL,
	enabled     INTEGER NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	source      TEXT NOT NULL DEFAULT 'manual'
);
CREATE INDEX IF NOT EXISTS idx_variables_scope ON variables(scope);
`

// Store persists the Global, Environment and Session variable collections.
// Insertion order is preserved so a duplicate key shadows the earlier entry
// the same way it does in an in-memory collection.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeStorage, err, "open variable store %s", path)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errdef.Wrap(errdef.CodeStorage, err, "init variable store schema")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// List returns every entry of one scope in insertion order.
func (s *Store) List(scope Scope) ([]vars.Variable, error) {
	rows, err := s.db.Query(
		`SELECT key, value, enabled, description, source
		 FROM variables WHERE scope = ? ORDER BY id`,
		string(scope),
	)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeStorage, err, "list variables for scope %s", scope)
	}
	defer rows.Close()

	var entries []vars.Variable
	for rows.Next() {
		var entry vars.Variable
		var enabled int
		var source string
		if err := rows.Scan(&entry.Key, &entry.Value, &enabled, &entry.Description, &source); err != nil {
			return nil, errdef.Wrap(errdef.CodeStorage, err, "scan variable row")
		}
		entry.Enabled = enabled != 0
		entry.Source = vars.Source(source)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errdef.Wrap(errdef.CodeStorage, err, "list variables for scope %s", scope)
	}
	return entries, nil
}

// Upsert updates the entry with this exact key, or appends a new one. When a
// key is duplicated within the scope, the shadowing (latest) row is the one
// updated.
func (s *Store) Upsert(scope Scope, entry vars.Variable) error {
	res, err := s.db.Exec(
		`UPDATE variables SET value = ?, enabled = ?, description = ?, source = ?
		 WHERE id = (SELECT MAX(id) FROM variables WHERE scope = ? AND key = ?)`,
		entry.Value, boolInt(entry.Enabled), entry.Description, string(entry.Source),
		string(scope), entry.Key,
	)
	if err != nil {
		return errdef.Wrap(errdef.CodeStorage, err, "update variable %q", entry.Key)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errdef.Wrap(errdef.CodeStorage, err, "update variable %q", entry.Key)
	}
	if affected > 0 {
		return nil
	}

	_, err = s.db.Exec(
		`INSERT INTO variables (scope, key, value, enabled, description, source)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(scope), entry.Key, entry.Value, boolInt(entry.Enabled),
		entry.Description, string(entry.Source),
	)
	if err != nil {
		return errdef.Wrap(errdef.CodeStorage, err, "insert variable %q", entry.Key)
	}
	return nil
}

// Replace swaps the full contents of one scope. Collection editors own their
// scopes wholesale; the engine itself only ever goes through Upsert.
func (s *Store) Replace(scope Scope, entries []vars.Variable) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errdef.Wrap(errdef.CodeStorage, err, "replace scope %s", scope)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM variables WHERE scope = ?`, string(scope)); err != nil {
		return errdef.Wrap(errdef.CodeStorage, err, "clear scope %s", scope)
	}
	for _, entry := range entries {
		if _, err := tx.Exec(
			`INSERT INTO variables (scope, key, value, enabled, description, source)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			string(scope), entry.Key, entry.Value, boolInt(entry.Enabled),
			entry.Description, string(entry.Source),
		); err != nil {
			return errdef.Wrap(errdef.CodeStorage, err, "insert variable %q", entry.Key)
		}
	}
	if err := tx.Commit(); err != nil {
		return errdef.Wrap(errdef.CodeStorage, err, "replace scope %s", scope)
	}
	return nil
}

// ScopeView binds a store to one scope, which is the shape the bridge and the
// snapshot builder consume.
type ScopeView struct {
	store *Store
	scope Scope
}

func (s *Store) View(scope Scope) ScopeView {
	return ScopeView{store: s, scope: scope}
}

func (v ScopeView) List() ([]vars.Variable, error) {
	return v.store.List(v.scope)
}

func (v ScopeView) Upsert(entry vars.Variable) error {
	return v.store.Upsert(v.scope, entry)
}

func (v ScopeView) String() string {
	return fmt.Sprintf("scope(%s)", v.scope)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
