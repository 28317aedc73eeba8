package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/gridkit/internal/view"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS views (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	definition TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// Migrate creates the views table.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveView inserts or replaces the view named v.Name.
func (s *SQLiteStore) SaveView(ctx context.Context, v view.View) (*SavedView, error) {
	if err := validateName(v); err != nil {
		return nil, err
	}
	def, err := json.Marshal(v)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal view")
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO views (id, name, definition, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET definition = excluded.definition, updated_at = excluded.updated_at`,
		uuid.New().String(), v.Name, string(def), now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: save view %s", v.Name)
	}
	return s.GetView(ctx, v.Name)
}

// GetView returns the view with name, or ErrNotFound.
func (s *SQLiteStore) GetView(ctx context.Context, name string) (*SavedView, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, definition, created_at, updated_at FROM views WHERE name = ?`, name)
	sv, err := scanView(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get view %s", name)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get view %s", name)
	}
	return sv, nil
}

// ListViews returns every view ordered by name.
func (s *SQLiteStore) ListViews(ctx context.Context) ([]SavedView, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, definition, created_at, updated_at FROM views ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list views")
	}
	defer rows.Close() //nolint:errcheck

	var out []SavedView
	for rows.Next() {
		sv, err := scanView(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan view")
		}
		out = append(out, *sv)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list views")
}

// DeleteView removes the view with name.
func (s *SQLiteStore) DeleteView(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM views WHERE name = ?`, name)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete view %s", name)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: delete view %s", name)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanView(row scannable) (*SavedView, error) {
	var sv SavedView
	var def string
	if err := row.Scan(&sv.ID, &def, &sv.CreatedAt, &sv.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(def), &sv.View); err != nil {
		return nil, eris.Wrap(err, "unmarshal view")
	}
	return &sv, nil
}
