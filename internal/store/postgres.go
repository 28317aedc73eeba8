package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/gridkit/internal/db"
	"github.com/sells-group/gridkit/internal/view"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// Pool returns the underlying pool so exports can share the connection.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS grid_views (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name       TEXT NOT NULL UNIQUE,
	definition JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate creates the grid_views table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// SaveView inserts or replaces the view named v.Name.
func (s *PostgresStore) SaveView(ctx context.Context, v view.View) (*SavedView, error) {
	if err := validateName(v); err != nil {
		return nil, err
	}
	def, err := json.Marshal(v)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal view")
	}

	now := time.Now().UTC()
	sv := SavedView{View: v}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO grid_views (id, name, definition, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (name) DO UPDATE SET definition = EXCLUDED.definition, updated_at = EXCLUDED.updated_at
		 RETURNING id, created_at, updated_at`,
		uuid.New().String(), v.Name, def, now, now,
	).Scan(&sv.ID, &sv.CreatedAt, &sv.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: save view %s", v.Name)
	}
	return &sv, nil
}

// GetView returns the view with name, or ErrNotFound.
func (s *PostgresStore) GetView(ctx context.Context, name string) (*SavedView, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, definition, created_at, updated_at FROM grid_views WHERE name = $1`, name)
	sv, err := scanPGView(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get view %s", name)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get view %s", name)
	}
	return sv, nil
}

// ListViews returns every view ordered by name.
func (s *PostgresStore) ListViews(ctx context.Context) ([]SavedView, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, definition, created_at, updated_at FROM grid_views ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list views")
	}
	defer rows.Close()

	var out []SavedView
	for rows.Next() {
		sv, err := scanPGView(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan view")
		}
		out = append(out, *sv)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list views")
}

// DeleteView removes the view with name.
func (s *PostgresStore) DeleteView(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM grid_views WHERE name = $1`, name)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete view %s", name)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: delete view %s", name)
	}
	return nil
}

func scanPGView(row scannable) (*SavedView, error) {
	var sv SavedView
	var def []byte
	if err := row.Scan(&sv.ID, &def, &sv.CreatedAt, &sv.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(def, &sv.View); err != nil {
		return nil, eris.Wrap(err, "unmarshal view")
	}
	return &sv, nil
}
