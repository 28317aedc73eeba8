// Package store persists saved grid views in SQLite or Postgres.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/gridkit/internal/view"
)

// ErrNotFound is returned when no view has the requested name.
var ErrNotFound = eris.New("store: view not found")

// SavedView is a stored view with its bookkeeping fields.
type SavedView struct {
	ID        string    `json:"id"`
	View      view.View `json:"view"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store defines the persistence interface for saved views. Views are keyed
// by name; saving an existing name replaces it and keeps its ID.
type Store interface {
	SaveView(ctx context.Context, v view.View) (*SavedView, error)
	GetView(ctx context.Context, name string) (*SavedView, error)
	ListViews(ctx context.Context) ([]SavedView, error)
	DeleteView(ctx context.Context, name string) error

	Migrate(ctx context.Context) error
	Close() error
}

// Open returns a migrated store for driver "sqlite" or "postgres".
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch driver {
	case "sqlite", "":
		s, err = NewSQLite(dsn)
	case "postgres":
		s, err = NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func validateName(v view.View) error {
	if v.Name == "" {
		return eris.New("store: view name is required")
	}
	return v.Validate()
}
