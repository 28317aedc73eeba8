package db

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Merge describes an upsert of grid rows into an existing table.
type Merge struct {
	Table string   // optionally schema-qualified
	Key   []string // must carry a unique constraint, usually the diff key
}

// Upsert stages rows in a temp table and merges them into m.Table. Rows
// whose key already exists get every other column overwritten; with no
// other columns they are left alone.
func Upsert(ctx context.Context, pool Pool, m Merge, rows *Rows) (int64, error) {
	cols := rows.Columns()
	switch {
	case len(cols) == 0:
		return 0, eris.New("db: upsert: no columns specified")
	case len(m.Key) == 0:
		return 0, eris.New("db: upsert: no key columns specified")
	}
	for _, k := range m.Key {
		if !slices.Contains(cols, k) {
			return 0, eris.Errorf("db: upsert: key column %q is not copied", k)
		}
	}
	if rows.Len() == 0 {
		return 0, nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: upsert: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	stage := pgx.Identifier{"_tmp_upsert_" + strings.ReplaceAll(m.Table, ".", "_")}
	if _, err := tx.Exec(ctx, fmt.Sprintf(
		"CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		stage.Sanitize(), identifier(m.Table).Sanitize(),
	)); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: stage %s", m.Table)
	}
	if _, err := tx.CopyFrom(ctx, stage, cols, rows); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: COPY into stage for %s", m.Table)
	}

	tag, err := tx.Exec(ctx, mergeSQL(m, stage, cols))
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert: merge into %s", m.Table)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: upsert: commit tx")
	}
	return tag.RowsAffected(), nil
}

func mergeSQL(m Merge, stage pgx.Identifier, cols []string) string {
	var set []string
	for _, c := range cols {
		if slices.Contains(m.Key, c) {
			continue
		}
		id := pgx.Identifier{c}.Sanitize()
		set = append(set, id+" = EXCLUDED."+id)
	}
	action := "DO NOTHING"
	if len(set) > 0 {
		action = "DO UPDATE SET " + strings.Join(set, ", ")
	}
	list := columnList(cols)
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) %s",
		identifier(m.Table).Sanitize(), list, list, stage.Sanitize(), columnList(m.Key), action)
}

func columnList(cols []string) string {
	ids := make([]string, len(cols))
	for i, c := range cols {
		ids[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(ids, ", ")
}
