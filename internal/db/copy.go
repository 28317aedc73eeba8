package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// CopyFrom appends rows to table with the COPY protocol. Schema-qualified
// names like "public.people" are split on the first dot.
func CopyFrom(ctx context.Context, pool Pool, table string, rows *Rows) (int64, error) {
	if rows.Len() == 0 {
		return 0, nil
	}
	n, err := pool.CopyFrom(ctx, identifier(table), rows.Columns(), rows)
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", table)
	}
	return n, nil
}

// CreateTable creates table if it does not exist. types maps each column to
// a Postgres type name; missing columns default to TEXT.
func CreateTable(ctx context.Context, pool Pool, table string, columns []string, types map[string]string) error {
	if len(columns) == 0 {
		return eris.New("db: create table: no columns specified")
	}
	defs := make([]string, len(columns))
	for i, c := range columns {
		typ := types[c]
		if typ == "" {
			typ = "TEXT"
		}
		defs[i] = fmt.Sprintf("%s %s", pgx.Identifier{c}.Sanitize(), typ)
	}

	sql := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", identifier(table).Sanitize(), strings.Join(defs, ", "))
	if _, err := pool.Exec(ctx, sql); err != nil {
		return eris.Wrapf(err, "db: create table %s", table)
	}
	return nil
}

func identifier(table string) pgx.Identifier {
	parts := strings.SplitN(table, ".", 2)
	return pgx.Identifier(parts)
}
