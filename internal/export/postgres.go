package export

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/gridkit/internal/celltype"
	"github.com/sells-group/gridkit/internal/db"
	"github.com/sells-group/gridkit/internal/record"
	"github.com/sells-group/gridkit/internal/schema"
)

// PostgresOptions controls ToPostgres.
type PostgresOptions struct {
	// Table is the target table, optionally schema-qualified.
	Table string
	// Key, when set, merges rows on that column instead of appending.
	Key string
	// Create issues CREATE TABLE IF NOT EXISTS before writing.
	Create bool
}

// ToPostgres writes parsed rows into a Postgres table. Numbers become
// DOUBLE PRECISION, dates TIMESTAMPTZ, objects and arrays JSONB, and
// everything else TEXT. Diff-only old rows are skipped.
func ToPostgres(ctx context.Context, pool db.Pool, columns []string, rows []record.Row, s schema.Schema, opts PostgresOptions) (int64, error) {
	if opts.Table == "" {
		return 0, eris.New("export: postgres table is required")
	}

	if opts.Create {
		types := make(map[string]string, len(columns))
		for _, c := range columns {
			types[c] = pgType(s.Type(c))
		}
		if opts.Key != "" {
			types[opts.Key] += " UNIQUE"
		}
		if err := db.CreateTable(ctx, pool, opts.Table, columns, types); err != nil {
			return 0, err
		}
	}

	data := db.NewRows(columns, rows, func(column string, v any) (any, error) {
		return pgValue(s.Type(column), v)
	})

	var n int64
	var err error
	if opts.Key != "" {
		n, err = db.Upsert(ctx, pool, db.Merge{Table: opts.Table, Key: []string{opts.Key}}, data)
	} else {
		n, err = db.CopyFrom(ctx, pool, opts.Table, data)
	}
	if err == nil {
		err = data.Err()
	}
	if err != nil {
		return 0, eris.Wrap(err, "export: write postgres")
	}

	zap.L().Info("export: wrote rows to postgres",
		zap.String("table", opts.Table),
		zap.Int64("rows", n),
	)
	return n, nil
}

func pgType(t celltype.Type) string {
	switch t {
	case celltype.Number, celltype.Year:
		return "DOUBLE PRECISION"
	case celltype.Date, celltype.ShortRangeDate, celltype.Time:
		return "TIMESTAMPTZ"
	case celltype.Object, celltype.Array, celltype.ShortArray:
		return "JSONB"
	default:
		return "TEXT"
	}
}

func pgValue(t celltype.Type, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case celltype.Number, celltype.Year:
		if f, ok := celltype.ToNumber(v); ok {
			return f, nil
		}
		return nil, nil
	case celltype.Date, celltype.ShortRangeDate, celltype.Time:
		if f, ok := celltype.ToNumber(v); ok {
			return celltype.FromEpochMillis(f), nil
		}
		return nil, nil
	case celltype.Object, celltype.Array, celltype.ShortArray:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	default:
		return celltype.ToText(v), nil
	}
}
