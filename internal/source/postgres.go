package source

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/gridkit/internal/db"
	"github.com/sells-group/gridkit/internal/record"
)

// ConnectPostgres opens a small pool for query sources.
func ConnectPostgres(ctx context.Context, dsn string) (db.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 2
	cfg.MaxConnIdleTime = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return pool, nil
}

// SplitQuery separates a "postgres://...#SELECT ..." source into the DSN and
// the SQL. The fragment may be URL-escaped.
func SplitQuery(src string) (dsn, query string, err error) {
	i := strings.IndexByte(src, '#')
	if i < 0 {
		return "", "", eris.New("source: postgres source needs a #<query> fragment")
	}
	dsn, query = src[:i], src[i+1:]
	if unescaped, uerr := url.PathUnescape(query); uerr == nil {
		query = unescaped
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return "", "", eris.New("source: empty postgres query")
	}
	return dsn, query, nil
}

func (l *Loader) loadQuery(ctx context.Context, src string) ([]record.Record, error) {
	dsn, query, err := SplitQuery(src)
	if err != nil {
		return nil, err
	}
	pool, err := l.postgres(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer pool.Close()
	return Query(ctx, pool, query)
}

// Query runs sql and returns one record per result row, keyed by column
// name in select order.
func Query(ctx context.Context, pool db.Pool, sql string, args ...any) ([]record.Record, error) {
	rows, err := pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "source: query")
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []record.Record
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, eris.Wrap(err, "source: scan row")
		}
		var rec record.Record
		for i, f := range fields {
			rec.Set(f.Name, normalize(values[i]))
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "source: read rows")
	}
	return out, nil
}

// normalize maps driver values onto the JSON-ish kinds the grid parses.
func normalize(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case int16:
		return float64(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}
