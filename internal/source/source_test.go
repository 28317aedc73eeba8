package source

import (
	"archive/zip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/gridkit/internal/db"
	"github.com/sells-group/gridkit/internal/fetcher"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad_Files(t *testing.T) {
	l := New()
	ctx := context.Background()

	recs, err := l.Load(ctx, writeFile(t, "people.csv", "name,age\nalice,30\n"))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "30", recs[0].Value("age"))

	recs, err = l.Load(ctx, writeFile(t, "people.tsv", "name\tage\nbob\t25\n"))
	require.NoError(t, err)
	assert.Equal(t, "bob", recs[0].Value("name"))

	recs, err = l.Load(ctx, writeFile(t, "people.json", `[{"name":"carol","age":41}]`))
	require.NoError(t, err)
	assert.Equal(t, float64(41), recs[0].Value("age"))

	recs, err = l.Load(ctx, writeFile(t, "people.dat", "  [{\"name\":\"dave\"}]"))
	require.NoError(t, err)
	assert.Equal(t, "dave", recs[0].Value("name"), "unknown extensions are sniffed")
}

func TestLoad_JSONPath(t *testing.T) {
	l := New(WithJSONPath("results"))
	recs, err := l.Load(context.Background(), writeFile(t, "wrapped.json", `{"results":[{"a":1},{"a":2}]}`))
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestLoad_XLSX(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("data")
	require.NoError(t, err)
	for _, cells := range [][]string{{"name"}, {"erin"}} {
		row := sheet.AddRow()
		for _, c := range cells {
			row.AddCell().SetString(c)
		}
	}
	p := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.Save(p))

	recs, err := New(WithSheet("data")).Load(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "erin", recs[0].Value("name"))
}

func TestLoad_ZIP(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bundle.zip")
	out, err := os.Create(p)
	require.NoError(t, err)
	w := zip.NewWriter(out)
	fw, err := w.Create("inner/people.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("name\nfrank\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, out.Close())

	recs, err := New(WithTempDir(t.TempDir())).Load(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "frank", recs[0].Value("name"))
}

func TestLoad_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/people.csv":
			_, _ = w.Write([]byte("name\ngrace\n"))
		case "/api/people":
			_, _ = w.Write([]byte(`[{"name":"heidi"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := New(WithHTTP(fetcher.NewHTTPFetcher(fetcher.HTTPOptions{MaxRetries: 1})))
	ctx := context.Background()

	recs, err := l.Load(ctx, srv.URL+"/people.csv")
	require.NoError(t, err)
	assert.Equal(t, "grace", recs[0].Value("name"))

	recs, err = l.Load(ctx, srv.URL+"/api/people")
	require.NoError(t, err)
	assert.Equal(t, "heidi", recs[0].Value("name"))

	_, err = l.Load(ctx, srv.URL+"/missing.csv")
	assert.Error(t, err)
}

func TestLoad_Postgres(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT name, age FROM people`).
		WillReturnRows(mock.NewRows([]string{"name", "age"}).
			AddRow("ivan", int64(22)).
			AddRow([]byte("judy"), nil))

	var gotDSN string
	l := New(WithPostgres(func(_ context.Context, dsn string) (db.Pool, error) {
		gotDSN = dsn
		return mock, nil
	}))

	recs, err := l.Load(context.Background(), "postgres://grid@localhost/grid#SELECT%20name,%20age%20FROM%20people")
	require.NoError(t, err)
	assert.Equal(t, "postgres://grid@localhost/grid", gotDSN)
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"name", "age"}, recs[0].Keys())
	assert.Equal(t, float64(22), recs[0].Value("age"))
	assert.Equal(t, "judy", recs[1].Value("name"))
	assert.Nil(t, recs[1].Value("age"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSplitQuery(t *testing.T) {
	dsn, q, err := SplitQuery("postgres://h/db#select 1")
	require.NoError(t, err)
	assert.Equal(t, "postgres://h/db", dsn)
	assert.Equal(t, "select 1", q)

	_, _, err = SplitQuery("postgres://h/db")
	assert.Error(t, err)
	_, _, err = SplitQuery("postgres://h/db#  ")
	assert.Error(t, err)
}

func TestLoadPair(t *testing.T) {
	l := New()
	a := writeFile(t, "a.csv", "x\n1\n")
	b := writeFile(t, "b.csv", "x\n1\n2\n")

	data, cmp, err := l.LoadPair(context.Background(), a, b)
	require.NoError(t, err)
	assert.Len(t, data, 1)
	assert.Len(t, cmp, 2)

	data, cmp, err = l.LoadPair(context.Background(), a, "")
	require.NoError(t, err)
	assert.Len(t, data, 1)
	assert.Nil(t, cmp)

	_, _, err = l.LoadPair(context.Background(), a, filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "comparison")
}

func TestDetectAndRedact(t *testing.T) {
	f, ok := Detect("A.XLSX")
	assert.True(t, ok)
	assert.Equal(t, XLSX, f)
	_, ok = Detect("readme")
	assert.False(t, ok)

	assert.Equal(t, "postgres://grid:xxxxx@h/db", Redact("postgres://grid:secret@h/db"))
	assert.Equal(t, "people.csv", Redact("people.csv"))
}
