package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/gridkit/internal/celltype"
	"github.com/sells-group/gridkit/internal/facet"
	"github.com/sells-group/gridkit/internal/grid"
	"github.com/sells-group/gridkit/internal/record"
	"github.com/sells-group/gridkit/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type mapLoader map[string][]record.Record

func (m mapLoader) Load(_ context.Context, src string) ([]record.Record, error) {
	recs, ok := m[src]
	if !ok {
		return nil, eris.Errorf("no such source %q", src)
	}
	return recs, nil
}

func people() []record.Record {
	return []record.Record{
		record.Of("id", 1.0, "name", "Alice", "age", 25.0),
		record.Of("id", 2.0, "name", "Bob", "age", 35.0),
		record.Of("id", 3.0, "name", "Carol", "age", 45.0),
	}
}

func newTestServer(t *testing.T, views store.Store) *httptest.Server {
	t.Helper()
	srv := New(Config{
		Loader: mapLoader{
			"people.csv": people(),
			"old.csv": {
				record.Of("id", 1.0, "name", "Alice", "age", 25.0),
				record.Of("id", 2.0, "name", "Bob", "age", 30.0),
			},
		},
		Views:       views,
		GridOptions: []grid.Option{grid.WithWidthOptions(grid.DefaultWidthOptions())},
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeGrid(t *testing.T, resp *http.Response) gridResponse {
	t.Helper()
	var g gridResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&g))
	return g
}

func createGrid(t *testing.T, ts *httptest.Server, body any) gridResponse {
	t.Helper()
	resp := do(t, http.MethodPost, ts.URL+"/grids", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	g := decodeGrid(t, resp)
	require.NotEmpty(t, g.ID)
	return g
}

func names(g gridResponse) []string {
	out := make([]string, len(g.Rows))
	for i, r := range g.Rows {
		out[i], _ = r.Values.Value("name").(string)
	}
	return out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := do(t, http.MethodGet, ts.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestCreateGrid_InlineRecords(t *testing.T) {
	ts := newTestServer(t, nil)
	g := createGrid(t, ts, map[string]any{"records": people()})

	assert.Equal(t, 3, g.Total)
	assert.Equal(t, 3, g.Matched)
	assert.ElementsMatch(t, []string{"id", "name", "age"}, g.Columns)
	assert.Len(t, g.ColumnWidths, 3)
	assert.Equal(t, celltype.Number, g.Schema["age"])
}

func TestCreateGrid_FromSource(t *testing.T) {
	ts := newTestServer(t, nil)
	g := createGrid(t, ts, map[string]any{"source": "people.csv"})
	assert.Equal(t, "people.csv", g.Source)
	assert.Equal(t, 3, g.Total)
}

func TestCreateGrid_MissingSource(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := do(t, http.MethodPost, ts.URL+"/grids", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateGrid_InvalidBody(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := http.Post(ts.URL+"/grids", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateGrid_PrimaryLoadFails(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := do(t, http.MethodPost, ts.URL+"/grids", map[string]any{"source": "missing.csv"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCreateGrid_ComparisonLoadFailsSkipsDiff(t *testing.T) {
	ts := newTestServer(t, nil)
	g := createGrid(t, ts, map[string]any{"source": "people.csv", "compare": "missing.csv"})
	assert.Equal(t, 3, g.Total)
	assert.Zero(t, g.Summary.New+g.Summary.Modified+g.Summary.Old)
}

func TestCreateGrid_WithComparison(t *testing.T) {
	ts := newTestServer(t, nil)
	g := createGrid(t, ts, map[string]any{"source": "people.csv", "compare": "old.csv"})

	assert.Equal(t, "id", g.UniqueColumn)
	assert.Equal(t, 1, g.Summary.New)
	assert.Equal(t, 1, g.Summary.Modified)
	assert.Equal(t, 0, g.Summary.Old)
}

func TestGetGrid(t *testing.T) {
	ts := newTestServer(t, nil)
	g := createGrid(t, ts, map[string]any{"records": people()})

	resp := do(t, http.MethodGet, ts.URL+"/grids/"+g.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeGrid(t, resp)
	assert.Equal(t, g.ID, got.ID)
	assert.Len(t, got.Rows, 3)
}

func TestGetGrid_Paging(t *testing.T) {
	ts := newTestServer(t, nil)
	g := createGrid(t, ts, map[string]any{"records": people()})

	resp := do(t, http.MethodGet, ts.URL+"/grids/"+g.ID+"?offset=1&limit=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeGrid(t, resp)
	assert.Len(t, got.Rows, 1)
	assert.Equal(t, 3, got.Matched)

	resp = do(t, http.MethodGet, ts.URL+"/grids/"+g.ID+"?limit=-2", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetGrid_NotFound(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := do(t, http.MethodGet, ts.URL+"/grids/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFilters(t *testing.T) {
	ts := newTestServer(t, nil)
	g := createGrid(t, ts, map[string]any{"records": people()})
	base := ts.URL + "/grids/" + g.ID

	resp := do(t, http.MethodPut, base+"/filters/name", map[string]any{"value": "ali"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeGrid(t, resp)
	assert.Equal(t, []string{"Alice"}, names(got))
	assert.Equal(t, "ali", got.Filters["name"].Text)

	resp = do(t, http.MethodPut, base+"/filters/age", map[string]any{"value": []float64{20, 40}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decodeGrid(t, resp)
	assert.Equal(t, 1, got.Matched)

	resp = do(t, http.MethodPut, base+"/filters/name", map[string]any{"value": nil})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decodeGrid(t, resp)
	assert.Equal(t, 2, got.Matched)

	resp = do(t, http.MethodDelete, base+"/filters", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decodeGrid(t, resp)
	assert.Equal(t, 3, got.Matched)
	assert.Empty(t, got.Filters)
}

func TestFilters_UnknownColumn(t *testing.T) {
	ts := newTestServer(t, nil)
	g := createGrid(t, ts, map[string]any{"records": people()})

	resp := do(t, http.MethodPut, ts.URL+"/grids/"+g.ID+"/filters/zip", map[string]any{"value": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFilterProps(t *testing.T) {
	ts := newTestServer(t, nil)
	g := createGrid(t, ts, map[string]any{"records": people()})

	resp := do(t, http.MethodGet, ts.URL+"/grids/"+g.ID+"/filters/age", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var props grid.FilterProps
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&props))
	assert.Equal(t, celltype.FilterRange, props.Kind)
	assert.Len(t, props.OriginalData, 3)
}

func TestSort(t *testing.T) {
	ts := newTestServer(t, nil)
	g := createGrid(t, ts, map[string]any{"records": people()})
	base := ts.URL + "/grids/" + g.ID

	resp := do(t, http.MethodPut, base+"/sort", map[string]any{"column": "age", "direction": "asc"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, names(decodeGrid(t, resp)))

	resp = do(t, http.MethodPut, base+"/sort", map[string]any{"column": "age", "direction": "desc"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Carol", "Bob", "Alice"}, names(decodeGrid(t, resp)))

	resp = do(t, http.MethodPut, base+"/sort", map[string]any{"column": "age", "direction": "sideways"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPut, base+"/sort", map[string]any{"column": "zip"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSticky(t *testing.T) {
	ts := newTestServer(t, nil)
	g := createGrid(t, ts, map[string]any{"records": people()})
	base := ts.URL + "/grids/" + g.ID

	resp := do(t, http.MethodPut, base+"/sticky", map[string]any{"column": "age"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeGrid(t, resp)
	assert.Equal(t, "age", got.StickyColumn)
	assert.Equal(t, "age", got.Columns[0])

	resp = do(t, http.MethodPut, base+"/sticky", map[string]any{"column": "zip"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPostComparison(t *testing.T) {
	ts := newTestServer(t, nil)
	g := createGrid(t, ts, map[string]any{"records": people()})
	base := ts.URL + "/grids/" + g.ID

	resp := do(t, http.MethodPost, base+"/comparison", map[string]any{"source": "old.csv"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeGrid(t, resp)
	assert.Equal(t, "old.csv", got.Compare)
	assert.Equal(t, 1, got.Summary.Modified)

	resp = do(t, http.MethodPost, base+"/comparison", map[string]any{"records": []record.Record{}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decodeGrid(t, resp)
	assert.Zero(t, got.Summary.Modified)

	resp = do(t, http.MethodPost, base+"/comparison", map[string]any{"source": "missing.csv"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestGetCell(t *testing.T) {
	ts := newTestServer(t, nil)
	g := createGrid(t, ts, map[string]any{"records": people()})

	resp := do(t, http.MethodGet, ts.URL+"/grids/"+g.ID+"/cells/0/0", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cell grid.Cell
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cell))
	assert.Equal(t, g.Columns[0], cell.Column)
	assert.False(t, cell.Blank)

	resp = do(t, http.MethodGet, ts.URL+"/grids/"+g.ID+"/cells/x/0", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPutCell_EditsAccumulate(t *testing.T) {
	ts := newTestServer(t, nil)
	g := createGrid(t, ts, map[string]any{"records": people(), "editable": true})
	base := ts.URL + "/grids/" + g.ID
	nameCol := strconv.Itoa(slices.Index(g.Columns, "name"))
	require.Equal(t, []string{"Carol", "Bob", "Alice"}, names(g))

	resp := do(t, http.MethodPut, base+"/cells/0/"+nameCol, map[string]any{"value": "Zed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Zed", "Bob", "Alice"}, names(decodeGrid(t, resp)))

	resp = do(t, http.MethodPut, base+"/cells/1/"+nameCol, map[string]any{"value": "Yan"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeGrid(t, resp)
	assert.Equal(t, []string{"Zed", "Yan", "Alice"}, names(got))
	assert.Equal(t, "id", got.Sort.Column)

	resp = do(t, http.MethodPut, base+"/cells/3/"+nameCol, map[string]any{"value": "Dan"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decodeGrid(t, resp)
	assert.Equal(t, 4, got.Total)
	assert.Contains(t, names(got), "Dan")
}

func TestPutCell_Errors(t *testing.T) {
	ts := newTestServer(t, nil)
	ro := createGrid(t, ts, map[string]any{"records": people()})
	resp := do(t, http.MethodPut, ts.URL+"/grids/"+ro.ID+"/cells/0/1", map[string]any{"value": "x"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	g := createGrid(t, ts, map[string]any{"records": people(), "editable": true})
	base := ts.URL + "/grids/" + g.ID

	resp = do(t, http.MethodPut, base+"/cells/0/9", map[string]any{"value": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodPut, base+"/cells/9/1", map[string]any{"value": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodPut, base+"/cells/x/1", map[string]any{"value": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGrid_Scales(t *testing.T) {
	ts := newTestServer(t, nil)
	g := createGrid(t, ts, map[string]any{"records": people()})
	assert.Equal(t, facet.Extent{Min: 25, Max: 45}, g.Scales["age"])

	resp := do(t, http.MethodGet, ts.URL+"/grids/"+g.ID+"/cells/0/"+strconv.Itoa(slices.Index(g.Columns, "age")), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cell grid.Cell
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cell))
	require.NotNil(t, cell.Scale)
	assert.InDelta(t, 1.0, *cell.Scale, 1e-9)
}

func TestFilterProps_Width(t *testing.T) {
	ts := newTestServer(t, nil)
	g := createGrid(t, ts, map[string]any{"records": people()})
	base := ts.URL + "/grids/" + g.ID + "/filters/age"

	resp := do(t, http.MethodGet, base+"?width=600", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var props grid.FilterProps
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&props))
	assert.NotEmpty(t, props.Bins)

	resp = do(t, http.MethodGet, base+"?width=wide", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExportCSV(t *testing.T) {
	ts := newTestServer(t, nil)
	g := createGrid(t, ts, map[string]any{"records": people()})

	resp := do(t, http.MethodGet, ts.URL+"/grids/"+g.ID+"/export.csv", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")

	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Join(g.Columns, ","), lines[0])
}

func TestExportJSON(t *testing.T) {
	ts := newTestServer(t, nil)
	g := createGrid(t, ts, map[string]any{"records": people()})

	resp := do(t, http.MethodGet, ts.URL+"/grids/"+g.ID+"/export.json", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var rows []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	assert.Len(t, rows, 3)
}

func TestExportUnknownFormat(t *testing.T) {
	ts := newTestServer(t, nil)
	g := createGrid(t, ts, map[string]any{"records": people()})

	resp := do(t, http.MethodGet, ts.URL+"/grids/"+g.ID+"/export.txt", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteGrid(t *testing.T) {
	ts := newTestServer(t, nil)
	g := createGrid(t, ts, map[string]any{"records": people()})

	resp := do(t, http.MethodDelete, ts.URL+"/grids/"+g.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/grids/"+g.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodDelete, ts.URL+"/grids/"+g.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSavedViews(t *testing.T) {
	views, err := store.NewSQLite(filepath.Join(t.TempDir(), "views.db"))
	require.NoError(t, err)
	require.NoError(t, views.Migrate(context.Background()))
	t.Cleanup(func() { views.Close() })

	ts := newTestServer(t, views)
	g := createGrid(t, ts, map[string]any{"source": "people.csv"})
	base := ts.URL + "/grids/" + g.ID

	do(t, http.MethodPut, base+"/sort", map[string]any{"column": "age", "direction": "asc"})
	do(t, http.MethodPut, base+"/sticky", map[string]any{"column": "name"})

	resp := do(t, http.MethodPost, base+"/views", map[string]any{"name": "by-age"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var saved store.SavedView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&saved))
	assert.Equal(t, "by-age", saved.View.Name)
	assert.Equal(t, "people.csv", saved.View.Source)
	assert.Equal(t, "age:asc", saved.View.Sort)

	resp = do(t, http.MethodGet, ts.URL+"/views", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []store.SavedView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)

	// A new grid opened from the saved view picks up its source and settings.
	reopened := createGrid(t, ts, map[string]any{"view": "by-age"})
	assert.Equal(t, "people.csv", reopened.Source)
	assert.Equal(t, "name", reopened.StickyColumn)
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, names(reopened))

	resp = do(t, http.MethodPost, ts.URL+"/grids", map[string]any{"view": "missing"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSavedViews_NotConfigured(t *testing.T) {
	ts := newTestServer(t, nil)
	g := createGrid(t, ts, map[string]any{"records": people()})

	resp := do(t, http.MethodPost, ts.URL+"/grids/"+g.ID+"/views", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/views", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/grids", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
