package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/gridkit/internal/celltype"
	"github.com/sells-group/gridkit/internal/parse"
	"github.com/sells-group/gridkit/internal/record"
	"github.com/sells-group/gridkit/internal/schema"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func load(recs []record.Record) ([]record.Row, schema.Schema) {
	s := schema.Infer(recs)
	return parse.Rows(recs, s), s
}

func TestCompute_ScenarioNewAndOld(t *testing.T) {
	current := []record.Record{
		record.Of("id", float64(1), "name", "a"),
		record.Of("id", float64(2), "name", "b"),
	}
	comparison := []record.Record{
		record.Of("id", float64(1), "name", "a"),
		record.Of("id", float64(3), "name", "c"),
	}
	rows, s := load(current)

	res := Compute(rows, comparison, s)
	require.NotEmpty(t, res.UniqueColumn)
	require.Len(t, res.Rows, 3)

	assert.Equal(t, record.StatusNone, res.Rows[0].Status)
	assert.Equal(t, float64(1), res.Rows[0].Value("id"))

	assert.Equal(t, record.StatusNew, res.Rows[1].Status)
	assert.Equal(t, float64(2), res.Rows[1].Value("id"))

	assert.Equal(t, record.StatusOld, res.Rows[2].Status)
	assert.Equal(t, float64(3), res.Rows[2].Value("id"))
	assert.Equal(t, 2, res.Rows[2].Index)
}

func TestCompute_IdentityHasNoStatus(t *testing.T) {
	recs := []record.Record{
		record.Of("code", "x1", "n", float64(1), "meta", map[string]any{"a": []any{float64(1)}}),
		record.Of("code", "x2", "n", float64(2), "meta", map[string]any{"a": []any{float64(2)}}),
		record.Of("code", "x3", "n", nil, "meta", nil),
	}
	rows, s := load(recs)

	res := Compute(rows, recs, s)
	assert.Equal(t, "code", res.UniqueColumn)
	assert.Len(t, res.Rows, 3)
	assert.Empty(t, Changed(res.Rows))
	assert.Equal(t, Summary{}, Summarize(res.Rows))
}

func TestCompute_Modified(t *testing.T) {
	current := []record.Record{
		record.Of("code", "a", "n", float64(1), "meta", map[string]any{"k": "v"}),
		record.Of("code", "b", "n", float64(2), "meta", map[string]any{"k": "v"}),
	}
	comparison := []record.Record{
		record.Of("code", "a", "n", float64(10), "meta", map[string]any{"k": "v"}),
		record.Of("code", "b", "n", float64(2), "meta", map[string]any{"k": "other"}),
	}
	rows, s := load(current)
	require.Equal(t, celltype.Object, s["meta"])

	res := Compute(rows, comparison, s)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, record.StatusModified, res.Rows[0].Status)
	assert.Equal(t, []string{"n"}, res.Rows[0].ModifiedColumns)
	assert.Equal(t, record.StatusModified, res.Rows[1].Status)
	assert.Equal(t, []string{"meta"}, res.Rows[1].ModifiedColumns)
	assert.Equal(t, record.CellModified, res.Rows[1].CellStatus("meta"))
	assert.Equal(t, record.CellModifiedRow, res.Rows[1].CellStatus("n"))
	assert.Equal(t, Summary{Modified: 2}, Summarize(res.Rows))
}

func TestCompute_NoUniqueColumnSkips(t *testing.T) {
	current := []record.Record{
		record.Of("name", "dup", "n", float64(1)),
		record.Of("name", "dup", "n", float64(2)),
	}
	rows, s := load(current)

	res := Compute(rows, []record.Record{record.Of("name", "z", "n", float64(3))}, s)
	assert.Empty(t, res.UniqueColumn)
	assert.Len(t, res.Rows, 2)
	assert.Empty(t, Changed(res.Rows))
}

func TestCompute_EmptyComparisonSkips(t *testing.T) {
	rows, s := load([]record.Record{record.Of("name", "a")})
	res := Compute(rows, nil, s)
	assert.Empty(t, res.UniqueColumn)
	assert.Len(t, res.Rows, 1)
}

func TestCompute_ClearsPreviousStatus(t *testing.T) {
	recs := []record.Record{record.Of("name", "a"), record.Of("name", "b")}
	rows, s := load(recs)
	rows[0].Status = record.StatusNew

	res := Compute(rows, recs, s)
	assert.Empty(t, Changed(res.Rows))
	assert.Equal(t, record.StatusNew, rows[0].Status)
}

func TestUniqueColumn_IDOnlyCandidate(t *testing.T) {
	recs := []record.Record{
		record.Of("id", float64(1), "score", float64(5)),
		record.Of("id", float64(2), "score", float64(6)),
		record.Of("id", float64(3), "score", float64(7)),
	}
	rows, s := load(recs)
	col, ok := UniqueColumn(rows, []string{"id", "score"}, s)
	require.True(t, ok)
	assert.Equal(t, "id", col)
}

func TestUniqueColumn_HighestCardinalityWins(t *testing.T) {
	recs := []record.Record{
		record.Of("ID", float64(1), "group", "g1", "email", "a@x"),
		record.Of("ID", float64(1), "group", "g1", "email", "b@x"),
		record.Of("ID", float64(2), "group", "g2", "email", "c@x"),
	}
	rows, s := load(recs)
	col, ok := UniqueColumn(rows, []string{"ID", "group", "email"}, s)
	require.True(t, ok)
	assert.Equal(t, "email", col)
}

func TestUniqueColumn_TieGoesToEarlierColumn(t *testing.T) {
	recs := []record.Record{
		record.Of("id", float64(1), "name", "a"),
		record.Of("id", float64(2), "name", "b"),
	}
	rows, s := load(recs)
	col, ok := UniqueColumn(rows, []string{"id", "name"}, s)
	require.True(t, ok)
	assert.Equal(t, "id", col)

	col, ok = UniqueColumn(rows, []string{"name", "id"}, s)
	require.True(t, ok)
	assert.Equal(t, "name", col)
}

func TestUniqueColumn_NonIDNumbersIgnored(t *testing.T) {
	recs := []record.Record{
		record.Of("n", float64(1)),
		record.Of("n", float64(2)),
	}
	rows, s := load(recs)
	_, ok := UniqueColumn(rows, []string{"n"}, s)
	assert.False(t, ok)
}

func TestChanged_Positions(t *testing.T) {
	rows := []record.Row{
		{Index: 0},
		{Index: 1, Status: record.StatusNew},
		{Index: 2},
		{Index: 3, Status: record.StatusOld},
	}
	changes := Changed(rows)
	require.Len(t, changes, 2)
	assert.Equal(t, 1, changes[0].Position)
	assert.Equal(t, 3, changes[1].Position)
	assert.Equal(t, Summary{New: 1, Old: 1}, Summarize(rows))
}
