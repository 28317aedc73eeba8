package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOf_PreservesOrder(t *testing.T) {
	r := Of("zeta", 1, "alpha", "a", "mid", nil)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, r.Keys())
	assert.Equal(t, 1, r.Value("zeta"))
	v, ok := r.Get("mid")
	assert.True(t, ok)
	assert.Nil(t, v)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestFromStrings_PadsMissingCells(t *testing.T) {
	r := FromStrings([]string{"name", "age", "city"}, []string{"alice", "30"})
	assert.Equal(t, []string{"name", "age", "city"}, r.Keys())
	assert.Equal(t, "", r.Value("city"))
}

func TestSetDeleteRename(t *testing.T) {
	r := Of("a", 1, "b", 2, "c", 3)

	r.Set("b", 20)
	assert.Equal(t, []string{"a", "b", "c"}, r.Keys())
	assert.Equal(t, 20, r.Value("b"))

	r.Rename("b", "bee")
	assert.Equal(t, []string{"a", "bee", "c"}, r.Keys())
	assert.Equal(t, 20, r.Value("bee"))

	// Renaming onto an existing key is ignored.
	r.Rename("a", "c")
	assert.Equal(t, []string{"a", "bee", "c"}, r.Keys())

	r.Delete("a")
	assert.Equal(t, []string{"bee", "c"}, r.Keys())
	r.Delete("nope")
	assert.Equal(t, 2, r.Len())
}

func TestClone_Independent(t *testing.T) {
	orig := Of("a", 1, "b", 2)
	c := orig.Clone()
	c.Set("a", 100)
	c.Delete("b")
	c.Set("z", true)

	assert.Equal(t, 1, orig.Value("a"))
	assert.Equal(t, []string{"a", "b"}, orig.Keys())
	assert.Equal(t, []string{"a", "z"}, c.Keys())
}

func TestJSON_RoundTripKeepsOrder(t *testing.T) {
	in := []byte(`{"zeta":1,"alpha":"x","nested":{"k":[1,2]},"flag":true,"none":null}`)

	var r Record
	require.NoError(t, json.Unmarshal(in, &r))
	assert.Equal(t, []string{"zeta", "alpha", "nested", "flag", "none"}, r.Keys())
	assert.Equal(t, float64(1), r.Value("zeta"))
	assert.Equal(t, true, r.Value("flag"))
	assert.Equal(t, map[string]any{"k": []any{float64(1), float64(2)}}, r.Value("nested"))

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, string(in), string(out))
	assert.Regexp(t, `^\{"zeta":1,"alpha":"x"`, string(out))
}

func TestUnmarshalJSON_Errors(t *testing.T) {
	var r Record
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &r))
	assert.Error(t, r.UnmarshalJSON([]byte(`{bad`)))
}

func TestDecodeArray(t *testing.T) {
	recs, err := DecodeArray([]byte(`[{"b":1,"a":2},3,{"c":"x"}]`))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"b", "a"}, recs[0].Keys())
	assert.Equal(t, "x", recs[1].Value("c"))

	_, err = DecodeArray([]byte(`{"a":1}`))
	assert.Error(t, err)
}

func TestColumns(t *testing.T) {
	assert.Nil(t, Columns(nil))

	recs := []Record{
		Of("name", "a", "__status__", "new", "age", 1),
		Of("other", 2),
	}
	assert.Equal(t, []string{"name", "age"}, Columns(recs))
}

func TestRowCellStatus(t *testing.T) {
	row := Row{Status: StatusModified, ModifiedColumns: []string{"age"}}
	assert.Equal(t, CellModified, row.CellStatus("age"))
	assert.Equal(t, CellModifiedRow, row.CellStatus("name"))

	assert.Equal(t, CellNew, Row{Status: StatusNew}.CellStatus("x"))
	assert.Equal(t, CellOld, Row{Status: StatusOld}.CellStatus("x"))
	assert.Equal(t, CellNone, Row{}.CellStatus("x"))

	cleared := row.WithoutStatus()
	assert.Equal(t, StatusNone, cleared.Status)
	assert.Nil(t, cleared.ModifiedColumns)
	assert.Equal(t, StatusModified, row.Status)
}

func TestRowRawValueFallback(t *testing.T) {
	row := Row{
		Values: map[string]any{"a": float64(1), "b": "x"},
		Raw:    Of("a", "1"),
	}
	assert.Equal(t, "1", row.RawValue("a"))
	assert.Equal(t, "x", row.RawValue("b"))
	assert.Nil(t, row.Value("missing"))
}
