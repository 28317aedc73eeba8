package filter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/gridkit/internal/celltype"
	"github.com/sells-group/gridkit/internal/parse"
	"github.com/sells-group/gridkit/internal/record"
	"github.com/sells-group/gridkit/internal/schema"
)

func rowsOf(s schema.Schema, recs ...record.Record) []record.Row {
	return parse.Rows(recs, s)
}

func indexes(rows []record.Row) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.Index
	}
	return out
}

func TestApply_RangeInclusive(t *testing.T) {
	s := schema.Schema{"name": celltype.Number}
	rows := rowsOf(s,
		record.Of("name", float64(5)),
		record.Of("name", float64(15)),
		record.Of("name", float64(25)),
		record.Of("name", float64(10)),
		record.Of("name", float64(20)),
		record.Of("name", nil),
	)

	got := Apply(rows, Set{"name": Between(10, 20)}, s)
	assert.Equal(t, []int{1, 3, 4}, indexes(got))
}

func TestApply_CategoryExact(t *testing.T) {
	s := schema.Schema{"c": celltype.Category}
	rows := rowsOf(s,
		record.Of("c", "red"),
		record.Of("c", "reddish"),
		record.Of("c", "Red"),
		record.Of("c", "red"),
	)
	got := Apply(rows, Set{"c": Text("red")}, s)
	assert.Equal(t, []int{0, 3}, indexes(got))
}

func TestApply_FuzzyRanked(t *testing.T) {
	s := schema.Schema{"name": celltype.String}
	rows := rowsOf(s,
		record.Of("name", "the apple pie"), // word starts with
		record.Of("name", "pineapple"),     // contains
		record.Of("name", "apple"),         // case-sensitive equal
		record.Of("name", "banana"),        // no match
		record.Of("name", "Apple tree"),    // starts with
		record.Of("name", "a p p l e s"),   // acronym
		record.Of("name", nil),             // never matches
	)
	got := Apply(rows, Set{"name": Text("apple")}, s)
	assert.Equal(t, []int{2, 4, 0, 1, 5}, indexes(got))
}

func TestApply_DiacriticsAndCase(t *testing.T) {
	s := schema.Schema{"city": celltype.String}
	rows := rowsOf(s, record.Of("city", "São Paulo"), record.Of("city", "Zürich"))

	assert.Len(t, Apply(rows, Set{"city": Text("sao")}, s), 1)
	assert.Len(t, Apply(rows, Set{"city": Text("ZURICH")}, s), 1)
}

func TestApply_ANDAcrossColumns(t *testing.T) {
	s := schema.Schema{"name": celltype.String, "age": celltype.Number}
	rows := rowsOf(s,
		record.Of("name", "alice", "age", float64(30)),
		record.Of("name", "alicia", "age", float64(50)),
		record.Of("name", "bob", "age", float64(30)),
	)
	got := Apply(rows, Set{"name": Text("ali"), "age": Between(20, 40)}, s)
	assert.Equal(t, []int{0}, indexes(got))
}

func TestApply_Idempotent(t *testing.T) {
	s := schema.Schema{"name": celltype.String, "n": celltype.Number}
	rows := rowsOf(s,
		record.Of("name", "delta", "n", float64(1)),
		record.Of("name", "alpha", "n", float64(2)),
		record.Of("name", "al", "n", float64(3)),
		record.Of("name", "a-l-x", "n", float64(4)),
	)
	set := Set{"name": Text("al"), "n": Between(1, 4)}
	once := Apply(rows, set, s)
	twice := Apply(once, set, s)
	assert.Equal(t, once, twice)
}

func TestApply_EmptySetAndEmptyText(t *testing.T) {
	s := schema.Schema{"a": celltype.String}
	rows := rowsOf(s, record.Of("a", "x"), record.Of("a", "y"))

	assert.Equal(t, rows, Apply(rows, nil, s))
	assert.Equal(t, rows, Apply(rows, Set{"a": Text("")}, s))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	s := schema.Schema{"a": celltype.String}
	rows := rowsOf(s, record.Of("a", "xb"), record.Of("a", "b"))
	before := append([]record.Row(nil), rows...)

	got := Apply(rows, Set{"a": Text("b")}, s)
	assert.Equal(t, []int{1, 0}, indexes(got))
	assert.Equal(t, before, rows)
}

func TestMatches(t *testing.T) {
	s := schema.Schema{"n": celltype.Number}
	r := rowsOf(s, record.Of("n", "7"))[0]
	assert.True(t, Matches(r, "n", Between(7, 7), s))
	assert.False(t, Matches(r, "n", Between(8, 9), s))
}

func TestRankMatch(t *testing.T) {
	tests := []struct {
		candidate, query string
		want             Rank
	}{
		{"Apple", "Apple", CaseSensitiveEqual},
		{"Apple", "apple", Equal},
		{"Applesauce", "apple", StartsWith},
		{"green apple", "apple", WordStartsWith},
		{"pineapple", "apple", Contains},
		{"north-west trading", "nwt", Acronym},
		{"abc", "abcd", NoMatch},
		{"xyz", "q", NoMatch},
		{"abc", "ac", InOrder + 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.candidate+"/"+tt.query, func(t *testing.T) {
			assert.InDelta(t, float64(tt.want), float64(RankMatch(tt.candidate, tt.query)), 1e-9)
		})
	}
}

func TestFoldDiacritics(t *testing.T) {
	assert.Equal(t, "Cafe creme", FoldDiacritics("Café crème"))
}

func TestValue_ParseAndString(t *testing.T) {
	v := ParseValue("10..20")
	require.True(t, v.IsRange())
	assert.Equal(t, 10.0, v.Range.Low)
	assert.Equal(t, 20.0, v.Range.High)
	assert.Equal(t, "10..20", v.String())

	v = ParseValue("20..10")
	assert.Equal(t, 10.0, v.Range.Low)

	v = ParseValue("a..b")
	assert.False(t, v.IsRange())
	assert.Equal(t, "a..b", v.Text)

	col, v, err := ParseAssignment("age=1..2")
	require.NoError(t, err)
	assert.Equal(t, "age", col)
	assert.True(t, v.IsRange())

	_, _, err = ParseAssignment("nocolumn")
	assert.Error(t, err)
}

func TestValue_JSON(t *testing.T) {
	set := Set{"name": Text("bob"), "age": Between(1, 5)}
	b, err := json.Marshal(set)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"bob","age":[1,5]}`, string(b))

	var back Set
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, set, back)

	var bad Value
	assert.Error(t, json.Unmarshal([]byte(`[1,2,3]`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &bad))
}

func TestValue_YAML(t *testing.T) {
	var set Set
	require.NoError(t, yaml.Unmarshal([]byte("name: bob\nage: [1, 5]\n"), &set))
	assert.Equal(t, Text("bob"), set["name"])
	assert.Equal(t, Between(1, 5), set["age"])

	out, err := yaml.Marshal(set)
	require.NoError(t, err)
	var again Set
	require.NoError(t, yaml.Unmarshal(out, &again))
	assert.Equal(t, set, again)

	assert.Error(t, yaml.Unmarshal([]byte("age: [1]\n"), &set))
}

func TestSet_Clone(t *testing.T) {
	set := Set{"a": Between(1, 2)}
	c := set.Clone()
	c["a"].Range.Low = 0
	assert.Equal(t, 1.0, set["a"].Range.Low)
}
