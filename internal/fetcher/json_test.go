package fetcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSON_Array(t *testing.T) {
	recs, err := ReadJSON(strings.NewReader(`[{"z":1,"a":"x"},{"z":2,"a":"y"},3]`), JSONOptions{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"z", "a"}, recs[0].Keys(), "source key order is kept")
	assert.Equal(t, float64(2), recs[1].Value("z"))
}

func TestReadJSON_Path(t *testing.T) {
	doc := `{"meta":{"total":1},"data":{"items":[{"name":"alice"}]}}`
	recs, err := ReadJSON(strings.NewReader(doc), JSONOptions{Path: "data.items"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "alice", recs[0].Value("name"))

	_, err = ReadJSON(strings.NewReader(doc), JSONOptions{Path: "data.missing"})
	assert.Error(t, err)
}

func TestReadJSON_SingleObject(t *testing.T) {
	recs, err := ReadJSON(strings.NewReader(`{"name":"alice","tags":["a","b"]}`), JSONOptions{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, []any{"a", "b"}, recs[0].Value("tags"))
}

func TestReadJSON_Invalid(t *testing.T) {
	_, err := ReadJSON(strings.NewReader(`[{"a":`), JSONOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid document")

	_, err = ReadJSON(strings.NewReader(`"text"`), JSONOptions{})
	assert.Error(t, err)
}
