package fetcher

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"

	"github.com/sells-group/gridkit/internal/record"
)

// JSONOptions configures the JSON decoder.
type JSONOptions struct {
	// Path is a gjson path to the array inside a wrapping object,
	// e.g. "data.items". Empty means the document itself is the array.
	Path string
}

// ReadJSON decodes an array of objects, keeping each object's key order.
// A document holding a single object is read as one record.
func ReadJSON(r io.Reader, opts JSONOptions) ([]record.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "json: read body")
	}
	if !gjson.ValidBytes(data) {
		return nil, eris.New("json: invalid document")
	}

	if opts.Path != "" {
		res := gjson.GetBytes(data, opts.Path)
		if !res.Exists() {
			return nil, eris.Errorf("json: path %q not found", opts.Path)
		}
		data = []byte(res.Raw)
	}

	if gjson.ParseBytes(data).IsObject() {
		var rec record.Record
		if err := rec.UnmarshalJSON(data); err != nil {
			return nil, eris.Wrap(err, "json: decode object")
		}
		return []record.Record{rec}, nil
	}

	recs, err := record.DecodeArray(data)
	if err != nil {
		return nil, eris.Wrap(err, "json: decode array")
	}
	return recs, nil
}
