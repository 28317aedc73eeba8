// Package record holds the raw and parsed row types shared by the grid pipeline.
package record

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
)

// reservedKeys are bookkeeping names older hosts stored inline with the data.
// They are never treated as columns.
var reservedKeys = map[string]bool{
	"__status__":              true,
	"__modifiedColumnNames__": true,
	"__rowIndex__":            true,
	"__rawData__":             true,
}

// IsReserved reports whether key is a legacy bookkeeping name.
func IsReserved(key string) bool {
	return reservedKeys[key]
}

// Record is one raw input row. Key order is the order keys were first set.
type Record struct {
	keys   []string
	values map[string]any
}

// Of builds a Record from alternating key, value arguments.
// A trailing key without a value is set to nil.
func Of(kv ...any) Record {
	var r Record
	for i := 0; i < len(kv); i += 2 {
		key, _ := kv[i].(string)
		var v any
		if i+1 < len(kv) {
			v = kv[i+1]
		}
		r.Set(key, v)
	}
	return r
}

// FromStrings builds a Record pairing header names with a row of string cells.
// Missing cells become empty strings.
func FromStrings(header, cells []string) Record {
	var r Record
	for i, h := range header {
		v := ""
		if i < len(cells) {
			v = cells[i]
		}
		r.Set(h, v)
	}
	return r
}

// Keys returns the record's keys in order.
func (r Record) Keys() []string {
	return r.keys
}

// Len returns the number of keys.
func (r Record) Len() int {
	return len(r.keys)
}

// Get returns the value for key and whether the key is present.
func (r Record) Get(key string) (any, bool) {
	if r.values == nil {
		return nil, false
	}
	v, ok := r.values[key]
	return v, ok
}

// Value returns the value for key, or nil.
func (r Record) Value(key string) any {
	v, _ := r.Get(key)
	return v
}

// Set assigns key. New keys are appended to the key order.
func (r *Record) Set(key string, v any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Delete removes key if present.
func (r *Record) Delete(key string) {
	if _, ok := r.values[key]; !ok {
		return
	}
	delete(r.values, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i:i], r.keys[i+1:]...)
			break
		}
	}
}

// Rename moves the value stored under from to to, keeping its position.
// It is a no-op when from is absent or to already exists.
func (r *Record) Rename(from, to string) {
	v, ok := r.values[from]
	if !ok || from == to {
		return
	}
	if _, exists := r.values[to]; exists {
		return
	}
	delete(r.values, from)
	r.values[to] = v
	keys := make([]string, len(r.keys))
	for i, k := range r.keys {
		if k == from {
			k = to
		}
		keys[i] = k
	}
	r.keys = keys
}

// Clone returns a shallow copy that can be mutated independently.
func (r Record) Clone() Record {
	out := Record{
		keys:   make([]string, len(r.keys)),
		values: make(map[string]any, len(r.values)),
	}
	copy(out.keys, r.keys)
	for k, v := range r.values {
		out.values[k] = v
	}
	return out
}

// Map returns the values as a plain map.
func (r Record) Map() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// MarshalJSON writes the record as an object with keys in order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, eris.Wrapf(err, "record: marshal key %q", k)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, eris.Wrapf(err, "record: marshal value for %q", k)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object, preserving source key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return eris.New("record: invalid json")
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return eris.Errorf("record: expected object, got %s", res.Type)
	}
	*r = fromResult(res)
	return nil
}

// DecodeArray decodes a JSON array of objects into records.
// Non-object elements are skipped.
func DecodeArray(data []byte) ([]Record, error) {
	if !gjson.ValidBytes(data) {
		return nil, eris.New("record: invalid json")
	}
	res := gjson.ParseBytes(data)
	if !res.IsArray() {
		return nil, eris.Errorf("record: expected array, got %s", res.Type)
	}

	var out []Record
	res.ForEach(func(_, value gjson.Result) bool {
		if value.IsObject() {
			out = append(out, fromResult(value))
		}
		return true
	})
	return out, nil
}

func fromResult(res gjson.Result) Record {
	var r Record
	res.ForEach(func(key, value gjson.Result) bool {
		r.Set(key.String(), value.Value())
		return true
	})
	return r
}

// Columns returns the column names of a dataset: the keys of the first record,
// minus legacy bookkeeping names.
func Columns(records []Record) []string {
	if len(records) == 0 {
		return nil
	}
	cols := make([]string, 0, records[0].Len())
	for _, k := range records[0].Keys() {
		if IsReserved(k) {
			continue
		}
		cols = append(cols, k)
	}
	return cols
}
