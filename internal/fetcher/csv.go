package fetcher

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/gridkit/internal/record"
)

// CSVOptions configures the CSV decoder.
type CSVOptions struct {
	Delimiter  rune // default ','
	Comment    rune // 0 = none
	LazyQuotes bool
	TrimSpace  bool
}

// ReadCSV decodes a CSV stream whose first row is the header. Every cell is
// kept as a string; short rows are padded with empty strings and extra cells
// are dropped.
func ReadCSV(ctx context.Context, r io.Reader, opts CSVOptions) ([]record.Record, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	if opts.Comment != 0 {
		reader.Comment = opts.Comment
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1

	var header []string
	var out []record.Record
	for {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "csv: context cancelled")
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}
		if opts.TrimSpace {
			for i, field := range row {
				row[i] = strings.TrimSpace(field)
			}
		}

		if header == nil {
			header = dedupeHeader(row)
			continue
		}
		out = append(out, record.FromStrings(header, row))
	}
	return out, nil
}

// dedupeHeader strips a UTF-8 BOM and suffixes repeated or blank names so
// every column is addressable.
func dedupeHeader(row []string) []string {
	header := make([]string, len(row))
	seen := make(map[string]int, len(row))
	for i, h := range row {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if h == "" {
			h = "column"
		}
		name := h
		for seen[name] > 0 {
			seen[h]++
			name = h + "_" + strconv.Itoa(seen[h])
		}
		seen[name]++
		header[i] = name
	}
	return header
}
