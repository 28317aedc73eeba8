// Package source resolves a source string (file path, URL, or Postgres
// query) into raw records for the grid.
package source

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/gridkit/internal/db"
	"github.com/sells-group/gridkit/internal/fetcher"
	"github.com/sells-group/gridkit/internal/record"
)

// Format is a decoder name.
type Format string

// Supported formats.
const (
	CSV       Format = "csv"
	TSV       Format = "tsv"
	JSON      Format = "json"
	XLSX      Format = "xlsx"
	Shapefile Format = "shp"
	ZIP       Format = "zip"
)

// Opener connects to Postgres for query sources.
type Opener func(ctx context.Context, dsn string) (db.Pool, error)

// Loader resolves sources. The zero value is not usable; call New.
type Loader struct {
	http     fetcher.Fetcher
	ftp      fetcher.Fetcher
	postgres Opener
	jsonPath string
	sheet    string
	tempDir  string
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTP sets the fetcher used for http(s) URLs.
func WithHTTP(f fetcher.Fetcher) Option { return func(l *Loader) { l.http = f } }

// WithFTP sets the fetcher used for ftp URLs.
func WithFTP(f fetcher.Fetcher) Option { return func(l *Loader) { l.ftp = f } }

// WithPostgres sets how postgres:// sources connect.
func WithPostgres(o Opener) Option { return func(l *Loader) { l.postgres = o } }

// WithJSONPath selects a nested array inside JSON documents.
func WithJSONPath(p string) Option { return func(l *Loader) { l.jsonPath = p } }

// WithSheet selects the XLSX worksheet by name.
func WithSheet(name string) Option { return func(l *Loader) { l.sheet = name } }

// WithTempDir sets where downloaded archives are unpacked.
func WithTempDir(dir string) Option { return func(l *Loader) { l.tempDir = dir } }

// New returns a Loader with default HTTP and FTP fetchers.
func New(opts ...Option) *Loader {
	l := &Loader{
		http:     fetcher.NewHTTPFetcher(fetcher.HTTPOptions{}),
		ftp:      fetcher.NewFTPFetcher(fetcher.FTPOptions{}),
		postgres: ConnectPostgres,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load reads src. Sources are:
//
//	people.csv, people.json, people.xlsx, roads.shp, bundle.zip
//	https://host/people.csv, ftp://host/people.csv
//	postgres://user@host/db#SELECT * FROM people
//
// Remote formats are picked from the URL path extension; unknown extensions
// are sniffed as JSON when the body starts with '[' or '{', else CSV.
func (l *Loader) Load(ctx context.Context, src string) ([]record.Record, error) {
	if src == "" {
		return nil, eris.New("source: empty source")
	}
	u, err := url.Parse(src)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return l.loadRemote(ctx, l.http, src, u.Path)
		case "ftp":
			return l.loadRemote(ctx, l.ftp, src, u.Path)
		case "postgres", "postgresql":
			return l.loadQuery(ctx, src)
		}
	}
	return l.loadFile(ctx, src)
}

// LoadPair loads the primary and comparison sources concurrently. An empty
// comparison yields nil.
func (l *Loader) LoadPair(ctx context.Context, primary, comparison string) (data, compare []record.Record, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data, err = l.Load(gctx, primary)
		return err
	})
	if comparison != "" {
		g.Go(func() error {
			var err error
			compare, err = l.Load(gctx, comparison)
			return eris.Wrap(err, "source: comparison")
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return data, compare, nil
}

// Detect picks the format for a file name.
func Detect(name string) (Format, bool) {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return CSV, true
	case ".tsv", ".tab":
		return TSV, true
	case ".json":
		return JSON, true
	case ".xlsx":
		return XLSX, true
	case ".shp":
		return Shapefile, true
	case ".zip":
		return ZIP, true
	}
	return "", false
}

func (l *Loader) loadFile(ctx context.Context, name string) ([]record.Record, error) {
	format, ok := Detect(name)
	switch {
	case ok && format == XLSX:
		return fetcher.ReadXLSX(name, fetcher.XLSXOptions{SheetName: l.sheet})
	case ok && format == Shapefile:
		return fetcher.ReadShapefile(name)
	case ok && format == ZIP:
		return l.loadZIP(ctx, name)
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open %s", name)
	}
	defer f.Close() //nolint:errcheck
	return l.decode(ctx, format, f)
}

func (l *Loader) loadRemote(ctx context.Context, f fetcher.Fetcher, src, urlPath string) ([]record.Record, error) {
	format, _ := Detect(urlPath)
	if format == Shapefile || format == ZIP {
		return l.loadRemoteArchive(ctx, f, src, urlPath)
	}

	body, err := f.Download(ctx, src)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	if format == XLSX {
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, eris.Wrap(err, "source: read xlsx body")
		}
		return fetcher.ReadXLSXBytes(data, fetcher.XLSXOptions{SheetName: l.sheet})
	}
	return l.decode(ctx, format, body)
}

// loadRemoteArchive downloads to a temp dir so the multi-file formats can be
// read from disk.
func (l *Loader) loadRemoteArchive(ctx context.Context, f fetcher.Fetcher, src, urlPath string) ([]record.Record, error) {
	dir, err := os.MkdirTemp(l.tempDir, "gridkit-")
	if err != nil {
		return nil, eris.Wrap(err, "source: create temp dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	local := filepath.Join(dir, path.Base(urlPath))
	if _, err := fetcher.DownloadToFile(ctx, f, src, local); err != nil {
		return nil, err
	}
	return l.loadFile(ctx, local)
}

func (l *Loader) loadZIP(ctx context.Context, name string) ([]record.Record, error) {
	dir, err := os.MkdirTemp(l.tempDir, "gridkit-zip-")
	if err != nil {
		return nil, eris.Wrap(err, "source: create temp dir")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	paths, err := fetcher.ExtractZIP(name, dir)
	if err != nil {
		return nil, err
	}
	inner, ok := fetcher.FindByExt(paths, ".shp", ".csv", ".tsv", ".json", ".xlsx")
	if !ok {
		return nil, eris.Errorf("source: no readable file in %s", name)
	}
	zap.L().Debug("source: reading archive entry", zap.String("archive", name), zap.String("entry", filepath.Base(inner)))
	return l.loadFile(ctx, inner)
}

func (l *Loader) decode(ctx context.Context, format Format, r io.Reader) ([]record.Record, error) {
	switch format {
	case CSV:
		return fetcher.ReadCSV(ctx, r, fetcher.CSVOptions{})
	case TSV:
		return fetcher.ReadCSV(ctx, r, fetcher.CSVOptions{Delimiter: '\t', LazyQuotes: true})
	case JSON:
		return fetcher.ReadJSON(r, fetcher.JSONOptions{Path: l.jsonPath})
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "source: read body")
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return fetcher.ReadJSON(bytes.NewReader(trimmed), fetcher.JSONOptions{Path: l.jsonPath})
	}
	return fetcher.ReadCSV(ctx, bytes.NewReader(data), fetcher.CSVOptions{})
}

// Redact hides the password of URL sources for logging.
func Redact(src string) string {
	u, err := url.Parse(src)
	if err != nil || u.User == nil {
		return src
	}
	return u.Redacted()
}
