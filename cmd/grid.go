package main

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/gridkit/internal/celltype"
	"github.com/sells-group/gridkit/internal/fetcher"
	"github.com/sells-group/gridkit/internal/filter"
	"github.com/sells-group/gridkit/internal/grid"
	"github.com/sells-group/gridkit/internal/source"
	"github.com/sells-group/gridkit/internal/store"
	"github.com/sells-group/gridkit/internal/view"
)

// gridFlags are the view settings shared by the commands that open a grid.
type gridFlags struct {
	compare string
	filters []string
	sort    string
	sticky  string
	types   []string
	file    string
	saved   string
}

func (f *gridFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.compare, "compare", "", "comparison source to diff against")
	fl.StringArrayVar(&f.filters, "filter", nil, "column filter: col=text or col=low..high (repeatable)")
	fl.StringVar(&f.sort, "sort", "", "sort as column[:asc|desc]")
	fl.StringVar(&f.sticky, "sticky", "", "column pinned first")
	fl.StringArrayVar(&f.types, "type", nil, "cell type override: col=type (repeatable)")
	fl.StringVar(&f.file, "view", "", "view definition YAML file")
	fl.StringVar(&f.saved, "saved", "", "name of a saved view")
}

// resolve merges the view file or saved view with the flags. Flags win.
func (f *gridFlags) resolve(ctx context.Context, args []string) (*view.View, error) {
	v := &view.View{}
	switch {
	case f.file != "" && f.saved != "":
		return nil, eris.New("--view and --saved are mutually exclusive")
	case f.file != "":
		loaded, err := view.Load(f.file)
		if err != nil {
			return nil, err
		}
		v = loaded
	case f.saved != "":
		views, err := openViews(ctx)
		if err != nil {
			return nil, err
		}
		defer views.Close() //nolint:errcheck
		sv, err := views.GetView(ctx, f.saved)
		if err != nil {
			return nil, eris.Wrapf(err, "saved view %q", f.saved)
		}
		v = &sv.View
	}

	if len(args) > 0 {
		v.Source = args[0]
	}
	if f.compare != "" {
		v.Compare = f.compare
	}
	if f.sort != "" {
		v.Sort = f.sort
	}
	if f.sticky != "" {
		v.Sticky = f.sticky
	}
	if len(f.filters) > 0 {
		if v.Filters == nil {
			v.Filters = filter.Set{}
		}
		for _, a := range f.filters {
			col, val, err := filter.ParseAssignment(a)
			if err != nil {
				return nil, err
			}
			v.Filters[col] = val
		}
	}
	if len(f.types) > 0 {
		if v.Types == nil {
			v.Types = map[string]celltype.Type{}
		}
		for _, a := range f.types {
			col, t, ok := strings.Cut(a, "=")
			if !ok || col == "" {
				return nil, eris.Errorf("expected col=type, got %q", a)
			}
			v.Types[strings.TrimSpace(col)] = celltype.Type(strings.TrimSpace(t))
		}
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// openGrid loads the view's sources into a new store.
func openGrid(ctx context.Context, v *view.View, extra ...grid.Option) (*grid.Store, error) {
	if v.Source == "" {
		return nil, eris.New("a source is required")
	}

	data, compare, err := newLoader().LoadPair(ctx, v.Source, v.Compare)
	if err != nil {
		return nil, err
	}

	opts := append(cfg.Grid.Options(), v.Options()...)
	opts = append(opts, extra...)
	s := grid.New(opts...)
	s.LoadData(data)
	if len(compare) > 0 {
		s.LoadComparisonData(compare)
	}

	zap.L().Debug("grid opened",
		zap.String("source", source.Redact(v.Source)),
		zap.Int("records", len(data)),
		zap.Int("comparison", len(compare)),
	)
	return s, nil
}

func newLoader() *source.Loader {
	return source.New(
		source.WithHTTP(fetcher.NewHTTPFetcher(cfg.Fetch.HTTPOptions())),
		source.WithFTP(fetcher.NewFTPFetcher(fetcher.FTPOptions{
			Timeout: time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		})),
		source.WithPostgres(source.ConnectPostgres),
		source.WithJSONPath(jsonPath),
		source.WithSheet(sheetName),
	)
}

func openViews(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}
	return store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
}
