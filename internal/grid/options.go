package grid

import (
	"time"

	"github.com/sells-group/gridkit/internal/celltype"
	"github.com/sells-group/gridkit/internal/filter"
	"github.com/sells-group/gridkit/internal/record"
	"github.com/sells-group/gridkit/internal/sorter"
)

// Option configures a Store.
type Option func(*options)

type options struct {
	widths        WidthOptions
	textDelay     time.Duration
	rangeDelay    time.Duration
	overrides     map[string]celltype.Type
	metadata      map[string]string
	editable      bool
	defaultSort   sorter.Spec
	defaultSticky string
	defaultFilter filter.Set
	onChange      func(ViewState)
	onEdit        func([]record.Record)
}

func defaultOptions() options {
	return options{
		widths:     DefaultWidthOptions(),
		textDelay:  DefaultTextDebounce,
		rangeDelay: DefaultRangeDebounce,
	}
}

// WithWidthOptions sets the column width estimator's parameters.
func WithWidthOptions(o WidthOptions) Option {
	return func(opts *options) { opts.widths = o }
}

// WithDebounce sets the filter input delays.
func WithDebounce(text, rng time.Duration) Option {
	return func(opts *options) {
		opts.textDelay = text
		opts.rangeDelay = rng
	}
}

// WithTypeOverrides forces cell types for the named columns.
func WithTypeOverrides(types map[string]celltype.Type) Option {
	return func(opts *options) { opts.overrides = types }
}

// WithMetadata sets per-column descriptions.
func WithMetadata(m map[string]string) Option {
	return func(opts *options) { opts.metadata = m }
}

// WithEditable starts the store in editable mode.
func WithEditable(editable bool) Option {
	return func(opts *options) { opts.editable = editable }
}

// WithDefaultSort is applied on every data load when its column exists.
func WithDefaultSort(spec sorter.Spec) Option {
	return func(opts *options) { opts.defaultSort = spec }
}

// WithDefaultSticky pins a column on every data load when it exists.
func WithDefaultSticky(column string) Option {
	return func(opts *options) { opts.defaultSticky = column }
}

// WithDefaultFilters sets the filters of the first data load. Later loads
// keep the live filters.
func WithDefaultFilters(set filter.Set) Option {
	return func(opts *options) { opts.defaultFilter = set }
}

// WithOnChange registers the view-change callback.
func WithOnChange(fn func(ViewState)) Option {
	return func(opts *options) { opts.onChange = fn }
}

// WithOnEdit registers the edit callback. It receives the full updated
// dataset after every edit.
func WithOnEdit(fn func([]record.Record)) Option {
	return func(opts *options) { opts.onEdit = fn }
}
