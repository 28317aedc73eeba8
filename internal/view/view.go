// Package view reads and writes saved grid views: the sources to load plus
// the filters, sort, sticky column and type overrides applied on load.
package view

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/gridkit/internal/celltype"
	"github.com/sells-group/gridkit/internal/filter"
	"github.com/sells-group/gridkit/internal/grid"
	"github.com/sells-group/gridkit/internal/sorter"
)

// View is a named grid configuration.
type View struct {
	Name     string                   `yaml:"name,omitempty" json:"name,omitempty"`
	Source   string                   `yaml:"source,omitempty" json:"source,omitempty"`
	Compare  string                   `yaml:"compare,omitempty" json:"compare,omitempty"`
	Metadata map[string]string        `yaml:"metadata,omitempty" json:"metadata,omitempty"`
	Filters  filter.Set               `yaml:"filters,omitempty" json:"filters,omitempty"`
	Sort     string                   `yaml:"sort,omitempty" json:"sort,omitempty"` // column[:asc|desc]
	Sticky   string                   `yaml:"sticky,omitempty" json:"sticky,omitempty"`
	Types    map[string]celltype.Type `yaml:"types,omitempty" json:"types,omitempty"`
	Editable bool                     `yaml:"editable,omitempty" json:"editable,omitempty"`
}

// Load reads a view from a YAML file.
func Load(path string) (*View, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "view: read %s", path)
	}
	v, err := Parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "view: parse %s", path)
	}
	return v, nil
}

// Parse decodes and validates a YAML view.
func Parse(data []byte) (*View, error) {
	var v View
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, eris.Wrap(err, "view: decode yaml")
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return &v, nil
}

// Save writes v as YAML.
func (v *View) Save(path string) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "view: encode yaml")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "view: write %s", path)
	}
	return nil
}

// Validate checks the sort expression and type names.
func (v *View) Validate() error {
	if _, err := v.SortSpec(); err != nil {
		return eris.Wrap(err, "view: sort")
	}
	for col, t := range v.Types {
		if !t.Valid() {
			return eris.Errorf("view: column %q has unknown type %q", col, t)
		}
	}
	return nil
}

// SortSpec parses Sort. An empty Sort is the zero spec.
func (v *View) SortSpec() (sorter.Spec, error) {
	if v.Sort == "" {
		return sorter.Spec{}, nil
	}
	return sorter.ParseSpec(v.Sort)
}

// Options converts the view into store options applied on every load.
func (v *View) Options() []grid.Option {
	var opts []grid.Option
	if len(v.Metadata) > 0 {
		opts = append(opts, grid.WithMetadata(v.Metadata))
	}
	if len(v.Types) > 0 {
		opts = append(opts, grid.WithTypeOverrides(v.Types))
	}
	if len(v.Filters) > 0 {
		opts = append(opts, grid.WithDefaultFilters(v.Filters.Clone()))
	}
	if spec, err := v.SortSpec(); err == nil && !spec.IsZero() {
		opts = append(opts, grid.WithDefaultSort(spec))
	}
	if v.Sticky != "" {
		opts = append(opts, grid.WithDefaultSticky(v.Sticky))
	}
	if v.Editable {
		opts = append(opts, grid.WithEditable(true))
	}
	return opts
}

// Capture records the store's current view settings under name.
func Capture(name string, st *grid.State) View {
	v := View{
		Name:     name,
		Sticky:   st.StickyColumn,
		Editable: st.Editable,
	}
	if len(st.Filters) > 0 {
		v.Filters = st.Filters.Clone()
	}
	if len(st.Metadata) > 0 {
		v.Metadata = make(map[string]string, len(st.Metadata))
		for k, m := range st.Metadata {
			v.Metadata[k] = m
		}
	}
	if !st.Sort.IsZero() {
		v.Sort = st.Sort.Column + ":" + string(st.Sort.Direction)
	}
	return v
}
