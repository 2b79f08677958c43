// Package column holds the grid column model: select columns bound to a
// source field, computed columns and action columns, the value types that
// drive formatting, the declarative factory and the ordered registry.
package column

import (
	"strings"
)

// DefaultPosition is assigned to columns added without an explicit position.
const DefaultPosition = 1

// Variant is the column flavour.
type Variant int

const (
	VariantSelect Variant = iota
	VariantComputed
	VariantAction
)

func (v Variant) String() string {
	switch v {
	case VariantSelect:
		return "select"
	case VariantComputed:
		return "computed"
	case VariantAction:
		return "action"
	}
	return "unknown"
}

// ComputeFunc derives a computed column value from the raw source row.
type ComputeFunc func(row map[string]any) any

// SortDefault is the sort applied when the request carries none.
type SortDefault struct {
	Priority  int
	Direction string // "asc" or "desc"
}

// SelectOption is one entry of a filter select list.
type SelectOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Column is a grid column. It is immutable after construction except for
// its position, which may be changed until the registry is sorted.
type Column struct {
	id       string
	label    string
	position int
	posSet   bool
	variant  Variant

	field string
	table string

	typ        Type
	sortable   bool
	filterable bool
	hidden     bool
	identity   bool
	translate  bool
	width      float64

	sortDefault    *SortDefault
	replace        map[string]string
	unmatchedEmpty bool
	filterOptions  []SelectOption
	filterDefault  string
	rendererParams map[string]map[string]any

	compute ComputeFunc
	actions []*Action
}

// Option configures a column at construction.
type Option func(*Column)

// NewSelect builds a column bound to a source field. A dotted field reaches
// into nested records.
func NewSelect(field, table string, opts ...Option) *Column {
	c := &Column{
		variant:    VariantSelect,
		field:      field,
		table:      table,
		typ:        StringType{},
		sortable:   true,
		filterable: true,
	}
	id := field
	if table != "" {
		id = table + "_" + field
	}
	c.id = strings.ReplaceAll(id, ".", "_")
	c.label = field
	return c.apply(opts)
}

// NewComputed builds a column whose value is derived from the whole row.
func NewComputed(id string, fn ComputeFunc, opts ...Option) *Column {
	c := &Column{
		id:      id,
		label:   id,
		variant: VariantComputed,
		typ:     StringType{},
		compute: fn,
	}
	c.apply(opts)
	if c.label == "" {
		c.label = c.id
	}
	return c
}

// NewAction builds a column holding row action links.
func NewAction(id string, actions []*Action, opts ...Option) *Column {
	if id == "" {
		id = "action"
	}
	c := &Column{
		id:      id,
		label:   "",
		variant: VariantAction,
		typ:     StringType{},
		actions: actions,
	}
	return c.apply(opts)
}

func (c *Column) apply(opts []Option) *Column {
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Column) UniqueID() string           { return c.id }
func (c *Column) Label() string              { return c.label }
func (c *Column) Variant() Variant           { return c.variant }
func (c *Column) Field() string              { return c.field }
func (c *Column) Table() string              { return c.table }
func (c *Column) Type() Type                 { return c.typ }
func (c *Column) IsSortable() bool           { return c.sortable && c.variant == VariantSelect }
func (c *Column) IsFilterable() bool         { return c.filterable && c.variant == VariantSelect }
func (c *Column) IsHidden() bool             { return c.hidden }
func (c *Column) IsIdentity() bool           { return c.identity }
func (c *Column) Translate() bool            { return c.translate }
func (c *Column) Width() float64             { return c.width }
func (c *Column) Compute() ComputeFunc       { return c.compute }
func (c *Column) Actions() []*Action         { return c.actions }
func (c *Column) FilterDefaultValue() string { return c.filterDefault }

// HasSelect reports whether the column is backed by a source field.
func (c *Column) HasSelect() bool {
	return c.variant == VariantSelect && c.field != ""
}

// Position returns the display position and whether one was set.
func (c *Column) Position() (int, bool) {
	return c.position, c.posSet
}

// SetPosition moves the column. It only affects order on the next sort.
func (c *Column) SetPosition(p int) {
	c.position = p
	c.posSet = true
}

// SortDefault returns the default sort, or nil.
func (c *Column) SortDefault() *SortDefault {
	return c.sortDefault
}

// ReplaceValues returns the replacement map and whether unmatched values
// become empty.
func (c *Column) ReplaceValues() (map[string]string, bool) {
	return c.replace, c.unmatchedEmpty
}

// FilterSelectOptions returns the options offered by a select filter.
func (c *Column) FilterSelectOptions() []SelectOption {
	return c.filterOptions
}

// RendererParameters returns the parameters set for the named renderer.
func (c *Column) RendererParameters(renderer string) map[string]any {
	return c.rendererParams[renderer]
}

func WithLabel(label string) Option {
	return func(c *Column) { c.label = label }
}

func WithPosition(p int) Option {
	return func(c *Column) { c.SetPosition(p) }
}

func WithType(t Type) Option {
	return func(c *Column) {
		if t != nil {
			c.typ = t
		}
	}
}

func WithUniqueID(id string) Option {
	return func(c *Column) { c.id = id }
}

func Hidden(b bool) Option {
	return func(c *Column) { c.hidden = b }
}

func Sortable(b bool) Option {
	return func(c *Column) { c.sortable = b }
}

func Filterable(b bool) Option {
	return func(c *Column) { c.filterable = b }
}

// Identity marks the column as part of the row identity.
func Identity(b bool) Option {
	return func(c *Column) { c.identity = b }
}

func Translated(b bool) Option {
	return func(c *Column) { c.translate = b }
}

func WithWidth(w float64) Option {
	return func(c *Column) { c.width = w }
}

// WithSortDefault sorts by this column when the request has no sort.
// Lower priorities sort first.
func WithSortDefault(priority int, direction string) Option {
	return func(c *Column) {
		d := strings.ToLower(direction)
		if d != "desc" {
			d = "asc"
		}
		c.sortDefault = &SortDefault{Priority: priority, Direction: d}
	}
}

// WithReplaceValues substitutes raw values before formatting. Values missing
// from the map become empty when unmatchedEmpty is set.
func WithReplaceValues(values map[string]string, unmatchedEmpty bool) Option {
	return func(c *Column) {
		c.replace = values
		c.unmatchedEmpty = unmatchedEmpty
	}
}

// WithFilterSelectOptions offers a fixed list in the filter. With noSelect
// an empty "-" entry is prepended.
func WithFilterSelectOptions(options []SelectOption, noSelect bool) Option {
	return func(c *Column) {
		opts := make([]SelectOption, 0, len(options)+1)
		if noSelect {
			opts = append(opts, SelectOption{Value: "", Label: "-"})
		}
		c.filterOptions = append(opts, options...)
	}
}

func WithFilterDefaultValue(v string) Option {
	return func(c *Column) { c.filterDefault = v }
}

// WithRendererParameter sets a parameter only the named renderer reads.
func WithRendererParameter(name string, value any, renderer string) Option {
	return func(c *Column) {
		if c.rendererParams == nil {
			c.rendererParams = make(map[string]map[string]any)
		}
		if c.rendererParams[renderer] == nil {
			c.rendererParams[renderer] = make(map[string]any)
		}
		c.rendererParams[renderer][name] = value
	}
}

func WithCompute(fn ComputeFunc) Option {
	return func(c *Column) { c.compute = fn }
}

func WithActions(actions ...*Action) Option {
	return func(c *Column) { c.actions = append(c.actions, actions...) }
}
