package filter

import (
	"github.com/gnemet/gridview/column"
)

// SortSpec is the column-id form of a Sort, used for persistence.
type SortSpec struct {
	Column    string    `json:"column"`
	Direction Direction `json:"direction"`
}

// Spec is the column-id form of a Filter, used for persistence.
type Spec struct {
	Column   string   `json:"column"`
	Operator Operator `json:"operator"`
	Values   []string `json:"values"`
}

// Lookup resolves a column by unique id.
type Lookup func(id string) *column.Column

func SortSpecs(sorts []Sort) []SortSpec {
	out := make([]SortSpec, 0, len(sorts))
	for _, s := range sorts {
		out = append(out, SortSpec{Column: s.Column.UniqueID(), Direction: s.Direction})
	}
	return out
}

func Specs(filters []Filter) []Spec {
	out := make([]Spec, 0, len(filters))
	for _, f := range filters {
		out = append(out, Spec{Column: f.Column.UniqueID(), Operator: f.Operator, Values: f.Values})
	}
	return out
}

// ResolveSorts turns specs back into sorts. Specs naming unknown columns are
// returned as dropped.
func ResolveSorts(specs []SortSpec, lookup Lookup) (sorts []Sort, dropped []string) {
	for _, s := range specs {
		col := lookup(s.Column)
		if col == nil {
			dropped = append(dropped, s.Column)
			continue
		}
		sorts = append(sorts, Sort{Column: col, Direction: ParseDirection(string(s.Direction))})
	}
	return sorts, dropped
}

// ResolveFilters turns specs back into filters. Specs naming unknown columns
// are returned as dropped.
func ResolveFilters(specs []Spec, lookup Lookup) (filters []Filter, dropped []string) {
	for _, s := range specs {
		col := lookup(s.Column)
		if col == nil {
			dropped = append(dropped, s.Column)
			continue
		}
		filters = append(filters, Filter{Column: col, Operator: s.Operator, Values: s.Values})
	}
	return filters, dropped
}
