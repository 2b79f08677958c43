// Package conditions keeps the projection, sorts and filters a data source
// accumulates before it executes. Data source variants embed Set.
package conditions

import (
	"github.com/gnemet/gridview/column"
	"github.com/gnemet/gridview/filter"
)

type Set struct {
	columns []*column.Column
	sorts   []filter.Sort
	filters []filter.Filter
}

// SetColumns keeps only columns backed by a source field.
func (s *Set) SetColumns(cols []*column.Column) {
	s.columns = s.columns[:0]
	for _, c := range cols {
		if c.HasSelect() {
			s.columns = append(s.columns, c)
		}
	}
}

func (s *Set) AddSortCondition(col *column.Column, dir filter.Direction) {
	s.sorts = append(s.sorts, filter.Sort{Column: col, Direction: dir})
}

func (s *Set) AddFilter(f filter.Filter) {
	s.filters = append(s.filters, f)
}

func (s *Set) Columns() []*column.Column { return s.columns }
func (s *Set) Sorts() []filter.Sort      { return s.sorts }

// Filters returns the accumulated filters, merged per column and operator.
func (s *Set) Filters() []filter.Filter {
	return filter.Merge(s.filters)
}
