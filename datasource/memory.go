package datasource

import (
	"context"
	"slices"

	"github.com/gnemet/gridview/datasource/conditions"
	"github.com/gnemet/gridview/errs"
	"github.com/gnemet/gridview/filter"
	"github.com/gnemet/gridview/paginator"
)

// Memory filters and sorts rows held in memory.
type Memory struct {
	conditions.Set

	rows     []map[string]any
	result   []map[string]any
	executed bool
}

func NewMemory(rows []map[string]any) *Memory {
	return &Memory{rows: rows}
}

func (m *Memory) Execute(context.Context) error {
	for _, s := range m.Sorts() {
		if !s.Column.HasSelect() {
			return errs.DataSourcef("datasource.Memory.Execute", "cannot sort by column %q without a source field", s.Column.UniqueID())
		}
	}
	filters := m.Filters()
	for _, f := range filters {
		if !f.Column.HasSelect() {
			return errs.DataSourcef("datasource.Memory.Execute", "cannot filter by column %q without a source field", f.Column.UniqueID())
		}
	}

	result := make([]map[string]any, 0, len(m.rows))
rows:
	for _, row := range m.rows {
		for _, f := range filters {
			v, _ := f.Column.Value(row)
			if !filter.Match(f, v) {
				continue rows
			}
		}
		result = append(result, row)
	}

	if sorts := m.Sorts(); len(sorts) > 0 {
		slices.SortStableFunc(result, func(a, b map[string]any) int {
			for _, s := range sorts {
				va, _ := s.Column.Value(a)
				vb, _ := s.Column.Value(b)
				c := filter.Compare(s.Column.Type(), va, vb)
				if s.Direction == filter.Desc {
					c = -c
				}
				if c != 0 {
					return c
				}
			}
			return 0
		})
	}

	m.result = result
	m.executed = true
	return nil
}

func (m *Memory) PaginatorAdapter() (paginator.Adapter, error) {
	if !m.executed {
		return nil, errs.DataSourcef("datasource.Memory.PaginatorAdapter", "data source not executed")
	}
	return SliceAdapter(m.result), nil
}

// SliceAdapter pages through rows already in memory.
type SliceAdapter []map[string]any

func (a SliceAdapter) Count(context.Context) (int, error) {
	return len(a), nil
}

func (a SliceAdapter) Items(_ context.Context, offset, limit int) (any, error) {
	if offset >= len(a) {
		return []map[string]any{}, nil
	}
	end := len(a)
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}
	return []map[string]any(a[offset:end]), nil
}
