// Package style holds conditional row styles.
package style

import (
	"github.com/gnemet/gridview/column"
	"github.com/gnemet/gridview/filter"
)

// RowStyle applies Class to rows matching every condition. A style without
// conditions applies to all rows.
type RowStyle struct {
	Name       string
	Class      string
	Conditions []filter.Filter
}

// New builds a row style.
func New(name, class string, conditions ...filter.Filter) *RowStyle {
	return &RowStyle{Name: name, Class: class, Conditions: conditions}
}

// Applies reports whether the raw row satisfies the style conditions.
func (s *RowStyle) Applies(raw map[string]any) bool {
	for _, c := range s.Conditions {
		v, _ := c.Column.Value(raw)
		if !filter.Match(c, v) {
			return false
		}
	}
	return true
}

// Classes collects the classes of the styles applying to raw, in order.
func Classes(styles []*RowStyle, raw map[string]any) []string {
	var out []string
	for _, s := range styles {
		if s.Applies(raw) {
			out = append(out, s.Class)
		}
	}
	return out
}

// When builds a condition on col.
func When(col *column.Column, op filter.Operator, values ...string) filter.Filter {
	return filter.Filter{Column: col, Operator: op, Values: values}
}
