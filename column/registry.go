package column

import (
	"sort"
)

// Registry is the ordered column collection of a grid, indexed by unique id.
type Registry struct {
	byID  map[string]*Column
	order []*Column
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Column)}
}

// Set replaces every column. On a unique id collision the later column wins
// and keeps the slot of the first.
func (r *Registry) Set(cols []*Column) {
	r.byID = make(map[string]*Column, len(cols))
	r.order = r.order[:0]
	for _, c := range cols {
		r.put(c)
	}
}

// Add inserts a column, defaulting its position to DefaultPosition.
func (r *Registry) Add(c *Column) {
	r.put(c)
}

func (r *Registry) put(c *Column) {
	if _, ok := c.Position(); !ok {
		c.SetPosition(DefaultPosition)
	}
	if old, ok := r.byID[c.UniqueID()]; ok {
		for i, o := range r.order {
			if o == old {
				r.order[i] = c
				break
			}
		}
	} else {
		r.order = append(r.order, c)
	}
	r.byID[c.UniqueID()] = c
}

// Sort orders columns by ascending position. Columns sharing a position keep
// their insertion order.
func (r *Registry) Sort() []*Column {
	sort.SliceStable(r.order, func(i, j int) bool {
		pi, _ := r.order[i].Position()
		pj, _ := r.order[j].Position()
		return pi < pj
	})
	return r.Columns()
}

// Columns returns a copy of the current order.
func (r *Registry) Columns() []*Column {
	out := make([]*Column, len(r.order))
	copy(out, r.order)
	return out
}

// ByID returns the column with the given unique id, or nil.
func (r *Registry) ByID(id string) *Column {
	return r.byID[id]
}

func (r *Registry) Len() int {
	return len(r.order)
}
