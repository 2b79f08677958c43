// Package paginator pages through the result of an executed data source.
package paginator

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/gnemet/gridview/errs"
)

// Unlimited as item count per page puts every row on a single page.
const Unlimited = -1

const (
	DefaultItemCountPerPage = 25
	DefaultPageRange        = 10
)

// Adapter is what an executed data source hands the paginator. A negative
// limit asks for every item from offset on.
type Adapter interface {
	Count(ctx context.Context) (int, error)
	Items(ctx context.Context, offset, limit int) (any, error)
}

// RowSet is a result that already holds its rows.
type RowSet interface {
	Rows() []map[string]any
}

// RowIterator is a streamed result.
type RowIterator interface {
	Next() bool
	Row() map[string]any
	Err() error
}

// Style decides which page numbers surround the current page.
type Style int

const (
	Sliding Style = iota
	Jumping
	Elastic
	All
)

func (s Style) String() string {
	switch s {
	case Sliding:
		return "sliding"
	case Jumping:
		return "jumping"
	case Elastic:
		return "elastic"
	case All:
		return "all"
	}
	return fmt.Sprintf("Style(%d)", int(s))
}

// ParseStyle maps a configured style name, case-insensitively. Empty means Sliding.
func ParseStyle(name string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sliding":
		return Sliding, nil
	case "jumping":
		return Jumping, nil
	case "elastic":
		return Elastic, nil
	case "all":
		return All, nil
	}
	return Sliding, errs.Configuration("paginator.ParseStyle", "unknown scrolling style %q", name)
}

type Option func(*Paginator)

func WithStyle(s Style) Option {
	return func(p *Paginator) { p.style = s }
}

func WithPageRange(n int) Option {
	return func(p *Paginator) {
		if n > 0 {
			p.pageRange = n
		}
	}
}

// Paginator holds one page of an adapter's result. Counts and items are
// fetched on Load and memoised; page and size setters must precede it.
type Paginator struct {
	adapter   Adapter
	style     Style
	pageRange int

	current int
	perPage int

	loaded bool
	total  int
	items  []map[string]any
}

func New(adapter Adapter, opts ...Option) *Paginator {
	p := &Paginator{
		adapter:   adapter,
		pageRange: DefaultPageRange,
		current:   1,
		perPage:   DefaultItemCountPerPage,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetCurrentPageNumber selects the page. It is clamped on Load.
func (p *Paginator) SetCurrentPageNumber(n int) {
	p.current = n
}

// SetItemCountPerPage sets the page size. Zero means the default and any
// negative value means Unlimited.
func (p *Paginator) SetItemCountPerPage(n int) {
	switch {
	case n == 0:
		n = DefaultItemCountPerPage
	case n < 0:
		n = Unlimited
	}
	p.perPage = n
}

// Load counts the items, clamps the current page and fetches its items.
// Later calls are no-ops.
func (p *Paginator) Load(ctx context.Context) error {
	if p.loaded {
		return nil
	}

	total, err := p.adapter.Count(ctx)
	if err != nil {
		return errs.DataSource("paginator.Load", err)
	}
	p.total = total
	p.current = p.normalizePage(p.current)

	offset, limit := 0, p.perPage
	if p.perPage != Unlimited {
		offset = (p.current - 1) * p.perPage
	}

	raw, err := p.adapter.Items(ctx, offset, limit)
	if err != nil {
		return errs.DataSource("paginator.Load", err)
	}
	items, err := Normalize(raw)
	if err != nil {
		return err
	}

	p.items = items
	p.loaded = true
	return nil
}

// CurrentItems returns the rows of the current page, loading them first if needed.
func (p *Paginator) CurrentItems(ctx context.Context) ([]map[string]any, error) {
	if err := p.Load(ctx); err != nil {
		return nil, err
	}
	return p.items, nil
}

func (p *Paginator) normalizePage(n int) int {
	if n < 1 {
		n = 1
	}
	if pc := p.PageCount(); pc > 0 && n > pc {
		n = pc
	}
	return n
}

func (p *Paginator) CurrentPageNumber() int { return p.current }
func (p *Paginator) ItemCountPerPage() int  { return p.perPage }
func (p *Paginator) TotalItemCount() int    { return p.total }
func (p *Paginator) Style() Style           { return p.style }
func (p *Paginator) PageRange() int         { return p.pageRange }
func (p *Paginator) CurrentItemCount() int  { return len(p.items) }

// PageCount is zero for an empty result.
func (p *Paginator) PageCount() int {
	if p.total == 0 {
		return 0
	}
	if p.perPage == Unlimited {
		return 1
	}
	return int(math.Ceil(float64(p.total) / float64(p.perPage)))
}

// PagesInRange lists the page numbers to offer around the current page.
func (p *Paginator) PagesInRange() []int {
	pageCount := p.PageCount()
	if pageCount == 0 {
		return nil
	}
	switch p.style {
	case All:
		return pagesBetween(1, pageCount, pageCount)
	case Jumping:
		delta := p.current % p.pageRange
		if delta == 0 {
			delta = p.pageRange
		}
		offset := p.current - delta
		return pagesBetween(offset+1, offset+p.pageRange, pageCount)
	case Elastic:
		rng := p.current*2 - 1
		switch {
		case p.pageRange+p.current-1 < rng:
			rng = p.pageRange + p.current - 1
		case p.pageRange+p.current-1 > pageCount:
			rng = p.pageRange + pageCount - p.current
		}
		return sliding(p.current, rng, pageCount)
	}
	return sliding(p.current, p.pageRange, pageCount)
}

func sliding(current, rng, pageCount int) []int {
	if rng > pageCount {
		rng = pageCount
	}
	delta := int(math.Ceil(float64(rng) / 2))
	if current-delta > pageCount-rng {
		return pagesBetween(pageCount-rng+1, pageCount, pageCount)
	}
	if current-delta < 0 {
		delta = current
	}
	offset := current - delta
	return pagesBetween(offset+1, offset+rng, pageCount)
}

func pagesBetween(lower, upper, pageCount int) []int {
	lower = max(lower, 1)
	upper = min(upper, pageCount)
	var out []int
	for n := lower; n <= upper; n++ {
		out = append(out, n)
	}
	return out
}

// Pages summarises the paginator for views.
type Pages struct {
	PageCount        int   `json:"pageCount"`
	ItemCountPerPage int   `json:"itemCountPerPage"`
	TotalItemCount   int   `json:"totalItemCount"`
	First            int   `json:"first"`
	Last             int   `json:"last"`
	Current          int   `json:"current"`
	Previous         int   `json:"previous,omitempty"`
	Next             int   `json:"next,omitempty"`
	FirstItemNumber  int   `json:"firstItemNumber"`
	LastItemNumber   int   `json:"lastItemNumber"`
	CurrentItemCount int   `json:"currentItemCount"`
	PagesInRange     []int `json:"pagesInRange"`
}

func (p *Paginator) Pages() Pages {
	pc := p.PageCount()
	out := Pages{
		PageCount:        pc,
		ItemCountPerPage: p.perPage,
		TotalItemCount:   p.total,
		Current:          p.current,
		CurrentItemCount: len(p.items),
		PagesInRange:     p.PagesInRange(),
	}
	if pc == 0 {
		return out
	}
	out.First, out.Last = 1, pc
	if p.current > 1 {
		out.Previous = p.current - 1
	}
	if p.current < pc {
		out.Next = p.current + 1
	}
	if len(p.items) > 0 {
		first := 1
		if p.perPage != Unlimited {
			first = (p.current-1)*p.perPage + 1
		}
		out.FirstItemNumber = first
		out.LastItemNumber = first + len(p.items) - 1
	}
	return out
}

// Normalize turns an adapter result into rows. It accepts row slices, slices
// of string keyed maps (such as bson.M), RowSet and RowIterator.
func Normalize(v any) ([]map[string]any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []map[string]any:
		return x, nil
	case RowSet:
		return x.Rows(), nil
	case RowIterator:
		var out []map[string]any
		for x.Next() {
			out = append(out, x.Row())
		}
		if err := x.Err(); err != nil {
			return nil, errs.DataSource("paginator.Normalize", err)
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, errs.DataSourcef("paginator.Normalize", "unsupported result type %T", v)
	}
	out := make([]map[string]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		row, ok := toRow(rv.Index(i))
		if !ok {
			return nil, errs.DataSourcef("paginator.Normalize", "unsupported row type %s in %T", rv.Index(i).Type(), v)
		}
		out = append(out, row)
	}
	return out, nil
}

func toRow(v reflect.Value) (map[string]any, bool) {
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Map || v.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	if m, ok := v.Interface().(map[string]any); ok {
		return m, true
	}
	row := make(map[string]any, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		row[iter.Key().String()] = iter.Value().Interface()
	}
	return row, true
}
