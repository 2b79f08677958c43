package renderer

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/gnemet/gridview/column"
	"github.com/gnemet/gridview/filter"
	"github.com/gnemet/gridview/i18n"
	"github.com/gnemet/gridview/paginator"
	"github.com/gnemet/gridview/prepare"
	"github.com/gnemet/gridview/request"
	"github.com/gnemet/gridview/style"
)

// MassAction is applied by the client to the selected row identities.
type MassAction struct {
	Label string `json:"label" yaml:"label"`
	URL   string `json:"url" yaml:"url"`
}

// View is everything a renderer needs from a loaded grid.
type View struct {
	GridID            string
	Title             string
	Columns           []*column.Column
	Rows              []prepare.Row
	Paginator         *paginator.Paginator
	Sorts             []filter.Sort
	Filters           []filter.Filter
	RowStyles         []*style.RowStyle
	MassActions       []MassAction
	Parameters        map[string]any
	URL               string
	ExportRenderers   []string
	UserFilterEnabled bool
	Params            ParamNames
	Translator        i18n.Translator
	Request           request.Request
}

// Visible returns the columns that are not hidden.
func (v *View) Visible() []*column.Column {
	out := make([]*column.Column, 0, len(v.Columns))
	for _, c := range v.Columns {
		if !c.IsHidden() {
			out = append(out, c)
		}
	}
	return out
}

// DataColumns returns the visible columns that carry a value.
func (v *View) DataColumns() []*column.Column {
	out := make([]*column.Column, 0, len(v.Columns))
	for _, c := range v.Visible() {
		if c.Variant() != column.VariantAction {
			out = append(out, c)
		}
	}
	return out
}

// Label returns the translated column label.
func (v *View) Label(c *column.Column) string {
	return v.T(c.Label())
}

// T translates msg when a translator is set.
func (v *View) T(msg string) string {
	if v.Translator == nil || msg == "" {
		return msg
	}
	return v.Translator.Translate(msg)
}

// Header returns the labels of cols.
func (v *View) Header(cols []*column.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = v.Label(c)
	}
	return out
}

// Records returns the display values of every row for cols.
func (v *View) Records(cols []*column.Column) [][]string {
	out := make([][]string, len(v.Rows))
	for i, row := range v.Rows {
		rec := make([]string, len(cols))
		for j, c := range cols {
			rec[j] = row.Values[c.UniqueID()]
		}
		out[i] = rec
	}
	return out
}

// SortDirection returns the direction c is sorted by, or "".
func (v *View) SortDirection(c *column.Column) filter.Direction {
	for _, s := range v.Sorts {
		if s.Column.UniqueID() == c.UniqueID() {
			return s.Direction
		}
	}
	return ""
}

// FilterValue returns the filter expression the user typed for c.
func (v *View) FilterValue(c *column.Column) string {
	if v.Request == nil {
		return ""
	}
	return v.Request.Query(c.UniqueID())
}

// Link builds the grid URL with the current request parameters and the
// given overrides. An empty override removes the parameter.
func (v *View) Link(overrides map[string]string) string {
	q := url.Values{}
	params := v.Params.WithDefaults()
	if v.Request != nil {
		for _, c := range v.Columns {
			if val := v.Request.Values(c.UniqueID()); len(val) > 0 {
				q[c.UniqueID()] = val
			}
		}
		for _, name := range []string{params.Sort, params.Items} {
			if val := v.Request.Values(name); len(val) > 0 {
				q[name] = val
			}
		}
	}
	for k, val := range overrides {
		if val == "" {
			q.Del(k)
			continue
		}
		q.Set(k, val)
	}

	base := v.URL
	if len(q) == 0 {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}

// PageLink links to page n.
func (v *View) PageLink(n int) string {
	return v.Link(map[string]string{v.Params.WithDefaults().CurrentPage: strconv.Itoa(n)})
}

// SortLink links to the grid sorted by c, toggling the direction when c is
// already the primary sort.
func (v *View) SortLink(c *column.Column) string {
	dir := filter.Asc
	if len(v.Sorts) > 0 && v.Sorts[0].Column.UniqueID() == c.UniqueID() && v.Sorts[0].Direction == filter.Asc {
		dir = filter.Desc
	}
	params := v.Params.WithDefaults()
	return v.Link(map[string]string{
		params.Sort:        c.UniqueID() + ":" + string(dir),
		params.CurrentPage: "",
	})
}

// ExportLink links to the grid rendered by the named export renderer.
func (v *View) ExportLink(name string) string {
	params := v.Params.WithDefaults()
	return v.Link(map[string]string{
		params.RendererType: name,
		params.CurrentPage:  "",
	})
}

// Pages summarises the paginator, or returns a single page when none is set.
func (v *View) Pages() paginator.Pages {
	if v.Paginator == nil {
		return paginator.Pages{PageCount: 1, First: 1, Last: 1, Current: 1, CurrentItemCount: len(v.Rows)}
	}
	return v.Paginator.Pages()
}

func (v *View) filename(ext string) string {
	name := v.GridID
	if name == "" {
		name = "grid"
	}
	return name + "." + ext
}

func (v *View) rendererParam(c *column.Column, renderer, name string) (any, bool) {
	p, ok := c.RendererParameters(renderer)[name]
	return p, ok
}
