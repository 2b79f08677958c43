// Package renderer turns a loaded grid into an output format. Every renderer
// also decides where the grid's sort, filter and page conditions come from:
// interactive renderers read them from the request, export renderers replay
// the view state the interactive grid cached.
package renderer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/gnemet/gridview/cache"
	"github.com/gnemet/gridview/column"
	"github.com/gnemet/gridview/filter"
	"github.com/gnemet/gridview/request"
)

// Renderer names.
const (
	NameHTML    = "html"
	NameJSON    = "json"
	NameCSV     = "csv"
	NameExcel   = "excel"
	NamePDF     = "pdf"
	NameConsole = "console"
	NamePrint   = "print"
)

// ParamNames are the request parameter names the grid reads.
type ParamNames struct {
	RendererType string `yaml:"rendererType" json:"rendererType"`
	Sort         string `yaml:"sort" json:"sort"`
	CurrentPage  string `yaml:"currentPage" json:"currentPage"`
	Items        string `yaml:"items" json:"items"`
}

func DefaultParamNames() ParamNames {
	return ParamNames{
		RendererType: "rendererType",
		Sort:         "sort",
		CurrentPage:  "currentPage",
		Items:        "items",
	}
}

// WithDefaults fills empty names from DefaultParamNames.
func (p ParamNames) WithDefaults() ParamNames {
	d := DefaultParamNames()
	if p.RendererType == "" {
		p.RendererType = d.RendererType
	}
	if p.Sort == "" {
		p.Sort = d.Sort
	}
	if p.CurrentPage == "" {
		p.CurrentPage = d.CurrentPage
	}
	if p.Items == "" {
		p.Items = d.Items
	}
	return p
}

// Env is what a renderer may consult to derive conditions.
type Env struct {
	Request request.Request
	// Columns in render order.
	Columns           []*column.Column
	Cache             cache.Store
	CacheID           string
	Params            ParamNames
	ItemsPerPage      int
	UserFilterEnabled bool
	Logger            *slog.Logger
}

func (e Env) log() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e Env) lookup(id string) *column.Column {
	for _, c := range e.Columns {
		if c.UniqueID() == id {
			return c
		}
	}
	return nil
}

// Conditions are the sorts, filters and page a grid load applies.
// ItemsPerPage -1 means unlimited.
type Conditions struct {
	Sorts        []filter.Sort
	Filters      []filter.Filter
	Page         int
	ItemsPerPage int
}

// ViewState is the cacheable form of c.
func (c Conditions) ViewState() cache.ViewState {
	return cache.ViewState{
		Sorts:       filter.SortSpecs(c.Sorts),
		Filters:     filter.Specs(c.Filters),
		CurrentPage: c.Page,
	}
}

type Renderer interface {
	Name() string
	// IsExport reports whether the renderer replays cached view state.
	IsExport() bool
	Conditions(ctx context.Context, env Env) (Conditions, error)
	Render(ctx context.Context, view *View) (*Response, error)
}

// Response is a rendered grid.
type Response struct {
	ContentType string
	// Filename, when set, makes HTTP clients save the body.
	Filename string
	Body     []byte
	// Fragment marks a partial HTML body answering an in-page request.
	Fragment bool
	// Payload is the structured value Body was encoded from, if any.
	Payload any
}

func (r *Response) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	if r.ContentType != "" {
		w.Header().Set("Content-Type", r.ContentType)
	}
	if r.Filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", r.Filename))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(r.Body)
}

// Registry maps names to renderers.
type Registry struct {
	renderers map[string]Renderer
}

func NewRegistry(renderers ...Renderer) *Registry {
	r := &Registry{renderers: make(map[string]Renderer)}
	for _, rd := range renderers {
		r.Register(rd)
	}
	return r
}

// Default registers every built-in renderer.
func Default() *Registry {
	return NewRegistry(
		NewHTML(),
		NewPrint(),
		NewJSON(),
		NewCSV(),
		NewExcel(),
		NewPDF(),
		NewConsole(),
	)
}

// Register adds rd, replacing a renderer of the same name.
func (r *Registry) Register(rd Renderer) {
	r.renderers[rd.Name()] = rd
}

func (r *Registry) Get(name string) (Renderer, bool) {
	rd, ok := r.renderers[name]
	return rd, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.renderers))
	for n := range r.renderers {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
