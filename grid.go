// Package gridview is a server-side data grid. A Grid takes a data source
// and a set of columns, applies the sorting, filtering and paging a request
// asks for, formats the cells and renders the page as HTML, JSON, CSV,
// Excel, PDF or a console table.
//
// A grid moves through Init, LoadData and Render in that order:
//
//	g := gridview.New(gridview.WithRequest(request.FromHTTP(w, r)))
//	g.SetID("users")
//	g.AddColumn(column.NewSelect("name", "u"))
//	if err := g.SetDataSource(datasource.Input{Kind: datasource.KindSelect, Query: q, Companion: db}); err != nil { ... }
//	if err := g.Init(); err != nil { ... }
//	resp, err := g.Response(ctx)
//
// Export renderers replay the sorts and filters of the last interactive
// render of the same grid in the same session.
package gridview

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"strings"

	"github.com/gnemet/gridview/cache"
	"github.com/gnemet/gridview/column"
	"github.com/gnemet/gridview/config"
	"github.com/gnemet/gridview/datasource"
	"github.com/gnemet/gridview/errs"
	"github.com/gnemet/gridview/i18n"
	"github.com/gnemet/gridview/paginator"
	"github.com/gnemet/gridview/prepare"
	"github.com/gnemet/gridview/renderer"
	"github.com/gnemet/gridview/request"
	"github.com/gnemet/gridview/router"
	"github.com/gnemet/gridview/style"
)

// DefaultID is the id of a grid that was never given one.
const DefaultID = "defaultGrid"

var invalidID = regexp.MustCompile(`[^A-Za-z0-9_]`)

// State is a grid lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateDataLoaded
	StateRendered
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateDataLoaded:
		return "data loaded"
	case StateRendered:
		return "rendered"
	}
	return "unknown"
}

// Grid is scoped to one request and not safe for concurrent use.
type Grid struct {
	id    string
	title string

	options    *config.Options
	request    request.Request
	store      cache.Store
	cacheID    string
	renderers  *renderer.Registry
	translator i18n.Translator
	router     router.Router
	logger     *slog.Logger

	columns      *column.Registry
	factory      *column.Factory
	source       datasource.DataSource
	itemsPerPage int
	rowStyles    []*style.RowStyle
	massActions  []renderer.MassAction
	rowClick     *column.Action
	userFilter   bool
	parameters   map[string]any
	url          string
	exports      []string

	forceRenderer string
	renderer      renderer.Renderer

	state      State
	conditions renderer.Conditions
	paginator  *paginator.Paginator
	rows       []prepare.Row
	response   *renderer.Response
}

type Option func(*Grid)

// WithOptions sets the grid options. config.Defaults is used otherwise.
func WithOptions(o *config.Options) Option {
	return func(g *Grid) { g.options = o }
}

// WithRequest sets the request the grid answers. A console request is used
// otherwise.
func WithRequest(r request.Request) Option {
	return func(g *Grid) { g.request = r }
}

// WithCache sets the view state store. Init builds one from the options
// otherwise.
func WithCache(s cache.Store) Option {
	return func(g *Grid) { g.store = s }
}

// WithRenderers sets the renderer registry. renderer.Default is used
// otherwise.
func WithRenderers(r *renderer.Registry) Option {
	return func(g *Grid) { g.renderers = r }
}

func WithTranslator(t i18n.Translator) Option {
	return func(g *Grid) { g.translator = t }
}

func WithRouter(r router.Router) Option {
	return func(g *Grid) { g.router = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Grid) { g.logger = l }
}

func WithColumnFactory(f *column.Factory) Option {
	return func(g *Grid) { g.factory = f }
}

func New(opts ...Option) *Grid {
	g := &Grid{
		id:         DefaultID,
		columns:    column.NewRegistry(),
		userFilter: true,
		parameters: make(map[string]any),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.options == nil {
		g.options = config.Defaults()
	}
	g.itemsPerPage = g.options.Settings.ItemsPerPage
	g.userFilter = g.options.Settings.UserFilterEnabled
	if g.request == nil {
		g.request = request.NewConsole(nil, "")
	}
	if g.renderers == nil {
		g.renderers = renderer.Default()
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.factory == nil {
		g.factory = &column.Factory{Logger: g.logger}
	}
	return g
}

// SetID sets the grid id. Characters outside [A-Za-z0-9_] become "_".
func (g *Grid) SetID(id string) {
	if id == "" {
		id = DefaultID
	}
	g.id = invalidID.ReplaceAllString(id, "_")
}

func (g *Grid) ID() string { return g.id }

func (g *Grid) SetTitle(title string) { g.title = title }
func (g *Grid) Title() string         { return g.title }

// SetCacheID overrides the id the view state is stored under.
func (g *Grid) SetCacheID(id string) { g.cacheID = id }

// CacheID defaults to cache.ID of the request session and the grid id.
func (g *Grid) CacheID() string {
	if g.cacheID == "" {
		return cache.ID(g.request.SessionID(), g.id)
	}
	return g.cacheID
}

// Cache returns the view state store, nil before Init unless injected.
func (g *Grid) Cache() cache.Store { return g.store }

func (g *Grid) Request() request.Request { return g.request }

func (g *Grid) Options() *config.Options { return g.options }

// SetItemsPerPage sets the default page size, -1 for all rows.
func (g *Grid) SetItemsPerPage(n int) { g.itemsPerPage = n }
func (g *Grid) ItemsPerPage() int     { return g.itemsPerPage }

// SetDataSource builds the data source described by in. Invalid inputs fail
// with a ConfigurationError before any data is read.
func (g *Grid) SetDataSource(in datasource.Input) error {
	ds, err := datasource.New(in)
	if err != nil {
		return err
	}
	g.source = ds
	return nil
}

func (g *Grid) DataSource() datasource.DataSource { return g.source }
func (g *Grid) HasDataSource() bool               { return g.source != nil }

func (g *Grid) AddColumn(c *column.Column) {
	g.columns.Add(c)
}

// SetColumns replaces every column.
func (g *Grid) SetColumns(cols []*column.Column) {
	g.columns.Set(cols)
}

// CreateColumn validates a declarative column definition, builds the
// column and adds it.
func (g *Grid) CreateColumn(cfg map[string]any) (*column.Column, error) {
	if err := config.ValidateColumn(cfg); err != nil {
		return nil, err
	}
	c, err := g.factory.Create(cfg)
	if err != nil {
		return nil, err
	}
	g.AddColumn(c)
	return c, nil
}

// Columns returns the columns, in render order once data is loaded.
func (g *Grid) Columns() []*column.Column { return g.columns.Columns() }
func (g *Grid) HasColumns() bool          { return g.columns.Len() > 0 }

func (g *Grid) ColumnByUniqueID(id string) *column.Column {
	return g.columns.ByID(id)
}

func (g *Grid) AddRowStyle(s *style.RowStyle)       { g.rowStyles = append(g.rowStyles, s) }
func (g *Grid) RowStyles() []*style.RowStyle        { return g.rowStyles }
func (g *Grid) AddMassAction(a renderer.MassAction) { g.massActions = append(g.massActions, a) }
func (g *Grid) MassActions() []renderer.MassAction  { return g.massActions }
func (g *Grid) HasMassActions() bool                { return len(g.massActions) > 0 }

// SetRowClickAction links every row. Without its own identity parameter
// the row identity is passed as "rowId".
func (g *Grid) SetRowClickAction(a *column.Action) { g.rowClick = a }
func (g *Grid) RowClickAction() *column.Action     { return g.rowClick }

func (g *Grid) SetUserFilterDisabled(disabled bool) { g.userFilter = !disabled }
func (g *Grid) IsUserFilterEnabled() bool           { return g.userFilter }

func (g *Grid) AddParameter(name string, value any) { g.parameters[name] = value }

// SetParameters replaces all parameters.
func (g *Grid) SetParameters(params map[string]any) {
	g.parameters = maps.Clone(params)
	if g.parameters == nil {
		g.parameters = make(map[string]any)
	}
}

func (g *Grid) Parameters() map[string]any { return g.parameters }
func (g *Grid) HasParameters() bool        { return len(g.parameters) > 0 }

func (g *Grid) SetURL(url string) { g.url = url }
func (g *Grid) URL() string       { return g.url }

// SetExportRenderers overrides the export formats of the options.
func (g *Grid) SetExportRenderers(names []string) { g.exports = names }

// ExportRenderers returns the offered export formats, none when exports
// are disabled.
func (g *Grid) ExportRenderers() []string {
	if !g.options.Settings.Export.Enabled {
		return nil
	}
	if g.exports != nil {
		return g.exports
	}
	return g.options.Settings.Export.Formats
}

// SetRendererName forces a renderer. A rendererType request parameter on
// HTTP requests still takes precedence.
func (g *Grid) SetRendererName(name string) { g.forceRenderer = name }

// RendererName resolves the renderer name: the forced one, else the
// default of the request context, then a non-empty rendererType parameter
// of an HTTP request.
func (g *Grid) RendererName() string {
	name := g.forceRenderer
	if name == "" {
		if g.request.IsConsole() {
			name = g.options.Settings.Default.Renderer.Console
		} else {
			name = g.options.Settings.Default.Renderer.HTTP
		}
	}
	if !g.request.IsConsole() {
		if q := g.request.Query(g.paramNames().RendererType); q != "" {
			name = q
		}
	}
	return name
}

// Renderer resolves the renderer once and keeps it for the grid's lifetime.
func (g *Grid) Renderer() (renderer.Renderer, error) {
	if g.renderer != nil {
		return g.renderer, nil
	}
	name := g.RendererName()
	rd, ok := g.renderers.Get(name)
	if !ok {
		return nil, errs.Configuration("gridview.Renderer", "renderer %q is not registered", name)
	}
	g.renderer = rd
	return rd, nil
}

func (g *Grid) paramNames() renderer.ParamNames {
	return g.options.GeneralParameterNames.WithDefaults()
}

func (g *Grid) State() State { return g.state }

// Init prepares the grid for loading. Without an injected store the view
// state cache is built from the options.
func (g *Grid) Init() error {
	if g.state != StateUninitialized {
		return nil
	}
	if g.store == nil {
		store, err := cache.New(g.options.Cache, g.logger)
		if err != nil {
			return err
		}
		g.store = store
	}
	g.state = StateInitialized
	return nil
}

func (g *Grid) IsInit() bool { return g.state >= StateInitialized }

func (g *Grid) IsDataLoaded() bool { return g.state >= StateDataLoaded }

// LoadData applies the renderer's conditions to the data source, pages the
// result and prepares the current rows. Later calls are no-ops.
func (g *Grid) LoadData(ctx context.Context) error {
	const op = "gridview.LoadData"
	if g.state >= StateDataLoaded {
		return nil
	}
	if g.state == StateUninitialized {
		return errs.Lifecycle(op, "grid %q: Init must be called before LoadData", g.id)
	}
	if g.source == nil {
		return errs.Lifecycle(op, "grid %q: no data source set", g.id)
	}

	cols := g.columns.Sort()
	rd, err := g.Renderer()
	if err != nil {
		return err
	}
	log := g.logger.With("grid", g.id, "renderer", rd.Name())

	cond, err := rd.Conditions(ctx, renderer.Env{
		Request:           g.request,
		Columns:           cols,
		Cache:             g.store,
		CacheID:           g.CacheID(),
		Params:            g.paramNames(),
		ItemsPerPage:      g.itemsPerPage,
		UserFilterEnabled: g.userFilter,
		Logger:            log,
	})
	if err != nil {
		return err
	}

	g.source.SetColumns(cols)
	for _, s := range cond.Sorts {
		g.source.AddSortCondition(s.Column, s.Direction)
	}
	for _, f := range cond.Filters {
		g.source.AddFilter(f)
	}
	if err := g.source.Execute(ctx); err != nil {
		return err
	}
	adapter, err := g.source.PaginatorAdapter()
	if err != nil {
		return err
	}

	popts, err := g.options.PaginatorOptions()
	if err != nil {
		return err
	}
	p := paginator.New(adapter, popts...)
	p.SetItemCountPerPage(cond.ItemsPerPage)
	p.SetCurrentPageNumber(cond.Page)
	items, err := p.CurrentItems(ctx)
	if err != nil {
		return err
	}

	if g.options.Settings.Export.Enabled && !rd.IsExport() {
		state := cond.ViewState()
		state.CurrentPage = p.CurrentPageNumber()
		if err := g.store.Set(ctx, g.CacheID(), state); err != nil {
			return errs.CacheWrite(op, g.CacheID(), err)
		}
	}

	preparer := &prepare.Preparer{
		Columns:    cols,
		Translator: g.translator,
		Router:     g.router,
		RowClick:   g.rowClick,
		Styles:     g.rowStyles,
		Logger:     log,
	}
	g.rows = preparer.Prepare(items)
	g.conditions = cond
	g.paginator = p
	g.state = StateDataLoaded

	log.Debug("grid data loaded",
		"page", p.CurrentPageNumber(),
		"pages", p.PageCount(),
		"total", p.TotalItemCount(),
		"sorts", len(cond.Sorts),
		"filters", len(cond.Filters))
	return nil
}

// Paginator is available once data is loaded.
func (g *Grid) Paginator() (*paginator.Paginator, error) {
	if g.paginator == nil {
		return nil, errs.Lifecycle("gridview.Paginator", "grid %q: LoadData must be called first", g.id)
	}
	return g.paginator, nil
}

// PreparedData returns the prepared rows of the current page.
func (g *Grid) PreparedData() []prepare.Row { return g.rows }

// Conditions returns the sorts, filters and page applied by LoadData.
func (g *Grid) Conditions() renderer.Conditions { return g.conditions }

// Render loads the data if needed and renders it.
func (g *Grid) Render(ctx context.Context) error {
	if err := g.LoadData(ctx); err != nil {
		return err
	}
	rd, err := g.Renderer()
	if err != nil {
		return err
	}
	resp, err := rd.Render(ctx, g.view())
	if err != nil {
		return fmt.Errorf("render grid %q as %s: %w", g.id, rd.Name(), err)
	}
	g.response = resp
	g.state = StateRendered
	return nil
}

func (g *Grid) view() *renderer.View {
	return &renderer.View{
		GridID:            g.id,
		Title:             g.title,
		Columns:           g.columns.Columns(),
		Rows:              g.rows,
		Paginator:         g.paginator,
		Sorts:             g.conditions.Sorts,
		Filters:           g.conditions.Filters,
		RowStyles:         g.rowStyles,
		MassActions:       g.massActions,
		Parameters:        g.parameters,
		URL:               g.url,
		ExportRenderers:   g.ExportRenderers(),
		UserFilterEnabled: g.userFilter,
		Params:            g.paramNames(),
		Translator:        g.translator,
		Request:           g.request,
	}
}

// Response renders the grid on first use and returns the result.
func (g *Grid) Response(ctx context.Context) (*renderer.Response, error) {
	if g.response == nil {
		if err := g.Render(ctx); err != nil {
			return nil, err
		}
	}
	return g.response, nil
}

// IsHTMLInitResponse reports whether the rendered response is a full HTML
// page, as opposed to an in-page update or an export.
func (g *Grid) IsHTMLInitResponse() bool {
	if g.response == nil || g.renderer.IsExport() || g.response.Fragment {
		return false
	}
	return strings.HasPrefix(g.response.ContentType, "text/html")
}
