package gridview

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gnemet/gridview/cache"
	"github.com/gnemet/gridview/column"
	"github.com/gnemet/gridview/config"
	"github.com/gnemet/gridview/datasource"
	"github.com/gnemet/gridview/errs"
	"github.com/gnemet/gridview/i18n"
	"github.com/gnemet/gridview/renderer"
	"github.com/gnemet/gridview/request"
)

// Handler serves a declaratively defined grid. Every request gets its own
// Grid; the view state store is shared so exports can replay earlier
// renders of the same session.
type Handler struct {
	ID         string
	Definition config.GridDefinition

	// Companion runs Definition.Query: a *sql.DB or a *cursorpool.CursorPool.
	// Rows are served instead when Companion is nil.
	Companion any
	Rows      []map[string]any

	Options    *config.Options
	Cache      cache.Store
	Renderers  *renderer.Registry
	Factory    *column.Factory
	Translator i18n.Translator
	Logger     *slog.Logger

	once     sync.Once
	cacheErr error
}

// NewHandler builds a handler for the grid id of o.Grids.
func NewHandler(o *config.Options, id string, companion any) (*Handler, error) {
	def, ok := o.Grids[id]
	if !ok {
		return nil, errs.Configuration("gridview.NewHandler", "grid %q is not defined", id)
	}
	return &Handler{ID: id, Definition: def, Companion: companion, Options: o}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g, err := h.Grid(w, r)
	if err == nil {
		var resp *renderer.Response
		if resp, err = g.Response(r.Context()); err == nil {
			resp.ServeHTTP(w, r)
			return
		}
	}
	h.logger().Error("grid request failed", "grid", h.ID, "path", r.URL.Path, "err", err)
	http.Error(w, err.Error(), StatusCode(err))
}

// Grid builds and initialises the grid answering r.
func (h *Handler) Grid(w http.ResponseWriter, r *http.Request) (*Grid, error) {
	store, err := h.store()
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithRequest(request.FromHTTP(w, r)),
		WithCache(store),
		WithLogger(h.logger()),
	}
	if h.Options != nil {
		opts = append(opts, WithOptions(h.Options))
	}
	if h.Renderers != nil {
		opts = append(opts, WithRenderers(h.Renderers))
	}
	if h.Factory != nil {
		opts = append(opts, WithColumnFactory(h.Factory))
	}
	if h.Translator != nil {
		opts = append(opts, WithTranslator(h.Translator))
	}
	g := New(opts...)
	g.SetID(h.ID)
	g.SetTitle(h.Definition.Title)
	g.SetURL(r.URL.Path)
	if h.Definition.ItemsPerPage != 0 {
		g.SetItemsPerPage(h.Definition.ItemsPerPage)
	}
	if h.Definition.Exports != nil {
		g.SetExportRenderers(h.Definition.Exports)
	}

	cols, err := h.Definition.Build(g.factory)
	if err != nil {
		return nil, err
	}
	g.SetColumns(cols)

	in := datasource.Input{Kind: datasource.KindRows, Rows: h.Rows}
	if h.Companion != nil {
		in = datasource.Input{Kind: datasource.KindSelect, Query: h.Definition.Query, Companion: h.Companion, CursorKey: g.CacheID()}
	}
	if err := g.SetDataSource(in); err != nil {
		return nil, err
	}
	if err := g.Init(); err != nil {
		return nil, err
	}
	return g, nil
}

func (h *Handler) store() (cache.Store, error) {
	h.once.Do(func() {
		if h.Cache != nil {
			return
		}
		cfg := config.Defaults().Cache
		if h.Options != nil {
			cfg = h.Options.Cache
		}
		h.Cache, h.cacheErr = cache.New(cfg, h.logger())
	})
	return h.Cache, h.cacheErr
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// StatusCode maps a grid error to an HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, errs.ErrState):
		return http.StatusConflict
	case errors.Is(err, errs.ErrDataSource):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
