package renderer

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/spf13/cast"

	"github.com/gnemet/gridview/column"
	"github.com/gnemet/gridview/errs"
	"github.com/gnemet/gridview/filter"
	"github.com/gnemet/gridview/paginator"
)

// Live reads conditions from the request:
//
//	sort=id:desc,name        sort columns, first is primary
//	<column id>=<expr>       user filter, see filter.Parse
//	currentPage=2            page, default 1
//	items=50                 items per page, -1 for all
//
// Unknown and non-sortable columns are ignored. Without a valid sort the
// column sort defaults apply, by priority.
func Live(_ context.Context, env Env) (Conditions, error) {
	params := env.Params.WithDefaults()
	c := Conditions{
		Sorts:        liveSorts(env, params),
		Filters:      liveFilters(env),
		Page:         1,
		ItemsPerPage: itemsPerPage(env, params),
	}
	if env.Request != nil {
		if n, err := cast.ToIntE(env.Request.Query(params.CurrentPage)); err == nil && n > 0 {
			c.Page = n
		}
	}
	return c, nil
}

func liveSorts(env Env, params ParamNames) []filter.Sort {
	var sorts []filter.Sort
	seen := make(map[string]bool)
	if env.Request != nil {
		for _, v := range env.Request.Values(params.Sort) {
			for _, part := range strings.Split(v, ",") {
				id, dir, _ := strings.Cut(strings.TrimSpace(part), ":")
				col := env.lookup(id)
				if col == nil || !col.IsSortable() || seen[id] {
					if id != "" && col == nil {
						env.log().Debug("ignoring sort on unknown column", "column", id)
					}
					continue
				}
				seen[id] = true
				sorts = append(sorts, filter.Sort{Column: col, Direction: filter.ParseDirection(dir)})
			}
		}
	}
	if len(sorts) > 0 {
		return sorts
	}
	return defaultSorts(env)
}

func defaultSorts(env Env) []filter.Sort {
	var sorts []filter.Sort
	for _, col := range env.Columns {
		if d := col.SortDefault(); d != nil {
			sorts = append(sorts, filter.Sort{Column: col, Direction: filter.ParseDirection(d.Direction)})
		}
	}
	slices.SortStableFunc(sorts, func(a, b filter.Sort) int {
		return cmp.Compare(a.Column.SortDefault().Priority, b.Column.SortDefault().Priority)
	})
	return sorts
}

func liveFilters(env Env) []filter.Filter {
	var filters []filter.Filter
	for _, col := range env.Columns {
		if !col.IsFilterable() {
			continue
		}
		if env.UserFilterEnabled && env.Request != nil {
			if f, ok := typedFilter(env, col, env.Request.Query(col.UniqueID())); ok {
				filters = append(filters, f)
				continue
			}
		}
		if f, ok := typedFilter(env, col, col.FilterDefaultValue()); ok {
			filters = append(filters, f)
		}
	}
	return filter.Merge(filters)
}

// typedFilter parses raw and drops values the column type cannot hold.
func typedFilter(env Env, col *column.Column, raw string) (filter.Filter, bool) {
	f, ok := filter.Parse(col, raw)
	if !ok {
		return f, false
	}
	f, dropped, ok := filter.Typed(f)
	if len(dropped) > 0 {
		env.log().Debug("dropping filter values not matching column type", "column", col.UniqueID(), "values", dropped)
	}
	return f, ok
}

func itemsPerPage(env Env, params ParamNames) int {
	if env.Request != nil {
		if n, err := cast.ToIntE(env.Request.Query(params.Items)); err == nil && (n > 0 || n == paginator.Unlimited) {
			return n
		}
	}
	if env.ItemsPerPage == 0 {
		return paginator.DefaultItemCountPerPage
	}
	return env.ItemsPerPage
}

// Replay reads conditions from the view state cached under env.CacheID. The
// whole result is replayed unless the request names a page. Replaying
// without cached state fails with a StateError.
func Replay(ctx context.Context, env Env) (Conditions, error) {
	const op = "renderer.Replay"
	if env.Cache == nil {
		return Conditions{}, errs.State(op, "no view state cache configured")
	}
	state, ok, err := env.Cache.Get(ctx, env.CacheID)
	if err != nil {
		return Conditions{}, errs.State(op, "cannot read view state %q: %v", env.CacheID, err)
	}
	if !ok {
		return Conditions{}, errs.State(op, "no view state cached for %q, render the grid first", env.CacheID)
	}

	c := Conditions{Page: 1, ItemsPerPage: paginator.Unlimited}
	var dropped, droppedFilters []string
	c.Sorts, dropped = filter.ResolveSorts(state.Sorts, env.lookup)
	c.Filters, droppedFilters = filter.ResolveFilters(state.Filters, env.lookup)
	if dropped = append(dropped, droppedFilters...); len(dropped) > 0 {
		env.log().Warn("cached view state names unknown columns", "cacheId", env.CacheID, "columns", dropped)
	}

	params := env.Params.WithDefaults()
	if env.Request != nil && env.Request.Query(params.CurrentPage) != "" {
		if n, err := cast.ToIntE(env.Request.Query(params.CurrentPage)); err == nil && n > 0 {
			c.Page = n
		}
		c.ItemsPerPage = itemsPerPage(env, params)
	}
	return c, nil
}

type live struct{}

func (live) IsExport() bool { return false }

func (live) Conditions(ctx context.Context, env Env) (Conditions, error) {
	return Live(ctx, env)
}

type replay struct{}

func (replay) IsExport() bool { return true }

func (replay) Conditions(ctx context.Context, env Env) (Conditions, error) {
	return Replay(ctx, env)
}
