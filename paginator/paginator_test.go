package paginator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnemet/gridview/errs"
)

type sliceAdapter struct {
	rows   []map[string]any
	counts int
	fetch  int
}

func (a *sliceAdapter) Count(context.Context) (int, error) {
	a.counts++
	return len(a.rows), nil
}

func (a *sliceAdapter) Items(_ context.Context, offset, limit int) (any, error) {
	a.fetch++
	if offset >= len(a.rows) {
		return []map[string]any{}, nil
	}
	end := len(a.rows)
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}
	return a.rows[offset:end], nil
}

func rows(n int) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = map[string]any{"id": i + 1}
	}
	return out
}

func loaded(t *testing.T, n, perPage, current int, opts ...Option) *Paginator {
	t.Helper()
	p := New(&sliceAdapter{rows: rows(n)}, opts...)
	p.SetItemCountPerPage(perPage)
	p.SetCurrentPageNumber(current)
	require.NoError(t, p.Load(context.Background()))
	return p
}

func TestPaginator_SingleRowDefaults(t *testing.T) {
	p := New(&sliceAdapter{rows: []map[string]any{{"id": 1, "name": "a"}}})

	items, err := p.CurrentItems(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, p.TotalItemCount())
	assert.Equal(t, 1, p.PageCount())
	assert.Equal(t, 1, p.CurrentPageNumber())
	assert.Equal(t, DefaultItemCountPerPage, p.ItemCountPerPage())
	assert.Len(t, items, 1)
}

func TestPaginator_ClampsPage(t *testing.T) {
	tests := []struct {
		current, want int
	}{
		{-3, 1},
		{0, 1},
		{2, 2},
		{10, 3},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprint(tc.current), func(t *testing.T) {
			p := loaded(t, 30, 10, tc.current)
			assert.Equal(t, tc.want, p.CurrentPageNumber())
			assert.Equal(t, (tc.want-1)*10+1, p.items[0]["id"])
		})
	}
}

func TestPaginator_Unlimited(t *testing.T) {
	p := loaded(t, 42, Unlimited, 3)

	assert.Equal(t, 1, p.PageCount())
	assert.Equal(t, 1, p.CurrentPageNumber())
	assert.Equal(t, 42, p.CurrentItemCount())
}

func TestPaginator_Empty(t *testing.T) {
	p := loaded(t, 0, 10, 4)

	assert.Equal(t, 0, p.PageCount())
	assert.Equal(t, 1, p.CurrentPageNumber())
	assert.Empty(t, p.PagesInRange())
}

func TestPaginator_LoadsOnce(t *testing.T) {
	a := &sliceAdapter{rows: rows(3)}
	p := New(a)
	ctx := context.Background()

	_, err := p.CurrentItems(ctx)
	require.NoError(t, err)
	_, err = p.CurrentItems(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, a.counts)
	assert.Equal(t, 1, a.fetch)
}

func TestPaginator_PagesInRange(t *testing.T) {
	span := func(from, to int) []int {
		var out []int
		for i := from; i <= to; i++ {
			out = append(out, i)
		}
		return out
	}

	tests := map[string]struct {
		style   Style
		current int
		want    []int
	}{
		"sliding start":  {Sliding, 1, span(1, 10)},
		"sliding middle": {Sliding, 50, span(46, 55)},
		"sliding end":    {Sliding, 98, span(91, 100)},
		"jumping inside": {Jumping, 15, span(11, 20)},
		"jumping edge":   {Jumping, 20, span(11, 20)},
		"elastic first":  {Elastic, 1, span(1, 1)},
		"elastic grows":  {Elastic, 5, span(1, 9)},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			p := loaded(t, 1000, 10, tc.current, WithStyle(tc.style))
			assert.Equal(t, tc.want, p.PagesInRange())
		})
	}

	t.Run("all", func(t *testing.T) {
		p := loaded(t, 30, 10, 2, WithStyle(All), WithPageRange(1))
		assert.Equal(t, []int{1, 2, 3}, p.PagesInRange())
	})
}

func TestPaginator_Pages(t *testing.T) {
	p := loaded(t, 30, 10, 2)

	pages := p.Pages()
	assert.Equal(t, 3, pages.PageCount)
	assert.Equal(t, 1, pages.Previous)
	assert.Equal(t, 3, pages.Next)
	assert.Equal(t, 11, pages.FirstItemNumber)
	assert.Equal(t, 20, pages.LastItemNumber)
}

func TestParseStyle(t *testing.T) {
	s, err := ParseStyle("Elastic")
	require.NoError(t, err)
	assert.Equal(t, Elastic, s)

	s, err = ParseStyle("")
	require.NoError(t, err)
	assert.Equal(t, Sliding, s)

	_, err = ParseStyle("zigzag")
	assert.ErrorIs(t, err, errs.ErrConfiguration)
}

type doc map[string]any

type rowSet []map[string]any

func (r rowSet) Rows() []map[string]any { return r }

type iterator struct {
	rows []map[string]any
	i    int
	err  error
}

func (it *iterator) Next() bool {
	if it.i >= len(it.rows) {
		return false
	}
	it.i++
	return true
}

func (it *iterator) Row() map[string]any { return it.rows[it.i-1] }
func (it *iterator) Err() error          { return it.err }

func TestNormalize(t *testing.T) {
	want := []map[string]any{{"id": 1}, {"id": 2}}

	tests := map[string]struct {
		in      any
		want    []map[string]any
		wantErr bool
	}{
		"rows":          {in: want, want: want},
		"named maps":    {in: []doc{{"id": 1}, {"id": 2}}, want: want},
		"any of maps":   {in: []any{map[string]any{"id": 1}, doc{"id": 2}}, want: want},
		"row set":       {in: rowSet(want), want: want},
		"iterator":      {in: &iterator{rows: want}, want: want},
		"iterator fail": {in: &iterator{err: errors.New("cursor closed")}, wantErr: true},
		"nil":           {in: nil, want: nil},
		"scalar":        {in: 42, wantErr: true},
		"strings":       {in: []string{"a"}, wantErr: true},
		"int keyed":     {in: []map[int]any{{1: "a"}}, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := Normalize(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, errs.ErrDataSource)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
