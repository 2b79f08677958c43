package column

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnemet/gridview/errs"
)

func ids(cols []*Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.UniqueID()
	}
	return out
}

func TestNewSelect_UniqueID(t *testing.T) {
	tests := []struct {
		field, table string
		want         string
	}{
		{"name", "", "name"},
		{"name", "u", "u_name"},
		{"address.city", "", "address_city"},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, NewSelect(tc.field, tc.table).UniqueID())
		})
	}
}

func TestRegistry_SortByPosition(t *testing.T) {
	r := NewRegistry()
	r.Add(NewSelect("id", "", WithPosition(1)))
	r.Add(NewSelect("name", "", WithPosition(2)))
	r.Add(NewSelect("status", "", WithPosition(1)))

	assert.Equal(t, []string{"id", "status", "name"}, ids(r.Sort()))
}

func TestRegistry_SortIsIdempotent(t *testing.T) {
	r := NewRegistry()
	for i, f := range []string{"e", "d", "c", "b", "a"} {
		r.Add(NewSelect(f, "", WithPosition(i%2)))
	}
	first := ids(r.Sort())
	second := ids(r.Sort())

	assert.Equal(t, []string{"e", "c", "a", "d", "b"}, first)
	assert.Equal(t, first, second)
}

func TestRegistry_AddDefaultsPosition(t *testing.T) {
	r := NewRegistry()
	c := NewSelect("id", "")
	r.Add(c)

	pos, ok := c.Position()
	assert.True(t, ok)
	assert.Equal(t, DefaultPosition, pos)
}

func TestRegistry_SetLastWriteWins(t *testing.T) {
	r := NewRegistry()
	r.Add(NewSelect("old", ""))

	first := NewSelect("id", "", WithLabel("first"))
	second := NewSelect("id", "", WithLabel("second"))
	r.Set([]*Column{first, NewSelect("name", ""), second})

	require.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"id", "name"}, ids(r.Columns()))
	assert.Equal(t, "second", r.ByID("id").Label())
	assert.Nil(t, r.ByID("old"))
}

func TestRegistry_PositionChangeBeforeSort(t *testing.T) {
	r := NewRegistry()
	a := NewSelect("a", "")
	b := NewSelect("b", "")
	r.Add(a)
	r.Add(b)

	a.SetPosition(5)
	assert.Equal(t, []string{"b", "a"}, ids(r.Sort()))
}

func TestColumn_VariantCapabilities(t *testing.T) {
	sel := NewSelect("name", "")
	comp := NewComputed("full", func(map[string]any) any { return "x" }, Sortable(true))
	act := NewAction("", nil)

	assert.True(t, sel.IsSortable())
	assert.True(t, sel.HasSelect())
	assert.False(t, comp.IsSortable())
	assert.False(t, comp.HasSelect())
	assert.Equal(t, "full", comp.Label())
	assert.Equal(t, "action", act.UniqueID())
	assert.Equal(t, "action", act.Variant().String())
}

func TestFactory_Create(t *testing.T) {
	f := &Factory{Computations: map[string]ComputeFunc{
		"upper": func(row map[string]any) any { return row["name"] },
	}}

	tests := map[string]struct {
		cfg     map[string]any
		wantErr bool
		check   func(t *testing.T, c *Column)
	}{
		"default select": {
			cfg: map[string]any{"select": map[string]any{"column": "name", "table": "u"}, "label": "Name", "position": 3},
			check: func(t *testing.T, c *Column) {
				assert.Equal(t, VariantSelect, c.Variant())
				assert.Equal(t, "u_name", c.UniqueID())
				assert.Equal(t, "Name", c.Label())
				pos, _ := c.Position()
				assert.Equal(t, 3, pos)
			},
		},
		"select as scalar": {
			cfg: map[string]any{"select": "email"},
			check: func(t *testing.T, c *Column) {
				assert.Equal(t, "email", c.Field())
			},
		},
		"missing select column": {
			cfg:     map[string]any{"colType": "select", "label": "x"},
			wantErr: true,
		},
		"unknown type": {
			cfg:     map[string]any{"colType": "Nope"},
			wantErr: true,
		},
		"unknown keys ignored": {
			cfg: map[string]any{"select": "name", "fancyThing": true, "cssClass": "x"},
			check: func(t *testing.T, c *Column) {
				assert.Equal(t, "name", c.UniqueID())
			},
		},
		"special keys scalar and list": {
			cfg: map[string]any{
				"select":            []any{"status", "u"},
				"sortDefault":       []any{2, "DESC"},
				"replaceValues":     []any{map[int]string{1: "Active", 0: "Inactive"}, false},
				"rendererParameter": []any{"align", "right", "pdf"},
			},
			check: func(t *testing.T, c *Column) {
				assert.Equal(t, "u_status", c.UniqueID())
				assert.Equal(t, &SortDefault{Priority: 2, Direction: "desc"}, c.SortDefault())
				values, unmatchedEmpty := c.ReplaceValues()
				assert.Equal(t, map[string]string{"1": "Active", "0": "Inactive"}, values)
				assert.False(t, unmatchedEmpty)
				assert.Equal(t, "right", c.RendererParameters("pdf")["align"])
			},
		},
		"sortDefault scalar": {
			cfg: map[string]any{"select": "id", "sortDefault": 1},
			check: func(t *testing.T, c *Column) {
				assert.Equal(t, &SortDefault{Priority: 1, Direction: "asc"}, c.SortDefault())
			},
		},
		"filter select options map": {
			cfg: map[string]any{"select": "status", "filterSelectOptions": map[string]any{"1": "Active", "0": "Inactive"}},
			check: func(t *testing.T, c *Column) {
				assert.Equal(t, []SelectOption{
					{Value: "", Label: "-"},
					{Value: "0", Label: "Inactive"},
					{Value: "1", Label: "Active"},
				}, c.FilterSelectOptions())
			},
		},
		"typed number": {
			cfg: map[string]any{"select": "price", "type": map[string]any{"name": "number", "decimals": 2, "suffix": " €"}},
			check: func(t *testing.T, c *Column) {
				assert.Equal(t, NumberType{Decimals: 2, Suffix: " €"}, c.Type())
			},
		},
		"bad position": {
			cfg:     map[string]any{"select": "id", "position": "first"},
			wantErr: true,
		},
		"computed": {
			cfg: map[string]any{"colType": "computed", "id": "display", "compute": "upper"},
			check: func(t *testing.T, c *Column) {
				assert.Equal(t, VariantComputed, c.Variant())
				assert.Equal(t, "display", c.UniqueID())
				require.NotNil(t, c.Compute())
				assert.Equal(t, "bob", c.Compute()(map[string]any{"name": "bob"}))
			},
		},
		"computed without id": {
			cfg:     map[string]any{"colType": "computed"},
			wantErr: true,
		},
		"unknown computation": {
			cfg:     map[string]any{"colType": "computed", "id": "x", "compute": "missing"},
			wantErr: true,
		},
		"action": {
			cfg: map[string]any{"colType": "Action", "actions": []any{
				map[string]any{"label": "Edit", "route": "/users/{id}/edit", "params": map[string]any{"id": "id"}},
			}},
			check: func(t *testing.T, c *Column) {
				assert.Equal(t, "action", c.UniqueID())
				require.Len(t, c.Actions(), 1)
				assert.Equal(t, "Edit", c.Actions()[0].Label)
				assert.Equal(t, "id", c.Actions()[0].Params["id"])
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			c, err := f.Create(tc.cfg)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errs.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			tc.check(t, c)
		})
	}
}

func TestFactory_DecodeCollectsIgnoredKeys(t *testing.T) {
	f := &Factory{}
	def, err := f.Decode(map[string]any{"select": "id", "zeta": 1, "alpha": 2, "label": "ID"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, def.Ignored)
	assert.Len(t, def.Options, 1)
}

func TestColumn_Value(t *testing.T) {
	row := map[string]any{
		"name": "ann",
		"address": map[string]any{
			"city": "Pécs",
			"tags": []any{"home", "main"},
		},
		"u_status": 1,
	}

	tests := map[string]struct {
		col    *Column
		want   any
		wantOK bool
	}{
		"by field":        {NewSelect("name", ""), "ann", true},
		"by unique id":    {NewSelect("status", "u"), 1, true},
		"dotted path":     {NewSelect("address.city", ""), "Pécs", true},
		"slice index":     {NewSelect("address.tags.1", ""), "main", true},
		"out of range":    {NewSelect("address.tags.5", ""), nil, false},
		"missing":         {NewSelect("email", ""), nil, false},
		"computed by id":  {NewComputed("name", nil), "ann", true},
		"computed absent": {NewComputed("full", nil), nil, false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			v, ok := tc.col.Value(row)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, v)
		})
	}
}
