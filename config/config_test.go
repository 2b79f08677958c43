package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnemet/gridview/column"
	"github.com/gnemet/gridview/errs"
	"github.com/gnemet/gridview/paginator"
)

const sample = `
server:
  port: 9090
database:
  - name: main
    host: localhost
    port: 5432
    user: grid
    password: ${GRIDVIEW_TEST_PASSWORD}
    database: grid
    schema: app
    default: true
settings:
  itemsPerPage: 50
  paginator:
    style: elastic
  export:
    formats: [csv, excel]
generalParameterNames:
  sort: order
cache:
  adapter: filesystem
  dir: /tmp/grid
  ttl: 30m
grids:
  users:
    title: Users
    query: SELECT id, name, status FROM users
    columns:
      - select: id
        identity: true
        type: { name: number, decimals: 0 }
      - select: { column: status, table: u }
        replaceValues: { "1": Active, "0": Inactive }
`

func TestParse(t *testing.T) {
	t.Setenv("GRIDVIEW_TEST_PASSWORD", "s3cret")

	o, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "9090", o.Server.Port)
	db, ok := o.DefaultDatabase()
	require.True(t, ok)
	assert.Equal(t, "s3cret", db.Password)
	assert.Equal(t, "host=localhost port=5432 user=grid password=s3cret dbname=grid sslmode=disable search_path=app,public", db.ConnString())

	assert.Equal(t, 50, o.Settings.ItemsPerPage)
	assert.Equal(t, "elastic", o.Settings.Paginator.Style)
	assert.Equal(t, paginator.DefaultPageRange, o.Settings.Paginator.PageRange)
	assert.True(t, o.Settings.Export.Enabled)
	assert.Equal(t, []string{"csv", "excel"}, o.Settings.Export.Formats)
	assert.True(t, o.Settings.UserFilterEnabled)
	assert.Equal(t, "html", o.Settings.Default.Renderer.HTTP)
	assert.Equal(t, "console", o.Settings.Default.Renderer.Console)

	assert.Equal(t, "order", o.GeneralParameterNames.Sort)
	assert.Equal(t, "currentPage", o.GeneralParameterNames.CurrentPage)

	assert.Equal(t, "filesystem", o.Cache.Adapter)
	assert.Equal(t, 30*time.Minute, o.Cache.TTL)

	opts, err := o.PaginatorOptions()
	require.NoError(t, err)
	assert.Equal(t, paginator.Elastic, paginator.New(nil, opts...).Style())

	grid := o.Grids["users"]
	cols, err := grid.Build(&column.Factory{})
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "id", cols[0].UniqueID())
	assert.True(t, cols[0].IsIdentity())
	assert.Equal(t, "u_status", cols[1].UniqueID())
	values, unmatchedEmpty := cols[1].ReplaceValues()
	assert.Equal(t, "Active", values["1"])
	assert.True(t, unmatchedEmpty)
}

func TestParse_Defaults(t *testing.T) {
	o, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), o)
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad style":   "settings:\n  paginator:\n    style: wobbly\n",
		"bad items":   "settings:\n  itemsPerPage: -5\n",
		"bad adapter": "cache:\n  adapter: memcached\n",
		"bad param":   "generalParameterNames:\n  page: p\n",
		"not yaml":    "settings: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, errs.ErrConfiguration)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("settings:\n  itemsPerPage: -1\n"), 0o600))

	o, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, paginator.Unlimited, o.Settings.ItemsPerPage)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateColumn(t *testing.T) {
	tests := map[string]struct {
		cfg   map[string]any
		valid bool
	}{
		"select string":    {map[string]any{"select": "name"}, true},
		"select map":       {map[string]any{"select": map[string]any{"column": "name", "table": "u"}}, true},
		"int replace keys": {map[string]any{"select": "s", "replaceValues": map[int]string{1: "Active"}}, true},
		"yaml style keys":  {map[string]any{"select": "s", "replaceValues": map[any]any{1: "Active"}}, true},
		"sort default":     {map[string]any{"select": "s", "sortDefault": []any{1, "desc"}}, true},
		"unknown key":      {map[string]any{"select": "s", "styles": []any{"x"}}, true},
		"bad position":     {map[string]any{"select": "s", "position": "first"}, false},
		"bad type":         {map[string]any{"select": "s", "type": "money"}, false},
		"select no column": {map[string]any{"select": map[string]any{"table": "u"}}, false},
		"action no route":  {map[string]any{"colType": "action", "actions": []any{map[string]any{"label": "x"}}}, false},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := ValidateColumn(tc.cfg)
			if tc.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, errs.ErrConfiguration)
		})
	}
}

func TestSchema(t *testing.T) {
	for _, name := range []string{"options.schema.json", "column.schema.json"} {
		raw, err := Schema(name)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"$schema"`)
	}
}
