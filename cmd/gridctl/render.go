package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gnemet/gridview"
	"github.com/gnemet/gridview/cache"
	"github.com/gnemet/gridview/column"
	"github.com/gnemet/gridview/config"
	"github.com/gnemet/gridview/datasource"
	"github.com/gnemet/gridview/i18n"
	"github.com/gnemet/gridview/logging"
	"github.com/gnemet/gridview/renderer"
	"github.com/gnemet/gridview/request"
)

type renderOptions struct {
	*rootOptions

	grid     string
	renderer string
	session  string
	cacheDir string
	out      string
}

func newRenderCmd(root *rootOptions) *cobra.Command {
	opts := &renderOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "render <data-file> [name=value ...]",
		Short: "Render a data file as a grid",
		Long: `Render the rows of a YAML or JSON data file. Trailing name=value
arguments are grid parameters, for example sort=name:desc, currentPage=2,
items=50 or a column filter such as status=active.

Export renderers (csv, excel, pdf) replay the sorts and filters of the last
console render of the same grid and session.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), cmd.OutOrStdout(), opts, args[0], args[1:])
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.grid, "grid", "g", "", "grid id; columns come from the options file when it defines it")
	f.StringVarP(&opts.renderer, "renderer", "r", renderer.NameConsole, "renderer name")
	f.StringVar(&opts.session, "session", "console", "session the view state is kept under")
	f.StringVar(&opts.cacheDir, "cache-dir", defaultCacheDir(), "view state directory")
	f.StringVarP(&opts.out, "out", "o", "", "write the output to a file")
	return cmd
}

func runRender(ctx context.Context, stdout io.Writer, opts *renderOptions, file string, params []string) error {
	cfg := config.Defaults()
	if opts.config != "" {
		var err error
		if cfg, err = config.Load(opts.config); err != nil {
			return err
		}
	}

	rows, err := readRows(file)
	if err != nil {
		return err
	}

	id := opts.grid
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}

	store, err := cache.NewFilesystem(opts.cacheDir, cfg.Cache.TTL, opts.logger)
	if err != nil {
		return err
	}

	g := gridview.New(
		gridview.WithOptions(cfg),
		gridview.WithRequest(request.NewConsole(request.ParseArgs(params), opts.session)),
		gridview.WithCache(store),
		gridview.WithLogger(opts.logger),
	)
	g.SetID(id)
	g.SetRendererName(opts.renderer)

	def, ok := cfg.Grids[opts.grid]
	if ok {
		g.SetTitle(def.Title)
		if def.ItemsPerPage != 0 {
			g.SetItemsPerPage(def.ItemsPerPage)
		}
		for _, c := range def.Columns {
			if _, err := g.CreateColumn(c); err != nil {
				return err
			}
		}
	} else {
		g.SetColumns(columnsFromRows(rows))
	}

	if err := g.SetDataSource(datasource.Input{Kind: datasource.KindRows, Rows: rows}); err != nil {
		return err
	}
	if err := g.Init(); err != nil {
		return err
	}
	resp, err := g.Response(ctx)
	if err != nil {
		return err
	}

	if opts.out == "" && resp.Filename != "" && logging.IsTerminal(stdout) {
		opts.out = resp.Filename
	}
	if opts.out != "" {
		if err := os.WriteFile(opts.out, resp.Body, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote %s (%d bytes)\n", opts.out, len(resp.Body))
		return nil
	}
	_, err = stdout.Write(resp.Body)
	return err
}

// readRows decodes a list of records. JSON is read as YAML.
func readRows(file string) ([]map[string]any, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", file, err)
	}
	return rows, nil
}

// columnsFromRows builds one column per field, in the order of first
// appearance and labelled from the field name.
func columnsFromRows(rows []map[string]any) []*column.Column {
	var fields []string
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			if !slices.Contains(fields, k) {
				keys = append(keys, k)
			}
		}
		slices.Sort(keys)
		fields = append(fields, keys...)
	}
	if i := slices.Index(fields, "id"); i > 0 {
		fields = slices.Insert(slices.Delete(fields, i, i+1), 0, "id")
	}

	cols := make([]*column.Column, 0, len(fields))
	for _, f := range fields {
		cols = append(cols, column.NewSelect(f, "",
			column.WithLabel(i18n.Humanize(f)),
			column.Identity(f == "id")))
	}
	return cols
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "gridview")
}
