// Package sqlsource is a data source over a raw PostgreSQL select. The select
// is wrapped as a subquery so projection, filters, sorting and paging are
// pushed to the database.
package sqlsource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/gnemet/gridview/column"
	"github.com/gnemet/gridview/database/cursorpool"
	"github.com/gnemet/gridview/datasource/conditions"
	"github.com/gnemet/gridview/errs"
	"github.com/gnemet/gridview/filter"
	"github.com/gnemet/gridview/paginator"
)

// DB is the part of *sql.DB the source needs.
type DB interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Source struct {
	conditions.Set

	base string
	args []any

	db        DB
	pool      *cursorpool.CursorPool
	cursorKey string

	stmt     Statement
	executed bool
}

// New runs every page as its own LIMIT/OFFSET query on db.
func New(query string, args []any, db DB) *Source {
	return &Source{base: query, args: args, db: db}
}

// NewCursor declares one scroll cursor in pool under key and pages through it.
func NewCursor(query string, args []any, pool *cursorpool.CursorPool, key string) *Source {
	return &Source{base: query, args: args, pool: pool, cursorKey: key}
}

// Statement is the generated select and count with their arguments.
type Statement struct {
	Select string
	Count  string
	Args   []any
}

// Build generates the statement for the accumulated conditions.
func (s *Source) Build() Statement {
	b := builder{args: append([]any(nil), s.args...)}

	projection := "*"
	if cols := s.Columns(); len(cols) > 0 {
		names := make([]string, 0, len(cols))
		seen := make(map[string]bool)
		for _, c := range cols {
			if seen[c.Field()] {
				continue
			}
			seen[c.Field()] = true
			names = append(names, pq.QuoteIdentifier(c.Field()))
		}
		projection = strings.Join(names, ", ")
	}

	from := fmt.Sprintf("FROM (%s) AS t", strings.TrimRight(strings.TrimSpace(s.base), ";"))

	var where []string
	for _, f := range s.Filters() {
		if clause := b.filter(f); clause != "" {
			where = append(where, clause)
		}
	}
	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	var order []string
	for _, srt := range s.Sorts() {
		order = append(order, fmt.Sprintf("%s %s", pq.QuoteIdentifier(srt.Column.Field()), strings.ToUpper(string(srt.Direction))))
	}
	orderSQL := ""
	if len(order) > 0 {
		orderSQL = " ORDER BY " + strings.Join(order, ", ")
	}

	return Statement{
		Select: fmt.Sprintf("SELECT %s %s%s%s", projection, from, whereSQL, orderSQL),
		Count:  fmt.Sprintf("SELECT COUNT(*) %s%s", from, whereSQL),
		Args:   b.args,
	}
}

// Execute builds the statement and lets the database validate it. In cursor
// mode the cursor held under the key is reused while the statement is
// unchanged, otherwise it is declared again.
func (s *Source) Execute(ctx context.Context) error {
	if err := s.checkColumns(); err != nil {
		return err
	}
	s.stmt = s.Build()

	if s.pool != nil {
		if _, err := s.pool.Acquire(ctx, s.cursorKey, s.stmt.Select, s.stmt.Args...); err != nil {
			return errs.DataSource("sqlsource.Execute", err)
		}
		s.executed = true
		return nil
	}

	if s.db == nil {
		return errs.DataSourcef("sqlsource.Execute", "no database")
	}
	prepared, err := s.db.PrepareContext(ctx, s.stmt.Select)
	if err != nil {
		return errs.DataSource("sqlsource.Execute", err)
	}
	_ = prepared.Close()
	s.executed = true
	return nil
}

func (s *Source) checkColumns() error {
	for _, srt := range s.Sorts() {
		if !srt.Column.HasSelect() {
			return errs.DataSourcef("sqlsource.Execute", "cannot sort by column %q without a source field", srt.Column.UniqueID())
		}
	}
	for _, f := range s.Filters() {
		if !f.Column.HasSelect() {
			return errs.DataSourcef("sqlsource.Execute", "cannot filter by column %q without a source field", f.Column.UniqueID())
		}
	}
	return nil
}

func (s *Source) PaginatorAdapter() (paginator.Adapter, error) {
	if !s.executed {
		return nil, errs.DataSourcef("sqlsource.PaginatorAdapter", "data source not executed")
	}
	if s.pool != nil {
		return &cursorAdapter{pool: s.pool, key: s.cursorKey}, nil
	}
	return &queryAdapter{db: s.db, stmt: s.stmt}, nil
}

type queryAdapter struct {
	db   DB
	stmt Statement
}

func (a *queryAdapter) Count(ctx context.Context) (int, error) {
	var n int
	if err := a.db.QueryRowContext(ctx, a.stmt.Count, a.stmt.Args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	return n, nil
}

func (a *queryAdapter) Items(ctx context.Context, offset, limit int) (any, error) {
	q := a.stmt.Select
	if limit >= 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	if offset > 0 {
		q += fmt.Sprintf(" OFFSET %d", offset)
	}

	rows, err := a.db.QueryContext(ctx, q, a.stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("select failed: %w", err)
	}
	defer rows.Close()
	return cursorpool.ScanRows(rows)
}

type cursorAdapter struct {
	pool *cursorpool.CursorPool
	key  string
}

func (a *cursorAdapter) Count(context.Context) (int, error) {
	state, ok := a.pool.Cursor(a.key)
	if !ok {
		return 0, fmt.Errorf("no active cursor for key %s", a.key)
	}
	return state.Count, nil
}

func (a *cursorAdapter) Items(ctx context.Context, offset, limit int) (any, error) {
	return a.pool.Fetch(ctx, a.key, offset, limit)
}

type builder struct {
	args []any
}

func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *builder) filter(f filter.Filter) string {
	col := pq.QuoteIdentifier(f.Column.Field())
	text := fmt.Sprintf("CAST(%s AS TEXT)", col)

	switch f.Operator {
	case filter.Between:
		if len(f.Values) != 2 {
			return ""
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", compareTarget(f.Column, col), b.value(f.Column, f.Values[0]), b.value(f.Column, f.Values[1]))
	case filter.In, filter.NotIn:
		ph := make([]string, len(f.Values))
		for i, v := range f.Values {
			ph[i] = b.value(f.Column, v)
		}
		op := "IN"
		if f.Operator == filter.NotIn {
			op = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", compareTarget(f.Column, col), op, strings.Join(ph, ", "))
	}

	var parts []string
	for _, v := range f.Values {
		switch f.Operator {
		case filter.Like, filter.NotLike:
			parts = append(parts, fmt.Sprintf("%s %s %s", text, likeOp(f.Operator), b.bind("%"+escapeLike(v)+"%")))
		case filter.LikeLeft, filter.NotLikeLeft:
			parts = append(parts, fmt.Sprintf("%s %s %s", text, likeOp(f.Operator), b.bind("%"+escapeLike(v))))
		case filter.LikeRight, filter.NotLikeRight:
			parts = append(parts, fmt.Sprintf("%s %s %s", text, likeOp(f.Operator), b.bind(escapeLike(v)+"%")))
		default:
			parts = append(parts, fmt.Sprintf("%s %s %s", compareTarget(f.Column, col), comparison(f.Operator), b.value(f.Column, v)))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	if len(parts) == 1 {
		return parts[0]
	}
	joiner := " OR "
	if f.Operator.Negated() {
		joiner = " AND "
	}
	return "(" + strings.Join(parts, joiner) + ")"
}

// String columns compare as lower-cased text, matching the in-memory
// comparison. Parameters then never need a cast.
func compareTarget(c *column.Column, quoted string) string {
	if isText(c) {
		return fmt.Sprintf("lower(CAST(%s AS TEXT))", quoted)
	}
	return quoted
}

// value binds v, lower-cased on the server for string columns.
func (b *builder) value(c *column.Column, v string) string {
	if isText(c) {
		return "lower(" + b.bind(v) + ")"
	}
	return b.bind(v)
}

func isText(c *column.Column) bool {
	_, ok := c.Type().(column.StringType)
	return ok
}

func likeOp(op filter.Operator) string {
	if op.Negated() {
		return "NOT ILIKE"
	}
	return "ILIKE"
}

func comparison(op filter.Operator) string {
	switch op {
	case filter.NotEqual:
		return "<>"
	case filter.GreaterEqual:
		return ">="
	case filter.Greater:
		return ">"
	case filter.LessEqual:
		return "<="
	case filter.Less:
		return "<"
	}
	return "="
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
