// Package mongosource is a data source over a MongoDB collection and a base
// query document. Filters, sorting and paging run on the server.
package mongosource

import (
	"context"
	"fmt"
	"regexp"

	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gnemet/gridview/column"
	"github.com/gnemet/gridview/datasource/conditions"
	"github.com/gnemet/gridview/errs"
	"github.com/gnemet/gridview/filter"
	"github.com/gnemet/gridview/paginator"
)

// Collection is the part of *mongo.Collection the source needs.
type Collection interface {
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

type Source struct {
	conditions.Set

	coll Collection
	base bson.M

	query    Query
	executed bool
}

func New(coll Collection, base bson.M) *Source {
	return &Source{coll: coll, base: base}
}

// Query is the generated filter document, sort and projection.
type Query struct {
	Filter     bson.M
	Sort       bson.D
	Projection bson.D
}

func (s *Source) Build() (Query, error) {
	var clauses []bson.M
	if len(s.base) > 0 {
		clauses = append(clauses, s.base)
	}
	for _, f := range s.Filters() {
		if !f.Column.HasSelect() {
			return Query{}, errs.DataSourcef("mongosource.Build", "cannot filter by column %q without a source field", f.Column.UniqueID())
		}
		c, err := clause(f)
		if err != nil {
			return Query{}, errs.DataSource("mongosource.Build", err)
		}
		clauses = append(clauses, c)
	}

	q := Query{Filter: bson.M{}}
	switch len(clauses) {
	case 0:
	case 1:
		q.Filter = clauses[0]
	default:
		q.Filter = bson.M{"$and": clauses}
	}

	for _, srt := range s.Sorts() {
		if !srt.Column.HasSelect() {
			return Query{}, errs.DataSourcef("mongosource.Build", "cannot sort by column %q without a source field", srt.Column.UniqueID())
		}
		order := 1
		if srt.Direction == filter.Desc {
			order = -1
		}
		q.Sort = append(q.Sort, bson.E{Key: srt.Column.Field(), Value: order})
	}

	seen := make(map[string]bool)
	for _, c := range s.Columns() {
		if !seen[c.Field()] {
			seen[c.Field()] = true
			q.Projection = append(q.Projection, bson.E{Key: c.Field(), Value: 1})
		}
	}
	return q, nil
}

func (s *Source) Execute(context.Context) error {
	if s.coll == nil {
		return errs.DataSourcef("mongosource.Execute", "no collection")
	}
	q, err := s.Build()
	if err != nil {
		return err
	}
	s.query = q
	s.executed = true
	return nil
}

func (s *Source) PaginatorAdapter() (paginator.Adapter, error) {
	if !s.executed {
		return nil, errs.DataSourcef("mongosource.PaginatorAdapter", "data source not executed")
	}
	return &adapter{coll: s.coll, query: s.query}, nil
}

// Equality, ranges and sorting ignore case like the in-memory source.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

type adapter struct {
	coll  Collection
	query Query
}

func (a *adapter) Count(ctx context.Context) (int, error) {
	n, err := a.coll.CountDocuments(ctx, a.query.Filter, options.Count().SetCollation(caseInsensitive))
	if err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	return int(n), nil
}

func (a *adapter) Items(ctx context.Context, offset, limit int) (any, error) {
	opts := options.Find().SetCollation(caseInsensitive)
	if len(a.query.Sort) > 0 {
		opts.SetSort(a.query.Sort)
	}
	if len(a.query.Projection) > 0 {
		opts.SetProjection(a.query.Projection)
	}
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit >= 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := a.coll.Find(ctx, a.query.Filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find failed: %w", err)
	}
	defer cursor.Close(ctx)

	docs := []bson.M{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("cursor.All failed: %w", err)
	}
	return docs, nil
}

func clause(f filter.Filter) (bson.M, error) {
	field := f.Column.Field()

	switch f.Operator {
	case filter.Between:
		if len(f.Values) != 2 {
			return nil, fmt.Errorf("between on %q needs two values", field)
		}
		from, err := typed(f.Column, f.Values[0])
		if err != nil {
			return nil, err
		}
		to, err := typed(f.Column, f.Values[1])
		if err != nil {
			return nil, err
		}
		return bson.M{field: bson.M{"$gte": from, "$lte": to}}, nil
	case filter.In, filter.NotIn, filter.Equal, filter.NotEqual:
		values, err := typedAll(f.Column, f.Values)
		if err != nil {
			return nil, err
		}
		negated := f.Operator.Negated()
		if len(values) == 1 && (f.Operator == filter.Equal || f.Operator == filter.NotEqual) {
			if negated {
				return bson.M{field: bson.M{"$ne": values[0]}}, nil
			}
			return bson.M{field: values[0]}, nil
		}
		if negated {
			return bson.M{field: bson.M{"$nin": values}}, nil
		}
		return bson.M{field: bson.M{"$in": values}}, nil
	}

	var parts []bson.M
	for _, v := range f.Values {
		var cond any
		switch f.Operator {
		case filter.Like, filter.NotLike:
			cond = pattern(regexp.QuoteMeta(v), f.Operator.Negated())
		case filter.LikeLeft, filter.NotLikeLeft:
			cond = pattern(regexp.QuoteMeta(v)+"$", f.Operator.Negated())
		case filter.LikeRight, filter.NotLikeRight:
			cond = pattern("^"+regexp.QuoteMeta(v), f.Operator.Negated())
		default:
			tv, err := typed(f.Column, v)
			if err != nil {
				return nil, err
			}
			cond = bson.M{comparison(f.Operator): tv}
		}
		parts = append(parts, bson.M{field: cond})
	}

	switch {
	case len(parts) == 1:
		return parts[0], nil
	case f.Operator.Negated():
		return bson.M{"$and": parts}, nil
	}
	return bson.M{"$or": parts}, nil
}

func pattern(p string, negated bool) any {
	re := primitive.Regex{Pattern: p, Options: "i"}
	if negated {
		return bson.M{"$not": re}
	}
	return re
}

func comparison(op filter.Operator) string {
	switch op {
	case filter.GreaterEqual:
		return "$gte"
	case filter.Greater:
		return "$gt"
	case filter.LessEqual:
		return "$lte"
	}
	return "$lt"
}

func typedAll(c *column.Column, values []string) ([]any, error) {
	out := make([]any, 0, len(values))
	for _, v := range values {
		tv, err := typed(c, v)
		if err != nil {
			return nil, err
		}
		out = append(out, tv)
	}
	return out, nil
}

// typed converts a filter value to the column's stored type.
func typed(c *column.Column, v string) (any, error) {
	switch t := c.Type().(type) {
	case column.NumberType:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c.UniqueID(), err)
		}
		return f, nil
	case column.DateTimeType:
		tm, err := filter.ToTime(v, t.SourceLayout)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c.UniqueID(), err)
		}
		return tm, nil
	}
	return v, nil
}
