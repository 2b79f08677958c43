// Package datasource defines the data source contract a grid loads from and
// builds the variant matching a caller supplied input.
package datasource

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/gnemet/gridview/column"
	"github.com/gnemet/gridview/database/cursorpool"
	"github.com/gnemet/gridview/datasource/mongosource"
	"github.com/gnemet/gridview/datasource/sqlsource"
	"github.com/gnemet/gridview/errs"
	"github.com/gnemet/gridview/filter"
	"github.com/gnemet/gridview/paginator"
)

// DataSource accumulates projection, sorts and filters, executes once and
// then hands out a paginator adapter.
type DataSource interface {
	SetColumns(cols []*column.Column)
	AddSortCondition(col *column.Column, dir filter.Direction)
	AddFilter(f filter.Filter)
	Execute(ctx context.Context) error
	PaginatorAdapter() (paginator.Adapter, error)
}

// Kind selects the data source variant.
type Kind int

const (
	KindRows Kind = iota + 1
	KindQuery
	KindSelect
	KindCollection
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindRows:
		return "rows"
	case KindQuery:
		return "query"
	case KindSelect:
		return "select"
	case KindCollection:
		return "collection"
	case KindCustom:
		return "custom"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Input describes where grid data comes from. Which fields are read
// depends on Kind:
//
//	KindRows        Rows
//	KindQuery       Document, Companion (a mongosource.Collection)
//	KindSelect      Query, Args, Companion (*sql.DB or *cursorpool.CursorPool), CursorKey
//	KindCollection  Entities (a slice), Companion (an EntityManager)
//	KindCustom      Source
type Input struct {
	Kind      Kind
	Rows      []map[string]any
	Document  bson.M
	Query     string
	Args      []any
	CursorKey string
	Entities  any
	Companion any
	Source    DataSource
}

// New validates in and builds its data source. No data is accessed.
func New(in Input) (DataSource, error) {
	const op = "datasource.New"

	switch in.Kind {
	case KindRows:
		return NewMemory(in.Rows), nil

	case KindQuery:
		coll, ok := in.Companion.(mongosource.Collection)
		if !ok || coll == nil {
			return nil, errs.Configuration(op, "query data source needs a document collection companion, got %T", in.Companion)
		}
		return mongosource.New(coll, in.Document), nil

	case KindSelect:
		if in.Query == "" {
			return nil, errs.Configuration(op, "select data source needs a query")
		}
		switch c := in.Companion.(type) {
		case *cursorpool.CursorPool:
			if c == nil {
				break
			}
			key := in.CursorKey
			if key == "" {
				key = uuid.NewString()
			}
			return sqlsource.NewCursor(in.Query, in.Args, c, key), nil
		case sqlsource.DB:
			if isNil(c) {
				break
			}
			return sqlsource.New(in.Query, in.Args, c), nil
		}
		return nil, errs.Configuration(op, "select data source needs adapter/sql companion, got %T", in.Companion)

	case KindCollection:
		em, ok := in.Companion.(EntityManager)
		if !ok || em == nil {
			return nil, errs.Configuration(op, "collection data source needs entity manager companion, got %T", in.Companion)
		}
		if in.Entities != nil && reflect.ValueOf(in.Entities).Kind() != reflect.Slice {
			return nil, errs.Configuration(op, "collection data source needs a slice of entities, got %T", in.Entities)
		}
		return NewCollection(in.Entities, em), nil

	case KindCustom:
		if in.Source == nil {
			return nil, errs.Configuration(op, "custom data source is nil")
		}
		return in.Source, nil
	}
	return nil, errs.Configuration(op, "unsupported data source type %v", in.Kind)
}

func isNil(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return v == nil
}
