package datasource

import (
	"context"
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"github.com/gnemet/gridview/errs"
	"github.com/gnemet/gridview/paginator"
)

// EntityManager turns a domain entity into a source row.
type EntityManager interface {
	Hydrate(entity any) (map[string]any, error)
}

// StructManager hydrates structs through their field tags.
type StructManager struct {
	// TagName defaults to "mapstructure".
	TagName string
}

func (m StructManager) Hydrate(entity any) (map[string]any, error) {
	if row, ok := entity.(map[string]any); ok {
		return row, nil
	}
	var row map[string]any
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: m.TagName,
		Result:  &row,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(entity); err != nil {
		return nil, fmt.Errorf("hydrate %T: %w", entity, err)
	}
	return row, nil
}

// Collection pages through an entity slice in memory after hydrating it.
type Collection struct {
	*Memory

	entities any
	em       EntityManager
}

func NewCollection(entities any, em EntityManager) *Collection {
	return &Collection{Memory: NewMemory(nil), entities: entities, em: em}
}

func (c *Collection) Execute(ctx context.Context) error {
	if c.entities != nil {
		rv := reflect.ValueOf(c.entities)
		rows := make([]map[string]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			row, err := c.em.Hydrate(rv.Index(i).Interface())
			if err != nil {
				return errs.DataSource("datasource.Collection.Execute", err)
			}
			rows = append(rows, row)
		}
		c.Memory.rows = rows
	}
	return c.Memory.Execute(ctx)
}

func (c *Collection) PaginatorAdapter() (paginator.Adapter, error) {
	return c.Memory.PaginatorAdapter()
}
