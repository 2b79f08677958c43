package gridview

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gnemet/gridview/datasource"
	"github.com/gnemet/gridview/request"
)

type documentCollection struct {
	docs       []any
	findFilter any
}

func (c *documentCollection) CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error) {
	return int64(len(c.docs)), nil
}

func (c *documentCollection) Find(_ context.Context, f interface{}, _ ...*options.FindOptions) (*mongo.Cursor, error) {
	c.findFilter = f
	return mongo.NewCursorFromDocuments(c.docs, nil, nil)
}

func mistypedGrid(t *testing.T, in datasource.Input) *Grid {
	t.Helper()
	g := New(WithRequest(request.NewConsole(request.ParseArgs([]string{"id=abc"}), "")))
	g.SetID("users")
	g.SetColumns(userColumns())
	require.NoError(t, g.SetDataSource(in))
	require.NoError(t, g.Init())
	require.NoError(t, g.LoadData(context.Background()))
	return g
}

func TestGrid_MistypedNumberFilterIsDropped(t *testing.T) {
	t.Run("rows", func(t *testing.T) {
		g := mistypedGrid(t, datasource.Input{Kind: datasource.KindRows, Rows: users(5)})
		p, err := g.Paginator()
		require.NoError(t, err)
		assert.Equal(t, 5, p.TotalItemCount())
	})

	t.Run("documents", func(t *testing.T) {
		coll := &documentCollection{docs: []any{bson.M{"id": int32(1), "name": "user01", "status": int32(1)}}}
		g := mistypedGrid(t, datasource.Input{Kind: datasource.KindQuery, Companion: coll})
		assert.Equal(t, bson.M{}, coll.findFilter)
		assert.Len(t, g.PreparedData(), 1)
	})

	t.Run("select", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectPrepare(`^SELECT .+ FROM \(SELECT \* FROM users\) AS t$`).WillBeClosed()
		mock.ExpectQuery(`^SELECT COUNT\(\*\) FROM \(SELECT \* FROM users\) AS t$`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
		mock.ExpectQuery(`^SELECT .+ FROM \(SELECT \* FROM users\) AS t LIMIT 25$`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "status"}).AddRow(int64(1), "user01", int64(1)))

		g := mistypedGrid(t, datasource.Input{Kind: datasource.KindSelect, Query: "SELECT * FROM users", Companion: db})
		assert.Len(t, g.PreparedData(), 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
