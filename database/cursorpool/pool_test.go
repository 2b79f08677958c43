package cursorpool

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQueries(t *testing.T) {
	assert.Equal(t, `MOVE FORWARD ALL FROM "cur_1"`, BuildCountQuery("cur_1"))
	assert.Equal(t, `MOVE ABSOLUTE 20 FROM "cur_1"`, BuildMoveQuery("cur_1", 20))
	assert.Equal(t, `FETCH FORWARD 10 FROM "cur_1"`, BuildFetchQuery("cur_1", 10))
	assert.Equal(t, `FETCH FORWARD ALL FROM "cur_1"`, BuildFetchQuery("cur_1", -1))
}

func TestCursorPool_DeclareFetchRelease(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	p := New(db, Options{MaxCursors: 2})
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`DECLARE "cur_[0-9a-f]{8}" SCROLL CURSOR FOR SELECT \* FROM users WHERE active = \$1`).
		WithArgs(true).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`MOVE FORWARD ALL FROM "cur_[0-9a-f]{8}"`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	state, err := p.Declare(ctx, "session-grid", "SELECT * FROM users WHERE active = $1", true)
	require.NoError(t, err)
	assert.Equal(t, 3, state.Count)
	assert.Equal(t, 1, p.Len())

	mock.ExpectExec(`MOVE ABSOLUTE 1 FROM "cur_[0-9a-f]{8}"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FETCH FORWARD 2 FROM "cur_[0-9a-f]{8}"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(2), []byte("bob")).
			AddRow(int64(3), "cyd"))

	rows, err := p.Fetch(ctx, "session-grid", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"id": int64(2), "name": "bob"},
		{"id": int64(3), "name": "cyd"},
	}, rows)

	mock.ExpectRollback()
	p.Release("session-grid")
	assert.Equal(t, 0, p.Len())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCursorPool_DeclareFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	p := New(db, Options{})

	mock.ExpectBegin()
	mock.ExpectExec(`DECLARE`).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err = p.Declare(context.Background(), "k", "SELEC nonsense")
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 0, p.Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCursorPool_FetchUnknownKey(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = New(db, Options{}).Fetch(context.Background(), "missing", 0, 10)
	assert.ErrorContains(t, err, "no active cursor")
}

func TestCursorPool_CleanupExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	p := New(db, Options{IdleTimeout: time.Minute})
	now := time.Now()
	p.cursors["old"] = &CursorState{Key: "old", CursorName: "cur_old", LastUsed: now.Add(-2 * time.Minute), CreatedAt: now.Add(-2 * time.Minute)}
	p.cursors["fresh"] = &CursorState{Key: "fresh", CursorName: "cur_fresh", LastUsed: now, CreatedAt: now}

	p.cleanupTimeouts(now)

	_, ok := p.Cursor("old")
	assert.False(t, ok)
	_, ok = p.Cursor("fresh")
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func expectDeclare(mock sqlmock.Sqlmock, count int64) {
	mock.ExpectBegin()
	mock.ExpectExec(`DECLARE "cur_[0-9a-f]{8}" SCROLL CURSOR FOR SELECT id FROM users`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`MOVE FORWARD ALL FROM "cur_[0-9a-f]{8}"`).
		WillReturnResult(sqlmock.NewResult(0, count))
}

func TestCursorPool_AcquireReusesStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	p := New(db, Options{MaxCursors: 2})
	ctx := context.Background()

	expectDeclare(mock, 4)
	first, err := p.Acquire(ctx, "k", "SELECT id FROM users")
	require.NoError(t, err)

	again, err := p.Acquire(ctx, "k", "SELECT id FROM users")
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectRollback()
	expectDeclare(mock, 1)
	changed, err := p.Acquire(ctx, "k", "SELECT id FROM users", 7)
	require.NoError(t, err)
	assert.NotSame(t, first, changed)
	assert.Equal(t, 1, changed.Count)
	assert.Equal(t, 1, p.Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCursorPool_DeclareEvictsLeastRecentlyUsed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	p := New(db, Options{MaxCursors: 2})
	ctx := context.Background()

	expectDeclare(mock, 1)
	_, err = p.Declare(ctx, "a", "SELECT id FROM users")
	require.NoError(t, err)
	expectDeclare(mock, 1)
	_, err = p.Declare(ctx, "b", "SELECT id FROM users")
	require.NoError(t, err)

	a, _ := p.Cursor("a")
	a.LastUsed = time.Now().Add(time.Minute)

	mock.ExpectRollback()
	expectDeclare(mock, 1)
	_, err = p.Declare(ctx, "c", "SELECT id FROM users")
	require.NoError(t, err)

	assert.Equal(t, 2, p.Len())
	_, ok := p.Cursor("b")
	assert.False(t, ok)
	_, ok = p.Cursor("a")
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCursorPool_DeclareOutlivesRequestContext(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	p := New(db, Options{})
	ctx, cancel := context.WithCancel(context.Background())

	expectDeclare(mock, 2)
	_, err = p.Declare(ctx, "k", "SELECT id FROM users")
	require.NoError(t, err)
	cancel()

	mock.ExpectExec(`MOVE ABSOLUTE 0 FROM "cur_[0-9a-f]{8}"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FETCH FORWARD 1 FROM "cur_[0-9a-f]{8}"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	rows, err := p.Fetch(context.Background(), "k", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"id": int64(1)}}, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
