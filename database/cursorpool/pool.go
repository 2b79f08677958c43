// Package cursorpool keeps PostgreSQL scroll cursors open across requests so
// a grid can page through a large result without re-running its query.
package cursorpool

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const defaultCleanupInterval = 30 * time.Second

// CursorState is one declared cursor and the transaction holding it open.
type CursorState struct {
	Key        string
	CursorName string
	Conn       *sql.Conn
	Tx         *sql.Tx
	CreatedAt  time.Time
	LastUsed   time.Time
	Query      string
	Args       []any
	Count      int
	sync.Mutex
}

type Options struct {
	MaxCursors      int
	IdleTimeout     time.Duration
	AbsTimeout      time.Duration
	CleanupInterval time.Duration
	Logger          *slog.Logger
}

// CursorPool manages cursors by caller chosen key.
type CursorPool struct {
	db      *sql.DB
	opts    Options
	log     *slog.Logger
	cursors map[string]*CursorState
	mu      sync.Mutex

	cleanupStop chan struct{}
	closeOnce   sync.Once
}

// Open connects to PostgreSQL, tunes the connection pool and starts the
// expiry routine.
func Open(ctx context.Context, connStr string, maxConns int, idleTimeout, absTimeout time.Duration) (*CursorPool, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns / 2)
	db.SetConnMaxLifetime(absTimeout)
	db.SetConnMaxIdleTime(idleTimeout)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return New(db, Options{
		MaxCursors:      maxConns, // one cursor per connection, least recently used is evicted
		IdleTimeout:     idleTimeout,
		AbsTimeout:      absTimeout,
		CleanupInterval: defaultCleanupInterval,
	}), nil
}

// New wraps an open database. Expired cursors are only swept when
// CleanupInterval is set.
func New(db *sql.DB, opts Options) *CursorPool {
	p := &CursorPool{
		db:      db,
		opts:    opts,
		log:     opts.Logger,
		cursors: make(map[string]*CursorState),
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	if opts.CleanupInterval > 0 {
		p.cleanupStop = make(chan struct{})
		p.startCleanupRoutine(opts.CleanupInterval)
	}
	return p
}

// Close releases every cursor and closes the database.
func (p *CursorPool) Close() error {
	p.closeOnce.Do(func() {
		if p.cleanupStop != nil {
			close(p.cleanupStop)
		}
		p.mu.Lock()
		for key, state := range p.cursors {
			p.removeCursor(key, state)
		}
		p.mu.Unlock()
	})
	return p.db.Close()
}

func (p *CursorPool) startCleanupRoutine(every time.Duration) {
	ticker := time.NewTicker(every)
	go func() {
		for {
			select {
			case <-ticker.C:
				p.cleanupTimeouts(time.Now())
			case <-p.cleanupStop:
				ticker.Stop()
				return
			}
		}
	}()
}

func (p *CursorPool) cleanupTimeouts(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for key, state := range p.cursors {
		state.Lock()
		if p.expired(state, now) {
			p.log.Info("cleaning up expired cursor", "cursor", state.CursorName, "key", key)
			p.removeCursor(key, state)
		}
		state.Unlock()
	}
}

func (p *CursorPool) expired(state *CursorState, now time.Time) bool {
	if p.opts.AbsTimeout > 0 && now.Sub(state.CreatedAt) > p.opts.AbsTimeout {
		return true
	}
	return p.opts.IdleTimeout > 0 && now.Sub(state.LastUsed) > p.opts.IdleTimeout
}

func (p *CursorPool) removeCursor(key string, state *CursorState) {
	if state.Tx != nil {
		_ = state.Tx.Rollback()
	}
	if state.Conn != nil {
		_ = state.Conn.Close()
	}
	delete(p.cursors, key)
}

// Len is the number of open cursors.
func (p *CursorPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cursors)
}

// Acquire returns the cursor held under key when it was declared for the
// same query and args and has not expired. Otherwise a new cursor is declared.
func (p *CursorPool) Acquire(ctx context.Context, key, query string, args ...any) (*CursorState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if state, ok := p.cursors[key]; ok {
		state.Lock()
		now := time.Now()
		if state.Query == query && sameArgs(state.Args, args) && !p.expired(state, now) {
			state.LastUsed = now
			state.Unlock()
			p.log.Debug("reusing cursor", "cursor", state.CursorName, "key", key)
			return state, nil
		}
		state.Unlock()
	}
	return p.declare(ctx, key, query, args)
}

// Declare opens a scroll cursor for query under key and counts its rows.
// A cursor already held under key is replaced. When the pool is full the
// least recently used cursor is closed to make room.
//
// The cursor's transaction is not bound to ctx's cancellation: it has to
// outlive the request that declared it. Release, expiry or eviction end it.
func (p *CursorPool) Declare(ctx context.Context, key, query string, args ...any) (*CursorState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.declare(ctx, key, query, args)
}

func (p *CursorPool) declare(ctx context.Context, key, query string, args []any) (*CursorState, error) {
	if state, ok := p.cursors[key]; ok {
		state.Lock()
		p.removeCursor(key, state)
		state.Unlock()
	}

	if p.opts.MaxCursors > 0 {
		for len(p.cursors) >= p.opts.MaxCursors {
			p.evictOldest()
		}
	}

	txCtx := context.WithoutCancel(ctx)
	conn, err := p.db.Conn(txCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}

	tx, err := conn.BeginTx(txCtx, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}

	cursorName := "cur_" + uuid.New().String()[:8]
	fail := func(step string, err error) (*CursorState, error) {
		_ = tx.Rollback()
		conn.Close()
		return nil, fmt.Errorf("failed to %s cursor: %w", step, err)
	}

	declareSQL := fmt.Sprintf("DECLARE %s SCROLL CURSOR FOR %s", pq.QuoteIdentifier(cursorName), query)
	if _, err := tx.ExecContext(ctx, declareSQL, args...); err != nil {
		return fail("declare", err)
	}

	res, err := tx.ExecContext(ctx, BuildCountQuery(cursorName))
	if err != nil {
		return fail("count", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return fail("count", err)
	}

	now := time.Now()
	state := &CursorState{
		Key:        key,
		CursorName: cursorName,
		Conn:       conn,
		Tx:         tx,
		CreatedAt:  now,
		LastUsed:   now,
		Query:      query,
		Args:       args,
		Count:      int(count),
	}
	p.cursors[key] = state
	p.log.Debug("declared cursor", "cursor", cursorName, "key", key, "rows", count)
	return state, nil
}

// evictOldest closes the least recently used cursor. p.mu must be held.
func (p *CursorPool) evictOldest() {
	var (
		oldestKey string
		oldest    *CursorState
		lastUsed  time.Time
	)
	for key, state := range p.cursors {
		state.Lock()
		used := state.LastUsed
		state.Unlock()
		if oldest == nil || used.Before(lastUsed) {
			oldestKey, oldest, lastUsed = key, state, used
		}
	}
	if oldest == nil {
		return
	}
	p.log.Info("evicting least recently used cursor", "cursor", oldest.CursorName, "key", oldestKey)
	oldest.Lock()
	p.removeCursor(oldestKey, oldest)
	oldest.Unlock()
}

func sameArgs(a, b []any) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// Cursor returns the state held under key.
func (p *CursorPool) Cursor(key string) (*CursorState, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	state, ok := p.cursors[key]
	return state, ok
}

// Release closes the cursor held under key, if any.
func (p *CursorPool) Release(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if state, ok := p.cursors[key]; ok {
		state.Lock()
		p.removeCursor(key, state)
		state.Unlock()
	}
}

// BuildCountQuery moves past the last row; the command tag carries the count.
func BuildCountQuery(cursorName string) string {
	return fmt.Sprintf("MOVE FORWARD ALL FROM %s", pq.QuoteIdentifier(cursorName))
}

// BuildMoveQuery positions the cursor so the next fetch returns row offset+1.
func BuildMoveQuery(cursorName string, offset int) string {
	return fmt.Sprintf("MOVE ABSOLUTE %d FROM %s", offset, pq.QuoteIdentifier(cursorName))
}

// BuildFetchQuery fetches limit rows, or all remaining rows when limit is negative.
func BuildFetchQuery(cursorName string, limit int) string {
	if limit < 0 {
		return fmt.Sprintf("FETCH FORWARD ALL FROM %s", pq.QuoteIdentifier(cursorName))
	}
	return fmt.Sprintf("FETCH FORWARD %d FROM %s", limit, pq.QuoteIdentifier(cursorName))
}

// Fetch reads limit rows starting at offset from the cursor held under key.
func (p *CursorPool) Fetch(ctx context.Context, key string, offset, limit int) ([]map[string]any, error) {
	state, ok := p.Cursor(key)
	if !ok {
		return nil, fmt.Errorf("no active cursor for key %s", key)
	}

	state.Lock()
	defer state.Unlock()
	state.LastUsed = time.Now()

	if _, err := state.Tx.ExecContext(ctx, BuildMoveQuery(state.CursorName, offset)); err != nil {
		return nil, fmt.Errorf("move failed: %w", err)
	}
	rows, err := state.Tx.QueryContext(ctx, BuildFetchQuery(state.CursorName, limit))
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer rows.Close()

	return ScanRows(rows)
}

// ScanRows reads every row into a map keyed by column name. Byte slices
// become strings.
func ScanRows(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		pointers := make([]any, len(cols))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
