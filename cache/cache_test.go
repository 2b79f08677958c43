package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnemet/gridview/errs"
	"github.com/gnemet/gridview/filter"
)

var sampleState = ViewState{
	Sorts:       []filter.SortSpec{{Column: "name", Direction: filter.Desc}},
	Filters:     []filter.Spec{{Column: "status", Operator: filter.Equal, Values: []string{"1"}}},
	CurrentPage: 3,
}

func TestID(t *testing.T) {
	assert.Equal(t, "416224777d7b59129b10410c0326ddd9", ID("sess123", "usersGrid"))
	assert.NotEqual(t, ID("a", "b_c"), ID("a", "bc"))
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", sampleState))
	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sampleState, got)

	now = now.Add(2 * time.Minute)
	_, ok, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_LastWriterWins(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)

	require.NoError(t, m.Set(ctx, "k", ViewState{CurrentPage: 1}))
	require.NoError(t, m.Set(ctx, "k", ViewState{CurrentPage: 2}))

	got, _, _ := m.Get(ctx, "k")
	assert.Equal(t, 2, got.CurrentPage)
}

func TestFilesystem(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	f, err := NewFilesystem(dir, time.Hour, nil)
	require.NoError(t, err)

	_, ok, err := f.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.Set(ctx, "k", sampleState))

	other, err := NewFilesystem(dir, time.Hour, nil)
	require.NoError(t, err)
	got, ok, err := other.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sampleState, got)

	other.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, ok, err = other.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

type mockRedisClient struct {
	data     map[string]string
	errOnSet bool
	lastTTL  time.Duration
}

func (m *mockRedisClient) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockRedisClient) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	if m.errOnSet {
		return redis.NewStatusResult("", errors.New("READONLY"))
	}
	m.data[key] = string(value.([]byte))
	m.lastTTL = ttl
	return redis.NewStatusResult("OK", nil)
}

func TestRedis(t *testing.T) {
	ctx := context.Background()
	client := &mockRedisClient{data: map[string]string{}}
	r := NewRedis(client, "grid:", 10*time.Minute)

	_, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "k", sampleState))
	assert.Contains(t, client.data, "grid:k")
	assert.Equal(t, 10*time.Minute, client.lastTTL)

	got, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sampleState, got)

	client.errOnSet = true
	assert.ErrorContains(t, r.Set(ctx, "k", sampleState), "READONLY")
}

func TestNew(t *testing.T) {
	tests := map[string]struct {
		cfg     Config
		want    any
		wantErr bool
	}{
		"default":           {cfg: Config{}, want: &Memory{}},
		"memory":            {cfg: Config{Adapter: "Memory"}, want: &Memory{}},
		"filesystem":        {cfg: Config{Adapter: "filesystem", Dir: t.TempDir()}, want: &Filesystem{}},
		"filesystem no dir": {cfg: Config{Adapter: "filesystem"}, wantErr: true},
		"redis":             {cfg: Config{Adapter: "redis", Address: "127.0.0.1:6379"}, want: &Redis{}},
		"redis no address":  {cfg: Config{Adapter: "redis"}, wantErr: true},
		"unknown":           {cfg: Config{Adapter: "memcached"}, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			s, err := New(tc.cfg, nil)
			if tc.wantErr {
				assert.ErrorIs(t, err, errs.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tc.want, s)
		})
	}
}
