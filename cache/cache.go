// Package cache persists a user's grid view state (sorts, filters and page)
// between the interactive request and the exports that replay it.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gnemet/gridview/errs"
	"github.com/gnemet/gridview/filter"
)

// ViewState is what the live grid showed, by column unique id.
type ViewState struct {
	Sorts       []filter.SortSpec `json:"sorts"`
	Filters     []filter.Spec     `json:"filters"`
	CurrentPage int               `json:"currentPage"`
}

// Store keeps view states by cache id. Backends are safe for concurrent use;
// the last writer wins.
type Store interface {
	Get(ctx context.Context, key string) (ViewState, bool, error)
	Set(ctx context.Context, key string, state ViewState) error
}

// ID derives the cache id of a grid within a session.
func ID(sessionID, gridID string) string {
	sum := md5.Sum([]byte(sessionID + "_" + gridID))
	return hex.EncodeToString(sum[:])
}

const (
	AdapterMemory     = "memory"
	AdapterFilesystem = "filesystem"
	AdapterRedis      = "redis"
)

type Config struct {
	Adapter  string        `yaml:"adapter" json:"adapter"`
	Dir      string        `yaml:"dir" json:"dir"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
	Address  string        `yaml:"address" json:"address"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
}

// New builds the store named by cfg.Adapter. Empty means memory.
func New(cfg Config, log *slog.Logger) (Store, error) {
	if log == nil {
		log = slog.Default()
	}
	switch strings.ToLower(cfg.Adapter) {
	case "", AdapterMemory:
		return NewMemory(cfg.TTL), nil
	case AdapterFilesystem, "file":
		if cfg.Dir == "" {
			return nil, errs.Configuration("cache.New", "filesystem cache needs a dir")
		}
		return NewFilesystem(cfg.Dir, cfg.TTL, log)
	case AdapterRedis:
		if cfg.Address == "" {
			return nil, errs.Configuration("cache.New", "redis cache needs an address")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		return NewRedis(client, cfg.Prefix, cfg.TTL), nil
	}
	return nil, errs.Configuration("cache.New", "unknown cache adapter %q", cfg.Adapter)
}

func encode(state ViewState) ([]byte, error) {
	return json.Marshal(state)
}

func decode(data []byte) (ViewState, error) {
	var state ViewState
	err := json.Unmarshal(data, &state)
	return state, err
}
