package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Redis keeps states as JSON strings under prefix+key.
type Redis struct {
	client redisClient
	prefix string
	ttl    time.Duration
}

func NewRedis(client redisClient, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) (ViewState, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ViewState{}, false, nil
	}
	if err != nil {
		return ViewState{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	state, err := decode(data)
	if err != nil {
		return ViewState{}, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return state, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, state ViewState) error {
	data, err := encode(state)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.prefix+key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
