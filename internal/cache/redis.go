package cache

import (
	"context"
	"errors"

	"github.com/pixil98/mudsync/internal/game"
	"github.com/redis/go-redis/v9"
)

// Redis is a FieldStore backed by Redis hashes.
type Redis struct {
	client redis.UniversalClient
}

// NewRedis wraps an existing client.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// DialRedis connects to a single Redis server and checks it responds.
func DialRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, game.Unavailable("ping redis "+addr, err)
	}
	return NewRedis(client), nil
}

func (r *Redis) HGet(ctx context.Context, key, field string) (string, bool, error) {
	v, err := r.client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, game.Unavailable("hget "+key, err)
	}
	return v, true, nil
}

// HSet writes fields with a single HSET, which Redis applies atomically.
func (r *Redis) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	args := make([]any, 0, 2*len(fields))
	for f, v := range fields {
		args = append(args, f, v)
	}
	if err := r.client.HSet(ctx, key, args...).Err(); err != nil {
		return game.Unavailable("hset "+key, err)
	}
	return nil
}

func (r *Redis) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	v, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, game.Unavailable("hgetall "+key, err)
	}
	return v, nil
}

func (r *Redis) Del(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return game.Unavailable("del "+key, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
