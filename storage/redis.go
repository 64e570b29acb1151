package storage

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "fieldsurvey:"

type redisBackend struct {
	client *redis.Client
}

// NewRedis stores values under "fieldsurvey:<key>" with no expiry.
func NewRedis(ctx context.Context, addr string) (Backend, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "storage: redis ping %s", addr)
	}
	return &redisBackend{client: client}, nil
}

func (b *redisBackend) Read(ctx context.Context, key string) ([]byte, error) {
	val, err := b.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return val, err
}

func (b *redisBackend) Write(ctx context.Context, key string, value []byte) error {
	return b.client.Set(ctx, redisKeyPrefix+key, value, 0).Err()
}

func (b *redisBackend) Close() error {
	return b.client.Close()
}
