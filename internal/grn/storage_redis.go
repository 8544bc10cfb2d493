package grn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps values under "grn:<scope>:<key>". Tab-scoped entries get
// a TTL so abandoned tabs expire on their own.
type RedisStorage struct {
	rdb   *redis.Client
	scope string
	ttl   time.Duration
}

// NewRedisClient connects using the redis settings of config
func NewRedisClient(ctx context.Context, config *Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("cannot reach redis at %s: %w", config.RedisAddr, err)
	}
	return rdb, nil
}

func NewRedisStorage(rdb *redis.Client, scope string, ttl time.Duration) *RedisStorage {
	return &RedisStorage{rdb: rdb, scope: scope, ttl: ttl}
}

func (s *RedisStorage) key(key string) string {
	return "grn:" + s.scope + ":" + key
}

func (s *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *RedisStorage) Set(ctx context.Context, key, value string) error {
	return s.rdb.Set(ctx, s.key(key), value, s.ttl).Err()
}

func (s *RedisStorage) Remove(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.key(key)).Err()
}
