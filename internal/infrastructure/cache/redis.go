package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore is a Store backed by Redis. Backend errors are logged and
// reported to callers as cache misses.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger

	hits   int64
	misses int64
}

// NewRedisStore creates a RedisStore using the given client.
func NewRedisStore(client *redis.Client, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, logger: logger}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	payload, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("redis cache get failed", zap.String("key", key), zap.Error(err))
		}
		atomic.AddInt64(&s.misses, 1)
		return nil, false
	}
	atomic.AddInt64(&s.hits, 1)
	return payload, true
}

func (s *RedisStore) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		s.logger.Warn("redis cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn("redis cache delete failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// FlushAll drops all cached entries. The client is expected to point at a
// dedicated cache database, so this flushes the whole DB.
func (s *RedisStore) FlushAll(ctx context.Context) {
	if err := s.client.FlushDB(ctx).Err(); err != nil {
		s.logger.Warn("redis cache flush failed", zap.Error(err))
	}
}

// GetStats returns the client-side hit/miss counters. Size is not tracked
// for the Redis backend.
func (s *RedisStore) GetStats() Stats {
	return Stats{
		Hits:   atomic.LoadInt64(&s.hits),
		Misses: atomic.LoadInt64(&s.misses),
	}
}

func (s *RedisStore) Close() error {
	return nil
}
