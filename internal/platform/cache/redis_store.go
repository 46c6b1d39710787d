package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/redis/go-redis/v9"

	"fxchart_backend/internal/feature/marketdata/domain/entity"
)

// DefaultNamespace prefixes every Redis key written by RedisStore.
const DefaultNamespace = "candles"

// scanBatch is the COUNT hint passed to SCAN when clearing.
const scanBatch = 200

// RedisStore keeps entries in Redis as JSON, without expiry, so replicas can share one cache.
type RedisStore struct {
	rdb       redis.UniversalClient
	namespace string
}

// NewRedisStore creates a RedisStore. If namespace is empty, it uses "candles".
func NewRedisStore(rdb redis.UniversalClient, namespace string) *RedisStore {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &RedisStore{rdb: rdb, namespace: namespace}
}

// Get returns (nil, false, nil) on a missing key. A corrupted entry is deleted and reported as a miss.
func (s *RedisStore) Get(ctx context.Context, key entity.FetchKey) ([]entity.Candle, bool, error) {
	k := s.key(key)
	b, err := s.rdb.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", k, err)
	}

	var out []entity.Candle
	if err := json.Unmarshal(b, &out); err != nil {
		// Drop the corrupt entry so the next fetch rewrites it.
		if delErr := s.rdb.Del(ctx, k).Err(); delErr != nil {
			return nil, false, fmt.Errorf("redis del corrupt entry %s: %w", k, delErr)
		}
		return nil, false, nil
	}
	return out, true, nil
}

// Put writes the series with no TTL.
func (s *RedisStore) Put(ctx context.Context, key entity.FetchKey, candles []entity.Candle) error {
	b, err := json.Marshal(candles)
	if err != nil {
		return fmt.Errorf("encode candles: %w", err)
	}
	k := s.key(key)
	if err := s.rdb.Set(ctx, k, b, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", k, err)
	}
	return nil
}

// Clear deletes every key under the namespace.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.deleteByPattern(ctx, s.namespace+":*")
}

// key generates the Redis key for a FetchKey. Fields are query-escaped, which escapes ':'
// and '*', so distinct keys never collide and never act as SCAN wildcards.
func (s *RedisStore) key(k entity.FetchKey) string {
	return fmt.Sprintf("%s:%s:%s:%d", s.namespace, url.QueryEscape(k.Instrument), url.QueryEscape(k.Granularity), k.Count)
}

// deleteByPattern deletes all keys matching a given pattern using SCAN.
func (s *RedisStore) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := s.rdb.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
		}
		cursor = cur
		if cursor == 0 {
			return nil
		}
	}
}
