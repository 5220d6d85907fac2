package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entries are hashes holding the JSON payload under "data" and the version
// it was read at under "version".
const fieldData = "data"

// setIfNewer replaces the entry only when ARGV[1] is greater than the stored
// version, so a slow reader can never overwrite a snapshot written after a
// later commit.
var setIfNewer = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'version')
if current and tonumber(current) >= tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'version', ARGV[1], 'data', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// CacheService stores versioned JSON snapshots in Redis. The ledger only uses
// it for balance snapshots, never as a source of truth.
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// SetIfNewer stores value under key unless the entry already holds the same
// or a later version. It reports whether the value was written. A
// non-positive ttl uses the default.
func (s *CacheService) SetIfNewer(ctx context.Context, key string, value interface{}, version int64, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed to marshal cache value: %w", err)
	}
	written, err := setIfNewer.Run(ctx, s.client, []string{key}, version, data, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to set cache value: %w", err)
	}
	return written == 1, nil
}

// Get decodes the value stored under key into dest. A miss reports false
// with a nil error.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.HGet(ctx, key, fieldData).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	return s.client.Close()
}
