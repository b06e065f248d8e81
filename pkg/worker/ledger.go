package worker

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Ledger guards a task key while a handler runs so concurrent duplicates
// are dropped. Handlers stay responsible for skipping already-done work.
type Ledger interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type RedisLedger struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisLedger stores keys as "{prefix}{key}". The ttl bounds how long a
// crashed worker can hold a key.
func NewRedisLedger(rdb *redis.Client, prefix string, ttl time.Duration) *RedisLedger {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisLedger{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (l *RedisLedger) Acquire(ctx context.Context, key string) (bool, error) {
	return l.rdb.SetNX(ctx, l.prefix+key, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
}

func (l *RedisLedger) Release(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, l.prefix+key).Err()
}

type MemoryLedger struct {
	entries *cache.Cache
	ttl     time.Duration
}

func NewMemoryLedger(ttl time.Duration) *MemoryLedger {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MemoryLedger{entries: cache.New(ttl, 2*ttl), ttl: ttl}
}

// Acquire relies on cache.Add failing for a live key.
func (l *MemoryLedger) Acquire(ctx context.Context, key string) (bool, error) {
	return l.entries.Add(key, struct{}{}, l.ttl) == nil, nil
}

func (l *MemoryLedger) Release(ctx context.Context, key string) error {
	l.entries.Delete(key)
	return nil
}
