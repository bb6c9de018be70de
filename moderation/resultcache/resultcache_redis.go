package resultcache

import (
	"context"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps results in redis with a small in-process TinyLFU layer in
// front. Size bounding is delegated to the redis deployment (TTL plus
// maxmemory policy), so there is no eviction logic here.
type RedisStore[T any] struct {
	Data *cache.Cache
	TTL  time.Duration
}

var _ Store[string] = (*RedisStore[string])(nil)

func NewRedisStore[T any](redisURL string, ttl time.Duration) (*RedisStore[T], error) {
	ctx := context.Background()
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, err
	}
	data := cache.New(&cache.Options{
		Redis:      rdb,
		LocalCache: cache.NewTinyLFU(10_000, ttl),
	})
	return &RedisStore[T]{Data: data, TTL: ttl}, nil
}

func redisKey(fingerprint string) string {
	return "moderation/result/" + fingerprint
}

func (s *RedisStore[T]) Get(ctx context.Context, fingerprint string) (T, bool, error) {
	var val T
	err := s.Data.Get(ctx, redisKey(fingerprint), &val)
	if err == cache.ErrCacheMiss {
		return val, false, nil
	}
	if err != nil {
		return val, false, err
	}
	return val, true, nil
}

func (s *RedisStore[T]) Put(ctx context.Context, fingerprint string, val T) error {
	return s.Data.Set(&cache.Item{
		Ctx:   ctx,
		Key:   redisKey(fingerprint),
		Value: val,
		TTL:   s.TTL,
	})
}

func (s *RedisStore[T]) Purge(ctx context.Context, fingerprint string) error {
	err := s.Data.Delete(ctx, redisKey(fingerprint))
	if err == cache.ErrCacheMiss {
		return nil
	}
	return err
}
