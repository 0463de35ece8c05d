package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xelth-com/eckreceive/internal/metrics"
)

const (
	cacheKeyPrefix = "receiving:lookup:"
	missMarker     = "-"
)

// KV is the key/value surface the lookup cache needs
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisKV adapts a go-redis client to KV
type RedisKV struct {
	rdb *redis.Client
}

// NewRedisKV connects to addr and pings it
func NewRedisKV(ctx context.Context, addr, password string, db int) (*RedisKV, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &RedisKV{rdb: rdb}, nil
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

// Close closes the redis connection
func (r *RedisKV) Close() error {
	return r.rdb.Close()
}

// CachedLookup remembers external lookup results, misses included. Cache
// failures fall back to the wrapped lookup.
type CachedLookup struct {
	next Lookup
	kv   KV
	ttl  time.Duration
	log  *zap.SugaredLogger
}

// NewCachedLookup wraps next with a cache
func NewCachedLookup(next Lookup, kv KV, ttl time.Duration, log *zap.SugaredLogger) *CachedLookup {
	return &CachedLookup{next: next, kv: kv, ttl: ttl, log: log}
}

func (c *CachedLookup) Lookup(ctx context.Context, barcode string) (*ExternalProduct, error) {
	key := cacheKeyPrefix + barcode

	if raw, ok, err := c.kv.Get(ctx, key); err != nil {
		c.log.Warnw("lookup cache read failed", "barcode", barcode, "error", err)
	} else if ok {
		metrics.LookupCache.WithLabelValues("hit").Inc()
		if raw == missMarker {
			return nil, nil
		}
		var p ExternalProduct
		if err := json.Unmarshal([]byte(raw), &p); err == nil {
			return &p, nil
		}
	}
	metrics.LookupCache.WithLabelValues("miss").Inc()

	p, err := c.next.Lookup(ctx, barcode)
	if err != nil {
		return nil, err
	}

	value := missMarker
	if p != nil {
		data, err := json.Marshal(p)
		if err != nil {
			return p, nil
		}
		value = string(data)
	}
	if err := c.kv.Set(ctx, key, value, c.ttl); err != nil {
		c.log.Warnw("lookup cache write failed", "barcode", barcode, "error", err)
	}
	return p, nil
}
