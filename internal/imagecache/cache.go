// Package imagecache stores rendered map images keyed by their static map URL.
package imagecache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	maintnotifications "github.com/redis/go-redis/v9/maintnotifications"

	"github.com/valpere/boundary_staticmap/internal"
	"github.com/valpere/boundary_staticmap/internal/config"
)

const (
	DriverNone   = "none"
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Cache is a byte store for rendered images. Get reports a miss with ok=false.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
	Close() error
}

// Key derives a fixed-size cache key from a static map URL
func Key(url string) string {
	return fmt.Sprintf("img:%016x", xxhash.Sum64String(url))
}

// New selects the cache driver named by the configuration
func New(ctx context.Context, cfg config.CacheConfig) (Cache, error) {
	switch cfg.Driver {
	case "", DriverNone:
		return None{}, nil
	case DriverMemory:
		return NewMemory(cfg.Size)
	case DriverRedis:
		return NewRedis(ctx, cfg.RedisAddr, cfg.TTL)
	default:
		return nil, internal.NewError(internal.ErrorCodeConfig, fmt.Sprintf("unknown cache driver %q", cfg.Driver), nil)
	}
}

// None never stores anything
type None struct{}

func (None) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (None) Set(context.Context, string, []byte) error         { return nil }
func (None) Close() error                                       { return nil }

// Memory is an in-process LRU cache
type Memory struct {
	lru *lru.Cache[string, []byte]
}

func NewMemory(size int) (*Memory, error) {
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("lru init: %w", err)
	}
	return &Memory{lru: c}, nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.lru.Get(key)
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, val []byte) error {
	m.lru.Add(key, val)
	return nil
}

func (m *Memory) Close() error {
	m.lru.Purge()
	return nil
}

// Len reports the number of cached images
func (m *Memory) Len() int { return m.lru.Len() }

// Redis shares rendered images across processes
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(ctx context.Context, addr string, ttl time.Duration) (*Redis, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		PoolSize:     16,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Redis{rdb: rdb, ttl: ttl}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis GET %q: %w", key, err)
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, val []byte) error {
	if err := r.rdb.Set(ctx, key, val, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %q: %w", key, err)
	}
	return nil
}

func (r *Redis) Close() error {
	if err := r.rdb.Close(); err != nil {
		return fmt.Errorf("redis close: %w", err)
	}
	return nil
}
