package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/aether-storefront/pkg/config"
	"github.com/angelmondragon/aether-storefront/pkg/kv"
	"github.com/angelmondragon/aether-storefront/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	keyNamespace = "aether"
	kvPrefix     = "kv"
	scanCount    = 200
)

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Exists(context.Context, ...string) *redis.IntCmd
	Del(context.Context, ...string) *redis.IntCmd
	Scan(context.Context, uint64, string, int64) *redis.ScanCmd
}

// Client wraps the redis connection and exposes it as a kv.Store.
type Client struct {
	store cmdable
	raw   *redis.Client
}

var _ kv.Store = (*Client)(nil)

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(context.Context) error
}

// New bootstraps a Redis client with pooling/timeouts and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if logg != nil {
		logg.Info(ctx, "redis connection established")
	}
	return &Client{store: raw, raw: raw}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if opts.DB == 0 {
		opts.DB = cfg.DB
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.MinIdleConns == 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

// Get returns the raw value stored at key or kv.ErrNotFound.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if c.store == nil {
		return nil, errors.New("redis client not initialized")
	}
	val, err := c.store.Get(ctx, c.KVKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, kv.ErrNotFound
	}
	return val, err
}

// Set stores value at key without expiry.
func (c *Client) Set(ctx context.Context, key string, value []byte) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.Set(ctx, c.KVKey(key), value, 0).Err()
}

// Remove deletes key; missing keys are not an error.
func (c *Client) Remove(ctx context.Context, key string) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.Del(ctx, c.KVKey(key)).Err()
}

// Has reports whether key holds a value.
func (c *Client) Has(ctx context.Context, key string) (bool, error) {
	if c.store == nil {
		return false, errors.New("redis client not initialized")
	}
	n, err := c.store.Exists(ctx, c.KVKey(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListKeysByPrefix walks the keyspace with SCAN and returns matching keys without the namespace.
func (c *Client) ListKeysByPrefix(ctx context.Context, prefix string) ([]string, error) {
	if c.store == nil {
		return nil, errors.New("redis client not initialized")
	}
	ns := c.KVKey("")
	match := ns + escapeGlob(prefix) + "*"
	seen := map[string]struct{}{}
	keys := []string{}
	var cursor uint64
	for {
		batch, next, err := c.store.Scan(ctx, cursor, match, scanCount).Result()
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", match, err)
		}
		for _, key := range batch {
			trimmed := strings.TrimPrefix(key, ns)
			if _, dup := seen[trimmed]; dup {
				continue
			}
			seen[trimmed] = struct{}{}
			keys = append(keys, trimmed)
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	return keys, nil
}

// KVKey returns the namespaced redis key backing a kv entry.
func (c *Client) KVKey(key string) string {
	return c.buildKey(kvPrefix) + ":" + key
}

// Ping verifies the connection.
func (c *Client) Ping(ctx context.Context) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.Ping(ctx).Err()
}

// Close shuts down the underlying client if available.
func (c *Client) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func (c *Client) buildKey(parts ...string) string {
	if len(parts) == 0 {
		return keyNamespace
	}
	clean := []string{keyNamespace}
	for _, part := range parts {
		if part == "" {
			continue
		}
		clean = append(clean, strings.TrimSpace(part))
	}
	return strings.Join(clean, ":")
}

func escapeGlob(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return replacer.Replace(s)
}
