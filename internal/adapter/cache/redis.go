package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-route/internal/ports"
)

type RedisCache struct {
	client *redis.Client
	prefix string
	log    *zap.Logger
}

// RedisOptions tunes the client built from the URL
type RedisOptions struct {
	KeyPrefix    string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func NewRedisCache(url string, opts RedisOptions, log *zap.Logger) (ports.Cache, error) {
	ropts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if opts.PoolSize > 0 {
		ropts.PoolSize = opts.PoolSize
	}
	if opts.MinIdleConns > 0 {
		ropts.MinIdleConns = opts.MinIdleConns
	}
	if opts.DialTimeout > 0 {
		ropts.DialTimeout = opts.DialTimeout
	}
	if opts.ReadTimeout > 0 {
		ropts.ReadTimeout = opts.ReadTimeout
	}
	if opts.WriteTimeout > 0 {
		ropts.WriteTimeout = opts.WriteTimeout
	}

	client := redis.NewClient(ropts)

	// Ping to verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("Successfully connected to Redis", zap.String("key_prefix", opts.KeyPrefix))
	return &RedisCache{
		client: client,
		prefix: opts.KeyPrefix,
		log:    log,
	}, nil
}

// Client exposes the underlying client for health checks
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%w: %s", ErrMiss, key)
	}
	return val, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	strVal, err := encode(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, strVal, expiration).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}

func (c *RedisCache) Ping() error {
	return c.client.Ping(context.Background()).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
