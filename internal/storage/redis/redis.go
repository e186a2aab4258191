// Package redis keeps the bot's short-lived shared state: analytics
// snapshots, rate-limit windows and pending conversation steps.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrCacheMiss is returned by the getters when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

const connectTimeout = 5 * time.Second

type Cache struct {
	client *redis.Client
	logger *zap.Logger
}

// New connects to addr and fails if the server does not answer a PING.
func New(addr, password string, db int, logger *zap.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  connectTimeout,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}

	logger.Info("connected to redis", zap.String("addr", addr), zap.Int("db", db))

	return NewWithClient(client, logger), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, logger *zap.Logger) *Cache {
	return &Cache{client: client, logger: logger}
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// Set stores value as JSON with the given TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.write(ctx, "set", key, data, ttl)
}

// Get decodes the JSON stored at key into dest.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, err := c.read(ctx, "get", key)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (c *Cache) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.write(ctx, "set string", key, value, ttl)
}

func (c *Cache) GetString(ctx context.Context, key string) (string, error) {
	return c.read(ctx, "get string", key)
}

// GetInt returns 0 for a missing key.
func (c *Cache) GetInt(ctx context.Context, key string) (int64, error) {
	raw, err := c.read(ctx, "get int", key)
	if errors.Is(err, ErrCacheMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse counter %s: %w", key, err)
	}
	return n, nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return c.failed("delete", key, err)
	}
	return nil
}

// IncrementWithExpiry bumps a fixed-window counter. The TTL is set when the
// window opens and is not extended by later increments. A counter left
// without a TTL is given one on its next increment.
func (c *Cache) IncrementWithExpiry(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var (
		incr   *redis.IntCmd
		expiry *redis.DurationCmd
	)

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		expiry = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, c.failed("increment", key, err)
	}

	// TTL reports a negative duration for a key without expiry
	if incr.Val() == 1 || expiry.Val() < 0 {
		if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, c.failed("expire", key, err)
		}
	}

	return incr.Val(), nil
}

func (c *Cache) write(ctx context.Context, op, key string, value interface{}, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return c.failed(op, key, err)
	}
	return nil
}

func (c *Cache) read(ctx context.Context, op, key string) (string, error) {
	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", c.failed(op, key, err)
	}
	return value, nil
}

func (c *Cache) failed(op, key string, err error) error {
	c.logger.Error("redis "+op+" failed",
		zap.String("key", key),
		zap.Error(err),
	)
	return fmt.Errorf("redis %s %s: %w", op, key, err)
}
