package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"semisto-service/internal/cart"
	"semisto-service/internal/workflow"
)

// ErrNotFound is returned when a key is absent or expired
var ErrNotFound = errors.New("key not found")

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client and checks connectivity
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Wrap uses an existing connection
func Wrap(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the connection, used by readiness probes
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func cartKey(id string) string {
	return fmt.Sprintf("cart:%s", id)
}

func runKey(id string) string {
	return fmt.Sprintf("workflow:%s", id)
}

// getJSON reads and decodes key. A positive ttl slides the expiry.
func (c *Client) getJSON(ctx context.Context, key string, ttl time.Duration, dest interface{}) error {
	var (
		raw []byte
		err error
	)
	if ttl > 0 {
		raw, err = c.rdb.GetEx(ctx, key, ttl).Bytes()
	} else {
		raw, err = c.rdb.Get(ctx, key).Bytes()
	}
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (c *Client) setJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return c.rdb.Set(ctx, key, raw, ttl).Err()
}

// GetCart loads a cart and refreshes its expiry
func (c *Client) GetCart(ctx context.Context, id string, ttl time.Duration) (*cart.Cart, error) {
	var crt cart.Cart
	if err := c.getJSON(ctx, cartKey(id), ttl, &crt); err != nil {
		return nil, err
	}
	return &crt, nil
}

func (c *Client) SaveCart(ctx context.Context, crt *cart.Cart, ttl time.Duration) error {
	return c.setJSON(ctx, cartKey(crt.ID), crt, ttl)
}

func (c *Client) DeleteCart(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, cartKey(id)).Err()
}

// GetRun loads a workflow run
func (c *Client) GetRun(ctx context.Context, id string) (*workflow.Run, error) {
	var run workflow.Run
	if err := c.getJSON(ctx, runKey(id), 0, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *Client) SaveRun(ctx context.Context, run *workflow.Run, ttl time.Duration) error {
	return c.setJSON(ctx, runKey(run.ID), run, ttl)
}

// SetIdempotencyKey stores an idempotency key with TTL
func (c *Client) SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", key), value, ttl).Err()
}

// GetIdempotencyKey returns the stored value, or ErrNotFound
func (c *Client) GetIdempotencyKey(ctx context.Context, key string) (string, error) {
	v, err := c.rdb.Get(ctx, fmt.Sprintf("idempotency:%s", key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}
