package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

const menuCacheKey = "menu:active"

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
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

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetMenu retrieves the cached composed menu. The second return value is
// false on a cache miss.
func (c *Client) GetMenu(ctx context.Context) ([]byte, bool, error) {
	payload, err := c.rdb.Get(ctx, menuCacheKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// SetMenu caches the composed menu with a TTL
func (c *Client) SetMenu(ctx context.Context, payload []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, menuCacheKey, payload, ttl).Err()
}

// InvalidateMenu drops the cached menu; called on every catalog mutation
func (c *Client) InvalidateMenu(ctx context.Context) error {
	return c.rdb.Del(ctx, menuCacheKey).Err()
}

func dailyKey(day string) string {
	return fmt.Sprintf("daily:%s", day)
}

// IncrementDailySales adds a recorded transaction to the live daily
// aggregates used by the dashboard
func (c *Client) IncrementDailySales(ctx context.Context, day string, total decimal.Decimal) error {
	key := dailyKey(day)

	pipe := c.rdb.Pipeline()
	pipe.HIncrByFloat(ctx, key, "total_sales", total.InexactFloat64())
	pipe.HIncrBy(ctx, key, "total_transactions", 1)
	pipe.Expire(ctx, key, 48*time.Hour)

	_, err := pipe.Exec(ctx)
	return err
}

// GetDailySales retrieves the live aggregates for a day. Missing keys read
// as zero.
func (c *Client) GetDailySales(ctx context.Context, day string) (decimal.Decimal, int64, error) {
	result, err := c.rdb.HGetAll(ctx, dailyKey(day)).Result()
	if err != nil {
		return decimal.Zero, 0, err
	}
	if len(result) == 0 {
		return decimal.Zero, 0, nil
	}

	sales, err := decimal.NewFromString(result["total_sales"])
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("corrupt daily sales value: %w", err)
	}

	var count int64
	fmt.Sscanf(result["total_transactions"], "%d", &count)

	return sales, count, nil
}

// ResetDailySales clears the live aggregates after a day is closed
func (c *Client) ResetDailySales(ctx context.Context, day string) error {
	return c.rdb.Del(ctx, dailyKey(day)).Err()
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}
