// AngelaMos | 2026
// cart.go

package storefront

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coachforge/platform/internal/core"
)

// Cart holds item quantities per user.
type Cart interface {
	Lines(ctx context.Context, userID string) (map[string]int, error)
	SetQuantity(ctx context.Context, userID, itemID string, quantity int) error
	Remove(ctx context.Context, userID, itemID string) error
	Clear(ctx context.Context, userID string) error
}

// RedisCart keeps each cart in a hash of item id to quantity. Every write
// refreshes the TTL, so abandoned carts expire on their own.
type RedisCart struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCart(client *redis.Client, ttl time.Duration) *RedisCart {
	return &RedisCart{client: client, prefix: core.Key("cart") + ":", ttl: ttl}
}

func (c *RedisCart) key(userID string) string {
	return c.prefix + userID
}

func (c *RedisCart) Lines(ctx context.Context, userID string) (map[string]int, error) {
	raw, err := c.client.HGetAll(ctx, c.key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}

	lines := make(map[string]int, len(raw))
	for itemID, v := range raw {
		qty, err := strconv.Atoi(v)
		if err != nil || qty <= 0 {
			continue
		}
		lines[itemID] = qty
	}
	return lines, nil
}

func (c *RedisCart) SetQuantity(
	ctx context.Context,
	userID, itemID string,
	quantity int,
) error {
	key := c.key(userID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, itemID, quantity)
		pipe.Expire(ctx, key, c.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("update cart: %w", err)
	}
	return nil
}

func (c *RedisCart) Remove(ctx context.Context, userID, itemID string) error {
	if err := c.client.HDel(ctx, c.key(userID), itemID).Err(); err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}

func (c *RedisCart) Clear(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
