package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const unreadTTL = 30 * time.Second

// UnreadCounts caches the navigation-badge count per user. It is a pure
// read-through cache: a miss or any Redis error falls back to the store,
// and writers invalidate on send and on mark-read.
type UnreadCounts struct {
	client *redis.Client
}

func NewUnreadCounts(redisURL string) (*UnreadCounts, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &UnreadCounts{client: client}, nil
}

func (c *UnreadCounts) Get(ctx context.Context, userID string) (int, bool) {
	count, err := c.client.Get(ctx, unreadKey(userID)).Int()
	if err != nil {
		return 0, false
	}
	return count, true
}

func (c *UnreadCounts) Set(ctx context.Context, userID string, count int) {
	_ = c.client.Set(ctx, unreadKey(userID), count, unreadTTL).Err()
}

func (c *UnreadCounts) Invalidate(ctx context.Context, userID string) {
	_ = c.client.Del(ctx, unreadKey(userID)).Err()
}

func (c *UnreadCounts) Close() error {
	return c.client.Close()
}

func unreadKey(userID string) string {
	return "unread:" + userID
}
