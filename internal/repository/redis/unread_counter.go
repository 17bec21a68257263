package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/sparktechagency/Mobile-Repair/internal/platform/database/redis"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/errors"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/observability/logging"
)

const unreadKeyPrefix = "notifications:unread:"

// UnreadCounter implements interfaces.UnreadCounterStore on Redis
type UnreadCounter struct {
	client *goredis.Client
	logger logging.Logger
}

// NewUnreadCounter creates a Redis-backed unread counter store
func NewUnreadCounter(conn *redis.Connection, logger logging.Logger) *UnreadCounter {
	return &UnreadCounter{
		client: conn.Client,
		logger: logger,
	}
}

func unreadKey(userID string) string {
	return fmt.Sprintf("%s%s", unreadKeyPrefix, userID)
}

// Increment bumps the user's counter and returns the new value
func (c *UnreadCounter) Increment(ctx context.Context, userID string) (int64, error) {
	count, err := c.client.Incr(ctx, unreadKey(userID)).Result()
	if err != nil {
		return 0, errors.Wrap(err, "failed to increment unread counter")
	}
	return count, nil
}

// Set overwrites the user's counter
func (c *UnreadCounter) Set(ctx context.Context, userID string, count int64) error {
	if err := c.client.Set(ctx, unreadKey(userID), count, 0).Err(); err != nil {
		return errors.Wrap(err, "failed to set unread counter")
	}
	return nil
}

// Get returns the user's counter, zero when the key is absent
func (c *UnreadCounter) Get(ctx context.Context, userID string) (int64, error) {
	count, err := c.client.Get(ctx, unreadKey(userID)).Int64()
	if err != nil {
		if err == goredis.Nil {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to get unread counter")
	}
	return count, nil
}

// Clear removes the user's counter
func (c *UnreadCounter) Clear(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, unreadKey(userID)).Err(); err != nil {
		return errors.Wrap(err, "failed to clear unread counter")
	}
	return nil
}
