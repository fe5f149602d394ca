package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// SessionChangeChannel is the pub/sub channel carrying session row change
// notifications for the admin dashboards.
const SessionChangeChannel = "sessions:changes"

// HeartbeatKey is the per-owner debounce gate for presence writes.
func HeartbeatKey(owner string) string {
	return fmt.Sprintf("heartbeat:%s", owner)
}

// Allow reports whether the keyed action may run now, claiming the slot for
// the given interval when it may. Fails open: if Redis is unreachable the
// action goes through. A missed debounce costs one extra write; a stuck
// gate would freeze presence entirely.
func (c *Client) Allow(ctx context.Context, key string, interval time.Duration) bool {
	ok, err := c.SetNX(ctx, key, 1, interval).Result()
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("debounce check failed, allowing")
		return true
	}
	return ok
}
