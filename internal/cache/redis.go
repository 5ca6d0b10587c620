package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Domenick1991/matchtickets/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache keeps successful catalog listings for a short while.
type RedisCache struct {
	client    *redis.Client
	eventsTTL time.Duration
}

func NewRedisCache(client *redis.Client, eventsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:    client,
		eventsTTL: eventsTTL,
	}
}

func (c *RedisCache) GetEvents(ctx context.Context, access string) ([]domain.Event, error) {
	data, err := c.client.Get(ctx, eventsKey(access)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var events []domain.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *RedisCache) SetEvents(ctx context.Context, access string, events []domain.Event) error {
	payload, err := json.Marshal(events)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, eventsKey(access), string(payload), c.eventsTTL).Err()
}

func eventsKey(access string) string {
	if access == "" {
		return "cache:events"
	}
	return "cache:events:access:" + access
}
