package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smukkama/weather-monitor/internal/provider"
)

// CurrentConditions caches provider passthrough results so the
// current-weather endpoint does not hit the upstream API on every request.
type CurrentConditions struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewCurrentConditions creates a cache with the given entry TTL.
func NewCurrentConditions(redisClient *redis.Client, ttl time.Duration) *CurrentConditions {
	return &CurrentConditions{redis: redisClient, ttl: ttl}
}

func (c *CurrentConditions) key(city string) string {
	return fmt.Sprintf("current_weather:%s", city)
}

// Get returns the cached observation for a city, or (nil, nil) on a miss.
func (c *CurrentConditions) Get(ctx context.Context, city string) (*provider.Observation, error) {
	data, err := c.redis.Get(ctx, c.key(city)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached conditions: %w", err)
	}

	var obs provider.Observation
	if err := json.Unmarshal([]byte(data), &obs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached conditions: %w", err)
	}

	return &obs, nil
}

// Set stores an observation for a city.
func (c *CurrentConditions) Set(ctx context.Context, city string, obs *provider.Observation) error {
	data, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("failed to marshal conditions: %w", err)
	}

	if err := c.redis.Set(ctx, c.key(city), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache conditions: %w", err)
	}

	return nil
}
