package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"apotekpos/backend/internal/domain"
)

const tierCatalogKey = "loyalty:tiers:active"

type RedisTierCache struct {
	client *redis.Client
}

func NewRedisTierCache(addr string, password string, db int) *RedisTierCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisTierCache{client: client}
}

func (c *RedisTierCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisTierCache) Close() error {
	return c.client.Close()
}

func (c *RedisTierCache) Get(ctx context.Context) ([]domain.LoyaltyTier, bool, error) {
	val, err := c.client.Get(ctx, tierCatalogKey).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var tiers []domain.LoyaltyTier
	if err := json.Unmarshal([]byte(val), &tiers); err != nil {
		return nil, false, err
	}
	return tiers, true, nil
}

func (c *RedisTierCache) Set(ctx context.Context, tiers []domain.LoyaltyTier, ttl time.Duration) error {
	if len(tiers) == 0 {
		return nil
	}
	payload, err := json.Marshal(tiers)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, tierCatalogKey, payload, ttl).Err()
}

func (c *RedisTierCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, tierCatalogKey).Err()
}
