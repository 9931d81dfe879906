package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"rental-billing/internal/domain/model"
	"rental-billing/internal/infra/metrics"
)

// StatusCache fronts the subscription-status poll endpoint with a short-TTL
// cache. Invalidated on every grant.
type StatusCache struct {
	cli RedisClient
	ttl time.Duration
}

func NewStatusCache(cli RedisClient, ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &StatusCache{cli: cli, ttl: ttl}
}

func (c *StatusCache) key(userID string) string { return "sub:status:" + userID }

func (c *StatusCache) Get(ctx context.Context, userID string) (*model.Subscription, bool) {
	raw, err := c.cli.Get(ctx, c.key(userID))
	if err != nil {
		// A transport error degrades to a miss like an absent key does, but
		// only the former counts as storage degradation.
		if !errors.Is(err, Nil) {
			metrics.IncStorageDegraded("status_cache")
		}
		return nil, false
	}
	var s model.Subscription
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, false
	}
	return &s, true
}

func (c *StatusCache) Put(ctx context.Context, s *model.Subscription) error {
	if s == nil {
		return errors.New("nil subscription")
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.cli.Set(ctx, c.key(s.UserID), raw, c.ttl)
}

func (c *StatusCache) Invalidate(ctx context.Context, userID string) error {
	return c.cli.Del(ctx, c.key(userID))
}
