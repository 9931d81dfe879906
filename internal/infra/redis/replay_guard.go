package redis

import (
	"context"
	"time"
)

// ReplayGuard marks gateway auth tokens as seen so a re-delivered callback is
// answered from the audit trail instead of triggering a second approval call.
// The handlers themselves are stateless; replay defense lives here.
type ReplayGuard struct {
	cli RedisClient
	ttl time.Duration
}

func NewReplayGuard(cli RedisClient, ttl time.Duration) *ReplayGuard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ReplayGuard{cli: cli, ttl: ttl}
}

// FirstSeen returns true exactly once per token. On redis failure it returns
// true with the error: callback processing must not depend on the guard being
// available (degraded mode, logged by the caller).
func (g *ReplayGuard) FirstSeen(ctx context.Context, token string) (bool, error) {
	ok, err := g.cli.SetNX(ctx, "cb:seen:"+token, "1", g.ttl)
	if err != nil {
		return true, err
	}
	return ok, nil
}
