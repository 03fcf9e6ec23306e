package stripe

import (
	"context"
	"time"

	"github.com/playabars/playabars-backend/pkg/logger"
	pkgredis "github.com/playabars/playabars-backend/pkg/redis"
)

const (
	guardScope = "stripe-webhook"
	guardTTL   = 24 * time.Hour
)

// eventGuard deduplicates webhook deliveries by event id. A claim that fails
// to release stays claimed until the TTL expires, which only delays a retry.
type eventGuard struct {
	store  pkgredis.IdempotencyStore
	logger *logger.Logger
}

func newEventGuard(store pkgredis.IdempotencyStore, logg *logger.Logger) *eventGuard {
	return &eventGuard{store: store, logger: logg}
}

// Claim marks the event as in-flight. The second delivery of the same event
// id gets false and is dropped. A guard-store outage fails open: processing
// a duplicate is safe because every handler is idempotent, dropping a first
// delivery is not.
func (g *eventGuard) Claim(ctx context.Context, eventID string) bool {
	key := g.store.IdempotencyKey(guardScope, eventID)
	claimed, err := g.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), guardTTL)
	if err != nil {
		g.logger.Warn(ctx, "webhook dedup store unavailable, processing anyway")
		return true
	}
	return claimed
}

// Release frees the claim after a handler failure so the provider's retry is
// not swallowed by the dedup window.
func (g *eventGuard) Release(ctx context.Context, eventID string) {
	key := g.store.IdempotencyKey(guardScope, eventID)
	if err := g.store.Del(ctx, key); err != nil {
		g.logger.Warn(ctx, "failed to release webhook dedup claim")
	}
}
