package redis

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"counseling-platform/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.ArtifactCache = (*InvoiceCache)(nil)

// InvoiceCache stores rendered invoice artifacts keyed by payment id.
// Artifacts are content-addressed: once rendered, the body for a payment id
// never changes, so the TTL is long and eviction is harmless (the next
// request re-renders).
type InvoiceCache struct {
	client RedisClient
	ttl    time.Duration
	log    *zerolog.Logger
}

func NewInvoiceCache(client RedisClient, ttl time.Duration, logger *zerolog.Logger) *InvoiceCache {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &InvoiceCache{client: client, ttl: ttl, log: logger}
}

func key(paymentID string) string { return "invoice:" + paymentID }

func (c *InvoiceCache) Get(ctx context.Context, paymentID string) ([]byte, bool) {
	data, err := c.client.Get(ctx, key(paymentID))
	if err != nil {
		return nil, false
	}
	return []byte(data), true
}

func (c *InvoiceCache) Set(ctx context.Context, paymentID string, body []byte) {
	if err := c.client.Set(ctx, key(paymentID), body, c.ttl); err != nil {
		// Cache failures are not the caller's problem.
		c.log.Warn().Err(err).Str("payment_id", paymentID).Msg("invoice cache write failed")
	}
}
