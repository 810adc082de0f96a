/**
 * @description
 * This file implements the duplicate-delivery guard applied to verified
 * webhook bodies before they are published to the bus. Providers redeliver
 * webhooks aggressively; the saga is idempotent regardless, but dropping
 * byte-identical redeliveries at the edge keeps them off the bus entirely.
 * The guard is advisory: with no Redis client, or on a Redis error, every
 * delivery is treated as first-seen.
 */

package webhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper remembers recently seen webhook bodies per provider.
type Deduper struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewDeduper(client redis.UniversalClient, ttl time.Duration) *Deduper {
	return &Deduper{client: client, ttl: ttl}
}

// Seen records the body and reports whether an identical one was already seen
// inside the TTL window.
func (d *Deduper) Seen(ctx context.Context, provider string, body []byte) bool {
	if d == nil || d.client == nil {
		return false
	}

	digest := sha256.Sum256(body)
	key := fmt.Sprintf("koboflow:webhook_seen:%s:%s", provider, hex.EncodeToString(digest[:]))

	created, err := d.client.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		log.Printf("level=warn component=webhook_dedupe msg=\"dedupe check failed, treating as first delivery\" provider=%s err=%v", provider, err)
		return false
	}
	return !created
}
