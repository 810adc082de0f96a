/**
 * @description
 * This package supplies the quick-reply suggestion lists attached to prompts,
 * backed by a Redis cache so the lists can be tuned at runtime (an operator
 * can overwrite a key) without redeploying. A missing Redis client, a cache
 * miss, or a Redis error all fall back to the built-in defaults, so the cache
 * is an optimization, never a dependency.
 *
 * @dependencies
 * - github.com/redis/go-redis/v9: the cache client.
 * - internal/domain: conversation states.
 */

package quickreply

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/koboflow/onboarding-service/internal/domain"
)

var defaults = map[domain.ConversationState][]string{
	domain.StateNone:             {"Sign up"},
	domain.StateAwaitingBankLink: {"I've linked my bank"},
	domain.StateReady:            {"Send money", "Pay a bill", "Set up direct debit"},
}

// Cache resolves quick replies per conversation state, Redis first.
type Cache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewCache(client redis.UniversalClient, prefix string, ttl time.Duration) *Cache {
	trimmed := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if trimmed == "" {
		trimmed = "koboflow:quick_replies"
	}
	return &Cache{client: client, prefix: trimmed, ttl: ttl}
}

// QuickReplies returns the suggestion list for a state. Errors degrade to the
// defaults; they never surface to the saga.
func (c *Cache) QuickReplies(ctx context.Context, state domain.ConversationState) []string {
	if c == nil || c.client == nil {
		return defaults[state]
	}

	key := fmt.Sprintf("%s:%s", c.prefix, state)
	raw, err := c.client.Get(ctx, key).Result()
	switch {
	case err == redis.Nil:
		c.seed(ctx, key, defaults[state])
		return defaults[state]
	case err != nil:
		log.Printf("level=warn component=quick_replies msg=\"cache read failed, using defaults\" state=%s err=%v", state, err)
		return defaults[state]
	}

	var replies []string
	if err := json.Unmarshal([]byte(raw), &replies); err != nil {
		log.Printf("level=warn component=quick_replies msg=\"cached value malformed, using defaults\" state=%s err=%v", state, err)
		return defaults[state]
	}
	return replies
}

func (c *Cache) seed(ctx context.Context, key string, replies []string) {
	if len(replies) == 0 {
		return
	}
	body, err := json.Marshal(replies)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, body, c.ttl).Err(); err != nil {
		log.Printf("level=warn component=quick_replies msg=\"cache seed failed\" key=%s err=%v", key, err)
	}
}
