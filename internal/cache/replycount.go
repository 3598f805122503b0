package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const replyCountTTL = 5 * time.Minute

// ReplyCountCache keeps per-ticket reply counts in Redis so list views
// avoid a COUNT per row. A nil cache or unreachable Redis degrades to
// cache misses; the caller falls back to the repository.
type ReplyCountCache struct {
	client *redis.Client
}

// NewReplyCountCache wraps a redis client. Accepts nil.
func NewReplyCountCache(client *redis.Client) *ReplyCountCache {
	return &ReplyCountCache{client: client}
}

// GetMany returns the cached counts for the given ticket ids. Missing or
// unparsable entries are simply absent from the result.
func (c *ReplyCountCache) GetMany(ctx context.Context, ticketIDs []string) map[string]int {
	counts := make(map[string]int, len(ticketIDs))
	if c == nil || c.client == nil || len(ticketIDs) == 0 {
		return counts
	}
	keys := make([]string, len(ticketIDs))
	for i, id := range ticketIDs {
		keys[i] = key(id)
	}
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return counts
	}
	for i, val := range values {
		raw, ok := val.(string)
		if !ok {
			continue
		}
		count, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		counts[ticketIDs[i]] = count
	}
	return counts
}

// Set stores the reply count for a ticket.
func (c *ReplyCountCache) Set(ctx context.Context, ticketID string, count int) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Set(ctx, key(ticketID), strconv.Itoa(count), replyCountTTL).Err()
}

// Invalidate drops the cached count after a reply insert or ticket delete.
func (c *ReplyCountCache) Invalidate(ctx context.Context, ticketID string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, key(ticketID)).Err()
}

func key(ticketID string) string {
	return "ticket:replycount:" + ticketID
}
