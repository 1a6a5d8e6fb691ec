package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/ports"
)

const seenKeyPrefix = "automation:seen:"

// SeenCommentCache marks comment ids as handled for a TTL window. It only
// saves ledger round trips; correctness never depends on it.
type SeenCommentCache struct {
	client *redis.Client
}

func NewSeenCommentCache(client *redis.Client) *SeenCommentCache {
	return &SeenCommentCache{client: client}
}

func (c *SeenCommentCache) Seen(ctx context.Context, commentID string) (bool, error) {
	err := c.client.Get(ctx, seenKeyPrefix+commentID).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("check seen comment: %w", err)
	}
	return true, nil
}

func (c *SeenCommentCache) MarkSeen(ctx context.Context, commentID string, ttl time.Duration) error {
	if err := c.client.Set(ctx, seenKeyPrefix+commentID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("mark comment seen: %w", err)
	}
	return nil
}

var _ ports.SeenCommentCache = (*SeenCommentCache)(nil)
