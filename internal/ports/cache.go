package ports

import (
	"context"
	"time"

	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/domain"
)

// SeenCommentCache is an advisory TTL cache in front of the ledger. A hit
// short-circuits a duplicate without a database round trip; a miss or cache
// error always falls through to the ledger reservation, which remains the
// source of truth.
type SeenCommentCache interface {
	Seen(ctx context.Context, commentID string) (bool, error)
	MarkSeen(ctx context.Context, commentID string, ttl time.Duration) error
}

// CycleStatusStore exposes the last reconcile cycle report to the status
// endpoint across instances.
type CycleStatusStore interface {
	SetLastCycle(ctx context.Context, report domain.CycleReport) error
	GetLastCycle(ctx context.Context) (domain.CycleReport, bool, error)
}
