package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/domain"
)

// AccountRepository defines persistence for linked Instagram accounts.
type AccountRepository interface {
	Create(ctx context.Context, row domain.InstagramAccount) error
	GetByID(ctx context.Context, accountID uuid.UUID) (domain.InstagramAccount, error)
	GetByInstagramUserID(ctx context.Context, instagramUserID string) (domain.InstagramAccount, error)
	ListByUserID(ctx context.Context, userID string) ([]domain.InstagramAccount, error)
	// ListWithActiveRules returns every account owning at least one active
	// rule; this is the reconciler's working set.
	ListWithActiveRules(ctx context.Context) ([]domain.InstagramAccount, error)
	Delete(ctx context.Context, accountID uuid.UUID) error
}

// RuleRepository defines persistence for automation rules.
type RuleRepository interface {
	Create(ctx context.Context, row domain.AutomationRule) error
	GetByID(ctx context.Context, ruleID uuid.UUID) (domain.AutomationRule, error)
	ListByUserID(ctx context.Context, userID string) ([]domain.AutomationRule, error)
	// ListActiveByAccount returns active rules of the given trigger type
	// ordered by creation time ascending; the order is the selection
	// tie-break contract.
	ListActiveByAccount(ctx context.Context, accountID uuid.UUID, triggerType string) ([]domain.AutomationRule, error)
	Update(ctx context.Context, row domain.AutomationRule) error
	Delete(ctx context.Context, ruleID uuid.UUID) error
	IncrementTriggerCount(ctx context.Context, ruleID uuid.UUID, at time.Time) error
}

// FinalizeParams carries the terminal outcome of one engine invocation.
type FinalizeParams struct {
	DMSent        bool
	RuleID        *uuid.UUID
	DispatchError string
	ProcessedAt   time.Time
}

// CommentLedger is the dedupe anchor. Reserve must be an atomic
// conflict-detecting insert keyed by the external comment id: the first
// caller wins, every other racer gets domain.ErrConflict. Finalize updates
// the reserved row and returns domain.ErrNotFound when no reservation
// exists, so a finalize can never create a row on its own.
type CommentLedger interface {
	Reserve(ctx context.Context, row domain.ProcessedComment) error
	Finalize(ctx context.Context, commentID string, params FinalizeParams) error
	Get(ctx context.Context, commentID string) (domain.ProcessedComment, error)
	CountByAccounts(ctx context.Context, accountIDs []uuid.UUID, dmSentOnly bool) (int64, error)
}

// OutboxRecord is a durable domain event awaiting broker publication.
type OutboxRecord struct {
	OutboxID     uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	RetryCount   int
	LastError    *string
	CreatedAt    time.Time
	PublishedAt  *time.Time
}

// OutboxRepository stores engine-emitted events until the outbox worker
// publishes them. Enqueue failures are tolerated by the engine; delivery is
// at-least-once on the broker side.
type OutboxRepository interface {
	Enqueue(ctx context.Context, record OutboxRecord) error
	ListUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, reason string, at time.Time) error
}
