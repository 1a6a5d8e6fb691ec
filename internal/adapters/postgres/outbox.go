package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/ports"
)

// OutboxRepository stores domain events durably until the worker publishes
// them to the broker.
type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) Enqueue(ctx context.Context, record ports.OutboxRecord) error {
	model := outboxModel{
		OutboxID:     record.OutboxID,
		EventType:    record.EventType,
		PartitionKey: record.PartitionKey,
		Payload:      string(record.Payload),
		RetryCount:   record.RetryCount,
		CreatedAt:    record.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("enqueue outbox event: %w", err)
	}
	return nil
}

func (r *OutboxRepository) ListUnpublished(ctx context.Context, limit int) ([]ports.OutboxRecord, error) {
	var models []outboxModel
	err := r.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("created_at asc").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("list unpublished events: %w", err)
	}
	out := make([]ports.OutboxRecord, 0, len(models))
	for _, m := range models {
		out = append(out, ports.OutboxRecord{
			OutboxID:     m.OutboxID,
			EventType:    m.EventType,
			PartitionKey: m.PartitionKey,
			Payload:      []byte(m.Payload),
			RetryCount:   m.RetryCount,
			LastError:    m.LastError,
			CreatedAt:    m.CreatedAt,
			PublishedAt:  m.PublishedAt,
		})
	}
	return out, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, outboxID uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Update("published_at", at)
	if result.Error != nil {
		return fmt.Errorf("mark event published: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, outboxID uuid.UUID, reason string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"retry_count":    gorm.Expr("retry_count + 1"),
			"last_error":     reason,
			"last_failed_at": at,
		})
	if result.Error != nil {
		return fmt.Errorf("mark event failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ ports.OutboxRepository = (*OutboxRepository)(nil)
