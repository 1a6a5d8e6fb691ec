package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/ports"
)

// CommentLedger implements the dedupe anchor on top of the primary key of
// processed_comments. Reserve is a single INSERT; the database's uniqueness
// check is the arbiter when two paths race on the same comment.
type CommentLedger struct {
	db *gorm.DB
}

func NewCommentLedger(db *gorm.DB) *CommentLedger {
	return &CommentLedger{db: db}
}

func (l *CommentLedger) Reserve(ctx context.Context, row domain.ProcessedComment) error {
	model := processedCommentModel{
		CommentID:   row.CommentID,
		AccountID:   row.AccountID,
		MediaID:     row.MediaID,
		CommenterID: row.CommenterID,
		CommentText: row.Text,
		Status:      row.Status,
		DMSent:      row.DMSent,
		ObservedAt:  row.ObservedAt,
	}
	if err := l.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("reserve comment: %w", err)
	}
	return nil
}

func (l *CommentLedger) Finalize(ctx context.Context, commentID string, params ports.FinalizeParams) error {
	updates := map[string]any{
		"status":       domain.ProcessedStatusProcessed,
		"dm_sent":      params.DMSent,
		"processed_at": params.ProcessedAt,
	}
	if params.RuleID != nil {
		updates["rule_id"] = *params.RuleID
	}
	if params.DispatchError != "" {
		updates["dispatch_error"] = params.DispatchError
	}

	result := l.db.WithContext(ctx).
		Model(&processedCommentModel{}).
		Where("comment_id = ?", commentID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("finalize comment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (l *CommentLedger) Get(ctx context.Context, commentID string) (domain.ProcessedComment, error) {
	var model processedCommentModel
	err := l.db.WithContext(ctx).Where("comment_id = ?", commentID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ProcessedComment{}, domain.ErrNotFound
		}
		return domain.ProcessedComment{}, fmt.Errorf("load comment record: %w", err)
	}

	out := domain.ProcessedComment{
		CommentID:   model.CommentID,
		AccountID:   model.AccountID,
		MediaID:     model.MediaID,
		CommenterID: model.CommenterID,
		Text:        model.CommentText,
		Status:      model.Status,
		DMSent:      model.DMSent,
		RuleID:      model.RuleID,
		ObservedAt:  model.ObservedAt,
		ProcessedAt: model.ProcessedAt,
	}
	if model.DispatchError != nil {
		out.DispatchError = *model.DispatchError
	}
	return out, nil
}

func (l *CommentLedger) CountByAccounts(ctx context.Context, accountIDs []uuid.UUID, dmSentOnly bool) (int64, error) {
	if len(accountIDs) == 0 {
		return 0, nil
	}
	query := l.db.WithContext(ctx).
		Model(&processedCommentModel{}).
		Where("account_id IN ?", accountIDs).
		Where("status = ?", domain.ProcessedStatusProcessed)
	if dmSentOnly {
		query = query.Where("dm_sent = ?", true)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count processed comments: %w", err)
	}
	return count, nil
}

var _ ports.CommentLedger = (*CommentLedger)(nil)
