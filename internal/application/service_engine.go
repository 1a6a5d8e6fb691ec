package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/ports"
)

// ProcessComment is the single entry point for both comment discovery paths.
// The ledger reservation in step one is the only synchronization point: the
// first caller to reserve a comment id proceeds, every other caller — a
// racing webhook delivery, a polling pass over the same media, a replay —
// observes a conflict and reports a duplicate. The reservation commits
// before any dispatch attempt, so a crash mid-flight can lose the recorded
// outcome but never cause a second DM.
func (s *Service) ProcessComment(ctx context.Context, event domain.CommentEvent) (ProcessResult, error) {
	event.CommentID = strings.TrimSpace(event.CommentID)
	if event.CommentID == "" || event.AccountID == uuid.Nil {
		return ProcessResult{}, domain.ErrInvalidInput
	}
	if event.ObservedAt.IsZero() {
		event.ObservedAt = s.nowFn()
	}

	if s.seen != nil {
		if seen, err := s.seen.Seen(ctx, event.CommentID); err == nil && seen {
			return ProcessResult{Processed: false, Reason: "duplicate"}, nil
		}
	}

	err := s.ledger.Reserve(ctx, domain.ProcessedComment{
		CommentID:   event.CommentID,
		AccountID:   event.AccountID,
		MediaID:     event.MediaID,
		CommenterID: event.CommenterID,
		Text:        event.Text,
		Status:      domain.ProcessedStatusReserved,
		ObservedAt:  event.ObservedAt,
	})
	if errors.Is(err, domain.ErrConflict) {
		return ProcessResult{Processed: false, Reason: "duplicate"}, nil
	}
	if err != nil {
		return ProcessResult{}, err
	}
	if s.seen != nil {
		_ = s.seen.MarkSeen(ctx, event.CommentID, s.cfg.SeenCacheTTL)
	}

	account, err := s.accounts.GetByID(ctx, event.AccountID)
	if err != nil {
		return ProcessResult{}, err
	}
	rules, err := s.rules.ListActiveByAccount(ctx, account.AccountID, domain.TriggerCommentOnPost)
	if err != nil {
		return ProcessResult{}, err
	}

	rule, matched := domain.SelectRule(rules, event.Text)
	if !matched {
		if err := s.ledger.Finalize(ctx, event.CommentID, ports.FinalizeParams{
			DMSent:      false,
			ProcessedAt: s.nowFn(),
		}); err != nil {
			return ProcessResult{}, err
		}
		s.emitProcessed(ctx, event, false, nil, "")
		return ProcessResult{Processed: true, DMSent: false, Reason: "no_matching_rule"}, nil
	}

	var dispatchKind string
	sendErr := s.graph.SendDirectMessage(ctx, account.AccessToken, event.CommenterID, rule.DMMessage)
	if sendErr != nil {
		var dispatchErr *domain.DispatchError
		if errors.As(sendErr, &dispatchErr) {
			dispatchKind = dispatchErr.Kind
		} else {
			dispatchKind = domain.DispatchTransient
		}
		slog.Default().WarnContext(ctx, "automated dm dispatch failed",
			"module", "application.engine",
			"layer", "application",
			"operation", "process_comment",
			"outcome", "dispatch_failure",
			"account_id", account.AccountID.String(),
			"rule_id", rule.RuleID.String(),
			"comment_id", event.CommentID,
			"dispatch_kind", dispatchKind,
		)
	}

	dmSent := sendErr == nil
	if dmSent {
		if err := s.rules.IncrementTriggerCount(ctx, rule.RuleID, s.nowFn()); err != nil {
			slog.Default().WarnContext(ctx, "trigger counter increment failed",
				"module", "application.engine",
				"layer", "application",
				"operation", "process_comment",
				"outcome", "failure",
				"rule_id", rule.RuleID.String(),
				"error", err,
			)
		}
	}

	ruleID := rule.RuleID
	if err := s.ledger.Finalize(ctx, event.CommentID, ports.FinalizeParams{
		DMSent:        dmSent,
		RuleID:        &ruleID,
		DispatchError: dispatchKind,
		ProcessedAt:   s.nowFn(),
	}); err != nil {
		return ProcessResult{}, err
	}

	s.emitProcessed(ctx, event, dmSent, &ruleID, dispatchKind)
	if dmSent {
		s.emitDMSent(ctx, event, ruleID)
	}

	result := ProcessResult{
		Processed:     true,
		DMSent:        dmSent,
		TriggeredRule: &ruleID,
		DispatchError: dispatchKind,
	}
	if !dmSent {
		result.Reason = "dispatch_failed"
	}
	return result, nil
}

// Outbox writes are best effort; losing an analytics event never fails
// comment processing.
func (s *Service) emitProcessed(ctx context.Context, event domain.CommentEvent, dmSent bool, ruleID *uuid.UUID, dispatchKind string) {
	if s.outbox == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{
		"comment_id":     event.CommentID,
		"account_id":     event.AccountID.String(),
		"media_id":       event.MediaID,
		"dm_sent":        dmSent,
		"rule_id":        uuidStringOrNil(ruleID),
		"dispatch_error": dispatchKind,
	})
	_ = s.outbox.Enqueue(ctx, ports.OutboxRecord{
		OutboxID:     uuid.New(),
		EventType:    domain.EventCommentProcessed,
		PartitionKey: event.AccountID.String(),
		Payload:      payload,
		CreatedAt:    s.nowFn(),
	})
}

func (s *Service) emitDMSent(ctx context.Context, event domain.CommentEvent, ruleID uuid.UUID) {
	if s.outbox == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{
		"comment_id":   event.CommentID,
		"account_id":   event.AccountID.String(),
		"rule_id":      ruleID.String(),
		"commenter_id": event.CommenterID,
	})
	_ = s.outbox.Enqueue(ctx, ports.OutboxRecord{
		OutboxID:     uuid.New(),
		EventType:    domain.EventDMSent,
		PartitionKey: event.AccountID.String(),
		Payload:      payload,
		CreatedAt:    s.nowFn(),
	})
}

func uuidStringOrNil(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}
