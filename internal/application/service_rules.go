package application

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/domain"
)

func (s *Service) CreateRule(ctx context.Context, actor Actor, in CreateRuleInput) (domain.AutomationRule, error) {
	account, err := s.ownedAccount(ctx, actor, in.AccountID)
	if err != nil {
		return domain.AutomationRule{}, err
	}

	in.TriggerType = strings.TrimSpace(in.TriggerType)
	if in.TriggerType == "" {
		in.TriggerType = domain.TriggerCommentOnPost
	}
	if in.TriggerType != domain.TriggerCommentOnPost {
		return domain.AutomationRule{}, domain.ErrInvalidInput
	}
	keywords := domain.NormalizeKeywords(in.Keywords)
	in.DMMessage = strings.TrimSpace(in.DMMessage)
	if in.DMMessage == "" {
		return domain.AutomationRule{}, domain.ErrInvalidInput
	}
	if in.IsActive && len(keywords) == 0 {
		return domain.AutomationRule{}, domain.ErrInvalidInput
	}

	now := s.nowFn()
	row := domain.AutomationRule{
		RuleID:      uuid.New(),
		AccountID:   account.AccountID,
		TriggerType: in.TriggerType,
		Keywords:    keywords,
		DMMessage:   in.DMMessage,
		IsActive:    in.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.rules.Create(ctx, row); err != nil {
		return domain.AutomationRule{}, err
	}
	return row, nil
}

func (s *Service) ListRules(ctx context.Context, actor Actor) ([]domain.AutomationRule, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.rules.ListByUserID(ctx, strings.TrimSpace(actor.SubjectID))
}

func (s *Service) UpdateRule(ctx context.Context, actor Actor, ruleID uuid.UUID, in UpdateRuleInput) (domain.AutomationRule, error) {
	rule, err := s.ownedRule(ctx, actor, ruleID)
	if err != nil {
		return domain.AutomationRule{}, err
	}

	if in.Keywords != nil {
		rule.Keywords = domain.NormalizeKeywords(in.Keywords)
	}
	if trimmed := strings.TrimSpace(in.DMMessage); trimmed != "" {
		rule.DMMessage = trimmed
	}
	if in.IsActive != nil {
		rule.IsActive = *in.IsActive
	}
	if rule.IsActive && len(rule.Keywords) == 0 {
		return domain.AutomationRule{}, domain.ErrInvalidInput
	}

	rule.UpdatedAt = s.nowFn()
	if err := s.rules.Update(ctx, rule); err != nil {
		return domain.AutomationRule{}, err
	}
	return rule, nil
}

func (s *Service) DeleteRule(ctx context.Context, actor Actor, ruleID uuid.UUID) error {
	rule, err := s.ownedRule(ctx, actor, ruleID)
	if err != nil {
		return err
	}
	return s.rules.Delete(ctx, rule.RuleID)
}

func (s *Service) GetStats(ctx context.Context, actor Actor) (domain.AutomationStats, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.AutomationStats{}, domain.ErrUnauthorized
	}

	accounts, err := s.accounts.ListByUserID(ctx, strings.TrimSpace(actor.SubjectID))
	if err != nil {
		return domain.AutomationStats{}, err
	}
	accountIDs := make([]uuid.UUID, 0, len(accounts))
	for _, account := range accounts {
		accountIDs = append(accountIDs, account.AccountID)
	}

	rules, err := s.rules.ListByUserID(ctx, strings.TrimSpace(actor.SubjectID))
	if err != nil {
		return domain.AutomationStats{}, err
	}
	stats := domain.AutomationStats{TotalRules: int64(len(rules))}
	for _, rule := range rules {
		if rule.IsActive {
			stats.ActiveRules++
		}
	}

	if len(accountIDs) > 0 {
		if stats.ProcessedComments, err = s.ledger.CountByAccounts(ctx, accountIDs, false); err != nil {
			return domain.AutomationStats{}, err
		}
		if stats.MessagesSent, err = s.ledger.CountByAccounts(ctx, accountIDs, true); err != nil {
			return domain.AutomationStats{}, err
		}
	}
	return stats, nil
}

func (s *Service) ownedRule(ctx context.Context, actor Actor, ruleID uuid.UUID) (domain.AutomationRule, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.AutomationRule{}, domain.ErrUnauthorized
	}
	rule, err := s.rules.GetByID(ctx, ruleID)
	if err != nil {
		return domain.AutomationRule{}, err
	}
	account, err := s.accounts.GetByID(ctx, rule.AccountID)
	if err != nil {
		return domain.AutomationRule{}, err
	}
	if !canActForUser(actor, account.UserID) {
		return domain.AutomationRule{}, domain.ErrNotFound
	}
	return rule, nil
}
