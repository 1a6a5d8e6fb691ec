package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/ports"
)

// AccountRepository persists linked Instagram accounts.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, row domain.InstagramAccount) error {
	model := accountModel{
		AccountID:         row.AccountID,
		UserID:            row.UserID,
		InstagramUserID:   row.InstagramUserID,
		Username:          row.Username,
		ProfilePictureURL: row.ProfilePictureURL,
		AccessToken:       row.AccessToken,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAccountLinked
		}
		return fmt.Errorf("insert instagram account: %w", err)
	}
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, accountID uuid.UUID) (domain.InstagramAccount, error) {
	var model accountModel
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.InstagramAccount{}, domain.ErrNotFound
		}
		return domain.InstagramAccount{}, fmt.Errorf("load instagram account: %w", err)
	}
	return toAccount(model), nil
}

func (r *AccountRepository) GetByInstagramUserID(ctx context.Context, instagramUserID string) (domain.InstagramAccount, error) {
	var model accountModel
	err := r.db.WithContext(ctx).Where("instagram_user_id = ?", instagramUserID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.InstagramAccount{}, domain.ErrNotFound
		}
		return domain.InstagramAccount{}, fmt.Errorf("load instagram account by platform id: %w", err)
	}
	return toAccount(model), nil
}

func (r *AccountRepository) ListByUserID(ctx context.Context, userID string) ([]domain.InstagramAccount, error) {
	var models []accountModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("list instagram accounts: %w", err)
	}
	out := make([]domain.InstagramAccount, 0, len(models))
	for _, m := range models {
		out = append(out, toAccount(m))
	}
	return out, nil
}

func (r *AccountRepository) ListWithActiveRules(ctx context.Context) ([]domain.InstagramAccount, error) {
	var models []accountModel
	err := r.db.WithContext(ctx).
		Joins("JOIN auto_dm_rules ON auto_dm_rules.account_id = instagram_accounts.account_id").
		Where("auto_dm_rules.is_active = ?", true).
		Distinct("instagram_accounts.*").
		Order("instagram_accounts.created_at asc").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("list accounts with active rules: %w", err)
	}
	out := make([]domain.InstagramAccount, 0, len(models))
	for _, m := range models {
		out = append(out, toAccount(m))
	}
	return out, nil
}

func (r *AccountRepository) Delete(ctx context.Context, accountID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("account_id = ?", accountID).Delete(&accountModel{})
	if result.Error != nil {
		return fmt.Errorf("delete instagram account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func toAccount(m accountModel) domain.InstagramAccount {
	return domain.InstagramAccount{
		AccountID:         m.AccountID,
		UserID:            m.UserID,
		InstagramUserID:   m.InstagramUserID,
		Username:          m.Username,
		ProfilePictureURL: m.ProfilePictureURL,
		AccessToken:       m.AccessToken,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// RuleRepository persists keyword automation rules. Keywords are stored as a
// JSON array so the set round-trips without a join table.
type RuleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

func (r *RuleRepository) Create(ctx context.Context, row domain.AutomationRule) error {
	model, err := toRuleModel(row)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("insert automation rule: %w", err)
	}
	return nil
}

func (r *RuleRepository) GetByID(ctx context.Context, ruleID uuid.UUID) (domain.AutomationRule, error) {
	var model ruleModel
	err := r.db.WithContext(ctx).Where("rule_id = ?", ruleID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.AutomationRule{}, domain.ErrNotFound
		}
		return domain.AutomationRule{}, fmt.Errorf("load automation rule: %w", err)
	}
	return toRule(model)
}

func (r *RuleRepository) ListByUserID(ctx context.Context, userID string) ([]domain.AutomationRule, error) {
	var models []ruleModel
	err := r.db.WithContext(ctx).
		Joins("JOIN instagram_accounts ON instagram_accounts.account_id = auto_dm_rules.account_id").
		Where("instagram_accounts.user_id = ?", userID).
		Order("auto_dm_rules.created_at asc").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("list automation rules: %w", err)
	}
	out := make([]domain.AutomationRule, 0, len(models))
	for _, m := range models {
		rule, err := toRule(m)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, nil
}

func (r *RuleRepository) ListActiveByAccount(ctx context.Context, accountID uuid.UUID, triggerType string) ([]domain.AutomationRule, error) {
	var models []ruleModel
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND trigger_type = ? AND is_active = ?", accountID, triggerType, true).
		Order("created_at asc").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}
	out := make([]domain.AutomationRule, 0, len(models))
	for _, m := range models {
		rule, err := toRule(m)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, nil
}

func (r *RuleRepository) Update(ctx context.Context, row domain.AutomationRule) error {
	keywords, err := json.Marshal(row.Keywords)
	if err != nil {
		return fmt.Errorf("encode rule keywords: %w", err)
	}
	result := r.db.WithContext(ctx).
		Model(&ruleModel{}).
		Where("rule_id = ?", row.RuleID).
		Updates(map[string]any{
			"keywords":   string(keywords),
			"dm_message": row.DMMessage,
			"is_active":  row.IsActive,
			"updated_at": row.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("update automation rule: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *RuleRepository) Delete(ctx context.Context, ruleID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("rule_id = ?", ruleID).Delete(&ruleModel{})
	if result.Error != nil {
		return fmt.Errorf("delete automation rule: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *RuleRepository) IncrementTriggerCount(ctx context.Context, ruleID uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&ruleModel{}).
		Where("rule_id = ?", ruleID).
		Updates(map[string]any{
			"trigger_count": gorm.Expr("trigger_count + 1"),
			"updated_at":    at,
		})
	if result.Error != nil {
		return fmt.Errorf("increment trigger count: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func toRuleModel(row domain.AutomationRule) (ruleModel, error) {
	keywords, err := json.Marshal(row.Keywords)
	if err != nil {
		return ruleModel{}, fmt.Errorf("encode rule keywords: %w", err)
	}
	return ruleModel{
		RuleID:       row.RuleID,
		AccountID:    row.AccountID,
		TriggerType:  row.TriggerType,
		Keywords:     string(keywords),
		DMMessage:    row.DMMessage,
		IsActive:     row.IsActive,
		TriggerCount: row.TriggerCount,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}

func toRule(m ruleModel) (domain.AutomationRule, error) {
	var keywords []string
	if m.Keywords != "" {
		if err := json.Unmarshal([]byte(m.Keywords), &keywords); err != nil {
			return domain.AutomationRule{}, fmt.Errorf("decode rule keywords: %w", err)
		}
	}
	return domain.AutomationRule{
		RuleID:       m.RuleID,
		AccountID:    m.AccountID,
		TriggerType:  m.TriggerType,
		Keywords:     keywords,
		DMMessage:    m.DMMessage,
		IsActive:     m.IsActive,
		TriggerCount: m.TriggerCount,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}, nil
}

var _ ports.AccountRepository = (*AccountRepository)(nil)
var _ ports.RuleRepository = (*RuleRepository)(nil)
