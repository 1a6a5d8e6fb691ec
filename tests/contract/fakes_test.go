package contract

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	httpadapter "github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/adapters/http"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/ports"
)

const (
	testVerifyToken = "verify-token-1"
	testAppSecret   = "app-secret-1"
)

type contractAccounts struct {
	mu   sync.Mutex
	byID map[uuid.UUID]domain.InstagramAccount
}

func (f *contractAccounts) Create(_ context.Context, row domain.InstagramAccount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.InstagramUserID == row.InstagramUserID {
			return domain.ErrAccountLinked
		}
	}
	f.byID[row.AccountID] = row
	return nil
}

func (f *contractAccounts) GetByID(_ context.Context, accountID uuid.UUID) (domain.InstagramAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.byID[accountID]
	if !ok {
		return domain.InstagramAccount{}, domain.ErrNotFound
	}
	return row, nil
}

func (f *contractAccounts) GetByInstagramUserID(_ context.Context, instagramUserID string) (domain.InstagramAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.byID {
		if row.InstagramUserID == instagramUserID {
			return row, nil
		}
	}
	return domain.InstagramAccount{}, domain.ErrNotFound
}

func (f *contractAccounts) ListByUserID(_ context.Context, userID string) ([]domain.InstagramAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.InstagramAccount, 0)
	for _, row := range f.byID {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *contractAccounts) ListWithActiveRules(_ context.Context) ([]domain.InstagramAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.InstagramAccount, 0, len(f.byID))
	for _, row := range f.byID {
		out = append(out, row)
	}
	return out, nil
}

func (f *contractAccounts) Delete(_ context.Context, accountID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[accountID]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, accountID)
	return nil
}

type contractRules struct {
	mu    sync.Mutex
	items []domain.AutomationRule
	owner map[uuid.UUID]string
}

func (f *contractRules) Create(_ context.Context, row domain.AutomationRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, row)
	return nil
}

func (f *contractRules) GetByID(_ context.Context, ruleID uuid.UUID) (domain.AutomationRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rule := range f.items {
		if rule.RuleID == ruleID {
			return rule, nil
		}
	}
	return domain.AutomationRule{}, domain.ErrNotFound
}

func (f *contractRules) ListByUserID(_ context.Context, userID string) ([]domain.AutomationRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.AutomationRule, 0)
	for _, rule := range f.items {
		if f.owner[rule.AccountID] == userID {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (f *contractRules) ListActiveByAccount(_ context.Context, accountID uuid.UUID, triggerType string) ([]domain.AutomationRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.AutomationRule, 0)
	for _, rule := range f.items {
		if rule.AccountID == accountID && rule.TriggerType == triggerType && rule.IsActive {
			out = append(out, rule)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *contractRules) Update(_ context.Context, row domain.AutomationRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, rule := range f.items {
		if rule.RuleID == row.RuleID {
			f.items[i] = row
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *contractRules) Delete(_ context.Context, ruleID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, rule := range f.items {
		if rule.RuleID == ruleID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *contractRules) IncrementTriggerCount(_ context.Context, ruleID uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, rule := range f.items {
		if rule.RuleID == ruleID {
			f.items[i].TriggerCount++
			f.items[i].UpdatedAt = at
			return nil
		}
	}
	return domain.ErrNotFound
}

type contractLedger struct {
	mu   sync.Mutex
	rows map[string]domain.ProcessedComment
}

func (f *contractLedger) Reserve(_ context.Context, row domain.ProcessedComment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[row.CommentID]; ok {
		return domain.ErrConflict
	}
	f.rows[row.CommentID] = row
	return nil
}

func (f *contractLedger) Finalize(_ context.Context, commentID string, params ports.FinalizeParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[commentID]
	if !ok {
		return domain.ErrNotFound
	}
	row.Status = domain.ProcessedStatusProcessed
	row.DMSent = params.DMSent
	row.RuleID = params.RuleID
	row.DispatchError = params.DispatchError
	processedAt := params.ProcessedAt
	row.ProcessedAt = &processedAt
	f.rows[commentID] = row
	return nil
}

func (f *contractLedger) Get(_ context.Context, commentID string) (domain.ProcessedComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[commentID]
	if !ok {
		return domain.ProcessedComment{}, domain.ErrNotFound
	}
	return row, nil
}

func (f *contractLedger) CountByAccounts(_ context.Context, accountIDs []uuid.UUID, dmSentOnly bool) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	owned := make(map[uuid.UUID]bool, len(accountIDs))
	for _, id := range accountIDs {
		owned[id] = true
	}
	var count int64
	for _, row := range f.rows {
		if !owned[row.AccountID] || row.Status != domain.ProcessedStatusProcessed {
			continue
		}
		if dmSentOnly && !row.DMSent {
			continue
		}
		count++
	}
	return count, nil
}

type contractGraph struct {
	mu        sync.Mutex
	profiles  map[string]ports.Profile
	media     map[string][]ports.Media
	comments  map[string][]ports.Comment
	sendCalls int
}

func (f *contractGraph) GetProfile(_ context.Context, _ string, instagramUserID string) (ports.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[instagramUserID]
	if !ok {
		return ports.Profile{}, domain.ErrNotFound
	}
	return profile, nil
}

func (f *contractGraph) GetMedia(_ context.Context, _ string, instagramUserID string, limit int) ([]ports.Media, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	media := f.media[instagramUserID]
	if limit > 0 && len(media) > limit {
		media = media[:limit]
	}
	return media, nil
}

func (f *contractGraph) GetComments(_ context.Context, _ string, mediaID string) ([]ports.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.comments[mediaID], nil
}

func (f *contractGraph) SendDirectMessage(_ context.Context, _ string, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls++
	return nil
}

func (f *contractGraph) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sendCalls
}

type contractFixture struct {
	router   http.Handler
	service  *application.Service
	accounts *contractAccounts
	rules    *contractRules
	ledger   *contractLedger
	graph    *contractGraph
}

func newContractFixture() *contractFixture {
	accounts := &contractAccounts{byID: map[uuid.UUID]domain.InstagramAccount{}}
	rules := &contractRules{owner: map[uuid.UUID]string{}}
	ledger := &contractLedger{rows: map[string]domain.ProcessedComment{}}
	graph := &contractGraph{
		profiles: map[string]ports.Profile{},
		media:    map[string][]ports.Media{},
		comments: map[string][]ports.Comment{},
	}

	svc := application.NewService(application.Dependencies{
		Accounts: accounts,
		Rules:    rules,
		Ledger:   ledger,
		Graph:    graph,
	})

	handler := httpadapter.NewHandler(svc)
	webhooks := httpadapter.NewWebhookHandler(svc, accounts, testVerifyToken, testAppSecret)
	router := httpadapter.NewRouter(handler, webhooks, svc, "")

	return &contractFixture{
		router:   router,
		service:  svc,
		accounts: accounts,
		rules:    rules,
		ledger:   ledger,
		graph:    graph,
	}
}

func (f *contractFixture) addAccount(userID, instagramUserID string) domain.InstagramAccount {
	now := time.Now().UTC()
	row := domain.InstagramAccount{
		AccountID:       uuid.New(),
		UserID:          userID,
		InstagramUserID: instagramUserID,
		Username:        "creator_" + instagramUserID,
		AccessToken:     "token-" + instagramUserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	f.accounts.byID[row.AccountID] = row
	f.rules.owner[row.AccountID] = userID
	return row
}

func (f *contractFixture) addRule(accountID uuid.UUID, keywords []string, message string) domain.AutomationRule {
	now := time.Now().UTC()
	row := domain.AutomationRule{
		RuleID:      uuid.New(),
		AccountID:   accountID,
		TriggerType: domain.TriggerCommentOnPost,
		Keywords:    keywords,
		DMMessage:   message,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.rules.items = append(f.rules.items, row)
	return row
}
