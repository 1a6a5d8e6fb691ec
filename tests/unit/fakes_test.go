package unit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/ports"
)

type fakeAccounts struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]domain.InstagramAccount
	rules *fakeRules
}

func (f *fakeAccounts) Create(_ context.Context, row domain.InstagramAccount) error {
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

func (f *fakeAccounts) GetByID(_ context.Context, accountID uuid.UUID) (domain.InstagramAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.byID[accountID]
	if !ok {
		return domain.InstagramAccount{}, domain.ErrNotFound
	}
	return row, nil
}

func (f *fakeAccounts) GetByInstagramUserID(_ context.Context, instagramUserID string) (domain.InstagramAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.byID {
		if row.InstagramUserID == instagramUserID {
			return row, nil
		}
	}
	return domain.InstagramAccount{}, domain.ErrNotFound
}

func (f *fakeAccounts) ListByUserID(_ context.Context, userID string) ([]domain.InstagramAccount, error) {
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

func (f *fakeAccounts) ListWithActiveRules(ctx context.Context) ([]domain.InstagramAccount, error) {
	f.mu.Lock()
	accounts := make([]domain.InstagramAccount, 0, len(f.byID))
	for _, row := range f.byID {
		accounts = append(accounts, row)
	}
	f.mu.Unlock()

	out := make([]domain.InstagramAccount, 0)
	for _, account := range accounts {
		active, err := f.rules.ListActiveByAccount(ctx, account.AccountID, domain.TriggerCommentOnPost)
		if err != nil {
			return nil, err
		}
		if len(active) > 0 {
			out = append(out, account)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeAccounts) Delete(_ context.Context, accountID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[accountID]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, accountID)
	return nil
}

type fakeRules struct {
	mu       sync.Mutex
	items    []domain.AutomationRule
	accounts *fakeAccounts
}

func (f *fakeRules) Create(_ context.Context, row domain.AutomationRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, row)
	return nil
}

func (f *fakeRules) GetByID(_ context.Context, ruleID uuid.UUID) (domain.AutomationRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rule := range f.items {
		if rule.RuleID == ruleID {
			return rule, nil
		}
	}
	return domain.AutomationRule{}, domain.ErrNotFound
}

func (f *fakeRules) ListByUserID(ctx context.Context, userID string) ([]domain.AutomationRule, error) {
	accounts, err := f.accounts.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	owned := make(map[uuid.UUID]bool, len(accounts))
	for _, account := range accounts {
		owned[account.AccountID] = true
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.AutomationRule, 0)
	for _, rule := range f.items {
		if owned[rule.AccountID] {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (f *fakeRules) ListActiveByAccount(_ context.Context, accountID uuid.UUID, triggerType string) ([]domain.AutomationRule, error) {
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

func (f *fakeRules) Update(_ context.Context, row domain.AutomationRule) error {
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

func (f *fakeRules) Delete(_ context.Context, ruleID uuid.UUID) error {
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

func (f *fakeRules) IncrementTriggerCount(_ context.Context, ruleID uuid.UUID, at time.Time) error {
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

type fakeLedger struct {
	mu   sync.Mutex
	rows map[string]domain.ProcessedComment
}

func (f *fakeLedger) Reserve(_ context.Context, row domain.ProcessedComment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[row.CommentID]; ok {
		return domain.ErrConflict
	}
	f.rows[row.CommentID] = row
	return nil
}

func (f *fakeLedger) Finalize(_ context.Context, commentID string, params ports.FinalizeParams) error {
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

func (f *fakeLedger) Get(_ context.Context, commentID string) (domain.ProcessedComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[commentID]
	if !ok {
		return domain.ProcessedComment{}, domain.ErrNotFound
	}
	return row, nil
}

func (f *fakeLedger) CountByAccounts(_ context.Context, accountIDs []uuid.UUID, dmSentOnly bool) (int64, error) {
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

type fakeSeen struct {
	mu    sync.Mutex
	items map[string]bool
	err   error
}

func (f *fakeSeen) Seen(_ context.Context, commentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	return f.items[commentID], nil
}

func (f *fakeSeen) MarkSeen(_ context.Context, commentID string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.items[commentID] = true
	return nil
}

type fakeCycles struct {
	mu     sync.Mutex
	report domain.CycleReport
	ok     bool
}

func (f *fakeCycles) SetLastCycle(_ context.Context, report domain.CycleReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.report = report
	f.ok = true
	return nil
}

func (f *fakeCycles) GetLastCycle(_ context.Context) (domain.CycleReport, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.report, f.ok, nil
}

type fakeGraph struct {
	mu       sync.Mutex
	profiles map[string]ports.Profile
	media    map[string][]ports.Media
	comments map[string][]ports.Comment
	mediaErr map[string]error

	sendErr   error
	sendCalls int
	sentTo    []string

	mediaStarted chan struct{}
	mediaGate    chan struct{}
}

func (f *fakeGraph) GetProfile(_ context.Context, _ string, instagramUserID string) (ports.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[instagramUserID]
	if !ok {
		return ports.Profile{}, domain.ErrNotFound
	}
	return profile, nil
}

func (f *fakeGraph) GetMedia(_ context.Context, _ string, instagramUserID string, limit int) ([]ports.Media, error) {
	f.mu.Lock()
	started := f.mediaStarted
	gate := f.mediaGate
	err := f.mediaErr[instagramUserID]
	media := f.media[instagramUserID]
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(media) > limit {
		media = media[:limit]
	}
	return media, nil
}

func (f *fakeGraph) GetComments(_ context.Context, _ string, mediaID string) ([]ports.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.comments[mediaID], nil
}

func (f *fakeGraph) SendDirectMessage(_ context.Context, _ string, recipientID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls++
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sentTo = append(f.sentTo, recipientID)
	return nil
}

func (f *fakeGraph) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sendCalls
}

type fakeOutbox struct {
	mu      sync.Mutex
	records []ports.OutboxRecord
}

func (f *fakeOutbox) Enqueue(_ context.Context, record ports.OutboxRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return nil
}

func (f *fakeOutbox) ListUnpublished(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ports.OutboxRecord, 0)
	for _, record := range f.records {
		if record.PublishedAt == nil && len(out) < limit {
			out = append(out, record)
		}
	}
	return out, nil
}

func (f *fakeOutbox) MarkPublished(_ context.Context, outboxID uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, record := range f.records {
		if record.OutboxID == outboxID {
			published := at
			f.records[i].PublishedAt = &published
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeOutbox) MarkFailed(_ context.Context, outboxID uuid.UUID, reason string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, record := range f.records {
		if record.OutboxID == outboxID {
			f.records[i].RetryCount++
			f.records[i].LastError = &reason
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeOutbox) eventTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.records))
	for _, record := range f.records {
		out = append(out, record.EventType)
	}
	return out
}

type fixture struct {
	service  *application.Service
	accounts *fakeAccounts
	rules    *fakeRules
	ledger   *fakeLedger
	seen     *fakeSeen
	cycles   *fakeCycles
	graph    *fakeGraph
	outbox   *fakeOutbox
}

func newFixture() *fixture {
	rules := &fakeRules{}
	accounts := &fakeAccounts{byID: map[uuid.UUID]domain.InstagramAccount{}, rules: rules}
	rules.accounts = accounts
	ledger := &fakeLedger{rows: map[string]domain.ProcessedComment{}}
	seen := &fakeSeen{items: map[string]bool{}}
	cycles := &fakeCycles{}
	graph := &fakeGraph{
		profiles: map[string]ports.Profile{},
		media:    map[string][]ports.Media{},
		comments: map[string][]ports.Comment{},
		mediaErr: map[string]error{},
	}
	outbox := &fakeOutbox{}

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			RecentMediaCount: 5,
			SeenCacheTTL:     time.Hour,
		},
		Accounts: accounts,
		Rules:    rules,
		Ledger:   ledger,
		Seen:     seen,
		Cycles:   cycles,
		Graph:    graph,
		Outbox:   outbox,
	})

	return &fixture{
		service:  svc,
		accounts: accounts,
		rules:    rules,
		ledger:   ledger,
		seen:     seen,
		cycles:   cycles,
		graph:    graph,
		outbox:   outbox,
	}
}

func (f *fixture) addAccount(userID, instagramUserID string) domain.InstagramAccount {
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
	return row
}

func (f *fixture) addRule(accountID uuid.UUID, keywords []string, message string, createdAt time.Time) domain.AutomationRule {
	row := domain.AutomationRule{
		RuleID:      uuid.New(),
		AccountID:   accountID,
		TriggerType: domain.TriggerCommentOnPost,
		Keywords:    keywords,
		DMMessage:   message,
		IsActive:    true,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	f.rules.items = append(f.rules.items, row)
	return row
}
