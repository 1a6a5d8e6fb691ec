package application

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/ports"
)

type Config struct {
	ServiceName      string
	Version          string
	RecentMediaCount int
	SeenCacheTTL     time.Duration
}

// Actor is the authenticated caller extracted by the HTTP middleware.
type Actor struct {
	SubjectID string
	Role      string
	RequestID string
}

type LinkAccountInput struct {
	InstagramUserID string
	AccessToken     string
}

type CreateRuleInput struct {
	AccountID   uuid.UUID
	TriggerType string
	Keywords    []string
	DMMessage   string
	IsActive    bool
}

type UpdateRuleInput struct {
	Keywords  []string
	DMMessage string
	IsActive  *bool
}

// ProcessResult is the terminal outcome of one engine invocation.
type ProcessResult struct {
	Processed     bool
	DMSent        bool
	Reason        string
	TriggeredRule *uuid.UUID
	DispatchError string
}

type Service struct {
	cfg Config

	accounts ports.AccountRepository
	rules    ports.RuleRepository
	ledger   ports.CommentLedger
	seen     ports.SeenCommentCache
	cycles   ports.CycleStatusStore
	graph    ports.SocialGraphClient
	outbox   ports.OutboxRepository

	reconciling atomic.Bool
	startedAt   time.Time
	nowFn       func() time.Time
}

type Dependencies struct {
	Config Config

	Accounts ports.AccountRepository
	Rules    ports.RuleRepository
	Ledger   ports.CommentLedger
	Seen     ports.SeenCommentCache
	Cycles   ports.CycleStatusStore
	Graph    ports.SocialGraphClient
	Outbox   ports.OutboxRepository
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "M31-Comment-Automation-Service"
	}
	if cfg.Version == "" {
		cfg.Version = "0.1.0"
	}
	if cfg.RecentMediaCount <= 0 {
		cfg.RecentMediaCount = 5
	}
	if cfg.SeenCacheTTL <= 0 {
		cfg.SeenCacheTTL = 24 * time.Hour
	}
	return &Service{
		cfg:       cfg,
		accounts:  deps.Accounts,
		rules:     deps.Rules,
		ledger:    deps.Ledger,
		seen:      deps.Seen,
		cycles:    deps.Cycles,
		graph:     deps.Graph,
		outbox:    deps.Outbox,
		startedAt: time.Now().UTC(),
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}
