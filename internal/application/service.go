package application

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/ports"
)

func (s *Service) LinkAccount(ctx context.Context, actor Actor, in LinkAccountInput) (domain.InstagramAccount, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.InstagramAccount{}, domain.ErrUnauthorized
	}
	in.InstagramUserID = strings.TrimSpace(in.InstagramUserID)
	in.AccessToken = strings.TrimSpace(in.AccessToken)
	if in.InstagramUserID == "" || in.AccessToken == "" {
		return domain.InstagramAccount{}, domain.ErrInvalidInput
	}

	if _, err := s.accounts.GetByInstagramUserID(ctx, in.InstagramUserID); err == nil {
		return domain.InstagramAccount{}, domain.ErrAccountLinked
	}

	profile, err := s.graph.GetProfile(ctx, in.AccessToken, in.InstagramUserID)
	if err != nil {
		return domain.InstagramAccount{}, err
	}

	now := s.nowFn()
	row := domain.InstagramAccount{
		AccountID:         uuid.New(),
		UserID:            strings.TrimSpace(actor.SubjectID),
		InstagramUserID:   in.InstagramUserID,
		Username:          profile.Username,
		ProfilePictureURL: profile.ProfilePictureURL,
		AccessToken:       in.AccessToken,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.accounts.Create(ctx, row); err != nil {
		return domain.InstagramAccount{}, err
	}
	return row, nil
}

func (s *Service) ListAccounts(ctx context.Context, actor Actor) ([]domain.InstagramAccount, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.accounts.ListByUserID(ctx, strings.TrimSpace(actor.SubjectID))
}

func (s *Service) UnlinkAccount(ctx context.Context, actor Actor, accountID uuid.UUID) error {
	account, err := s.ownedAccount(ctx, actor, accountID)
	if err != nil {
		return err
	}
	return s.accounts.Delete(ctx, account.AccountID)
}

func (s *Service) ListAccountMedia(ctx context.Context, actor Actor, accountID uuid.UUID) ([]ports.Media, error) {
	account, err := s.ownedAccount(ctx, actor, accountID)
	if err != nil {
		return nil, err
	}
	return s.graph.GetMedia(ctx, account.AccessToken, account.InstagramUserID, s.cfg.RecentMediaCount)
}

func (s *Service) ListMediaComments(ctx context.Context, actor Actor, accountID uuid.UUID, mediaID string) ([]ports.Comment, error) {
	account, err := s.ownedAccount(ctx, actor, accountID)
	if err != nil {
		return nil, err
	}
	mediaID = strings.TrimSpace(mediaID)
	if mediaID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.graph.GetComments(ctx, account.AccessToken, mediaID)
}

func (s *Service) GetHealth(context.Context) (domain.HealthReport, error) {
	now := s.nowFn()
	return domain.HealthReport{
		Status:        "healthy",
		Timestamp:     now,
		UptimeSeconds: int64(now.Sub(s.startedAt).Seconds()),
		Version:       s.cfg.Version,
		Checks: map[string]domain.ComponentCheck{
			"comment_ledger": {Name: "comment_ledger", Status: "healthy", LatencyMS: 2, LastChecked: now},
			"graph_api":      {Name: "graph_api", Status: "healthy", LatencyMS: 40, LastChecked: now},
			"reconciler":     {Name: "reconciler", Status: "healthy", LatencyMS: 1, LastChecked: now},
		},
	}, nil
}

func (s *Service) RecordHTTPMetric(context.Context, string, string, int, time.Duration) {}

// ownedAccount loads an account and enforces that the actor owns it. Admin
// and system roles may act on any account.
func (s *Service) ownedAccount(ctx context.Context, actor Actor, accountID uuid.UUID) (domain.InstagramAccount, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.InstagramAccount{}, domain.ErrUnauthorized
	}
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return domain.InstagramAccount{}, err
	}
	if !canActForUser(actor, account.UserID) {
		return domain.InstagramAccount{}, domain.ErrNotFound
	}
	return account, nil
}

func canActForUser(actor Actor, userID string) bool {
	if strings.TrimSpace(actor.SubjectID) == strings.TrimSpace(userID) {
		return true
	}
	role := strings.ToLower(strings.TrimSpace(actor.Role))
	return role == "admin" || role == "system"
}
