package application

import (
	"context"
	"log/slog"

	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/domain"
)

// RunReconcileCycle re-derives comment events for every account with at
// least one active rule, as a completeness backstop for missed or delayed
// webhooks. Only one cycle runs at a time; a call arriving while a cycle is
// in flight — an overlapping scheduled tick or a manual trigger — returns
// domain.ErrCycleRunning and does no work. Overlap with the webhook path on
// already-seen comments is expected and absorbed by the ledger.
func (s *Service) RunReconcileCycle(ctx context.Context) (domain.CycleReport, error) {
	if !s.reconciling.CompareAndSwap(false, true) {
		return domain.CycleReport{}, domain.ErrCycleRunning
	}
	defer s.reconciling.Store(false)

	report := domain.CycleReport{StartedAt: s.nowFn()}

	accounts, err := s.accounts.ListWithActiveRules(ctx)
	if err != nil {
		return domain.CycleReport{}, err
	}

	for _, account := range accounts {
		report.AccountsChecked++
		s.reconcileAccount(ctx, account, &report)
	}

	report.FinishedAt = s.nowFn()
	if s.cycles != nil {
		_ = s.cycles.SetLastCycle(ctx, report)
	}
	slog.Default().InfoContext(ctx, "reconcile cycle completed",
		"module", "application.reconciler",
		"layer", "application",
		"operation", "run_reconcile_cycle",
		"outcome", "success",
		"accounts_checked", report.AccountsChecked,
		"comments_seen", report.CommentsSeen,
		"dms_sent", report.DMsSent,
		"errors", report.Errors,
	)
	return report, nil
}

// ReconcileStatus reports whether a cycle is in flight plus the last report.
func (s *Service) ReconcileStatus(ctx context.Context) (bool, domain.CycleReport, bool) {
	running := s.reconciling.Load()
	if s.cycles == nil {
		return running, domain.CycleReport{}, false
	}
	report, ok, err := s.cycles.GetLastCycle(ctx)
	if err != nil {
		return running, domain.CycleReport{}, false
	}
	return running, report, ok
}

// reconcileAccount walks one account's recent media. Fetch failures are
// counted and logged but never abort the cycle for other accounts.
func (s *Service) reconcileAccount(ctx context.Context, account domain.InstagramAccount, report *domain.CycleReport) {
	media, err := s.graph.GetMedia(ctx, account.AccessToken, account.InstagramUserID, s.cfg.RecentMediaCount)
	if err != nil {
		report.Errors++
		slog.Default().WarnContext(ctx, "media fetch failed during reconcile",
			"module", "application.reconciler",
			"layer", "application",
			"operation", "reconcile_account",
			"outcome", "failure",
			"account_id", account.AccountID.String(),
			"error", err,
		)
		return
	}

	for _, item := range media {
		comments, err := s.graph.GetComments(ctx, account.AccessToken, item.ID)
		if err != nil {
			report.Errors++
			slog.Default().WarnContext(ctx, "comment fetch failed during reconcile",
				"module", "application.reconciler",
				"layer", "application",
				"operation", "reconcile_account",
				"outcome", "failure",
				"account_id", account.AccountID.String(),
				"media_id", item.ID,
				"error", err,
			)
			continue
		}

		for _, comment := range comments {
			report.CommentsSeen++
			result, err := s.ProcessComment(ctx, domain.CommentEvent{
				AccountID:   account.AccountID,
				MediaID:     item.ID,
				CommentID:   comment.ID,
				CommenterID: comment.FromID,
				Text:        comment.Text,
				ObservedAt:  comment.Timestamp,
			})
			if err != nil {
				report.Errors++
				continue
			}
			if result.DMSent {
				report.DMsSent++
			}
		}
	}
}
