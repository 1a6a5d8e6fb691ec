package unit

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/ports"
)

func TestCreateRuleValidation(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	account := f.addAccount("user-1", "ig-1")
	actor := application.Actor{SubjectID: "user-1", Role: "creator"}

	rule, err := f.service.CreateRule(ctx, actor, application.CreateRuleInput{
		AccountID: account.AccountID,
		Keywords:  []string{" Price ", "price", "INFO"},
		DMMessage: "Thanks for asking!",
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("create rule failed: %v", err)
	}
	if rule.TriggerType != domain.TriggerCommentOnPost {
		t.Fatalf("expected default trigger type, got %q", rule.TriggerType)
	}
	if !reflect.DeepEqual(rule.Keywords, []string{"Price", "INFO"}) {
		t.Fatalf("expected normalized keywords, got %v", rule.Keywords)
	}

	if _, err := f.service.CreateRule(ctx, actor, application.CreateRuleInput{
		AccountID: account.AccountID,
		Keywords:  []string{"", "   "},
		DMMessage: "hello",
		IsActive:  true,
	}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for active rule without keywords, got %v", err)
	}

	if _, err := f.service.CreateRule(ctx, actor, application.CreateRuleInput{
		AccountID: account.AccountID,
		Keywords:  []string{"price"},
		DMMessage: "   ",
		IsActive:  true,
	}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty dm message, got %v", err)
	}

	if _, err := f.service.CreateRule(ctx, actor, application.CreateRuleInput{
		AccountID:   account.AccountID,
		TriggerType: "story_mention",
		Keywords:    []string{"price"},
		DMMessage:   "hello",
		IsActive:    true,
	}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for unsupported trigger, got %v", err)
	}

	// Inactive rules may be created without keywords as drafts.
	if _, err := f.service.CreateRule(ctx, actor, application.CreateRuleInput{
		AccountID: account.AccountID,
		DMMessage: "draft reply",
		IsActive:  false,
	}); err != nil {
		t.Fatalf("draft rule creation failed: %v", err)
	}
}

func TestUpdateRuleTogglesAndValidates(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	account := f.addAccount("user-1", "ig-1")
	rule := f.addRule(account.AccountID, []string{"price"}, "Price reply", time.Now().UTC())
	actor := application.Actor{SubjectID: "user-1", Role: "creator"}

	inactive := false
	updated, err := f.service.UpdateRule(ctx, actor, rule.RuleID, application.UpdateRuleInput{IsActive: &inactive})
	if err != nil {
		t.Fatalf("update rule failed: %v", err)
	}
	if updated.IsActive {
		t.Fatalf("expected rule deactivated")
	}

	active := true
	if _, err := f.service.UpdateRule(ctx, actor, rule.RuleID, application.UpdateRuleInput{
		Keywords: []string{"", " "},
		IsActive: &active,
	}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input when activating without keywords, got %v", err)
	}
}

func TestRuleOwnershipEnforced(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	account := f.addAccount("owner", "ig-1")
	rule := f.addRule(account.AccountID, []string{"price"}, "Price reply", time.Now().UTC())

	stranger := application.Actor{SubjectID: "other-user", Role: "creator"}
	if _, err := f.service.UpdateRule(ctx, stranger, rule.RuleID, application.UpdateRuleInput{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for foreign rule, got %v", err)
	}
	if err := f.service.DeleteRule(ctx, stranger, rule.RuleID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for foreign delete, got %v", err)
	}

	admin := application.Actor{SubjectID: "ops", Role: "admin"}
	if err := f.service.DeleteRule(ctx, admin, rule.RuleID); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}
}

func TestGetStatsAggregatesLedgerCounts(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	account := f.addAccount("user-1", "ig-1")
	f.addRule(account.AccountID, []string{"price"}, "Price reply", time.Now().UTC())
	f.graph.media["ig-1"] = []ports.Media{{ID: "media-1"}}
	f.graph.comments["media-1"] = []ports.Comment{
		{ID: "c-1", Text: "price?", FromID: "u-1", Timestamp: time.Now().UTC()},
		{ID: "c-2", Text: "nice", FromID: "u-2", Timestamp: time.Now().UTC()},
	}
	if _, err := f.service.RunReconcileCycle(ctx); err != nil {
		t.Fatalf("reconcile cycle failed: %v", err)
	}

	stats, err := f.service.GetStats(ctx, application.Actor{SubjectID: "user-1", Role: "creator"})
	if err != nil {
		t.Fatalf("get stats failed: %v", err)
	}
	if stats.TotalRules != 1 || stats.ActiveRules != 1 {
		t.Fatalf("unexpected rule counts: %+v", stats)
	}
	if stats.ProcessedComments != 2 || stats.MessagesSent != 1 {
		t.Fatalf("unexpected ledger counts: %+v", stats)
	}
}

func TestLinkAccountRejectsDuplicatePlatformID(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.graph.profiles["ig-9"] = ports.Profile{ID: "ig-9", Username: "creator9"}
	actor := application.Actor{SubjectID: "user-1", Role: "creator"}

	linked, err := f.service.LinkAccount(ctx, actor, application.LinkAccountInput{
		InstagramUserID: "ig-9",
		AccessToken:     "token-9",
	})
	if err != nil {
		t.Fatalf("link account failed: %v", err)
	}
	if linked.Username != "creator9" {
		t.Fatalf("expected profile username captured, got %q", linked.Username)
	}

	if _, err := f.service.LinkAccount(ctx, application.Actor{SubjectID: "user-2", Role: "creator"}, application.LinkAccountInput{
		InstagramUserID: "ig-9",
		AccessToken:     "token-other",
	}); !errors.Is(err, domain.ErrAccountLinked) {
		t.Fatalf("expected account already linked, got %v", err)
	}
}
