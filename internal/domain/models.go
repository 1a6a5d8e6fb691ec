package domain

import (
	"time"

	"github.com/google/uuid"
)

// TriggerCommentOnPost is the only trigger type currently supported by
// automation rules. The column exists so new trigger kinds (story mentions,
// live comments) can be added without a schema change.
const TriggerCommentOnPost = "comment_on_post"

const (
	ProcessedStatusReserved  = "reserved"
	ProcessedStatusProcessed = "processed"
)

// InstagramAccount is a linked external account. AccessToken is an opaque
// long-lived credential and must never appear in logs or API payloads.
type InstagramAccount struct {
	AccountID         uuid.UUID `json:"account_id"`
	UserID            string    `json:"user_id"`
	InstagramUserID   string    `json:"instagram_user_id"`
	Username          string    `json:"username"`
	ProfilePictureURL string    `json:"profile_picture_url,omitempty"`
	AccessToken       string    `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// AutomationRule is a keyword-triggered auto-reply configuration scoped to
// one linked account. An active rule always carries a non-empty keyword set.
type AutomationRule struct {
	RuleID       uuid.UUID `json:"rule_id"`
	AccountID    uuid.UUID `json:"account_id"`
	TriggerType  string    `json:"trigger_type"`
	Keywords     []string  `json:"keywords"`
	DMMessage    string    `json:"dm_message"`
	IsActive     bool      `json:"is_active"`
	TriggerCount int64     `json:"trigger_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CommentEvent is the normalized unit of work fed to the automation engine.
// CommentID is the platform-unique dedupe key; both discovery paths produce
// the same shape.
type CommentEvent struct {
	AccountID   uuid.UUID
	MediaID     string
	CommentID   string
	CommenterID string
	Text        string
	ObservedAt  time.Time
}

// ProcessedComment is the durable per-comment record anchoring the
// at-most-once guarantee: one row per external comment id, created by the
// ledger reservation before any dispatch is attempted.
type ProcessedComment struct {
	CommentID     string     `json:"comment_id"`
	AccountID     uuid.UUID  `json:"account_id"`
	MediaID       string     `json:"media_id"`
	CommenterID   string     `json:"commenter_id"`
	Text          string     `json:"text"`
	Status        string     `json:"status"`
	DMSent        bool       `json:"dm_sent"`
	RuleID        *uuid.UUID `json:"rule_id,omitempty"`
	DispatchError string     `json:"dispatch_error,omitempty"`
	ObservedAt    time.Time  `json:"observed_at"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
}

// AutomationStats aggregates per-user automation totals for the dashboard.
type AutomationStats struct {
	TotalRules        int64 `json:"total_rules"`
	ActiveRules       int64 `json:"active_rules"`
	ProcessedComments int64 `json:"processed_comments"`
	MessagesSent      int64 `json:"messages_sent"`
}

// CycleReport summarizes one reconcile cycle for logging and the status API.
type CycleReport struct {
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	AccountsChecked int       `json:"accounts_checked"`
	CommentsSeen    int       `json:"comments_seen"`
	DMsSent         int       `json:"dms_sent"`
	Errors          int       `json:"errors"`
}

type ComponentCheck struct {
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	LatencyMS   int       `json:"latency_ms"`
	LastChecked time.Time `json:"last_checked"`
}

type HealthReport struct {
	Status        string                    `json:"status"`
	Timestamp     time.Time                 `json:"timestamp"`
	UptimeSeconds int64                     `json:"uptime_seconds"`
	Version       string                    `json:"version"`
	Checks        map[string]ComponentCheck `json:"checks"`
}
