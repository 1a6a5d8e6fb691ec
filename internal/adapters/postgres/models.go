package postgres

import (
	"time"

	"github.com/google/uuid"
)

type accountModel struct {
	AccountID         uuid.UUID `gorm:"column:account_id;type:uuid;primaryKey"`
	UserID            string    `gorm:"column:user_id"`
	InstagramUserID   string    `gorm:"column:instagram_user_id"`
	Username          string    `gorm:"column:username"`
	ProfilePictureURL string    `gorm:"column:profile_picture_url"`
	AccessToken       string    `gorm:"column:access_token"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (accountModel) TableName() string { return "instagram_accounts" }

type ruleModel struct {
	RuleID       uuid.UUID `gorm:"column:rule_id;type:uuid;primaryKey"`
	AccountID    uuid.UUID `gorm:"column:account_id"`
	TriggerType  string    `gorm:"column:trigger_type"`
	Keywords     string    `gorm:"column:keywords;type:jsonb"`
	DMMessage    string    `gorm:"column:dm_message"`
	IsActive     bool      `gorm:"column:is_active"`
	TriggerCount int64     `gorm:"column:trigger_count"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (ruleModel) TableName() string { return "auto_dm_rules" }

type processedCommentModel struct {
	CommentID     string     `gorm:"column:comment_id;primaryKey"`
	AccountID     uuid.UUID  `gorm:"column:account_id"`
	MediaID       string     `gorm:"column:media_id"`
	CommenterID   string     `gorm:"column:commenter_id"`
	CommentText   string     `gorm:"column:comment_text"`
	Status        string     `gorm:"column:status"`
	DMSent        bool       `gorm:"column:dm_sent"`
	RuleID        *uuid.UUID `gorm:"column:rule_id"`
	DispatchError *string    `gorm:"column:dispatch_error"`
	ObservedAt    time.Time  `gorm:"column:observed_at"`
	ProcessedAt   *time.Time `gorm:"column:processed_at"`
}

func (processedCommentModel) TableName() string { return "processed_comments" }

type outboxModel struct {
	OutboxID     uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      string     `gorm:"column:payload;type:jsonb"`
	RetryCount   int        `gorm:"column:retry_count"`
	LastError    *string    `gorm:"column:last_error"`
	LastFailedAt *time.Time `gorm:"column:last_failed_at"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string { return "automation_outbox" }
