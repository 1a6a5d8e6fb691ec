package contracts

type SuccessResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type ErrorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorResponse struct {
	Status string       `json:"status"`
	Error  ErrorPayload `json:"error"`
}

type LinkAccountRequest struct {
	InstagramUserID string `json:"instagram_user_id"`
	AccessToken     string `json:"access_token"`
}

type AccountItem struct {
	AccountID         string `json:"account_id"`
	InstagramUserID   string `json:"instagram_user_id"`
	Username          string `json:"username"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
	CreatedAt         string `json:"created_at"`
}

type ListAccountsResponse struct {
	Accounts []AccountItem `json:"accounts"`
}

type MediaItem struct {
	MediaID   string `json:"media_id"`
	MediaType string `json:"media_type,omitempty"`
	MediaURL  string `json:"media_url,omitempty"`
	Caption   string `json:"caption,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

type ListMediaResponse struct {
	Media []MediaItem `json:"media"`
}

type CommentItem struct {
	CommentID string `json:"comment_id"`
	Text      string `json:"text"`
	FromID    string `json:"from_id"`
	FromName  string `json:"from_name,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

type ListCommentsResponse struct {
	Comments []CommentItem `json:"comments"`
}

type CreateRuleRequest struct {
	AccountID   string   `json:"account_id"`
	TriggerType string   `json:"trigger_type,omitempty"`
	Keywords    []string `json:"keywords"`
	DMMessage   string   `json:"dm_message"`
	IsActive    bool     `json:"is_active"`
}

type UpdateRuleRequest struct {
	Keywords  []string `json:"keywords,omitempty"`
	DMMessage string   `json:"dm_message,omitempty"`
	IsActive  *bool    `json:"is_active,omitempty"`
}

type RuleItem struct {
	RuleID       string   `json:"rule_id"`
	AccountID    string   `json:"account_id"`
	TriggerType  string   `json:"trigger_type"`
	Keywords     []string `json:"keywords"`
	DMMessage    string   `json:"dm_message"`
	IsActive     bool     `json:"is_active"`
	TriggerCount int64    `json:"trigger_count"`
	CreatedAt    string   `json:"created_at"`
}

type ListRulesResponse struct {
	Rules []RuleItem `json:"rules"`
}

type StatsResponse struct {
	TotalRules        int64 `json:"total_rules"`
	ActiveRules       int64 `json:"active_rules"`
	ProcessedComments int64 `json:"processed_comments"`
	MessagesSent      int64 `json:"messages_sent"`
}

type CycleReportPayload struct {
	StartedAt       string `json:"started_at"`
	FinishedAt      string `json:"finished_at"`
	AccountsChecked int    `json:"accounts_checked"`
	CommentsSeen    int    `json:"comments_seen"`
	DMsSent         int    `json:"dms_sent"`
	Errors          int    `json:"errors"`
}

type ReconcileStatusResponse struct {
	Running   bool                `json:"running"`
	LastCycle *CycleReportPayload `json:"last_cycle,omitempty"`
}

// WebhookPayload mirrors the Instagram webhook envelope for comment change
// notifications.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Time    int64           `json:"time"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string             `json:"field"`
	Value WebhookCommentData `json:"value"`
}

type WebhookCommentData struct {
	ID    string       `json:"id"`
	Text  string       `json:"text"`
	From  WebhookActor `json:"from"`
	Media WebhookMedia `json:"media"`
}

type WebhookActor struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
}

type WebhookMedia struct {
	ID string `json:"id"`
}
