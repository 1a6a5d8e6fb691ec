package domain

// Domain events emitted through the outbox after an engine invocation
// reaches a terminal state.
const (
	EventCommentProcessed = "automation.comment.processed"
	EventDMSent           = "automation.dm.sent"
)
