package events

import (
	"context"
	"log/slog"

	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/ports"
)

// LoggingPublisher stands in for the broker in local runs without Kafka.
type LoggingPublisher struct{}

func NewLoggingPublisher() *LoggingPublisher {
	return &LoggingPublisher{}
}

func (p *LoggingPublisher) Publish(ctx context.Context, eventType, partitionKey string, payload []byte) error {
	slog.Default().InfoContext(ctx, "event published",
		"module", "events",
		"layer", "adapter",
		"operation", "publish",
		"outcome", "success",
		"event_type", eventType,
		"partition_key", partitionKey,
		"payload_bytes", len(payload),
	)
	return nil
}

var _ ports.EventPublisher = (*LoggingPublisher)(nil)
