package ports

import "context"

// EventPublisher delivers outbox payloads to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, partitionKey string, payload []byte) error
}
