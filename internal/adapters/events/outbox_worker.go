package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/ports"
)

// OutboxWorker drains the durable outbox into the broker on a fixed
// interval. Records that keep failing past maxRetries are left in place and
// logged; they stay visible for operators instead of being dropped.
type OutboxWorker struct {
	outbox     ports.OutboxRepository
	publisher  ports.EventPublisher
	interval   time.Duration
	batchSize  int
	maxRetries int
	nowFn      func() time.Time
}

type OutboxWorkerConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

func NewOutboxWorker(outbox ports.OutboxRepository, publisher ports.EventPublisher, cfg OutboxWorkerConfig) *OutboxWorker {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 10
	}
	return &OutboxWorker{
		outbox:     outbox,
		publisher:  publisher,
		interval:   cfg.Interval,
		batchSize:  cfg.BatchSize,
		maxRetries: cfg.MaxRetries,
		nowFn:      func() time.Time { return time.Now().UTC() },
	}
}

// Run blocks until ctx is cancelled.
func (w *OutboxWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.Default().InfoContext(ctx, "outbox worker started",
		"module", "events",
		"layer", "worker",
		"operation", "run_outbox",
		"interval", w.interval.String(),
	)
	for {
		w.processBatch(ctx)
		select {
		case <-ctx.Done():
			slog.Default().InfoContext(ctx, "outbox worker stopped",
				"module", "events",
				"layer", "worker",
				"operation", "run_outbox",
			)
			return
		case <-ticker.C:
		}
	}
}

func (w *OutboxWorker) processBatch(ctx context.Context) {
	records, err := w.outbox.ListUnpublished(ctx, w.batchSize)
	if err != nil {
		slog.Default().ErrorContext(ctx, "outbox listing failed",
			"module", "events",
			"layer", "worker",
			"operation", "process_batch",
			"outcome", "failure",
			"error", err,
		)
		return
	}

	for _, record := range records {
		if record.RetryCount >= w.maxRetries {
			slog.Default().WarnContext(ctx, "outbox event exhausted retries",
				"module", "events",
				"layer", "worker",
				"operation", "process_batch",
				"outcome", "abandoned",
				"outbox_id", record.OutboxID.String(),
				"event_type", record.EventType,
				"retry_count", record.RetryCount,
			)
			continue
		}
		if err := w.publisher.Publish(ctx, record.EventType, record.PartitionKey, record.Payload); err != nil {
			if markErr := w.outbox.MarkFailed(ctx, record.OutboxID, err.Error(), w.nowFn()); markErr != nil {
				slog.Default().ErrorContext(ctx, "outbox failure bookkeeping failed",
					"module", "events",
					"layer", "worker",
					"operation", "process_batch",
					"outcome", "failure",
					"outbox_id", record.OutboxID.String(),
					"error", markErr,
				)
			}
			continue
		}
		if err := w.outbox.MarkPublished(ctx, record.OutboxID, w.nowFn()); err != nil {
			slog.Default().ErrorContext(ctx, "outbox publish bookkeeping failed",
				"module", "events",
				"layer", "worker",
				"operation", "process_batch",
				"outcome", "failure",
				"outbox_id", record.OutboxID.String(),
				"error", err,
			)
		}
	}
}
