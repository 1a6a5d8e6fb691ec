package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/domain"
)

// ReconcilerWorker drives the polling fallback on a fixed interval. The
// service's own cycle guard handles overlap with manual triggers, so a
// skipped tick is normal operation, not an error.
type ReconcilerWorker struct {
	service  *application.Service
	interval time.Duration
}

func NewReconcilerWorker(service *application.Service, interval time.Duration) *ReconcilerWorker {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	return &ReconcilerWorker{service: service, interval: interval}
}

// Run blocks until ctx is cancelled.
func (w *ReconcilerWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.Default().InfoContext(ctx, "reconciler worker started",
		"module", "events",
		"layer", "worker",
		"operation", "run_reconciler",
		"interval", w.interval.String(),
	)
	for {
		select {
		case <-ctx.Done():
			slog.Default().InfoContext(ctx, "reconciler worker stopped",
				"module", "events",
				"layer", "worker",
				"operation", "run_reconciler",
			)
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *ReconcilerWorker) tick(ctx context.Context) {
	if _, err := w.service.RunReconcileCycle(ctx); err != nil {
		if errors.Is(err, domain.ErrCycleRunning) {
			slog.Default().InfoContext(ctx, "reconcile tick skipped",
				"module", "events",
				"layer", "worker",
				"operation", "tick",
				"outcome", "skipped",
			)
			return
		}
		slog.Default().ErrorContext(ctx, "reconcile cycle failed",
			"module", "events",
			"layer", "worker",
			"operation", "tick",
			"outcome", "failure",
			"error", err,
		)
	}
}
