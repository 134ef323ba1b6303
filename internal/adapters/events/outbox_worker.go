package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/fraudshield/screening/internal/metrics"
	"github.com/fraudshield/screening/internal/ports"
	"github.com/google/uuid"
)

// OutboxWorker claims unpublished outbox records and hands them to the publisher.
type OutboxWorker struct {
	logger     *slog.Logger
	outbox     ports.OutboxRepository
	publisher  ports.EventPublisher
	interval   time.Duration
	batchSize  int
	claimTTL   time.Duration
	maxRetries int
	nowFn      func() time.Time
}

func NewOutboxWorker(
	logger *slog.Logger,
	outbox ports.OutboxRepository,
	publisher ports.EventPublisher,
	interval time.Duration,
	batchSize int,
	claimTTL time.Duration,
	maxRetries int,
) *OutboxWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if claimTTL <= 0 {
		claimTTL = 30 * time.Second
	}
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &OutboxWorker{
		logger:     logger,
		outbox:     outbox,
		publisher:  publisher,
		interval:   interval,
		batchSize:  batchSize,
		claimTTL:   claimTTL,
		maxRetries: maxRetries,
		nowFn:      func() time.Time { return time.Now().UTC() },
	}
}

// Run drains the outbox every interval until ctx is cancelled.
func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.ProcessOnce(ctx); err != nil {
			w.logger.ErrorContext(ctx, "outbox iteration failed",
				"module", "events.outbox_worker",
				"layer", "adapter",
				"operation", "outbox_process_once",
				"outcome", "failure",
				"error", err,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// BatchStats counts what one ProcessOnce pass did with its claimed records.
type BatchStats struct {
	Claimed      int
	Published    int
	Failed       int
	DeadLettered int
}

// ProcessOnce claims one batch and publishes it. A record whose publish fails
// maxRetries times is dead-lettered instead of retried.
func (w *OutboxWorker) ProcessOnce(ctx context.Context) (BatchStats, error) {
	claimToken := uuid.NewString()
	records, err := w.outbox.ClaimUnpublished(ctx, w.batchSize, claimToken, w.nowFn().Add(w.claimTTL))
	if err != nil {
		return BatchStats{}, err
	}

	stats := BatchStats{Claimed: len(records)}
	for _, rec := range records {
		now := w.nowFn()
		if rec.RetryCount >= w.maxRetries {
			stats.DeadLettered++
			w.mark(ctx, "dead_lettered", w.outbox.MarkDeadLettered(ctx, rec.OutboxID, claimToken, "retry threshold reached before publish", now), rec)
			continue
		}

		if err := w.publisher.Publish(ctx, rec.EventType, rec.PartitionKey, rec.Payload); err != nil {
			stats.Failed++
			retriesAfterFailure := rec.RetryCount + 1
			if retriesAfterFailure >= w.maxRetries {
				stats.DeadLettered++
				w.logger.ErrorContext(ctx, "outbox message moved to dlq",
					"module", "events.outbox_worker",
					"layer", "adapter",
					"operation", "publish_event",
					"outcome", "failure",
					"outbox_id", rec.OutboxID,
					"event_type", rec.EventType,
					"retry_count", retriesAfterFailure,
					"error", err,
				)
				w.mark(ctx, "dead_lettered", w.outbox.MarkDeadLettered(ctx, rec.OutboxID, claimToken, err.Error(), now), rec)
				continue
			}

			w.logger.WarnContext(ctx, "outbox publish failed; retry scheduled",
				"module", "events.outbox_worker",
				"layer", "adapter",
				"operation", "publish_event",
				"outcome", "failure",
				"outbox_id", rec.OutboxID,
				"event_type", rec.EventType,
				"retry_count", retriesAfterFailure,
				"error", err,
			)
			w.mark(ctx, "failed", w.outbox.MarkFailed(ctx, rec.OutboxID, claimToken, err.Error(), now), rec)
			continue
		}
		stats.Published++
		w.mark(ctx, "published", w.outbox.MarkPublished(ctx, rec.OutboxID, claimToken, now), rec)
	}
	if len(records) > 0 {
		w.logger.InfoContext(ctx, "outbox batch processed",
			"module", "events.outbox_worker",
			"layer", "adapter",
			"operation", "outbox_process_once",
			"outcome", "success",
			"batch_size", stats.Claimed,
			"published_count", stats.Published,
			"failed_count", stats.Failed,
			"dead_lettered_count", stats.DeadLettered,
		)
	}
	return stats, nil
}

// mark records the outcome metric; a lost lease is logged and left for the next claimant.
func (w *OutboxWorker) mark(ctx context.Context, outcome string, err error, rec ports.OutboxRecord) {
	if err != nil {
		w.logger.WarnContext(ctx, "outbox state update failed",
			"module", "events.outbox_worker",
			"layer", "adapter",
			"operation", "mark_"+outcome,
			"outcome", "failure",
			"outbox_id", rec.OutboxID,
			"error", err,
		)
		return
	}
	metrics.OutboxEventsTotal.WithLabelValues(outcome).Inc()
}
