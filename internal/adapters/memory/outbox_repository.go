package memory

import (
	"context"
	"time"

	"github.com/fraudshield/screening/internal/domain"
	"github.com/fraudshield/screening/internal/ports"
	"github.com/google/uuid"
)

type OutboxRepository struct {
	store *store
}

func (r *OutboxRepository) ClaimUnpublished(_ context.Context, limit int, claimToken string, claimUntil time.Time) ([]ports.OutboxRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	out := make([]ports.OutboxRecord, 0)
	for _, rec := range r.store.outbox {
		if len(out) >= limit {
			break
		}
		if rec.PublishedAt != nil || rec.DeadLetteredAt != nil {
			continue
		}
		if rec.ClaimUntil != nil && rec.ClaimUntil.After(now) {
			continue
		}
		token := claimToken
		until := claimUntil
		rec.ClaimToken = &token
		rec.ClaimUntil = &until
		out = append(out, *rec)
	}
	return out, nil
}

func (r *OutboxRepository) MarkPublished(_ context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error {
	return r.update(outboxID, claimToken, func(rec *ports.OutboxRecord) {
		rec.PublishedAt = &at
	})
}

func (r *OutboxRepository) MarkFailed(_ context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error {
	return r.update(outboxID, claimToken, func(rec *ports.OutboxRecord) {
		rec.RetryCount++
		rec.LastError = &errMsg
		rec.LastErrorAt = &at
	})
}

func (r *OutboxRepository) MarkDeadLettered(_ context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error {
	return r.update(outboxID, claimToken, func(rec *ports.OutboxRecord) {
		rec.RetryCount++
		rec.LastError = &errMsg
		rec.LastErrorAt = &at
		rec.DeadLetteredAt = &at
	})
}

// Records returns a snapshot of every outbox record in insertion order.
func (r *OutboxRepository) Records() []ports.OutboxRecord {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := make([]ports.OutboxRecord, 0, len(r.store.outbox))
	for _, rec := range r.store.outbox {
		out = append(out, *rec)
	}
	return out
}

func (r *OutboxRepository) update(outboxID uuid.UUID, claimToken string, apply func(*ports.OutboxRecord)) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, rec := range r.store.outbox {
		if rec.OutboxID != outboxID {
			continue
		}
		if rec.ClaimToken == nil || *rec.ClaimToken != claimToken {
			return domain.ErrNotFound
		}
		apply(rec)
		rec.ClaimToken = nil
		rec.ClaimUntil = nil
		return nil
	}
	return domain.ErrNotFound
}

var _ ports.OutboxRepository = (*OutboxRepository)(nil)
