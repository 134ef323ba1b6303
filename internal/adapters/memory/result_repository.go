package memory

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/fraudshield/screening/internal/domain"
	"github.com/fraudshield/screening/internal/ports"
)

type ResultRepository struct {
	store *store
}

func (r *ResultRepository) UpsertWithOutboxTx(_ context.Context, result domain.FraudResult, outboxEvent ports.OutboxEvent) (domain.FraudResult, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if existing, ok := r.store.results[result.TransactionID]; ok {
		result.ID = existing.ID
		result.CreatedAt = existing.CreatedAt
	}
	r.store.results[result.TransactionID] = result
	outboxEvent.Payload = withResultID(outboxEvent.Payload, result)
	r.store.enqueueLocked(outboxEvent)
	return result, nil
}

func (r *ResultRepository) GetByTransactionID(_ context.Context, transactionID string) (domain.FraudResult, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	result, ok := r.store.results[transactionID]
	if !ok {
		return domain.FraudResult{}, domain.ErrNotFound
	}
	return result, nil
}

func (r *ResultRepository) List(_ context.Context) ([]domain.FraudResult, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	out := make([]domain.FraudResult, 0, len(r.store.results))
	for _, result := range r.store.results {
		out = append(out, result)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// withResultID rewrites result_id in an event payload to the stored record's id.
func withResultID(payload []byte, result domain.FraudResult) []byte {
	var obj map[string]any
	if err := json.Unmarshal(payload, &obj); err != nil || obj == nil {
		return payload
	}
	obj["result_id"] = result.ID.String()
	adjusted, err := json.Marshal(obj)
	if err != nil {
		return payload
	}
	return adjusted
}

var _ ports.ResultRepository = (*ResultRepository)(nil)
