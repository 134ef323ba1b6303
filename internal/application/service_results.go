package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fraudshield/screening/internal/domain"
	"github.com/fraudshield/screening/internal/metrics"
	"github.com/fraudshield/screening/internal/ports"
	"github.com/google/uuid"
)

// SaveResult upserts the verdict for a transaction id and records a fraud.result.recorded event.
func (s *Service) SaveResult(ctx context.Context, actor Actor, req SaveResultRequest) (ResultResponse, error) {
	txn := domain.Transaction{
		TransactionID: strings.TrimSpace(req.TransactionID),
		CardNumber:    req.CardNumber,
		Amount:        req.Amount,
		Merchant:      req.Merchant,
		Location:      req.Location,
	}
	if err := txn.Validate(); err != nil {
		return ResultResponse{}, err
	}

	status := domain.StoredStatusFor(req.Fraudulent)
	if strings.TrimSpace(req.Status) != "" {
		parsed, err := domain.ParseVerdictStatus(req.Status)
		if err != nil {
			return ResultResponse{}, err
		}
		status = parsed
	}

	now := s.nowFn()
	result := domain.FraudResult{
		ID:              uuid.New(),
		TransactionID:   txn.TransactionID,
		CardNumber:      txn.CardNumber,
		Amount:          txn.Amount,
		Merchant:        txn.Merchant,
		Location:        txn.Location,
		Fraudulent:      req.Fraudulent,
		ConfidenceScore: req.ConfidenceScore,
		Status:          status,
		RecordedBy:      actor.SubjectID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	payload, err := json.Marshal(map[string]any{
		"result_id":        result.ID.String(),
		"transaction_id":   result.TransactionID,
		"card":             domain.MaskCardNumber(result.CardNumber),
		"amount":           result.Amount,
		"fraudulent":       result.Fraudulent,
		"confidence_score": result.ConfidenceScore,
		"status":           string(result.Status),
		"recorded_by":      result.RecordedBy,
		"recorded_at":      now,
	})
	if err != nil {
		return ResultResponse{}, fmt.Errorf("encode result event: %w", err)
	}

	saved, err := s.results.UpsertWithOutboxTx(ctx, result, ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventTypeResultRecorded,
		PartitionKey: result.TransactionID,
		Payload:      payload,
		OccurredAt:   now,
	})
	if err != nil {
		return ResultResponse{}, fmt.Errorf("save result: %w", err)
	}

	s.cacheResult(ctx, saved)
	appLogger().InfoContext(ctx, "fraud result saved",
		"operation", "save_result",
		"outcome", "success",
		"result_id", saved.ID.String(),
		"transaction_id", saved.TransactionID,
		"status", string(saved.Status),
		"subject_id", actor.SubjectID,
	)
	return toResultResponse(saved), nil
}

// GetResult returns the record for a transaction id or domain.ErrNotFound.
func (s *Service) GetResult(ctx context.Context, actor Actor, transactionID string) (ResultResponse, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return ResultResponse{}, fmt.Errorf("%w: transactionId is required", domain.ErrInvalidInput)
	}

	cached, found, err := s.resultCache.Get(ctx, transactionID)
	switch {
	case err != nil:
		metrics.ResultCacheLookupsTotal.WithLabelValues("error").Inc()
		appLogger().WarnContext(ctx, "result cache lookup failed",
			"operation", "get_result",
			"outcome", "degraded",
			"transaction_id", transactionID,
			"error", err,
		)
	case found:
		metrics.ResultCacheLookupsTotal.WithLabelValues("hit").Inc()
		return toResultResponse(cached), nil
	default:
		metrics.ResultCacheLookupsTotal.WithLabelValues("miss").Inc()
	}

	result, err := s.results.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return ResultResponse{}, err
	}
	s.cacheResult(ctx, result)
	appLogger().DebugContext(ctx, "fraud result loaded",
		"operation", "get_result",
		"outcome", "success",
		"transaction_id", transactionID,
		"subject_id", actor.SubjectID,
	)
	return toResultResponse(result), nil
}

// ListResults enumerates every stored record in creation order.
func (s *Service) ListResults(ctx context.Context, actor Actor) ([]ResultResponse, error) {
	items, err := s.results.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	out := make([]ResultResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toResultResponse(item))
	}
	appLogger().DebugContext(ctx, "fraud results listed",
		"operation", "list_results",
		"outcome", "success",
		"count", len(out),
		"subject_id", actor.SubjectID,
	)
	return out, nil
}

func (s *Service) cacheResult(ctx context.Context, result domain.FraudResult) {
	if err := s.resultCache.Put(ctx, result); err != nil {
		appLogger().WarnContext(ctx, "result cache write failed",
			"operation", "cache_result",
			"outcome", "failure",
			"transaction_id", result.TransactionID,
			"error", err,
		)
	}
}
