package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fraudshield/screening/internal/domain"
	"github.com/fraudshield/screening/internal/metrics"
	"github.com/fraudshield/screening/internal/ports"
)

// Analyze screens one transaction against the remote scoring engine.
//
// Failures the engine adapter classifies (timeout, connection, protocol, decode) are absorbed
// into a PENDING verdict so the caller always receives an answer. Unclassified adapter errors
// are local defects and are returned.
func (s *Service) Analyze(ctx context.Context, actor Actor, req AnalyzeRequest) (VerdictResponse, error) {
	txn, err := transactionFromAnalyze(req)
	if err != nil {
		return VerdictResponse{}, err
	}

	start := time.Now()
	resp, err := s.scoring.PredictFraud(ctx, ports.ScoringRequest{
		TransactionID: txn.TransactionID,
		CardNumber:    txn.CardNumber,
		Amount:        txn.Amount,
		Merchant:      txn.Merchant,
		Location:      txn.Location,
	})
	metrics.ScoringCallDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if !errors.Is(err, ports.ErrScoringUnavailable) {
			return VerdictResponse{}, fmt.Errorf("predict fraud: %w", err)
		}
		kind := failureKind(err)
		metrics.ScoringFallbackTotal.WithLabelValues(string(kind)).Inc()
		verdict := domain.PendingVerdict(txn.TransactionID)
		metrics.ScoringVerdictsTotal.WithLabelValues(string(verdict.Status)).Inc()
		appLogger().WarnContext(ctx, "scoring engine unavailable; returning pending verdict",
			"operation", "analyze_transaction",
			"outcome", "fallback",
			"failure_kind", string(kind),
			"transaction_id", txn.TransactionID,
			"card", domain.MaskCardNumber(txn.CardNumber),
			"subject_id", actor.SubjectID,
			"metric_name", "scoring_fallback_total",
			"metric_value", 1,
			"error", err,
		)
		return toVerdictResponse(verdict), nil
	}

	verdict := domain.Verdict{
		TransactionID:   txn.TransactionID,
		Fraudulent:      resp.Fraudulent,
		ConfidenceScore: resp.ConfidenceScore,
		Status:          domain.StatusFor(resp.Fraudulent),
	}
	metrics.ScoringVerdictsTotal.WithLabelValues(string(verdict.Status)).Inc()
	appLogger().InfoContext(ctx, "transaction scored",
		"operation", "analyze_transaction",
		"outcome", "success",
		"transaction_id", verdict.TransactionID,
		"status", string(verdict.Status),
		"confidence_score", verdict.ConfidenceScore,
		"subject_id", actor.SubjectID,
	)
	return toVerdictResponse(verdict), nil
}

func transactionFromAnalyze(req AnalyzeRequest) (domain.Transaction, error) {
	ts, err := parseTimestamp(req.Timestamp)
	if err != nil {
		return domain.Transaction{}, err
	}
	txn := domain.Transaction{
		TransactionID: strings.TrimSpace(req.TransactionID),
		CardNumber:    req.CardNumber,
		Amount:        req.Amount,
		Merchant:      req.Merchant,
		Location:      req.Location,
		Timestamp:     ts,
	}
	if err := txn.Validate(); err != nil {
		return domain.Transaction{}, err
	}
	return txn, nil
}

func failureKind(err error) ports.ScoringFailureKind {
	var failure *ports.ScoringFailure
	if errors.As(err, &failure) {
		return failure.Kind
	}
	return ports.ScoringFailureProtocol
}
