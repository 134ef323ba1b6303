package application

import (
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/fraudshield/screening/internal/domain"
)

const serviceName = "fraudshield-screening"

func appLogger() *slog.Logger {
	return slog.Default().With(
		"service", serviceName,
		"module", "application",
		"layer", "application",
	)
}

// normalizeEmail canonicalizes and validates email format before persistence/comparison.
func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	return trimmed, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// parseTimestamp accepts RFC 3339 and zone-less ISO-8601 local date-times.
// Zone-less values are read as UTC.
func parseTimestamp(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			utc := t.UTC()
			return &utc, nil
		}
	}
	return nil, fmt.Errorf("%w: timestamp must be ISO-8601", domain.ErrInvalidInput)
}

func toVerdictResponse(v domain.Verdict) VerdictResponse {
	return VerdictResponse{
		TransactionID:   v.TransactionID,
		Fraudulent:      v.Fraudulent,
		ConfidenceScore: v.ConfidenceScore,
		Status:          string(v.Status),
	}
}

func toResultResponse(r domain.FraudResult) ResultResponse {
	return ResultResponse{
		ID:              r.ID.String(),
		TransactionID:   r.TransactionID,
		CardNumber:      r.CardNumber,
		Amount:          r.Amount,
		Merchant:        r.Merchant,
		Location:        r.Location,
		Fraudulent:      r.Fraudulent,
		ConfidenceScore: r.ConfidenceScore,
		Status:          string(r.Status),
		RecordedBy:      r.RecordedBy,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}
