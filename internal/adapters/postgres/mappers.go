package postgres

import (
	"encoding/json"
	"errors"

	"github.com/fraudshield/screening/internal/domain"
	"github.com/fraudshield/screening/internal/ports"
	"gorm.io/gorm"
)

func toDomainCredential(row credentialModel) domain.Credential {
	return domain.Credential{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func toResultModel(r domain.FraudResult) fraudResultModel {
	return fraudResultModel{
		ID:              r.ID,
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

func toDomainResult(row fraudResultModel) domain.FraudResult {
	return domain.FraudResult{
		ID:              row.ID,
		TransactionID:   row.TransactionID,
		CardNumber:      row.CardNumber,
		Amount:          row.Amount,
		Merchant:        row.Merchant,
		Location:        row.Location,
		Fraudulent:      row.Fraudulent,
		ConfidenceScore: row.ConfidenceScore,
		Status:          domain.VerdictStatus(row.Status),
		RecordedBy:      row.RecordedBy,
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
}

func toOutboxModel(event ports.OutboxEvent) outboxModel {
	payload := event.Payload
	if len(payload) == 0 {
		payload = []byte(`{}`)
	}
	return outboxModel{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      string(payload),
		CreatedAt:    event.OccurredAt,
	}
}

func toOutboxRecord(row outboxModel) ports.OutboxRecord {
	return ports.OutboxRecord{
		OutboxID:       row.OutboxID,
		EventType:      row.EventType,
		PartitionKey:   row.PartitionKey,
		Payload:        []byte(row.Payload),
		RetryCount:     row.RetryCount,
		LastError:      row.LastError,
		CreatedAt:      row.CreatedAt,
		PublishedAt:    row.PublishedAt,
		LastErrorAt:    row.LastErrorAt,
		ClaimToken:     row.ClaimToken,
		ClaimUntil:     row.ClaimUntil,
		DeadLetteredAt: row.DeadLetteredAt,
	}
}

// patchPayload sets key in a JSON object payload, leaving non-object payloads untouched.
func patchPayload(payload []byte, key string, value any) []byte {
	var obj map[string]any
	if err := json.Unmarshal(payload, &obj); err != nil || obj == nil {
		return payload
	}
	obj[key] = value
	adjusted, err := json.Marshal(obj)
	if err != nil {
		return payload
	}
	return adjusted
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
