package postgres

import (
	"context"
	"errors"

	"github.com/fraudshield/screening/internal/domain"
	"github.com/fraudshield/screening/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type resultRepository struct {
	db *gorm.DB
}

// upsertColumns are replaced on conflict; id and created_at keep their first-save values.
var upsertColumns = []string{
	"card_number",
	"amount",
	"merchant",
	"location",
	"fraudulent",
	"confidence_score",
	"status",
	"recorded_by",
	"updated_at",
}

func resultUpsertClause() clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "transaction_id"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}
}

func (r *resultRepository) UpsertWithOutboxTx(ctx context.Context, result domain.FraudResult, outboxEvent ports.OutboxEvent) (domain.FraudResult, error) {
	var saved domain.FraudResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := toResultModel(result)
		if err := tx.Clauses(resultUpsertClause()).Create(&rec).Error; err != nil {
			return err
		}

		var stored fraudResultModel
		if err := tx.Where("transaction_id = ?", result.TransactionID).Take(&stored).Error; err != nil {
			return err
		}

		outbox := toOutboxModel(outboxEvent)
		outbox.Payload = string(patchPayload([]byte(outbox.Payload), "result_id", stored.ID.String()))
		if err := tx.Create(&outbox).Error; err != nil {
			return err
		}
		saved = toDomainResult(stored)
		return nil
	})
	if err != nil {
		return domain.FraudResult{}, err
	}
	return saved, nil
}

func (r *resultRepository) GetByTransactionID(ctx context.Context, transactionID string) (domain.FraudResult, error) {
	var rec fraudResultModel
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.FraudResult{}, domain.ErrNotFound
		}
		return domain.FraudResult{}, err
	}
	return toDomainResult(rec), nil
}

func (r *resultRepository) List(ctx context.Context) ([]domain.FraudResult, error) {
	var rows []fraudResultModel
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.FraudResult, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainResult(row))
	}
	return out, nil
}
