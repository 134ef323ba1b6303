package postgres

import (
	"context"
	"errors"

	"github.com/fraudshield/screening/internal/domain"
	"github.com/fraudshield/screening/internal/ports"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type credentialRepository struct {
	db *gorm.DB
}

// CreateWithOutboxTx relies on credentials_email_key for atomic uniqueness.
func (r *credentialRepository) CreateWithOutboxTx(ctx context.Context, params ports.CreateCredentialParams, outboxEvent ports.OutboxEvent) (domain.Credential, error) {
	id := params.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	rec := credentialModel{
		ID:           id,
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		CreatedAt:    params.RegisteredAtUTC,
		UpdatedAt:    params.RegisteredAtUTC,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return credentialInsertError(err)
		}
		outbox := toOutboxModel(outboxEvent)
		return tx.Create(&outbox).Error
	})
	if err != nil {
		return domain.Credential{}, err
	}
	return toDomainCredential(rec), nil
}

// credentialInsertError maps the translated unique violation on email to domain.ErrEmailInUse.
func credentialInsertError(err error) error {
	if isUniqueViolation(err) {
		return domain.ErrEmailInUse
	}
	return err
}

func (r *credentialRepository) GetByEmail(ctx context.Context, email string) (domain.Credential, error) {
	var rec credentialModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Credential{}, domain.ErrNotFound
		}
		return domain.Credential{}, err
	}
	return toDomainCredential(rec), nil
}

func (r *credentialRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Credential, error) {
	var rec credentialModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Credential{}, domain.ErrNotFound
		}
		return domain.Credential{}, err
	}
	return toDomainCredential(rec), nil
}
