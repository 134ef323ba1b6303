package memory

import (
	"context"

	"github.com/fraudshield/screening/internal/domain"
	"github.com/fraudshield/screening/internal/ports"
	"github.com/google/uuid"
)

type CredentialRepository struct {
	store *store
}

// CreateWithOutboxTx checks and inserts under one lock, so concurrent registrations
// of the same email yield exactly one success.
func (r *CredentialRepository) CreateWithOutboxTx(_ context.Context, params ports.CreateCredentialParams, outboxEvent ports.OutboxEvent) (domain.Credential, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.emails[params.Email]; exists {
		return domain.Credential{}, domain.ErrEmailInUse
	}
	id := params.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	cred := domain.Credential{
		ID:           id,
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		CreatedAt:    params.RegisteredAtUTC,
		UpdatedAt:    params.RegisteredAtUTC,
	}
	r.store.credentials[id] = cred
	r.store.emails[params.Email] = id
	r.store.enqueueLocked(outboxEvent)
	return cred, nil
}

func (r *CredentialRepository) GetByEmail(_ context.Context, email string) (domain.Credential, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id, ok := r.store.emails[email]
	if !ok {
		return domain.Credential{}, domain.ErrNotFound
	}
	return r.store.credentials[id], nil
}

func (r *CredentialRepository) GetByID(_ context.Context, id uuid.UUID) (domain.Credential, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cred, ok := r.store.credentials[id]
	if !ok {
		return domain.Credential{}, domain.ErrNotFound
	}
	return cred, nil
}

var _ ports.CredentialRepository = (*CredentialRepository)(nil)
