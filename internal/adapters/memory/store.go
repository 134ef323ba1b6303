// Package memory holds process-local implementations of the storage ports.
// It backs STORAGE_DRIVER=memory and the package tests of the layers above it.
package memory

import (
	"sync"

	"github.com/fraudshield/screening/internal/domain"
	"github.com/fraudshield/screening/internal/ports"
	"github.com/google/uuid"
)

type store struct {
	mu          sync.Mutex
	credentials map[uuid.UUID]domain.Credential
	emails      map[string]uuid.UUID
	results     map[string]domain.FraudResult
	outbox      []*ports.OutboxRecord
}

// Repositories groups the in-memory ports over one shared store, so a credential
// or result write and its outbox event commit under the same lock.
type Repositories struct {
	Credentials *CredentialRepository
	Results     *ResultRepository
	Outbox      *OutboxRepository
}

func NewRepositories() Repositories {
	s := &store{
		credentials: make(map[uuid.UUID]domain.Credential),
		emails:      make(map[string]uuid.UUID),
		results:     make(map[string]domain.FraudResult),
	}
	return Repositories{
		Credentials: &CredentialRepository{store: s},
		Results:     &ResultRepository{store: s},
		Outbox:      &OutboxRepository{store: s},
	}
}

// enqueueLocked appends an outbox record; callers hold s.mu.
func (s *store) enqueueLocked(event ports.OutboxEvent) {
	payload := make([]byte, len(event.Payload))
	copy(payload, event.Payload)
	s.outbox = append(s.outbox, &ports.OutboxRecord{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      payload,
		CreatedAt:    event.OccurredAt,
	})
}
