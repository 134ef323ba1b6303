package ports

import (
	"context"
	"time"

	"github.com/fraudshield/screening/internal/domain"
	"github.com/google/uuid"
)

// CreateCredentialParams captures the inputs of an atomic credential insert.
type CreateCredentialParams struct {
	ID              uuid.UUID
	Name            string
	Email           string
	PasswordHash    string
	RegisteredAtUTC time.Time
}

// CredentialRepository is the Identity Store.
// CreateWithOutboxTx must enforce email uniqueness atomically and return domain.ErrEmailInUse on collision.
type CredentialRepository interface {
	CreateWithOutboxTx(ctx context.Context, params CreateCredentialParams, outboxEvent OutboxEvent) (domain.Credential, error)
	GetByEmail(ctx context.Context, email string) (domain.Credential, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Credential, error)
}

// ResultRepository is the Results Store.
// UpsertWithOutboxTx keeps one row per transaction id: the first save fixes ID and CreatedAt,
// later saves replace the verdict fields and UpdatedAt.
type ResultRepository interface {
	UpsertWithOutboxTx(ctx context.Context, result domain.FraudResult, outboxEvent OutboxEvent) (domain.FraudResult, error)
	GetByTransactionID(ctx context.Context, transactionID string) (domain.FraudResult, error)
	List(ctx context.Context) ([]domain.FraudResult, error)
}

// OutboxEvent is the write-side event payload prior to storage.
type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

// OutboxRecord represents durable outbox state, including retry/error metadata.
type OutboxRecord struct {
	OutboxID       uuid.UUID
	EventType      string
	PartitionKey   string
	Payload        []byte
	RetryCount     int
	LastError      *string
	CreatedAt      time.Time
	PublishedAt    *time.Time
	LastErrorAt    *time.Time
	ClaimToken     *string
	ClaimUntil     *time.Time
	DeadLetteredAt *time.Time
}

// OutboxRepository drives the claim/publish/retry cycle of the worker.
type OutboxRepository interface {
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
	MarkDeadLettered(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
}
