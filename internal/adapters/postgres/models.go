package postgres

import (
	"time"

	"github.com/google/uuid"
)

type credentialModel struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name         string    `gorm:"column:name"`
	Email        string    `gorm:"column:email"`
	PasswordHash string    `gorm:"column:password_hash"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (credentialModel) TableName() string { return "credentials" }

type fraudResultModel struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	TransactionID   string    `gorm:"column:transaction_id"`
	CardNumber      string    `gorm:"column:card_number"`
	Amount          float64   `gorm:"column:amount"`
	Merchant        string    `gorm:"column:merchant"`
	Location        string    `gorm:"column:location"`
	Fraudulent      bool      `gorm:"column:fraudulent"`
	ConfidenceScore float64   `gorm:"column:confidence_score"`
	Status          string    `gorm:"column:status"`
	RecordedBy      string    `gorm:"column:recorded_by"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (fraudResultModel) TableName() string { return "fraud_results" }

type outboxModel struct {
	OutboxID       uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType      string     `gorm:"column:event_type"`
	PartitionKey   string     `gorm:"column:partition_key"`
	Payload        string     `gorm:"column:payload;type:jsonb"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	RetryCount     int        `gorm:"column:retry_count"`
	LastError      *string    `gorm:"column:last_error"`
	LastErrorAt    *time.Time `gorm:"column:last_error_at"`
	ClaimToken     *string    `gorm:"column:claim_token"`
	ClaimUntil     *time.Time `gorm:"column:claim_until"`
	DeadLetteredAt *time.Time `gorm:"column:dead_lettered_at"`
}

func (outboxModel) TableName() string { return "outbox" }
