package domain

import (
	"time"

	"github.com/google/uuid"
)

// FraudResult is the persisted verdict for one transaction.
// TransactionID is unique; ID and CreatedAt are fixed at first save while UpdatedAt moves with every save.
type FraudResult struct {
	ID              uuid.UUID
	TransactionID   string
	CardNumber      string
	Amount          float64
	Merchant        string
	Location        string
	Fraudulent      bool
	ConfidenceScore float64
	Status          VerdictStatus
	RecordedBy      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
