package domain

import (
	"fmt"
	"strings"
)

type VerdictStatus string

const (
	StatusFlagged  VerdictStatus = "FLAGGED"
	StatusApproved VerdictStatus = "APPROVED"
	// StatusPending marks a verdict produced without the scoring engine.
	StatusPending VerdictStatus = "PENDING"
)

// Verdict is the outcome of screening one transaction.
type Verdict struct {
	TransactionID   string
	Fraudulent      bool
	ConfidenceScore float64
	Status          VerdictStatus
}

// StatusFor maps an engine decision to the client-facing status.
func StatusFor(fraudulent bool) VerdictStatus {
	if fraudulent {
		return StatusFlagged
	}
	return StatusApproved
}

// StoredStatusFor is the status recorded when a saved result carries none.
// Non-fraudulent results without a status are treated as not yet assessed.
func StoredStatusFor(fraudulent bool) VerdictStatus {
	if fraudulent {
		return StatusFlagged
	}
	return StatusPending
}

// PendingVerdict is the degraded-mode verdict returned when scoring is unavailable.
func PendingVerdict(transactionID string) Verdict {
	return Verdict{
		TransactionID:   transactionID,
		Fraudulent:      false,
		ConfidenceScore: 0.0,
		Status:          StatusPending,
	}
}

// ParseVerdictStatus accepts a status case-insensitively.
func ParseVerdictStatus(raw string) (VerdictStatus, error) {
	switch VerdictStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case StatusFlagged:
		return StatusFlagged, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusPending:
		return StatusPending, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, raw)
	}
}
