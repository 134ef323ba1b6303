package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Transaction is the description a client submits for screening.
// TransactionID is the caller-supplied natural key carried into the verdict and the stored result.
type Transaction struct {
	TransactionID string
	CardNumber    string
	Amount        float64
	Merchant      string
	Location      string
	Timestamp     *time.Time
}

// Validate checks the fields the scoring call and the results store depend on.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.TransactionID) == "" {
		return fmt.Errorf("%w: transactionId is required", ErrInvalidInput)
	}
	if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
		return fmt.Errorf("%w: amount must be a finite number", ErrInvalidInput)
	}
	if t.Amount < 0 {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}
	return nil
}

// MaskCardNumber keeps the last four characters of a card reference for logs.
func MaskCardNumber(card string) string {
	card = strings.TrimSpace(card)
	if len(card) <= 4 {
		return strings.Repeat("*", len(card))
	}
	return "****" + card[len(card)-4:]
}
