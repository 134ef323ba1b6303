package ports

import (
	"context"

	"github.com/fraudshield/screening/internal/domain"
)

// ResultCache is a read-through cache in front of the Results Store.
// Get reports a miss with found=false and a nil error.
type ResultCache interface {
	Get(ctx context.Context, transactionID string) (domain.FraudResult, bool, error)
	Put(ctx context.Context, result domain.FraudResult) error
}
