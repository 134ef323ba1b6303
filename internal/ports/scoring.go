package ports

import (
	"context"
	"errors"
	"fmt"
)

// ErrScoringUnavailable matches every classified failure of the remote scoring call.
var ErrScoringUnavailable = errors.New("scoring engine unavailable")

type ScoringFailureKind string

const (
	ScoringFailureTimeout    ScoringFailureKind = "timeout"
	ScoringFailureConnection ScoringFailureKind = "connection"
	ScoringFailureProtocol   ScoringFailureKind = "protocol"
	ScoringFailureDecode     ScoringFailureKind = "decode"
)

// ScoringFailure is returned by ScoringEngine adapters for failures that originate
// at or beyond the transport. Anything else an adapter returns is a local defect.
type ScoringFailure struct {
	Kind ScoringFailureKind
	Err  error
}

func (f *ScoringFailure) Error() string {
	return fmt.Sprintf("scoring %s failure: %v", f.Kind, f.Err)
}

func (f *ScoringFailure) Unwrap() error { return f.Err }

func (f *ScoringFailure) Is(target error) bool { return target == ErrScoringUnavailable }

type ScoringRequest struct {
	TransactionID string
	CardNumber    string
	Amount        float64
	Merchant      string
	Location      string
}

type ScoringResponse struct {
	TransactionID   string
	Fraudulent      bool
	ConfidenceScore float64
}

// ScoringEngine is the outbound port for the remote fraud model.
type ScoringEngine interface {
	PredictFraud(ctx context.Context, req ScoringRequest) (ScoringResponse, error)
}
