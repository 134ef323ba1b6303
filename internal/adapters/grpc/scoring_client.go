package grpc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/fraudshield/screening/internal/ports"
)

// ScoringClient calls FraudDetectionService/PredictFraud over one long-lived connection.
// The connection is established lazily, so a down engine surfaces per call rather than at startup.
type ScoringClient struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

func NewScoringClient(target string, timeout time.Duration, opts ...grpc.DialOption) (*ScoringClient, error) {
	if target == "" {
		return nil, fmt.Errorf("scoring target is required")
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial scoring grpc: %w", err)
	}
	return &ScoringClient{conn: conn, timeout: timeout}, nil
}

func (c *ScoringClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *ScoringClient) PredictFraud(ctx context.Context, req ports.ScoringRequest) (ports.ScoringResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out := dynamicpb.NewMessage(fraudResponseDesc)
	if err := c.conn.Invoke(callCtx, predictFraudFullMethod, newFraudRequest(req), out); err != nil {
		return ports.ScoringResponse{}, classifyScoringError(err)
	}

	resp := readFraudResponse(out)
	if resp.TransactionID != req.TransactionID {
		return ports.ScoringResponse{}, &ports.ScoringFailure{
			Kind: ports.ScoringFailureDecode,
			Err:  fmt.Errorf("response transaction id %q does not match request %q", resp.TransactionID, req.TransactionID),
		}
	}
	// Scores are expected in [0,1] but not clamped; only non-finite values are unusable.
	if math.IsNaN(resp.ConfidenceScore) || math.IsInf(resp.ConfidenceScore, 0) {
		return ports.ScoringResponse{}, &ports.ScoringFailure{
			Kind: ports.ScoringFailureDecode,
			Err:  fmt.Errorf("confidence score %v is not finite", resp.ConfidenceScore),
		}
	}
	return resp, nil
}

func classifyScoringError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &ports.ScoringFailure{Kind: ports.ScoringFailureTimeout, Err: err}
	}
	st, ok := status.FromError(err)
	if !ok {
		return &ports.ScoringFailure{Kind: ports.ScoringFailureConnection, Err: err}
	}
	switch st.Code() {
	case codes.DeadlineExceeded, codes.Canceled:
		return &ports.ScoringFailure{Kind: ports.ScoringFailureTimeout, Err: err}
	case codes.Unavailable:
		return &ports.ScoringFailure{Kind: ports.ScoringFailureConnection, Err: err}
	case codes.Internal:
		// grpc reports response unmarshal errors as Internal.
		return &ports.ScoringFailure{Kind: ports.ScoringFailureDecode, Err: err}
	default:
		return &ports.ScoringFailure{Kind: ports.ScoringFailureProtocol, Err: err}
	}
}

var _ ports.ScoringEngine = (*ScoringClient)(nil)
