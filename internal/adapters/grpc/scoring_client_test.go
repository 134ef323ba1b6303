package grpc

import (
	"context"
	"errors"
	"math"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/fraudshield/screening/internal/ports"
)

type engineFunc func(ctx context.Context, req ports.ScoringRequest) (ports.ScoringResponse, error)

func (f engineFunc) PredictFraud(ctx context.Context, req ports.ScoringRequest) (ports.ScoringResponse, error) {
	return f(ctx, req)
}

func startScoringServer(t *testing.T, engine ports.ScoringEngine) *bufconn.Listener {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	RegisterScoringServer(server, engine)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)
	return lis
}

func newBufClient(t *testing.T, lis *bufconn.Listener, timeout time.Duration) *ScoringClient {
	t.Helper()
	client, err := NewScoringClient("passthrough:///bufnet", timeout,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	if err != nil {
		t.Fatalf("new scoring client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func sampleRequest() ports.ScoringRequest {
	return ports.ScoringRequest{
		TransactionID: "tx-100",
		CardNumber:    "4111111111111111",
		Amount:        250.75,
		Merchant:      "Acme",
		Location:      "Berlin",
	}
}

func TestScoringClientRoundTrip(t *testing.T) {
	t.Parallel()

	var got ports.ScoringRequest
	lis := startScoringServer(t, engineFunc(func(_ context.Context, req ports.ScoringRequest) (ports.ScoringResponse, error) {
		got = req
		return ports.ScoringResponse{TransactionID: req.TransactionID, Fraudulent: true, ConfidenceScore: 0.92}, nil
	}))
	client := newBufClient(t, lis, time.Second)

	resp, err := client.PredictFraud(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("predict fraud: %v", err)
	}
	if got != sampleRequest() {
		t.Fatalf("server saw %+v", got)
	}
	if resp.TransactionID != "tx-100" || !resp.Fraudulent || resp.ConfidenceScore != 0.92 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestScoringClientKeepsOutOfRangeScore(t *testing.T) {
	t.Parallel()

	lis := startScoringServer(t, engineFunc(func(_ context.Context, req ports.ScoringRequest) (ports.ScoringResponse, error) {
		return ports.ScoringResponse{TransactionID: req.TransactionID, Fraudulent: true, ConfidenceScore: 1.2}, nil
	}))
	client := newBufClient(t, lis, time.Second)

	resp, err := client.PredictFraud(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("predict fraud: %v", err)
	}
	if !resp.Fraudulent || resp.ConfidenceScore != 1.2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestScoringClientClassifiesFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		engine  engineFunc
		timeout time.Duration
		want    ports.ScoringFailureKind
	}{
		{
			name: "deadline",
			engine: func(ctx context.Context, _ ports.ScoringRequest) (ports.ScoringResponse, error) {
				<-ctx.Done()
				return ports.ScoringResponse{}, ctx.Err()
			},
			timeout: 50 * time.Millisecond,
			want:    ports.ScoringFailureTimeout,
		},
		{
			name: "engine unavailable",
			engine: func(context.Context, ports.ScoringRequest) (ports.ScoringResponse, error) {
				return ports.ScoringResponse{}, status.Error(codes.Unavailable, "model reloading")
			},
			timeout: time.Second,
			want:    ports.ScoringFailureConnection,
		},
		{
			name: "rejected request",
			engine: func(context.Context, ports.ScoringRequest) (ports.ScoringResponse, error) {
				return ports.ScoringResponse{}, status.Error(codes.InvalidArgument, "bad card")
			},
			timeout: time.Second,
			want:    ports.ScoringFailureProtocol,
		},
		{
			name: "nan confidence",
			engine: func(_ context.Context, req ports.ScoringRequest) (ports.ScoringResponse, error) {
				return ports.ScoringResponse{TransactionID: req.TransactionID, Fraudulent: true, ConfidenceScore: math.NaN()}, nil
			},
			timeout: time.Second,
			want:    ports.ScoringFailureDecode,
		},
		{
			name: "infinite confidence",
			engine: func(_ context.Context, req ports.ScoringRequest) (ports.ScoringResponse, error) {
				return ports.ScoringResponse{TransactionID: req.TransactionID, Fraudulent: true, ConfidenceScore: math.Inf(-1)}, nil
			},
			timeout: time.Second,
			want:    ports.ScoringFailureDecode,
		},
		{
			name: "mismatched transaction id",
			engine: func(context.Context, ports.ScoringRequest) (ports.ScoringResponse, error) {
				return ports.ScoringResponse{TransactionID: "other", ConfidenceScore: 0.1}, nil
			},
			timeout: time.Second,
			want:    ports.ScoringFailureDecode,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			client := newBufClient(t, startScoringServer(t, tc.engine), tc.timeout)

			_, err := client.PredictFraud(context.Background(), sampleRequest())
			if !errors.Is(err, ports.ErrScoringUnavailable) {
				t.Fatalf("expected ErrScoringUnavailable, got %v", err)
			}
			var failure *ports.ScoringFailure
			if !errors.As(err, &failure) || failure.Kind != tc.want {
				t.Fatalf("expected %s failure, got %v", tc.want, err)
			}
		})
	}
}

func TestScoringClientUnreachableEngine(t *testing.T) {
	t.Parallel()

	lis := bufconn.Listen(1 << 20)
	_ = lis.Close()
	client := newBufClient(t, lis, time.Second)

	_, err := client.PredictFraud(context.Background(), sampleRequest())
	var failure *ports.ScoringFailure
	if !errors.As(err, &failure) || failure.Kind != ports.ScoringFailureConnection {
		t.Fatalf("expected connection failure, got %v", err)
	}
}

func TestNewScoringClientRequiresTarget(t *testing.T) {
	t.Parallel()

	if _, err := NewScoringClient("", time.Second); err == nil {
		t.Fatalf("expected error for empty target")
	}
}
