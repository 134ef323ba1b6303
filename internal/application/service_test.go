package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/fraudshield/screening/internal/adapters/memory"
	"github.com/fraudshield/screening/internal/adapters/security"
	"github.com/fraudshield/screening/internal/domain"
	"github.com/fraudshield/screening/internal/metrics"
	"github.com/fraudshield/screening/internal/ports"
)

type fakeEngine struct {
	mu    sync.Mutex
	calls int
	resp  ports.ScoringResponse
	err   error
}

func (f *fakeEngine) PredictFraud(_ context.Context, req ports.ScoringRequest) (ports.ScoringResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return ports.ScoringResponse{}, f.err
	}
	resp := f.resp
	resp.TransactionID = req.TransactionID
	return resp, nil
}

type mapCache struct {
	mu    sync.Mutex
	items map[string]domain.FraudResult
	puts  int
}

func (c *mapCache) Get(_ context.Context, transactionID string) (domain.FraudResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[transactionID]
	return item, ok, nil
}

func (c *mapCache) Put(_ context.Context, result domain.FraudResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = map[string]domain.FraudResult{}
	}
	c.items[result.TransactionID] = result
	c.puts++
	return nil
}

type testEnv struct {
	svc    *Service
	repos  memory.Repositories
	engine *fakeEngine
	cache  *mapCache
	tokens *security.HMACTokenService
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	repos := memory.NewRepositories()
	tokens, err := security.NewHMACTokenService("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	engine := &fakeEngine{resp: ports.ScoringResponse{Fraudulent: true, ConfidenceScore: 0.97}}
	cache := &mapCache{}
	svc := NewService(Dependencies{
		Config:      Config{TokenTTL: time.Hour},
		Credentials: repos.Credentials,
		Results:     repos.Results,
		ResultCache: cache,
		Hasher:      security.NewArgon2Hasher(security.Argon2Params{MemoryKiB: 1024, Iterations: 1, Parallelism: 1}),
		Tokens:      tokens,
		Scoring:     engine,
	})
	return testEnv{svc: svc, repos: repos, engine: engine, cache: cache, tokens: tokens}
}

var testActor = Actor{SubjectID: "subject-1", Email: "analyst@example.com"}

func TestRegisterIssuesVerifiableToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	resp, err := env.svc.Register(ctx, RegisterRequest{Name: "Ana", Email: " Ana@Example.com ", Password: "pw-123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.Email != "ana@example.com" {
		t.Fatalf("expected normalized email, got %q", resp.Email)
	}

	identity, err := env.svc.VerifyToken(ctx, resp.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if identity.Subject != resp.UserID || identity.Email != "ana@example.com" {
		t.Fatalf("unexpected identity: %+v", identity)
	}

	records := env.repos.Outbox.Records()
	if len(records) != 1 || records[0].EventType != eventTypeUserRegistered || records[0].PartitionKey != resp.UserID {
		t.Fatalf("expected one user.registered event, got %+v", records)
	}

	cred, err := env.repos.Credentials.GetByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if cred.PasswordHash == "pw-123" {
		t.Fatalf("password stored in clear")
	}
}

func TestRegisterValidationAndDuplicates(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	invalid := []RegisterRequest{
		{Name: "", Email: "a@example.com", Password: "pw"},
		{Name: "A", Email: "not-an-email", Password: "pw"},
		{Name: "A", Email: "A <a@example.com>", Password: "pw"},
		{Name: "A", Email: "a@example.com", Password: "   "},
	}
	for _, req := range invalid {
		if _, err := env.svc.Register(ctx, req); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("register %+v: expected ErrInvalidInput, got %v", req, err)
		}
	}

	if _, err := env.svc.Register(ctx, RegisterRequest{Name: "A", Email: "dup@example.com", Password: "pw"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := env.svc.Register(ctx, RegisterRequest{Name: "B", Email: "DUP@example.com", Password: "pw2"}); !errors.Is(err, domain.ErrEmailInUse) {
		t.Fatalf("expected ErrEmailInUse, got %v", err)
	}
}

func TestConcurrentRegistrationHasOneWinner(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Register(context.Background(), RegisterRequest{Name: "Racer", Email: "race@example.com", Password: "pw"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrEmailInUse):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one successful registration, got %d", wins)
	}
}

func TestLoginOutcomes(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	reg, err := env.svc.Register(ctx, RegisterRequest{Name: "L", Email: "login@example.com", Password: "right-pass"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	resp, err := env.svc.Login(ctx, LoginRequest{Email: "LOGIN@example.com", Password: "right-pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.UserID != reg.UserID || resp.Token == reg.Token {
		t.Fatalf("expected a fresh token for the same user, got %+v", resp)
	}

	if _, err := env.svc.Login(ctx, LoginRequest{Email: "login@example.com", Password: "wrong"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := env.svc.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: "right-pass"}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestVerifyTokenRejectsForeignTokens(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	other, err := security.NewHMACTokenService("ffffffffffffffffffffffffffffffff")
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	foreign, err := other.Issue("someone", nil, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := env.svc.VerifyToken(context.Background(), foreign); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAnalyzeMapsEngineDecision(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	verdict, err := env.svc.Analyze(ctx, testActor, AnalyzeRequest{TransactionID: "tx-1", CardNumber: "4000", Amount: 12.5})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if verdict.Status != string(domain.StatusFlagged) || !verdict.Fraudulent || verdict.ConfidenceScore != 0.97 {
		t.Fatalf("unexpected flagged verdict: %+v", verdict)
	}

	env.engine.mu.Lock()
	env.engine.resp = ports.ScoringResponse{Fraudulent: false, ConfidenceScore: 0.1}
	env.engine.mu.Unlock()

	verdict, err = env.svc.Analyze(ctx, testActor, AnalyzeRequest{TransactionID: "tx-2", Amount: 0})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if verdict.Status != string(domain.StatusApproved) || verdict.Fraudulent {
		t.Fatalf("unexpected approved verdict: %+v", verdict)
	}
}

func TestAnalyzeAndSaveShareTrimmedTransactionID(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	verdict, err := env.svc.Analyze(ctx, testActor, AnalyzeRequest{TransactionID: " T1 ", Amount: 100})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if verdict.TransactionID != "T1" {
		t.Fatalf("expected trimmed transaction id, got %q", verdict.TransactionID)
	}

	saved, err := env.svc.SaveResult(ctx, testActor, SaveResultRequest{
		TransactionID:   verdict.TransactionID,
		Amount:          100,
		Fraudulent:      verdict.Fraudulent,
		ConfidenceScore: verdict.ConfidenceScore,
		Status:          verdict.Status,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.TransactionID != verdict.TransactionID {
		t.Fatalf("saved under %q, analyzed under %q", saved.TransactionID, verdict.TransactionID)
	}
}

func TestAnalyzeRejectsInvalidInputBeforeScoring(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	cases := []AnalyzeRequest{
		{TransactionID: "", Amount: 1},
		{TransactionID: "tx", Amount: -0.01},
		{TransactionID: "tx", Amount: 1, Timestamp: "yesterday"},
	}
	for _, req := range cases {
		if _, err := env.svc.Analyze(context.Background(), testActor, req); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("analyze %+v: expected ErrInvalidInput, got %v", req, err)
		}
	}
	if env.engine.calls != 0 {
		t.Fatalf("engine must not be called for invalid input, got %d calls", env.engine.calls)
	}
}

// Not parallel: asserts on the shared fallback counter.
func TestAnalyzeFallsBackToPendingOnClassifiedFailure(t *testing.T) {
	env := newTestEnv(t)
	env.engine.err = &ports.ScoringFailure{Kind: ports.ScoringFailureTimeout, Err: context.DeadlineExceeded}

	counter := metrics.ScoringFallbackTotal.WithLabelValues(string(ports.ScoringFailureTimeout))
	before := testutil.ToFloat64(counter)

	verdict, err := env.svc.Analyze(context.Background(), testActor, AnalyzeRequest{TransactionID: "tx-slow", Amount: 99})
	if err != nil {
		t.Fatalf("analyze must absorb classified failures, got %v", err)
	}
	want := VerdictResponse{TransactionID: "tx-slow", Fraudulent: false, ConfidenceScore: 0, Status: string(domain.StatusPending)}
	if verdict != want {
		t.Fatalf("expected %+v, got %+v", want, verdict)
	}
	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Fatalf("expected fallback counter to grow by 1, grew by %v", got)
	}
}

func TestAnalyzeSurfacesUnclassifiedErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.engine.err = errors.New("nil connection")

	if _, err := env.svc.Analyze(context.Background(), testActor, AnalyzeRequest{TransactionID: "tx-bug", Amount: 1}); err == nil {
		t.Fatalf("expected unclassified error to surface")
	}
}

func TestSaveResultUpsertsByTransactionID(t *testing.T) {
	t.Parallel()

	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(t)
	env.svc.nowFn = func() time.Time { return clock }
	ctx := context.Background()

	first, err := env.svc.SaveResult(ctx, testActor, SaveResultRequest{
		TransactionID: "tx-9", CardNumber: "4111111111111111", Amount: 40, Fraudulent: true, ConfidenceScore: 0.9,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if first.Status != string(domain.StatusFlagged) || first.RecordedBy != testActor.SubjectID {
		t.Fatalf("unexpected first save: %+v", first)
	}

	clock = clock.Add(time.Minute)
	second, err := env.svc.SaveResult(ctx, testActor, SaveResultRequest{
		TransactionID: "tx-9", CardNumber: "4111111111111111", Amount: 40, Fraudulent: false, ConfidenceScore: 0.2, Status: "pending",
	})
	if err != nil {
		t.Fatalf("resave: %v", err)
	}
	if second.ID != first.ID || !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("upsert must keep identity: first=%+v second=%+v", first, second)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) || second.Status != string(domain.StatusPending) {
		t.Fatalf("upsert must refresh fields: %+v", second)
	}

	list, err := env.svc.ListResults(ctx, testActor)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one record after two saves, got %d", len(list))
	}

	events := env.repos.Outbox.Records()
	if len(events) != 2 || events[0].EventType != eventTypeResultRecorded {
		t.Fatalf("expected one fraud.result.recorded event per save, got %+v", events)
	}

	if _, err := env.svc.SaveResult(ctx, testActor, SaveResultRequest{TransactionID: "tx-x", Status: "MAYBE"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown status, got %v", err)
	}
}

func TestSaveResultWithoutStatusKeepsUnassessedVerdictPending(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	fallback, err := env.svc.SaveResult(ctx, testActor, SaveResultRequest{TransactionID: "tx-fallback", Amount: 10})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if fallback.Status != string(domain.StatusPending) {
		t.Fatalf("non-fraudulent result without status must be PENDING, got %q", fallback.Status)
	}

	approved, err := env.svc.SaveResult(ctx, testActor, SaveResultRequest{TransactionID: "tx-ok", Amount: 10, ConfidenceScore: 0.1, Status: "APPROVED"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if approved.Status != string(domain.StatusApproved) {
		t.Fatalf("explicit APPROVED must be kept, got %q", approved.Status)
	}
}

func TestGetResultReadsThroughCache(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.GetResult(ctx, testActor, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	saved, err := env.svc.SaveResult(ctx, testActor, SaveResultRequest{TransactionID: "tx-c", Amount: 1})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if env.cache.puts != 1 {
		t.Fatalf("save should populate the cache, puts=%d", env.cache.puts)
	}

	cached := env.cache.items["tx-c"]
	cached.Merchant = "from-cache"
	env.cache.items["tx-c"] = cached

	got, err := env.svc.GetResult(ctx, testActor, "tx-c")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != saved.ID || got.Merchant != "from-cache" {
		t.Fatalf("expected cache hit, got %+v", got)
	}
}
