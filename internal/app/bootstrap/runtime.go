package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	cacheadapter "github.com/fraudshield/screening/internal/adapters/cache"
	eventadapter "github.com/fraudshield/screening/internal/adapters/events"
	grpcadapter "github.com/fraudshield/screening/internal/adapters/grpc"
	httpadapter "github.com/fraudshield/screening/internal/adapters/http"
	"github.com/fraudshield/screening/internal/adapters/memory"
	"github.com/fraudshield/screening/internal/adapters/postgres"
	"github.com/fraudshield/screening/internal/adapters/security"
	"github.com/fraudshield/screening/internal/application"
	"github.com/fraudshield/screening/internal/metrics"
	"github.com/fraudshield/screening/internal/ports"
)

type Runtime struct {
	cfg       Config
	logger    *slog.Logger
	service   *application.Service
	outbox    ports.OutboxRepository
	publisher ports.EventPublisher
	readiness map[string]httpadapter.ReadinessCheck
	closers   []func() error
}

type storage struct {
	credentials ports.CredentialRepository
	results     ports.ResultRepository
	outbox      ports.OutboxRepository
	ready       httpadapter.ReadinessCheck
	close       func() error
}

// NewRuntime loads configuration and wires every adapter. Listeners are opened by RunAPI only,
// so the worker process never binds the API ports.
func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat).With("service", cfg.ServiceID)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)
	logger.Info("bootstrapping fraudshield screening",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"ops_port", cfg.OPSPort,
		"storage_driver", cfg.StorageDriver,
	)

	rt := &Runtime{cfg: cfg, logger: logger, readiness: map[string]httpadapter.ReadinessCheck{}}
	if err := rt.wire(ctx); err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}

func (r *Runtime) wire(ctx context.Context) error {
	cfg := r.cfg

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	r.closers = append(r.closers, store.close)
	r.outbox = store.outbox
	if store.ready != nil {
		r.readiness["storage"] = store.ready
	}

	var resultCache ports.ResultCache
	if cfg.RedisURL != "" {
		redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		r.closers = append(r.closers, redisClient.Close)
		r.readiness["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		resultCache = cacheadapter.NewRedisResultCache(redisClient, cfg.ResultCacheTTL)
	}

	tokens, err := NewTokenService(cfg, r.logger)
	if err != nil {
		return err
	}

	hasher, err := security.NewPasswordHasher(cfg.PasswordHasher, security.Argon2Params{
		MemoryKiB:   cfg.Argon2MemoryKiB,
		Iterations:  cfg.Argon2Iterations,
		Parallelism: cfg.Argon2Parallelism,
	}, cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("init password hasher: %w", err)
	}

	scoring, err := grpcadapter.NewScoringClient(cfg.ScoringTarget(), cfg.ScoringTimeout)
	if err != nil {
		return fmt.Errorf("init scoring client: %w", err)
	}
	r.closers = append(r.closers, scoring.Close)

	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, map[string]string{
			"fraud.result.recorded": cfg.KafkaResultsTopic,
		})
		if err != nil {
			return fmt.Errorf("init kafka publisher: %w", err)
		}
		r.closers = append(r.closers, kafka.Close)
		r.publisher = kafka
	} else {
		r.logger.Warn("no KAFKA_BROKERS configured; outbox events are logged only")
		r.publisher = eventadapter.NewLoggingPublisher(r.logger)
	}

	r.service = application.NewService(application.Dependencies{
		Config:      application.Config{TokenTTL: cfg.TokenTTL},
		Credentials: store.credentials,
		Results:     store.results,
		ResultCache: resultCache,
		Hasher:      hasher,
		Tokens:      tokens,
		Scoring:     scoring,
	})
	return nil
}

func openStorage(ctx context.Context, cfg Config) (storage, error) {
	if cfg.StorageDriver == StorageDriverMemory {
		repos := memory.NewRepositories()
		return storage{
			credentials: repos.Credentials,
			results:     repos.Results,
			outbox:      repos.Outbox,
			close:       func() error { return nil },
		}, nil
	}

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return storage{}, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return storage{}, fmt.Errorf("gorm sql db: %w", err)
	}
	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = sqlDB.Close()
		return storage{}, fmt.Errorf("run migrations: %w", err)
	}
	repos := postgres.NewRepositories(db)
	return storage{
		credentials: repos.Credentials,
		results:     repos.Results,
		outbox:      repos.Outbox,
		ready:       sqlDB.PingContext,
		close:       sqlDB.Close,
	}, nil
}

// NewTokenService builds the HS256 token service, falling back to an ephemeral secret only when allowed.
func NewTokenService(cfg Config, logger *slog.Logger) (*security.HMACTokenService, error) {
	if cfg.JWTSecret != "" {
		tokens, err := security.NewHMACTokenService(cfg.JWTSecret)
		if err != nil {
			return nil, fmt.Errorf("init token service: %w", err)
		}
		return tokens, nil
	}
	if !cfg.AllowEphemeralJWT {
		return nil, fmt.Errorf("missing JWT_SECRET")
	}
	logger.Warn("using ephemeral JWT secret; tokens will not survive a restart")
	tokens, err := security.NewEphemeralHMACTokenService()
	if err != nil {
		return nil, fmt.Errorf("init ephemeral token service: %w", err)
	}
	return tokens, nil
}

// Migrate applies the embedded schema to the configured Postgres database.
func Migrate(ctx context.Context, cfg Config) error {
	if cfg.StorageDriver != StorageDriverPostgres {
		return fmt.Errorf("migrations require STORAGE_DRIVER=%s", StorageDriverPostgres)
	}
	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("gorm sql db: %w", err)
	}
	defer sqlDB.Close()
	return postgres.RunMigrations(ctx, db)
}

func (r *Runtime) newOutboxWorker() *eventadapter.OutboxWorker {
	return eventadapter.NewOutboxWorker(
		r.logger,
		r.outbox,
		r.publisher,
		r.cfg.OutboxPollInterval,
		r.cfg.OutboxBatchSize,
		r.cfg.OutboxClaimTTL,
		r.cfg.OutboxMaxRetries,
	)
}

// RunAPI serves the gateway, the internal gRPC API and the ops listener until a signal or server failure.
// With the memory driver the outbox worker runs in-process, since no other process can see the store.
func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer r.Close()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", r.cfg.HTTPPort),
		Handler:           httpadapter.NewRouter(httpadapter.NewHandler(r.service)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	opsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", r.cfg.OPSPort),
		Handler:           httpadapter.NewOpsRouter(r.readiness),
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	grpcadapter.RegisterAuthServer(grpcServer, grpcadapter.NewAuthInternalServer(r.service))

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", r.cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("listen gRPC: %w", err)
	}

	errCh := make(chan error, 4)
	go func() {
		r.logger.Info("http server started", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("ops server started", "addr", opsServer.Addr)
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("ops server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	if r.cfg.StorageDriver == StorageDriverMemory {
		go func() {
			if err := r.newOutboxWorker().Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("outbox worker: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		r.logger.Error("server failure", "error", runErr)
	}

	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	_ = opsServer.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
	return runErr
}

// RunWorker drains the outbox until a signal arrives.
func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer r.Close()

	if r.cfg.StorageDriver == StorageDriverMemory {
		r.logger.Warn("outbox worker started with the memory driver; it only sees its own empty store")
	}
	r.logger.Info("outbox worker started")
	err := r.newOutboxWorker().Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Close releases every wired resource in reverse order. It is safe to call more than once.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}
