package bootstrap

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fraudshield/screening/internal/adapters/security"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config is the resolved runtime configuration shared by the api, worker and fraudctl binaries.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int
	OPSPort  int

	StorageDriver string
	DatabaseURL   string
	MaxDBConns    int32

	RedisURL       string
	ResultCacheTTL time.Duration

	JWTSecret         string
	AllowEphemeralJWT bool
	TokenTTL          time.Duration

	PasswordHasher    string
	BcryptCost        int
	Argon2MemoryKiB   uint32
	Argon2Iterations  uint32
	Argon2Parallelism uint8

	MLServiceHost  string
	MLServicePort  int
	ScoringTimeout time.Duration

	KafkaBrokers      []string
	KafkaResultsTopic string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxClaimTTL     time.Duration
	OutboxMaxRetries   int

	LogLevel  string
	LogFormat string
}

// ScoringTarget is the gRPC dial target of the scoring engine.
func (c Config) ScoringTarget() string {
	return net.JoinHostPort(c.MLServiceHost, strconv.Itoa(c.MLServicePort))
}

// configFile mirrors the YAML schema used by configs/default.yaml.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
		OPSPort  int    `yaml:"ops_port"`
	} `yaml:"service"`
	Storage struct {
		Driver     string `yaml:"driver"`
		MaxDBConns int    `yaml:"max_db_conns"`
	} `yaml:"storage"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
	} `yaml:"dependencies"`
	Auth struct {
		TokenExpiryMinutes int    `yaml:"token_expiry_minutes"`
		PasswordHasher     string `yaml:"password_hasher"`
		BcryptRounds       int    `yaml:"bcrypt_rounds"`
		Argon2             struct {
			MemoryKiB   int `yaml:"memory_kib"`
			Iterations  int `yaml:"iterations"`
			Parallelism int `yaml:"parallelism"`
		} `yaml:"argon2"`
	} `yaml:"auth"`
	Scoring struct {
		Host      string `yaml:"host"`
		Port      int    `yaml:"port"`
		TimeoutMS int    `yaml:"timeout_ms"`
	} `yaml:"scoring"`
	Cache struct {
		ResultTTLSeconds int `yaml:"result_ttl_seconds"`
	} `yaml:"cache"`
	Outbox struct {
		PollSeconds     int    `yaml:"poll_seconds"`
		BatchSize       int    `yaml:"batch_size"`
		ClaimTTLSeconds int    `yaml:"claim_ttl_seconds"`
		MaxRetries      int    `yaml:"max_retries"`
		ResultsTopic    string `yaml:"results_topic"`
	} `yaml:"outbox"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// A missing file is not an error; a malformed one is.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:          "fraudshield-screening",
		HTTPPort:           8080,
		GRPCPort:           9090,
		OPSPort:            9100,
		StorageDriver:      StorageDriverPostgres,
		MaxDBConns:         20,
		ResultCacheTTL:     5 * time.Minute,
		AllowEphemeralJWT:  false,
		TokenTTL:           24 * time.Hour,
		PasswordHasher:     security.HasherArgon2id,
		BcryptCost:         12,
		Argon2MemoryKiB:    security.DefaultArgon2Params.MemoryKiB,
		Argon2Iterations:   security.DefaultArgon2Params.Iterations,
		Argon2Parallelism:  security.DefaultArgon2Params.Parallelism,
		MLServiceHost:      "localhost",
		MLServicePort:      50051,
		ScoringTimeout:     2 * time.Second,
		KafkaResultsTopic:  "fraud-results",
		OutboxPollInterval: 2 * time.Second,
		OutboxBatchSize:    100,
		OutboxClaimTTL:     30 * time.Second,
		OutboxMaxRetries:   5,
		LogLevel:           "info",
		LogFormat:          "json",
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := applyFile(&cfg, raw); err != nil {
				return Config{}, err
			}
		case os.IsNotExist(err):
		default:
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if f.Service.ID != "" {
		cfg.ServiceID = f.Service.ID
	}
	if f.Service.HTTPPort > 0 {
		cfg.HTTPPort = f.Service.HTTPPort
	}
	if f.Service.GRPCPort > 0 {
		cfg.GRPCPort = f.Service.GRPCPort
	}
	if f.Service.OPSPort > 0 {
		cfg.OPSPort = f.Service.OPSPort
	}
	if f.Storage.Driver != "" {
		cfg.StorageDriver = f.Storage.Driver
	}
	if f.Storage.MaxDBConns > 0 {
		cfg.MaxDBConns = int32(f.Storage.MaxDBConns)
	}
	if f.Dependencies.PostgresURL != "" {
		cfg.DatabaseURL = f.Dependencies.PostgresURL
	}
	if f.Dependencies.RedisURL != "" {
		cfg.RedisURL = f.Dependencies.RedisURL
	}
	if len(f.Dependencies.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
	}
	if f.Auth.TokenExpiryMinutes > 0 {
		cfg.TokenTTL = time.Duration(f.Auth.TokenExpiryMinutes) * time.Minute
	}
	if f.Auth.PasswordHasher != "" {
		cfg.PasswordHasher = f.Auth.PasswordHasher
	}
	if f.Auth.BcryptRounds > 0 {
		cfg.BcryptCost = f.Auth.BcryptRounds
	}
	if f.Auth.Argon2.MemoryKiB > 0 {
		cfg.Argon2MemoryKiB = uint32(f.Auth.Argon2.MemoryKiB)
	}
	if f.Auth.Argon2.Iterations > 0 {
		cfg.Argon2Iterations = uint32(f.Auth.Argon2.Iterations)
	}
	if f.Auth.Argon2.Parallelism > 0 {
		cfg.Argon2Parallelism = uint8(f.Auth.Argon2.Parallelism)
	}
	if f.Scoring.Host != "" {
		cfg.MLServiceHost = f.Scoring.Host
	}
	if f.Scoring.Port > 0 {
		cfg.MLServicePort = f.Scoring.Port
	}
	if f.Scoring.TimeoutMS > 0 {
		cfg.ScoringTimeout = time.Duration(f.Scoring.TimeoutMS) * time.Millisecond
	}
	if f.Cache.ResultTTLSeconds > 0 {
		cfg.ResultCacheTTL = time.Duration(f.Cache.ResultTTLSeconds) * time.Second
	}
	if f.Outbox.PollSeconds > 0 {
		cfg.OutboxPollInterval = time.Duration(f.Outbox.PollSeconds) * time.Second
	}
	if f.Outbox.BatchSize > 0 {
		cfg.OutboxBatchSize = f.Outbox.BatchSize
	}
	if f.Outbox.ClaimTTLSeconds > 0 {
		cfg.OutboxClaimTTL = time.Duration(f.Outbox.ClaimTTLSeconds) * time.Second
	}
	if f.Outbox.MaxRetries > 0 {
		cfg.OutboxMaxRetries = f.Outbox.MaxRetries
	}
	if f.Outbox.ResultsTopic != "" {
		cfg.KafkaResultsTopic = f.Outbox.ResultsTopic
	}
	if f.Logging.Level != "" {
		cfg.LogLevel = f.Logging.Level
	}
	if f.Logging.Format != "" {
		cfg.LogFormat = f.Logging.Format
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.OPSPort = envInt("OPS_PORT", cfg.OPSPort)

	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(envOrDefault("STORAGE_DRIVER", cfg.StorageDriver)))
	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.ResultCacheTTL = time.Duration(envInt("RESULT_CACHE_TTL_SECONDS", int(cfg.ResultCacheTTL.Seconds()))) * time.Second

	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.AllowEphemeralJWT = envBool("JWT_ALLOW_EPHEMERAL", cfg.AllowEphemeralJWT)
	cfg.TokenTTL = time.Duration(envInt("TOKEN_EXPIRY_MINUTES", int(cfg.TokenTTL.Minutes()))) * time.Minute

	cfg.PasswordHasher = strings.ToLower(strings.TrimSpace(envOrDefault("PASSWORD_HASHER", cfg.PasswordHasher)))
	cfg.BcryptCost = envInt("BCRYPT_ROUNDS", cfg.BcryptCost)
	cfg.Argon2MemoryKiB = uint32(envInt("ARGON2_MEMORY_KIB", int(cfg.Argon2MemoryKiB)))
	cfg.Argon2Iterations = uint32(envInt("ARGON2_ITERATIONS", int(cfg.Argon2Iterations)))
	cfg.Argon2Parallelism = uint8(envInt("ARGON2_PARALLELISM", int(cfg.Argon2Parallelism)))

	cfg.MLServiceHost = envOrDefault("ML_SERVICE_HOST", cfg.MLServiceHost)
	cfg.MLServicePort = envInt("ML_SERVICE_PORT", cfg.MLServicePort)
	cfg.ScoringTimeout = time.Duration(envInt("SCORING_TIMEOUT_MS", int(cfg.ScoringTimeout.Milliseconds()))) * time.Millisecond

	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaResultsTopic = envOrDefault("KAFKA_RESULTS_TOPIC", cfg.KafkaResultsTopic)
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxClaimTTL = time.Duration(envInt("OUTBOX_CLAIM_TTL_SECONDS", int(cfg.OutboxClaimTTL.Seconds()))) * time.Second
	cfg.OutboxMaxRetries = envInt("OUTBOX_MAX_RETRIES", cfg.OutboxMaxRetries)

	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOrDefault("LOG_FORMAT", cfg.LogFormat)
}

func (c Config) validate() error {
	for name, port := range map[string]int{"HTTP_PORT": c.HTTPPort, "GRPC_PORT": c.GRPCPort, "OPS_PORT": c.OPSPort, "ML_SERVICE_PORT": c.MLServicePort} {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("invalid %s %d", name, port)
		}
	}
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("missing DB_URL/POSTGRES_URL")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.JWTSecret == "" && !c.AllowEphemeralJWT {
		return fmt.Errorf("missing JWT_SECRET")
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < security.MinSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", security.MinSecretLength)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_EXPIRY_MINUTES must be positive")
	}
	switch c.PasswordHasher {
	case security.HasherArgon2id, security.HasherBcrypt:
	default:
		return fmt.Errorf("unsupported PASSWORD_HASHER %q", c.PasswordHasher)
	}
	if c.MLServiceHost == "" {
		return fmt.Errorf("missing ML_SERVICE_HOST")
	}
	if c.ScoringTimeout <= 0 {
		return fmt.Errorf("SCORING_TIMEOUT_MS must be positive")
	}
	return nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt falls back on empty or unparsable values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}

func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
