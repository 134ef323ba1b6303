package bootstrap

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// Tests in this file mutate the environment and therefore do not run in parallel.

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPPort != 8080 || cfg.OPSPort != 9100 || cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ScoringTarget() != "localhost:50051" || cfg.ScoringTimeout != 2*time.Second {
		t.Fatalf("unexpected scoring defaults: %s %v", cfg.ScoringTarget(), cfg.ScoringTimeout)
	}
	if cfg.PasswordHasher != "argon2id" {
		t.Fatalf("expected argon2id by default, got %q", cfg.PasswordHasher)
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	path := writeConfig(t, `
service:
  http_port: 7000
  grpc_port: 7001
storage:
  driver: memory
auth:
  token_expiry_minutes: 30
scoring:
  host: ml.internal
  port: 6000
  timeout_ms: 750
outbox:
  results_topic: file-topic
`)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "7100")
	t.Setenv("SCORING_TIMEOUT_MS", "1500")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPPort != 7100 {
		t.Fatalf("env must override file, got HTTPPort=%d", cfg.HTTPPort)
	}
	if cfg.GRPCPort != 7001 || cfg.TokenTTL != 30*time.Minute || cfg.KafkaResultsTopic != "file-topic" {
		t.Fatalf("file must override defaults: %+v", cfg)
	}
	if cfg.ScoringTarget() != "ml.internal:6000" || cfg.ScoringTimeout != 1500*time.Millisecond {
		t.Fatalf("unexpected scoring config: %s %v", cfg.ScoringTarget(), cfg.ScoringTimeout)
	}
	if strings.Join(cfg.KafkaBrokers, ",") != "k1:9092,k2:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.KafkaBrokers)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "postgres without url",
			env:  map[string]string{"STORAGE_DRIVER": "postgres", "JWT_SECRET": testSecret},
			want: "DB_URL",
		},
		{
			name: "unknown driver",
			env:  map[string]string{"STORAGE_DRIVER": "mongo", "JWT_SECRET": testSecret},
			want: "STORAGE_DRIVER",
		},
		{
			name: "missing secret",
			env:  map[string]string{"STORAGE_DRIVER": "memory"},
			want: "JWT_SECRET",
		},
		{
			name: "short secret",
			env:  map[string]string{"STORAGE_DRIVER": "memory", "JWT_SECRET": "short"},
			want: "at least",
		},
		{
			name: "unknown hasher",
			env:  map[string]string{"STORAGE_DRIVER": "memory", "JWT_SECRET": testSecret, "PASSWORD_HASHER": "md5"},
			want: "PASSWORD_HASHER",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, key := range []string{"STORAGE_DRIVER", "JWT_SECRET", "PASSWORD_HASHER", "DB_URL", "POSTGRES_URL", "JWT_ALLOW_EPHEMERAL"} {
				t.Setenv(key, "")
			}
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig("")
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadConfigAllowsEphemeralSecret(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_ALLOW_EPHEMERAL", "true")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	tokens, err := NewTokenService(cfg, NewLogger(os.Stderr, "error", "text"))
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	raw, err := tokens.Issue("subject", nil, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := tokens.Verify(raw); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", testSecret)

	if _, err := LoadConfig(writeConfig(t, "service: [unterminated")); err == nil {
		t.Fatalf("expected parse error")
	}
}
