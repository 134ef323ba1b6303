package application

import (
	"context"
	"time"

	"github.com/fraudshield/screening/internal/domain"
	"github.com/fraudshield/screening/internal/ports"
)

type Service struct {
	cfg         Config
	credentials ports.CredentialRepository
	results     ports.ResultRepository
	resultCache ports.ResultCache
	hasher      ports.PasswordHasher
	tokens      ports.TokenService
	scoring     ports.ScoringEngine
	nowFn       func() time.Time
}

type Dependencies struct {
	Config      Config
	Credentials ports.CredentialRepository
	Results     ports.ResultRepository
	ResultCache ports.ResultCache
	Hasher      ports.PasswordHasher
	Tokens      ports.TokenService
	Scoring     ports.ScoringEngine
	// Now overrides the wall clock; nil means time.Now in UTC.
	Now func() time.Time
}

func NewService(deps Dependencies) *Service {
	nowFn := deps.Now
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	resultCache := deps.ResultCache
	if resultCache == nil {
		resultCache = noopResultCache{}
	}
	cfg := deps.Config
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &Service{
		cfg:         cfg,
		credentials: deps.Credentials,
		results:     deps.Results,
		resultCache: resultCache,
		hasher:      deps.Hasher,
		tokens:      deps.Tokens,
		scoring:     deps.Scoring,
		nowFn:       nowFn,
	}
}

type noopResultCache struct{}

func (noopResultCache) Get(context.Context, string) (domain.FraudResult, bool, error) {
	return domain.FraudResult{}, false, nil
}

func (noopResultCache) Put(context.Context, domain.FraudResult) error { return nil }
