package security

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fraudshield/screening/internal/domain"
	"github.com/fraudshield/screening/internal/ports"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretLength is the shortest HS256 signing secret accepted, in bytes.
const MinSecretLength = 32

var registeredClaims = map[string]struct{}{
	"sub": {}, "iat": {}, "exp": {}, "nbf": {}, "jti": {}, "iss": {}, "aud": {},
}

// HMACTokenService issues and verifies HS256 identity tokens with one shared secret.
// The secret is fixed at construction; replacing it invalidates every outstanding token.
type HMACTokenService struct {
	secret []byte
	nowFn  func() time.Time
}

// NewHMACTokenService builds a token service from a configured secret.
func NewHMACTokenService(secret string) (*HMACTokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	}
	return &HMACTokenService{
		secret: []byte(secret),
		nowFn:  time.Now,
	}, nil
}

// NewEphemeralHMACTokenService creates a random in-memory secret for local/dev use.
// Tokens do not survive a restart.
func NewEphemeralHMACTokenService() (*HMACTokenService, error) {
	secret := make([]byte, MinSecretLength)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate jwt secret: %w", err)
	}
	return &HMACTokenService{secret: secret, nowFn: time.Now}, nil
}

// WithClock returns a copy that reads time from now.
func (s *HMACTokenService) WithClock(now func() time.Time) *HMACTokenService {
	return &HMACTokenService{secret: s.secret, nowFn: now}
}

func (s *HMACTokenService) Issue(subject string, claims map[string]any, ttl time.Duration) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("token subject is required")
	}
	if ttl <= 0 {
		return "", errors.New("token ttl must be positive")
	}

	now := s.nowFn()
	payload := jwt.MapClaims{}
	for k, v := range claims {
		if _, reserved := registeredClaims[k]; reserved {
			continue
		}
		payload[k] = v
	}
	payload["sub"] = subject
	payload["iat"] = now.Unix()
	payload["exp"] = now.Add(ttl).Unix()
	payload["jti"] = uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)
	return token.SignedString(s.secret)
}

func (s *HMACTokenService) Verify(raw string) (ports.TokenIdentity, error) {
	parsed, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.nowFn),
	)
	if err != nil {
		return ports.TokenIdentity{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return ports.TokenIdentity{}, domain.ErrInvalidToken
	}

	subject, err := claims.GetSubject()
	if err != nil || strings.TrimSpace(subject) == "" {
		return ports.TokenIdentity{}, fmt.Errorf("%w: missing subject", domain.ErrInvalidToken)
	}
	identity := ports.TokenIdentity{
		Subject: subject,
		Claims:  map[string]any{},
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		identity.ExpiresAt = exp.Time.UTC()
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		identity.IssuedAt = iat.Time.UTC()
	}
	for k, v := range claims {
		if _, reserved := registeredClaims[k]; reserved {
			continue
		}
		identity.Claims[k] = v
	}
	identity.Email, _ = claims["email"].(string)
	return identity, nil
}

var _ ports.TokenService = (*HMACTokenService)(nil)
