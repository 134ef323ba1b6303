package ports

import "time"

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIdentity is what a verified token proves about its bearer.
type TokenIdentity struct {
	Subject   string
	Email     string
	Claims    map[string]any
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService issues and verifies signed, time-bounded identity tokens.
// Verify returns domain.ErrInvalidToken for every failure.
type TokenService interface {
	Issue(subject string, claims map[string]any, ttl time.Duration) (string, error)
	Verify(token string) (TokenIdentity, error)
}
