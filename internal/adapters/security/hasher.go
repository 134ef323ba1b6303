package security

import (
	"fmt"
	"strings"

	"github.com/fraudshield/screening/internal/ports"
)

const (
	HasherArgon2id = "argon2id"
	HasherBcrypt   = "bcrypt"
)

// PasswordHasher hashes with the configured algorithm and verifies hashes of either
// algorithm by their encoding prefix, so switching algorithms does not lock out existing credentials.
type PasswordHasher struct {
	primary ports.PasswordHasher
	argon   *Argon2Hasher
	bcrypt  *BcryptHasher
}

func NewPasswordHasher(algorithm string, argonParams Argon2Params, bcryptCost int) (*PasswordHasher, error) {
	h := &PasswordHasher{
		argon:  NewArgon2Hasher(argonParams),
		bcrypt: NewBcryptHasher(bcryptCost),
	}
	switch strings.ToLower(strings.TrimSpace(algorithm)) {
	case "", HasherArgon2id:
		h.primary = h.argon
	case HasherBcrypt:
		h.primary = h.bcrypt
	default:
		return nil, fmt.Errorf("unsupported password hasher %q", algorithm)
	}
	return h, nil
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	return h.primary.Hash(password)
}

func (h *PasswordHasher) Compare(hash, password string) error {
	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		return h.argon.Compare(hash, password)
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		return h.bcrypt.Compare(hash, password)
	default:
		return ErrPasswordMismatch
	}
}

var _ ports.PasswordHasher = (*PasswordHasher)(nil)
