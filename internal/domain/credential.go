package domain

import (
	"time"

	"github.com/google/uuid"
)

// Credential is the identity record owned by the Identity Store.
// PasswordHash is always a KDF output; plaintext never reaches this type.
type Credential struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
