package postgres

import (
	"github.com/fraudshield/screening/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Credentials ports.CredentialRepository
	Results     ports.ResultRepository
	Outbox      ports.OutboxRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Credentials: &credentialRepository{db: db},
		Results:     &resultRepository{db: db},
		Outbox:      &outboxRepository{db: db},
	}
}
