package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fraudshield/screening/internal/domain"
	"github.com/fraudshield/screening/internal/ports"
	"github.com/google/uuid"
)

// Register creates a credential and returns a token bound to it.
// Email uniqueness is enforced by the repository insert; the lookup here only short-circuits the common case.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return AuthResponse{}, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return AuthResponse{}, err
	}
	if err := domain.ValidatePassword(req.Password); err != nil {
		return AuthResponse{}, err
	}

	if _, err := s.credentials.GetByEmail(ctx, email); err == nil {
		return AuthResponse{}, domain.ErrEmailInUse
	} else if !errors.Is(err, domain.ErrNotFound) {
		return AuthResponse{}, fmt.Errorf("lookup credential: %w", err)
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return AuthResponse{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.nowFn()
	id := uuid.New()
	payload, err := json.Marshal(map[string]any{
		"user_id":       id.String(),
		"email":         email,
		"registered_at": now,
	})
	if err != nil {
		return AuthResponse{}, fmt.Errorf("encode registration event: %w", err)
	}

	cred, err := s.credentials.CreateWithOutboxTx(ctx, ports.CreateCredentialParams{
		ID:              id,
		Name:            name,
		Email:           email,
		PasswordHash:    passwordHash,
		RegisteredAtUTC: now,
	}, ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventTypeUserRegistered,
		PartitionKey: id.String(),
		Payload:      payload,
		OccurredAt:   now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailInUse) {
			appLogger().WarnContext(ctx, "registration rejected",
				"operation", "register",
				"outcome", "failure",
				"reason", "email_in_use",
			)
		}
		return AuthResponse{}, err
	}

	token, err := s.issueToken(cred)
	if err != nil {
		return AuthResponse{}, err
	}
	appLogger().InfoContext(ctx, "credential registered",
		"operation", "register",
		"outcome", "success",
		"user_id", cred.ID.String(),
	)
	return AuthResponse{Token: token, UserID: cred.ID.String(), Email: cred.Email}, nil
}

// Login verifies a password against the stored hash and mints a fresh token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (AuthResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return AuthResponse{}, err
	}

	cred, err := s.credentials.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			appLogger().WarnContext(ctx, "login rejected",
				"operation", "login",
				"outcome", "failure",
				"reason", "user_not_found",
			)
			return AuthResponse{}, domain.ErrUserNotFound
		}
		return AuthResponse{}, fmt.Errorf("lookup credential: %w", err)
	}

	if err := s.hasher.Compare(cred.PasswordHash, req.Password); err != nil {
		appLogger().WarnContext(ctx, "login rejected",
			"operation", "login",
			"outcome", "failure",
			"reason", "invalid_password",
			"user_id", cred.ID.String(),
		)
		return AuthResponse{}, domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(cred)
	if err != nil {
		return AuthResponse{}, err
	}
	appLogger().InfoContext(ctx, "login succeeded",
		"operation", "login",
		"outcome", "success",
		"user_id", cred.ID.String(),
	)
	return AuthResponse{Token: token, UserID: cred.ID.String(), Email: cred.Email}, nil
}

// VerifyToken is the Token Service verification contract exposed to the Trust Gate and internal RPC.
func (s *Service) VerifyToken(ctx context.Context, raw string) (ports.TokenIdentity, error) {
	identity, err := s.tokens.Verify(raw)
	if err != nil {
		appLogger().DebugContext(ctx, "token rejected",
			"operation", "verify_token",
			"outcome", "failure",
			"error", err,
		)
		return ports.TokenIdentity{}, domain.ErrInvalidToken
	}
	return identity, nil
}

func (s *Service) issueToken(cred domain.Credential) (string, error) {
	token, err := s.tokens.Issue(cred.ID.String(), map[string]any{"email": cred.Email}, s.cfg.TokenTTL)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}
