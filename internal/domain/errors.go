package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrUserNotFound is returned by login when no credential matches the email.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when the password does not match the stored hash.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailInUse is returned when a registration collides with an existing email.
	// Adapters translate unique-constraint violations into this sentinel.
	ErrEmailInUse = errors.New("email already in use")
	// ErrInvalidToken covers every token verification failure.
	// Callers never learn whether the signature, expiry or shape was wrong.
	ErrInvalidToken = errors.New("invalid token")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
)
