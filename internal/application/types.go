package application

import (
	"time"

	"github.com/fraudshield/screening/internal/ports"
)

type Config struct {
	TokenTTL time.Duration
}

// Actor is the verified caller of a gated operation.
// Handlers build it from the Trust Gate's identity and pass it explicitly into scoring and persistence.
type Actor struct {
	SubjectID string
	Email     string
}

func NewActor(identity ports.TokenIdentity) Actor {
	return Actor{SubjectID: identity.Subject, Email: identity.Email}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type AnalyzeRequest struct {
	TransactionID string  `json:"transactionId"`
	CardNumber    string  `json:"cardNumber"`
	Amount        float64 `json:"amount"`
	Merchant      string  `json:"merchant"`
	Location      string  `json:"location"`
	Timestamp     string  `json:"timestamp,omitempty"`
}

type VerdictResponse struct {
	TransactionID   string  `json:"transactionId"`
	Fraudulent      bool    `json:"fraudulent"`
	ConfidenceScore float64 `json:"confidenceScore"`
	Status          string  `json:"status"`
}

type SaveResultRequest struct {
	TransactionID   string  `json:"transactionId"`
	CardNumber      string  `json:"cardNumber"`
	Amount          float64 `json:"amount"`
	Merchant        string  `json:"merchant"`
	Location        string  `json:"location"`
	Fraudulent      bool    `json:"fraudulent"`
	ConfidenceScore float64 `json:"confidenceScore"`
	Status          string  `json:"status,omitempty"`
}

type ResultResponse struct {
	ID              string    `json:"id"`
	TransactionID   string    `json:"transactionId"`
	CardNumber      string    `json:"cardNumber"`
	Amount          float64   `json:"amount"`
	Merchant        string    `json:"merchant"`
	Location        string    `json:"location"`
	Fraudulent      bool      `json:"fraudulent"`
	ConfidenceScore float64   `json:"confidenceScore"`
	Status          string    `json:"status"`
	RecordedBy      string    `json:"recordedBy,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
