package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fraudshield/screening/internal/domain"
	"github.com/fraudshield/screening/internal/ports"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const resultKeyPrefix = "fraud:result:"

// RedisResultCache stores fraud results as JSON under fraud:result:<transaction id>.
type RedisResultCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisResultCache(client redis.Cmdable, ttl time.Duration) *RedisResultCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisResultCache{client: client, ttl: ttl}
}

type cachedResult struct {
	ID              uuid.UUID `json:"id"`
	TransactionID   string    `json:"transaction_id"`
	CardNumber      string    `json:"card_number"`
	Amount          float64   `json:"amount"`
	Merchant        string    `json:"merchant"`
	Location        string    `json:"location"`
	Fraudulent      bool      `json:"fraudulent"`
	ConfidenceScore float64   `json:"confidence_score"`
	Status          string    `json:"status"`
	RecordedBy      string    `json:"recorded_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (c *RedisResultCache) Get(ctx context.Context, transactionID string) (domain.FraudResult, bool, error) {
	raw, err := c.client.Get(ctx, resultKeyPrefix+transactionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.FraudResult{}, false, nil
		}
		return domain.FraudResult{}, false, err
	}
	var item cachedResult
	if err := json.Unmarshal(raw, &item); err != nil {
		return domain.FraudResult{}, false, fmt.Errorf("decode cached result: %w", err)
	}
	return domain.FraudResult{
		ID:              item.ID,
		TransactionID:   item.TransactionID,
		CardNumber:      item.CardNumber,
		Amount:          item.Amount,
		Merchant:        item.Merchant,
		Location:        item.Location,
		Fraudulent:      item.Fraudulent,
		ConfidenceScore: item.ConfidenceScore,
		Status:          domain.VerdictStatus(item.Status),
		RecordedBy:      item.RecordedBy,
		CreatedAt:       item.CreatedAt,
		UpdatedAt:       item.UpdatedAt,
	}, true, nil
}

func (c *RedisResultCache) Put(ctx context.Context, result domain.FraudResult) error {
	raw, err := json.Marshal(cachedResult{
		ID:              result.ID,
		TransactionID:   result.TransactionID,
		CardNumber:      result.CardNumber,
		Amount:          result.Amount,
		Merchant:        result.Merchant,
		Location:        result.Location,
		Fraudulent:      result.Fraudulent,
		ConfidenceScore: result.ConfidenceScore,
		Status:          string(result.Status),
		RecordedBy:      result.RecordedBy,
		CreatedAt:       result.CreatedAt,
		UpdatedAt:       result.UpdatedAt,
	})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, resultKeyPrefix+result.TransactionID, raw, c.ttl).Err()
}

var _ ports.ResultCache = (*RedisResultCache)(nil)
