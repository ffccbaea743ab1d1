package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// claimPlaceholder marks a claim whose transaction is not committed yet.
const claimPlaceholder = "pending"

// ClaimStore implements ports.IdempotencyClaimStore using Redis SET NX.
// A claim holds the placeholder value while the winning submission is in
// flight, and is overwritten with the transaction id once it commits.
type ClaimStore struct {
	client *goredis.Client
	prefix string
}

// NewClaimStore creates a new Redis-backed idempotency claim store.
func NewClaimStore(client *goredis.Client) *ClaimStore {
	return &ClaimStore{
		client: client,
		prefix: "idempotency:",
	}
}

// Claim atomically claims a key for ttl. Returns true when this caller won
// the claim, false when another submission already holds it.
func (s *ClaimStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	result, err := s.client.SetArgs(ctx, s.prefix+key, claimPlaceholder, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if err == goredis.Nil {
			// Key already exists, another submission holds the claim.
			return false, nil
		}
		return false, fmt.Errorf("redis idempotency claim: %w", err)
	}
	return result == "OK", nil
}

// Get returns the claim value, or "" if the key does not exist.
func (s *ClaimStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if err == goredis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("redis idempotency get: %w", err)
	}
	return val, nil
}

// Bind overwrites the claim with the committed transaction id and extends
// the TTL to the result retention window.
func (s *ClaimStore) Bind(ctx context.Context, key string, txID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, txID, ttl).Err(); err != nil {
		return fmt.Errorf("redis idempotency bind: %w", err)
	}
	return nil
}

// Release deletes the claim so a retry does not wait out the TTL.
func (s *ClaimStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis idempotency release: %w", err)
	}
	return nil
}
