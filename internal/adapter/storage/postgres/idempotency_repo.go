package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-ledger-core/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// IdempotencyRepo implements ports.IdempotencyRepository.
type IdempotencyRepo struct {
	pool Pool
}

// NewIdempotencyRepo creates a new IdempotencyRepo.
func NewIdempotencyRepo(pool Pool) *IdempotencyRepo {
	return &IdempotencyRepo{pool: pool}
}

// Create inserts the key binding within a database transaction, so it
// becomes durable atomically with the transaction row it points at.
func (r *IdempotencyRepo) Create(ctx context.Context, tx pgx.Tx, rec *domain.IdempotencyRecord) error {
	query := `INSERT INTO idempotency_records (key, transaction_id, created_at)
		VALUES ($1, $2, $3)`

	_, err := tx.Exec(ctx, query, rec.Key, rec.TransactionID, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert idempotency record: %w", err)
	}
	return nil
}

// Get fetches an idempotency record by key.
func (r *IdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	query := `SELECT key, transaction_id, created_at FROM idempotency_records WHERE key = $1`

	rec := &domain.IdempotencyRecord{}
	err := r.pool.QueryRow(ctx, query, key).Scan(&rec.Key, &rec.TransactionID, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get idempotency record: %w", err)
	}
	return rec, nil
}
