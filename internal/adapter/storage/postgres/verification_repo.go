package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-ledger-core/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// VerificationRepo implements ports.VerificationRepository.
type VerificationRepo struct {
	pool Pool
}

// NewVerificationRepo creates a new VerificationRepo.
func NewVerificationRepo(pool Pool) *VerificationRepo {
	return &VerificationRepo{pool: pool}
}

// Get fetches the verification record for a user.
func (r *VerificationRepo) Get(ctx context.Context, userID uuid.UUID) (*domain.VerificationRecord, error) {
	query := `SELECT user_id, phone_verified, documents_verified, biometric_verified, rejected, status, updated_at
		FROM verifications WHERE user_id = $1`

	rec := &domain.VerificationRecord{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&rec.UserID, &rec.PhoneVerified, &rec.DocumentsVerified, &rec.BiometricVerified,
		&rec.Rejected, &rec.Status, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get verification record: %w", err)
	}
	return rec, nil
}

// Upsert writes the verification record, replacing any existing row.
func (r *VerificationRepo) Upsert(ctx context.Context, rec *domain.VerificationRecord) error {
	query := `INSERT INTO verifications (user_id, phone_verified, documents_verified, biometric_verified, rejected, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			phone_verified = EXCLUDED.phone_verified,
			documents_verified = EXCLUDED.documents_verified,
			biometric_verified = EXCLUDED.biometric_verified,
			rejected = EXCLUDED.rejected,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query,
		rec.UserID, rec.PhoneVerified, rec.DocumentsVerified, rec.BiometricVerified,
		rec.Rejected, rec.Status, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert verification record: %w", err)
	}
	return nil
}
