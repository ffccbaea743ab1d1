package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-ledger-core/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ReservationRepo implements ports.ReservationRepository. All methods run
// inside the caller's transaction; a reservation never changes outside one.
type ReservationRepo struct {
	pool Pool
}

// NewReservationRepo creates a new ReservationRepo.
func NewReservationRepo(pool Pool) *ReservationRepo {
	return &ReservationRepo{pool: pool}
}

// Create inserts a new reservation within a database transaction.
func (r *ReservationRepo) Create(ctx context.Context, tx pgx.Tx, res *domain.Reservation) error {
	query := `INSERT INTO reservations (id, wallet_id, amount, state, created_at, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, query, res.ID, res.WalletID, res.Amount, res.State, res.CreatedAt, res.SettledAt)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

// GetByIDForUpdate fetches a reservation with pessimistic locking.
// This MUST be called within a transaction.
func (r *ReservationRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Reservation, error) {
	query := `SELECT id, wallet_id, amount, state, created_at, settled_at
		FROM reservations WHERE id = $1 FOR UPDATE`

	res := &domain.Reservation{}
	err := tx.QueryRow(ctx, query, id).Scan(
		&res.ID, &res.WalletID, &res.Amount, &res.State, &res.CreatedAt, &res.SettledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation for update: %w", err)
	}
	return res, nil
}

// UpdateState moves a reservation to its settled state within a transaction.
func (r *ReservationRepo) UpdateState(ctx context.Context, tx pgx.Tx, id uuid.UUID, state domain.ReservationState) error {
	query := `UPDATE reservations SET state = $1, settled_at = $2 WHERE id = $3`

	tag, err := tx.Exec(ctx, query, state, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update reservation state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reservation not found: %s", id)
	}
	return nil
}
