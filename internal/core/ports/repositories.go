package ports

import (
	"context"

	"wallet-ledger-core/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// UserRepository defines persistence operations for identity users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx run inside transaction blocks for pessimistic
// locking; per-wallet serialization comes from the row lock.
type WalletRepository interface {
	// Create inserts the wallet, doing nothing on an (owner, type)
	// conflict. Returns true if a row was inserted.
	Create(ctx context.Context, wallet *domain.Wallet) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByOwner(ctx context.Context, ownerID uuid.UUID, walletType domain.WalletType) (*domain.Wallet, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	UpdateBalances(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance, pending decimal.Decimal) error
	Deactivate(ctx context.Context, walletID uuid.UUID) error
}

// ReservationRepository defines persistence for fund reservations.
type ReservationRepository interface {
	Create(ctx context.Context, tx pgx.Tx, reservation *domain.Reservation) error
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Reservation, error)
	UpdateState(ctx context.Context, tx pgx.Tx, id uuid.UUID, state domain.ReservationState) error
}

// TransactionRepository defines persistence operations for transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Transaction, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus) error
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}

// TransactionListParams holds filter + pagination for listing transactions.
type TransactionListParams struct {
	OwnerID  uuid.UUID
	Status   *domain.TransactionStatus
	Type     *domain.TransactionType
	WalletID *uuid.UUID
	From     *int64 // Unix timestamp
	To       *int64 // Unix timestamp
	Page     int
	PageSize int
}

// VerificationRepository defines persistence for verification records.
type VerificationRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.VerificationRecord, error)
	Upsert(ctx context.Context, record *domain.VerificationRecord) error
}

// IdempotencyRepository is the durable key→transaction binding, written in
// the same database transaction as the transaction row.
type IdempotencyRepository interface {
	Create(ctx context.Context, tx pgx.Tx, record *domain.IdempotencyRecord) error
	Get(ctx context.Context, key string) (*domain.IdempotencyRecord, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
