package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-ledger-core/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepo implements ports.WalletRepository. Balances live in NUMERIC
// columns and are scanned into decimals; no floats anywhere on the path.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

const walletColumns = `id, owner_id, wallet_type, currency, balance, pending_balance, active, created_at, updated_at`

// Create inserts a new wallet. The unique (owner_id, wallet_type) index
// resolves concurrent first-use creation; the loser sees inserted=false.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) (bool, error) {
	query := `INSERT INTO wallets (` + walletColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (owner_id, wallet_type) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query,
		w.ID, w.OwnerID, w.Type, w.Currency,
		w.Balance, w.PendingBalance, w.Active,
		w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert wallet: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetByID fetches a wallet by its UUID (without locking).
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`
	return scanWallet(r.pool.QueryRow(ctx, query, id))
}

// GetByOwner fetches the owner's wallet of the given type (non-locking read).
func (r *WalletRepo) GetByOwner(ctx context.Context, ownerID uuid.UUID, walletType domain.WalletType) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE owner_id = $1 AND wallet_type = $2`
	return scanWallet(r.pool.QueryRow(ctx, query, ownerID, walletType))
}

// ListByOwner fetches all wallets of an owner.
func (r *WalletRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE owner_id = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []domain.Wallet
	for rows.Next() {
		var w domain.Wallet
		if err := rows.Scan(
			&w.ID, &w.OwnerID, &w.Type, &w.Currency,
			&w.Balance, &w.PendingBalance, &w.Active,
			&w.CreatedAt, &w.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan wallet row: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet rows: %w", err)
	}
	return wallets, nil
}

// GetByIDForUpdate fetches a wallet by ID with pessimistic locking.
// This MUST be called within a transaction.
func (r *WalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1 FOR UPDATE`
	return scanWallet(tx.QueryRow(ctx, query, id))
}

// UpdateBalances writes both balances within a transaction.
func (r *WalletRepo) UpdateBalances(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance, pending decimal.Decimal) error {
	query := `UPDATE wallets SET balance = $1, pending_balance = $2, updated_at = NOW() WHERE id = $3`

	tag, err := tx.Exec(ctx, query, balance, pending, walletID)
	if err != nil {
		return fmt.Errorf("update wallet balances: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	return nil
}

// Deactivate marks a wallet inactive. Existing pending holds still settle.
func (r *WalletRepo) Deactivate(ctx context.Context, walletID uuid.UUID) error {
	query := `UPDATE wallets SET active = false, updated_at = NOW() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, walletID)
	if err != nil {
		return fmt.Errorf("deactivate wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	return nil
}

// scanWallet is a helper to scan a single row into a Wallet.
func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := row.Scan(
		&w.ID, &w.OwnerID, &w.Type, &w.Currency,
		&w.Balance, &w.PendingBalance, &w.Active,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wallet: %w", err)
	}
	return w, nil
}
