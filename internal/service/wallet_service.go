package service

import (
	"context"
	"fmt"
	"time"

	"wallet-ledger-core/internal/core/domain"
	"wallet-ledger-core/internal/core/ports"
	"wallet-ledger-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// WalletRegistryImpl implements ports.WalletRegistry. It is the only
// component that mutates wallet balances; every mutation runs under the
// wallet's row lock inside the caller's database transaction.
type WalletRegistryImpl struct {
	walletRepo ports.WalletRepository
	resRepo    ports.ReservationRepository
	log        zerolog.Logger
}

// NewWalletRegistry creates a new WalletRegistryImpl.
func NewWalletRegistry(walletRepo ports.WalletRepository, resRepo ports.ReservationRepository, log zerolog.Logger) *WalletRegistryImpl {
	return &WalletRegistryImpl{
		walletRepo: walletRepo,
		resRepo:    resRepo,
		log:        log,
	}
}

// GetOrCreate returns the owner's wallet of the given type, creating it
// lazily with zero balances on first request.
func (s *WalletRegistryImpl) GetOrCreate(ctx context.Context, ownerID uuid.UUID, walletType domain.WalletType, currency string) (*domain.Wallet, error) {
	if !walletType.Valid() {
		return nil, apperror.ErrInvalidRequest(fmt.Sprintf("unknown wallet type: %s", walletType))
	}
	if !domain.CurrencySupported(currency) {
		return nil, apperror.ErrInvalidCurrency(currency)
	}

	existing, err := s.walletRepo.GetByOwner(ctx, ownerID, walletType)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if existing != nil {
		if existing.Currency != currency {
			return nil, apperror.ErrInvalidRequest(fmt.Sprintf("%s wallet already exists with currency %s", walletType, existing.Currency))
		}
		return existing, nil
	}

	now := time.Now().UTC()
	wallet := &domain.Wallet{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Type:           walletType,
		Currency:       currency,
		Balance:        decimal.Zero,
		PendingBalance: decimal.Zero,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	inserted, err := s.walletRepo.Create(ctx, wallet)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}
	if !inserted {
		// Lost a creation race; the winner's row is the wallet.
		existing, err = s.walletRepo.GetByOwner(ctx, ownerID, walletType)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("get wallet after conflict: %w", err))
		}
		if existing == nil {
			return nil, apperror.InternalError(fmt.Errorf("wallet conflict but no row for owner %s type %s", ownerID, walletType))
		}
		return existing, nil
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("owner_id", ownerID.String()).
		Str("wallet_type", string(walletType)).
		Str("currency", currency).
		Msg("wallet created")

	return wallet, nil
}

// Reserve holds amount on the wallet. The insufficient-funds check and the
// pending increment happen under the wallet's row lock, so two concurrent
// reservations can never jointly overdraw the wallet.
func (s *WalletRegistryImpl) Reserve(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) (*domain.Reservation, error) {
	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, tx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	if !wallet.Active {
		return nil, apperror.ErrWalletInactive()
	}

	if wallet.Available().LessThan(amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	newPending := wallet.PendingBalance.Add(amount)
	if err := s.walletRepo.UpdateBalances(ctx, tx, wallet.ID, wallet.Balance, newPending); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update pending balance: %w", err))
	}

	reservation := &domain.Reservation{
		ID:        uuid.New(),
		WalletID:  wallet.ID,
		Amount:    amount,
		State:     domain.ReservationHeld,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.resRepo.Create(ctx, tx, reservation); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create reservation: %w", err))
	}

	return reservation, nil
}

// Settle finalizes a reservation: commit moves the held amount out of both
// balance and pendingBalance, release only undoes the hold. Re-settling a
// settled reservation changes nothing and returns the recorded outcome.
func (s *WalletRegistryImpl) Settle(ctx context.Context, tx pgx.Tx, reservationID uuid.UUID, outcome domain.SettleOutcome) (*domain.Reservation, error) {
	reservation, err := s.resRepo.GetByIDForUpdate(ctx, tx, reservationID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock reservation: %w", err))
	}
	if reservation == nil {
		return nil, apperror.ErrNotFound("reservation")
	}
	if reservation.IsSettled() {
		return reservation, nil
	}

	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, tx, reservation.WalletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.InternalError(fmt.Errorf("reservation %s references missing wallet %s", reservation.ID, reservation.WalletID))
	}

	newPending := wallet.PendingBalance.Sub(reservation.Amount)
	newBalance := wallet.Balance
	state := domain.ReservationReleased
	if outcome == domain.SettleCommit {
		newBalance = wallet.Balance.Sub(reservation.Amount)
		state = domain.ReservationCommitted
	}

	if err := s.walletRepo.UpdateBalances(ctx, tx, wallet.ID, newBalance, newPending); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balances: %w", err))
	}
	if err := s.resRepo.UpdateState(ctx, tx, reservation.ID, state); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update reservation state: %w", err))
	}

	now := time.Now().UTC()
	reservation.State = state
	reservation.SettledAt = &now

	s.log.Debug().
		Str("reservation_id", reservation.ID.String()).
		Str("wallet_id", wallet.ID.String()).
		Str("outcome", string(outcome)).
		Str("amount", reservation.Amount.String()).
		Msg("reservation settled")

	return reservation, nil
}

// Credit adds amount to the wallet's settled balance. Used for the
// receiving side of a transfer and for top-ups.
func (s *WalletRegistryImpl) Credit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) error {
	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, tx, walletID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return apperror.ErrNotFound("wallet")
	}
	if !wallet.Active {
		return apperror.ErrWalletInactive()
	}

	newBalance := wallet.Balance.Add(amount)
	if err := s.walletRepo.UpdateBalances(ctx, tx, wallet.ID, newBalance, wallet.PendingBalance); err != nil {
		return apperror.InternalError(fmt.Errorf("credit wallet: %w", err))
	}
	return nil
}
