package service

import (
	"context"
	"fmt"
	"time"

	"wallet-ledger-core/internal/core/domain"
	"wallet-ledger-core/internal/core/ports"
	"wallet-ledger-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LedgerEngineImpl implements ports.LedgerEngine: admission control,
// fund reservation and the one-way pending → terminal transition. Every
// mutating call runs in a single database transaction, so the balance delta
// and the status change apply together or not at all.
type LedgerEngineImpl struct {
	txRepo     ports.TransactionRepository
	registry   ports.WalletRegistry
	gate       ports.VerificationGate
	index      ports.IdempotencyIndex
	walletRepo ports.WalletRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewLedgerEngine creates a new LedgerEngineImpl.
func NewLedgerEngine(
	txRepo ports.TransactionRepository,
	registry ports.WalletRegistry,
	gate ports.VerificationGate,
	index ports.IdempotencyIndex,
	walletRepo ports.WalletRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *LedgerEngineImpl {
	return &LedgerEngineImpl{
		txRepo:     txRepo,
		registry:   registry,
		gate:       gate,
		index:      index,
		walletRepo: walletRepo,
		transactor: transactor,
		log:        log,
	}
}

// Submit admits a transaction: idempotency short-circuit, shape validation,
// role policy, KYC gate, reservation for outgoing types, then a pending
// ledger entry. Settlement is a separate explicit step.
func (s *LedgerEngineImpl) Submit(ctx context.Context, req ports.SubmitRequest) (*domain.Transaction, error) {
	if err := s.validateShape(req); err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		claim, err := s.index.ReserveKey(ctx, req.OwnerID, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if claim.TransactionID != nil {
			return s.replay(ctx, *claim.TransactionID)
		}
		if claim.InFlight {
			return nil, apperror.ErrDuplicateInFlight()
		}
	}

	txn, err := s.admit(ctx, req)
	if err != nil {
		if req.IdempotencyKey != "" {
			s.index.Release(ctx, req.OwnerID, req.IdempotencyKey)
		}
		return nil, err
	}

	if req.IdempotencyKey != "" {
		s.index.Confirm(ctx, req.OwnerID, req.IdempotencyKey, txn.ID)
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("owner_id", req.OwnerID.String()).
		Str("type", string(req.Type)).
		Str("amount", req.Amount.String()).
		Str("currency", req.Currency).
		Msg("transaction admitted")

	return txn, nil
}

// validateShape rejects malformed submissions before any state is touched.
func (s *LedgerEngineImpl) validateShape(req ports.SubmitRequest) error {
	if !req.Type.Valid() {
		return apperror.ErrInvalidRequest(fmt.Sprintf("unknown transaction type: %s", req.Type))
	}
	if !req.Role.Valid() {
		return apperror.ErrInvalidRequest(fmt.Sprintf("unknown role: %s", req.Role))
	}
	if !domain.RoleAllowed(req.Role, req.Type) {
		return apperror.ErrRoleNotAllowed(string(req.Role), string(req.Type))
	}
	if !domain.CurrencySupported(req.Currency) {
		return apperror.ErrInvalidCurrency(req.Currency)
	}
	if err := domain.ValidateAmount(req.Amount, req.Currency); err != nil {
		return apperror.ErrInvalidAmount(err.Error())
	}
	if err := domain.ValidateWalletPair(req.Type, req.FromWalletID, req.ToWalletID); err != nil {
		return apperror.ErrInvalidRequest(err.Error())
	}
	return nil
}

// admit runs the gated admission inside one database transaction.
func (s *LedgerEngineImpl) admit(ctx context.Context, req ports.SubmitRequest) (*domain.Transaction, error) {
	class, ok := domain.OperationClassOf(req.Type)
	if !ok {
		return nil, apperror.ErrInvalidRequest(fmt.Sprintf("unknown transaction type: %s", req.Type))
	}
	if err := s.gate.Authorize(ctx, req.OwnerID, class); err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.checkWallets(ctx, req); err != nil {
		return nil, err
	}

	var reservationID *uuid.UUID
	if req.Type.IsOutgoing() {
		reservation, err := s.registry.Reserve(ctx, dbTx, *req.FromWalletID, req.Amount)
		if err != nil {
			return nil, err
		}
		reservationID = &reservation.ID
	}

	txn := &domain.Transaction{
		ID:            uuid.New(),
		OwnerID:       req.OwnerID,
		Type:          req.Type,
		Amount:        req.Amount,
		Currency:      req.Currency,
		FromWalletID:  req.FromWalletID,
		ToWalletID:    req.ToWalletID,
		ReservationID: reservationID,
		Status:        domain.TransactionStatusPending,
		Description:   req.Description,
		CreatedAt:     time.Now().UTC(),
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		txn.IdempotencyKey = &key
	}

	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	if req.IdempotencyKey != "" {
		if err := s.index.Bind(ctx, dbTx, req.OwnerID, req.IdempotencyKey, txn.ID); err != nil {
			return nil, apperror.InternalError(err)
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	return txn, nil
}

// checkWallets validates ownership, activity and currency of the wallets a
// submission names. The source wallet must belong to the submitter; the
// destination only has to exist, be active and match the currency.
func (s *LedgerEngineImpl) checkWallets(ctx context.Context, req ports.SubmitRequest) error {
	if req.FromWalletID != nil {
		from, err := s.walletRepo.GetByID(ctx, *req.FromWalletID)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("get source wallet: %w", err))
		}
		if from == nil || from.OwnerID != req.OwnerID {
			return apperror.ErrNotFound("source wallet")
		}
		if !from.Active {
			return apperror.ErrWalletInactive()
		}
		if from.Currency != req.Currency {
			return apperror.ErrInvalidRequest(fmt.Sprintf("source wallet holds %s, not %s", from.Currency, req.Currency))
		}
	}
	if req.ToWalletID != nil {
		to, err := s.walletRepo.GetByID(ctx, *req.ToWalletID)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("get destination wallet: %w", err))
		}
		if to == nil {
			return apperror.ErrNotFound("destination wallet")
		}
		if !to.Active {
			return apperror.ErrWalletInactive()
		}
		if to.Currency != req.Currency {
			return apperror.ErrInvalidRequest(fmt.Sprintf("destination wallet holds %s, not %s", to.Currency, req.Currency))
		}
		// Incoming types credit the caller's own wallet.
		if req.Type.IsIncoming() && to.OwnerID != req.OwnerID {
			return apperror.ErrNotFound("destination wallet")
		}
	}
	return nil
}

// replay returns the transaction an earlier submission with the same key
// produced, without re-validating or re-moving funds.
func (s *LedgerEngineImpl) replay(ctx context.Context, txID uuid.UUID) (*domain.Transaction, error) {
	txn, err := s.txRepo.GetByID(ctx, txID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load original transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.InternalError(fmt.Errorf("idempotency key bound to missing transaction %s", txID))
	}
	return txn, nil
}

// Settle moves a pending transaction to completed or failed. Terminal
// transitions are final: settling twice returns the recorded state and
// produces no additional balance change.
func (s *LedgerEngineImpl) Settle(ctx context.Context, txID uuid.UUID, result ports.SettleResult) (*domain.Transaction, error) {
	if result != ports.SettleResultCompleted && result != ports.SettleResultFailed {
		return nil, apperror.ErrInvalidRequest(fmt.Sprintf("unknown settlement result: %s", result))
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	txn, err := s.txRepo.GetByIDForUpdate(ctx, dbTx, txID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("transaction")
	}
	if txn.IsTerminal() {
		return txn, nil
	}

	status := domain.TransactionStatusFailed
	if result == ports.SettleResultCompleted {
		status = domain.TransactionStatusCompleted
		if txn.ReservationID != nil {
			if _, err := s.registry.Settle(ctx, dbTx, *txn.ReservationID, domain.SettleCommit); err != nil {
				return nil, err
			}
		}
		if txn.ToWalletID != nil {
			if err := s.registry.Credit(ctx, dbTx, *txn.ToWalletID, txn.Amount); err != nil {
				return nil, err
			}
		}
	} else if txn.ReservationID != nil {
		if _, err := s.registry.Settle(ctx, dbTx, *txn.ReservationID, domain.SettleRelease); err != nil {
			return nil, err
		}
	}

	if err := s.txRepo.UpdateStatus(ctx, dbTx, txn.ID, status); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update transaction status: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	now := time.Now().UTC()
	txn.Status = status
	txn.SettledAt = &now

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("status", string(status)).
		Msg("transaction settled")

	return txn, nil
}

// Cancel aborts a transaction while it is still pending, releasing its
// reservation. Once settlement has begun the transaction is terminal and
// cancellation is rejected.
func (s *LedgerEngineImpl) Cancel(ctx context.Context, ownerID uuid.UUID, txID uuid.UUID) (*domain.Transaction, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	txn, err := s.txRepo.GetByIDForUpdate(ctx, dbTx, txID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock transaction: %w", err))
	}
	if txn == nil || txn.OwnerID != ownerID {
		return nil, apperror.ErrNotFound("transaction")
	}
	if txn.IsTerminal() {
		return nil, apperror.ErrNotPending(string(txn.Status))
	}

	if txn.ReservationID != nil {
		if _, err := s.registry.Settle(ctx, dbTx, *txn.ReservationID, domain.SettleRelease); err != nil {
			return nil, err
		}
	}

	if err := s.txRepo.UpdateStatus(ctx, dbTx, txn.ID, domain.TransactionStatusCancelled); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update transaction status: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	now := time.Now().UTC()
	txn.Status = domain.TransactionStatusCancelled
	txn.SettledAt = &now

	s.log.Info().Str("tx_id", txn.ID.String()).Msg("transaction cancelled")
	return txn, nil
}
