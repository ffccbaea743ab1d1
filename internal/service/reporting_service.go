package service

import (
	"context"

	"wallet-ledger-core/internal/core/domain"
	"wallet-ledger-core/internal/core/ports"
	"wallet-ledger-core/pkg/apperror"

	"github.com/google/uuid"
)

// reportingService implements ports.ReportingService. Every read is scoped
// to the requesting owner; foreign ids come back as not-found rather than
// forbidden, so the API does not leak which ids exist.
type reportingService struct {
	txRepo     ports.TransactionRepository
	walletRepo ports.WalletRepository
}

// NewReportingService creates a new reporting service.
func NewReportingService(
	txRepo ports.TransactionRepository,
	walletRepo ports.WalletRepository,
) ports.ReportingService {
	return &reportingService{
		txRepo:     txRepo,
		walletRepo: walletRepo,
	}
}

// GetWallet returns one wallet with its balance and pending balance.
func (s *reportingService) GetWallet(ctx context.Context, ownerID, walletID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if wallet == nil || wallet.OwnerID != ownerID {
		return nil, apperror.ErrNotFound("wallet")
	}
	return wallet, nil
}

// ListWallets returns all wallets of the owner.
func (s *reportingService) ListWallets(ctx context.Context, ownerID uuid.UUID) ([]domain.Wallet, error) {
	wallets, err := s.walletRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return wallets, nil
}

// GetTransaction returns one transaction of the owner.
func (s *reportingService) GetTransaction(ctx context.Context, ownerID, txID uuid.UUID) (*domain.Transaction, error) {
	txn, err := s.txRepo.GetByID(ctx, txID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if txn == nil || txn.OwnerID != ownerID {
		return nil, apperror.ErrNotFound("transaction")
	}
	return txn, nil
}

// ListTransactions returns a paginated, filtered transaction history.
func (s *reportingService) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	txns, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(err)
	}
	return txns, total, nil
}
