package service

import (
	"context"
	"testing"

	"wallet-ledger-core/internal/core/domain"
	"wallet-ledger-core/internal/core/ports"
	"wallet-ledger-core/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type reportingTestDeps struct {
	svc        ports.ReportingService
	txRepo     *mocks.MockTransactionRepository
	walletRepo *mocks.MockWalletRepository
	ctrl       *gomock.Controller
}

func setupReportingService(t *testing.T) *reportingTestDeps {
	ctrl := gomock.NewController(t)
	d := &reportingTestDeps{
		txRepo:     mocks.NewMockTransactionRepository(ctrl),
		walletRepo: mocks.NewMockWalletRepository(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewReportingService(d.txRepo, d.walletRepo)
	return d
}

func TestReportingService_GetWallet_OwnerScoped(t *testing.T) {
	d := setupReportingService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ownerID := uuid.New()
	walletID := uuid.New()

	d.walletRepo.EXPECT().GetByID(ctx, walletID).Return(&domain.Wallet{
		ID:      walletID,
		OwnerID: ownerID,
	}, nil)

	w, err := d.svc.GetWallet(ctx, ownerID, walletID)
	require.NoError(t, err)
	assert.Equal(t, walletID, w.ID)
}

func TestReportingService_GetWallet_ForeignLooksMissing(t *testing.T) {
	d := setupReportingService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()

	d.walletRepo.EXPECT().GetByID(ctx, walletID).Return(&domain.Wallet{
		ID:      walletID,
		OwnerID: uuid.New(),
	}, nil)

	_, err := d.svc.GetWallet(ctx, uuid.New(), walletID)
	assertAppError(t, err, "LED_004")
}

func TestReportingService_GetTransaction_ForeignLooksMissing(t *testing.T) {
	d := setupReportingService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	txID := uuid.New()

	d.txRepo.EXPECT().GetByID(ctx, txID).Return(&domain.Transaction{
		ID:      txID,
		OwnerID: uuid.New(),
	}, nil)

	_, err := d.svc.GetTransaction(ctx, uuid.New(), txID)
	assertAppError(t, err, "LED_004")
}

func TestReportingService_ListTransactions_ClampsPagination(t *testing.T) {
	d := setupReportingService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ownerID := uuid.New()

	d.txRepo.EXPECT().List(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
			assert.Equal(t, 1, params.Page)
			assert.Equal(t, 20, params.PageSize)
			return []domain.Transaction{}, 0, nil
		})

	_, total, err := d.svc.ListTransactions(ctx, ports.TransactionListParams{
		OwnerID:  ownerID,
		Page:     0,
		PageSize: 500,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}
