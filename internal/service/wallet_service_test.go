package service

import (
	"context"
	"testing"

	"wallet-ledger-core/internal/core/domain"
	"wallet-ledger-core/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type walletTestDeps struct {
	svc        *WalletRegistryImpl
	walletRepo *mocks.MockWalletRepository
	resRepo    *mocks.MockReservationRepository
	ctrl       *gomock.Controller
}

func setupWalletRegistry(t *testing.T) *walletTestDeps {
	ctrl := gomock.NewController(t)
	d := &walletTestDeps{
		walletRepo: mocks.NewMockWalletRepository(ctrl),
		resRepo:    mocks.NewMockReservationRepository(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewWalletRegistry(d.walletRepo, d.resRepo, zerolog.Nop())
	return d
}

// decEq matches a decimal by value; reflect.DeepEqual is unreliable for
// decimals produced by arithmetic.
type decimalMatcher struct{ want decimal.Decimal }

func (m decimalMatcher) Matches(x any) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(m.want)
}

func (m decimalMatcher) String() string { return "decimal == " + m.want.String() }

func decEq(s string) gomock.Matcher {
	return decimalMatcher{want: decimal.RequireFromString(s)}
}

func TestWalletRegistry_GetOrCreate_CreatesNew(t *testing.T) {
	d := setupWalletRegistry(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ownerID := uuid.New()

	d.walletRepo.EXPECT().GetByOwner(ctx, ownerID, domain.WalletTypePrimary).Return(nil, nil)
	d.walletRepo.EXPECT().Create(ctx, gomock.Any()).Return(true, nil)

	w, err := d.svc.GetOrCreate(ctx, ownerID, domain.WalletTypePrimary, "USD")
	require.NoError(t, err)
	assert.Equal(t, ownerID, w.OwnerID)
	assert.True(t, w.Balance.IsZero())
	assert.True(t, w.PendingBalance.IsZero())
	assert.True(t, w.Active)
}

func TestWalletRegistry_GetOrCreate_ReturnsExisting(t *testing.T) {
	d := setupWalletRegistry(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ownerID := uuid.New()
	existing := &domain.Wallet{
		ID:       uuid.New(),
		OwnerID:  ownerID,
		Type:     domain.WalletTypePrimary,
		Currency: "USD",
		Balance:  decimal.RequireFromString("42.00"),
		Active:   true,
	}

	d.walletRepo.EXPECT().GetByOwner(ctx, ownerID, domain.WalletTypePrimary).Return(existing, nil)

	w, err := d.svc.GetOrCreate(ctx, ownerID, domain.WalletTypePrimary, "USD")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, w.ID)
}

func TestWalletRegistry_GetOrCreate_CurrencyMismatch(t *testing.T) {
	d := setupWalletRegistry(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ownerID := uuid.New()

	d.walletRepo.EXPECT().GetByOwner(ctx, ownerID, domain.WalletTypePrimary).Return(&domain.Wallet{
		ID:       uuid.New(),
		OwnerID:  ownerID,
		Type:     domain.WalletTypePrimary,
		Currency: "EUR",
	}, nil)

	_, err := d.svc.GetOrCreate(ctx, ownerID, domain.WalletTypePrimary, "USD")
	assertAppError(t, err, "LED_006")
}

func TestWalletRegistry_GetOrCreate_LosesCreationRace(t *testing.T) {
	d := setupWalletRegistry(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ownerID := uuid.New()
	winner := &domain.Wallet{
		ID:       uuid.New(),
		OwnerID:  ownerID,
		Type:     domain.WalletTypeSavings,
		Currency: "USD",
		Active:   true,
	}

	d.walletRepo.EXPECT().GetByOwner(ctx, ownerID, domain.WalletTypeSavings).Return(nil, nil)
	d.walletRepo.EXPECT().Create(ctx, gomock.Any()).Return(false, nil)
	d.walletRepo.EXPECT().GetByOwner(ctx, ownerID, domain.WalletTypeSavings).Return(winner, nil)

	w, err := d.svc.GetOrCreate(ctx, ownerID, domain.WalletTypeSavings, "USD")
	require.NoError(t, err)
	assert.Equal(t, winner.ID, w.ID)
}

func TestWalletRegistry_GetOrCreate_InvalidInput(t *testing.T) {
	d := setupWalletRegistry(t)
	defer d.ctrl.Finish()

	_, err := d.svc.GetOrCreate(context.Background(), uuid.New(), "checking", "USD")
	assertAppError(t, err, "LED_006")

	_, err = d.svc.GetOrCreate(context.Background(), uuid.New(), domain.WalletTypePrimary, "XXX")
	assertAppError(t, err, "LED_005")
}

func TestWalletRegistry_Reserve_HoldsFunds(t *testing.T) {
	d := setupWalletRegistry(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()
	tx := &mockTx{}
	amount := decimal.RequireFromString("100.00")

	wallet := &domain.Wallet{
		ID:             walletID,
		Currency:       "USD",
		Balance:        decimal.RequireFromString("1000.00"),
		PendingBalance: decimal.RequireFromString("200.00"),
		Active:         true,
	}

	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, walletID).Return(wallet, nil)
	d.walletRepo.EXPECT().UpdateBalances(ctx, tx, walletID, decEq("1000.00"), decEq("300.00")).Return(nil)
	d.resRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)

	res, err := d.svc.Reserve(ctx, tx, walletID, amount)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationHeld, res.State)
	assert.True(t, res.Amount.Equal(amount))
	assert.Equal(t, walletID, res.WalletID)
}

func TestWalletRegistry_Reserve_InsufficientAvailable(t *testing.T) {
	d := setupWalletRegistry(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()
	tx := &mockTx{}

	// Balance covers the amount but the available balance does not.
	wallet := &domain.Wallet{
		ID:             walletID,
		Balance:        decimal.RequireFromString("1000.00"),
		PendingBalance: decimal.RequireFromString("950.00"),
		Active:         true,
	}

	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, walletID).Return(wallet, nil)

	_, err := d.svc.Reserve(ctx, tx, walletID, decimal.RequireFromString("100.00"))
	assertAppError(t, err, "LED_001")
}

func TestWalletRegistry_Reserve_ExactAvailableSucceeds(t *testing.T) {
	d := setupWalletRegistry(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()
	tx := &mockTx{}

	wallet := &domain.Wallet{
		ID:             walletID,
		Balance:        decimal.RequireFromString("100.00"),
		PendingBalance: decimal.Zero,
		Active:         true,
	}

	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, walletID).Return(wallet, nil)
	d.walletRepo.EXPECT().UpdateBalances(ctx, tx, walletID, decEq("100.00"), decEq("100.00")).Return(nil)
	d.resRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)

	_, err := d.svc.Reserve(ctx, tx, walletID, decimal.RequireFromString("100.00"))
	require.NoError(t, err)
}

func TestWalletRegistry_Reserve_InactiveWallet(t *testing.T) {
	d := setupWalletRegistry(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()
	tx := &mockTx{}

	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, walletID).Return(&domain.Wallet{
		ID:      walletID,
		Balance: decimal.RequireFromString("1000.00"),
		Active:  false,
	}, nil)

	_, err := d.svc.Reserve(ctx, tx, walletID, decimal.RequireFromString("10.00"))
	assertAppError(t, err, "LED_008")
}

func TestWalletRegistry_Settle_Commit(t *testing.T) {
	d := setupWalletRegistry(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()
	resID := uuid.New()
	tx := &mockTx{}
	amount := decimal.RequireFromString("100.00")

	d.resRepo.EXPECT().GetByIDForUpdate(ctx, tx, resID).Return(&domain.Reservation{
		ID:       resID,
		WalletID: walletID,
		Amount:   amount,
		State:    domain.ReservationHeld,
	}, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, walletID).Return(&domain.Wallet{
		ID:             walletID,
		Balance:        decimal.RequireFromString("1000.00"),
		PendingBalance: decimal.RequireFromString("100.00"),
		Active:         true,
	}, nil)
	d.walletRepo.EXPECT().UpdateBalances(ctx, tx, walletID, decEq("900.00"), decEq("0")).Return(nil)
	d.resRepo.EXPECT().UpdateState(ctx, tx, resID, domain.ReservationCommitted).Return(nil)

	res, err := d.svc.Settle(ctx, tx, resID, domain.SettleCommit)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationCommitted, res.State)
	require.NotNil(t, res.SettledAt)
}

func TestWalletRegistry_Settle_Release(t *testing.T) {
	d := setupWalletRegistry(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()
	resID := uuid.New()
	tx := &mockTx{}
	amount := decimal.RequireFromString("100.00")

	d.resRepo.EXPECT().GetByIDForUpdate(ctx, tx, resID).Return(&domain.Reservation{
		ID:       resID,
		WalletID: walletID,
		Amount:   amount,
		State:    domain.ReservationHeld,
	}, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, walletID).Return(&domain.Wallet{
		ID:             walletID,
		Balance:        decimal.RequireFromString("1000.00"),
		PendingBalance: decimal.RequireFromString("100.00"),
		Active:         true,
	}, nil)
	// Balance untouched on release.
	d.walletRepo.EXPECT().UpdateBalances(ctx, tx, walletID, decEq("1000.00"), decEq("0")).Return(nil)
	d.resRepo.EXPECT().UpdateState(ctx, tx, resID, domain.ReservationReleased).Return(nil)

	res, err := d.svc.Settle(ctx, tx, resID, domain.SettleRelease)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationReleased, res.State)
}

func TestWalletRegistry_Settle_AlreadySettled(t *testing.T) {
	d := setupWalletRegistry(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	resID := uuid.New()
	tx := &mockTx{}

	d.resRepo.EXPECT().GetByIDForUpdate(ctx, tx, resID).Return(&domain.Reservation{
		ID:    resID,
		State: domain.ReservationCommitted,
	}, nil)
	// No balance movement for an already settled reservation.

	res, err := d.svc.Settle(ctx, tx, resID, domain.SettleCommit)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationCommitted, res.State)
}

func TestWalletRegistry_Credit_AddsToBalance(t *testing.T) {
	d := setupWalletRegistry(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()
	tx := &mockTx{}

	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, walletID).Return(&domain.Wallet{
		ID:             walletID,
		Balance:        decimal.RequireFromString("50.00"),
		PendingBalance: decimal.RequireFromString("10.00"),
		Active:         true,
	}, nil)
	d.walletRepo.EXPECT().UpdateBalances(ctx, tx, walletID, decEq("75.50"), decEq("10.00")).Return(nil)

	err := d.svc.Credit(ctx, tx, walletID, decimal.RequireFromString("25.50"))
	require.NoError(t, err)
}

func TestWalletRegistry_Credit_InactiveWallet(t *testing.T) {
	d := setupWalletRegistry(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()
	tx := &mockTx{}

	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, walletID).Return(&domain.Wallet{
		ID:     walletID,
		Active: false,
	}, nil)

	err := d.svc.Credit(ctx, tx, walletID, decimal.RequireFromString("25.50"))
	assertAppError(t, err, "LED_008")
}
