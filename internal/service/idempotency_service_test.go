package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"wallet-ledger-core/internal/core/domain"
	"wallet-ledger-core/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	testClaimTTL  = 60 * time.Second
	testResultTTL = 24 * time.Hour
)

type idempotencyTestDeps struct {
	svc    *IdempotencyIndexImpl
	claims *mocks.MockIdempotencyClaimStore
	repo   *mocks.MockIdempotencyRepository
	ctrl   *gomock.Controller
}

func setupIdempotencyIndex(t *testing.T) *idempotencyTestDeps {
	ctrl := gomock.NewController(t)
	d := &idempotencyTestDeps{
		claims: mocks.NewMockIdempotencyClaimStore(ctrl),
		repo:   mocks.NewMockIdempotencyRepository(ctrl),
		ctrl:   ctrl,
	}
	d.svc = NewIdempotencyIndex(d.claims, d.repo, testClaimTTL, testResultTTL, zerolog.Nop())
	return d
}

func TestIdempotencyIndex_ReserveKey_Fresh(t *testing.T) {
	d := setupIdempotencyIndex(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ownerID := uuid.New()
	scoped := domain.BuildIdempotencyKey(ownerID, "k1")

	d.repo.EXPECT().Get(ctx, scoped).Return(nil, nil)
	d.claims.EXPECT().Claim(ctx, scoped, testClaimTTL).Return(true, nil)

	claim, err := d.svc.ReserveKey(ctx, ownerID, "k1")
	require.NoError(t, err)
	assert.True(t, claim.Fresh)
	assert.Nil(t, claim.TransactionID)
	assert.False(t, claim.InFlight)
}

func TestIdempotencyIndex_ReserveKey_DurableHit(t *testing.T) {
	d := setupIdempotencyIndex(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ownerID := uuid.New()
	txID := uuid.New()
	scoped := domain.BuildIdempotencyKey(ownerID, "k1")

	d.repo.EXPECT().Get(ctx, scoped).Return(&domain.IdempotencyRecord{
		Key:           scoped,
		TransactionID: txID,
	}, nil)
	// Claim layer never consulted when the durable record exists.

	claim, err := d.svc.ReserveKey(ctx, ownerID, "k1")
	require.NoError(t, err)
	require.NotNil(t, claim.TransactionID)
	assert.Equal(t, txID, *claim.TransactionID)
	assert.False(t, claim.Fresh)
}

func TestIdempotencyIndex_ReserveKey_LostRaceBoundClaim(t *testing.T) {
	d := setupIdempotencyIndex(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ownerID := uuid.New()
	txID := uuid.New()
	scoped := domain.BuildIdempotencyKey(ownerID, "k1")

	d.repo.EXPECT().Get(ctx, scoped).Return(nil, nil)
	d.claims.EXPECT().Claim(ctx, scoped, testClaimTTL).Return(false, nil)
	d.claims.EXPECT().Get(ctx, scoped).Return(txID.String(), nil)

	claim, err := d.svc.ReserveKey(ctx, ownerID, "k1")
	require.NoError(t, err)
	require.NotNil(t, claim.TransactionID)
	assert.Equal(t, txID, *claim.TransactionID)
}

func TestIdempotencyIndex_ReserveKey_LostRaceInFlight(t *testing.T) {
	d := setupIdempotencyIndex(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ownerID := uuid.New()
	scoped := domain.BuildIdempotencyKey(ownerID, "k1")

	d.repo.EXPECT().Get(ctx, scoped).Return(nil, nil)
	d.claims.EXPECT().Claim(ctx, scoped, testClaimTTL).Return(false, nil)
	d.claims.EXPECT().Get(ctx, scoped).Return("pending", nil)
	d.repo.EXPECT().Get(ctx, scoped).Return(nil, nil)

	claim, err := d.svc.ReserveKey(ctx, ownerID, "k1")
	require.NoError(t, err)
	assert.True(t, claim.InFlight)
	assert.False(t, claim.Fresh)
	assert.Nil(t, claim.TransactionID)
}

func TestIdempotencyIndex_ReserveKey_WinnerCommittedBetweenReads(t *testing.T) {
	d := setupIdempotencyIndex(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ownerID := uuid.New()
	txID := uuid.New()
	scoped := domain.BuildIdempotencyKey(ownerID, "k1")

	d.repo.EXPECT().Get(ctx, scoped).Return(nil, nil)
	d.claims.EXPECT().Claim(ctx, scoped, testClaimTTL).Return(false, nil)
	d.claims.EXPECT().Get(ctx, scoped).Return("pending", nil)
	// By the recheck the winner's database transaction has committed.
	d.repo.EXPECT().Get(ctx, scoped).Return(&domain.IdempotencyRecord{
		Key:           scoped,
		TransactionID: txID,
	}, nil)

	claim, err := d.svc.ReserveKey(ctx, ownerID, "k1")
	require.NoError(t, err)
	require.NotNil(t, claim.TransactionID)
	assert.Equal(t, txID, *claim.TransactionID)
}

func TestIdempotencyIndex_ReserveKey_ClaimStoreDownDegrades(t *testing.T) {
	d := setupIdempotencyIndex(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ownerID := uuid.New()
	scoped := domain.BuildIdempotencyKey(ownerID, "k1")

	d.repo.EXPECT().Get(ctx, scoped).Return(nil, nil)
	d.claims.EXPECT().Claim(ctx, scoped, testClaimTTL).Return(false, errors.New("redis down"))

	claim, err := d.svc.ReserveKey(ctx, ownerID, "k1")
	require.NoError(t, err)
	assert.True(t, claim.Fresh)
}

func TestIdempotencyIndex_Bind(t *testing.T) {
	d := setupIdempotencyIndex(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ownerID := uuid.New()
	txID := uuid.New()
	tx := &mockTx{}
	scoped := domain.BuildIdempotencyKey(ownerID, "k1")

	d.repo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ any, record *domain.IdempotencyRecord) error {
			assert.Equal(t, scoped, record.Key)
			assert.Equal(t, txID, record.TransactionID)
			return nil
		})

	err := d.svc.Bind(ctx, tx, ownerID, "k1", txID)
	require.NoError(t, err)
}

func TestIdempotencyIndex_Confirm_BestEffort(t *testing.T) {
	d := setupIdempotencyIndex(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ownerID := uuid.New()
	txID := uuid.New()
	scoped := domain.BuildIdempotencyKey(ownerID, "k1")

	d.claims.EXPECT().Bind(ctx, scoped, txID.String(), testResultTTL).
		Return(errors.New("redis down"))

	// Confirm swallows claim store failures.
	d.svc.Confirm(ctx, ownerID, "k1", txID)
}

func TestIdempotencyIndex_Release(t *testing.T) {
	d := setupIdempotencyIndex(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	ownerID := uuid.New()
	scoped := domain.BuildIdempotencyKey(ownerID, "k1")

	d.claims.EXPECT().Release(ctx, scoped).Return(nil)

	d.svc.Release(ctx, ownerID, "k1")
}
