package service

import (
	"context"
	"testing"

	"wallet-ledger-core/internal/core/domain"
	"wallet-ledger-core/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type verificationTestDeps struct {
	svc  *VerificationGateImpl
	repo *mocks.MockVerificationRepository
	ctrl *gomock.Controller
}

func setupVerificationGate(t *testing.T) *verificationTestDeps {
	ctrl := gomock.NewController(t)
	d := &verificationTestDeps{
		repo: mocks.NewMockVerificationRepository(ctrl),
		ctrl: ctrl,
	}
	d.svc = NewVerificationGate(d.repo, zerolog.Nop())
	return d
}

func TestVerificationGate_SetFlag_FirstFlag(t *testing.T) {
	d := setupVerificationGate(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	d.repo.EXPECT().Get(ctx, userID).Return(nil, nil)
	d.repo.EXPECT().Upsert(ctx, gomock.Any()).Return(nil)

	record, err := d.svc.SetFlag(ctx, userID, domain.FlagPhone, true)
	require.NoError(t, err)
	assert.True(t, record.PhoneVerified)
	assert.Equal(t, domain.KYCStatusInProgress, record.Status)
}

func TestVerificationGate_SetFlag_LastFlagVerifies(t *testing.T) {
	d := setupVerificationGate(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	d.repo.EXPECT().Get(ctx, userID).Return(&domain.VerificationRecord{
		UserID:            userID,
		PhoneVerified:     true,
		DocumentsVerified: true,
		Status:            domain.KYCStatusInProgress,
	}, nil)
	d.repo.EXPECT().Upsert(ctx, gomock.Any()).Return(nil)

	record, err := d.svc.SetFlag(ctx, userID, domain.FlagBiometric, true)
	require.NoError(t, err)
	assert.Equal(t, domain.KYCStatusVerified, record.Status)
}

func TestVerificationGate_SetFlag_CannotRevoke(t *testing.T) {
	d := setupVerificationGate(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	d.repo.EXPECT().Get(ctx, userID).Return(&domain.VerificationRecord{
		UserID:        userID,
		PhoneVerified: true,
		Status:        domain.KYCStatusInProgress,
	}, nil)

	_, err := d.svc.SetFlag(ctx, userID, domain.FlagPhone, false)
	assertAppError(t, err, "LED_006")
}

func TestVerificationGate_SetFlag_RejectedIsTerminal(t *testing.T) {
	d := setupVerificationGate(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	d.repo.EXPECT().Get(ctx, userID).Return(&domain.VerificationRecord{
		UserID:   userID,
		Rejected: true,
		Status:   domain.KYCStatusRejected,
	}, nil)

	_, err := d.svc.SetFlag(ctx, userID, domain.FlagDocuments, true)
	assertAppError(t, err, "KYC_002")
}

func TestVerificationGate_SetFlag_UnknownFlag(t *testing.T) {
	d := setupVerificationGate(t)
	defer d.ctrl.Finish()

	_, err := d.svc.SetFlag(context.Background(), uuid.New(), "email", true)
	assertAppError(t, err, "LED_006")
}

func TestVerificationGate_Reject_OverridesFlags(t *testing.T) {
	d := setupVerificationGate(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	d.repo.EXPECT().Get(ctx, userID).Return(&domain.VerificationRecord{
		UserID:            userID,
		PhoneVerified:     true,
		DocumentsVerified: true,
		BiometricVerified: true,
		Status:            domain.KYCStatusVerified,
	}, nil)
	d.repo.EXPECT().Upsert(ctx, gomock.Any()).Return(nil)

	record, err := d.svc.Reject(ctx, userID)
	require.NoError(t, err)
	assert.True(t, record.Rejected)
	assert.Equal(t, domain.KYCStatusRejected, record.Status)
}

func TestVerificationGate_Status_UnknownUserDefaultsPending(t *testing.T) {
	d := setupVerificationGate(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	d.repo.EXPECT().Get(ctx, userID).Return(nil, nil)

	record, err := d.svc.Status(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.KYCStatusPending, record.Status)
	assert.Len(t, record.MissingSteps(), 3)
}

func TestVerificationGate_Authorize(t *testing.T) {
	verified := &domain.VerificationRecord{
		PhoneVerified:     true,
		DocumentsVerified: true,
		BiometricVerified: true,
		Status:            domain.KYCStatusVerified,
	}
	inProgress := &domain.VerificationRecord{
		PhoneVerified: true,
		Status:        domain.KYCStatusInProgress,
	}
	rejected := &domain.VerificationRecord{
		Rejected: true,
		Status:   domain.KYCStatusRejected,
	}

	tests := []struct {
		name     string
		record   *domain.VerificationRecord
		class    domain.OperationClass
		wantCode string // empty = authorized
	}{
		{"verified may move money", verified, domain.OpClassMoneyMovement, ""},
		{"verified may receive credit", verified, domain.OpClassCredit, ""},
		{"in progress may receive credit", inProgress, domain.OpClassCredit, ""},
		{"in progress may not move money", inProgress, domain.OpClassMoneyMovement, "KYC_001"},
		{"unknown user may not move money", nil, domain.OpClassMoneyMovement, "KYC_001"},
		{"unknown user may not receive credit", nil, domain.OpClassCredit, "KYC_001"},
		{"rejected may not move money", rejected, domain.OpClassMoneyMovement, "KYC_002"},
		{"rejected may not receive credit", rejected, domain.OpClassCredit, "KYC_002"},
		{"unknown class denied", verified, domain.OperationClass("admin"), "KYC_001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupVerificationGate(t)
			defer d.ctrl.Finish()

			ctx := context.Background()
			userID := uuid.New()
			record := tt.record
			if record != nil {
				r := *record
				r.UserID = userID
				record = &r
			}
			d.repo.EXPECT().Get(ctx, userID).Return(record, nil)

			err := d.svc.Authorize(ctx, userID, tt.class)
			if tt.wantCode == "" {
				require.NoError(t, err)
			} else {
				assertAppError(t, err, tt.wantCode)
			}
		})
	}
}

func TestVerificationGate_Authorize_ReportsMissingSteps(t *testing.T) {
	d := setupVerificationGate(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	d.repo.EXPECT().Get(ctx, userID).Return(&domain.VerificationRecord{
		UserID:        userID,
		PhoneVerified: true,
		Status:        domain.KYCStatusInProgress,
	}, nil)

	err := d.svc.Authorize(ctx, userID, domain.OpClassMoneyMovement)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "documents")
	assert.Contains(t, err.Error(), "biometric")
	assert.NotContains(t, err.Error(), "phone")
}
