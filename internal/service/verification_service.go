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

// VerificationGateImpl implements ports.VerificationGate. It is a pure
// predicate service to the ledger: the verification workflow writes flags,
// the ledger only ever reads the derived status through Authorize.
type VerificationGateImpl struct {
	repo ports.VerificationRepository
	log  zerolog.Logger
}

// NewVerificationGate creates a new VerificationGateImpl.
func NewVerificationGate(repo ports.VerificationRepository, log zerolog.Logger) *VerificationGateImpl {
	return &VerificationGateImpl{repo: repo, log: log}
}

// SetFlag updates one verification flag and recomputes the aggregate
// status. Verification only advances: clearing a flag that is already true
// is rejected, and a rejected record stays rejected until a manual reset
// outside this service.
func (s *VerificationGateImpl) SetFlag(ctx context.Context, userID uuid.UUID, flag domain.VerificationFlag, value bool) (*domain.VerificationRecord, error) {
	if !flag.Valid() {
		return nil, apperror.ErrInvalidRequest(fmt.Sprintf("unknown verification flag: %s", flag))
	}

	record, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if record.Rejected {
		return nil, apperror.ErrVerificationRejected()
	}

	current := flagValue(record, flag)
	if current && !value {
		return nil, apperror.ErrInvalidRequest(fmt.Sprintf("%s verification cannot be revoked", flag))
	}
	setFlagValue(record, flag, value)

	record.Status = record.DeriveStatus()
	record.UpdatedAt = time.Now().UTC()
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("save verification record: %w", err))
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Str("flag", string(flag)).
		Bool("value", value).
		Str("kyc_status", string(record.Status)).
		Msg("verification flag updated")

	return record, nil
}

// Reject applies the explicit rejected override. Terminal until a manual
// reset by an external process.
func (s *VerificationGateImpl) Reject(ctx context.Context, userID uuid.UUID) (*domain.VerificationRecord, error) {
	record, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}

	record.Rejected = true
	record.Status = record.DeriveStatus()
	record.UpdatedAt = time.Now().UTC()
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("save verification record: %w", err))
	}

	s.log.Warn().Str("user_id", userID.String()).Msg("verification rejected")
	return record, nil
}

// Status returns the user's verification record, defaulting to an all-false
// pending record for users the workflow has not touched yet.
func (s *VerificationGateImpl) Status(ctx context.Context, userID uuid.UUID) (*domain.VerificationRecord, error) {
	return s.get(ctx, userID)
}

// Authorize answers whether the user's current KYC status permits the
// operation class. Unknown users and unknown classes are never authorized.
func (s *VerificationGateImpl) Authorize(ctx context.Context, userID uuid.UUID, class domain.OperationClass) error {
	record, err := s.repo.Get(ctx, userID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get verification record: %w", err))
	}
	if record == nil {
		// Fail closed: a user with no record has completed nothing.
		record = &domain.VerificationRecord{UserID: userID, Status: domain.KYCStatusPending}
	}

	if record.Status == domain.KYCStatusRejected {
		return apperror.ErrVerificationRejected()
	}

	switch class {
	case domain.OpClassMoneyMovement:
		if record.Status != domain.KYCStatusVerified {
			return missingStepsError(record)
		}
		return nil
	case domain.OpClassCredit:
		if record.Status != domain.KYCStatusInProgress && record.Status != domain.KYCStatusVerified {
			return missingStepsError(record)
		}
		return nil
	}
	return missingStepsError(record)
}

func (s *VerificationGateImpl) get(ctx context.Context, userID uuid.UUID) (*domain.VerificationRecord, error) {
	record, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get verification record: %w", err))
	}
	if record == nil {
		record = &domain.VerificationRecord{
			UserID: userID,
			Status: domain.KYCStatusPending,
		}
	}
	return record, nil
}

func missingStepsError(record *domain.VerificationRecord) error {
	missing := record.MissingSteps()
	steps := make([]string, len(missing))
	for i, m := range missing {
		steps[i] = string(m)
	}
	return apperror.ErrNotVerified(steps...)
}

func flagValue(r *domain.VerificationRecord, flag domain.VerificationFlag) bool {
	switch flag {
	case domain.FlagPhone:
		return r.PhoneVerified
	case domain.FlagDocuments:
		return r.DocumentsVerified
	case domain.FlagBiometric:
		return r.BiometricVerified
	}
	return false
}

func setFlagValue(r *domain.VerificationRecord, flag domain.VerificationFlag, value bool) {
	switch flag {
	case domain.FlagPhone:
		r.PhoneVerified = value
	case domain.FlagDocuments:
		r.DocumentsVerified = value
	case domain.FlagBiometric:
		r.BiometricVerified = value
	}
}
