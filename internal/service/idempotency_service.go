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
)

// IdempotencyIndexImpl implements ports.IdempotencyIndex with two layers:
// a redis claim (the atomic first-seen race, bounded by claimTTL so a
// crashed attempt cannot block retries forever) and a postgres record (the
// durable key→transaction binding, written in the same database transaction
// as the transaction row).
type IdempotencyIndexImpl struct {
	claims    ports.IdempotencyClaimStore
	repo      ports.IdempotencyRepository
	claimTTL  time.Duration
	resultTTL time.Duration
	log       zerolog.Logger
}

// NewIdempotencyIndex creates a new IdempotencyIndexImpl.
func NewIdempotencyIndex(
	claims ports.IdempotencyClaimStore,
	repo ports.IdempotencyRepository,
	claimTTL, resultTTL time.Duration,
	log zerolog.Logger,
) *IdempotencyIndexImpl {
	return &IdempotencyIndexImpl{
		claims:    claims,
		repo:      repo,
		claimTTL:  claimTTL,
		resultTTL: resultTTL,
		log:       log,
	}
}

// ReserveKey atomically claims an owner-scoped key. Exactly one caller per
// live claim sees Fresh; everyone else gets the bound transaction id, or
// InFlight while the winner is still working.
func (s *IdempotencyIndexImpl) ReserveKey(ctx context.Context, ownerID uuid.UUID, key string) (*ports.KeyClaim, error) {
	scoped := domain.BuildIdempotencyKey(ownerID, key)

	// Durable binding wins over any claim state.
	record, err := s.repo.Get(ctx, scoped)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("idempotency lookup: %w", err))
	}
	if record != nil {
		return &ports.KeyClaim{TransactionID: &record.TransactionID}, nil
	}

	won, err := s.claims.Claim(ctx, scoped, s.claimTTL)
	if err != nil {
		// The claim layer is an optimization for the concurrent race; if
		// redis is down the durable check above still holds for retries.
		s.log.Warn().Err(err).Str("key", scoped).Msg("idempotency claim failed, proceeding on durable layer only")
		return &ports.KeyClaim{Fresh: true}, nil
	}
	if won {
		return &ports.KeyClaim{Fresh: true}, nil
	}

	// Lost the race: the claim may already carry the winner's transaction id.
	val, err := s.claims.Get(ctx, scoped)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("read idempotency claim: %w", err))
	}
	if txID, parseErr := uuid.Parse(val); parseErr == nil {
		return &ports.KeyClaim{TransactionID: &txID}, nil
	}

	// The winner committed between our two reads, or is still in flight.
	record, err = s.repo.Get(ctx, scoped)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("idempotency recheck: %w", err))
	}
	if record != nil {
		return &ports.KeyClaim{TransactionID: &record.TransactionID}, nil
	}
	return &ports.KeyClaim{InFlight: true}, nil
}

// Bind writes the durable binding inside the caller's database transaction.
func (s *IdempotencyIndexImpl) Bind(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, key string, txID uuid.UUID) error {
	record := &domain.IdempotencyRecord{
		Key:           domain.BuildIdempotencyKey(ownerID, key),
		TransactionID: txID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, tx, record); err != nil {
		return fmt.Errorf("save idempotency record: %w", err)
	}
	return nil
}

// Confirm replaces the claim placeholder with the transaction id so later
// duplicates short-circuit without touching postgres. Best-effort.
func (s *IdempotencyIndexImpl) Confirm(ctx context.Context, ownerID uuid.UUID, key string, txID uuid.UUID) {
	scoped := domain.BuildIdempotencyKey(ownerID, key)
	if err := s.claims.Bind(ctx, scoped, txID.String(), s.resultTTL); err != nil {
		s.log.Warn().Err(err).Str("key", scoped).Msg("failed to cache idempotency binding")
	}
}

// Release drops the claim after a failed attempt so a legitimate retry does
// not have to wait out the claim TTL.
func (s *IdempotencyIndexImpl) Release(ctx context.Context, ownerID uuid.UUID, key string) {
	scoped := domain.BuildIdempotencyKey(ownerID, key)
	if err := s.claims.Release(ctx, scoped); err != nil {
		s.log.Warn().Err(err).Str("key", scoped).Msg("failed to release idempotency claim")
	}
}
