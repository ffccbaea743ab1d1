package ports

import (
	"context"
	"time"

	"wallet-ledger-core/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// --- Core component ports ---

// WalletRegistry owns wallet creation and all balance mutation. The
// tx-scoped methods must run inside the caller's database transaction so
// that reservation, settlement and ledger state commit or roll back as one.
type WalletRegistry interface {
	GetOrCreate(ctx context.Context, ownerID uuid.UUID, walletType domain.WalletType, currency string) (*domain.Wallet, error)
	// Reserve holds amount on the wallet iff balance - pendingBalance >= amount.
	// The check and the pending increment are one atomic step under the row lock.
	Reserve(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) (*domain.Reservation, error)
	// Settle finalizes a reservation. Settling an already-settled
	// reservation is a no-op returning the prior outcome.
	Settle(ctx context.Context, tx pgx.Tx, reservationID uuid.UUID, outcome domain.SettleOutcome) (*domain.Reservation, error)
	Credit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) error
}

// VerificationGate derives the aggregate KYC status and answers whether an
// operation class is permitted for a user right now. Authorize fails closed.
type VerificationGate interface {
	SetFlag(ctx context.Context, userID uuid.UUID, flag domain.VerificationFlag, value bool) (*domain.VerificationRecord, error)
	Reject(ctx context.Context, userID uuid.UUID) (*domain.VerificationRecord, error)
	Status(ctx context.Context, userID uuid.UUID) (*domain.VerificationRecord, error)
	Authorize(ctx context.Context, userID uuid.UUID, class domain.OperationClass) error
}

// KeyClaim is the result of an idempotency key reservation.
type KeyClaim struct {
	Fresh         bool       // Key seen for the first time; caller proceeds.
	TransactionID *uuid.UUID // Set when the key is already bound to a transaction.
	InFlight      bool       // An earlier attempt holds the claim but has not finished.
}

// IdempotencyIndex maps caller-supplied idempotency keys to the transaction
// they produced. ReserveKey is a single atomic claim; a claim with no bound
// transaction becomes reclaimable after the claim TTL.
type IdempotencyIndex interface {
	ReserveKey(ctx context.Context, ownerID uuid.UUID, key string) (*KeyClaim, error)
	// Bind writes the durable key→transaction record inside the caller's
	// database transaction.
	Bind(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID, key string, txID uuid.UUID) error
	// Confirm caches the binding for the fast path after commit (best-effort).
	Confirm(ctx context.Context, ownerID uuid.UUID, key string, txID uuid.UUID)
	// Release drops the claim after a failed attempt so retries are not
	// blocked until the TTL expires.
	Release(ctx context.Context, ownerID uuid.UUID, key string)
}

// IdempotencyClaimStore is the redis-backed atomic claim layer.
type IdempotencyClaimStore interface {
	// Claim atomically claims a key. Returns true when this caller won.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Get returns the claim value ("" when absent). A bound claim holds the
	// transaction id; a live unbound claim holds a placeholder.
	Get(ctx context.Context, key string) (string, error)
	// Bind overwrites the claim with the transaction id and a longer TTL.
	Bind(ctx context.Context, key string, txID string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// --- Ledger engine ---

// SubmitRequest holds validated input for a transaction submission.
type SubmitRequest struct {
	OwnerID        uuid.UUID
	Role           domain.Role
	Type           domain.TransactionType
	Amount         decimal.Decimal
	Currency       string
	FromWalletID   *uuid.UUID
	ToWalletID     *uuid.UUID
	IdempotencyKey string // empty = no idempotency
	Description    string
}

// SettleResult is the terminal outcome reported by the settlement confirmer.
type SettleResult string

const (
	SettleResultCompleted SettleResult = "completed"
	SettleResultFailed    SettleResult = "failed"
)

// LedgerEngine is the transaction state machine: admission, reservation,
// and the single pending → terminal transition.
type LedgerEngine interface {
	Submit(ctx context.Context, req SubmitRequest) (*domain.Transaction, error)
	Settle(ctx context.Context, txID uuid.UUID, result SettleResult) (*domain.Transaction, error)
	Cancel(ctx context.Context, ownerID uuid.UUID, txID uuid.UUID) (*domain.Transaction, error)
}

// --- Identity & supporting services ---

// TokenService issues and validates session tokens carrying the role context.
type TokenService interface {
	Generate(userID uuid.UUID, role domain.Role) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed session token claims.
type TokenClaims struct {
	UserID uuid.UUID
	Role   domain.Role
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// SignatureService handles HMAC-SHA256 signing and verification for
// internal callbacks (settlement confirmer, verification workflow).
type SignatureService interface {
	Sign(secret string, payload string) string
	Verify(secret string, payload string, signature string) bool
	BuildCanonicalString(method, path string, timestamp int64, body string) string
}

// IdentityService defines the thin identity surface. The ledger core never
// authenticates; it only consumes the owner id and role this layer produces.
type IdentityService interface {
	Register(ctx context.Context, username, password string, role domain.Role) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry
}

// ReportingService serves the read-only queries of the presentation layer.
type ReportingService interface {
	GetWallet(ctx context.Context, ownerID, walletID uuid.UUID) (*domain.Wallet, error)
	ListWallets(ctx context.Context, ownerID uuid.UUID) ([]domain.Wallet, error)
	GetTransaction(ctx context.Context, ownerID, txID uuid.UUID) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}
