package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of money movement.
type TransactionType string

const (
	TransactionTypeSend     TransactionType = "send"
	TransactionTypeReceive  TransactionType = "receive"
	TransactionTypeTopup    TransactionType = "topup"
	TransactionTypeWithdraw TransactionType = "withdraw"
	TransactionTypePayment  TransactionType = "payment"
)

// Valid reports whether the transaction type is known.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeSend, TransactionTypeReceive, TransactionTypeTopup,
		TransactionTypeWithdraw, TransactionTypePayment:
		return true
	}
	return false
}

// IsOutgoing reports whether the type moves funds out of a source wallet
// and therefore requires a reservation at admission time.
func (t TransactionType) IsOutgoing() bool {
	switch t {
	case TransactionTypeSend, TransactionTypeWithdraw, TransactionTypePayment:
		return true
	}
	return false
}

// IsIncoming reports whether the type credits a destination wallet.
func (t TransactionType) IsIncoming() bool {
	return t == TransactionTypeReceive || t == TransactionTypeTopup
}

// IsTransfer reports whether the type moves funds between two wallets
// inside the ledger (debit one, credit the other on settlement).
func (t TransactionType) IsTransfer() bool {
	return t == TransactionTypeSend
}

// TransactionStatus represents the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// Transaction is a ledger entry for one money movement. Once a terminal
// status is recorded the entry is immutable.
type Transaction struct {
	ID             uuid.UUID         `json:"id"`
	IdempotencyKey *string           `json:"idempotency_key,omitempty"`
	OwnerID        uuid.UUID         `json:"owner_id"`
	Type           TransactionType   `json:"type"`
	Amount         decimal.Decimal   `json:"amount"`
	Currency       string            `json:"currency"`
	FromWalletID   *uuid.UUID        `json:"from_wallet_id,omitempty"`
	ToWalletID     *uuid.UUID        `json:"to_wallet_id,omitempty"`
	ReservationID  *uuid.UUID        `json:"-"`
	Status         TransactionStatus `json:"status"`
	Description    string            `json:"description,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	SettledAt      *time.Time        `json:"settled_at,omitempty"`
}

// IsTerminal returns true if the transaction is in a final state.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusCompleted ||
		t.Status == TransactionStatusFailed ||
		t.Status == TransactionStatusCancelled
}

// ValidateWalletPair enforces the wallet-pair rule per transaction type:
// outgoing types require a source wallet, incoming types require a
// destination, and send needs both legs.
func ValidateWalletPair(t TransactionType, from, to *uuid.UUID) error {
	switch {
	case t.IsOutgoing() && from == nil:
		return fmt.Errorf("%s requires a source wallet", t)
	case t.IsIncoming() && to == nil:
		return fmt.Errorf("%s requires a destination wallet", t)
	case t.IsTransfer() && to == nil:
		return fmt.Errorf("%s requires a destination wallet", t)
	case t.IsIncoming() && from != nil:
		return fmt.Errorf("%s must not name a source wallet", t)
	case (t == TransactionTypeWithdraw || t == TransactionTypePayment) && to != nil:
		return fmt.Errorf("%s must not name a destination wallet", t)
	case from != nil && to != nil && *from == *to:
		return fmt.Errorf("source and destination wallets must differ")
	}
	return nil
}
