package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletType identifies a wallet slot within an owner's registry.
// Each owner holds at most one wallet per type.
type WalletType string

const (
	WalletTypePrimary    WalletType = "primary"
	WalletTypeSavings    WalletType = "savings"
	WalletTypeCrypto     WalletType = "crypto"
	WalletTypeInvestment WalletType = "investment"
)

// Valid reports whether the wallet type is one of the known slots.
func (t WalletType) Valid() bool {
	switch t {
	case WalletTypePrimary, WalletTypeSavings, WalletTypeCrypto, WalletTypeInvestment:
		return true
	}
	return false
}

// Wallet is a balance container scoped to one owner, one type, one currency.
// Balance holds settled funds; PendingBalance is the sum of live reservations.
type Wallet struct {
	ID             uuid.UUID       `json:"id"`
	OwnerID        uuid.UUID       `json:"owner_id"`
	Type           WalletType      `json:"wallet_type"`
	Currency       string          `json:"currency"`
	Balance        decimal.Decimal `json:"balance"`
	PendingBalance decimal.Decimal `json:"pending_balance"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Available returns the spendable portion: settled balance minus holds.
func (w *Wallet) Available() decimal.Decimal {
	return w.Balance.Sub(w.PendingBalance)
}

// ReservationState tracks the lifecycle of a hold on wallet funds.
type ReservationState string

const (
	ReservationHeld      ReservationState = "held"
	ReservationCommitted ReservationState = "committed"
	ReservationReleased  ReservationState = "released"
)

// SettleOutcome is the caller's decision when settling a reservation.
type SettleOutcome string

const (
	SettleCommit  SettleOutcome = "commit"
	SettleRelease SettleOutcome = "release"
)

// Reservation is a temporary hold on wallet funds backing a pending
// transaction. Settling moves it to committed or released exactly once.
type Reservation struct {
	ID        uuid.UUID        `json:"id"`
	WalletID  uuid.UUID        `json:"wallet_id"`
	Amount    decimal.Decimal  `json:"amount"`
	State     ReservationState `json:"state"`
	CreatedAt time.Time        `json:"created_at"`
	SettledAt *time.Time       `json:"settled_at,omitempty"`
}

// IsSettled reports whether the reservation already reached a final state.
func (r *Reservation) IsSettled() bool {
	return r.State == ReservationCommitted || r.State == ReservationReleased
}
