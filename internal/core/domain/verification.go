package domain

import (
	"time"

	"github.com/google/uuid"
)

// KYCStatus is the aggregate verification state derived from the three
// per-user verification flags.
type KYCStatus string

const (
	KYCStatusPending    KYCStatus = "pending"
	KYCStatusInProgress KYCStatus = "in_progress"
	KYCStatusVerified   KYCStatus = "verified"
	KYCStatusRejected   KYCStatus = "rejected"
)

// VerificationFlag names one of the verification steps.
type VerificationFlag string

const (
	FlagPhone     VerificationFlag = "phone"
	FlagDocuments VerificationFlag = "documents"
	FlagBiometric VerificationFlag = "biometric"
)

// Valid reports whether the flag names a known verification step.
func (f VerificationFlag) Valid() bool {
	return f == FlagPhone || f == FlagDocuments || f == FlagBiometric
}

// VerificationRecord holds the per-user verification flags and the derived
// aggregate status. One record per user; the verification workflow is the
// only writer, the ledger only reads the derived status.
type VerificationRecord struct {
	UserID            uuid.UUID `json:"user_id"`
	PhoneVerified     bool      `json:"phone_verified"`
	DocumentsVerified bool      `json:"documents_verified"`
	BiometricVerified bool      `json:"biometric_verified"`
	Rejected          bool      `json:"rejected"`
	Status            KYCStatus `json:"kyc_status"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// DeriveStatus recomputes the aggregate status from the flags. An explicit
// rejection overrides everything and is terminal until a manual reset.
func (r *VerificationRecord) DeriveStatus() KYCStatus {
	switch {
	case r.Rejected:
		return KYCStatusRejected
	case r.PhoneVerified && r.DocumentsVerified && r.BiometricVerified:
		return KYCStatusVerified
	case r.PhoneVerified || r.DocumentsVerified || r.BiometricVerified:
		return KYCStatusInProgress
	default:
		return KYCStatusPending
	}
}

// MissingSteps lists the verification steps still required for full
// verification, in a stable order.
func (r *VerificationRecord) MissingSteps() []VerificationFlag {
	var missing []VerificationFlag
	if !r.PhoneVerified {
		missing = append(missing, FlagPhone)
	}
	if !r.DocumentsVerified {
		missing = append(missing, FlagDocuments)
	}
	if !r.BiometricVerified {
		missing = append(missing, FlagBiometric)
	}
	return missing
}

// OperationClass groups transaction types by the KYC level they demand.
type OperationClass string

const (
	// OpClassMoneyMovement covers send, withdraw and payment; requires
	// full verification.
	OpClassMoneyMovement OperationClass = "money_movement"
	// OpClassCredit covers receive and topup; requires verification to be
	// at least in progress.
	OpClassCredit OperationClass = "credit"
)

// OperationClassOf maps a transaction type to its operation class.
// The second return is false for unknown types; callers must fail closed.
func OperationClassOf(t TransactionType) (OperationClass, bool) {
	switch t {
	case TransactionTypeSend, TransactionTypeWithdraw, TransactionTypePayment:
		return OpClassMoneyMovement, true
	case TransactionTypeReceive, TransactionTypeTopup:
		return OpClassCredit, true
	}
	return "", false
}

// Role is the session-supplied role context. It gates which operations a
// request may perform; it never changes wallet ownership.
type Role string

const (
	RoleConsumer Role = "consumer"
	RoleMerchant Role = "merchant"
	RoleAgent    Role = "agent"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleConsumer || r == RoleMerchant || r == RoleAgent
}

// rolePolicy maps each transaction type to the roles allowed to submit it.
// Agents run the cash network (cash-in via topup, cash-out via withdraw);
// merchants accept payments on the receiving side.
var rolePolicy = map[TransactionType][]Role{
	TransactionTypeSend:     {RoleConsumer},
	TransactionTypePayment:  {RoleConsumer},
	TransactionTypeWithdraw: {RoleConsumer, RoleAgent},
	TransactionTypeTopup:    {RoleConsumer, RoleAgent},
	TransactionTypeReceive:  {RoleConsumer, RoleMerchant, RoleAgent},
}

// RoleAllowed reports whether the role may submit the given transaction
// type. Unknown types or roles are never allowed.
func RoleAllowed(role Role, t TransactionType) bool {
	for _, allowed := range rolePolicy[t] {
		if role == allowed {
			return true
		}
	}
	return false
}
