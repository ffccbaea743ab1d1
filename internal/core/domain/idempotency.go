package domain

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyRecord is the durable binding between a caller-supplied
// idempotency key and the transaction it produced.
type IdempotencyRecord struct {
	Key           string    `json:"key"` // Format: "owner_id:key"
	TransactionID uuid.UUID `json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// BuildIdempotencyKey scopes a caller-supplied key to the submitting owner
// so that keys from different users can never collide.
func BuildIdempotencyKey(ownerID uuid.UUID, key string) string {
	return ownerID.String() + ":" + key
}
