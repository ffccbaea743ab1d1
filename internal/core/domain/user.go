package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an account known to the identity surface. The ledger core itself
// only ever sees the user's id and session role.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never expose
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
