package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account holder. Wallets are owned by exactly one user.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Argon2id, never expose
	CreatedAt    time.Time `json:"created_at"`
}
