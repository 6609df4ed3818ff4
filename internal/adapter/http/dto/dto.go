package dto

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is the response body for successful register or login.
type AuthResponse struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"` // Unix timestamp
}

// CreateWalletRequest is the request body for wallet creation.
// Label is optional; a default is derived from the wallet id.
type CreateWalletRequest struct {
	Label string `json:"label" binding:"max=100"`
}

// SendRequest is the request body for a transfer. Amount travels as a
// string so the engine owns decimal validation end to end.
type SendRequest struct {
	To     string  `json:"to"`
	Amount string  `json:"amount"`
	Memo   *string `json:"memo,omitempty" binding:"omitempty,max=256"`
}

// SignRequest is the request body for message signing.
type SignRequest struct {
	Message string `json:"message"`
}

// DepositRequest is the request body for a simulated deposit.
type DepositRequest struct {
	Amount string `json:"amount"`
}
