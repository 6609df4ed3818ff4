package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
// Code is the authoritative discriminator; Message is display-only.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

// Validation returns a 400 validation error with a caller-supplied message.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrMissingDestinationOrAmount() *AppError {
	return New("VAL_002", "Destination and amount are required", http.StatusBadRequest)
}

func ErrAmountNotPositive() *AppError {
	return New("VAL_003", "Amount must be a positive number", http.StatusBadRequest)
}

func ErrInsufficientBalance() *AppError {
	return New("VAL_004", "Insufficient balance", http.StatusBadRequest)
}

func ErrInvalidDestination() *AppError {
	return New("VAL_005", "Destination must be a valid wallet ID or address", http.StatusBadRequest)
}

func ErrAmountNotDecimal() *AppError {
	return New("VAL_006", "Amount must be a valid decimal value", http.StatusBadRequest)
}

func ErrInsufficientOnChainBalance() *AppError {
	return New("VAL_007", "Insufficient on-chain balance", http.StatusBadRequest)
}

func ErrDepositsDisabledOnChain() *AppError {
	return New("VAL_008", "Deposits are disabled in on-chain mode. Use a Sepolia faucet to fund your wallet.", http.StatusBadRequest)
}

func ErrEmptyMessage() *AppError {
	return New("VAL_009", "Message is required", http.StatusBadRequest)
}

// ---- Ownership & existence ----

func ErrWalletNotFound() *AppError {
	return New("NOT_FOUND", "Wallet not found", http.StatusNotFound)
}

func ErrForbidden() *AppError {
	return New("FORBIDDEN", "You do not own this wallet", http.StatusForbidden)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid email or password", http.StatusUnauthorized)
}

func ErrEmailExists() *AppError {
	return New("AUTH_002", "Email already registered", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Key material ----

// Integrity signals an authentication failure on stored key material.
// Always fatal for the operation; never retried.
func Integrity(err error) *AppError {
	return Wrap("INTEGRITY", "Stored key material failed integrity verification", http.StatusInternalServerError, err)
}

// Configuration signals an invalid startup configuration (missing/weak secret).
func Configuration(message string) *AppError {
	return New("CONFIG", message, http.StatusInternalServerError)
}

// ---- Chain provider ----

// Provider surfaces an on-chain RPC failure. Never retried.
func Provider(err error) *AppError {
	return Wrap("PROVIDER", "On-chain provider request failed", http.StatusBadGateway, err)
}

// ---- Rate limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
