package ports

import (
	"context"
	"math/big"
	"time"

	"custody-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// KeyVault encrypts and decrypts wallet private key material.
// Decrypt fails hard on any authentication-tag mismatch.
type KeyVault interface {
	Encrypt(plaintext []byte) (string, error)
	Decrypt(blob string) ([]byte, error)
}

// ChainProvider is the thin RPC wrapper used in on-chain mode.
// Calls may block on network I/O; errors are surfaced as-is and never retried.
type ChainProvider interface {
	// BalanceOf returns the live balance of an address in wei.
	BalanceOf(ctx context.Context, address string) (*big.Int, error)
	// Transfer signs and submits a value transfer from the given private key,
	// returning the chain-assigned transaction hash.
	Transfer(ctx context.Context, privKey []byte, to string, amountWei *big.Int) (string, error)
}

// Ledger is the mode strategy behind the transaction engine: one variant
// mutates stored balances, the other delegates to the chain provider.
// The variant is selected once at construction.
type Ledger interface {
	Mode() domain.ChainMode
	DepositEnabled() bool
	// Balance resolves the wallet's current balance in decimal units.
	Balance(ctx context.Context, wallet *domain.Wallet) (decimal.Decimal, error)
	// Send moves value from src to the destination. dest is non-nil when the
	// destination resolved to a managed wallet; to is the literal destination
	// string. The returned outcome carries the appended transaction and, when
	// stored balances changed, the updated balances.
	Send(ctx context.Context, src *domain.Wallet, dest *domain.Wallet, to string, amount decimal.Decimal, memo *string) (*TransferOutcome, error)
	// Deposit credits a wallet out of thin air (simulated mode only).
	Deposit(ctx context.Context, wallet *domain.Wallet, amount decimal.Decimal) (*TransferOutcome, error)
}

// TransferOutcome is the result of a ledger mutation.
type TransferOutcome struct {
	Transaction        *domain.Transaction
	SourceBalance      *decimal.Decimal
	DestinationBalance *decimal.Decimal
}

// PasswordHasher handles password hashing (Argon2id).
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles bearer token operations.
type TokenService interface {
	Generate(userID uuid.UUID, email string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed token claims.
type TokenClaims struct {
	UserID uuid.UUID
	Email  string
}

// --- Service Ports (Business Logic) ---

// WalletService is the wallet registry exposed to the router.
type WalletService interface {
	Create(ctx context.Context, userID uuid.UUID, label string) (*domain.WalletView, error)
	List(ctx context.Context, userID uuid.UUID) ([]domain.WalletView, error)
	Get(ctx context.Context, userID uuid.UUID, walletID uuid.UUID) (*domain.WalletView, error)
}

// TransactionService is the transaction engine exposed to the router.
type TransactionService interface {
	GetBalance(ctx context.Context, userID, walletID uuid.UUID) (*BalanceResult, error)
	SignMessage(ctx context.Context, userID, walletID uuid.UUID, message string) (*SignResult, error)
	Send(ctx context.Context, userID, walletID uuid.UUID, req SendRequest) (*SendResult, error)
	ListTransactions(ctx context.Context, userID, walletID uuid.UUID) ([]domain.Transaction, error)
	Deposit(ctx context.Context, userID, walletID uuid.UUID, amount string) (*DepositResult, error)
	ChainInfo() domain.ChainInfo
}

// SendRequest holds raw transfer input; amount arrives as text and is
// validated by the engine.
type SendRequest struct {
	To     string
	Amount string
	Memo   *string
}

// BalanceResult reports a wallet balance in decimal units.
type BalanceResult struct {
	WalletID uuid.UUID        `json:"wallet_id"`
	Balance  decimal.Decimal  `json:"balance"`
	Mode     domain.ChainMode `json:"mode"`
}

// SignResult reports a deterministic message signature.
type SignResult struct {
	WalletID  uuid.UUID `json:"wallet_id"`
	Message   string    `json:"message"`
	Signature string    `json:"signature"`
	SignedAt  time.Time `json:"signed_at"`
}

// SendResult reports a completed transfer. Updated balances are included
// when the simulated ledger mutated stored balances.
type SendResult struct {
	TransactionHash    string           `json:"transaction_hash"`
	SourceBalance      *decimal.Decimal `json:"source_balance,omitempty"`
	DestinationBalance *decimal.Decimal `json:"destination_balance,omitempty"`
}

// DepositResult reports a completed simulated deposit.
type DepositResult struct {
	TransactionHash string          `json:"transaction_hash"`
	Balance         decimal.Decimal `json:"balance"`
}

// AuthService defines authentication business logic.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
}

// AuthResult holds a bearer token and its owner.
type AuthResult struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
