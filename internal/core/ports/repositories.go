package ports

import (
	"context"

	"custody-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// WalletRepository defines persistence operations for wallets.
//
// Debit and Credit are atomic conditional updates executed as single
// statements inside a database transaction; the engine never performs a
// read-then-write pair on balances.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error)
	// Debit subtracts amount guarded by balance >= amount. Returns the new
	// balance, or nil with no error when the guard rejected the update.
	Debit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) (*decimal.Decimal, error)
	// Credit adds amount and returns the new balance; nil when the wallet
	// does not exist or carries no stored balance.
	Credit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) (*decimal.Decimal, error)
}

// TransactionRepository defines persistence for the append-only transaction log.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	// ListForWallet returns entries where the wallet is the source, or the
	// destination matched by wallet id or by address (case-insensitive),
	// newest first.
	ListForWallet(ctx context.Context, walletID uuid.UUID, address string) ([]domain.Transaction, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
