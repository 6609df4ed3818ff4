package postgres

import (
	"context"
	"errors"
	"fmt"

	"custody-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

const walletColumns = `id, user_id, label, address, public_key, private_key_enc, balance, chain, created_at`

// Create inserts a new wallet.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, user_id, label, address, public_key, private_key_enc, balance, chain, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.UserID, w.Label, w.Address, w.PublicKey,
		w.PrivateKeyEnc, nullDecimal(w.Balance), w.Chain, w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByID fetches a wallet by its UUID.
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`

	w, err := scanWallet(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet by id: %w", err)
	}
	return w, nil
}

// ListByUser fetches a user's wallets ordered by creation time ascending.
func (r *WalletRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []domain.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		wallets = append(wallets, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallets: %w", err)
	}
	return wallets, nil
}

// Debit subtracts amount from a wallet balance as a single conditional
// UPDATE guarded by balance >= amount. A nil result with nil error means the
// guard rejected the update (insufficient funds or no stored balance);
// callers never read-then-write balances around this.
func (r *WalletRepo) Debit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) (*decimal.Decimal, error) {
	query := `UPDATE wallets SET balance = balance - $1
		WHERE id = $2 AND balance >= $1
		RETURNING balance`

	var balance decimal.Decimal
	err := tx.QueryRow(ctx, query, amount, walletID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("debit wallet: %w", err)
	}
	return &balance, nil
}

// Credit adds amount to a wallet balance as a single UPDATE. A nil result
// means the wallet does not exist or carries no stored balance.
func (r *WalletRepo) Credit(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) (*decimal.Decimal, error) {
	query := `UPDATE wallets SET balance = balance + $1
		WHERE id = $2 AND balance IS NOT NULL
		RETURNING balance`

	var balance decimal.Decimal
	err := tx.QueryRow(ctx, query, amount, walletID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("credit wallet: %w", err)
	}
	return &balance, nil
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	var balance decimal.NullDecimal
	err := row.Scan(
		&w.ID, &w.UserID, &w.Label, &w.Address, &w.PublicKey,
		&w.PrivateKeyEnc, &balance, &w.Chain, &w.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if balance.Valid {
		w.Balance = &balance.Decimal
	}
	return w, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
