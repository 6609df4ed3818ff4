package postgres

import (
	"context"
	"fmt"

	"custody-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository. The transactions
// table is append-only: there are no UPDATE or DELETE paths.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create appends a ledger entry within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, hash, from_wallet_id, to_dest, amount, memo, tx_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.Hash, t.FromWalletID, t.To, t.Amount, t.Memo, t.Type, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// ListForWallet fetches entries where the wallet is the source, or the
// destination matched by wallet id or by address (case-insensitive),
// newest first.
func (r *TransactionRepo) ListForWallet(ctx context.Context, walletID uuid.UUID, address string) ([]domain.Transaction, error) {
	query := `SELECT id, hash, from_wallet_id, to_dest, amount, memo, tx_type, created_at
		FROM transactions
		WHERE from_wallet_id = $1 OR to_dest = $2 OR LOWER(to_dest) = LOWER($3)
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, walletID, walletID.String(), address)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var entries []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		if err := rows.Scan(&t.ID, &t.Hash, &t.FromWalletID, &t.To, &t.Amount, &t.Memo, &t.Type, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		entries = append(entries, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return entries, nil
}
