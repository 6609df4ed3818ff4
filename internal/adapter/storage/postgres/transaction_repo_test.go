package postgres

import (
	"context"
	"testing"
	"time"

	"custody-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransaction(from uuid.UUID) *domain.Transaction {
	memo := "coffee"
	return &domain.Transaction{
		ID:           uuid.New(),
		Hash:         "0x9b71d224bd62f3785d96d46ad3ea3d73319bfbc28e7c23f0a6562b1f16ae0a1c",
		FromWalletID: &from,
		To:           uuid.New().String(),
		Amount:       decimal.NewFromInt(150),
		Memo:         &memo,
		Type:         domain.TransactionTypeInternal,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func txColumnNames() []string {
	return []string{"id", "hash", "from_wallet_id", "to_dest", "amount", "memo", "tx_type", "created_at"}
}

func TestTransactionRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	entry := newTestTransaction(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(entry.ID, entry.Hash, entry.FromWalletID, entry.To,
			entry.Amount, entry.Memo, entry.Type, entry.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, entry)
	require.NoError(t, err)

	require.NoError(t, tx.Commit(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_Create_DepositHasNoSource(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	entry := newTestTransaction(uuid.New())
	entry.FromWalletID = nil
	entry.Type = domain.TransactionTypeDeposit
	entry.Memo = nil

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(entry.ID, entry.Hash, (*uuid.UUID)(nil), entry.To,
			entry.Amount, (*string)(nil), entry.Type, entry.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, entry)
	require.NoError(t, err)

	require.NoError(t, tx.Commit(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_ListForWallet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	walletID := uuid.New()
	address := "0x52908400098527886E0F7030069857D2E4169EE7"

	sent := newTestTransaction(walletID)
	received := newTestTransaction(uuid.New())
	received.To = walletID.String()

	rows := pgxmock.NewRows(txColumnNames()).
		AddRow(received.ID, received.Hash, received.FromWalletID, received.To, received.Amount, received.Memo, received.Type, received.CreatedAt).
		AddRow(sent.ID, sent.Hash, sent.FromWalletID, sent.To, sent.Amount, sent.Memo, sent.Type, sent.CreatedAt)

	mock.ExpectQuery("SELECT (.+) FROM transactions").
		WithArgs(walletID, walletID.String(), address).
		WillReturnRows(rows)

	got, err := repo.ListForWallet(context.Background(), walletID, address)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, received.ID, got[0].ID)
	assert.Equal(t, sent.ID, got[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_ListForWallet_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	walletID := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM transactions").
		WithArgs(walletID, walletID.String(), "0xabc").
		WillReturnRows(pgxmock.NewRows(txColumnNames()))

	got, err := repo.ListForWallet(context.Background(), walletID, "0xabc")
	require.NoError(t, err)
	assert.Empty(t, got)
}
