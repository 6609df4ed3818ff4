package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"custody-wallet/internal/core/domain"
	"custody-wallet/internal/core/ports"
	"custody-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SimulatedLedger mutates locally stored decimal balances. All balance
// mutation flows through the repository's atomic conditional updates; the
// debit, the optional credit, and the transaction row commit together or
// not at all.
type SimulatedLedger struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	transactor ports.DBTransactor
}

// NewSimulatedLedger creates the simulated-mode ledger strategy.
func NewSimulatedLedger(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	transactor ports.DBTransactor,
) *SimulatedLedger {
	return &SimulatedLedger{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		transactor: transactor,
	}
}

func (l *SimulatedLedger) Mode() domain.ChainMode { return domain.ChainModeSimulated }

func (l *SimulatedLedger) DepositEnabled() bool { return true }

// Balance returns the stored balance.
func (l *SimulatedLedger) Balance(_ context.Context, w *domain.Wallet) (decimal.Decimal, error) {
	if w.Balance == nil {
		return decimal.Zero, nil
	}
	return *w.Balance, nil
}

// Send debits the source wallet, credits the destination when it is a managed
// wallet, and appends the ledger entry, all in one database transaction. The
// debit is guarded by balance >= amount inside the UPDATE itself, so two
// concurrent sends can never both pass on a stale read.
func (l *SimulatedLedger) Send(ctx context.Context, src *domain.Wallet, dest *domain.Wallet, to string, amount decimal.Decimal, memo *string) (*ports.TransferOutcome, error) {
	dbTx, err := l.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	srcBalance, err := l.walletRepo.Debit(ctx, dbTx, src.ID, amount)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("debit source: %w", err))
	}
	if srcBalance == nil {
		return nil, apperror.ErrInsufficientBalance()
	}

	outcome := &ports.TransferOutcome{SourceBalance: srcBalance}

	txType := domain.TransactionTypeExternal
	if dest != nil {
		destBalance, err := l.walletRepo.Credit(ctx, dbTx, dest.ID, amount)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("credit destination: %w", err))
		}
		if destBalance == nil {
			// Destination row vanished between resolution and credit; roll
			// the debit back rather than leave a debited-but-uncredited state.
			return nil, apperror.InternalError(fmt.Errorf("destination wallet %s missing during credit", dest.ID))
		}
		outcome.DestinationBalance = destBalance
		txType = domain.TransactionTypeInternal
	}

	now := time.Now().UTC()
	fromID := src.ID
	entry := &domain.Transaction{
		ID:           uuid.New(),
		Hash:         localTransactionHash(src.ID, to, amount, now),
		FromWalletID: &fromID,
		To:           to,
		Amount:       amount,
		Memo:         memo,
		Type:         txType,
		CreatedAt:    now,
	}
	if err := l.txRepo.Create(ctx, dbTx, entry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("append transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	outcome.Transaction = entry
	return outcome, nil
}

// Deposit credits the wallet and appends a deposit entry with no source.
func (l *SimulatedLedger) Deposit(ctx context.Context, w *domain.Wallet, amount decimal.Decimal) (*ports.TransferOutcome, error) {
	dbTx, err := l.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	balance, err := l.walletRepo.Credit(ctx, dbTx, w.ID, amount)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit wallet: %w", err))
	}
	if balance == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	now := time.Now().UTC()
	entry := &domain.Transaction{
		ID:        uuid.New(),
		Hash:      localTransactionHash(w.ID, w.ID.String(), amount, now),
		To:        w.ID.String(),
		Amount:    amount,
		Type:      domain.TransactionTypeDeposit,
		CreatedAt: now,
	}
	if err := l.txRepo.Create(ctx, dbTx, entry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("append deposit: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	return &ports.TransferOutcome{
		Transaction:   entry,
		SourceBalance: balance,
	}, nil
}

// localTransactionHash derives a simulated stand-in for a chain hash.
// It only needs uniqueness, not cryptographic meaning.
func localTransactionHash(walletID uuid.UUID, to string, amount decimal.Decimal, at time.Time) string {
	digest := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%d", walletID, to, amount.String(), at.UnixNano())))
	return "0x" + hex.EncodeToString(digest[:])
}
