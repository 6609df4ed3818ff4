package service

import (
	"context"
	"fmt"
	"time"

	"custody-wallet/internal/adapter/chain/ethereum"
	"custody-wallet/internal/core/domain"
	"custody-wallet/internal/core/ports"
	"custody-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OnChainLedger delegates balances and transfers to a live chain via the
// provider. No local balance is stored or mutated in this mode; the wallet
// row is a pure identity record. Calls may block on network I/O and provider
// failures surface to the caller unretried.
type OnChainLedger struct {
	provider   ports.ChainProvider
	vault      ports.KeyVault
	txRepo     ports.TransactionRepository
	transactor ports.DBTransactor
}

// NewOnChainLedger creates the on-chain ledger strategy.
func NewOnChainLedger(
	provider ports.ChainProvider,
	vault ports.KeyVault,
	txRepo ports.TransactionRepository,
	transactor ports.DBTransactor,
) *OnChainLedger {
	return &OnChainLedger{
		provider:   provider,
		vault:      vault,
		txRepo:     txRepo,
		transactor: transactor,
	}
}

func (l *OnChainLedger) Mode() domain.ChainMode { return domain.ChainModeSepolia }

// DepositEnabled is false on-chain: crediting a stored balance would
// fabricate value the chain does not know about.
func (l *OnChainLedger) DepositEnabled() bool { return false }

// Balance queries the chain live; the stored balance field is never consulted.
func (l *OnChainLedger) Balance(ctx context.Context, w *domain.Wallet) (decimal.Decimal, error) {
	wei, err := l.provider.BalanceOf(ctx, w.Address)
	if err != nil {
		return decimal.Zero, apperror.Provider(err)
	}
	return ethereum.FromWei(wei), nil
}

// Send signs and submits a live transfer from the wallet's custodied key.
func (l *OnChainLedger) Send(ctx context.Context, src *domain.Wallet, dest *domain.Wallet, to string, amount decimal.Decimal, memo *string) (*ports.TransferOutcome, error) {
	target := to
	txType := domain.TransactionTypeOnchain
	if dest != nil {
		target = dest.Address
		txType = domain.TransactionTypeInternalOnchain
	}
	if !ethereum.IsAddress(target) {
		return nil, apperror.ErrInvalidDestination()
	}

	wei, err := ethereum.ToWei(amount)
	if err != nil {
		return nil, apperror.ErrAmountNotDecimal()
	}

	privKey, err := l.vault.Decrypt(src.PrivateKeyEnc)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(privKey)

	onChainBalance, err := l.provider.BalanceOf(ctx, src.Address)
	if err != nil {
		return nil, apperror.Provider(err)
	}
	if onChainBalance.Cmp(wei) < 0 {
		return nil, apperror.ErrInsufficientOnChainBalance()
	}

	hash, err := l.provider.Transfer(ctx, privKey, target, wei)
	if err != nil {
		return nil, apperror.Provider(err)
	}

	now := time.Now().UTC()
	fromID := src.ID
	entry := &domain.Transaction{
		ID:           uuid.New(),
		Hash:         hash,
		FromWalletID: &fromID,
		To:           target,
		Amount:       amount,
		Memo:         memo,
		Type:         txType,
		CreatedAt:    now,
	}

	dbTx, err := l.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := l.txRepo.Create(ctx, dbTx, entry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("append transaction: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	return &ports.TransferOutcome{Transaction: entry}, nil
}

// Deposit is a simulated-ledger convenience; on-chain it always fails with
// faucet guidance.
func (l *OnChainLedger) Deposit(_ context.Context, _ *domain.Wallet, _ decimal.Decimal) (*ports.TransferOutcome, error) {
	return nil, apperror.ErrDepositsDisabledOnChain()
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
