package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"custody-wallet/internal/core/domain"
	"custody-wallet/internal/core/ports"
	"custody-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TransactionServiceImpl implements ports.TransactionService. It owns the
// validation and ownership protocol and delegates all balance movement to
// the ledger strategy selected at construction.
type TransactionServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	vault      ports.KeyVault
	ledger     ports.Ledger
	chainInfo  domain.ChainInfo
	log        zerolog.Logger
}

// NewTransactionService creates a new TransactionServiceImpl.
func NewTransactionService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	vault ports.KeyVault,
	ledger ports.Ledger,
	rpcURL string,
	log zerolog.Logger,
) *TransactionServiceImpl {
	return &TransactionServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		vault:      vault,
		ledger:     ledger,
		chainInfo:  domain.NewChainInfo(ledger.Mode(), rpcURL),
		log:        log,
	}
}

// GetBalance resolves the wallet and asks the active ledger. In simulated
// mode that is the stored balance; on-chain it is a live query.
func (s *TransactionServiceImpl) GetBalance(ctx context.Context, userID, walletID uuid.UUID) (*ports.BalanceResult, error) {
	w, err := resolveOwnedWallet(ctx, s.walletRepo, userID, walletID)
	if err != nil {
		return nil, err
	}

	balance, err := s.ledger.Balance(ctx, w)
	if err != nil {
		return nil, err
	}

	return &ports.BalanceResult{
		WalletID: w.ID,
		Balance:  balance,
		Mode:     s.ledger.Mode(),
	}, nil
}

// SignMessage signs a message with the wallet's custodied key. The signature
// is deterministic: identical (key, message) pairs always produce identical
// output. The decrypted key is zeroed before returning and never leaves this
// call.
func (s *TransactionServiceImpl) SignMessage(ctx context.Context, userID, walletID uuid.UUID, message string) (*ports.SignResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, apperror.ErrEmptyMessage()
	}

	w, err := resolveOwnedWallet(ctx, s.walletRepo, userID, walletID)
	if err != nil {
		return nil, err
	}

	privKey, err := s.vault.Decrypt(w.PrivateKeyEnc)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(privKey)

	signature, err := SignMessage(privKey, message)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("sign message: %w", err))
	}

	return &ports.SignResult{
		WalletID:  w.ID,
		Message:   message,
		Signature: signature,
		SignedAt:  time.Now().UTC(),
	}, nil
}

// Send executes a value transfer. Validation order: required fields, amount
// syntax, wallet existence, ownership, then destination resolution against
// the caller's wallets (id first, then address, case-insensitive).
func (s *TransactionServiceImpl) Send(ctx context.Context, userID, walletID uuid.UUID, req ports.SendRequest) (*ports.SendResult, error) {
	if strings.TrimSpace(req.To) == "" || strings.TrimSpace(req.Amount) == "" {
		return nil, apperror.ErrMissingDestinationOrAmount()
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil || !amount.IsPositive() {
		return nil, apperror.ErrAmountNotPositive()
	}

	src, err := resolveOwnedWallet(ctx, s.walletRepo, userID, walletID)
	if err != nil {
		return nil, err
	}

	to := strings.TrimSpace(req.To)
	dest, err := s.resolveDestination(ctx, userID, to)
	if err != nil {
		return nil, err
	}

	outcome, err := s.ledger.Send(ctx, src, dest, to, amount, req.Memo)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("tx_hash", outcome.Transaction.Hash).
		Str("wallet_id", src.ID.String()).
		Str("type", string(outcome.Transaction.Type)).
		Str("amount", amount.String()).
		Msg("transfer executed")

	return &ports.SendResult{
		TransactionHash:    outcome.Transaction.Hash,
		SourceBalance:      outcome.SourceBalance,
		DestinationBalance: outcome.DestinationBalance,
	}, nil
}

// resolveDestination matches the destination against the caller's wallet
// universe: by wallet id first, then by address. An unmatched destination is
// an opaque external string.
func (s *TransactionServiceImpl) resolveDestination(ctx context.Context, userID uuid.UUID, to string) (*domain.Wallet, error) {
	wallets, err := s.walletRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve destination: %w", err))
	}

	if destID, err := uuid.Parse(to); err == nil {
		for i := range wallets {
			if wallets[i].ID == destID {
				return &wallets[i], nil
			}
		}
	}
	for i := range wallets {
		if wallets[i].MatchesAddress(to) {
			return &wallets[i], nil
		}
	}
	return nil, nil
}

// ListTransactions returns every entry where the wallet is the source, or the
// destination by id or address, newest first.
func (s *TransactionServiceImpl) ListTransactions(ctx context.Context, userID, walletID uuid.UUID) ([]domain.Transaction, error) {
	w, err := resolveOwnedWallet(ctx, s.walletRepo, userID, walletID)
	if err != nil {
		return nil, err
	}

	entries, err := s.txRepo.ListForWallet(ctx, w.ID, w.Address)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return entries, nil
}

// Deposit credits a simulated wallet out of thin air. In on-chain mode it
// always fails with faucet guidance, regardless of the amount.
func (s *TransactionServiceImpl) Deposit(ctx context.Context, userID, walletID uuid.UUID, amount string) (*ports.DepositResult, error) {
	if !s.ledger.DepositEnabled() {
		return nil, apperror.ErrDepositsDisabledOnChain()
	}

	value, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil || !value.IsPositive() {
		return nil, apperror.ErrAmountNotPositive()
	}

	w, err := resolveOwnedWallet(ctx, s.walletRepo, userID, walletID)
	if err != nil {
		return nil, err
	}

	outcome, err := s.ledger.Deposit(ctx, w, value)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("tx_hash", outcome.Transaction.Hash).
		Str("wallet_id", w.ID.String()).
		Str("amount", value.String()).
		Msg("deposit credited")

	return &ports.DepositResult{
		TransactionHash: outcome.Transaction.Hash,
		Balance:         *outcome.SourceBalance,
	}, nil
}

// ChainInfo reports the active mode and its capability flags.
func (s *TransactionServiceImpl) ChainInfo() domain.ChainInfo {
	return s.chainInfo
}
