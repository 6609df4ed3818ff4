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

// initialSimulatedBalance seeds every new simulated-mode wallet.
var initialSimulatedBalance = decimal.NewFromInt(1000)

// WalletServiceImpl implements ports.WalletService: it creates key-controlled
// wallets scoped to an owning user and maps records to externally safe views.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	vault      ports.KeyVault
	mode       domain.ChainMode
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl. The chain mode is fixed
// at construction.
func NewWalletService(
	walletRepo ports.WalletRepository,
	vault ports.KeyVault,
	mode domain.ChainMode,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		vault:      vault,
		mode:       mode,
		log:        log,
	}
}

// Create generates a keypair, encrypts the private key at rest, and persists
// the wallet. The plaintext key lives only on this stack frame.
func (s *WalletServiceImpl) Create(ctx context.Context, userID uuid.UUID, label string) (*domain.WalletView, error) {
	kp, err := GenerateKeypair()
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate keypair: %w", err))
	}
	defer kp.Zero()

	encKey, err := s.vault.Encrypt(kp.PrivateBytes())
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("encrypt private key: %w", err))
	}

	id := uuid.New()
	label = strings.TrimSpace(label)
	if label == "" {
		label = "Wallet " + id.String()[:8]
	}

	w := &domain.Wallet{
		ID:            id,
		UserID:        userID,
		Label:         label,
		Address:       kp.Address(),
		PublicKey:     kp.PublicKeyHex(),
		PrivateKeyEnc: encKey,
		CreatedAt:     time.Now().UTC(),
	}

	if s.mode.OnChain() {
		chain := string(domain.ChainModeSepolia)
		w.Chain = &chain
	} else {
		balance := initialSimulatedBalance
		w.Balance = &balance
	}

	if err := s.walletRepo.Create(ctx, w); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("persist wallet: %w", err))
	}

	s.log.Info().
		Str("wallet_id", w.ID.String()).
		Str("address", w.Address).
		Str("mode", string(s.mode)).
		Msg("wallet created")

	view := w.View()
	return &view, nil
}

// List returns the user's wallets ordered by creation time ascending.
func (s *WalletServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]domain.WalletView, error) {
	wallets, err := s.walletRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list wallets: %w", err))
	}

	views := make([]domain.WalletView, 0, len(wallets))
	for i := range wallets {
		views = append(views, wallets[i].View())
	}
	return views, nil
}

// Get returns one wallet. Existence is checked before ownership, and
// ownership before any wallet data is returned.
func (s *WalletServiceImpl) Get(ctx context.Context, userID uuid.UUID, walletID uuid.UUID) (*domain.WalletView, error) {
	w, err := resolveOwnedWallet(ctx, s.walletRepo, userID, walletID)
	if err != nil {
		return nil, err
	}
	view := w.View()
	return &view, nil
}

// resolveOwnedWallet fetches a wallet and enforces the existence-then-ownership
// guard shared by the registry and the transaction engine.
func resolveOwnedWallet(ctx context.Context, repo ports.WalletRepository, userID, walletID uuid.UUID) (*domain.Wallet, error) {
	w, err := repo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("fetch wallet: %w", err))
	}
	if w == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	if !w.OwnedBy(userID) {
		return nil, apperror.ErrForbidden()
	}
	return w, nil
}
