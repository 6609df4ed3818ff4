package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet is a custodially held keypair plus metadata.
//
// Balance is only meaningful in simulated mode; in on-chain mode it is nil and
// balances are sourced live from the chain. PrivateKeyEnc holds the vault
// ciphertext (nonce + tag + ciphertext, base64) and must never serialize
// outward; neither must the owning user id.
type Wallet struct {
	ID            uuid.UUID        `json:"id"`
	UserID        uuid.UUID        `json:"-"`
	Label         string           `json:"label"`
	Address       string           `json:"address"`
	PublicKey     string           `json:"public_key"`
	PrivateKeyEnc string           `json:"-"`
	Balance       *decimal.Decimal `json:"balance,omitempty"`
	Chain         *string          `json:"chain,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// OwnedBy reports whether the wallet belongs to the given user.
func (w *Wallet) OwnedBy(userID uuid.UUID) bool {
	return w.UserID == userID
}

// MatchesAddress reports whether addr equals the wallet address,
// case-insensitively.
func (w *Wallet) MatchesAddress(addr string) bool {
	return strings.EqualFold(w.Address, addr)
}

// WalletView is the caller-facing representation of a wallet.
// It carries no key material and no owner id.
type WalletView struct {
	ID        uuid.UUID        `json:"id"`
	Label     string           `json:"label"`
	Address   string           `json:"address"`
	PublicKey string           `json:"public_key"`
	Balance   *decimal.Decimal `json:"balance,omitempty"`
	Chain     *string          `json:"chain,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// View maps the wallet to its externally safe representation.
func (w *Wallet) View() WalletView {
	return WalletView{
		ID:        w.ID,
		Label:     w.Label,
		Address:   w.Address,
		PublicKey: w.PublicKey,
		Balance:   w.Balance,
		Chain:     w.Chain,
		CreatedAt: w.CreatedAt,
	}
}
