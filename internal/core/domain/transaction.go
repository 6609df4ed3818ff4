package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType tags how a ledger entry moved value.
type TransactionType string

const (
	// TransactionTypeInternal is a simulated transfer between two managed wallets.
	TransactionTypeInternal TransactionType = "internal"
	// TransactionTypeExternal is a simulated transfer to an unmanaged destination.
	TransactionTypeExternal TransactionType = "external"
	// TransactionTypeInternalOnchain is an on-chain transfer to a managed wallet's address.
	TransactionTypeInternalOnchain TransactionType = "internal-onchain"
	// TransactionTypeOnchain is an on-chain transfer to an external address.
	TransactionTypeOnchain TransactionType = "onchain"
	// TransactionTypeDeposit is a simulated-mode credit with no source wallet.
	TransactionTypeDeposit TransactionType = "deposit"
)

// Transaction is an immutable, append-only ledger entry. Once written it is
// never updated or removed.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	Hash         string          `json:"hash"`
	FromWalletID *uuid.UUID      `json:"from_wallet_id"` // nil for deposits
	To           string          `json:"to"`             // wallet id, chain address, or opaque string
	Amount       decimal.Decimal `json:"amount"`
	Memo         *string         `json:"memo,omitempty"`
	Type         TransactionType `json:"type"`
	CreatedAt    time.Time       `json:"created_at"`
}

// IsDeposit reports whether the entry credits a wallet without a source.
func (t *Transaction) IsDeposit() bool {
	return t.Type == TransactionTypeDeposit
}

// MovedOnChain reports whether the entry was settled by the chain provider.
func (t *Transaction) MovedOnChain() bool {
	return t.Type == TransactionTypeOnchain || t.Type == TransactionTypeInternalOnchain
}
