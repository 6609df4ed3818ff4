package integration

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"custody-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// fakeTx satisfies pgx.Tx for the in-memory repos. The repos apply writes
// immediately, so commit and rollback are no-ops here; transactional atomicity
// is covered by the pgxmock repository tests.
type fakeTx struct{ pgx.Tx }

func (fakeTx) Commit(_ context.Context) error   { return nil }
func (fakeTx) Rollback(_ context.Context) error { return nil }

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor { return &inMemoryTransactor{} }

func (t *inMemoryTransactor) Begin(_ context.Context) (pgx.Tx, error) {
	return fakeTx{}, nil
}

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *inMemoryUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return fmt.Errorf("email already exists")
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *inMemoryUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]*domain.Wallet
	order   []uuid.UUID
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(_ context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	if w.Balance != nil {
		b := *w.Balance
		cp.Balance = &b
	}
	r.wallets[w.ID] = &cp
	r.order = append(r.order, w.ID)
	return nil
}

func (r *inMemoryWalletRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, nil
	}
	return copyWallet(w), nil
}

func (r *inMemoryWalletRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Wallet
	for _, id := range r.order {
		if w := r.wallets[id]; w.UserID == userID {
			out = append(out, *copyWallet(w))
		}
	}
	return out, nil
}

// Debit mirrors the conditional UPDATE: it mutates only when the stored
// balance covers the amount, and the check-and-subtract is atomic under the
// repo lock.
func (r *inMemoryWalletRepo) Debit(_ context.Context, _ pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) (*decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok || w.Balance == nil || w.Balance.LessThan(amount) {
		return nil, nil
	}
	newBal := w.Balance.Sub(amount)
	w.Balance = &newBal
	out := newBal
	return &out, nil
}

func (r *inMemoryWalletRepo) Credit(_ context.Context, _ pgx.Tx, walletID uuid.UUID, amount decimal.Decimal) (*decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok || w.Balance == nil {
		return nil, nil
	}
	newBal := w.Balance.Add(amount)
	w.Balance = &newBal
	out := newBal
	return &out, nil
}

func copyWallet(w *domain.Wallet) *domain.Wallet {
	cp := *w
	if w.Balance != nil {
		b := *w.Balance
		cp.Balance = &b
	}
	if w.Chain != nil {
		c := *w.Chain
		cp.Chain = &c
	}
	return &cp
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu      sync.RWMutex
	entries []domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{}
}

func (r *inMemoryTransactionRepo) Create(_ context.Context, _ pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *t)
	return nil
}

func (r *inMemoryTransactionRepo) ListForWallet(_ context.Context, walletID uuid.UUID, address string) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Transaction
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if (e.FromWalletID != nil && *e.FromWalletID == walletID) ||
			e.To == walletID.String() ||
			strings.EqualFold(e.To, address) {
			out = append(out, e)
		}
	}
	return out, nil
}

// --- Fake Chain Provider ---

// fakeChainProvider is an in-process stand-in for the RPC client: balances
// live in a map keyed by lowercase address, transfers move wei and mint a
// sequential hash.
type fakeChainProvider struct {
	mu       sync.Mutex
	balances map[string]*big.Int
	sequence int
}

func newFakeChainProvider() *fakeChainProvider {
	return &fakeChainProvider{balances: make(map[string]*big.Int)}
}

func (p *fakeChainProvider) fund(address string, wei *big.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balances[strings.ToLower(address)] = new(big.Int).Set(wei)
}

func (p *fakeChainProvider) BalanceOf(_ context.Context, address string) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	bal, ok := p.balances[strings.ToLower(address)]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(bal), nil
}

func (p *fakeChainProvider) Transfer(_ context.Context, _ []byte, to string, amountWei *big.Int) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	dest := strings.ToLower(to)
	if p.balances[dest] == nil {
		p.balances[dest] = big.NewInt(0)
	}
	p.balances[dest].Add(p.balances[dest], amountWei)
	p.sequence++
	return fmt.Sprintf("0x%064x", p.sequence), nil
}
