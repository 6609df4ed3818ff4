package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpHandler "custody-wallet/internal/adapter/http/handler"
	"custody-wallet/internal/core/domain"
	"custody-wallet/internal/core/ports"
	"custody-wallet/internal/service"
	"custody-wallet/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp wires the full stack (HTTP layer, middleware, services, ledger)
// over in-memory repositories. Rate limiting is disabled so tests can hammer
// endpoints freely.
type testApp struct {
	server   *httptest.Server
	provider *fakeChainProvider // nil in simulated mode
}

func newTestApp(t *testing.T, mode domain.ChainMode) *testApp {
	t.Helper()

	userRepo := newInMemoryUserRepo()
	walletRepo := newInMemoryWalletRepo()
	txRepo := newInMemoryTransactionRepo()
	transactor := newInMemoryTransactor()

	vault, err := service.NewKeyVault("integration-test-operator-secret-0123456789abcdef")
	require.NoError(t, err)

	hasher := service.NewArgon2PasswordHasher()
	tokenSvc := service.NewJWTTokenService("test-jwt-secret", 24*time.Hour, "custody-wallet")
	log := logger.New("error", false)

	app := &testApp{}
	var ledger ports.Ledger
	if mode.OnChain() {
		app.provider = newFakeChainProvider()
		ledger = service.NewOnChainLedger(app.provider, vault, txRepo, transactor)
	} else {
		ledger = service.NewSimulatedLedger(walletRepo, txRepo, transactor)
	}

	authSvc := service.NewAuthService(userRepo, hasher, tokenSvc, log)
	walletSvc := service.NewWalletService(walletRepo, vault, mode, log)
	txSvc := service.NewTransactionService(walletRepo, txRepo, vault, ledger, "https://rpc.sepolia.example", log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:   authSvc,
		WalletSvc: walletSvc,
		TxSvc:     txSvc,
		TokenSvc:  tokenSvc,
		Logger:    log,
	})

	app.server = httptest.NewServer(router)
	return app
}

func (a *testApp) close() { a.server.Close() }

type envelope struct {
	Data      json.RawMessage `json:"data"`
	ErrorCode string          `json:"error_code"`
	Message   string          `json:"message"`
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (a *testApp) registerUser(t *testing.T, email string) string {
	t.Helper()
	code, env := a.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, code)

	var auth struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &auth))
	require.NotEmpty(t, auth.Token)
	return auth.Token
}

type walletPayload struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	Address string  `json:"address"`
	Balance *string `json:"balance"`
	Chain   *string `json:"chain"`
}

func (a *testApp) createWallet(t *testing.T, token, label string) walletPayload {
	t.Helper()
	code, env := a.do(t, http.MethodPost, "/api/v1/wallets", token, map[string]string{"label": label})
	require.Equal(t, http.StatusCreated, code)

	var w walletPayload
	require.NoError(t, json.Unmarshal(env.Data, &w))
	return w
}

func (a *testApp) balanceOf(t *testing.T, token, walletID string) string {
	t.Helper()
	code, env := a.do(t, http.MethodGet, "/api/v1/wallets/"+walletID+"/balance", token, nil)
	require.Equal(t, http.StatusOK, code)

	var result struct {
		Balance string `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	return result.Balance
}

func TestAPI_RegisterAndLogin(t *testing.T) {
	app := newTestApp(t, domain.ChainModeSimulated)
	defer app.close()

	token := app.registerUser(t, "ada@example.com")
	require.NotEmpty(t, token)

	// Duplicate registration conflicts
	code, env := app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "ada@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "AUTH_002", env.ErrorCode)

	// Login works
	code, env = app.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, code)

	// Wrong password
	code, env = app.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "nope-nope-nope",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "AUTH_001", env.ErrorCode)
}

func TestAPI_WalletLifecycle_Simulated(t *testing.T) {
	app := newTestApp(t, domain.ChainModeSimulated)
	defer app.close()

	token := app.registerUser(t, "ada@example.com")

	w := app.createWallet(t, token, "savings")
	assert.Equal(t, "savings", w.Label)
	assert.Len(t, w.Address, 42)
	require.NotNil(t, w.Balance)
	assert.Equal(t, "1000", *w.Balance)
	assert.Nil(t, w.Chain)

	// Default label derives from the wallet id
	w2 := app.createWallet(t, token, "")
	assert.Equal(t, "Wallet "+w2.ID[:8], w2.Label)

	// List returns both, creation order
	code, env := app.do(t, http.MethodGet, "/api/v1/wallets", token, nil)
	require.Equal(t, http.StatusOK, code)
	var list []walletPayload
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 2)
	assert.Equal(t, w.ID, list[0].ID)
	assert.Equal(t, w2.ID, list[1].ID)

	// Unauthenticated access fails
	code, env = app.do(t, http.MethodGet, "/api/v1/wallets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "AUTH_003", env.ErrorCode)
}

func TestAPI_InternalTransfer_BalancesMove(t *testing.T) {
	app := newTestApp(t, domain.ChainModeSimulated)
	defer app.close()

	token := app.registerUser(t, "ada@example.com")
	a := app.createWallet(t, token, "a")
	b := app.createWallet(t, token, "b")

	code, env := app.do(t, http.MethodPost, "/api/v1/wallets/"+a.ID+"/send", token, map[string]string{
		"to":     b.ID,
		"amount": "150",
	})
	require.Equal(t, http.StatusCreated, code)

	var result struct {
		TransactionHash    string `json:"transaction_hash"`
		SourceBalance      string `json:"source_balance"`
		DestinationBalance string `json:"destination_balance"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.NotEmpty(t, result.TransactionHash)
	assert.Equal(t, "850", result.SourceBalance)
	assert.Equal(t, "1150", result.DestinationBalance)

	assert.Equal(t, "850", app.balanceOf(t, token, a.ID))
	assert.Equal(t, "1150", app.balanceOf(t, token, b.ID))

	// The transfer shows up on both sides of the history
	code, env = app.do(t, http.MethodGet, "/api/v1/wallets/"+b.ID+"/transactions", token, nil)
	require.Equal(t, http.StatusOK, code)
	var entries []struct {
		Hash string `json:"hash"`
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "internal", entries[0].Type)
}

func TestAPI_ExternalSend_DebitsOnly(t *testing.T) {
	app := newTestApp(t, domain.ChainModeSimulated)
	defer app.close()

	token := app.registerUser(t, "ada@example.com")
	w := app.createWallet(t, token, "main")

	code, env := app.do(t, http.MethodPost, "/api/v1/wallets/"+w.ID+"/send", token, map[string]string{
		"to":     "0x8617e340b3d01fa5f11f306f4090fd50e238070d",
		"amount": "200",
	})
	require.Equal(t, http.StatusCreated, code)

	var result struct {
		SourceBalance string `json:"source_balance"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "800", result.SourceBalance)
	assert.Equal(t, "800", app.balanceOf(t, token, w.ID))
}

func TestAPI_SendValidationOrder(t *testing.T) {
	app := newTestApp(t, domain.ChainModeSimulated)
	defer app.close()

	token := app.registerUser(t, "ada@example.com")
	w := app.createWallet(t, token, "main")

	cases := []struct {
		name     string
		body     map[string]string
		wantCode string
	}{
		{"missing destination", map[string]string{"amount": "10"}, "VAL_002"},
		{"missing amount", map[string]string{"to": w.ID}, "VAL_002"},
		{"zero amount", map[string]string{"to": w.ID, "amount": "0"}, "VAL_003"},
		{"negative amount", map[string]string{"to": w.ID, "amount": "-5"}, "VAL_003"},
		{"garbage amount", map[string]string{"to": w.ID, "amount": "abc"}, "VAL_003"},
		{"insufficient", map[string]string{"to": w.ID, "amount": "99999"}, "VAL_004"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, env := app.do(t, http.MethodPost, "/api/v1/wallets/"+w.ID+"/send", token, tc.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, tc.wantCode, env.ErrorCode)
		})
	}
}

func TestAPI_Deposit_Simulated(t *testing.T) {
	app := newTestApp(t, domain.ChainModeSimulated)
	defer app.close()

	token := app.registerUser(t, "ada@example.com")
	w := app.createWallet(t, token, "main")

	code, env := app.do(t, http.MethodPost, "/api/v1/wallets/"+w.ID+"/deposit", token, map[string]string{
		"amount": "250",
	})
	require.Equal(t, http.StatusCreated, code)

	var result struct {
		Balance string `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "1250", result.Balance)

	// Deposit entries carry no source wallet
	code, env = app.do(t, http.MethodGet, "/api/v1/wallets/"+w.ID+"/transactions", token, nil)
	require.Equal(t, http.StatusOK, code)
	var entries []struct {
		FromWalletID *string `json:"from_wallet_id"`
		Type         string  `json:"type"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "deposit", entries[0].Type)
	assert.Nil(t, entries[0].FromWalletID)
}

func TestAPI_OwnershipIsolation(t *testing.T) {
	app := newTestApp(t, domain.ChainModeSimulated)
	defer app.close()

	adaToken := app.registerUser(t, "ada@example.com")
	graceToken := app.registerUser(t, "grace@example.com")

	adaWallet := app.createWallet(t, adaToken, "ada-main")

	// Another user's wallet exists but is off limits
	code, env := app.do(t, http.MethodGet, "/api/v1/wallets/"+adaWallet.ID, graceToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", env.ErrorCode)

	code, env = app.do(t, http.MethodPost, "/api/v1/wallets/"+adaWallet.ID+"/send", graceToken, map[string]string{
		"to": adaWallet.ID, "amount": "10",
	})
	assert.Equal(t, http.StatusForbidden, code)

	// A wallet that does not exist at all is not found
	code, env = app.do(t, http.MethodGet, "/api/v1/wallets/11111111-2222-3333-4444-555555555555", graceToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", env.ErrorCode)
}

func TestAPI_SignMessage(t *testing.T) {
	app := newTestApp(t, domain.ChainModeSimulated)
	defer app.close()

	token := app.registerUser(t, "ada@example.com")
	w := app.createWallet(t, token, "main")

	sign := func() string {
		code, env := app.do(t, http.MethodPost, "/api/v1/wallets/"+w.ID+"/sign", token, map[string]string{
			"message": "approve withdrawal #42",
		})
		require.Equal(t, http.StatusOK, code)
		var result struct {
			Signature string `json:"signature"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &result))
		return result.Signature
	}

	first := sign()
	second := sign()
	assert.NotEmpty(t, first)
	assert.Equal(t, first, second, "signatures must be deterministic")

	// Empty message rejected
	code, env := app.do(t, http.MethodPost, "/api/v1/wallets/"+w.ID+"/sign", token, map[string]string{
		"message": "  ",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VAL_009", env.ErrorCode)
}

func TestAPI_ChainInfo_Simulated(t *testing.T) {
	app := newTestApp(t, domain.ChainModeSimulated)
	defer app.close()

	token := app.registerUser(t, "ada@example.com")

	code, env := app.do(t, http.MethodGet, "/api/v1/chain", token, nil)
	require.Equal(t, http.StatusOK, code)

	var info struct {
		Mode           string `json:"mode"`
		Label          string `json:"label"`
		DepositEnabled bool   `json:"deposit_enabled"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.Equal(t, "simulated", info.Mode)
	assert.Equal(t, "Simulated Ledger", info.Label)
	assert.True(t, info.DepositEnabled)
}

func TestAPI_OnChainMode(t *testing.T) {
	app := newTestApp(t, domain.ChainModeSepolia)
	defer app.close()

	token := app.registerUser(t, "ada@example.com")
	w := app.createWallet(t, token, "hot")

	require.NotNil(t, w.Chain)
	assert.Equal(t, "sepolia", *w.Chain)
	assert.Nil(t, w.Balance)

	// Deposits are disabled; the error points at the faucet
	code, env := app.do(t, http.MethodPost, "/api/v1/wallets/"+w.ID+"/deposit", token, map[string]string{
		"amount": "100",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VAL_008", env.ErrorCode)
	assert.Contains(t, env.Message, "faucet")

	// Unfunded wallet reports a zero live balance
	assert.Equal(t, "0", app.balanceOf(t, token, w.ID))

	// Fund the address on the fake chain and send
	app.provider.fund(w.Address, weiFromEther(3))
	assert.Equal(t, "3", app.balanceOf(t, token, w.ID))

	code, env = app.do(t, http.MethodPost, "/api/v1/wallets/"+w.ID+"/send", token, map[string]string{
		"to":     "0x8617e340b3d01fa5f11f306f4090fd50e238070d",
		"amount": "1.5",
	})
	require.Equal(t, http.StatusCreated, code)

	var result struct {
		TransactionHash string  `json:"transaction_hash"`
		SourceBalance   *string `json:"source_balance"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.NotEmpty(t, result.TransactionHash)
	assert.Nil(t, result.SourceBalance, "on-chain sends report no stored balances")

	// Sending more than the live balance fails
	code, env = app.do(t, http.MethodPost, "/api/v1/wallets/"+w.ID+"/send", token, map[string]string{
		"to":     "0x8617e340b3d01fa5f11f306f4090fd50e238070d",
		"amount": "50",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VAL_007", env.ErrorCode)

	// Non-address destinations are rejected in this mode
	code, env = app.do(t, http.MethodPost, "/api/v1/wallets/"+w.ID+"/send", token, map[string]string{
		"to":     "definitely-not-an-address",
		"amount": "1",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VAL_005", env.ErrorCode)
}

func weiFromEther(n int64) *big.Int {
	wei := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return wei.Mul(wei, big.NewInt(n))
}

func TestAPI_HealthEndpoint(t *testing.T) {
	app := newTestApp(t, domain.ChainModeSimulated)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), fmt.Sprintf("%q", "healthy"))
}
