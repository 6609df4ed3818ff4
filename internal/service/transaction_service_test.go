package service

import (
	"context"
	"testing"

	"custody-wallet/internal/core/domain"
	"custody-wallet/internal/core/ports"
	"custody-wallet/internal/core/ports/mocks"
	"custody-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type txTestDeps struct {
	walletRepo *mocks.MockWalletRepository
	txRepo     *mocks.MockTransactionRepository
	vault      *mocks.MockKeyVault
	ledger     *mocks.MockLedger
	ctrl       *gomock.Controller
}

func setupTransactionService(t *testing.T, mode domain.ChainMode) (*TransactionServiceImpl, *txTestDeps) {
	ctrl := gomock.NewController(t)
	d := &txTestDeps{
		walletRepo: mocks.NewMockWalletRepository(ctrl),
		txRepo:     mocks.NewMockTransactionRepository(ctrl),
		vault:      mocks.NewMockKeyVault(ctrl),
		ledger:     mocks.NewMockLedger(ctrl),
		ctrl:       ctrl,
	}
	d.ledger.EXPECT().Mode().Return(mode).AnyTimes()
	svc := NewTransactionService(d.walletRepo, d.txRepo, d.vault, d.ledger, "", zerolog.Nop())
	return svc, d
}

func ownedWallet(userID uuid.UUID) *domain.Wallet {
	balance := decimal.NewFromInt(1000)
	return &domain.Wallet{
		ID:            uuid.New(),
		UserID:        userID,
		Label:         "main",
		Address:       "0x52908400098527886e0f7030069857d2e4169ee7",
		PrivateKeyEnc: "enc-blob",
		Balance:       &balance,
	}
}

func TestTransactionService_GetBalance(t *testing.T) {
	svc, d := setupTransactionService(t, domain.ChainModeSimulated)
	defer d.ctrl.Finish()
	ctx := context.Background()

	userID := uuid.New()
	w := ownedWallet(userID)

	d.walletRepo.EXPECT().GetByID(ctx, w.ID).Return(w, nil)
	d.ledger.EXPECT().Balance(ctx, w).Return(decimal.NewFromInt(1000), nil)

	result, err := svc.GetBalance(ctx, userID, w.ID)
	require.NoError(t, err)
	assert.Equal(t, w.ID, result.WalletID)
	assert.True(t, result.Balance.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, domain.ChainModeSimulated, result.Mode)
}

func TestTransactionService_SignMessage_EmptyMessage(t *testing.T) {
	svc, d := setupTransactionService(t, domain.ChainModeSimulated)
	defer d.ctrl.Finish()

	_, err := svc.SignMessage(context.Background(), uuid.New(), uuid.New(), "   ")
	require.Error(t, err)
	assert.Equal(t, "VAL_009", err.(*apperror.AppError).Code)
}

func TestTransactionService_SignMessage_Deterministic(t *testing.T) {
	svc, d := setupTransactionService(t, domain.ChainModeSimulated)
	defer d.ctrl.Finish()
	ctx := context.Background()

	kp, err := GenerateKeypair()
	require.NoError(t, err)
	keyBytes := make([]byte, 32)
	copy(keyBytes, kp.PrivateBytes())

	userID := uuid.New()
	w := ownedWallet(userID)

	d.walletRepo.EXPECT().GetByID(ctx, w.ID).Return(w, nil).Times(2)
	// Fresh copy per call: the engine zeroes the key after signing.
	d.vault.EXPECT().Decrypt("enc-blob").DoAndReturn(func(string) ([]byte, error) {
		out := make([]byte, 32)
		copy(out, keyBytes)
		return out, nil
	}).Times(2)

	first, err := svc.SignMessage(ctx, userID, w.ID, "hello world")
	require.NoError(t, err)
	second, err := svc.SignMessage(ctx, userID, w.ID, "hello world")
	require.NoError(t, err)

	assert.Equal(t, first.Signature, second.Signature)
	assert.NotEmpty(t, first.Signature)
}

func TestTransactionService_Send_MissingFields(t *testing.T) {
	svc, d := setupTransactionService(t, domain.ChainModeSimulated)
	defer d.ctrl.Finish()

	_, err := svc.Send(context.Background(), uuid.New(), uuid.New(), ports.SendRequest{To: "", Amount: "10"})
	require.Error(t, err)
	assert.Equal(t, "VAL_002", err.(*apperror.AppError).Code)

	_, err = svc.Send(context.Background(), uuid.New(), uuid.New(), ports.SendRequest{To: "0xabc", Amount: " "})
	require.Error(t, err)
	assert.Equal(t, "VAL_002", err.(*apperror.AppError).Code)
}

func TestTransactionService_Send_AmountValidation(t *testing.T) {
	svc, d := setupTransactionService(t, domain.ChainModeSimulated)
	defer d.ctrl.Finish()

	for _, amount := range []string{"0", "-5", "abc", "1.2.3"} {
		_, err := svc.Send(context.Background(), uuid.New(), uuid.New(), ports.SendRequest{To: "0xabc", Amount: amount})
		require.Error(t, err, "amount %q", amount)
		assert.Equal(t, "VAL_003", err.(*apperror.AppError).Code, "amount %q", amount)
	}
}

func TestTransactionService_Send_ResolvesInternalDestinationByID(t *testing.T) {
	svc, d := setupTransactionService(t, domain.ChainModeSimulated)
	defer d.ctrl.Finish()
	ctx := context.Background()

	userID := uuid.New()
	src := ownedWallet(userID)
	dst := ownedWallet(userID)

	d.walletRepo.EXPECT().GetByID(ctx, src.ID).Return(src, nil)
	d.walletRepo.EXPECT().ListByUser(ctx, userID).Return([]domain.Wallet{*src, *dst}, nil)

	amount := decimal.NewFromInt(150)
	srcBal := decimal.NewFromInt(850)
	d.ledger.EXPECT().
		Send(ctx, gomock.Any(), gomock.Any(), dst.ID.String(), amount, gomock.Nil()).
		DoAndReturn(func(_ context.Context, s, dest *domain.Wallet, to string, amt decimal.Decimal, _ *string) (*ports.TransferOutcome, error) {
			require.NotNil(t, dest)
			assert.Equal(t, dst.ID, dest.ID)
			return &ports.TransferOutcome{
				Transaction:   &domain.Transaction{Hash: "0xhash", Type: domain.TransactionTypeInternal},
				SourceBalance: &srcBal,
			}, nil
		})

	result, err := svc.Send(ctx, userID, src.ID, ports.SendRequest{To: dst.ID.String(), Amount: "150"})
	require.NoError(t, err)
	assert.Equal(t, "0xhash", result.TransactionHash)
	assert.True(t, result.SourceBalance.Equal(srcBal))
}

func TestTransactionService_Send_ResolvesDestinationByAddressCaseInsensitive(t *testing.T) {
	svc, d := setupTransactionService(t, domain.ChainModeSimulated)
	defer d.ctrl.Finish()
	ctx := context.Background()

	userID := uuid.New()
	src := ownedWallet(userID)
	dst := ownedWallet(userID)
	dst.Address = "0xabCDef0123456789abcdef0123456789ABCDEF01"

	d.walletRepo.EXPECT().GetByID(ctx, src.ID).Return(src, nil)
	d.walletRepo.EXPECT().ListByUser(ctx, userID).Return([]domain.Wallet{*src, *dst}, nil)

	upper := "0XABCDEF0123456789ABCDEF0123456789ABCDEF01"
	d.ledger.EXPECT().
		Send(ctx, gomock.Any(), gomock.Any(), upper, gomock.Any(), gomock.Nil()).
		DoAndReturn(func(_ context.Context, _, dest *domain.Wallet, _ string, _ decimal.Decimal, _ *string) (*ports.TransferOutcome, error) {
			require.NotNil(t, dest)
			assert.Equal(t, dst.ID, dest.ID)
			return &ports.TransferOutcome{Transaction: &domain.Transaction{Hash: "0xhash"}}, nil
		})

	_, err := svc.Send(ctx, userID, src.ID, ports.SendRequest{To: upper, Amount: "1"})
	require.NoError(t, err)
}

func TestTransactionService_Send_ExternalDestinationIsNil(t *testing.T) {
	svc, d := setupTransactionService(t, domain.ChainModeSimulated)
	defer d.ctrl.Finish()
	ctx := context.Background()

	userID := uuid.New()
	src := ownedWallet(userID)

	d.walletRepo.EXPECT().GetByID(ctx, src.ID).Return(src, nil)
	d.walletRepo.EXPECT().ListByUser(ctx, userID).Return([]domain.Wallet{*src}, nil)

	d.ledger.EXPECT().
		Send(ctx, gomock.Any(), gomock.Nil(), "0xsomewhere-else", gomock.Any(), gomock.Nil()).
		Return(&ports.TransferOutcome{Transaction: &domain.Transaction{Hash: "0xext", Type: domain.TransactionTypeExternal}}, nil)

	result, err := svc.Send(ctx, userID, src.ID, ports.SendRequest{To: "0xsomewhere-else", Amount: "200"})
	require.NoError(t, err)
	assert.Equal(t, "0xext", result.TransactionHash)
	assert.Nil(t, result.SourceBalance)
}

func TestTransactionService_Send_OwnershipBeforeDestination(t *testing.T) {
	svc, d := setupTransactionService(t, domain.ChainModeSimulated)
	defer d.ctrl.Finish()
	ctx := context.Background()

	other := ownedWallet(uuid.New())
	d.walletRepo.EXPECT().GetByID(ctx, other.ID).Return(other, nil)

	_, err := svc.Send(ctx, uuid.New(), other.ID, ports.SendRequest{To: "0xabc", Amount: "10"})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", err.(*apperror.AppError).Code)
}

func TestTransactionService_Deposit_ModeGateFirst(t *testing.T) {
	svc, d := setupTransactionService(t, domain.ChainModeSepolia)
	defer d.ctrl.Finish()

	d.ledger.EXPECT().DepositEnabled().Return(false)

	// The gate fires before amount parsing or any wallet lookup.
	_, err := svc.Deposit(context.Background(), uuid.New(), uuid.New(), "not-a-number")
	require.Error(t, err)
	assert.Equal(t, "VAL_008", err.(*apperror.AppError).Code)
}

func TestTransactionService_Deposit_Success(t *testing.T) {
	svc, d := setupTransactionService(t, domain.ChainModeSimulated)
	defer d.ctrl.Finish()
	ctx := context.Background()

	userID := uuid.New()
	w := ownedWallet(userID)

	d.ledger.EXPECT().DepositEnabled().Return(true)
	d.walletRepo.EXPECT().GetByID(ctx, w.ID).Return(w, nil)

	newBal := decimal.NewFromInt(1250)
	d.ledger.EXPECT().Deposit(ctx, gomock.Any(), decimal.NewFromInt(250)).
		Return(&ports.TransferOutcome{
			Transaction:   &domain.Transaction{Hash: "0xdep", Type: domain.TransactionTypeDeposit},
			SourceBalance: &newBal,
		}, nil)

	result, err := svc.Deposit(ctx, userID, w.ID, "250")
	require.NoError(t, err)
	assert.Equal(t, "0xdep", result.TransactionHash)
	assert.True(t, result.Balance.Equal(newBal))
}

func TestTransactionService_ListTransactions(t *testing.T) {
	svc, d := setupTransactionService(t, domain.ChainModeSimulated)
	defer d.ctrl.Finish()
	ctx := context.Background()

	userID := uuid.New()
	w := ownedWallet(userID)

	d.walletRepo.EXPECT().GetByID(ctx, w.ID).Return(w, nil)
	d.txRepo.EXPECT().ListForWallet(ctx, w.ID, w.Address).Return([]domain.Transaction{
		{ID: uuid.New(), Hash: "0x2"},
		{ID: uuid.New(), Hash: "0x1"},
	}, nil)

	entries, err := svc.ListTransactions(ctx, userID, w.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "0x2", entries[0].Hash)
}

func TestTransactionService_ChainInfo(t *testing.T) {
	svc, d := setupTransactionService(t, domain.ChainModeSimulated)
	defer d.ctrl.Finish()

	info := svc.ChainInfo()
	assert.Equal(t, domain.ChainModeSimulated, info.Mode)
	assert.Equal(t, "Simulated Ledger", info.Label)
	assert.True(t, info.DepositEnabled)
	assert.Empty(t, info.RPCHost)
}
