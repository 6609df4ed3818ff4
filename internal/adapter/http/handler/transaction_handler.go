package handler

import (
	"custody-wallet/internal/adapter/http/dto"
	"custody-wallet/internal/adapter/http/middleware"
	"custody-wallet/internal/core/ports"
	"custody-wallet/pkg/apperror"
	"custody-wallet/pkg/response"

	"github.com/gin-gonic/gin"
)

// TransactionHandler handles transaction engine endpoints.
type TransactionHandler struct {
	txSvc ports.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(txSvc ports.TransactionService) *TransactionHandler {
	return &TransactionHandler{txSvc: txSvc}
}

// GetBalance handles GET /api/v1/wallets/:id/balance.
func (h *TransactionHandler) GetBalance(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	walletID, err := parseWalletID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.txSvc.GetBalance(c.Request.Context(), userID, walletID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, result)
}

// SignMessage handles POST /api/v1/wallets/:id/sign.
// The message is passed through untouched; any byte-level change would
// produce a different signature.
func (h *TransactionHandler) SignMessage(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	walletID, err := parseWalletID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.txSvc.SignMessage(c.Request.Context(), userID, walletID, req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, result)
}

// Send handles POST /api/v1/wallets/:id/send.
func (h *TransactionHandler) Send(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	walletID, err := parseWalletID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.txSvc.Send(c.Request.Context(), userID, walletID, ports.SendRequest{
		To:     req.To,
		Amount: req.Amount,
		Memo:   req.Memo,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListTransactions handles GET /api/v1/wallets/:id/transactions.
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	walletID, err := parseWalletID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	entries, err := h.txSvc.ListTransactions(c.Request.Context(), userID, walletID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, entries)
}

// Deposit handles POST /api/v1/wallets/:id/deposit.
func (h *TransactionHandler) Deposit(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	walletID, err := parseWalletID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.txSvc.Deposit(c.Request.Context(), userID, walletID, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ChainInfo handles GET /api/v1/chain.
func (h *TransactionHandler) ChainInfo(c *gin.Context) {
	response.OK(c, h.txSvc.ChainInfo())
}
