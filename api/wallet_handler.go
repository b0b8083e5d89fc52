package api

import (
	"net/http"
	"strconv"

	"fanpool/service"

	"github.com/gin-gonic/gin"
)

type WalletHandler struct {
	wallets service.WalletService
}

func NewWalletHandler(wallets service.WalletService) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

type MovementRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required"`
	Reference   string `json:"reference" binding:"required"`
}

func (h *WalletHandler) Deposit(c *gin.Context) {
	userID, ok := pathID(c, "userID")
	if !ok {
		return
	}

	var req MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount_cents and reference are required"})
		return
	}

	txn, err := h.wallets.Deposit(c.Request.Context(), userID, req.AmountCents, req.Reference)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, txn)
}

func (h *WalletHandler) Withdraw(c *gin.Context) {
	userID, ok := pathID(c, "userID")
	if !ok {
		return
	}

	var req MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount_cents and reference are required"})
		return
	}

	txn, err := h.wallets.Withdraw(c.Request.Context(), userID, req.AmountCents, req.Reference)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, txn)
}

func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID, ok := pathID(c, "userID")
	if !ok {
		return
	}

	snapshot, err := h.wallets.GetBalance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (h *WalletHandler) GetSummary(c *gin.Context) {
	userID, ok := pathID(c, "userID")
	if !ok {
		return
	}

	summary, err := h.wallets.GetSummary(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID, ok := pathID(c, "userID")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	txns, err := h.wallets.GetTransactions(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, txns)
}

// pathID parses a positive int64 path parameter, responding 400 on failure
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}
