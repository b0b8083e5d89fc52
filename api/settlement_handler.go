package api

import (
	"net/http"

	"fanpool/metrics"
	"fanpool/service"

	"github.com/gin-gonic/gin"
)

type SettlementHandler struct {
	settlements service.SettlementService
}

func NewSettlementHandler(settlements service.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlements: settlements}
}

type SettleRequest struct {
	WinningOptionID int64 `json:"winning_option_id" binding:"required"`
}

func (h *SettlementHandler) Settle(c *gin.Context) {
	predictionID, ok := pathID(c, "predictionID")
	if !ok {
		return
	}

	var req SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "winning_option_id is required"})
		return
	}

	result, err := h.settlements.Settle(c.Request.Context(), predictionID, req.WinningOptionID)
	if err != nil {
		respondError(c, err)
		return
	}

	var paid int64
	for _, amount := range result.PayoutsByUser {
		paid += amount
	}
	metrics.RecordSettlement("settled", paid)

	c.JSON(http.StatusOK, result)
}

type VoidRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *SettlementHandler) Void(c *gin.Context) {
	predictionID, ok := pathID(c, "predictionID")
	if !ok {
		return
	}

	var req VoidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required"})
		return
	}

	result, err := h.settlements.Void(c.Request.Context(), predictionID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	metrics.RecordSettlement("voided", 0)

	c.JSON(http.StatusOK, result)
}
