package api

import (
	"net/http"
	"time"

	"fanpool/metrics"
	"fanpool/models"
	"fanpool/service"

	"github.com/gin-gonic/gin"
)

type PredictionHandler struct {
	predictions service.PredictionService
}

func NewPredictionHandler(predictions service.PredictionService) *PredictionHandler {
	return &PredictionHandler{predictions: predictions}
}

type CreatePredictionRequest struct {
	CreatorID int64     `json:"creator_id" binding:"required"`
	Title     string    `json:"title" binding:"required"`
	Options   []string  `json:"options" binding:"required,min=2"`
	Deadline  time.Time `json:"deadline" binding:"required"`
}

func (h *PredictionHandler) Create(c *gin.Context) {
	var req CreatePredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "creator_id, title, deadline and at least two options are required"})
		return
	}

	detail, err := h.predictions.CreatePrediction(c.Request.Context(), req.CreatorID, req.Title, req.Options, req.Deadline)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, detail)
}

func (h *PredictionHandler) List(c *gin.Context) {
	var status *models.PredictionStatus
	if raw := c.Query("status"); raw != "" {
		s := models.PredictionStatus(raw)
		status = &s
	}

	predictions, err := h.predictions.ListPredictions(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, predictions)
}

func (h *PredictionHandler) Get(c *gin.Context) {
	predictionID, ok := pathID(c, "predictionID")
	if !ok {
		return
	}

	detail, err := h.predictions.GetDetail(c.Request.Context(), predictionID)
	if err != nil {
		respondError(c, err)
		return
	}
	if detail == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "prediction not found"})
		return
	}

	c.JSON(http.StatusOK, detail)
}

func (h *PredictionHandler) Close(c *gin.Context) {
	predictionID, ok := pathID(c, "predictionID")
	if !ok {
		return
	}

	prediction, err := h.predictions.ClosePrediction(c.Request.Context(), predictionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, prediction)
}

type PlaceStakeRequest struct {
	UserID      int64 `json:"user_id" binding:"required"`
	OptionID    int64 `json:"option_id" binding:"required"`
	AmountCents int64 `json:"amount_cents" binding:"required"`
}

func (h *PredictionHandler) PlaceStake(c *gin.Context) {
	predictionID, ok := pathID(c, "predictionID")
	if !ok {
		return
	}

	var req PlaceStakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id, option_id and amount_cents are required"})
		return
	}

	entry, err := h.predictions.PlaceStake(c.Request.Context(), predictionID, req.UserID, req.OptionID, req.AmountCents)
	if err != nil {
		respondError(c, err)
		return
	}

	metrics.StakesPlacedTotal.Inc()
	c.JSON(http.StatusCreated, entry)
}

type CancelStakeRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

func (h *PredictionHandler) CancelStake(c *gin.Context) {
	predictionID, ok := pathID(c, "predictionID")
	if !ok {
		return
	}

	var req CancelStakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	entry, err := h.predictions.CancelStake(c.Request.Context(), predictionID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	metrics.StakesCancelledTotal.Inc()
	c.JSON(http.StatusOK, entry)
}

type QuoteStakeRequest struct {
	OptionID    int64 `json:"option_id" binding:"required"`
	AmountCents int64 `json:"amount_cents" binding:"required"`
}

func (h *PredictionHandler) QuoteStake(c *gin.Context) {
	predictionID, ok := pathID(c, "predictionID")
	if !ok {
		return
	}

	var req QuoteStakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "option_id and amount_cents are required"})
		return
	}

	preview, err := h.predictions.QuoteStake(c.Request.Context(), predictionID, req.OptionID, req.AmountCents)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, preview)
}
