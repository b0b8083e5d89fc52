package api

import (
	"errors"
	"net/http"

	"fanpool/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondError maps service sentinel errors onto HTTP statuses
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidOption):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInsufficientFunds):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadySettled),
		errors.Is(err, service.ErrNotReady),
		errors.Is(err, service.ErrConcurrencyConflict),
		errors.Is(err, service.ErrLockExpired),
		errors.Is(err, service.ErrReconciliationRequired):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("Unhandled request error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
