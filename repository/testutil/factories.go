package testutil

import (
	"time"

	"fanpool/models"
)

// CreateTestPrediction creates an open prediction with default fee rates
func CreateTestPrediction(creatorID int64, title string) *models.Prediction {
	return &models.Prediction{
		CreatorID:      creatorID,
		Title:          title,
		Status:         models.PredictionStatusOpen,
		EntryDeadline:  time.Now().Add(24 * time.Hour),
		PlatformFeeBps: 250,
		CreatorFeeBps:  100,
	}
}

// CreateTestOptions creates the given option labels in order
func CreateTestOptions(labels ...string) []*models.PredictionOption {
	options := make([]*models.PredictionOption, 0, len(labels))
	for i, label := range labels {
		options = append(options, &models.PredictionOption{
			Label:       label,
			OptionOrder: int16(i),
		})
	}
	return options
}

// CreateTestEntry creates an active entry
func CreateTestEntry(predictionID, optionID, userID, amount int64) *models.PredictionEntry {
	return &models.PredictionEntry{
		PredictionID: predictionID,
		OptionID:     optionID,
		UserID:       userID,
		Amount:       amount,
		Status:       models.EntryStatusActive,
	}
}

// CreateTestEscrowLock creates a pending lock expiring in an hour
func CreateTestEscrowLock(userID, predictionID, amount int64, reference string) *models.EscrowLock {
	return &models.EscrowLock{
		UserID:       userID,
		PredictionID: predictionID,
		Amount:       amount,
		Currency:     models.DefaultCurrency,
		Status:       models.EscrowLockStatusPending,
		Reference:    reference,
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

// CreateTestWalletTransaction creates a completed deposit transaction
func CreateTestWalletTransaction(userID, amount int64, reference string) *models.WalletTransaction {
	return &models.WalletTransaction{
		UserID:    userID,
		Currency:  models.DefaultCurrency,
		Direction: models.DirectionCredit,
		Channel:   models.ChannelDeposit,
		Amount:    amount,
		Status:    models.TransactionStatusCompleted,
		Reference: reference,
	}
}
