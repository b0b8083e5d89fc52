package service

import (
	"context"
	"fmt"
	"time"

	"fanpool/config"
	"fanpool/events"
	"fanpool/models"
	"fanpool/odds"
)

type settlementService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
}

// NewSettlementService creates a new settlement service
func NewSettlementService(uowFactory UnitOfWorkFactory, cfg *config.Config) SettlementService {
	return &settlementService{
		uowFactory: uowFactory,
		config:     cfg,
	}
}

// Settle resolves a prediction with the winning option. All payouts, loss
// collections, and fee sweeps land in one transaction; a failure anywhere
// rolls back everything. Per-entry references make a rerun idempotent.
func (s *settlementService) Settle(ctx context.Context, predictionID, winningOptionID int64) (*models.SettlementResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	prediction, err := uow.PredictionRepository().GetByIDForUpdate(ctx, predictionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	if prediction == nil {
		return nil, fmt.Errorf("%w: prediction %d", ErrNotFound, predictionID)
	}
	if prediction.IsTerminal() {
		return nil, fmt.Errorf("%w: prediction %d is %s", ErrAlreadySettled, predictionID, prediction.Status)
	}
	now := time.Now()
	if !prediction.CanSettle(now) {
		return nil, fmt.Errorf("%w: prediction %d is still accepting stakes", ErrNotReady, predictionID)
	}

	detail, err := uow.PredictionRepository().GetDetailByID(ctx, predictionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction detail: %w", err)
	}
	winningOption := detail.OptionByID(winningOptionID)
	if winningOption == nil {
		return nil, fmt.Errorf("%w: option %d does not belong to prediction %d", ErrInvalidOption, winningOptionID, predictionID)
	}

	entriesByOption := detail.ActiveEntriesByOption()
	winners := entriesByOption[winningOptionID]

	var losers []*models.PredictionEntry
	var losingPool int64
	for optionID, entries := range entriesByOption {
		if optionID == winningOptionID {
			continue
		}
		for _, entry := range entries {
			losers = append(losers, entry)
			losingPool += entry.Amount
		}
	}

	stakes := make([]odds.WinningStake, 0, len(winners))
	for _, entry := range winners {
		stakes = append(stakes, odds.WinningStake{
			EntryID: entry.ID,
			UserID:  entry.UserID,
			Amount:  entry.Amount,
		})
	}

	alloc := odds.Allocate(stakes, losingPool, prediction.PlatformFeeBps, prediction.CreatorFeeBps)

	payoutsByEntry := make(map[int64]int64, len(alloc.Payouts))
	for _, payout := range alloc.Payouts {
		payoutsByEntry[payout.EntryID] = payout.Amount
	}

	payoutsByUser := make(map[int64]int64)
	for _, entry := range winners {
		amount := payoutsByEntry[entry.ID]

		consumeRef := fmt.Sprintf("settle-consume:%d", entry.ID)
		if _, err := consumeReserved(ctx, uow, entry.UserID, entry.Amount, models.ChannelStakeSettled, consumeRef, &predictionID, &entry.ID); err != nil {
			return nil, err
		}
		if amount > 0 {
			payoutRef := fmt.Sprintf("payout:%d", entry.ID)
			if _, err := creditAvailable(ctx, uow, entry.UserID, amount, models.ChannelPayout, payoutRef, &predictionID, &entry.ID); err != nil {
				return nil, err
			}
		}

		entry.Status = models.EntryStatusWon
		entry.ActualPayout = &amount
		if err := uow.EntryRepository().Update(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to update winning entry %d: %w", entry.ID, err)
		}
		payoutsByUser[entry.UserID] += amount
	}

	for _, entry := range losers {
		lossRef := fmt.Sprintf("settle-loss:%d", entry.ID)
		if _, err := consumeReserved(ctx, uow, entry.UserID, entry.Amount, models.ChannelStakeSettledLoss, lossRef, &predictionID, &entry.ID); err != nil {
			return nil, err
		}

		var zero int64
		entry.Status = models.EntryStatusLost
		entry.ActualPayout = &zero
		if err := uow.EntryRepository().Update(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to update losing entry %d: %w", entry.ID, err)
		}
	}

	if alloc.PlatformFee > 0 {
		feeRef := fmt.Sprintf("settle-platform-fee:%d", predictionID)
		if _, err := creditAvailable(ctx, uow, s.config.PlatformTreasuryID, alloc.PlatformFee, models.ChannelPlatformFee, feeRef, &predictionID, nil); err != nil {
			return nil, err
		}
	}
	if alloc.CreatorFee > 0 {
		feeRef := fmt.Sprintf("settle-creator-fee:%d", predictionID)
		if _, err := creditAvailable(ctx, uow, prediction.CreatorID, alloc.CreatorFee, models.ChannelCreatorFee, feeRef, &predictionID, nil); err != nil {
			return nil, err
		}
	}

	settlement := &models.Settlement{
		PredictionID:    predictionID,
		WinningOptionID: winningOptionID,
		TotalPool:       alloc.WinningPool + alloc.LosingPool,
		WinningPool:     alloc.WinningPool,
		LosingPool:      alloc.LosingPool,
		Distributable:   alloc.Distributable,
		PlatformFee:     alloc.PlatformFee,
		CreatorFee:      alloc.CreatorFee,
		Residual:        alloc.Residual,
		WinnerCount:     len(winners),
		SettledAt:       now,
	}
	if err := uow.SettlementRepository().Create(ctx, settlement); err != nil {
		return nil, fmt.Errorf("failed to record settlement: %w", err)
	}

	prediction.Status = models.PredictionStatusSettled
	prediction.WinningOptionID = &winningOptionID
	prediction.SettledAt = &now
	if err := uow.PredictionRepository().Update(ctx, prediction); err != nil {
		return nil, fmt.Errorf("failed to update prediction: %w", err)
	}

	uow.EventBus().Publish(events.PredictionSettledEvent{
		PredictionID:    predictionID,
		WinningOptionID: winningOptionID,
		TotalPool:       settlement.TotalPool,
		WinnerCount:     len(winners),
		PlatformFee:     alloc.PlatformFee,
		CreatorFee:      alloc.CreatorFee,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.SettlementResult{
		Prediction:    prediction,
		WinningOption: winningOption,
		Settlement:    settlement,
		Winners:       winners,
		Losers:        losers,
		PayoutsByUser: payoutsByUser,
	}, nil
}

// Void cancels a prediction and refunds every active stake at face value
func (s *settlementService) Void(ctx context.Context, predictionID int64, reason string) (*models.VoidResult, error) {
	if reason == "" {
		return nil, fmt.Errorf("void reason cannot be empty")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	prediction, err := uow.PredictionRepository().GetByIDForUpdate(ctx, predictionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	if prediction == nil {
		return nil, fmt.Errorf("%w: prediction %d", ErrNotFound, predictionID)
	}
	if prediction.IsTerminal() {
		return nil, fmt.Errorf("%w: prediction %d is %s", ErrAlreadySettled, predictionID, prediction.Status)
	}

	detail, err := uow.PredictionRepository().GetDetailByID(ctx, predictionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction detail: %w", err)
	}

	refundsByUser := make(map[int64]int64)
	var refunded []*models.PredictionEntry
	var totalRefunded int64
	for _, entry := range detail.Entries {
		if !entry.IsActive() {
			continue
		}

		refundRef := fmt.Sprintf("void-refund:%d", entry.ID)
		if _, err := releaseReserved(ctx, uow, entry.UserID, entry.Amount, refundRef, &predictionID, &entry.ID); err != nil {
			return nil, err
		}

		entry.Status = models.EntryStatusRefunded
		if err := uow.EntryRepository().Update(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to update entry %d: %w", entry.ID, err)
		}

		refunded = append(refunded, entry)
		refundsByUser[entry.UserID] += entry.Amount
		totalRefunded += entry.Amount
	}

	now := time.Now()
	prediction.Status = models.PredictionStatusVoided
	prediction.VoidReason = &reason
	prediction.SettledAt = &now
	if err := uow.PredictionRepository().Update(ctx, prediction); err != nil {
		return nil, fmt.Errorf("failed to update prediction: %w", err)
	}

	uow.EventBus().Publish(events.PredictionVoidedEvent{
		PredictionID: predictionID,
		Reason:       reason,
		Refunded:     totalRefunded,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.VoidResult{
		Prediction:    prediction,
		Refunded:      refunded,
		RefundsByUser: refundsByUser,
	}, nil
}
