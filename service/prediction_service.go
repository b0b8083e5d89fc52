package service

import (
	"context"
	"fmt"
	"time"

	"fanpool/config"
	"fanpool/events"
	"fanpool/models"
	"fanpool/odds"

	"github.com/google/uuid"
)

type predictionService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
}

// NewPredictionService creates a new prediction service
func NewPredictionService(uowFactory UnitOfWorkFactory, cfg *config.Config) PredictionService {
	return &predictionService{
		uowFactory: uowFactory,
		config:     cfg,
	}
}

// CreatePrediction creates a new prediction with outcome options
func (s *predictionService) CreatePrediction(ctx context.Context, creatorID int64, title string, options []string, deadline time.Time) (*models.PredictionDetail, error) {
	if title == "" {
		return nil, fmt.Errorf("title cannot be empty")
	}
	if len(options) < 2 {
		return nil, fmt.Errorf("must provide at least 2 options")
	}
	if !deadline.After(time.Now()) {
		return nil, fmt.Errorf("entry deadline must be in the future")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	prediction := &models.Prediction{
		CreatorID:      creatorID,
		Title:          title,
		Status:         models.PredictionStatusOpen,
		EntryDeadline:  deadline,
		PlatformFeeBps: s.config.PlatformFeeBps,
		CreatorFeeBps:  s.config.CreatorFeeBps,
	}

	predictionOptions := make([]*models.PredictionOption, 0, len(options))
	for i, label := range options {
		predictionOptions = append(predictionOptions, &models.PredictionOption{
			Label:       label,
			OptionOrder: int16(i),
		})
	}

	if err := uow.PredictionRepository().CreateWithOptions(ctx, prediction, predictionOptions); err != nil {
		return nil, fmt.Errorf("failed to create prediction: %w", err)
	}

	uow.EventBus().Publish(events.PredictionCreatedEvent{
		PredictionID: prediction.ID,
		CreatorID:    creatorID,
		Title:        title,
		OptionCount:  len(predictionOptions),
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.PredictionDetail{
		Prediction: prediction,
		Options:    predictionOptions,
		Entries:    []*models.PredictionEntry{},
	}, nil
}

// PlaceStake reserves funds, locks them in escrow, and records the entry in
// one atomic transaction. Either every step lands or none does.
func (s *predictionService) PlaceStake(ctx context.Context, predictionID, userID, optionID, amount int64) (*models.PredictionEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: stake must be positive, got %d", ErrInvalidAmount, amount)
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

	now := time.Now()
	if !prediction.CanAcceptStakes(now) {
		if prediction.IsTerminal() {
			return nil, fmt.Errorf("%w: prediction %d is %s", ErrAlreadySettled, predictionID, prediction.Status)
		}
		return nil, fmt.Errorf("%w: prediction %d is not accepting stakes", ErrNotReady, predictionID)
	}

	detail, err := uow.PredictionRepository().GetDetailByID(ctx, predictionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction detail: %w", err)
	}
	if detail.OptionByID(optionID) == nil {
		return nil, fmt.Errorf("%w: option %d does not belong to prediction %d", ErrInvalidOption, optionID, predictionID)
	}

	existing, err := uow.EntryRepository().GetByUserAndPrediction(ctx, userID, predictionID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing entry: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: user %d already has an active stake on prediction %d", ErrConcurrencyConflict, userID, predictionID)
	}

	lock := &models.EscrowLock{
		UserID:       userID,
		PredictionID: predictionID,
		Amount:       amount,
		Currency:     models.DefaultCurrency,
		Status:       models.EscrowLockStatusPending,
		Reference:    uuid.NewString(),
		ExpiresAt:    now.Add(s.config.LockTTL),
	}
	if err := uow.EscrowLockRepository().Create(ctx, lock); err != nil {
		return nil, fmt.Errorf("failed to create escrow lock: %w", err)
	}

	reference := fmt.Sprintf("stake-lock:%s", lock.Reference)
	if _, err := reserveFunds(ctx, uow, userID, amount, reference, &predictionID, nil); err != nil {
		return nil, err
	}

	if !lock.CanTransitionTo(models.EscrowLockStatusConsumed) {
		if lock.IsExpired(now) {
			return nil, fmt.Errorf("%w: lock %s", ErrLockExpired, lock.Reference)
		}
		return nil, fmt.Errorf("%w: lock %s is %s", ErrConcurrencyConflict, lock.Reference, lock.Status)
	}
	lock.Status = models.EscrowLockStatusConsumed
	lock.ResolvedAt = &now
	if err := uow.EscrowLockRepository().Update(ctx, lock); err != nil {
		return nil, fmt.Errorf("failed to consume escrow lock: %w", err)
	}

	entry := &models.PredictionEntry{
		PredictionID: predictionID,
		OptionID:     optionID,
		UserID:       userID,
		Amount:       amount,
		Status:       models.EntryStatusActive,
		EscrowLockID: &lock.ID,
	}
	if err := uow.EntryRepository().Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}

	if err := uow.PredictionRepository().AddToPools(ctx, predictionID, optionID, amount); err != nil {
		return nil, fmt.Errorf("failed to update pools: %w", err)
	}

	uow.EventBus().Publish(events.StakePlacedEvent{
		PredictionID: predictionID,
		EntryID:      entry.ID,
		UserID:       userID,
		OptionID:     optionID,
		Amount:       amount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return entry, nil
}

// CancelStake refunds an active entry while the prediction is still open.
// The configured cancellation fee is withheld and swept to the treasury.
func (s *predictionService) CancelStake(ctx context.Context, predictionID, userID int64) (*models.PredictionEntry, error) {
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
	if !prediction.CanAcceptStakes(time.Now()) {
		if prediction.IsTerminal() {
			return nil, fmt.Errorf("%w: prediction %d is %s", ErrAlreadySettled, predictionID, prediction.Status)
		}
		return nil, fmt.Errorf("%w: stakes can no longer be changed on prediction %d", ErrNotReady, predictionID)
	}

	entry, err := uow.EntryRepository().GetByUserAndPrediction(ctx, userID, predictionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: no active stake for user %d on prediction %d", ErrNotFound, userID, predictionID)
	}

	fee := entry.Amount * s.config.CancellationFeeBps / 10000
	refund := entry.Amount - fee

	reference := fmt.Sprintf("stake-cancel:%d", entry.ID)
	if _, err := releaseReserved(ctx, uow, userID, entry.Amount, reference, &predictionID, &entry.ID); err != nil {
		return nil, err
	}
	if fee > 0 {
		feeRef := fmt.Sprintf("cancel-fee:%d", entry.ID)
		if _, err := debitAvailable(ctx, uow, userID, fee, models.ChannelCancellationFee, feeRef, &predictionID, &entry.ID); err != nil {
			return nil, err
		}
		treasuryRef := fmt.Sprintf("cancel-fee-sweep:%d", entry.ID)
		if _, err := creditAvailable(ctx, uow, s.config.PlatformTreasuryID, fee, models.ChannelCancellationFee, treasuryRef, &predictionID, &entry.ID); err != nil {
			return nil, err
		}
	}

	entry.Status = models.EntryStatusRefunded
	if err := uow.EntryRepository().Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}

	if err := uow.PredictionRepository().AddToPools(ctx, predictionID, entry.OptionID, -entry.Amount); err != nil {
		return nil, fmt.Errorf("failed to update pools: %w", err)
	}

	uow.EventBus().Publish(events.StakeCancelledEvent{
		PredictionID: predictionID,
		EntryID:      entry.ID,
		UserID:       userID,
		Refunded:     refund,
		Fee:          fee,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return entry, nil
}

// QuoteStake returns a fee-aware advisory preview for a hypothetical stake.
// Later stakes move the pools, so the settlement multiple governs the payout.
func (s *predictionService) QuoteStake(ctx context.Context, predictionID, optionID, amount int64) (*odds.Preview, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: stake cannot be negative, got %d", ErrInvalidAmount, amount)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	detail, err := uow.PredictionRepository().GetDetailByID(ctx, predictionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction detail: %w", err)
	}
	if detail == nil {
		return nil, fmt.Errorf("%w: prediction %d", ErrNotFound, predictionID)
	}
	option := detail.OptionByID(optionID)
	if option == nil {
		return nil, fmt.Errorf("%w: option %d does not belong to prediction %d", ErrInvalidOption, optionID, predictionID)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return odds.ComputePreview(detail.Prediction.PoolTotal, option.PoolTotal, amount, detail.Prediction.TotalFeeBps()), nil
}

// GetDetail returns a prediction with its options and entries
func (s *predictionService) GetDetail(ctx context.Context, predictionID int64) (*models.PredictionDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	detail, err := uow.PredictionRepository().GetDetailByID(ctx, predictionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction detail: %w", err)
	}
	if detail == nil {
		return nil, fmt.Errorf("%w: prediction %d", ErrNotFound, predictionID)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return detail, nil
}

// ListPredictions returns predictions, optionally filtered by status
func (s *predictionService) ListPredictions(ctx context.Context, status *models.PredictionStatus) ([]*models.Prediction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	predictions, err := uow.PredictionRepository().GetAll(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return predictions, nil
}

// ClosePrediction stops a prediction from accepting further stakes
func (s *predictionService) ClosePrediction(ctx context.Context, predictionID int64) (*models.Prediction, error) {
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
	if prediction.Status == models.PredictionStatusClosed {
		return prediction, nil
	}

	prediction.Status = models.PredictionStatusClosed
	if err := uow.PredictionRepository().Update(ctx, prediction); err != nil {
		return nil, fmt.Errorf("failed to close prediction: %w", err)
	}

	uow.EventBus().Publish(events.PredictionClosedEvent{
		PredictionID: predictionID,
		PoolTotal:    prediction.PoolTotal,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return prediction, nil
}

// CloseExpired closes open predictions whose entry deadline has passed
func (s *predictionService) CloseExpired(ctx context.Context) (int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	expired, err := uow.PredictionRepository().GetExpiredOpen(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to get expired predictions: %w", err)
	}

	closed := 0
	for _, prediction := range expired {
		prediction.Status = models.PredictionStatusClosed
		if err := uow.PredictionRepository().Update(ctx, prediction); err != nil {
			return 0, fmt.Errorf("failed to close prediction %d: %w", prediction.ID, err)
		}
		uow.EventBus().Publish(events.PredictionClosedEvent{
			PredictionID: prediction.ID,
			PoolTotal:    prediction.PoolTotal,
		})
		closed++
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return closed, nil
}
