package service

import (
	"context"
	"fmt"

	"fanpool/events"
	"fanpool/models"
)

// balanceMutation describes a single wallet change. apply mutates the locked
// balance row; the mutation is journaled and an event is published alongside.
type balanceMutation struct {
	userID       int64
	currency     string
	amount       int64
	direction    models.TransactionDirection
	channel      models.TransactionChannel
	reference    string
	predictionID *int64
	entryID      *int64
	apply        func(b *models.WalletBalance) error
}

// applyBalanceMutation is the single entry point for all balance changes. It
// locks the balance row, replays idempotently on a known (channel, reference)
// pair, and otherwise mutates the balance, journals a wallet transaction, and
// publishes a balance change event in the caller's transaction.
//
// The second return is false when the mutation was a replay and no funds moved.
func applyBalanceMutation(ctx context.Context, uow UnitOfWork, m balanceMutation) (*models.WalletTransaction, bool, error) {
	if m.amount <= 0 {
		return nil, false, fmt.Errorf("%w: amount must be positive, got %d", ErrInvalidAmount, m.amount)
	}
	if m.reference == "" {
		return nil, false, fmt.Errorf("%w: reference is required", ErrInvalidAmount)
	}

	existing, err := uow.WalletTransactionRepository().GetByReference(ctx, m.channel, m.reference)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check transaction reference: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	balance, err := uow.WalletRepository().GetBalanceForUpdate(ctx, m.userID, m.currency)
	if err != nil {
		return nil, false, fmt.Errorf("failed to lock balance: %w", err)
	}

	if err := m.apply(balance); err != nil {
		return nil, false, err
	}
	if balance.Available < 0 || balance.Reserved < 0 {
		return nil, false, fmt.Errorf("%w: balance went negative for user %d", ErrConcurrencyConflict, m.userID)
	}

	if err := uow.WalletRepository().UpdateBalance(ctx, balance); err != nil {
		return nil, false, fmt.Errorf("failed to update balance: %w", err)
	}

	txn := &models.WalletTransaction{
		UserID:       m.userID,
		Currency:     m.currency,
		Direction:    m.direction,
		Channel:      m.channel,
		Amount:       m.amount,
		Status:       models.TransactionStatusCompleted,
		Reference:    m.reference,
		PredictionID: m.predictionID,
		EntryID:      m.entryID,
	}
	if err := uow.WalletTransactionRepository().Record(ctx, txn); err != nil {
		return nil, false, fmt.Errorf("failed to record wallet transaction: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:         m.userID,
		Currency:       m.currency,
		Direction:      m.direction,
		Channel:        m.channel,
		Amount:         m.amount,
		AvailableAfter: balance.Available,
		ReservedAfter:  balance.Reserved,
		Reference:      m.reference,
	})

	return txn, true, nil
}

// creditAvailable adds amount to the available balance
func creditAvailable(ctx context.Context, uow UnitOfWork, userID int64, amount int64, channel models.TransactionChannel, reference string, predictionID, entryID *int64) (*models.WalletTransaction, error) {
	txn, _, err := applyBalanceMutation(ctx, uow, balanceMutation{
		userID:       userID,
		currency:     models.DefaultCurrency,
		amount:       amount,
		direction:    models.DirectionCredit,
		channel:      channel,
		reference:    reference,
		predictionID: predictionID,
		entryID:      entryID,
		apply: func(b *models.WalletBalance) error {
			b.Available += amount
			if channel == models.ChannelDeposit {
				b.TotalDeposited += amount
			}
			return nil
		},
	})
	return txn, err
}

// debitAvailable removes amount from the available balance
func debitAvailable(ctx context.Context, uow UnitOfWork, userID int64, amount int64, channel models.TransactionChannel, reference string, predictionID, entryID *int64) (*models.WalletTransaction, error) {
	txn, _, err := applyBalanceMutation(ctx, uow, balanceMutation{
		userID:       userID,
		currency:     models.DefaultCurrency,
		amount:       amount,
		direction:    models.DirectionDebit,
		channel:      channel,
		reference:    reference,
		predictionID: predictionID,
		entryID:      entryID,
		apply: func(b *models.WalletBalance) error {
			if b.Available < amount {
				return fmt.Errorf("%w: have %d available, need %d", ErrInsufficientFunds, b.Available, amount)
			}
			b.Available -= amount
			if channel == models.ChannelWithdrawal {
				b.TotalWithdrawn += amount
			}
			return nil
		},
	})
	return txn, err
}

// reserveFunds moves amount from available to reserved
func reserveFunds(ctx context.Context, uow UnitOfWork, userID int64, amount int64, reference string, predictionID, entryID *int64) (*models.WalletTransaction, error) {
	txn, _, err := applyBalanceMutation(ctx, uow, balanceMutation{
		userID:       userID,
		currency:     models.DefaultCurrency,
		amount:       amount,
		direction:    models.DirectionDebit,
		channel:      models.ChannelStakeLock,
		reference:    reference,
		predictionID: predictionID,
		entryID:      entryID,
		apply: func(b *models.WalletBalance) error {
			if b.Available < amount {
				return fmt.Errorf("%w: have %d available, need %d", ErrInsufficientFunds, b.Available, amount)
			}
			b.Available -= amount
			b.Reserved += amount
			return nil
		},
	})
	return txn, err
}

// releaseReserved moves amount from reserved back to available
func releaseReserved(ctx context.Context, uow UnitOfWork, userID int64, amount int64, reference string, predictionID, entryID *int64) (*models.WalletTransaction, error) {
	txn, _, err := applyBalanceMutation(ctx, uow, balanceMutation{
		userID:       userID,
		currency:     models.DefaultCurrency,
		amount:       amount,
		direction:    models.DirectionCredit,
		channel:      models.ChannelStakeRelease,
		reference:    reference,
		predictionID: predictionID,
		entryID:      entryID,
		apply: func(b *models.WalletBalance) error {
			if b.Reserved < amount {
				return fmt.Errorf("%w: have %d reserved, need %d", ErrConcurrencyConflict, b.Reserved, amount)
			}
			b.Reserved -= amount
			b.Available += amount
			return nil
		},
	})
	return txn, err
}

// consumeReserved removes amount from reserved entirely. Used at settlement
// when the stake either converts to a payout or is collected as a loss.
func consumeReserved(ctx context.Context, uow UnitOfWork, userID int64, amount int64, channel models.TransactionChannel, reference string, predictionID, entryID *int64) (*models.WalletTransaction, error) {
	txn, _, err := applyBalanceMutation(ctx, uow, balanceMutation{
		userID:       userID,
		currency:     models.DefaultCurrency,
		amount:       amount,
		direction:    models.DirectionDebit,
		channel:      channel,
		reference:    reference,
		predictionID: predictionID,
		entryID:      entryID,
		apply: func(b *models.WalletBalance) error {
			if b.Reserved < amount {
				return fmt.Errorf("%w: have %d reserved, need %d", ErrConcurrencyConflict, b.Reserved, amount)
			}
			b.Reserved -= amount
			return nil
		},
	})
	return txn, err
}
