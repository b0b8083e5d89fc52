package service

import (
	"context"
	"fmt"
	"time"

	"fanpool/metrics"
	"fanpool/models"
	log "github.com/sirupsen/logrus"
)

type escrowService struct {
	uowFactory       UnitOfWorkFactory
	source           EscrowSource
	reconcileTimeout time.Duration
}

// NewEscrowService creates a new escrow service
func NewEscrowService(uowFactory UnitOfWorkFactory, source EscrowSource, reconcileTimeout time.Duration) EscrowService {
	if reconcileTimeout <= 0 {
		reconcileTimeout = 5 * time.Second
	}
	return &escrowService{
		uowFactory:       uowFactory,
		source:           source,
		reconcileTimeout: reconcileTimeout,
	}
}

// Reconcile compares the internal ledger against the external escrow source.
// Drift is reported, never corrected. When the external source is unreachable
// the view degrades to ledger-only and is tagged with the failure reason.
func (s *escrowService) Reconcile(ctx context.Context, userID int64) (*models.ReconciledBalance, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	balance, err := uow.WalletRepository().GetBalance(ctx, userID, models.DefaultCurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	if balance == nil {
		balance = &models.WalletBalance{
			UserID:   userID,
			Currency: models.DefaultCurrency,
		}
	}

	lockedInEscrow, err := uow.EscrowLockRepository().SumPendingByUser(ctx, userID, models.DefaultCurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to sum pending locks: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	result := &models.ReconciledBalance{
		UserID:         userID,
		Currency:       balance.Currency,
		Available:      balance.Available,
		Reserved:       balance.Reserved,
		LockedInEscrow: lockedInEscrow,
		TotalDeposited: balance.TotalDeposited,
		TotalWithdrawn: balance.TotalWithdrawn,
		CheckedAt:      time.Now(),
	}

	sourceCtx, cancel := context.WithTimeout(ctx, s.reconcileTimeout)
	defer cancel()

	external, err := s.source.EscrowBalance(sourceCtx, userID)
	if err != nil {
		log.WithFields(log.Fields{
			"userID": userID,
			"error":  err,
		}).Warn("External escrow source unreachable, degrading to ledger-only view")
		result.Provenance = models.ProvenanceDegraded
		result.Reason = fmt.Sprintf("escrow source unavailable: %v", err)
		metrics.EscrowSourceDegradedTotal.Inc()
		return result, nil
	}

	result.ExternalEscrow = external
	result.Drift = external - balance.Reserved
	result.Provenance = models.ProvenanceVerified
	if result.Drift != 0 {
		result.Reason = fmt.Sprintf("ledger reserved %d, escrow holds %d", balance.Reserved, external)
		metrics.EscrowDriftDetectedTotal.Inc()
		log.WithFields(log.Fields{
			"userID":   userID,
			"reserved": balance.Reserved,
			"external": external,
			"drift":    result.Drift,
		}).Warn("Ledger and escrow views disagree")
	}
	return result, nil
}

// ExpireStaleLocks transitions pending locks past expiry and releases their
// reserved funds. Safe to rerun: expired locks are terminal and skipped.
func (s *escrowService) ExpireStaleLocks(ctx context.Context) (int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	now := time.Now()
	stale, err := uow.EscrowLockRepository().GetExpiredPending(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to get expired locks: %w", err)
	}

	expired := 0
	for _, lock := range stale {
		if !lock.CanTransitionTo(models.EscrowLockStatusExpired) {
			continue
		}
		lock.Status = models.EscrowLockStatusExpired
		lock.ResolvedAt = &now
		if err := uow.EscrowLockRepository().Update(ctx, lock); err != nil {
			return 0, fmt.Errorf("failed to expire lock %d: %w", lock.ID, err)
		}

		reference := fmt.Sprintf("lock-expire:%d", lock.ID)
		if _, err := releaseReserved(ctx, uow, lock.UserID, lock.Amount, reference, &lock.PredictionID, nil); err != nil {
			return 0, fmt.Errorf("failed to release expired lock %d: %w", lock.ID, err)
		}
		expired++
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if expired > 0 {
		metrics.ExpiredLocksReleasedTotal.Add(float64(expired))
		log.WithField("count", expired).Info("Expired stale escrow locks")
	}
	return expired, nil
}
