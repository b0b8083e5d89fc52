package service

import (
	"context"
	"fmt"

	"fanpool/models"
	log "github.com/sirupsen/logrus"
)

type walletService struct {
	uowFactory UnitOfWorkFactory
	escrow     EscrowService
}

// NewWalletService creates a new wallet service
func NewWalletService(uowFactory UnitOfWorkFactory, escrow EscrowService) WalletService {
	return &walletService{
		uowFactory: uowFactory,
		escrow:     escrow,
	}
}

// Deposit credits available funds
func (s *walletService) Deposit(ctx context.Context, userID int64, amount int64, reference string) (*models.WalletTransaction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	txn, err := creditAvailable(ctx, uow, userID, amount, models.ChannelDeposit, reference, nil, nil)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return txn, nil
}

// Withdraw debits available funds. Confirmed drift between the ledger and
// the external escrow source blocks the withdrawal until resolved; an
// unreachable source does not.
func (s *walletService) Withdraw(ctx context.Context, userID int64, amount int64, reference string) (*models.WalletTransaction, error) {
	reconciled, err := s.escrow.Reconcile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile before withdrawal: %w", err)
	}
	if reconciled.Provenance == models.ProvenanceVerified && reconciled.Drift != 0 {
		return nil, fmt.Errorf("%w: %s", ErrReconciliationRequired, reconciled.Reason)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	txn, err := debitAvailable(ctx, uow, userID, amount, models.ChannelWithdrawal, reference, nil, nil)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return txn, nil
}

// GetBalance returns the ledger balance checked against the transaction
// journal. A mismatch yields a degraded snapshot with the discrepancy in
// Reason; the running balance is never silently corrected.
func (s *walletService) GetBalance(ctx context.Context, userID int64) (*models.BalanceSnapshot, error) {
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

	journalNet, err := uow.WalletTransactionRepository().SumNetByUser(ctx, userID, models.DefaultCurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to sum transaction journal: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	snapshot := &models.BalanceSnapshot{
		Balance:    balance,
		Provenance: models.ProvenanceVerified,
	}
	if balance.Total() != journalNet {
		snapshot.Provenance = models.ProvenanceDegraded
		snapshot.Reason = fmt.Sprintf("%v: running balance %d does not match journal net %d",
			ErrReconciliationRequired, balance.Total(), journalNet)
		log.WithFields(log.Fields{
			"userID":  userID,
			"running": balance.Total(),
			"journal": journalNet,
		}).Warn("Running balance and transaction journal disagree")
	}
	return snapshot, nil
}

// GetSummary returns the ledger balance reconciled against the external escrow source
func (s *walletService) GetSummary(ctx context.Context, userID int64) (*models.ReconciledBalance, error) {
	return s.escrow.Reconcile(ctx, userID)
}

// GetTransactions returns recent wallet transactions for a user
func (s *walletService) GetTransactions(ctx context.Context, userID int64, limit int) ([]*models.WalletTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	txns, err := uow.WalletTransactionRepository().GetByUser(ctx, userID, models.DefaultCurrency, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return txns, nil
}
