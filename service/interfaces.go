package service

import (
	"context"
	"time"

	"fanpool/events"
	"fanpool/models"
	"fanpool/odds"
)

// WalletRepository defines the interface for wallet balance data access
type WalletRepository interface {
	// GetBalance retrieves the balance for a user and currency, or nil if none exists
	GetBalance(ctx context.Context, userID int64, currency string) (*models.WalletBalance, error)

	// GetBalanceForUpdate retrieves the balance row under a row lock, creating
	// a zero balance if none exists. Serializes concurrent mutations per
	// (user, currency).
	GetBalanceForUpdate(ctx context.Context, userID int64, currency string) (*models.WalletBalance, error)

	// UpdateBalance persists the mutated balance fields
	UpdateBalance(ctx context.Context, balance *models.WalletBalance) error
}

// WalletTransactionRepository defines the interface for the append-only transaction journal
type WalletTransactionRepository interface {
	// Record creates a new wallet transaction entry
	Record(ctx context.Context, txn *models.WalletTransaction) error

	// GetByReference retrieves a transaction by its idempotency key, or nil
	GetByReference(ctx context.Context, channel models.TransactionChannel, reference string) (*models.WalletTransaction, error)

	// GetByUser returns recent transactions for a user, newest first
	GetByUser(ctx context.Context, userID int64, currency string, limit int) ([]*models.WalletTransaction, error)

	// SumNetByUser returns the journal's net effect on available plus
	// reserved for a user. Lock and release entries net to zero.
	SumNetByUser(ctx context.Context, userID int64, currency string) (int64, error)
}

// PredictionRepository defines the interface for prediction market data access
type PredictionRepository interface {
	// CreateWithOptions creates a prediction and its options atomically
	CreateWithOptions(ctx context.Context, prediction *models.Prediction, options []*models.PredictionOption) error

	// GetByID retrieves a prediction by its ID, or nil
	GetByID(ctx context.Context, id int64) (*models.Prediction, error)

	// GetByIDForUpdate retrieves a prediction under a row lock. Serializes
	// stake placement against settlement.
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Prediction, error)

	// GetDetailByID returns the prediction with its options and entries
	GetDetailByID(ctx context.Context, id int64) (*models.PredictionDetail, error)

	// Update persists prediction state changes
	Update(ctx context.Context, prediction *models.Prediction) error

	// AddToPools adds delta to the prediction total and the option pool
	AddToPools(ctx context.Context, predictionID, optionID, delta int64) error

	// GetAll returns predictions, optionally filtered by status
	GetAll(ctx context.Context, status *models.PredictionStatus) ([]*models.Prediction, error)

	// GetExpiredOpen returns open predictions whose entry deadline has passed
	GetExpiredOpen(ctx context.Context, now time.Time) ([]*models.Prediction, error)
}

// EntryRepository defines the interface for stake entry data access
type EntryRepository interface {
	// Create creates a new entry
	Create(ctx context.Context, entry *models.PredictionEntry) error

	// GetByID retrieves an entry by its ID, or nil
	GetByID(ctx context.Context, id int64) (*models.PredictionEntry, error)

	// GetByUserAndPrediction returns the user's active entry on a prediction, or nil
	GetByUserAndPrediction(ctx context.Context, userID, predictionID int64) (*models.PredictionEntry, error)

	// Update persists entry status and payout changes
	Update(ctx context.Context, entry *models.PredictionEntry) error

	// GetByUser returns entries for a user, newest first
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.PredictionEntry, error)
}

// EscrowLockRepository defines the interface for escrow lock data access
type EscrowLockRepository interface {
	// Create creates a new lock
	Create(ctx context.Context, lock *models.EscrowLock) error

	// GetByID retrieves a lock by its ID, or nil
	GetByID(ctx context.Context, id int64) (*models.EscrowLock, error)

	// GetByReference retrieves a lock by its reference, or nil
	GetByReference(ctx context.Context, reference string) (*models.EscrowLock, error)

	// Update persists lock status changes
	Update(ctx context.Context, lock *models.EscrowLock) error

	// SumPendingByUser returns the total amount held by pending locks for a user
	SumPendingByUser(ctx context.Context, userID int64, currency string) (int64, error)

	// GetExpiredPending returns pending locks past their expiry
	GetExpiredPending(ctx context.Context, now time.Time) ([]*models.EscrowLock, error)
}

// SettlementRepository defines the interface for settlement record data access
type SettlementRepository interface {
	// Create persists a settlement summary
	Create(ctx context.Context, settlement *models.Settlement) error

	// GetByPredictionID retrieves the settlement for a prediction, or nil
	GetByPredictionID(ctx context.Context, predictionID int64) (*models.Settlement, error)
}

// WalletService defines the interface for balance operations
type WalletService interface {
	// Deposit credits available funds. Reference is the caller's idempotency key.
	Deposit(ctx context.Context, userID int64, amount int64, reference string) (*models.WalletTransaction, error)

	// Withdraw debits available funds
	Withdraw(ctx context.Context, userID int64, amount int64, reference string) (*models.WalletTransaction, error)

	// GetBalance returns the ledger balance with verified provenance
	GetBalance(ctx context.Context, userID int64) (*models.BalanceSnapshot, error)

	// GetSummary returns the ledger balance reconciled against the external
	// escrow source. Degrades to a ledger-only view when the source is
	// unreachable, tagged accordingly.
	GetSummary(ctx context.Context, userID int64) (*models.ReconciledBalance, error)

	// GetTransactions returns recent wallet transactions for a user
	GetTransactions(ctx context.Context, userID int64, limit int) ([]*models.WalletTransaction, error)
}

// EscrowService defines the interface for escrow lock lifecycle operations
type EscrowService interface {
	// Reconcile compares the internal ledger against the external escrow
	// source for one user and reports drift without correcting it
	Reconcile(ctx context.Context, userID int64) (*models.ReconciledBalance, error)

	// ExpireStaleLocks transitions pending locks past expiry and returns the
	// reserved funds. Returns the number of locks expired.
	ExpireStaleLocks(ctx context.Context) (int, error)
}

// PredictionService defines the interface for prediction market operations
type PredictionService interface {
	// CreatePrediction creates a new prediction with outcome options
	CreatePrediction(ctx context.Context, creatorID int64, title string, options []string, deadline time.Time) (*models.PredictionDetail, error)

	// PlaceStake reserves funds, locks them in escrow, and records the entry
	// in one atomic transaction
	PlaceStake(ctx context.Context, predictionID, userID, optionID, amount int64) (*models.PredictionEntry, error)

	// CancelStake refunds an active entry while the prediction is still open,
	// less the configured cancellation fee
	CancelStake(ctx context.Context, predictionID, userID int64) (*models.PredictionEntry, error)

	// QuoteStake returns a fee-aware advisory preview for a hypothetical stake
	QuoteStake(ctx context.Context, predictionID, optionID, amount int64) (*odds.Preview, error)

	// GetDetail returns a prediction with its options and entries
	GetDetail(ctx context.Context, predictionID int64) (*models.PredictionDetail, error)

	// ListPredictions returns predictions, optionally filtered by status
	ListPredictions(ctx context.Context, status *models.PredictionStatus) ([]*models.Prediction, error)

	// ClosePrediction stops a prediction from accepting further stakes
	ClosePrediction(ctx context.Context, predictionID int64) (*models.Prediction, error)

	// CloseExpired closes open predictions past their entry deadline and
	// returns how many were closed
	CloseExpired(ctx context.Context) (int, error)
}

// SettlementService defines the interface for settlement operations
type SettlementService interface {
	// Settle resolves a prediction with the winning option, paying out all
	// winners and sweeping fees in one atomic transaction
	Settle(ctx context.Context, predictionID, winningOptionID int64) (*models.SettlementResult, error)

	// Void cancels a prediction and refunds all active stakes at face value
	Void(ctx context.Context, predictionID int64, reason string) (*models.VoidResult, error)
}

// EscrowSource reads the external custodial escrow balance for a user.
// Implementations are read-only; the ledger is never overwritten from here.
type EscrowSource interface {
	// EscrowBalance returns the externally held escrow amount in minor units
	EscrowBalance(ctx context.Context, userID int64) (int64, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	WalletRepository() WalletRepository
	WalletTransactionRepository() WalletTransactionRepository
	PredictionRepository() PredictionRepository
	EntryRepository() EntryRepository
	EscrowLockRepository() EscrowLockRepository
	SettlementRepository() SettlementRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
