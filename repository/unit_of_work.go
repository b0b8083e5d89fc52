package repository

import (
	"context"
	"fmt"

	"fanpool/database"
	"fanpool/events"
	"fanpool/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	walletRepo       service.WalletRepository
	walletTxnRepo    service.WalletTransactionRepository
	predictionRepo   service.PredictionRepository
	entryRepo        service.EntryRepository
	escrowLockRepo   service.EscrowLockRepository
	settlementRepo   service.SettlementRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.walletRepo = newWalletRepositoryWithTx(tx)
	u.walletTxnRepo = newWalletTransactionRepositoryWithTx(tx)
	u.predictionRepo = newPredictionRepositoryWithTx(tx)
	u.entryRepo = newEntryRepositoryWithTx(tx)
	u.escrowLockRepo = newEscrowLockRepositoryWithTx(tx)
	u.settlementRepo = newSettlementRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// WalletRepository returns the wallet repository for this unit of work
func (u *unitOfWork) WalletRepository() service.WalletRepository {
	if u.walletRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.walletRepo
}

// WalletTransactionRepository returns the wallet transaction repository for this unit of work
func (u *unitOfWork) WalletTransactionRepository() service.WalletTransactionRepository {
	if u.walletTxnRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.walletTxnRepo
}

// PredictionRepository returns the prediction repository for this unit of work
func (u *unitOfWork) PredictionRepository() service.PredictionRepository {
	if u.predictionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.predictionRepo
}

// EntryRepository returns the entry repository for this unit of work
func (u *unitOfWork) EntryRepository() service.EntryRepository {
	if u.entryRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.entryRepo
}

// EscrowLockRepository returns the escrow lock repository for this unit of work
func (u *unitOfWork) EscrowLockRepository() service.EscrowLockRepository {
	if u.escrowLockRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.escrowLockRepo
}

// SettlementRepository returns the settlement repository for this unit of work
func (u *unitOfWork) SettlementRepository() service.SettlementRepository {
	if u.settlementRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.settlementRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
