package service

import (
	"context"
	"time"

	"fanpool/events"
	"fanpool/models"

	"github.com/stretchr/testify/mock"
)

// MockWalletRepository is a mock implementation of WalletRepository
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) GetBalance(ctx context.Context, userID int64, currency string) (*models.WalletBalance, error) {
	args := m.Called(ctx, userID, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WalletBalance), args.Error(1)
}

func (m *MockWalletRepository) GetBalanceForUpdate(ctx context.Context, userID int64, currency string) (*models.WalletBalance, error) {
	args := m.Called(ctx, userID, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WalletBalance), args.Error(1)
}

func (m *MockWalletRepository) UpdateBalance(ctx context.Context, balance *models.WalletBalance) error {
	args := m.Called(ctx, balance)
	return args.Error(0)
}

// MockWalletTransactionRepository is a mock implementation of WalletTransactionRepository
type MockWalletTransactionRepository struct {
	mock.Mock
}

func (m *MockWalletTransactionRepository) Record(ctx context.Context, txn *models.WalletTransaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockWalletTransactionRepository) GetByReference(ctx context.Context, channel models.TransactionChannel, reference string) (*models.WalletTransaction, error) {
	args := m.Called(ctx, channel, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WalletTransaction), args.Error(1)
}

func (m *MockWalletTransactionRepository) GetByUser(ctx context.Context, userID int64, currency string, limit int) ([]*models.WalletTransaction, error) {
	args := m.Called(ctx, userID, currency, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WalletTransaction), args.Error(1)
}

func (m *MockWalletTransactionRepository) SumNetByUser(ctx context.Context, userID int64, currency string) (int64, error) {
	args := m.Called(ctx, userID, currency)
	return args.Get(0).(int64), args.Error(1)
}

// MockPredictionRepository is a mock implementation of PredictionRepository
type MockPredictionRepository struct {
	mock.Mock
}

func (m *MockPredictionRepository) CreateWithOptions(ctx context.Context, prediction *models.Prediction, options []*models.PredictionOption) error {
	args := m.Called(ctx, prediction, options)
	return args.Error(0)
}

func (m *MockPredictionRepository) GetByID(ctx context.Context, id int64) (*models.Prediction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Prediction), args.Error(1)
}

func (m *MockPredictionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Prediction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Prediction), args.Error(1)
}

func (m *MockPredictionRepository) GetDetailByID(ctx context.Context, id int64) (*models.PredictionDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PredictionDetail), args.Error(1)
}

func (m *MockPredictionRepository) Update(ctx context.Context, prediction *models.Prediction) error {
	args := m.Called(ctx, prediction)
	return args.Error(0)
}

func (m *MockPredictionRepository) AddToPools(ctx context.Context, predictionID, optionID, delta int64) error {
	args := m.Called(ctx, predictionID, optionID, delta)
	return args.Error(0)
}

func (m *MockPredictionRepository) GetAll(ctx context.Context, status *models.PredictionStatus) ([]*models.Prediction, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Prediction), args.Error(1)
}

func (m *MockPredictionRepository) GetExpiredOpen(ctx context.Context, now time.Time) ([]*models.Prediction, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Prediction), args.Error(1)
}

// MockEntryRepository is a mock implementation of EntryRepository
type MockEntryRepository struct {
	mock.Mock
}

func (m *MockEntryRepository) Create(ctx context.Context, entry *models.PredictionEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockEntryRepository) GetByID(ctx context.Context, id int64) (*models.PredictionEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PredictionEntry), args.Error(1)
}

func (m *MockEntryRepository) GetByUserAndPrediction(ctx context.Context, userID, predictionID int64) (*models.PredictionEntry, error) {
	args := m.Called(ctx, userID, predictionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PredictionEntry), args.Error(1)
}

func (m *MockEntryRepository) Update(ctx context.Context, entry *models.PredictionEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockEntryRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.PredictionEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PredictionEntry), args.Error(1)
}

// MockEscrowLockRepository is a mock implementation of EscrowLockRepository
type MockEscrowLockRepository struct {
	mock.Mock
}

func (m *MockEscrowLockRepository) Create(ctx context.Context, lock *models.EscrowLock) error {
	args := m.Called(ctx, lock)
	return args.Error(0)
}

func (m *MockEscrowLockRepository) GetByID(ctx context.Context, id int64) (*models.EscrowLock, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EscrowLock), args.Error(1)
}

func (m *MockEscrowLockRepository) GetByReference(ctx context.Context, reference string) (*models.EscrowLock, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EscrowLock), args.Error(1)
}

func (m *MockEscrowLockRepository) Update(ctx context.Context, lock *models.EscrowLock) error {
	args := m.Called(ctx, lock)
	return args.Error(0)
}

func (m *MockEscrowLockRepository) SumPendingByUser(ctx context.Context, userID int64, currency string) (int64, error) {
	args := m.Called(ctx, userID, currency)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEscrowLockRepository) GetExpiredPending(ctx context.Context, now time.Time) ([]*models.EscrowLock, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.EscrowLock), args.Error(1)
}

// MockSettlementRepository is a mock implementation of SettlementRepository
type MockSettlementRepository struct {
	mock.Mock
}

func (m *MockSettlementRepository) Create(ctx context.Context, settlement *models.Settlement) error {
	args := m.Called(ctx, settlement)
	return args.Error(0)
}

func (m *MockSettlementRepository) GetByPredictionID(ctx context.Context, predictionID int64) (*models.Settlement, error) {
	args := m.Called(ctx, predictionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Settlement), args.Error(1)
}

// MockEscrowSource is a mock implementation of EscrowSource
type MockEscrowSource struct {
	mock.Mock
}

func (m *MockEscrowSource) EscrowBalance(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockEscrowService is a mock implementation of EscrowService
type MockEscrowService struct {
	mock.Mock
}

func (m *MockEscrowService) Reconcile(ctx context.Context, userID int64) (*models.ReconciledBalance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReconciledBalance), args.Error(1)
}

func (m *MockEscrowService) ExpireStaleLocks(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockEventPublisher records published events for assertions
type MockEventPublisher struct {
	Events []events.Event
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Events = append(m.Events, event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Transaction methods
// go through testify; repositories are plain fields set by the test.
type MockUnitOfWork struct {
	mock.Mock

	walletRepo     WalletRepository
	walletTxnRepo  WalletTransactionRepository
	predictionRepo PredictionRepository
	entryRepo      EntryRepository
	escrowLockRepo EscrowLockRepository
	settlementRepo SettlementRepository
	eventBus       EventPublisher
}

func (m *MockUnitOfWork) SetRepositories(
	walletRepo WalletRepository,
	walletTxnRepo WalletTransactionRepository,
	predictionRepo PredictionRepository,
	entryRepo EntryRepository,
	escrowLockRepo EscrowLockRepository,
	settlementRepo SettlementRepository,
) {
	m.walletRepo = walletRepo
	m.walletTxnRepo = walletTxnRepo
	m.predictionRepo = predictionRepo
	m.entryRepo = entryRepo
	m.escrowLockRepo = escrowLockRepo
	m.settlementRepo = settlementRepo
}

func (m *MockUnitOfWork) SetEventBus(bus EventPublisher) {
	m.eventBus = bus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) WalletRepository() WalletRepository {
	return m.walletRepo
}

func (m *MockUnitOfWork) WalletTransactionRepository() WalletTransactionRepository {
	return m.walletTxnRepo
}

func (m *MockUnitOfWork) PredictionRepository() PredictionRepository {
	return m.predictionRepo
}

func (m *MockUnitOfWork) EntryRepository() EntryRepository {
	return m.entryRepo
}

func (m *MockUnitOfWork) EscrowLockRepository() EscrowLockRepository {
	return m.escrowLockRepo
}

func (m *MockUnitOfWork) SettlementRepository() SettlementRepository {
	return m.settlementRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	if m.eventBus == nil {
		m.eventBus = &MockEventPublisher{}
	}
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
