package service

import (
	"context"
	"testing"
	"time"

	"fanpool/config"
	"fanpool/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Test utilities

type testMocks struct {
	Factory        *MockUnitOfWorkFactory
	UoW            *MockUnitOfWork
	WalletRepo     *MockWalletRepository
	WalletTxnRepo  *MockWalletTransactionRepository
	PredictionRepo *MockPredictionRepository
	EntryRepo      *MockEntryRepository
	EscrowLockRepo *MockEscrowLockRepository
	SettlementRepo *MockSettlementRepository
	EventBus       *MockEventPublisher
}

func newTestMocks() *testMocks {
	m := &testMocks{
		Factory:        new(MockUnitOfWorkFactory),
		UoW:            new(MockUnitOfWork),
		WalletRepo:     new(MockWalletRepository),
		WalletTxnRepo:  new(MockWalletTransactionRepository),
		PredictionRepo: new(MockPredictionRepository),
		EntryRepo:      new(MockEntryRepository),
		EscrowLockRepo: new(MockEscrowLockRepository),
		SettlementRepo: new(MockSettlementRepository),
		EventBus:       &MockEventPublisher{},
	}
	m.UoW.SetRepositories(m.WalletRepo, m.WalletTxnRepo, m.PredictionRepo, m.EntryRepo, m.EscrowLockRepo, m.SettlementRepo)
	m.UoW.SetEventBus(m.EventBus)
	m.Factory.On("Create").Return(m.UoW)
	return m
}

func (m *testMocks) setupTransaction() {
	m.UoW.On("Begin", mock.Anything).Return(nil)
	m.UoW.On("Commit").Return(nil)
	m.UoW.On("Rollback").Return(nil)
}

// expectNoReplay wires the idempotency lookup to report no prior transaction
func (m *testMocks) expectNoReplay() {
	m.WalletTxnRepo.On("GetByReference", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
}

// expectBalanceMutations wires a mutable balance row for a user so helper
// mutations accumulate across calls
func (m *testMocks) expectBalanceMutations(balance *models.WalletBalance) {
	m.WalletRepo.On("GetBalanceForUpdate", mock.Anything, balance.UserID, models.DefaultCurrency).Return(balance, nil)
	m.WalletRepo.On("UpdateBalance", mock.Anything, balance).Return(nil)
	m.WalletTxnRepo.On("Record", mock.Anything, mock.Anything).Return(nil)
}

func testConfig() *config.Config {
	return &config.Config{
		PlatformFeeBps:     250,
		CreatorFeeBps:      100,
		CancellationFeeBps: 100,
		PlatformTreasuryID: 0,
		LockTTL:            15 * time.Minute,
		Environment:        "test",
	}
}

func createTestPrediction(id int64, status models.PredictionStatus) *models.Prediction {
	return &models.Prediction{
		ID:             id,
		CreatorID:      999,
		Title:          "Will the home team win",
		Status:         status,
		EntryDeadline:  time.Now().Add(24 * time.Hour),
		PlatformFeeBps: 250,
		CreatorFeeBps:  100,
	}
}

func createTestOption(id, predictionID int64, order int16, poolTotal int64) *models.PredictionOption {
	return &models.PredictionOption{
		ID:           id,
		PredictionID: predictionID,
		Label:        "option",
		OptionOrder:  order,
		PoolTotal:    poolTotal,
	}
}

func createTestEntry(id, predictionID, optionID, userID, amount int64) *models.PredictionEntry {
	return &models.PredictionEntry{
		ID:           id,
		PredictionID: predictionID,
		OptionID:     optionID,
		UserID:       userID,
		Amount:       amount,
		Status:       models.EntryStatusActive,
	}
}

func createTestBalance(userID, available, reserved int64) *models.WalletBalance {
	return &models.WalletBalance{
		UserID:    userID,
		Currency:  models.DefaultCurrency,
		Available: available,
		Reserved:  reserved,
	}
}

// Tests

func TestPredictionService_CreatePrediction(t *testing.T) {
	ctx := context.Background()

	t.Run("successful creation", func(t *testing.T) {
		mocks := newTestMocks()
		mocks.setupTransaction()
		svc := NewPredictionService(mocks.Factory, testConfig())

		mocks.PredictionRepo.On("CreateWithOptions", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		deadline := time.Now().Add(time.Hour)
		detail, err := svc.CreatePrediction(ctx, 42, "Who wins the final", []string{"Team A", "Team B"}, deadline)
		require.NoError(t, err)
		assert.Equal(t, models.PredictionStatusOpen, detail.Prediction.Status)
		assert.Equal(t, int64(250), detail.Prediction.PlatformFeeBps)
		assert.Len(t, detail.Options, 2)
		assert.Len(t, mocks.EventBus.Events, 1)
	})

	t.Run("rejects fewer than two options", func(t *testing.T) {
		mocks := newTestMocks()
		svc := NewPredictionService(mocks.Factory, testConfig())

		_, err := svc.CreatePrediction(ctx, 42, "Who wins", []string{"only one"}, time.Now().Add(time.Hour))
		assert.Error(t, err)
	})

	t.Run("rejects past deadline", func(t *testing.T) {
		mocks := newTestMocks()
		svc := NewPredictionService(mocks.Factory, testConfig())

		_, err := svc.CreatePrediction(ctx, 42, "Who wins", []string{"a", "b"}, time.Now().Add(-time.Hour))
		assert.Error(t, err)
	})
}

func TestPredictionService_PlaceStake(t *testing.T) {
	ctx := context.Background()

	t.Run("successful placement reserves and records atomically", func(t *testing.T) {
		mocks := newTestMocks()
		mocks.setupTransaction()
		mocks.expectNoReplay()
		svc := NewPredictionService(mocks.Factory, testConfig())

		prediction := createTestPrediction(1, models.PredictionStatusOpen)
		option := createTestOption(10, 1, 0, 0)
		detail := &models.PredictionDetail{Prediction: prediction, Options: []*models.PredictionOption{option}}
		balance := createTestBalance(7, 5000, 0)

		mocks.PredictionRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(prediction, nil)
		mocks.PredictionRepo.On("GetDetailByID", mock.Anything, int64(1)).Return(detail, nil)
		mocks.EntryRepo.On("GetByUserAndPrediction", mock.Anything, int64(7), int64(1)).Return(nil, nil)
		mocks.EscrowLockRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		mocks.EscrowLockRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
		mocks.expectBalanceMutations(balance)
		mocks.EntryRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		mocks.PredictionRepo.On("AddToPools", mock.Anything, int64(1), int64(10), int64(1000)).Return(nil)

		entry, err := svc.PlaceStake(ctx, 1, 7, 10, 1000)
		require.NoError(t, err)
		assert.Equal(t, models.EntryStatusActive, entry.Status)
		assert.NotNil(t, entry.EscrowLockID)

		// Funds moved from available to reserved
		assert.Equal(t, int64(4000), balance.Available)
		assert.Equal(t, int64(1000), balance.Reserved)
		mocks.UoW.AssertCalled(t, "Commit")
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		mocks := newTestMocks()
		svc := NewPredictionService(mocks.Factory, testConfig())

		_, err := svc.PlaceStake(ctx, 1, 7, 10, 0)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejects unknown option", func(t *testing.T) {
		mocks := newTestMocks()
		mocks.setupTransaction()
		svc := NewPredictionService(mocks.Factory, testConfig())

		prediction := createTestPrediction(1, models.PredictionStatusOpen)
		detail := &models.PredictionDetail{Prediction: prediction, Options: []*models.PredictionOption{createTestOption(10, 1, 0, 0)}}

		mocks.PredictionRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(prediction, nil)
		mocks.PredictionRepo.On("GetDetailByID", mock.Anything, int64(1)).Return(detail, nil)

		_, err := svc.PlaceStake(ctx, 1, 7, 99, 1000)
		assert.ErrorIs(t, err, ErrInvalidOption)
	})

	t.Run("rejects settled prediction", func(t *testing.T) {
		mocks := newTestMocks()
		mocks.setupTransaction()
		svc := NewPredictionService(mocks.Factory, testConfig())

		prediction := createTestPrediction(1, models.PredictionStatusSettled)
		mocks.PredictionRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(prediction, nil)

		_, err := svc.PlaceStake(ctx, 1, 7, 10, 1000)
		assert.ErrorIs(t, err, ErrAlreadySettled)
	})

	t.Run("rejects stake past the deadline", func(t *testing.T) {
		mocks := newTestMocks()
		mocks.setupTransaction()
		svc := NewPredictionService(mocks.Factory, testConfig())

		prediction := createTestPrediction(1, models.PredictionStatusOpen)
		prediction.EntryDeadline = time.Now().Add(-time.Minute)
		mocks.PredictionRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(prediction, nil)

		_, err := svc.PlaceStake(ctx, 1, 7, 10, 1000)
		assert.ErrorIs(t, err, ErrNotReady)
	})

	t.Run("rejects insufficient funds", func(t *testing.T) {
		mocks := newTestMocks()
		mocks.setupTransaction()
		mocks.expectNoReplay()
		svc := NewPredictionService(mocks.Factory, testConfig())

		prediction := createTestPrediction(1, models.PredictionStatusOpen)
		option := createTestOption(10, 1, 0, 0)
		detail := &models.PredictionDetail{Prediction: prediction, Options: []*models.PredictionOption{option}}
		balance := createTestBalance(7, 500, 0)

		mocks.PredictionRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(prediction, nil)
		mocks.PredictionRepo.On("GetDetailByID", mock.Anything, int64(1)).Return(detail, nil)
		mocks.EntryRepo.On("GetByUserAndPrediction", mock.Anything, int64(7), int64(1)).Return(nil, nil)
		mocks.EscrowLockRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		mocks.WalletRepo.On("GetBalanceForUpdate", mock.Anything, int64(7), models.DefaultCurrency).Return(balance, nil)

		_, err := svc.PlaceStake(ctx, 1, 7, 10, 1000)
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.Equal(t, int64(500), balance.Available)
	})

	t.Run("rejects duplicate active stake", func(t *testing.T) {
		mocks := newTestMocks()
		mocks.setupTransaction()
		svc := NewPredictionService(mocks.Factory, testConfig())

		prediction := createTestPrediction(1, models.PredictionStatusOpen)
		option := createTestOption(10, 1, 0, 0)
		detail := &models.PredictionDetail{Prediction: prediction, Options: []*models.PredictionOption{option}}
		existing := createTestEntry(55, 1, 10, 7, 200)

		mocks.PredictionRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(prediction, nil)
		mocks.PredictionRepo.On("GetDetailByID", mock.Anything, int64(1)).Return(detail, nil)
		mocks.EntryRepo.On("GetByUserAndPrediction", mock.Anything, int64(7), int64(1)).Return(existing, nil)

		_, err := svc.PlaceStake(ctx, 1, 7, 10, 1000)
		assert.ErrorIs(t, err, ErrConcurrencyConflict)
	})
}

func TestPredictionService_CancelStake(t *testing.T) {
	ctx := context.Background()

	t.Run("refunds stake less cancellation fee", func(t *testing.T) {
		mocks := newTestMocks()
		mocks.setupTransaction()
		mocks.expectNoReplay()
		svc := NewPredictionService(mocks.Factory, testConfig())

		prediction := createTestPrediction(1, models.PredictionStatusOpen)
		entry := createTestEntry(55, 1, 10, 7, 1000)
		balance := createTestBalance(7, 0, 1000)
		treasury := createTestBalance(0, 0, 0)

		mocks.PredictionRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(prediction, nil)
		mocks.EntryRepo.On("GetByUserAndPrediction", mock.Anything, int64(7), int64(1)).Return(entry, nil)
		mocks.expectBalanceMutations(balance)
		mocks.expectBalanceMutations(treasury)
		mocks.EntryRepo.On("Update", mock.Anything, entry).Return(nil)
		mocks.PredictionRepo.On("AddToPools", mock.Anything, int64(1), int64(10), int64(-1000)).Return(nil)

		cancelled, err := svc.CancelStake(ctx, 1, 7)
		require.NoError(t, err)
		assert.Equal(t, models.EntryStatusRefunded, cancelled.Status)

		// 100 bps fee on 1000 is 10, swept to treasury
		assert.Equal(t, int64(990), balance.Available)
		assert.Equal(t, int64(0), balance.Reserved)
		assert.Equal(t, int64(10), treasury.Available)
	})

	t.Run("rejects cancellation after deadline", func(t *testing.T) {
		mocks := newTestMocks()
		mocks.setupTransaction()
		svc := NewPredictionService(mocks.Factory, testConfig())

		prediction := createTestPrediction(1, models.PredictionStatusOpen)
		prediction.EntryDeadline = time.Now().Add(-time.Minute)
		mocks.PredictionRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(prediction, nil)

		_, err := svc.CancelStake(ctx, 1, 7)
		assert.ErrorIs(t, err, ErrNotReady)
	})

	t.Run("rejects when no active stake exists", func(t *testing.T) {
		mocks := newTestMocks()
		mocks.setupTransaction()
		svc := NewPredictionService(mocks.Factory, testConfig())

		prediction := createTestPrediction(1, models.PredictionStatusOpen)
		mocks.PredictionRepo.On("GetByIDForUpdate", mock.Anything, int64(1)).Return(prediction, nil)
		mocks.EntryRepo.On("GetByUserAndPrediction", mock.Anything, int64(7), int64(1)).Return(nil, nil)

		_, err := svc.CancelStake(ctx, 1, 7)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPredictionService_QuoteStake(t *testing.T) {
	ctx := context.Background()

	t.Run("returns fee-aware preview", func(t *testing.T) {
		mocks := newTestMocks()
		mocks.setupTransaction()
		svc := NewPredictionService(mocks.Factory, testConfig())

		prediction := createTestPrediction(1, models.PredictionStatusOpen)
		prediction.PoolTotal = 1000
		prediction.PlatformFeeBps = 500
		prediction.CreatorFeeBps = 0
		option := createTestOption(10, 1, 0, 400)
		detail := &models.PredictionDetail{Prediction: prediction, Options: []*models.PredictionOption{option}}

		mocks.PredictionRepo.On("GetDetailByID", mock.Anything, int64(1)).Return(detail, nil)

		preview, err := svc.QuoteStake(ctx, 1, 10, 100)
		require.NoError(t, err)
		require.NotNil(t, preview)
		// selectedAfter=500, other=600, fees=30, distributable=1070
		assert.Equal(t, int64(214), preview.ExpectedReturn)
	})

	t.Run("rejects unknown option", func(t *testing.T) {
		mocks := newTestMocks()
		mocks.setupTransaction()
		svc := NewPredictionService(mocks.Factory, testConfig())

		prediction := createTestPrediction(1, models.PredictionStatusOpen)
		detail := &models.PredictionDetail{Prediction: prediction, Options: []*models.PredictionOption{createTestOption(10, 1, 0, 0)}}
		mocks.PredictionRepo.On("GetDetailByID", mock.Anything, int64(1)).Return(detail, nil)

		_, err := svc.QuoteStake(ctx, 1, 99, 100)
		assert.ErrorIs(t, err, ErrInvalidOption)
	})
}

func TestPredictionService_CloseExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("closes all expired open predictions", func(t *testing.T) {
		mocks := newTestMocks()
		mocks.setupTransaction()
		svc := NewPredictionService(mocks.Factory, testConfig())

		first := createTestPrediction(1, models.PredictionStatusOpen)
		second := createTestPrediction(2, models.PredictionStatusOpen)
		mocks.PredictionRepo.On("GetExpiredOpen", mock.Anything, mock.Anything).Return([]*models.Prediction{first, second}, nil)
		mocks.PredictionRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

		closed, err := svc.CloseExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, closed)
		assert.Equal(t, models.PredictionStatusClosed, first.Status)
		assert.Equal(t, models.PredictionStatusClosed, second.Status)
	})
}
