package service

import (
	"context"
	"testing"

	"fanpool/events"
	"fanpool/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWalletService_Deposit(t *testing.T) {
	ctx := context.Background()

	t.Run("credits available funds and journals the change", func(t *testing.T) {
		mocks := newTestMocks()
		mocks.setupTransaction()
		mocks.expectNoReplay()
		svc := NewWalletService(mocks.Factory, nil)

		balance := createTestBalance(7, 100, 0)
		mocks.expectBalanceMutations(balance)

		txn, err := svc.Deposit(ctx, 7, 500, "dep-001")
		require.NoError(t, err)

		assert.Equal(t, int64(600), balance.Available)
		assert.Equal(t, int64(500), balance.TotalDeposited)
		assert.Equal(t, models.ChannelDeposit, txn.Channel)
		assert.Equal(t, models.DirectionCredit, txn.Direction)
		assert.Equal(t, "dep-001", txn.Reference)

		require.Len(t, mocks.EventBus.Events, 1)
		change, ok := mocks.EventBus.Events[0].(events.BalanceChangeEvent)
		require.True(t, ok)
		assert.Equal(t, int64(600), change.AvailableAfter)
	})

	t.Run("replaying the same reference does not double-apply", func(t *testing.T) {
		mocks := newTestMocks()
		mocks.setupTransaction()
		svc := NewWalletService(mocks.Factory, nil)

		prior := &models.WalletTransaction{
			ID:        42,
			UserID:    7,
			Channel:   models.ChannelDeposit,
			Reference: "dep-001",
			Amount:    500,
		}
		mocks.WalletTxnRepo.On("GetByReference", mock.Anything, models.ChannelDeposit, "dep-001").Return(prior, nil)

		txn, err := svc.Deposit(ctx, 7, 500, "dep-001")
		require.NoError(t, err)
		assert.Equal(t, int64(42), txn.ID)

		// no balance mutation happened
		mocks.WalletRepo.AssertNotCalled(t, "GetBalanceForUpdate", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, mocks.EventBus.Events)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		mocks := newTestMocks()
		mocks.setupTransaction()
		svc := NewWalletService(mocks.Factory, nil)

		_, err := svc.Deposit(ctx, 7, -5, "dep-002")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejects empty reference", func(t *testing.T) {
		mocks := newTestMocks()
		mocks.setupTransaction()
		svc := NewWalletService(mocks.Factory, nil)

		_, err := svc.Deposit(ctx, 7, 500, "")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestWalletService_Withdraw(t *testing.T) {
	ctx := context.Background()

	agreeingEscrow := func(userID int64) *MockEscrowService {
		escrow := &MockEscrowService{}
		escrow.On("Reconcile", mock.Anything, userID).Return(&models.ReconciledBalance{
			UserID:     userID,
			Provenance: models.ProvenanceVerified,
		}, nil)
		return escrow
	}

	t.Run("debits available funds", func(t *testing.T) {
		mocks := newTestMocks()
		mocks.setupTransaction()
		mocks.expectNoReplay()
		svc := NewWalletService(mocks.Factory, agreeingEscrow(7))

		balance := createTestBalance(7, 1000, 200)
		mocks.expectBalanceMutations(balance)

		txn, err := svc.Withdraw(ctx, 7, 400, "wd-001")
		require.NoError(t, err)

		assert.Equal(t, int64(600), balance.Available)
		assert.Equal(t, int64(200), balance.Reserved)
		assert.Equal(t, int64(400), balance.TotalWithdrawn)
		assert.Equal(t, models.DirectionDebit, txn.Direction)
	})

	t.Run("reserved funds cannot be withdrawn", func(t *testing.T) {
		mocks := newTestMocks()
		mocks.setupTransaction()
		mocks.expectNoReplay()
		svc := NewWalletService(mocks.Factory, agreeingEscrow(7))

		balance := createTestBalance(7, 100, 900)
		mocks.WalletRepo.On("GetBalanceForUpdate", mock.Anything, int64(7), models.DefaultCurrency).Return(balance, nil)

		_, err := svc.Withdraw(ctx, 7, 500, "wd-002")
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.Equal(t, int64(100), balance.Available)
		assert.Equal(t, int64(900), balance.Reserved)
	})

	t.Run("confirmed escrow drift blocks the withdrawal", func(t *testing.T) {
		mocks := newTestMocks()
		escrow := &MockEscrowService{}
		escrow.On("Reconcile", mock.Anything, int64(7)).Return(&models.ReconciledBalance{
			UserID:     7,
			Provenance: models.ProvenanceVerified,
			Drift:      -300,
			Reason:     "ledger reserved 500, escrow holds 200",
		}, nil)
		svc := NewWalletService(mocks.Factory, escrow)

		_, err := svc.Withdraw(ctx, 7, 400, "wd-003")
		assert.ErrorIs(t, err, ErrReconciliationRequired)
		mocks.WalletRepo.AssertNotCalled(t, "GetBalanceForUpdate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unreachable escrow source does not block the withdrawal", func(t *testing.T) {
		mocks := newTestMocks()
		mocks.setupTransaction()
		mocks.expectNoReplay()
		escrow := &MockEscrowService{}
		escrow.On("Reconcile", mock.Anything, int64(7)).Return(&models.ReconciledBalance{
			UserID:     7,
			Provenance: models.ProvenanceDegraded,
			Reason:     "escrow source unavailable: connection refused",
		}, nil)
		svc := NewWalletService(mocks.Factory, escrow)

		balance := createTestBalance(7, 1000, 0)
		mocks.expectBalanceMutations(balance)

		_, err := svc.Withdraw(ctx, 7, 400, "wd-004")
		require.NoError(t, err)
		assert.Equal(t, int64(600), balance.Available)
	})
}

func TestWalletService_GetBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("returns verified snapshot when journal agrees", func(t *testing.T) {
		mocks := newTestMocks()
		mocks.setupTransaction()
		svc := NewWalletService(mocks.Factory, nil)

		balance := createTestBalance(7, 1000, 200)
		mocks.WalletRepo.On("GetBalance", mock.Anything, int64(7), models.DefaultCurrency).Return(balance, nil)
		mocks.WalletTxnRepo.On("SumNetByUser", mock.Anything, int64(7), models.DefaultCurrency).Return(int64(1200), nil)

		snapshot, err := svc.GetBalance(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, models.ProvenanceVerified, snapshot.Provenance)
		assert.Equal(t, int64(1200), snapshot.Balance.Total())
		assert.Empty(t, snapshot.Reason)
	})

	t.Run("journal mismatch degrades the snapshot without correcting it", func(t *testing.T) {
		mocks := newTestMocks()
		mocks.setupTransaction()
		svc := NewWalletService(mocks.Factory, nil)

		balance := createTestBalance(7, 1000, 200)
		mocks.WalletRepo.On("GetBalance", mock.Anything, int64(7), models.DefaultCurrency).Return(balance, nil)
		mocks.WalletTxnRepo.On("SumNetByUser", mock.Anything, int64(7), models.DefaultCurrency).Return(int64(900), nil)

		snapshot, err := svc.GetBalance(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, models.ProvenanceDegraded, snapshot.Provenance)
		assert.Contains(t, snapshot.Reason, "reconciliation required")

		// running balance reported as stored
		assert.Equal(t, int64(1200), snapshot.Balance.Total())
		mocks.WalletRepo.AssertNotCalled(t, "UpdateBalance", mock.Anything, mock.Anything)
	})

	t.Run("unknown user gets a zero balance", func(t *testing.T) {
		mocks := newTestMocks()
		mocks.setupTransaction()
		svc := NewWalletService(mocks.Factory, nil)

		mocks.WalletRepo.On("GetBalance", mock.Anything, int64(99), models.DefaultCurrency).Return(nil, nil)
		mocks.WalletTxnRepo.On("SumNetByUser", mock.Anything, int64(99), models.DefaultCurrency).Return(int64(0), nil)

		snapshot, err := svc.GetBalance(ctx, 99)
		require.NoError(t, err)
		assert.Equal(t, int64(0), snapshot.Balance.Total())
		assert.Equal(t, models.ProvenanceVerified, snapshot.Provenance)
	})
}
