package repository

import (
	"context"
	"errors"
	"testing"

	"fanpool/models"
	"fanpool/repository/testutil"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletRepository_Balances(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewWalletRepository(testDB.DB)
	ctx := context.Background()

	t.Run("unknown wallet returns nil", func(t *testing.T) {
		balance, err := repo.GetBalance(ctx, 404, models.DefaultCurrency)
		require.NoError(t, err)
		assert.Nil(t, balance)
	})

	t.Run("for-update creates a zero balance on first touch", func(t *testing.T) {
		balance, err := repo.GetBalanceForUpdate(ctx, 1, models.DefaultCurrency)
		require.NoError(t, err)
		require.NotNil(t, balance)
		assert.Equal(t, int64(0), balance.Available)
		assert.Equal(t, int64(0), balance.Reserved)

		// second touch returns the same row
		again, err := repo.GetBalanceForUpdate(ctx, 1, models.DefaultCurrency)
		require.NoError(t, err)
		assert.Equal(t, balance.UserID, again.UserID)
	})

	t.Run("transaction rollback leaves the balance untouched", func(t *testing.T) {
		seed, err := repo.GetBalanceForUpdate(ctx, 3, models.DefaultCurrency)
		require.NoError(t, err)
		seed.Available = 1000
		require.NoError(t, repo.UpdateBalance(ctx, seed))

		err = testDB.DB.WithTransaction(ctx, func(tx pgx.Tx) error {
			txRepo := newWalletRepositoryWithTx(tx)
			balance, err := txRepo.GetBalanceForUpdate(ctx, 3, models.DefaultCurrency)
			require.NoError(t, err)
			balance.Available = 0
			require.NoError(t, txRepo.UpdateBalance(ctx, balance))
			return errors.New("abort")
		})
		require.Error(t, err)

		stored, err := repo.GetBalance(ctx, 3, models.DefaultCurrency)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), stored.Available)
	})

	t.Run("update persists mutated fields", func(t *testing.T) {
		balance, err := repo.GetBalanceForUpdate(ctx, 2, models.DefaultCurrency)
		require.NoError(t, err)

		balance.Available = 1500
		balance.Reserved = 300
		balance.TotalDeposited = 1800
		require.NoError(t, repo.UpdateBalance(ctx, balance))

		stored, err := repo.GetBalance(ctx, 2, models.DefaultCurrency)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, int64(1500), stored.Available)
		assert.Equal(t, int64(300), stored.Reserved)
		assert.Equal(t, int64(1800), stored.Total())
	})
}

func TestWalletTransactionRepository_Journal(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewWalletTransactionRepository(testDB.DB)
	ctx := context.Background()

	t.Run("record assigns id and timestamp", func(t *testing.T) {
		txn := testutil.CreateTestWalletTransaction(1, 5000, "dep-1")
		require.NoError(t, repo.Record(ctx, txn))
		assert.NotZero(t, txn.ID)
		assert.False(t, txn.CreatedAt.IsZero())
	})

	t.Run("reference lookup finds the journal entry", func(t *testing.T) {
		txn := testutil.CreateTestWalletTransaction(2, 700, "dep-2")
		require.NoError(t, repo.Record(ctx, txn))

		found, err := repo.GetByReference(ctx, models.ChannelDeposit, "dep-2")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, txn.ID, found.ID)
		assert.Equal(t, int64(700), found.Amount)

		missing, err := repo.GetByReference(ctx, models.ChannelDeposit, "nope")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("duplicate channel and reference is rejected", func(t *testing.T) {
		first := testutil.CreateTestWalletTransaction(3, 100, "dep-3")
		require.NoError(t, repo.Record(ctx, first))

		dup := testutil.CreateTestWalletTransaction(3, 100, "dep-3")
		assert.Error(t, repo.Record(ctx, dup))
	})

	t.Run("net sum ignores lock and release moves", func(t *testing.T) {
		journal := []*models.WalletTransaction{
			{UserID: 5, Currency: models.DefaultCurrency, Direction: models.DirectionCredit, Channel: models.ChannelDeposit, Amount: 1000, Status: models.TransactionStatusCompleted, Reference: "net-dep"},
			{UserID: 5, Currency: models.DefaultCurrency, Direction: models.DirectionDebit, Channel: models.ChannelStakeLock, Amount: 300, Status: models.TransactionStatusCompleted, Reference: "net-lock"},
			{UserID: 5, Currency: models.DefaultCurrency, Direction: models.DirectionCredit, Channel: models.ChannelStakeRelease, Amount: 300, Status: models.TransactionStatusCompleted, Reference: "net-release"},
			{UserID: 5, Currency: models.DefaultCurrency, Direction: models.DirectionDebit, Channel: models.ChannelWithdrawal, Amount: 200, Status: models.TransactionStatusCompleted, Reference: "net-wd"},
		}
		for _, txn := range journal {
			require.NoError(t, repo.Record(ctx, txn))
		}

		net, err := repo.SumNetByUser(ctx, 5, models.DefaultCurrency)
		require.NoError(t, err)
		assert.Equal(t, int64(800), net)
	})

	t.Run("user history is newest first", func(t *testing.T) {
		for i, ref := range []string{"h-1", "h-2", "h-3"} {
			txn := testutil.CreateTestWalletTransaction(4, int64(100*(i+1)), ref)
			require.NoError(t, repo.Record(ctx, txn))
		}

		txns, err := repo.GetByUser(ctx, 4, models.DefaultCurrency, 2)
		require.NoError(t, err)
		require.Len(t, txns, 2)
		assert.Equal(t, int64(300), txns[0].Amount)
		assert.Equal(t, int64(200), txns[1].Amount)
	})
}
