package repository

import (
	"context"
	"testing"
	"time"

	"fanpool/models"
	"fanpool/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictionRepository_Lifecycle(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewPredictionRepository(testDB.DB)
	entryRepo := NewEntryRepository(testDB.DB)
	ctx := context.Background()

	t.Run("not found returns nil", func(t *testing.T) {
		prediction, err := repo.GetByID(ctx, 99999)
		require.NoError(t, err)
		assert.Nil(t, prediction)
	})

	t.Run("create with options and read back detail", func(t *testing.T) {
		prediction := testutil.CreateTestPrediction(10, "Who wins the final?")
		options := testutil.CreateTestOptions("Team A", "Team B", "Draw")

		require.NoError(t, repo.CreateWithOptions(ctx, prediction, options))
		assert.NotZero(t, prediction.ID)
		for _, option := range options {
			assert.NotZero(t, option.ID)
			assert.Equal(t, prediction.ID, option.PredictionID)
		}

		detail, err := repo.GetDetailByID(ctx, prediction.ID)
		require.NoError(t, err)
		require.NotNil(t, detail)
		require.Len(t, detail.Options, 3)
		assert.Equal(t, "Team A", detail.Options[0].Label)
		assert.Equal(t, "Draw", detail.Options[2].Label)
		assert.Empty(t, detail.Entries)
	})

	t.Run("pool updates accumulate", func(t *testing.T) {
		prediction := testutil.CreateTestPrediction(11, "Pool math")
		options := testutil.CreateTestOptions("Yes", "No")
		require.NoError(t, repo.CreateWithOptions(ctx, prediction, options))

		require.NoError(t, repo.AddToPools(ctx, prediction.ID, options[0].ID, 400))
		require.NoError(t, repo.AddToPools(ctx, prediction.ID, options[1].ID, 600))
		require.NoError(t, repo.AddToPools(ctx, prediction.ID, options[0].ID, -100))

		detail, err := repo.GetDetailByID(ctx, prediction.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(900), detail.Prediction.PoolTotal)
		assert.Equal(t, int64(300), detail.Options[0].PoolTotal)
		assert.Equal(t, int64(600), detail.Options[1].PoolTotal)
	})

	t.Run("update persists terminal state", func(t *testing.T) {
		prediction := testutil.CreateTestPrediction(12, "Settle me")
		options := testutil.CreateTestOptions("Yes", "No")
		require.NoError(t, repo.CreateWithOptions(ctx, prediction, options))

		now := time.Now()
		prediction.Status = models.PredictionStatusSettled
		prediction.WinningOptionID = &options[0].ID
		prediction.SettledAt = &now
		require.NoError(t, repo.Update(ctx, prediction))

		stored, err := repo.GetByID(ctx, prediction.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PredictionStatusSettled, stored.Status)
		require.NotNil(t, stored.WinningOptionID)
		assert.Equal(t, options[0].ID, *stored.WinningOptionID)
		assert.NotNil(t, stored.SettledAt)
	})

	t.Run("expired open predictions are found", func(t *testing.T) {
		expired := testutil.CreateTestPrediction(13, "Past deadline")
		expired.EntryDeadline = time.Now().Add(-time.Hour)
		require.NoError(t, repo.CreateWithOptions(ctx, expired, testutil.CreateTestOptions("Yes", "No")))

		fresh := testutil.CreateTestPrediction(13, "Future deadline")
		require.NoError(t, repo.CreateWithOptions(ctx, fresh, testutil.CreateTestOptions("Yes", "No")))

		found, err := repo.GetExpiredOpen(ctx, time.Now())
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, expired.ID, found[0].ID)
	})

	t.Run("one active entry per user per prediction", func(t *testing.T) {
		prediction := testutil.CreateTestPrediction(14, "Unique entries")
		options := testutil.CreateTestOptions("Yes", "No")
		require.NoError(t, repo.CreateWithOptions(ctx, prediction, options))

		entry := testutil.CreateTestEntry(prediction.ID, options[0].ID, 100, 250)
		require.NoError(t, entryRepo.Create(ctx, entry))

		dup := testutil.CreateTestEntry(prediction.ID, options[1].ID, 100, 500)
		assert.Error(t, entryRepo.Create(ctx, dup))

		// refunding the first entry frees the slot
		entry.Status = models.EntryStatusRefunded
		require.NoError(t, entryRepo.Update(ctx, entry))
		require.NoError(t, entryRepo.Create(ctx, dup))
	})
}

func TestEntryRepository_Queries(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewPredictionRepository(testDB.DB)
	entryRepo := NewEntryRepository(testDB.DB)
	ctx := context.Background()

	prediction := testutil.CreateTestPrediction(20, "Entry queries")
	options := testutil.CreateTestOptions("Yes", "No")
	require.NoError(t, repo.CreateWithOptions(ctx, prediction, options))

	t.Run("active entry lookup by user and prediction", func(t *testing.T) {
		missing, err := entryRepo.GetByUserAndPrediction(ctx, 200, prediction.ID)
		require.NoError(t, err)
		assert.Nil(t, missing)

		entry := testutil.CreateTestEntry(prediction.ID, options[0].ID, 200, 1000)
		require.NoError(t, entryRepo.Create(ctx, entry))

		found, err := entryRepo.GetByUserAndPrediction(ctx, 200, prediction.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, entry.ID, found.ID)
		assert.Equal(t, int64(1000), found.Amount)
	})

	t.Run("update persists payout and status", func(t *testing.T) {
		entry := testutil.CreateTestEntry(prediction.ID, options[1].ID, 201, 400)
		require.NoError(t, entryRepo.Create(ctx, entry))

		payout := int64(970)
		entry.Status = models.EntryStatusWon
		entry.ActualPayout = &payout
		require.NoError(t, entryRepo.Update(ctx, entry))

		stored, err := entryRepo.GetByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, models.EntryStatusWon, stored.Status)
		require.NotNil(t, stored.ActualPayout)
		assert.Equal(t, int64(970), *stored.ActualPayout)
	})
}
