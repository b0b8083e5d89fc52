package repository

import (
	"context"
	"fmt"

	"fanpool/database"
	"fanpool/models"

	"github.com/jackc/pgx/v5"
)

// EntryRepository implements the EntryRepository interface
type EntryRepository struct {
	q queryable
}

// NewEntryRepository creates a new entry repository
func NewEntryRepository(db *database.DB) *EntryRepository {
	return &EntryRepository{q: db.Pool}
}

// newEntryRepositoryWithTx creates a new entry repository with a transaction
func newEntryRepositoryWithTx(tx queryable) *EntryRepository {
	return &EntryRepository{q: tx}
}

const entryColumns = `id, prediction_id, option_id, user_id, amount, status, actual_payout, escrow_lock_id, created_at, updated_at`

// Create creates a new entry
func (r *EntryRepository) Create(ctx context.Context, entry *models.PredictionEntry) error {
	query := `
		INSERT INTO prediction_entries (prediction_id, option_id, user_id, amount, status, escrow_lock_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.PredictionID,
		entry.OptionID,
		entry.UserID,
		entry.Amount,
		entry.Status,
		entry.EscrowLockID,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create entry: %w", err)
	}

	return nil
}

// GetByID retrieves an entry by its ID
func (r *EntryRepository) GetByID(ctx context.Context, id int64) (*models.PredictionEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM prediction_entries WHERE id = $1`

	entry, err := scanEntry(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry %d: %w", id, err)
	}
	return entry, nil
}

// GetByUserAndPrediction returns the user's active entry on a prediction
func (r *EntryRepository) GetByUserAndPrediction(ctx context.Context, userID, predictionID int64) (*models.PredictionEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM prediction_entries
		WHERE user_id = $1 AND prediction_id = $2 AND status = 'active'
	`

	entry, err := scanEntry(r.q.QueryRow(ctx, query, userID, predictionID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry for user %d on prediction %d: %w", userID, predictionID, err)
	}
	return entry, nil
}

// Update persists entry status and payout changes
func (r *EntryRepository) Update(ctx context.Context, entry *models.PredictionEntry) error {
	query := `
		UPDATE prediction_entries
		SET status = $2, actual_payout = $3, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query, entry.ID, entry.Status, entry.ActualPayout)
	if err != nil {
		return fmt.Errorf("failed to update entry %d: %w", entry.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("entry %d not found", entry.ID)
	}

	return nil
}

// GetByUser returns entries for a user, newest first
func (r *EntryRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.PredictionEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM prediction_entries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries for user %d: %w", userID, err)
	}
	defer rows.Close()

	var entries []*models.PredictionEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func scanEntry(row pgx.Row) (*models.PredictionEntry, error) {
	var entry models.PredictionEntry
	err := row.Scan(
		&entry.ID,
		&entry.PredictionID,
		&entry.OptionID,
		&entry.UserID,
		&entry.Amount,
		&entry.Status,
		&entry.ActualPayout,
		&entry.EscrowLockID,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
