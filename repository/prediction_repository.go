package repository

import (
	"context"
	"fmt"
	"time"

	"fanpool/database"
	"fanpool/models"

	"github.com/jackc/pgx/v5"
)

// PredictionRepository implements the PredictionRepository interface
type PredictionRepository struct {
	q queryable
}

// NewPredictionRepository creates a new prediction repository
func NewPredictionRepository(db *database.DB) *PredictionRepository {
	return &PredictionRepository{q: db.Pool}
}

// newPredictionRepositoryWithTx creates a new prediction repository with a transaction
func newPredictionRepositoryWithTx(tx queryable) *PredictionRepository {
	return &PredictionRepository{q: tx}
}

const predictionColumns = `id, creator_id, title, status, entry_deadline, platform_fee_bps, creator_fee_bps, pool_total, winning_option_id, void_reason, created_at, settled_at`

// CreateWithOptions creates a prediction and its options atomically
func (r *PredictionRepository) CreateWithOptions(ctx context.Context, prediction *models.Prediction, options []*models.PredictionOption) error {
	query := `
		INSERT INTO predictions (creator_id, title, status, entry_deadline, platform_fee_bps, creator_fee_bps)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		prediction.CreatorID,
		prediction.Title,
		prediction.Status,
		prediction.EntryDeadline,
		prediction.PlatformFeeBps,
		prediction.CreatorFeeBps,
	).Scan(&prediction.ID, &prediction.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create prediction: %w", err)
	}

	optionQuery := `
		INSERT INTO prediction_options (prediction_id, label, option_order)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	for _, option := range options {
		option.PredictionID = prediction.ID
		err := r.q.QueryRow(ctx, optionQuery, prediction.ID, option.Label, option.OptionOrder).
			Scan(&option.ID, &option.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create option %q: %w", option.Label, err)
		}
	}

	return nil
}

// GetByID retrieves a prediction by its ID
func (r *PredictionRepository) GetByID(ctx context.Context, id int64) (*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE id = $1`

	prediction, err := scanPrediction(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction %d: %w", id, err)
	}
	return prediction, nil
}

// GetByIDForUpdate retrieves a prediction under a row lock
func (r *PredictionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE id = $1 FOR UPDATE`

	prediction, err := scanPrediction(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock prediction %d: %w", id, err)
	}
	return prediction, nil
}

// GetDetailByID returns the prediction with its options and entries
func (r *PredictionRepository) GetDetailByID(ctx context.Context, id int64) (*models.PredictionDetail, error) {
	prediction, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if prediction == nil {
		return nil, nil
	}

	optionQuery := `
		SELECT id, prediction_id, label, option_order, pool_total, created_at
		FROM prediction_options
		WHERE prediction_id = $1
		ORDER BY option_order
	`
	rows, err := r.q.Query(ctx, optionQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get options for prediction %d: %w", id, err)
	}
	defer rows.Close()

	var options []*models.PredictionOption
	for rows.Next() {
		var option models.PredictionOption
		if err := rows.Scan(&option.ID, &option.PredictionID, &option.Label, &option.OptionOrder, &option.PoolTotal, &option.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		options = append(options, &option)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	entryQuery := `
		SELECT id, prediction_id, option_id, user_id, amount, status, actual_payout, escrow_lock_id, created_at, updated_at
		FROM prediction_entries
		WHERE prediction_id = $1
		ORDER BY id
	`
	entryRows, err := r.q.Query(ctx, entryQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries for prediction %d: %w", id, err)
	}
	defer entryRows.Close()

	var entries []*models.PredictionEntry
	for entryRows.Next() {
		entry, err := scanEntry(entryRows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := entryRows.Err(); err != nil {
		return nil, err
	}

	return &models.PredictionDetail{
		Prediction: prediction,
		Options:    options,
		Entries:    entries,
	}, nil
}

// Update persists prediction state changes
func (r *PredictionRepository) Update(ctx context.Context, prediction *models.Prediction) error {
	query := `
		UPDATE predictions
		SET status = $2, winning_option_id = $3, void_reason = $4, settled_at = $5
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query,
		prediction.ID,
		prediction.Status,
		prediction.WinningOptionID,
		prediction.VoidReason,
		prediction.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update prediction %d: %w", prediction.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("prediction %d not found", prediction.ID)
	}

	return nil
}

// AddToPools adds delta to the prediction total and the option pool
func (r *PredictionRepository) AddToPools(ctx context.Context, predictionID, optionID, delta int64) error {
	if _, err := r.q.Exec(ctx, `UPDATE predictions SET pool_total = pool_total + $2 WHERE id = $1`, predictionID, delta); err != nil {
		return fmt.Errorf("failed to update prediction pool %d: %w", predictionID, err)
	}
	if _, err := r.q.Exec(ctx, `UPDATE prediction_options SET pool_total = pool_total + $2 WHERE id = $1`, optionID, delta); err != nil {
		return fmt.Errorf("failed to update option pool %d: %w", optionID, err)
	}
	return nil
}

// GetAll returns predictions, optionally filtered by status
func (r *PredictionRepository) GetAll(ctx context.Context, status *models.PredictionStatus) ([]*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions`
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get predictions: %w", err)
	}
	defer rows.Close()

	return collectPredictions(rows)
}

// GetExpiredOpen returns open predictions whose entry deadline has passed
func (r *PredictionRepository) GetExpiredOpen(ctx context.Context, now time.Time) ([]*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE status = 'open' AND entry_deadline < $1 ORDER BY entry_deadline`

	rows, err := r.q.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired predictions: %w", err)
	}
	defer rows.Close()

	return collectPredictions(rows)
}

func collectPredictions(rows pgx.Rows) ([]*models.Prediction, error) {
	var predictions []*models.Prediction
	for rows.Next() {
		prediction, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, prediction)
	}
	return predictions, rows.Err()
}

func scanPrediction(row pgx.Row) (*models.Prediction, error) {
	var prediction models.Prediction
	err := row.Scan(
		&prediction.ID,
		&prediction.CreatorID,
		&prediction.Title,
		&prediction.Status,
		&prediction.EntryDeadline,
		&prediction.PlatformFeeBps,
		&prediction.CreatorFeeBps,
		&prediction.PoolTotal,
		&prediction.WinningOptionID,
		&prediction.VoidReason,
		&prediction.CreatedAt,
		&prediction.SettledAt,
	)
	if err != nil {
		return nil, err
	}
	return &prediction, nil
}
