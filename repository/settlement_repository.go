package repository

import (
	"context"
	"fmt"

	"fanpool/database"
	"fanpool/models"

	"github.com/jackc/pgx/v5"
)

// SettlementRepository implements the SettlementRepository interface
type SettlementRepository struct {
	q queryable
}

// NewSettlementRepository creates a new settlement repository
func NewSettlementRepository(db *database.DB) *SettlementRepository {
	return &SettlementRepository{q: db.Pool}
}

// newSettlementRepositoryWithTx creates a new settlement repository with a transaction
func newSettlementRepositoryWithTx(tx queryable) *SettlementRepository {
	return &SettlementRepository{q: tx}
}

// Create persists a settlement summary. One settlement per prediction is
// enforced by the schema.
func (r *SettlementRepository) Create(ctx context.Context, settlement *models.Settlement) error {
	query := `
		INSERT INTO settlements (prediction_id, winning_option_id, total_pool, winning_pool, losing_pool, distributable, platform_fee, creator_fee, residual, winner_count, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		settlement.PredictionID,
		settlement.WinningOptionID,
		settlement.TotalPool,
		settlement.WinningPool,
		settlement.LosingPool,
		settlement.Distributable,
		settlement.PlatformFee,
		settlement.CreatorFee,
		settlement.Residual,
		settlement.WinnerCount,
		settlement.SettledAt,
	).Scan(&settlement.ID)

	if err != nil {
		return fmt.Errorf("failed to create settlement for prediction %d: %w", settlement.PredictionID, err)
	}

	return nil
}

// GetByPredictionID retrieves the settlement for a prediction
func (r *SettlementRepository) GetByPredictionID(ctx context.Context, predictionID int64) (*models.Settlement, error) {
	query := `
		SELECT id, prediction_id, winning_option_id, total_pool, winning_pool, losing_pool, distributable, platform_fee, creator_fee, residual, winner_count, settled_at
		FROM settlements
		WHERE prediction_id = $1
	`

	var settlement models.Settlement
	err := r.q.QueryRow(ctx, query, predictionID).Scan(
		&settlement.ID,
		&settlement.PredictionID,
		&settlement.WinningOptionID,
		&settlement.TotalPool,
		&settlement.WinningPool,
		&settlement.LosingPool,
		&settlement.Distributable,
		&settlement.PlatformFee,
		&settlement.CreatorFee,
		&settlement.Residual,
		&settlement.WinnerCount,
		&settlement.SettledAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement for prediction %d: %w", predictionID, err)
	}

	return &settlement, nil
}
