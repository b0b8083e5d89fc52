package models

import (
	"time"
)

// Settlement is the persisted summary of a completed settlement run
type Settlement struct {
	ID              int64     `db:"id"`
	PredictionID    int64     `db:"prediction_id"`
	WinningOptionID int64     `db:"winning_option_id"`
	TotalPool       int64     `db:"total_pool"`
	WinningPool     int64     `db:"winning_pool"`
	LosingPool      int64     `db:"losing_pool"`
	Distributable   int64     `db:"distributable"`
	PlatformFee     int64     `db:"platform_fee"`
	CreatorFee      int64     `db:"creator_fee"`
	Residual        int64     `db:"residual"`
	WinnerCount     int       `db:"winner_count"`
	SettledAt       time.Time `db:"settled_at"`
}

// SettlementResult reports the outcome of settling a prediction
type SettlementResult struct {
	Prediction    *Prediction
	WinningOption *PredictionOption
	Settlement    *Settlement
	Winners       []*PredictionEntry
	Losers        []*PredictionEntry
	PayoutsByUser map[int64]int64
}

// VoidResult reports the outcome of voiding a prediction
type VoidResult struct {
	Prediction    *Prediction
	Refunded      []*PredictionEntry
	RefundsByUser map[int64]int64
}
