package models

import (
	"time"
)

// EntryStatus represents the settlement state of a stake
type EntryStatus string

const (
	EntryStatusActive   EntryStatus = "active"
	EntryStatusWon      EntryStatus = "won"
	EntryStatusLost     EntryStatus = "lost"
	EntryStatusRefunded EntryStatus = "refunded"
)

// PredictionEntry represents a user's stake on a prediction option.
// Immutable once created except for status and the recorded actual payout;
// entries are never deleted and serve as settlement history.
type PredictionEntry struct {
	ID           int64       `db:"id"`
	PredictionID int64       `db:"prediction_id"`
	OptionID     int64       `db:"option_id"`
	UserID       int64       `db:"user_id"`
	Amount       int64       `db:"amount"`
	Status       EntryStatus `db:"status"`
	ActualPayout *int64      `db:"actual_payout"`
	EscrowLockID *int64      `db:"escrow_lock_id"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

// IsActive checks if the entry is still awaiting settlement
func (e *PredictionEntry) IsActive() bool {
	return e.Status == EntryStatusActive
}
