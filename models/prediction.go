package models

import (
	"time"
)

// PredictionStatus represents the lifecycle state of a prediction
type PredictionStatus string

const (
	PredictionStatusOpen    PredictionStatus = "open"
	PredictionStatusClosed  PredictionStatus = "closed"
	PredictionStatusSettled PredictionStatus = "settled"
	PredictionStatusVoided  PredictionStatus = "voided"
)

// Prediction represents a pari-mutuel market with multiple outcome options
type Prediction struct {
	ID              int64            `db:"id"`
	CreatorID       int64            `db:"creator_id"`
	Title           string           `db:"title"`
	Status          PredictionStatus `db:"status"`
	EntryDeadline   time.Time        `db:"entry_deadline"`
	PlatformFeeBps  int64            `db:"platform_fee_bps"`
	CreatorFeeBps   int64            `db:"creator_fee_bps"`
	PoolTotal       int64            `db:"pool_total"`
	WinningOptionID *int64           `db:"winning_option_id"`
	VoidReason      *string          `db:"void_reason"`
	CreatedAt       time.Time        `db:"created_at"`
	SettledAt       *time.Time       `db:"settled_at"`
}

// PredictionOption represents a possible outcome of a prediction
type PredictionOption struct {
	ID           int64     `db:"id"`
	PredictionID int64     `db:"prediction_id"`
	Label        string    `db:"label"`
	OptionOrder  int16     `db:"option_order"`
	PoolTotal    int64     `db:"pool_total"`
	CreatedAt    time.Time `db:"created_at"`
}

// PredictionDetail combines a prediction with its options and active entries
type PredictionDetail struct {
	Prediction *Prediction
	Options    []*PredictionOption
	Entries    []*PredictionEntry
}

// IsOpen checks if the prediction is accepting entries
func (p *Prediction) IsOpen() bool {
	return p.Status == PredictionStatusOpen
}

// IsTerminal checks if the prediction reached a final state
func (p *Prediction) IsTerminal() bool {
	return p.Status == PredictionStatusSettled || p.Status == PredictionStatusVoided
}

// IsPastDeadline checks if the entry deadline has passed
func (p *Prediction) IsPastDeadline(now time.Time) bool {
	return now.After(p.EntryDeadline)
}

// CanAcceptStakes checks if new stakes may still be placed
func (p *Prediction) CanAcceptStakes(now time.Time) bool {
	return p.IsOpen() && !p.IsPastDeadline(now)
}

// CanSettle checks if the prediction is eligible for settlement. A closed
// prediction is always eligible; an open one only once its deadline passed.
func (p *Prediction) CanSettle(now time.Time) bool {
	if p.Status == PredictionStatusClosed {
		return true
	}
	return p.IsOpen() && p.IsPastDeadline(now)
}

// TotalFeeBps returns the combined fee rate applied to the losing pool
func (p *Prediction) TotalFeeBps() int64 {
	return p.PlatformFeeBps + p.CreatorFeeBps
}

// OptionByID returns the option with the given id, or nil
func (pd *PredictionDetail) OptionByID(optionID int64) *PredictionOption {
	for _, opt := range pd.Options {
		if opt.ID == optionID {
			return opt
		}
	}
	return nil
}

// ActiveEntriesByOption groups active entries by their chosen option
func (pd *PredictionDetail) ActiveEntriesByOption() map[int64][]*PredictionEntry {
	result := make(map[int64][]*PredictionEntry)
	for _, entry := range pd.Entries {
		if entry.Status == EntryStatusActive {
			result[entry.OptionID] = append(result[entry.OptionID], entry)
		}
	}
	return result
}
