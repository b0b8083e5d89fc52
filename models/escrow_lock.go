package models

import (
	"time"
)

// EscrowLockStatus represents the lifecycle state of an escrow lock
type EscrowLockStatus string

const (
	EscrowLockStatusPending  EscrowLockStatus = "pending"
	EscrowLockStatusConsumed EscrowLockStatus = "consumed"
	EscrowLockStatusReleased EscrowLockStatus = "released"
	EscrowLockStatusExpired  EscrowLockStatus = "expired"
)

// EscrowLock earmarks reserved funds for a specific prediction between
// stake placement and settlement. Created atomically with the ledger
// reservation; consumed when the locked amount becomes a stake, released
// when the stake is cancelled or refunded.
type EscrowLock struct {
	ID           int64            `db:"id"`
	UserID       int64            `db:"user_id"`
	PredictionID int64            `db:"prediction_id"`
	Amount       int64            `db:"amount"`
	Currency     string           `db:"currency"`
	Status       EscrowLockStatus `db:"status"`
	Reference    string           `db:"reference"`
	ExpiresAt    time.Time        `db:"expires_at"`
	CreatedAt    time.Time        `db:"created_at"`
	ResolvedAt   *time.Time       `db:"resolved_at"`
}

// IsPending checks if the lock is still unresolved
func (l *EscrowLock) IsPending() bool {
	return l.Status == EscrowLockStatusPending
}

// IsTerminal checks if the lock reached a final state
func (l *EscrowLock) IsTerminal() bool {
	return l.Status != EscrowLockStatusPending
}

// IsExpired checks if a pending lock has passed its expiry
func (l *EscrowLock) IsExpired(now time.Time) bool {
	return l.IsPending() && now.After(l.ExpiresAt)
}

// CanTransitionTo validates a state machine transition. Terminal states
// accept no further transitions.
func (l *EscrowLock) CanTransitionTo(next EscrowLockStatus) bool {
	if l.IsTerminal() {
		return false
	}
	switch next {
	case EscrowLockStatusConsumed, EscrowLockStatusReleased, EscrowLockStatusExpired:
		return true
	}
	return false
}
