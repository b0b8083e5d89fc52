package service

import (
	"errors"
)

// Sentinel errors for the settlement domain. Callers match with errors.Is;
// the transport layer maps them onto response codes.
var (
	// ErrInvalidAmount indicates a zero, negative, or otherwise unusable amount
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientFunds indicates the available balance cannot cover a debit or reservation
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidOption indicates the referenced option does not belong to the prediction
	ErrInvalidOption = errors.New("invalid option")

	// ErrAlreadySettled indicates the prediction has already reached a terminal state
	ErrAlreadySettled = errors.New("prediction already settled")

	// ErrNotReady indicates the prediction is not in a state that permits the operation
	ErrNotReady = errors.New("prediction not ready")

	// ErrReconciliationRequired indicates ledger and escrow views disagree and
	// the operation must not proceed until the drift is resolved
	ErrReconciliationRequired = errors.New("reconciliation required")

	// ErrLockExpired indicates the escrow lock passed its expiry before consumption
	ErrLockExpired = errors.New("escrow lock expired")

	// ErrConcurrencyConflict indicates a concurrent mutation won the race
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("not found")
)
