package models

import (
	"time"
)

// DefaultCurrency is the settlement currency; all amounts are integer cents.
const DefaultCurrency = "USD"

// TransactionDirection indicates whether a transaction adds or removes funds
type TransactionDirection string

const (
	DirectionCredit TransactionDirection = "credit"
	DirectionDebit  TransactionDirection = "debit"
)

// TransactionChannel classifies the business reason for a balance change
type TransactionChannel string

const (
	ChannelDeposit          TransactionChannel = "deposit"
	ChannelWithdrawal       TransactionChannel = "withdrawal"
	ChannelStakeLock        TransactionChannel = "stake_lock"
	ChannelStakeRelease     TransactionChannel = "stake_release"
	ChannelStakeSettled     TransactionChannel = "stake_settled"
	ChannelStakeSettledLoss TransactionChannel = "stake_settled_loss"
	ChannelPayout           TransactionChannel = "payout"
	ChannelPlatformFee      TransactionChannel = "platform_fee"
	ChannelCreatorFee       TransactionChannel = "creator_fee"
	ChannelCancellationFee  TransactionChannel = "cancellation_fee"
)

// TransactionStatus is the completion state of a wallet transaction
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
)

// WalletBalance is the maintained running balance for a (user, currency)
// pair. available and reserved are non-negative; available + reserved must
// reconcile to the sum of completed transactions.
type WalletBalance struct {
	UserID         int64     `db:"user_id"`
	Currency       string    `db:"currency"`
	Available      int64     `db:"available"`
	Reserved       int64     `db:"reserved"`
	TotalDeposited int64     `db:"total_deposited"`
	TotalWithdrawn int64     `db:"total_withdrawn"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Total returns available plus reserved
func (w *WalletBalance) Total() int64 {
	return w.Available + w.Reserved
}

// WalletTransaction is an append-only record of a single balance change.
// Never mutated after creation. Reference is the caller-supplied idempotency
// key; replaying the same (channel, reference) pair does not double-apply.
type WalletTransaction struct {
	ID           int64                `db:"id"`
	UserID       int64                `db:"user_id"`
	Currency     string               `db:"currency"`
	Direction    TransactionDirection `db:"direction"`
	Channel      TransactionChannel   `db:"channel"`
	Amount       int64                `db:"amount"`
	Status       TransactionStatus    `db:"status"`
	Reference    string               `db:"reference"`
	PredictionID *int64               `db:"prediction_id"`
	EntryID      *int64               `db:"entry_id"`
	CreatedAt    time.Time            `db:"created_at"`
}

// SignedAmount returns the amount with direction applied
func (t *WalletTransaction) SignedAmount() int64 {
	if t.Direction == DirectionDebit {
		return -t.Amount
	}
	return t.Amount
}

// NetEffect returns the transaction's effect on available plus reserved.
// Lock and release move funds between the two buckets and net to zero.
func (t *WalletTransaction) NetEffect() int64 {
	if t.Channel == ChannelStakeLock || t.Channel == ChannelStakeRelease {
		return 0
	}
	return t.SignedAmount()
}

// BalanceProvenance tags how a balance view was produced. A degraded view
// is still usable but must be surfaced as such, never silently merged.
type BalanceProvenance string

const (
	ProvenanceVerified BalanceProvenance = "verified"
	ProvenanceDegraded BalanceProvenance = "degraded"
)

// BalanceSnapshot is a read-only view of a wallet balance together with
// its provenance. Reason is set only for degraded snapshots.
type BalanceSnapshot struct {
	Balance    *WalletBalance
	Provenance BalanceProvenance
	Reason     string
}

// ReconciledBalance merges the internal ledger view with the external
// custodial escrow view at the presentation boundary. The two sources are
// reported side by side; drift is flagged, never auto-corrected.
type ReconciledBalance struct {
	UserID         int64
	Currency       string
	Available      int64
	Reserved       int64
	LockedInEscrow int64
	ExternalEscrow int64
	TotalDeposited int64
	TotalWithdrawn int64
	Drift          int64
	Provenance     BalanceProvenance
	Reason         string
	CheckedAt      time.Time
}
