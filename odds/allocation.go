package odds

import (
	"sort"
)

// WinningStake is one active entry on the winning option
type WinningStake struct {
	EntryID int64
	UserID  int64
	Amount  int64
}

// Payout is the computed settlement credit for one winning entry
type Payout struct {
	EntryID int64
	UserID  int64
	Stake   int64
	Amount  int64
}

// Allocation is the full fee-and-payout breakdown of a settlement. The
// invariant sum(Payouts) + PlatformFee + CreatorFee == WinningPool +
// LosingPool holds exactly: the per-entry floor residual is swept into
// PlatformFee so no minor unit is created or destroyed.
type Allocation struct {
	WinningPool   int64
	LosingPool    int64
	Distributable int64
	PlatformFee   int64
	CreatorFee    int64
	Residual      int64
	Payouts       []Payout
}

// Allocate computes per-entry payouts from the final pools. Each payout is
// floor(stake * distributable / winningPool); the sum of floors can fall
// short of distributable by at most one cent per winning entry, and that
// residual goes to the platform share. Entries are processed in a
// deterministic order (entry id ascending) so replays allocate identically.
func Allocate(stakes []WinningStake, losingPool, platformFeeBps, creatorFeeBps int64) Allocation {
	ordered := make([]WinningStake, len(stakes))
	copy(ordered, stakes)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].EntryID < ordered[j].EntryID })

	var winningPool int64
	for _, s := range ordered {
		winningPool += s.Amount
	}

	platformFee := losingPool * platformFeeBps / feeDenominator
	creatorFee := losingPool * creatorFeeBps / feeDenominator
	distributable := winningPool + losingPool - platformFee - creatorFee
	if distributable < 0 {
		distributable = 0
	}

	alloc := Allocation{
		WinningPool:   winningPool,
		LosingPool:    losingPool,
		Distributable: distributable,
		PlatformFee:   platformFee,
		CreatorFee:    creatorFee,
	}

	if winningPool <= 0 {
		// No winners: the whole distributable pool is unclaimed and goes
		// to the platform share alongside the residual sweep.
		alloc.Residual = distributable
		alloc.PlatformFee += distributable
		return alloc
	}

	var paid int64
	alloc.Payouts = make([]Payout, 0, len(ordered))
	for _, s := range ordered {
		amount := s.Amount * distributable / winningPool
		paid += amount
		alloc.Payouts = append(alloc.Payouts, Payout{
			EntryID: s.EntryID,
			UserID:  s.UserID,
			Stake:   s.Amount,
			Amount:  amount,
		})
	}

	alloc.Residual = distributable - paid
	alloc.PlatformFee += alloc.Residual
	return alloc
}
