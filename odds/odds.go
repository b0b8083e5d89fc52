// Package odds implements the pari-mutuel pricing math. All pool and stake
// amounts are integer minor-currency units (cents); fee rates are basis
// points (1/10000). Fees are levied against the losing-side pool only, so a
// winning stake always recovers at least its principal. Floats appear only
// in display multiples and never feed back into settlement arithmetic.
package odds

import (
	"fmt"
)

// feeDenominator converts basis points to a fraction
const feeDenominator = 10000

// PreMultiple returns the naive pool multiple totalPool/optionPool before
// fees. The second return is false when the option pool is empty and no
// odds exist yet.
func PreMultiple(totalPool, optionPool int64) (float64, bool) {
	if optionPool <= 0 {
		return 0, false
	}
	return float64(totalPool) / float64(optionPool), true
}

// PostMultiple returns the fee-adjusted multiple a staker would see after
// adding stake to the selected option. The second return is false when the
// post-stake selected pool would be empty.
func PostMultiple(totalPool, optionPool, stake, feeBps int64) (float64, bool) {
	selectedAfter := optionPool + stake
	if selectedAfter <= 0 {
		return 0, false
	}
	totalAfter := totalPool + stake
	otherAfter := totalAfter - selectedAfter
	fees := otherAfter * feeBps / feeDenominator
	distributable := totalAfter - fees
	if distributable < 0 {
		distributable = 0
	}
	return float64(distributable) / float64(selectedAfter), true
}

// Preview is a fee-aware estimate of the return on a hypothetical stake.
// Advisory only: later stakes move the pools, so the settlement multiple
// governs the actual payout.
type Preview struct {
	Multiple          float64
	ExpectedReturn    int64
	ExpectedProfit    int64
	Fees              int64
	Distributable     int64
	SelectedPoolAfter int64
	OtherPoolAfter    int64
}

// ComputePreview composes the post-stake multiple into a payout preview.
// Returns nil when both the option pool and the stake are zero (no pool to
// price against).
func ComputePreview(totalPool, optionPool, stake, feeBps int64) *Preview {
	if optionPool <= 0 && stake <= 0 {
		return nil
	}
	selectedAfter := optionPool + stake
	if selectedAfter <= 0 {
		return nil
	}
	totalAfter := totalPool + stake
	otherAfter := totalAfter - selectedAfter
	fees := otherAfter * feeBps / feeDenominator
	distributable := totalAfter - fees
	if distributable < 0 {
		distributable = 0
	}

	// Integer path: floor(stake * multiple) without going through floats.
	expectedReturn := stake * distributable / selectedAfter

	return &Preview{
		Multiple:          float64(distributable) / float64(selectedAfter),
		ExpectedReturn:    expectedReturn,
		ExpectedProfit:    expectedReturn - stake,
		Fees:              fees,
		Distributable:     distributable,
		SelectedPoolAfter: selectedAfter,
		OtherPoolAfter:    otherAfter,
	}
}

// SettlementMultiple returns the authoritative display multiple from the
// final locked-in pools. The second return is false when the winning pool
// is empty.
func SettlementMultiple(winningPool, losingPool, feeBps int64) (float64, bool) {
	if winningPool <= 0 {
		return 0, false
	}
	fees := losingPool * feeBps / feeDenominator
	distributable := winningPool + losingPool - fees
	if distributable < 0 {
		distributable = 0
	}
	return float64(distributable) / float64(winningPool), true
}

// FormatMultiple renders a display multiple such as "2.43x"
func FormatMultiple(multiple float64) string {
	return fmt.Sprintf("%.2fx", multiple)
}
