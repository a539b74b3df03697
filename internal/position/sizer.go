package position

import "math"

// Quantity computes the share quantity for a new position. The capital put
// to work is the smaller of the available cash and the per-slot cap, reduced
// by the transaction cost so the total entry cost never exceeds the capital
// passed in. A zero quantity is a normal no-trade outcome, not an error.
func Quantity(availableCash, perSlotCap, entryPrice, txnCostPct float64) int64 {
	if entryPrice <= 0 {
		return 0
	}
	slot := math.Min(availableCash, perSlotCap)
	investable := slot * (1 - txnCostPct/100)
	if investable <= 0 {
		return 0
	}
	qty := int64(math.Floor(investable / entryPrice))
	if qty < 0 {
		return 0
	}
	return qty
}

// EntryCost returns the cash debit for opening a position, transaction cost
// included.
func EntryCost(quantity int64, entryPrice, txnCostPct float64) float64 {
	return float64(quantity) * entryPrice * (1 + txnCostPct/100)
}

// ExitProceeds returns the cash credit for closing a long position,
// transaction cost deducted.
func ExitProceeds(quantity int64, exitPrice, txnCostPct float64) float64 {
	return float64(quantity) * exitPrice * (1 - txnCostPct/100)
}
