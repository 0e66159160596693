package vault

import "math/big"

// MinimumShareBurn is the slice of the first deposit's value whose shares
// are locked forever under the dust address. A near-zero first deposit could
// otherwise set an attacker-controlled share price; the burned minimum makes
// that manipulation unprofitable.
const MinimumShareBurn = 1000

// mintShares computes the share issuance for value against the pre-update
// totals and applies the resulting totals to the ledger.
//
// The first mint issues value - MinimumShareBurn to the depositor and locks
// the minimum as dust, so the total supply still equals the deposited value.
// Subsequent mints issue value * totalShares / totalTrackedValue, floored;
// the residual value lost to flooring stays in the pool, slightly favouring
// existing holders.
//
// The returned dust amount is non-zero only on the bootstrap mint.
func mintShares(ledger *LedgerState, value *big.Int) (shares, dust *big.Int, err error) {
	if value == nil || value.Sign() <= 0 {
		return nil, nil, ErrInvalidAmount
	}
	ledger.Normalize()

	minted := new(big.Int)
	dust = big.NewInt(0)
	if ledger.TotalShares.Sign() == 0 {
		if value.Cmp(big.NewInt(MinimumShareBurn)) <= 0 {
			return nil, nil, ErrInsufficientInitialDeposit
		}
		minted.Sub(value, big.NewInt(MinimumShareBurn))
		dust = big.NewInt(MinimumShareBurn)
	} else {
		minted.Mul(value, ledger.TotalShares)
		minted.Quo(minted, ledger.TotalTrackedValue)
	}

	// Totals change only after the ratio computation.
	ledger.TotalShares = new(big.Int).Add(ledger.TotalShares, minted)
	ledger.TotalShares.Add(ledger.TotalShares, dust)
	ledger.TotalTrackedValue = new(big.Int).Add(ledger.TotalTrackedValue, value)
	return minted, dust, nil
}

// burnShares redeems shares for their proportional slice of the tracked
// value, computed before any mutation, and applies the reduced totals to the
// ledger. Callers must have verified the owner's share balance beforehand.
func burnShares(ledger *LedgerState, shares *big.Int) (*big.Int, error) {
	if shares == nil || shares.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	ledger.Normalize()
	if ledger.TotalShares.Sign() == 0 || shares.Cmp(ledger.TotalShares) > 0 {
		return nil, ErrInsufficientShares
	}

	value := new(big.Int).Mul(shares, ledger.TotalTrackedValue)
	value.Quo(value, ledger.TotalShares)

	ledger.TotalTrackedValue = new(big.Int).Sub(ledger.TotalTrackedValue, value)
	ledger.TotalShares = new(big.Int).Sub(ledger.TotalShares, shares)
	return value, nil
}
