package vault

import (
	"math/big"

	"vaultd/crypto"
)

// Asset identifies a depositable asset within the ledger. The identifier is
// opaque to the engine; token adapters and price feeds are registered
// against it.
type Asset string

// NativeAsset is the sentinel identifier for the chain's native currency.
// Native deposits are wrapped into the configured wrapped representation
// before valuation.
const NativeAsset Asset = "native"

// LedgerState captures the global accounting state for the vault. Amounts
// are denominated in reference-asset wei and expressed as big integers to
// preserve 18-decimal precision.
type LedgerState struct {
	// TotalTrackedValue is the aggregate reference-asset value currently
	// represented by outstanding shares. It grows on deposits and flash-loan
	// fees and shrinks on withdrawals.
	TotalTrackedValue *big.Int
	// TotalShares is the total share supply issued against the tracked
	// value, including the bootstrap dust locked by the first deposit.
	TotalShares *big.Int
}

// Clone returns a deep copy of the ledger state.
func (s *LedgerState) Clone() *LedgerState {
	if s == nil {
		return nil
	}
	clone := &LedgerState{}
	if s.TotalTrackedValue != nil {
		clone.TotalTrackedValue = new(big.Int).Set(s.TotalTrackedValue)
	}
	if s.TotalShares != nil {
		clone.TotalShares = new(big.Int).Set(s.TotalShares)
	}
	return clone
}

// Normalize replaces nil totals with zero values.
func (s *LedgerState) Normalize() *LedgerState {
	if s == nil {
		return &LedgerState{TotalTrackedValue: big.NewInt(0), TotalShares: big.NewInt(0)}
	}
	if s.TotalTrackedValue == nil {
		s.TotalTrackedValue = big.NewInt(0)
	}
	if s.TotalShares == nil {
		s.TotalShares = big.NewInt(0)
	}
	return s
}

// UserAccount is the per-user sub-ledger maintained by the account store. It
// is created lazily on first interaction and removed once the user's share
// balance and every per-asset balance have returned to zero.
type UserAccount struct {
	// Address is the unique account identifier.
	Address crypto.Address
	// SwapEnabled is a one-way latch selecting automatic conversion of
	// deposits into the reference asset. It may only be set while the user
	// holds zero shares.
	SwapEnabled bool
	// Balances tracks the deposited amount per asset, keyed on the asset
	// actually held after any conversion.
	Balances map[Asset]*big.Int
}

// Clone returns a deep copy of the account record.
func (u *UserAccount) Clone() *UserAccount {
	if u == nil {
		return nil
	}
	clone := &UserAccount{Address: u.Address, SwapEnabled: u.SwapEnabled}
	if u.Balances != nil {
		clone.Balances = make(map[Asset]*big.Int, len(u.Balances))
		for asset, amount := range u.Balances {
			if amount != nil {
				clone.Balances[asset] = new(big.Int).Set(amount)
			}
		}
	}
	return clone
}

// Balance returns the recorded balance for an asset, zero when absent.
func (u *UserAccount) Balance(asset Asset) *big.Int {
	if u == nil || u.Balances == nil {
		return big.NewInt(0)
	}
	if amount, ok := u.Balances[asset]; ok && amount != nil {
		return new(big.Int).Set(amount)
	}
	return big.NewInt(0)
}

// FlashLoanTerms is the ephemeral description of a single flash loan. It is
// computed per call from the engine's configured fee rate and never
// persisted.
type FlashLoanTerms struct {
	Asset     Asset
	Principal *big.Int
	FeeBps    uint64
}

// Fee computes the loan fee as principal * feeBps / 10000, rounded toward
// zero.
func (t FlashLoanTerms) Fee() *big.Int {
	if t.Principal == nil || t.Principal.Sign() <= 0 || t.FeeBps == 0 {
		return big.NewInt(0)
	}
	fee := new(big.Int).Mul(t.Principal, new(big.Int).SetUint64(t.FeeBps))
	return fee.Quo(fee, basisPoints)
}
