package types

import "math/big"

// Account captures the ledger-visible balances for a single address. All
// amounts are denominated in wei and expressed as big integers to preserve
// the 18-decimal fixed-point precision used throughout the ledger.
type Account struct {
	Nonce uint64 `json:"nonce"`
	// BalanceRef is the account's holding of the reference asset in which
	// total tracked value and share price are denominated.
	BalanceRef *big.Int `json:"balanceRef"`
	// BalanceNative is the account's holding of the native currency used
	// for stake rewards and stake flash-loan fees.
	BalanceNative *big.Int `json:"balanceNative"`
}

// Clone returns a deep copy so callers cannot mutate stored balances through
// shared big.Int pointers.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := &Account{Nonce: a.Nonce}
	if a.BalanceRef != nil {
		clone.BalanceRef = new(big.Int).Set(a.BalanceRef)
	}
	if a.BalanceNative != nil {
		clone.BalanceNative = new(big.Int).Set(a.BalanceNative)
	}
	return clone
}

// Normalize replaces nil balances with zero so arithmetic never has to guard
// against missing fields.
func (a *Account) Normalize() *Account {
	if a == nil {
		return &Account{BalanceRef: big.NewInt(0), BalanceNative: big.NewInt(0)}
	}
	if a.BalanceRef == nil {
		a.BalanceRef = big.NewInt(0)
	}
	if a.BalanceNative == nil {
		a.BalanceNative = big.NewInt(0)
	}
	return a
}
