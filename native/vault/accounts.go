package vault

import (
	"math/big"

	"vaultd/crypto"
)

// The account store owns per-user swap preferences and per-asset balance
// bookkeeping. It is independent of share ownership: shares live in the
// share token, balances live here.

func (e *Engine) ensureUserAccount(addr crypto.Address) (*UserAccount, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	account, err := e.state.GetUserAccount(addr)
	if err != nil {
		return nil, err
	}
	if account == nil {
		account = &UserAccount{Address: addr}
	}
	if account.Balances == nil {
		account.Balances = make(map[Asset]*big.Int)
	}
	return account, nil
}

// SetSwapPreference fixes the caller's swap preference. The latch is one-way
// and only engages while the account holds zero shares: changing it
// mid-position would corrupt the per-asset balance accounting. Both the
// already-set and shares-held cases are silent no-ops rather than errors.
func (e *Engine) SetSwapPreference(user crypto.Address) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.shares == nil {
		return errNilShares
	}
	account, err := e.ensureUserAccount(user)
	if err != nil {
		return err
	}
	if account.SwapEnabled {
		return nil
	}
	balance, err := e.shares.BalanceOf(user)
	if err != nil {
		return err
	}
	if balance != nil && balance.Sign() > 0 {
		return nil
	}
	account.SwapEnabled = true
	if err := e.state.PutUserAccount(account); err != nil {
		return err
	}
	e.emit(NewSwapPreferenceSetEvent(user))
	return nil
}

// recordDeposit adds amount to the user's balance for the held asset. The
// mutation is in-memory; the caller persists the account once the whole
// operation has succeeded.
func recordDeposit(account *UserAccount, asset Asset, amount *big.Int) {
	if account.Balances == nil {
		account.Balances = make(map[Asset]*big.Int)
	}
	current := account.Balances[asset]
	if current == nil {
		current = big.NewInt(0)
	}
	account.Balances[asset] = new(big.Int).Add(current, amount)
}

// recordWithdraw subtracts amount from the user's balance for the asset and
// drops the entry when it reaches zero. A would-be negative balance is a
// bookkeeping assertion failure, not a value-bearing constraint: under
// correct orchestration it cannot trigger.
func recordWithdraw(account *UserAccount, asset Asset, amount *big.Int) error {
	current := account.Balance(asset)
	if current.Cmp(amount) < 0 {
		return ErrBalanceUnderflow
	}
	remaining := current.Sub(current, amount)
	if remaining.Sign() == 0 {
		delete(account.Balances, asset)
		return nil
	}
	account.Balances[asset] = remaining
	return nil
}

// resetIfEmpty removes the account record once the owner holds no shares and
// no residual per-asset balances. Residual balances in other assets keep the
// record alive; discarding them silently would lose value the user can still
// redeem against.
func (e *Engine) resetIfEmpty(account *UserAccount) error {
	balance, err := e.shares.BalanceOf(account.Address)
	if err != nil {
		return err
	}
	if balance != nil && balance.Sign() > 0 {
		return e.state.PutUserAccount(account)
	}
	for _, amount := range account.Balances {
		if amount != nil && amount.Sign() > 0 {
			return e.state.PutUserAccount(account)
		}
	}
	return e.state.DeleteUserAccount(account.Address)
}
