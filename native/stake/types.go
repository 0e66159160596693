package stake

import (
	"math/big"

	"vaultd/crypto"
)

// StakeRecord captures a user's locked share position. Each user holds at
// most one active lock; a new lock may only be opened once the record has
// been zeroed by an unlock.
type StakeRecord struct {
	// Owner is the locking account.
	Owner crypto.Address
	// LockedShares is the share amount held by the pool for this lock.
	LockedShares *big.Int
	// ExpiryUnix is the unix timestamp after which the lock may be
	// withdrawn. Always equals the deposit time plus the chosen duration.
	ExpiryUnix uint64
	// DurationSeconds is the lock duration chosen at deposit, bounded to
	// the configured [min, max] window. It alone determines the reward.
	DurationSeconds uint64
}

// Clone returns a deep copy of the record.
func (r *StakeRecord) Clone() *StakeRecord {
	if r == nil {
		return nil
	}
	clone := &StakeRecord{Owner: r.Owner, ExpiryUnix: r.ExpiryUnix, DurationSeconds: r.DurationSeconds}
	if r.LockedShares != nil {
		clone.LockedShares = new(big.Int).Set(r.LockedShares)
	}
	return clone
}

// Active reports whether the record holds a live lock.
func (r *StakeRecord) Active() bool {
	return r != nil && r.LockedShares != nil && r.LockedShares.Sign() > 0
}

// PoolState tracks the pool-wide accounting totals.
type PoolState struct {
	// TotalLockedShares is the recorded sum of all live locks. The share
	// flash loan verifies repayment against this recorded total rather
	// than a balance snapshot.
	TotalLockedShares *big.Int
	// TotalRewardsReceived accumulates native-currency reward deposits and
	// flash-loan fees. It is a statistic, not a per-user allocation:
	// rewards are duration-based and draw on the pool's native balance.
	TotalRewardsReceived *big.Int
}

// Clone returns a deep copy of the pool state.
func (p *PoolState) Clone() *PoolState {
	if p == nil {
		return nil
	}
	clone := &PoolState{}
	if p.TotalLockedShares != nil {
		clone.TotalLockedShares = new(big.Int).Set(p.TotalLockedShares)
	}
	if p.TotalRewardsReceived != nil {
		clone.TotalRewardsReceived = new(big.Int).Set(p.TotalRewardsReceived)
	}
	return clone
}

// Normalize replaces nil totals with zero values.
func (p *PoolState) Normalize() *PoolState {
	if p == nil {
		return &PoolState{TotalLockedShares: big.NewInt(0), TotalRewardsReceived: big.NewInt(0)}
	}
	if p.TotalLockedShares == nil {
		p.TotalLockedShares = big.NewInt(0)
	}
	if p.TotalRewardsReceived == nil {
		p.TotalRewardsReceived = big.NewInt(0)
	}
	return p
}

// Params groups the governance-controlled staking limits.
type Params struct {
	// MinLockSeconds and MaxLockSeconds bound the chooseable lock duration.
	MinLockSeconds uint64
	MaxLockSeconds uint64
	// MaxReward is the native-currency reward paid for a maximum-duration
	// lock; shorter locks earn proportionally less.
	MaxReward *big.Int
	// FlashLoanFee is the fixed native-currency fee charged up front for a
	// share flash loan.
	FlashLoanFee *big.Int
}

// Clone returns a deep copy of the parameters.
func (p Params) Clone() Params {
	clone := Params{MinLockSeconds: p.MinLockSeconds, MaxLockSeconds: p.MaxLockSeconds}
	if p.MaxReward != nil {
		clone.MaxReward = new(big.Int).Set(p.MaxReward)
	}
	if p.FlashLoanFee != nil {
		clone.FlashLoanFee = new(big.Int).Set(p.FlashLoanFee)
	}
	return clone
}

// Validate checks the parameter invariants.
func (p Params) Validate() error {
	if p.MinLockSeconds == 0 || p.MaxLockSeconds == 0 || p.MinLockSeconds > p.MaxLockSeconds {
		return ErrInvalidParams
	}
	if p.MaxReward == nil || p.MaxReward.Sign() < 0 {
		return ErrInvalidParams
	}
	if p.FlashLoanFee == nil || p.FlashLoanFee.Sign() < 0 {
		return ErrInvalidParams
	}
	return nil
}
