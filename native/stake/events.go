package stake

import (
	"math/big"
	"strconv"

	"vaultd/core/types"
	"vaultd/crypto"
)

const (
	EventTypeLocked             = "stake.locked"
	EventTypeUnlocked           = "stake.unlocked"
	EventTypeRewardsDistributed = "stake.rewards_distributed"
	EventTypeFlashLoan          = "stake.flash_loan"
)

// NewLockedEvent records a completed lock deposit.
func NewLockedEvent(record *StakeRecord) *types.Event {
	return &types.Event{
		Type: EventTypeLocked,
		Attributes: map[string]string{
			"owner":    record.Owner.String(),
			"shares":   bigString(record.LockedShares),
			"duration": strconv.FormatUint(record.DurationSeconds, 10),
			"expiry":   strconv.FormatUint(record.ExpiryUnix, 10),
		},
	}
}

// NewUnlockedEvent records a completed unlock and its reward payout.
func NewUnlockedEvent(owner crypto.Address, shares, reward *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeUnlocked,
		Attributes: map[string]string{
			"owner":  owner.String(),
			"shares": bigString(shares),
			"reward": bigString(reward),
		},
	}
}

// NewRewardsDistributedEvent records an external native-currency deposit
// into the reward pool.
func NewRewardsDistributedEvent(from crypto.Address, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeRewardsDistributed,
		Attributes: map[string]string{
			"from":   from.String(),
			"amount": bigString(amount),
		},
	}
}

// NewFlashLoanEvent records a completed share flash loan.
func NewFlashLoanEvent(borrower crypto.Address, shares, fee *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeFlashLoan,
		Attributes: map[string]string{
			"borrower": borrower.String(),
			"shares":   bigString(shares),
			"fee":      bigString(fee),
		},
	}
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
