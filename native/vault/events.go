package vault

import (
	"math/big"

	"vaultd/core/types"
	"vaultd/crypto"
)

const (
	EventTypeDeposited           = "vault.deposited"
	EventTypeWithdrawn           = "vault.withdrawn"
	EventTypeFlashLoan           = "vault.flash_loan"
	EventTypeSwapPreferenceSet   = "vault.swap_preference_set"
	EventTypeFeeRateUpdated      = "vault.fee_rate_updated"
	EventTypePriceFeedUpdated    = "vault.price_feed_updated"
	EventTypeEmergencyWithdrawal = "vault.emergency_withdrawal"
)

// NewDepositedEvent returns the canonical record emitted after a completed
// deposit.
func NewDepositedEvent(payer, receiver crypto.Address, asset Asset, referenceAmount, shares *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeDeposited,
		Attributes: map[string]string{
			"payer":           payer.String(),
			"receiver":        receiver.String(),
			"asset":           string(asset),
			"referenceAmount": bigString(referenceAmount),
			"shares":          bigString(shares),
		},
	}
}

// NewWithdrawnEvent returns the canonical record emitted after a completed
// withdrawal.
func NewWithdrawnEvent(owner, receiver crypto.Address, asset Asset, amount, shares *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeWithdrawn,
		Attributes: map[string]string{
			"owner":    owner.String(),
			"receiver": receiver.String(),
			"asset":    string(asset),
			"amount":   bigString(amount),
			"shares":   bigString(shares),
		},
	}
}

// NewFlashLoanEvent records a completed flash loan with its collected fee.
func NewFlashLoanEvent(borrower crypto.Address, asset Asset, principal, fee *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeFlashLoan,
		Attributes: map[string]string{
			"borrower":  borrower.String(),
			"asset":     string(asset),
			"principal": bigString(principal),
			"fee":       bigString(fee),
		},
	}
}

// NewSwapPreferenceSetEvent records a user fixing their swap preference.
func NewSwapPreferenceSetEvent(user crypto.Address) *types.Event {
	return &types.Event{
		Type: EventTypeSwapPreferenceSet,
		Attributes: map[string]string{
			"user": user.String(),
		},
	}
}

// NewFeeRateUpdatedEvent records a configurer fee-rate change.
func NewFeeRateUpdatedEvent(bps uint64) *types.Event {
	return &types.Event{
		Type: EventTypeFeeRateUpdated,
		Attributes: map[string]string{
			"feeRateBps": uintString(bps),
		},
	}
}

// NewPriceFeedUpdatedEvent records a registry change for an asset's feed.
func NewPriceFeedUpdatedEvent(asset Asset, removed bool) *types.Event {
	action := "set"
	if removed {
		action = "removed"
	}
	return &types.Event{
		Type: EventTypePriceFeedUpdated,
		Attributes: map[string]string{
			"asset":  string(asset),
			"action": action,
		},
	}
}

// NewEmergencyWithdrawalEvent records a configurer-driven asset recovery.
func NewEmergencyWithdrawalEvent(asset Asset, amount *big.Int, recipient crypto.Address) *types.Event {
	return &types.Event{
		Type: EventTypeEmergencyWithdrawal,
		Attributes: map[string]string{
			"asset":     string(asset),
			"amount":    bigString(amount),
			"recipient": recipient.String(),
		},
	}
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func uintString(v uint64) string {
	return new(big.Int).SetUint64(v).String()
}
