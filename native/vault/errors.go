package vault

import "errors"

var (
	errNilState              = errors.New("vault engine: state not configured")
	errNilToken              = errors.New("vault engine: no token adapter registered for asset")
	errNilShares             = errors.New("vault engine: share token not configured")
	errNilWrapper            = errors.New("vault engine: native wrapper not configured")
	errNilValuator           = errors.New("vault engine: valuator not configured")
	errNilBorrower           = errors.New("vault engine: flash borrower not configured")
	errInsufficientBalance   = errors.New("vault engine: insufficient balance")
	errInsufficientLiquidity = errors.New("vault engine: insufficient pooled liquidity")
)

// Failure modes surfaced to callers. These abort the whole operation with no
// partial state change; the ledger remains exactly as before the call.
var (
	// ErrInvalidAmount rejects zero or negative amounts before any state
	// change.
	ErrInvalidAmount = errors.New("vault engine: amount must be positive")
	// ErrInsufficientInitialDeposit rejects a first deposit that does not
	// exceed the minimum share burn.
	ErrInsufficientInitialDeposit = errors.New("vault engine: first deposit below minimum share burn")
	// ErrInsufficientShares rejects a burn exceeding the owner's share
	// balance.
	ErrInsufficientShares = errors.New("vault engine: insufficient shares")
	// ErrBalanceUnderflow signals a per-asset bookkeeping decrement below
	// zero. Under correct orchestration it never triggers; its appearance
	// indicates an orchestration bug, not a user error.
	ErrBalanceUnderflow = errors.New("vault engine: per-asset balance underflow")
	// ErrPoolUnavailable signals that no exchange pool is registered for the
	// requested pair.
	ErrPoolUnavailable = errors.New("vault engine: no exchange pool for pair")
	// ErrOracleUnavailable signals that no price feed is registered for the
	// asset.
	ErrOracleUnavailable = errors.New("vault engine: no price feed for asset")
	// ErrInvalidPrice signals a non-positive price report.
	ErrInvalidPrice = errors.New("vault engine: oracle reported non-positive price")
	// ErrStalePrice signals a price report older than the freshness window.
	ErrStalePrice = errors.New("vault engine: oracle price report is stale")
	// ErrInvalidWithdrawAsset rejects a swap-preference withdrawal into
	// anything but the reference asset.
	ErrInvalidWithdrawAsset = errors.New("vault engine: swap accounts may only withdraw the reference asset")
	// ErrUnsupportedCurrency rejects flash loans in anything but the
	// reference asset.
	ErrUnsupportedCurrency = errors.New("vault engine: flash loans support only the reference asset")
	// ErrCallbackRejected signals that the flash borrower's callback did not
	// return the acknowledgement marker.
	ErrCallbackRejected = errors.New("vault engine: flash borrower rejected the loan")
	// ErrLoanNotRepaid signals that the post-callback balance fell short of
	// principal plus fee.
	ErrLoanNotRepaid = errors.New("vault engine: flash loan not repaid")
	// ErrTransferFailed wraps a rejection from an external token during a
	// pull-based deposit.
	ErrTransferFailed = errors.New("vault engine: asset transfer rejected")
	// ErrNotConfigurer rejects administrative calls from anyone but the
	// configured privileged identity.
	ErrNotConfigurer = errors.New("vault engine: caller is not the configurer")
	// ErrFeeRateTooHigh bounds the flash-loan fee rate to 10%.
	ErrFeeRateTooHigh = errors.New("vault engine: fee rate exceeds 1000 basis points")
	// ErrEmergencyReference refuses emergency withdrawals of the reference
	// asset backing outstanding shares.
	ErrEmergencyReference = errors.New("vault engine: emergency withdrawal cannot release the reference asset")
)
