package stake

import "errors"

var (
	errNilState    = errors.New("stake engine: state not configured")
	errNilShares   = errors.New("stake engine: share token not configured")
	errNilBorrower = errors.New("stake engine: flash borrower not configured")
)

var (
	// ErrInvalidParams rejects malformed engine parameters.
	ErrInvalidParams = errors.New("stake engine: invalid parameters")
	// ErrInvalidAmount rejects zero or negative amounts.
	ErrInvalidAmount = errors.New("stake engine: amount must be positive")
	// ErrInvalidDuration rejects lock durations outside the configured
	// bounds.
	ErrInvalidDuration = errors.New("stake engine: lock duration out of bounds")
	// ErrAlreadyLocked rejects a new lock while a previous one is active.
	ErrAlreadyLocked = errors.New("stake engine: active lock already exists")
	// ErrNoActiveLock rejects an unlock without a live lock.
	ErrNoActiveLock = errors.New("stake engine: no active lock")
	// ErrLockNotExpired rejects an unlock before the lock's expiry.
	ErrLockNotExpired = errors.New("stake engine: lock has not expired")
	// ErrRewardPoolExhausted aborts an unlock whose duration-weighted
	// reward exceeds the pool's native balance. The lock stays intact and
	// becomes withdrawable once the pool is refunded.
	ErrRewardPoolExhausted = errors.New("stake engine: reward pool cannot cover the claim")
	// ErrInsufficientPoolShares rejects a flash loan larger than the
	// recorded pooled total.
	ErrInsufficientPoolShares = errors.New("stake engine: pool holds insufficient shares")
	// ErrFeeNotPaid rejects a flash loan whose caller cannot cover the
	// fixed up-front fee.
	ErrFeeNotPaid = errors.New("stake engine: flash loan fee not paid")
	// ErrLoanNotRepaid signals that the pool's share balance was not
	// restored to the recorded pooled total after the callback.
	ErrLoanNotRepaid = errors.New("stake engine: share flash loan not repaid")
)
