package stake

import (
	"math/big"
	"time"

	"vaultd/core/events"
	"vaultd/core/types"
	"vaultd/crypto"
	nativecommon "vaultd/native/common"
	"vaultd/observability/metrics"
)

const moduleName = "stake"

// EngineState is the persistence boundary for the stake ledger.
// Implementations hand out copies; the engine commits mutations back through
// the Put methods only after an operation has fully succeeded.
type EngineState interface {
	GetStakeRecord(addr crypto.Address) (*StakeRecord, error)
	PutStakeRecord(record *StakeRecord) error
	DeleteStakeRecord(addr crypto.Address) error
	GetPool() (*PoolState, error)
	PutPool(pool *PoolState) error
	GetAccount(addr crypto.Address) (*types.Account, error)
	PutAccount(addr crypto.Address, account *types.Account) error
}

// ShareToken is the stake ledger's view of the vault-issued share token: an
// opaque transferable asset. The ledger never calls back into the vault.
type ShareToken interface {
	BalanceOf(owner crypto.Address) (*big.Int, error)
	Transfer(from, to crypto.Address, amount *big.Int) error
}

// ShareBorrower receives flash-loaned pooled shares and must restore the
// pool's holdings before its callback returns.
type ShareBorrower interface {
	Address() crypto.Address
	OnShareLoan(amount *big.Int, data []byte) error
}

type stakeEvent struct {
	evt *types.Event
}

func (e stakeEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e stakeEvent) Event() *types.Event { return e.evt }

// Engine operates the time-locked staking ledger over vault shares. Each
// user moves through Empty -> Locked -> Unlockable (time-gated) -> Empty;
// rewards are a pure function of the chosen duration.
type Engine struct {
	state         EngineState
	moduleAddress crypto.Address
	params        Params
	shares        ShareToken
	latch         nativecommon.Latch
	pauses        nativecommon.PauseView
	emitter       events.Emitter
	telemetry     *metrics.StakeMetrics
	now           func() time.Time
}

// NewEngine constructs a stake engine pooling shares under moduleAddr with
// the supplied limits.
func NewEngine(moduleAddr crypto.Address, params Params) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		moduleAddress: moduleAddr,
		params:        params.Clone(),
		emitter:       events.NoopEmitter{},
		telemetry:     metrics.Stake(),
		now:           time.Now,
	}, nil
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state EngineState) { e.state = state }

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetShareToken wires the vault share token consumed by the pool.
func (e *Engine) SetShareToken(shares ShareToken) {
	if e == nil {
		return
	}
	e.shares = shares
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetClock overrides the time source. Useful in tests.
func (e *Engine) SetClock(now func() time.Time) {
	if e == nil || now == nil {
		return
	}
	e.now = now
}

// Params returns a copy of the configured limits.
func (e *Engine) Params() Params {
	if e == nil {
		return Params{}
	}
	return e.params.Clone()
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(stakeEvent{evt: event})
}

func (e *Engine) loadAccount(addr crypto.Address) (*types.Account, error) {
	account, err := e.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return account.Normalize(), nil
}

// Reward computes the one-time payout for a lock of the given duration:
// MaxReward * duration / MaxLockSeconds, floored. It depends on nothing but
// the duration; neither the pool balance nor other lockers influence it.
func (e *Engine) Reward(durationSeconds uint64) *big.Int {
	if e == nil || e.params.MaxReward == nil || e.params.MaxLockSeconds == 0 {
		return big.NewInt(0)
	}
	reward := new(big.Int).Mul(e.params.MaxReward, new(big.Int).SetUint64(durationSeconds))
	return reward.Quo(reward, new(big.Int).SetUint64(e.params.MaxLockSeconds))
}

// Lock pulls amount shares from the owner into the pool for the chosen
// duration. Only one lock may be active per user at a time.
func (e *Engine) Lock(owner crypto.Address, amount *big.Int, durationSeconds uint64) (*StakeRecord, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if err := e.latch.Enter("lock"); err != nil {
		return nil, err
	}
	defer e.latch.Exit()
	if e.shares == nil {
		return nil, errNilShares
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if durationSeconds < e.params.MinLockSeconds || durationSeconds > e.params.MaxLockSeconds {
		return nil, ErrInvalidDuration
	}

	existing, err := e.state.GetStakeRecord(owner)
	if err != nil {
		return nil, err
	}
	if existing.Active() {
		return nil, ErrAlreadyLocked
	}

	pool, err := e.state.GetPool()
	if err != nil {
		return nil, err
	}
	pool = pool.Normalize()

	if err := e.shares.Transfer(owner, e.moduleAddress, amount); err != nil {
		return nil, err
	}

	record := &StakeRecord{
		Owner:           owner,
		LockedShares:    new(big.Int).Set(amount),
		ExpiryUnix:      uint64(e.now().Unix()) + durationSeconds,
		DurationSeconds: durationSeconds,
	}
	pool.TotalLockedShares = new(big.Int).Add(pool.TotalLockedShares, amount)

	if err := e.state.PutStakeRecord(record); err != nil {
		return nil, err
	}
	if err := e.state.PutPool(pool); err != nil {
		return nil, err
	}

	e.telemetry.SetLockedShares(pool.TotalLockedShares)
	e.emit(NewLockedEvent(record))
	return record.Clone(), nil
}

// Unlock returns the full locked balance to the owner once the lock has
// expired and pays the duration-proportional reward in native currency. An
// under-funded reward pool aborts the whole unlock; the lock stays intact.
func (e *Engine) Unlock(owner crypto.Address) (*big.Int, *big.Int, error) {
	if e == nil || e.state == nil {
		return nil, nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, nil, err
	}
	if err := e.latch.Enter("unlock"); err != nil {
		return nil, nil, err
	}
	defer e.latch.Exit()
	if e.shares == nil {
		return nil, nil, errNilShares
	}

	record, err := e.state.GetStakeRecord(owner)
	if err != nil {
		return nil, nil, err
	}
	if !record.Active() {
		return nil, nil, ErrNoActiveLock
	}
	if uint64(e.now().Unix()) < record.ExpiryUnix {
		return nil, nil, ErrLockNotExpired
	}

	reward := e.Reward(record.DurationSeconds)

	moduleAccount, err := e.loadAccount(e.moduleAddress)
	if err != nil {
		return nil, nil, err
	}
	if moduleAccount.BalanceNative.Cmp(reward) < 0 {
		return nil, nil, ErrRewardPoolExhausted
	}
	ownerAccount, err := e.loadAccount(owner)
	if err != nil {
		return nil, nil, err
	}

	pool, err := e.state.GetPool()
	if err != nil {
		return nil, nil, err
	}
	pool = pool.Normalize()

	locked := new(big.Int).Set(record.LockedShares)
	if err := e.shares.Transfer(e.moduleAddress, owner, locked); err != nil {
		return nil, nil, err
	}

	moduleAccount.BalanceNative = new(big.Int).Sub(moduleAccount.BalanceNative, reward)
	ownerAccount.BalanceNative = new(big.Int).Add(ownerAccount.BalanceNative, reward)
	pool.TotalLockedShares = new(big.Int).Sub(pool.TotalLockedShares, locked)

	if err := e.state.PutAccount(e.moduleAddress, moduleAccount); err != nil {
		return nil, nil, err
	}
	if err := e.state.PutAccount(owner, ownerAccount); err != nil {
		return nil, nil, err
	}
	if err := e.state.PutPool(pool); err != nil {
		return nil, nil, err
	}
	if err := e.state.DeleteStakeRecord(owner); err != nil {
		return nil, nil, err
	}

	e.telemetry.SetLockedShares(pool.TotalLockedShares)
	e.telemetry.ObserveRewardPaid(reward)
	e.emit(NewUnlockedEvent(owner, locked, reward))
	return locked, reward, nil
}

// DistributeRewards accepts a native-currency deposit into the shared reward
// pool from any caller. The pool must hold enough to honour all outstanding
// duration-weighted claims; the ledger itself performs no reservation
// accounting.
func (e *Engine) DistributeRewards(from crypto.Address, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	fromAccount, err := e.loadAccount(from)
	if err != nil {
		return err
	}
	if fromAccount.BalanceNative.Cmp(amount) < 0 {
		return ErrFeeNotPaid
	}
	moduleAccount, err := e.loadAccount(e.moduleAddress)
	if err != nil {
		return err
	}
	pool, err := e.state.GetPool()
	if err != nil {
		return err
	}
	pool = pool.Normalize()

	fromAccount.BalanceNative = new(big.Int).Sub(fromAccount.BalanceNative, amount)
	moduleAccount.BalanceNative = new(big.Int).Add(moduleAccount.BalanceNative, amount)
	pool.TotalRewardsReceived = new(big.Int).Add(pool.TotalRewardsReceived, amount)

	if err := e.state.PutAccount(from, fromAccount); err != nil {
		return err
	}
	if err := e.state.PutAccount(e.moduleAddress, moduleAccount); err != nil {
		return err
	}
	if err := e.state.PutPool(pool); err != nil {
		return err
	}

	e.emit(NewRewardsDistributedEvent(from, amount))
	return nil
}

// FlashLoanShares lends pooled shares to the borrower for the duration of
// its callback against a fixed native-currency fee, required up front and
// collected once the loan settles. Repayment is verified against the
// recorded pooled total, not a balance snapshot taken at loan start; shares
// donated to the pool outside the ledger's accounting therefore loosen this
// check, unlike the vault's flash loan.
func (e *Engine) FlashLoanShares(borrower ShareBorrower, amount *big.Int, data []byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if borrower == nil {
		return errNilBorrower
	}
	if err := e.latch.Enter("flash_loan_shares"); err != nil {
		return err
	}
	defer e.latch.Exit()
	if e.shares == nil {
		return errNilShares
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	pool, err := e.state.GetPool()
	if err != nil {
		return err
	}
	pool = pool.Normalize()
	if pool.TotalLockedShares.Cmp(amount) < 0 {
		return ErrInsufficientPoolShares
	}

	// The fee is required up front: a borrower that cannot cover it never
	// receives the loan. It is committed only once repayment is verified,
	// so a failed loan leaves no partial state behind.
	fee := e.params.FlashLoanFee
	borrowerAccount, err := e.loadAccount(borrower.Address())
	if err != nil {
		return err
	}
	if borrowerAccount.BalanceNative.Cmp(fee) < 0 {
		return ErrFeeNotPaid
	}

	if err := e.shares.Transfer(e.moduleAddress, borrower.Address(), amount); err != nil {
		return err
	}
	if err := borrower.OnShareLoan(amount, data); err != nil {
		return err
	}
	e.latch.Settle()

	balance, err := e.shares.BalanceOf(e.moduleAddress)
	if err != nil {
		return err
	}
	if balance == nil || balance.Cmp(pool.TotalLockedShares) < 0 {
		return ErrLoanNotRepaid
	}

	moduleAccount, err := e.loadAccount(e.moduleAddress)
	if err != nil {
		return err
	}
	borrowerAccount.BalanceNative = new(big.Int).Sub(borrowerAccount.BalanceNative, fee)
	moduleAccount.BalanceNative = new(big.Int).Add(moduleAccount.BalanceNative, fee)
	pool.TotalRewardsReceived = new(big.Int).Add(pool.TotalRewardsReceived, fee)

	if err := e.state.PutAccount(borrower.Address(), borrowerAccount); err != nil {
		return err
	}
	if err := e.state.PutAccount(e.moduleAddress, moduleAccount); err != nil {
		return err
	}
	if err := e.state.PutPool(pool); err != nil {
		return err
	}

	e.telemetry.ObserveFlashLoan()
	e.emit(NewFlashLoanEvent(borrower.Address(), amount, fee))
	return nil
}
