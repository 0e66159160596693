package vault

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"time"

	"vaultd/core/events"
	"vaultd/core/types"
	"vaultd/crypto"
	nativecommon "vaultd/native/common"
	"vaultd/observability/metrics"
)

const moduleName = "vault"

// maxFeeRateBps bounds the configurable flash-loan fee to 10%.
const maxFeeRateBps = 1000

// FlashLoanAck is the fixed marker a flash borrower's callback must return
// to acknowledge the loan terms.
var FlashLoanAck = sha256.Sum256([]byte("vaultd/flash_borrower.ack"))

// EngineState is the persistence boundary for the vault. Implementations
// must hand out copies: the engine mutates returned values freely and
// commits them back through the Put methods only once an operation has
// fully succeeded.
type EngineState interface {
	GetLedger() (*LedgerState, error)
	PutLedger(ledger *LedgerState) error
	GetUserAccount(addr crypto.Address) (*UserAccount, error)
	PutUserAccount(account *UserAccount) error
	DeleteUserAccount(addr crypto.Address) error
	GetAccount(addr crypto.Address) (*types.Account, error)
	PutAccount(addr crypto.Address, account *types.Account) error
}

// Token is the boundary to an external fungible asset. Rejections surface as
// errors with no partial effect.
type Token interface {
	BalanceOf(owner crypto.Address) (*big.Int, error)
	Transfer(to crypto.Address, amount *big.Int) error
	TransferFrom(owner, to crypto.Address, amount *big.Int) error
	Permit(owner, spender crypto.Address, value *big.Int, deadline time.Time, signature []byte) error
}

// ShareToken is the boundary to the fungible share token issued against the
// ledger. Mint and Burn are reserved to the vault.
type ShareToken interface {
	Mint(to crypto.Address, amount *big.Int) error
	Burn(from crypto.Address, amount *big.Int) error
	BalanceOf(owner crypto.Address) (*big.Int, error)
}

// NativeWrapper converts between the native currency and its wrapped token
// representation, 1:1 backed, on behalf of the vault's custody account.
type NativeWrapper interface {
	Wrap(amount *big.Int) error
	Unwrap(amount *big.Int) error
}

// FlashBorrower receives flash-loaned funds and must return both the loan
// and the fee to the vault before its callback returns, acknowledging the
// terms with FlashLoanAck.
type FlashBorrower interface {
	Address() crypto.Address
	OnFlashLoan(initiator crypto.Address, asset Asset, amount, fee *big.Int, data []byte) ([32]byte, error)
}

type ledgerEvent struct {
	evt *types.Event
}

func (e ledgerEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e ledgerEvent) Event() *types.Event { return e.evt }

// Engine orchestrates deposit, withdraw and flash-loan flows across the
// valuation engine, share ledger and account store.
//
// Every entry point validates and computes first, performs external calls
// second and commits state writes last, so a failure at any stage leaves the
// persisted ledger exactly as before the call.
type Engine struct {
	state         EngineState
	moduleAddress crypto.Address
	dustAddress   crypto.Address
	configurer    crypto.Address
	reference     Asset
	wrappedNative Asset
	feeRateBps    uint64
	valuator      *Valuator
	oracle        *OracleAdapter
	tokens        map[Asset]Token
	shares        ShareToken
	wrapper       NativeWrapper
	latch         nativecommon.Latch
	pauses        nativecommon.PauseView
	emitter       events.Emitter
	telemetry     *metrics.VaultMetrics
}

// NewEngine constructs a vault engine custodying pooled assets under
// moduleAddr and accepting administrative calls only from configurer.
func NewEngine(moduleAddr, configurer crypto.Address, reference, wrappedNative Asset) *Engine {
	return &Engine{
		moduleAddress: moduleAddr,
		dustAddress:   crypto.ModuleAddress("vault/dust"),
		configurer:    configurer,
		reference:     reference,
		wrappedNative: wrappedNative,
		tokens:        make(map[Asset]Token),
		emitter:       events.NoopEmitter{},
		telemetry:     metrics.Vault(),
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state EngineState) { e.state = state }

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetValuator configures the valuation engine used for deposits and price
// inversion on withdrawals.
func (e *Engine) SetValuator(v *Valuator) {
	if e == nil {
		return
	}
	e.valuator = v
}

// SetOracle wires the price-feed registry mutated through SetPriceFeed.
func (e *Engine) SetOracle(o *OracleAdapter) {
	if e == nil {
		return
	}
	e.oracle = o
}

// SetShareToken wires the fungible share token.
func (e *Engine) SetShareToken(shares ShareToken) {
	if e == nil {
		return
	}
	e.shares = shares
}

// SetWrapper wires the native-currency wrapping facility.
func (e *Engine) SetWrapper(w NativeWrapper) {
	if e == nil {
		return
	}
	e.wrapper = w
}

// RegisterToken associates an asset identifier with its token adapter.
func (e *Engine) RegisterToken(asset Asset, token Token) {
	if e == nil || asset == "" || token == nil {
		return
	}
	e.tokens[asset] = token
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

// FeeRateBps returns the current flash-loan fee rate.
func (e *Engine) FeeRateBps() uint64 {
	if e == nil {
		return 0
	}
	return e.feeRateBps
}

// ModuleAddress returns the vault's custody account.
func (e *Engine) ModuleAddress() crypto.Address {
	return e.moduleAddress
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(ledgerEvent{evt: event})
}

func (e *Engine) token(asset Asset) (Token, error) {
	if token, ok := e.tokens[asset]; ok && token != nil {
		return token, nil
	}
	return nil, errNilToken
}

func (e *Engine) loadAccount(addr crypto.Address) (*types.Account, error) {
	account, err := e.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return account.Normalize(), nil
}

// Deposit pulls amount of asset from payer, values it in reference-asset
// terms per the receiver's swap preference, mints shares to the receiver and
// records the held-asset balance. It returns the minted share amount.
//
// For the native-currency sentinel the payer's native balance funds the
// deposit and the amount is wrapped before valuation.
func (e *Engine) Deposit(payer, receiver crypto.Address, asset Asset, amount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if err := e.latch.Enter("deposit"); err != nil {
		return nil, err
	}
	defer e.latch.Exit()
	if e.shares == nil {
		return nil, errNilShares
	}
	if e.valuator == nil {
		return nil, errNilValuator
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	account, err := e.ensureUserAccount(receiver)
	if err != nil {
		return nil, err
	}
	useSwap := account.SwapEnabled

	depositAsset := asset
	if asset == NativeAsset {
		if e.wrapper == nil {
			return nil, errNilWrapper
		}
		depositAsset = e.wrappedNative
	}
	var token Token
	if asset != NativeAsset {
		token, err = e.token(asset)
		if err != nil {
			return nil, err
		}
	}

	ledger, err := e.state.GetLedger()
	if err != nil {
		return nil, err
	}
	ledger = ledger.Normalize()

	// Oracle and identity valuation have no side effects, so they run
	// before any transfer: a missing feed, a worthless amount or an
	// undersized bootstrap deposit aborts with nothing moved. Swap-mode
	// valuation executes the conversion and can only run once the pulled
	// funds are in custody.
	var value *big.Int
	heldAsset := depositAsset
	if !useSwap || depositAsset == e.reference {
		value, heldAsset, err = e.valuator.Valuate(depositAsset, amount, false, e.moduleAddress)
		if err != nil {
			return nil, err
		}
		if value.Sign() <= 0 {
			return nil, ErrInvalidAmount
		}
		if ledger.TotalShares.Sign() == 0 && value.Cmp(big.NewInt(MinimumShareBurn)) <= 0 {
			return nil, ErrInsufficientInitialDeposit
		}
	} else if ledger.TotalShares.Sign() == 0 {
		// A swap conversion cannot be undone, so a bootstrap deposit is
		// screened against the exchange's guaranteed execution floor
		// before funds move. Any conversion that executes pays at least
		// the floor, so a deposit passing this check cannot fall under
		// the bootstrap minimum afterwards.
		floor, err := e.valuator.EstimateFloor(depositAsset, amount)
		if err != nil {
			return nil, err
		}
		if floor.Cmp(big.NewInt(MinimumShareBurn)) <= 0 {
			return nil, ErrInsufficientInitialDeposit
		}
	}

	var payerAccount *types.Account
	if asset == NativeAsset {
		payerAccount, err = e.loadAccount(payer)
		if err != nil {
			return nil, err
		}
		// The native debit stands in for the exact-value transfer: the
		// full amount must be available up front.
		if payerAccount.BalanceNative.Cmp(amount) < 0 {
			return nil, errInsufficientBalance
		}
		payerAccount.BalanceNative = new(big.Int).Sub(payerAccount.BalanceNative, amount)
		if err := e.wrapper.Wrap(amount); err != nil {
			return nil, err
		}
	} else {
		if err := token.TransferFrom(payer, e.moduleAddress, amount); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrTransferFailed, err)
		}
	}

	if value == nil {
		value, heldAsset, err = e.valuator.Valuate(depositAsset, amount, true, e.moduleAddress)
		if err != nil {
			return nil, e.refundDeposit(payer, asset, amount, err)
		}
	}

	minted, dust, err := mintShares(ledger, value)
	if err != nil {
		// Swap-mode custody has already converted into the reference
		// asset, so the refund pays out what the swap delivered.
		refundAsset, refundAmount := asset, amount
		if useSwap && asset != e.reference && asset != NativeAsset {
			refundAsset, refundAmount = e.reference, value
		}
		return nil, e.refundDeposit(payer, refundAsset, refundAmount, err)
	}
	if err := e.shares.Mint(receiver, minted); err != nil {
		return nil, err
	}
	if dust.Sign() > 0 {
		if err := e.shares.Mint(e.dustAddress, dust); err != nil {
			return nil, err
		}
	}

	// Swap-mode deposits hold the reference asset, so bookkeeping keys on
	// the post-conversion asset and records the reference amount.
	recorded := amount
	if useSwap {
		recorded = value
	}
	recordDeposit(account, heldAsset, recorded)

	if err := e.state.PutLedger(ledger); err != nil {
		return nil, err
	}
	if err := e.state.PutUserAccount(account); err != nil {
		return nil, err
	}
	if payerAccount != nil {
		if err := e.state.PutAccount(payer, payerAccount); err != nil {
			return nil, err
		}
	}

	mode := "oracle"
	if useSwap {
		mode = "swap"
	}
	e.telemetry.ObserveDeposit(mode)
	e.telemetry.SetTotals(ledger.TotalTrackedValue, ledger.TotalShares)
	e.emit(NewDepositedEvent(payer, receiver, asset, value, minted))
	return minted, nil
}

// refundDeposit returns pulled funds to the payer after a post-transfer
// failure, so an aborted deposit strands nothing in module custody. The
// native debit is never persisted on failure, so the native path only
// unwinds the wrap. The original failure is returned, annotated if the
// refund itself is rejected.
func (e *Engine) refundDeposit(payer crypto.Address, asset Asset, amount *big.Int, cause error) error {
	if asset == NativeAsset {
		if err := e.wrapper.Unwrap(amount); err != nil {
			return fmt.Errorf("%w: refund rejected: %s", cause, err)
		}
		return cause
	}
	token, err := e.token(asset)
	if err != nil {
		return fmt.Errorf("%w: refund rejected: %s", cause, err)
	}
	if err := token.Transfer(payer, amount); err != nil {
		return fmt.Errorf("%w: refund rejected: %s", cause, err)
	}
	return cause
}

// PermitDeposit authorises the pull via the token's signature-based permit
// before running the standard deposit flow. The native sentinel has no
// permit surface. The pause and re-entrancy checks every other entry point
// makes run before the permit call, which reaches external code.
func (e *Engine) PermitDeposit(payer, receiver crypto.Address, asset Asset, amount *big.Int, deadline time.Time, signature []byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if e.latch.Held() {
		return nil, nativecommon.ErrReentrancy
	}
	if asset == NativeAsset {
		return nil, ErrUnsupportedCurrency
	}
	token, err := e.token(asset)
	if err != nil {
		return nil, err
	}
	if err := token.Permit(payer, e.moduleAddress, amount, deadline, signature); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTransferFailed, err)
	}
	return e.Deposit(payer, receiver, asset, amount)
}

// Withdraw burns shares from owner and pays receiver in the requested asset.
// Swap-preference accounts may only request the reference asset; others may
// request the reference asset, the native currency or any oracle-priced
// asset, with the payout derived by inverting the oracle price. The paid
// amount is returned.
func (e *Engine) Withdraw(owner, receiver crypto.Address, asset Asset, shares *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if err := e.latch.Enter("withdraw"); err != nil {
		return nil, err
	}
	defer e.latch.Exit()
	if e.shares == nil {
		return nil, errNilShares
	}
	if e.valuator == nil {
		return nil, errNilValuator
	}
	if shares == nil || shares.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	balance, err := e.shares.BalanceOf(owner)
	if err != nil {
		return nil, err
	}
	if balance == nil || balance.Cmp(shares) < 0 {
		return nil, ErrInsufficientShares
	}

	account, err := e.ensureUserAccount(owner)
	if err != nil {
		return nil, err
	}

	ledger, err := e.state.GetLedger()
	if err != nil {
		return nil, err
	}
	ledger = ledger.Normalize()
	value, err := burnShares(ledger, shares)
	if err != nil {
		return nil, err
	}

	var payout *big.Int
	var bookAsset Asset
	switch {
	case account.SwapEnabled:
		if asset != e.reference {
			return nil, ErrInvalidWithdrawAsset
		}
		payout = value
		bookAsset = e.reference
	case asset == e.reference:
		payout = value
		bookAsset = e.reference
	case asset == NativeAsset:
		payout, err = e.valuator.Invert(e.wrappedNative, value)
		if err != nil {
			return nil, err
		}
		bookAsset = e.wrappedNative
	default:
		payout, err = e.valuator.Invert(asset, value)
		if err != nil {
			return nil, err
		}
		bookAsset = asset
	}

	// Bookkeeping is validated before any external transfer so a shortfall
	// aborts with nothing moved.
	if err := recordWithdraw(account, bookAsset, payout); err != nil {
		return nil, err
	}

	var receiverAccount *types.Account
	if asset == NativeAsset {
		if e.wrapper == nil {
			return nil, errNilWrapper
		}
		if err := e.wrapper.Unwrap(payout); err != nil {
			return nil, err
		}
		receiverAccount, err = e.loadAccount(receiver)
		if err != nil {
			return nil, err
		}
		receiverAccount.BalanceNative = new(big.Int).Add(receiverAccount.BalanceNative, payout)
	} else {
		token, err := e.token(asset)
		if err != nil {
			return nil, err
		}
		if err := token.Transfer(receiver, payout); err != nil {
			return nil, err
		}
	}
	if err := e.shares.Burn(owner, shares); err != nil {
		return nil, err
	}

	if err := e.state.PutLedger(ledger); err != nil {
		return nil, err
	}
	if err := e.resetIfEmpty(account); err != nil {
		return nil, err
	}
	if receiverAccount != nil {
		if err := e.state.PutAccount(receiver, receiverAccount); err != nil {
			return nil, err
		}
	}

	e.telemetry.ObserveWithdrawal()
	e.telemetry.SetTotals(ledger.TotalTrackedValue, ledger.TotalShares)
	e.emit(NewWithdrawnEvent(owner, receiver, asset, payout, shares))
	return payout, nil
}

// FlashLoan lends amount of the reference asset to the borrower for the
// duration of its callback. The pooled balance is snapshotted before the
// transfer; after the callback it must have grown by at least the fee on top
// of the returned principal. The collected fee, the sole non-deposit source
// of value growth, is added to the tracked total and returned.
func (e *Engine) FlashLoan(borrower FlashBorrower, asset Asset, amount *big.Int, data []byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if borrower == nil {
		return nil, errNilBorrower
	}
	if err := e.latch.Enter("flash_loan"); err != nil {
		return nil, err
	}
	defer e.latch.Exit()
	if asset != e.reference {
		return nil, ErrUnsupportedCurrency
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	token, err := e.token(e.reference)
	if err != nil {
		return nil, err
	}
	preBalance, err := token.BalanceOf(e.moduleAddress)
	if err != nil {
		return nil, err
	}
	if preBalance == nil || preBalance.Cmp(amount) < 0 {
		return nil, errInsufficientLiquidity
	}

	terms := FlashLoanTerms{Asset: asset, Principal: amount, FeeBps: e.feeRateBps}
	fee := terms.Fee()

	if err := token.Transfer(borrower.Address(), amount); err != nil {
		return nil, err
	}
	ack, err := borrower.OnFlashLoan(e.moduleAddress, asset, amount, fee, data)
	if err != nil {
		return nil, err
	}
	if ack != FlashLoanAck {
		return nil, ErrCallbackRejected
	}
	e.latch.Settle()

	postBalance, err := token.BalanceOf(e.moduleAddress)
	if err != nil {
		return nil, err
	}
	required := new(big.Int).Add(preBalance, fee)
	if postBalance == nil || postBalance.Cmp(required) < 0 {
		return nil, ErrLoanNotRepaid
	}

	ledger, err := e.state.GetLedger()
	if err != nil {
		return nil, err
	}
	ledger = ledger.Normalize()
	ledger.TotalTrackedValue = new(big.Int).Add(ledger.TotalTrackedValue, fee)
	if err := e.state.PutLedger(ledger); err != nil {
		return nil, err
	}

	e.telemetry.ObserveFlashLoanFee(fee)
	e.telemetry.SetTotals(ledger.TotalTrackedValue, ledger.TotalShares)
	e.emit(NewFlashLoanEvent(borrower.Address(), asset, amount, fee))
	return fee, nil
}

// --- Administrative surface, restricted to the single configurer ---

// SetFeeRate updates the flash-loan fee rate, bounded to 10%.
func (e *Engine) SetFeeRate(caller crypto.Address, bps uint64) error {
	if e == nil {
		return errNilState
	}
	if !caller.Equal(e.configurer) {
		return ErrNotConfigurer
	}
	if bps > maxFeeRateBps {
		return ErrFeeRateTooHigh
	}
	e.feeRateBps = bps
	e.emit(NewFeeRateUpdatedEvent(bps))
	return nil
}

// SetPriceFeed registers or removes the oracle feed for an asset.
func (e *Engine) SetPriceFeed(caller crypto.Address, asset Asset, feed PriceFeed) error {
	if e == nil {
		return errNilState
	}
	if !caller.Equal(e.configurer) {
		return ErrNotConfigurer
	}
	if e.oracle == nil {
		return errNilValuator
	}
	e.oracle.SetFeed(asset, feed)
	e.emit(NewPriceFeedUpdatedEvent(asset, feed == nil))
	return nil
}

// EmergencyWithdraw releases a non-reference asset from the custody account
// to the configurer. The reference asset backs outstanding shares and can
// never leave through this path.
func (e *Engine) EmergencyWithdraw(caller crypto.Address, asset Asset, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if !caller.Equal(e.configurer) {
		return ErrNotConfigurer
	}
	if asset == e.reference {
		return ErrEmergencyReference
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	token, err := e.token(asset)
	if err != nil {
		return err
	}
	if err := token.Transfer(e.configurer, amount); err != nil {
		return err
	}
	e.emit(NewEmergencyWithdrawalEvent(asset, amount, e.configurer))
	return nil
}
