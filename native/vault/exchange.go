package vault

import (
	"math/big"
	"time"

	"vaultd/crypto"
)

// Exchange is the boundary to the external venue used for swap-mode
// deposits. PoolFor resolves the venue's pool for a pair and fee tier,
// CurrentSqrtPrice reports the pool's spot price in Q64.96 square-root form
// and ExecuteSwap performs the conversion, returning the amount actually
// received.
type Exchange interface {
	PoolFor(assetIn, assetOut Asset, feePips uint32) (string, error)
	CurrentSqrtPrice(pool string) (*big.Int, error)
	ExecuteSwap(assetIn, assetOut Asset, recipient crypto.Address, deadline time.Time, amountIn, minOut *big.Int) (*big.Int, error)
}

// slippageToleranceBps is the fixed downward tolerance applied to exchange
// estimates when deriving the execution floor.
const slippageToleranceBps = 500

// swapDeadline bounds how long a submitted conversion stays valid.
const swapDeadline = 5 * time.Minute

// q192 is 2^192, the divisor converting a squared Q64.96 price into a plain
// ratio.
var q192 = new(big.Int).Lsh(big.NewInt(1), 192)

// ExchangeAdapter wraps the external exchange with the ledger's estimation
// and slippage policy.
type ExchangeAdapter struct {
	exchange Exchange
	feePips  uint32
	now      func() time.Time
}

// NewExchangeAdapter constructs an adapter targeting the given fee tier.
func NewExchangeAdapter(exchange Exchange, feePips uint32) *ExchangeAdapter {
	return &ExchangeAdapter{exchange: exchange, feePips: feePips, now: time.Now}
}

// SetClock overrides the time source used for swap deadlines.
func (x *ExchangeAdapter) SetClock(now func() time.Time) {
	if x == nil || now == nil {
		return
	}
	x.now = now
}

// EstimateOut projects the output amount for amountIn at the pool's current
// spot price: amountIn * sqrtPriceX96^2 / 2^192, floored.
func (x *ExchangeAdapter) EstimateOut(pool string, amountIn *big.Int) (*big.Int, error) {
	if x == nil || x.exchange == nil {
		return nil, ErrPoolUnavailable
	}
	sqrtPrice, err := x.exchange.CurrentSqrtPrice(pool)
	if err != nil {
		return nil, err
	}
	if sqrtPrice == nil || sqrtPrice.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	out := new(big.Int).Mul(sqrtPrice, sqrtPrice)
	out.Mul(out, amountIn)
	return out.Quo(out, q192), nil
}

// Floor computes the guaranteed minimum output of a conversion, the spot
// estimate less the fixed slippage tolerance, without touching the venue.
func (x *ExchangeAdapter) Floor(assetIn, assetOut Asset, amountIn *big.Int) (*big.Int, error) {
	if x == nil || x.exchange == nil {
		return nil, ErrPoolUnavailable
	}
	pool, err := x.exchange.PoolFor(assetIn, assetOut, x.feePips)
	if err != nil || pool == "" {
		return nil, ErrPoolUnavailable
	}
	estimate, err := x.EstimateOut(pool, amountIn)
	if err != nil {
		return nil, err
	}
	minOut := new(big.Int).Mul(estimate, big.NewInt(10_000-slippageToleranceBps))
	return minOut.Quo(minOut, basisPoints), nil
}

// Convert swaps amountIn of assetIn into assetOut for the recipient. The
// execution floor sits a fixed 5% below the spot estimate; the amount
// actually received is returned, never the estimate. Fails with
// ErrPoolUnavailable when the venue has no pool for the pair.
func (x *ExchangeAdapter) Convert(assetIn, assetOut Asset, recipient crypto.Address, amountIn *big.Int) (*big.Int, error) {
	if x == nil || x.exchange == nil {
		return nil, ErrPoolUnavailable
	}
	pool, err := x.exchange.PoolFor(assetIn, assetOut, x.feePips)
	if err != nil || pool == "" {
		return nil, ErrPoolUnavailable
	}
	estimate, err := x.EstimateOut(pool, amountIn)
	if err != nil {
		return nil, err
	}
	minOut := new(big.Int).Mul(estimate, big.NewInt(10_000-slippageToleranceBps))
	minOut.Quo(minOut, basisPoints)
	deadline := x.now().Add(swapDeadline)
	received, err := x.exchange.ExecuteSwap(assetIn, assetOut, recipient, deadline, amountIn, minOut)
	if err != nil {
		return nil, err
	}
	if received == nil || received.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	return received, nil
}
