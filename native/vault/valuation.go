package vault

import (
	"math/big"

	"vaultd/crypto"
)

// oneE18 is the ledger's fixed-point scale.
var oneE18 = big.NewInt(1_000_000_000_000_000_000)

// basisPoints is the denominator for all bps fee arithmetic.
var basisPoints = big.NewInt(10_000)

// Valuator converts deposited asset amounts into reference-asset terms,
// routing through the exchange when the depositor's swap preference is on
// and through the oracle otherwise.
type Valuator struct {
	reference Asset
	oracle    *OracleAdapter
	exchange  *ExchangeAdapter
}

// NewValuator wires the valuation engine to its adapters.
func NewValuator(reference Asset, oracle *OracleAdapter, exchange *ExchangeAdapter) *Valuator {
	return &Valuator{reference: reference, oracle: oracle, exchange: exchange}
}

// Valuate converts amount of asset into reference-asset terms and reports
// the asset actually held afterwards. In swap mode the deposit is converted
// on the exchange and the reference asset becomes the held asset, so
// downstream balance bookkeeping must key on the returned asset rather than
// the deposited one. In oracle mode the value is amount * price / 1e18 and
// the deposited asset remains held.
func (v *Valuator) Valuate(asset Asset, amount *big.Int, useSwap bool, custodian crypto.Address) (*big.Int, Asset, error) {
	if v == nil {
		return nil, asset, errNilValuator
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, asset, ErrInvalidAmount
	}
	if asset == v.reference {
		return new(big.Int).Set(amount), asset, nil
	}
	if useSwap {
		received, err := v.exchange.Convert(asset, v.reference, custodian, amount)
		if err != nil {
			return nil, asset, err
		}
		return received, v.reference, nil
	}
	price, err := v.oracle.Price(asset)
	if err != nil {
		return nil, asset, err
	}
	value := new(big.Int).Mul(amount, price)
	return value.Quo(value, oneE18), asset, nil
}

// EstimateFloor reports the minimum reference-asset value a swap-mode
// conversion of amount is guaranteed to produce, without executing it.
// Conversions paying out less than this floor are rejected by the exchange
// adapter, so callers can screen a swap deposit before committing funds.
func (v *Valuator) EstimateFloor(asset Asset, amount *big.Int) (*big.Int, error) {
	if v == nil {
		return nil, errNilValuator
	}
	if asset == v.reference {
		return new(big.Int).Set(amount), nil
	}
	return v.exchange.Floor(asset, v.reference, amount)
}

// Invert converts a reference-asset value back into asset terms using the
// oracle price: value * 1e18 / price. Precision loss for very small amounts
// floors toward zero, an accepted rounding loss rather than an error.
func (v *Valuator) Invert(asset Asset, value *big.Int) (*big.Int, error) {
	if v == nil {
		return nil, errNilValuator
	}
	if asset == v.reference {
		return new(big.Int).Set(value), nil
	}
	price, err := v.oracle.Price(asset)
	if err != nil {
		return nil, err
	}
	out := new(big.Int).Mul(value, oneE18)
	return out.Quo(out, price), nil
}

// Reference returns the asset in which tracked value is denominated.
func (v *Valuator) Reference() Asset {
	if v == nil {
		return ""
	}
	return v.reference
}
