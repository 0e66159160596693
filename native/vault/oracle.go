package vault

import (
	"math/big"
	"sync"
	"time"
)

// PriceFeed resolves the most recent price report for an asset, expressed in
// reference-asset terms. Decimals describes the precision of the reported
// price; the adapter normalises every report to the ledger's 18-decimal
// scale.
type PriceFeed interface {
	LatestPrice(asset Asset) (price *big.Int, decimals uint8, updatedAt time.Time, err error)
}

// OracleAdapter owns the asset-to-feed registry and applies the validation
// every consumer relies on: positive prices, bounded report age and uniform
// 18-decimal precision. Feed registration is gated on the configurer at the
// engine layer; absence of a feed simply means the asset is unsupported.
type OracleAdapter struct {
	mu     sync.RWMutex
	feeds  map[Asset]PriceFeed
	maxAge time.Duration
	now    func() time.Time
}

// NewOracleAdapter constructs an adapter enforcing the supplied freshness
// window. A zero maxAge disables staleness checks.
func NewOracleAdapter(maxAge time.Duration) *OracleAdapter {
	return &OracleAdapter{
		feeds:  make(map[Asset]PriceFeed),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// SetClock overrides the time source. Useful in tests.
func (o *OracleAdapter) SetClock(now func() time.Time) {
	if o == nil || now == nil {
		return
	}
	o.mu.Lock()
	o.now = now
	o.mu.Unlock()
}

// SetFeed registers or replaces the price feed for an asset. A nil feed
// removes the registration.
func (o *OracleAdapter) SetFeed(asset Asset, feed PriceFeed) {
	if o == nil || asset == "" {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if feed == nil {
		delete(o.feeds, asset)
		return
	}
	o.feeds[asset] = feed
}

// HasFeed reports whether a feed is registered for the asset.
func (o *OracleAdapter) HasFeed(asset Asset) bool {
	if o == nil {
		return false
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.feeds[asset]
	return ok
}

// Price returns the asset's price normalised to 1e18 fixed point. It fails
// with ErrOracleUnavailable when no feed is registered, ErrInvalidPrice for
// non-positive reports and ErrStalePrice for reports older than the
// freshness window.
func (o *OracleAdapter) Price(asset Asset) (*big.Int, error) {
	if o == nil {
		return nil, ErrOracleUnavailable
	}
	o.mu.RLock()
	feed := o.feeds[asset]
	maxAge := o.maxAge
	now := o.now
	o.mu.RUnlock()

	if feed == nil {
		return nil, ErrOracleUnavailable
	}
	price, decimals, updatedAt, err := feed.LatestPrice(asset)
	if err != nil {
		return nil, err
	}
	if price == nil || price.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	if maxAge > 0 && now().Sub(updatedAt) > maxAge {
		return nil, ErrStalePrice
	}
	return normalizePrice(price, decimals), nil
}

// normalizePrice rescales a feed report to the ledger's 18-decimal fixed
// point: price * 10^(18-decimals). Reports above 18 decimals are floored
// down to scale.
func normalizePrice(price *big.Int, decimals uint8) *big.Int {
	normalized := new(big.Int).Set(price)
	switch {
	case decimals < 18:
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(18-decimals)), nil)
		normalized.Mul(normalized, scale)
	case decimals > 18:
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals-18)), nil)
		normalized.Quo(normalized, scale)
	}
	return normalized
}
