package vault

import (
	"errors"
	"math/big"
	"testing"
	"time"
)

func TestOracleNormalisesLowPrecisionFeeds(t *testing.T) {
	adapter := NewOracleAdapter(5 * time.Minute)
	base := time.Unix(1_700_000_000, 0)
	adapter.SetClock(func() time.Time { return base })
	adapter.SetFeed(testAltAsset, &stubFeed{price: big.NewInt(2_000_000), decimals: 6, at: base})

	price, err := adapter.Price(testAltAsset)
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	want := new(big.Int).Mul(big.NewInt(2), oneE18)
	if price.Cmp(want) != 0 {
		t.Fatalf("normalised price %s, want %s", price, want)
	}
}

func TestOracleFloorsHighPrecisionFeeds(t *testing.T) {
	adapter := NewOracleAdapter(0)
	base := time.Unix(1_700_000_000, 0)
	adapter.SetClock(func() time.Time { return base })
	// 1.5 at 20 decimals plus a sub-scale remainder that must floor away.
	reported := new(big.Int).Mul(big.NewInt(150), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	reported.Add(reported, big.NewInt(99))
	adapter.SetFeed(testAltAsset, &stubFeed{price: reported, decimals: 20, at: base})

	price, err := adapter.Price(testAltAsset)
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	want := new(big.Int).Mul(big.NewInt(15), new(big.Int).Exp(big.NewInt(10), big.NewInt(17), nil))
	if price.Cmp(want) != 0 {
		t.Fatalf("normalised price %s, want %s", price, want)
	}
}

func TestOracleRejectsStaleReports(t *testing.T) {
	adapter := NewOracleAdapter(time.Minute)
	base := time.Unix(1_700_000_000, 0)
	adapter.SetClock(func() time.Time { return base })
	adapter.SetFeed(testAltAsset, &stubFeed{price: oneE18, decimals: 18, at: base.Add(-2 * time.Minute)})

	if _, err := adapter.Price(testAltAsset); !errors.Is(err, ErrStalePrice) {
		t.Fatalf("expected ErrStalePrice, got %v", err)
	}

	// A zero window disables the check entirely.
	open := NewOracleAdapter(0)
	open.SetClock(func() time.Time { return base })
	open.SetFeed(testAltAsset, &stubFeed{price: oneE18, decimals: 18, at: base.Add(-24 * time.Hour)})
	if _, err := open.Price(testAltAsset); err != nil {
		t.Fatalf("ageless adapter rejected old report: %v", err)
	}
}

func TestOracleRejectsNonPositivePrices(t *testing.T) {
	adapter := NewOracleAdapter(0)
	adapter.SetFeed(testAltAsset, &stubFeed{price: big.NewInt(0), decimals: 18, at: time.Now()})
	if _, err := adapter.Price(testAltAsset); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice for zero, got %v", err)
	}

	adapter.SetFeed(testAltAsset, &stubFeed{price: big.NewInt(-5), decimals: 18, at: time.Now()})
	if _, err := adapter.Price(testAltAsset); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice for negative, got %v", err)
	}
}

func TestOracleMissingFeed(t *testing.T) {
	adapter := NewOracleAdapter(0)
	if _, err := adapter.Price(testAltAsset); !errors.Is(err, ErrOracleUnavailable) {
		t.Fatalf("expected ErrOracleUnavailable, got %v", err)
	}
	adapter.SetFeed(testAltAsset, freshFeed(oneE18))
	if !adapter.HasFeed(testAltAsset) {
		t.Fatalf("feed not registered")
	}
	adapter.SetFeed(testAltAsset, nil)
	if adapter.HasFeed(testAltAsset) {
		t.Fatalf("nil feed must remove the registration")
	}
}
