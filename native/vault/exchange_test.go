package vault

import (
	"errors"
	"math/big"
	"testing"
)

func TestEstimateOutAtUnitPrice(t *testing.T) {
	venue := &stubExchange{pool: "p", sqrtPrice: new(big.Int).Lsh(big.NewInt(1), 96)}
	adapter := NewExchangeAdapter(venue, 3000)

	out, err := adapter.EstimateOut("p", big.NewInt(12_345))
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if out.Cmp(big.NewInt(12_345)) != 0 {
		t.Fatalf("unit price estimate %s, want input back", out)
	}
}

func TestEstimateOutSquaresSqrtPrice(t *testing.T) {
	// sqrtPrice = 2 * 2^96 encodes a spot price of 4.
	venue := &stubExchange{pool: "p", sqrtPrice: new(big.Int).Lsh(big.NewInt(2), 96)}
	adapter := NewExchangeAdapter(venue, 3000)

	out, err := adapter.EstimateOut("p", big.NewInt(1_000))
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if out.Cmp(big.NewInt(4_000)) != 0 {
		t.Fatalf("estimate %s, want 4000", out)
	}
}

func TestConvertAppliesSlippageFloor(t *testing.T) {
	venue := &stubExchange{
		pool:      "p",
		sqrtPrice: new(big.Int).Lsh(big.NewInt(1), 96),
		out:       big.NewInt(9_600),
	}
	adapter := NewExchangeAdapter(venue, 3000)

	received, err := adapter.Convert(testAltAsset, testReference, testAddr(1), big.NewInt(10_000))
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if received.Cmp(big.NewInt(9_600)) != 0 {
		t.Fatalf("received %s, want the venue's actual output", received)
	}
	if venue.lastMinOut.Cmp(big.NewInt(9_500)) != 0 {
		t.Fatalf("execution floor %s, want 9500", venue.lastMinOut)
	}
}

func TestConvertNoPool(t *testing.T) {
	venue := &stubExchange{sqrtPrice: new(big.Int).Lsh(big.NewInt(1), 96)}
	adapter := NewExchangeAdapter(venue, 3000)

	_, err := adapter.Convert(testAltAsset, testReference, testAddr(1), big.NewInt(100))
	if !errors.Is(err, ErrPoolUnavailable) {
		t.Fatalf("expected ErrPoolUnavailable, got %v", err)
	}
}

func TestConvertRejectsNonPositivePrice(t *testing.T) {
	venue := &stubExchange{pool: "p", sqrtPrice: big.NewInt(0)}
	adapter := NewExchangeAdapter(venue, 3000)

	_, err := adapter.Convert(testAltAsset, testReference, testAddr(1), big.NewInt(100))
	if !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
}
