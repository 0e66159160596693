package vault

import (
	"errors"
	"math/big"
	"testing"
)

func TestMintSharesBootstrap(t *testing.T) {
	ledger := (&LedgerState{}).Normalize()

	_, _, err := mintShares(ledger, big.NewInt(MinimumShareBurn))
	if !errors.Is(err, ErrInsufficientInitialDeposit) {
		t.Fatalf("expected ErrInsufficientInitialDeposit, got %v", err)
	}

	minted, dust, err := mintShares(ledger, big.NewInt(MinimumShareBurn+7))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if minted.Cmp(big.NewInt(7)) != 0 {
		t.Fatalf("minted %s, want 7", minted)
	}
	if dust.Cmp(big.NewInt(MinimumShareBurn)) != 0 {
		t.Fatalf("dust %s, want the minimum burn", dust)
	}
	if ledger.TotalShares.Cmp(big.NewInt(MinimumShareBurn+7)) != 0 {
		t.Fatalf("total shares %s", ledger.TotalShares)
	}
}

func TestMintSharesUsesPreUpdateTotals(t *testing.T) {
	ledger := &LedgerState{
		TotalTrackedValue: big.NewInt(10_000),
		TotalShares:       big.NewInt(10_000),
	}
	minted, dust, err := mintShares(ledger, big.NewInt(5_000))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if minted.Cmp(big.NewInt(5_000)) != 0 {
		t.Fatalf("minted %s, want 5000", minted)
	}
	if dust.Sign() != 0 {
		t.Fatalf("no dust expected past bootstrap, got %s", dust)
	}
	if ledger.TotalTrackedValue.Cmp(big.NewInt(15_000)) != 0 {
		t.Fatalf("tracked value %s, want 15000", ledger.TotalTrackedValue)
	}
}

func TestMintSharesFloorsInFavourOfPool(t *testing.T) {
	ledger := &LedgerState{
		TotalTrackedValue: big.NewInt(3_001),
		TotalShares:       big.NewInt(3_000),
	}
	minted, _, err := mintShares(ledger, big.NewInt(10))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	// 10 * 3000 / 3001 floors to 9.
	if minted.Cmp(big.NewInt(9)) != 0 {
		t.Fatalf("minted %s, want 9", minted)
	}
}

func TestBurnSharesProportional(t *testing.T) {
	ledger := &LedgerState{
		TotalTrackedValue: big.NewInt(15_000),
		TotalShares:       big.NewInt(10_000),
	}
	value, err := burnShares(ledger, big.NewInt(2_000))
	if err != nil {
		t.Fatalf("burn: %v", err)
	}
	if value.Cmp(big.NewInt(3_000)) != 0 {
		t.Fatalf("value %s, want 3000", value)
	}
	if ledger.TotalShares.Cmp(big.NewInt(8_000)) != 0 {
		t.Fatalf("total shares %s", ledger.TotalShares)
	}
	if ledger.TotalTrackedValue.Cmp(big.NewInt(12_000)) != 0 {
		t.Fatalf("tracked value %s", ledger.TotalTrackedValue)
	}
}

func TestBurnSharesBeyondSupply(t *testing.T) {
	ledger := &LedgerState{
		TotalTrackedValue: big.NewInt(100),
		TotalShares:       big.NewInt(100),
	}
	if _, err := burnShares(ledger, big.NewInt(101)); !errors.Is(err, ErrInsufficientShares) {
		t.Fatalf("expected ErrInsufficientShares, got %v", err)
	}
	if _, err := burnShares(ledger, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
