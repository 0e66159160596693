package common

import (
	"errors"
	"testing"
)

func TestLatchBlocksNestedEntry(t *testing.T) {
	var latch Latch
	if err := latch.Enter("deposit"); err != nil {
		t.Fatalf("enter: %v", err)
	}
	if err := latch.Enter("withdraw"); !errors.Is(err, ErrReentrancy) {
		t.Fatalf("expected ErrReentrancy, got %v", err)
	}
	if got := latch.Flow(); got != "deposit" {
		t.Fatalf("flow %q, want the original entry", got)
	}

	latch.Exit()
	if latch.Held() {
		t.Fatalf("latch still held after exit")
	}
	if err := latch.Enter("withdraw"); err != nil {
		t.Fatalf("reenter after exit: %v", err)
	}
}

func TestLatchSettlePhaseStillBlocks(t *testing.T) {
	var latch Latch
	if err := latch.Enter("flash_loan"); err != nil {
		t.Fatalf("enter: %v", err)
	}
	latch.Settle()
	if !latch.Held() {
		t.Fatalf("settling latch must still be held")
	}
	if err := latch.Enter("deposit"); !errors.Is(err, ErrReentrancy) {
		t.Fatalf("expected ErrReentrancy during settlement, got %v", err)
	}
	latch.Exit()
	if latch.Held() {
		t.Fatalf("latch still held after exit")
	}
}

func TestNilLatchIsInert(t *testing.T) {
	var latch *Latch
	if err := latch.Enter("x"); err != nil {
		t.Fatalf("nil latch enter: %v", err)
	}
	latch.Settle()
	latch.Exit()
	if latch.Held() {
		t.Fatalf("nil latch reports held")
	}
}
