package bls

import (
	"testing"
	"time"
)

func TestBudgetSpend(t *testing.T) {
	b := NewBudget(2)

	if !b.Spend() || !b.Spend() {
		t.Fatal("first two spends must succeed")
	}
	if b.Spend() {
		t.Error("third spend must fail on a budget of 2")
	}
	if got := b.Remaining(); got != 0 {
		t.Errorf("Remaining() = %d, want 0", got)
	}
}

func TestBudgetUnlimited(t *testing.T) {
	var b *Budget
	if !b.Spend() {
		t.Error("nil budget must never block")
	}
	if got := b.Remaining(); got != -1 {
		t.Errorf("nil Remaining() = %d, want -1", got)
	}

	zero := NewBudget(0)
	if !zero.Spend() {
		t.Error("zero-limit budget must never block")
	}
}

func TestBudgetMidnightReset(t *testing.T) {
	b := NewBudget(1)
	if !b.Spend() {
		t.Fatal("first spend must succeed")
	}
	if b.Spend() {
		t.Fatal("budget must be exhausted")
	}

	b.resetTime = time.Now().Add(-time.Minute)
	if !b.Spend() {
		t.Error("budget must refill after the reset time passes")
	}
}
