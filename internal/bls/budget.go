package bls

import (
	"sync"
	"time"
)

// Budget tracks a local daily request allowance as a first line of defense
// before the server reports its own threshold. A limit of 0 disables local
// tracking entirely.
type Budget struct {
	mu         sync.Mutex
	dailyLimit int
	totalCalls int
	resetTime  time.Time
}

// NewBudget creates a budget that resets at local midnight.
func NewBudget(dailyLimit int) *Budget {
	return &Budget{
		dailyLimit: dailyLimit,
		resetTime:  nextMidnight(time.Now()),
	}
}

// Spend consumes one call from the budget. It returns false when the
// allowance for the current day is exhausted.
func (b *Budget) Spend() bool {
	if b == nil || b.dailyLimit <= 0 {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if now := time.Now(); now.After(b.resetTime) {
		b.totalCalls = 0
		b.resetTime = nextMidnight(now)
	}

	if b.totalCalls >= b.dailyLimit {
		return false
	}
	b.totalCalls++
	return true
}

// Remaining returns how many calls are left today. Unlimited budgets
// report -1.
func (b *Budget) Remaining() int {
	if b == nil || b.dailyLimit <= 0 {
		return -1
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	remaining := b.dailyLimit - b.totalCalls
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func nextMidnight(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
}
