package vaultstore

import "github.com/xvault-labs/xvault-core/internal/xvaulterr"

// RateLimiter is a process-wide rate limiter: a current round key plus
// a per-address mutating-operation counter, reset whenever a new round
// key is observed. It is mutated only by Enforce.
type RateLimiter struct {
	currentRoundKey string
	perAddressCount map[string]int
	limit           int
}

// NewRateLimiter returns a limiter allowing up to limit mutating
// operations per address per round key.
func NewRateLimiter(limit int) *RateLimiter {
	return &RateLimiter{perAddressCount: make(map[string]int), limit: limit}
}

// Enforce increments actor's counter for roundKey, resetting every
// counter first if roundKey differs from the round currently tracked,
// so only one round's counters live at a time. It returns
// RateLimitExceeded once actor's count for this round would exceed the
// configured limit.
func (r *RateLimiter) Enforce(actor, roundKey string) error {
	if roundKey != r.currentRoundKey {
		r.currentRoundKey = roundKey
		r.perAddressCount = make(map[string]int)
	}
	if r.perAddressCount[actor] >= r.limit {
		return xvaulterr.New(xvaulterr.RateLimitExceeded, "rate limit exceeded for this round")
	}
	r.perAddressCount[actor]++
	return nil
}
