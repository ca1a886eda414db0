// Package access gates the admin surface behind the shared passcode.
package access

import (
	"crypto/subtle"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Gate checks admin passcode attempts. Attempts are rate limited per
// caller so the four-digit code cannot be walked by brute force.
type Gate struct {
	passcode string
	logger   zerolog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewGate creates a passcode gate. An empty passcode locks the admin
// surface entirely.
func NewGate(passcode string, logger zerolog.Logger) *Gate {
	return &Gate{
		passcode: passcode,
		logger:   logger.With().Str("component", "access").Logger(),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Check verifies an attempt from the given caller (remote address).
// It returns false both for a wrong passcode and for a rate-limited
// caller.
func (g *Gate) Check(caller, attempt string) bool {
	if g.passcode == "" {
		return false
	}
	if !g.limiter(caller).Allow() {
		g.logger.Warn().Str("caller", caller).Msg("passcode attempts rate limited")
		return false
	}
	if subtle.ConstantTimeCompare([]byte(attempt), []byte(g.passcode)) != 1 {
		g.logger.Warn().Str("caller", caller).Msg("wrong passcode")
		return false
	}
	return true
}

// Verify checks an already-authenticated request's passcode header
// without burning rate-limit budget.
func (g *Gate) Verify(attempt string) bool {
	if g.passcode == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(attempt), []byte(g.passcode)) == 1
}

const (
	attemptBurst = 5

	// Once the map grows past this, callers whose limiter is back at
	// full burst are evicted, bounding the map by active callers.
	maxTrackedCallers = 1024
)

// 1 attempt per 2 seconds with a small burst.
func (g *Gate) limiter(caller string) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.limiters[caller]
	if !ok {
		if len(g.limiters) >= maxTrackedCallers {
			g.evictIdleLocked(caller)
		}
		l = rate.NewLimiter(rate.Limit(0.5), attemptBurst)
		g.limiters[caller] = l
	}
	return l
}

func (g *Gate) evictIdleLocked(keep string) {
	for addr, l := range g.limiters {
		if addr != keep && l.Tokens() >= attemptBurst {
			delete(g.limiters, addr)
		}
	}
}
