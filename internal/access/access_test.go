package access

import (
	"fmt"
	"io"
	"testing"

	"github.com/rs/zerolog"
)

func newTestGate(passcode string) *Gate {
	return NewGate(passcode, zerolog.New(io.Discard))
}

func TestCheck(t *testing.T) {
	g := newTestGate("1234")

	if !g.Check("10.0.0.1", "1234") {
		t.Error("correct passcode must pass")
	}
	if g.Check("10.0.0.1", "0000") {
		t.Error("wrong passcode must fail")
	}
	if g.Check("10.0.0.1", "") {
		t.Error("empty attempt must fail")
	}
}

func TestCheckRateLimitsPerCaller(t *testing.T) {
	g := newTestGate("1234")

	// Exhaust the burst with wrong attempts.
	for i := 0; i < 5; i++ {
		g.Check("10.0.0.1", "0000")
	}
	if g.Check("10.0.0.1", "1234") {
		t.Error("caller over budget must be rejected even with the right passcode")
	}

	// A different caller is unaffected.
	if !g.Check("10.0.0.2", "1234") {
		t.Error("rate limit must be per caller")
	}
}

func TestEmptyPasscodeLocksGate(t *testing.T) {
	g := newTestGate("")

	if g.Check("10.0.0.1", "") {
		t.Error("empty configured passcode must lock the gate")
	}
	if g.Verify("") {
		t.Error("empty configured passcode must lock verification")
	}
}

func TestIdleLimitersAreEvicted(t *testing.T) {
	g := newTestGate("1234")

	for i := 0; i < maxTrackedCallers+100; i++ {
		g.limiter(fmt.Sprintf("10.%d.%d.%d", i/65536, i/256%256, i%256))
	}

	g.mu.Lock()
	n := len(g.limiters)
	g.mu.Unlock()
	if n > maxTrackedCallers+1 {
		t.Errorf("limiter map grew to %d entries, want at most %d", n, maxTrackedCallers+1)
	}
}

func TestEvictionKeepsActiveCallers(t *testing.T) {
	g := newTestGate("1234")

	// Burn the attacker's whole budget.
	for i := 0; i < attemptBurst; i++ {
		g.Check("10.0.0.1", "0000")
	}

	// Flood with fresh callers so eviction sweeps run.
	for i := 0; i < maxTrackedCallers+100; i++ {
		g.limiter(fmt.Sprintf("10.%d.%d.%d", i/65536, i/256%256, i%256))
	}

	if g.Check("10.0.0.1", "1234") {
		t.Error("an over-budget caller must stay rate limited through eviction sweeps")
	}
}

func TestVerifySkipsRateLimit(t *testing.T) {
	g := newTestGate("1234")

	for i := 0; i < 100; i++ {
		if !g.Verify("1234") {
			t.Fatal("verify must not be rate limited")
		}
	}
	if g.Verify("0000") {
		t.Error("wrong passcode must fail verification")
	}
}
