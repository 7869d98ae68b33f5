package middleware

import (
	"testing"
	"time"
)

func TestRateLimiter_WindowAndSweep(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rl := newRateLimiter(1, func() time.Time { return now })

	if !rl.allow("a") || rl.allow("a") {
		t.Fatal("expected exactly one request in the window")
	}

	now = now.Add(61 * time.Second)
	if !rl.allow("a") {
		t.Fatal("window should have slid")
	}

	rl.allow("b")
	now = now.Add(sweepInterval)
	rl.allow("c")
	if _, ok := rl.requests["a"]; ok {
		t.Error("idle key a should have been swept")
	}
	if _, ok := rl.requests["b"]; ok {
		t.Error("idle key b should have been swept")
	}
}
