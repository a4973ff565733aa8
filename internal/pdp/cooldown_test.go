package pdp

import (
	"testing"
	"time"

	"github.com/RecoveryAshes/estatecrawl/internal/config"
)

func TestRecordURLFailure_Doubles(t *testing.T) {
	c := NewCooldownTracker(config.PDPConfig{})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	n := c.RecordURLFailure("h1", true, now)
	if n != 1 {
		t.Fatalf("expected failure count 1, got %d", n)
	}
	until, ok := c.URLCooldownUntil("h1")
	if !ok || !until.Equal(now.Add(120*time.Second)) {
		t.Errorf("expected 120s hard cooldown, got %v", until)
	}

	n = c.RecordURLFailure("h1", true, now)
	if n != 2 {
		t.Fatalf("expected failure count 2, got %d", n)
	}
	until, _ = c.URLCooldownUntil("h1")
	if !until.Equal(now.Add(240 * time.Second)) {
		t.Errorf("expected doubled 240s cooldown, got %v", until)
	}
}

func TestRecordURLFailure_SoftBaseDiffersFromHard(t *testing.T) {
	c := NewCooldownTracker(config.PDPConfig{})
	now := time.Now()
	c.RecordURLFailure("soft", false, now)
	until, _ := c.URLCooldownUntil("soft")
	if !until.Equal(now.Add(45 * time.Second)) {
		t.Errorf("expected 45s soft cooldown, got %v", until)
	}
}

func TestRecordURLFailure_CapsAtMax(t *testing.T) {
	c := NewCooldownTracker(config.PDPConfig{})
	now := time.Now()
	for i := 0; i < 10; i++ {
		c.RecordURLFailure("h", true, now)
	}
	until, _ := c.URLCooldownUntil("h")
	if until.After(now.Add(900 * time.Second).Add(time.Second)) {
		t.Errorf("expected cooldown capped at 900s, got %v", until.Sub(now))
	}
}

func TestResetURL_ClearsState(t *testing.T) {
	c := NewCooldownTracker(config.PDPConfig{})
	c.RecordURLFailure("h", true, time.Now())
	c.ResetURL("h")

	if n := c.URLFailureCount("h"); n != 0 {
		t.Errorf("expected failure count reset to 0, got %d", n)
	}
	if _, ok := c.URLCooldownUntil("h"); ok {
		t.Error("expected cooldown cleared")
	}
}

func TestRecordSegmentFailure_Doubles(t *testing.T) {
	c := NewCooldownTracker(config.PDPConfig{})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	c.RecordSegmentFailure("whitefield", now)
	until, ok := c.SegmentCooldownUntil("whitefield")
	if !ok || !until.Equal(now.Add(90*time.Second)) {
		t.Errorf("expected 90s segment cooldown, got %v", until)
	}

	c.RecordSegmentFailure("whitefield", now)
	until, _ = c.SegmentCooldownUntil("whitefield")
	if !until.Equal(now.Add(180 * time.Second)) {
		t.Errorf("expected doubled 180s segment cooldown, got %v", until)
	}
}

func TestBoundedSegmentWait_CapsPerAttempt(t *testing.T) {
	c := NewCooldownTracker(config.PDPConfig{})
	now := time.Now()
	until := now.Add(5 * time.Minute)

	wait := c.BoundedSegmentWait(until, now)
	if wait != 15*time.Second {
		t.Errorf("expected wait capped at 15s, got %v", wait)
	}

	soonUntil := now.Add(5 * time.Second)
	wait = c.BoundedSegmentWait(soonUntil, now)
	if wait != 5*time.Second {
		t.Errorf("expected short remaining cooldown returned as-is, got %v", wait)
	}

	wait = c.BoundedSegmentWait(now.Add(-time.Second), now)
	if wait != 0 {
		t.Errorf("expected zero wait for an already-expired cooldown, got %v", wait)
	}
}

func TestNewCooldownTracker_HonorsConfiguredTimings(t *testing.T) {
	c := NewCooldownTracker(config.PDPConfig{
		CooldownBaseHard:      10,
		CooldownBaseSoft:      5,
		CooldownMax:           20,
		SegmentCooldownBase:   8,
		SegmentCooldownMax:    16,
		SegmentWaitCapSeconds: 3,
	})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	c.RecordURLFailure("h", true, now)
	until, _ := c.URLCooldownUntil("h")
	if !until.Equal(now.Add(10 * time.Second)) {
		t.Errorf("expected configured 10s hard base, got %v", until.Sub(now))
	}

	c.RecordURLFailure("h", true, now)
	until, _ = c.URLCooldownUntil("h")
	if !until.Equal(now.Add(20 * time.Second)) {
		t.Errorf("expected configured 20s max to cap doubling, got %v", until.Sub(now))
	}

	c.RecordSegmentFailure("seg", now)
	segUntil, _ := c.SegmentCooldownUntil("seg")
	if !segUntil.Equal(now.Add(8 * time.Second)) {
		t.Errorf("expected configured 8s segment base, got %v", segUntil.Sub(now))
	}

	if wait := c.BoundedSegmentWait(now.Add(time.Minute), now); wait != 3*time.Second {
		t.Errorf("expected configured 3s wait cap, got %v", wait)
	}
}

func TestSegmentKey_ExtractsLocality(t *testing.T) {
	url := "https://www.example.com/flat-for-sale-in-whitefield-bangalore-pdpid-abc123"
	got := SegmentKey(url)
	if got != "whitefield-bangalore" && got != "whitefield" {
		t.Errorf("expected a locality-shaped segment, got %q", got)
	}
}

func TestSegmentKey_FallsBackToURL(t *testing.T) {
	url := "https://www.example.com/pdpid-xyz"
	if got := SegmentKey(url); got != url {
		t.Errorf("expected fallback to the full url, got %q", got)
	}
}
