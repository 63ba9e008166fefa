package throttle

import (
	"testing"
	"time"
)

func TestWindowLimits(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	w := NewWindow(10, time.Hour)
	w.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		if !w.Allow("alice") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
		now = now.Add(time.Minute)
	}
	if w.Allow("alice") {
		t.Error("11th attempt within the window should be rejected")
	}

	// Other keys are independent.
	if !w.Allow("bob") {
		t.Error("different key should not be throttled")
	}
}

func TestWindowPrunes(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	w := NewWindow(2, time.Hour)
	w.now = func() time.Time { return now }

	if !w.Allow("alice") || !w.Allow("alice") {
		t.Fatal("first two attempts should be allowed")
	}
	if w.Allow("alice") {
		t.Fatal("third attempt should be rejected")
	}

	// Once the first attempt ages out, one slot frees up.
	now = now.Add(61 * time.Minute)
	if !w.Allow("alice") {
		t.Error("attempt after window expiry should be allowed")
	}
}

func TestWindowRejectionsNotRecorded(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	w := NewWindow(1, time.Hour)
	w.now = func() time.Time { return now }

	w.Allow("alice")
	for i := 0; i < 5; i++ {
		w.Allow("alice")
	}
	// Only the single accepted attempt counts; after it expires the key is clear.
	now = now.Add(61 * time.Minute)
	if !w.Allow("alice") {
		t.Error("rejections must not extend the window")
	}
}

func TestLimiterPerKey(t *testing.T) {
	l := NewLimiter(2)

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("burst should be allowed")
	}
	if l.Allow("a") {
		t.Error("burst exceeded should be rejected")
	}
	if !l.Allow("b") {
		t.Error("different key should have its own bucket")
	}
}
