package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func newTestLimiter(maxRequests int, windowSize time.Duration) (*Limiter, *time.Time) {
	l := New(maxRequests, windowSize)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiter_Allow(t *testing.T) {
	tests := []struct {
		name        string
		maxRequests int
		requests    int
		wantLast    bool
	}{
		{name: "first request allowed", maxRequests: 5, requests: 1, wantLast: true},
		{name: "all requests within limit allowed", maxRequests: 5, requests: 5, wantLast: true},
		{name: "request over limit denied", maxRequests: 5, requests: 6, wantLast: false},
		{name: "limit of one", maxRequests: 1, requests: 2, wantLast: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _ := newTestLimiter(tt.maxRequests, 5*time.Minute)

			var got bool
			for i := 0; i < tt.requests; i++ {
				got = l.Allow(42)
			}

			if got != tt.wantLast {
				t.Errorf("Allow() after %d requests = %v, want %v", tt.requests, got, tt.wantLast)
			}
		})
	}
}

func TestLimiter_WindowReset(t *testing.T) {
	l, now := newTestLimiter(5, 5*time.Minute)

	for i := 0; i < 5; i++ {
		if !l.Allow(1) {
			t.Fatalf("request %d unexpectedly denied", i+1)
		}
	}
	if l.Allow(1) {
		t.Fatal("6th request in window should be denied")
	}

	// Advance past the window: the counter resets on the next request.
	*now = now.Add(5*time.Minute + time.Second)
	if !l.Allow(1) {
		t.Fatal("request after window elapsed should be admitted")
	}

	// The reset opened a fresh window with count 1.
	for i := 0; i < 4; i++ {
		if !l.Allow(1) {
			t.Fatalf("request %d of fresh window unexpectedly denied", i+2)
		}
	}
	if l.Allow(1) {
		t.Fatal("fresh window should also cap at maxRequests")
	}
}

func TestLimiter_UsersAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(1, 5*time.Minute)

	if !l.Allow(1) {
		t.Fatal("first request for user 1 denied")
	}
	if l.Allow(1) {
		t.Fatal("second request for user 1 should be denied")
	}
	if !l.Allow(2) {
		t.Fatal("user 2 should not share user 1's window")
	}
}

func TestLimiter_TimeUntilReset(t *testing.T) {
	l, now := newTestLimiter(5, 5*time.Minute)

	if got := l.TimeUntilReset(7); got != 0 {
		t.Errorf("TimeUntilReset() with no window = %v, want 0", got)
	}

	l.Allow(7)
	*now = now.Add(10 * time.Second)

	if got := l.TimeUntilReset(7); got != 4*time.Minute+50*time.Second {
		t.Errorf("TimeUntilReset() = %v, want 4m50s", got)
	}

	*now = now.Add(10 * time.Minute)
	if got := l.TimeUntilReset(7); got != 0 {
		t.Errorf("TimeUntilReset() after expiry = %v, want 0", got)
	}
}

func TestLimiter_BurstScenario(t *testing.T) {
	// Five alerts in ten seconds are all admitted; the sixth is denied with
	// roughly 290 seconds left in the window.
	l, now := newTestLimiter(5, 5*time.Minute)

	for i := 0; i < 5; i++ {
		if !l.Allow(99) {
			t.Fatalf("alert %d should be admitted", i+1)
		}
		*now = now.Add(2 * time.Second)
	}

	if l.Allow(99) {
		t.Fatal("6th alert within the window should be denied")
	}

	if got := l.TimeUntilReset(99); got != 290*time.Second {
		t.Errorf("TimeUntilReset() = %v, want 290s", got)
	}
}

func TestLimiter_ConcurrentAdmissions(t *testing.T) {
	l := New(50, 5*time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow(1) {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 50 {
		t.Errorf("admitted %d concurrent requests, want exactly 50", admitted)
	}
}
